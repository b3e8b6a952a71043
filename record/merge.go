package record

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// setOnce applies the take-first rule: the slot is written only when unset.
func setOnce[T any](slot *Opt[T], v T) {
	if slot.set {
		return
	}
	*slot = Some(v)
}

// Merge returns a copy of r with field f set to value, unless f is already
// set, in which case r is returned unchanged. It panics on a Field that does
// not name a string field, which is a programming error.
func Merge(r Record, f Field, value string) Record {
	s := r.slot(f)
	if s == nil {
		panic(fmt.Sprintf("record: %q is not a string field", f))
	}
	setOnce(s, value)
	return r
}

// MergeMarketCap sets the market capitalisation (in millions) once.
func MergeMarketCap(r Record, v decimal.Decimal) Record {
	setOnce(&r.MarketCap, v)
	return r
}

// MergeBalanceSheet sets the quarterly balance sheet once.
func MergeBalanceSheet(r Record, v BalanceSheet) Record {
	setOnce(&r.BalanceSheet, v)
	return r
}

// MergeAll merges several string fields in order.
func MergeAll(r Record, values map[Field]string) Record {
	for _, f := range StringFields {
		if v, ok := values[f]; ok {
			r = Merge(r, f, v)
		}
	}
	return r
}
