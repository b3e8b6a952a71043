package record

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// MarshalJSON renders the set fields as a flat object keyed by Field, with
// the balance sheet nested by quarter.
func (r Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(StringFields)+2)
	for _, f := range StringFields {
		if v, ok := r.Value(f); ok {
			out[string(f)] = v
		}
	}
	if v, ok := r.MarketCap.Get(); ok {
		out[string(FieldMarketCap)] = v.String()
	}
	if bs, ok := r.BalanceSheet.Get(); ok {
		quarters := make(map[string]BalanceSheetQuarter, len(bs))
		for _, q := range Quarters {
			quarters[q.String()] = bs[q]
		}
		out[string(FieldBalanceSheet)] = quarters
	}
	return json.Marshal(out)
}

// UnmarshalJSON is the inverse of MarshalJSON. Unknown keys are ignored.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	var out Record
	for _, f := range StringFields {
		msg, ok := raw[string(f)]
		if !ok {
			continue
		}
		var v string
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("field %s: %w", f, err)
		}
		out = Merge(out, f, v)
	}

	if msg, ok := raw[string(FieldMarketCap)]; ok {
		var v string
		if err := json.Unmarshal(msg, &v); err != nil {
			return fmt.Errorf("field %s: %w", FieldMarketCap, err)
		}
		d, err := decimal.NewFromString(v)
		if err != nil {
			return fmt.Errorf("field %s: %w", FieldMarketCap, err)
		}
		out = MergeMarketCap(out, d)
	}

	if msg, ok := raw[string(FieldBalanceSheet)]; ok {
		var quarters map[string]BalanceSheetQuarter
		if err := json.Unmarshal(msg, &quarters); err != nil {
			return fmt.Errorf("field %s: %w", FieldBalanceSheet, err)
		}
		var bs BalanceSheet
		for _, q := range Quarters {
			bs[q] = quarters[q.String()]
		}
		out = MergeBalanceSheet(out, bs)
	}

	*r = out
	return nil
}
