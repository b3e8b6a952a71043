// Package normalize converts raw page text into typed values: percentages,
// unit-suffixed magnitudes, locale formatted numbers and ratios.
package normalize

import (
	"strings"

	"github.com/shopspring/decimal"
)

// NA is the sentinel written when a fact is legitimately absent from a page.
const NA = "N/A"

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// RoundHalfUp rounds d to the given number of decimal places, halves away from zero.
func RoundHalfUp(d decimal.Decimal, places int32) decimal.Decimal {
	return d.Round(places)
}

// FormatPercent renders d rounded half-up to two places with a trailing "%".
func FormatPercent(d decimal.Decimal) string {
	return RoundHalfUp(d, 2).StringFixed(2) + "%"
}

// ParsePercentChange formats 1 - (previous - reference) as a percentage.
func ParsePercentChange(previous, reference decimal.Decimal) string {
	return FormatPercent(one.Sub(previous.Sub(reference)))
}

// Ratio returns numerator/denominator*100 formatted as a percentage.
func Ratio(numerator, denominator decimal.Decimal) (string, error) {
	if denominator.IsZero() {
		return "", DivisionByZeroError{Numerator: numerator}
	}
	return FormatPercent(numerator.Mul(hundred).Div(denominator)), nil
}

// FirstNonEmpty returns the first candidate that is not blank, or NA.
// The pages render some facts through alternate DOM shapes, so callers pass
// the primary selector result first and fallbacks after it.
func FirstNonEmpty(candidates ...string) string {
	for _, c := range candidates {
		if v := strings.TrimSpace(c); v != "" {
			return v
		}
	}
	return NA
}
