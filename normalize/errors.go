package normalize

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ParseError is returned when page text is present but cannot be converted
// to the expected numeric form.
type ParseError struct {
	Input string
	Kind  string
	cause error
}

// NewParseError creates a ParseError for the given input and expected kind.
func NewParseError(input, kind string, cause error) ParseError {
	return ParseError{Input: input, Kind: kind, cause: cause}
}

// Error returns the message for the ParseError.
func (e ParseError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("cannot parse %q as %s: %v", e.Input, e.Kind, e.cause)
	}
	return fmt.Sprintf("cannot parse %q as %s", e.Input, e.Kind)
}

// Unwrap returns the underlying cause, if any.
func (e ParseError) Unwrap() error {
	return e.cause
}

// DivisionByZeroError is returned by Ratio when the denominator is zero.
type DivisionByZeroError struct {
	Numerator decimal.Decimal
}

// Error returns the message for the DivisionByZeroError.
func (e DivisionByZeroError) Error() string {
	return fmt.Sprintf("division by zero: %s / 0", e.Numerator.String())
}
