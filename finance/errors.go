package finance

import (
	"fmt"

	"financescrapper/record"
)

// SelectorMissError is returned when a required fact matches neither its
// primary nor its fallback selector.
type SelectorMissError struct {
	Stage    record.Stage
	What     string
	Selector string
}

// Error returns the message for the SelectorMissError.
func (e SelectorMissError) Error() string {
	return fmt.Sprintf("%s: no match for %s (%s)", e.Stage, e.What, e.Selector)
}
