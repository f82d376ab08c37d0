package model

import "fmt"

// ValidationError marks a malformed or incomplete input record. It is fatal
// for the affected (offer, period) only; the catalog build keeps going and
// reports the collected errors unless strict validation is on.
type ValidationError struct {
	OfferID string
	Period  Period
	Msg     string
}

func (e *ValidationError) Error() string {
	if e.OfferID == "" {
		return fmt.Sprintf("validation: %s: %s", e.Period, e.Msg)
	}
	return fmt.Sprintf("validation: offer %s %s: %s", e.OfferID, e.Period, e.Msg)
}

// InfeasibleInputError marks structurally impossible constraints, such as
// negative demand. Allocation for the affected period is aborted; other
// periods are unaffected.
type InfeasibleInputError struct {
	Period Period
	Msg    string
}

func (e *InfeasibleInputError) Error() string {
	return fmt.Sprintf("infeasible input at %s: %s", e.Period, e.Msg)
}
