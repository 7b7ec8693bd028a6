package service

import "errors"

const (
	msgMissingFields   = "please fill in all fields"
	msgInvalidPrice    = "please enter a valid price"
	msgUnknownCurrency = "please choose a supported currency"
)

// ErrNoPriceData is the informational outcome of a lookup that matched no
// record. It is not a store failure.
var ErrNoPriceData = errors.New("no price data found for this location and item")

type Reason string

const (
	ReasonMissingFields   Reason = "missing_fields"
	ReasonInvalidPrice    Reason = "invalid_price"
	ReasonUnknownCurrency Reason = "unknown_currency"
)

// ValidationError is raised before any store call and is never retried.
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// StoreError wraps a failure of the record store during Op.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + " failed: " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
