package broker

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an account, instrument, order or
	// position does not exist.
	ErrNotFound = errors.New("not found")

	// ErrQuoteUnavailable is returned when an upstream price fetch failed,
	// timed out, or produced an unusable quote. Orders stay pending on it.
	ErrQuoteUnavailable = errors.New("quote unavailable")

	// ErrInvalidStateTransition is returned for illegal order status
	// changes, e.g. cancelling a filled order.
	ErrInvalidStateTransition = errors.New("invalid state transition")

	// ErrInsufficientFunds is returned when a fill would take the account
	// balance negative and the margin policy forbids it.
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ValidationError reports malformed or out-of-bounds order input.
// Orders failing validation never reach pending.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Reason)
}
