package service

import (
	"errors"
	"fmt"
)

// Domain errors returned by the ledger and recorder. Handlers map them to
// HTTP status codes; anything else is an internal error.
var (
	ErrAlreadyOpen              = errors.New("operator already has an open session")
	ErrNotFoundOrClosed         = errors.New("session not found or already closed")
	ErrFrozenSession            = errors.New("session is closed and accepts no transactions")
	ErrSessionNotFound          = errors.New("session not found")
	ErrInsufficientCashReceived = errors.New("cash received is less than the amount due")
)

// ValidationError rejects an input field before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// AsValidation unwraps a *ValidationError from err.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}
