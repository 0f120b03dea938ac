package core

import (
	"errors"
	"fmt"
)

// Rejected submissions. Each leaves the session unchanged.
var (
	ErrEmptyInput        = errors.New("input is empty")
	ErrNotAcceptingInput = errors.New("session is not accepting input")
	ErrTurnPending       = errors.New("next question has not been asked yet")
	ErrCallInFlight      = errors.New("a reply is already being generated")
	ErrGated             = errors.New("session is gated until the user authenticates")
	ErrClosed            = errors.New("session is closed")
	ErrUnknownSession    = errors.New("unknown session")
)

// ValidationError represents a validation failure.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsRejection reports whether err is a refused submission rather than a
// failure of the session.
func IsRejection(err error) bool {
	switch {
	case errors.Is(err, ErrNotAcceptingInput),
		errors.Is(err, ErrTurnPending),
		errors.Is(err, ErrCallInFlight),
		errors.Is(err, ErrGated):
		return true
	}
	return false
}
