package model

import "errors"

// ValidationError is a user-facing input problem detected before any store
// call. Handlers render Message as-is with a 400 status.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Invalid builds a ValidationError.
func Invalid(msg string) error { return &ValidationError{Message: msg} }

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ErrInvalidTransition is returned when a profile state change is not
// allowed from its current state.
var ErrInvalidTransition = errors.New("invalid approval state transition")
