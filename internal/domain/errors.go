package domain

import (
	"errors"
	"fmt"
)

// ValidationError reports a structural failure during order construction:
// malformed strikes, missing required hedge, out-of-bounds parameters.
// It is a distinct channel from ordinary "no decision" outcomes - validation
// errors propagate and abort the construction that raised them.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError builds a ValidationError with a formatted reason.
func NewValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	return fmt.Sprintf("order validation failed (%s): %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
