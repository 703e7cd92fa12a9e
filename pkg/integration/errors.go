package integration

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when an operation references an integration or
// webhook that does not exist, or is inactive when activity is required.
var ErrNotFound = errors.New("integration not found")

// ValidationError reports malformed or missing fields on register/update.
// It is surfaced to the caller synchronously and never written to
// integration_logs.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
