package store

import (
	"errors"

	"github.com/benvon/todo-app/internal/validation"
)

// ErrNotFound is returned when no todo has the requested id
var ErrNotFound = errors.New("todo not found")

// ValidationError is returned when input fails the todo field constraints
type ValidationError = validation.Error

// IsNotFound reports whether err is, or wraps, ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// AsValidationError extracts a *ValidationError from err
func AsValidationError(err error) (*ValidationError, bool) {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr, true
	}
	return nil, false
}
