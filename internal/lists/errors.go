package lists

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is the parent of every ValidationError
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned for unknown or deleted lists and items
	ErrNotFound = errors.New("not found")
)

// ValidationError reports user-supplied data that fails a basic constraint.
// It is raised before any state changes.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
