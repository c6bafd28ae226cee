package task

import (
	"errors"
	"fmt"
)

// Sentinel errors for task operations.
var (
	// ErrValidation is matched by every ValidationError.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound is returned when the referenced task does not exist.
	ErrNotFound = errors.New("task not found")

	// ErrConflict is returned when an identity invariant would be violated.
	ErrConflict = errors.New("task conflict")
)

// ValidationError describes a payload that failed a precondition.
type ValidationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

// Unwrap lets errors.Is(err, ErrValidation) succeed.
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func newValidationError(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError builds an error matching ErrNotFound for the given id.
func NotFoundError(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// ConflictError builds an error matching ErrConflict.
func ConflictError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}
