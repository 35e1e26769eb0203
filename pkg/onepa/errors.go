package onepa

import (
	"errors"
	"fmt"
)

var (
	// ErrDirectory is returned when the outlet directory cannot be resolved.
	ErrDirectory = errors.New("outlet directory resolution failed")

	// ErrInvalidInput is matched by every *InputError.
	ErrInvalidInput = errors.New("invalid input")
)

// InputError describes a user-correctable selection problem.
type InputError struct {
	Field  string
	Reason string
}

// Error implements the error interface.
func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrInvalidInput) match.
func (e *InputError) Unwrap() error {
	return ErrInvalidInput
}
