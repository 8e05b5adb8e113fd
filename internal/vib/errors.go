package vib

import (
	"errors"
	"fmt"
)

// Domain errors for basis and potential construction.
var (
	// ErrDimensionMismatch indicates a state whose mode count differs from the frequencies.
	ErrDimensionMismatch = errors.New("vib: mode count mismatch between state and frequencies")

	// ErrNegativeQuanta indicates a harmonic function with fewer than zero quanta.
	ErrNegativeQuanta = errors.New("vib: negative quanta")

	// ErrInvalidForceConstant indicates a term without mode indices or with a negative index.
	ErrInvalidForceConstant = errors.New("vib: invalid force constant")

	// ErrModeOutOfRange indicates a term touching a mode the basis does not have.
	ErrModeOutOfRange = errors.New("vib: force constant mode index out of range")

	// ErrEmptyBasis indicates an operation that needs at least one basis state.
	ErrEmptyBasis = errors.New("vib: empty basis")
)

// StateError wraps an error with the position of the offending basis state.
type StateError struct {
	Index   int
	Wrapped error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("basis state %d: %v", e.Index, e.Wrapped)
}

func (e *StateError) Unwrap() error {
	return e.Wrapped
}
