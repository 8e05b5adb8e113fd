package eigen

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRoots indicates a root count outside [1, n).
	ErrTooManyRoots = errors.New("eigen: number of roots must be at least 1 and below the matrix order")

	// ErrSubspace indicates a Krylov subspace size outside (k, n].
	ErrSubspace = errors.New("eigen: subspace size must exceed the root count and not exceed the matrix order")

	// ErrFactorization indicates the dense eigendecomposition failed.
	ErrFactorization = errors.New("eigen: symmetric eigendecomposition failed")

	// ErrNotConverged indicates the iterative solver ran out of restarts.
	ErrNotConverged = errors.New("eigen: iterative solver did not converge")
)

// ConvergenceError reports how far an iterative solve got before giving up.
type ConvergenceError struct {
	Restarts  int
	Converged int
	Wanted    int
	Residual  float64 // largest unconverged residual norm
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("%v: %d of %d ritz pairs after %d restarts (residual %.3g)",
		ErrNotConverged, e.Converged, e.Wanted, e.Restarts, e.Residual)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrNotConverged
}
