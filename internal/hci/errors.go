package hci

import "errors"

var (
	// ErrHCINotConverged indicates the iteration limit was reached while the
	// basis was still growing faster than the tolerance.
	ErrHCINotConverged = errors.New("hci: heat-bath iteration did not converge")

	// ErrVectorRows indicates coefficient vectors whose row count differs from the basis size.
	ErrVectorRows = errors.New("hci: coefficient rows do not match basis size")

	// ErrInvalidOptions indicates a non-positive root count, epsilon or tolerance.
	ErrInvalidOptions = errors.New("hci: invalid options")
)
