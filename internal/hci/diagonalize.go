package hci

import (
	"fmt"

	"github.com/san-kum/vhci/internal/eigen"
	"github.com/san-kum/vhci/internal/ham"
	"github.com/san-kum/vhci/internal/vib"
)

// DenseDiagonalize assembles the dense Hamiltonian and returns every
// eigenpair in ascending order.
func DenseDiagonalize(basis *vib.Basis, freqs []float64, pot vib.Potential) (*eigen.Result, error) {
	h, err := ham.Dense(basis, freqs, pot)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return &eigen.Result{}, nil
	}
	r, err := eigen.Dense(h)
	if err != nil {
		return nil, fmt.Errorf("dense diagonalize %d states: %w", basis.Len(), err)
	}
	return r, nil
}

// SparseDiagonalize assembles the sparse Hamiltonian and returns its nRoots
// lowest eigenpairs. A zero ncv selects the solver default.
func SparseDiagonalize(basis *vib.Basis, freqs []float64, pot vib.Potential, nRoots, ncv int) (*eigen.Result, error) {
	return sparseDiagonalize(basis, freqs, pot, nRoots, eigen.Options{NCV: ncv})
}

func sparseDiagonalize(basis *vib.Basis, freqs []float64, pot vib.Potential, nRoots int, opts eigen.Options) (*eigen.Result, error) {
	h, err := ham.Sparse(basis, freqs, pot)
	if err != nil {
		return nil, err
	}
	r, err := eigen.SymEigs(h, nRoots, opts)
	if err != nil {
		return nil, fmt.Errorf("sparse diagonalize %d states: %w", basis.Len(), err)
	}
	return r, nil
}
