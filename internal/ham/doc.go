// Package ham assembles vibrational Hamiltonians over a basis of harmonic
// product states.
//
// Both builders enumerate pairs i <= j, compute one quanta difference per
// pair, reject the pair when the difference exceeds what the highest-order
// term can bridge, then screen and evaluate every term. Diagonal elements
// also receive the harmonic energy.
//
// Dense returns a *mat.SymDense. Sparse returns a *CSR that stores both
// triangles and implements mat.Symmetric, so either result can be handed to
// the solvers in package eigen.
package ham
