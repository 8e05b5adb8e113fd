// Package vib provides the core primitives of a vibrational configuration
// interaction calculation.
//
// The package defines the basis and potential model and the ladder-operator
// matrix elements that every other stage builds on:
//
//   - [HarmonicFunc]: a single-mode harmonic oscillator function
//   - [State]: a product of harmonic functions, one per normal mode
//   - [ForceConstant]: one polynomial term of the anharmonic potential
//   - [Potential]: the variable-order list of all terms
//   - [Basis]: an ordered, duplicate-free set of states with a hash index
//   - [Screen] and [Coupling]: structural screening and exact matrix elements
//
// # Example
//
//	freqs := []float64{1000, 2000}
//	basis, _ := vib.TruncatedBasis(freqs, []int{3, 3}, 4)
//	fc, _ := vib.NewForceConstant(50, []int{0, 0, 1}, true)
//	v := vib.ScreenedCoupling(basis.At(0), basis.At(2), fc)
//
// # Identity
//
// Two states are equal when their quanta are equal. Frequencies are mode
// constants of a calculation and take no part in equality or hashing.
//
// # Thread Safety
//
// States and force constants are immutable and may be shared freely. A
// [Basis] may be read concurrently but must only be mutated from a single
// goroutine. [ParallelFor] is the fork-join helper used by the assembly,
// selection and perturbation stages.
package vib
