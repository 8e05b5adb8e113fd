// Package pt2 computes second-order perturbative corrections to HCI
// energies from states outside the variational basis.
//
// The perturbative space at threshold eps holds every external state a
// reached from basis state i through term t with |V_t C_in| >= eps. Its
// numerator for root n is
//
//	A_an = sum over such (i, t) of <a|V_t|i> C_in
//
// and the correction is sum_a A_an^2 / (E_n - E_a), where E_a is the
// harmonic plus diagonal anharmonic energy of a.
//
// Compute evaluates the sum exactly. ComputeSemiStochastic adds a Monte
// Carlo estimate of the remainder between eps and a tighter Eps2, drawing
// walkers in proportion to |C_in|; ComputeStochastic estimates the whole
// correction that way.
package pt2
