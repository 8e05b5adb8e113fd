// Package hci grows a variational basis with heat-bath selection and drives
// the HCI iteration.
//
// A basis state i with importance w_i = max_n |C_in| connects through term t
// to every state reachable by a structurally allowed quanta change of the
// term's modes whenever |V_t| w_i >= eps. Terms sorted by descending
// magnitude let the scan of a source state stop at the first failing term.
//
// Run alternates diagonalization and expansion until the fraction of newly
// added states drops to the tolerance.
package hci
