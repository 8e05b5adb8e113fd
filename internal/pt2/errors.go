package pt2

import "errors"

var (
	// ErrInvalidInput indicates eigenpairs inconsistent with the basis or the root count.
	ErrInvalidInput = errors.New("pt2: invalid input")

	// ErrSampling indicates unusable stochastic parameters.
	ErrSampling = errors.New("pt2: invalid sampling parameters")
)
