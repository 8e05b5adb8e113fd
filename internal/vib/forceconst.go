package vib

import (
	"fmt"
	"math"
	"slices"
)

// ForceConstant is one anharmonic term V * q_i q_j ... in dimensionless
// normal coordinates. Value carries the permutation factor.
type ForceConstant struct {
	Order   int
	Value   float64
	Indices []int
	Unique  []int // sorted distinct modes of Indices
	Powers  []int // multiplicity of each Unique mode
}

// NewForceConstant builds a term from its mode indices. With scale set the
// value is divided by sqrt(2^order) and by the factorial of every power, once.
func NewForceConstant(value float64, indices []int, scale bool) (ForceConstant, error) {
	if len(indices) == 0 {
		return ForceConstant{}, fmt.Errorf("%w: no mode indices", ErrInvalidForceConstant)
	}
	for _, q := range indices {
		if q < 0 {
			return ForceConstant{}, fmt.Errorf("%w: negative mode index %d", ErrInvalidForceConstant, q)
		}
	}

	fc := ForceConstant{
		Order:   len(indices),
		Value:   value,
		Indices: slices.Clone(indices),
	}
	fc.Unique = slices.Clone(indices)
	slices.Sort(fc.Unique)
	fc.Unique = slices.Compact(fc.Unique)
	fc.Powers = make([]int, len(fc.Unique))
	for i, u := range fc.Unique {
		for _, q := range indices {
			if q == u {
				fc.Powers[i]++
			}
		}
	}

	if scale {
		fc.Value /= math.Sqrt(math.Pow(2, float64(fc.Order)))
		for _, p := range fc.Powers {
			fc.Value /= Factorial(p)
		}
	}
	return fc, nil
}

// Power returns the multiplicity of mode in the term, zero if absent.
func (fc ForceConstant) Power(mode int) int {
	if i, ok := slices.BinarySearch(fc.Unique, mode); ok {
		return fc.Powers[i]
	}
	return 0
}

// Diagonal reports whether the term can couple a state to itself.
func (fc ForceConstant) Diagonal() bool {
	for _, p := range fc.Powers {
		if p%2 != 0 {
			return false
		}
	}
	return true
}

func (fc ForceConstant) String() string {
	return fmt.Sprintf("V%v=%.6g", fc.Indices, fc.Value)
}

func Factorial(n int) float64 {
	f := 1.0
	for i := 2; i <= n; i++ {
		f *= float64(i)
	}
	return f
}

// Potential is the single variable-order list of anharmonic terms.
type Potential []ForceConstant

// Merge concatenates per-order term lists.
func Merge(lists ...[]ForceConstant) Potential {
	n := 0
	for _, l := range lists {
		n += len(l)
	}
	p := make(Potential, 0, n)
	for _, l := range lists {
		p = append(p, l...)
	}
	return p
}

func (p Potential) MaxOrder() int {
	m := 0
	for _, fc := range p {
		m = max(m, fc.Order)
	}
	return m
}

// Validate checks every term against the number of modes.
func (p Potential) Validate(modes int) error {
	for i, fc := range p {
		sum := 0
		for _, pw := range fc.Powers {
			sum += pw
		}
		if len(fc.Unique) == 0 || fc.Order != len(fc.Indices) || sum != fc.Order {
			return fmt.Errorf("%w: term %d", ErrInvalidForceConstant, i)
		}
		if last := fc.Unique[len(fc.Unique)-1]; last >= modes {
			return fmt.Errorf("%w: term %d touches mode %d of %d", ErrModeOutOfRange, i, last, modes)
		}
	}
	return nil
}

// Diagonal returns the terms that can contribute to diagonal elements.
func (p Potential) Diagonal() Potential {
	var d Potential
	for _, fc := range p {
		if fc.Diagonal() {
			d = append(d, fc)
		}
	}
	return d
}

// ByOrder groups terms by polynomial order.
func (p Potential) ByOrder() map[int][]ForceConstant {
	m := make(map[int][]ForceConstant)
	for _, fc := range p {
		m[fc.Order] = append(m[fc.Order], fc)
	}
	return m
}
