package vib

import (
	"fmt"
)

// Basis is an ordered sequence of unique states with a hash index for
// constant-time membership tests.
type Basis struct {
	states []State
	index  map[uint64][]int
}

// NewBasis builds a basis from states, silently dropping duplicates.
func NewBasis(states ...State) *Basis {
	b := &Basis{
		states: make([]State, 0, len(states)),
		index:  make(map[uint64][]int, len(states)),
	}
	for _, s := range states {
		b.Add(s)
	}
	return b
}

// Add appends s unless an equal state is present. It returns the position of
// s in the basis and whether it was added.
func (b *Basis) Add(s State) (int, bool) {
	h := s.Hash()
	for _, i := range b.index[h] {
		if b.states[i].Equal(s) {
			return i, false
		}
	}
	b.states = append(b.states, s)
	idx := len(b.states) - 1
	b.index[h] = append(b.index[h], idx)
	return idx, true
}

// IndexOf returns the position of s, or -1.
func (b *Basis) IndexOf(s State) int {
	for _, i := range b.index[s.Hash()] {
		if b.states[i].Equal(s) {
			return i
		}
	}
	return -1
}

func (b *Basis) Contains(s State) bool { return b.IndexOf(s) >= 0 }

func (b *Basis) Len() int { return len(b.states) }

func (b *Basis) At(i int) State { return b.states[i] }

// States exposes the ordered states. The slice must not be modified.
func (b *Basis) States() []State { return b.states }

// Modes returns the mode count of the first state, zero for an empty basis.
func (b *Basis) Modes() int {
	if len(b.states) == 0 {
		return 0
	}
	return b.states[0].M()
}

// Clone returns an independent copy sharing the immutable states.
func (b *Basis) Clone() *Basis {
	c := &Basis{
		states: make([]State, len(b.states), cap(b.states)),
		index:  make(map[uint64][]int, len(b.index)),
	}
	copy(c.states, b.states)
	for h, idx := range b.index {
		c.index[h] = append([]int(nil), idx...)
	}
	return c
}

// Validate checks that every state has exactly one quantum number per frequency.
func (b *Basis) Validate(freqs []float64) error {
	for i, s := range b.states {
		if s.M() != len(freqs) {
			return &StateError{Index: i, Wrapped: fmt.Errorf("%w: %d modes, %d frequencies", ErrDimensionMismatch, s.M(), len(freqs))}
		}
		for k, m := range s.Modes {
			if m.Quanta < 0 {
				return &StateError{Index: i, Wrapped: fmt.Errorf("%w: mode %d", ErrNegativeQuanta, k)}
			}
		}
	}
	return nil
}

// TruncatedBasis enumerates states by increasing total quanta, up to
// maxTotal, keeping every mode k below maxQuanta[k].
func TruncatedBasis(freqs []float64, maxQuanta []int, maxTotal int) (*Basis, error) {
	if len(maxQuanta) != len(freqs) {
		return nil, fmt.Errorf("%w: %d quanta limits for %d frequencies", ErrDimensionMismatch, len(maxQuanta), len(freqs))
	}
	ground := GroundState(freqs)
	b := NewBasis(ground)
	frontier := []State{ground}
	for m := 0; m < maxTotal; m++ {
		var next []State
		for _, s := range frontier {
			for k := range s.Modes {
				q := s.QuantaVector()
				q[k]++
				if q[k] >= maxQuanta[k] {
					continue
				}
				ns := s.withQuanta(q)
				if _, added := b.Add(ns); added {
					next = append(next, ns)
				}
			}
		}
		frontier = next
	}
	return b, nil
}
