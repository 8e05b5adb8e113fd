package vib

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

type HarmonicFunc struct {
	Freq   float64
	Quanta int
}

// State is a product of harmonic oscillator functions. It is never mutated
// after construction.
type State struct {
	Modes []HarmonicFunc
}

// NewState copies quanta and frequencies into a new state.
func NewState(quanta []int, freqs []float64) (State, error) {
	if len(quanta) != len(freqs) {
		return State{}, fmt.Errorf("%w: %d quanta for %d frequencies", ErrDimensionMismatch, len(quanta), len(freqs))
	}
	modes := make([]HarmonicFunc, len(quanta))
	for i, q := range quanta {
		if q < 0 {
			return State{}, fmt.Errorf("%w: mode %d has %d", ErrNegativeQuanta, i, q)
		}
		modes[i] = HarmonicFunc{Freq: freqs[i], Quanta: q}
	}
	return State{Modes: modes}, nil
}

// GroundState returns the state with zero quanta in every mode.
func GroundState(freqs []float64) State {
	s, _ := NewState(make([]int, len(freqs)), freqs)
	return s
}

func (s State) M() int { return len(s.Modes) }

func (s State) Quanta(mode int) int { return s.Modes[mode].Quanta }

func (s State) QuantaVector() []int {
	q := make([]int, len(s.Modes))
	for i, m := range s.Modes {
		q[i] = m.Quanta
	}
	return q
}

// withQuanta builds a state sharing s's frequencies. q is owned by the result.
func (s State) withQuanta(q []int) State {
	modes := make([]HarmonicFunc, len(q))
	for i := range q {
		modes[i] = HarmonicFunc{Freq: s.Modes[i].Freq, Quanta: q[i]}
	}
	return State{Modes: modes}
}

// Equal compares quanta only.
func (s State) Equal(other State) bool {
	if len(s.Modes) != len(other.Modes) {
		return false
	}
	for i := range s.Modes {
		if s.Modes[i].Quanta != other.Modes[i].Quanta {
			return false
		}
	}
	return true
}

// Hash digests the ordered quanta sequence.
func (s State) Hash() uint64 {
	var buf [8]byte
	d := xxhash.New()
	for _, m := range s.Modes {
		binary.LittleEndian.PutUint64(buf[:], uint64(m.Quanta))
		d.Write(buf[:])
	}
	return d.Sum64()
}

// HarmonicEnergy is the zeroth-order energy sum of freq*(n+1/2).
func (s State) HarmonicEnergy() float64 {
	e := 0.0
	for _, m := range s.Modes {
		e += m.Freq * (float64(m.Quanta) + 0.5)
	}
	return e
}

func (s State) String() string {
	var b strings.Builder
	b.WriteByte('|')
	for i, m := range s.Modes {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.Itoa(m.Quanta))
	}
	b.WriteByte('>')
	return b.String()
}

// Label names the excitation, e.g. "2w0 + w3". The ground state is "0".
func (s State) Label() string {
	parts := make([]string, 0, len(s.Modes))
	for i, m := range s.Modes {
		switch {
		case m.Quanta == 1:
			parts = append(parts, fmt.Sprintf("w%d", i))
		case m.Quanta > 1:
			parts = append(parts, fmt.Sprintf("%dw%d", m.Quanta, i))
		}
	}
	if len(parts) == 0 {
		return "0"
	}
	return strings.Join(parts, " + ")
}
