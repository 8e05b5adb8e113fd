package vib

import (
	"math"
	"slices"
)

// Delta is the quanta difference between two states.
type Delta struct {
	PerMode []int // |n_k - m_k|
	Total   int
	Changed int
}

// Diff computes the quanta difference of bn and bm, which must have the same
// mode count.
func Diff(bn, bm State) Delta {
	var d Delta
	DiffInto(&d, bn, bm)
	return d
}

// DiffInto is Diff reusing the storage of d.
func DiffInto(d *Delta, bn, bm State) {
	if cap(d.PerMode) < len(bn.Modes) {
		d.PerMode = make([]int, len(bn.Modes))
	}
	d.PerMode = d.PerMode[:len(bn.Modes)]
	d.Total, d.Changed = 0, 0
	for k := range bn.Modes {
		q := bn.Modes[k].Quanta - bm.Modes[k].Quanta
		if q < 0 {
			q = -q
		}
		d.PerMode[k] = q
		d.Total += q
		if q != 0 {
			d.Changed++
		}
	}
}

// Screen applies necessary conditions for a nonzero matrix element of fc
// between the two states of d. A false result proves the element is zero; a
// true result proves nothing.
func Screen(d Delta, fc ForceConstant) bool {
	if d.Total > fc.Order || d.Changed > len(fc.Unique) || d.Total%2 != fc.Order%2 {
		return false
	}
	touched := 0
	for i, mode := range fc.Unique {
		q := d.PerMode[mode]
		if q > fc.Powers[i] || q%2 != fc.Powers[i]%2 {
			return false
		}
		if q != 0 {
			touched++
		}
	}
	// every changed mode must be one of the term's modes
	return touched == d.Changed
}

// Coupling evaluates <bn|V|bm> for a single term by walking the ladder
// operators of (a + a†)^p on each touched mode.
func Coupling(bn, bm State, fc ForceConstant) float64 {
	for k := range bn.Modes {
		if bn.Modes[k].Quanta != bm.Modes[k].Quanta && fc.Power(k) == 0 {
			return 0
		}
	}
	v := fc.Value
	for i, mode := range fc.Unique {
		v *= ladderElement(bn.Modes[mode].Quanta, bm.Modes[mode].Quanta, fc.Powers[i])
		if v == 0 {
			return 0
		}
	}
	return v
}

// Connected calls fn for every state reachable from s through a structurally
// allowed change of fc's modes: each unique mode moves by one of -p, -p+2,
// ..., p quanta and stays non-negative. s itself is skipped.
func Connected(s State, fc ForceConstant, fn func(State)) {
	q := s.QuantaVector()
	var walk func(u int, changed bool)
	walk = func(u int, changed bool) {
		if u == len(fc.Unique) {
			if changed {
				fn(s.withQuanta(slices.Clone(q)))
			}
			return
		}
		mode, p := fc.Unique[u], fc.Powers[u]
		base := q[mode]
		for d := -p; d <= p; d += 2 {
			if base+d < 0 {
				continue
			}
			q[mode] = base + d
			walk(u+1, changed || d != 0)
		}
		q[mode] = base
	}
	walk(0, false)
}

// ScreenedCoupling gates Coupling with Screen.
func ScreenedCoupling(bn, bm State, fc ForceConstant) float64 {
	if !Screen(Diff(bn, bm), fc) {
		return 0
	}
	return Coupling(bn, bm, fc)
}

// HarmonicEnergy evaluates s against explicit frequencies, ignoring the ones
// stored in its modes.
func HarmonicEnergy(s State, freqs []float64) float64 {
	e := 0.0
	for k, m := range s.Modes {
		e += freqs[k] * (float64(m.Quanta) + 0.5)
	}
	return e
}

// DiagonalEnergy is the harmonic energy of s plus every diagonal
// anharmonic contribution of pot.
func DiagonalEnergy(s State, diag Potential) float64 {
	e := s.HarmonicEnergy()
	for _, fc := range diag {
		e += Coupling(s, s, fc)
	}
	return e
}

// ladderElement returns <bra|(a + a†)^p|ket>. Branches are merged by quanta,
// so the working set never exceeds p+1 entries.
func ladderElement(bra, ket, p int) float64 {
	diff := bra - ket
	if diff < 0 {
		diff = -diff
	}
	if diff > p || diff%2 != p%2 {
		return 0
	}

	// coeff[j] holds the amplitude on quanta ket-p+j
	lo := ket - p
	coeff := make([]float64, 2*p+1)
	coeff[p] = 1
	next := make([]float64, 2*p+1)
	for step := 0; step < p; step++ {
		clear(next)
		for j, c := range coeff {
			if c == 0 {
				continue
			}
			n := lo + j
			if n < 0 {
				continue
			}
			// creation
			next[j+1] += c * math.Sqrt(float64(n+1))
			// annihilation below zero removes the branch
			if n > 0 {
				next[j-1] += c * math.Sqrt(float64(n))
			}
		}
		coeff, next = next, coeff
	}
	j := bra - lo
	if j < 0 || j >= len(coeff) {
		return 0
	}
	return coeff[j]
}
