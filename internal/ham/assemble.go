package ham

import (
	"fmt"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/vhci/internal/metrics"
	"github.com/san-kum/vhci/internal/vib"
)

// minRows is the smallest row chunk handed to a worker.
const minRows = 8

// Validate checks basis states and terms against the frequency list.
func Validate(basis *vib.Basis, freqs []float64, pot vib.Potential) error {
	if err := basis.Validate(freqs); err != nil {
		return err
	}
	return pot.Validate(len(freqs))
}

// pairKernel evaluates H_ij for i <= j and reports whether the pair survived
// the quick reject.
type pairKernel struct {
	states   []vib.State
	freqs    []float64
	pot      vib.Potential
	maxOrder int
}

func newKernel(basis *vib.Basis, freqs []float64, pot vib.Potential) *pairKernel {
	maxOrder := pot.MaxOrder()
	return &pairKernel{
		states:   basis.States(),
		freqs:    freqs,
		pot:      pot,
		maxOrder: maxOrder,
	}
}

func (k *pairKernel) element(i, j int, d *vib.Delta) (float64, bool) {
	bi, bj := k.states[i], k.states[j]
	vib.DiffInto(d, bi, bj)
	if d.Total > k.maxOrder || d.Changed > k.maxOrder {
		return 0, false
	}
	v := 0.0
	if i == j {
		v = vib.HarmonicEnergy(bi, k.freqs)
	}
	for _, fc := range k.pot {
		if vib.Screen(*d, fc) {
			v += vib.Coupling(bi, bj, fc)
		}
	}
	return v, true
}

// Dense builds the full symmetric Hamiltonian. An empty basis yields nil.
func Dense(basis *vib.Basis, freqs []float64, pot vib.Potential) (*mat.SymDense, error) {
	if err := Validate(basis, freqs, pot); err != nil {
		return nil, fmt.Errorf("dense hamiltonian: %w", err)
	}
	n := basis.Len()
	if n == 0 {
		return nil, nil
	}
	start := time.Now()
	defer func() { metrics.AssemblyDuration.WithLabelValues("dense").Observe(time.Since(start).Seconds()) }()

	h := mat.NewSymDense(n, nil)
	k := newKernel(basis, freqs, pot)
	chunks := vib.NumChunks(n, minRows)
	kept := make([]int, chunks)
	rejected := make([]int, chunks)

	// each worker owns rows [lo, hi) of the upper triangle
	vib.ParallelFor(n, minRows, func(chunk, lo, hi int) {
		var d vib.Delta
		for i := lo; i < hi; i++ {
			for j := i; j < n; j++ {
				v, ok := k.element(i, j, &d)
				if !ok {
					rejected[chunk]++
					continue
				}
				kept[chunk]++
				if v != 0 {
					h.SetSym(i, j, v)
				}
			}
		}
	})
	countPairs(kept, rejected)
	return h, nil
}

// Triplet is one stored element of a sparse matrix.
type Triplet struct {
	Row, Col int
	Value    float64
}

// Sparse builds the Hamiltonian in compressed-row form. Workers collect
// lower-triangle triplets privately; the buffers are concatenated in chunk
// order, sorted, merged and mirrored.
func Sparse(basis *vib.Basis, freqs []float64, pot vib.Potential) (*CSR, error) {
	if err := Validate(basis, freqs, pot); err != nil {
		return nil, fmt.Errorf("sparse hamiltonian: %w", err)
	}
	n := basis.Len()
	start := time.Now()
	defer func() { metrics.AssemblyDuration.WithLabelValues("sparse").Observe(time.Since(start).Seconds()) }()

	k := newKernel(basis, freqs, pot)
	chunks := vib.NumChunks(n, minRows)
	buffers := make([][]Triplet, chunks)
	kept := make([]int, chunks)
	rejected := make([]int, chunks)

	vib.ParallelFor(n, minRows, func(chunk, lo, hi int) {
		var d vib.Delta
		buf := buffers[chunk]
		for i := lo; i < hi; i++ {
			for j := i; j < n; j++ {
				v, ok := k.element(i, j, &d)
				if !ok {
					rejected[chunk]++
					continue
				}
				kept[chunk]++
				if v != 0 || i == j {
					buf = append(buf, Triplet{Row: j, Col: i, Value: v})
				}
			}
		}
		buffers[chunk] = buf
	})
	countPairs(kept, rejected)

	var lower []Triplet
	for _, buf := range buffers {
		lower = append(lower, buf...)
	}
	return FromLowerTriplets(n, lower), nil
}

// FromLowerTriplets builds a symmetric CSR from lower-triangle entries
// (Row >= Col). Duplicate entries are summed.
func FromLowerTriplets(n int, lower []Triplet) *CSR {
	full := make([]Triplet, 0, 2*len(lower))
	for _, t := range lower {
		if t.Row < t.Col {
			t.Row, t.Col = t.Col, t.Row
		}
		full = append(full, t)
		if t.Row != t.Col {
			full = append(full, Triplet{Row: t.Col, Col: t.Row, Value: t.Value})
		}
	}
	slices.SortFunc(full, func(a, b Triplet) int {
		if a.Row != b.Row {
			return a.Row - b.Row
		}
		return a.Col - b.Col
	})

	c := &CSR{n: n, rowPtr: make([]int, n+1)}
	for idx := 0; idx < len(full); {
		t := full[idx]
		v := t.Value
		idx++
		for idx < len(full) && full[idx].Row == t.Row && full[idx].Col == t.Col {
			v += full[idx].Value
			idx++
		}
		c.colInd = append(c.colInd, t.Col)
		c.values = append(c.values, v)
		c.rowPtr[t.Row+1]++
	}
	for i := 0; i < n; i++ {
		c.rowPtr[i+1] += c.rowPtr[i]
	}
	return c
}

func countPairs(kept, rejected []int) {
	k, r := 0, 0
	for i := range kept {
		k += kept[i]
		r += rejected[i]
	}
	metrics.AssemblyPairs.WithLabelValues("kept").Add(float64(k))
	metrics.AssemblyPairs.WithLabelValues("rejected").Add(float64(r))
}
