package pt2

import (
	"math"
	"time"

	"github.com/san-kum/vhci/internal/metrics"
	"github.com/san-kum/vhci/internal/vib"
)

const (
	minSources  = 16
	minExternal = 256
)

// space is a set of external states with one numerator per root.
type space struct {
	states *vib.Basis
	num    [][]float64
}

func newSpace() *space {
	return &space{states: vib.NewBasis()}
}

func (s *space) add(a vib.State, nroots int) []float64 {
	idx, added := s.states.Add(a)
	if added {
		s.num = append(s.num, make([]float64, nroots))
	}
	return s.num[idx]
}

// merge folds other into s, keeping s's order for shared states.
func (s *space) merge(other *space) {
	for j, a := range other.states.States() {
		row := s.add(a, len(other.num[j]))
		for n, v := range other.num[j] {
			row[n] += v
		}
	}
}

// Compute returns the deterministic correction at threshold eps.
func Compute(in Input, eps float64) (*Result, error) {
	p, err := prepare(in)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	res := p.deterministic(eps)
	metrics.PT2SpaceSize.WithLabelValues("deterministic").Set(float64(res.SpaceSize))
	metrics.PhaseDuration.WithLabelValues("pt2").Observe(time.Since(start).Seconds())
	p.log.Info("pt2", "eps", eps, "space", res.SpaceSize, "skipped", res.Skipped)
	return res, nil
}

func (p *prepared) deterministic(eps float64) *Result {
	sp := p.externalSpace(eps)
	corr, skipped := p.sum(sp)
	return &Result{
		Correction: corr,
		Sigma:      make([]float64, p.NStates),
		SpaceSize:  sp.states.Len(),
		Skipped:    skipped,
	}
}

// externalSpace collects numerators over source-state chunks, each with a
// private space, merged in chunk order.
func (p *prepared) externalSpace(eps float64) *space {
	n := p.Basis.Len()
	parts := make([]*space, vib.NumChunks(n, minSources))
	vib.ParallelFor(n, minSources, func(chunk, lo, hi int) {
		local := newSpace()
		coef := make([]float64, p.NStates)
		for i := lo; i < hi; i++ {
			wmax := 0.0
			for r := range coef {
				coef[r] = p.Vectors.At(i, r)
				wmax = math.Max(wmax, math.Abs(coef[r]))
			}
			p.connect(local, p.Basis.At(i), coef, wmax, eps)
		}
		parts[chunk] = local
	})

	sp := newSpace()
	for _, part := range parts {
		if part != nil {
			sp.merge(part)
		}
	}
	return sp
}

// connect adds the contributions of one source state. Only roots with
// |V_t C_in| >= eps receive a term's couplings.
func (p *prepared) connect(sp *space, src vib.State, coef []float64, wmax, eps float64) {
	if wmax == 0 {
		return
	}
	for _, fc := range p.terms {
		if math.Abs(fc.Value)*wmax < eps {
			break
		}
		vib.Connected(src, fc, func(a vib.State) {
			if p.Basis.Contains(a) {
				return
			}
			v := vib.Coupling(a, src, fc)
			if v == 0 {
				return
			}
			row := sp.add(a, len(coef))
			for r, c := range coef {
				if math.Abs(fc.Value*c) >= eps {
					row[r] += v * c
				}
			}
		})
	}
}

// sum reduces numerators to per-root corrections over external-state chunks.
func (p *prepared) sum(sp *space) ([]float64, int) {
	m := sp.states.Len()
	chunks := vib.NumChunks(m, minExternal)
	partial := make([][]float64, chunks)
	skips := make([]int, chunks)

	vib.ParallelFor(m, minExternal, func(chunk, lo, hi int) {
		acc := make([]float64, p.NStates)
		for j := lo; j < hi; j++ {
			ea := vib.DiagonalEnergy(sp.states.At(j), p.diag)
			for r := range acc {
				num := sp.num[j][r]
				if num == 0 {
					continue
				}
				v, ok := p.contribution(num, p.Energies[r], ea)
				if !ok {
					skips[chunk]++
					continue
				}
				acc[r] += v
			}
		}
		partial[chunk] = acc
	})

	corr := make([]float64, p.NStates)
	skipped := 0
	for c := range partial {
		for r, v := range partial[c] {
			corr[r] += v
		}
		skipped += skips[c]
	}
	metrics.SkippedDenominators.Add(float64(skipped))
	return corr, skipped
}
