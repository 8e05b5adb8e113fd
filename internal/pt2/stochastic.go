package pt2

import (
	"fmt"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/vhci/internal/metrics"
	"github.com/san-kum/vhci/internal/vib"
)

const (
	DefaultWalkers = 200
	DefaultSamples = 50
)

// SPT2Options configures the stochastic part of a correction.
type SPT2Options struct {
	// Stochastic disables sampling when false; the result is then the
	// deterministic correction with zero uncertainty.
	Stochastic bool
	// Eps2 is the sampling threshold, tighter than the deterministic one.
	Eps2    float64
	Walkers int
	Samples int
	Seed    uint64
}

func DefaultSPT2Options() SPT2Options {
	return SPT2Options{
		Stochastic: true,
		Walkers:    DefaultWalkers,
		Samples:    DefaultSamples,
	}
}

func (o SPT2Options) validateSampling() error {
	if o.Walkers < 2 || o.Samples < 2 {
		return fmt.Errorf("%w: %d walkers, %d samples (need at least 2 of each)", ErrSampling, o.Walkers, o.Samples)
	}
	return nil
}

// ComputeSemiStochastic evaluates the correction at eps exactly and adds an
// estimate of the difference between the corrections at opts.Eps2 and eps.
func ComputeSemiStochastic(in Input, eps float64, opts SPT2Options) (*Result, error) {
	p, err := prepare(in)
	if err != nil {
		return nil, err
	}
	if !opts.Stochastic {
		return p.deterministic(eps), nil
	}
	if opts.Eps2 <= 0 || opts.Eps2 >= eps {
		return nil, fmt.Errorf("%w: eps2 %g must lie in (0, %g)", ErrSampling, opts.Eps2, eps)
	}
	if err := opts.validateSampling(); err != nil {
		return nil, err
	}

	start := time.Now()
	res := p.deterministic(eps)
	est := p.stochastic(opts.Eps2, eps, opts)
	for r := range res.Correction {
		res.Correction[r] += est.Correction[r]
		res.Sigma[r] = est.Sigma[r]
	}
	res.Skipped += est.Skipped
	metrics.PT2SpaceSize.WithLabelValues("semistochastic").Set(float64(res.SpaceSize))
	metrics.PhaseDuration.WithLabelValues("spt2").Observe(time.Since(start).Seconds())
	p.log.Info("semi-stochastic pt2", "eps", eps, "eps2", opts.Eps2, "space", res.SpaceSize,
		"walkers", opts.Walkers, "samples", opts.Samples, "skipped", res.Skipped)
	return res, nil
}

// ComputeStochastic estimates the whole correction at eps by sampling.
func ComputeStochastic(in Input, eps float64, opts SPT2Options) (*Result, error) {
	p, err := prepare(in)
	if err != nil {
		return nil, err
	}
	if err := opts.validateSampling(); err != nil {
		return nil, err
	}
	start := time.Now()
	res := p.stochastic(eps, math.Inf(1), opts)
	metrics.PT2SpaceSize.WithLabelValues("stochastic").Set(float64(res.SpaceSize))
	metrics.PhaseDuration.WithLabelValues("spt2").Observe(time.Since(start).Seconds())
	p.log.Info("stochastic pt2", "eps", eps, "walkers", opts.Walkers, "samples", opts.Samples, "skipped", res.Skipped)
	return res, nil
}

// stochastic estimates corr(lo) - corr(hi), reusing every sample's walkers
// for both thresholds. SpaceSize is the largest sampled space.
func (p *prepared) stochastic(lo, hi float64, opts SPT2Options) *Result {
	nb := p.Basis.Len()
	weights := make([][]float64, p.NStates)
	totals := make([]float64, p.NStates)
	for r := range weights {
		weights[r] = make([]float64, nb)
		for i := range weights[r] {
			weights[r][i] = math.Abs(p.Vectors.At(i, r))
			totals[r] += weights[r][i]
		}
	}

	values := make([][]float64, p.NStates)
	for r := range values {
		values[r] = make([]float64, opts.Samples)
	}
	skips := make([]int, opts.Samples)
	sizes := make([]int, opts.Samples)

	vib.ParallelFor(opts.Samples, 1, func(_, first, last int) {
		for s := first; s < last; s++ {
			for r := 0; r < p.NStates; r++ {
				rng := rand.NewPCG(opts.Seed+uint64(s), uint64(r))
				walkers := distuv.NewCategorical(weights[r], rng)
				v, size, skipped := p.sample(r, walkers, weights[r], totals[r], lo, hi, opts.Walkers)
				values[r][s] = v
				sizes[s] = max(sizes[s], size)
				skips[s] += skipped
			}
		}
	})

	res := &Result{
		Correction: make([]float64, p.NStates),
		Sigma:      make([]float64, p.NStates),
	}
	for r := range values {
		mean, std := stat.MeanStdDev(values[r], nil)
		res.Correction[r] = mean
		res.Sigma[r] = std / math.Sqrt(float64(opts.Samples))
	}
	for s := range skips {
		res.Skipped += skips[s]
		res.SpaceSize = max(res.SpaceSize, sizes[s])
	}
	metrics.SkippedDenominators.Add(float64(res.Skipped))
	return res
}

// sample draws nd walkers for root r and returns one unbiased estimate of
// corr(lo) - corr(hi) built from the two-walker estimator
//
//	[(sum_i w_i x_i/p_i)^2 + sum_i (w_i (nd-1)/p_i - w_i^2/p_i^2) x_i^2] / (nd (nd-1))
//
// for every external state.
func (p *prepared) sample(r int, walkers distuv.Categorical, weights []float64, total, lo, hi float64, nd int) (float64, int, int) {
	counts := make(map[int]int)
	for w := 0; w < nd; w++ {
		counts[int(walkers.Rand())]++
	}
	drawn := make([]int, 0, len(counts))
	for i := range counts {
		drawn = append(drawn, i)
	}
	slices.Sort(drawn)

	ext := vib.NewBasis()
	var sLo, qLo, sHi, qHi []float64
	fnd := float64(nd)

	for _, i := range drawn {
		w := float64(counts[i])
		prob := weights[i] / total
		c := p.Vectors.At(i, r)
		src := p.Basis.At(i)

		local := newSpace()
		for _, fc := range p.terms {
			if math.Abs(fc.Value*c) < lo {
				break
			}
			inHi := math.Abs(fc.Value*c) >= hi
			vib.Connected(src, fc, func(a vib.State) {
				if p.Basis.Contains(a) {
					return
				}
				v := vib.Coupling(a, src, fc) * c
				if v == 0 {
					return
				}
				x := local.add(a, 2)
				x[0] += v
				if inHi {
					x[1] += v
				}
			})
		}

		lin := w / prob
		quad := w*(fnd-1)/prob - w*w/(prob*prob)
		for j, a := range local.states.States() {
			idx, added := ext.Add(a)
			if added {
				sLo, qLo = append(sLo, 0), append(qLo, 0)
				sHi, qHi = append(sHi, 0), append(qHi, 0)
			}
			x := local.num[j]
			sLo[idx] += lin * x[0]
			qLo[idx] += quad * x[0] * x[0]
			sHi[idx] += lin * x[1]
			qHi[idx] += quad * x[1] * x[1]
		}
	}

	norm := fnd * (fnd - 1)
	est, skipped := 0.0, 0
	for j, a := range ext.States() {
		numer := (sLo[j]*sLo[j] + qLo[j]) - (sHi[j]*sHi[j] + qHi[j])
		if numer == 0 {
			continue
		}
		v, ok := p.ratio(numer/norm, p.Energies[r], vib.DiagonalEnergy(a, p.diag))
		if !ok {
			skipped++
			continue
		}
		est += v
	}
	return est, ext.Len(), skipped
}
