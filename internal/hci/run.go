package hci

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/san-kum/vhci/internal/eigen"
	"github.com/san-kum/vhci/internal/ham"
	"github.com/san-kum/vhci/internal/metrics"
	"github.com/san-kum/vhci/internal/vib"
)

const (
	DefaultEps1           = 0.1
	DefaultTol            = 0.01
	DefaultMaxIter        = 1000
	DefaultDenseThreshold = 2000
)

// Options configures Run.
type Options struct {
	NStates int
	Eps1    float64
	// Tol is the added/size ratio at or below which the iteration stops.
	Tol     float64
	MaxIter int
	// DenseThreshold is the largest basis diagonalized densely.
	DenseThreshold int
	NCV            int
	MaxQuanta      []int
	// SingleDouble adds the effective screening terms to the selection list.
	SingleDouble bool
	Seed         uint64
	Logger       *slog.Logger
}

func DefaultOptions() Options {
	return Options{
		NStates:        10,
		Eps1:           DefaultEps1,
		Tol:            DefaultTol,
		MaxIter:        DefaultMaxIter,
		DenseThreshold: DefaultDenseThreshold,
		SingleDouble:   true,
	}
}

// Iteration records one expand-and-diagonalize step.
type Iteration struct {
	Index    int
	Added    int
	Size     int
	Energies []float64
	Duration time.Duration
}

// Result is the converged variational solution.
type Result struct {
	Basis    *vib.Basis
	Energies []float64 // lowest NStates eigenvalues
	Eigen    *eigen.Result
	History  []Iteration
}

// Roots is the number of states carried into perturbation theory.
func (r *Result) Roots() int { return len(r.Energies) }

// Diagonalize solves the Hamiltonian of basis densely when it is small or
// when nearly all roots are wanted, and iteratively otherwise.
func Diagonalize(basis *vib.Basis, freqs []float64, pot vib.Potential, opts Options) (*eigen.Result, error) {
	n := basis.Len()
	if n <= opts.DenseThreshold || opts.NStates >= n {
		return DenseDiagonalize(basis, freqs, pot)
	}
	return sparseDiagonalize(basis, freqs, pot, opts.NStates, eigen.Options{NCV: opts.NCV, Seed: opts.Seed, Logger: opts.Logger})
}

// Run diagonalizes the initial basis, then repeatedly adds the states
// heat-bath selection finds at Eps1 and re-diagonalizes, until the number of
// added states is at most Tol times the basis size. The input basis is not
// modified.
func Run(ctx context.Context, initial *vib.Basis, freqs []float64, pot vib.Potential, opts Options) (*Result, error) {
	if opts.NStates < 1 || opts.Eps1 <= 0 || opts.Tol < 0 || opts.MaxIter < 1 {
		return nil, fmt.Errorf("%w: nstates %d, eps1 %g, tol %g, max iterations %d",
			ErrInvalidOptions, opts.NStates, opts.Eps1, opts.Tol, opts.MaxIter)
	}
	if initial.Len() == 0 {
		return nil, vib.ErrEmptyBasis
	}
	if err := ham.Validate(initial, freqs, pot); err != nil {
		return nil, err
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	selection := slices.Clone([]vib.ForceConstant(pot))
	if opts.SingleDouble {
		selection = append(selection, ScreeningTerms(pot, len(freqs))...)
	}
	selection = SortTerms(selection)

	basis := initial.Clone()
	eig, err := Diagonalize(basis, freqs, pot, opts)
	if err != nil {
		return nil, err
	}
	res := &Result{Basis: basis, Eigen: eig}
	res.Energies = leading(eig, opts.NStates)
	metrics.BasisSize.Set(float64(basis.Len()))

	shift := metrics.NewConvergence()
	bound := metrics.NewVariational(1e-8)
	shift.Observe(res.Energies)
	bound.Observe(res.Energies)

	log.Info("initial diagonalization", "states", basis.Len(), "ground", res.Energies[0])

	added := basis.Len()
	for iter := 1; float64(added)/float64(basis.Len()) > opts.Tol; iter++ {
		if iter > opts.MaxIter {
			return nil, fmt.Errorf("%w: %d iterations, %d states, last step added %d",
				ErrHCINotConverged, opts.MaxIter, basis.Len(), added)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		start := time.Now()

		k := len(res.Energies)
		found, err := ExpandBasis(basis, selection, eig.Leading(k), opts.Eps1, ExpandOptions{MaxQuanta: opts.MaxQuanta, Logger: log})
		if err != nil {
			return nil, err
		}
		for _, s := range found {
			basis.Add(s)
		}
		added = len(found)

		if eig, err = Diagonalize(basis, freqs, pot, opts); err != nil {
			return nil, fmt.Errorf("iteration %d: %w", iter, err)
		}
		res.Eigen = eig
		res.Energies = leading(eig, opts.NStates)

		shift.Observe(res.Energies)
		bound.Observe(res.Energies)
		metrics.Iterations.Inc()
		metrics.BasisSize.Set(float64(basis.Len()))

		it := Iteration{
			Index:    iter,
			Added:    added,
			Size:     basis.Len(),
			Energies: slices.Clone(res.Energies),
			Duration: time.Since(start),
		}
		res.History = append(res.History, it)
		log.Info("hci iteration", "iter", iter, "added", added, "states", basis.Len(),
			"ground", res.Energies[0], "shift", shift.Value())
	}
	if v := bound.Violations(); v > 0 {
		log.Warn("variational energies rose during iteration", "violations", v)
	}
	return res, nil
}

func leading(r *eigen.Result, k int) []float64 {
	return slices.Clone(r.Values[:min(k, len(r.Values))])
}
