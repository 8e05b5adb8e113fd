package hci

import (
	"fmt"
	"log/slog"
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/vhci/internal/metrics"
	"github.com/san-kum/vhci/internal/vib"
)

// minSources is the smallest block of source states handed to a worker.
const minSources = 16

// ExpandOptions tunes ExpandBasis.
type ExpandOptions struct {
	// MaxQuanta caps the quanta of each mode in new states. Nil disables the cap.
	MaxQuanta []int
	Logger    *slog.Logger
}

// Importance returns max_n |C_in| for every row of vectors.
func Importance(vectors mat.Matrix) []float64 {
	r, c := vectors.Dims()
	w := make([]float64, r)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			w[i] = math.Max(w[i], math.Abs(vectors.At(i, j)))
		}
	}
	return w
}

// ExpandBasis returns the distinct states outside basis that heat-bath
// selection at eps reaches from the coefficients in vectors, one column per
// root. The result is ordered by source state and term.
func ExpandBasis(basis *vib.Basis, terms []vib.ForceConstant, vectors mat.Matrix, eps float64, opts ExpandOptions) ([]vib.State, error) {
	if rows, _ := vectors.Dims(); rows != basis.Len() {
		return nil, fmt.Errorf("%w: %d rows for %d states", ErrVectorRows, rows, basis.Len())
	}
	if eps <= 0 || math.IsNaN(eps) {
		return nil, fmt.Errorf("%w: eps %g", ErrInvalidOptions, eps)
	}
	if opts.MaxQuanta != nil && len(opts.MaxQuanta) != basis.Modes() && basis.Len() > 0 {
		return nil, fmt.Errorf("%w: %d quanta caps for %d modes", vib.ErrDimensionMismatch, len(opts.MaxQuanta), basis.Modes())
	}
	if basis.Len() > 0 {
		if err := vib.Potential(terms).Validate(basis.Modes()); err != nil {
			return nil, err
		}
	}

	added := expand(basis, terms, Importance(vectors), eps, opts.MaxQuanta)
	metrics.StatesAdded.Add(float64(len(added)))

	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log.Debug("heat-bath expansion", "basis", basis.Len(), "terms", len(terms), "eps", eps, "added", len(added))
	return added, nil
}

func expand(basis *vib.Basis, terms []vib.ForceConstant, weights []float64, eps float64, caps []int) []vib.State {
	n := basis.Len()
	sorted := slices.IsSortedFunc(terms, byMagnitude)
	found := make([]*vib.Basis, vib.NumChunks(n, minSources))

	vib.ParallelFor(n, minSources, func(chunk, lo, hi int) {
		local := vib.NewBasis()
		for i := lo; i < hi; i++ {
			w := weights[i]
			if w == 0 {
				continue
			}
			src := basis.At(i)
			for _, fc := range terms {
				if math.Abs(fc.Value)*w < eps {
					if sorted {
						break
					}
					continue
				}
				vib.Connected(src, fc, func(s vib.State) {
					if !exceeds(s, caps) && !basis.Contains(s) {
						local.Add(s)
					}
				})
			}
		}
		found[chunk] = local
	})

	merged := vib.NewBasis()
	for _, local := range found {
		if local == nil {
			continue
		}
		for _, s := range local.States() {
			merged.Add(s)
		}
	}
	return merged.States()
}

func exceeds(s vib.State, caps []int) bool {
	for k, c := range caps {
		if s.Quanta(k) > c {
			return true
		}
	}
	return false
}
