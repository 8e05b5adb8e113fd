package pt2

import (
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/vhci/internal/ham"
	"github.com/san-kum/vhci/internal/hci"
	"github.com/san-kum/vhci/internal/vib"
)

// DefaultDegeneracyTol is the smallest |E_n - E_a| kept in a correction.
const DefaultDegeneracyTol = 1e-10

// Input is a converged variational solution.
type Input struct {
	Basis       *vib.Basis
	Energies    []float64
	Vectors     mat.Matrix // one column per root
	Frequencies []float64
	Potential   vib.Potential
	NStates     int
	// DegeneracyTol defaults to DefaultDegeneracyTol when zero.
	DegeneracyTol float64
	Logger        *slog.Logger
}

// Result holds one correction per root. Sigma is the standard error of the
// stochastic part and zero for deterministic corrections.
type Result struct {
	Correction []float64
	Sigma      []float64
	SpaceSize  int
	Skipped    int
}

func (in *Input) validate() error {
	if in.Basis == nil || in.Basis.Len() == 0 {
		return fmt.Errorf("%w: %v", ErrInvalidInput, vib.ErrEmptyBasis)
	}
	if d, ok := in.Vectors.(*mat.Dense); in.Vectors == nil || ok && d == nil {
		return fmt.Errorf("%w: no vectors", ErrInvalidInput)
	}
	rows, cols := in.Vectors.Dims()
	if rows != in.Basis.Len() {
		return fmt.Errorf("%w: %d vector rows for %d basis states", ErrInvalidInput, rows, in.Basis.Len())
	}
	if in.NStates < 1 || in.NStates > cols || in.NStates > len(in.Energies) {
		return fmt.Errorf("%w: %d roots from %d vectors and %d energies", ErrInvalidInput, in.NStates, cols, len(in.Energies))
	}
	return ham.Validate(in.Basis, in.Frequencies, in.Potential)
}

// prepared is the read-only state shared by all workers.
type prepared struct {
	Input
	terms []vib.ForceConstant
	diag  vib.Potential
	tol   float64
	log   *slog.Logger
}

func prepare(in Input) (*prepared, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &prepared{
		Input: in,
		terms: hci.SortTerms(in.Potential),
		diag:  in.Potential.Diagonal(),
		tol:   in.DegeneracyTol,
		log:   in.Logger,
	}
	if p.tol <= 0 {
		p.tol = DefaultDegeneracyTol
	}
	if p.log == nil {
		p.log = slog.Default()
	}
	return p, nil
}

// contribution returns num^2 / (e - ea) and false when the denominator is
// degenerate or the ratio is not finite.
func (p *prepared) contribution(num, e, ea float64) (float64, bool) {
	return p.ratio(num*num, e, ea)
}

func (p *prepared) ratio(numer, e, ea float64) (float64, bool) {
	d := e - ea
	if math.Abs(d) < p.tol {
		return 0, false
	}
	v := numer / d
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
