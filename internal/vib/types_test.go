package vib

import (
	"errors"
	"math"
	"testing"
)

func TestNewState(t *testing.T) {
	freqs := []float64{1000, 2000}
	q := []int{1, 2}
	s, err := NewState(q, freqs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	q[0] = 7
	freqs[1] = 0
	if s.Quanta(0) != 1 || s.Modes[1].Freq != 2000 {
		t.Errorf("state shares caller slices: got %v", s.Modes)
	}

	if _, err := NewState([]int{1}, []float64{1, 2}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if _, err := NewState([]int{-1, 0}, []float64{1, 2}); !errors.Is(err, ErrNegativeQuanta) {
		t.Errorf("expected ErrNegativeQuanta, got %v", err)
	}
}

func TestStateIdentity(t *testing.T) {
	a, _ := NewState([]int{1, 0, 2}, []float64{1, 2, 3})
	b, _ := NewState([]int{1, 0, 2}, []float64{5, 6, 7})
	c, _ := NewState([]int{2, 0, 1}, []float64{1, 2, 3})

	if !a.Equal(b) {
		t.Error("states with equal quanta should be equal")
	}
	if a.Hash() != b.Hash() {
		t.Error("equal states should hash equally")
	}
	if a.Equal(c) {
		t.Error("permuted quanta should differ")
	}
	if a.Hash() == c.Hash() {
		t.Error("hash should depend on quanta order")
	}
}

func TestStateEnergyAndLabels(t *testing.T) {
	s, _ := NewState([]int{2, 1, 0}, []float64{1000, 2000, 3000})

	if e := s.HarmonicEnergy(); math.Abs(e-7500) > 1e-9 {
		t.Errorf("harmonic energy: got %.6f, expected 7500", e)
	}
	if e := HarmonicEnergy(s, []float64{1, 1, 1}); math.Abs(e-4.5) > 1e-12 {
		t.Errorf("harmonic energy with explicit freqs: got %.6f, expected 4.5", e)
	}
	if got := s.String(); got != "|2 1 0>" {
		t.Errorf("got %q, expected |2 1 0>", got)
	}
	if got := s.Label(); got != "2w0 + w1" {
		t.Errorf("got %q, expected 2w0 + w1", got)
	}
	if got := GroundState([]float64{1, 2}).Label(); got != "0" {
		t.Errorf("got %q, expected 0", got)
	}
}

func TestNewForceConstant(t *testing.T) {
	fc, err := NewForceConstant(12, []int{1, 0, 0}, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fc.Order != 3 {
		t.Errorf("order: got %d, expected 3", fc.Order)
	}
	if len(fc.Unique) != 2 || fc.Unique[0] != 0 || fc.Unique[1] != 1 {
		t.Errorf("unique: got %v, expected [0 1]", fc.Unique)
	}
	if fc.Power(0) != 2 || fc.Power(1) != 1 || fc.Power(5) != 0 {
		t.Errorf("powers: got %v", fc.Powers)
	}

	scaled, _ := NewForceConstant(12, []int{1, 0, 0}, true)
	want := 12 / math.Sqrt(8) / 2
	if math.Abs(scaled.Value-want) > 1e-12 {
		t.Errorf("scaled value: got %.12f, expected %.12f", scaled.Value, want)
	}

	if _, err := NewForceConstant(1, nil, false); !errors.Is(err, ErrInvalidForceConstant) {
		t.Errorf("expected ErrInvalidForceConstant, got %v", err)
	}
	if _, err := NewForceConstant(1, []int{0, -2}, false); !errors.Is(err, ErrInvalidForceConstant) {
		t.Errorf("expected ErrInvalidForceConstant, got %v", err)
	}
}

func TestPotential(t *testing.T) {
	cubic, _ := NewForceConstant(1, []int{0, 0, 1}, false)
	quartic, _ := NewForceConstant(2, []int{0, 0, 1, 1}, false)
	pot := Merge([]ForceConstant{cubic}, []ForceConstant{quartic})

	if len(pot) != 2 || pot.MaxOrder() != 4 {
		t.Errorf("merge: got %d terms of max order %d", len(pot), pot.MaxOrder())
	}
	if d := pot.Diagonal(); len(d) != 1 || d[0].Order != 4 {
		t.Errorf("diagonal terms: got %v", d)
	}
	if err := pot.Validate(2); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := pot.Validate(1); !errors.Is(err, ErrModeOutOfRange) {
		t.Errorf("expected ErrModeOutOfRange, got %v", err)
	}
	if got := pot.ByOrder(); len(got[3]) != 1 || len(got[4]) != 1 {
		t.Errorf("by order: got %v", got)
	}
}
