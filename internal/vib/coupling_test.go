package vib

import (
	"math"
	"testing"
)

func mustState(t *testing.T, q ...int) State {
	t.Helper()
	freqs := make([]float64, len(q))
	for i := range freqs {
		freqs[i] = 1000 * float64(i+1)
	}
	s, err := NewState(q, freqs)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func mustTerm(t *testing.T, value float64, idx ...int) ForceConstant {
	t.Helper()
	fc, err := NewForceConstant(value, idx, false)
	if err != nil {
		t.Fatal(err)
	}
	return fc
}

func TestLadderElement(t *testing.T) {
	tests := []struct {
		bra, ket, p int
		want        float64
	}{
		{1, 0, 1, 1},
		{0, 1, 1, 1},
		{2, 1, 1, math.Sqrt2},
		{0, 0, 2, 1},
		{2, 0, 2, math.Sqrt2},
		{1, 1, 2, 3},
		{0, 1, 3, 3},
		{0, 0, 4, 3},
		{1, 0, 2, 0},
		{5, 0, 3, 0},
	}
	for _, tt := range tests {
		got := ladderElement(tt.bra, tt.ket, tt.p)
		if math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("<%d|x^%d|%d>: got %.12f, expected %.12f", tt.bra, tt.p, tt.ket, got, tt.want)
		}
	}
}

func TestCubicScreening(t *testing.T) {
	fc := mustTerm(t, 6, 0, 0, 1)

	in := Diff(mustState(t, 0, 1, 0), mustState(t, 0, 0, 0))
	if in.Total != 1 || in.Changed != 1 {
		t.Errorf("diff: got total %d changed %d", in.Total, in.Changed)
	}
	if !Screen(in, fc) {
		t.Error("single excitation of mode 1 should pass the cubic screen")
	}

	out := Diff(mustState(t, 0, 1, 2), mustState(t, 0, 0, 0))
	if Screen(out, fc) {
		t.Error("excitation of an untouched mode should be screened out")
	}
	if v := Coupling(mustState(t, 0, 1, 2), mustState(t, 0, 0, 0), fc); v != 0 {
		t.Errorf("coupling of screened pair: got %f, expected 0", v)
	}

	if v := ScreenedCoupling(mustState(t, 0, 1, 0), mustState(t, 0, 0, 0), fc); math.Abs(v-6) > 1e-12 {
		t.Errorf("coupling: got %f, expected 6", v)
	}
}

func TestCouplingSymmetric(t *testing.T) {
	fc := mustTerm(t, 0.7, 0, 1, 1, 2)
	bn := mustState(t, 2, 3, 1)
	bm := mustState(t, 1, 1, 0)
	a, b := Coupling(bn, bm, fc), Coupling(bm, bn, fc)
	if a == 0 {
		t.Fatal("expected a nonzero element")
	}
	if math.Abs(a-b) > 1e-12 {
		t.Errorf("coupling not symmetric: %f vs %f", a, b)
	}
}

// Every nonzero element must pass the screen.
func TestScreenNoFalseNegatives(t *testing.T) {
	terms := []ForceConstant{
		mustTerm(t, 1, 0, 0, 0),
		mustTerm(t, 1, 0, 1, 2),
		mustTerm(t, 1, 1, 1, 2),
		mustTerm(t, 1, 0, 0, 1, 1),
		mustTerm(t, 1, 2, 2, 2, 2),
		mustTerm(t, 1, 0, 1, 1, 1, 2, 2),
	}
	var states []State
	for a := 0; a < 4; a++ {
		for b := 0; b < 4; b++ {
			for c := 0; c < 4; c++ {
				states = append(states, mustState(t, a, b, c))
			}
		}
	}
	for _, fc := range terms {
		for _, bn := range states {
			for _, bm := range states {
				if Coupling(bn, bm, fc) != 0 && !Screen(Diff(bn, bm), fc) {
					t.Fatalf("%v screened out %v <-> %v", fc, bn, bm)
				}
			}
		}
	}
}

func TestDiagonalEnergy(t *testing.T) {
	s := mustState(t, 1, 0)
	quartic := mustTerm(t, 2, 0, 0, 0, 0)
	// <1|x^4|1> = 15
	want := s.HarmonicEnergy() + 30
	if got := DiagonalEnergy(s, Potential{quartic}); math.Abs(got-want) > 1e-9 {
		t.Errorf("got %.6f, expected %.6f", got, want)
	}
}

func TestConnected(t *testing.T) {
	fc := mustTerm(t, 1, 0, 0, 1)
	src := mustState(t, 1, 0)

	var got []string
	Connected(src, fc, func(s State) { got = append(got, s.String()) })
	// mode 0 moves by -2 (invalid), 0 or +2; mode 1 moves by -1 (invalid) or +1
	want := []string{"|1 1>", "|3 1>"}
	if len(got) != len(want) {
		t.Fatalf("got %v, expected %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("state %d: got %s, expected %s", i, got[i], want[i])
		}
	}

	// the even term connects a state to itself, which is skipped
	n := 0
	Connected(src, mustTerm(t, 1, 0, 0), func(s State) {
		if s.Equal(src) {
			t.Error("source state reported as connected")
		}
		n++
	})
	if n != 1 {
		t.Errorf("got %d states, expected 1", n)
	}
}
