package ham

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/vhci/internal/vib"
)

func term(t *testing.T, v float64, idx ...int) vib.ForceConstant {
	t.Helper()
	fc, err := vib.NewForceConstant(v, idx, true)
	require.NoError(t, err)
	return fc
}

func triatomic(t *testing.T) ([]float64, vib.Potential, *vib.Basis) {
	t.Helper()
	freqs := []float64{1600, 3700, 3800}
	pot := vib.Potential{
		term(t, -150, 0, 0, 0),
		term(t, 120, 0, 1, 1),
		term(t, -80, 0, 2, 2),
		term(t, 45, 0, 0, 1, 1),
		term(t, 30, 1, 1, 1, 1),
		term(t, 25, 1, 1, 2, 2),
	}
	b, err := vib.TruncatedBasis(freqs, []int{5, 3, 3}, 4)
	require.NoError(t, err)
	return freqs, pot, b
}

func TestDenseHarmonic(t *testing.T) {
	freqs := []float64{1000, 2000}
	b, err := vib.TruncatedBasis(freqs, []int{3, 3}, 4)
	require.NoError(t, err)

	h, err := Dense(b, freqs, nil)
	require.NoError(t, err)
	n := b.Len()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			want := 0.0
			if i == j {
				want = b.At(i).HarmonicEnergy()
			}
			assert.InDelta(t, want, h.At(i, j), 1e-12, "element (%d, %d)", i, j)
		}
	}
}

func TestDenseMatchesSparse(t *testing.T) {
	freqs, pot, b := triatomic(t)

	d, err := Dense(b, freqs, pot)
	require.NoError(t, err)
	s, err := Sparse(b, freqs, pot)
	require.NoError(t, err)

	assert.True(t, mat.EqualApprox(d, s, 1e-10))
	assert.True(t, mat.EqualApprox(d, s.ToSymDense(), 1e-10))
	assert.Less(t, s.NNZ(), b.Len()*b.Len())

	n := b.Len()
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			require.Equal(t, d.At(i, j), d.At(j, i))
			require.Equal(t, s.At(i, j), s.At(j, i))
		}
	}
}

func TestCubicCouplingElement(t *testing.T) {
	freqs := []float64{1000, 1500, 2000}
	ground := vib.GroundState(freqs)
	up, err := vib.NewState([]int{0, 1, 0}, freqs)
	require.NoError(t, err)
	far, err := vib.NewState([]int{0, 1, 2}, freqs)
	require.NoError(t, err)

	fc, err := vib.NewForceConstant(6, []int{0, 0, 1}, false)
	require.NoError(t, err)
	h, err := Dense(vib.NewBasis(ground, up, far), freqs, vib.Potential{fc})
	require.NoError(t, err)

	assert.InDelta(t, 6.0, h.At(0, 1), 1e-12)
	assert.Zero(t, h.At(0, 2))
}

func TestTinyBases(t *testing.T) {
	freqs := []float64{1000}

	d, err := Dense(vib.NewBasis(), freqs, nil)
	require.NoError(t, err)
	assert.Nil(t, d)
	s, err := Sparse(vib.NewBasis(), freqs, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, s.SymmetricDim())

	one := vib.NewBasis(vib.GroundState(freqs))
	quartic := term(t, 40, 0, 0, 0, 0)
	d, err = Dense(one, freqs, vib.Potential{quartic})
	require.NoError(t, err)
	// <0|x^4|0> = 3 for x = a + a†
	assert.InDelta(t, 500+3*quartic.Value, d.At(0, 0), 1e-12)
}

func TestValidation(t *testing.T) {
	freqs := []float64{1000, 2000}
	b, err := vib.TruncatedBasis(freqs, []int{2, 2}, 2)
	require.NoError(t, err)

	_, err = Dense(b, []float64{1000}, nil)
	assert.ErrorIs(t, err, vib.ErrDimensionMismatch)
	_, err = Sparse(b, freqs, vib.Potential{term(t, 1, 0, 0, 5)})
	assert.ErrorIs(t, err, vib.ErrModeOutOfRange)
}

func TestCSRMulVec(t *testing.T) {
	freqs, pot, b := triatomic(t)
	s, err := Sparse(b, freqs, pot)
	require.NoError(t, err)
	d := s.ToSymDense()

	n := s.SymmetricDim()
	rng := rand.New(rand.NewPCG(1, 2))
	x := make([]float64, n)
	for i := range x {
		x[i] = rng.NormFloat64()
	}
	got := make([]float64, n)
	s.MulVecTo(got, x)

	var want mat.VecDense
	want.MulVec(d, mat.NewVecDense(n, x))
	for i := range got {
		assert.InDelta(t, want.AtVec(i), got[i], 1e-9*math.Max(1, math.Abs(got[i])))
	}

	assert.Panics(t, func() { s.MulVecTo(got[:1], x) })
	assert.Panics(t, func() { s.At(n, 0) })
}

func TestFromLowerTriplets(t *testing.T) {
	c := FromLowerTriplets(3, []Triplet{
		{Row: 0, Col: 0, Value: 1},
		{Row: 2, Col: 0, Value: 2},
		{Row: 2, Col: 0, Value: 0.5},
		{Row: 1, Col: 1, Value: 3},
	})
	assert.Equal(t, 4, c.NNZ())
	assert.Equal(t, 2.5, c.At(0, 2))
	assert.Equal(t, 2.5, c.At(2, 0))
	assert.Zero(t, c.At(2, 2))
}
