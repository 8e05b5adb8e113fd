package ham

import (
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/vhci/internal/vib"
)

// CSR is a symmetric matrix in compressed-row form holding both triangles.
// Column indices are sorted within each row.
type CSR struct {
	n      int
	rowPtr []int
	colInd []int
	values []float64
}

var _ mat.Symmetric = (*CSR)(nil)

func (c *CSR) Dims() (r, cols int) { return c.n, c.n }

func (c *CSR) SymmetricDim() int { return c.n }

// T returns the receiver; the matrix is symmetric.
func (c *CSR) T() mat.Matrix { return c }

// At returns element (i, j). It panics on an index outside the matrix, as
// gonum matrices do.
func (c *CSR) At(i, j int) float64 {
	if i < 0 || i >= c.n || j < 0 || j >= c.n {
		panic(fmt.Errorf("%w: (%d, %d) in %dx%d", ErrIndexOutOfRange, i, j, c.n, c.n))
	}
	cols := c.colInd[c.rowPtr[i]:c.rowPtr[i+1]]
	if k, ok := slices.BinarySearch(cols, j); ok {
		return c.values[c.rowPtr[i]+k]
	}
	return 0
}

// NNZ is the number of stored elements.
func (c *CSR) NNZ() int { return len(c.values) }

// DoNonZero calls fn for every stored element in row-major order.
func (c *CSR) DoNonZero(fn func(i, j int, v float64)) {
	for i := 0; i < c.n; i++ {
		for k := c.rowPtr[i]; k < c.rowPtr[i+1]; k++ {
			fn(i, c.colInd[k], c.values[k])
		}
	}
}

// MulVecTo computes dst = C x with rows split across workers.
func (c *CSR) MulVecTo(dst, x []float64) {
	if len(dst) != c.n || len(x) != c.n {
		panic(fmt.Errorf("%w: dst %d, x %d, order %d", ErrVectorLength, len(dst), len(x), c.n))
	}
	vib.ParallelFor(c.n, 256, func(_, lo, hi int) {
		for i := lo; i < hi; i++ {
			s := 0.0
			for k := c.rowPtr[i]; k < c.rowPtr[i+1]; k++ {
				s += c.values[k] * x[c.colInd[k]]
			}
			dst[i] = s
		}
	})
}

// ToSymDense expands the matrix. An empty matrix yields nil.
func (c *CSR) ToSymDense() *mat.SymDense {
	if c.n == 0 {
		return nil
	}
	s := mat.NewSymDense(c.n, nil)
	c.DoNonZero(func(i, j int, v float64) {
		if j >= i {
			s.SetSym(i, j, v)
		}
	})
	return s
}
