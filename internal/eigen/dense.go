package eigen

import (
	"gonum.org/v1/gonum/mat"
)

// Result holds eigenvalues in ascending order and the matching unit
// eigenvectors as columns.
type Result struct {
	Values  []float64
	Vectors *mat.Dense
}

// Roots is the number of eigenpairs held.
func (r *Result) Roots() int { return len(r.Values) }

// Dense returns every eigenpair of h. A nil matrix or one of order zero
// yields an empty result.
func Dense(h mat.Symmetric) (*Result, error) {
	if s, ok := h.(*mat.SymDense); h == nil || ok && s == nil || h.SymmetricDim() == 0 {
		return &Result{}, nil
	}
	var es mat.EigenSym
	if ok := es.Factorize(h, true); !ok {
		return nil, ErrFactorization
	}
	r := &Result{Values: es.Values(nil), Vectors: &mat.Dense{}}
	es.VectorsTo(r.Vectors)
	return r, nil
}

// Leading returns a view of the first k eigenvectors.
func (r *Result) Leading(k int) *mat.Dense {
	rows, _ := r.Vectors.Dims()
	return r.Vectors.Slice(0, rows, 0, k).(*mat.Dense)
}
