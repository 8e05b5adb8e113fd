package eigen

import (
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMaxRestarts = 1000
	DefaultTol         = 1e-10

	// breakdownTol is the relative norm below which a new Krylov direction is
	// treated as lying inside the current subspace.
	breakdownTol = 1e-12
	seedStream   = 0x9e3779b97f4a7c15
)

// Operator is a symmetric linear map applied through matrix-vector products.
type Operator interface {
	SymmetricDim() int
	MulVecTo(dst, x []float64)
}

// Options tunes SymEigs. Zero values select the defaults.
type Options struct {
	// NCV is the Krylov subspace size. Zero means min(n, max(3k, 20)); a set
	// value must lie in [min(2k, n), n].
	NCV         int
	MaxRestarts int
	// Tol bounds each residual norm relative to max(1, |eigenvalue|).
	Tol    float64
	Seed   uint64
	Logger *slog.Logger
}

// SymEigs computes the k algebraically smallest eigenpairs of op with a
// block thick-restarted Krylov method and Rayleigh-Ritz extraction. The
// block holds k random start vectors, so an eigenvalue is found with its
// full multiplicity among the k lowest.
func SymEigs(op Operator, k int, opts Options) (*Result, error) {
	n := op.SymmetricDim()
	if k < 1 || k >= n {
		return nil, fmt.Errorf("%w: %d roots of order %d", ErrTooManyRoots, k, n)
	}
	m := opts.NCV
	if m == 0 {
		m = min(n, max(3*k, 20))
	} else if m < min(2*k, n) || m > n {
		return nil, fmt.Errorf("%w: ncv %d for %d roots of order %d", ErrSubspace, m, k, n)
	}
	maxRestarts := opts.MaxRestarts
	if maxRestarts <= 0 {
		maxRestarts = DefaultMaxRestarts
	}
	tol := opts.Tol
	if tol <= 0 {
		tol = DefaultTol
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	// block size; below k only when the subspace is the whole space
	b := min(k, m-k)
	// Ritz vectors kept across a restart, leaving room for one block
	p := max(k, min(m-b, k+(m-k-b)/2))

	kr := &krylov{op: op, n: n, rng: rand.New(rand.NewPCG(opts.Seed, seedStream))}
	for i := 0; i < k; i++ {
		kr.pushDirection(nil)
	}

	for restart := 0; ; restart++ {
		kr.expand(m, b)

		theta, s, err := kr.rayleighRitz()
		if err != nil {
			return nil, err
		}
		converged, worst := 0, 0.0
		next := make([][]float64, b)
		for i := 0; i < k; i++ {
			r := kr.residual(theta[i], s, i)
			norm := floats.Norm(r, 2)
			if norm <= tol*math.Max(1, math.Abs(theta[i])) {
				converged++
			} else {
				worst = math.Max(worst, norm)
				if i < b {
					next[i] = r
				}
			}
		}
		log.Debug("krylov restart", "restart", restart, "subspace", len(kr.v), "converged", converged, "wanted", k)

		if converged == k || len(kr.v) == n {
			return kr.result(theta[:k], s), nil
		}
		if restart >= maxRestarts {
			return nil, &ConvergenceError{Restarts: restart, Converged: converged, Wanted: k, Residual: worst}
		}

		// Residuals of unconverged pairs continue the block sequence; converged
		// pairs hand their slot to a fresh random direction.
		kr.compress(s, p)
		for _, r := range next {
			if len(kr.v) >= m || !kr.pushDirection(r) {
				break
			}
		}
	}
}

// krylov holds an orthonormal basis and its image under the operator.
type krylov struct {
	op  Operator
	n   int
	rng *rand.Rand
	v   [][]float64
	av  [][]float64
}

func (kr *krylov) push(x []float64) {
	floats.Scale(1/floats.Norm(x, 2), x)
	ax := make([]float64, kr.n)
	kr.op.MulVecTo(ax, x)
	kr.v = append(kr.v, x)
	kr.av = append(kr.av, ax)
}

// orthogonalize removes the basis components of f, twice for stability, and
// returns the remaining norm.
func (kr *krylov) orthogonalize(f []float64) float64 {
	for pass := 0; pass < 2; pass++ {
		for _, v := range kr.v {
			floats.AddScaled(f, -floats.Dot(v, f), v)
		}
	}
	return floats.Norm(f, 2)
}

// expand grows the basis to m vectors, applying the operator to the newest
// block of b vectors at each step.
func (kr *krylov) expand(m, b int) {
	for len(kr.v) < m {
		block := kr.av[max(0, len(kr.av)-b):]
		for _, ax := range block {
			if len(kr.v) >= m || !kr.pushDirection(slices.Clone(ax)) {
				return
			}
		}
	}
}

// pushDirection orthogonalizes f against the basis and appends it. A nil or
// dependent f is replaced by a random direction. It reports false once the
// basis spans the whole space.
func (kr *krylov) pushDirection(f []float64) bool {
	if f != nil {
		scale := floats.Norm(f, 2)
		if norm := kr.orthogonalize(f); norm > 0 && norm > breakdownTol*scale {
			kr.push(f)
			return true
		}
	}
	if f = kr.randomOrthogonal(); f == nil {
		return false
	}
	kr.push(f)
	return true
}

func (kr *krylov) random() []float64 {
	x := make([]float64, kr.n)
	for i := range x {
		x[i] = kr.rng.NormFloat64()
	}
	return x
}

// randomOrthogonal returns a random direction orthogonal to the basis, nil
// when none is left.
func (kr *krylov) randomOrthogonal() []float64 {
	if len(kr.v) >= kr.n {
		return nil
	}
	for try := 0; try < 3; try++ {
		f := kr.random()
		if kr.orthogonalize(f) > 1e-8 {
			return f
		}
	}
	return nil
}

// rayleighRitz diagonalizes the projected operator V^T A V.
func (kr *krylov) rayleighRitz() ([]float64, *mat.Dense, error) {
	m := len(kr.v)
	h := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			h.SetSym(i, j, 0.5*(floats.Dot(kr.v[i], kr.av[j])+floats.Dot(kr.v[j], kr.av[i])))
		}
	}
	var es mat.EigenSym
	if ok := es.Factorize(h, true); !ok {
		return nil, nil, ErrFactorization
	}
	var s mat.Dense
	es.VectorsTo(&s)
	return es.Values(nil), &s, nil
}

// combine returns sum_j s[j][col] * basis[j].
func (kr *krylov) combine(basis [][]float64, s *mat.Dense, col int) []float64 {
	y := make([]float64, kr.n)
	for j, b := range basis {
		floats.AddScaled(y, s.At(j, col), b)
	}
	return y
}

// residual returns A y - theta y for Ritz vector col.
func (kr *krylov) residual(theta float64, s *mat.Dense, col int) []float64 {
	r := kr.combine(kr.av, s, col)
	floats.AddScaled(r, -theta, kr.combine(kr.v, s, col))
	return r
}

// compress keeps the first p Ritz vectors as the new basis.
func (kr *krylov) compress(s *mat.Dense, p int) {
	v := make([][]float64, p)
	av := make([][]float64, p)
	for i := 0; i < p; i++ {
		v[i] = kr.combine(kr.v, s, i)
		av[i] = kr.combine(kr.av, s, i)
	}
	kr.v, kr.av = v, av
}

func (kr *krylov) result(values []float64, s *mat.Dense) *Result {
	k := len(values)
	vecs := mat.NewDense(kr.n, k, nil)
	for i := 0; i < k; i++ {
		vecs.SetCol(i, kr.combine(kr.v, s, i))
	}
	return &Result{Values: append([]float64(nil), values...), Vectors: vecs}
}

// Symmetric adapts a gonum symmetric matrix to Operator.
func Symmetric(a mat.Symmetric) Operator {
	return symOperator{a}
}

type symOperator struct {
	a mat.Symmetric
}

func (o symOperator) SymmetricDim() int { return o.a.SymmetricDim() }

func (o symOperator) MulVecTo(dst, x []float64) {
	n := o.a.SymmetricDim()
	mat.NewVecDense(n, dst).MulVec(o.a, mat.NewVecDense(n, x))
}
