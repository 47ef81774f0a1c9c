package sparse

import (
	"fmt"

	"github.com/Naktakala/PDEs/dense"
)

// Stationary is a relaxation solver that sweeps the rows of A until the
// relative change of the iterate between two sweeps falls below the
// tolerance.  The same type implements Jacobi, Gauss-Seidel, SOR and SSOR;
// use the matching constructor.
type Stationary struct {
	iterative

	// omega is the relaxation factor; 1 gives plain Gauss-Seidel.
	omega float64
	// jacobi updates from the previous iterate only.
	jacobi bool
	// symmetric follows every forward sweep with a backward one.
	symmetric bool

	prev dense.Vector
}

func newStationary(name string, a *Matrix, opts Options) *Stationary {
	n, _ := a.Dims()
	return &Stationary{iterative: newIterative(name, a, opts), omega: 1, prev: dense.NewVector(n)}
}

func NewJacobi(a *Matrix, opts Options) *Stationary {
	s := newStationary("jacobi", a, opts)
	s.jacobi = true
	return s
}

func NewGaussSeidel(a *Matrix, opts Options) *Stationary {
	return newStationary("gauss_seidel", a, opts)
}

// NewSOR returns a successive over-relaxation solver using opts.Omega.
func NewSOR(a *Matrix, opts Options) *Stationary {
	s := newStationary("sor", a, opts)
	s.omega = s.opts.Omega
	return s
}

// NewSSOR returns a symmetric SOR solver: each iteration is a forward SOR
// sweep followed by a backward one.
func NewSSOR(a *Matrix, opts Options) *Stationary {
	s := newStationary("ssor", a, opts)
	s.omega = s.opts.Omega
	s.symmetric = true
	return s
}

// solveRow relaxes unknown i against the current contents of src and stores
// the result in dst.
func (s *Stationary) solveRow(i int, b, src, dst dense.Vector) {
	cols, vals := s.a.Row(i)
	diag, sum := 0.0, b[i]
	for k, j := range cols {
		if j == i {
			diag = vals[k]
			continue
		}
		sum -= vals[k] * src[j]
	}
	dst[i] = (1-s.omega)*src[i] + s.omega*sum/diag
}

func (s *Stationary) forwardIter(b, x dense.Vector) {
	if s.jacobi {
		for i := range x {
			s.solveRow(i, b, s.prev, x)
		}
		return
	}
	for i := range x {
		s.solveRow(i, b, x, x)
	}
}

func (s *Stationary) backwardIter(b, x dense.Vector) {
	for i := len(x) - 1; i >= 0; i-- {
		s.solveRow(i, b, x, x)
	}
}

func (s *Stationary) Solve(x, b dense.Vector) error {
	if err := s.checkDims(x, b); err != nil {
		return err
	}
	n, _ := s.a.Dims()
	for i := 0; i < n; i++ {
		if d, ok := s.a.Diag(i); !ok || d == 0 {
			return fmt.Errorf("sparse: %s: zero diagonal in row %d: %w", s.name, i, dense.ErrSingular)
		}
	}

	change := 0.0
	for iter := 1; iter <= s.opts.MaxIterations; iter++ {
		copy(s.prev, x)
		s.forwardIter(b, x)
		if s.symmetric {
			s.backwardIter(b, x)
		}

		change = relativeChange(x, s.prev)
		if change < s.opts.Tolerance {
			s.converged(iter, change)
			return nil
		}
	}
	return s.failed(s.opts.MaxIterations, change)
}

// relativeChange returns ||x-prev|| / ||x|| in the 2-norm, or the absolute
// change when x is zero.
func relativeChange(x, prev dense.Vector) float64 {
	diff, err := x.Distance(prev, 2)
	if err != nil {
		panic(err)
	}
	if norm := x.Norm2(); norm != 0 {
		return diff / norm
	}
	return diff
}
