package sparse

import (
	"fmt"
	"math"
	"sort"

	"github.com/Naktakala/PDEs/dense"
)

// Cholesky holds the factorization A = L*L^T of a symmetric positive definite
// sparse matrix.  Only the lower triangle of A is read and L overwrites it in
// place; stored entries above the diagonal are ignored.  Entries that
// eliminate to exactly zero are not stored.
//
// When Incomplete is set, updates are restricted to the pattern of A (no
// fill-in), which yields the IC(0) factorization used to precondition CG.
type Cholesky struct {
	Incomplete bool

	a          *Matrix
	factorized bool
	work       dense.Vector
}

// NewCholesky prepares a complete factorization of a.  Factorize must be
// called before Solve.
func NewCholesky(a *Matrix) *Cholesky {
	n, _ := a.Dims()
	return &Cholesky{a: a, work: dense.NewVector(n)}
}

func (c *Cholesky) Factorized() bool { return c.factorized }

func (c *Cholesky) Factorize() error {
	if c.factorized {
		return nil
	}
	a := c.a
	n, _ := a.Dims()

	for j := 0; j < n; j++ {
		d, ok := a.Diag(j)
		if !ok || d == 0 {
			return fmt.Errorf("sparse: cholesky: zero pivot in row %d: %w", j, dense.ErrSingular)
		}

		jcols, jvals := a.Row(j)
		for k, col := range jcols {
			if col >= j {
				break
			}
			d -= jvals[k] * jvals[k]
		}
		if d <= 0 {
			return fmt.Errorf("sparse: cholesky: non-positive pivot %g in row %d: %w", d, j, dense.ErrSingular)
		}
		ljj := math.Sqrt(d)
		a.Set(j, j, ljj)

		// strictly lower part of row j, the only part the updates below read
		jcols, jvals = a.Row(j)
		lo := sort.SearchInts(jcols, j)
		jcols, jvals = jcols[:lo], jvals[:lo]

		for i := j + 1; i < n; i++ {
			aij, ok := a.Locate(i, j)
			if c.Incomplete && !ok {
				continue
			}
			icols, ivals := a.Row(i)
			s := lowerDot(icols, ivals, jcols, jvals, j)
			if !ok && s == 0 {
				continue
			}

			v := (aij - s) / ljj
			if v == 0 {
				a.Remove(i, j)
				continue
			}
			a.Set(i, j, v)
		}
	}
	c.factorized = true
	return nil
}

// lowerDot sums ai[k]*aj[k] over the columns k < j stored in both rows.  Both
// rows are sorted so the matching columns are found with a single merge.
func lowerDot(icols []int, ivals []float64, jcols []int, jvals []float64, j int) float64 {
	s := 0.0
	p, q := 0, 0
	for p < len(icols) && q < len(jcols) {
		ci, cj := icols[p], jcols[q]
		if ci >= j || cj >= j {
			break
		}
		switch {
		case ci == cj:
			s += ivals[p] * jvals[q]
			p++
			q++
		case ci < cj:
			p++
		default:
			q++
		}
	}
	return s
}

// Solve solves A*x = b by a forward sweep over the rows of L followed by a
// column-oriented backward sweep that applies L^T without forming it.
func (c *Cholesky) Solve(x, b dense.Vector) error {
	if !c.factorized {
		return fmt.Errorf("sparse: cholesky solve: %w", dense.ErrUnfactorized)
	}
	n, _ := c.a.Dims()
	if len(b) != n || len(x) != n {
		return fmt.Errorf("sparse: cholesky solve: matrix is %dx%d, b has %d, x has %d: %w", n, n, len(b), len(x), dense.ErrDimensionMismatch)
	}

	y := c.work
	for i := 0; i < n; i++ {
		v := b[i]
		cols, vals := c.a.Row(i)
		for k, j := range cols {
			if j >= i {
				break
			}
			v -= vals[k] * y[j]
		}
		d, _ := c.a.Diag(i)
		y[i] = v / d
	}

	for i := n - 1; i >= 0; i-- {
		d, _ := c.a.Diag(i)
		y[i] /= d
		cols, vals := c.a.Row(i)
		for k, j := range cols {
			if j >= i {
				break
			}
			y[j] -= vals[k] * y[i]
		}
	}
	copy(x, y)
	return nil
}

// IncompleteCholesky returns a preconditioner that uses an incomplete
// cholesky factorization (incomplete via maintaining the same sparsity
// pattern as the matrix A).  The factorization is then used to solve for z in
// the system M*z=r.  A is copied and left untouched.
func IncompleteCholesky(A *Matrix) (Preconditioner, error) {
	chol := NewCholesky(A.Clone())
	chol.Incomplete = true
	if err := chol.Factorize(); err != nil {
		return nil, fmt.Errorf("sparse: incomplete cholesky: %w", err)
	}
	return chol.Solve, nil
}
