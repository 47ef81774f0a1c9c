package dense

import (
	"fmt"
	"math"
)

// Cholesky holds the factorization A = L*L^T of a symmetric positive definite
// matrix.  Only the lower triangle of A is read, and L overwrites it in place;
// the strict upper triangle is left untouched and ignored.
type Cholesky struct {
	a          *Matrix
	factorized bool
	work       Vector
}

func NewCholesky(a *Matrix) *Cholesky {
	n, _ := a.Dims()
	return &Cholesky{a: a, work: NewVector(n)}
}

func (c *Cholesky) Factorized() bool { return c.factorized }

// Factorize computes L column by column.  A non-positive pivot means the
// matrix is singular or not positive definite and yields ErrSingular.
func (c *Cholesky) Factorize() error {
	if c.factorized {
		return nil
	}
	a := c.a
	n, cols := a.Dims()
	if n != cols {
		return fmt.Errorf("dense: cholesky of %dx%d matrix: square matrix required: %w", n, cols, ErrDimensionMismatch)
	}

	for j := 0; j < n; j++ {
		aj := a.RawRow(j)
		d := aj[j]
		for k := 0; k < j; k++ {
			d -= aj[k] * aj[k]
		}
		if d <= 0 {
			return fmt.Errorf("dense: cholesky: non-positive pivot %g in column %d: %w", d, j, ErrSingular)
		}
		ljj := math.Sqrt(d)
		aj[j] = ljj

		for i := j + 1; i < n; i++ {
			ai := a.RawRow(i)
			s := ai[j]
			for k := 0; k < j; k++ {
				s -= ai[k] * aj[k]
			}
			ai[j] = s / ljj
		}
	}
	c.factorized = true
	return nil
}

// Solve solves A*x = b by forward substitution with L and back substitution
// with L^T.  On error x is not modified.
func (c *Cholesky) Solve(x, b Vector) error {
	if !c.factorized {
		return fmt.Errorf("dense: cholesky solve: %w", ErrUnfactorized)
	}
	n, _ := c.a.Dims()
	if len(b) != n || len(x) != n {
		return fmt.Errorf("dense: cholesky solve: matrix is %dx%d, b has %d, x has %d: %w", n, n, len(b), len(x), ErrDimensionMismatch)
	}

	y := c.work
	for i := 0; i < n; i++ {
		ai := c.a.RawRow(i)
		v := b[i]
		for k := 0; k < i; k++ {
			v -= ai[k] * y[k]
		}
		y[i] = v / ai[i]
	}

	// L^T is walked by columns of L
	for i := n - 1; i >= 0; i-- {
		v := y[i]
		for k := i + 1; k < n; k++ {
			v -= c.a.At(k, i) * y[k]
		}
		y[i] = v / c.a.At(i, i)
	}
	copy(x, y)
	return nil
}
