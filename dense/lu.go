package dense

import (
	"fmt"
	"math"
)

// LU holds a Doolittle LU factorization of a square matrix A such that
// P*A = L*U.  The factorization is destructive: the matrix handed to NewLU
// is overwritten with the unit lower triangle L (below the diagonal) and U
// (on and above it), and belongs to the LU for its lifetime.  Row exchanges
// are recorded in a permutation slice; no permutation matrix is formed.
type LU struct {
	a          *Matrix
	pivots     []int
	pivot      bool
	factorized bool
	work       Vector
}

// NewLU prepares a factorization of a.  Partial pivoting is used when pivot
// is true.  Factorize must be called before Solve.
func NewLU(a *Matrix, pivot bool) *LU {
	n, _ := a.Dims()
	return &LU{a: a, pivots: make([]int, n), pivot: pivot, work: NewVector(n)}
}

func (lu *LU) Factorized() bool { return lu.factorized }

// Pivots returns the row permutation: row i of the factors corresponds to
// row Pivots()[i] of the original matrix.
func (lu *LU) Pivots() []int { return lu.pivots }

// Factorize computes the factors in place.  Calling it again after success
// is a no-op.  If the matrix is singular, ErrSingular is returned and the
// matrix contents are left partially eliminated.
func (lu *LU) Factorize() error {
	if lu.factorized {
		return nil
	}
	a := lu.a
	n, c := a.Dims()
	if n != c {
		return fmt.Errorf("dense: lu of %dx%d matrix: square matrix required: %w", n, c, ErrDimensionMismatch)
	}
	for i := range lu.pivots {
		lu.pivots[i] = i
	}

	for j := 0; j < n; j++ {
		if lu.pivot {
			argmax, max := j, math.Abs(a.At(j, j))
			for k := j + 1; k < n; k++ {
				if v := math.Abs(a.At(k, j)); v > max {
					argmax, max = k, v
				}
			}
			if max == 0 {
				return fmt.Errorf("dense: lu: column %d is zero on and below the diagonal: %w", j, ErrSingular)
			}
			if argmax != j {
				lu.pivots[j], lu.pivots[argmax] = lu.pivots[argmax], lu.pivots[j]
				a.SwapRows(j, argmax)
			}
		}

		aj := a.RawRow(j)
		ajj := aj[j]
		if ajj == 0 {
			return fmt.Errorf("dense: lu: zero pivot in row %d: %w", j, ErrSingular)
		}

		for i := j + 1; i < n; i++ {
			ai := a.RawRow(i)
			if ai[j] == 0 {
				continue
			}
			// multiplier goes where the eliminated entry was
			ai[j] /= ajj
			l := ai[j]
			for k := j + 1; k < n; k++ {
				ai[k] -= l * aj[k]
			}
		}
	}
	lu.factorized = true
	return nil
}

// Solve solves A*x = b using the stored factors.  x and b may be the same
// vector.  On error x is not modified.
func (lu *LU) Solve(x, b Vector) error {
	if !lu.factorized {
		return fmt.Errorf("dense: lu solve: %w", ErrUnfactorized)
	}
	n, _ := lu.a.Dims()
	if len(b) != n || len(x) != n {
		return fmt.Errorf("dense: lu solve: matrix is %dx%d, b has %d, x has %d: %w", n, n, len(b), len(x), ErrDimensionMismatch)
	}

	y := lu.work
	for i := 0; i < n; i++ {
		ai := lu.a.RawRow(i)
		v := b[lu.pivots[i]]
		for j := 0; j < i; j++ {
			v -= ai[j] * y[j]
		}
		y[i] = v
	}

	for i := n - 1; i >= 0; i-- {
		ai := lu.a.RawRow(i)
		v := y[i]
		for j := i + 1; j < n; j++ {
			v -= ai[j] * y[j]
		}
		y[i] = v / ai[i]
	}
	copy(x, y)
	return nil
}
