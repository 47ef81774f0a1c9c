package sparse

import (
	"fmt"
	"math"
	"sort"

	"github.com/Naktakala/PDEs/dense"
)

// LU holds a Doolittle LU factorization computed directly on the sparse
// pattern of A.  Elimination only visits the stored entries of each pivot row
// and creates fill-in through Matrix.Add as it is needed.  Like its dense
// counterpart the factorization is destructive: the matrix given to NewLU is
// overwritten with the packed L and U factors.
type LU struct {
	a          *Matrix
	pivots     []int
	pivot      bool
	factorized bool
	work       dense.Vector
}

func NewLU(a *Matrix, pivot bool) *LU {
	n, _ := a.Dims()
	return &LU{a: a, pivots: make([]int, n), pivot: pivot, work: dense.NewVector(n)}
}

func (lu *LU) Factorized() bool { return lu.factorized }
func (lu *LU) Pivots() []int    { return lu.pivots }

func (lu *LU) Factorize() error {
	if lu.factorized {
		return nil
	}
	a := lu.a
	n, _ := a.Dims()
	for i := range lu.pivots {
		lu.pivots[i] = i
	}

	for j := 0; j < n; j++ {
		if lu.pivot {
			argmax, max := j, 0.0
			if v, ok := a.Diag(j); ok {
				max = math.Abs(v)
			}
			for k := j + 1; k < n; k++ {
				if v, ok := a.Locate(k, j); ok && math.Abs(v) > max {
					argmax, max = k, math.Abs(v)
				}
			}
			if max == 0 {
				return fmt.Errorf("sparse: lu: column %d is zero on and below the diagonal: %w", j, dense.ErrSingular)
			}
			if argmax != j {
				lu.pivots[j], lu.pivots[argmax] = lu.pivots[argmax], lu.pivots[j]
				a.SwapRows(j, argmax)
			}
		}

		ajj, ok := a.Diag(j)
		if !ok || ajj == 0 {
			return fmt.Errorf("sparse: lu: zero pivot in row %d: %w", j, dense.ErrSingular)
		}

		// only the part of the pivot row right of the diagonal is combined
		// into the rows below
		pcols, pvals := a.Row(j)
		start := sort.SearchInts(pcols, j+1)
		pcols, pvals = pcols[start:], pvals[start:]

		for i := j + 1; i < n; i++ {
			aij, ok := a.Locate(i, j)
			if !ok || aij == 0 {
				continue
			}
			l := aij / ajj
			a.Set(i, j, l)
			for k, col := range pcols {
				a.Add(i, col, -l*pvals[k])
			}
		}
	}
	lu.factorized = true
	return nil
}

// Solve solves A*x = b with the stored factors.  The row permutation is
// applied to b rather than to the factor pattern.  On error x is not
// modified.
func (lu *LU) Solve(x, b dense.Vector) error {
	if !lu.factorized {
		return fmt.Errorf("sparse: lu solve: %w", dense.ErrUnfactorized)
	}
	n, _ := lu.a.Dims()
	if len(b) != n || len(x) != n {
		return fmt.Errorf("sparse: lu solve: matrix is %dx%d, b has %d, x has %d: %w", n, n, len(b), len(x), dense.ErrDimensionMismatch)
	}

	y := lu.work
	for i := 0; i < n; i++ {
		v := b[lu.pivots[i]]
		cols, vals := lu.a.Row(i)
		for k, j := range cols {
			if j >= i {
				break
			}
			v -= vals[k] * y[j]
		}
		y[i] = v
	}

	for i := n - 1; i >= 0; i-- {
		v := y[i]
		diag := 0.0
		cols, vals := lu.a.Row(i)
		for k, j := range cols {
			switch {
			case j == i:
				diag = vals[k]
			case j > i:
				v -= vals[k] * y[j]
			}
		}
		y[i] = v / diag
	}
	copy(x, y)
	return nil
}
