package sparse

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/go-logr/logr/testr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Naktakala/PDEs/dense"
)

var allMethods = []Method{
	MethodLU, MethodCholesky, MethodSparseLU, MethodSparseCholesky,
	MethodJacobi, MethodGaussSeidel, MethodSOR, MethodSSOR, MethodCG,
}

// reference solves A*x = b with the dense LU factorization.
func reference(t *testing.T, A *Matrix, b dense.Vector) dense.Vector {
	t.Helper()
	lu := dense.NewLU(dense.CopyOf(A), true)
	require.NoError(t, lu.Factorize())
	x := dense.NewVector(len(b))
	require.NoError(t, lu.Solve(x, b))
	return x
}

func TestSolvers(t *testing.T) {
	rnd := rand.New(rand.NewSource(7))
	const size = 100
	base := randSparse(rnd, size, 6)
	b := dense.NewVector(size)
	for i := range b {
		b[i] = rnd.Float64()
	}
	want := reference(t, base, b)

	for _, m := range allMethods {
		t.Run(m.String(), func(t *testing.T) {
			A := base.Clone()
			s, err := NewSolver(m, A, Options{Tolerance: 1e-10})
			require.NoError(t, err)

			x := dense.NewVector(size)
			require.NoError(t, s.Solve(x, b))
			for i := range x {
				require.InDelta(t, want[i], x[i], 1e-6, "%v solution differs at %d", m, i)
			}

			if it, ok := s.(Iterative); ok {
				assert.Greater(t, it.Stats().Iterations, 0)
			}
		})
	}
}

func TestSolvers_WarmStart(t *testing.T) {
	A := tridiag(50, 4, -1)
	b := dense.NewVector(50)
	b.Fill(1)
	want := reference(t, A, b)

	for _, m := range []Method{MethodJacobi, MethodGaussSeidel, MethodSOR, MethodSSOR} {
		s, err := NewSolver(m, A, DefaultOptions())
		require.NoError(t, err)
		x := want.Clone()
		require.NoError(t, s.Solve(x, b))
		assert.Equal(t, 1, s.(Iterative).Stats().Iterations, "%v started from the solution", m)
	}

	cg, err := NewSolver(MethodCG, A, DefaultOptions())
	require.NoError(t, err)
	x := want.Clone()
	require.NoError(t, cg.Solve(x, b))
	assert.Equal(t, 0, cg.(Iterative).Stats().Iterations)
}

func TestCG_ZeroRHS(t *testing.T) {
	A := tridiag(10, 2, -1)
	cg := NewCG(A, DefaultOptions())
	x := dense.NewVector(10)
	require.NoError(t, cg.Solve(x, dense.NewVector(10)))
	assert.Equal(t, dense.NewVector(10), x)
}

func TestCG_Unpreconditioned(t *testing.T) {
	A := tridiag(40, 2, -1)
	b := dense.NewVector(40)
	b.Fill(1)
	want := reference(t, A, b)

	cg := NewCG(A, Options{Tolerance: 1e-12, Verbose: true, Logger: testr.New(t)})
	x := dense.NewVector(40)
	require.NoError(t, cg.Solve(x, b))
	for i := range x {
		assert.InDelta(t, want[i], x[i], 1e-5)
	}
	// exact arithmetic finishes in n steps
	assert.LessOrEqual(t, cg.Stats().Iterations, 2*40)
}

func TestSolvers_NotConverged(t *testing.T) {
	A := tridiag(100, 2, -1)
	b := dense.NewVector(100)
	b.Fill(1)

	for _, m := range []Method{MethodJacobi, MethodGaussSeidel, MethodSOR, MethodSSOR, MethodCG} {
		s, err := NewSolver(m, A, Options{Tolerance: 1e-14, MaxIterations: 2})
		require.NoError(t, err)
		x := dense.NewVector(100)
		err = s.Solve(x, b)
		require.ErrorIs(t, err, ErrNotConverged, "%v", m)

		var ce *ConvergenceError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, m.String(), ce.Method)
		assert.Equal(t, 2, ce.Iterations)
		assert.NotEqual(t, dense.NewVector(100), x, "the last iterate is kept")
	}

	// from a zero guess the first sweep changes the iterate completely
	s, err := NewSolver(MethodJacobi, A, Options{Tolerance: 1e-14, MaxIterations: 1})
	require.NoError(t, err)
	err = s.Solve(dense.NewVector(100), b)
	var ce *ConvergenceError
	require.True(t, errors.As(err, &ce))
	assert.InDelta(t, 1.0, ce.Residual, 1e-14, "stationary methods report the relative change")
	assert.Equal(t, ce.Residual, s.(Iterative).Stats().Residual)
}

func TestSolvers_ArgumentErrors(t *testing.T) {
	A := tridiag(4, 2, -1)
	for _, m := range allMethods {
		s, err := NewSolver(m, A.Clone(), DefaultOptions())
		require.NoError(t, err)
		x := dense.Vector{3, 3, 3, 3}
		err = s.Solve(x, dense.Vector{1, 1, 1})
		assert.ErrorIs(t, err, dense.ErrDimensionMismatch, "%v", m)
		assert.Equal(t, dense.Vector{3, 3, 3, 3}, x, "%v modified x on error", m)
	}

	zeroDiag := makeSparse(3, []float64{
		0, 1, 0,
		1, 2, 1,
		0, 1, 2,
	})
	for _, m := range []Method{MethodJacobi, MethodGaussSeidel, MethodSOR, MethodSSOR} {
		s, err := NewSolver(m, zeroDiag, DefaultOptions())
		require.NoError(t, err)
		x := dense.Vector{5, 5, 5}
		assert.ErrorIs(t, s.Solve(x, dense.Vector{1, 1, 1}), dense.ErrSingular, "%v", m)
		assert.Equal(t, dense.Vector{5, 5, 5}, x)
	}
}

func TestNewSolver_Errors(t *testing.T) {
	nonsym := makeSparse(2, []float64{
		2, 1,
		0, 2,
	})
	for _, m := range []Method{MethodCholesky, MethodSparseCholesky, MethodCG} {
		_, err := NewSolver(m, nonsym, DefaultOptions())
		assert.ErrorIs(t, err, ErrNotSymmetric, "%v", m)
	}
	_, err := NewSolver(MethodSparseLU, nonsym, DefaultOptions())
	assert.NoError(t, err)

	singular := makeSparse(2, []float64{
		1, 2,
		2, 4,
	})
	for _, m := range []Method{MethodLU, MethodSparseLU} {
		_, err := NewSolver(m, singular.Clone(), DefaultOptions())
		assert.ErrorIs(t, err, dense.ErrSingular, "%v", m)
	}

	_, err = NewSolver(MethodSOR, nonsym, Options{Omega: 2.5})
	assert.Error(t, err)
	_, err = NewSolver(Method(42), nonsym, DefaultOptions())
	assert.Error(t, err)
}

func TestParseMethod(t *testing.T) {
	for _, m := range allMethods {
		got, err := ParseMethod(m.String())
		require.NoError(t, err)
		assert.Equal(t, m, got)
	}
	got, err := ParseMethod(" Gauss-Seidel ")
	require.NoError(t, err)
	assert.Equal(t, MethodGaussSeidel, got)

	_, err = ParseMethod("gmres")
	assert.Error(t, err)

	var m Method
	require.NoError(t, m.UnmarshalText([]byte("sparse_cholesky")))
	assert.Equal(t, MethodSparseCholesky, m)
	assert.True(t, m.Direct())
	assert.False(t, MethodSSOR.Direct())
}

func TestReordered(t *testing.T) {
	const size = 30
	shuffle := make([]int, size)
	for i := range shuffle {
		shuffle[i] = (i * 11) % size
	}
	A := New(size)
	Permute(A, tridiag(size, 3, -1), shuffle)
	b := dense.NewVector(size)
	for i := range b {
		b[i] = float64(i)
	}
	want := reference(t, A, b)

	for _, m := range []Method{MethodSparseLU, MethodGaussSeidel} {
		r, err := NewReordered(m, A, Options{Tolerance: 1e-12})
		require.NoError(t, err)
		x := dense.NewVector(size)
		require.NoError(t, r.Solve(x, b))
		for i := range x {
			assert.InDelta(t, want[i], x[i], 1e-6)
		}

		P := New(size)
		Permute(P, A, r.Mapping())
		assert.Equal(t, 1, Bandwidth(P), "unknowns are renumbered along the chain")
	}
	assert.Equal(t, 3.0, A.At(0, 0), "the operator is permuted into a copy")
}
