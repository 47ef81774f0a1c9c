package sparse

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Naktakala/PDEs/dense"
)

func TestNewCholesky(t *testing.T) {
	size := 3
	data := []float64{
		4, 12, -16,
		12, 37, -43,
		-16, -43, 98,
	}
	wantdata := []float64{
		2, 0, 0,
		6, 1, 0,
		-8, 5, 3,
	}
	tol := 1e-12

	A := makeSparse(size, data)
	chol := NewCholesky(A)
	require.NoError(t, chol.Factorize())
	for i := 0; i < size; i++ {
		for j := 0; j <= i; j++ {
			assert.InDelta(t, wantdata[i*size+j], A.At(i, j), tol, "factorizations don't match:\ngot\n% .3v", mat.Formatted(A))
		}
	}
}

func TestCholesky_Solve(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	sizes := [][2]int{{10, 5}, {50, 5}, {150, 15}}
	if !testing.Short() {
		sizes = append(sizes, [2]int{601, 12}, [2]int{601, 15})
	}
	for _, sz := range sizes {
		size, nfill := sz[0], sz[1]
		t.Run(fmt.Sprintf("size=%v,nfill=%v", size, nfill), func(t *testing.T) {
			const tol = 1e-9
			s := randSparse(rnd, size, nfill)
			f := dense.NewVector(size)
			f.Fill(1)

			sym := mat.NewSymDense(size, nil)
			for i := 0; i < size; i++ {
				for j := i; j < size; j++ {
					sym.SetSym(i, j, s.At(i, j))
				}
			}
			var ref mat.Cholesky
			require.True(t, ref.Factorize(sym))
			var want mat.VecDense
			require.NoError(t, ref.SolveVecTo(&want, mat.NewVecDense(size, f)))

			var wantL mat.TriDense
			ref.LTo(&wantL)

			chol := NewCholesky(s)
			require.NoError(t, chol.Factorize())
			for i := 0; i < size; i++ {
				for j := 0; j <= i; j++ {
					require.InDelta(t, wantL.At(i, j), s.At(i, j), tol, "factors differ at (%d,%d)", i, j)
				}
			}

			got := dense.NewVector(size)
			require.NoError(t, chol.Solve(got, f))
			for i := range got {
				require.InDelta(t, want.AtVec(i), got[i], tol, "solutions differ at %d", i)
			}
		})
	}
}

func TestCholesky_Errors(t *testing.T) {
	indefinite := makeSparse(2, []float64{
		1, 2,
		2, 1,
	})
	assert.ErrorIs(t, NewCholesky(indefinite).Factorize(), dense.ErrSingular)

	zero := makeSparse(2, []float64{
		0, 0,
		0, 1,
	})
	assert.ErrorIs(t, NewCholesky(zero).Factorize(), dense.ErrSingular)

	chol := NewCholesky(tridiag(3, 2, -1))
	x := dense.NewVector(3)
	assert.ErrorIs(t, chol.Solve(x, dense.Vector{1, 1, 1}), dense.ErrUnfactorized)
	require.NoError(t, chol.Factorize())
	assert.ErrorIs(t, chol.Solve(x, dense.Vector{1}), dense.ErrDimensionMismatch)
}

func TestIncompleteCholesky(t *testing.T) {
	// a tridiagonal factor has no fill-in, so IC(0) is exact
	A := tridiag(20, 4, -1)
	pre, err := IncompleteCholesky(A)
	require.NoError(t, err)

	r := dense.NewVector(20)
	r.Fill(1)
	z := dense.NewVector(20)
	require.NoError(t, pre(z, r))

	back := dense.NewVector(20)
	require.NoError(t, A.MulVec(back, z))
	for i := range r {
		assert.InDelta(t, r[i], back[i], 1e-12)
	}
	assert.Equal(t, 4.0, A.At(0, 0), "the preconditioner works on a copy")

	rnd := rand.New(rand.NewSource(2))
	s := randSparse(rnd, 80, 8)
	nnz := s.NNZ()
	chol := NewCholesky(s)
	chol.Incomplete = true
	require.NoError(t, chol.Factorize())
	assert.LessOrEqual(t, s.NNZ(), nnz, "incomplete factorization must not fill in")
}
