package sparse

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/Naktakala/PDEs/dense"
)

func makeSparse(size int, data []float64) *Matrix {
	A := New(size)
	for i := 0; i < size; i++ {
		for j := 0; j < size; j++ {
			if v := data[i*size+j]; v != 0 {
				A.Set(i, j, v)
			}
		}
	}
	return A
}

// randSparse returns a random symmetric, strictly diagonally dominant (and
// therefore positive definite) matrix with roughly fillPerRow entries per row.
func randSparse(rnd *rand.Rand, size, fillPerRow int) *Matrix {
	s := New(size)
	for i := 0; i < size; i++ {
		nfill := fillPerRow / 2
		if i%7 == 0 {
			nfill = fillPerRow / 3
		}
		for n := 0; n < nfill; n++ {
			j := rnd.Intn(size)
			if i == j {
				continue
			}
			v := -rnd.Float64()
			s.Set(i, j, v)
			s.Set(j, i, v)
		}
	}
	for i := 0; i < size; i++ {
		cols, vals := s.Row(i)
		sum := 1.0
		for k, j := range cols {
			if j != i {
				sum -= vals[k]
			}
		}
		s.Set(i, i, sum)
	}
	return s
}

// tridiag returns the n by n matrix with diag on the diagonal and off on the
// first sub and super diagonals.
func tridiag(n int, diag, off float64) *Matrix {
	A := New(n)
	for i := 0; i < n; i++ {
		A.Set(i, i, diag)
		if i > 0 {
			A.Set(i, i-1, off)
		}
		if i < n-1 {
			A.Set(i, i+1, off)
		}
	}
	return A
}

func TestMatrix_SetAdd(t *testing.T) {
	A := New(4)
	A.Set(1, 3, 2)
	A.Set(1, 0, 1)
	A.Add(1, 3, 0.5)
	A.Add(1, 2, -1)
	A.Set(2, 2, 0)

	cols, vals := A.Row(1)
	assert.Equal(t, []int{0, 2, 3}, cols, "columns must stay sorted")
	assert.Equal(t, []float64{1, -1, 2.5}, vals)

	v, ok := A.Locate(2, 2)
	assert.True(t, ok, "explicit zeros are stored")
	assert.Equal(t, 0.0, v)

	_, ok = A.Locate(3, 3)
	assert.False(t, ok)
	assert.Equal(t, 0.0, A.At(3, 3))
	assert.Equal(t, 4, A.NNZ())

	A.Remove(1, 2)
	A.Remove(0, 0)
	cols, _ = A.Row(1)
	assert.Equal(t, []int{0, 3}, cols)
	assert.Equal(t, 3, A.NNZ())

	assert.Panics(t, func() { A.Set(4, 0, 1) })
	assert.Panics(t, func() { A.At(0, -1) })
	assert.Panics(t, func() { New(0) })
}

func TestMatrix_SwapRowsClear(t *testing.T) {
	A := tridiag(3, 2, -1)
	A.SwapRows(0, 2)
	assert.Equal(t, 2.0, A.At(0, 2))
	assert.Equal(t, 0.0, A.At(0, 0))
	assert.Equal(t, 2.0, A.At(2, 0))

	A.Clear()
	assert.Equal(t, 0, A.NNZ())
	r, c := A.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
}

func TestMatrix_MulVec(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	A := randSparse(rnd, 40, 6)
	x := dense.NewVector(40)
	for i := range x {
		x[i] = rnd.Float64()
	}

	got := dense.NewVector(40)
	require.NoError(t, A.MulVec(got, x))

	var want mat.VecDense
	want.MulVec(A, mat.NewVecDense(40, x))
	for i := range got {
		assert.InDelta(t, want.AtVec(i), got[i], 1e-12)
	}

	assert.ErrorIs(t, A.MulVec(got, dense.NewVector(3)), dense.ErrDimensionMismatch)
}

func TestMatrix_CloneEqual(t *testing.T) {
	A := tridiag(5, 2, -1)
	B := A.Clone()
	assert.True(t, Equal(A, B))

	B.Add(2, 2, 1e-15)
	assert.False(t, Equal(A, B), "equality is bitwise")

	B = A.Clone()
	B.Set(0, 4, 0)
	assert.False(t, Equal(A, B), "equality includes the pattern")
	assert.False(t, Equal(A, New(4)))
	assert.Equal(t, 2.0, A.At(4, 4), "clone must not alias")
}

func TestMatrix_IsSymmetric(t *testing.T) {
	A := tridiag(6, 4, -1)
	assert.True(t, A.IsSymmetric(0))

	A.Set(0, 5, 1)
	assert.False(t, A.IsSymmetric(1e-12))
	A.Set(5, 0, 1+1e-14)
	assert.True(t, A.IsSymmetric(1e-12))
	assert.False(t, A.IsSymmetric(0))
}

func TestPermute(t *testing.T) {
	A := makeSparse(3, []float64{
		1, 2, 0,
		0, 3, 0,
		4, 0, 5,
	})
	mapping := []int{2, 0, 1}
	P := New(3)
	P.Set(0, 0, 99)
	Permute(P, A, mapping)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			assert.Equal(t, A.At(i, j), P.At(mapping[i], mapping[j]))
		}
	}
	assert.Equal(t, A.NNZ(), P.NNZ())
}

func TestRCM(t *testing.T) {
	const size = 30
	tri := tridiag(size, 2, -1)
	shuffle := make([]int, size)
	for i := range shuffle {
		shuffle[i] = (i * 7) % size
	}
	A := New(size)
	Permute(A, tri, shuffle)
	require.Greater(t, Bandwidth(A), 2)

	mapping := RCM(A)
	sorted := append([]int(nil), mapping...)
	sort.Ints(sorted)
	for i, v := range sorted {
		require.Equal(t, i, v, "mapping %v is not a permutation", mapping)
	}

	permuted := New(size)
	Permute(permuted, A, mapping)
	assert.Equal(t, 1, Bandwidth(permuted), "permuted=\n% v", mat.Formatted(permuted))

	// already banded input stays banded
	Permute(permuted, tri, RCM(tri))
	assert.Equal(t, 1, Bandwidth(permuted))
}

func TestRCM_Disconnected(t *testing.T) {
	A := makeSparse(5, []float64{
		1, 0, 0, 0, 0,
		0, 1, 1, 0, 0,
		0, 1, 1, 0, 0,
		0, 0, 0, 1, 0,
		0, 0, 0, 0, 1,
	})
	mapping := RCM(A)
	sorted := append([]int(nil), mapping...)
	sort.Ints(sorted)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, sorted)
}

func TestBandwidth(t *testing.T) {
	assert.Equal(t, 1, Bandwidth(tridiag(4, 2, -1)))
	A := New(4)
	A.Set(3, 0, 1)
	assert.Equal(t, 3, Bandwidth(A))
	assert.Equal(t, 0, Bandwidth(New(2)))
}
