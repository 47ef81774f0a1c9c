package dense

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVectorArithmetic(t *testing.T) {
	v := Vector{1, 2, 3}
	require.NoError(t, v.Add(Vector{1, 1, 1}))
	assert.Equal(t, Vector{2, 3, 4}, v)

	require.NoError(t, v.Sub(Vector{2, 2, 2}))
	assert.Equal(t, Vector{0, 1, 2}, v)

	require.NoError(t, v.Mul(Vector{5, 2, 0.5}))
	assert.Equal(t, Vector{0, 2, 1}, v)

	require.NoError(t, v.AddScaled(2, Vector{1, 1, 1}))
	assert.Equal(t, Vector{2, 4, 3}, v)

	require.NoError(t, v.Div(Vector{2, 4, 3}))
	assert.Equal(t, Vector{1, 1, 1}, v)

	dot, err := Vector{1, 2, 3}.Dot(Vector{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, 32.0, dot)

	src := Vector{7, 8, 9}
	require.NoError(t, v.CopyFrom(src))
	src[0] = 0
	assert.Equal(t, Vector{7, 8, 9}, v)
}

func TestVectorErrors(t *testing.T) {
	v := Vector{1, 2, 3}
	assert.ErrorIs(t, v.Add(Vector{1}), ErrDimensionMismatch)
	assert.ErrorIs(t, v.Sub(Vector{1, 2, 3, 4}), ErrDimensionMismatch)
	assert.ErrorIs(t, v.CopyFrom(Vector{1, 2}), ErrDimensionMismatch)
	_, err := v.Dot(Vector{})
	assert.ErrorIs(t, err, ErrDimensionMismatch)

	assert.ErrorIs(t, v.Div(Vector{1, 0, 1}), ErrDivideByZero)
	assert.ErrorIs(t, v.DivScalar(0), ErrDivideByZero)
	assert.Equal(t, Vector{1, 2, 3}, v, "failed operations must not modify the receiver")
}

func TestVectorNorms(t *testing.T) {
	v := Vector{3, -4, 0}
	assert.Equal(t, 7.0, v.Norm1())
	assert.InDelta(t, 5.0, v.Norm2(), 1e-15)
	assert.Equal(t, 4.0, v.NormInf())
	assert.InDelta(t, math.Cbrt(27+64), v.NormP(3), 1e-12)
	assert.Panics(t, func() { v.NormP(0.5) })

	d, err := v.Distance(Vector{3, -4, 1}, math.Inf(1))
	require.NoError(t, err)
	assert.Equal(t, 1.0, d)

	v.Normalize()
	assert.InDelta(t, 1.0, v.Norm2(), 1e-15)

	z := NewVector(4)
	z.Normalize()
	assert.Equal(t, Vector{0, 0, 0, 0}, z)
}
