package dense

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vector is a fixed length sequence of reals.  Binary operations modify the
// receiver in place and refuse operands of a different length instead of
// truncating or growing.
type Vector []float64

// NewVector returns a zeroed vector of length n.
func NewVector(n int) Vector { return make(Vector, n) }

func (v Vector) Len() int { return len(v) }

func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	copy(c, v)
	return c
}

// Zero sets every element to zero without reallocating.
func (v Vector) Zero() {
	for i := range v {
		v[i] = 0
	}
}

// Fill sets every element to val.
func (v Vector) Fill(val float64) {
	for i := range v {
		v[i] = val
	}
}

func (v Vector) sameLen(op string, w Vector) error {
	if len(v) != len(w) {
		return fmt.Errorf("vector %s: lengths %d and %d: %w", op, len(v), len(w), ErrDimensionMismatch)
	}
	return nil
}

// CopyFrom copies w into v.
func (v Vector) CopyFrom(w Vector) error {
	if err := v.sameLen("copy", w); err != nil {
		return err
	}
	copy(v, w)
	return nil
}

// Add computes v += w.
func (v Vector) Add(w Vector) error {
	if err := v.sameLen("add", w); err != nil {
		return err
	}
	floats.Add(v, w)
	return nil
}

// Sub computes v -= w.
func (v Vector) Sub(w Vector) error {
	if err := v.sameLen("sub", w); err != nil {
		return err
	}
	floats.Sub(v, w)
	return nil
}

// Mul computes the element-wise product v[i] *= w[i].
func (v Vector) Mul(w Vector) error {
	if err := v.sameLen("mul", w); err != nil {
		return err
	}
	floats.Mul(v, w)
	return nil
}

// Div computes the element-wise quotient v[i] /= w[i].  If any element of w
// is zero, v is left unmodified and ErrDivideByZero is returned.
func (v Vector) Div(w Vector) error {
	if err := v.sameLen("div", w); err != nil {
		return err
	}
	for i, x := range w {
		if x == 0 {
			return fmt.Errorf("vector div: element %d: %w", i, ErrDivideByZero)
		}
	}
	floats.Div(v, w)
	return nil
}

// AddScaled computes v += alpha*w.
func (v Vector) AddScaled(alpha float64, w Vector) error {
	if err := v.sameLen("axpy", w); err != nil {
		return err
	}
	floats.AddScaled(v, alpha, w)
	return nil
}

func (v Vector) Scale(alpha float64) { floats.Scale(alpha, v) }

// DivScalar divides every element by alpha.
func (v Vector) DivScalar(alpha float64) error {
	if alpha == 0 {
		return fmt.Errorf("vector scalar div: %w", ErrDivideByZero)
	}
	floats.Scale(1/alpha, v)
	return nil
}

func (v Vector) Dot(w Vector) (float64, error) {
	if err := v.sameLen("dot", w); err != nil {
		return 0, err
	}
	return floats.Dot(v, w), nil
}

func (v Vector) Norm1() float64   { return floats.Norm(v, 1) }
func (v Vector) Norm2() float64   { return floats.Norm(v, 2) }
func (v Vector) NormInf() float64 { return floats.Norm(v, math.Inf(1)) }

// NormP returns the ℓp norm of v for p >= 1.
func (v Vector) NormP(p float64) float64 {
	if p < 1 || math.IsNaN(p) {
		panic("dense: invalid norm order")
	}
	return floats.Norm(v, p)
}

// Distance returns the ℓp norm of v-w.
func (v Vector) Distance(w Vector, p float64) (float64, error) {
	if err := v.sameLen("distance", w); err != nil {
		return 0, err
	}
	return floats.Distance(v, w, p), nil
}

// Normalize scales v to unit ℓ2 length.  A zero vector is left unchanged.
func (v Vector) Normalize() {
	if n := v.Norm2(); n != 0 {
		floats.Scale(1/n, v)
	}
}
