package dense

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a row-major dense matrix that owns its backing buffer.  It
// satisfies mat.Matrix so it can be handed to gonum for printing and
// comparison.
type Matrix struct {
	rows, cols int
	data       []float64
}

// NewMatrix creates a rows x cols matrix.  If data is nil a zeroed buffer is
// allocated; otherwise data is used as the row-major backing store and must
// have exactly rows*cols elements.
func NewMatrix(rows, cols int, data []float64) *Matrix {
	if rows <= 0 || cols <= 0 {
		panic("dense: non-positive matrix dimension")
	}
	if data == nil {
		data = make([]float64, rows*cols)
	}
	if len(data) != rows*cols {
		panic("dense: backing buffer length does not match dimensions")
	}
	return &Matrix{rows: rows, cols: cols, data: data}
}

// CopyOf returns a dense copy of any gonum-compatible matrix, including the
// sparse matrices used by the diffusion operator.
func CopyOf(a mat.Matrix) *Matrix {
	r, c := a.Dims()
	m := NewMatrix(r, c, nil)
	for i := 0; i < r; i++ {
		row := m.RawRow(i)
		for j := range row {
			row[j] = a.At(i, j)
		}
	}
	return m
}

func (m *Matrix) Dims() (int, int) { return m.rows, m.cols }
func (m *Matrix) T() mat.Matrix     { return mat.Transpose{Matrix: m} }

func (m *Matrix) At(i, j int) float64 {
	m.check(i, j)
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, v float64) {
	m.check(i, j)
	m.data[i*m.cols+j] = v
}

// Add accumulates v into entry (i, j).
func (m *Matrix) Add(i, j int, v float64) {
	m.check(i, j)
	m.data[i*m.cols+j] += v
}

func (m *Matrix) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("dense: index (%d, %d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
}

// RawRow returns the backing slice of row i.  Writes through it modify m.
func (m *Matrix) RawRow(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols]
}

// SwapRows exchanges rows i and j in place.
func (m *Matrix) SwapRows(i, j int) {
	if i == j {
		return
	}
	ri, rj := m.RawRow(i), m.RawRow(j)
	for k := range ri {
		ri[k], rj[k] = rj[k], ri[k]
	}
}

func (m *Matrix) Clone() *Matrix {
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return &Matrix{rows: m.rows, cols: m.cols, data: data}
}

// MulVec computes dst = m*x.
func (m *Matrix) MulVec(dst, x Vector) error {
	if len(x) != m.cols || len(dst) != m.rows {
		return fmt.Errorf("dense: mulvec %dx%d by %d into %d: %w", m.rows, m.cols, len(x), len(dst), ErrDimensionMismatch)
	}
	for i := 0; i < m.rows; i++ {
		tot := 0.0
		for j, v := range m.RawRow(i) {
			tot += v * x[j]
		}
		dst[i] = tot
	}
	return nil
}

// Residual returns ‖m*x - b‖₂.
func (m *Matrix) Residual(x, b Vector) (float64, error) {
	ax := NewVector(m.rows)
	if err := m.MulVec(ax, x); err != nil {
		return 0, err
	}
	return ax.Distance(b, 2)
}
