// Package sparse provides a row-oriented sparse matrix together with direct
// (LU, Cholesky) and iterative (Jacobi, Gauss-Seidel, SOR, SSOR, CG) solvers
// that operate on it.
package sparse

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/Naktakala/PDEs/dense"
)

// row holds the stored entries of one matrix row sorted by column.
type row struct {
	cols []int
	vals []float64
}

// Matrix is a square sparse matrix stored row by row.  Each row maps unique
// column indices to values; an entry that is not stored is exactly zero.
// Rows are kept sorted by column so that every sweep over a row visits the
// entries in the same order and results are reproducible.
type Matrix struct {
	rows []row
	size int
}

func New(size int) *Matrix {
	if size <= 0 {
		panic("sparse: non-positive matrix size")
	}
	return &Matrix{rows: make([]row, size), size: size}
}

func (m *Matrix) Dims() (int, int) { return m.size, m.size }
func (m *Matrix) T() mat.Matrix     { return mat.Transpose{Matrix: m} }

func (m *Matrix) check(i, j int) {
	if i < 0 || i >= m.size || j < 0 || j >= m.size {
		panic(fmt.Sprintf("sparse: index (%d, %d) out of range for size %d", i, j, m.size))
	}
}

// search returns the position of column j in row i and whether it is stored.
func (m *Matrix) search(i, j int) (int, bool) {
	m.check(i, j)
	cols := m.rows[i].cols
	pos := sort.SearchInts(cols, j)
	return pos, pos < len(cols) && cols[pos] == j
}

// Locate returns entry (i, j) and whether it is stored.
func (m *Matrix) Locate(i, j int) (float64, bool) {
	pos, ok := m.search(i, j)
	if !ok {
		return 0, false
	}
	return m.rows[i].vals[pos], true
}

func (m *Matrix) At(i, j int) float64 {
	v, _ := m.Locate(i, j)
	return v
}

// Diag returns the diagonal entry of row i and whether it is stored.
func (m *Matrix) Diag(i int) (float64, bool) { return m.Locate(i, i) }

// Set stores v at (i, j), creating the entry if needed.  Zero values are
// stored explicitly; use Remove to drop an entry from the pattern.
func (m *Matrix) Set(i, j int, v float64) {
	pos, ok := m.search(i, j)
	if ok {
		m.rows[i].vals[pos] = v
		return
	}
	m.insert(i, pos, j, v)
}

// Add accumulates v into (i, j), creating the entry if it is absent.
func (m *Matrix) Add(i, j int, v float64) {
	pos, ok := m.search(i, j)
	if ok {
		m.rows[i].vals[pos] += v
		return
	}
	m.insert(i, pos, j, v)
}

func (m *Matrix) insert(i, pos, j int, v float64) {
	r := &m.rows[i]
	r.cols = append(r.cols, 0)
	r.vals = append(r.vals, 0)
	copy(r.cols[pos+1:], r.cols[pos:])
	copy(r.vals[pos+1:], r.vals[pos:])
	r.cols[pos] = j
	r.vals[pos] = v
}

// Remove drops entry (i, j) from the pattern if it is stored.
func (m *Matrix) Remove(i, j int) {
	pos, ok := m.search(i, j)
	if !ok {
		return
	}
	r := &m.rows[i]
	r.cols = append(r.cols[:pos], r.cols[pos+1:]...)
	r.vals = append(r.vals[:pos], r.vals[pos+1:]...)
}

// Row returns the stored columns and values of row i in increasing column
// order.  The slices alias the matrix storage and are invalidated by any
// call that changes the pattern of row i.
func (m *Matrix) Row(i int) (cols []int, vals []float64) {
	m.check(i, i)
	return m.rows[i].cols, m.rows[i].vals
}

// SwapRows exchanges rows i and j.  Only the row headers move.
func (m *Matrix) SwapRows(i, j int) {
	m.check(i, j)
	m.rows[i], m.rows[j] = m.rows[j], m.rows[i]
}

// Clear removes every entry while keeping the row buffers for reuse.
func (m *Matrix) Clear() {
	for i := range m.rows {
		m.rows[i].cols = m.rows[i].cols[:0]
		m.rows[i].vals = m.rows[i].vals[:0]
	}
}

// NNZ returns the number of stored entries.
func (m *Matrix) NNZ() int {
	n := 0
	for _, r := range m.rows {
		n += len(r.cols)
	}
	return n
}

func (m *Matrix) Clone() *Matrix {
	clone := New(m.size)
	for i, r := range m.rows {
		clone.rows[i].cols = append([]int(nil), r.cols...)
		clone.rows[i].vals = append([]float64(nil), r.vals...)
	}
	return clone
}

// Equal reports whether a and b store the same pattern with bitwise
// identical values.
func Equal(a, b *Matrix) bool {
	if a.size != b.size {
		return false
	}
	for i := range a.rows {
		ra, rb := a.rows[i], b.rows[i]
		if len(ra.cols) != len(rb.cols) {
			return false
		}
		for k := range ra.cols {
			if ra.cols[k] != rb.cols[k] || ra.vals[k] != rb.vals[k] {
				return false
			}
		}
	}
	return true
}

// MulVec computes dst = m*x.
func (m *Matrix) MulVec(dst, x dense.Vector) error {
	if len(x) != m.size || len(dst) != m.size {
		return fmt.Errorf("sparse: mulvec size %d by %d into %d: %w", m.size, len(x), len(dst), dense.ErrDimensionMismatch)
	}
	for i, r := range m.rows {
		tot := 0.0
		for k, j := range r.cols {
			tot += r.vals[k] * x[j]
		}
		dst[i] = tot
	}
	return nil
}

// IsSymmetric reports whether |m(i,j) - m(j,i)| <= tol*max(1, |m(i,j)|,
// |m(j,i)|) for every stored entry.
func (m *Matrix) IsSymmetric(tol float64) bool {
	for i, r := range m.rows {
		for k, j := range r.cols {
			if j == i {
				continue
			}
			v, w := r.vals[k], m.At(j, i)
			scale := math.Max(1, math.Max(math.Abs(v), math.Abs(w)))
			if math.Abs(v-w) > tol*scale {
				return false
			}
		}
	}
	return true
}

// Permute maps i and j indices to new i and j values identified by the given
// mapping.  Values stored in src.At(i,j) are stored into dst at
// dst.At(mapping[i], mapping[j]).  dst is cleared first.
func Permute(dst, src *Matrix, mapping []int) {
	dst.Clear()
	for i, r := range src.rows {
		for k, j := range r.cols {
			dst.Set(mapping[i], mapping[j], r.vals[k])
		}
	}
}
