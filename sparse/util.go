package sparse

import (
	"errors"
	"fmt"
	"sort"

	"github.com/Naktakala/PDEs/dense"
)

// RCM provides an alternate degree-of-freedom reordering in assembled matrix
// that provides better bandwidth properties for solvers.  The returned slice
// maps each old index to its new index.
func RCM(A *Matrix) []int {
	size, _ := A.Dims()

	degree := func(i int) int {
		cols, _ := A.Row(i)
		return len(cols)
	}

	degreemap := make([]int, size)
	for i := range degreemap {
		degreemap[i] = i
	}
	sort.SliceStable(degreemap, func(i, j int) bool {
		return degree(degreemap[i]) < degree(degreemap[j])
	})
	// a minimum degree row approximates a peripheral node of the graph
	startrow := degreemap[0]

	// breadth-first search across adjacency/connections between nodes/dofs
	nextlevel := []int{startrow}
	mapping := make(map[int]int, size)
	mapping[startrow] = 0
	for len(mapping) < size {
		if len(nextlevel) == 0 {
			// Matrix does not represent a fully connected graph. Restart the
			// search from the lowest degree index not remapped yet.
			for _, k := range degreemap {
				if _, ok := mapping[k]; !ok {
					mapping[k] = len(mapping)
					nextlevel = []int{k}
					break
				}
			}
		}
		nextlevel = nextRCMLevel(A, mapping, nextlevel, degree)
	}

	slice := make([]int, size)
	for from, to := range mapping {
		slice[from] = size - 1 - to
	}
	return slice
}

func nextRCMLevel(A *Matrix, mapping map[int]int, ii []int, degree func(int) int) []int {
	var nextlevel []int
	size, _ := A.Dims()
	tmp := []int{}
	for _, i := range ii {
		tmp = tmp[:0]
		cols, _ := A.Row(i)
		for _, j := range cols {
			if _, ok := mapping[j]; !ok {
				tmp = append(tmp, j)
				if len(mapping)+len(tmp) >= size {
					break
				}
			}
		}

		// sort tmp and insert into mapping batched by src row
		sort.SliceStable(tmp, func(i, j int) bool {
			return degree(tmp[i]) < degree(tmp[j])
		})
		for _, index := range tmp {
			mapping[index] = len(mapping)
			nextlevel = append(nextlevel, index)
		}
	}
	return nextlevel
}

// Bandwidth returns the largest |i-j| over the stored entries of A.
func Bandwidth(A *Matrix) int {
	size, _ := A.Dims()
	bw := 0
	for i := 0; i < size; i++ {
		cols, _ := A.Row(i)
		if len(cols) == 0 {
			continue
		}
		if d := i - cols[0]; d > bw {
			bw = d
		}
		if d := cols[len(cols)-1] - i; d > bw {
			bw = d
		}
	}
	return bw
}

// Reordered solves a system after permuting its unknowns with RCM to reduce
// the bandwidth of the operator.  Right hand sides, initial guesses and
// solutions are mapped through the permutation on every call.
type Reordered struct {
	Solver
	mapping []int
	pa      *Matrix
	xx, bb  dense.Vector
}

// NewReordered permutes a with RCM and builds the solver for method m on the
// permuted copy.  a itself is not modified.
func NewReordered(m Method, a *Matrix, opts Options) (*Reordered, error) {
	size, _ := a.Dims()
	r := &Reordered{
		mapping: RCM(a),
		pa:      New(size),
		xx:      dense.NewVector(size),
		bb:      dense.NewVector(size),
	}
	Permute(r.pa, a, r.mapping)
	s, err := NewSolver(m, r.pa, opts)
	if err != nil {
		return nil, err
	}
	r.Solver = s
	return r, nil
}

// Mapping returns the old-to-new index permutation.
func (r *Reordered) Mapping() []int { return r.mapping }

func (r *Reordered) Solve(x, b dense.Vector) error {
	size := len(r.mapping)
	if len(b) != size || len(x) != size {
		return fmt.Errorf("sparse: reordered solve: matrix is %dx%d, b has %d, x has %d: %w", size, size, len(b), len(x), dense.ErrDimensionMismatch)
	}
	for i, inew := range r.mapping {
		r.bb[inew] = b[i]
		r.xx[inew] = x[i]
	}
	err := r.Solver.Solve(r.xx, r.bb)
	if err != nil && !isConvergenceError(err) {
		return err
	}

	// re-sequence solution based on RCM permutation/reordering
	for i, inew := range r.mapping {
		x[i] = r.xx[inew]
	}
	return err
}

func isConvergenceError(err error) bool {
	var ce *ConvergenceError
	return errors.As(err, &ce)
}

// Stats forwards the statistics of the wrapped solver when it is iterative.
func (r *Reordered) Stats() Stats {
	if it, ok := r.Solver.(Iterative); ok {
		return it.Stats()
	}
	return Stats{}
}
