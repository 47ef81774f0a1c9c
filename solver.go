package diffusion

import (
	"fmt"
	"time"

	"github.com/go-logr/logr"

	"github.com/Naktakala/PDEs/dense"
	"github.com/Naktakala/PDEs/material"
	"github.com/Naktakala/PDEs/mesh"
	"github.com/Naktakala/PDEs/sparse"
)

// State tracks the lifecycle of a Solver.
type State int

const (
	Uninitialized State = iota
	Initialized
	DirectSolved
	IteratingInner
	// Converged means the last Execute produced a flux meeting the inner
	// tolerance (or came from a direct solve).
	Converged
	// Unconverged means the iterative algorithm hit its iteration limit;
	// Phi holds the last iterate.
	Unconverged
	// Failed means the last Execute returned an error.
	Failed
)

func (s State) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Initialized:
		return "initialized"
	case DirectSolved:
		return "direct_solved"
	case IteratingInner:
		return "iterating_inner"
	case Converged:
		return "converged"
	case Unconverged:
		return "unconverged"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Solver computes the steady-state multigroup scalar flux on a mesh.
//
// The exported problem fields are read by Initialize, which must be called
// again after any of them change.  Phi is indexed by cell*G + g where G is
// the number of selected groups and g indexes Groups.
type Solver struct {
	Options

	Mesh      *mesh.Mesh
	Materials []*material.Material
	// Groups lists the cross section groups to solve for.  Empty selects
	// all of them.
	Groups []int
	// Groupsets partitions the selected groups for the iterative
	// algorithm.  Scattering and fission between different groups of one
	// groupset are kept in the operator; everything else is lagged on the
	// right hand side.  Empty puts every group in its own groupset.
	Groupsets [][]int

	// BoundaryInfo has one entry per mesh boundary.  Its ValueIndex selects
	// BoundaryValues[index][group], the values of the condition for each
	// cross section group.
	BoundaryInfo   []BoundaryInfo
	BoundaryValues [][][]float64

	Logger logr.Logger

	// Phi is the multigroup scalar flux.
	Phi dense.Vector
	// Precursors holds the delayed neutron precursor concentrations, indexed
	// by cell*P + offset(material) + j with P the total number of
	// precursors over all materials.
	Precursors dense.Vector

	state State

	groups          []int
	groupset        []int // groupset index of each selected group
	nPrecursors     int
	usePrecursors   bool
	precursorOffset []int
	cellXS          []*material.CrossSections
	boundaries      [][]boundary

	A *sparse.Matrix
	b dense.Vector
}

// New returns a solver for the given problem with default options and
// boundaries that are all zero flux.
func New(m *mesh.Mesh, mats []*material.Material) *Solver {
	s := &Solver{Options: DefaultOptions(), Mesh: m, Materials: mats}
	if m != nil {
		s.BoundaryInfo = make([]BoundaryInfo, m.NumBoundaries)
		for i := range s.BoundaryInfo {
			s.BoundaryInfo[i] = BoundaryInfo{Type: ZeroFlux, ValueIndex: -1}
		}
	}
	return s
}

func (s *Solver) State() State { return s.state }

// NumGroups returns the number of groups being solved for.
func (s *Solver) NumGroups() int { return len(s.groups) }

// SelectedGroups returns the cross section group IDs being solved for.
func (s *Solver) SelectedGroups() []int { return s.groups }

// NumPrecursors returns the total number of precursors tracked per cell.
func (s *Solver) NumPrecursors() int { return s.nPrecursors }

// Operator returns the most recently assembled operator.  Direct linear
// solvers factorize it in place during Execute.
func (s *Solver) Operator() *sparse.Matrix { return s.A }

// RHS returns the right hand side built by SetSource.
func (s *Solver) RHS() dense.Vector { return s.b }

// Result summarizes an Execute call.
type Result struct {
	Algorithm Algorithm
	// Iterations is the number of inner iterations, 1 for a direct solve.
	Iterations int
	// Change is the final relative change of the flux between iterations.
	Change float64
	// History holds the change after every inner iteration.
	History   []float64
	Converged bool
	// LinearIterations sums the iterations of an iterative linear solver.
	LinearIterations int
	Runtime          time.Duration
}

// Initialize validates the problem and allocates the system storage.
func (s *Solver) Initialize() error {
	s.state = Uninitialized
	if err := s.Options.validate(); err != nil {
		return err
	}
	if s.Mesh == nil || len(s.Mesh.Cells) == 0 {
		return invalidf("no mesh")
	}
	if err := s.initializeMaterials(); err != nil {
		return err
	}
	if err := s.initializeGroups(); err != nil {
		return err
	}
	if err := s.initializeGroupsets(); err != nil {
		return err
	}
	if err := s.initializeBoundaries(); err != nil {
		return err
	}
	s.initializePrecursors()

	N, G := len(s.Mesh.Cells), len(s.groups)
	s.Phi = dense.NewVector(N * G)
	s.Precursors = dense.NewVector(N * s.nPrecursors)
	s.A = sparse.New(N * G)
	s.b = dense.NewVector(N * G)

	s.state = Initialized
	s.Logger.V(1).Info("initialized diffusion solver",
		"cells", N, "groups", G, "groupsets", s.numGroupsets(), "precursors", s.nPrecursors,
		"algorithm", s.Algorithm.String(), "linearSolver", s.LinearSolver.String())
	return nil
}

// xsGroups is the number of groups of the cross section library.
func (s *Solver) xsGroups() int { return s.Materials[0].XS.NumGroups() }

func (s *Solver) initializeMaterials() error {
	if len(s.Materials) == 0 {
		return invalidf("no materials")
	}
	for i, m := range s.Materials {
		if m == nil || m.XS == nil {
			return invalidf("material %d has no cross sections", i)
		}
		if err := m.XS.Finalize(); err != nil {
			return fmt.Errorf("diffusion: material %d: %w: %w", i, err, ErrInvalidConfiguration)
		}
	}

	G := s.xsGroups()
	for i, m := range s.Materials {
		if n := m.XS.NumGroups(); n != G {
			return invalidf("material %d has %d groups, material 0 has %d", i, n, G)
		}
		if m.Source != nil && len(m.Source.Values) != G {
			return invalidf("material %d source has %d groups, want %d", i, len(m.Source.Values), G)
		}
	}

	s.cellXS = make([]*material.CrossSections, len(s.Mesh.Cells))
	for i, c := range s.Mesh.Cells {
		if c.ID != i {
			return invalidf("cell %d has ID %d", i, c.ID)
		}
		if c.MaterialID < 0 || c.MaterialID >= len(s.Materials) {
			return invalidf("cell %d references material %d, %d materials given", i, c.MaterialID, len(s.Materials))
		}
		s.cellXS[i] = s.Materials[c.MaterialID].XS
	}
	return nil
}

func (s *Solver) initializeGroups() error {
	G := s.xsGroups()
	if len(s.Groups) == 0 {
		s.groups = make([]int, G)
		for g := range s.groups {
			s.groups[g] = g
		}
		return nil
	}

	seen := make(map[int]bool, len(s.Groups))
	for _, g := range s.Groups {
		if g < 0 || g >= G {
			return invalidf("group %d out of range [0, %d)", g, G)
		}
		if seen[g] {
			return invalidf("group %d selected twice", g)
		}
		seen[g] = true
	}
	s.groups = append([]int(nil), s.Groups...)
	return nil
}

func (s *Solver) initializeGroupsets() error {
	s.groupset = make([]int, len(s.groups))
	if len(s.Groupsets) == 0 {
		for gi := range s.groupset {
			s.groupset[gi] = gi
		}
		return nil
	}

	index := make(map[int]int, len(s.groups))
	for gi, g := range s.groups {
		index[g] = gi
		s.groupset[gi] = -1
	}
	for gs, groups := range s.Groupsets {
		if len(groups) == 0 {
			return invalidf("groupset %d is empty", gs)
		}
		for _, g := range groups {
			gi, ok := index[g]
			if !ok {
				return invalidf("groupset %d holds group %d, which is not selected", gs, g)
			}
			if s.groupset[gi] >= 0 {
				return invalidf("group %d is in groupsets %d and %d", g, s.groupset[gi], gs)
			}
			s.groupset[gi] = gs
		}
	}
	for gi, gs := range s.groupset {
		if gs < 0 {
			return invalidf("group %d is in no groupset", s.groups[gi])
		}
	}
	return nil
}

func (s *Solver) numGroupsets() int {
	n := 0
	for _, gs := range s.groupset {
		if gs+1 > n {
			n = gs + 1
		}
	}
	return n
}

// coupled reports whether the transfer from group gpi into gi is kept in
// the operator by the iterative algorithm.
func (s *Solver) coupled(gi, gpi int) bool {
	return gi != gpi && s.groupset[gi] == s.groupset[gpi]
}

// lagged reports whether the transfer from group gpi into gi is iterated on
// the right hand side.
func (s *Solver) lagged(gi, gpi int) bool { return !s.coupled(gi, gpi) }

func (s *Solver) initializeBoundaries() error {
	nb := s.Mesh.NumBoundaries
	if len(s.BoundaryInfo) != nb {
		return invalidf("%d boundary conditions given for %d boundaries", len(s.BoundaryInfo), nb)
	}

	s.boundaries = make([][]boundary, nb)
	for bid, info := range s.BoundaryInfo {
		var values [][]float64
		if info.ValueIndex >= 0 && info.Type.numValues() > 0 {
			if info.ValueIndex >= len(s.BoundaryValues) {
				return invalidf("boundary %d value index %d out of range", bid, info.ValueIndex)
			}
			values = s.BoundaryValues[info.ValueIndex]
		}

		s.boundaries[bid] = make([]boundary, len(s.groups))
		for gi, g := range s.groups {
			var gv []float64
			if values != nil {
				if g >= len(values) {
					return invalidf("boundary %d has no values for group %d", bid, g)
				}
				gv = values[g]
			}
			bc, err := newBoundary(info.Type, gv)
			if err != nil {
				return invalidf("boundary %d group %d: %v", bid, g, err)
			}
			s.boundaries[bid][gi] = bc
		}
	}
	return nil
}

func (s *Solver) initializePrecursors() {
	s.nPrecursors = 0
	s.usePrecursors = false
	s.precursorOffset = make([]int, len(s.Materials))
	if !s.UsePrecursors {
		return
	}
	for i, m := range s.Materials {
		s.precursorOffset[i] = s.nPrecursors
		if m.XS.HasPrecursors() {
			s.nPrecursors += m.XS.NumPrecursors()
		}
	}
	if s.nPrecursors == 0 {
		s.Logger.Info("precursors requested but no material has delayed neutron data; ignoring")
		return
	}
	s.usePrecursors = true
}

// linearSolver binds the configured linear solver to the current operator.
func (s *Solver) linearSolver() (sparse.Solver, error) {
	opts := s.SolverOptions
	if opts.Logger.GetSink() == nil {
		opts.Logger = s.Logger.V(2)
	}
	if s.Verbosity >= 2 {
		opts.Verbose = true
	}
	if s.Reorder {
		return sparse.NewReordered(s.LinearSolver, s.A, opts)
	}
	return sparse.NewSolver(s.LinearSolver, s.A, opts)
}

// Execute solves for the steady-state flux with the configured algorithm.
// An iterative solve that reaches MaxInnerIterations is not an error: it is
// logged and reported through Result.Converged.
func (s *Solver) Execute() (Result, error) {
	if s.state == Uninitialized {
		return Result{}, fmt.Errorf("diffusion: execute: %w", ErrNotInitialized)
	}
	start := time.Now()

	var res Result
	var err error
	switch s.Algorithm {
	case Direct:
		res, err = s.directSolve()
	default:
		res, err = s.iterativeSolve()
	}
	res.Algorithm = s.Algorithm
	res.Runtime = time.Since(start)
	if err != nil {
		s.state = Failed
		return res, err
	}

	if s.usePrecursors {
		if err := s.ComputePrecursors(); err != nil {
			s.state = Failed
			return res, err
		}
	}
	return res, nil
}

func (s *Solver) directSolve() (Result, error) {
	s.assemble(AssemblerFlags{Scatter: true, Fission: true}, nil)
	s.b.Zero()
	s.setSource(SourceFlags{Material: true, Boundary: true}, nil)

	ls, err := s.linearSolver()
	if err != nil {
		return Result{}, fmt.Errorf("diffusion: direct solve: %w", err)
	}
	if err := ls.Solve(s.Phi, s.b); err != nil {
		return Result{}, fmt.Errorf("diffusion: direct solve: %w", err)
	}
	s.state = DirectSolved

	res := Result{Iterations: 1, Converged: true, LinearIterations: linearIterations(ls)}
	s.state = Converged
	s.Logger.V(1).Info("direct solve complete", "linearIterations", res.LinearIterations)
	return res, nil
}

func (s *Solver) iterativeSolve() (Result, error) {
	s.assemble(AssemblerFlags{Scatter: true, Fission: true}, s.coupled)
	ls, err := s.linearSolver()
	if err != nil {
		return Result{}, fmt.Errorf("diffusion: iterative solve: %w", err)
	}

	s.b.Zero()
	s.setSource(SourceFlags{Material: true, Boundary: true}, nil)
	bFixed := s.b.Clone()
	phiOld := dense.NewVector(len(s.Phi))

	s.state = IteratingInner
	var res Result
	for nit := 1; nit <= s.MaxInnerIterations; nit++ {
		if err := phiOld.CopyFrom(s.Phi); err != nil {
			return res, fmt.Errorf("diffusion: inner iteration %d: %w", nit, err)
		}
		if err := s.b.CopyFrom(bFixed); err != nil {
			return res, fmt.Errorf("diffusion: inner iteration %d: %w", nit, err)
		}
		s.setSource(SourceFlags{Scatter: true, Fission: true}, s.lagged)

		if err := ls.Solve(s.Phi, s.b); err != nil {
			return res, fmt.Errorf("diffusion: inner iteration %d: %w", nit, err)
		}
		res.LinearIterations += linearIterations(ls)

		change := relativeChange(s.Phi, phiOld)
		res.Iterations = nit
		res.Change = change
		res.History = append(res.History, change)
		s.Logger.V(1).Info("inner iteration", "iteration", nit, "change", change)

		if change < s.InnerTolerance {
			res.Converged = true
			s.state = Converged
			return res, nil
		}
	}

	s.Logger.Info("inner iterations did not converge",
		"iterations", res.Iterations, "change", res.Change, "tolerance", s.InnerTolerance)
	s.state = Unconverged
	return res, nil
}

func linearIterations(ls sparse.Solver) int {
	if it, ok := ls.(sparse.Iterative); ok {
		return it.Stats().Iterations
	}
	return 0
}

// relativeChange returns ||x-prev|| / ||x||, or the absolute change when x
// is zero.
func relativeChange(x, prev dense.Vector) float64 {
	diff, _ := x.Distance(prev, 2)
	if norm := x.Norm2(); norm != 0 {
		return diff / norm
	}
	return diff
}
