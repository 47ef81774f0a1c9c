package diffusion

import (
	"fmt"
	"strings"

	"github.com/Naktakala/PDEs/sparse"
)

// Algorithm selects how the cross-group coupling is resolved.
type Algorithm int

const (
	// Direct assembles scattering and fission into the operator and solves
	// the full multigroup system once.
	Direct Algorithm = iota
	// Iterative keeps within-group terms and the couplings inside each
	// groupset in the operator and iterates on the remaining scattering and
	// fission sources until the flux stops changing.
	Iterative
)

func (a Algorithm) String() string {
	switch a {
	case Direct:
		return "direct"
	case Iterative:
		return "iterative"
	}
	return fmt.Sprintf("Algorithm(%d)", int(a))
}

func ParseAlgorithm(s string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "direct":
		return Direct, nil
	case "iterative":
		return Iterative, nil
	}
	return 0, fmt.Errorf("diffusion: unknown algorithm %q", s)
}

func (a Algorithm) MarshalText() ([]byte, error) { return []byte(a.String()), nil }

func (a *Algorithm) UnmarshalText(text []byte) error {
	v, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// Discretization is the spatial discretization method.  Only the cell
// centered finite volume method is implemented.
type Discretization int

const FiniteVolume Discretization = 0

func (d Discretization) String() string {
	if d == FiniteVolume {
		return "fv"
	}
	return fmt.Sprintf("Discretization(%d)", int(d))
}

// SourceFlags selects the terms SetSource adds to the right hand side.
type SourceFlags struct {
	Material bool
	Scatter  bool
	Fission  bool
	Boundary bool
}

// AssemblerFlags selects the cross-group terms AssembleMatrix adds on top of
// the within-group terms, which are always assembled.
type AssemblerFlags struct {
	Scatter bool
	Fission bool
}

type Options struct {
	Algorithm      Algorithm
	Discretization Discretization
	// UsePrecursors splits fission into prompt and delayed parts and
	// computes the steady-state precursor concentrations after a solve.
	UsePrecursors bool

	MaxInnerIterations int
	InnerTolerance     float64

	// Verbosity of 2 or more turns on the per-iteration logs of iterative
	// linear solvers.  Progress of the solver itself is logged at V(1) and
	// filtered by the Logger.
	Verbosity int

	// Eigenvalue divides the fission source.  Zero means 1.
	Eigenvalue float64
	// Buckling is the transverse geometric buckling B^2; it adds a D B^2
	// leakage term to the removal cross section.
	Buckling float64

	LinearSolver  sparse.Method
	SolverOptions sparse.Options
	// Reorder permutes the unknowns with RCM before the linear solve.
	Reorder bool
}

func DefaultOptions() Options {
	return Options{
		Algorithm:          Direct,
		Discretization:     FiniteVolume,
		MaxInnerIterations: 100,
		InnerTolerance:     1e-6,
		Eigenvalue:         1,
		LinearSolver:       sparse.MethodSparseLU,
		SolverOptions:      sparse.DefaultOptions(),
	}
}

func (o *Options) validate() error {
	if o.Algorithm != Direct && o.Algorithm != Iterative {
		return invalidf("unknown algorithm %v", o.Algorithm)
	}
	if o.Discretization != FiniteVolume {
		return invalidf("unsupported discretization %v", o.Discretization)
	}
	if o.MaxInnerIterations <= 0 {
		return invalidf("max inner iterations must be positive, got %d", o.MaxInnerIterations)
	}
	if !(o.InnerTolerance > 0) {
		return invalidf("inner tolerance must be positive, got %g", o.InnerTolerance)
	}
	if o.Eigenvalue == 0 {
		o.Eigenvalue = 1
	}
	if !(o.Eigenvalue > 0) {
		return invalidf("eigenvalue must be positive, got %g", o.Eigenvalue)
	}
	if o.Buckling < 0 {
		return invalidf("buckling must be non-negative, got %g", o.Buckling)
	}
	if !o.LinearSolver.Valid() {
		return invalidf("unknown linear solver %v", o.LinearSolver)
	}
	return nil
}
