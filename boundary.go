package diffusion

import (
	"fmt"
	"math"
	"strings"
)

// BoundaryType is the kind of condition imposed on a domain boundary.
type BoundaryType int

const (
	// ZeroFlux forces the flux to zero on the boundary face.
	ZeroFlux BoundaryType = iota
	// Reflective imposes a zero normal derivative.
	Reflective
	// Dirichlet prescribes the boundary flux.
	Dirichlet
	// Neumann prescribes the outward normal derivative of the flux.
	Neumann
	// Vacuum is the Marshak condition without incoming current.
	Vacuum
	// Marshak prescribes the incoming partial current.
	Marshak
	// Robin is the general condition a*phi + b*dphi/dn = f.
	Robin
)

var boundaryNames = [...]string{
	ZeroFlux:   "zero_flux",
	Reflective: "reflective",
	Dirichlet:  "dirichlet",
	Neumann:    "neumann",
	Vacuum:     "vacuum",
	Marshak:    "marshak",
	Robin:      "robin",
}

func (t BoundaryType) String() string {
	if t < 0 || int(t) >= len(boundaryNames) {
		return fmt.Sprintf("BoundaryType(%d)", int(t))
	}
	return boundaryNames[t]
}

func ParseBoundaryType(s string) (BoundaryType, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for t, n := range boundaryNames {
		if n == name {
			return BoundaryType(t), nil
		}
	}
	return 0, fmt.Errorf("diffusion: unknown boundary type %q", s)
}

func (t BoundaryType) MarshalText() ([]byte, error) { return []byte(t.String()), nil }

func (t *BoundaryType) UnmarshalText(text []byte) error {
	v, err := ParseBoundaryType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// numValues is the number of values per group a boundary type reads.
func (t BoundaryType) numValues() int {
	switch t {
	case Dirichlet, Neumann, Marshak:
		return 1
	case Robin:
		return 3
	}
	return 0
}

// BoundaryInfo describes one domain boundary.  ValueIndex points into
// Solver.BoundaryValues for the types that take values; a negative index
// means no values are given.
type BoundaryInfo struct {
	Type       BoundaryType
	ValueIndex int
}

// boundary is the condition for a single group on a single boundary, kept
// in Robin form.
type boundary struct {
	typ     BoundaryType
	a, b, f float64
}

// newBoundary builds the Robin coefficients for the group from its values.
// values may be nil for types that take none; a Robin boundary without
// values defaults to the zero flux condition.
func newBoundary(t BoundaryType, values []float64) (boundary, error) {
	if n := t.numValues(); n > 0 && len(values) != n && !(t == Robin && len(values) == 0) {
		return boundary{}, fmt.Errorf("%v boundary needs %d values, got %d", t, n, len(values))
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return boundary{}, fmt.Errorf("%v boundary value %v is not finite", t, v)
		}
	}

	bc := boundary{typ: t}
	switch t {
	case ZeroFlux:
		bc.a = 1
	case Reflective:
		bc.b = 1
	case Dirichlet:
		bc.a, bc.f = 1, values[0]
	case Neumann:
		bc.b, bc.f = 1, values[0]
	case Vacuum:
		bc.a = 0.25
	case Marshak:
		bc.a, bc.f = 0.25, values[0]
	case Robin:
		if len(values) == 0 {
			bc.a = 1
			break
		}
		bc.a, bc.b, bc.f = values[0], values[1], values[2]
		if bc.a == 0 && bc.b == 0 {
			return boundary{}, fmt.Errorf("robin boundary with a = b = 0")
		}
	default:
		return boundary{}, fmt.Errorf("unknown boundary type %v", t)
	}
	return bc, nil
}

// coefficients returns the Robin (a, b, f) of the boundary for a cell with
// diffusion coefficient D.  The partial current conditions scale b with D.
func (bc boundary) coefficients(D float64) (a, b, f float64) {
	if bc.typ == Vacuum || bc.typ == Marshak {
		return bc.a, 0.5 * D, bc.f
	}
	return bc.a, bc.b, bc.f
}

// weight returns D*A/(b + a*d), the factor a face at distance d with area
// area contributes per unit of a (to the operator) or f (to the source).
func (bc boundary) weight(D, area, d float64) (a, f, w float64) {
	a, b, f := bc.coefficients(D)
	return a, f, D * area / (b + a*d)
}
