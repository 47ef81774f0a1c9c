package sparse

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotSymmetric is returned when a method that requires a symmetric operator
// is requested for a matrix that is not symmetric.
var ErrNotSymmetric = errors.New("matrix is not symmetric")

// symmetryTol is the relative tolerance used by the symmetry check.
const symmetryTol = 1e-12

// Method names a linear solution method.
type Method int

const (
	MethodLU Method = iota
	MethodCholesky
	MethodSparseLU
	MethodSparseCholesky
	MethodJacobi
	MethodGaussSeidel
	MethodSOR
	MethodSSOR
	MethodCG
)

var methodNames = [...]string{
	MethodLU:             "lu",
	MethodCholesky:       "cholesky",
	MethodSparseLU:       "sparse_lu",
	MethodSparseCholesky: "sparse_cholesky",
	MethodJacobi:         "jacobi",
	MethodGaussSeidel:    "gauss_seidel",
	MethodSOR:            "sor",
	MethodSSOR:           "ssor",
	MethodCG:             "cg",
}

func (m Method) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Method(%d)", int(m))
	}
	return methodNames[m]
}

// Valid reports whether m names a known method.
func (m Method) Valid() bool { return m >= 0 && int(m) < len(methodNames) }

// Direct reports whether m factorizes the operator instead of iterating.
func (m Method) Direct() bool { return m <= MethodSparseCholesky }

// Symmetric reports whether m requires a symmetric operator.
func (m Method) Symmetric() bool {
	return m == MethodCholesky || m == MethodSparseCholesky || m == MethodCG
}

// ParseMethod converts a method name such as "sparse_lu" or "cg" to a Method.
// Hyphens and case are ignored.
func ParseMethod(s string) (Method, error) {
	name := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_")
	for m, n := range methodNames {
		if n == name {
			return Method(m), nil
		}
	}
	return 0, fmt.Errorf("sparse: unknown solution method %q", s)
}

func (m Method) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

func (m *Method) UnmarshalText(text []byte) error {
	v, err := ParseMethod(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// NewSolver builds the solver for method m bound to a.  Direct solvers are
// factorized before they are returned.  The sparse direct methods factorize a
// in place; the dense ones work on a copy.  The CG solver is preconditioned
// with an incomplete Cholesky factorization of a when one exists.
func NewSolver(m Method, a *Matrix, opts Options) (Solver, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if m.Symmetric() && !a.IsSymmetric(symmetryTol) {
		return nil, fmt.Errorf("sparse: %v: %w", m, ErrNotSymmetric)
	}

	var s Solver
	switch m {
	case MethodLU:
		s = NewDenseLU(a, true)
	case MethodCholesky:
		s = NewDenseCholesky(a)
	case MethodSparseLU:
		s = NewLU(a, true)
	case MethodSparseCholesky:
		s = NewCholesky(a)
	case MethodJacobi:
		return NewJacobi(a, opts), nil
	case MethodGaussSeidel:
		return NewGaussSeidel(a, opts), nil
	case MethodSOR:
		return NewSOR(a, opts), nil
	case MethodSSOR:
		return NewSSOR(a, opts), nil
	case MethodCG:
		cg := NewCG(a, opts)
		if pre, err := IncompleteCholesky(a); err == nil {
			cg.Preconditioner = pre
		} else if opts.Verbose {
			opts.Logger.Info("running cg without preconditioner", "reason", err.Error())
		}
		return cg, nil
	default:
		return nil, fmt.Errorf("sparse: unknown solution method %v", m)
	}

	if err := s.(Factorizer).Factorize(); err != nil {
		return nil, fmt.Errorf("sparse: %v factorization: %w", m, err)
	}
	return s, nil
}
