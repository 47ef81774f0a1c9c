package sparse

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-logr/logr"
	"gonum.org/v1/gonum/floats"

	"github.com/Naktakala/PDEs/dense"
)

// Solver solves the linear system A*x = b for the operator it was built on.
// The incoming contents of x are used as the initial guess by iterative
// solvers and ignored by direct ones.  On error x is left unmodified for
// argument errors; iterative solvers that fail to converge leave their last
// iterate in x.
type Solver interface {
	Solve(x, b dense.Vector) error
}

// Factorizer is a direct solver that must be factorized before solving.
type Factorizer interface {
	Solver
	Factorize() error
	Factorized() bool
}

// Iterative is a solver that reports its convergence statistics.
type Iterative interface {
	Solver
	Stats() Stats
}

// Preconditioner applies M^-1 to the residual r and stores the result in z.
type Preconditioner func(z, r dense.Vector) error

// breakdown is the magnitude of p*A*p below which CG treats the search
// direction as exhausted.
const breakdown = 1e-300

// ErrNotConverged is wrapped by every ConvergenceError.
var ErrNotConverged = errors.New("iteration limit reached")

// ConvergenceError is returned by an iterative solver that exhausted its
// iteration budget.  Residual is the last value of the stopping measure, as
// in Stats.
type ConvergenceError struct {
	Method     string
	Iterations int
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("sparse: %s did not converge in %d iterations (residual %g)", e.Method, e.Iterations, e.Residual)
}

func (e *ConvergenceError) Unwrap() error { return ErrNotConverged }

// Options configures the iterative solvers.
type Options struct {
	// Tolerance is the stopping threshold for the relative change between
	// sweeps (stationary methods) or the relative residual (CG).
	Tolerance float64
	// MaxIterations caps the number of iterations before a
	// ConvergenceError is returned.
	MaxIterations int
	// Omega is the relaxation factor used by SOR and SSOR.
	Omega float64
	// Verbose logs a summary line after every solve.
	Verbose bool
	Logger  logr.Logger
}

func DefaultOptions() Options {
	return Options{Tolerance: 1e-8, MaxIterations: 1000, Omega: 1.5}
}

func (o *Options) setDefaults() {
	def := DefaultOptions()
	if o.Tolerance == 0 {
		o.Tolerance = def.Tolerance
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = def.MaxIterations
	}
	if o.Omega == 0 {
		o.Omega = def.Omega
	}
}

func (o Options) validate() error {
	if o.Tolerance <= 0 || math.IsNaN(o.Tolerance) {
		return fmt.Errorf("sparse: invalid tolerance %g", o.Tolerance)
	}
	if o.MaxIterations < 0 {
		return fmt.Errorf("sparse: invalid iteration limit %d", o.MaxIterations)
	}
	if o.Omega <= 0 || o.Omega >= 2 {
		return fmt.Errorf("sparse: relaxation factor %g outside (0, 2)", o.Omega)
	}
	return nil
}

// Stats describes the most recent solve of an iterative solver.
type Stats struct {
	Iterations int
	// Residual is the last value compared against Options.Tolerance: the
	// relative change ||x_k - x_k-1|| / ||x_k|| between sweeps for the
	// stationary methods and the relative residual ||b - Ax|| / ||b|| for
	// CG.
	Residual float64
}

// iterative is the state shared by every iterative method: the operator it
// is bound to, its options and the outcome of the last solve.
type iterative struct {
	name  string
	a     *Matrix
	opts  Options
	stats Stats
}

func newIterative(name string, a *Matrix, opts Options) iterative {
	opts.setDefaults()
	return iterative{name: name, a: a, opts: opts}
}

func (it *iterative) Stats() Stats { return it.stats }

func (it *iterative) checkDims(x, b dense.Vector) error {
	n, _ := it.a.Dims()
	if len(b) != n || len(x) != n {
		return fmt.Errorf("sparse: %s solve: matrix is %dx%d, b has %d, x has %d: %w", it.name, n, n, len(b), len(x), dense.ErrDimensionMismatch)
	}
	return nil
}

func (it *iterative) converged(iter int, res float64) {
	it.stats = Stats{Iterations: iter, Residual: res}
	if it.opts.Verbose {
		it.opts.Logger.Info("linear solve converged", "method", it.name, "iterations", iter, "residual", res)
	}
}

func (it *iterative) failed(iter int, res float64) error {
	it.stats = Stats{Iterations: iter, Residual: res}
	return &ConvergenceError{Method: it.name, Iterations: iter, Residual: res}
}

// CG implements a linear conjugate gradient solver (see
// http://wikipedia.org/wiki/Conjugate_gradient_method) for symmetric positive
// definite operators.
type CG struct {
	iterative
	// Preconditioner is applied to the residual every iteration.  If it is
	// nil, no preconditioning is done.
	Preconditioner Preconditioner

	r, z, p, ap dense.Vector
}

func NewCG(a *Matrix, opts Options) *CG {
	n, _ := a.Dims()
	return &CG{
		iterative: newIterative("cg", a, opts),
		r:         dense.NewVector(n),
		z:         dense.NewVector(n),
		p:         dense.NewVector(n),
		ap:        dense.NewVector(n),
	}
}

func (cg *CG) precondition(z, r dense.Vector) error {
	if cg.Preconditioner == nil {
		copy(z, r)
		return nil
	}
	return cg.Preconditioner(z, r)
}

func (cg *CG) Solve(x, b dense.Vector) error {
	if err := cg.checkDims(x, b); err != nil {
		return err
	}
	A, r, z, p, ap := cg.a, cg.r, cg.z, cg.p, cg.ap

	// r = b - A*x
	if err := A.MulVec(r, x); err != nil {
		return err
	}
	for i := range r {
		r[i] = b[i] - r[i]
	}
	bnorm := b.Norm2()
	if bnorm == 0 {
		bnorm = 1
	}
	res := r.Norm2() / bnorm
	if res < cg.opts.Tolerance {
		cg.converged(0, res)
		return nil
	}

	if err := cg.precondition(z, r); err != nil {
		return err
	}
	copy(p, z)
	rz := floats.Dot(r, z)

	for iter := 1; iter <= cg.opts.MaxIterations; iter++ {
		A.MulVec(ap, p)
		pap := floats.Dot(p, ap)
		if math.Abs(pap) < breakdown {
			// the search direction carries no more information
			cg.converged(iter, res)
			return nil
		}
		alpha := rz / pap
		floats.AddScaled(x, alpha, p)   // xnext = x+alpha*p
		floats.AddScaled(r, -alpha, ap) // rnext = r-alpha*A*p

		res = r.Norm2() / bnorm
		if res < cg.opts.Tolerance {
			cg.converged(iter, res)
			return nil
		}

		if err := cg.precondition(z, r); err != nil {
			return err
		}
		rzNext := floats.Dot(r, z)
		beta := rzNext / rz
		for i := range p {
			p[i] = z[i] + beta*p[i] // pnext = znext + beta*p
		}
		rz = rzNext
	}
	return cg.failed(cg.opts.MaxIterations, res)
}

// DenseLU solves a sparse system by densifying it and applying the dense,
// partially pivoted LU factorization.  A is copied and left untouched.
type DenseLU struct {
	*dense.LU
}

func NewDenseLU(a *Matrix, pivot bool) *DenseLU {
	return &DenseLU{LU: dense.NewLU(dense.CopyOf(a), pivot)}
}

// DenseCholesky solves a sparse symmetric positive definite system with the
// dense Cholesky factorization of a densified copy of A.
type DenseCholesky struct {
	*dense.Cholesky
}

func NewDenseCholesky(a *Matrix) *DenseCholesky {
	return &DenseCholesky{Cholesky: dense.NewCholesky(dense.CopyOf(a))}
}
