package dense

import "errors"

// Sentinel errors shared by the dense and sparse linear algebra packages.
// They are always returned wrapped with the failing operation and the
// offending dimensions or indices, so compare with errors.Is.
var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrSingular          = errors.New("singular matrix")
	ErrUnfactorized      = errors.New("matrix must be factorized before solving")
	ErrDivideByZero      = errors.New("division by zero")
)
