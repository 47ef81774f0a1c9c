package diffusion

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is wrapped by every problem setup error
	// reported by Initialize.
	ErrInvalidConfiguration = errors.New("invalid configuration")
	// ErrNotInitialized is returned by operations that need a successful
	// Initialize first.
	ErrNotInitialized = errors.New("solver is not initialized")
	// ErrNotSolved is returned by operations that need a flux solution.
	ErrNotSolved = errors.New("no flux solution available")
)

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("diffusion: %s: %w", fmt.Sprintf(format, args...), ErrInvalidConfiguration)
}
