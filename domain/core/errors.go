package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Shape errors
	ErrInvalidDimension   = errors.New("invalid dimension")
	ErrShapeMismatch      = errors.New("shape mismatch")
	ErrIndexOutOfRange    = errors.New("index out of range")
	ErrMarkerInFullMatrix = errors.New("missing-value marker in full matrix")

	// Configuration errors
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrUnknownAlgorithm     = fmt.Errorf("%w: unknown algorithm", ErrInvalidConfiguration)

	// Determinism errors
	ErrMaskViolation = errors.New("mask invariant violated")
)

// Error constructors with context
func NewInvalidDimensionError(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidDimension, fmt.Sprintf(format, args...))
}

func NewShapeMismatchError(wantRows, wantCols, gotRows, gotCols int) error {
	return fmt.Errorf("%w: expected (%d, %d), got (%d, %d)", ErrShapeMismatch, wantRows, wantCols, gotRows, gotCols)
}

func NewIndexOutOfRangeError(index, length int) error {
	return fmt.Errorf("%w: row %d requested from matrix with %d rows", ErrIndexOutOfRange, index, length)
}

func NewInvalidConfigurationError(algorithm, option string, value interface{}) error {
	return fmt.Errorf("%w: %s option %s=%v", ErrInvalidConfiguration, algorithm, option, value)
}

func NewMaskViolationError(row int, reason string) error {
	return fmt.Errorf("%w at row %d: %s", ErrMaskViolation, row, reason)
}

// IsConfigurationError reports errors that indicate a usage mistake and
// must abort the whole run.
func IsConfigurationError(err error) bool {
	return errors.Is(err, ErrInvalidConfiguration) ||
		errors.Is(err, ErrInvalidDimension) ||
		errors.Is(err, ErrMarkerInFullMatrix) ||
		errors.Is(err, ErrMaskViolation)
}
