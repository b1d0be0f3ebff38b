package core

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsConfigurationError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		isConfig bool
	}{
		{"invalid dimension", NewInvalidDimensionError("mask %d", 70), true},
		{"shape mismatch", NewShapeMismatchError(400, 4096, 400, 4095), false},
		{"index", NewIndexOutOfRangeError(9999, 400), false},
		{"configuration", NewInvalidConfigurationError("SimpleFill", "fill_method", "mode"), true},
		{"unknown algorithm", ErrUnknownAlgorithm, true},
		{"mask violation", NewMaskViolationError(3, "markers not contiguous"), true},
		{"wrapped configuration", fmt.Errorf("configuration nn_rank5: %w", NewInvalidConfigurationError("AutoEncoder", "epochs", 0)), true},
		{"other", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsConfigurationError(tt.err); got != tt.isConfig {
				t.Errorf("IsConfigurationError(%v) = %v, want %v", tt.err, got, tt.isConfig)
			}
		})
	}
}

func TestErrorConstructorsWrapSentinels(t *testing.T) {
	if !errors.Is(NewShapeMismatchError(1, 2, 1, 1), ErrShapeMismatch) {
		t.Error("Expected shape mismatch sentinel")
	}
	if !errors.Is(NewIndexOutOfRangeError(5, 2), ErrIndexOutOfRange) {
		t.Error("Expected index sentinel")
	}
	if !errors.Is(ErrUnknownAlgorithm, ErrInvalidConfiguration) {
		t.Error("Expected unknown algorithm to be a configuration error")
	}
}
