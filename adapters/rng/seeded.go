// Package rng provides the production ports.RNGPort.
package rng

import (
	"context"
	"math/rand"
)

// SeededAdapter hands out independent math/rand streams. The stream for a
// given seed is the same on every call, whatever the name.
type SeededAdapter struct{}

// NewSeededAdapter creates a new seeded RNG adapter
func NewSeededAdapter() *SeededAdapter {
	return &SeededAdapter{}
}

// SeededStream creates a deterministic random number generator for a named operation
func (a *SeededAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return rand.New(rand.NewSource(seed)), nil
}
