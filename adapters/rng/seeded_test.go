package rng

import (
	"context"
	"testing"
)

func TestSeededStreamMatchesMathRand(t *testing.T) {
	adapter := NewSeededAdapter()

	a, err := adapter.SeededStream(context.Background(), "mask", 0)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	b, _ := adapter.SeededStream(context.Background(), "other", 0)

	for i := 0; i < 5; i++ {
		if x, y := a.Intn(33), b.Intn(33); x != y {
			t.Errorf("Draw %d differs: %d vs %d", i, x, y)
		}
	}
}

func TestSeededStreamCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewSeededAdapter().SeededStream(ctx, "mask", 1); err == nil {
		t.Error("Expected error for cancelled context")
	}
}
