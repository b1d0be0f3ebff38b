package testkit

import (
	"context"
	"testing"

	"goimpute/domain/matrix"

	"gonum.org/v1/gonum/mat"
)

func TestRNGAdapterIsDeterministic(t *testing.T) {
	adapter := NewTestKit().RNGAdapter()

	a, _ := adapter.SeededStream(context.Background(), "mask", 7)
	b, _ := adapter.SeededStream(context.Background(), "mask", 7)
	for i := 0; i < 10; i++ {
		if a.Int63() != b.Int63() {
			t.Fatalf("Streams diverged at draw %d", i)
		}
	}
}

func TestRampMatrixDistinct(t *testing.T) {
	m := RampMatrix(3, matrix.Shape{Height: 2, Width: 2})
	seen := map[float64]bool{}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if seen[v] {
				t.Errorf("Duplicate value %v at (%d,%d)", v, i, j)
			}
			seen[v] = true
		}
	}
}

func TestLowRankMatrixRank(t *testing.T) {
	m := LowRankMatrix(20, matrix.Shape{Height: 4, Width: 4}, 3, 1)

	var svd mat.SVD
	if !svd.Factorize(m, mat.SVDNone) {
		t.Fatal("SVD failed")
	}
	values := svd.Values(nil)
	if values[3] > 1e-9*values[0] {
		t.Errorf("Expected rank 3, fourth singular value is %v", values[3])
	}
}

func TestMeanCompleterFillsMarkers(t *testing.T) {
	shape := matrix.Shape{Height: 2, Width: 2}
	incomplete := MaskFirst(RampMatrix(4, shape), 1)

	out, err := (&MeanCompleter{}).Complete(context.Background(), incomplete)
	if err != nil {
		t.Fatal(err)
	}
	if n := matrix.CountMissing(out); n != 0 {
		t.Errorf("Expected no markers, got %d", n)
	}
	if matrix.CountMissing(incomplete) != 4 {
		t.Error("Input was modified")
	}
}
