package testkit

import (
	"context"
	"math/rand"

	"goimpute/domain/dataset"
	"goimpute/domain/matrix"
	"goimpute/ports"

	"gonum.org/v1/gonum/mat"
)

// TestKit provides testing utilities and fixtures
type TestKit struct {
	rng *RNGAdapter
}

// NewTestKit creates a new test kit instance
func NewTestKit() *TestKit {
	return &TestKit{rng: &RNGAdapter{}}
}

// RNGAdapter returns an RNG adapter
func (t *TestKit) RNGAdapter() ports.RNGPort {
	return t.rng
}

// Faces returns a validated ramp dataset with n images of the given shape
func (t *TestKit) Faces(n int, shape matrix.Shape) *dataset.Faces {
	faces, err := dataset.NewFaces(RampMatrix(n, shape), shape, "testkit")
	if err != nil {
		panic(err)
	}
	return faces
}

// Source returns a dataset source serving the ramp dataset
func (t *TestKit) Source(n int, shape matrix.Shape) *StaticSource {
	return &StaticSource{Faces: t.Faces(n, shape)}
}

// RNGAdapter implements the RNGPort interface for testing
type RNGAdapter struct{}

// SeededStream creates a deterministic random number generator for a named operation
func (r *RNGAdapter) SeededStream(ctx context.Context, name string, seed int64) (*rand.Rand, error) {
	return rand.New(rand.NewSource(seed)), nil
}

// RampMatrix returns n rows of shape with finite, pairwise distinct values in [0, 1).
func RampMatrix(n int, shape matrix.Shape) *mat.Dense {
	cols := shape.Pixels()
	total := float64(n * cols)
	data := make([]float64, n*cols)
	for i := range data {
		data[i] = float64(i) / total
	}
	return mat.NewDense(n, cols, data)
}

// LowRankMatrix returns an n×(height*width) matrix of exact rank <= rank
// with entries in [0, 1].
func LowRankMatrix(n int, shape matrix.Shape, rank int, seed int64) *mat.Dense {
	rng := rand.New(rand.NewSource(seed))
	cols := shape.Pixels()

	u := mat.NewDense(n, rank, nil)
	for i := 0; i < n; i++ {
		for k := 0; k < rank; k++ {
			u.Set(i, k, rng.Float64())
		}
	}
	v := mat.NewDense(rank, cols, nil)
	for k := 0; k < rank; k++ {
		for j := 0; j < cols; j++ {
			v.Set(k, j, rng.Float64())
		}
	}

	var out mat.Dense
	out.Mul(u, v)
	out.Scale(1/float64(rank), &out)
	return &out
}

// MaskFirst returns a copy of m with the first k entries of every row marked missing.
func MaskFirst(m *mat.Dense, k int) *mat.Dense {
	out := mat.DenseCopyOf(m)
	r, _ := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < k; j++ {
			out.Set(i, j, matrix.Missing)
		}
	}
	return out
}
