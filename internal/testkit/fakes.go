package testkit

import (
	"context"
	"errors"
	"math"
	"sync"

	"goimpute/domain/dataset"
	"goimpute/domain/matrix"

	"gonum.org/v1/gonum/mat"
)

// StaticSource serves a fixed dataset
type StaticSource struct {
	Faces *dataset.Faces
	Err   error
}

func (s *StaticSource) Load(ctx context.Context) (*dataset.Faces, error) {
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Faces, nil
}

// MeanCompleter fills every missing entry with its column's observed mean,
// or 0 when the whole column is missing.
type MeanCompleter struct {
	Label string
}

func (c *MeanCompleter) Name() string {
	if c.Label == "" {
		return "mean"
	}
	return c.Label
}

func (c *MeanCompleter) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	out := mat.DenseCopyOf(m)
	r, cols := out.Dims()
	for j := 0; j < cols; j++ {
		sum, n := 0.0, 0
		for i := 0; i < r; i++ {
			if v := out.At(i, j); !matrix.IsMissing(v) {
				sum += v
				n++
			}
		}
		fill := 0.0
		if n > 0 {
			fill = sum / float64(n)
		}
		for i := 0; i < r; i++ {
			if matrix.IsMissing(out.At(i, j)) {
				out.Set(i, j, fill)
			}
		}
	}
	return out, nil
}

// TruncatingCompleter returns a marker-free matrix with one column too few.
type TruncatingCompleter struct {
	Label string
}

func (c *TruncatingCompleter) Name() string { return c.Label }

func (c *TruncatingCompleter) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	r, cols := m.Dims()
	return mat.NewDense(r, cols-1, nil), nil
}

// ErrAlgorithmFailed is returned by FailingCompleter when Err is unset.
var ErrAlgorithmFailed = errors.New("algorithm failed")

// FailingCompleter always fails.
type FailingCompleter struct {
	Label string
	Err   error
}

func (c *FailingCompleter) Name() string { return c.Label }

func (c *FailingCompleter) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	if c.Err != nil {
		return nil, c.Err
	}
	return nil, ErrAlgorithmFailed
}

// ScribblingCompleter zeroes the markers of its input in place and returns it.
type ScribblingCompleter struct{}

func (c *ScribblingCompleter) Name() string { return "scribble" }

func (c *ScribblingCompleter) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	r, cols := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			if matrix.IsMissing(m.At(i, j)) {
				m.Set(i, j, 0)
			}
		}
	}
	return m, nil
}

// DivergingCompleter fills every marker with +Inf, as an algorithm that
// blew up without noticing would.
type DivergingCompleter struct {
	Label string
}

func (c *DivergingCompleter) Name() string { return c.Label }

func (c *DivergingCompleter) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	out := mat.DenseCopyOf(m)
	r, cols := out.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < cols; j++ {
			if matrix.IsMissing(out.At(i, j)) {
				out.Set(i, j, math.Inf(1))
			}
		}
	}
	return out, nil
}

// RenderCall records one renderer invocation.
type RenderCall struct {
	Comparison bool
	BaseName   string
	Rows       []int
}

// RecordingRenderer records calls and validates indices like a real renderer.
type RecordingRenderer struct {
	mu    sync.Mutex
	Calls []RenderCall
	// FailOn makes calls with this base name return Err.
	FailOn string
	Err    error
}

func (r *RecordingRenderer) RenderRows(m mat.Matrix, rows []int, shape matrix.Shape, baseName string) error {
	if err := shape.CheckColumns(m); err != nil {
		return err
	}
	if err := matrix.CheckRows(m, rows); err != nil {
		return err
	}
	return r.record(false, baseName, rows)
}

func (r *RecordingRenderer) RenderComparison(full, incomplete, completed mat.Matrix, rows []int, shape matrix.Shape, baseName string) error {
	for _, m := range []mat.Matrix{full, incomplete, completed} {
		if err := shape.CheckColumns(m); err != nil {
			return err
		}
		if err := matrix.CheckRows(m, rows); err != nil {
			return err
		}
	}
	return r.record(true, baseName, rows)
}

func (r *RecordingRenderer) record(comparison bool, baseName string, rows []int) error {
	if baseName == "" {
		return nil
	}
	if r.FailOn != "" && r.FailOn == baseName {
		return r.Err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls = append(r.Calls, RenderCall{
		Comparison: comparison,
		BaseName:   baseName,
		Rows:       append([]int(nil), rows...),
	})
	return nil
}

// BaseNames returns the recorded base names in call order.
func (r *RecordingRenderer) BaseNames() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, len(r.Calls))
	for i, c := range r.Calls {
		names[i] = c.BaseName
	}
	return names
}
