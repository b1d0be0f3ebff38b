package dataset

import (
	"goimpute/domain/core"
	"goimpute/domain/matrix"

	"gonum.org/v1/gonum/mat"
)

// Faces is the canonical full image matrix handed to the experiment.
// Matrix rows are images, columns are the flattened Shape grid.
type Faces struct {
	Matrix *mat.Dense
	Shape  matrix.Shape

	// Source names where the images came from (a path or "synthetic").
	Source string
}

// NewFaces wraps a matrix and validates it against shape.
func NewFaces(m *mat.Dense, shape matrix.Shape, source string) (*Faces, error) {
	if err := matrix.ValidateFull(m, shape); err != nil {
		return nil, err
	}
	return &Faces{
		Matrix: m,
		Shape:  shape,
		Source: source,
	}, nil
}

// Count returns the number of images.
func (f *Faces) Count() int {
	r, _ := f.Matrix.Dims()
	return r
}

// Fingerprint hashes the full matrix.
func (f *Faces) Fingerprint() core.Hash {
	return core.MatrixFingerprint(f.Matrix)
}

// FromRows builds a matrix from equally sized rows.
func FromRows(rows [][]float64, shape matrix.Shape) (*mat.Dense, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, core.NewInvalidDimensionError("dataset has no images")
	}
	cols := shape.Pixels()
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, core.NewInvalidDimensionError("image %d has %d pixels, expected %d for %s", i, len(row), cols, shape)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), cols, data), nil
}
