// Package matrix holds the image-matrix conventions shared by every component:
// rows are samples, columns are row-major flattened pixels and NaN marks a
// missing pixel.
package matrix

import (
	"fmt"
	"math"

	"goimpute/domain/core"

	"gonum.org/v1/gonum/mat"
)

// Missing is the missing-value marker.
var Missing = math.NaN()

// IsMissing reports whether v is the missing-value marker.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// Shape is the height × width grid every row of an image matrix flattens.
type Shape struct {
	Height int `json:"height"`
	Width  int `json:"width"`
}

// DefaultShape is the 64×64 face grid.
var DefaultShape = Shape{Height: 64, Width: 64}

// Pixels returns height*width.
func (s Shape) Pixels() int {
	return s.Height * s.Width
}

func (s Shape) String() string {
	return fmt.Sprintf("%dx%d", s.Height, s.Width)
}

// Validate checks the grid is non-empty.
func (s Shape) Validate() error {
	if s.Height < 1 || s.Width < 1 {
		return core.NewInvalidDimensionError("image shape %s must be at least 1x1", s)
	}
	return nil
}

// CheckColumns verifies that the matrix columns flatten this shape.
func (s Shape) CheckColumns(m mat.Matrix) error {
	if err := s.Validate(); err != nil {
		return err
	}
	_, c := m.Dims()
	if c != s.Pixels() {
		return core.NewInvalidDimensionError("height*width = %d*%d = %d but matrix has %d columns",
			s.Height, s.Width, s.Pixels(), c)
	}
	return nil
}

// RowCopy returns a private copy of row i.
func RowCopy(m mat.Matrix, i int) []float64 {
	_, c := m.Dims()
	return mat.Row(make([]float64, c), i, m)
}

// CountMissing returns the number of marker entries in m.
func CountMissing(m mat.Matrix) int {
	r, c := m.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if IsMissing(m.At(i, j)) {
				n++
			}
		}
	}
	return n
}

// ValidateFull checks that a full matrix matches shape and holds no marker.
func ValidateFull(m mat.Matrix, shape Shape) error {
	if err := shape.CheckColumns(m); err != nil {
		return err
	}
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if IsMissing(m.At(i, j)) {
				return fmt.Errorf("%w: row %d column %d", core.ErrMarkerInFullMatrix, i, j)
			}
		}
	}
	return nil
}

// SameDims returns a shape mismatch error when b's dims differ from a's.
func SameDims(a, b mat.Matrix) error {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ar != br || ac != bc {
		return core.NewShapeMismatchError(ar, ac, br, bc)
	}
	return nil
}

// CheckRows verifies that every index addresses an existing row.
func CheckRows(m mat.Matrix, rows []int) error {
	r, _ := m.Dims()
	for _, idx := range rows {
		if idx < 0 || idx >= r {
			return core.NewIndexOutOfRangeError(idx, r)
		}
	}
	return nil
}

// CountNonFinite returns the number of NaN or ±Inf entries in m.
func CountNonFinite(m mat.Matrix) int {
	r, c := m.Dims()
	n := 0
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			if v := m.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				n++
			}
		}
	}
	return n
}
