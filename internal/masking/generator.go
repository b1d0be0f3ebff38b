// Package masking turns full image matrices into incomplete ones by blanking
// one randomly placed square per image.
package masking

import (
	"fmt"
	"math"
	"math/rand"

	"goimpute/domain/core"
	"goimpute/domain/matrix"

	"gonum.org/v1/gonum/mat"
)

// Region is the square of one row that was replaced by the marker.
type Region struct {
	Top, Left int
	Size      int
}

func (r Region) String() string {
	return fmt.Sprintf("(%d,%d)+%d", r.Top, r.Left, r.Size)
}

// Generate seeds a fresh generator once and masks every row of full.
func Generate(full mat.Matrix, maskSize int, shape matrix.Shape, seed int64) (*mat.Dense, error) {
	return GenerateIncomplete(full, maskSize, shape, rand.New(rand.NewSource(seed)))
}

// GenerateIncomplete returns a copy of full in which each row has one
// maskSize×maskSize block set to the missing marker. Offsets are drawn from
// rng in strict row order, row offset before column offset, so a fixed seed
// reproduces the same masks.
func GenerateIncomplete(full mat.Matrix, maskSize int, shape matrix.Shape, rng *rand.Rand) (*mat.Dense, error) {
	if err := checkDimensions(full, maskSize, shape); err != nil {
		return nil, err
	}

	rows, cols := full.Dims()
	incomplete := mat.NewDense(rows, cols, nil)

	for i := 0; i < rows; i++ {
		region := Region{
			Top:  rng.Intn(shape.Height - maskSize + 1),
			Left: rng.Intn(shape.Width - maskSize + 1),
			Size: maskSize,
		}
		incomplete.SetRow(i, applyRegion(matrix.RowCopy(full, i), shape, region))
	}
	return incomplete, nil
}

func checkDimensions(full mat.Matrix, maskSize int, shape matrix.Shape) error {
	if err := shape.CheckColumns(full); err != nil {
		return err
	}
	if maskSize < 1 {
		return core.NewInvalidDimensionError("mask size %d must be positive", maskSize)
	}
	if maskSize > shape.Height || maskSize > shape.Width {
		return core.NewInvalidDimensionError("mask size %d exceeds image shape %s", maskSize, shape)
	}
	if rows, _ := full.Dims(); rows == 0 {
		return core.NewInvalidDimensionError("matrix has no rows")
	}
	return nil
}

// applyRegion writes the marker over region in the row-major grid of row.
func applyRegion(row []float64, shape matrix.Shape, region Region) []float64 {
	for y := region.Top; y < region.Top+region.Size; y++ {
		start := y*shape.Width + region.Left
		for x := start; x < start+region.Size; x++ {
			row[x] = matrix.Missing
		}
	}
	return row
}

// LocateRegion returns the bounding box of the markers in row. ok is false
// when the row has no marker or the markers do not span a square.
func LocateRegion(row []float64, shape matrix.Shape) (region Region, ok bool) {
	top, left := math.MaxInt, math.MaxInt
	bottom, right := -1, -1
	for idx, v := range row {
		if !matrix.IsMissing(v) {
			continue
		}
		y, x := idx/shape.Width, idx%shape.Width
		top, bottom = min(top, y), max(bottom, y)
		left, right = min(left, x), max(right, x)
	}
	if bottom < 0 {
		return Region{}, false
	}
	h, w := bottom-top+1, right-left+1
	if h != w {
		return Region{Top: top, Left: left, Size: max(h, w)}, false
	}
	return Region{Top: top, Left: left, Size: h}, true
}

// Verify checks that incomplete was derived from full by masking: every row
// holds exactly maskSize² markers forming one square and every other entry
// is bit-identical to full.
func Verify(full, incomplete mat.Matrix, shape matrix.Shape, maskSize int) error {
	if err := matrix.SameDims(full, incomplete); err != nil {
		return err
	}
	if err := checkDimensions(full, maskSize, shape); err != nil {
		return err
	}

	rows, _ := full.Dims()
	for i := 0; i < rows; i++ {
		row := matrix.RowCopy(incomplete, i)
		region, ok := LocateRegion(row, shape)
		if !ok {
			return core.NewMaskViolationError(i, "markers do not form one square")
		}
		if region.Size != maskSize {
			return core.NewMaskViolationError(i, fmt.Sprintf("square side %d, expected %d", region.Size, maskSize))
		}

		missing := 0
		for j, v := range row {
			if matrix.IsMissing(v) {
				missing++
				continue
			}
			if math.Float64bits(v) != math.Float64bits(full.At(i, j)) {
				return core.NewMaskViolationError(i, fmt.Sprintf("observed column %d differs from full matrix", j))
			}
		}
		if missing != maskSize*maskSize {
			return core.NewMaskViolationError(i, fmt.Sprintf("%d markers, expected %d", missing, maskSize*maskSize))
		}
	}
	return nil
}
