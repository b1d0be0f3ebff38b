package render

import (
	"image/color"
	"math"

	"goimpute/domain/matrix"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot/palette"
)

// ImageGrid reshapes a flattened row into its height×width display grid.
// Missing markers become 0 for display only.
func ImageGrid(row []float64, shape matrix.Shape) *mat.Dense {
	data := make([]float64, len(row))
	for i, v := range row {
		if matrix.IsMissing(v) {
			v = 0
		}
		data[i] = v
	}
	return mat.NewDense(shape.Height, shape.Width, data)
}

// Flatten turns a display grid back into a row-major vector.
func Flatten(grid mat.Matrix) []float64 {
	r, c := grid.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, grid.At(i, j))
		}
	}
	return out
}

// heatGrid adapts a display grid to plotter.GridXYZ. Plot rows grow upwards,
// so grid row 0 is served as the top row. Non-finite values are drawn as 0.
type heatGrid struct {
	m        *mat.Dense
	min, max float64
}

func newHeatGrid(grid *mat.Dense) *heatGrid {
	m := mat.DenseCopyOf(grid)
	lo, hi := math.Inf(1), math.Inf(-1)
	r, c := m.Dims()
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = 0
				m.Set(i, j, v)
			}
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
	}
	// A flat image still needs a non-empty palette range.
	if !(hi > lo) {
		hi = lo + 1
	}
	return &heatGrid{m: m, min: lo, max: hi}
}

func (g *heatGrid) Dims() (c, r int) {
	rows, cols := g.m.Dims()
	return cols, rows
}

func (g *heatGrid) Z(c, r int) float64 {
	rows, _ := g.m.Dims()
	return g.m.At(rows-1-r, c)
}

func (g *heatGrid) X(c int) float64 { return float64(c) }
func (g *heatGrid) Y(r int) float64 { return float64(r) }
func (g *heatGrid) Min() float64    { return g.min }
func (g *heatGrid) Max() float64    { return g.max }

// grayPalette is a linear black-to-white ramp.
type grayPalette int

func (n grayPalette) Colors() []color.Color {
	colors := make([]color.Color, int(n))
	for i := range colors {
		level := uint8(math.Round(float64(i) * 255 / float64(int(n)-1)))
		colors[i] = color.Gray{Y: level}
	}
	return colors
}

var _ palette.Palette = grayPalette(256)
