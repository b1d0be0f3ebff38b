package render

import (
	"image"
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"goimpute/domain/core"
	"goimpute/domain/matrix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func rampMatrix(rows int, shape matrix.Shape) *mat.Dense {
	cols := shape.Pixels()
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = float64(i%cols) / float64(cols)
	}
	return mat.NewDense(rows, cols, data)
}

func decodePNG(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	img, err := png.Decode(f)
	require.NoError(t, err)
	return img
}

func TestImageGridRoundTrip(t *testing.T) {
	shape := matrix.Shape{Height: 4, Width: 3}
	row := []float64{0.1, 0.2, math.NaN(), 0.4, 0.5, 0.6, 0.7, math.NaN(), 0.9, 1.0, 1.1, 1.2}

	grid := ImageGrid(row, shape)
	r, c := grid.Dims()
	assert.Equal(t, 4, r)
	assert.Equal(t, 3, c)
	assert.Equal(t, 0.4, grid.At(1, 0))

	back := Flatten(grid)
	require.Len(t, back, len(row))
	for i, v := range row {
		if matrix.IsMissing(v) {
			assert.Equal(t, 0.0, back[i])
			continue
		}
		assert.Equal(t, math.Float64bits(v), math.Float64bits(back[i]))
	}
}

func TestHeatGridOrientation(t *testing.T) {
	grid := newHeatGrid(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))

	c, r := grid.Dims()
	assert.Equal(t, 2, c)
	assert.Equal(t, 2, r)
	// Plot row 0 is the bottom of the image.
	assert.Equal(t, 3.0, grid.Z(0, 0))
	assert.Equal(t, 2.0, grid.Z(1, 1))
	assert.Equal(t, 1.0, grid.Min())
	assert.Equal(t, 4.0, grid.Max())

	flat := newHeatGrid(mat.NewDense(1, 2, []float64{0, 0}))
	assert.Greater(t, flat.Max(), flat.Min())

	blown := newHeatGrid(mat.NewDense(1, 3, []float64{math.Inf(1), 0.5, math.Inf(-1)}))
	assert.Equal(t, 0.0, blown.Z(0, 0))
	assert.Equal(t, 0.0, blown.Min())
	assert.Equal(t, 0.5, blown.Max())
}

func TestGrayPalette(t *testing.T) {
	colors := grayPalette(256).Colors()
	require.Len(t, colors, 256)

	r, _, _, _ := colors[0].RGBA()
	assert.Equal(t, uint32(0), r)
	r, _, _, _ = colors[255].RGBA()
	assert.Equal(t, uint32(0xffff), r)
}

func TestRenderRowsWritesNamedFiles(t *testing.T) {
	dir := t.TempDir()
	shape := matrix.Shape{Height: 8, Width: 8}
	m := rampMatrix(5, shape)
	m.Set(2, 10, math.NaN())

	renderer := NewPlotRenderer(Config{OutputDir: dir, PanelSize: 72})
	require.NoError(t, renderer.RenderRows(m, []int{0, 2, 4}, shape, "incomplete"))

	for _, idx := range []int{0, 2, 4} {
		path := filepath.Join(dir, "incomplete_"+strconv.Itoa(idx)+".png")
		img := decodePNG(t, path)
		assert.Equal(t, 96, img.Bounds().Dx())
	}
	_, err := os.Stat(filepath.Join(dir, "incomplete_1.png"))
	assert.True(t, os.IsNotExist(err))
}

func TestRenderRowsWithoutBaseNameIsNoop(t *testing.T) {
	dir := t.TempDir()
	shape := matrix.Shape{Height: 8, Width: 8}

	renderer := NewPlotRenderer(Config{OutputDir: dir})
	require.NoError(t, renderer.RenderRows(rampMatrix(3, shape), []int{0, 1}, shape, ""))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRenderRowsOutOfRange(t *testing.T) {
	dir := t.TempDir()
	shape := matrix.Shape{Height: 8, Width: 8}

	renderer := NewPlotRenderer(Config{OutputDir: dir})
	err := renderer.RenderRows(rampMatrix(400, shape), []int{0, 9999}, shape, "original")
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)

	// Validation happens before any write.
	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)

	err = renderer.RenderRows(rampMatrix(400, shape), []int{9999}, shape, "")
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
}

func TestRenderRowsShapeMismatch(t *testing.T) {
	renderer := NewPlotRenderer(Config{OutputDir: t.TempDir()})
	err := renderer.RenderRows(rampMatrix(2, matrix.Shape{Height: 8, Width: 8}), []int{0}, matrix.Shape{Height: 4, Width: 4}, "x")
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
}

func TestRenderComparisonWritesTriptych(t *testing.T) {
	dir := t.TempDir()
	shape := matrix.Shape{Height: 8, Width: 8}
	full := rampMatrix(3, shape)
	incomplete := mat.DenseCopyOf(full)
	for j := 0; j < 16; j++ {
		incomplete.Set(1, j, math.NaN())
	}
	completed := mat.DenseCopyOf(full)

	renderer := NewPlotRenderer(Config{OutputDir: dir, PanelSize: 72})
	require.NoError(t, renderer.RenderComparison(full, incomplete, completed, []int{1}, shape, "SoftImpute_rank5"))
	require.NoError(t, renderer.RenderRows(full, []int{1}, shape, "original"))

	triptych := decodePNG(t, renderer.Path("SoftImpute_rank5", 1))
	single := decodePNG(t, renderer.Path("original", 1))
	assert.Equal(t, 3*single.Bounds().Dx(), triptych.Bounds().Dx())
	assert.Equal(t, single.Bounds().Dy(), triptych.Bounds().Dy())
}

func TestRenderComparisonWithInfiniteValues(t *testing.T) {
	dir := t.TempDir()
	shape := matrix.Shape{Height: 8, Width: 8}
	full := rampMatrix(2, shape)
	completed := mat.DenseCopyOf(full)
	completed.Set(0, 3, math.Inf(1))
	completed.Set(0, 4, math.Inf(-1))

	renderer := NewPlotRenderer(Config{OutputDir: dir, PanelSize: 72})
	require.NoError(t, renderer.RenderComparison(full, full, completed, []int{0}, shape, "MatrixFactorization_rank5"))
	decodePNG(t, renderer.Path("MatrixFactorization_rank5", 0))
}

func TestRenderComparisonOutOfRange(t *testing.T) {
	shape := matrix.Shape{Height: 8, Width: 8}
	full := rampMatrix(3, shape)
	short := rampMatrix(2, shape)

	renderer := NewPlotRenderer(Config{OutputDir: t.TempDir()})
	err := renderer.RenderComparison(full, full, short, []int{2}, shape, "x")
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
}

func TestRenderSurfacesIOErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	shape := matrix.Shape{Height: 8, Width: 8}
	renderer := NewPlotRenderer(Config{OutputDir: filepath.Join(blocker, "sub")})
	err := renderer.RenderRows(rampMatrix(1, shape), []int{0}, shape, "original")
	assert.Error(t, err)
}
