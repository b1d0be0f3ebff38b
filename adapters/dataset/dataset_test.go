package dataset

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"goimpute/domain/core"
	"goimpute/domain/matrix"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestSyntheticSourceDeterministic(t *testing.T) {
	config := SyntheticConfig{Count: 12, Shape: matrix.Shape{Height: 16, Width: 16}, Seed: 7, Noise: 0.02}

	a, err := NewSyntheticSource(config).Load(context.Background())
	require.NoError(t, err)
	b, err := NewSyntheticSource(config).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 12, a.Count())
	assert.True(t, a.Fingerprint().Equals(b.Fingerprint()))

	for _, v := range a.Matrix.RawMatrix().Data {
		assert.GreaterOrEqual(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}

	config.Seed = 8
	c, err := NewSyntheticSource(config).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, a.Fingerprint().Equals(c.Fingerprint()))
}

func TestSyntheticSourceDefaults(t *testing.T) {
	faces, err := NewSyntheticSource(DefaultSyntheticConfig()).Load(context.Background())
	require.NoError(t, err)

	rows, cols := faces.Matrix.Dims()
	assert.Equal(t, 400, rows)
	assert.Equal(t, 4096, cols)
	assert.Equal(t, "synthetic", faces.Source)
}

func TestDecodePGM(t *testing.T) {
	var buf bytes.Buffer
	buf.WriteString("P5\n# created by a scanner\n3 2\n255\n")
	buf.Write([]byte{0, 128, 255, 10, 20, 30})

	img, format, err := image.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, "pgm", format)
	assert.Equal(t, image.Rect(0, 0, 3, 2), img.Bounds())

	vec := GrayVector(img, matrix.Shape{Height: 2, Width: 3})
	assert.InDelta(t, 0.0, vec[0], 1e-9)
	assert.InDelta(t, 1.0, vec[2], 1e-9)
	assert.InDelta(t, 20.0/255.0, vec[4], 1e-4)
}

func TestDecodeASCIIPGM(t *testing.T) {
	src := "P2\n2 2\n15\n0 15\n5 10\n"
	img, _, err := image.Decode(strings.NewReader(src))
	require.NoError(t, err)

	vec := GrayVector(img, matrix.Shape{Height: 2, Width: 2})
	assert.InDelta(t, 1.0, vec[1], 1e-9)
	assert.InDelta(t, 5.0/15.0, vec[2], 1e-4)
}

func TestDecodePGMRejectsOversizedHeader(t *testing.T) {
	tests := []string{
		"P5 2000000000 2000000000 255\n\x00",
		"P5 9223372036854775807 2 255\n\x00",
		"P2 8193 8193 255\n0",
	}

	for _, src := range tests {
		_, _, err := image.Decode(strings.NewReader(src))
		assert.Error(t, err, src)

		_, _, err = image.DecodeConfig(strings.NewReader(src))
		assert.Error(t, err, src)
	}
}

func writePNG(t *testing.T, path string, level uint8, size int) {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			img.SetGray(x, y, color.Gray{Y: level})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestImageDirSourceLoadsSortedRows(t *testing.T) {
	dir := t.TempDir()
	shape := matrix.Shape{Height: 8, Width: 8}

	// Names sort as b < c < d; levels make each row identifiable.
	writePNG(t, filepath.Join(dir, "c.png"), 128, 8)
	writePNG(t, filepath.Join(dir, "b.png"), 0, 16)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "d"), 0o755))
	writePNG(t, filepath.Join(dir, "d", "face.png"), 255, 8)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.txt"), []byte("not an image"), 0o644))

	faces, err := NewImageDirSource(dir, shape).Load(context.Background())
	require.NoError(t, err)

	rows, cols := faces.Matrix.Dims()
	assert.Equal(t, 3, rows)
	assert.Equal(t, 64, cols)
	assert.InDelta(t, 0.0, faces.Matrix.At(0, 10), 1e-6)
	assert.InDelta(t, 128.0/255.0, faces.Matrix.At(1, 10), 1e-6)
	assert.InDelta(t, 1.0, faces.Matrix.At(2, 10), 1e-6)
}

func TestImageDirSourceErrors(t *testing.T) {
	empty := t.TempDir()
	_, err := NewImageDirSource(empty, matrix.DefaultShape).Load(context.Background())
	assert.Error(t, err)

	broken := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(broken, "x.png"), []byte("garbage"), 0o644))
	_, err = NewImageDirSource(broken, matrix.DefaultShape).Load(context.Background())
	assert.Error(t, err)
}

func TestTableSourceCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.csv")
	content := "p0,p1,p2,p3\n0,255,51,102\n255,0,0,0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	faces, err := NewTableSource(path, matrix.Shape{Height: 2, Width: 2}).Load(context.Background())
	require.NoError(t, err)

	rows, _ := faces.Matrix.Dims()
	assert.Equal(t, 2, rows)
	assert.InDelta(t, 1.0, faces.Matrix.At(0, 1), 1e-12)
	assert.InDelta(t, 0.2, faces.Matrix.At(0, 2), 1e-12)
}

func TestTableSourceCSVShapeMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.csv")
	require.NoError(t, os.WriteFile(path, []byte("0.1,0.2,0.3\n"), 0o644))

	_, err := NewTableSource(path, matrix.Shape{Height: 2, Width: 2}).Load(context.Background())
	assert.ErrorIs(t, err, core.ErrInvalidDimension)
}

func TestTableSourceXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faces.xlsx")

	f := excelize.NewFile()
	require.NoError(t, f.SetSheetRow("Sheet1", "A1", &[]interface{}{0.1, 0.2, 0.3, 0.4}))
	require.NoError(t, f.SetSheetRow("Sheet1", "A2", &[]interface{}{0.5, 0.6, 0.7, 0.8}))
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())

	faces, err := NewTableSource(path, matrix.Shape{Height: 2, Width: 2}).Load(context.Background())
	require.NoError(t, err)

	assert.InDelta(t, 0.8, faces.Matrix.At(1, 3), 1e-12)
}

func TestNewSourceSelection(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "faces.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("0,1\n"), 0o644))

	tests := []struct {
		path     string
		expected string
		wantErr  bool
	}{
		{"", "*dataset.SyntheticSource", false},
		{dir, "*dataset.ImageDirSource", false},
		{csvPath, "*dataset.TableSource", false},
		{filepath.Join(dir, "missing.csv"), "", true},
	}

	for _, tt := range tests {
		src, err := NewSource(tt.path, matrix.DefaultShape, DefaultSyntheticConfig())
		if tt.wantErr {
			assert.Error(t, err, tt.path)
			continue
		}
		require.NoError(t, err)
		assert.Equal(t, tt.expected, fmt.Sprintf("%T", src))
	}
}
