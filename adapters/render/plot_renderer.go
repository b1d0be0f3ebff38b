// Package render writes image-matrix rows as grayscale PNG files using
// gonum/plot heat maps.
package render

import (
	"fmt"
	"os"
	"path/filepath"

	"goimpute/domain/matrix"
	"goimpute/internal"
	"goimpute/internal/errors"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Config controls output location and panel geometry.
type Config struct {
	OutputDir string
	// PanelSize is the edge length of one image panel.
	PanelSize vg.Length
}

// DefaultConfig writes 240pt panels into the working directory.
func DefaultConfig() Config {
	return Config{OutputDir: ".", PanelSize: 240}
}

// PlotRenderer implements ports.Renderer on top of gonum/plot.
type PlotRenderer struct {
	config Config
	logger *internal.Logger
}

// NewPlotRenderer creates a renderer; the output directory is created on
// first write.
func NewPlotRenderer(config Config) *PlotRenderer {
	if config.OutputDir == "" {
		config.OutputDir = "."
	}
	if config.PanelSize <= 0 {
		config.PanelSize = DefaultConfig().PanelSize
	}
	return &PlotRenderer{config: config, logger: internal.DefaultLogger}
}

// Path returns the file written for baseName and row.
func (r *PlotRenderer) Path(baseName string, row int) string {
	return filepath.Join(r.config.OutputDir, fmt.Sprintf("%s_%d.png", baseName, row))
}

// RenderRows writes one grayscale image per requested row. Every index is
// checked before anything is written; with an empty baseName nothing is
// written at all.
func (r *PlotRenderer) RenderRows(m mat.Matrix, rows []int, shape matrix.Shape, baseName string) error {
	if err := shape.CheckColumns(m); err != nil {
		return err
	}
	if err := matrix.CheckRows(m, rows); err != nil {
		return err
	}
	if baseName == "" {
		return nil
	}

	for _, idx := range rows {
		p := newImagePlot(matrix.RowCopy(m, idx), shape, "")
		if err := r.save(idx, baseName, func(path string) error {
			return p.Save(r.config.PanelSize, r.panelHeight(shape), path)
		}); err != nil {
			return err
		}
	}
	return nil
}

// RenderComparison writes one triptych per row: original, incomplete with
// markers zeroed, completed.
func (r *PlotRenderer) RenderComparison(full, incomplete, completed mat.Matrix, rows []int, shape matrix.Shape, baseName string) error {
	for _, m := range []mat.Matrix{full, incomplete, completed} {
		if err := shape.CheckColumns(m); err != nil {
			return err
		}
		if err := matrix.CheckRows(m, rows); err != nil {
			return err
		}
	}
	if baseName == "" {
		return nil
	}

	for _, idx := range rows {
		panels := [][]*plot.Plot{{
			newImagePlot(matrix.RowCopy(full, idx), shape, "original"),
			newImagePlot(matrix.RowCopy(incomplete, idx), shape, "incomplete"),
			newImagePlot(matrix.RowCopy(completed, idx), shape, "completed"),
		}}
		if err := r.save(idx, baseName, func(path string) error {
			return r.saveAligned(panels, shape, path)
		}); err != nil {
			return err
		}
	}
	return nil
}

func (r *PlotRenderer) save(row int, baseName string, write func(path string) error) error {
	if err := os.MkdirAll(r.config.OutputDir, 0o755); err != nil {
		return errors.IOError(r.config.OutputDir, err)
	}
	path := r.Path(baseName, row)
	if err := write(path); err != nil {
		return errors.IOError(path, err)
	}
	r.logger.Debug("[PlotRenderer] wrote %s", path)
	return nil
}

func (r *PlotRenderer) panelHeight(shape matrix.Shape) vg.Length {
	return r.config.PanelSize * vg.Length(shape.Height) / vg.Length(shape.Width)
}

func (r *PlotRenderer) saveAligned(panels [][]*plot.Plot, shape matrix.Shape, path string) error {
	cols := len(panels[0])
	img := vgimg.New(r.config.PanelSize*vg.Length(cols), r.panelHeight(shape))
	dc := draw.New(img)

	tiles := draw.Tiles{
		Rows: 1,
		Cols: cols,
		PadX: vg.Millimeter,
	}
	canvases := plot.Align(panels, tiles, dc)
	for j, p := range panels[0] {
		p.Draw(canvases[0][j])
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func newImagePlot(row []float64, shape matrix.Shape, title string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.HideAxes()

	grid := newHeatGrid(ImageGrid(row, shape))
	heat := plotter.NewHeatMap(grid, grayPalette(256))
	heat.Min, heat.Max = grid.min, grid.max
	heat.Rasterized = true
	p.Add(heat)
	return p
}
