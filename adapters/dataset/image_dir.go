package dataset

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"goimpute/domain/dataset"
	"goimpute/domain/matrix"
	"goimpute/internal"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	"golang.org/x/sync/errgroup"
)

var imageExtensions = map[string]bool{
	".png": true, ".jpg": true, ".jpeg": true, ".gif": true,
	".bmp": true, ".tif": true, ".tiff": true, ".pgm": true,
}

// ImageDirSource loads every image file under a directory as one row.
type ImageDirSource struct {
	dir         string
	shape       matrix.Shape
	concurrency int
	logger      *internal.Logger
}

// NewImageDirSource creates a source reading dir recursively
func NewImageDirSource(dir string, shape matrix.Shape) *ImageDirSource {
	return &ImageDirSource{
		dir:         dir,
		shape:       shape,
		concurrency: runtime.GOMAXPROCS(0),
		logger:      internal.DefaultLogger,
	}
}

// Load decodes the images concurrently and assembles rows in sorted path
// order, so the matrix does not depend on scheduling.
func (s *ImageDirSource) Load(ctx context.Context) (*dataset.Faces, error) {
	if err := s.shape.Validate(); err != nil {
		return nil, err
	}

	start := time.Now()
	paths, err := s.listImages()
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no image files found in %s", s.dir)
	}

	rows := make([][]float64, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			row, err := LoadGrayVector(path, s.shape)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m, err := dataset.FromRows(rows, s.shape)
	if err != nil {
		return nil, err
	}
	s.logger.Info("[ImageDirSource] loaded %d images from %s in %.2fms", len(paths), s.dir,
		float64(time.Since(start).Nanoseconds())/1e6)
	return dataset.NewFaces(m, s.shape, s.dir)
}

func (s *ImageDirSource) listImages() ([]string, error) {
	var paths []string
	err := filepath.WalkDir(s.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && imageExtensions[strings.ToLower(filepath.Ext(path))] {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan image directory %s: %w", s.dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// LoadGrayVector decodes an image, resizes it to shape and returns its
// luminance as a row-major vector scaled to [0, 1].
func LoadGrayVector(path string, shape matrix.Shape) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %s: %w", path, err)
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return GrayVector(src, shape), nil
}

// GrayVector scales src to shape and flattens its gray levels.
func GrayVector(src image.Image, shape matrix.Shape) []float64 {
	dst := image.NewGray16(image.Rect(0, 0, shape.Width, shape.Height))
	if src.Bounds().Dx() == shape.Width && src.Bounds().Dy() == shape.Height {
		draw.Draw(dst, dst.Rect, src, src.Bounds().Min, draw.Src)
	} else {
		draw.CatmullRom.Scale(dst, dst.Rect, src, src.Bounds(), draw.Src, nil)
	}

	out := make([]float64, 0, shape.Pixels())
	for y := 0; y < shape.Height; y++ {
		for x := 0; x < shape.Width; x++ {
			out = append(out, float64(dst.Gray16At(x, y).Y)/65535.0)
		}
	}
	return out
}
