package ports

import (
	"goimpute/domain/matrix"

	"gonum.org/v1/gonum/mat"
)

// Renderer persists rows of image matrices as image files named
// {baseName}_{row}. An empty baseName renders nothing.
type Renderer interface {
	RenderRows(m mat.Matrix, rows []int, shape matrix.Shape, baseName string) error
	RenderComparison(full, incomplete, completed mat.Matrix, rows []int, shape matrix.Shape, baseName string) error
}
