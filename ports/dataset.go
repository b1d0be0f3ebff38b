package ports

import (
	"context"

	"goimpute/domain/dataset"
)

// DatasetSource provides the full image matrix for an experiment
type DatasetSource interface {
	Load(ctx context.Context) (*dataset.Faces, error)
}
