package dataset

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"goimpute/domain/matrix"
	"goimpute/ports"
)

// NewSource picks the adapter for path: a directory of images, a CSV/XLSX
// table, or the synthetic generator when path is empty.
func NewSource(path string, shape matrix.Shape, synthetic SyntheticConfig) (ports.DatasetSource, error) {
	if strings.TrimSpace(path) == "" {
		synthetic.Shape = shape
		return NewSyntheticSource(synthetic), nil
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("dataset path %s: %w", path, err)
	}
	if info.IsDir() {
		return NewImageDirSource(path, shape), nil
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".xlsx", ".xlsm":
		return NewTableSource(path, shape), nil
	default:
		return nil, fmt.Errorf("unsupported dataset file %s (expected a directory, .csv or .xlsx)", path)
	}
}
