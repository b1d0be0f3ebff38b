package imputer

import (
	"context"
	"fmt"
	"strings"

	"goimpute/domain/core"
	"goimpute/domain/experiment"
	"goimpute/domain/matrix"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/mat"
)

// SimpleFillConfig determines the behaviour of a SimpleFill completer.
type SimpleFillConfig struct {
	// FillMethod is one of zero, mean, median or min.
	FillMethod string
}

// DefaultSimpleFillConfig fills with column means.
func DefaultSimpleFillConfig() SimpleFillConfig {
	return SimpleFillConfig{FillMethod: FillMean}
}

// FillMethods lists the supported fill methods.
func FillMethods() []string {
	return experiment.FillMethods()
}

type columnStatistic func(stats.Float64Data) (float64, error)

func (c SimpleFillConfig) statistic() (columnStatistic, error) {
	switch strings.ToLower(strings.TrimSpace(c.FillMethod)) {
	case FillZero:
		return func(stats.Float64Data) (float64, error) { return 0, nil }, nil
	case FillMean:
		return stats.Mean, nil
	case FillMedian:
		return stats.Median, nil
	case FillMin:
		return stats.Min, nil
	default:
		return nil, core.NewInvalidConfigurationError(string(experiment.AlgorithmSimpleFill), "fill_method", c.FillMethod)
	}
}

// SimpleFill replaces the missing entries of each column with a statistic
// of that column's observed entries. A column with nothing observed is
// filled with 0.
type SimpleFill struct {
	config    SimpleFillConfig
	statistic columnStatistic
}

// NewSimpleFill validates config and returns the completer.
func NewSimpleFill(config SimpleFillConfig) (*SimpleFill, error) {
	statistic, err := config.statistic()
	if err != nil {
		return nil, err
	}
	return &SimpleFill{config: config, statistic: statistic}, nil
}

func (s *SimpleFill) Name() string {
	return fmt.Sprintf("%s(%s)", experiment.AlgorithmSimpleFill, s.config.FillMethod)
}

func (s *SimpleFill) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := mat.DenseCopyOf(m)
	rows, cols := out.Dims()
	values := make([]float64, 0, rows)
	for j := 0; j < cols; j++ {
		values = values[:0]
		hasMissing := false
		for i := 0; i < rows; i++ {
			v := out.At(i, j)
			if matrix.IsMissing(v) {
				hasMissing = true
				continue
			}
			values = append(values, v)
		}
		if !hasMissing {
			continue
		}

		fill := 0.0
		if len(values) > 0 {
			var err error
			if fill, err = s.statistic(values); err != nil {
				return nil, fmt.Errorf("column %d: %w", j, err)
			}
		}
		for i := 0; i < rows; i++ {
			if matrix.IsMissing(out.At(i, j)) {
				out.Set(i, j, fill)
			}
		}
	}
	return out, nil
}
