package imputer

import (
	"context"
	"fmt"

	"goimpute/domain/core"
	"goimpute/domain/experiment"
	"goimpute/internal"

	"gonum.org/v1/gonum/mat"
)

// SoftImputeConfig determines the behaviour of a SoftImpute completer.
type SoftImputeConfig struct {
	// MaxRank caps the rank of each reconstruction. Zero leaves it
	// unconstrained.
	MaxRank int

	// ShrinkageValue is subtracted from every singular value. Zero selects
	// the largest singular value of the zero-filled input divided by 50.
	ShrinkageValue float64

	MaxIters             int
	ConvergenceThreshold float64
}

// DefaultSoftImputeConfig returns the default configuration.
func DefaultSoftImputeConfig() SoftImputeConfig {
	return SoftImputeConfig{
		MaxIters:             DEFAULT_MAX_ITERS,
		ConvergenceThreshold: SOFT_IMPUTE_CONVERGENCE_THRESHOLD,
	}
}

func (c SoftImputeConfig) validate() error {
	name := string(experiment.AlgorithmSoftImpute)
	switch {
	case c.MaxRank < 0:
		return core.NewInvalidConfigurationError(name, "max_rank", c.MaxRank)
	case c.ShrinkageValue < 0:
		return core.NewInvalidConfigurationError(name, "shrinkage_value", c.ShrinkageValue)
	case c.MaxIters < 1:
		return core.NewInvalidConfigurationError(name, "max_iters", c.MaxIters)
	case c.ConvergenceThreshold <= 0:
		return core.NewInvalidConfigurationError(name, "convergence_threshold", c.ConvergenceThreshold)
	}
	return nil
}

// SoftImpute fills the missing entries with successive soft-thresholded SVD
// reconstructions of the current estimate.
type SoftImpute struct {
	config SoftImputeConfig
	logger *internal.Logger
}

// NewSoftImpute validates config and returns the completer.
func NewSoftImpute(config SoftImputeConfig) (*SoftImpute, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &SoftImpute{config: config, logger: internal.DefaultLogger}, nil
}

func (s *SoftImpute) Name() string {
	if s.config.MaxRank > 0 {
		return fmt.Sprintf("%s(max_rank=%d)", experiment.AlgorithmSoftImpute, s.config.MaxRank)
	}
	return string(experiment.AlgorithmSoftImpute)
}

func (s *SoftImpute) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	obs := newObserved(m)
	if err := checkInput(ctx, m, obs); err != nil {
		return nil, err
	}

	filled := zeroFilled(m)
	truth := mat.DenseCopyOf(filled)

	shrinkage := s.config.ShrinkageValue
	if shrinkage == 0 {
		_, _, values, err := svdOf(filled)
		if err != nil {
			return nil, err
		}
		shrinkage = values[0] / SOFT_IMPUTE_SHRINKAGE_DIVISOR
		s.logger.Debug("[SoftImpute] default shrinkage %.6f", shrinkage)
	}

	for iter := 0; iter < s.config.MaxIters; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		next, rank, err := s.step(filled, shrinkage)
		if err != nil {
			return nil, err
		}

		s.logger.Trace("[SoftImpute] iter %d: observed MAE=%.6f rank=%d", iter+1, obs.observedMAE(truth, next), rank)

		done := obs.converged(filled, next, s.config.ConvergenceThreshold)
		obs.copyMissing(filled, next)
		if done {
			s.logger.Debug("[SoftImpute] converged after %d iterations", iter+1)
			break
		}
	}
	return filled, nil
}

// step shrinks every singular value by shrinkage, drops those that reach
// zero and rebuilds the matrix from the rest.
func (s *SoftImpute) step(x *mat.Dense, shrinkage float64) (*mat.Dense, int, error) {
	u, v, values, err := svdOf(x)
	if err != nil {
		return nil, 0, err
	}

	rank := 0
	for i, sv := range values {
		values[i] = max(sv-shrinkage, 0)
		if values[i] > 0 {
			rank++
		}
	}
	if s.config.MaxRank > 0 {
		rank = min(rank, s.config.MaxRank)
	}
	return reconstruct(u, v, values, rank), rank, nil
}
