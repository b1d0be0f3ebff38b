package imputer

import (
	"context"
	"fmt"

	"goimpute/domain/core"
	"goimpute/domain/experiment"
	"goimpute/internal"

	"gonum.org/v1/gonum/mat"
)

// IterativeSVDConfig determines the behaviour of an IterativeSVD completer.
type IterativeSVDConfig struct {
	// Rank is the number of singular vectors kept per reconstruction.
	Rank int

	// MaxIters bounds the number of reconstruct/refill rounds.
	MaxIters int

	// ConvergenceThreshold is the relative change of the missing entries
	// below which iteration stops.
	ConvergenceThreshold float64
}

// DefaultIterativeSVDConfig returns the default configuration.
func DefaultIterativeSVDConfig() IterativeSVDConfig {
	return IterativeSVDConfig{
		Rank:                 ITERATIVE_SVD_RANK,
		MaxIters:             DEFAULT_MAX_ITERS,
		ConvergenceThreshold: ITERATIVE_SVD_CONVERGENCE_THRESHOLD,
	}
}

func (c IterativeSVDConfig) validate() error {
	name := string(experiment.AlgorithmIterativeSVD)
	switch {
	case c.Rank < 1:
		return core.NewInvalidConfigurationError(name, "rank", c.Rank)
	case c.MaxIters < 1:
		return core.NewInvalidConfigurationError(name, "max_iters", c.MaxIters)
	case c.ConvergenceThreshold <= 0:
		return core.NewInvalidConfigurationError(name, "convergence_threshold", c.ConvergenceThreshold)
	}
	return nil
}

// IterativeSVD starts from a zero fill and repeatedly replaces the missing
// entries with a rank-k SVD reconstruction of the current estimate.
type IterativeSVD struct {
	config IterativeSVDConfig
	logger *internal.Logger
}

// NewIterativeSVD validates config and returns the completer.
func NewIterativeSVD(config IterativeSVDConfig) (*IterativeSVD, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	return &IterativeSVD{config: config, logger: internal.DefaultLogger}, nil
}

func (s *IterativeSVD) Name() string {
	return fmt.Sprintf("%s(rank=%d)", experiment.AlgorithmIterativeSVD, s.config.Rank)
}

func (s *IterativeSVD) Complete(ctx context.Context, m *mat.Dense) (*mat.Dense, error) {
	obs := newObserved(m)
	if err := checkInput(ctx, m, obs); err != nil {
		return nil, err
	}
	if err := checkRank(m, s.config.Rank); err != nil {
		return nil, err
	}

	filled := zeroFilled(m)
	truth := mat.DenseCopyOf(filled)

	for iter := 0; iter < s.config.MaxIters; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		u, v, values, err := svdOf(filled)
		if err != nil {
			return nil, err
		}
		next := reconstruct(u, v, values, s.config.Rank)

		s.logger.Trace("[IterativeSVD] iter %d: observed MAE=%.6f", iter+1, obs.observedMAE(truth, next))

		done := obs.converged(filled, next, s.config.ConvergenceThreshold)
		obs.copyMissing(filled, next)
		if done {
			s.logger.Debug("[IterativeSVD] converged after %d iterations", iter+1)
			break
		}
	}
	return filled, nil
}
