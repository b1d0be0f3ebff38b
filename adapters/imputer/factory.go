// Package imputer ships the reference completion algorithms behind
// ports.Completer.
package imputer

import (
	"fmt"

	"goimpute/domain/core"
	"goimpute/domain/experiment"
	"goimpute/ports"
)

// Options is the union of the options any algorithm accepts. Algorithms
// ignore the fields they do not use; zero values select defaults.
type Options struct {
	Rank             int
	FillMethod       string
	HiddenLayerSizes []int
	HiddenActivation string
	OutputActivation string
	Seed             int64
}

// OptionsFor maps a grid configuration to algorithm options.
func OptionsFor(cfg experiment.Configuration, seed int64) Options {
	return Options{
		Rank:             cfg.Rank,
		FillMethod:       cfg.FillMethod,
		HiddenLayerSizes: cfg.HiddenLayerSizes,
		HiddenActivation: cfg.HiddenActivation,
		OutputActivation: cfg.OutputActivation,
		Seed:             seed,
	}
}

// New returns the completer for alg configured from opts.
func New(alg experiment.Algorithm, opts Options) (ports.Completer, error) {
	if opts.Rank < 0 {
		return nil, core.NewInvalidConfigurationError(string(alg), "rank", opts.Rank)
	}

	switch alg {
	case experiment.AlgorithmIterativeSVD:
		config := DefaultIterativeSVDConfig()
		if opts.Rank > 0 {
			config.Rank = opts.Rank
		}
		return NewIterativeSVD(config)

	case experiment.AlgorithmSoftImpute:
		config := DefaultSoftImputeConfig()
		config.MaxRank = opts.Rank
		return NewSoftImpute(config)

	case experiment.AlgorithmMatrixFactorization:
		config := DefaultMatrixFactorizationConfig()
		if opts.Rank > 0 {
			config.Rank = opts.Rank
		}
		config.Seed = opts.Seed
		return NewMatrixFactorization(config)

	case experiment.AlgorithmAutoEncoder:
		config := DefaultAutoEncoderConfig()
		if opts.HiddenLayerSizes != nil {
			config.HiddenLayerSizes = append([]int(nil), opts.HiddenLayerSizes...)
		} else if opts.Rank > 0 {
			config.HiddenLayerSizes = []int{opts.Rank}
		}
		if opts.HiddenActivation != "" {
			config.HiddenActivation = opts.HiddenActivation
		}
		if opts.OutputActivation != "" {
			config.OutputActivation = opts.OutputActivation
		}
		config.Seed = opts.Seed
		return NewAutoEncoder(config)

	case experiment.AlgorithmSimpleFill:
		config := DefaultSimpleFillConfig()
		if opts.FillMethod != "" {
			config.FillMethod = opts.FillMethod
		}
		return NewSimpleFill(config)

	default:
		return nil, fmt.Errorf("%w: %s", core.ErrUnknownAlgorithm, alg)
	}
}

// Factory builds completers for grid configurations.
type Factory struct {
	Seed int64
}

// NewFactory returns a factory whose stochastic algorithms use seed.
func NewFactory(seed int64) *Factory {
	return &Factory{Seed: seed}
}

// Build implements ports.CompleterFactory.
func (f *Factory) Build(cfg experiment.Configuration) (ports.Completer, error) {
	return New(cfg.Algorithm, OptionsFor(cfg, f.Seed))
}

// AlgorithmInfo describes one algorithm for listings.
type AlgorithmInfo struct {
	Algorithm   experiment.Algorithm
	Description string
	Options     []string
}

// Describe returns every supported algorithm in grid order.
func Describe() []AlgorithmInfo {
	return []AlgorithmInfo{
		{
			Algorithm:   experiment.AlgorithmIterativeSVD,
			Description: fmt.Sprintf("Rank-k SVD reconstruction from a zero fill (default rank %d, %d iterations)", ITERATIVE_SVD_RANK, DEFAULT_MAX_ITERS),
			Options:     []string{"rank"},
		},
		{
			Algorithm:   experiment.AlgorithmSoftImpute,
			Description: fmt.Sprintf("Soft-thresholded SVD, shrinkage = max singular value / %.0f", SOFT_IMPUTE_SHRINKAGE_DIVISOR),
			Options:     []string{"rank"},
		},
		{
			Algorithm:   experiment.AlgorithmMatrixFactorization,
			Description: fmt.Sprintf("U·Vᵀ plus biases by gradient descent (default rank %d, %d epochs)", MATRIX_FACTORIZATION_RANK, MATRIX_FACTORIZATION_EPOCHS),
			Options:     []string{"rank", "seed"},
		},
		{
			Algorithm:   experiment.AlgorithmAutoEncoder,
			Description: fmt.Sprintf("Dense autoencoder trained on observed pixels with Adam (%d epochs)", AUTOENCODER_EPOCHS),
			Options:     []string{"hidden_layer_sizes", "hidden_activation", "output_activation", "seed"},
		},
		{
			Algorithm:   experiment.AlgorithmSimpleFill,
			Description: "Per-column statistic of the observed pixels",
			Options:     []string{"fill_method"},
		},
	}
}
