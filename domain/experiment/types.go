package experiment

import (
	"fmt"
	"strings"
	"time"

	"goimpute/domain/core"
)

// Algorithm names one completion algorithm family.
type Algorithm string

const (
	AlgorithmIterativeSVD        Algorithm = "IterativeSVD"
	AlgorithmSoftImpute          Algorithm = "SoftImpute"
	AlgorithmMatrixFactorization Algorithm = "MatrixFactorization"
	AlgorithmAutoEncoder         Algorithm = "AutoEncoder"
	AlgorithmSimpleFill          Algorithm = "SimpleFill"
)

// Algorithms lists every supported family in grid order.
func Algorithms() []Algorithm {
	return []Algorithm{
		AlgorithmIterativeSVD,
		AlgorithmSoftImpute,
		AlgorithmMatrixFactorization,
		AlgorithmAutoEncoder,
		AlgorithmSimpleFill,
	}
}

// ParseAlgorithm resolves a case-insensitive algorithm name.
func ParseAlgorithm(name string) (Algorithm, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	switch normalized {
	case "iterativesvd", "iterative_svd", "svd":
		return AlgorithmIterativeSVD, nil
	case "softimpute", "soft_impute":
		return AlgorithmSoftImpute, nil
	case "matrixfactorization", "matrix_factorization", "mf":
		return AlgorithmMatrixFactorization, nil
	case "autoencoder", "auto_encoder", "nn":
		return AlgorithmAutoEncoder, nil
	case "simplefill", "simple_fill", "fill":
		return AlgorithmSimpleFill, nil
	default:
		known := make([]string, 0, len(Algorithms()))
		for _, alg := range Algorithms() {
			known = append(known, string(alg))
		}
		return "", fmt.Errorf("%w: %s (expected one of %s)", core.ErrUnknownAlgorithm, name, strings.Join(known, ", "))
	}
}

// Fill methods understood by SimpleFill.
const (
	FillZero   = "zero"
	FillMean   = "mean"
	FillMedian = "median"
	FillMin    = "min"
)

// FillMethods lists the supported SimpleFill statistics.
func FillMethods() []string {
	return []string{FillZero, FillMean, FillMedian, FillMin}
}

// IsFillMethod reports whether name is a supported fill method, ignoring case.
func IsFillMethod(name string) bool {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, method := range FillMethods() {
		if method == normalized {
			return true
		}
	}
	return false
}

// Configuration identifies one run of the grid. Rank 0 means unset.
type Configuration struct {
	Algorithm  Algorithm
	Rank       int
	FillMethod string
	// HiddenLayerSizes is only used by the autoencoder.
	HiddenLayerSizes []int
	HiddenActivation string
	OutputActivation string
}

// Label is the output base name for the configuration.
func (c Configuration) Label() string {
	switch {
	case c.Algorithm == AlgorithmAutoEncoder:
		if c.Rank > 0 {
			return fmt.Sprintf("nn_rank%d", c.Rank)
		}
		return "nn"
	case c.Algorithm == AlgorithmSimpleFill:
		if c.FillMethod != "" {
			return "simple_fill_" + c.FillMethod
		}
		return "simple_fill"
	case c.Rank > 0:
		return fmt.Sprintf("%s_rank%d", c.Algorithm, c.Rank)
	default:
		return string(c.Algorithm)
	}
}

func (c Configuration) String() string {
	return c.Label()
}

// DefaultGrid returns the comparison grid: an unconstrained SoftImpute run,
// then for every rank the three low-rank families and an autoencoder whose
// hidden layers are [hiddenWidth, rank], then one SimpleFill per fill method.
func DefaultGrid(ranks []int, fillMethods []string, hiddenWidth int) []Configuration {
	grid := []Configuration{{Algorithm: AlgorithmSoftImpute}}

	for _, rank := range ranks {
		for _, alg := range []Algorithm{AlgorithmIterativeSVD, AlgorithmSoftImpute, AlgorithmMatrixFactorization} {
			grid = append(grid, Configuration{Algorithm: alg, Rank: rank})
		}
		grid = append(grid, Configuration{
			Algorithm:        AlgorithmAutoEncoder,
			Rank:             rank,
			HiddenLayerSizes: []int{hiddenWidth, rank},
			HiddenActivation: "tanh",
			OutputActivation: "sigmoid",
		})
	}

	for _, method := range fillMethods {
		grid = append(grid, Configuration{Algorithm: AlgorithmSimpleFill, FillMethod: method})
	}
	return grid
}

// Status is the terminal state of a run.
type Status string

const (
	StatusSuccess        Status = "success"
	StatusPartialFailure Status = "partial_failure"
)

// Outcome records how one configuration ended.
type Outcome struct {
	Configuration Configuration
	Label         string
	Duration      time.Duration
	Err           error
}

// Succeeded reports whether the configuration completed and rendered.
func (o Outcome) Succeeded() bool {
	return o.Err == nil
}

// Report summarises a run. It is logged, never persisted.
type Report struct {
	RunID       core.RunID
	Seed        int64
	Fingerprint core.Hash
	StartedAt   core.Timestamp
	Outcomes    []Outcome
}

// Status derives the terminal state from the outcomes.
func (r *Report) Status() Status {
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			return StatusPartialFailure
		}
	}
	return StatusSuccess
}

// Failed returns the outcomes that ended in an error.
func (r *Report) Failed() []Outcome {
	var failed []Outcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}
