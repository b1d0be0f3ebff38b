package app

import (
	"context"
	"fmt"
	"time"

	"goimpute/domain/core"
	"goimpute/domain/dataset"
	"goimpute/domain/experiment"
	"goimpute/domain/matrix"
	"goimpute/internal"
	"goimpute/internal/errors"
	"goimpute/internal/masking"
	"goimpute/internal/profiling"
	"goimpute/ports"

	"gonum.org/v1/gonum/mat"
)

// Baseline image names.
const (
	BaseNameOriginal   = "original"
	BaseNameIncomplete = "incomplete"
)

// ExperimentConfig parameterises one run of the comparison grid.
type ExperimentConfig struct {
	MaskSize   int
	Shape      matrix.Shape
	Seed       int64
	Grid       []experiment.Configuration
	RowIndices []int

	// ContinueOnFailure isolates algorithm failures to their configuration.
	// When false the first failure ends the run.
	ContinueOnFailure bool
}

// ExperimentService drives the dataset → mask → complete → render pipeline.
type ExperimentService struct {
	source   ports.DatasetSource
	factory  ports.CompleterFactory
	renderer ports.Renderer
	rngPort  ports.RNGPort
	invoker  *CompletionInvoker
	config   ExperimentConfig
	logger   *internal.Logger
}

// NewExperimentService creates an experiment service
func NewExperimentService(
	source ports.DatasetSource,
	factory ports.CompleterFactory,
	renderer ports.Renderer,
	rngPort ports.RNGPort,
	config ExperimentConfig,
) *ExperimentService {
	return &ExperimentService{
		source:   source,
		factory:  factory,
		renderer: renderer,
		rngPort:  rngPort,
		invoker:  NewCompletionInvoker(),
		config:   config,
		logger:   internal.DefaultLogger,
	}
}

// Masked is the shared input of every configuration.
type Masked struct {
	Faces       *dataset.Faces
	Incomplete  *mat.Dense
	Fingerprint core.Hash
}

// Prepare loads the dataset, masks it, verifies the mask and renders the
// baseline images. Every error it returns aborts the run.
func (s *ExperimentService) Prepare(ctx context.Context) (*Masked, error) {
	faces, err := s.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}
	if err := matrix.ValidateFull(faces.Matrix, s.config.Shape); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", faces.Source, err)
	}
	s.logger.Info("[ExperimentService] loaded %d images of %s from %s", faces.Count(), s.config.Shape, faces.Source)
	if profile, err := profiling.ProfileIntensities(faces.Matrix); err != nil {
		s.logger.Debug("[ExperimentService] intensity profile unavailable: %v", err)
	} else {
		s.logger.Debug("[ExperimentService] intensities: %s", profile)
		if !profile.InUnitRange() {
			s.logger.Warn("[ExperimentService] intensities outside [0, 1]: %s", profile)
		}
	}

	rng, err := s.rngPort.SeededStream(ctx, "mask", s.config.Seed)
	if err != nil {
		return nil, fmt.Errorf("failed to seed mask generator: %w", err)
	}
	incomplete, err := masking.GenerateIncomplete(faces.Matrix, s.config.MaskSize, s.config.Shape, rng)
	if err != nil {
		return nil, err
	}
	if err := masking.Verify(faces.Matrix, incomplete, s.config.Shape, s.config.MaskSize); err != nil {
		return nil, err
	}

	masked := &Masked{
		Faces:       faces,
		Incomplete:  incomplete,
		Fingerprint: core.MatrixFingerprint(incomplete),
	}
	s.logger.Info("[ExperimentService] masked %d×%d squares with seed %d: %d missing pixels (fingerprint %s)",
		s.config.MaskSize, s.config.MaskSize, s.config.Seed, matrix.CountMissing(incomplete), masked.Fingerprint.Short())

	if err := s.renderer.RenderRows(faces.Matrix, s.config.RowIndices, s.config.Shape, BaseNameOriginal); err != nil {
		return nil, fmt.Errorf("failed to render %s images: %w", BaseNameOriginal, err)
	}
	if err := s.renderer.RenderRows(incomplete, s.config.RowIndices, s.config.Shape, BaseNameIncomplete); err != nil {
		return nil, fmt.Errorf("failed to render %s images: %w", BaseNameIncomplete, err)
	}
	return masked, nil
}

// Run executes the whole grid. Every completer is built before the dataset
// is touched, so a bad option aborts without writing anything. Algorithm
// failures and shape mismatches are recorded in the report and the grid
// moves on (unless ContinueOnFailure is off); configuration errors, I/O
// errors and cancellation abort.
func (s *ExperimentService) Run(ctx context.Context) (*experiment.Report, error) {
	report := &experiment.Report{
		RunID:     core.NewRunID(),
		Seed:      s.config.Seed,
		StartedAt: core.Now(),
	}
	s.logger.Info("[ExperimentService] run %s: %d configurations", report.RunID, len(s.config.Grid))

	completers, err := s.buildCompleters()
	if err != nil {
		return nil, err
	}

	masked, err := s.Prepare(ctx)
	if err != nil {
		return nil, err
	}
	report.Fingerprint = masked.Fingerprint

	for i, cfg := range s.config.Grid {
		outcome, err := s.runConfiguration(ctx, masked, cfg, completers[i])
		if err != nil {
			return nil, err
		}
		report.Outcomes = append(report.Outcomes, outcome)

		if !outcome.Succeeded() && !s.config.ContinueOnFailure {
			return nil, fmt.Errorf("configuration %s failed: %w", outcome.Label, outcome.Err)
		}
	}

	s.logReport(report)
	return report, nil
}

func (s *ExperimentService) buildCompleters() ([]ports.Completer, error) {
	completers := make([]ports.Completer, len(s.config.Grid))
	for i, cfg := range s.config.Grid {
		completer, err := s.factory.Build(cfg)
		if err != nil {
			return nil, fmt.Errorf("configuration %s: %w", cfg.Label(), err)
		}
		completers[i] = completer
	}
	return completers, nil
}

// runConfiguration returns an error only when the run must abort; isolated
// failures are carried in the outcome.
func (s *ExperimentService) runConfiguration(ctx context.Context, masked *Masked, cfg experiment.Configuration, completer ports.Completer) (experiment.Outcome, error) {
	label := cfg.Label()
	outcome := experiment.Outcome{Configuration: cfg, Label: label}
	start := time.Now()

	s.logger.Info("[ExperimentService] %s: running %s", label, completer.Name())
	completed, err := s.invoker.Complete(ctx, masked.Incomplete, completer)
	outcome.Duration = time.Since(start)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return outcome, ctxErr
		}
		if core.IsConfigurationError(err) {
			return outcome, fmt.Errorf("configuration %s: %w", label, err)
		}
		outcome.Err = err
		if errors.HasCode(err, errors.CodeExternalService) {
			s.logger.Warn("[ExperimentService] %s failed after %v: %v", label, outcome.Duration.Round(time.Millisecond), err)
		} else {
			s.logger.Warn("[ExperimentService] %s returned an unusable result: %v", label, err)
		}
		return outcome, nil
	}

	if err := s.renderer.RenderComparison(masked.Faces.Matrix, masked.Incomplete, completed, s.config.RowIndices, s.config.Shape, label); err != nil {
		return outcome, fmt.Errorf("failed to render %s: %w", label, err)
	}
	s.logger.Info("[ExperimentService] %s completed in %v", label, outcome.Duration.Round(time.Millisecond))
	return outcome, nil
}

func (s *ExperimentService) logReport(report *experiment.Report) {
	failed := report.Failed()
	s.logger.Info("[ExperimentService] run %s finished in %v: %s, %d/%d configurations succeeded, mask fingerprint %s",
		report.RunID, report.StartedAt.Since().Round(time.Millisecond), report.Status(),
		len(report.Outcomes)-len(failed), len(report.Outcomes), report.Fingerprint.Short())
	for _, o := range failed {
		s.logger.Warn("[ExperimentService]   %s: %v", o.Label, o.Err)
	}
}
