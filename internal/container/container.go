package container

import (
	"fmt"

	"goimpute/adapters/dataset"
	"goimpute/adapters/imputer"
	"goimpute/adapters/render"
	"goimpute/adapters/rng"
	"goimpute/app"
	"goimpute/internal"
	"goimpute/internal/config"
	"goimpute/ports"

	"gonum.org/v1/plot/vg"
)

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Adapters
	Source   ports.DatasetSource
	Renderer *render.PlotRenderer
	Factory  ports.CompleterFactory
	RNG      ports.RNGPort

	// Services
	Experiment *app.ExperimentService
}

// New creates a new dependency injection container
func New(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}

	logger := internal.DefaultLogger
	logger.SetLevel(internal.ParseLogLevel(cfg.LogLevel))

	synthetic := dataset.DefaultSyntheticConfig()
	synthetic.Count = cfg.Dataset.SyntheticFaces
	synthetic.Seed = cfg.Dataset.SyntheticSeed
	synthetic.Noise = cfg.Dataset.SyntheticNoise

	source, err := dataset.NewSource(cfg.Dataset.Path, cfg.Shape(), synthetic)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
		Source: source,
		Renderer: render.NewPlotRenderer(render.Config{
			OutputDir: cfg.Output.Dir,
			PanelSize: vg.Length(cfg.Output.PanelSizePt),
		}),
		Factory: imputer.NewFactory(cfg.Experiment.Seed),
		RNG:     rng.NewSeededAdapter(),
	}

	c.Experiment = c.NewExperimentService(c.ExperimentConfig())
	return c, nil
}

// NewExperimentService wires an experiment service with a custom configuration
func (c *Container) NewExperimentService(config app.ExperimentConfig) *app.ExperimentService {
	return app.NewExperimentService(c.Source, c.Factory, c.Renderer, c.RNG, config)
}

// ExperimentConfig maps the loaded configuration onto the experiment service
func (c *Container) ExperimentConfig() app.ExperimentConfig {
	e := c.Config.Experiment
	return app.ExperimentConfig{
		MaskSize:          e.MaskSize,
		Shape:             c.Config.Shape(),
		Seed:              e.Seed,
		Grid:              c.Config.Grid(),
		RowIndices:        append([]int(nil), e.RowIndices...),
		ContinueOnFailure: e.ContinueOnFailure,
	}
}
