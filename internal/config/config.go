package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"goimpute/domain/experiment"
	"goimpute/domain/matrix"
	"goimpute/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Experiment ExperimentConfig
	Dataset    DatasetConfig
	Output     OutputConfig
	LogLevel   string
}

// ExperimentConfig holds the masking and grid settings
type ExperimentConfig struct {
	MaskSize          int
	ImageHeight       int
	ImageWidth        int
	Seed              int64
	Ranks             []int
	FillMethods       []string
	RowIndices        []int
	HiddenLayerWidth  int
	ContinueOnFailure bool
}

// DatasetConfig selects where the face images come from
type DatasetConfig struct {
	// Path is a CSV/XLSX table or an image directory. Empty selects the
	// synthetic generator.
	Path           string
	SyntheticFaces int
	SyntheticSeed  int64
	SyntheticNoise float64
}

// OutputConfig holds rendering settings
type OutputConfig struct {
	Dir         string
	PanelSizePt float64
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	experimentConfig, err := loadExperimentConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load experiment configuration")
	}

	config := &Config{
		Experiment: *experimentConfig,
		Dataset:    *loadDatasetConfig(),
		Output:     *loadOutputConfig(),
		LogLevel:   getEnvOrDefault("LOG_LEVEL", "INFO"),
	}

	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}
	return config, nil
}

func loadExperimentConfig() (*ExperimentConfig, error) {
	ranks, err := getEnvIntListOrDefault("RANKS", []int{5, 50})
	if err != nil {
		return nil, err
	}
	rows, err := getEnvIntListOrDefault("ROW_INDICES", []int{0, 100, 200, 300})
	if err != nil {
		return nil, err
	}

	return &ExperimentConfig{
		MaskSize:          getEnvIntOrDefault("MASK_SIZE", 32),
		ImageHeight:       getEnvIntOrDefault("IMAGE_HEIGHT", 64),
		ImageWidth:        getEnvIntOrDefault("IMAGE_WIDTH", 64),
		Seed:              int64(getEnvIntOrDefault("RANDOM_SEED", 0)),
		Ranks:             ranks,
		FillMethods:       getEnvListOrDefault("FILL_METHODS", []string{"mean", "median"}),
		RowIndices:        rows,
		HiddenLayerWidth:  getEnvIntOrDefault("HIDDEN_LAYER_WIDTH", 1000),
		ContinueOnFailure: getEnvBoolOrDefault("CONTINUE_ON_FAILURE", true),
	}, nil
}

func loadDatasetConfig() *DatasetConfig {
	return &DatasetConfig{
		Path:           getEnvOrDefault("DATASET_PATH", ""),
		SyntheticFaces: getEnvIntOrDefault("SYNTHETIC_FACES", 400),
		SyntheticSeed:  int64(getEnvIntOrDefault("SYNTHETIC_SEED", 42)),
		SyntheticNoise: getEnvFloatOrDefault("SYNTHETIC_NOISE", 0.02),
	}
}

func loadOutputConfig() *OutputConfig {
	return &OutputConfig{
		Dir:         getEnvOrDefault("OUTPUT_DIR", "."),
		PanelSizePt: getEnvFloatOrDefault("PANEL_SIZE_PT", 240),
	}
}

// Validate checks the settings that do not depend on the dataset
func (c *Config) Validate() error {
	e := c.Experiment
	switch {
	case e.ImageHeight < 1 || e.ImageWidth < 1:
		return errors.ConfigInvalid(fmt.Sprintf("image shape %dx%d must be at least 1x1", e.ImageHeight, e.ImageWidth))
	case e.MaskSize < 1:
		return errors.ConfigInvalid("MASK_SIZE must be at least 1")
	case e.MaskSize > e.ImageHeight || e.MaskSize > e.ImageWidth:
		return errors.ConfigInvalid(fmt.Sprintf("MASK_SIZE %d does not fit a %dx%d image", e.MaskSize, e.ImageHeight, e.ImageWidth))
	case e.HiddenLayerWidth < 1:
		return errors.ConfigInvalid("HIDDEN_LAYER_WIDTH must be at least 1")
	case len(e.RowIndices) == 0:
		return errors.ConfigInvalid("ROW_INDICES must name at least one row")
	}
	for _, rank := range e.Ranks {
		if rank < 1 {
			return errors.ConfigInvalid(fmt.Sprintf("rank %d must be at least 1", rank))
		}
	}
	for _, method := range e.FillMethods {
		if !experiment.IsFillMethod(method) {
			return errors.ConfigInvalid(fmt.Sprintf("fill method %q must be one of %s", method, strings.Join(experiment.FillMethods(), ", ")))
		}
	}
	for _, row := range e.RowIndices {
		if row < 0 {
			return errors.ConfigInvalid(fmt.Sprintf("row index %d must not be negative", row))
		}
	}
	if c.Dataset.Path == "" && c.Dataset.SyntheticFaces < 1 {
		return errors.ConfigInvalid("SYNTHETIC_FACES must be at least 1")
	}
	if c.Output.PanelSizePt <= 0 {
		return errors.ConfigInvalid("PANEL_SIZE_PT must be positive")
	}
	return nil
}

// Shape returns the configured image grid
func (c *Config) Shape() matrix.Shape {
	return matrix.Shape{Height: c.Experiment.ImageHeight, Width: c.Experiment.ImageWidth}
}

// Grid returns the configured comparison grid
func (c *Config) Grid() []experiment.Configuration {
	return experiment.DefaultGrid(c.Experiment.Ranks, c.Experiment.FillMethods, c.Experiment.HiddenLayerWidth)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvListOrDefault splits a comma separated value. A value of "-"
// yields an empty list.
func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if value == "-" {
		return []string{}
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func getEnvIntListOrDefault(key string, defaultValue []int) ([]int, error) {
	items := getEnvListOrDefault(key, nil)
	if items == nil {
		return defaultValue, nil
	}
	ints, err := ParseIntList(items)
	if err != nil {
		return nil, errors.ConfigInvalid(fmt.Sprintf("%s: %v", key, err))
	}
	return ints, nil
}

// ParseIntList converts every item to an int
func ParseIntList(items []string) ([]int, error) {
	ints := make([]int, 0, len(items))
	for _, item := range items {
		n, err := strconv.Atoi(strings.TrimSpace(item))
		if err != nil {
			return nil, fmt.Errorf("%q is not an integer", item)
		}
		ints = append(ints, n)
	}
	return ints, nil
}
