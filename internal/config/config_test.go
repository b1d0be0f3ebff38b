package config

import (
	"testing"

	"goimpute/domain/experiment"
	"goimpute/internal/errors"
)

var configKeys = []string{
	"MASK_SIZE", "IMAGE_HEIGHT", "IMAGE_WIDTH", "RANDOM_SEED", "RANKS", "FILL_METHODS",
	"ROW_INDICES", "HIDDEN_LAYER_WIDTH", "CONTINUE_ON_FAILURE", "OUTPUT_DIR", "PANEL_SIZE_PT",
	"DATASET_PATH", "SYNTHETIC_FACES", "SYNTHETIC_SEED", "SYNTHETIC_NOISE", "LOG_LEVEL",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	config, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	e := config.Experiment
	if e.MaskSize != 32 || e.ImageHeight != 64 || e.ImageWidth != 64 || e.Seed != 0 {
		t.Errorf("Unexpected masking defaults: %+v", e)
	}
	if len(e.Ranks) != 2 || e.Ranks[0] != 5 || e.Ranks[1] != 50 {
		t.Errorf("Expected ranks [5 50], got %v", e.Ranks)
	}
	if len(e.FillMethods) != 2 || e.FillMethods[0] != "mean" || e.FillMethods[1] != "median" {
		t.Errorf("Expected fill methods [mean median], got %v", e.FillMethods)
	}
	if len(e.RowIndices) != 4 || e.RowIndices[3] != 300 {
		t.Errorf("Expected rows [0 100 200 300], got %v", e.RowIndices)
	}
	if !e.ContinueOnFailure {
		t.Error("Expected continue-on-failure by default")
	}
	if config.Output.Dir != "." || config.Output.PanelSizePt != 240 {
		t.Errorf("Unexpected output defaults: %+v", config.Output)
	}
	if config.Dataset.Path != "" || config.Dataset.SyntheticFaces != 400 {
		t.Errorf("Unexpected dataset defaults: %+v", config.Dataset)
	}

	grid := config.Grid()
	if len(grid) != 11 {
		t.Fatalf("Expected 11 configurations, got %d", len(grid))
	}
	if grid[0].Label() != "SoftImpute" || grid[4].Label() != "nn_rank5" || grid[10].Label() != "simple_fill_median" {
		t.Errorf("Unexpected grid order: %v", grid)
	}
	if grid[4].Algorithm != experiment.AlgorithmAutoEncoder || grid[4].HiddenLayerSizes[0] != 1000 {
		t.Errorf("Unexpected autoencoder configuration: %+v", grid[4])
	}
	if config.Shape().Pixels() != 4096 {
		t.Errorf("Expected 4096 pixels, got %d", config.Shape().Pixels())
	}
}

func TestLoadOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("MASK_SIZE", "16")
	t.Setenv("RANKS", "3, 7")
	t.Setenv("FILL_METHODS", "-")
	t.Setenv("ROW_INDICES", "1,2")
	t.Setenv("CONTINUE_ON_FAILURE", "false")
	t.Setenv("RANDOM_SEED", "99")

	config, err := Load()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	e := config.Experiment
	if e.MaskSize != 16 || e.Seed != 99 || e.ContinueOnFailure {
		t.Errorf("Overrides not applied: %+v", e)
	}
	if len(e.Ranks) != 2 || e.Ranks[1] != 7 {
		t.Errorf("Expected ranks [3 7], got %v", e.Ranks)
	}
	if len(e.FillMethods) != 0 {
		t.Errorf("Expected no fill methods, got %v", e.FillMethods)
	}
	if len(config.Grid()) != 9 {
		t.Errorf("Expected 9 configurations, got %d", len(config.Grid()))
	}
}

func TestLoadRejectsInvalidSettings(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"mask larger than image", "MASK_SIZE", "65"},
		{"zero mask", "MASK_SIZE", "0"},
		{"malformed ranks", "RANKS", "5,fifty"},
		{"zero rank", "RANKS", "0"},
		{"negative row", "ROW_INDICES", "-1"},
		{"malformed rows", "ROW_INDICES", "a"},
		{"zero hidden width", "HIDDEN_LAYER_WIDTH", "0"},
		{"negative panel", "PANEL_SIZE_PT", "-3"},
		{"unknown fill method", "FILL_METHODS", "mean,mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			if err == nil {
				t.Fatalf("Expected error for %s=%s", tt.key, tt.value)
			}
			if !errors.HasCode(err, errors.CodeConfigInvalid) {
				t.Errorf("Expected %s, got %v", errors.CodeConfigInvalid, err)
			}
		})
	}
}
