package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"goimpute/domain/core"
	"goimpute/domain/experiment"
	"goimpute/internal/config"
	"goimpute/internal/errors"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// useSmallDataset points the configuration at a few synthetic 8×8 faces.
func useSmallDataset(t *testing.T) {
	t.Helper()
	for key, value := range map[string]string{
		"DATASET_PATH":        "",
		"SYNTHETIC_FACES":     "6",
		"IMAGE_HEIGHT":        "8",
		"IMAGE_WIDTH":         "8",
		"MASK_SIZE":           "4",
		"ROW_INDICES":         "0,3",
		"RANKS":               "",
		"FILL_METHODS":        "",
		"RANDOM_SEED":         "",
		"CONTINUE_ON_FAILURE": "",
		"HIDDEN_LAYER_WIDTH":  "",
		"OUTPUT_DIR":          "",
		"PANEL_SIZE_PT":       "72",
		"LOG_LEVEL":           "ERROR",
	} {
		t.Setenv(key, value)
	}
}

func assertFiles(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestFilterGrid(t *testing.T) {
	grid := experiment.DefaultGrid([]int{5}, []string{"mean"}, 10)

	all, err := filterGrid(grid, nil)
	require.NoError(t, err)
	assert.Len(t, all, len(grid))

	only, err := filterGrid(grid, []string{"softimpute", "nn"})
	require.NoError(t, err)
	var labels []string
	for _, cfg := range only {
		labels = append(labels, cfg.Label())
	}
	assert.Equal(t, []string{"SoftImpute", "SoftImpute_rank5", "nn_rank5"}, labels)

	_, err = filterGrid(grid, []string{"mice"})
	assert.ErrorIs(t, err, core.ErrUnknownAlgorithm)
}

func TestExperimentFlagsApply(t *testing.T) {
	useSmallDataset(t)
	dir := t.TempDir()

	var flags experimentFlags
	cmd := &cobra.Command{Use: "run"}
	flags.register(cmd, true)
	require.NoError(t, cmd.ParseFlags([]string{
		"--seed", "7", "--fail-fast", "--rows", "1,2", "--out", dir, "--ranks", "3", "--fill", "min",
	}))

	cfg, err := config.Load()
	require.NoError(t, err)
	require.True(t, cfg.Experiment.ContinueOnFailure)
	require.NoError(t, flags.apply(cmd, cfg))

	assert.Equal(t, int64(7), cfg.Experiment.Seed)
	assert.False(t, cfg.Experiment.ContinueOnFailure)
	assert.Equal(t, []int{1, 2}, cfg.Experiment.RowIndices)
	assert.Equal(t, dir, cfg.Output.Dir)
	assert.Equal(t, []int{3}, cfg.Experiment.Ranks)
	assert.Equal(t, []string{"min"}, cfg.Experiment.FillMethods)
	assert.Equal(t, 4, cfg.Experiment.MaskSize, "unset flags keep the environment value")
}

func TestExperimentFlagsRevalidate(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"mask larger than image", []string{"--mask-size", "9"}},
		{"unknown fill method", []string{"--fill", "mode"}},
		{"negative row", []string{"--rows=-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useSmallDataset(t)

			var flags experimentFlags
			cmd := &cobra.Command{Use: "run"}
			flags.register(cmd, true)
			require.NoError(t, cmd.ParseFlags(tt.args))

			cfg, err := config.Load()
			require.NoError(t, err)
			err = flags.apply(cmd, cfg)
			assert.True(t, errors.HasCode(err, errors.CodeConfigInvalid), "got %v", err)
		})
	}
}

func TestRunCommandWritesTriptychs(t *testing.T) {
	useSmallDataset(t)
	dir := t.TempDir()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"run", "--only", "SimpleFill", "--fill", "mean", "--out", dir, "--rows", "1,2"})

	require.NoError(t, root.ExecuteContext(context.Background()))

	assertFiles(t, dir,
		"original_1.png", "original_2.png",
		"incomplete_1.png", "incomplete_2.png",
		"simple_fill_mean_1.png", "simple_fill_mean_2.png",
	)
	_, err := os.Stat(filepath.Join(dir, "SoftImpute_1.png"))
	assert.True(t, os.IsNotExist(err))
	assert.Contains(t, out.String(), "simple_fill_mean")
	assert.Contains(t, out.String(), string(experiment.StatusSuccess))
}

func TestRunCommandRejectsUnknownAlgorithm(t *testing.T) {
	useSmallDataset(t)
	dir := t.TempDir()

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"run", "--only", "mice", "--out", dir})

	err := root.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, core.ErrUnknownAlgorithm)

	entries, readErr := os.ReadDir(dir)
	require.NoError(t, readErr)
	assert.Empty(t, entries)
}

func TestMaskCommandWritesBaselines(t *testing.T) {
	useSmallDataset(t)
	dir := t.TempDir()

	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"mask", "--out", dir, "--seed", "3"})

	require.NoError(t, root.ExecuteContext(context.Background()))

	assertFiles(t, dir, "original_0.png", "original_3.png", "incomplete_0.png", "incomplete_3.png")
	assert.Contains(t, out.String(), "Masked 6 images")
}

func TestAlgorithmsCommandListsEveryAlgorithm(t *testing.T) {
	cmd := newAlgorithmsCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{})

	require.NoError(t, cmd.Execute())
	for _, alg := range experiment.Algorithms() {
		assert.Contains(t, out.String(), string(alg))
	}
	assert.Contains(t, out.String(), "median")
}
