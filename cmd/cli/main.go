package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"goimpute/adapters/imputer"
	"goimpute/domain/experiment"
	"goimpute/internal/config"
	"goimpute/internal/container"
	"goimpute/internal/errors"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	_ = godotenv.Load()

	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "[%s] %v\n", errors.GetCode(err), err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "goimpute-cli",
		Short: "Mask face images, run matrix completion algorithms and render comparisons",
	}

	rootCmd.AddCommand(
		newRunCmd(),
		newMaskCmd(),
		newAlgorithmsCmd(),
	)
	return rootCmd
}

// experimentFlags override the environment configuration.
type experimentFlags struct {
	seed        int64
	maskSize    int
	ranks       []int
	fillMethods []string
	rows        []int
	dataset     string
	outputDir   string
	failFast    bool
	only        []string
}

func (f *experimentFlags) register(cmd *cobra.Command, withGrid bool) {
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed for mask placement (overrides RANDOM_SEED)")
	cmd.Flags().IntVar(&f.maskSize, "mask-size", 0, "Edge length of the missing square (overrides MASK_SIZE)")
	cmd.Flags().IntSliceVar(&f.rows, "rows", nil, "Row indices to render (overrides ROW_INDICES)")
	cmd.Flags().StringVar(&f.dataset, "dataset", "", "Image directory or CSV/XLSX table (overrides DATASET_PATH)")
	cmd.Flags().StringVar(&f.outputDir, "out", "", "Output directory (overrides OUTPUT_DIR)")
	if withGrid {
		cmd.Flags().IntSliceVar(&f.ranks, "ranks", nil, "Ranks to sweep (overrides RANKS)")
		cmd.Flags().StringSliceVar(&f.fillMethods, "fill", nil, "SimpleFill methods (overrides FILL_METHODS)")
		cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "Stop at the first failing configuration")
		cmd.Flags().StringSliceVar(&f.only, "only", nil, "Run only these algorithms (e.g. SoftImpute,nn)")
	}
}

func (f *experimentFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		cfg.Experiment.Seed = f.seed
	}
	if flags.Changed("mask-size") {
		cfg.Experiment.MaskSize = f.maskSize
	}
	if flags.Changed("rows") {
		cfg.Experiment.RowIndices = f.rows
	}
	if flags.Changed("dataset") {
		cfg.Dataset.Path = f.dataset
	}
	if flags.Changed("out") {
		cfg.Output.Dir = f.outputDir
	}
	if flags.Changed("ranks") {
		cfg.Experiment.Ranks = f.ranks
	}
	if flags.Changed("fill") {
		cfg.Experiment.FillMethods = f.fillMethods
	}
	if f.failFast {
		cfg.Experiment.ContinueOnFailure = false
	}
	return cfg.Validate()
}

// filterGrid keeps the configurations whose algorithm is listed in only.
func filterGrid(grid []experiment.Configuration, only []string) ([]experiment.Configuration, error) {
	if len(only) == 0 {
		return grid, nil
	}
	keep := make(map[experiment.Algorithm]bool)
	for _, name := range only {
		alg, err := experiment.ParseAlgorithm(name)
		if err != nil {
			return nil, err
		}
		keep[alg] = true
	}
	var filtered []experiment.Configuration
	for _, cfg := range grid {
		if keep[cfg.Algorithm] {
			filtered = append(filtered, cfg)
		}
	}
	return filtered, nil
}

func newRunCmd() *cobra.Command {
	var flags experimentFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the full comparison grid",
		Long: `Load the face dataset, mask one square per image, run every configured
completion algorithm and write {label}_{row}.png triptychs.

Example: goimpute-cli run --seed 3 --ranks 5,20 --fill mean --out ./out`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			experimentConfig := c.ExperimentConfig()
			if experimentConfig.Grid, err = filterGrid(experimentConfig.Grid, flags.only); err != nil {
				return err
			}
			service := c.NewExperimentService(experimentConfig)

			report, err := service.Run(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Run %s: %s (mask fingerprint %s)\n", report.RunID, report.Status(), report.Fingerprint.Short())
			for _, o := range report.Outcomes {
				status := "ok"
				if !o.Succeeded() {
					status = "FAILED: " + o.Err.Error()
				}
				fmt.Fprintf(out, "  %-28s %8s  %s\n", o.Label, o.Duration.Round(time.Millisecond), status)
			}
			return nil
		},
	}

	flags.register(cmd, true)
	return cmd
}

func newMaskCmd() *cobra.Command {
	var flags experimentFlags

	cmd := &cobra.Command{
		Use:   "mask",
		Short: "Render only the original and incomplete baseline images",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if err := flags.apply(cmd, cfg); err != nil {
				return err
			}

			c, err := container.New(cfg)
			if err != nil {
				return err
			}
			masked, err := c.Experiment.Prepare(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Masked %d images from %s, fingerprint %s\n", masked.Faces.Count(), masked.Faces.Source, masked.Fingerprint)
			return nil
		},
	}

	flags.register(cmd, false)
	return cmd
}

func newAlgorithmsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List the available completion algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ALGORITHM\tOPTIONS\tDESCRIPTION")
			for _, info := range imputer.Describe() {
				fmt.Fprintf(w, "%s\t%s\t%s\n", info.Algorithm, strings.Join(info.Options, ","), info.Description)
			}
			fmt.Fprintf(w, "\nfill methods: %s\n", strings.Join(imputer.FillMethods(), ", "))
			return w.Flush()
		},
	}
}
