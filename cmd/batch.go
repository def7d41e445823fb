package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/willpenman/llm-philosophy/runner"
)

var batchFlags struct {
	puzzle      string
	models      []string
	providers   []string
	workers     int
	settings    string
	keepPartial bool
	dryRun      bool
}

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Run one puzzle against many models in parallel",
	Long:  `Fans one puzzle out over the selected models with a bounded worker pool. A failing model is reported and never stops the others.`,
	RunE:  runBatch,
}

func init() {
	flags := batchCmd.Flags()
	flags.StringVarP(&batchFlags.puzzle, "puzzle", "p", "", "puzzle fixture name (required)")
	flags.StringSliceVarP(&batchFlags.models, "models", "m", nil, `model ids or display names, or "ALL" (default)`)
	flags.StringSliceVar(&batchFlags.providers, "providers", nil, "restrict to these providers")
	flags.IntVarP(&batchFlags.workers, "workers", "w", 0, "parallel workers, config default when omitted")
	flags.StringVar(&batchFlags.settings, "settings", "", "label for a non-default configuration")
	flags.BoolVar(&batchFlags.keepPartial, "keep-partial", false, "record partial output when a stream fails midway")
	flags.BoolVar(&batchFlags.dryRun, "dry-run", false, "record requests and stop before sending")

	batchCmd.MarkFlagRequired("puzzle")
}

func runBatch(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	specs := runner.FilterModels(
		runner.EnumerateModels(buildProviders()),
		batchFlags.models, batchFlags.providers)
	if len(specs) == 0 {
		return fmt.Errorf("no models match the given filters")
	}

	activeStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	workers := batchFlags.workers
	if workers == 0 {
		workers = cfg.Defaults.Workers
	}

	fmt.Printf("Running puzzle %q against %d models with %d workers\n",
		batchFlags.puzzle, len(specs), workers)

	results := runner.RunBatch(ctx, runner.BatchOptions{
		Base: runner.Options{
			Store:            activeStore,
			PuzzleName:       batchFlags.puzzle,
			PuzzleDir:        cfg.Paths.PuzzleDir,
			SystemPromptPath: cfg.Paths.SystemPromptPath,
			Stream:           cfg.Defaults.Stream,
			Timeout:          cfg.Timeout(),
			SpecialSettings:  batchFlags.settings,
			KeepPartial:      batchFlags.keepPartial,
			DryRun:           batchFlags.dryRun,
		},
		Specs:   specs,
		Workers: workers,
	})

	var failed int
	for _, result := range results {
		switch result.Status {
		case runner.StatusCompleted:
			line := fmt.Sprintf("ok    %-40s %s", result.Spec.DisplayName, result.Duration.Round(time.Millisecond))
			if result.Run != nil && result.Run.Cost != nil {
				line += fmt.Sprintf("  $%.6f", result.Run.Cost.TotalCost)
			}
			color.Green("%s", line)
		case runner.StatusSkipped:
			color.Yellow("skip  %-40s %v", result.Spec.DisplayName, result.Err)
		default:
			failed++
			color.Red("fail  %-40s %v", result.Spec.DisplayName, result.Err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d models failed", failed, len(results))
	}
	return nil
}
