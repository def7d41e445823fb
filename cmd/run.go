package cmd

import (
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/willpenman/llm-philosophy/core/cost"
	"github.com/willpenman/llm-philosophy/internal/utils"
	"github.com/willpenman/llm-philosophy/providers/ai"
	"github.com/willpenman/llm-philosophy/runner"
)

var runFlags struct {
	puzzle          string
	model           string
	provider        string
	maxOutputTokens int
	temperature     float64
	topP            float64
	topK            int
	seed            int
	reasoningEffort string
	thinkingBudget  int
	thinkingLevel   string
	noStream        bool
	timeoutSeconds  int
	settings        string
	dryRun          bool
	keepPartial     bool
	debugSSE        bool
	quiet           bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one puzzle against one model",
	Long:  `Sends a single puzzle fixture to one model, reconstructs the response and records the transcript with usage and cost.`,
	RunE:  runRun,
}

func init() {
	flags := runCmd.Flags()
	flags.StringVarP(&runFlags.puzzle, "puzzle", "p", "", "puzzle fixture name (required)")
	flags.StringVarP(&runFlags.model, "model", "m", "", "model id or alias (required)")
	flags.StringVar(&runFlags.provider, "provider", "", "provider name, resolved from the model when omitted")
	flags.IntVar(&runFlags.maxOutputTokens, "max-output-tokens", 0, "output token ceiling, catalog default when omitted")
	flags.Float64Var(&runFlags.temperature, "temperature", 0, "sampling temperature")
	flags.Float64Var(&runFlags.topP, "top-p", 0, "nucleus sampling mass")
	flags.IntVar(&runFlags.topK, "top-k", 0, "top-k sampling cutoff")
	flags.IntVar(&runFlags.seed, "seed", 0, "sampling seed where supported")
	flags.StringVar(&runFlags.reasoningEffort, "reasoning-effort", "", `reasoning effort ("low", "medium", "high")`)
	flags.IntVar(&runFlags.thinkingBudget, "thinking-budget", 0, "thinking token allowance")
	flags.StringVar(&runFlags.thinkingLevel, "thinking-level", "", `thinking level ("LOW", "HIGH")`)
	flags.BoolVar(&runFlags.noStream, "no-stream", false, "request a single response instead of a stream")
	flags.IntVar(&runFlags.timeoutSeconds, "timeout", 0, "request timeout in seconds, config default when omitted")
	flags.StringVar(&runFlags.settings, "settings", "", "label for a non-default configuration, becomes part of the filename")
	flags.BoolVar(&runFlags.dryRun, "dry-run", false, "record the request and stop before sending")
	flags.BoolVar(&runFlags.keepPartial, "keep-partial", false, "record partial output when a stream fails midway")
	flags.BoolVar(&runFlags.debugSSE, "debug-sse", false, "capture raw stream events instead of recording")
	flags.BoolVarP(&runFlags.quiet, "quiet", "q", false, "suppress progress output")

	runCmd.MarkFlagRequired("puzzle")
	runCmd.MarkFlagRequired("model")
}

func runRun(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	providers := buildProviders()
	var provider ai.Provider
	var err error
	if runFlags.provider != "" {
		provider, err = runner.ResolveProvider(providers, runFlags.provider)
	} else {
		provider, err = runner.ResolveProviderForModel(providers, runFlags.model)
	}
	if err != nil {
		return err
	}

	activeStore, closeStore, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	opts := runner.Options{
		Provider:         provider,
		Store:            activeStore,
		PuzzleName:       runFlags.puzzle,
		PuzzleDir:        cfg.Paths.PuzzleDir,
		SystemPromptPath: cfg.Paths.SystemPromptPath,
		Model:            runFlags.model,
		MaxOutputTokens:  runFlags.maxOutputTokens,
		Reasoning:        reasoningFromFlags(cmd),
		Stream:           cfg.Defaults.Stream && !runFlags.noStream,
		Timeout:          cfg.Timeout(),
		SpecialSettings:  runFlags.settings,
		DryRun:           runFlags.dryRun,
		KeepPartial:      runFlags.keepPartial,
		Quiet:            runFlags.quiet,
	}
	if cmd.Flags().Changed("temperature") {
		opts.Temperature = utils.Ptr(runFlags.temperature)
	}
	if cmd.Flags().Changed("top-p") {
		opts.TopP = utils.Ptr(runFlags.topP)
	}
	if cmd.Flags().Changed("top-k") {
		opts.TopK = utils.Ptr(runFlags.topK)
	}
	if cmd.Flags().Changed("seed") {
		opts.Seed = utils.Ptr(runFlags.seed)
	}
	if runFlags.timeoutSeconds > 0 {
		opts.Timeout = time.Duration(runFlags.timeoutSeconds) * time.Second
	}
	if runFlags.debugSSE {
		opts.DebugSSEDir = cfg.Paths.DebugSSEDir
	}

	result, err := runner.Run(ctx, opts)
	if err != nil {
		if result != nil && result.Result != nil && result.Result.Incomplete {
			color.Yellow("Stream ended early: %v", err)
		} else {
			return err
		}
	}

	printRunResult(result)
	return nil
}

func reasoningFromFlags(cmd *cobra.Command) *ai.ReasoningSpec {
	changed := cmd.Flags().Changed
	if !changed("reasoning-effort") && !changed("thinking-budget") && !changed("thinking-level") {
		return nil
	}
	return &ai.ReasoningSpec{
		Effort:          runFlags.reasoningEffort,
		BudgetTokens:    runFlags.thinkingBudget,
		ThinkingLevel:   runFlags.thinkingLevel,
		IncludeThoughts: runFlags.thinkingLevel != "",
	}
}

func printRunResult(result *runner.RunResult) {
	if result == nil {
		return
	}
	if result.TranscriptPath != "" {
		color.Green("Saved transcript: %s", result.TranscriptPath)
	}
	if result.SSEEventPath != "" {
		color.Green("Saved raw stream events: %s", result.SSEEventPath)
	}
	if result.Cost != nil {
		fmt.Println(cost.FormatCostLine(result.Cost, "output", result.Cost.ReasoningCost > 0))
	}
	if result.Duration > 0 {
		fmt.Printf("Completed in %s\n", result.Duration.Round(time.Millisecond))
	}
}
