// Package runner orchestrates one evaluation: load fixtures, build the
// provider request, record it, perform the call with live progress, derive
// usage and cost, and record the response. Batch fan-out over many models
// lives in batch.go.
package runner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/willpenman/llm-philosophy/core/cost"
	"github.com/willpenman/llm-philosophy/core/puzzle"
	"github.com/willpenman/llm-philosophy/internal/utils"
	"github.com/willpenman/llm-philosophy/providers/ai"
	"github.com/willpenman/llm-philosophy/store"
)

// Options configures one evaluation run.
type Options struct {
	Provider ai.Provider
	Store    store.Store

	PuzzleName       string
	PuzzleDir        string
	SystemPromptPath string

	Model           string
	MaxOutputTokens int
	Temperature     *float64
	TopP            *float64
	TopK            *int
	Seed            *int
	Reasoning       *ai.ReasoningSpec
	Stream          bool
	Timeout         time.Duration

	// SpecialSettings labels a non-default configuration; it becomes part
	// of the transcript filename.
	SpecialSettings string

	// DryRun records the request and stops before any network traffic.
	DryRun bool

	// KeepPartial records an incomplete result delivered alongside a
	// stream failure instead of discarding it.
	KeepPartial bool

	// DebugSSEDir, when set, bypasses the store and appends every raw
	// stream event to a timestamped JSONL file under this directory.
	DebugSSEDir string

	// Quiet suppresses console progress output.
	Quiet bool

	// Out receives console output; defaults to os.Stdout.
	Out io.Writer
}

// RunResult is the outcome of one evaluation run.
type RunResult struct {
	RunID          string
	RequestPayload json.RawMessage
	Result         *ai.Result
	Usage          *cost.TokenBreakdown
	Cost           *cost.CostBreakdown
	TranscriptPath string
	SSEEventPath   string
	Duration       time.Duration
}

// outputIncludesReasoning records, per provider, whether the reported output
// token count already contains the reasoning tokens. Gemini reports thought
// tokens separately from candidate tokens.
var outputIncludesReasoning = map[string]bool{
	"openai":    true,
	"anthropic": true,
	"grok":      true,
	"fireworks": true,
	"gemini":    false,
}

// Run executes one evaluation end to end.
func Run(ctx context.Context, opts Options) (*RunResult, error) {
	if opts.Provider == nil {
		return nil, fmt.Errorf("runner: provider is required")
	}
	if opts.Store == nil {
		return nil, fmt.Errorf("runner: store is required")
	}
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	systemPrompt, loadedPuzzle, err := loadFixtures(opts)
	if err != nil {
		return nil, err
	}

	provider := opts.Provider
	runID := newRunID()
	createdAt := time.Now().UTC()

	spec := ai.RequestSpec{
		SystemPrompt:    systemPrompt.Text,
		UserPrompt:      loadedPuzzle.Text,
		Model:           opts.Model,
		MaxOutputTokens: opts.MaxOutputTokens,
		Temperature:     opts.Temperature,
		TopP:            opts.TopP,
		TopK:            opts.TopK,
		Seed:            opts.Seed,
		Reasoning:       opts.Reasoning,
		Stream:          opts.Stream,
	}

	request, err := provider.BuildRequest(spec)
	if err != nil {
		return nil, err
	}
	requestPayload, err := request.Payload()
	if err != nil {
		return nil, fmt.Errorf("runner: serializing request: %w", err)
	}
	slog.Debug("request built", "provider", provider.Name(), "model", request.Model,
		"body", utils.JSONToString(request.Body))

	meta := store.RunMeta{
		RunID:           runID,
		CreatedAt:       createdAt,
		Provider:        storageProvider(provider, request.Model),
		Model:           storageModel(provider, request.Model),
		PuzzleName:      loadedPuzzle.Name,
		PuzzleVersion:   loadedPuzzle.Version,
		SpecialSettings: store.NormalizeSpecialSettings(opts.SpecialSettings),
	}

	// Debug-SSE runs bypass the store: they exist to capture raw events,
	// not to produce records.
	debugMode := opts.DebugSSEDir != "" && request.Stream

	if !debugMode {
		if err := opts.Store.RecordRequest(ctx, meta, requestPayload); err != nil {
			return nil, err
		}
	}

	runResult := &RunResult{RunID: runID, RequestPayload: requestPayload}
	if opts.DryRun {
		return runResult, nil
	}

	inputText := store.FormatInputText(systemPrompt.Text, loadedPuzzle.Text)
	if !opts.Quiet {
		fmt.Fprintf(out, "requesting puzzle=%s model=%s\n", loadedPuzzle.Name, request.Model)
		if estimate := EstimateTokens(inputText); estimate > 0 {
			fmt.Fprintf(out, "Estimated input tokens: %d\n", estimate)
		}
	}

	callOpts := ai.CallOptions{Timeout: opts.Timeout}
	if !opts.Quiet {
		callOpts.Observer = newProgressPrinter(out, request.MaxOutputTokens, "tokens")
	}

	var sseSink *os.File
	if debugMode {
		sseSink, err = openSSESink(opts.DebugSSEDir, provider.Name(), request.Model, runID, createdAt)
		if err != nil {
			return nil, err
		}
		defer sseSink.Close()
		callOpts.DebugSink = sseSink
		runResult.SSEEventPath = sseSink.Name()
	}

	timer := utils.NewTimer()
	result, sendErr := provider.Send(ctx, request, callOpts)
	timer.Stop()
	completedAt := time.Now().UTC()
	runResult.Duration = timer.Elapsed()
	if !opts.Quiet {
		fmt.Fprintln(out)
	}

	if sendErr != nil && (result == nil || !result.Incomplete || !opts.KeepPartial) {
		return runResult, sendErr
	}
	runResult.Result = result

	usage := provider.ExtractUsage(result.Payload)
	runResult.Usage = usage
	if !opts.Quiet && usage != nil {
		fmt.Fprintf(out, "Actual tokens: thinking=%s, output=%s\n",
			tokenLabel(usage.ReasoningTokens), tokenLabel(usage.OutputTokens))
	}

	schedule := provider.Catalog().PriceSchedule(request.Model)
	runResult.Cost = cost.ComputeBreakdown(usage, schedule, outputIncludesReasoning[provider.Name()])

	derived := map[string]any{
		"timing": map[string]any{
			"request_started_at":   createdAt.Format(time.RFC3339),
			"request_completed_at": completedAt.Format(time.RFC3339),
			"duration_ms":          runResult.Duration.Milliseconds(),
		},
		"model_alias": provider.Catalog().DisplayName(request.Model),
	}
	if schedule != nil {
		derived["price_schedule"] = schedule
	}
	if usage != nil {
		derived["usage"] = usage
	}
	if runResult.Cost != nil {
		derived["cost"] = runResult.Cost
	}
	if result.Incomplete {
		derived["incomplete"] = true
	}

	if debugMode {
		return runResult, sendErr
	}

	stored, err := opts.Store.RecordResponse(ctx, meta, store.ResponseRecord{
		Request:           requestPayload,
		Response:          result.Payload,
		Derived:           derived,
		InputText:         inputText,
		OutputText:        result.OutputText,
		ModelAlias:        provider.Catalog().DisplayName(request.Model),
		ProviderAlias:     providerAlias(provider, request.Model),
		PuzzleTitle:       loadedPuzzle.Title,
		PuzzleTitlePrefix: "Philosophy problem",
	})
	if err != nil {
		return runResult, err
	}
	runResult.TranscriptPath = stored.Path

	// A kept partial still surfaces its stream error to the caller.
	return runResult, sendErr
}

func loadFixtures(opts Options) (*puzzle.SystemPrompt, *puzzle.Puzzle, error) {
	systemPrompt, err := puzzle.LoadSystemPrompt(opts.SystemPromptPath)
	if err != nil {
		return nil, nil, err
	}
	loadedPuzzle, err := puzzle.Load(opts.PuzzleDir, opts.PuzzleName)
	if err != nil {
		return nil, nil, err
	}
	return systemPrompt, loadedPuzzle, nil
}

func newRunID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// storageModel maps the wire model id to the spelling stored in records,
// honoring the provider's resolver when it has one.
func storageModel(provider ai.Provider, model string) string {
	if resolver, ok := provider.(ai.ModelResolver); ok {
		return resolver.StorageModelName(model)
	}
	return model
}

// storageProvider is the provider key stored in records. Aggregator
// providers attribute hosted models to their upstream lab via the alias
// lookup in batch.go; for direct providers it is just the name.
func storageProvider(provider ai.Provider, model string) string {
	if key := StorageProviderKey(provider, model); key != "" {
		return key
	}
	return provider.Name()
}

func providerAlias(provider ai.Provider, model string) string {
	if aliaser, ok := provider.(ai.ProviderAliaser); ok {
		if alias := aliaser.DisplayProviderForModel(model); alias != "" {
			return alias
		}
	}
	return provider.DisplayName()
}

func tokenLabel(value *int) string {
	if value == nil {
		return "unknown"
	}
	return fmt.Sprintf("%d", *value)
}

func openSSESink(dir, provider, model, runID string, createdAt time.Time) (*os.File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("runner: creating debug dir: %w", err)
	}
	name := fmt.Sprintf("%s-sse-%s-%s-%s.jsonl",
		provider, utils.Slugify(model), runID, createdAt.Format("2006-01-02T150405Z"))
	file, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, fmt.Errorf("runner: creating debug event file: %w", err)
	}
	return file, nil
}
