package runner

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/willpenman/llm-philosophy/providers/ai"
)

// ModelSpec identifies one model to run in a batch: the storage identity
// (provider key and model spelling used in records) plus the provider that
// serves it on the wire.
type ModelSpec struct {
	Provider    ai.Provider
	StorageKey  string // storage provider key ("openai", "deepseek", ...)
	Model       string // model id passed to BuildRequest
	DisplayName string
}

// BatchStatus is the terminal state of one batch job.
type BatchStatus string

const (
	StatusCompleted BatchStatus = "completed"
	StatusFailed    BatchStatus = "failed"
	StatusSkipped   BatchStatus = "skipped"
)

// BatchResult is the outcome of one batch job. A failed job carries its
// error; the batch itself never aborts on job failure.
type BatchResult struct {
	Spec     ModelSpec
	Status   BatchStatus
	Run      *RunResult
	Err      error
	Duration time.Duration
}

// BatchOptions configures a batch run. Run options (fixtures, store,
// sampling) are taken from Base, with provider and model substituted per
// job.
type BatchOptions struct {
	Base  Options
	Specs []ModelSpec

	// Workers bounds concurrent jobs; values below one run sequentially.
	Workers int
}

// EnumerateModels flattens every provider's catalog into batch specs, using
// each provider's storage naming.
func EnumerateModels(providers []ai.Provider) []ModelSpec {
	var specs []ModelSpec
	for _, provider := range providers {
		for _, id := range SortedModelIDs(provider) {
			specs = append(specs, ModelSpec{
				Provider:    provider,
				StorageKey:  storageProvider(provider, id),
				Model:       storageModel(provider, id),
				DisplayName: provider.Catalog().DisplayName(id),
			})
		}
	}
	return specs
}

// FilterModels narrows specs by provider names and model names. Nil or
// ["ALL"] model filters keep everything; model names match the storage
// spelling or the display name.
func FilterModels(specs []ModelSpec, models, providers []string) []ModelSpec {
	filtered := specs
	if len(providers) > 0 {
		wanted := make(map[string]bool, len(providers))
		for _, name := range providers {
			wanted[name] = true
		}
		var kept []ModelSpec
		for _, spec := range filtered {
			if wanted[spec.Provider.Name()] || wanted[spec.StorageKey] {
				kept = append(kept, spec)
			}
		}
		filtered = kept
	}

	if len(models) == 0 || (len(models) == 1 && models[0] == "ALL") {
		return filtered
	}
	wanted := make(map[string]bool, len(models))
	for _, name := range models {
		wanted[name] = true
	}
	var kept []ModelSpec
	for _, spec := range filtered {
		if wanted[spec.Model] || wanted[spec.DisplayName] {
			kept = append(kept, spec)
		}
	}
	return kept
}

// RunBatch executes every spec against the same puzzle with a bounded worker
// pool. Results come back in spec order; a job failure is recorded in its
// result and never stops the other jobs.
func RunBatch(ctx context.Context, opts BatchOptions) []BatchResult {
	results := make([]BatchResult, len(opts.Specs))

	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(opts.Specs) {
		workers = len(opts.Specs)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for index := range jobs {
				results[index] = runJob(ctx, opts.Base, opts.Specs[index])
			}
		}()
	}

	for index := range opts.Specs {
		jobs <- index
	}
	close(jobs)
	wg.Wait()

	return results
}

func runJob(ctx context.Context, base Options, spec ModelSpec) BatchResult {
	if err := ctx.Err(); err != nil {
		return BatchResult{Spec: spec, Status: StatusSkipped, Err: err}
	}

	jobOpts := base
	jobOpts.Provider = spec.Provider
	jobOpts.Model = spec.Model
	// Parallel workers share one console; per-delta progress would
	// interleave.
	jobOpts.Quiet = true

	started := time.Now()
	runResult, err := Run(ctx, jobOpts)
	duration := time.Since(started)

	if err != nil {
		return BatchResult{
			Spec:     spec,
			Status:   StatusFailed,
			Run:      runResult,
			Err:      fmt.Errorf("%s: %w", spec.DisplayName, err),
			Duration: duration,
		}
	}
	return BatchResult{Spec: spec, Status: StatusCompleted, Run: runResult, Duration: duration}
}
