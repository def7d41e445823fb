// Package store persists evaluation runs: the request payload before the
// call, and the full response record plus a human-readable transcript after.
// Backends share one record shape keyed by run id; FileStore is the default,
// with Postgres, Redis and S3-compatible backends for shared deployments.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/willpenman/llm-philosophy/internal/utils"
)

// RunMeta identifies one evaluation run across every backend.
type RunMeta struct {
	RunID           string    `json:"run_id"`
	CreatedAt       time.Time `json:"created_at"`
	Provider        string    `json:"provider"`
	Model           string    `json:"model"`
	PuzzleName      string    `json:"puzzle_name"`
	PuzzleVersion   string    `json:"puzzle_version"`
	SpecialSettings string    `json:"special_settings"`
}

// ResponseRecord carries everything recorded after a completed call. The
// request payload is repeated so each response line is self-contained.
type ResponseRecord struct {
	Request  json.RawMessage `json:"request"`
	Response json.RawMessage `json:"response"`

	// Derived holds computed values (timing, price schedule, usage, cost)
	// that are not part of either wire payload.
	Derived map[string]any `json:"derived,omitempty"`

	InputText  string `json:"-"`
	OutputText string `json:"-"`

	// Display fields for the transcript.
	ModelAlias        string `json:"-"`
	ProviderAlias     string `json:"-"`
	PuzzleTitle       string `json:"-"`
	PuzzleTitlePrefix string `json:"-"`
}

// StoredText is the transcript a backend produced for a response.
type StoredText struct {
	Path string
	Text string
}

// Store is the persistence surface the runner writes through.
type Store interface {
	// RecordRequest appends the request payload of record before the call
	// is sent, so failed runs still leave their request behind.
	RecordRequest(ctx context.Context, meta RunMeta, requestPayload json.RawMessage) error

	// RecordResponse appends the full response record and writes the
	// human-readable transcript, returning it.
	RecordResponse(ctx context.Context, meta RunMeta, rec ResponseRecord) (*StoredText, error)
}

// NormalizeSpecialSettings slugifies a free-form settings label; empty or
// "default" both normalize to "default".
func NormalizeSpecialSettings(value string) string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || strings.EqualFold(trimmed, "default") {
		return "default"
	}
	slug := strings.ToLower(utils.Slugify(trimmed))
	if slug == "" {
		return "default"
	}
	return slug
}

// FormatInputText renders the combined prompt as it appears in transcripts.
func FormatInputText(systemText, puzzleText string) string {
	return fmt.Sprintf("System:\n%s\n\nUser:\n%s", systemText, puzzleText)
}

// TranscriptFilename is the per-run transcript name:
// {settings}-{puzzle}-v{version}-{timestamp}.md with a UTC timestamp.
func TranscriptFilename(meta RunMeta) string {
	version := meta.PuzzleVersion
	if version == "" {
		version = "unknown"
	}
	settings := NormalizeSpecialSettings(meta.SpecialSettings)
	timestamp := meta.CreatedAt.UTC().Format("2006-01-02T150405Z")
	return fmt.Sprintf("%s-%s-v%s-%s.md", settings, meta.PuzzleName, version, timestamp)
}

// RenderTranscript produces the human-readable transcript body shared by all
// backends.
func RenderTranscript(meta RunMeta, rec ResponseRecord) string {
	displayName := rec.PuzzleTitle
	if displayName == "" {
		displayName = meta.PuzzleName
	}
	modelDisplay := rec.ModelAlias
	if modelDisplay == "" {
		modelDisplay = meta.Model
	}
	providerDisplay := rec.ProviderAlias
	if providerDisplay == "" {
		providerDisplay = meta.Provider
	}
	prefix := rec.PuzzleTitlePrefix
	if prefix == "" {
		prefix = "Philosophy problem"
	}

	settingsDisplay := ""
	if NormalizeSpecialSettings(meta.SpecialSettings) != "default" {
		settingsDisplay = ", " + meta.SpecialSettings
	}

	lines := []string{
		fmt.Sprintf("%s: %s", prefix, displayName),
		fmt.Sprintf("Model: %s (%s)%s", modelDisplay, providerDisplay, settingsDisplay),
		fmt.Sprintf("Completed: %s", meta.CreatedAt.UTC().Format("Jan 02, 2006")),
		"",
		"---- INPUT ----",
		rec.InputText,
		"",
		fmt.Sprintf("---- %s'S OUTPUT ----", modelDisplay),
		rec.OutputText,
	}
	return strings.Join(lines, "\n")
}

// requestLine and responseLine are the JSONL record shapes. Every line is
// self-contained: metadata plus payloads.
type requestLine struct {
	RunMeta
	Request json.RawMessage `json:"request"`
}

type responseLine struct {
	RunMeta
	Request  json.RawMessage `json:"request"`
	Response json.RawMessage `json:"response"`
	Derived  map[string]any  `json:"derived,omitempty"`
}

func marshalRequestLine(meta RunMeta, requestPayload json.RawMessage) ([]byte, error) {
	return json.Marshal(requestLine{RunMeta: meta, Request: requestPayload})
}

func marshalResponseLine(meta RunMeta, rec ResponseRecord) ([]byte, error) {
	return json.Marshal(responseLine{
		RunMeta:  meta,
		Request:  rec.Request,
		Response: rec.Response,
		Derived:  rec.Derived,
	})
}
