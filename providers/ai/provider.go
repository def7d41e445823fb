package ai

import (
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/willpenman/llm-philosophy/core/cost"
)

// RequestSpec carries the provider-independent inputs for one evaluation
// call. Sampling knobs are pointers so adapters can distinguish "unset" from
// an explicit zero.
type RequestSpec struct {
	SystemPrompt string
	UserPrompt   string
	Model        string

	// MaxOutputTokens is the overall output ceiling. Zero means "use the
	// model's catalog default"; adapters whose wire format requires the
	// field fail with a ConfigurationError when no default exists.
	MaxOutputTokens int

	Temperature *float64
	TopP        *float64
	TopK        *int
	Seed        *int

	// Reasoning enables the provider's deliberation phase. Leave nil to let
	// the adapter apply its model defaults for reasoning-capable models.
	Reasoning *ReasoningSpec

	// Stream selects SSE streaming; the reconstructed payload is equivalent
	// to the non-streaming response.
	Stream bool
}

// ReasoningSpec configures the deliberation phase. Adapters read only the
// fields their wire format understands and validate the rest.
type ReasoningSpec struct {
	Effort          string // OpenAI / Fireworks: "low", "medium", "high"
	Summary         string // OpenAI: reasoning summary verbosity ("detailed")
	BudgetTokens    int    // Anthropic: thinking token allowance
	ThinkingLevel   string // Gemini: "LOW", "HIGH"
	IncludeThoughts bool   // Gemini: return thought parts in the response
}

// Request is a built, provider-shaped wire payload together with the
// metadata the runner needs before sending. Body is never mutated after
// BuildRequest returns.
type Request struct {
	Provider string
	Model    string // model id as it appears on the wire
	Body     any    // provider wire struct, JSON-marshalable
	Stream   bool

	// MaxOutputTokens is the resolved ceiling (catalog default applied),
	// zero when the provider tolerates an unset ceiling.
	MaxOutputTokens int
}

// Payload serializes the wire body. This is the request payload of record
// handed to the persistence sink.
func (r *Request) Payload() (json.RawMessage, error) {
	return json.Marshal(r.Body)
}

// CallOptions carries per-call transport knobs. The zero value is usable:
// no observer, no debug sink, and the adapter's default timeout.
type CallOptions struct {
	// Timeout bounds the whole call including stream consumption. Zero
	// selects the adapter default. Timeout is a hard failure; there are no
	// partial-timeout or retry semantics.
	Timeout time.Duration

	// Observer receives streaming callbacks. May be nil. Calls are
	// synchronous, fire-and-forget, and panic-safe (see StreamObserver).
	Observer StreamObserver

	// DebugSink, when non-nil, receives every raw stream event verbatim as
	// newline-delimited JSON before reconstruction touches it.
	DebugSink io.Writer
}

// Result is the uniform outcome of a provider call: the provider-shaped
// response payload (raw or reconstructed, callers cannot tell which) plus
// the extracted texts.
type Result struct {
	Payload    json.RawMessage
	OutputText string
	Reasoning  string

	// Incomplete marks a result assembled from a stream that failed before
	// its terminal event. Such results are returned together with the error
	// and are used only when the caller explicitly tolerates partial output.
	Incomplete bool
}

// Provider is the uniform adapter surface. BuildRequest is pure, with all
// validation failures raised there before any network traffic; Send
// performs exactly one blocking round-trip.
type Provider interface {
	// Name returns the provider key used in records and error messages
	// ("openai", "anthropic", "gemini", "grok", "fireworks").
	Name() string

	// DisplayName returns the human-readable provider name for transcripts.
	DisplayName() string

	// Catalog returns the provider's immutable model table.
	Catalog() Catalog

	// BuildRequest turns a spec into the provider's wire payload, applying
	// catalog defaults and enforcing the provider's validation rules.
	BuildRequest(spec RequestSpec) (*Request, error)

	// Send performs the round-trip. For streaming requests it parses the
	// event stream and reconstructs the response; the returned payload is
	// shape-identical to a non-streaming one.
	Send(ctx context.Context, request *Request, opts CallOptions) (*Result, error)

	// ExtractUsage pulls the canonical token triple out of a response
	// payload, nil when required figures are missing or not integers.
	ExtractUsage(payload json.RawMessage) *cost.TokenBreakdown
}

// ModelResolver is an optional interface for adapters that accept short
// aliases on the wire (Fireworks). StorageModelName maps a model id back to
// the spelling used in stored records and filenames.
type ModelResolver interface {
	StorageModelName(model string) string
}

// ProviderAliaser is an optional interface for aggregator adapters that host
// models from several upstream labs. DisplayProviderForModel returns the
// human-readable provider attribution for one model, e.g. a hosted DeepSeek
// model attributes to DeepSeek rather than to the aggregator.
type ProviderAliaser interface {
	DisplayProviderForModel(model string) string
}
