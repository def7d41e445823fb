// Package anthropic implements the Anthropic Messages API adapter, including
// extended-thinking requests and SSE stream reconstruction.
package anthropic

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/willpenman/llm-philosophy/core/cost"
	"github.com/willpenman/llm-philosophy/internal/utils"
	"github.com/willpenman/llm-philosophy/providers/ai"
)

const (
	// defaultBaseURL is the canonical Messages endpoint.
	defaultBaseURL = "https://api.anthropic.com/v1/messages"

	// apiVersion pins the Messages API revision sent on every request.
	apiVersion = "2023-06-01"

	providerName    = "anthropic"
	providerDisplay = "Anthropic"

	// thinkingPartSeparator joins thinking blocks in the extracted
	// reasoning text, mirroring the reasoning-summary join elsewhere.
	thinkingPartSeparator = "\n\n\n"

	defaultTimeout = 60 * time.Minute
)

var catalog = ai.NewCatalog(
	ai.ModelInfo{
		ID:                     "claude-opus-4-5-20251101",
		DisplayAlias:           "Opus 4.5",
		MaxOutputTokensDefault: 64000,
		ThinkingBudgetDefault:  20000,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(5.0, 25.0),
	},
)

// AnthropicProvider implements [ai.Provider] for the Messages API. Use [New]
// to construct a ready-to-use instance.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an [AnthropicProvider] initialized from environment variables.
// It reads ANTHROPIC_API_KEY for authentication and ANTHROPIC_API_BASE_URL
// for the endpoint (defaulting to the public API when unset).
func New() *AnthropicProvider {
	baseURL := os.Getenv("ANTHROPIC_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &AnthropicProvider{
		apiKey:  os.Getenv("ANTHROPIC_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key and returns the provider for chaining.
func (p *AnthropicProvider) WithAPIKey(apiKey string) *AnthropicProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the endpoint URL, for proxies and test servers.
func (p *AnthropicProvider) WithBaseURL(baseURL string) *AnthropicProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *AnthropicProvider) WithHttpClient(httpClient *http.Client) *AnthropicProvider {
	p.client = httpClient
	return p
}

// Name implements [ai.Provider].
func (p *AnthropicProvider) Name() string { return providerName }

// DisplayName implements [ai.Provider].
func (p *AnthropicProvider) DisplayName() string { return providerDisplay }

// Catalog implements [ai.Provider].
func (p *AnthropicProvider) Catalog() ai.Catalog { return catalog }

// BuildRequest implements [ai.Provider]. max_tokens is mandatory on this wire
// format, so a model with no catalog default and no explicit ceiling fails
// here. Reasoning-capable models get extended thinking by default with the
// catalog budget; thinking excludes temperature and top_k, and its budget
// must stay strictly below the output ceiling.
func (p *AnthropicProvider) BuildRequest(spec ai.RequestSpec) (*ai.Request, error) {
	if spec.Model == "" {
		return nil, ai.NewConfigurationError("model is required")
	}

	info, known := catalog.Lookup(spec.Model)

	maxTokens := spec.MaxOutputTokens
	if maxTokens == 0 && known {
		maxTokens = info.MaxOutputTokensDefault
	}
	if maxTokens == 0 {
		return nil, ai.NewConfigurationError("max_output_tokens must be set for Anthropic requests")
	}

	thinking, err := resolveThinking(spec, info, known, maxTokens)
	if err != nil {
		return nil, err
	}
	if thinking != nil && (spec.Temperature != nil || spec.TopK != nil) {
		return nil, ai.NewConfigurationError("Anthropic thinking is incompatible with temperature or top_k")
	}

	body := messagesRequest{
		Model:       spec.Model,
		MaxTokens:   maxTokens,
		System:      []systemBlock{{Type: "text", Text: spec.SystemPrompt}},
		Messages:    []inputMessage{{Role: "user", Content: spec.UserPrompt}},
		Temperature: spec.Temperature,
		TopP:        spec.TopP,
		TopK:        spec.TopK,
		Thinking:    thinking,
	}
	if spec.Stream {
		body.Stream = utils.Ptr(true)
	}

	return &ai.Request{
		Provider:        providerName,
		Model:           spec.Model,
		Body:            body,
		Stream:          spec.Stream,
		MaxOutputTokens: maxTokens,
	}, nil
}

func resolveThinking(spec ai.RequestSpec, info ai.ModelInfo, known bool, maxTokens int) (*thinkingConfig, error) {
	budget := 0
	switch {
	case spec.Reasoning != nil:
		budget = spec.Reasoning.BudgetTokens
		if budget == 0 && known {
			budget = info.ThinkingBudgetDefault
		}
	case known && info.SupportsReasoning:
		budget = info.ThinkingBudgetDefault
	default:
		return nil, nil
	}

	if budget <= 0 {
		return nil, ai.NewConfigurationError("Anthropic thinking budget_tokens must be positive")
	}
	if budget >= maxTokens {
		return nil, ai.NewConfigurationError("Anthropic thinking budget_tokens must be less than max_tokens")
	}
	return &thinkingConfig{Type: "enabled", BudgetTokens: budget}, nil
}

// Send implements [ai.Provider].
func (p *AnthropicProvider) Send(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	if p.apiKey == "" {
		return nil, ai.NewConfigurationError("missing ANTHROPIC_API_KEY for Anthropic API access")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if request.Stream {
		return p.sendStream(ctx, request, opts)
	}

	_, raw, _, err := utils.DoPostSync[messagesResponse](ctx, p.client, p.baseURL, "", request.Body, p.authHeaders()...)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}

	return &ai.Result{
		Payload:    json.RawMessage(raw),
		OutputText: ExtractOutputText(raw),
		Reasoning:  ExtractThinkingText(raw),
	}, nil
}

// authHeaders returns the Messages API authentication headers. The API uses
// x-api-key rather than a bearer token.
func (p *AnthropicProvider) authHeaders() []utils.HeaderOption {
	return []utils.HeaderOption{
		{Key: "x-api-key", Value: p.apiKey},
		{Key: "anthropic-version", Value: apiVersion},
	}
}

// ExtractUsage implements [ai.Provider]. Cache creation and cache read
// tokens count toward the input total; thinking tokens are not reported
// separately on this wire format.
func (p *AnthropicProvider) ExtractUsage(payload json.RawMessage) *cost.TokenBreakdown {
	var response messagesResponse
	if err := json.Unmarshal(payload, &response); err != nil || response.Usage == nil {
		return nil
	}
	usage := response.Usage

	var input *int
	if usage.InputTokens != nil {
		total := *usage.InputTokens
		if usage.CacheCreationInputTokens != nil {
			total += *usage.CacheCreationInputTokens
		}
		if usage.CacheReadInputTokens != nil {
			total += *usage.CacheReadInputTokens
		}
		input = &total
	}

	return &cost.TokenBreakdown{
		InputTokens:  input,
		OutputTokens: usage.OutputTokens,
	}
}

// ExtractOutputText concatenates the text content blocks of a Messages
// payload in order.
func ExtractOutputText(payload json.RawMessage) string {
	var response messagesResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return ""
	}
	var builder strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			builder.WriteString(block.Text)
		}
	}
	return builder.String()
}

// ExtractThinkingText joins the thinking content blocks of a Messages
// payload with blank-line separators.
func ExtractThinkingText(payload json.RawMessage) string {
	var response messagesResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return ""
	}
	var parts []string
	for _, block := range response.Content {
		if block.Type == "thinking" {
			parts = append(parts, block.Thinking)
		}
	}
	return strings.Join(parts, thinkingPartSeparator)
}
