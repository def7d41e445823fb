// Package openai implements the OpenAI adapter on the Responses API
// (/v1/responses). Streaming uses typed incremental events; the terminal
// response.completed snapshot supersedes everything accumulated before it,
// except the reasoning summary, which only exists in the incremental events
// and is coalesced and injected back into the snapshot.
package openai

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
	// defaultBaseURL is the canonical Responses API endpoint.
	defaultBaseURL = "https://api.openai.com/v1/responses"

	providerName    = "openai"
	providerDisplay = "OpenAI"

	defaultTimeout = 60 * time.Second

	// summaryPartSeparator joins coalesced reasoning summary parts.
	summaryPartSeparator = "\n\n\n"
)

var catalog = ai.NewCatalog(
	ai.ModelInfo{
		ID:                     "o3-2025-04-16",
		DisplayAlias:           "o3",
		MaxOutputTokensDefault: 100000,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(2.0, 8.0),
	},
	ai.ModelInfo{
		ID:                     "gpt-4o-2024-05-13",
		DisplayAlias:           "4o",
		MaxOutputTokensDefault: 64000,
		Price:                  cost.NewPriceSchedule(2.5, 10.0),
	},
	ai.ModelInfo{
		ID:                     "gpt-5.2-2025-12-11",
		DisplayAlias:           "GPT 5.2",
		MaxOutputTokensDefault: 128000,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(1.75, 14.0),
	},
)

// OpenAIProvider implements [ai.Provider] for the Responses API. Use [New]
// to construct a ready-to-use instance.
type OpenAIProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns an [OpenAIProvider] initialized from environment variables. It
// reads OPENAI_API_KEY for authentication and OPENAI_API_BASE_URL for the
// endpoint (defaulting to the public API when unset).
func New() *OpenAIProvider {
	baseURL := os.Getenv("OPENAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &OpenAIProvider{
		apiKey:  os.Getenv("OPENAI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key and returns the provider for chaining.
func (p *OpenAIProvider) WithAPIKey(apiKey string) *OpenAIProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the endpoint URL, for proxies and test servers.
func (p *OpenAIProvider) WithBaseURL(baseURL string) *OpenAIProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *OpenAIProvider) WithHttpClient(httpClient *http.Client) *OpenAIProvider {
	p.client = httpClient
	return p
}

// Name implements [ai.Provider].
func (p *OpenAIProvider) Name() string { return providerName }

// DisplayName implements [ai.Provider].
func (p *OpenAIProvider) DisplayName() string { return providerDisplay }

// Catalog implements [ai.Provider].
func (p *OpenAIProvider) Catalog() ai.Catalog { return catalog }

// BuildRequest implements [ai.Provider]. The Responses API requires
// max_output_tokens: the requested value wins, then the catalog default, and with
// neither available the build fails before any network traffic.
// Reasoning-capable models default to effort "high" with a detailed summary.
func (p *OpenAIProvider) BuildRequest(spec ai.RequestSpec) (*ai.Request, error) {
	if spec.Model == "" {
		return nil, ai.NewConfigurationError("model is required")
	}

	info, known := catalog.Lookup(spec.Model)

	maxTokens := spec.MaxOutputTokens
	if maxTokens == 0 && known {
		maxTokens = info.MaxOutputTokensDefault
	}
	if maxTokens == 0 {
		return nil, ai.NewConfigurationError(
			"max_output_tokens must be set (model defaults are not yet configured)")
	}

	var reasoning *reasoningConfig
	if spec.Reasoning != nil {
		reasoning = &reasoningConfig{Effort: spec.Reasoning.Effort, Summary: spec.Reasoning.Summary}
	} else if known && info.SupportsReasoning {
		reasoning = &reasoningConfig{Effort: "high", Summary: "detailed"}
	}

	body := responseRequest{
		Model: spec.Model,
		Input: []inputMessage{
			{Role: "system", Content: []contentItem{{Type: "input_text", Text: spec.SystemPrompt}}},
			{Role: "user", Content: []contentItem{{Type: "input_text", Text: spec.UserPrompt}}},
		},
		MaxOutputTokens: maxTokens,
		Temperature:     spec.Temperature,
		TopP:            spec.TopP,
		Reasoning:       reasoning,
		Seed:            spec.Seed,
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

// Send implements [ai.Provider].
func (p *OpenAIProvider) Send(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	if p.apiKey == "" {
		return nil, ai.NewConfigurationError("missing OPENAI_API_KEY for OpenAI API access")
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

	_, raw, _, err := utils.DoPostSync[responsePayload](ctx, p.client, p.baseURL, p.apiKey, request.Body)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}

	return &ai.Result{
		Payload:    json.RawMessage(raw),
		OutputText: ExtractOutputText(raw),
		Reasoning:  ExtractReasoningSummary(raw),
	}, nil
}

// ExtractUsage implements [ai.Provider]. The Responses API reports output
// tokens inclusive of reasoning, with the reasoning share in
// output_tokens_details.
func (p *OpenAIProvider) ExtractUsage(payload json.RawMessage) *cost.TokenBreakdown {
	var parsed responsePayload
	if err := json.Unmarshal(payload, &parsed); err != nil || parsed.Usage == nil {
		return nil
	}

	var reasoning *int
	if parsed.Usage.OutputTokensDetails != nil {
		reasoning = parsed.Usage.OutputTokensDetails.ReasoningTokens
	}

	return &cost.TokenBreakdown{
		InputTokens:     parsed.Usage.InputTokens,
		ReasoningTokens: reasoning,
		OutputTokens:    parsed.Usage.OutputTokens,
	}
}

// ExtractOutputText pulls the assistant text out of a terminal response
// payload: the convenience output_text field when present, otherwise the
// output_text parts of message output items joined with newlines.
func ExtractOutputText(payload json.RawMessage) string {
	var parsed responsePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return ""
	}

	if parsed.OutputText != "" {
		return parsed.OutputText
	}

	var chunks []string
	for _, item := range parsed.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" && part.Text != "" {
				chunks = append(chunks, part.Text)
			}
		}
	}
	return strings.Join(chunks, "\n")
}

// ExtractReasoningSummary pulls the summary text of reasoning output items,
// parts joined with the summary separator.
func ExtractReasoningSummary(payload json.RawMessage) string {
	var parsed responsePayload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return ""
	}

	var parts []string
	for _, item := range parsed.Output {
		if item.Type != "reasoning" {
			continue
		}
		for _, part := range item.Summary {
			if part.Text != "" {
				parts = append(parts, part.Text)
			}
		}
	}
	return strings.Join(parts, summaryPartSeparator)
}
