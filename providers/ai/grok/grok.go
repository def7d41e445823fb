// Package grok implements the xAI Grok adapter on the OpenAI-compatible
// Chat Completions wire format.
package grok

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/willpenman/llm-philosophy/core/cost"
	"github.com/willpenman/llm-philosophy/internal/utils"
	"github.com/willpenman/llm-philosophy/providers/ai"
	"github.com/willpenman/llm-philosophy/providers/ai/oaichat"
)

const (
	// defaultBaseURL is the canonical xAI Chat Completions endpoint.
	defaultBaseURL = "https://api.x.ai/v1/chat/completions"

	providerName    = "grok"
	providerDisplay = "xAI"

	// defaultTimeout bounds a full call including stream consumption.
	// Reasoning models can deliberate for a long time before emitting text.
	defaultTimeout = 60 * time.Minute
)

var catalog = ai.NewCatalog(
	ai.ModelInfo{
		ID:                     "grok-4-1-fast-reasoning",
		DisplayAlias:           "Grok 4.1 Fast Reasoning",
		MaxOutputTokensDefault: 256000,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(0.20, 0.50),
	},
	ai.ModelInfo{
		ID:                     "grok-3",
		DisplayAlias:           "Grok 3",
		MaxOutputTokensDefault: 16384,
		Price:                  cost.NewPriceSchedule(3.0, 15.0),
	},
)

// GrokProvider implements [ai.Provider] for xAI's Chat Completions API.
// Use [New] to construct a ready-to-use instance.
type GrokProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a [GrokProvider] initialized from environment variables. It
// reads XAI_API_KEY for authentication and XAI_API_BASE_URL for the endpoint
// (defaulting to the public API when unset). Use [GrokProvider.WithAPIKey]
// and [GrokProvider.WithBaseURL] to override after construction.
func New() *GrokProvider {
	baseURL := os.Getenv("XAI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GrokProvider{
		apiKey:  os.Getenv("XAI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key and returns the provider for chaining.
func (p *GrokProvider) WithAPIKey(apiKey string) *GrokProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the endpoint URL, for proxies and test servers.
func (p *GrokProvider) WithBaseURL(baseURL string) *GrokProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *GrokProvider) WithHttpClient(httpClient *http.Client) *GrokProvider {
	p.client = httpClient
	return p
}

// Name implements [ai.Provider].
func (p *GrokProvider) Name() string { return providerName }

// DisplayName implements [ai.Provider].
func (p *GrokProvider) DisplayName() string { return providerDisplay }

// Catalog implements [ai.Provider].
func (p *GrokProvider) Catalog() ai.Catalog { return catalog }

// BuildRequest implements [ai.Provider]. The token ceiling falls back to the
// catalog default; an unknown model without an explicit ceiling simply omits
// the field, since the API tolerates its absence.
func (p *GrokProvider) BuildRequest(spec ai.RequestSpec) (*ai.Request, error) {
	if spec.Model == "" {
		return nil, ai.NewConfigurationError("model is required")
	}

	maxTokens := spec.MaxOutputTokens
	if maxTokens == 0 {
		if info, ok := catalog.Lookup(spec.Model); ok {
			maxTokens = info.MaxOutputTokensDefault
		}
	}

	body := oaichat.ChatRequest{
		Model: spec.Model,
		Messages: []oaichat.ChatMessage{
			{Role: "system", Content: spec.SystemPrompt},
			{Role: "user", Content: spec.UserPrompt},
		},
		Temperature: spec.Temperature,
		TopP:        spec.TopP,
	}
	if maxTokens > 0 {
		body.MaxTokens = utils.Ptr(maxTokens)
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
func (p *GrokProvider) Send(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	if p.apiKey == "" {
		return nil, ai.NewConfigurationError("missing XAI_API_KEY for xAI API access")
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

	_, raw, _, err := utils.DoPostSync[oaichat.ChatResponse](ctx, p.client, p.baseURL, p.apiKey, request.Body)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}

	return resultFromPayload(raw)
}

func (p *GrokProvider) sendStream(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL, p.apiKey, request.Body)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}
	defer utils.CloseWithLog(httpResponse.Body)

	notifier := ai.NewStreamNotifier(opts.Observer)
	response, streamErr := oaichat.CollectStream(httpResponse.Body, providerName, request.Model, notifier, opts.DebugSink)

	payload, err := json.Marshal(response)
	if err != nil {
		return nil, &ai.TransportError{Provider: providerName, Err: err}
	}

	result := &ai.Result{
		Payload:    payload,
		OutputText: oaichat.OutputText(response),
		Reasoning:  oaichat.ReasoningContent(response),
	}
	if streamErr != nil {
		result.Incomplete = true
		return result, streamErr
	}
	return result, nil
}

// ExtractUsage implements [ai.Provider].
func (p *GrokProvider) ExtractUsage(payload json.RawMessage) *cost.TokenBreakdown {
	var response oaichat.ChatResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil
	}
	return oaichat.UsageBreakdown(response.Usage)
}

func resultFromPayload(raw []byte) (*ai.Result, error) {
	var response oaichat.ChatResponse
	if err := json.Unmarshal(raw, &response); err != nil {
		return nil, &ai.StreamParseError{Provider: providerName, Raw: string(raw), Err: err}
	}
	return &ai.Result{
		Payload:    json.RawMessage(raw),
		OutputText: oaichat.OutputText(&response),
		Reasoning:  oaichat.ReasoningContent(&response),
	}, nil
}
