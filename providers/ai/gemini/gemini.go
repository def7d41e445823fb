// Package gemini implements the Google Gemini adapter on the generateContent
// REST API. The adapter is non-streaming: every call is a single round-trip
// whose response carries the full candidate list and usage metadata.
package gemini

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
	// defaultBaseURL is the Generative Language API root; the model name
	// and the generateContent verb are appended per request.
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"

	providerName    = "gemini"
	providerDisplay = "Gemini"

	// thoughtPartSeparator joins thought parts in the extracted reasoning
	// text.
	thoughtPartSeparator = "\n\n\n"

	defaultTimeout = 10 * time.Minute
)

var catalog = ai.NewCatalog(
	ai.ModelInfo{
		ID:           "gemini-2.0-flash-lite-001",
		DisplayAlias: "2.0 Flash Lite",
		Price:        cost.NewPriceSchedule(0.075, 0.30),
	},
)

// GeminiProvider implements [ai.Provider] for the generateContent REST API.
// Use [New] to construct a ready-to-use instance.
type GeminiProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a [GeminiProvider] initialized from environment variables. It
// reads GEMINI_API_KEY, falling back to GOOGLE_API_KEY, and
// GEMINI_API_BASE_URL for the endpoint root.
func New() *GeminiProvider {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		apiKey = os.Getenv("GOOGLE_API_KEY")
	}
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &GeminiProvider{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key and returns the provider for chaining.
func (p *GeminiProvider) WithAPIKey(apiKey string) *GeminiProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the endpoint root, for proxies and test servers.
func (p *GeminiProvider) WithBaseURL(baseURL string) *GeminiProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *GeminiProvider) WithHttpClient(httpClient *http.Client) *GeminiProvider {
	p.client = httpClient
	return p
}

// Name implements [ai.Provider].
func (p *GeminiProvider) Name() string { return providerName }

// DisplayName implements [ai.Provider].
func (p *GeminiProvider) DisplayName() string { return providerDisplay }

// Catalog implements [ai.Provider].
func (p *GeminiProvider) Catalog() ai.Catalog { return catalog }

// BuildRequest implements [ai.Provider]. The API tolerates an absent output
// ceiling, so unknown models build without one. Reasoning-capable models get
// thinkingConfig {thinkingLevel HIGH, includeThoughts true} by default; this
// adapter always performs a single non-streaming round-trip, so the stream
// flag is accepted and ignored.
func (p *GeminiProvider) BuildRequest(spec ai.RequestSpec) (*ai.Request, error) {
	if spec.Model == "" {
		return nil, ai.NewConfigurationError("model is required")
	}

	info, known := catalog.Lookup(spec.Model)

	maxTokens := spec.MaxOutputTokens
	if maxTokens == 0 && known {
		maxTokens = info.MaxOutputTokensDefault
	}

	config := &generationConfig{
		Temperature: spec.Temperature,
		TopP:        spec.TopP,
		TopK:        spec.TopK,
	}
	if maxTokens > 0 {
		config.MaxOutputTokens = utils.Ptr(maxTokens)
	}
	config.ThinkingConfig = resolveThinking(spec, info, known)

	body := generateContentRequest{
		SystemInstruction: &contentValue{Parts: []part{{Text: spec.SystemPrompt}}},
		Contents: []contentValue{
			{Role: "user", Parts: []part{{Text: spec.UserPrompt}}},
		},
		GenerationConfig: config,
	}

	return &ai.Request{
		Provider:        providerName,
		Model:           spec.Model,
		Body:            body,
		MaxOutputTokens: maxTokens,
	}, nil
}

func resolveThinking(spec ai.RequestSpec, info ai.ModelInfo, known bool) *thinkingConfig {
	if spec.Reasoning != nil {
		config := &thinkingConfig{
			ThinkingLevel:   spec.Reasoning.ThinkingLevel,
			IncludeThoughts: spec.Reasoning.IncludeThoughts,
		}
		if config.ThinkingLevel == "" {
			config.ThinkingLevel = "HIGH"
		}
		return config
	}
	if known && info.SupportsReasoning {
		return &thinkingConfig{ThinkingLevel: "HIGH", IncludeThoughts: true}
	}
	return nil
}

// Send implements [ai.Provider].
func (p *GeminiProvider) Send(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	if p.apiKey == "" {
		return nil, ai.NewConfigurationError("missing GEMINI_API_KEY or GOOGLE_API_KEY for Gemini API access")
	}

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	url := p.baseURL + "/models/" + request.Model + ":generateContent"
	header := utils.HeaderOption{Key: "x-goog-api-key", Value: p.apiKey}

	_, raw, _, err := utils.DoPostSync[generateContentResponse](ctx, p.client, url, "", request.Body, header)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}

	return &ai.Result{
		Payload:    json.RawMessage(raw),
		OutputText: ExtractOutputText(raw),
		Reasoning:  ExtractThoughtText(raw),
	}, nil
}

// ExtractUsage implements [ai.Provider]. Thought tokens are reported
// separately from candidate tokens, so output does not include reasoning.
func (p *GeminiProvider) ExtractUsage(payload json.RawMessage) *cost.TokenBreakdown {
	var response generateContentResponse
	if err := json.Unmarshal(payload, &response); err != nil || response.UsageMetadata == nil {
		return nil
	}
	usage := response.UsageMetadata
	return &cost.TokenBreakdown{
		InputTokens:     usage.PromptTokenCount,
		ReasoningTokens: usage.ThoughtsTokenCount,
		OutputTokens:    usage.CandidatesTokenCount,
	}
}

// ExtractOutputText concatenates the first candidate's non-thought text
// parts in order.
func ExtractOutputText(payload json.RawMessage) string {
	var builder strings.Builder
	for _, item := range firstCandidateParts(payload) {
		if !item.Thought {
			builder.WriteString(item.Text)
		}
	}
	return builder.String()
}

// ExtractThoughtText joins the first candidate's thought parts with
// blank-line separators.
func ExtractThoughtText(payload json.RawMessage) string {
	var thoughts []string
	for _, item := range firstCandidateParts(payload) {
		if item.Thought && item.Text != "" {
			thoughts = append(thoughts, item.Text)
		}
	}
	return strings.Join(thoughts, thoughtPartSeparator)
}

func firstCandidateParts(payload json.RawMessage) []part {
	var response generateContentResponse
	if err := json.Unmarshal(payload, &response); err != nil || len(response.Candidates) == 0 {
		return nil
	}
	return response.Candidates[0].Content.Parts
}
