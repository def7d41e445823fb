// Package fireworks implements the Fireworks AI adapter on the
// OpenAI-compatible Chat Completions wire format. Fireworks hosts models
// from several upstream labs; short aliases map to canonical
// "accounts/fireworks/models/..." ids on the wire and back to aliases in
// stored records.
package fireworks

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
	// defaultBaseURL is the canonical Fireworks Chat Completions endpoint.
	defaultBaseURL = "https://api.fireworks.ai/inference/v1/chat/completions"

	providerName    = "fireworks"
	providerDisplay = "Fireworks"

	defaultTimeout = 10 * time.Minute
)

// canonicalModels maps short aliases to the full wire ids.
var canonicalModels = map[string]string{
	"deepseek-v3p2":          "accounts/fireworks/models/deepseek-v3p2",
	"deepseek-v3-0324":       "accounts/fireworks/models/deepseek-v3-0324",
	"qwen3-vl-235b-thinking": "accounts/fireworks/models/qwen3-vl-235b-a22b-thinking",
	"qwen2p5-vl-32b":         "accounts/fireworks/models/qwen2p5-vl-32b-instruct",
	"kimi-k2p5":              "accounts/fireworks/models/kimi-k2p5",
	"kimi-k2-instruct-0905":  "accounts/fireworks/models/kimi-k2-instruct-0905",
	"llama-v3p3-70b-instruct": "accounts/fireworks/models/llama-v3p3-70b-instruct",
}

// reverseCanonicalModels maps wire ids back to the alias used in records.
var reverseCanonicalModels = func() map[string]string {
	reverse := make(map[string]string, len(canonicalModels))
	for alias, canonical := range canonicalModels {
		reverse[canonical] = alias
	}
	return reverse
}()

// modelProviders attributes each hosted model to its upstream lab.
var modelProviders = map[string]string{
	"accounts/fireworks/models/deepseek-v3p2":                "deepseek",
	"accounts/fireworks/models/deepseek-v3-0324":             "deepseek",
	"accounts/fireworks/models/qwen3-vl-235b-a22b-thinking":  "qwen",
	"accounts/fireworks/models/qwen2p5-vl-32b-instruct":      "qwen",
	"accounts/fireworks/models/kimi-k2p5":                    "kimi",
	"accounts/fireworks/models/kimi-k2-instruct-0905":        "kimi",
	"accounts/fireworks/models/llama-v3p3-70b-instruct":      "meta",
}

var providerAliases = map[string]string{
	"deepseek":  "DeepSeek AI (via Fireworks)",
	"qwen":      "Qwen (via Fireworks)",
	"kimi":      "Moonshot AI (via Fireworks)",
	"meta":      "Meta (via Fireworks)",
	"fireworks": "Fireworks",
}

var catalog = ai.NewCatalog(
	ai.ModelInfo{
		ID:                     "accounts/fireworks/models/deepseek-v3p2",
		DisplayAlias:           "DeepSeek V3.2",
		MaxOutputTokensDefault: 64000,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(0.56, 1.68).WithCachedInput(0.28),
	},
	ai.ModelInfo{
		ID:                     "accounts/fireworks/models/deepseek-v3-0324",
		DisplayAlias:           "DeepSeek V3 Update 1",
		MaxOutputTokensDefault: 30000,
		Price:                  cost.NewPriceSchedule(0.90, 0.90).WithCachedInput(0.45),
	},
	ai.ModelInfo{
		ID:                     "accounts/fireworks/models/qwen3-vl-235b-a22b-thinking",
		DisplayAlias:           "Qwen3-VL 235B Thinking",
		MaxOutputTokensDefault: 38912,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(0.22, 0.88),
	},
	ai.ModelInfo{
		ID:                     "accounts/fireworks/models/qwen2p5-vl-32b-instruct",
		DisplayAlias:           "Qwen2.5-VL 32B",
		MaxOutputTokensDefault: 128000,
		Price:                  cost.NewPriceSchedule(0.90, 0.90).WithCachedInput(0.45),
	},
	ai.ModelInfo{
		ID:                     "accounts/fireworks/models/kimi-k2p5",
		DisplayAlias:           "Kimi K2.5",
		MaxOutputTokensDefault: 250000,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(0.60, 3.00).WithCachedInput(0.10),
	},
	ai.ModelInfo{
		ID:                     "accounts/fireworks/models/kimi-k2-instruct-0905",
		DisplayAlias:           "Kimi K2",
		MaxOutputTokensDefault: 250000,
		SupportsReasoning:      true,
		Price:                  cost.NewPriceSchedule(0.60, 2.50).WithCachedInput(0.30),
	},
	ai.ModelInfo{
		ID:                     "accounts/fireworks/models/llama-v3p3-70b-instruct",
		DisplayAlias:           "Llama 3.3 70B",
		MaxOutputTokensDefault: 8192,
		Price:                  cost.NewPriceSchedule(0.90, 0.90).WithCachedInput(0.45),
	},
)

// ResolveModel maps a short alias to its canonical wire id; canonical ids
// and unknown models pass through unchanged.
func ResolveModel(model string) string {
	if canonical, ok := canonicalModels[model]; ok {
		return canonical
	}
	return model
}

// FireworksProvider implements [ai.Provider] for the Fireworks AI inference
// API. Use [New] to construct a ready-to-use instance.
type FireworksProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New returns a [FireworksProvider] initialized from environment variables.
// It reads FIREWORKS_API_KEY for authentication and FIREWORKS_API_BASE_URL
// for the endpoint (defaulting to the public API when unset).
func New() *FireworksProvider {
	baseURL := os.Getenv("FIREWORKS_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &FireworksProvider{
		apiKey:  os.Getenv("FIREWORKS_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

// WithAPIKey sets the API key and returns the provider for chaining.
func (p *FireworksProvider) WithAPIKey(apiKey string) *FireworksProvider {
	p.apiKey = apiKey
	return p
}

// WithBaseURL overrides the endpoint URL, for proxies and test servers.
func (p *FireworksProvider) WithBaseURL(baseURL string) *FireworksProvider {
	p.baseURL = baseURL
	return p
}

// WithHttpClient replaces the default [http.Client] used for API calls.
func (p *FireworksProvider) WithHttpClient(httpClient *http.Client) *FireworksProvider {
	p.client = httpClient
	return p
}

// Name implements [ai.Provider].
func (p *FireworksProvider) Name() string { return providerName }

// DisplayName implements [ai.Provider].
func (p *FireworksProvider) DisplayName() string { return providerDisplay }

// Catalog implements [ai.Provider]. Entries are keyed by canonical wire id;
// use [ResolveModel] before lookups when holding a short alias.
func (p *FireworksProvider) Catalog() ai.Catalog { return catalog }

// StorageModelName implements [ai.ModelResolver]: stored records use the
// short alias spelling, never the long canonical id.
func (p *FireworksProvider) StorageModelName(model string) string {
	if _, ok := canonicalModels[model]; ok {
		return model
	}
	if alias, ok := reverseCanonicalModels[model]; ok {
		return alias
	}
	return model
}

// StorageProviderForModel returns the upstream lab key used as the storage
// provider for a hosted model ("deepseek", "qwen", "kimi", "meta"), falling
// back to "fireworks" for unattributed models.
func StorageProviderForModel(model string) string {
	if lab, ok := modelProviders[ResolveModel(model)]; ok {
		return lab
	}
	return providerName
}

// DisplayProviderForModel implements [ai.ProviderAliaser], attributing hosted
// models to their upstream lab.
func (p *FireworksProvider) DisplayProviderForModel(model string) string {
	lab, ok := modelProviders[ResolveModel(model)]
	if !ok {
		lab = providerName
	}
	return providerAliases[lab]
}

// BuildRequest implements [ai.Provider]. Aliases resolve to canonical ids,
// the token ceiling falls back to the catalog default, and reasoning-capable
// models get reasoning_effort "high" unless the request overrides it.
func (p *FireworksProvider) BuildRequest(spec ai.RequestSpec) (*ai.Request, error) {
	if spec.Model == "" {
		return nil, ai.NewConfigurationError("model is required")
	}

	modelID := ResolveModel(spec.Model)
	info, known := catalog.Lookup(modelID)

	maxTokens := spec.MaxOutputTokens
	if maxTokens == 0 && known {
		maxTokens = info.MaxOutputTokensDefault
	}

	effort := ""
	if spec.Reasoning != nil {
		effort = spec.Reasoning.Effort
	}
	if effort == "" && known && info.SupportsReasoning {
		// Any value other than "none" enables reasoning output on DeepSeek
		// V3.2; the graded models accept low/medium/high.
		effort = "high"
	}

	body := oaichat.ChatRequest{
		Model: modelID,
		Messages: []oaichat.ChatMessage{
			{Role: "system", Content: spec.SystemPrompt},
			{Role: "user", Content: spec.UserPrompt},
		},
		Temperature:     spec.Temperature,
		TopP:            spec.TopP,
		ReasoningEffort: effort,
	}
	if maxTokens > 0 {
		body.MaxTokens = utils.Ptr(maxTokens)
	}
	if spec.Stream {
		body.Stream = utils.Ptr(true)
	}

	return &ai.Request{
		Provider:        providerName,
		Model:           modelID,
		Body:            body,
		Stream:          spec.Stream,
		MaxOutputTokens: maxTokens,
	}, nil
}

// Send implements [ai.Provider].
func (p *FireworksProvider) Send(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	if p.apiKey == "" {
		return nil, ai.NewConfigurationError("missing FIREWORKS_API_KEY for Fireworks API access")
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

	_, raw, response, err := utils.DoPostSync[oaichat.ChatResponse](ctx, p.client, p.baseURL, p.apiKey, request.Body)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}

	return &ai.Result{
		Payload:    json.RawMessage(raw),
		OutputText: oaichat.OutputText(response),
		Reasoning:  oaichat.ReasoningContent(response),
	}, nil
}

func (p *FireworksProvider) sendStream(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
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
func (p *FireworksProvider) ExtractUsage(payload json.RawMessage) *cost.TokenBreakdown {
	var response oaichat.ChatResponse
	if err := json.Unmarshal(payload, &response); err != nil {
		return nil
	}
	return oaichat.UsageBreakdown(response.Usage)
}
