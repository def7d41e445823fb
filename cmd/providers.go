package cmd

import (
	"github.com/willpenman/llm-philosophy/providers/ai"
	"github.com/willpenman/llm-philosophy/providers/ai/anthropic"
	"github.com/willpenman/llm-philosophy/providers/ai/fireworks"
	"github.com/willpenman/llm-philosophy/providers/ai/gemini"
	"github.com/willpenman/llm-philosophy/providers/ai/grok"
	"github.com/willpenman/llm-philosophy/providers/ai/openai"
	"github.com/willpenman/llm-philosophy/runner"
)

// buildProviders constructs every adapter, honoring api_key_env overrides
// from the config. Without an override each adapter keeps the key it read
// from its own well-known environment variable.
func buildProviders() []ai.Provider {
	providers := runner.DefaultProviders()
	for i, provider := range providers {
		key := cfg.APIKey(provider.Name())
		if key == "" {
			continue
		}
		switch p := provider.(type) {
		case *openai.OpenAIProvider:
			providers[i] = p.WithAPIKey(key)
		case *anthropic.AnthropicProvider:
			providers[i] = p.WithAPIKey(key)
		case *gemini.GeminiProvider:
			providers[i] = p.WithAPIKey(key)
		case *grok.GrokProvider:
			providers[i] = p.WithAPIKey(key)
		case *fireworks.FireworksProvider:
			providers[i] = p.WithAPIKey(key)
		}
	}
	return providers
}
