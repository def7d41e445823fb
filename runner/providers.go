package runner

import (
	"fmt"
	"sort"

	"github.com/willpenman/llm-philosophy/providers/ai"
	"github.com/willpenman/llm-philosophy/providers/ai/anthropic"
	"github.com/willpenman/llm-philosophy/providers/ai/fireworks"
	"github.com/willpenman/llm-philosophy/providers/ai/gemini"
	"github.com/willpenman/llm-philosophy/providers/ai/grok"
	"github.com/willpenman/llm-philosophy/providers/ai/openai"
)

// DefaultProviders returns the full adapter set, each initialized from its
// environment variables.
func DefaultProviders() []ai.Provider {
	return []ai.Provider{
		openai.New(),
		anthropic.New(),
		gemini.New(),
		grok.New(),
		fireworks.New(),
	}
}

// ResolveProvider finds a provider by name in providers.
func ResolveProvider(providers []ai.Provider, name string) (ai.Provider, error) {
	for _, provider := range providers {
		if provider.Name() == name {
			return provider, nil
		}
	}
	return nil, fmt.Errorf("unknown provider %q", name)
}

// ResolveProviderForModel finds the provider whose catalog lists model,
// trying the exact id first and then each provider's own alias resolution.
func ResolveProviderForModel(providers []ai.Provider, model string) (ai.Provider, error) {
	for _, provider := range providers {
		if provider.Catalog().Supports(model) {
			return provider, nil
		}
	}
	// Fireworks accepts short aliases that are not catalog keys.
	for _, provider := range providers {
		if provider.Name() == "fireworks" && provider.Catalog().Supports(fireworks.ResolveModel(model)) {
			return provider, nil
		}
	}
	return nil, fmt.Errorf("no provider supports model %q", model)
}

// StorageProviderKey returns the storage provider key for a model, which for
// aggregator providers is the upstream lab rather than the host. Empty means
// "use the provider's own name".
func StorageProviderKey(provider ai.Provider, model string) string {
	if provider.Name() == "fireworks" {
		return fireworks.StorageProviderForModel(model)
	}
	return ""
}

// SortedModelIDs returns a provider's catalog ids sorted for stable listing.
func SortedModelIDs(provider ai.Provider) []string {
	ids := provider.Catalog().IDs()
	sort.Strings(ids)
	return ids
}
