package ai

import "github.com/willpenman/llm-philosophy/core/cost"

// ModelInfo is one immutable catalog entry describing a supported model.
type ModelInfo struct {
	// ID is the model identifier accepted by the provider's API. Adapters
	// that use short aliases on top of canonical ids (Fireworks) register
	// one entry per accepted spelling.
	ID string

	// DisplayAlias is the human-readable name used in transcripts.
	DisplayAlias string

	// MaxOutputTokensDefault fills a request's token ceiling when the caller
	// leaves it unset. Zero means the catalog has no default for this model.
	MaxOutputTokensDefault int

	// ThinkingBudgetDefault is the default reasoning token allowance for
	// providers with an explicit thinking budget (Anthropic). Zero when not
	// applicable.
	ThinkingBudgetDefault int

	// SupportsReasoning reports whether the model has an internal
	// deliberation phase that adapters should enable by default.
	SupportsReasoning bool

	// Price is the model's USD-per-million-token schedule, nil when pricing
	// is unknown (cost computation is then skipped, never zero-filled).
	Price *cost.PriceSchedule
}

// Catalog is a process-wide immutable table of the models a provider
// supports. It is built once at package init and never mutated afterwards.
type Catalog struct {
	entries map[string]ModelInfo
	order   []string
}

// NewCatalog builds a catalog from entries. Later duplicates of an id are
// rejected by panic: every supported model id has exactly one entry, and the
// tables are static package data where a duplicate is a programming error.
func NewCatalog(entries ...ModelInfo) Catalog {
	catalog := Catalog{entries: make(map[string]ModelInfo, len(entries))}
	for _, entry := range entries {
		if _, exists := catalog.entries[entry.ID]; exists {
			panic("ai: duplicate catalog entry for model " + entry.ID)
		}
		catalog.entries[entry.ID] = entry
		catalog.order = append(catalog.order, entry.ID)
	}
	return catalog
}

// Lookup returns the entry for a model id.
func (c Catalog) Lookup(model string) (ModelInfo, bool) {
	entry, ok := c.entries[model]
	return entry, ok
}

// Supports reports whether the catalog has an entry for model.
func (c Catalog) Supports(model string) bool {
	_, ok := c.entries[model]
	return ok
}

// IDs returns the model ids in registration order.
func (c Catalog) IDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// DisplayName returns the model's display alias, falling back to the raw id
// for models outside the catalog.
func (c Catalog) DisplayName(model string) string {
	if entry, ok := c.entries[model]; ok && entry.DisplayAlias != "" {
		return entry.DisplayAlias
	}
	return model
}

// PriceSchedule returns the model's price schedule, nil when the model is
// unknown or unpriced.
func (c Catalog) PriceSchedule(model string) *cost.PriceSchedule {
	entry, ok := c.entries[model]
	if !ok {
		return nil
	}
	return entry.Price
}
