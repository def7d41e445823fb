// Package ai defines the provider-independent surface shared by every model
// adapter: the request/result contract, the error taxonomy, immutable model
// catalogs, streaming observers, and the generic stream-reconstruction
// helpers that fold ordered delta events back into a whole response.
//
// Concrete adapters live in the subpackages (openai, anthropic, gemini, grok,
// fireworks) and differ only in wire shapes and field names; the algorithms
// live here and in the shared oaichat subpackage.
package ai
