package anthropic

import "encoding/json"

// messagesRequest is the Messages API request body. The system prompt travels
// as a block list so prompt caching annotations can be added later without a
// wire change.
type messagesRequest struct {
	Model       string          `json:"model"`
	MaxTokens   int             `json:"max_tokens"`
	System      []systemBlock   `json:"system"`
	Messages    []inputMessage  `json:"messages"`
	Temperature *float64        `json:"temperature,omitempty"`
	TopP        *float64        `json:"top_p,omitempty"`
	TopK        *int            `json:"top_k,omitempty"`
	Thinking    *thinkingConfig `json:"thinking,omitempty"`
	Stream      *bool           `json:"stream,omitempty"`
}

type systemBlock struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

type inputMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type thinkingConfig struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

// messagesResponse covers the fields this package reads back out of a
// response payload. The payload of record is always the raw (or
// reconstructed) JSON; this struct never round-trips.
type messagesResponse struct {
	Content []contentBlock `json:"content"`
	Usage   *messagesUsage `json:"usage"`
}

type contentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	Thinking string `json:"thinking"`
}

type messagesUsage struct {
	InputTokens              *int `json:"input_tokens"`
	OutputTokens             *int `json:"output_tokens"`
	CacheCreationInputTokens *int `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     *int `json:"cache_read_input_tokens"`
}

// streamEvent is one SSE data payload. The discriminator is the SSE event
// name when present, otherwise the payload's own type field.
type streamEvent struct {
	Type         string          `json:"type"`
	Index        *int            `json:"index"`
	Message      json.RawMessage `json:"message"`
	ContentBlock json.RawMessage `json:"content_block"`
	Delta        *blockDelta     `json:"delta"`
	Usage        json.RawMessage `json:"usage"`
}

// blockDelta carries both content_block_delta payloads (text, thinking,
// signature, partial tool input) and message_delta payloads (stop reason).
// StopReason and StopSequence use RawMessage so an explicit null on the wire
// is distinguishable from an absent key.
type blockDelta struct {
	Type         string          `json:"type"`
	Text         string          `json:"text"`
	Thinking     string          `json:"thinking"`
	Signature    string          `json:"signature"`
	PartialJSON  string          `json:"partial_json"`
	StopReason   json.RawMessage `json:"stop_reason"`
	StopSequence json.RawMessage `json:"stop_sequence"`
}
