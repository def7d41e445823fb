package oaichat

/*
	CHAT COMPLETIONS API - INPUT
*/

// ChatRequest represents the /v1/chat/completions request format.
type ChatRequest struct {
	Model           string        `json:"model"`
	Messages        []ChatMessage `json:"messages"`
	MaxTokens       *int          `json:"max_tokens,omitempty"`
	Temperature     *float64      `json:"temperature,omitempty"`
	TopP            *float64      `json:"top_p,omitempty"`
	Seed            *int          `json:"seed,omitempty"`
	Stream          *bool         `json:"stream,omitempty"`
	ReasoningEffort string        `json:"reasoning_effort,omitempty"`
}

// ChatMessage is a single conversation turn.
type ChatMessage struct {
	Role    string `json:"role"` // system, user, assistant
	Content string `json:"content"`
}

/*
	CHAT COMPLETIONS API - OUTPUT
*/

// ChatResponse represents a terminal chat.completion payload, either received
// directly from a non-streaming call or reconstructed from stream chunks.
type ChatResponse struct {
	ID                string       `json:"id,omitempty"`
	Object            string       `json:"object"` // "chat.completion"
	Created           int64        `json:"created,omitempty"`
	Model             string       `json:"model,omitempty"`
	SystemFingerprint string       `json:"system_fingerprint,omitempty"`
	Choices           []ChatChoice `json:"choices"`
	Usage             *ChatUsage   `json:"usage,omitempty"`
}

// ChatChoice is one completion candidate.
type ChatChoice struct {
	Index        int                 `json:"index"`
	Message      ChatResponseMessage `json:"message"`
	FinishReason *string             `json:"finish_reason"`
}

// ChatResponseMessage is the assistant message inside a choice.
type ChatResponseMessage struct {
	Role             string `json:"role"` // "assistant"
	Content          string `json:"content"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}

// ChatUsage carries token accounting. Some vendors use the OpenAI field names
// (prompt_tokens/completion_tokens), others the Responses-style names
// (input_tokens/output_tokens); both are modeled so extraction can fall back.
type ChatUsage struct {
	PromptTokens            *int               `json:"prompt_tokens,omitempty"`
	CompletionTokens        *int               `json:"completion_tokens,omitempty"`
	InputTokens             *int               `json:"input_tokens,omitempty"`
	OutputTokens            *int               `json:"output_tokens,omitempty"`
	TotalTokens             *int               `json:"total_tokens,omitempty"`
	CompletionTokensDetails *ChatTokensDetails `json:"completion_tokens_details,omitempty"`
	OutputTokensDetails     *ChatTokensDetails `json:"output_tokens_details,omitempty"`
	PromptTokensDetails     *ChatPromptDetails `json:"prompt_tokens_details,omitempty"`
}

// ChatTokensDetails breaks completion tokens down by kind.
type ChatTokensDetails struct {
	ReasoningTokens *int `json:"reasoning_tokens,omitempty"`
}

// ChatPromptDetails breaks prompt tokens down by kind.
type ChatPromptDetails struct {
	CachedTokens *int `json:"cached_tokens,omitempty"`
}

/*
	CHAT COMPLETIONS API - STREAMING
*/

// ChatStreamChunk is a single chat.completion.chunk stream event.
type ChatStreamChunk struct {
	ID                string             `json:"id,omitempty"`
	Object            string             `json:"object,omitempty"` // "chat.completion.chunk"
	Created           int64              `json:"created,omitempty"`
	Model             string             `json:"model,omitempty"`
	SystemFingerprint string             `json:"system_fingerprint,omitempty"`
	Choices           []ChatStreamChoice `json:"choices,omitempty"`
	Usage             *ChatUsage         `json:"usage,omitempty"`
}

// ChatStreamChoice is one choice inside a stream chunk.
type ChatStreamChoice struct {
	Index        *int       `json:"index,omitempty"`
	Delta        *ChatDelta `json:"delta,omitempty"`
	FinishReason *string    `json:"finish_reason,omitempty"`
}

// ChatDelta carries the incremental fields of a stream chunk.
type ChatDelta struct {
	Role             string `json:"role,omitempty"`
	Content          string `json:"content,omitempty"`
	ReasoningContent string `json:"reasoning_content,omitempty"`
}
