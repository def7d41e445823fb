package openai

import "encoding/json"

/*
	RESPONSES API - INPUT
*/

// responseRequest represents the /v1/responses request format.
type responseRequest struct {
	Model           string           `json:"model"`
	Input           []inputMessage   `json:"input"`
	MaxOutputTokens int              `json:"max_output_tokens"`
	Temperature     *float64         `json:"temperature,omitempty"`
	TopP            *float64         `json:"top_p,omitempty"`
	Reasoning       *reasoningConfig `json:"reasoning,omitempty"`
	Seed            *int             `json:"seed,omitempty"`
	Stream          *bool            `json:"stream,omitempty"`
}

type inputMessage struct {
	Role    string        `json:"role"` // system, user
	Content []contentItem `json:"content"`
}

type contentItem struct {
	Type string `json:"type"` // "input_text"
	Text string `json:"text"`
}

// reasoningConfig enables the model's deliberation phase and controls how
// much of it is summarized back.
type reasoningConfig struct {
	Effort  string `json:"effort,omitempty"`  // "low", "medium", "high"
	Summary string `json:"summary,omitempty"` // "auto", "concise", "detailed"
}

/*
	RESPONSES API - OUTPUT
*/

// responsePayload models the fields of a terminal response object that
// extraction needs. The raw payload is always preserved alongside; this
// struct is never re-marshaled as the payload of record.
type responsePayload struct {
	ID         string         `json:"id,omitempty"`
	Status     string         `json:"status,omitempty"`
	Model      string         `json:"model,omitempty"`
	OutputText string         `json:"output_text,omitempty"`
	Output     []outputItem   `json:"output,omitempty"`
	Usage      *responseUsage `json:"usage,omitempty"`
}

type outputItem struct {
	Type    string          `json:"type"` // "message", "reasoning"
	Content []outputContent `json:"content,omitempty"`
	Summary []summaryPart   `json:"summary,omitempty"`
}

type outputContent struct {
	Type string `json:"type"` // "output_text"
	Text string `json:"text,omitempty"`
}

type summaryPart struct {
	Type string `json:"type"` // "summary_text"
	Text string `json:"text,omitempty"`
}

type responseUsage struct {
	InputTokens         *int                 `json:"input_tokens,omitempty"`
	OutputTokens        *int                 `json:"output_tokens,omitempty"`
	TotalTokens         *int                 `json:"total_tokens,omitempty"`
	OutputTokensDetails *outputTokensDetails `json:"output_tokens_details,omitempty"`
}

type outputTokensDetails struct {
	ReasoningTokens *int `json:"reasoning_tokens,omitempty"`
}

/*
	RESPONSES API - STREAMING
*/

// streamEvent is the superset of incremental event shapes. The Type field
// discriminates; unused fields are simply absent.
type streamEvent struct {
	Type         string          `json:"type"`
	Delta        json.RawMessage `json:"delta,omitempty"` // string for text deltas
	Text         string          `json:"text,omitempty"`
	SummaryIndex *int            `json:"summary_index,omitempty"`
	Part         *summaryPart    `json:"part,omitempty"`
	Response     json.RawMessage `json:"response,omitempty"` // terminal snapshot
}

// deltaString decodes the delta field when it is a JSON string, empty
// otherwise. Some event types reuse "delta" for structured payloads.
func (e *streamEvent) deltaString() string {
	if len(e.Delta) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(e.Delta, &s); err != nil {
		return ""
	}
	return s
}
