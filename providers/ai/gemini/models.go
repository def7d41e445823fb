package gemini

// generateContentRequest is the generateContent REST request body. Field
// names follow the REST API's camelCase JSON convention.
type generateContentRequest struct {
	SystemInstruction *contentValue     `json:"systemInstruction,omitempty"`
	Contents          []contentValue    `json:"contents"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type contentValue struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type part struct {
	Text    string `json:"text"`
	Thought bool   `json:"thought,omitempty"`
}

type generationConfig struct {
	MaxOutputTokens *int            `json:"maxOutputTokens,omitempty"`
	Temperature     *float64        `json:"temperature,omitempty"`
	TopP            *float64        `json:"topP,omitempty"`
	TopK            *int            `json:"topK,omitempty"`
	ThinkingConfig  *thinkingConfig `json:"thinkingConfig,omitempty"`
}

type thinkingConfig struct {
	ThinkingLevel   string `json:"thinkingLevel,omitempty"`
	IncludeThoughts bool   `json:"includeThoughts,omitempty"`
}

// generateContentResponse covers the fields this package reads back out of a
// response payload; the payload of record stays raw JSON.
type generateContentResponse struct {
	Candidates    []candidate    `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata"`
}

type candidate struct {
	Content      contentValue `json:"content"`
	FinishReason string       `json:"finishReason"`
}

type usageMetadata struct {
	PromptTokenCount     *int `json:"promptTokenCount"`
	CandidatesTokenCount *int `json:"candidatesTokenCount"`
	ThoughtsTokenCount   *int `json:"thoughtsTokenCount"`
	TotalTokenCount      *int `json:"totalTokenCount"`
}
