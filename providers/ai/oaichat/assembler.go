package oaichat

import (
	"strings"

	"github.com/willpenman/llm-philosophy/core/cost"
)

// ChunkAssembler folds chat.completion.chunk stream events into a terminal
// chat.completion payload. Top-level metadata (id, created, model,
// system_fingerprint, usage) is latest-wins; delta content and reasoning
// fragments are appended in arrival order; the finish reason is the last
// non-nil value observed.
type ChunkAssembler struct {
	id                string
	created           int64
	model             string
	systemFingerprint string
	usage             *ChatUsage

	content      strings.Builder
	reasoning    strings.Builder
	role         string
	choiceIndex  *int
	finishReason *string
}

// NewChunkAssembler returns an empty assembler.
func NewChunkAssembler() *ChunkAssembler {
	return &ChunkAssembler{role: "assistant"}
}

// Fold merges one stream chunk into the accumulated state and returns the
// text and reasoning fragments this chunk contributed, so callers can forward
// them to live observers without re-deriving them.
func (a *ChunkAssembler) Fold(chunk *ChatStreamChunk) (textDelta, reasoningDelta string) {
	if chunk.ID != "" {
		a.id = chunk.ID
	}
	if chunk.Created != 0 {
		a.created = chunk.Created
	}
	if chunk.Model != "" {
		a.model = chunk.Model
	}
	if chunk.SystemFingerprint != "" {
		a.systemFingerprint = chunk.SystemFingerprint
	}
	if chunk.Usage != nil {
		a.usage = chunk.Usage
	}

	for _, choice := range chunk.Choices {
		if a.choiceIndex == nil && choice.Index != nil {
			index := *choice.Index
			a.choiceIndex = &index
		}
		if choice.Delta != nil {
			if choice.Delta.Role != "" {
				a.role = choice.Delta.Role
			}
			if choice.Delta.Content != "" {
				a.content.WriteString(choice.Delta.Content)
				textDelta += choice.Delta.Content
			}
			if choice.Delta.ReasoningContent != "" {
				a.reasoning.WriteString(choice.Delta.ReasoningContent)
				reasoningDelta += choice.Delta.ReasoningContent
			}
		}
		if choice.FinishReason != nil {
			reason := *choice.FinishReason
			a.finishReason = &reason
		}
	}

	return textDelta, reasoningDelta
}

// Finalize produces the terminal chat.completion payload. The requested model
// fills in when no chunk carried one; the single reconstructed choice always
// has object "chat.completion".
func (a *ChunkAssembler) Finalize(requestedModel string) *ChatResponse {
	model := a.model
	if model == "" {
		model = requestedModel
	}

	index := 0
	if a.choiceIndex != nil {
		index = *a.choiceIndex
	}

	return &ChatResponse{
		ID:                a.id,
		Object:            "chat.completion",
		Created:           a.created,
		Model:             model,
		SystemFingerprint: a.systemFingerprint,
		Usage:             a.usage,
		Choices: []ChatChoice{
			{
				Index: index,
				Message: ChatResponseMessage{
					Role:             a.role,
					Content:          a.content.String(),
					ReasoningContent: a.reasoning.String(),
				},
				FinishReason: a.finishReason,
			},
		},
	}
}

// OutputText returns the assistant text of the first choice carrying one.
func OutputText(response *ChatResponse) string {
	for _, choice := range response.Choices {
		if choice.Message.Content != "" {
			return choice.Message.Content
		}
	}
	return ""
}

// ReasoningContent returns the reasoning text of the first choice carrying one.
func ReasoningContent(response *ChatResponse) string {
	for _, choice := range response.Choices {
		if choice.Message.ReasoningContent != "" {
			return choice.Message.ReasoningContent
		}
	}
	return ""
}

// UsageBreakdown normalizes a chat.completion usage object into a token
// breakdown. Prompt/completion fields take precedence, with the
// input/output-style names as fallback. Reasoning tokens come from
// completion_tokens_details first, then output_tokens_details. Reported
// output counts include reasoning tokens on this wire format.
func UsageBreakdown(usage *ChatUsage) *cost.TokenBreakdown {
	if usage == nil {
		return nil
	}

	input := usage.PromptTokens
	if input == nil {
		input = usage.InputTokens
	}
	output := usage.CompletionTokens
	if output == nil {
		output = usage.OutputTokens
	}

	var reasoning *int
	for _, details := range []*ChatTokensDetails{usage.CompletionTokensDetails, usage.OutputTokensDetails} {
		if details != nil && details.ReasoningTokens != nil {
			reasoning = details.ReasoningTokens
			break
		}
	}

	return &cost.TokenBreakdown{
		InputTokens:     input,
		ReasoningTokens: reasoning,
		OutputTokens:    output,
	}
}
