package oaichat

import (
	"testing"

	"github.com/willpenman/llm-philosophy/internal/utils"
)

// TestChunkAssembler_FoldsContentDeltas verifies that delta content fragments
// concatenate in arrival order into a single reconstructed message.
func TestChunkAssembler_FoldsContentDeltas(t *testing.T) {
	assembler := NewChunkAssembler()

	index := 0
	assembler.Fold(&ChatStreamChunk{
		ID:      "cmpl-1",
		Model:   "grok-3",
		Created: 1700000000,
		Choices: []ChatStreamChoice{{Index: &index, Delta: &ChatDelta{Role: "assistant", Content: "The quick"}}},
	})
	assembler.Fold(&ChatStreamChunk{
		Choices: []ChatStreamChoice{{Delta: &ChatDelta{Content: " fox"}}},
	})

	response := assembler.Finalize("grok-3")
	if got := OutputText(response); got != "The quick fox" {
		t.Errorf("expected reconstructed content %q, got %q", "The quick fox", got)
	}
	if response.Object != "chat.completion" {
		t.Errorf("expected object chat.completion, got %q", response.Object)
	}
	if response.ID != "cmpl-1" {
		t.Errorf("expected id cmpl-1, got %q", response.ID)
	}
}

// TestChunkAssembler_LatestMetadataWins verifies that repeated top-level
// fields take the most recent value.
func TestChunkAssembler_LatestMetadataWins(t *testing.T) {
	assembler := NewChunkAssembler()

	assembler.Fold(&ChatStreamChunk{ID: "cmpl-old", SystemFingerprint: "fp-old"})
	assembler.Fold(&ChatStreamChunk{ID: "cmpl-new", SystemFingerprint: "fp-new", Usage: &ChatUsage{PromptTokens: utils.Ptr(10)}})
	assembler.Fold(&ChatStreamChunk{Usage: &ChatUsage{PromptTokens: utils.Ptr(12), CompletionTokens: utils.Ptr(34)}})

	response := assembler.Finalize("model-x")
	if response.ID != "cmpl-new" {
		t.Errorf("expected latest id, got %q", response.ID)
	}
	if response.SystemFingerprint != "fp-new" {
		t.Errorf("expected latest fingerprint, got %q", response.SystemFingerprint)
	}
	if response.Usage == nil || response.Usage.PromptTokens == nil || *response.Usage.PromptTokens != 12 {
		t.Errorf("expected latest usage to win, got %+v", response.Usage)
	}
}

// TestChunkAssembler_ReasoningContent verifies that reasoning_content deltas
// accumulate separately from regular content.
func TestChunkAssembler_ReasoningContent(t *testing.T) {
	assembler := NewChunkAssembler()

	assembler.Fold(&ChatStreamChunk{
		Choices: []ChatStreamChoice{{Delta: &ChatDelta{ReasoningContent: "step one, "}}},
	})
	assembler.Fold(&ChatStreamChunk{
		Choices: []ChatStreamChoice{{Delta: &ChatDelta{ReasoningContent: "step two"}}},
	})
	assembler.Fold(&ChatStreamChunk{
		Choices: []ChatStreamChoice{{Delta: &ChatDelta{Content: "answer"}}},
	})

	response := assembler.Finalize("model-x")
	if got := ReasoningContent(response); got != "step one, step two" {
		t.Errorf("expected reasoning %q, got %q", "step one, step two", got)
	}
	if got := OutputText(response); got != "answer" {
		t.Errorf("expected content %q, got %q", "answer", got)
	}
}

// TestChunkAssembler_FinishReasonAndModelFallback verifies that the last
// non-nil finish reason sticks and the requested model fills in when the
// chunks never carried one.
func TestChunkAssembler_FinishReasonAndModelFallback(t *testing.T) {
	assembler := NewChunkAssembler()

	stop := "stop"
	assembler.Fold(&ChatStreamChunk{
		Choices: []ChatStreamChoice{{Delta: &ChatDelta{Content: "hi"}, FinishReason: &stop}},
	})

	response := assembler.Finalize("requested-model")
	if response.Model != "requested-model" {
		t.Errorf("expected requested model fallback, got %q", response.Model)
	}
	if response.Choices[0].FinishReason == nil || *response.Choices[0].FinishReason != "stop" {
		t.Errorf("expected finish_reason stop, got %v", response.Choices[0].FinishReason)
	}
}

// TestUsageBreakdown_FieldFallbacks verifies that prompt/completion names win
// over input/output names, and reasoning tokens come from whichever details
// object is present.
func TestUsageBreakdown_FieldFallbacks(t *testing.T) {
	usage := &ChatUsage{
		PromptTokens:     utils.Ptr(100),
		InputTokens:      utils.Ptr(999),
		CompletionTokens: utils.Ptr(50),
		OutputTokensDetails: &ChatTokensDetails{
			ReasoningTokens: utils.Ptr(20),
		},
	}

	breakdown := UsageBreakdown(usage)
	if breakdown.InputTokens == nil || *breakdown.InputTokens != 100 {
		t.Errorf("expected prompt_tokens to win, got %v", breakdown.InputTokens)
	}
	if breakdown.OutputTokens == nil || *breakdown.OutputTokens != 50 {
		t.Errorf("expected completion_tokens, got %v", breakdown.OutputTokens)
	}
	if breakdown.ReasoningTokens == nil || *breakdown.ReasoningTokens != 20 {
		t.Errorf("expected reasoning tokens from output_tokens_details, got %v", breakdown.ReasoningTokens)
	}
}

// TestUsageBreakdown_InputOutputNames verifies the Responses-style field names
// are used when the OpenAI-style names are absent.
func TestUsageBreakdown_InputOutputNames(t *testing.T) {
	usage := &ChatUsage{
		InputTokens:  utils.Ptr(7),
		OutputTokens: utils.Ptr(11),
	}

	breakdown := UsageBreakdown(usage)
	if breakdown.InputTokens == nil || *breakdown.InputTokens != 7 {
		t.Errorf("expected input_tokens fallback, got %v", breakdown.InputTokens)
	}
	if breakdown.OutputTokens == nil || *breakdown.OutputTokens != 11 {
		t.Errorf("expected output_tokens fallback, got %v", breakdown.OutputTokens)
	}
	if breakdown.ReasoningTokens != nil {
		t.Errorf("expected nil reasoning tokens, got %v", breakdown.ReasoningTokens)
	}
}

// TestUsageBreakdown_NilUsage verifies that a missing usage object yields nil
// rather than a zero-filled breakdown.
func TestUsageBreakdown_NilUsage(t *testing.T) {
	if got := UsageBreakdown(nil); got != nil {
		t.Errorf("expected nil breakdown for nil usage, got %+v", got)
	}
}
