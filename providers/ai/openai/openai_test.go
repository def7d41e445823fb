package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/willpenman/llm-philosophy/providers/ai"
)

func TestBuildRequest_RequiresMaxOutputTokens(t *testing.T) {
	provider := New()

	// Unknown model with no explicit ceiling: no catalog default to fall
	// back on, so the build must fail before any network call.
	_, err := provider.BuildRequest(ai.RequestSpec{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Model:        "gpt-99-preview",
	})

	var confErr *ai.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected *ai.ConfigurationError, got %T: %v", err, err)
	}
}

func TestBuildRequest_CatalogDefaultCeiling(t *testing.T) {
	provider := New()

	request, err := provider.BuildRequest(ai.RequestSpec{
		SystemPrompt: "sys",
		UserPrompt:   "user",
		Model:        "o3-2025-04-16",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := request.Body.(responseRequest)
	if body.MaxOutputTokens != 100000 {
		t.Errorf("expected catalog default 100000, got %d", body.MaxOutputTokens)
	}
	if len(body.Input) != 2 || body.Input[0].Role != "system" || body.Input[1].Role != "user" {
		t.Errorf("expected system+user input messages, got %+v", body.Input)
	}
	if body.Input[0].Content[0].Type != "input_text" {
		t.Errorf("expected input_text content items, got %q", body.Input[0].Content[0].Type)
	}
}

func TestBuildRequest_ReasoningDefaults(t *testing.T) {
	provider := New()

	// Reasoning-capable model with no explicit config gets the defaults.
	request, err := provider.BuildRequest(ai.RequestSpec{
		SystemPrompt: "sys", UserPrompt: "user", Model: "gpt-5.2-2025-12-11",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body := request.Body.(responseRequest)
	if body.Reasoning == nil || body.Reasoning.Effort != "high" || body.Reasoning.Summary != "detailed" {
		t.Errorf("expected default reasoning {high, detailed}, got %+v", body.Reasoning)
	}

	// Non-reasoning model gets none.
	request, err = provider.BuildRequest(ai.RequestSpec{
		SystemPrompt: "sys", UserPrompt: "user", Model: "gpt-4o-2024-05-13",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	body = request.Body.(responseRequest)
	if body.Reasoning != nil {
		t.Errorf("expected no reasoning config for 4o, got %+v", body.Reasoning)
	}
}

func TestBuildRequest_ExplicitReasoningWins(t *testing.T) {
	provider := New()

	request, err := provider.BuildRequest(ai.RequestSpec{
		SystemPrompt: "sys", UserPrompt: "user", Model: "o3-2025-04-16",
		Reasoning: &ai.ReasoningSpec{Effort: "low", Summary: "auto"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	body := request.Body.(responseRequest)
	if body.Reasoning.Effort != "low" || body.Reasoning.Summary != "auto" {
		t.Errorf("expected explicit reasoning config, got %+v", body.Reasoning)
	}
}

func TestSend_NonStreaming_ExtractsEverything(t *testing.T) {
	responseBody := `{
		"id": "resp_1",
		"status": "completed",
		"model": "o3-2025-04-16",
		"output": [
			{"type": "reasoning", "summary": [{"type": "summary_text", "text": "I considered the options."}]},
			{"type": "message", "content": [{"type": "output_text", "text": "The answer is 42."}]}
		],
		"usage": {"input_tokens": 30, "output_tokens": 100, "output_tokens_details": {"reasoning_tokens": 60}}
	}`

	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		fmt.Fprint(writer, responseBody)
	}))
	defer server.Close()

	provider := New().WithAPIKey("test-key").WithBaseURL(server.URL).WithHttpClient(server.Client())

	request, err := provider.BuildRequest(ai.RequestSpec{
		SystemPrompt: "sys", UserPrompt: "user", Model: "o3-2025-04-16",
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}

	result, err := provider.Send(context.Background(), request, ai.CallOptions{})
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	if result.OutputText != "The answer is 42." {
		t.Errorf("unexpected output text %q", result.OutputText)
	}
	if result.Reasoning != "I considered the options." {
		t.Errorf("unexpected reasoning %q", result.Reasoning)
	}

	usage := provider.ExtractUsage(result.Payload)
	if usage == nil || *usage.InputTokens != 30 || *usage.OutputTokens != 100 || *usage.ReasoningTokens != 60 {
		t.Errorf("unexpected usage: %+v", usage)
	}
}

func TestExtractOutputText_PrefersConvenienceField(t *testing.T) {
	payload := json.RawMessage(`{"output_text":"direct","output":[{"type":"message","content":[{"type":"output_text","text":"nested"}]}]}`)

	if got := ExtractOutputText(payload); got != "direct" {
		t.Errorf("expected output_text field preferred, got %q", got)
	}
}

func TestExtractOutputText_JoinsMessageParts(t *testing.T) {
	payload := json.RawMessage(`{"output":[
		{"type":"message","content":[{"type":"output_text","text":"first"}]},
		{"type":"reasoning","summary":[{"type":"summary_text","text":"ignored"}]},
		{"type":"message","content":[{"type":"output_text","text":"second"}]}
	]}`)

	if got := ExtractOutputText(payload); got != "first\nsecond" {
		t.Errorf("expected message parts joined with newline, got %q", got)
	}
}

func TestExtractUsage_MissingUsage(t *testing.T) {
	provider := New()

	if got := provider.ExtractUsage(json.RawMessage(`{"id":"resp_2"}`)); got != nil {
		t.Errorf("expected nil breakdown without usage, got %+v", got)
	}
}

func TestSend_ProviderErrorCarriesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(writer, `{"error":{"message":"bad key"}}`)
	}))
	defer server.Close()

	provider := New().WithAPIKey("wrong").WithBaseURL(server.URL).WithHttpClient(server.Client())

	request, _ := provider.BuildRequest(ai.RequestSpec{SystemPrompt: "s", UserPrompt: "u", Model: "o3-2025-04-16"})

	_, err := provider.Send(context.Background(), request, ai.CallOptions{})

	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ai.ProviderError, got %T: %v", err, err)
	}
	if providerErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", providerErr.StatusCode)
	}
	if providerErr.Body != `{"error":{"message":"bad key"}}` {
		t.Errorf("expected body preserved verbatim, got %q", providerErr.Body)
	}
}

func TestSend_MissingAPIKey(t *testing.T) {
	provider := New().WithAPIKey("")

	request, _ := provider.BuildRequest(ai.RequestSpec{SystemPrompt: "s", UserPrompt: "u", Model: "o3-2025-04-16"})

	_, err := provider.Send(context.Background(), request, ai.CallOptions{})

	var confErr *ai.ConfigurationError
	if !errors.As(err, &confErr) {
		t.Fatalf("expected *ai.ConfigurationError, got %T: %v", err, err)
	}
}
