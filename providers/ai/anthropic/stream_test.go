package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/willpenman/llm-philosophy/providers/ai"
)

// writeEvent writes one named Messages SSE event and flushes.
func writeEvent(writer http.ResponseWriter, name, data string) {
	fmt.Fprintf(writer, "event: %s\ndata: %s\n\n", name, data)
	if flusher, ok := writer.(http.Flusher); ok {
		flusher.Flush()
	}
}

type streamObserver struct {
	textDeltas []string
	progress   []int
}

func (o *streamObserver) OnTextDelta(delta string)      { o.textDeltas = append(o.textDeltas, delta) }
func (o *streamObserver) OnReasoningDelta(delta string) {}
func (o *streamObserver) OnProgress(chars int)          { o.progress = append(o.progress, chars) }

func streamingProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New().WithAPIKey("test-key").WithBaseURL(server.URL).WithHttpClient(server.Client())
}

func buildStreaming(t *testing.T, provider *AnthropicProvider) *ai.Request {
	t.Helper()
	request, err := provider.BuildRequest(ai.RequestSpec{
		SystemPrompt: "s",
		UserPrompt:   "u",
		Model:        "claude-opus-4-5-20251101",
		Stream:       true,
	})
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return request
}

func TestSendStream_ReconstructsMessage(t *testing.T) {
	provider := streamingProvider(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writeEvent(writer, "message_start", `{"type":"message_start","message":{"id":"msg_01","type":"message","role":"assistant","model":"claude-opus-4-5-20251101","content":[],"usage":{"input_tokens":25,"output_tokens":1}}}`)
		writeEvent(writer, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"thinking","thinking":""}}`)
		writeEvent(writer, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"Weigh the "}}`)
		writeEvent(writer, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"thinking_delta","thinking":"arguments."}}`)
		writeEvent(writer, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"signature_delta","signature":"sig-xyz"}}`)
		writeEvent(writer, "content_block_stop", `{"type":"content_block_stop","index":0}`)
		writeEvent(writer, "content_block_start", `{"type":"content_block_start","index":1,"content_block":{"type":"text","text":""}}`)
		writeEvent(writer, "content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"Justice "}}`)
		writeEvent(writer, "content_block_delta", `{"type":"content_block_delta","index":1,"delta":{"type":"text_delta","text":"is fairness."}}`)
		writeEvent(writer, "content_block_stop", `{"type":"content_block_stop","index":1}`)
		writeEvent(writer, "message_delta", `{"type":"message_delta","delta":{"stop_reason":"end_turn","stop_sequence":null},"usage":{"input_tokens":25,"output_tokens":40}}`)
		writeEvent(writer, "message_stop", `{"type":"message_stop"}`)
	})

	observer := &streamObserver{}
	request := buildStreaming(t, provider)

	result, err := provider.Send(context.Background(), request, ai.CallOptions{Observer: observer})
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	if result.OutputText != "Justice is fairness." {
		t.Errorf("unexpected output text %q", result.OutputText)
	}
	if result.Reasoning != "Weigh the arguments." {
		t.Errorf("unexpected reasoning text %q", result.Reasoning)
	}
	if result.Incomplete {
		t.Error("expected complete result")
	}

	var payload map[string]any
	if err := json.Unmarshal(result.Payload, &payload); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if payload["id"] != "msg_01" {
		t.Errorf("expected message_start envelope fields, got id %v", payload["id"])
	}
	if payload["stop_reason"] != "end_turn" {
		t.Errorf("expected merged stop_reason, got %v", payload["stop_reason"])
	}
	if _, present := payload["stop_sequence"]; !present {
		t.Error("expected explicit null stop_sequence to be recorded")
	}

	content, ok := payload["content"].([]any)
	if !ok || len(content) != 2 {
		t.Fatalf("expected two content blocks, got %v", payload["content"])
	}
	thinkingBlock := content[0].(map[string]any)
	if thinkingBlock["type"] != "thinking" || thinkingBlock["thinking"] != "Weigh the arguments." {
		t.Errorf("unexpected thinking block %v", thinkingBlock)
	}
	if thinkingBlock["signature"] != "sig-xyz" {
		t.Errorf("expected signature on thinking block, got %v", thinkingBlock["signature"])
	}
	textBlock := content[1].(map[string]any)
	if textBlock["type"] != "text" || textBlock["text"] != "Justice is fairness." {
		t.Errorf("unexpected text block %v", textBlock)
	}

	usage := provider.ExtractUsage(result.Payload)
	if usage == nil || usage.OutputTokens == nil || *usage.OutputTokens != 40 {
		t.Fatalf("expected final usage from message_delta, got %+v", usage)
	}

	if len(observer.textDeltas) != 2 || observer.textDeltas[0] != "Justice " {
		t.Errorf("unexpected text deltas %v", observer.textDeltas)
	}
	want := []int{len("Justice "), len("Justice is fairness.")}
	if len(observer.progress) != len(want) || observer.progress[0] != want[0] || observer.progress[1] != want[1] {
		t.Errorf("expected progress %v, got %v", want, observer.progress)
	}
}

func TestSendStream_DeltaWithoutStartEvent(t *testing.T) {
	provider := streamingProvider(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writeEvent(writer, "message_start", `{"type":"message_start","message":{"id":"msg_02","role":"assistant"}}`)
		writeEvent(writer, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"Orphan delta."}}`)
		writeEvent(writer, "message_stop", `{"type":"message_stop"}`)
	})

	request := buildStreaming(t, provider)

	result, err := provider.Send(context.Background(), request, ai.CallOptions{})
	if err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}
	if result.OutputText != "Orphan delta." {
		t.Errorf("expected synthesized text block, got %q", result.OutputText)
	}
}

func TestSendStream_MalformedEventReturnsPartial(t *testing.T) {
	provider := streamingProvider(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writeEvent(writer, "message_start", `{"type":"message_start","message":{"id":"msg_03","role":"assistant"}}`)
		writeEvent(writer, "content_block_start", `{"type":"content_block_start","index":0,"content_block":{"type":"text","text":""}}`)
		writeEvent(writer, "content_block_delta", `{"type":"content_block_delta","index":0,"delta":{"type":"text_delta","text":"partial"}}`)
		writeEvent(writer, "content_block_delta", `{broken json!`)
	})

	request := buildStreaming(t, provider)

	result, err := provider.Send(context.Background(), request, ai.CallOptions{})

	var parseErr *ai.StreamParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("expected *ai.StreamParseError, got %T: %v", err, err)
	}
	if parseErr.Raw != `{broken json!` {
		t.Errorf("expected verbatim raw event, got %q", parseErr.Raw)
	}
	if result == nil || !result.Incomplete {
		t.Fatalf("expected incomplete partial result, got %+v", result)
	}
	if result.OutputText != "partial" {
		t.Errorf("expected partial text preserved, got %q", result.OutputText)
	}
}

func TestSendStream_DebugSinkReceivesRawEvents(t *testing.T) {
	provider := streamingProvider(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "text/event-stream")
		writeEvent(writer, "message_start", `{"type":"message_start","message":{"id":"msg_04","role":"assistant"}}`)
		writeEvent(writer, "message_stop", `{"type":"message_stop"}`)
	})

	request := buildStreaming(t, provider)
	var sink bytes.Buffer

	if _, err := provider.Send(context.Background(), request, ai.CallOptions{DebugSink: &sink}); err != nil {
		t.Fatalf("unexpected send error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(sink.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected two raw events in debug sink, got %d: %q", len(lines), sink.String())
	}
	if !strings.Contains(lines[0], "message_start") {
		t.Errorf("expected first sink line to carry message_start, got %q", lines[0])
	}
}

func TestSendStream_HTTPErrorBeforeStream(t *testing.T) {
	provider := streamingProvider(t, func(writer http.ResponseWriter, request *http.Request) {
		writer.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(writer, `{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`)
	})

	request := buildStreaming(t, provider)

	_, err := provider.Send(context.Background(), request, ai.CallOptions{})

	var providerErr *ai.ProviderError
	if !errors.As(err, &providerErr) {
		t.Fatalf("expected *ai.ProviderError, got %T: %v", err, err)
	}
	if providerErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", providerErr.StatusCode)
	}
}
