package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/willpenman/llm-philosophy/internal/utils"
	"github.com/willpenman/llm-philosophy/providers/ai"
)

// streamState folds Messages SSE events into a payload equivalent to the
// non-streaming response. The message_start envelope is kept as a generic
// map so unrecognized top-level fields survive into the payload of record;
// content blocks accumulate through an [ai.BlockAccumulator].
type streamState struct {
	envelope    map[string]any
	blocks      *ai.BlockAccumulator
	blockStarts map[int]map[string]any
}

func newStreamState() *streamState {
	return &streamState{
		blocks:      ai.NewBlockAccumulator(),
		blockStarts: make(map[int]map[string]any),
	}
}

func (p *AnthropicProvider) sendStream(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL, "", request.Body, p.authHeaders()...)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}
	defer utils.CloseWithLog(httpResponse.Body)

	notifier := ai.NewStreamNotifier(opts.Observer)
	state := newStreamState()
	scanner := utils.NewSSEScanner(httpResponse.Body)

	for {
		event, scanErr := scanner.Next()
		if errors.Is(scanErr, io.EOF) {
			break
		}
		if scanErr != nil {
			result, _ := state.result()
			result.Incomplete = true
			return result, &ai.TransportError{Provider: providerName, Err: scanErr}
		}

		if opts.DebugSink != nil {
			_, _ = io.WriteString(opts.DebugSink, event.Data+"\n")
		}

		var parsed streamEvent
		if parseErr := json.Unmarshal([]byte(event.Data), &parsed); parseErr != nil {
			result, _ := state.result()
			result.Incomplete = true
			return result, &ai.StreamParseError{Provider: providerName, Raw: event.Data, Err: parseErr}
		}

		// The SSE event name and the payload's own type field carry the
		// same discriminator; either may be missing.
		eventType := event.Event
		if eventType == "" {
			eventType = parsed.Type
		}
		state.fold(eventType, &parsed, notifier)
	}

	result, resultErr := state.result()
	if resultErr != nil {
		return nil, resultErr
	}

	if len(result.OutputText) > notifier.Chars() {
		notifier.Progress(len(result.OutputText))
	}
	return result, nil
}

// fold dispatches one event into the accumulated state.
func (s *streamState) fold(eventType string, event *streamEvent, notifier *ai.StreamNotifier) {
	switch eventType {
	case "message_start":
		var message map[string]any
		if json.Unmarshal(event.Message, &message) == nil {
			s.envelope = message
		}

	case "content_block_start":
		if event.Index == nil {
			return
		}
		var start map[string]any
		if json.Unmarshal(event.ContentBlock, &start) != nil {
			return
		}
		kind, _ := start["type"].(string)
		block := s.blocks.Start(*event.Index, kind)
		s.blockStarts[*event.Index] = start
		// Initial fragments on the start block join the delta stream.
		if text, ok := start["text"].(string); ok {
			block.AppendText(text)
		}
		if thinking, ok := start["thinking"].(string); ok {
			block.AppendReasoning(thinking)
		}

	case "content_block_delta":
		if event.Index == nil || event.Delta == nil {
			return
		}
		delta := event.Delta
		block := s.blocks.Block(*event.Index, deltaKind(delta.Type))
		switch delta.Type {
		case "text_delta":
			block.AppendText(delta.Text)
			notifier.TextDelta(delta.Text)
		case "thinking_delta":
			block.AppendReasoning(delta.Thinking)
			notifier.ReasoningDelta(delta.Thinking)
		case "signature_delta":
			block.SetAttr("signature", delta.Signature)
		case "input_json_delta":
			block.AppendAttr("partial_json", delta.PartialJSON)
		}

	case "message_delta":
		if s.envelope == nil {
			s.envelope = make(map[string]any)
		}
		if event.Delta != nil {
			if event.Delta.StopReason != nil {
				s.envelope["stop_reason"] = event.Delta.StopReason
			}
			if event.Delta.StopSequence != nil {
				s.envelope["stop_sequence"] = event.Delta.StopSequence
			}
		}
		if len(event.Usage) > 0 {
			s.envelope["usage"] = event.Usage
		}
	}
	// message_stop, ping and unknown event types carry nothing to fold.
}

// deltaKind maps a delta type to the content-block kind used when a delta
// arrives for an index that never had a start event.
func deltaKind(deltaType string) string {
	switch deltaType {
	case "thinking_delta", "signature_delta":
		return "thinking"
	case "input_json_delta":
		return "tool_use"
	default:
		return "text"
	}
}

// result assembles the reconstructed payload: the message_start envelope with
// stop reason and usage merged in, plus the accumulated content blocks in
// ascending index order.
func (s *streamState) result() (*ai.Result, error) {
	envelope := s.envelope
	if envelope == nil {
		envelope = make(map[string]any)
	}

	if s.blocks.Len() > 0 {
		content := make([]map[string]any, 0, s.blocks.Len())
		for _, indexed := range s.blocks.Ordered() {
			content = append(content, s.finalBlock(indexed))
		}
		envelope["content"] = content
	}

	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, &ai.TransportError{Provider: providerName, Err: err}
	}

	return &ai.Result{
		Payload:    payload,
		OutputText: ExtractOutputText(payload),
		Reasoning:  ExtractThinkingText(payload),
	}, nil
}

// finalBlock merges a block's accumulated content over its start-event
// fields, so tool-use metadata and unrecognized keys pass through untouched.
func (s *streamState) finalBlock(indexed ai.IndexedBlock) map[string]any {
	final := make(map[string]any)
	for key, value := range s.blockStarts[indexed.Index] {
		final[key] = value
	}
	if indexed.Kind != "" {
		final["type"] = indexed.Kind
	}
	if text := indexed.Text(); text != "" || indexed.Kind == "text" {
		final["text"] = text
	}
	if thinking := indexed.Reasoning(); thinking != "" || indexed.Kind == "thinking" {
		final["thinking"] = thinking
	}
	if signature := indexed.Attr("signature"); signature != "" {
		final["signature"] = signature
	}
	if partial := indexed.Attr("partial_json"); partial != "" {
		final["partial_json"] = partial
	}
	return final
}
