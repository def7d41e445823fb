package openai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"

	"github.com/willpenman/llm-philosophy/internal/utils"
	"github.com/willpenman/llm-philosophy/providers/ai"
)

// streamState accumulates what the incremental events deliver: text deltas in
// arrival order, reasoning summary parts keyed by summary_index, and the
// terminal response snapshot.
type streamState struct {
	text      strings.Builder
	textDone  string
	summary   *ai.PartCoalescer
	snapshot  json.RawMessage
}

func (p *OpenAIProvider) sendStream(ctx context.Context, request *ai.Request, opts ai.CallOptions) (*ai.Result, error) {
	httpResponse, err := utils.DoPostStream(ctx, p.client, p.baseURL, p.apiKey, request.Body)
	if err != nil {
		return nil, ai.WrapHTTPError(providerName, err)
	}
	defer utils.CloseWithLog(httpResponse.Body)

	notifier := ai.NewStreamNotifier(opts.Observer)
	state := &streamState{summary: ai.NewPartCoalescer()}
	scanner := utils.NewSSEScanner(httpResponse.Body)

	for {
		event, scanErr := scanner.Next()
		if errors.Is(scanErr, io.EOF) {
			break
		}
		if scanErr != nil {
			result, _ := state.result(request.Model)
			result.Incomplete = true
			return result, &ai.TransportError{Provider: providerName, Err: scanErr}
		}

		if opts.DebugSink != nil {
			_, _ = io.WriteString(opts.DebugSink, event.Data+"\n")
		}

		var parsed streamEvent
		if parseErr := json.Unmarshal([]byte(event.Data), &parsed); parseErr != nil {
			result, _ := state.result(request.Model)
			result.Incomplete = true
			return result, &ai.StreamParseError{Provider: providerName, Raw: event.Data, Err: parseErr}
		}

		state.fold(&parsed, notifier)
	}

	result, resultErr := state.result(request.Model)
	if resultErr != nil {
		return nil, resultErr
	}

	if len(result.OutputText) > notifier.Chars() {
		notifier.Progress(len(result.OutputText))
	}
	return result, nil
}

// fold dispatches one incremental event into the accumulated state.
func (s *streamState) fold(event *streamEvent, notifier *ai.StreamNotifier) {
	switch event.Type {
	case "response.output_text.delta":
		delta := event.deltaString()
		s.text.WriteString(delta)
		notifier.TextDelta(delta)

	case "response.output_text.done", "response.text.done":
		// Fallback when the stream carried no deltas for this text.
		if s.textDone == "" {
			s.textDone = event.Text
		}

	case "response.reasoning_summary_text.delta":
		if event.SummaryIndex != nil {
			delta := event.deltaString()
			s.summary.AppendDelta(*event.SummaryIndex, delta)
			notifier.ReasoningDelta(delta)
		}

	case "response.reasoning_summary_part.done":
		if event.Part == nil {
			return
		}
		if event.SummaryIndex != nil {
			s.summary.MarkDone(*event.SummaryIndex, event.Part.Text)
		} else if event.Part.Text != "" {
			s.summary.MarkDoneUnindexed(event.Part.Text)
		}

	case "response.completed", "response.failed":
		// Terminal snapshot: authoritative, supersedes accumulated state.
		if len(event.Response) > 0 {
			s.snapshot = event.Response
		}
	}
}

// result assembles the final Result from the accumulated state. The terminal
// snapshot is the payload of record; when no snapshot arrived a minimal
// message payload is synthesized from the streamed text so partial results
// still extract cleanly.
func (s *streamState) result(model string) (*ai.Result, error) {
	summaryText := s.summary.Join(summaryPartSeparator)

	payload := s.snapshot
	if payload == nil {
		synthesized, err := json.Marshal(synthesizePayload(model, s.streamedText(), summaryText))
		if err != nil {
			return nil, &ai.TransportError{Provider: providerName, Err: err}
		}
		payload = synthesized
	} else if summaryText != "" {
		injected, err := injectReasoningSummary(payload, summaryText)
		if err == nil {
			payload = injected
		}
	}

	// With a snapshot the structured extraction wins; streamed fragments are
	// the fallback for snapshot-less or partial streams.
	var outputText string
	if s.snapshot != nil {
		outputText = ExtractOutputText(payload)
	}
	if outputText == "" {
		outputText = s.streamedText()
	}

	reasoning := summaryText
	if reasoning == "" {
		reasoning = ExtractReasoningSummary(payload)
	}

	return &ai.Result{
		Payload:    payload,
		OutputText: outputText,
		Reasoning:  reasoning,
	}, nil
}

func (s *streamState) streamedText() string {
	if s.text.Len() > 0 {
		return s.text.String()
	}
	return s.textDone
}

// injectReasoningSummary rewrites the summary of the first reasoning output
// item to the coalesced stream summary, which the terminal snapshot does not
// carry. The payload is edited as a generic map so unknown fields survive.
func injectReasoningSummary(payload json.RawMessage, summaryText string) (json.RawMessage, error) {
	var generic map[string]any
	if err := json.Unmarshal(payload, &generic); err != nil {
		return nil, err
	}

	outputs, ok := generic["output"].([]any)
	if !ok {
		return payload, nil
	}
	for _, rawItem := range outputs {
		item, ok := rawItem.(map[string]any)
		if !ok || item["type"] != "reasoning" {
			continue
		}
		item["summary"] = []any{
			map[string]any{"type": "summary_text", "text": summaryText},
		}
		break
	}

	return json.Marshal(generic)
}

// synthesizePayload builds a minimal response-shaped payload for streams that
// ended without a terminal snapshot.
func synthesizePayload(model, outputText, summaryText string) map[string]any {
	payload := map[string]any{"model": model}

	var outputs []any
	if summaryText != "" {
		outputs = append(outputs, map[string]any{
			"type":    "reasoning",
			"summary": []any{map[string]any{"type": "summary_text", "text": summaryText}},
		})
	}
	if outputText != "" {
		outputs = append(outputs, map[string]any{
			"type":    "message",
			"content": []any{map[string]any{"type": "output_text", "text": outputText}},
		})
	}
	if outputs != nil {
		payload["output"] = outputs
	}
	return payload
}
