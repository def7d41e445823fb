package oaichat

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/willpenman/llm-philosophy/internal/utils"
	"github.com/willpenman/llm-philosophy/providers/ai"
)

// CollectStream reads chat.completion.chunk events from an SSE body until
// EOF or the [DONE] sentinel, folding them into a terminal payload via a
// ChunkAssembler. Text and reasoning deltas are forwarded to the notifier as
// they arrive; when debugSink is non-nil every raw event payload is written
// to it as one line before parsing.
//
// A malformed event returns the payload reconstructed so far together with a
// *ai.StreamParseError carrying the raw event text verbatim. A read failure
// returns the partial payload with a *ai.TransportError. Callers can use the
// partial payload to surface an incomplete result.
func CollectStream(reader io.Reader, providerName, requestedModel string, notifier *ai.StreamNotifier, debugSink io.Writer) (*ChatResponse, error) {
	assembler := NewChunkAssembler()
	scanner := utils.NewSSEScanner(reader)

	for {
		event, err := scanner.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return assembler.Finalize(requestedModel), &ai.TransportError{Provider: providerName, Err: err}
		}

		if debugSink != nil {
			_, _ = io.WriteString(debugSink, event.Data+"\n")
		}

		var chunk ChatStreamChunk
		if parseErr := json.Unmarshal([]byte(event.Data), &chunk); parseErr != nil {
			return assembler.Finalize(requestedModel), &ai.StreamParseError{
				Provider: providerName,
				Raw:      event.Data,
				Err:      parseErr,
			}
		}

		textDelta, reasoningDelta := assembler.Fold(&chunk)
		notifier.TextDelta(textDelta)
		notifier.ReasoningDelta(reasoningDelta)
	}

	response := assembler.Finalize(requestedModel)

	// The reconstructed text can exceed the notified characters when the last
	// chunks and the [DONE] sentinel arrive in one read; report the final count.
	if text := OutputText(response); len(text) > notifier.Chars() {
		notifier.Progress(len(text))
	}

	return response, nil
}
