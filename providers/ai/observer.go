package ai

import "log/slog"

// StreamObserver receives live streaming callbacks during event processing.
// All methods are invoked synchronously on the goroutine that reads the
// stream and must not block. Observers are purely observational: a panic in
// any method is recovered, logged once, and disables the observer for the
// remainder of the stream; reconstruction is never affected.
type StreamObserver interface {
	// OnTextDelta is called with each output text fragment in arrival order.
	OnTextDelta(text string)

	// OnReasoningDelta is called with each reasoning/thinking fragment.
	OnReasoningDelta(text string)

	// OnProgress is called after each text delta with the cumulative number
	// of output characters received so far.
	OnProgress(cumulativeChars int)
}

// StreamNotifier wraps an optional StreamObserver with character counting and
// panic isolation. The zero value and a nil receiver are both safe no-ops, so
// adapters can call it unconditionally.
type StreamNotifier struct {
	observer StreamObserver
	chars    int
	disabled bool
}

// NewStreamNotifier wraps observer; a nil observer yields a no-op notifier.
func NewStreamNotifier(observer StreamObserver) *StreamNotifier {
	return &StreamNotifier{observer: observer}
}

// TextDelta forwards a text fragment and the updated cumulative character
// count to the observer.
func (n *StreamNotifier) TextDelta(text string) {
	if n == nil || text == "" {
		return
	}
	n.chars += len(text)
	if n.observer == nil || n.disabled {
		return
	}
	n.invoke(func() {
		n.observer.OnTextDelta(text)
		n.observer.OnProgress(n.chars)
	})
}

// ReasoningDelta forwards a reasoning fragment to the observer.
func (n *StreamNotifier) ReasoningDelta(text string) {
	if n == nil || n.observer == nil || n.disabled || text == "" {
		return
	}
	n.invoke(func() {
		n.observer.OnReasoningDelta(text)
	})
}

// Progress reports an explicit cumulative character count, used after
// reconstruction when the final text is longer than the streamed deltas.
func (n *StreamNotifier) Progress(cumulativeChars int) {
	if n == nil || n.observer == nil || n.disabled {
		return
	}
	n.chars = cumulativeChars
	n.invoke(func() {
		n.observer.OnProgress(cumulativeChars)
	})
}

// Chars returns the cumulative number of text characters seen so far.
func (n *StreamNotifier) Chars() int {
	if n == nil {
		return 0
	}
	return n.chars
}

func (n *StreamNotifier) invoke(callback func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			n.disabled = true
			slog.Warn("stream observer panicked; disabling for the rest of the stream",
				"panic", recovered)
		}
	}()
	callback()
}
