package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type recordingObserver struct {
	textDeltas      []string
	reasoningDeltas []string
	progressChars   []int
}

func (o *recordingObserver) OnTextDelta(delta string)      { o.textDeltas = append(o.textDeltas, delta) }
func (o *recordingObserver) OnReasoningDelta(delta string) { o.reasoningDeltas = append(o.reasoningDeltas, delta) }
func (o *recordingObserver) OnProgress(chars int)          { o.progressChars = append(o.progressChars, chars) }

type panickyObserver struct {
	recordingObserver
	calls int
}

func (o *panickyObserver) OnTextDelta(delta string) {
	o.calls++
	panic("observer exploded")
}

func TestStreamNotifierForwardsDeltas(t *testing.T) {
	obs := &recordingObserver{}
	n := NewStreamNotifier(obs)

	n.TextDelta("hello ")
	n.TextDelta("world")
	n.ReasoningDelta("thinking")

	assert.Equal(t, []string{"hello ", "world"}, obs.textDeltas)
	assert.Equal(t, []string{"thinking"}, obs.reasoningDeltas)
	assert.Equal(t, []int{6, 11}, obs.progressChars)
	assert.Equal(t, 11, n.Chars())
}

func TestStreamNotifierNilObserver(t *testing.T) {
	n := NewStreamNotifier(nil)

	// Must be a no-op, never a nil dereference.
	n.TextDelta("ignored")
	n.ReasoningDelta("ignored")
	assert.Equal(t, 7, n.Chars())
}

func TestStreamNotifierIsolatesObserverPanics(t *testing.T) {
	obs := &panickyObserver{}
	n := NewStreamNotifier(obs)

	assert.NotPanics(t, func() {
		n.TextDelta("first")
		n.TextDelta("second")
	})

	// The observer is disabled after its first panic.
	assert.Equal(t, 1, obs.calls)
	// Character accounting continues regardless of observer health.
	assert.Equal(t, 11, n.Chars())
}

func TestStreamNotifierReasoningDoesNotAdvanceProgress(t *testing.T) {
	obs := &recordingObserver{}
	n := NewStreamNotifier(obs)

	n.ReasoningDelta("abcd")
	assert.Equal(t, 0, n.Chars())
	assert.Empty(t, obs.progressChars)
	assert.Equal(t, []string{"abcd"}, obs.reasoningDeltas)
}

func TestStreamNotifierExplicitProgress(t *testing.T) {
	obs := &recordingObserver{}
	n := NewStreamNotifier(obs)

	n.Progress(42)
	assert.Equal(t, 42, n.Chars())
	assert.Equal(t, []int{42}, obs.progressChars)
}
