package utils

import "time"

// Timer captures the wall-clock duration of one request round-trip.
// [NewTimer] starts measuring immediately; [Timer.Stop] freezes the result.
type Timer struct {
	started time.Time
	elapsed time.Duration
}

// NewTimer returns a running timer.
func NewTimer() *Timer {
	return &Timer{started: time.Now()}
}

// Restart begins a fresh measurement on the same instance.
func (t *Timer) Restart() {
	t.started = time.Now()
	t.elapsed = 0
}

// Stop freezes and returns the time elapsed since the timer started.
func (t *Timer) Stop() time.Duration {
	t.elapsed = time.Since(t.started)
	return t.elapsed
}

// Elapsed returns the duration captured by the most recent [Timer.Stop],
// zero when the timer is still running.
func (t *Timer) Elapsed() time.Duration {
	return t.elapsed
}
