// Package common provides shared utilities including timing functionality.
package common

import (
	"fmt"
	"log/slog"
	"time"
)

// Timer measures a single operation, optionally under a name used when the
// duration is logged.
type Timer struct {
	start    time.Time
	name     string
	duration time.Duration
}

// NewTimer creates a new unnamed timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// NewNamedTimer creates a new timer with the given name.
func NewNamedTimer(name string) *Timer {
	return &Timer{name: name, start: time.Now()}
}

// Stop records and returns the elapsed duration. Calling Stop again
// re-measures from the original start.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop()).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Name returns the timer name (empty string if unnamed).
func (t *Timer) Name() string {
	return t.name
}

// Attr returns the recorded duration as a slog attribute keyed by
// "<name>_ms", or "duration_ms" for an unnamed timer.
func (t *Timer) Attr() slog.Attr {
	key := "duration_ms"
	if t.name != "" {
		key = t.name + "_ms"
	}
	return slog.Float64(key, float64(t.duration.Microseconds())/1000)
}

// String returns a formatted string representation of the timer.
func (t *Timer) String() string {
	if t.name != "" {
		return fmt.Sprintf("%s: %v", t.name, t.duration)
	}
	return t.duration.String()
}
