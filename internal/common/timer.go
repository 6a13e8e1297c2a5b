// Package common provides shared timing utilities.
package common

import (
	"fmt"
	"time"
)

// Timer measures elapsed wall time for a processing stage.
type Timer struct {
	start    time.Time
	duration time.Duration
}

// NewTimer creates a started timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Stop stops the timer and returns the elapsed duration.
func (t *Timer) Stop() time.Duration {
	t.duration = time.Since(t.start)
	return t.duration
}

// Duration returns the recorded duration (only valid after Stop).
func (t *Timer) Duration() time.Duration {
	return t.duration
}

// Milliseconds returns the recorded duration as fractional
// milliseconds, the unit used in detection results.
func (t *Timer) Milliseconds() float64 {
	return float64(t.duration.Microseconds()) / 1000.0
}

func (t *Timer) String() string {
	return fmt.Sprintf("%v", t.duration)
}
