package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerStop(t *testing.T) {
	timer := NewTimer()
	time.Sleep(5 * time.Millisecond)
	elapsed := timer.Stop()

	require.GreaterOrEqual(t, elapsed, 5*time.Millisecond)
	assert.Equal(t, elapsed, timer.Duration())
}

func TestTimerMilliseconds(t *testing.T) {
	timer := NewTimer()
	time.Sleep(2 * time.Millisecond)
	timer.Stop()

	assert.GreaterOrEqual(t, timer.Milliseconds(), 2.0)
}

func TestTimerString(t *testing.T) {
	timer := NewTimer()
	timer.Stop()
	assert.NotEmpty(t, timer.String())
}
