package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorEmpty(t *testing.T) {
	a := NewAggregator(10)
	snap := a.Snapshot()
	assert.Empty(t, snap.Times)
	assert.Zero(t, snap.Total)
	assert.Zero(t, snap.AverageMs)
	assert.Zero(t, snap.StartIndex)
}

func TestAggregatorRecordAndAverage(t *testing.T) {
	a := NewAggregator(10)
	a.Record(10)
	a.Record(20)
	a.Record(30)

	snap := a.Snapshot()
	require.Equal(t, []float64{10, 20, 30}, snap.Times)
	assert.Equal(t, int64(3), snap.Total)
	assert.InDelta(t, 20.0, snap.AverageMs, 1e-9)
	assert.Equal(t, int64(0), snap.StartIndex)
}

func TestAggregatorWindowEviction(t *testing.T) {
	a := NewAggregator(3)
	for i := 1; i <= 5; i++ {
		a.Record(float64(i * 10))
	}

	snap := a.Snapshot()
	require.Equal(t, []float64{30, 40, 50}, snap.Times)
	assert.Equal(t, int64(5), snap.Total)
	assert.InDelta(t, 40.0, snap.AverageMs, 1e-9)
	assert.Equal(t, int64(2), snap.StartIndex)
}

func TestAggregatorDefaultWindow(t *testing.T) {
	a := NewAggregator(0)
	for range DefaultWindow + 5 {
		a.Record(1)
	}
	snap := a.Snapshot()
	assert.Len(t, snap.Times, DefaultWindow)
	assert.Equal(t, int64(DefaultWindow+5), snap.Total)
}

func TestAggregatorConcurrentRecord(t *testing.T) {
	a := NewAggregator(16)
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				a.Record(1.5)
			}
		}()
	}
	wg.Wait()

	snap := a.Snapshot()
	assert.Equal(t, int64(800), snap.Total)
	assert.Len(t, snap.Times, 16)
}

func TestMultiSink(t *testing.T) {
	a := NewAggregator(4)
	b := NewAggregator(4)
	sink := MultiSink{a, b, NopSink{}}
	sink.Record(12.5)

	assert.Equal(t, int64(1), a.Snapshot().Total)
	assert.Equal(t, int64(1), b.Snapshot().Total)
}
