package metrics

import "sync"

// DefaultWindow is the number of recent samples retained for the stats surface.
const DefaultWindow = 80

// Aggregator keeps a bounded window of recent inference times plus running
// totals. Append-only counters; safe for concurrent use.
type Aggregator struct {
	mu     sync.Mutex
	window int
	times  []float64 // most recent sample last
	total  int64
	sum    float64 // sum over the retained window
}

// NewAggregator creates an aggregator retaining the given number of recent
// samples. A non-positive window falls back to DefaultWindow.
func NewAggregator(window int) *Aggregator {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Aggregator{window: window}
}

// Record appends one timing sample in milliseconds.
func (a *Aggregator) Record(elapsedMs float64) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.total++
	a.times = append(a.times, elapsedMs)
	a.sum += elapsedMs
	if len(a.times) > a.window {
		a.sum -= a.times[0]
		a.times = a.times[1:]
	}
}

// Snapshot is a point-in-time view of the aggregator state.
type Snapshot struct {
	Times      []float64 `json:"times"`       // recent samples, oldest first
	Total      int64     `json:"total"`       // total samples ever recorded
	AverageMs  float64   `json:"avg_time_ms"` // average over the retained window
	StartIndex int64     `json:"start_index"` // global index of Times[0]
}

// Snapshot returns a copy of the current state.
func (a *Aggregator) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	times := make([]float64, len(a.times))
	copy(times, a.times)

	avg := 0.0
	if len(a.times) > 0 {
		avg = a.sum / float64(len(a.times))
	}

	return Snapshot{
		Times:      times,
		Total:      a.total,
		AverageMs:  avg,
		StartIndex: a.total - int64(len(times)),
	}
}
