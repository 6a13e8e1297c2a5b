// Package metrics collects inference timing samples. It provides an
// in-process rolling aggregator for the stats surface and a Prometheus
// recorder for scrape-based monitoring.
package metrics

// Sink receives one timing sample per successful detection. Implementations
// must be safe for concurrent use.
type Sink interface {
	Record(elapsedMs float64)
}

// NopSink discards all samples.
type NopSink struct{}

func (NopSink) Record(float64) {}

// MultiSink fans a sample out to several sinks.
type MultiSink []Sink

func (m MultiSink) Record(elapsedMs float64) {
	for _, s := range m {
		s.Record(elapsedMs)
	}
}
