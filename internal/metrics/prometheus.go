package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	inferenceDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sigdet_inference_duration_seconds",
			Help:    "Signature detection inference duration in seconds",
			Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	inferencesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sigdet_inferences_total",
			Help: "Total number of detection inferences",
		},
	)

	signaturesDetected = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sigdet_signatures_per_image",
			Help:    "Number of signatures detected per image",
			Buckets: []float64{0, 1, 2, 3, 5, 10, 25},
		},
	)

	pagesProcessed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sigdet_pdf_pages_processed_total",
			Help: "Total number of PDF pages processed",
		},
	)
)

// PrometheusRecorder exports inference timings to Prometheus.
type PrometheusRecorder struct{}

// NewPrometheusRecorder returns a Sink backed by the package-level collectors.
func NewPrometheusRecorder() *PrometheusRecorder {
	return &PrometheusRecorder{}
}

// Record observes one inference duration given in milliseconds.
func (*PrometheusRecorder) Record(elapsedMs float64) {
	inferencesTotal.Inc()
	inferenceDuration.Observe(elapsedMs / 1000.0)
}

// ObserveSignatureCount records the number of boxes found in one image.
func ObserveSignatureCount(n int) {
	signaturesDetected.Observe(float64(n))
}

// IncPagesProcessed counts one processed PDF page.
func IncPagesProcessed() {
	pagesProcessed.Inc()
}
