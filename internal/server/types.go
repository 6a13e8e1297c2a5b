package server

import (
	"context"
	"image"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/metrics"
	"github.com/MeKo-Tech/sigdet/internal/pdf"
	"github.com/MeKo-Tech/sigdet/internal/pipeline"
)

// pipelineInterface defines the methods the server needs from a
// pipeline.
type pipelineInterface interface {
	ProcessImageWithThresholds(img image.Image, confThreshold, iouThreshold float64) (*detector.DetectionResult, error)
	ProcessPDF(ctx context.Context, path string, opts pdf.Options) (*pdf.DocumentResult, error)
	Stats() metrics.Snapshot
	Close() error
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline    pipelineInterface
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
}

// Config holds server configuration.
type Config struct {
	Host           string
	Port           int
	CORSOrigin     string
	MaxUploadMB    int64
	TimeoutSec     int
	PipelineConfig pipeline.Config
}

// HealthResponse is the payload of GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// DetectResponse wraps a single-image detection result.
type DetectResponse struct {
	Success bool                      `json:"success"`
	Result  *detector.DetectionResult `json:"result,omitempty"`
	Error   string                    `json:"error,omitempty"`
}

// DocumentResponse wraps a multi-page PDF detection result.
type DocumentResponse struct {
	Success bool                `json:"success"`
	Result  *pdf.DocumentResult `json:"result,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// NewServer creates a detection server, building the pipeline from the
// provided config.
func NewServer(config Config) (*Server, error) {
	cfg := config.PipelineConfig

	pl, err := pipeline.NewBuilder().
		WithModelsDir(cfg.ModelsDir).
		WithModelPath(cfg.Detector.ModelPath).
		WithConfidenceThreshold(cfg.Detector.ConfThreshold).
		WithIoUThreshold(cfg.Detector.IoUThreshold).
		WithDPI(cfg.DPI).
		WithWorkers(cfg.Workers).
		Build()
	if err != nil {
		return nil, err
	}

	return newServerWithPipeline(config, pl), nil
}

func newServerWithPipeline(config Config, pl pipelineInterface) *Server {
	if config.MaxUploadMB <= 0 {
		config.MaxUploadMB = 50
	}
	if config.TimeoutSec <= 0 {
		config.TimeoutSec = 120
	}
	if config.CORSOrigin == "" {
		config.CORSOrigin = "*"
	}
	return &Server{
		pipeline:    pl,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
	}
}

// Close releases server resources.
func (s *Server) Close() error {
	if s.pipeline != nil {
		return s.pipeline.Close()
	}
	return nil
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/stats", s.corsMiddleware(s.statsHandler))
	mux.HandleFunc("/detect/image", s.corsMiddleware(s.detectImageHandler))
	mux.HandleFunc("/detect/pdf", s.corsMiddleware(s.detectPDFHandler))
	mux.HandleFunc("/ws", s.detectWebSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}
