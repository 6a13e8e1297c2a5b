package pipeline

import (
	"fmt"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/metrics"
	"github.com/MeKo-Tech/sigdet/internal/models"
	"github.com/MeKo-Tech/sigdet/internal/pdf"
)

// Config holds configuration for the detection pipeline and its
// components.
type Config struct {
	ModelsDir string
	Detector  detector.Config
	// DPI used when rasterizing PDF pages.
	DPI int
	// Workers bounds page-level concurrency for PDF documents.
	Workers int
}

// DefaultConfig returns a default pipeline config with component
// defaults.
func DefaultConfig() Config {
	return Config{
		ModelsDir: models.GetModelsDir(""),
		Detector:  detector.DefaultConfig(),
		DPI:       pdf.DefaultDPI,
		Workers:   1,
	}
}

// Builder constructs a Pipeline with fluent configuration.
type Builder struct {
	cfg Config
}

// NewBuilder creates a new pipeline builder with defaults.
func NewBuilder() *Builder { return &Builder{cfg: DefaultConfig()} }

// WithModelsDir sets the models directory and updates the detector
// model path.
func (b *Builder) WithModelsDir(dir string) *Builder {
	if dir != "" {
		b.cfg.ModelsDir = dir
	}
	b.cfg.Detector.UpdateModelPath(b.cfg.ModelsDir)
	return b
}

// WithModelPath overrides the detector model path directly.
func (b *Builder) WithModelPath(path string) *Builder {
	if path != "" {
		b.cfg.Detector.ModelPath = path
	}
	return b
}

// WithConfidenceThreshold sets the default confidence threshold.
func (b *Builder) WithConfidenceThreshold(threshold float64) *Builder {
	if threshold > 0 {
		b.cfg.Detector.ConfThreshold = threshold
	}
	return b
}

// WithIoUThreshold sets the default NMS IoU threshold.
func (b *Builder) WithIoUThreshold(threshold float64) *Builder {
	if threshold > 0 {
		b.cfg.Detector.IoUThreshold = threshold
	}
	return b
}

// WithGPU enables GPU inference on the given device.
func (b *Builder) WithGPU(deviceID int) *Builder {
	b.cfg.Detector.GPU.UseGPU = true
	b.cfg.Detector.GPU.DeviceID = deviceID
	return b
}

// WithGPUMemLimit caps GPU memory usage in bytes (0 = unlimited).
func (b *Builder) WithGPUMemLimit(limit uint64) *Builder {
	b.cfg.Detector.GPU.GPUMemLimit = limit
	return b
}

// WithDPI sets the PDF rasterization resolution.
func (b *Builder) WithDPI(dpi int) *Builder {
	if dpi > 0 {
		b.cfg.DPI = dpi
	}
	return b
}

// WithWorkers bounds page-level concurrency for PDF documents.
func (b *Builder) WithWorkers(workers int) *Builder {
	if workers > 0 {
		b.cfg.Workers = workers
	}
	return b
}

// Config returns a copy of the accumulated configuration.
func (b *Builder) Config() Config { return b.cfg }

// Build constructs the pipeline, loading the ONNX model.
func (b *Builder) Build() (*Pipeline, error) {
	aggregator := metrics.NewAggregator(metrics.DefaultWindow)
	sink := metrics.MultiSink{aggregator, metrics.NewPrometheusRecorder()}

	det, err := detector.NewDetector(b.cfg.Detector, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to create detector: %w", err)
	}

	return newPipeline(b.cfg, det, aggregator)
}

// Pipeline ties together page rendering, signature detection and
// metrics aggregation.
type Pipeline struct {
	cfg        Config
	detector   pdf.ImageDetector
	processor  *pdf.Processor
	aggregator *metrics.Aggregator
	closer     interface{ Close() error }
}

func newPipeline(cfg Config, det pdf.ImageDetector, aggregator *metrics.Aggregator) (*Pipeline, error) {
	renderer := pdf.NewPopplerRenderer(cfg.DPI)
	processor, err := pdf.NewProcessor(det, renderer, cfg.Detector)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		cfg:        cfg,
		detector:   det,
		processor:  processor,
		aggregator: aggregator,
	}
	if closer, ok := det.(interface{ Close() error }); ok {
		p.closer = closer
	}
	return p, nil
}

// Config returns the pipeline configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Stats returns a snapshot of the rolling inference-time aggregator.
func (p *Pipeline) Stats() metrics.Snapshot {
	return p.aggregator.Snapshot()
}

// Close releases the underlying model session.
func (p *Pipeline) Close() error {
	if p.closer != nil {
		return p.closer.Close()
	}
	return nil
}
