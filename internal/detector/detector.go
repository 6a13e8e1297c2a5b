package detector

import (
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/MeKo-Tech/sigdet/internal/common"
	"github.com/MeKo-Tech/sigdet/internal/mempool"
	"github.com/MeKo-Tech/sigdet/internal/metrics"
	"github.com/MeKo-Tech/sigdet/internal/models"
)

// Detector finds handwritten signatures in document images using an
// ONNX object detection model.
type Detector struct {
	config  Config
	session Session
	metrics metrics.Sink
}

// NewDetector creates a detector backed by a real ONNX Runtime session.
func NewDetector(config Config, sink metrics.Sink) (*Detector, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if err := models.ValidateModelFile(config.ModelPath); err != nil {
		return nil, err
	}

	slog.Debug("Initializing signature detector",
		"model_path", config.ModelPath,
		"input_size", config.InputSize,
		"num_anchors", config.NumAnchors,
		"num_classes", config.NumClasses,
		"gpu_enabled", config.GPU.UseGPU)

	session, err := NewSession(config)
	if err != nil {
		return nil, err
	}

	return NewDetectorWithSession(config, session, sink)
}

// NewDetectorWithSession creates a detector with an injected inference
// session and metrics sink. Used directly in tests with stub sessions.
func NewDetectorWithSession(config Config, session Session, sink metrics.Sink) (*Detector, error) {
	if err := validateConfig(config); err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errors.New("session is nil")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	return &Detector{config: config, session: session, metrics: sink}, nil
}

// Config returns a copy of the detector's configuration.
func (d *Detector) Config() Config {
	return d.config
}

// Close releases the underlying inference session.
func (d *Detector) Close() error {
	return d.session.Close()
}

// Detect runs signature detection on img using the configured default
// thresholds.
func (d *Detector) Detect(img image.Image) (*DetectionResult, error) {
	return d.DetectWithThresholds(img, d.config.ConfThreshold, d.config.IoUThreshold)
}

// DetectWithThresholds runs signature detection with explicit thresholds.
// One timing sample covering preprocess+infer+decode is recorded on
// success; failures record nothing and propagate.
//
// Thresholds are used as given: values outside [0,1] degrade to empty or
// maximal survivor sets rather than erroring.
func (d *Detector) DetectWithThresholds(img image.Image, confThreshold, iouThreshold float64) (*DetectionResult, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}

	timer := common.NewTimer()

	bounds := img.Bounds()
	origWidth := bounds.Dx()
	origHeight := bounds.Dy()

	tensor, err := preprocessImage(img, d.config.InputSize)
	if err != nil {
		return nil, fmt.Errorf("preprocessing failed: %w", err)
	}
	defer mempool.PutFloat32(tensor.Data)

	raw, err := d.session.Run(tensor)
	if err != nil {
		return nil, err
	}

	boxes, err := DecodeOutput(raw, d.config, confThreshold, iouThreshold, origWidth, origHeight)
	if err != nil {
		// Shape mismatch against the configured model layout: a
		// deployment bug, logged loudly.
		slog.Error("Raw output tensor does not match configured model layout",
			"model_path", d.config.ModelPath, "error", err)
		return nil, err
	}

	timer.Stop()
	elapsedMs := timer.Milliseconds()
	d.metrics.Record(elapsedMs)
	metrics.ObserveSignatureCount(len(boxes))

	return &DetectionResult{
		Boxes:           boxes,
		InferenceTimeMs: elapsedMs,
		ImageWidth:      origWidth,
		ImageHeight:     origHeight,
	}, nil
}
