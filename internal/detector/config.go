package detector

import (
	"errors"
	"fmt"

	"github.com/MeKo-Tech/sigdet/internal/models"
	"github.com/MeKo-Tech/sigdet/internal/onnx"
)

// BoxChannels is the number of box parameter channels (x, y, w, h) that
// precede the per-class confidence channels in the model output.
const BoxChannels = 4

// Config holds configuration for the signature detector.
type Config struct {
	ModelPath     string         // Path to ONNX detection model
	InputSize     int            // Model input side length (default: 640)
	NumAnchors    int            // Anchors in the model output grid (default: 8400)
	NumClasses    int            // Class confidence channels (default: 1)
	ClassNames    []string       // Class names indexed by class ID
	ConfThreshold float64        // Default confidence threshold (default: 0.25)
	IoUThreshold  float64        // Default IoU threshold for NMS (default: 0.5)
	NumThreads    int            // Number of CPU threads (default: 0 for auto)
	GPU           onnx.GPUConfig // GPU acceleration configuration
}

// DefaultConfig returns a default detector configuration matching the
// YOLOv8s signature detection model.
func DefaultConfig() Config {
	return Config{
		ModelPath:     models.GetDetectionModelPath(""),
		InputSize:     640,
		NumAnchors:    8400,
		NumClasses:    1,
		ClassNames:    []string{"signature"},
		ConfThreshold: 0.25,
		IoUThreshold:  0.5,
		NumThreads:    0,
		GPU:           onnx.DefaultGPUConfig(),
	}
}

// UpdateModelPath updates the ModelPath based on modelsDir.
func (c *Config) UpdateModelPath(modelsDir string) {
	c.ModelPath = models.GetDetectionModelPath(modelsDir)
}

// OutputLength returns the expected flattened output tensor length.
func (c Config) OutputLength() int {
	return (BoxChannels + c.NumClasses) * c.NumAnchors
}

// ClassName returns the name for a class ID, or a numeric fallback.
func (c Config) ClassName(id int) string {
	if id >= 0 && id < len(c.ClassNames) {
		return c.ClassNames[id]
	}
	return fmt.Sprintf("class_%d", id)
}

// validateConfig validates the detector configuration.
func validateConfig(config Config) error {
	if config.ModelPath == "" {
		return errors.New("model path cannot be empty")
	}
	if config.InputSize <= 0 {
		return fmt.Errorf("input size must be positive, got %d", config.InputSize)
	}
	if config.NumAnchors <= 0 {
		return fmt.Errorf("anchor count must be positive, got %d", config.NumAnchors)
	}
	if config.NumClasses <= 0 {
		return fmt.Errorf("class count must be positive, got %d", config.NumClasses)
	}
	return onnx.ValidateGPUConfig(config.GPU)
}
