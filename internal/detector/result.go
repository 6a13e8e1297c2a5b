package detector

import (
	"encoding/json"

	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// BoundingBox is one detected signature in original image pixel space.
// Invariant: X1 <= X2, Y1 <= Y2, coordinates clipped to the image bounds.
type BoundingBox struct {
	X1         float64 `json:"x1"`
	Y1         float64 `json:"y1"`
	X2         float64 `json:"x2"`
	Y2         float64 `json:"y2"`
	Confidence float64 `json:"confidence"`
	ClassID    int     `json:"class_id"`
	ClassName  string  `json:"class_name"`
}

// Box returns the geometric box for IoU/overlay computations.
func (b BoundingBox) Box() utils.Box {
	return utils.Box{MinX: b.X1, MinY: b.Y1, MaxX: b.X2, MaxY: b.Y2}
}

// Width returns the box width in pixels.
func (b BoundingBox) Width() float64 { return b.X2 - b.X1 }

// Height returns the box height in pixels.
func (b BoundingBox) Height() float64 { return b.Y2 - b.Y1 }

// DetectionResult holds the detections for one processed image.
// Box order is NMS survivor order. Immutable after creation.
type DetectionResult struct {
	Boxes           []BoundingBox `json:"boxes"`
	InferenceTimeMs float64       `json:"inference_time_ms"`
	ImageWidth      int           `json:"image_width"`
	ImageHeight     int           `json:"image_height"`
}

// ToJSON serializes the result with indentation for CLI output.
func (r *DetectionResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
