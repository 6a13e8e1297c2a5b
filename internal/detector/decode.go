package detector

import (
	"fmt"

	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// DecodeError indicates the raw output tensor does not match the expected
// (4+C) x N layout. This is a model/decoder mismatch, i.e. a deployment
// bug, and must not be retried.
type DecodeError struct {
	Expected int
	Got      int
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("raw output length %d does not match expected (4+C)*N = %d", e.Got, e.Expected)
}

// DecodeOutput converts one raw detection tensor into candidate boxes in
// original image space and applies NMS.
//
// The tensor layout is channel-major [x, y, w, h, class confidences...]:
// all N x-values first, then all y-values, and so on, matching the
// flattened 1 x (4+C) x N model output. Anchors below confThreshold are
// dropped before any box is constructed. Surviving boxes are converted
// from center form to corner form, rescaled per axis from model input
// space to the original image dimensions, and clipped to the image
// bounds. The raw slice is never mutated.
//
// Rescaling assumes a plain resize-to-square preprocess; no letterbox
// padding correction is applied.
func DecodeOutput(raw []float32, cfg Config, confThreshold, iouThreshold float64,
	origWidth, origHeight int,
) ([]BoundingBox, error) {
	candidates, err := decodeCandidates(raw, cfg, confThreshold, origWidth, origHeight)
	if err != nil {
		return nil, err
	}
	return NonMaxSuppression(candidates, iouThreshold), nil
}

// decodeCandidates performs confidence filtering, coordinate conversion and
// rescaling, returning the unsuppressed candidate list.
func decodeCandidates(raw []float32, cfg Config, confThreshold float64,
	origWidth, origHeight int,
) ([]BoundingBox, error) {
	if len(raw) != cfg.OutputLength() {
		return nil, &DecodeError{Expected: cfg.OutputLength(), Got: len(raw)}
	}

	n := cfg.NumAnchors
	scaleX := float64(origWidth) / float64(cfg.InputSize)
	scaleY := float64(origHeight) / float64(cfg.InputSize)

	var candidates []BoundingBox
	for i := range n {
		classID, conf := bestClass(raw, cfg, i)
		if conf < confThreshold {
			continue
		}

		cx := float64(raw[0*n+i])
		cy := float64(raw[1*n+i])
		w := float64(raw[2*n+i])
		h := float64(raw[3*n+i])

		box := utils.BoxFromCenter(cx, cy, w, h).
			Scale(scaleX, scaleY).
			ClipTo(float64(origWidth), float64(origHeight))

		candidates = append(candidates, BoundingBox{
			X1:         box.MinX,
			Y1:         box.MinY,
			X2:         box.MaxX,
			Y2:         box.MaxY,
			Confidence: conf,
			ClassID:    classID,
			ClassName:  cfg.ClassName(classID),
		})
	}

	return candidates, nil
}

// bestClass returns the highest-confidence class for anchor i.
func bestClass(raw []float32, cfg Config, i int) (int, float64) {
	n := cfg.NumAnchors
	bestID := 0
	best := raw[BoxChannels*n+i]
	for c := 1; c < cfg.NumClasses; c++ {
		if v := raw[(BoxChannels+c)*n+i]; v > best {
			best = v
			bestID = c
		}
	}
	return bestID, float64(best)
}
