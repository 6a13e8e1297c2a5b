package detector

import (
	"testing"

	"github.com/MeKo-Tech/sigdet/internal/utils"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genBoundingBox generates a random 10x10 detection box.
func genBoundingBox() gopter.Gen {
	return gopter.CombineGens(
		gen.Float64Range(0, 190),
		gen.Float64Range(0, 190),
		gen.Float64Range(0.1, 1.0),
	).Map(func(vals []interface{}) BoundingBox {
		mx, ok := vals[0].(float64)
		if !ok {
			panic("expected float64")
		}
		my, ok := vals[1].(float64)
		if !ok {
			panic("expected float64")
		}
		conf, ok := vals[2].(float64)
		if !ok {
			panic("expected float64")
		}
		return BoundingBox{X1: mx, Y1: my, X2: mx + 10, Y2: my + 10, Confidence: conf, ClassName: "signature"}
	})
}

// genBoundingBoxes generates a slice of detection boxes.
func genBoundingBoxes() gopter.Gen {
	return gen.SliceOfN(20, genBoundingBox())
}

// TestNonMaxSuppression_SubsetOfInput verifies NMS never invents boxes.
func TestNonMaxSuppression_SubsetOfInput(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every kept box appears in the input", prop.ForAll(
		func(boxes []BoundingBox, iouThreshold float64) bool {
			kept := NonMaxSuppression(boxes, iouThreshold)
			if len(kept) > len(boxes) {
				return false
			}
			for _, k := range kept {
				found := false
				for _, b := range boxes {
					if k == b {
						found = true
						break
					}
				}
				if !found {
					return false
				}
			}
			return true
		},
		genBoundingBoxes(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestNonMaxSuppression_FixedPoint verifies a second pass changes nothing.
func TestNonMaxSuppression_FixedPoint(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("nms(nms(boxes, t), t) == nms(boxes, t)", prop.ForAll(
		func(boxes []BoundingBox, iouThreshold float64) bool {
			once := NonMaxSuppression(boxes, iouThreshold)
			twice := NonMaxSuppression(once, iouThreshold)
			if len(once) != len(twice) {
				return false
			}
			for i := range once {
				if once[i] != twice[i] {
					return false
				}
			}
			return true
		},
		genBoundingBoxes(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}

// TestNonMaxSuppression_KeptIoUBelowThreshold verifies no kept pair overlaps
// above the threshold.
func TestNonMaxSuppression_KeptIoUBelowThreshold(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("kept boxes have pairwise IoU <= threshold", prop.ForAll(
		func(boxes []BoundingBox, iouThreshold float64) bool {
			kept := NonMaxSuppression(boxes, iouThreshold)
			for i := range kept {
				for j := i + 1; j < len(kept); j++ {
					if utils.IoU(kept[i].Box(), kept[j].Box()) > iouThreshold {
						return false
					}
				}
			}
			return true
		},
		genBoundingBoxes(),
		gen.Float64Range(0.1, 0.9),
	))

	properties.TestingRun(t)
}
