package detector

import (
	"sort"

	"github.com/MeKo-Tech/sigdet/internal/mempool"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// NonMaxSuppression performs greedy Non-Maximum Suppression: candidates are
// visited in descending confidence order; each emitted box suppresses every
// remaining candidate whose IoU with it exceeds iouThreshold.
//
// Equal-confidence candidates keep their input relative order (stable sort),
// so the output is deterministic for any input. O(n^2) in the candidate
// count, which stays small after confidence filtering.
func NonMaxSuppression(boxes []BoundingBox, iouThreshold float64) []BoundingBox {
	if len(boxes) <= 1 {
		return boxes
	}

	indices := make([]int, len(boxes))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(i, j int) bool {
		return boxes[indices[i]].Confidence > boxes[indices[j]].Confidence
	})

	suppressed := mempool.GetBool(len(boxes))
	defer mempool.PutBool(suppressed)
	kept := make([]BoundingBox, 0, len(boxes))

	for _, a := range indices {
		if suppressed[a] {
			continue
		}
		kept = append(kept, boxes[a])

		for _, b := range indices {
			if suppressed[b] || a == b {
				continue
			}
			if utils.IoU(boxes[a].Box(), boxes[b].Box()) > iouThreshold {
				suppressed[b] = true
			}
		}
	}

	return kept
}
