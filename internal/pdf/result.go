package pdf

import (
	"encoding/json"

	"github.com/MeKo-Tech/sigdet/internal/detector"
)

// PageResult holds the detections for one processed page. PageNumber is
// 1-based and matches the page's position in the source document.
type PageResult struct {
	PageNumber int                       `json:"page_number"`
	Width      int                       `json:"width"`
	Height     int                       `json:"height"`
	Detection  *detector.DetectionResult `json:"detection"`
}

// SignatureCount returns the number of boxes detected on this page.
func (p PageResult) SignatureCount() int {
	if p.Detection == nil {
		return 0
	}
	return len(p.Detection.Boxes)
}

// DocumentResult aggregates the per-page results for one document.
// Pages are ordered by page number; no entry is missing or duplicated
// within the processed range.
type DocumentResult struct {
	SourcePath      string       `json:"source_path"`
	TotalPages      int          `json:"total_pages"`
	ProcessedPages  int          `json:"processed_pages"`
	TotalSignatures int          `json:"total_signatures"`
	Pages           []PageResult `json:"pages"`
	ProcessingMs    float64      `json:"processing_ms"`
}

// ToJSON serializes the result with indentation for CLI output.
func (r *DocumentResult) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
