package pdf

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/sigdet/internal/detector"
)

func TestPageResultSignatureCount(t *testing.T) {
	assert.Equal(t, 0, PageResult{}.SignatureCount())

	r := PageResult{
		PageNumber: 1,
		Detection: &detector.DetectionResult{
			Boxes: []detector.BoundingBox{{Confidence: 0.9}, {Confidence: 0.5}},
		},
	}
	assert.Equal(t, 2, r.SignatureCount())
}

func TestDocumentResultToJSON(t *testing.T) {
	result := &DocumentResult{
		SourcePath:      "contract.pdf",
		TotalPages:      3,
		ProcessedPages:  3,
		TotalSignatures: 2,
		Pages: []PageResult{
			{PageNumber: 1, Width: 100, Height: 200},
		},
		ProcessingMs: 42.0,
	}

	data, err := result.ToJSON()
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "contract.pdf", decoded["source_path"])
	assert.Equal(t, float64(3), decoded["total_pages"])
	assert.Equal(t, float64(2), decoded["total_signatures"])
}
