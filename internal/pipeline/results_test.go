package pipeline

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/pdf"
)

func sampleImageResult() *detector.DetectionResult {
	return &detector.DetectionResult{
		Boxes: []detector.BoundingBox{
			{X1: 10, Y1: 20, X2: 110, Y2: 60, Confidence: 0.87, ClassName: "signature"},
		},
		InferenceTimeMs: 12.3,
		ImageWidth:      640,
		ImageHeight:     480,
	}
}

func TestFormatImageResultText(t *testing.T) {
	out, err := FormatImageResult(sampleImageResult(), FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "Signatures found: 1")
	assert.Contains(t, out, "signature 0.87")

	// Empty format defaults to text.
	out2, err := FormatImageResult(sampleImageResult(), "")
	require.NoError(t, err)
	assert.Equal(t, out, out2)
}

func TestFormatImageResultJSON(t *testing.T) {
	out, err := FormatImageResult(sampleImageResult(), FormatJSON)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))
	assert.Equal(t, 12.3, decoded["inference_time_ms"])
}

func TestFormatImageResultYAML(t *testing.T) {
	out, err := FormatImageResult(sampleImageResult(), FormatYAML)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &decoded))
	assert.NotEmpty(t, decoded)
}

func TestFormatImageResultUnknown(t *testing.T) {
	_, err := FormatImageResult(sampleImageResult(), "xml")
	require.ErrorContains(t, err, "unknown output format")
}

func TestFormatDocumentResultText(t *testing.T) {
	res := &pdf.DocumentResult{
		SourcePath:      "contract.pdf",
		TotalPages:      3,
		ProcessedPages:  3,
		TotalSignatures: 1,
		Pages: []pdf.PageResult{
			{PageNumber: 1, Detection: &detector.DetectionResult{}},
			{PageNumber: 2, Detection: sampleImageResult()},
			{PageNumber: 3, Detection: &detector.DetectionResult{}},
		},
	}

	out, err := FormatDocumentResult(res, FormatText)
	require.NoError(t, err)
	assert.Contains(t, out, "contract.pdf")
	assert.Contains(t, out, "Pages processed: 3 of 3")
	assert.Contains(t, out, "Page 2: 1 signature(s)")
	assert.NotContains(t, out, "Page 1:", "pages without signatures are omitted from the listing")
}
