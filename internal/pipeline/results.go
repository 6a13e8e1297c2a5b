package pipeline

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/pdf"
)

// Output formats accepted by the CLI and server.
const (
	FormatText = "text"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// FormatImageResult renders a single-image result in the given format.
func FormatImageResult(res *detector.DetectionResult, format string) (string, error) {
	switch format {
	case FormatText, "":
		return imageResultText(res), nil
	case FormatJSON:
		data, err := res.ToJSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(res)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

// FormatDocumentResult renders a multi-page document result in the
// given format.
func FormatDocumentResult(res *pdf.DocumentResult, format string) (string, error) {
	switch format {
	case FormatText, "":
		return documentResultText(res), nil
	case FormatJSON:
		data, err := res.ToJSON()
		if err != nil {
			return "", err
		}
		return string(data), nil
	case FormatYAML:
		data, err := yaml.Marshal(res)
		if err != nil {
			return "", err
		}
		return string(data), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func imageResultText(res *detector.DetectionResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Signatures found: %d (%.1f ms)\n", len(res.Boxes), res.InferenceTimeMs)
	for i, box := range res.Boxes {
		fmt.Fprintf(&sb, "  %d. %s %.2f at (%.0f, %.0f)-(%.0f, %.0f)\n",
			i+1, box.ClassName, box.Confidence, box.X1, box.Y1, box.X2, box.Y2)
	}
	return sb.String()
}

func documentResultText(res *pdf.DocumentResult) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Document: %s\n", res.SourcePath)
	fmt.Fprintf(&sb, "Pages processed: %d of %d (%.1f ms)\n",
		res.ProcessedPages, res.TotalPages, res.ProcessingMs)
	fmt.Fprintf(&sb, "Signatures found: %d\n", res.TotalSignatures)
	for _, page := range res.Pages {
		if page.SignatureCount() == 0 {
			continue
		}
		fmt.Fprintf(&sb, "Page %d: %d signature(s)\n", page.PageNumber, page.SignatureCount())
		for i, box := range page.Detection.Boxes {
			fmt.Fprintf(&sb, "  %d. %s %.2f at (%.0f, %.0f)-(%.0f, %.0f)\n",
				i+1, box.ClassName, box.Confidence, box.X1, box.Y1, box.X2, box.Y2)
		}
	}
	return sb.String()
}
