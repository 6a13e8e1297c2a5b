package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// DefaultBoxColor is the overlay color for detected signatures.
var DefaultBoxColor = color.RGBA{R: 220, G: 40, B: 40, A: 255}

const labelHeight = 13

// RenderOverlay draws detection boxes and confidence labels over the
// image and returns an RGBA copy. The input image is not modified.
func RenderOverlay(img image.Image, res *detector.DetectionResult, boxColor color.Color) *image.RGBA {
	if img == nil {
		return nil
	}
	if boxColor == nil {
		boxColor = DefaultBoxColor
	}

	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	if res == nil {
		return dst
	}

	for _, box := range res.Boxes {
		rect := box.Box().ToRect(dst.Bounds())
		utils.DrawRect(dst, rect, boxColor, 2)

		label := fmt.Sprintf("%s %.2f", box.ClassName, box.Confidence)
		// Baseline sits just above the box, or inside it at the top
		// edge of the image.
		baseline := rect.Min.Y - 3
		if baseline < labelHeight {
			baseline = rect.Min.Y + labelHeight
		}
		drawLabelWithBackground(dst, label, rect.Min.X, baseline, boxColor)
	}
	return dst
}

// drawLabelWithBackground fills a solid strip behind the label so it
// stays readable on busy document scans.
func drawLabelWithBackground(dst *image.RGBA, label string, x, baseline int, bg color.Color) {
	width := utils.LabelWidth(label)
	strip := image.Rect(x, baseline-labelHeight+2, x+width+4, baseline+3)
	strip = strip.Intersect(dst.Bounds())
	if !strip.Empty() {
		draw.Draw(dst, strip, image.NewUniform(bg), image.Point{}, draw.Src)
	}
	utils.DrawLabel(dst, label, x+2, baseline, color.White)
}

// ParseHexColor parses a "#RRGGBB" color string (leading '#'
// optional). Returns nil for anything it cannot parse, so callers can
// fall back to DefaultBoxColor.
func ParseHexColor(s string) color.Color {
	if s == "" {
		return nil
	}
	if s[0] == '#' {
		s = s[1:]
	}
	if len(s) != 6 {
		return nil
	}
	var rv, gv, bv int
	if _, err := fmt.Sscanf(s, "%02x%02x%02x", &rv, &gv, &bv); err != nil {
		return nil
	}
	return color.RGBA{uint8(rv), uint8(gv), uint8(bv), 255} //nolint:gosec // G115: Safe conversion for RGB color values
}

// SaveOverlay renders the overlay and writes it as PNG to path.
func SaveOverlay(img image.Image, res *detector.DetectionResult, path string) error {
	overlay := RenderOverlay(img, res, nil)
	if overlay == nil {
		return fmt.Errorf("cannot render overlay for nil image")
	}
	return utils.SaveImagePNG(overlay, path)
}
