package pipeline

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// DefaultCropPadding is the margin in pixels added around each
// signature crop.
const DefaultCropPadding = 10

// maxGridColumns caps the crop grid width.
const maxGridColumns = 3

// SignatureCrop is one cut-out signature region.
type SignatureCrop struct {
	Image      image.Image
	Confidence float64
}

// CropSignatures cuts each detected signature out of img with padding
// pixels of margin, clamped to the image bounds. Crops follow the box
// order of res.
func CropSignatures(img image.Image, res *detector.DetectionResult, padding int) []SignatureCrop {
	if img == nil || res == nil || len(res.Boxes) == 0 {
		return nil
	}
	if padding < 0 {
		padding = 0
	}

	bounds := img.Bounds()
	crops := make([]SignatureCrop, 0, len(res.Boxes))
	for _, box := range res.Boxes {
		rect := box.Box().ToRect(bounds).Inset(-padding)
		rect = rect.Intersect(bounds)
		if rect.Empty() {
			continue
		}
		crops = append(crops, SignatureCrop{
			Image:      imaging.Crop(img, rect),
			Confidence: box.Confidence,
		})
	}
	return crops
}

// RenderCropGrid lays the crops out in a grid of at most three columns,
// each cell labeled with its confidence. Returns nil for no crops.
func RenderCropGrid(crops []SignatureCrop) *image.RGBA {
	if len(crops) == 0 {
		return nil
	}

	cols := len(crops)
	if cols > maxGridColumns {
		cols = maxGridColumns
	}
	rows := (len(crops) + cols - 1) / cols

	cellW, cellH := 0, 0
	for _, c := range crops {
		b := c.Image.Bounds()
		if b.Dx() > cellW {
			cellW = b.Dx()
		}
		if b.Dy() > cellH {
			cellH = b.Dy()
		}
	}
	// Room for the confidence caption under each cell.
	const captionH = labelHeight + 6
	const gap = 8

	gridW := cols*cellW + (cols+1)*gap
	gridH := rows*(cellH+captionH) + (rows+1)*gap
	grid := image.NewRGBA(image.Rect(0, 0, gridW, gridH))
	draw.Draw(grid, grid.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	for i, c := range crops {
		col := i % cols
		row := i / cols
		x := gap + col*(cellW+gap)
		y := gap + row*(cellH+captionH+gap)

		b := c.Image.Bounds()
		// Center small crops within the cell.
		offsetX := x + (cellW-b.Dx())/2
		cell := image.Rect(offsetX, y, offsetX+b.Dx(), y+b.Dy())
		draw.Draw(grid, cell, c.Image, b.Min, draw.Src)

		caption := fmt.Sprintf("confidence: %.2f", c.Confidence)
		utils.DrawLabel(grid, caption, x, y+cellH+labelHeight, color.Black)
	}
	return grid
}

// SaveCropGrid writes the crop grid as PNG to path. No file is written
// when there are no crops.
func SaveCropGrid(crops []SignatureCrop, path string) error {
	grid := RenderCropGrid(crops)
	if grid == nil {
		return nil
	}
	return utils.SaveImagePNG(grid, path)
}
