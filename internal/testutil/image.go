package testutil

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestImage creates a solid white RGBA image of the given size.
func NewTestImage(width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	return img
}

// NewTestImageWithRect creates a white image with one filled dark
// rectangle, a crude stand-in for a signature stroke region.
func NewTestImageWithRect(width, height int, rect image.Rectangle) *image.RGBA {
	img := NewTestImage(width, height)
	draw.Draw(img, rect.Intersect(img.Bounds()), &image.Uniform{C: color.Black}, image.Point{}, draw.Src)
	return img
}

// EncodePNG encodes an image into PNG bytes, failing the test on error.
func EncodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}
