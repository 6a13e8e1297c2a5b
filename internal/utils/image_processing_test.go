package utils

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func solidImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestResizeToSquare(t *testing.T) {
	img := solidImage(1280, 960, color.White)
	resized, err := ResizeToSquare(img, 640)
	require.NoError(t, err)
	b := resized.Bounds()
	assert.Equal(t, 640, b.Dx())
	assert.Equal(t, 640, b.Dy())
}

func TestResizeToSquareNilImage(t *testing.T) {
	_, err := ResizeToSquare(nil, 640)
	require.Error(t, err)
	var ipe *ImageProcessingError
	require.ErrorAs(t, err, &ipe)
	assert.Equal(t, "resize", ipe.Operation)
}

func TestResizeToSquareInvalidSize(t *testing.T) {
	img := solidImage(10, 10, color.White)
	_, err := ResizeToSquare(img, 0)
	require.Error(t, err)
}

func TestNormalizeImage(t *testing.T) {
	img := solidImage(4, 2, color.RGBA{R: 255, G: 0, B: 127, A: 255})
	tensor, w, h, err := NormalizeImage(img)
	require.NoError(t, err)
	assert.Equal(t, 4, w)
	assert.Equal(t, 2, h)
	require.Len(t, tensor, 3*4*2)

	// Channel-major: all red values first
	assert.InDelta(t, 1.0, float64(tensor[0]), 1e-6)
	// Green channel
	assert.InDelta(t, 0.0, float64(tensor[8]), 1e-6)
	// Blue channel
	assert.InDelta(t, 127.0/255.0, float64(tensor[16]), 1e-6)
}

func TestNormalizeImageRange(t *testing.T) {
	img := solidImage(3, 3, color.RGBA{R: 10, G: 200, B: 90, A: 255})
	tensor, _, _, err := NormalizeImage(img)
	require.NoError(t, err)
	for i, v := range tensor {
		if v < 0 || v > 1 {
			t.Fatalf("tensor[%d] = %v out of [0,1]", i, v)
		}
	}
}

func TestNormalizeImageNil(t *testing.T) {
	_, _, _, err := NormalizeImage(nil)
	require.Error(t, err)
}

func TestDecodeImageBytesEmpty(t *testing.T) {
	_, err := DecodeImageBytes(nil)
	require.Error(t, err)
}

func TestDrawRectStaysInBounds(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 20))
	DrawRect(img, image.Rect(-5, -5, 40, 40), color.RGBA{R: 255, A: 255}, 2)
	// Nothing to assert beyond not panicking; spot-check a border pixel.
	r, _, _, _ := img.At(0, 0).RGBA()
	assert.NotZero(t, r)
}
