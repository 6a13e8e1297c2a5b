package utils

import (
	"errors"
	"fmt"
	"image"

	"github.com/disintegration/imaging"

	"github.com/MeKo-Tech/sigdet/internal/mempool"
)

// ImageProcessingError provides context about image processing failures.
type ImageProcessingError struct {
	Operation string
	Err       error
}

func (e *ImageProcessingError) Error() string {
	return fmt.Sprintf("image %s failed: %v", e.Operation, e.Err)
}

func (e *ImageProcessingError) Unwrap() error {
	return e.Err
}

// ResizeToSquare resizes an image to size x size without preserving the
// aspect ratio. This matches how the detection model was trained (plain
// resize, no letterbox padding); coordinate rescaling in the decoder
// assumes exactly this transform.
func ResizeToSquare(img image.Image, size int) (image.Image, error) {
	if img == nil {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("input image is nil")}
	}
	if size <= 0 {
		return nil, &ImageProcessingError{Operation: "resize", Err: fmt.Errorf("invalid target size %d", size)}
	}

	bounds := img.Bounds()
	if bounds.Dx() <= 0 || bounds.Dy() <= 0 {
		return nil, &ImageProcessingError{Operation: "resize", Err: errors.New("empty input image")}
	}

	return imaging.Resize(img, size, size, imaging.Linear), nil
}

// NormalizeImage converts an image into a float32 NCHW tensor normalized
// to [0,1]. The returned slice has layout [1, 3, height, width] with all
// red values first, then green, then blue.
//
// The slice is drawn from mempool; callers on the hot path should hand
// it back via mempool.PutFloat32 once inference has consumed it.
func NormalizeImage(img image.Image) ([]float32, int, int, error) {
	if img == nil {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("input image is nil")}
	}

	// Convert to NRGBA to ensure we have RGB channels
	nrgba := imaging.Clone(img)
	bounds := nrgba.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()
	if width <= 0 || height <= 0 {
		return nil, 0, 0, &ImageProcessingError{Operation: "normalize", Err: errors.New("invalid image dimensions")}
	}

	tensor := mempool.GetFloat32(3 * height * width)

	for y := range height {
		for x := range width {
			r, g, b, _ := nrgba.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()

			// Convert from 0-65535 to 0-255, then to 0-1
			rIdx := 0*height*width + y*width + x
			gIdx := 1*height*width + y*width + x
			bIdx := 2*height*width + y*width + x

			tensor[rIdx] = float32(r>>8) / 255.0
			tensor[gIdx] = float32(g>>8) / 255.0
			tensor[bIdx] = float32(b>>8) / 255.0
		}
	}

	return tensor, width, height, nil
}
