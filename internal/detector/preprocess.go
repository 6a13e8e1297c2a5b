package detector

import (
	"fmt"
	"image"

	"github.com/MeKo-Tech/sigdet/internal/mempool"
	"github.com/MeKo-Tech/sigdet/internal/onnx"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// preprocessImage prepares an image for detection inference: plain resize
// to the square model input (no letterboxing) and [0,1] NCHW normalization.
// The tensor's Data slice is pooled; the caller returns it via
// mempool.PutFloat32 once the session has consumed it.
func preprocessImage(img image.Image, inputSize int) (onnx.Tensor, error) {
	resized, err := utils.ResizeToSquare(img, inputSize)
	if err != nil {
		return onnx.Tensor{}, fmt.Errorf("failed to resize image: %w", err)
	}

	tensorData, width, height, err := utils.NormalizeImage(resized)
	if err != nil {
		return onnx.Tensor{}, fmt.Errorf("failed to normalize image: %w", err)
	}

	tensor, err := onnx.NewImageTensor(tensorData, 3, height, width)
	if err != nil {
		mempool.PutFloat32(tensorData)
		return onnx.Tensor{}, fmt.Errorf("failed to create tensor: %w", err)
	}

	return tensor, nil
}
