package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/testutil"
)

func TestCropSignaturesPadding(t *testing.T) {
	img := testutil.NewTestImage(300, 200)
	res := &detector.DetectionResult{
		Boxes: []detector.BoundingBox{
			{X1: 100, Y1: 80, X2: 160, Y2: 120, Confidence: 0.9},
		},
	}

	crops := CropSignatures(img, res, 10)
	require.Len(t, crops, 1)
	assert.Equal(t, 80, crops[0].Image.Bounds().Dx(), "60px box + 10px padding each side")
	assert.Equal(t, 60, crops[0].Image.Bounds().Dy())
	assert.InDelta(t, 0.9, crops[0].Confidence, 1e-9)
}

func TestCropSignaturesClampsToBounds(t *testing.T) {
	img := testutil.NewTestImage(100, 100)
	res := &detector.DetectionResult{
		Boxes: []detector.BoundingBox{
			{X1: 0, Y1: 0, X2: 30, Y2: 30, Confidence: 0.8},
		},
	}

	crops := CropSignatures(img, res, 10)
	require.Len(t, crops, 1)
	// Padding cannot extend past the top-left corner.
	assert.Equal(t, 40, crops[0].Image.Bounds().Dx())
	assert.Equal(t, 40, crops[0].Image.Bounds().Dy())
}

func TestCropSignaturesEmptyInputs(t *testing.T) {
	img := testutil.NewTestImage(100, 100)
	assert.Nil(t, CropSignatures(nil, &detector.DetectionResult{}, 10))
	assert.Nil(t, CropSignatures(img, nil, 10))
	assert.Nil(t, CropSignatures(img, &detector.DetectionResult{}, 10))
}

func TestCropSignaturesNegativePadding(t *testing.T) {
	img := testutil.NewTestImage(100, 100)
	res := &detector.DetectionResult{
		Boxes: []detector.BoundingBox{
			{X1: 20, Y1: 20, X2: 50, Y2: 50, Confidence: 0.7},
		},
	}

	crops := CropSignatures(img, res, -5)
	require.Len(t, crops, 1)
	assert.Equal(t, 30, crops[0].Image.Bounds().Dx(), "negative padding degrades to zero")
}

func TestRenderCropGridLayout(t *testing.T) {
	assert.Nil(t, RenderCropGrid(nil))

	var crops []SignatureCrop
	for range 5 {
		crops = append(crops, SignatureCrop{
			Image:      testutil.NewTestImage(40, 20),
			Confidence: 0.5,
		})
	}

	grid := RenderCropGrid(crops)
	require.NotNil(t, grid)
	// Five crops wrap onto two rows at three columns max.
	assert.Greater(t, grid.Bounds().Dx(), 3*40)
	assert.Greater(t, grid.Bounds().Dy(), 2*20)
}

func TestRenderCropGridSingle(t *testing.T) {
	grid := RenderCropGrid([]SignatureCrop{
		{Image: testutil.NewTestImage(30, 30), Confidence: 0.99},
	})
	require.NotNil(t, grid)
	assert.Greater(t, grid.Bounds().Dx(), 30)
}
