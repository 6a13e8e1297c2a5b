package pipeline

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/MeKo-Tech/sigdet/internal/common"
	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/pdf"
	"github.com/MeKo-Tech/sigdet/internal/utils"
)

// ProcessImage runs signature detection on a single image using the
// pipeline's default thresholds.
func (p *Pipeline) ProcessImage(img image.Image) (*detector.DetectionResult, error) {
	return p.ProcessImageContext(context.Background(), img)
}

// ProcessImageContext runs signature detection with cancellation
// support. Inference itself is not interruptible; the context is
// checked before work starts.
func (p *Pipeline) ProcessImageContext(ctx context.Context, img image.Image) (*detector.DetectionResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	return p.detector.DetectWithThresholds(img, p.cfg.Detector.ConfThreshold, p.cfg.Detector.IoUThreshold)
}

// ProcessImageWithThresholds runs detection with per-request threshold
// overrides. Non-positive values fall back to the configured defaults.
func (p *Pipeline) ProcessImageWithThresholds(img image.Image, confThreshold, iouThreshold float64) (*detector.DetectionResult, error) {
	if img == nil {
		return nil, errors.New("input image is nil")
	}
	if confThreshold <= 0 {
		confThreshold = p.cfg.Detector.ConfThreshold
	}
	if iouThreshold <= 0 {
		iouThreshold = p.cfg.Detector.IoUThreshold
	}
	return p.detector.DetectWithThresholds(img, confThreshold, iouThreshold)
}

// ProcessImageFile loads the image at path and runs detection on it.
func (p *Pipeline) ProcessImageFile(path string) (*detector.DetectionResult, error) {
	img, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}
	return p.ProcessImage(img)
}

// ProcessPDF runs signature detection on every requested page of the
// PDF at path. Worker count defaults to the pipeline configuration
// when opts leaves it unset.
func (p *Pipeline) ProcessPDF(ctx context.Context, path string, opts pdf.Options) (*pdf.DocumentResult, error) {
	if opts.Workers == 0 {
		opts.Workers = p.cfg.Workers
	}
	return p.processor.ProcessDocument(ctx, path, opts)
}

// ProcessFile dispatches on content: a PDF is processed page by page,
// anything else is decoded as a raster image and reported as a
// single-page document.
func (p *Pipeline) ProcessFile(ctx context.Context, path string, opts pdf.Options) (*pdf.DocumentResult, error) {
	if pdf.IsPDF(path) {
		return p.ProcessPDF(ctx, path, opts)
	}

	timer := common.NewTimer()
	img, err := utils.LoadImage(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load image %s: %w", path, err)
	}

	res, err := p.ProcessImageWithThresholds(img, opts.ConfThreshold, opts.IoUThreshold)
	if err != nil {
		return nil, err
	}

	page := pdf.PageResult{
		PageNumber: 1,
		Width:      res.ImageWidth,
		Height:     res.ImageHeight,
		Detection:  res,
	}
	if opts.OnPage != nil {
		opts.OnPage(page)
	}

	timer.Stop()
	return &pdf.DocumentResult{
		SourcePath:      path,
		TotalPages:      1,
		ProcessedPages:  1,
		TotalSignatures: page.SignatureCount(),
		Pages:           []pdf.PageResult{page},
		ProcessingMs:    timer.Milliseconds(),
	}, nil
}
