package pipeline

import (
	"context"
	"errors"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/sigdet/internal/detector"
	"github.com/MeKo-Tech/sigdet/internal/metrics"
	"github.com/MeKo-Tech/sigdet/internal/pdf"
	"github.com/MeKo-Tech/sigdet/internal/testutil"
)

// fakeDetector returns canned results and records the thresholds it is
// called with.
type fakeDetector struct {
	result   *detector.DetectionResult
	err      error
	lastConf float64
	lastIoU  float64
	closed   int
}

func (f *fakeDetector) DetectWithThresholds(img image.Image, conf, iou float64) (*detector.DetectionResult, error) {
	f.lastConf, f.lastIoU = conf, iou
	if f.err != nil {
		return nil, f.err
	}
	res := f.result
	if res == nil {
		bounds := img.Bounds()
		res = &detector.DetectionResult{ImageWidth: bounds.Dx(), ImageHeight: bounds.Dy()}
	}
	return res, nil
}

func (f *fakeDetector) Close() error {
	f.closed++
	return nil
}

func newStubPipeline(t *testing.T, fake *fakeDetector) *Pipeline {
	t.Helper()
	p, err := newPipeline(DefaultConfig(), fake, metrics.NewAggregator(metrics.DefaultWindow))
	require.NoError(t, err)
	return p
}

func TestBuilderConfiguration(t *testing.T) {
	cfg := NewBuilder().
		WithModelPath("/models/custom.onnx").
		WithConfidenceThreshold(0.4).
		WithIoUThreshold(0.6).
		WithDPI(150).
		WithWorkers(4).
		Config()

	assert.Equal(t, "/models/custom.onnx", cfg.Detector.ModelPath)
	assert.InDelta(t, 0.4, cfg.Detector.ConfThreshold, 1e-9)
	assert.InDelta(t, 0.6, cfg.Detector.IoUThreshold, 1e-9)
	assert.Equal(t, 150, cfg.DPI)
	assert.Equal(t, 4, cfg.Workers)
}

func TestBuilderIgnoresZeroValues(t *testing.T) {
	defaults := DefaultConfig()
	cfg := NewBuilder().
		WithConfidenceThreshold(0).
		WithIoUThreshold(0).
		WithDPI(0).
		WithWorkers(0).
		Config()

	assert.Equal(t, defaults.Detector.ConfThreshold, cfg.Detector.ConfThreshold)
	assert.Equal(t, defaults.Detector.IoUThreshold, cfg.Detector.IoUThreshold)
	assert.Equal(t, defaults.DPI, cfg.DPI)
	assert.Equal(t, defaults.Workers, cfg.Workers)
}

func TestProcessImageUsesConfiguredThresholds(t *testing.T) {
	fake := &fakeDetector{}
	p := newStubPipeline(t, fake)

	_, err := p.ProcessImage(testutil.NewTestImage(64, 64))
	require.NoError(t, err)
	assert.InDelta(t, p.cfg.Detector.ConfThreshold, fake.lastConf, 1e-9)
	assert.InDelta(t, p.cfg.Detector.IoUThreshold, fake.lastIoU, 1e-9)
}

func TestProcessImageNil(t *testing.T) {
	p := newStubPipeline(t, &fakeDetector{})
	_, err := p.ProcessImage(nil)
	require.Error(t, err)
}

func TestProcessImageContextCancelled(t *testing.T) {
	p := newStubPipeline(t, &fakeDetector{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.ProcessImageContext(ctx, testutil.NewTestImage(32, 32))
	require.ErrorIs(t, err, context.Canceled)
}

func TestProcessImageErrorPropagates(t *testing.T) {
	fake := &fakeDetector{err: errors.New("model not loaded")}
	p := newStubPipeline(t, fake)

	_, err := p.ProcessImage(testutil.NewTestImage(32, 32))
	require.ErrorContains(t, err, "model not loaded")
}

func TestPipelineClose(t *testing.T) {
	fake := &fakeDetector{}
	p := newStubPipeline(t, fake)
	require.NoError(t, p.Close())
	assert.Equal(t, 1, fake.closed)
}

func TestPipelineStats(t *testing.T) {
	aggregator := metrics.NewAggregator(metrics.DefaultWindow)
	p, err := newPipeline(DefaultConfig(), &fakeDetector{}, aggregator)
	require.NoError(t, err)

	aggregator.Record(10)
	aggregator.Record(20)

	snap := p.Stats()
	assert.Equal(t, int64(2), snap.Total)
	assert.InDelta(t, 15.0, snap.AverageMs, 1e-9)
}

func TestProcessFileImage(t *testing.T) {
	fake := &fakeDetector{result: &detector.DetectionResult{
		Boxes: []detector.BoundingBox{
			{X1: 10, Y1: 10, X2: 40, Y2: 30, Confidence: 0.9, ClassName: "signature"},
		},
		ImageWidth:  80,
		ImageHeight: 60,
	}}
	p := newStubPipeline(t, fake)

	path := filepath.Join(t.TempDir(), "page.png")
	data := testutil.EncodePNG(t, testutil.NewTestImage(80, 60))
	require.NoError(t, os.WriteFile(path, data, 0o600))

	var seen []int
	res, err := p.ProcessFile(context.Background(), path, pdf.Options{
		OnPage: func(page pdf.PageResult) { seen = append(seen, page.PageNumber) },
	})
	require.NoError(t, err)

	assert.Equal(t, 1, res.TotalPages)
	assert.Equal(t, 1, res.ProcessedPages)
	assert.Equal(t, 1, res.TotalSignatures)
	require.Len(t, res.Pages, 1)
	assert.Equal(t, 1, res.Pages[0].PageNumber)
	assert.Equal(t, 80, res.Pages[0].Width)
	assert.Equal(t, []int{1}, seen)
}

func TestProcessFileMissing(t *testing.T) {
	p := newStubPipeline(t, &fakeDetector{})

	_, err := p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.png"), pdf.Options{})
	require.Error(t, err)
}
