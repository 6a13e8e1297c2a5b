package detector

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/sigdet/internal/testutil"
)

// countingSink records how many timing samples it receives.
type countingSink struct {
	samples []float64
}

func (s *countingSink) Record(elapsedMs float64) {
	s.samples = append(s.samples, elapsedMs)
}

func newStubDetector(t *testing.T, session Session, sink *countingSink) *Detector {
	t.Helper()
	cfg := DefaultConfig()
	cfg.NumAnchors = 16
	det, err := NewDetectorWithSession(cfg, session, sink)
	require.NoError(t, err)
	return det
}

func TestDetectRecordsMetricOncePerSuccess(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAnchors = 16
	stub := &testutil.StubSession{
		Output: testutil.MakeRawOutput(cfg.NumAnchors, cfg.NumClasses,
			testutil.Anchor{Index: 0, X: 320, Y: 320, W: 100, H: 50, Conf: 0.9}),
	}
	sink := &countingSink{}
	det := newStubDetector(t, stub, sink)

	img := testutil.NewTestImage(1280, 960)
	result, err := det.Detect(img)
	require.NoError(t, err)
	require.Len(t, result.Boxes, 1)
	assert.Len(t, sink.samples, 1, "exactly one timing sample per successful call")
	assert.GreaterOrEqual(t, sink.samples[0], 0.0)

	_, err = det.Detect(img)
	require.NoError(t, err)
	assert.Len(t, sink.samples, 2)
	assert.Equal(t, 2, stub.Calls)
}

func TestDetectNoMetricOnSessionFailure(t *testing.T) {
	stub := &testutil.StubSession{Err: errors.New("session exploded")}
	sink := &countingSink{}
	det := newStubDetector(t, stub, sink)

	_, err := det.Detect(testutil.NewTestImage(100, 100))
	require.Error(t, err)
	assert.Empty(t, sink.samples, "failed inference must not record a timing sample")
}

func TestDetectNoMetricOnDecodeFailure(t *testing.T) {
	stub := &testutil.StubSession{Output: make([]float32, 7)} // bad shape
	sink := &countingSink{}
	det := newStubDetector(t, stub, sink)

	_, err := det.Detect(testutil.NewTestImage(100, 100))
	require.Error(t, err)
	var decodeErr *DecodeError
	assert.ErrorAs(t, err, &decodeErr)
	assert.Empty(t, sink.samples)
}

func TestDetectNilImage(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAnchors = 16
	stub := &testutil.StubSession{Output: testutil.MakeRawOutput(cfg.NumAnchors, cfg.NumClasses)}
	det := newStubDetector(t, stub, &countingSink{})

	_, err := det.Detect(nil)
	require.Error(t, err)
	assert.Equal(t, 0, stub.Calls, "session must not run for nil input")
}

func TestDetectResultDimensions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAnchors = 16
	stub := &testutil.StubSession{Output: testutil.MakeRawOutput(cfg.NumAnchors, cfg.NumClasses)}
	det := newStubDetector(t, stub, &countingSink{})

	result, err := det.Detect(testutil.NewTestImage(800, 600))
	require.NoError(t, err)
	assert.Equal(t, 800, result.ImageWidth)
	assert.Equal(t, 600, result.ImageHeight)
	assert.Empty(t, result.Boxes)
	assert.GreaterOrEqual(t, result.InferenceTimeMs, 0.0)
}

func TestDetectWithThresholdsOverride(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAnchors = 16
	stub := &testutil.StubSession{
		Output: testutil.MakeRawOutput(cfg.NumAnchors, cfg.NumClasses,
			testutil.Anchor{Index: 0, X: 100, Y: 100, W: 40, H: 40, Conf: 0.3}),
	}
	det := newStubDetector(t, stub, &countingSink{})
	img := testutil.NewTestImage(640, 640)

	// Default threshold 0.25 keeps the 0.3 box.
	result, err := det.Detect(img)
	require.NoError(t, err)
	assert.Len(t, result.Boxes, 1)

	// Raised threshold filters it out.
	result, err = det.DetectWithThresholds(img, 0.5, 0.5)
	require.NoError(t, err)
	assert.Empty(t, result.Boxes)
}

func TestNewDetectorWithSessionNilSink(t *testing.T) {
	cfg := DefaultConfig()
	cfg.NumAnchors = 16
	stub := &testutil.StubSession{Output: testutil.MakeRawOutput(cfg.NumAnchors, cfg.NumClasses)}

	det, err := NewDetectorWithSession(cfg, stub, nil)
	require.NoError(t, err)

	_, err = det.Detect(testutil.NewTestImage(64, 64))
	require.NoError(t, err)
}

func TestDetectorClose(t *testing.T) {
	stub := &testutil.StubSession{}
	det := newStubDetector(t, stub, &countingSink{})
	require.NoError(t, det.Close())
	assert.Equal(t, 1, stub.CloseCalls)
}
