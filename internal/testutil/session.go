package testutil

import (
	"github.com/MeKo-Tech/sigdet/internal/onnx"
)

// StubSession is a canned inference session for tests. It returns Output
// (or Err) for every Run call and records invocations.
type StubSession struct {
	Output []float32
	Err    error

	Calls      int
	LastInput  onnx.Tensor
	CloseCalls int
}

func (s *StubSession) Run(input onnx.Tensor) ([]float32, error) {
	s.Calls++
	s.LastInput = input
	if s.Err != nil {
		return nil, s.Err
	}
	return s.Output, nil
}

func (s *StubSession) Close() error {
	s.CloseCalls++
	return nil
}

// SequenceSession returns one canned output per Run call, in order. It is
// used for multi-page tests where each page should yield distinct boxes.
type SequenceSession struct {
	Outputs [][]float32
	Errs    []error

	Calls int
}

func (s *SequenceSession) Run(_ onnx.Tensor) ([]float32, error) {
	i := s.Calls
	s.Calls++
	if i < len(s.Errs) && s.Errs[i] != nil {
		return nil, s.Errs[i]
	}
	if i < len(s.Outputs) {
		return s.Outputs[i], nil
	}
	// Fall back to the last output when more calls arrive than configured.
	if len(s.Outputs) > 0 {
		return s.Outputs[len(s.Outputs)-1], nil
	}
	return nil, nil
}

func (s *SequenceSession) Close() error { return nil }
