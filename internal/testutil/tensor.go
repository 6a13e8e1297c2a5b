// Package testutil provides synthetic tensors, stub inference sessions,
// and generated images for tests.
package testutil

// Anchor describes one synthetic prediction slot for building raw
// detection output tensors.
type Anchor struct {
	Index      int     // anchor index in [0, numAnchors)
	X, Y, W, H float32 // center-form box in model input space
	Conf       float32 // class confidence
	ClassID    int     // class channel receiving Conf (default 0)
}

// MakeRawOutput builds a flattened channel-major [x..., y..., w..., h...,
// class0..., class1...] detection tensor of shape (4+numClasses) x
// numAnchors. Anchors not listed keep zero confidence.
func MakeRawOutput(numAnchors, numClasses int, anchors ...Anchor) []float32 {
	raw := make([]float32, (4+numClasses)*numAnchors)
	for _, a := range anchors {
		raw[0*numAnchors+a.Index] = a.X
		raw[1*numAnchors+a.Index] = a.Y
		raw[2*numAnchors+a.Index] = a.W
		raw[3*numAnchors+a.Index] = a.H
		raw[(4+a.ClassID)*numAnchors+a.Index] = a.Conf
	}
	return raw
}
