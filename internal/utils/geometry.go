package utils

import (
	"image"
	"math"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64
	Y float64
}

// Box represents an axis-aligned bounding box in float coordinates.
type Box struct {
	MinX float64
	MinY float64
	MaxX float64
	MaxY float64
}

// NewBox constructs a Box from min/max coordinates ensuring ordering.
func NewBox(x1, y1, x2, y2 float64) Box {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	return Box{MinX: x1, MinY: y1, MaxX: x2, MaxY: y2}
}

// BoxFromCenter converts a center-form box (cx, cy, w, h) to corner form.
// The caller guarantees w, h >= 0; no validation is performed.
func BoxFromCenter(cx, cy, w, h float64) Box {
	return Box{
		MinX: cx - w/2,
		MinY: cy - h/2,
		MaxX: cx + w/2,
		MaxY: cy + h/2,
	}
}

// Width returns the box width.
func (b Box) Width() float64 { return b.MaxX - b.MinX }

// Height returns the box height.
func (b Box) Height() float64 { return b.MaxY - b.MinY }

// Area returns the box area.
func (b Box) Area() float64 { return b.Width() * b.Height() }

// Scale returns a copy of the box with both axes scaled independently.
func (b Box) Scale(sx, sy float64) Box {
	return Box{MinX: b.MinX * sx, MinY: b.MinY * sy, MaxX: b.MaxX * sx, MaxY: b.MaxY * sy}
}

// ClipTo returns a copy of the box clipped to [0,width]x[0,height].
func (b Box) ClipTo(width, height float64) Box {
	return Box{
		MinX: Clamp(b.MinX, 0, width),
		MinY: Clamp(b.MinY, 0, height),
		MaxX: Clamp(b.MaxX, 0, width),
		MaxY: Clamp(b.MaxY, 0, height),
	}
}

// ToRect converts a Box to an image.Rectangle, clamped to image bounds.
func (b Box) ToRect(bounds image.Rectangle) image.Rectangle {
	x1 := clampInt(int(math.Floor(b.MinX)), bounds.Min.X, bounds.Max.X)
	y1 := clampInt(int(math.Floor(b.MinY)), bounds.Min.Y, bounds.Max.Y)
	x2 := clampInt(int(math.Ceil(b.MaxX)), bounds.Min.X, bounds.Max.X)
	y2 := clampInt(int(math.Ceil(b.MaxY)), bounds.Min.Y, bounds.Max.Y)
	if x2 < x1 {
		x2 = x1
	}
	if y2 < y1 {
		y2 = y1
	}
	return image.Rect(x1, y1, x2, y2)
}

// IntersectionArea returns the overlap area of two boxes, or 0 when they
// do not overlap. Clamped max/min never produce a negative contribution.
func IntersectionArea(a, b Box) float64 {
	left := math.Max(a.MinX, b.MinX)
	top := math.Max(a.MinY, b.MinY)
	right := math.Min(a.MaxX, b.MaxX)
	bottom := math.Min(a.MaxY, b.MaxY)

	if left >= right || top >= bottom {
		return 0.0
	}
	return (right - left) * (bottom - top)
}

// UnionArea returns area(a) + area(b) - intersection(a, b).
func UnionArea(a, b Box) float64 {
	return a.Area() + b.Area() - IntersectionArea(a, b)
}

// IoU computes Intersection over Union for two boxes. Degenerate zero-area
// pairs yield 0 rather than dividing by zero.
func IoU(a, b Box) float64 {
	inter := IntersectionArea(a, b)
	if inter <= 0 {
		return 0.0
	}
	union := UnionArea(a, b)
	if union <= 0 {
		return 0.0
	}
	return inter / union
}

// Clamp saturates v into [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
