package geometry

import (
	"fmt"
	"math"
)

// Viewport maps document space (page at scale 1, unrotated) onto the pixels
// currently displayed for that page.
type Viewport struct {
	Width     float64
	Height    float64
	Scale     float64
	Rotation  int
	Transform AffineTransform

	inverse AffineTransform
}

// NormalizeRotation folds any multiple of 90 degrees into [0, 360).
func NormalizeRotation(rotation int) int {
	r := rotation % 360
	if r < 0 {
		r += 360
	}
	return r
}

// NewViewport builds the viewport for a page of the given document-space size
// at scale and rotation. Rotation must be a multiple of 90.
func NewViewport(page Size, scale float64, rotation int) (Viewport, error) {
	if scale <= 0 || math.IsNaN(scale) || math.IsInf(scale, 0) {
		return Viewport{}, fmt.Errorf("invalid viewport scale %v", scale)
	}
	rot := NormalizeRotation(rotation)
	w, h := page.Width*scale, page.Height*scale

	var t AffineTransform
	vp := Viewport{Scale: scale, Rotation: rot}
	switch rot {
	case 0:
		t = AffineTransform{A: scale, D: scale}
		vp.Width, vp.Height = w, h
	case 90:
		t = AffineTransform{B: -scale, TX: h, C: scale}
		vp.Width, vp.Height = h, w
	case 180:
		t = AffineTransform{A: -scale, TX: w, D: -scale, TY: h}
		vp.Width, vp.Height = w, h
	case 270:
		t = AffineTransform{B: scale, C: -scale, TY: w}
		vp.Width, vp.Height = h, w
	default:
		return Viewport{}, fmt.Errorf("rotation %d is not a multiple of 90", rotation)
	}
	vp.Transform = t
	inv, ok := t.Inverse()
	if !ok {
		return Viewport{}, fmt.Errorf("viewport transform is not invertible")
	}
	vp.inverse = inv
	return vp, nil
}

// MustViewport is NewViewport for callers with known-good arguments.
func MustViewport(page Size, scale float64, rotation int) Viewport {
	vp, err := NewViewport(page, scale, rotation)
	if err != nil {
		panic(err)
	}
	return vp
}

// Size returns the displayed size.
func (v Viewport) Size() Size {
	return Size{Width: v.Width, Height: v.Height}
}

// ToViewport converts a document-space point to viewport pixels.
func (v Viewport) ToViewport(p Point) Point {
	return v.Transform.Apply(p)
}

// ToDocument converts a viewport pixel back to document space.
func (v Viewport) ToDocument(p Point) Point {
	return v.inverse.Apply(p)
}

// RectToViewport converts a document-space rectangle to the axis-aligned
// viewport rectangle covering it.
func (v Viewport) RectToViewport(r Rect) Rect {
	return v.mapRect(r, v.Transform)
}

// RectToDocument converts a viewport rectangle back to document space.
func (v Viewport) RectToDocument(r Rect) Rect {
	return v.mapRect(r, v.inverse)
}

func (v Viewport) mapRect(r Rect, t AffineTransform) Rect {
	c := r.Corners()
	pts := make([]Point, 0, 4)
	for _, p := range c {
		pts = append(pts, t.Apply(p))
	}
	return BoundingBox(pts)
}

// PathToViewport converts a path point by point.
func (v Viewport) PathToViewport(path []Point) []Point {
	out := make([]Point, len(path))
	for i, p := range path {
		out[i] = v.ToViewport(p)
	}
	return out
}
