package layout

import (
	"math"

	"pdf-annotator/pkg/geometry"
)

// DefaultMargin is how far beyond the visible area, in pixels, slots start
// loading.
const DefaultMargin = 500

// VisibilityEstimator decides which slots should be rendered for a scroll
// position.
type VisibilityEstimator interface {
	Due(scroll geometry.Point, viewport geometry.Size, margin float64) []int
}

// StackEstimator lays slots out one after another along the scroll axis.
type StackEstimator struct {
	Extents    []geometry.Size
	Gap        float64
	Horizontal bool
}

// NewStackEstimator returns a vertical stack of the given slot extents.
func NewStackEstimator(extents []geometry.Size, gap float64) *StackEstimator {
	return &StackEstimator{Extents: extents, Gap: gap}
}

func (e *StackEstimator) length(s geometry.Size) float64 {
	if e.Horizontal {
		return s.Width
	}
	return s.Height
}

// Offset returns where slot i starts along the scroll axis.
func (e *StackEstimator) Offset(i int) float64 {
	var off float64
	for j := 0; j < i && j < len(e.Extents); j++ {
		off += e.length(e.Extents[j]) + e.Gap
	}
	return off
}

// Length returns the total scrollable length.
func (e *StackEstimator) Length() float64 {
	if len(e.Extents) == 0 {
		return 0
	}
	return e.Offset(len(e.Extents)-1) + e.length(e.Extents[len(e.Extents)-1])
}

func (e *StackEstimator) window(scroll geometry.Point, viewport geometry.Size) (float64, float64) {
	if e.Horizontal {
		return scroll.X, scroll.X + viewport.Width
	}
	return scroll.Y, scroll.Y + viewport.Height
}

// Due returns the indices of slots intersecting the viewport grown by margin
// along the scroll axis.
func (e *StackEstimator) Due(scroll geometry.Point, viewport geometry.Size, margin float64) []int {
	lo, hi := e.window(scroll, viewport)
	lo -= margin
	hi += margin

	var due []int
	off := 0.0
	for i, ext := range e.Extents {
		end := off + e.length(ext)
		if end >= lo && off <= hi {
			due = append(due, i)
		}
		off = end + e.Gap
	}
	return due
}

// Nearest returns the slot whose centre is closest to the centre of the
// viewport, considering only slots for which populated returns true. A nil
// populated considers every slot.
func (e *StackEstimator) Nearest(scroll geometry.Point, viewport geometry.Size, populated func(int) bool) (int, bool) {
	lo, hi := e.window(scroll, viewport)
	center := (lo + hi) / 2

	best, bestDist := -1, math.Inf(1)
	off := 0.0
	for i, ext := range e.Extents {
		l := e.length(ext)
		if populated == nil || populated(i) {
			if d := math.Abs(center - (off + l/2)); d < bestDist {
				best, bestDist = i, d
			}
		}
		off += l + e.Gap
	}
	return best, best >= 0
}
