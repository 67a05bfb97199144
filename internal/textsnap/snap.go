// Package textsnap converts a highlighter stroke into rectangles covering the
// text underneath it.
package textsnap

import (
	"math"
	"sort"

	"pdf-annotator/pkg/geometry"
)

// Tolerances in viewport pixels, divided by the zoom before use.
const (
	LineTolerance = 5.0
	MergeGap      = 10.0
)

type line struct {
	y     float64
	rects []geometry.Rect
}

// Snap returns document-space rectangles covering the text spans touched by
// stroke, merged per line. stroke is in document space, spans are viewport
// rectangles relative to the page. The second result is false when the
// stroke touched no text and should stay freehand.
func Snap(stroke []geometry.Point, spans []geometry.Rect, vp geometry.Viewport) ([]geometry.Rect, bool) {
	if len(stroke) == 0 || len(spans) == 0 {
		return nil, false
	}
	zoom := vp.Scale
	if zoom <= 0 {
		zoom = 1
	}

	pathBox := geometry.BoundingBox(vp.PathToViewport(stroke))

	var lines []*line
	yTol := LineTolerance / zoom
	for _, span := range spans {
		if !span.Touches(pathBox) {
			continue
		}
		r := vp.RectToDocument(span)

		var target *line
		for _, l := range lines {
			if math.Abs(l.y-r.Y) < yTol {
				target = l
				break
			}
		}
		if target == nil {
			target = &line{y: r.Y}
			lines = append(lines, target)
		}
		target.rects = append(target.rects, r)
	}

	gap := MergeGap / zoom
	var merged []geometry.Rect
	for _, l := range lines {
		merged = append(merged, mergeLine(l.rects, gap)...)
	}
	return merged, len(merged) > 0
}

// mergeLine joins horizontally adjacent rectangles of one line.
func mergeLine(rects []geometry.Rect, gap float64) []geometry.Rect {
	sort.SliceStable(rects, func(i, j int) bool { return rects[i].X < rects[j].X })

	out := make([]geometry.Rect, 0, len(rects))
	cur := rects[0]
	for _, next := range rects[1:] {
		if next.X-cur.Right() < gap {
			cur = cur.Union(next)
			continue
		}
		out = append(out, cur)
		cur = next
	}
	return append(out, cur)
}
