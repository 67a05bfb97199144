// Package shape turns noisy freehand strokes into clean lines, triangles,
// rectangles and circles.
package shape

import (
	"pdf-annotator/pkg/geometry"
)

// Simplify reduces a polyline with Ramer-Douglas-Peucker. A point is kept
// when its squared distance to the chord between the two surrounding kept
// points exceeds tolerance squared. Inputs of two points or fewer are
// returned unchanged.
func Simplify(points []geometry.Point, tolerance float64) []geometry.Point {
	if len(points) <= 2 {
		return points
	}

	sqTolerance := tolerance * tolerance
	last := len(points) - 1

	out := make([]geometry.Point, 0, len(points))
	out = append(out, points[0])
	out = simplifyStep(points, 0, last, sqTolerance, out)
	out = append(out, points[last])
	return out
}

func simplifyStep(points []geometry.Point, start, end int, sqTolerance float64, out []geometry.Point) []geometry.Point {
	maxSqDist := sqTolerance
	index := -1

	for i := start + 1; i < end; i++ {
		if d := sqSegDist(points[i], points[start], points[end]); d > maxSqDist {
			index = i
			maxSqDist = d
		}
	}
	if index < 0 {
		return out
	}

	if index-start > 1 {
		out = simplifyStep(points, start, index, sqTolerance, out)
	}
	out = append(out, points[index])
	if end-index > 1 {
		out = simplifyStep(points, index, end, sqTolerance, out)
	}
	return out
}

// sqSegDist is the squared distance from p to the segment p1-p2.
func sqSegDist(p, p1, p2 geometry.Point) float64 {
	x, y := p1.X, p1.Y
	dx, dy := p2.X-x, p2.Y-y

	if dx != 0 || dy != 0 {
		t := ((p.X-x)*dx + (p.Y-y)*dy) / (dx*dx + dy*dy)
		if t > 1 {
			x, y = p2.X, p2.Y
		} else if t > 0 {
			x += dx * t
			y += dy * t
		}
	}
	dx, dy = p.X-x, p.Y-y
	return dx*dx + dy*dy
}
