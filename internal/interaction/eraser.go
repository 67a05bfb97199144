package interaction

import (
	"pdf-annotator/internal/annotation"
	"pdf-annotator/pkg/geometry"
)

// EraserHits reports whether an eraser of radius r centred at c (document
// space) touches a. Path points are tested against the circle; rectangles
// against the square of side 2r around c.
func EraserHits(a annotation.Annotation, c geometry.Point, r float64) bool {
	square := geometry.SquareAround(c, r)

	switch v := a.(type) {
	case *annotation.Highlight:
		if len(v.Rects) > 0 {
			for _, rect := range v.Rects {
				if rect.Touches(square) {
					return true
				}
			}
			return false
		}
		return pathsHit(v.Paths, c, r)
	case *annotation.Pencil:
		return pathsHit(v.Paths, c, r)
	case annotation.Boxed:
		return v.Box().Touches(square)
	}
	return false
}

func pathsHit(paths [][]geometry.Point, c geometry.Point, r float64) bool {
	for _, path := range paths {
		for _, p := range path {
			if p.Distance(c) < r {
				return true
			}
		}
	}
	return false
}

// eraseAt removes everything on page under the eraser. Caller holds c.mu.
func (c *Controller) eraseAt(page int, ev Event) []int {
	center := ev.doc()
	radius := c.session.Settings.EraserSize / 2 / ev.zoom()

	removed := c.store.RemoveIf(page, func(a annotation.Annotation) bool {
		return EraserHits(a, center, radius)
	})
	if removed == 0 {
		return nil
	}
	// Indices on this page shifted.
	if c.session.Selection.Page == page {
		c.session.Selection.Clear()
	}
	c.log.Debug().Int("page", page).Int("removed", removed).Msg("erased annotations")
	return []int{page}
}
