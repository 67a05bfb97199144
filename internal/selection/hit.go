package selection

import (
	"pdf-annotator/internal/annotation"
	"pdf-annotator/pkg/geometry"
)

// HitTest returns the index of the topmost text or image annotation whose box
// contains p (document space). Strokes are never hit.
func HitTest(list []annotation.Annotation, p geometry.Point) (int, bool) {
	hit := -1
	for i, a := range list {
		b, ok := a.(annotation.Boxed)
		if !ok {
			continue
		}
		if b.Box().Contains(p) {
			hit = i
		}
	}
	return hit, hit >= 0
}

// StoredBox returns the box as recorded, without the size estimate used for
// legacy text records. Handles are only offered for boxes with both
// dimensions stored.
func StoredBox(b annotation.Boxed) geometry.Rect {
	if t, ok := b.(*annotation.Text); ok {
		return geometry.NewRect(t.X, t.Y, t.Width, t.Height)
	}
	return b.Box()
}
