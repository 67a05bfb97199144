package interaction

import (
	"pdf-annotator/internal/annotation"
	"pdf-annotator/pkg/geometry"
)

// MaxPlacedDim caps the longer side of a placed image, in viewport pixels.
const MaxPlacedDim = 150.0

// FitPlaced scales an image size down so its longer side is at most
// MaxPlacedDim, preserving aspect ratio. Smaller images are unchanged.
func FitPlaced(size geometry.Size) geometry.Size {
	w, h := size.Width, size.Height
	if w > h {
		if w > MaxPlacedDim {
			h *= MaxPlacedDim / w
			w = MaxPlacedDim
		}
	} else if h > MaxPlacedDim {
		w *= MaxPlacedDim / h
		h = MaxPlacedDim
	}
	return geometry.NewSize(w, h)
}

// placeImage adds an image annotation centred on the click.
func (c *Controller) placeImage(ev Event, src string, size geometry.Size) {
	fit := FitPlaced(size)
	box := geometry.NewRect(ev.Pos.X-fit.Width/2, ev.Pos.Y-fit.Height/2, fit.Width, fit.Height)
	doc := ev.Viewport.RectToDocument(box)

	c.store.Add(ev.Page, &annotation.Image{
		Src:    src,
		X:      doc.X,
		Y:      doc.Y,
		Width:  doc.Width,
		Height: doc.Height,
	})
	c.log.Debug().Int("page", ev.Page).Float64("width", doc.Width).Float64("height", doc.Height).Msg("image placed")
	c.repaint(ev.Page)
}
