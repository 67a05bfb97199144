package selection

import (
	"strings"

	"pdf-annotator/pkg/geometry"
)

// HandleID names a resize handle by its position: t/m/b for the row and
// l/m/r for the column.
type HandleID string

const (
	TopLeft      HandleID = "tl"
	TopMiddle    HandleID = "tm"
	TopRight     HandleID = "tr"
	MiddleLeft   HandleID = "ml"
	MiddleRight  HandleID = "mr"
	BottomLeft   HandleID = "bl"
	BottomMiddle HandleID = "bm"
	BottomRight  HandleID = "br"
)

// HandleSize is the side of a handle square in viewport pixels.
const HandleSize = 8.0

// MinDim is the smallest width or height a resize may produce, in document
// units.
const MinDim = 20.0

// Handle is one resize grip in viewport space.
type Handle struct {
	ID     HandleID
	Cursor string
	Rect   geometry.Rect
}

func (h HandleID) adjustsRight() bool  { return strings.HasSuffix(string(h), "r") }
func (h HandleID) adjustsLeft() bool   { return strings.HasSuffix(string(h), "l") }
func (h HandleID) adjustsTop() bool    { return strings.HasPrefix(string(h), "t") }
func (h HandleID) adjustsBottom() bool { return strings.HasPrefix(string(h), "b") }

// Handles returns the eight resize grips for a document-space box, centred
// on its corners and edge midpoints in viewport space. A box without width
// or height has no handles.
func Handles(box geometry.Rect, vp geometry.Viewport) []Handle {
	if box.Width == 0 || box.Height == 0 {
		return nil
	}
	r := vp.RectToViewport(box)
	midX, midY := r.X+r.Width/2, r.Y+r.Height/2

	defs := []struct {
		id     HandleID
		cursor string
		x, y   float64
	}{
		{TopLeft, "nwse-resize", r.X, r.Y},
		{TopMiddle, "ns-resize", midX, r.Y},
		{TopRight, "nesw-resize", r.Right(), r.Y},
		{MiddleLeft, "ew-resize", r.X, midY},
		{MiddleRight, "ew-resize", r.Right(), midY},
		{BottomLeft, "nesw-resize", r.X, r.Bottom()},
		{BottomMiddle, "ns-resize", midX, r.Bottom()},
		{BottomRight, "nwse-resize", r.Right(), r.Bottom()},
	}

	half := HandleSize / 2
	out := make([]Handle, len(defs))
	for i, d := range defs {
		out[i] = Handle{
			ID:     d.id,
			Cursor: d.cursor,
			Rect:   geometry.NewRect(d.x-half, d.y-half, HandleSize, HandleSize),
		}
	}
	return out
}

// HandleAt returns the first handle containing the viewport point p.
func HandleAt(handles []Handle, p geometry.Point) (Handle, bool) {
	for _, h := range handles {
		if h.Rect.Contains(p) {
			return h, true
		}
	}
	return Handle{}, false
}

// Resize moves the edges of box named by handle towards the document-space
// point p. Each edge change is skipped when it would leave that dimension
// at MinDim or less.
func Resize(box geometry.Rect, handle HandleID, p geometry.Point) geometry.Rect {
	out := box
	right, bottom := box.Right(), box.Bottom()

	if handle.adjustsRight() {
		if w := p.X - box.X; w > MinDim {
			out.Width = w
		}
	}
	if handle.adjustsBottom() {
		if h := p.Y - box.Y; h > MinDim {
			out.Height = h
		}
	}
	if handle.adjustsLeft() {
		if w := right - p.X; w > MinDim {
			out.X = p.X
			out.Width = w
		}
	}
	if handle.adjustsTop() {
		if h := bottom - p.Y; h > MinDim {
			out.Y = p.Y
			out.Height = h
		}
	}
	return out
}
