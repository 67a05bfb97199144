// Package annotation holds the markup drawn over document pages: highlights,
// pencil strokes, text boxes and placed images. All geometry is stored in
// document space (page at scale 1, unrotated).
package annotation

import (
	"pdf-annotator/pkg/geometry"
)

// Kind identifies the annotation variant.
type Kind string

const (
	KindHighlight Kind = "highlight"
	KindPencil    Kind = "pencil"
	KindText      Kind = "text"
	KindImage     Kind = "image"
)

// Annotation is the common interface of all variants.
type Annotation interface {
	// ID returns the unique identifier assigned when the annotation was stored.
	ID() string

	// Kind returns the variant tag.
	Kind() Kind

	// Bounds returns the document-space bounding rectangle.
	Bounds() geometry.Rect

	setID(id string)
}

// Boxed is implemented by annotations positioned by a rectangle. Only these
// can be selected, dragged and resized.
type Boxed interface {
	Annotation
	Box() geometry.Rect
	SetBox(r geometry.Rect)
}

// Meta carries the fields shared by every variant.
type Meta struct {
	UID string `json:"id,omitempty" yaml:"id,omitempty"`
}

// ID returns the annotation ID.
func (m *Meta) ID() string { return m.UID }

func (m *Meta) setID(id string) { m.UID = id }

// Highlight is a translucent marker. It is either freehand (Paths) or snapped
// to text (Rects), never both.
type Highlight struct {
	Meta
	Paths [][]geometry.Point `json:"paths,omitempty" yaml:"paths,omitempty"`
	Rects []geometry.Rect    `json:"rects,omitempty" yaml:"rects,omitempty"`
	Color string             `json:"color" yaml:"color"`
	Size  float64            `json:"size" yaml:"size"`
}

func (h *Highlight) Kind() Kind { return KindHighlight }

func (h *Highlight) Bounds() geometry.Rect {
	return unionBounds(pathsBounds(h.Paths), rectsBounds(h.Rects))
}

// Snapped reports whether the highlight was snapped to text.
func (h *Highlight) Snapped() bool { return len(h.Rects) > 0 }

// Pencil is an opaque freehand stroke, possibly corrected into a shape.
type Pencil struct {
	Meta
	Paths [][]geometry.Point `json:"paths" yaml:"paths"`
	Color string             `json:"color" yaml:"color"`
	Size  float64            `json:"size" yaml:"size"`
}

func (p *Pencil) Kind() Kind { return KindPencil }

func (p *Pencil) Bounds() geometry.Rect { return pathsBounds(p.Paths) }

// Text is a typed note. Y is the top of the box; the baseline sits at Y+Size.
type Text struct {
	Meta
	Content string  `json:"content" yaml:"content"`
	X       float64 `json:"x" yaml:"x"`
	Y       float64 `json:"y" yaml:"y"`
	Width   float64 `json:"width,omitempty" yaml:"width,omitempty"`
	Height  float64 `json:"height,omitempty" yaml:"height,omitempty"`
	Font    string  `json:"font" yaml:"font"`
	Size    float64 `json:"size" yaml:"size"`
	Color   string  `json:"color" yaml:"color"`
}

func (t *Text) Kind() Kind { return KindText }

func (t *Text) Bounds() geometry.Rect { return t.Box() }

// Box returns the text box, estimating missing dimensions.
func (t *Text) Box() geometry.Rect {
	w, h := t.Width, t.Height
	if w == 0 || h == 0 {
		fw, fh := FallbackSize(t)
		if w == 0 {
			w = fw
		}
		if h == 0 {
			h = fh
		}
	}
	return geometry.NewRect(t.X, t.Y, w, h)
}

func (t *Text) SetBox(r geometry.Rect) {
	t.X, t.Y, t.Width, t.Height = r.X, r.Y, r.Width, r.Height
}

// Image is a placed picture or signature. Src is an opaque reference
// resolved by the renderer (file path or data URL).
type Image struct {
	Meta
	Src    string  `json:"src" yaml:"src"`
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

func (i *Image) Kind() Kind { return KindImage }

func (i *Image) Bounds() geometry.Rect { return i.Box() }

func (i *Image) Box() geometry.Rect { return geometry.NewRect(i.X, i.Y, i.Width, i.Height) }

func (i *Image) SetBox(r geometry.Rect) {
	i.X, i.Y, i.Width, i.Height = r.X, r.Y, r.Width, r.Height
}

// Clone returns a deep copy of a.
func Clone(a Annotation) Annotation {
	switch v := a.(type) {
	case *Highlight:
		c := *v
		c.Paths = clonePaths(v.Paths)
		c.Rects = append([]geometry.Rect(nil), v.Rects...)
		return &c
	case *Pencil:
		c := *v
		c.Paths = clonePaths(v.Paths)
		return &c
	case *Text:
		c := *v
		return &c
	case *Image:
		c := *v
		return &c
	}
	return a
}

func clonePaths(paths [][]geometry.Point) [][]geometry.Point {
	if paths == nil {
		return nil
	}
	out := make([][]geometry.Point, len(paths))
	for i, p := range paths {
		out[i] = append([]geometry.Point(nil), p...)
	}
	return out
}

func pathsBounds(paths [][]geometry.Point) geometry.Rect {
	var all []geometry.Point
	for _, p := range paths {
		all = append(all, p...)
	}
	return geometry.BoundingBox(all)
}

func rectsBounds(rects []geometry.Rect) geometry.Rect {
	if len(rects) == 0 {
		return geometry.Rect{}
	}
	r := rects[0]
	for _, o := range rects[1:] {
		r = r.Union(o)
	}
	return r
}

func unionBounds(a, b geometry.Rect) geometry.Rect {
	if a == (geometry.Rect{}) {
		return b
	}
	if b == (geometry.Rect{}) {
		return a
	}
	return a.Union(b)
}
