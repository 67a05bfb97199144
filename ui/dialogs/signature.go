package dialogs

import (
	"image"
	"image/color"
	"math"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/raster"
	"pdf-annotator/internal/render"
	"pdf-annotator/pkg/geometry"
)

// Signature pad geometry and ink.
const (
	padWidth   = 400
	padHeight  = 200
	inkColor   = "#000000"
	inkWidth   = 2.0
	cropMargin = 4.0
)

// SignaturePad captures a hand-drawn signature in a dialog. It implements
// interaction.SignaturePad.
type SignaturePad struct {
	window  fyne.Window
	painter *render.Painter
}

// NewSignaturePad creates a pad drawing with painter.
func NewSignaturePad(window fyne.Window, painter *render.Painter) *SignaturePad {
	return &SignaturePad{window: window, painter: painter}
}

// Capture shows the pad. An empty drawing or Cancel reports an empty src.
func (p *SignaturePad) Capture(done func(src string, size geometry.Size, err error)) {
	surface := newPadSurface(p.painter)
	clearBtn := widget.NewButton("Clear", surface.clear)

	dlg := dialog.NewCustomConfirm(
		"Draw Signature",
		"Use",
		"Cancel",
		container.NewBorder(nil, clearBtn, nil, nil, surface),
		func(use bool) {
			paths := surface.strokes()
			if !use || len(paths) == 0 {
				done("", geometry.Size{}, nil)
				return
			}
			img := SignatureImage(p.painter, paths)
			src, err := raster.PNGDataURL(img)
			if err != nil {
				done("", geometry.Size{}, err)
				return
			}
			done(src, raster.SizeOf(img), nil)
		},
		p.window,
	)
	dlg.Show()
}

// SignatureImage paints paths on a transparent pad and crops the result to
// the ink plus a small margin.
func SignatureImage(painter *render.Painter, paths [][]geometry.Point) *image.RGBA {
	ink := &annotation.Pencil{Paths: paths, Color: inkColor, Size: inkWidth}
	vp := geometry.MustViewport(geometry.NewSize(padWidth, padHeight), 1, 0)
	layer := painter.PaintLayer([]annotation.Annotation{ink}, vp, -1)

	var pts []geometry.Point
	for _, path := range paths {
		pts = append(pts, path...)
	}
	box := geometry.BoundingBox(pts).Inset(-(cropMargin + inkWidth/2))
	crop := image.Rect(
		int(math.Floor(box.X)), int(math.Floor(box.Y)),
		int(math.Ceil(box.Right())), int(math.Ceil(box.Bottom())),
	).Intersect(layer.Bounds())

	out := image.NewRGBA(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	xdraw.Draw(out, out.Bounds(), layer, crop.Min, xdraw.Src)
	return out
}

// padSurface collects strokes while the pointer is dragged across it.
type padSurface struct {
	widget.BaseWidget
	painter *render.Painter
	raster  *fynecanvas.Raster

	mu      sync.Mutex
	paths   [][]geometry.Point
	drawing bool
}

func newPadSurface(painter *render.Painter) *padSurface {
	s := &padSurface{painter: painter}
	s.raster = fynecanvas.NewRaster(s.draw)
	s.raster.SetMinSize(fyne.NewSize(padWidth, padHeight))
	s.ExtendBaseWidget(s)
	return s
}

func (s *padSurface) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(s.raster)
}

func (s *padSurface) Dragged(ev *fyne.DragEvent) {
	p := geometry.Pt(float64(ev.Position.X), float64(ev.Position.Y))
	s.mu.Lock()
	if !s.drawing {
		s.drawing = true
		s.paths = append(s.paths, nil)
	}
	last := len(s.paths) - 1
	s.paths[last] = append(s.paths[last], p)
	s.mu.Unlock()
	s.raster.Refresh()
}

func (s *padSurface) DragEnd() {
	s.mu.Lock()
	s.drawing = false
	s.mu.Unlock()
}

func (s *padSurface) clear() {
	s.mu.Lock()
	s.paths = nil
	s.drawing = false
	s.mu.Unlock()
	s.raster.Refresh()
}

func (s *padSurface) strokes() [][]geometry.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]geometry.Point, 0, len(s.paths))
	for _, p := range s.paths {
		if len(p) > 0 {
			out = append(out, append([]geometry.Point(nil), p...))
		}
	}
	return out
}

func (s *padSurface) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(color.White), image.Point{}, xdraw.Src)

	paths := s.strokes()
	if len(paths) == 0 {
		return out
	}
	scale := float64(w) / padWidth
	vp, err := geometry.NewViewport(geometry.NewSize(padWidth, padHeight), scale, 0)
	if err != nil {
		return out
	}
	s.painter.Paint(out, []annotation.Annotation{&annotation.Pencil{Paths: paths, Color: inkColor, Size: inkWidth}}, vp, -1)
	return out
}
