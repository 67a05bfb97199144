package render

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"os"
	"sync"

	"github.com/rs/zerolog"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
	"golang.org/x/image/vector"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/logging"
	"pdf-annotator/internal/raster"
	"pdf-annotator/internal/selection"
	"pdf-annotator/pkg/colorutil"
	"pdf-annotator/pkg/geometry"
)

// PaintOptions configures how annotations are painted.
type PaintOptions struct {
	HighlightAlpha float64 // opacity of highlighter strokes and snapped rects

	// Selection rendering
	SelectionPadding float64 // outline distance from the box, in pixels
	SelectionDash    float64 // dash and gap length of the outline
	SelectionWidth   float64
}

// DefaultPaintOptions returns the default painting options.
func DefaultPaintOptions() PaintOptions {
	return PaintOptions{
		HighlightAlpha:   0.5,
		SelectionPadding: 2,
		SelectionDash:    5,
		SelectionWidth:   1,
	}
}

// Painter draws annotations onto page-sized RGBA layers. It also measures
// text with the same font, so text boxes match what is drawn.
type Painter struct {
	opts   PaintOptions
	font   *opentype.Font
	images *raster.Cache
	log    zerolog.Logger

	mu    sync.Mutex
	faces map[float64]font.Face
}

// NewPainter loads the annotation font from fontPath, or the embedded Go
// Regular font when fontPath is empty.
func NewPainter(fontPath string, images *raster.Cache, opts PaintOptions, log zerolog.Logger) (*Painter, error) {
	data := goregular.TTF
	if fontPath != "" {
		b, err := os.ReadFile(fontPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read font: %w", err)
		}
		data = b
	}
	f, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}
	if images == nil {
		images = raster.NewCache()
	}
	return &Painter{
		opts:   opts,
		font:   f,
		images: images,
		log:    logging.Component(log, "painter"),
		faces:  make(map[float64]font.Face),
	}, nil
}

// face returns a face of the given pixel size. Faces are cached per size;
// callers must not use a face concurrently, so drawing holds p.mu.
func (p *Painter) face(size float64) (font.Face, error) {
	size = math.Round(size*4) / 4
	if f, ok := p.faces[size]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(p.font, &opentype.FaceOptions{Size: size, DPI: 72, Hinting: font.HintingNone})
	if err != nil {
		return nil, err
	}
	p.faces[size] = f
	return f, nil
}

// Measure returns the advance width of text at size. The font family is
// ignored: every annotation is set in the painter's font.
func (p *Painter) Measure(text, _ string, size float64) float64 {
	if size <= 0 {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := p.face(size)
	if err != nil {
		return 0
	}
	return fixedToFloat(font.MeasureString(f, text))
}

// Paint draws list onto dst in viewport space. selected is the index of the
// selected annotation, or -1.
func (p *Painter) Paint(dst *image.RGBA, list []annotation.Annotation, vp geometry.Viewport, selected int) {
	for i, a := range list {
		switch v := a.(type) {
		case *annotation.Highlight:
			p.paintHighlight(dst, v, vp)
		case *annotation.Pencil:
			c := colorutil.ParseHexOr(v.Color, colorutil.Black)
			for _, path := range v.Paths {
				strokePath(dst, vp.PathToViewport(path), v.Size*vp.Scale, c)
			}
		case *annotation.Text:
			p.paintText(dst, v, vp)
		case *annotation.Image:
			p.paintImage(dst, v, vp)
		}
		if i == selected {
			if b, ok := a.(annotation.Boxed); ok {
				p.paintSelection(dst, b, vp)
			}
		}
	}
}

// PaintLayer returns a transparent layer of the viewport's size with list
// painted on it.
func (p *Painter) PaintLayer(list []annotation.Annotation, vp geometry.Viewport, selected int) *image.RGBA {
	size := vp.Size()
	dst := image.NewRGBA(image.Rect(0, 0, int(math.Ceil(size.Width)), int(math.Ceil(size.Height))))
	p.Paint(dst, list, vp, selected)
	return dst
}

func (p *Painter) paintHighlight(dst *image.RGBA, h *annotation.Highlight, vp geometry.Viewport) {
	c := colorutil.WithAlpha(colorutil.ParseHexOr(h.Color, colorutil.Yellow), p.opts.HighlightAlpha)
	if h.Snapped() {
		for _, r := range h.Rects {
			fillRect(dst, vp.RectToViewport(r), c)
		}
		return
	}
	for _, path := range h.Paths {
		strokePath(dst, vp.PathToViewport(path), h.Size*vp.Scale, c)
	}
}

func (p *Painter) paintText(dst *image.RGBA, t *annotation.Text, vp geometry.Viewport) {
	if t.Content == "" || t.Size <= 0 {
		return
	}
	box := vp.RectToViewport(t.Box())

	p.mu.Lock()
	defer p.mu.Unlock()
	f, err := p.face(t.Size * vp.Scale)
	if err != nil {
		p.log.Warn().Err(err).Float64("size", t.Size).Msg("font face unavailable")
		return
	}
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(colorutil.ParseHexOr(t.Color, colorutil.Black)),
		Face: f,
		// The box top is y; the baseline sits one font size below it.
		Dot: fixed.Point26_6{X: floatToFixed(box.X), Y: floatToFixed(box.Y + t.Size*vp.Scale)},
	}
	d.DrawString(t.Content)
}

func (p *Painter) paintImage(dst *image.RGBA, im *annotation.Image, vp geometry.Viewport) {
	src, err := p.images.Get(im.Src)
	if err != nil {
		p.log.Warn().Err(err).Msg("image annotation source unavailable")
		return
	}
	sb := src.Bounds()
	if sb.Empty() || im.Width <= 0 || im.Height <= 0 {
		return
	}
	// Source pixels to document box, then document to viewport.
	toBox := geometry.AffineTransform{
		A: im.Width / float64(sb.Dx()), TX: im.X - float64(sb.Min.X)*im.Width/float64(sb.Dx()),
		D: im.Height / float64(sb.Dy()), TY: im.Y - float64(sb.Min.Y)*im.Height/float64(sb.Dy()),
	}
	m := vp.Transform.Compose(toBox)
	xdraw.ApproxBiLinear.Transform(dst, f64.Aff3{m.A, m.B, m.TX, m.C, m.D, m.TY}, src, sb, draw.Over, nil)
}

// paintSelection draws the dashed outline and the resize handles.
func (p *Painter) paintSelection(dst *image.RGBA, b annotation.Boxed, vp geometry.Viewport) {
	box := vp.RectToViewport(b.Box()).Inset(-p.opts.SelectionPadding)
	corners := box.Corners()
	outline := []geometry.Point{corners[0], corners[1], corners[2], corners[3], corners[0]}
	for _, dash := range dashes(outline, p.opts.SelectionDash) {
		strokeSegments(dst, dash, p.opts.SelectionWidth, colorutil.Selection)
	}
	for _, h := range selection.Handles(selection.StoredBox(b), vp) {
		fillRect(dst, h.Rect, colorutil.Selection)
	}
}

// strokePath strokes a polyline with round caps and joins: each segment is
// a quad and every vertex a disc, all wound the same way so the rasterizer
// unions them.
func strokePath(dst *image.RGBA, path []geometry.Point, width float64, c color.Color) {
	if len(path) == 0 || width <= 0 {
		return
	}
	r := newRasterizer(dst)
	half := width / 2
	for i, pt := range path {
		addDisc(r, pt, half)
		if i > 0 {
			addQuad(r, path[i-1], pt, half)
		}
	}
	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

// strokeSegments strokes independent segments with butt ends.
func strokeSegments(dst *image.RGBA, segs [][2]geometry.Point, width float64, c color.Color) {
	if len(segs) == 0 {
		return
	}
	r := newRasterizer(dst)
	for _, s := range segs {
		addQuad(r, s[0], s[1], width/2)
	}
	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func fillRect(dst *image.RGBA, rect geometry.Rect, c color.Color) {
	if rect.Empty() {
		return
	}
	r := newRasterizer(dst)
	r.MoveTo(float32(rect.X), float32(rect.Y))
	r.LineTo(float32(rect.X), float32(rect.Bottom()))
	r.LineTo(float32(rect.Right()), float32(rect.Bottom()))
	r.LineTo(float32(rect.Right()), float32(rect.Y))
	r.ClosePath()
	r.Draw(dst, dst.Bounds(), image.NewUniform(c), image.Point{})
}

func newRasterizer(dst *image.RGBA) *vector.Rasterizer {
	b := dst.Bounds()
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	r.DrawOp = draw.Over
	return r
}

// addQuad adds the rectangle of half-width h around segment a-b, wound the
// same way as addDisc.
func addQuad(r *vector.Rasterizer, a, b geometry.Point, h float64) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return
	}
	nx, ny := -dy/length*h, dx/length*h
	r.MoveTo(float32(a.X+nx), float32(a.Y+ny))
	r.LineTo(float32(a.X-nx), float32(a.Y-ny))
	r.LineTo(float32(b.X-nx), float32(b.Y-ny))
	r.LineTo(float32(b.X+nx), float32(b.Y+ny))
	r.ClosePath()
}

// addDisc adds a circle of radius rad as four cubic arcs.
func addDisc(r *vector.Rasterizer, c geometry.Point, rad float64) {
	const k = 0.5522847498 // cubic control distance for a quarter circle
	x, y, o := c.X, c.Y, rad*k
	r.MoveTo(float32(x+rad), float32(y))
	r.CubeTo(float32(x+rad), float32(y+o), float32(x+o), float32(y+rad), float32(x), float32(y+rad))
	r.CubeTo(float32(x-o), float32(y+rad), float32(x-rad), float32(y+o), float32(x-rad), float32(y))
	r.CubeTo(float32(x-rad), float32(y-o), float32(x-o), float32(y-rad), float32(x), float32(y-rad))
	r.CubeTo(float32(x+o), float32(y-rad), float32(x+rad), float32(y-o), float32(x+rad), float32(y))
	r.ClosePath()
}

// dashes splits a polyline into on-segments of length dash separated by
// gaps of the same length, continuing the pattern across vertices.
func dashes(path []geometry.Point, dash float64) [][2]geometry.Point {
	var out [][2]geometry.Point
	on, left := true, dash
	for i := 1; i < len(path); i++ {
		a, b := path[i-1], path[i]
		segLen := a.Distance(b)
		pos := 0.0
		for pos < segLen {
			step := math.Min(left, segLen-pos)
			if on {
				t0, t1 := pos/segLen, (pos+step)/segLen
				out = append(out, [2]geometry.Point{lerp(a, b, t0), lerp(a, b, t1)})
			}
			pos += step
			left -= step
			if left <= 1e-9 {
				on, left = !on, dash
			}
		}
	}
	return out
}

func lerp(a, b geometry.Point, t float64) geometry.Point {
	return geometry.Pt(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t)
}

func fixedToFloat(v fixed.Int26_6) float64 { return float64(v) / 64 }

func floatToFixed(v float64) fixed.Int26_6 { return fixed.Int26_6(math.Round(v * 64)) }
