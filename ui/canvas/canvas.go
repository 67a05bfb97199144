// Package canvas provides the page view: a scroll container that draws the
// rendered pages around the scroll position and turns mouse input into
// annotation gestures.
package canvas

import (
	"image"
	"image/color"
	"sync"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/widget"
	xdraw "golang.org/x/image/draw"

	"pdf-annotator/internal/app"
	"pdf-annotator/internal/render"
	"pdf-annotator/internal/settings"
	"pdf-annotator/pkg/colorutil"
	"pdf-annotator/pkg/geometry"
)

// placeholder fills pages whose slot has not rendered yet.
var placeholder = color.RGBA{R: 0xEE, G: 0xEE, B: 0xEE, A: 0xFF}

// PageView shows the pages of a Viewer. It is created before the viewer so
// it can be passed as the controller's Scroller and TextEditor, then bound
// with Bind.
type PageView struct {
	widget.BaseWidget

	viewer  *app.Viewer
	raster  *fynecanvas.Raster
	scroll  *container.Scroll
	content *pageContent

	mu        sync.Mutex
	cache     map[int]composed
	container fyne.Size
	editor    *inlineEntry
}

// composed is a flattened page, reused while its layers are unchanged.
type composed struct {
	raster image.Image
	ann    *image.RGBA
	img    *image.RGBA
}

// NewPageView creates an unbound page view.
func NewPageView() *PageView {
	pv := &PageView{cache: make(map[int]composed)}

	pv.raster = fynecanvas.NewRaster(pv.draw)
	pv.raster.ScaleMode = fynecanvas.ImageScalePixels

	pv.content = newPageContent(pv)
	pv.scroll = container.NewScroll(pv.content)
	pv.scroll.Direction = container.ScrollBoth
	pv.scroll.OnScrolled = func(pos fyne.Position) { pv.scrolled(pos) }

	pv.ExtendBaseWidget(pv)
	return pv
}

// Bind attaches the view to v and follows its events.
func (pv *PageView) Bind(v *app.Viewer) {
	pv.viewer = v

	relayout := func(interface{}) {
		pv.relayout()
		pv.showPage(v.Page())
	}
	v.On(app.EventDocumentLoaded, func(interface{}) {
		pv.closeEditor(true)
		pv.dropCache()
	})
	v.On(app.EventLayoutChanged, relayout)
	v.On(app.EventZoomChanged, relayout)
	v.On(app.EventPageChanged, func(data interface{}) {
		if change, ok := data.(app.PageChange); ok && !change.FromScroll {
			pv.showPage(change.Page)
		}
	})
	refresh := func(interface{}) { pv.raster.Refresh() }
	v.On(app.EventSlotRendered, refresh)
	v.On(app.EventAnnotationsChanged, refresh)
	v.On(app.EventSelectionChanged, refresh)
	v.On(app.EventSettingsApplied, refresh)
}

// CreateRenderer implements fyne.Widget.
func (pv *PageView) CreateRenderer() fyne.WidgetRenderer {
	return widget.NewSimpleRenderer(container.NewStack(pv.raster, pv.scroll))
}

// Resize tells the viewer about the new container size so fitted zoom
// modes follow the window.
func (pv *PageView) Resize(size fyne.Size) {
	pv.BaseWidget.Resize(size)

	pv.mu.Lock()
	changed := size != pv.container
	pv.container = size
	pv.mu.Unlock()

	if changed && pv.viewer != nil && size.Width > 0 && size.Height > 0 {
		pv.viewer.SetContainer(geometry.NewSize(float64(size.Width), float64(size.Height)))
		pv.relayout()
	}
}

// ScrollBy moves the view by (dx, dy), clamped to the content.
func (pv *PageView) ScrollBy(dx, dy float64) {
	off := pv.scroll.Offset
	pv.scrollTo(fyne.NewPos(off.X+float32(dx), off.Y+float32(dy)))
}

func (pv *PageView) scrollTo(pos fyne.Position) {
	content, size := pv.content.MinSize(), pv.scroll.Size()
	pos.X = clamp32(pos.X, 0, content.Width-size.Width)
	pos.Y = clamp32(pos.Y, 0, content.Height-size.Height)
	pv.scroll.Offset = pos
	pv.scroll.Refresh()
	pv.scrolled(pos)
}

func (pv *PageView) scrolled(pos fyne.Position) {
	pv.raster.Refresh()
	if pv.viewer == nil {
		return
	}
	size := pv.scroll.Size()
	pv.viewer.UpdateVisible(
		geometry.Pt(float64(pos.X), float64(pos.Y)),
		geometry.NewSize(float64(size.Width), float64(size.Height)),
	)
}

// showPage scrolls the slot holding page into view.
func (pv *PageView) showPage(page int) {
	r, ok := pv.viewer.PageRect(page)
	if !ok {
		pv.scrollTo(fyne.NewPos(pv.scroll.Offset.X, 0))
		return
	}
	pv.scrollTo(fyne.NewPos(pv.scroll.Offset.X, float32(r.Y)))
}

// relayout resizes the scroll content to the viewer's content size.
func (pv *PageView) relayout() {
	if pv.viewer == nil {
		return
	}
	s := pv.viewer.ContentSize()
	pv.content.setSize(fyne.NewSize(float32(s.Width), float32(s.Height)))
	pv.scroll.Refresh()
	pv.scrollTo(pv.scroll.Offset)
}

func (pv *PageView) dropCache() {
	pv.mu.Lock()
	pv.cache = make(map[int]composed)
	pv.mu.Unlock()
}

func (pv *PageView) background() color.Color {
	if pv.viewer == nil {
		return colorutil.White
	}
	return colorutil.ParseHexOr(pv.viewer.Settings().String(settings.KeyWarmColor), colorutil.White)
}

// draw composes the pages intersecting the visible part of the content.
func (pv *PageView) draw(w, h int) image.Image {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(out, out.Bounds(), image.NewUniform(pv.background()), image.Point{}, xdraw.Src)

	size := pv.scroll.Size()
	if pv.viewer == nil || size.Width <= 0 {
		return out
	}
	f := float64(w) / float64(size.Width)
	off := pv.scroll.Offset
	visible := geometry.NewRect(float64(off.X), float64(off.Y), float64(size.Width), float64(size.Height))
	toScreen := func(r geometry.Rect) image.Rectangle {
		return image.Rect(
			int((r.X-visible.X)*f), int((r.Y-visible.Y)*f),
			int((r.Right()-visible.X)*f+0.5), int((r.Bottom()-visible.Y)*f+0.5),
		)
	}

	rnd := pv.viewer.Renderer()
	slots, _ := pv.viewer.Slots()
	keep := make(map[int]composed)
	for _, s := range slots {
		for _, n := range s.Pages {
			rect, ok := pv.viewer.PageRect(n)
			if !ok || !rect.Intersects(visible) {
				continue
			}
			dst := toScreen(rect)
			img := pv.composedPage(rnd, n, keep)
			if img == nil {
				xdraw.Draw(out, dst, image.NewUniform(placeholder), image.Point{}, xdraw.Src)
				continue
			}
			xdraw.ApproxBiLinear.Scale(out, dst, img, img.Bounds(), xdraw.Src, nil)
		}
	}
	pv.mu.Lock()
	pv.cache = keep
	pv.mu.Unlock()

	if d, ok := pv.viewer.Controller().TextDraft(); ok {
		if page, ok := pv.viewer.PageRect(d.Page); ok {
			box := d.Rect()
			drawDashedRect(out, toScreen(geometry.NewRect(page.X+box.X, page.Y+box.Y, box.Width, box.Height)), colorutil.Selection)
		}
	}
	return out
}

// composedPage returns page flattened onto white, reusing the cached image
// while neither layer was replaced.
func (pv *PageView) composedPage(r *render.Renderer, page int, keep map[int]composed) *image.RGBA {
	if r == nil {
		return nil
	}
	pl, ok := r.PageLayers(page)
	if !ok {
		return nil
	}
	pv.mu.Lock()
	c, hit := pv.cache[page]
	pv.mu.Unlock()
	if !hit || c.raster != pl.Raster || c.ann != pl.Annotations {
		c = composed{raster: pl.Raster, ann: pl.Annotations, img: pl.Compose(colorutil.White)}
	}
	keep[page] = c
	return c.img
}

func clamp32(v, lo, hi float32) float32 {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}
