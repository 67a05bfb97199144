package canvas

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/widget"

	"pdf-annotator/internal/interaction"
	"pdf-annotator/pkg/geometry"
)

// pageContent is the scrolled content. It draws nothing itself: the raster
// behind the scroll container shows the pages. It sizes the scroll area,
// hosts the inline text editor and receives mouse input in content
// coordinates.
type pageContent struct {
	widget.BaseWidget
	view    *PageView
	overlay *fyne.Container

	mu     sync.Mutex
	size   fyne.Size
	down   bool
	origin geometry.Point // content position of the page the gesture started on
	last   interaction.Event
	hover  string
}

var (
	_ desktop.Mouseable  = (*pageContent)(nil)
	_ desktop.Hoverable  = (*pageContent)(nil)
	_ desktop.Cursorable = (*pageContent)(nil)
	_ fyne.Draggable     = (*pageContent)(nil)
	_ fyne.Tappable      = (*pageContent)(nil)
	_ fyne.Scrollable    = (*pageContent)(nil)
)

func newPageContent(pv *PageView) *pageContent {
	c := &pageContent{view: pv, overlay: container.NewWithoutLayout()}
	c.ExtendBaseWidget(c)
	return c
}

func (c *pageContent) setSize(s fyne.Size) {
	c.mu.Lock()
	c.size = s
	c.mu.Unlock()
	c.Refresh()
}

func (c *pageContent) MinSize() fyne.Size {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.size
}

func (c *pageContent) CreateRenderer() fyne.WidgetRenderer {
	return &pageContentRenderer{content: c}
}

// locate resolves a content position to a page event. Outside every page,
// or on a page that has not rendered, the event has Page 0.
func (c *pageContent) locate(pos, abs fyne.Position) interaction.Event {
	ev := interaction.Event{
		Pos:    geometry.Pt(float64(pos.X), float64(pos.Y)),
		Screen: geometry.Pt(float64(abs.X), float64(abs.Y)),
	}
	v := c.view.viewer
	if v == nil {
		return ev
	}
	page, local, ok := v.PageAt(ev.Pos)
	if !ok {
		return ev
	}
	r := v.Renderer()
	if r == nil {
		return ev
	}
	vp, ok := r.Viewport(page)
	if !ok {
		return ev
	}
	ev.Page, ev.Pos, ev.Viewport = page, local, vp
	return ev
}

// continued reports a position relative to the page the gesture started on.
func (c *pageContent) continued(pos, abs fyne.Position) interaction.Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	ev := c.last
	ev.Pos = geometry.Pt(float64(pos.X)-c.origin.X, float64(pos.Y)-c.origin.Y)
	ev.Screen = geometry.Pt(float64(abs.X), float64(abs.Y))
	c.last = ev
	return ev
}

func (c *pageContent) MouseDown(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary || c.view.viewer == nil {
		return
	}
	ev := c.locate(e.Position, e.AbsolutePosition)

	c.mu.Lock()
	c.down = true
	c.origin = geometry.Pt(float64(e.Position.X)-ev.Pos.X, float64(e.Position.Y)-ev.Pos.Y)
	c.last = ev
	c.mu.Unlock()

	c.view.viewer.Controller().PointerDown(ev)
	c.view.raster.Refresh()
}

func (c *pageContent) Dragged(e *fyne.DragEvent) {
	c.mu.Lock()
	down := c.down
	c.mu.Unlock()
	if !down {
		return
	}
	ev := c.continued(e.Position, e.AbsolutePosition)
	c.view.viewer.Controller().PointerMove(ev)
	c.view.raster.Refresh()
}

func (c *pageContent) MouseUp(e *desktop.MouseEvent) {
	if e.Button != desktop.MouseButtonPrimary {
		return
	}
	c.release(c.continued(e.Position, e.AbsolutePosition))
}

// DragEnd covers drivers that end a drag without a mouse-up on this widget.
func (c *pageContent) DragEnd() {
	c.mu.Lock()
	ev := c.last
	c.mu.Unlock()
	c.release(ev)
}

func (c *pageContent) release(ev interaction.Event) {
	c.mu.Lock()
	down := c.down
	c.down = false
	c.mu.Unlock()
	if !down || c.view.viewer == nil {
		return
	}
	c.view.viewer.Controller().PointerUp(ev)
	c.view.raster.Refresh()
}

func (c *pageContent) Tapped(e *fyne.PointEvent) {
	if c.view.viewer == nil {
		return
	}
	c.view.viewer.Controller().Click(c.locate(e.Position, e.AbsolutePosition))
}

func (c *pageContent) Scrolled(e *fyne.ScrollEvent) {
	v := c.view.viewer
	if v == nil {
		return
	}
	// Fyne reports wheel-up as positive DY.
	if dy := v.Wheel(-float64(e.Scrolled.DY), ctrlHeld()); dy != 0 {
		c.view.ScrollBy(-float64(e.Scrolled.DX), dy)
	}
}

func (c *pageContent) MouseIn(e *desktop.MouseEvent) { c.MouseMoved(e) }

func (c *pageContent) MouseMoved(e *desktop.MouseEvent) {
	v := c.view.viewer
	if v == nil {
		return
	}
	ev := c.locate(e.Position, e.AbsolutePosition)
	hint := "default"
	if ev.Page != 0 {
		hint = v.Controller().HoverCursor(ev)
	}
	c.mu.Lock()
	c.hover = hint
	c.mu.Unlock()
}

func (c *pageContent) MouseOut() {
	c.mu.Lock()
	c.hover = "default"
	c.mu.Unlock()
}

// Cursor maps the controller's hint and the active tool to a desktop cursor.
func (c *pageContent) Cursor() desktop.Cursor {
	c.mu.Lock()
	hint := c.hover
	c.mu.Unlock()

	switch hint {
	case "ns-resize":
		return desktop.VResizeCursor
	case "ew-resize":
		return desktop.HResizeCursor
	case "nwse-resize", "nesw-resize":
		return desktop.CrosshairCursor
	}
	if c.view.viewer == nil {
		return desktop.DefaultCursor
	}
	switch c.view.viewer.Controller().ActiveTool() {
	case interaction.ToolHand:
		return desktop.PointerCursor
	case interaction.ToolText:
		return desktop.TextCursor
	case interaction.ToolHighlighter, interaction.ToolPencil, interaction.ToolEraser,
		interaction.ToolImage, interaction.ToolSignature:
		return desktop.CrosshairCursor
	}
	return desktop.DefaultCursor
}

func ctrlHeld() bool {
	a := fyne.CurrentApp()
	if a == nil {
		return false
	}
	if d, ok := a.Driver().(desktop.Driver); ok {
		return d.CurrentKeyModifiers()&(fyne.KeyModifierControl|fyne.KeyModifierSuper) != 0
	}
	return false
}

type pageContentRenderer struct {
	content *pageContent
}

func (r *pageContentRenderer) Layout(size fyne.Size) {
	r.content.overlay.Resize(size)
}

func (r *pageContentRenderer) MinSize() fyne.Size {
	return r.content.MinSize()
}

func (r *pageContentRenderer) Refresh() {
	r.content.overlay.Refresh()
}

func (r *pageContentRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.content.overlay}
}

func (r *pageContentRenderer) Destroy() {}
