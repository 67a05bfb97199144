package interaction

import (
	"time"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/shape"
	"pdf-annotator/internal/textsnap"
	"pdf-annotator/pkg/geometry"
)

// HoldToSnapDelay is how long a pencil stroke must pause before it is
// corrected into a shape.
const HoldToSnapDelay = 1500 * time.Millisecond

// DrawSession tracks one highlighter, pencil or eraser stroke.
type DrawSession struct {
	Page     int
	Tool     Tool
	Path     []geometry.Point
	Viewport geometry.Viewport

	// placeholder is the ID of the annotation being drawn, empty for the
	// eraser. Indices shift when other annotations are deleted mid-stroke.
	placeholder string

	timer *time.Timer
	token uint64
}

// stopTimer cancels a pending hold-to-snap and invalidates its token so a
// callback already in flight does nothing.
func (d *DrawSession) stopTimer() {
	d.token++
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// armSnap (re)starts the hold-to-snap timer for d. Caller holds c.mu.
func (c *Controller) armSnap(d *DrawSession) {
	d.stopTimer()
	token := d.token
	d.timer = time.AfterFunc(c.snapDelay, func() { c.onHoldToSnap(d, token) })
}

func (c *Controller) onHoldToSnap(d *DrawSession, token uint64) {
	c.mu.Lock()
	if c.session.Draw != d || d.token != token || len(d.Path) < 2 {
		c.mu.Unlock()
		return
	}
	res := shape.Correct(d.Path)
	c.setPlaceholderPath(d, res.Points)
	d.stopTimer()
	c.session.Draw = nil
	c.mu.Unlock()

	c.log.Debug().Int("page", d.Page).Str("shape", res.Shape.String()).Msg("hold-to-snap corrected stroke")
	c.repaint(d.Page)
}

// startStroke begins a drawing or erasing session. Caller holds c.mu.
func (c *Controller) startStroke(ev Event, tool Tool) {
	c.abortStroke()

	d := &DrawSession{
		Page:     ev.Page,
		Tool:     tool,
		Path:     []geometry.Point{ev.doc()},
		Viewport: ev.Viewport,
	}
	switch tool {
	case ToolHighlighter:
		st := c.session.Settings.Highlighter
		h := &annotation.Highlight{Paths: [][]geometry.Point{}, Color: st.Color, Size: st.Size}
		c.store.Add(ev.Page, h)
		d.placeholder = h.ID()
	case ToolPencil:
		st := c.session.Settings.Pencil
		p := &annotation.Pencil{Paths: [][]geometry.Point{}, Color: st.Color, Size: st.Size}
		c.store.Add(ev.Page, p)
		d.placeholder = p.ID()
	}
	c.session.Draw = d
	if tool == ToolPencil {
		c.armSnap(d)
	}
}

// extendStroke appends the pointer to the live path and mirrors it into
// the placeholder so repaints show the raw stroke. Caller holds c.mu.
func (c *Controller) extendStroke(ev Event) []int {
	d := c.session.Draw
	if d.Tool == ToolEraser {
		return c.eraseAt(d.Page, ev)
	}
	d.Path = append(d.Path, ev.doc())
	c.setPlaceholderPath(d, d.Path)
	if d.Tool == ToolPencil {
		c.armSnap(d)
	}
	return []int{d.Page}
}

// finishStroke finalizes the stroke on pointer-up. Caller holds c.mu.
func (c *Controller) finishStroke() []int {
	d := c.session.Draw
	c.session.Draw = nil
	d.stopTimer()

	if d.Tool == ToolEraser {
		return nil
	}
	if len(d.Path) < 2 {
		c.store.RemoveByID(d.Page, d.placeholder)
		return []int{d.Page}
	}

	if d.Tool == ToolHighlighter {
		spans := c.spans.Spans(d.Page)
		if rects, ok := textsnap.Snap(d.Path, spans, d.Viewport); ok {
			st := c.session.Settings.Highlighter
			c.store.ReplaceByID(d.Page, d.placeholder, &annotation.Highlight{Rects: rects, Color: st.Color, Size: st.Size})
			c.log.Debug().Int("page", d.Page).Int("rects", len(rects)).Msg("highlight snapped to text")
			return []int{d.Page}
		}
	}

	res := shape.Correct(d.Path)
	c.setPlaceholderPath(d, res.Points)
	c.log.Debug().Int("page", d.Page).Str("tool", d.Tool.String()).Str("shape", res.Shape.String()).Msg("stroke corrected")
	return []int{d.Page}
}

// abortStroke drops an unfinished stroke, keeping whatever was drawn.
// Caller holds c.mu.
func (c *Controller) abortStroke() {
	d := c.session.Draw
	if d == nil {
		return
	}
	d.stopTimer()
	c.session.Draw = nil
	if d.placeholder != "" && len(d.Path) < 2 {
		c.store.RemoveByID(d.Page, d.placeholder)
	}
}

func (c *Controller) setPlaceholderPath(d *DrawSession, path []geometry.Point) {
	pts := append([]geometry.Point(nil), path...)
	c.store.MutateByID(d.Page, d.placeholder, func(a annotation.Annotation) {
		switch v := a.(type) {
		case *annotation.Highlight:
			v.Paths = [][]geometry.Point{pts}
		case *annotation.Pencil:
			v.Paths = [][]geometry.Point{pts}
		}
	})
}
