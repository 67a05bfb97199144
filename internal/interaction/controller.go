package interaction

import (
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/selection"
	"pdf-annotator/pkg/geometry"
)

// ClickSlop is how far, in screen pixels per axis, the pointer may move
// between down and up and still count as a click.
const ClickSlop = 5.0

// Repainter redraws the annotation layer of pages.
type Repainter interface {
	Repaint(pages ...int)
}

// SpanSource returns the text span rectangles of a page in viewport pixels
// at the zoom the page is currently shown at.
type SpanSource interface {
	Spans(page int) []geometry.Rect
}

// Scroller moves the view.
type Scroller interface {
	ScrollBy(dx, dy float64)
}

// TextEditor shows an inline editor over box (viewport pixels of page) and
// calls commit once with the entered text when it loses focus.
type TextEditor interface {
	Open(page int, box geometry.Rect, style TextStyle, commit func(text string))
}

// ImagePicker asks the user for an image. done receives an opaque source
// reference and the image's pixel size; an empty src means cancelled.
type ImagePicker interface {
	Pick(done func(src string, size geometry.Size, err error))
}

// SignaturePad captures a signature drawing, reporting it like ImagePicker.
type SignaturePad interface {
	Capture(done func(src string, size geometry.Size, err error))
}

// Options configures a Controller. Nil collaborators are replaced with
// no-ops.
type Options struct {
	Repainter Repainter
	Spans     SpanSource
	Scroller  Scroller
	Editor    TextEditor
	Picker    ImagePicker
	Signature SignaturePad
	Logger    zerolog.Logger

	// OnToolChange is called after the active tool changes.
	OnToolChange func(Tool)
	// OnSelectionChange is called after the selection changes.
	OnSelectionChange func(selection.State)

	// SnapDelay overrides HoldToSnapDelay when positive.
	SnapDelay time.Duration
}

// Controller is the pointer state machine of one viewing session. Pointer
// methods are called from the UI goroutine; the hold-to-snap timer fires on
// its own goroutine, so all session state is guarded by mu. Collaborators
// are always called without mu held.
type Controller struct {
	mu      sync.Mutex
	session *ViewerSession
	store   *annotation.Store

	repainter Repainter
	spans     SpanSource
	scroller  Scroller
	editor    TextEditor
	picker    ImagePicker
	signature SignaturePad
	log       zerolog.Logger

	onTool      func(Tool)
	onSelection func(selection.State)
	snapDelay   time.Duration
}

// NewController creates a controller editing store.
func NewController(store *annotation.Store, opts Options) *Controller {
	c := &Controller{
		session:     NewViewerSession(),
		store:       store,
		repainter:   opts.Repainter,
		spans:       opts.Spans,
		scroller:    opts.Scroller,
		editor:      opts.Editor,
		picker:      opts.Picker,
		signature:   opts.Signature,
		log:         opts.Logger.With().Str("component", "interaction").Logger(),
		onTool:      opts.OnToolChange,
		onSelection: opts.OnSelectionChange,
		snapDelay:   opts.SnapDelay,
	}
	if c.repainter == nil {
		c.repainter = nopCollaborator{}
	}
	if c.spans == nil {
		c.spans = nopCollaborator{}
	}
	if c.scroller == nil {
		c.scroller = nopCollaborator{}
	}
	if c.editor == nil {
		c.editor = nopCollaborator{}
	}
	if c.picker == nil {
		c.picker = nopCollaborator{}
	}
	if c.signature == nil {
		c.signature = nopCollaborator{}
	}
	if c.snapDelay <= 0 {
		c.snapDelay = HoldToSnapDelay
	}
	return c
}

// Store returns the annotation store being edited.
func (c *Controller) Store() *annotation.Store { return c.store }

// Session returns a copy of the session without in-flight gesture state.
func (c *Controller) Session() ViewerSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.copyOut()
}

// Update applies fn to the live session, for view changes such as zoom,
// rotation, page and tool settings.
func (c *Controller) Update(fn func(s *ViewerSession)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(c.session)
}

// Selection returns the current selection.
func (c *Controller) Selection() selection.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Selection
}

// Gesture returns the current pointer state.
func (c *Controller) Gesture() Gesture {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Gesture()
}

// ActiveTool returns the active tool.
func (c *Controller) ActiveTool() Tool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Tools.Active()
}

// TextDraft returns the text box being dragged out, if any.
func (c *Controller) TextDraft() (TextDraft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.TextDraft == nil {
		return TextDraft{}, false
	}
	return *c.session.TextDraft, true
}

// ToggleTool switches tool on, or off when it is already active. Any stroke
// in progress is stopped. Activating the signature tool first captures a
// signature and only arms the tool when one was drawn.
func (c *Controller) ToggleTool(tool Tool) {
	c.mu.Lock()
	c.abortStroke()
	c.session.TextDraft = nil
	deactivated := c.session.Tools.Toggle(tool)
	if tool == ToolSignature {
		c.session.Tools.clearSignature()
	}
	active := c.session.Tools.Active()
	c.mu.Unlock()

	c.log.Debug().Str("tool", tool.String()).Bool("deactivated", deactivated).Msg("tool toggled")
	c.notifyTool(active)

	if tool == ToolSignature && !deactivated {
		c.signature.Capture(func(src string, size geometry.Size, err error) {
			if err != nil {
				c.log.Warn().Err(err).Msg("signature capture failed")
				return
			}
			if src == "" {
				return
			}
			c.mu.Lock()
			c.abortStroke()
			c.session.Tools.ArmSignature(src, size)
			c.mu.Unlock()
			c.notifyTool(ToolSignature)
		})
	}
}

// PointerDown starts a gesture.
func (c *Controller) PointerDown(ev Event) {
	c.mu.Lock()
	s := c.session
	s.downScreen = ev.Screen
	s.clickOnSelected = false

	if s.Tools.AnyActive() {
		if ev.Page == 0 {
			c.mu.Unlock()
			return
		}
		switch tool := s.Tools.Active(); tool {
		case ToolText:
			s.TextDraft = &TextDraft{Page: ev.Page, Start: ev.Pos, Current: ev.Pos, Viewport: ev.Viewport}
		case ToolHighlighter, ToolPencil, ToolEraser:
			c.startStroke(ev, tool)
		case ToolHand:
			s.panning = true
			s.panLast = ev.Screen
		}
		c.mu.Unlock()
		return
	}

	before := s.Selection
	if ev.Page == 0 {
		s.Selection.Clear()
		c.mu.Unlock()
		c.selectionChanged(before, selection.NewState())
		return
	}

	if h, ok := c.handleUnder(ev); ok {
		s.Selection.Resizing = true
		s.Selection.Handle = h.ID
		c.mu.Unlock()
		return
	}

	doc := ev.doc()
	list := c.store.Snapshot(ev.Page)
	if i, ok := selection.HitTest(list, doc); ok {
		if before.IsSelected(ev.Page, i) {
			s.clickOnSelected = true
		}
		box := list[i].(annotation.Boxed).Box()
		s.Selection.Select(ev.Page, i)
		s.Selection.Dragging = true
		s.Selection.Offset = doc.Sub(box.TopLeft())
	} else {
		s.Selection.Clear()
	}
	after := s.Selection
	c.mu.Unlock()
	c.selectionChanged(before, after)
}

// PointerMove continues the current gesture.
func (c *Controller) PointerMove(ev Event) {
	c.mu.Lock()
	s := c.session
	var pages []int

	switch {
	case s.panning:
		dx, dy := ev.Screen.X-s.panLast.X, ev.Screen.Y-s.panLast.Y
		s.panLast = ev.Screen
		c.mu.Unlock()
		c.scroller.ScrollBy(-dx, -dy)
		return
	case s.Selection.Resizing:
		pages = c.resizeSelected(ev)
	case s.Selection.Dragging:
		pages = c.dragSelected(ev)
	case s.TextDraft != nil:
		s.TextDraft.Current = ev.Pos
	case s.Draw != nil:
		pages = c.extendStroke(ev)
	}
	c.mu.Unlock()
	c.repaint(pages...)
}

// PointerUp ends the current gesture.
func (c *Controller) PointerUp(ev Event) {
	c.mu.Lock()
	s := c.session
	var pages []int

	still := math.Abs(ev.Screen.X-s.downScreen.X) < ClickSlop && math.Abs(ev.Screen.Y-s.downScreen.Y) < ClickSlop
	before := s.Selection
	if s.clickOnSelected && still && !s.Selection.Resizing {
		s.Selection.Clear()
	}
	s.clickOnSelected = false
	after := s.Selection

	if s.Selection.Resizing {
		s.Selection.EndGesture()
	}

	var (
		draft   bool
		dPage   int
		dBox    geometry.Rect
		dVP     geometry.Viewport
		dStyle  TextStyle
		toolNow = s.Tools.Active()
	)
	switch {
	case s.panning:
		s.panning = false
	case s.Selection.Dragging:
		s.Selection.EndGesture()
	case s.TextDraft != nil:
		draft = true
		dPage, dBox, dVP, dStyle = c.finishTextDraft()
		toolNow = s.Tools.Active()
	case s.Draw != nil:
		pages = c.finishStroke()
	}
	c.mu.Unlock()

	c.selectionChanged(before, after)
	c.repaint(pages...)
	if draft {
		c.notifyTool(toolNow)
		c.openTextEditor(dPage, dBox, dVP, dStyle)
	}
}

// Click handles a click with the image or signature tool.
func (c *Controller) Click(ev Event) {
	c.mu.Lock()
	s := c.session
	if ev.Page == 0 {
		c.mu.Unlock()
		return
	}
	switch s.Tools.Active() {
	case ToolImage:
		c.mu.Unlock()
		c.picker.Pick(func(src string, size geometry.Size, err error) {
			if err != nil {
				c.log.Warn().Err(err).Msg("image pick failed")
			} else if src != "" {
				c.placeImage(ev, src, size)
			}
			c.mu.Lock()
			off := c.session.Tools.IsActive(ToolImage)
			if off {
				c.session.Tools.Toggle(ToolImage)
			}
			c.mu.Unlock()
			if off {
				c.notifyTool(ToolNone)
			}
		})
	case ToolSignature:
		src, size, ok := s.Tools.Signature()
		if !ok {
			c.mu.Unlock()
			return
		}
		s.Tools.Deactivate()
		s.Tools.clearSignature()
		c.mu.Unlock()
		c.placeImage(ev, src, size)
		c.notifyTool(ToolNone)
	default:
		c.mu.Unlock()
	}
}

// HoverCursor returns the cursor hint for the pointer position: the resize
// cursor over a handle of the selected annotation, otherwise "default".
func (c *Controller) HoverCursor(ev Event) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if h, ok := c.handleUnder(ev); ok {
		return h.Cursor
	}
	return "default"
}

// DeleteSelected removes the selected annotation.
func (c *Controller) DeleteSelected() bool {
	c.mu.Lock()
	before := c.session.Selection
	if !before.HasSelection() || !c.store.Remove(before.Page, before.Index) {
		c.mu.Unlock()
		return false
	}
	c.session.Selection.Clear()
	after := c.session.Selection
	c.mu.Unlock()

	c.selectionChanged(before, after)
	return true
}

// ClearSelection drops the selection.
func (c *Controller) ClearSelection() {
	c.mu.Lock()
	before := c.session.Selection
	c.session.Selection.Clear()
	c.mu.Unlock()
	c.selectionChanged(before, selection.NewState())
}

// Reset drops all gesture and selection state, for a newly opened document.
func (c *Controller) Reset() {
	c.mu.Lock()
	c.abortStroke()
	c.session.TextDraft = nil
	c.session.panning = false
	c.session.Selection.Clear()
	c.mu.Unlock()
}

// handleUnder finds the resize handle of the selected annotation under the
// pointer. Caller holds c.mu.
func (c *Controller) handleUnder(ev Event) (selection.Handle, bool) {
	sel := c.session.Selection
	if !sel.HasSelection() || sel.Page != ev.Page {
		return selection.Handle{}, false
	}
	a, ok := c.store.At(sel.Page, sel.Index)
	if !ok {
		return selection.Handle{}, false
	}
	b, ok := a.(annotation.Boxed)
	if !ok {
		return selection.Handle{}, false
	}
	return selection.HandleAt(selection.Handles(selection.StoredBox(b), ev.Viewport), ev.Pos)
}

// Caller holds c.mu.
func (c *Controller) resizeSelected(ev Event) []int {
	sel := c.session.Selection
	p := ev.doc()
	c.store.Mutate(sel.Page, sel.Index, func(a annotation.Annotation) {
		if b, ok := a.(annotation.Boxed); ok {
			b.SetBox(selection.Resize(selection.StoredBox(b), sel.Handle, p))
		}
	})
	return []int{sel.Page}
}

// Caller holds c.mu.
func (c *Controller) dragSelected(ev Event) []int {
	sel := c.session.Selection
	p := ev.doc().Sub(sel.Offset)
	c.store.Mutate(sel.Page, sel.Index, func(a annotation.Annotation) {
		if b, ok := a.(annotation.Boxed); ok {
			box := selection.StoredBox(b)
			box.X, box.Y = p.X, p.Y
			b.SetBox(box)
		}
	})
	return []int{sel.Page}
}

func (c *Controller) selectionChanged(before, after selection.State) {
	if before.Page == after.Page && before.Index == after.Index {
		return
	}
	c.repaint(selection.AffectedPages(before, after)...)
	if c.onSelection != nil {
		c.onSelection(after)
	}
}

func (c *Controller) notifyTool(t Tool) {
	if c.onTool != nil {
		c.onTool(t)
	}
}

func (c *Controller) repaint(pages ...int) {
	if len(pages) > 0 {
		c.repainter.Repaint(pages...)
	}
}

type nopCollaborator struct{}

func (nopCollaborator) Repaint(...int)                                   {}
func (nopCollaborator) Spans(int) []geometry.Rect                        { return nil }
func (nopCollaborator) ScrollBy(float64, float64)                        {}
func (nopCollaborator) Open(int, geometry.Rect, TextStyle, func(string)) {}

func (nopCollaborator) Pick(done func(string, geometry.Size, error)) {
	done("", geometry.Size{}, nil)
}

func (nopCollaborator) Capture(done func(string, geometry.Size, error)) {
	done("", geometry.Size{}, nil)
}
