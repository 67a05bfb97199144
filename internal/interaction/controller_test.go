package interaction

import (
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/selection"
	"pdf-annotator/pkg/geometry"
)

type recordingRepainter struct {
	mu    sync.Mutex
	calls [][]int
}

func (r *recordingRepainter) Repaint(pages ...int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, append([]int(nil), pages...))
}

func (r *recordingRepainter) last() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.calls) == 0 {
		return nil
	}
	return r.calls[len(r.calls)-1]
}

type fixedSpans map[int][]geometry.Rect

func (f fixedSpans) Spans(page int) []geometry.Rect { return f[page] }

type fakeEditor struct {
	page   int
	box    geometry.Rect
	style  TextStyle
	commit func(string)
}

func (e *fakeEditor) Open(page int, box geometry.Rect, style TextStyle, commit func(string)) {
	e.page, e.box, e.style, e.commit = page, box, style, commit
}

type fakePicker struct {
	src  string
	size geometry.Size
}

func (p fakePicker) Pick(done func(string, geometry.Size, error))    { done(p.src, p.size, nil) }
func (p fakePicker) Capture(done func(string, geometry.Size, error)) { done(p.src, p.size, nil) }

type scrollLog struct{ dx, dy float64 }

func (s *scrollLog) ScrollBy(dx, dy float64) { s.dx += dx; s.dy += dy }

var testPage = geometry.NewSize(600, 800)

func ev(page int, x, y float64) Event {
	return Event{
		Page:     page,
		Pos:      geometry.Pt(x, y),
		Screen:   geometry.Pt(x, y+1000*float64(page)),
		Viewport: geometry.MustViewport(testPage, 1, 0),
	}
}

func newTestController(opts Options) (*Controller, *annotation.Store, *recordingRepainter) {
	rep := &recordingRepainter{}
	if opts.Repainter == nil {
		opts.Repainter = rep
	}
	opts.Logger = zerolog.Nop()
	store := annotation.NewStore()
	return NewController(store, opts), store, rep
}

func TestToolExclusivity(t *testing.T) {
	c, _, _ := newTestController(Options{})

	c.ToggleTool(ToolPencil)
	assert.Equal(t, ToolPencil, c.ActiveTool())
	c.ToggleTool(ToolEraser)
	assert.Equal(t, ToolEraser, c.ActiveTool())
	c.ToggleTool(ToolEraser)
	assert.Equal(t, ToolNone, c.ActiveTool())

	c.ToggleTool(ToolHand)
	c.ToggleTool(ToolSignature)
	assert.Equal(t, ToolNone, c.ActiveTool(), "signature needs a captured image")
}

func TestSignatureCaptureArmsTool(t *testing.T) {
	var changes []Tool
	c, store, _ := newTestController(Options{
		Signature:    fakePicker{src: "sig.png", size: geometry.NewSize(300, 100)},
		OnToolChange: func(tool Tool) { changes = append(changes, tool) },
	})

	c.ToggleTool(ToolPencil)
	c.ToggleTool(ToolSignature)
	require.Equal(t, ToolSignature, c.ActiveTool())
	assert.Equal(t, []Tool{ToolPencil, ToolNone, ToolSignature}, changes)

	c.Click(ev(1, 200, 200))
	assert.Equal(t, ToolNone, c.ActiveTool(), "signature deactivates after one use")
	require.Equal(t, 1, store.Len(1))
	img := store.Snapshot(1)[0].(*annotation.Image)
	assert.Equal(t, "sig.png", img.Src)
	assert.InDelta(t, 150, img.Width, 1e-9)
	assert.InDelta(t, 50, img.Height, 1e-9)

	c.Click(ev(1, 10, 10))
	assert.Equal(t, 1, store.Len(1))
}

func TestPencilStrokeCorrectedOnPointerUp(t *testing.T) {
	c, store, rep := newTestController(Options{})
	c.ToggleTool(ToolPencil)

	c.PointerDown(ev(1, 10, 10))
	assert.Equal(t, Drawing, c.Gesture())
	require.Equal(t, 1, store.Len(1), "placeholder pushed on pointer-down")
	for x := 20.0; x <= 60; x += 10 {
		c.PointerMove(ev(1, x, 10))
	}
	live := store.Snapshot(1)[0].(*annotation.Pencil)
	assert.Len(t, live.Paths[0], 6, "raw stroke is visible while drawing")

	c.PointerUp(ev(1, 60, 10))
	assert.Equal(t, Idle, c.Gesture())
	p := store.Snapshot(1)[0].(*annotation.Pencil)
	assert.Equal(t, [][]geometry.Point{{{X: 10, Y: 10}, {X: 60, Y: 10}}}, p.Paths)
	assert.Equal(t, "#000000", p.Color)
	assert.Equal(t, []int{1}, rep.last())
}

func TestDeleteSelectedDuringStrokeKeepsStroke(t *testing.T) {
	c, store, _ := newTestController(Options{})
	store.Add(1, &annotation.Text{Content: "note", Size: 10})
	c.Update(func(s *ViewerSession) { s.Selection.Select(1, 0) })

	c.ToggleTool(ToolPencil)
	c.PointerDown(ev(1, 100, 100))
	c.PointerMove(ev(1, 110, 100))
	require.True(t, c.DeleteSelected())
	c.PointerMove(ev(1, 300, 100))
	c.PointerUp(ev(1, 300, 100))

	require.Equal(t, 1, store.Len(1))
	p, ok := store.Snapshot(1)[0].(*annotation.Pencil)
	require.True(t, ok)
	assert.Equal(t, [][]geometry.Point{{{X: 100, Y: 100}, {X: 300, Y: 100}}}, p.Paths)
}

func TestShortStrokeDiscarded(t *testing.T) {
	c, store, _ := newTestController(Options{})
	c.ToggleTool(ToolHighlighter)
	c.PointerDown(ev(2, 10, 10))
	c.PointerUp(ev(2, 10, 10))
	assert.Equal(t, 0, store.Len(2))
}

func TestHighlighterSnapsToText(t *testing.T) {
	spans := fixedSpans{1: {
		{X: 10, Y: 100, Width: 40, Height: 12},
		{X: 53, Y: 100, Width: 40, Height: 12},
	}}
	c, store, _ := newTestController(Options{Spans: spans})
	c.ToggleTool(ToolHighlighter)

	c.PointerDown(ev(1, 20, 106))
	c.PointerMove(ev(1, 45, 106))
	c.PointerMove(ev(1, 70, 107))
	c.PointerUp(ev(1, 70, 107))

	require.Equal(t, 1, store.Len(1))
	h := store.Snapshot(1)[0].(*annotation.Highlight)
	assert.Empty(t, h.Paths)
	assert.Equal(t, []geometry.Rect{{X: 10, Y: 100, Width: 83, Height: 12}}, h.Rects)
	assert.Equal(t, "#FFFF00", h.Color)
}

func TestHighlighterFallsBackToFreehand(t *testing.T) {
	c, store, _ := newTestController(Options{})
	c.ToggleTool(ToolHighlighter)

	c.PointerDown(ev(1, 20, 300))
	c.PointerMove(ev(1, 70, 300))
	c.PointerUp(ev(1, 70, 300))

	h := store.Snapshot(1)[0].(*annotation.Highlight)
	assert.Empty(t, h.Rects)
	assert.Equal(t, [][]geometry.Point{{{X: 20, Y: 300}, {X: 70, Y: 300}}}, h.Paths)
}

func TestHoldToSnapCorrectsPausedPencil(t *testing.T) {
	c, store, _ := newTestController(Options{SnapDelay: 20 * time.Millisecond})
	c.ToggleTool(ToolPencil)

	c.PointerDown(ev(1, 0, 0))
	for i := 1; i <= 12; i++ {
		c.PointerMove(ev(1, float64(i*10), float64(i%2)))
	}

	require.Eventually(t, func() bool { return c.Gesture() == Idle }, time.Second, 5*time.Millisecond)
	p := store.Snapshot(1)[0].(*annotation.Pencil)
	assert.Equal(t, [][]geometry.Point{{{X: 0, Y: 0}, {X: 120, Y: 0}}}, p.Paths)

	c.PointerUp(ev(1, 120, 0))
	assert.Equal(t, 1, store.Len(1))
	assert.Equal(t, [][]geometry.Point{{{X: 0, Y: 0}, {X: 120, Y: 0}}}, store.Snapshot(1)[0].(*annotation.Pencil).Paths)
}

func TestHoldToSnapCancelledByToolSwitch(t *testing.T) {
	c, store, _ := newTestController(Options{SnapDelay: 30 * time.Millisecond})
	c.ToggleTool(ToolPencil)
	c.PointerDown(ev(1, 0, 0))
	c.PointerMove(ev(1, 5, 5))
	c.PointerMove(ev(1, 10, 0))
	c.ToggleTool(ToolPencil)

	time.Sleep(80 * time.Millisecond)
	p := store.Snapshot(1)[0].(*annotation.Pencil)
	assert.Len(t, p.Paths[0], 3, "raw stroke kept, no correction after tool switch")
}

func TestEraserRemovesTouchedAnnotations(t *testing.T) {
	c, store, rep := newTestController(Options{})
	store.Add(1, &annotation.Pencil{Paths: [][]geometry.Point{{{X: 100, Y: 100}, {X: 200, Y: 100}}}, Size: 3})
	store.Add(1, &annotation.Pencil{Paths: [][]geometry.Point{{{X: 100, Y: 400}, {X: 200, Y: 400}}}, Size: 3})
	store.Add(1, &annotation.Image{X: 300, Y: 300, Width: 50, Height: 50})

	c.ToggleTool(ToolEraser)
	c.PointerDown(ev(1, 105, 105))
	assert.Equal(t, Erasing, c.Gesture())
	assert.Equal(t, 3, store.Len(1), "erasing happens on move")
	c.PointerMove(ev(1, 105, 105))
	require.Equal(t, 2, store.Len(1))
	assert.Equal(t, []int{1}, rep.last())

	c.PointerMove(ev(1, 355, 355))
	require.Equal(t, 1, store.Len(1))
	c.PointerUp(ev(1, 355, 355))

	left := store.Snapshot(1)[0].(*annotation.Pencil)
	assert.Equal(t, 400.0, left.Paths[0][0].Y)
}

func TestEraserHits(t *testing.T) {
	pencil := &annotation.Pencil{Paths: [][]geometry.Point{{{X: 0, Y: 0}, {X: 100, Y: 0}}}}
	assert.True(t, EraserHits(pencil, geometry.Pt(0, 9.9), 10))
	assert.False(t, EraserHits(pencil, geometry.Pt(50, 5), 10), "segments between points are not tested")
	assert.False(t, EraserHits(pencil, geometry.Pt(0, 10), 10))

	snapped := &annotation.Highlight{Rects: []geometry.Rect{{X: 0, Y: 0, Width: 10, Height: 10}}}
	assert.True(t, EraserHits(snapped, geometry.Pt(19, 19), 9), "square approximation reaches the corner")
	assert.False(t, EraserHits(snapped, geometry.Pt(20, 20), 9))

	txt := &annotation.Text{Content: "abc", X: 0, Y: 0, Width: 30, Height: 10}
	assert.True(t, EraserHits(txt, geometry.Pt(35, 5), 5))
}

func TestSelectionSingularityRepaintsBothPages(t *testing.T) {
	var selections int
	c, store, rep := newTestController(Options{OnSelectionChange: func(selection.State) { selections++ }})
	store.Add(1, &annotation.Image{X: 10, Y: 10, Width: 50, Height: 50})
	store.Add(2, &annotation.Image{X: 10, Y: 10, Width: 50, Height: 50})

	c.PointerDown(ev(1, 20, 20))
	c.PointerUp(ev(1, 20, 20))
	require.True(t, c.Selection().IsSelected(1, 0))
	assert.Equal(t, []int{1}, rep.last())

	c.PointerDown(ev(2, 20, 20))
	sel := c.Selection()
	assert.True(t, sel.IsSelected(2, 0))
	assert.False(t, sel.IsSelected(1, 0))
	assert.ElementsMatch(t, []int{1, 2}, rep.last())
	c.PointerUp(ev(2, 20, 20))
	assert.Equal(t, 2, selections)
}

func TestClickOnSelectedDeselects(t *testing.T) {
	c, store, _ := newTestController(Options{})
	store.Add(1, &annotation.Image{X: 10, Y: 10, Width: 50, Height: 50})

	c.PointerDown(ev(1, 20, 20))
	c.PointerUp(ev(1, 20, 20))
	require.True(t, c.Selection().HasSelection())

	c.PointerDown(ev(1, 22, 22))
	c.PointerUp(ev(1, 23, 23))
	assert.False(t, c.Selection().HasSelection())
}

func TestClickOnEmptySpaceClears(t *testing.T) {
	c, store, _ := newTestController(Options{})
	store.Add(1, &annotation.Image{X: 10, Y: 10, Width: 50, Height: 50})
	c.PointerDown(ev(1, 20, 20))
	c.PointerUp(ev(1, 20, 20))

	c.PointerDown(ev(1, 400, 400))
	assert.False(t, c.Selection().HasSelection())
	c.PointerUp(ev(1, 400, 400))

	c.PointerDown(ev(1, 20, 20))
	c.PointerUp(ev(1, 20, 20))
	c.PointerDown(ev(0, 0, 0))
	assert.False(t, c.Selection().HasSelection())
}

func TestDragMovesSelected(t *testing.T) {
	c, store, rep := newTestController(Options{})
	store.Add(1, &annotation.Image{X: 10, Y: 10, Width: 50, Height: 50})

	c.PointerDown(ev(1, 20, 25))
	assert.Equal(t, Dragging, c.Gesture())
	c.PointerMove(ev(1, 120, 225))
	img := store.Snapshot(1)[0].(*annotation.Image)
	assert.Equal(t, geometry.NewRect(110, 210, 50, 50), img.Box())
	assert.Equal(t, []int{1}, rep.last())

	c.PointerUp(ev(1, 120, 225))
	assert.Equal(t, Idle, c.Gesture())
	assert.True(t, c.Selection().IsSelected(1, 0), "drag keeps the selection")
}

func TestResizeFromHandle(t *testing.T) {
	c, store, _ := newTestController(Options{})
	store.Add(1, &annotation.Image{X: 10, Y: 10, Width: 50, Height: 50})
	c.PointerDown(ev(1, 20, 20))
	c.PointerUp(ev(1, 20, 20))

	assert.Equal(t, "nwse-resize", c.HoverCursor(ev(1, 60, 60)))
	assert.Equal(t, "default", c.HoverCursor(ev(1, 300, 300)))

	c.PointerDown(ev(1, 61, 61))
	assert.Equal(t, Resizing, c.Gesture())
	c.PointerMove(ev(1, 100, 90))
	c.PointerUp(ev(1, 100, 90))

	img := store.Snapshot(1)[0].(*annotation.Image)
	assert.Equal(t, geometry.NewRect(10, 10, 90, 80), img.Box())
	assert.True(t, c.Selection().IsSelected(1, 0))
	assert.Equal(t, Idle, c.Gesture())
}

func TestTextToolCommitsOnBlur(t *testing.T) {
	editor := &fakeEditor{}
	c, store, _ := newTestController(Options{Editor: editor})
	c.ToggleTool(ToolText)

	e := ev(1, 110, 40)
	e.Viewport = geometry.MustViewport(testPage, 2, 0)
	start := e
	start.Pos = geometry.Pt(10, 20)

	c.PointerDown(start)
	assert.Equal(t, TextBoxDrawing, c.Gesture())
	c.PointerMove(e)
	draft, ok := c.TextDraft()
	require.True(t, ok)
	assert.Equal(t, geometry.NewRect(10, 20, 100, 20), draft.Rect())
	c.PointerUp(e)

	assert.Equal(t, ToolNone, c.ActiveTool(), "text tool deactivates after one box")
	require.NotNil(t, editor.commit)
	assert.Equal(t, geometry.NewRect(10, 20, 100, 20), editor.box)
	assert.Equal(t, 0, store.Len(1))

	editor.commit("  hello  ")
	require.Equal(t, 1, store.Len(1))
	txt := store.Snapshot(1)[0].(*annotation.Text)
	assert.Equal(t, "hello", txt.Content)
	assert.Equal(t, geometry.NewRect(5, 10, 50, 10), txt.Box())
	assert.Equal(t, "Arial", txt.Font)
	assert.Equal(t, 16.0, txt.Size)
}

func TestTextToolIgnoresBlankText(t *testing.T) {
	editor := &fakeEditor{}
	c, store, _ := newTestController(Options{Editor: editor})
	c.ToggleTool(ToolText)
	c.PointerDown(ev(1, 10, 10))
	c.PointerUp(ev(1, 50, 30))
	editor.commit("   ")
	assert.Equal(t, 0, store.Len(1))
}

func TestImagePlacementCentredAndScaled(t *testing.T) {
	c, store, _ := newTestController(Options{Picker: fakePicker{src: "photo.png", size: geometry.NewSize(300, 150)}})
	c.ToggleTool(ToolImage)

	c.Click(ev(1, 200, 200))
	assert.Equal(t, ToolNone, c.ActiveTool())
	require.Equal(t, 1, store.Len(1))
	img := store.Snapshot(1)[0].(*annotation.Image)
	assert.Equal(t, geometry.NewRect(125, 162.5, 150, 75), img.Box())
}

func TestImagePickCancelledStillDeactivates(t *testing.T) {
	c, store, _ := newTestController(Options{Picker: fakePicker{}})
	c.ToggleTool(ToolImage)
	c.Click(ev(1, 200, 200))
	assert.Equal(t, ToolNone, c.ActiveTool())
	assert.Equal(t, 0, store.Len(1))
}

func TestFitPlaced(t *testing.T) {
	assert.Equal(t, geometry.NewSize(150, 75), FitPlaced(geometry.NewSize(300, 150)))
	assert.Equal(t, geometry.NewSize(75, 150), FitPlaced(geometry.NewSize(100, 200)))
	assert.Equal(t, geometry.NewSize(100, 100), FitPlaced(geometry.NewSize(100, 100)))
	assert.Equal(t, geometry.NewSize(150, 150), FitPlaced(geometry.NewSize(400, 400)))
}

func TestHandToolPans(t *testing.T) {
	scroll := &scrollLog{}
	c, store, _ := newTestController(Options{Scroller: scroll})
	c.ToggleTool(ToolHand)

	c.PointerDown(ev(1, 100, 100))
	assert.Equal(t, Panning, c.Gesture())
	c.PointerMove(ev(1, 90, 70))
	c.PointerMove(ev(1, 80, 60))
	c.PointerUp(ev(1, 80, 60))

	assert.Equal(t, 20.0, scroll.dx)
	assert.Equal(t, 40.0, scroll.dy)
	assert.Equal(t, 0, store.Len(1))
	assert.Equal(t, Idle, c.Gesture())
}

func TestDeleteSelected(t *testing.T) {
	c, store, _ := newTestController(Options{})
	store.Add(1, &annotation.Text{Content: "x", X: 0, Y: 0, Width: 40, Height: 20, Size: 12})
	assert.False(t, c.DeleteSelected())
	c.PointerDown(ev(1, 5, 5))
	c.PointerUp(ev(1, 5, 5))
	require.True(t, c.DeleteSelected())
	assert.Equal(t, 0, store.Len(1))
	assert.False(t, c.Selection().HasSelection())
}
