package interaction

import (
	"pdf-annotator/internal/selection"
	"pdf-annotator/pkg/geometry"
)

// ViewerSession is the mutable view and gesture state of one open document.
// It is owned by a Controller and handed to other components as a copy.
type ViewerSession struct {
	Zoom        float64
	Rotation    int
	CurrentPage int
	Scroll      geometry.Point

	Tools     ToolState
	Settings  ToolSettings
	Selection selection.State

	// Transient gesture state; nil when idle.
	Draw      *DrawSession
	TextDraft *TextDraft

	panning         bool
	panLast         geometry.Point
	downScreen      geometry.Point
	clickOnSelected bool
}

// NewViewerSession returns a session at zoom 1 on page 1 with default tool
// settings.
func NewViewerSession() *ViewerSession {
	return &ViewerSession{
		Zoom:        1,
		CurrentPage: 1,
		Settings:    DefaultToolSettings(),
		Selection:   selection.NewState(),
	}
}

// Gesture names the pointer state machine state.
type Gesture int

const (
	Idle Gesture = iota
	Panning
	Drawing
	Erasing
	Dragging
	Resizing
	TextBoxDrawing
)

func (g Gesture) String() string {
	switch g {
	case Panning:
		return "panning"
	case Drawing:
		return "drawing"
	case Erasing:
		return "erasing"
	case Dragging:
		return "dragging"
	case Resizing:
		return "resizing"
	case TextBoxDrawing:
		return "textbox"
	}
	return "idle"
}

// Gesture returns the current pointer state.
func (s *ViewerSession) Gesture() Gesture {
	switch {
	case s.panning:
		return Panning
	case s.Selection.Resizing:
		return Resizing
	case s.Selection.Dragging:
		return Dragging
	case s.TextDraft != nil:
		return TextBoxDrawing
	case s.Draw != nil && s.Draw.Tool == ToolEraser:
		return Erasing
	case s.Draw != nil:
		return Drawing
	}
	return Idle
}

// copyOut returns the session without its transient gesture state.
func (s *ViewerSession) copyOut() ViewerSession {
	c := *s
	c.Draw = nil
	c.TextDraft = nil
	return c
}

// Event is one pointer event. Pos is in viewport pixels relative to the top
// left of Page, Screen is the same event in window coordinates and drives
// panning and the click-versus-drag test. During a gesture the host keeps
// reporting positions relative to the page where the gesture started.
// Page 0 means the pointer is outside every page.
type Event struct {
	Page     int
	Pos      geometry.Point
	Screen   geometry.Point
	Viewport geometry.Viewport
}

func (e Event) doc() geometry.Point {
	return e.Viewport.ToDocument(e.Pos)
}

func (e Event) zoom() float64 {
	if e.Viewport.Scale <= 0 {
		return 1
	}
	return e.Viewport.Scale
}
