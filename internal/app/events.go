package app

import (
	"pdf-annotator/internal/document"
	"pdf-annotator/internal/layout"
)

// EventType identifies viewer events.
type EventType int

const (
	EventDocumentLoaded EventType = iota
	EventPageChanged
	EventZoomChanged
	EventLayoutChanged
	EventAnnotationsChanged
	EventSelectionChanged
	EventToolChanged
	EventSettingsApplied
	EventSlotRendered
	EventPresentationChanged
	EventStatus
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// DocumentInfo is the payload of EventDocumentLoaded.
type DocumentInfo struct {
	Source   string
	Comic    bool
	Metadata document.Metadata
}

// PageChange is the payload of EventPageChanged. Offset is where the slot
// holding Page starts along the scroll axis in continuous view. FromScroll
// is set when the change followed the user's scrolling, so the host should
// not scroll again.
type PageChange struct {
	Page       int
	Total      int
	Offset     float64
	FromScroll bool
}

// ZoomChange is the payload of EventZoomChanged.
type ZoomChange struct {
	Level float64
	Mode  layout.ZoomMode
	Label string
}

// Status is a user-visible message. Err is set for failures.
type Status struct {
	Message string
	Err     error
}

// On registers an event listener for the specified event type.
func (v *Viewer) On(event EventType, listener EventListener) {
	v.lmu.Lock()
	defer v.lmu.Unlock()
	v.listeners[event] = append(v.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (v *Viewer) Emit(event EventType, data interface{}) {
	v.lmu.RLock()
	listeners := v.listeners[event]
	v.lmu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

func (v *Viewer) status(msg string, err error) {
	v.Emit(EventStatus, Status{Message: msg, Err: err})
}
