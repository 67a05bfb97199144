// Package selection tracks the single selected annotation and provides the
// hit testing and resize handle geometry used to manipulate it.
package selection

import (
	"pdf-annotator/pkg/geometry"
)

// State is the system-wide selection. Page 0 means nothing is selected, in
// which case Index is -1.
type State struct {
	Page     int
	Index    int
	Dragging bool
	Resizing bool
	Handle   HandleID
	Offset   geometry.Point
}

// NewState returns an empty selection.
func NewState() State {
	return State{Index: -1}
}

// HasSelection reports whether an annotation is selected.
func (s State) HasSelection() bool {
	return s.Page != 0 && s.Index >= 0
}

// IsSelected reports whether the annotation at index on page is selected.
func (s State) IsSelected(page, index int) bool {
	return s.HasSelection() && s.Page == page && s.Index == index
}

// Select makes the annotation at index on page the only selection. Drag and
// resize flags are reset.
func (s *State) Select(page, index int) {
	*s = State{Page: page, Index: index}
}

// Clear drops the selection.
func (s *State) Clear() {
	*s = NewState()
}

// EndGesture leaves dragging or resizing while keeping the selection.
func (s *State) EndGesture() {
	s.Dragging = false
	s.Resizing = false
	s.Handle = ""
}

// AffectedPages returns the distinct non-zero pages among before and after,
// which need repainting after a selection change.
func AffectedPages(before, after State) []int {
	var pages []int
	if before.Page != 0 {
		pages = append(pages, before.Page)
	}
	if after.Page != 0 && after.Page != before.Page {
		pages = append(pages, after.Page)
	}
	return pages
}
