package annotation

import (
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Store keeps the annotations of one viewing session, per page, in drawing
// order. It is safe for concurrent use; renderers iterate over Snapshot
// copies while pointer handlers mutate the live lists.
type Store struct {
	mu    sync.RWMutex
	pages map[int][]Annotation
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{pages: make(map[int][]Annotation)}
}

// Add appends a to page and returns its index. Annotations without an ID
// get a fresh UUID.
func (s *Store) Add(page int, a Annotation) int {
	if a.ID() == "" {
		a.setID(uuid.NewString())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.pages[page] = append(s.pages[page], a)
	return len(s.pages[page]) - 1
}

// Len returns the number of annotations on page.
func (s *Store) Len(page int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.pages[page])
}

// At returns the live annotation at index i on page.
func (s *Store) At(page, i int) (Annotation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.pages[page]
	if i < 0 || i >= len(list) {
		return nil, false
	}
	return list[i], true
}

// indexLocked returns the current index of the annotation with id on page,
// or -1. Caller holds s.mu.
func (s *Store) indexLocked(page int, id string) int {
	for i, a := range s.pages[page] {
		if a.ID() == id {
			return i
		}
	}
	return -1
}

// ReplaceByID swaps the annotation with id on page for a. a takes over id.
func (s *Store) ReplaceByID(page int, id string, a Annotation) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(page, id)
	if i < 0 {
		return false
	}
	a.setID(id)
	s.pages[page][i] = a
	return true
}

// MutateByID runs fn on the annotation with id on page under the write lock.
func (s *Store) MutateByID(page int, id string, fn func(Annotation)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(page, id)
	if i < 0 {
		return false
	}
	fn(s.pages[page][i])
	return true
}

// RemoveByID deletes the annotation with id on page.
func (s *Store) RemoveByID(page int, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(page, id)
	if i < 0 {
		return false
	}
	list := s.pages[page]
	s.pages[page] = append(list[:i], list[i+1:]...)
	return true
}

// Mutate runs fn on the annotation at index i under the write lock.
func (s *Store) Mutate(page, i int, fn func(Annotation)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.pages[page]
	if i < 0 || i >= len(list) {
		return false
	}
	fn(list[i])
	return true
}

// Remove deletes the annotation at index i on page.
func (s *Store) Remove(page, i int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.pages[page]
	if i < 0 || i >= len(list) {
		return false
	}
	s.pages[page] = append(list[:i], list[i+1:]...)
	return true
}

// RemoveIf deletes every annotation on page for which pred returns true and
// returns how many were removed. Survivors keep their relative order.
func (s *Store) RemoveIf(page int, pred func(Annotation) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.pages[page]
	kept := list[:0]
	for _, a := range list {
		if !pred(a) {
			kept = append(kept, a)
		}
	}
	removed := len(list) - len(kept)
	for i := len(kept); i < len(list); i++ {
		list[i] = nil
	}
	s.pages[page] = kept
	return removed
}

// Snapshot returns deep copies of the annotations on page, safe to iterate
// while the live list changes.
func (s *Store) Snapshot(page int) []Annotation {
	s.mu.RLock()
	defer s.mu.RUnlock()

	list := s.pages[page]
	out := make([]Annotation, len(list))
	for i, a := range list {
		out[i] = Clone(a)
	}
	return out
}

// Pages returns the pages holding at least one annotation, ascending.
func (s *Store) Pages() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var pages []int
	for p, list := range s.pages {
		if len(list) > 0 {
			pages = append(pages, p)
		}
	}
	sort.Ints(pages)
	return pages
}

// Clear drops every annotation.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pages = make(map[int][]Annotation)
}

// Upgrade runs the legacy repair over every stored text record and returns
// how many were changed.
func (s *Store) Upgrade(m Measurer) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for _, list := range s.pages {
		for _, a := range list {
			if Upgrade(a, m) {
				n++
			}
		}
	}
	return n
}
