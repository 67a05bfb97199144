// Package layout groups pages into spreads and computes navigation, zoom and
// visibility for the viewer. Everything here is pure and safe to call from
// any goroutine.
package layout

import (
	"fmt"
	"strings"
)

// SpreadMode controls how pages are paired into slots.
type SpreadMode int

const (
	// SpreadNone shows every page on its own.
	SpreadNone SpreadMode = iota
	// SpreadOdd keeps page 1 alone and pairs (2,3), (4,5), ...
	SpreadOdd
	// SpreadEven pairs (1,2), (3,4), ...
	SpreadEven
)

func (m SpreadMode) String() string {
	switch m {
	case SpreadOdd:
		return "odd"
	case SpreadEven:
		return "even"
	default:
		return "none"
	}
}

// ParseSpreadMode parses "none", "odd" or "even".
func ParseSpreadMode(s string) (SpreadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none":
		return SpreadNone, nil
	case "odd":
		return SpreadOdd, nil
	case "even":
		return SpreadEven, nil
	}
	return SpreadNone, fmt.Errorf("unknown spread mode %q", s)
}

// Slot is one rendering unit of one or two pages.
type Slot struct {
	Pages []int `json:"pages" yaml:"pages"`
}

// First returns the lowest page in the slot.
func (s Slot) First() int { return s.Pages[0] }

// Contains reports whether the slot shows page.
func (s Slot) Contains(page int) bool {
	for _, p := range s.Pages {
		if p == page {
			return true
		}
	}
	return false
}

// Plan partitions pages 1..totalPages into slots in ascending order.
func Plan(totalPages int, mode SpreadMode) []Slot {
	if totalPages < 1 {
		return nil
	}
	slots := make([]Slot, 0, totalPages)
	for page := 1; page <= totalPages; {
		firstAlone := mode == SpreadOdd && page == 1
		// An odd page count leaves the final page unpaired in both modes.
		lastAlone := totalPages%2 == 1 && page == totalPages
		// Odd mode over an even count also ends on a single page.
		overflow := page+1 > totalPages

		if mode == SpreadNone || firstAlone || lastAlone || overflow {
			slots = append(slots, Slot{Pages: []int{page}})
			page++
			continue
		}
		slots = append(slots, Slot{Pages: []int{page, page + 1}})
		page += 2
	}
	return slots
}

// SlotFor returns the index of the slot showing page.
func SlotFor(slots []Slot, page int) (int, bool) {
	for i, s := range slots {
		if s.Contains(page) {
			return i, true
		}
	}
	return -1, false
}
