package layout

import (
	"fmt"
	"strings"
)

// Direction is the reading direction of the document.
type Direction int

const (
	LTR Direction = iota
	RTL
)

func (d Direction) String() string {
	if d == RTL {
		return "rtl"
	}
	return "ltr"
}

// ParseDirection parses "ltr" or "rtl".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ltr":
		return LTR, nil
	case "rtl":
		return RTL, nil
	}
	return LTR, fmt.Errorf("unknown reading direction %q", s)
}

// Navigator computes page moves for the current view configuration.
type Navigator struct {
	Total      int
	Mode       SpreadMode
	Continuous bool
	Direction  Direction
}

// First returns the first page.
func (n Navigator) First() int { return 1 }

// Last returns the last page.
func (n Navigator) Last() int {
	if n.Total < 1 {
		return 1
	}
	return n.Total
}

// Clamp limits page to [1, Total].
func (n Navigator) Clamp(page int) int {
	if page < 1 {
		return 1
	}
	if page > n.Last() {
		return n.Last()
	}
	return page
}

// SpreadStart returns the first page of the spread holding page.
func (n Navigator) SpreadStart(page int) int {
	switch n.Mode {
	case SpreadOdd:
		if page == 1 || page%2 == 0 {
			return page
		}
		return page - 1
	case SpreadEven:
		if page%2 == 1 {
			return page
		}
		return page - 1
	}
	return page
}

// Step moves from current by dir (+1 next, -1 previous) in reading order.
// In a paged spread view the move jumps a whole spread.
func (n Navigator) Step(current, dir int) int {
	if n.Direction == RTL {
		dir = -dir
	}

	var next int
	if n.Mode != SpreadNone && !n.Continuous {
		start := n.SpreadStart(current)
		next = start + 2*dir
		if n.Mode == SpreadOdd {
			if start >= 2 && next < 2 {
				next = 1
			}
			if start == 1 && dir == 1 {
				next = 2
			}
		}
	} else {
		next = current + dir
	}
	return n.Clamp(next)
}

// VisiblePages returns the pages shown in a non-continuous view when current
// is the active page.
func (n Navigator) VisiblePages(current int) []int {
	slots := Plan(n.Total, n.Mode)
	if i, ok := SlotFor(slots, n.Clamp(current)); ok {
		return append([]int(nil), slots[i].Pages...)
	}
	return nil
}
