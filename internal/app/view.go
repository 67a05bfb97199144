package app

import (
	"pdf-annotator/internal/interaction"
	"pdf-annotator/internal/layout"
	"pdf-annotator/internal/settings"
	"pdf-annotator/pkg/geometry"
)

// Page returns the current page.
func (v *Viewer) Page() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.page
}

// Zoom returns the zoom level and how it was chosen.
func (v *Viewer) Zoom() (float64, layout.ZoomMode) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.zoom, v.zoomMode
}

// Rotation returns the user rotation in degrees.
func (v *Viewer) Rotation() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.rotation
}

// SpreadMode returns how pages are paired.
func (v *Viewer) SpreadMode() layout.SpreadMode {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.spread
}

// Continuous reports whether all slots are shown in one scroll.
func (v *Viewer) Continuous() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.continuous
}

// Direction returns the reading direction.
func (v *Viewer) Direction() layout.Direction {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.direction
}

// Presenting reports whether presentation mode is on.
func (v *Viewer) Presenting() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.saved != nil
}

// Slots returns the slot plan and each slot's displayed extent.
func (v *Viewer) Slots() ([]layout.Slot, []geometry.Size) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.estimator == nil {
		return nil, nil
	}
	return append([]layout.Slot(nil), v.slots...), append([]geometry.Size(nil), v.estimator.Extents...)
}

// ContentSize is the size of the scrollable content.
func (v *Viewer) ContentSize() geometry.Size {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.estimator == nil {
		return geometry.Size{}
	}
	if !v.continuous {
		if i, ok := layout.SlotFor(v.slots, v.page); ok {
			return v.estimator.Extents[i]
		}
		return geometry.Size{}
	}
	var w float64
	for _, e := range v.estimator.Extents {
		w = max(w, e.Width)
	}
	return geometry.NewSize(w, v.estimator.Length())
}

func (v *Viewer) navigatorLocked() layout.Navigator {
	total := 0
	if v.doc != nil {
		total = v.doc.NumPages()
	}
	return layout.Navigator{Total: total, Mode: v.spread, Continuous: v.continuous, Direction: v.direction}
}

// PageRect returns where page is drawn in content coordinates. In paged
// mode only the pages of the current slot are placed, starting at the top.
// Slots are centred horizontally in the container and RTL slots are laid
// out right to left.
func (v *Viewer) PageRect(page int) (geometry.Rect, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.pageRectLocked(page)
}

func (v *Viewer) pageRectLocked(page int) (geometry.Rect, bool) {
	if v.estimator == nil {
		return geometry.Rect{}, false
	}
	i, ok := layout.SlotFor(v.slots, page)
	if !ok {
		return geometry.Rect{}, false
	}
	top := v.estimator.Offset(i)
	if !v.continuous {
		cur, ok := layout.SlotFor(v.slots, v.page)
		if !ok || cur != i {
			return geometry.Rect{}, false
		}
		top = 0
	}
	ext := v.estimator.Extents[i]
	left := max(0, (v.container.Width-ext.Width)/2)

	pages := v.slots[i].Pages
	if v.direction == layout.RTL {
		pages = reversed(pages)
	}
	x := left
	for _, n := range pages {
		size := v.pageSizes[n]
		if n == page {
			return geometry.NewRect(x, top, size.Width, size.Height), true
		}
		x += size.Width + v.cfg.Render.Gap
	}
	return geometry.Rect{}, false
}

func reversed(pages []int) []int {
	out := make([]int, len(pages))
	for i, p := range pages {
		out[len(pages)-1-i] = p
	}
	return out
}

// PageAt finds the page under a content-space point and returns the point
// in that page's viewport pixels.
func (v *Viewer) PageAt(p geometry.Point) (int, geometry.Point, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	for _, s := range v.slots {
		for _, n := range s.Pages {
			r, ok := v.pageRectLocked(n)
			if ok && r.Contains(p) {
				return n, geometry.Pt(p.X-r.X, p.Y-r.Y), true
			}
		}
	}
	return 0, geometry.Point{}, false
}

// GoToPage makes page current and reports where its slot starts so the host
// can scroll there. The page is clamped to the document.
func (v *Viewer) GoToPage(page int) int {
	v.mu.Lock()
	v.page = v.navigatorLocked().Clamp(page)
	page = v.page
	v.mu.Unlock()

	v.ctrl.Update(func(s *interaction.ViewerSession) { s.CurrentPage = page })
	v.emitPage(false)
	if !v.Continuous() {
		v.renderCurrent()
	}
	return page
}

// Navigate moves one step (dir +1 or -1) in reading order, jumping whole
// spreads in paged spread view.
func (v *Viewer) Navigate(dir int) int {
	v.mu.RLock()
	next := v.navigatorLocked().Step(v.page, dir)
	v.mu.RUnlock()
	return v.GoToPage(next)
}

// First goes to the first page.
func (v *Viewer) First() int { return v.GoToPage(1) }

// Last goes to the last page.
func (v *Viewer) Last() int { return v.GoToPage(v.NumPages()) }

func (v *Viewer) emitPage(fromScroll bool) {
	v.mu.RLock()
	change := PageChange{Page: v.page, FromScroll: fromScroll}
	if v.doc != nil {
		change.Total = v.doc.NumPages()
	}
	if i, ok := layout.SlotFor(v.slots, v.page); ok && v.estimator != nil && v.continuous {
		change.Offset = v.estimator.Offset(i)
	}
	v.mu.RUnlock()
	v.Emit(EventPageChanged, change)
}

// renderCurrent requests the slot of the current page.
func (v *Viewer) renderCurrent() {
	v.mu.RLock()
	r := v.renderer
	i, ok := layout.SlotFor(v.slots, v.page)
	v.mu.RUnlock()
	if r != nil && ok {
		r.OnDue(v.ctx, i)
	}
}

// UpdateVisible is called by the host after scrolling or resizing. It
// requests the slots due for rendering and, in continuous view, follows the
// current page to the slot nearest the middle of the viewport.
func (v *Viewer) UpdateVisible(scroll geometry.Point, viewport geometry.Size) {
	v.mu.RLock()
	r, est, continuous := v.renderer, v.estimator, v.continuous
	margin := v.cfg.Render.Margin
	v.mu.RUnlock()
	if r == nil || est == nil {
		return
	}
	if !continuous {
		v.renderCurrent()
		return
	}
	if margin <= 0 {
		margin = layout.DefaultMargin
	}
	r.OnDue(v.ctx, est.Due(scroll, viewport, margin)...)
	v.UpdatePageOnScroll(scroll, viewport)
}

// UpdatePageOnScroll sets the current page to the first page of the rendered
// slot nearest the viewport centre. Slots outside the viewport are ignored.
func (v *Viewer) UpdatePageOnScroll(scroll geometry.Point, viewport geometry.Size) {
	v.mu.Lock()
	r, est := v.renderer, v.estimator
	if r == nil || est == nil {
		v.mu.Unlock()
		return
	}
	inView := make(map[int]bool)
	for _, i := range est.Due(scroll, viewport, 0) {
		inView[i] = true
	}
	i, ok := est.Nearest(scroll, viewport, func(i int) bool {
		st, ok := r.Slot(i)
		return ok && st.Populated && inView[i]
	})
	if !ok || v.slots[i].First() == v.page {
		v.mu.Unlock()
		return
	}
	v.page = v.slots[i].First()
	page := v.page
	v.mu.Unlock()

	v.ctrl.Update(func(s *interaction.ViewerSession) { s.CurrentPage = page })
	v.emitPage(true)
}

// ZoomIn raises the zoom by one increment.
func (v *Viewer) ZoomIn() float64 {
	z, _ := v.Zoom()
	return v.SetZoom(layout.StepZoom(z, true))
}

// ZoomOut lowers the zoom by one increment.
func (v *Viewer) ZoomOut() float64 {
	z, _ := v.Zoom()
	return v.SetZoom(layout.StepZoom(z, false))
}

// SetZoom sets a manual zoom level, clamped to the allowed range.
func (v *Viewer) SetZoom(level float64) float64 {
	return v.setZoom(level, layout.ZoomPercentage)
}

// SetZoomMode derives the zoom from mode and the container size.
func (v *Viewer) SetZoomMode(mode layout.ZoomMode) float64 {
	z, _ := v.Zoom()
	return v.setZoom(z, mode)
}

// SetContainer records the size of the visible area; fitted zoom modes are
// recomputed.
func (v *Viewer) SetContainer(size geometry.Size) {
	v.mu.Lock()
	v.container = size
	z, mode := v.zoom, v.zoomMode
	v.mu.Unlock()
	if mode != layout.ZoomPercentage {
		v.setZoom(z, mode)
	}
}

func (v *Viewer) setZoom(level float64, mode layout.ZoomMode) float64 {
	v.mu.Lock()
	v.zoomMode = mode
	if mode != layout.ZoomPercentage {
		if z, ok := v.fitLocked(mode); ok {
			level = z
		}
	}
	v.zoom = layout.ClampZoom(level)
	if v.renderer != nil {
		v.renderer.SetView(v.zoom, v.rotation)
		v.measureLocked(v.ctx)
	}
	change := ZoomChange{Level: v.zoom, Mode: mode, Label: mode.Label(v.zoom)}
	v.mu.Unlock()

	v.ctrl.Update(func(s *interaction.ViewerSession) { s.Zoom = change.Level })
	v.Emit(EventZoomChanged, change)
	return change.Level
}

// fitLocked computes the zoom mode implies for the current slot at scale 1.
func (v *Viewer) fitLocked(mode layout.ZoomMode) (float64, bool) {
	if mode == layout.ZoomActual {
		return 1, true
	}
	if v.doc == nil || v.container.Width <= 0 || v.container.Height <= 0 {
		return 0, false
	}
	i, ok := layout.SlotFor(v.slots, v.page)
	if !ok {
		return 0, false
	}
	var ext geometry.Size
	for _, n := range v.slots[i].Pages {
		ext = appendExtent(ext, v.pageSizeAt(v.ctx, n, 1), 0)
	}
	return layout.FitZoom(mode, ext, v.container)
}

// Rotate turns every page by delta degrees.
func (v *Viewer) Rotate(delta int) int {
	v.mu.Lock()
	v.rotation = layout.Rotate(v.rotation, delta)
	rot, z, mode := v.rotation, v.zoom, v.zoomMode
	if v.renderer != nil {
		v.renderer.SetView(v.zoom, v.rotation)
		v.measureLocked(v.ctx)
	}
	v.mu.Unlock()

	v.ctrl.Update(func(s *interaction.ViewerSession) { s.Rotation = rot })
	if mode != layout.ZoomPercentage {
		v.setZoom(z, mode)
	}
	v.Emit(EventLayoutChanged, nil)
	return rot
}

// SetSpreadMode changes how pages pair into slots.
func (v *Viewer) SetSpreadMode(mode layout.SpreadMode) {
	v.mu.Lock()
	changed := v.spread != mode
	v.spread = mode
	if changed {
		v.relayoutLocked(v.ctx)
	}
	z, zm := v.zoom, v.zoomMode
	v.mu.Unlock()
	if !changed {
		return
	}
	if zm != layout.ZoomPercentage {
		v.setZoom(z, zm)
	}
	v.Emit(EventLayoutChanged, nil)
}

// SetContinuous switches between one scroll of all slots and one slot at a
// time.
func (v *Viewer) SetContinuous(on bool) {
	v.mu.Lock()
	changed := v.continuous != on
	v.continuous = on
	v.mu.Unlock()
	if changed {
		v.Emit(EventLayoutChanged, nil)
		v.emitPage(false)
	}
}

// SetDirection sets the reading direction.
func (v *Viewer) SetDirection(d layout.Direction) {
	v.mu.Lock()
	changed := v.direction != d
	v.direction = d
	v.mu.Unlock()
	if changed {
		v.Emit(EventLayoutChanged, nil)
	}
}

// TogglePresentation enters or leaves presentation mode and reports whether
// it is now on. Entering saves the spread, continuity and zoom, turns
// continuous view off and fits the page; leaving restores them.
func (v *Viewer) TogglePresentation() bool {
	v.mu.Lock()
	entering := v.saved == nil
	var restore viewState
	if entering {
		v.saved = &viewState{spread: v.spread, continuous: v.continuous, zoomMode: v.zoomMode, zoom: v.zoom}
		v.continuous = false
	} else {
		restore = *v.saved
		v.saved = nil
		relayout := v.spread != restore.spread
		v.spread, v.continuous = restore.spread, restore.continuous
		if relayout {
			v.relayoutLocked(v.ctx)
		}
	}
	v.mu.Unlock()

	if entering {
		v.SetZoomMode(layout.ZoomFit)
	} else {
		v.setZoom(restore.zoom, restore.zoomMode)
	}
	v.log.Debug().Bool("presenting", entering).Msg("presentation mode toggled")
	v.Emit(EventPresentationChanged, entering)
	v.Emit(EventLayoutChanged, nil)
	return entering
}

// ComicMode presets reading left to right: even spreads, fitted pages,
// natural scrolling, presentation on.
func (v *Viewer) ComicMode() { v.readingPreset(layout.LTR, false) }

// MangaMode presets reading right to left with inverted scrolling.
func (v *Viewer) MangaMode() { v.readingPreset(layout.RTL, true) }

func (v *Viewer) readingPreset(dir layout.Direction, invertScroll bool) {
	v.SetDirection(dir)
	if err := v.settings.Set(settings.KeyInvertScroll, invertScroll); err != nil {
		v.log.Warn().Err(err).Msg("failed to set scroll direction")
	}
	v.SetSpreadMode(layout.SpreadEven)
	v.SetZoomMode(layout.ZoomFit)
	if !v.Presenting() {
		v.TogglePresentation()
	}
}

// Wheel handles a wheel step. With ctrl held it zooms and returns 0;
// otherwise it returns the scroll delta to apply, inverted in continuous
// view when the invertScroll setting is on.
func (v *Viewer) Wheel(deltaY float64, ctrl bool) float64 {
	if ctrl {
		if deltaY < 0 {
			v.ZoomIn()
		} else if deltaY > 0 {
			v.ZoomOut()
		}
		return 0
	}
	if v.Continuous() && v.settings.Bool(settings.KeyInvertScroll) {
		return -deltaY
	}
	return deltaY
}
