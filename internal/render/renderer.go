// Package render turns document pages and their annotations into layered
// rasters: lazily per layout slot for display, and eagerly for export.
package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/document"
	"pdf-annotator/internal/layout"
	"pdf-annotator/internal/logging"
	"pdf-annotator/internal/raster"
	"pdf-annotator/internal/selection"
	"pdf-annotator/internal/settings"
	"pdf-annotator/pkg/geometry"
)

// DefaultConcurrency caps simultaneous slot loads.
const DefaultConcurrency = 4

// PageLayers holds the rendered layers of one page. Raster sits at z 0,
// Annotations at z 1 and the text spans at z 2. Spans are not drawn; they
// only position selectable text.
type PageLayers struct {
	Page        int
	Viewport    geometry.Viewport
	Raster      image.Image
	Annotations *image.RGBA
	Spans       []document.Span
}

// Layers returns the drawable layers in z order.
func (p *PageLayers) Layers() []*raster.Layer {
	var out []*raster.Layer
	if p.Raster != nil {
		out = append(out, raster.NewLayer("page", p.Raster, raster.ZRaster))
	}
	if p.Annotations != nil {
		out = append(out, raster.NewLayer("annotations", p.Annotations, raster.ZAnnotations))
	}
	return out
}

// Compose flattens the page onto back.
func (p *PageLayers) Compose(back color.Color) *image.RGBA {
	size := p.Viewport.Size()
	return raster.Composite(int(size.Width+0.5), int(size.Height+0.5), back, p.Layers()...)
}

// SlotState is the render state of one layout slot.
type SlotState struct {
	Index     int
	Pages     []*PageLayers
	Populated bool
	Loading   bool
	Err       error

	generation uint64
}

// Options configures a Renderer.
type Options struct {
	Concurrency int
	Painter     *Painter
	Overlay     document.OverlayBuilder
	Filters     settings.Filters
	Logger      zerolog.Logger

	// OnSlot is called after a slot finishes loading or its annotation
	// layer is repainted.
	OnSlot func(index int)

	// SelectionSource reports the current selection when annotations are
	// painted.
	SelectionSource func() selection.State
}

// Renderer materializes layout slots on demand. A slot renders once per
// generation; Invalidate starts a new generation and completions from older
// generations are dropped.
type Renderer struct {
	doc   document.Provider
	store *annotation.Store
	opts  Options
	sem   *semaphore.Weighted
	log   zerolog.Logger

	mu         sync.Mutex
	slots      []*SlotState
	layout     []layout.Slot
	pageSlot   map[int]int
	zoom       float64
	rotation   int
	filters    settings.Filters
	generation uint64

	wg sync.WaitGroup
}

// NewRenderer creates a renderer over doc. Annotations come from store.
func NewRenderer(doc document.Provider, store *annotation.Store, opts Options) *Renderer {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Overlay.Measurer == nil {
		if opts.Painter != nil {
			opts.Overlay.Measurer = opts.Painter
		} else {
			opts.Overlay.Measurer = document.ApproxMeasurer{}
		}
	}
	return &Renderer{
		doc:      doc,
		store:    store,
		opts:     opts,
		sem:      semaphore.NewWeighted(int64(opts.Concurrency)),
		log:      logging.Component(opts.Logger, "renderer"),
		pageSlot: make(map[int]int),
		zoom:     1,
		filters:  opts.Filters,
	}
}

// SetLayout replaces the slot plan and drops all rendered content.
func (r *Renderer) SetLayout(slots []layout.Slot) {
	r.mu.Lock()
	r.layout = slots
	r.pageSlot = make(map[int]int)
	for i, s := range slots {
		for _, p := range s.Pages {
			r.pageSlot[p] = i
		}
	}
	r.resetLocked("layout")
	r.mu.Unlock()
}

// SetView changes zoom and rotation. Any change rebuilds every slot.
func (r *Renderer) SetView(zoom float64, rotation int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rotation = geometry.NormalizeRotation(rotation)
	if zoom == r.zoom && rotation == r.rotation {
		return
	}
	r.zoom, r.rotation = zoom, rotation
	r.resetLocked("view")
}

// SetFilters changes the display filters and rebuilds every slot.
func (r *Renderer) SetFilters(f settings.Filters) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.filters = f
	r.resetLocked("filters")
}

// Filters returns the active display filters.
func (r *Renderer) Filters() settings.Filters {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.filters
}

// Invalidate discards all rendered content.
func (r *Renderer) Invalidate(reason string) {
	r.mu.Lock()
	r.resetLocked(reason)
	r.mu.Unlock()
}

func (r *Renderer) resetLocked(reason string) {
	r.generation++
	r.slots = make([]*SlotState, len(r.layout))
	for i := range r.slots {
		r.slots[i] = &SlotState{Index: i, generation: r.generation}
	}
	r.log.Debug().Str("reason", reason).Uint64("generation", r.generation).Int("slots", len(r.slots)).Msg("render invalidated")
}

// OnDue starts loading every listed slot that is neither populated nor
// already loading. It does not block; use Wait to join the loads.
func (r *Renderer) OnDue(ctx context.Context, indices ...int) {
	for _, idx := range indices {
		r.mu.Lock()
		if idx < 0 || idx >= len(r.slots) {
			r.mu.Unlock()
			continue
		}
		st := r.slots[idx]
		if st.Populated || st.Loading {
			r.mu.Unlock()
			continue
		}
		st.Loading = true
		job := loadJob{
			index:      idx,
			pages:      append([]int(nil), r.layout[idx].Pages...),
			zoom:       r.zoom,
			rotation:   r.rotation,
			filters:    r.filters,
			generation: r.generation,
		}
		r.wg.Add(1)
		r.mu.Unlock()

		go r.load(ctx, job)
	}
}

// Wait blocks until all loads started by OnDue have finished.
func (r *Renderer) Wait() {
	r.wg.Wait()
}

type loadJob struct {
	index      int
	pages      []int
	zoom       float64
	rotation   int
	filters    settings.Filters
	generation uint64
}

func (r *Renderer) load(ctx context.Context, job loadJob) {
	defer r.wg.Done()

	if err := r.sem.Acquire(ctx, 1); err != nil {
		r.finish(job, nil, err)
		return
	}
	defer r.sem.Release(1)

	var (
		layers   []*PageLayers
		firstErr error
	)
	for _, n := range job.pages {
		pl, err := r.renderPage(ctx, n, job.zoom, job.rotation, job.filters, true)
		if err != nil {
			r.log.Warn().Err(err).Int("page", n).Int("slot", job.index).Msg("page render failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		layers = append(layers, pl)
	}
	r.finish(job, layers, firstErr)
}

func (r *Renderer) finish(job loadJob, layers []*PageLayers, err error) {
	r.mu.Lock()
	if job.generation != r.generation || job.index >= len(r.slots) {
		r.mu.Unlock()
		r.log.Debug().Int("slot", job.index).Uint64("generation", job.generation).Msg("discarding stale render")
		return
	}
	st := r.slots[job.index]
	st.Loading = false
	if layers == nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)) {
		// Nothing rendered; a later due signal retries.
		r.mu.Unlock()
		return
	}
	st.Err = err
	st.Pages = layers
	st.Populated = true
	r.mu.Unlock()

	if r.opts.OnSlot != nil {
		r.opts.OnSlot(job.index)
	}
}

// renderPage runs the page sequence: handle, viewport, raster, text spans,
// then the annotation layer on top of both.
func (r *Renderer) renderPage(ctx context.Context, n int, zoom float64, rotation int, filters settings.Filters, withSelection bool) (*PageLayers, error) {
	page, err := r.doc.Page(ctx, n)
	if err != nil {
		return nil, err
	}
	vp, err := document.ViewportFor(page, zoom, rotation)
	if err != nil {
		return nil, err
	}
	img, err := page.Render(ctx, vp)
	if err != nil {
		return nil, err
	}
	pl := &PageLayers{Page: n, Viewport: vp, Raster: ApplyFilters(img, filters)}

	content, err := page.TextContent(ctx)
	if err != nil {
		r.log.Warn().Err(err).Int("page", n).Msg("text content unavailable")
	} else {
		pl.Spans = r.opts.Overlay.Build(content, vp)
	}

	selected := -1
	if withSelection {
		selected = r.selectedOn(n)
	}
	pl.Annotations = r.paintAnnotations(n, vp, selected)
	return pl, nil
}

func (r *Renderer) selectedOn(page int) int {
	if r.opts.SelectionSource == nil {
		return -1
	}
	if sel := r.opts.SelectionSource(); sel.HasSelection() && sel.Page == page {
		return sel.Index
	}
	return -1
}

func (r *Renderer) paintAnnotations(page int, vp geometry.Viewport, selected int) *image.RGBA {
	if r.opts.Painter == nil {
		return nil
	}
	if n := r.store.Upgrade(r.opts.Painter); n > 0 {
		r.log.Debug().Int("records", n).Msg("repaired legacy text annotations")
	}
	return r.opts.Painter.PaintLayer(r.store.Snapshot(page), vp, selected)
}

// Repaint redraws the annotation layer of each rendered page. Pages that are
// not rendered are skipped; they pick up the store when they load.
func (r *Renderer) Repaint(pages ...int) {
	for _, n := range pages {
		r.mu.Lock()
		idx, pl, gen := r.layersLocked(n)
		r.mu.Unlock()
		if pl == nil {
			continue
		}

		img := r.paintAnnotations(n, pl.Viewport, r.selectedOn(n))

		r.mu.Lock()
		if gen != r.generation {
			r.mu.Unlock()
			continue
		}
		pl.Annotations = img
		r.mu.Unlock()

		if r.opts.OnSlot != nil {
			r.opts.OnSlot(idx)
		}
	}
}

// PaintAnnotations draws the annotations of page onto dst at vp, without
// selection decorations.
func (r *Renderer) PaintAnnotations(dst *image.RGBA, page int, vp geometry.Viewport) {
	if r.opts.Painter == nil {
		return
	}
	r.opts.Painter.Paint(dst, r.store.Snapshot(page), vp, -1)
}

func (r *Renderer) layersLocked(page int) (int, *PageLayers, uint64) {
	idx, ok := r.pageSlot[page]
	if !ok || idx >= len(r.slots) {
		return -1, nil, 0
	}
	st := r.slots[idx]
	for _, pl := range st.Pages {
		if pl.Page == page {
			return idx, pl, st.generation
		}
	}
	return idx, nil, 0
}

// Slot returns a copy of the state of slot i.
func (r *Renderer) Slot(i int) (SlotState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if i < 0 || i >= len(r.slots) {
		return SlotState{}, false
	}
	st := *r.slots[i]
	st.Pages = append([]*PageLayers(nil), st.Pages...)
	return st, true
}

// NumSlots returns the number of slots in the current layout.
func (r *Renderer) NumSlots() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.slots)
}

// PageLayers returns a copy of the rendered layers of page.
func (r *Renderer) PageLayers(page int) (*PageLayers, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, pl, _ := r.layersLocked(page)
	if pl == nil {
		return nil, false
	}
	cp := *pl
	return &cp, true
}

// Viewport returns the viewport page was rendered at.
func (r *Renderer) Viewport(page int) (geometry.Viewport, bool) {
	pl, ok := r.PageLayers(page)
	if !ok {
		return geometry.Viewport{}, false
	}
	return pl.Viewport, true
}

// Spans returns the text span rectangles of page in viewport pixels.
func (r *Renderer) Spans(page int) []geometry.Rect {
	pl, ok := r.PageLayers(page)
	if !ok {
		return nil
	}
	return document.Rects(pl.Spans)
}
