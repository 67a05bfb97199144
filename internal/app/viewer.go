// Package app holds the viewer state of the annotator: the open document,
// its layout and view settings, the annotation controller and renderer, and
// the events the host UI listens to.
package app

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/archive"
	"pdf-annotator/internal/config"
	"pdf-annotator/internal/document"
	"pdf-annotator/internal/interaction"
	"pdf-annotator/internal/layout"
	"pdf-annotator/internal/logging"
	"pdf-annotator/internal/render"
	"pdf-annotator/internal/selection"
	"pdf-annotator/internal/settings"
	"pdf-annotator/pkg/geometry"
)

// Options configures a Viewer. Settings is required; a nil Painter is
// created from Config.Fonts.
type Options struct {
	Config   config.Config
	Settings *settings.Settings
	Painter  *render.Painter
	Words    document.WordRecognizer
	Logger   zerolog.Logger

	// Host collaborators passed to the interaction controller.
	Scroller  interaction.Scroller
	Editor    interaction.TextEditor
	Picker    interaction.ImagePicker
	Signature interaction.SignaturePad
	SnapDelay time.Duration
}

// Viewer is the state of one viewer window.
type Viewer struct {
	cfg      config.Config
	settings *settings.Settings
	painter  *render.Painter
	words    document.WordRecognizer
	store    *annotation.Store
	ctrl     *interaction.Controller
	log      zerolog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.RWMutex
	doc        document.Provider
	source     string
	comic      bool
	renderer   *render.Renderer
	slots      []layout.Slot
	pageSizes  map[int]geometry.Size
	estimator  *layout.StackEstimator
	page       int
	zoom       float64
	zoomMode   layout.ZoomMode
	rotation   int
	spread     layout.SpreadMode
	continuous bool
	direction  layout.Direction
	container  geometry.Size
	saved      *viewState // set while presenting

	lmu       sync.RWMutex
	listeners map[EventType][]EventListener
}

// viewState is what presentation mode saves and restores.
type viewState struct {
	spread     layout.SpreadMode
	continuous bool
	zoomMode   layout.ZoomMode
	zoom       float64
}

// NewViewer creates a viewer with no document loaded.
func NewViewer(opts Options) (*Viewer, error) {
	if opts.Settings == nil {
		return nil, errors.New("settings store is required")
	}
	log := logging.Component(opts.Logger, "viewer")
	painter := opts.Painter
	if painter == nil {
		p, err := render.NewPainter(opts.Config.Fonts.Path, nil, render.DefaultPaintOptions(), opts.Logger)
		if err != nil {
			return nil, err
		}
		painter = p
	}

	ctx, cancel := context.WithCancel(context.Background())
	v := &Viewer{
		cfg:        opts.Config,
		settings:   opts.Settings,
		painter:    painter,
		words:      opts.Words,
		store:      annotation.NewStore(),
		log:        log,
		ctx:        ctx,
		cancel:     cancel,
		pageSizes:  make(map[int]geometry.Size),
		page:       1,
		zoom:       1,
		zoomMode:   layout.ZoomAuto,
		continuous: true,
		listeners:  make(map[EventType][]EventListener),
	}
	v.ctrl = interaction.NewController(v.store, interaction.Options{
		Repainter: v,
		Spans:     v,
		Scroller:  opts.Scroller,
		Editor:    opts.Editor,
		Picker:    opts.Picker,
		Signature: opts.Signature,
		Logger:    opts.Logger,
		SnapDelay: opts.SnapDelay,
		OnToolChange: func(t interaction.Tool) {
			v.Emit(EventToolChanged, t)
		},
		OnSelectionChange: func(s selection.State) {
			v.Emit(EventSelectionChanged, s)
		},
	})
	tools := v.settings.Tools()
	v.ctrl.Update(func(s *interaction.ViewerSession) { s.Settings = tools })
	v.settings.OnChange(v.ApplySettings)
	return v, nil
}

// Open loads a PDF, or a CBZ/CBR archive as image pages. Failures are
// reported as a status event and returned; the previous document stays open.
func (v *Viewer) Open(ctx context.Context, path string) error {
	var (
		doc   document.Provider
		err   error
		comic = archive.IsComicPath(path)
	)
	if comic {
		doc, err = v.openArchive(path)
	} else {
		doc, err = document.OpenFitz(path)
	}
	if err != nil {
		v.log.Error().Err(err).Str("source", path).Msg("failed to open document")
		v.status(err.Error(), err)
		return err
	}
	v.Load(ctx, doc, path, comic)
	return nil
}

func (v *Viewer) openArchive(path string) (document.Provider, error) {
	root, err := archive.Open(path)
	if err != nil {
		return nil, err
	}
	entries, err := archive.Images(root)
	if err != nil {
		return nil, err
	}
	v.log.Info().Str("source", path).Int("images", len(entries)).Msg("archive extracted")
	return document.NewImagePages(filepath.Base(path), archive.Sources(entries), v.words), nil
}

// Load replaces the open document with doc. Annotations and selection of the
// previous document are discarded.
func (v *Viewer) Load(ctx context.Context, doc document.Provider, source string, comic bool) {
	v.ctrl.Reset()
	v.store.Clear()

	r := render.NewRenderer(doc, v.store, render.Options{
		Concurrency:     v.cfg.Render.Concurrency,
		Painter:         v.painter,
		Filters:         v.settings.Filters(),
		Logger:          v.log,
		OnSlot:          func(i int) { v.Emit(EventSlotRendered, i) },
		SelectionSource: v.ctrl.Selection,
	})

	v.mu.Lock()
	old, oldRenderer := v.doc, v.renderer
	v.doc, v.source, v.comic, v.renderer = doc, source, comic, r
	v.page, v.rotation = 1, 0
	v.relayoutLocked(ctx)
	mode, zoom := v.zoomMode, v.zoom
	v.mu.Unlock()

	if oldRenderer != nil {
		oldRenderer.Wait()
	}
	if old != nil {
		if err := old.Close(); err != nil {
			v.log.Warn().Err(err).Msg("failed to close previous document")
		}
	}
	v.ctrl.Update(func(s *interaction.ViewerSession) {
		s.CurrentPage, s.Rotation = 1, 0
	})

	meta := document.MetadataOrNA(ctx, doc)
	v.log.Info().Str("source", source).Int("pages", meta.Pages).Bool("comic", comic).Msg("document loaded")
	v.Emit(EventDocumentLoaded, DocumentInfo{Source: source, Comic: comic, Metadata: meta})
	v.setZoom(zoom, mode)
	v.Emit(EventLayoutChanged, nil)
	v.emitPage(false)
}

// Close stops pending renders and closes the document.
func (v *Viewer) Close() error {
	v.cancel()
	v.mu.Lock()
	doc, r := v.doc, v.renderer
	v.doc, v.renderer = nil, nil
	v.mu.Unlock()
	if r != nil {
		r.Wait()
	}
	if doc != nil {
		return doc.Close()
	}
	return nil
}

// relayoutLocked rebuilds the slot plan and page geometry for the current
// document, zoom, rotation and spread mode. Caller holds v.mu.
func (v *Viewer) relayoutLocked(ctx context.Context) {
	if v.doc == nil {
		return
	}
	v.slots = layout.Plan(v.doc.NumPages(), v.spread)
	v.renderer.SetLayout(v.slots)
	v.renderer.SetView(v.zoom, v.rotation)
	v.measureLocked(ctx)
}

// measureLocked recomputes page sizes and slot extents at the current zoom.
func (v *Viewer) measureLocked(ctx context.Context) {
	v.pageSizes = make(map[int]geometry.Size, v.doc.NumPages())
	extents := make([]geometry.Size, len(v.slots))
	for i, s := range v.slots {
		for _, n := range s.Pages {
			size := v.pageSizeAt(ctx, n, v.zoom)
			v.pageSizes[n] = size
			extents[i] = appendExtent(extents[i], size, v.cfg.Render.Gap)
		}
	}
	v.estimator = layout.NewStackEstimator(extents, v.cfg.Render.Gap)
}

// appendExtent places size to the right of ext within a slot.
func appendExtent(ext, size geometry.Size, gap float64) geometry.Size {
	if ext.Width > 0 {
		ext.Width += gap
	}
	ext.Width += size.Width
	if size.Height > ext.Height {
		ext.Height = size.Height
	}
	return ext
}

// pageSizeAt returns the displayed size of page n at scale.
func (v *Viewer) pageSizeAt(ctx context.Context, n int, scale float64) geometry.Size {
	page, err := v.doc.Page(ctx, n)
	if err != nil {
		v.log.Warn().Err(err).Int("page", n).Msg("page size unavailable")
		return geometry.Size{}
	}
	vp, err := document.ViewportFor(page, scale, v.rotation)
	if err != nil {
		v.log.Warn().Err(err).Int("page", n).Msg("page viewport unavailable")
		return geometry.Size{}
	}
	return vp.Size()
}

// Repaint redraws the annotation layer of pages. The controller calls it
// after every edit.
func (v *Viewer) Repaint(pages ...int) {
	r := v.Renderer()
	if r == nil {
		return
	}
	r.Repaint(pages...)
	v.Emit(EventAnnotationsChanged, pages)
}

// Spans returns the text span rectangles of page for text snapping.
func (v *Viewer) Spans(page int) []geometry.Rect {
	r := v.Renderer()
	if r == nil {
		return nil
	}
	return r.Spans(page)
}

// ApplySettings reacts to changed settings keys: filter keys rebuild every
// slot, tool keys update the controller's defaults.
func (v *Viewer) ApplySettings(keys []string) {
	rebuild := false
	for _, k := range keys {
		if settings.IsFilterKey(k) {
			rebuild = true
		}
	}
	if rebuild {
		if r := v.Renderer(); r != nil {
			r.SetFilters(v.settings.Filters())
		}
		v.log.Debug().Strs("keys", keys).Msg("filters changed, rebuilding slots")
	}
	tools := v.settings.Tools()
	v.ctrl.Update(func(s *interaction.ViewerSession) { s.Settings = tools })
	v.Emit(EventSettingsApplied, keys)
}

// ToggleTool activates tool, or deactivates it when it is already active.
func (v *Viewer) ToggleTool(tool interaction.Tool) {
	v.ctrl.ToggleTool(tool)
}

// Controller returns the interaction controller.
func (v *Viewer) Controller() *interaction.Controller { return v.ctrl }

// Store returns the annotation store.
func (v *Viewer) Store() *annotation.Store { return v.store }

// Settings returns the user settings.
func (v *Viewer) Settings() *settings.Settings { return v.settings }

// Renderer returns the renderer of the open document, or nil.
func (v *Viewer) Renderer() *render.Renderer {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.renderer
}

// Document returns the open document and its source, or nil.
func (v *Viewer) Document() (document.Provider, string) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.doc, v.source
}

// IsComic reports whether the open document is an image archive.
func (v *Viewer) IsComic() bool {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.comic
}

// NumPages returns the page count of the open document.
func (v *Viewer) NumPages() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.doc == nil {
		return 0
	}
	return v.doc.NumPages()
}
