package render

import (
	"context"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	"pdf-annotator/internal/document"
	"pdf-annotator/pkg/colorutil"
)

// DefaultExportScale is the render scale used for export.
const DefaultExportScale = 2.0

// ExportPage renders page at scale with the current rotation and filters and
// flattens the annotations onto it. Filters apply to the page raster only.
func (r *Renderer) ExportPage(ctx context.Context, page int, scale float64) (*image.RGBA, error) {
	r.mu.Lock()
	rotation, filters := r.rotation, r.filters
	r.mu.Unlock()

	pl, err := r.renderPage(ctx, page, scale, rotation, filters, false)
	if err != nil {
		return nil, &document.ExportError{Page: page, Err: err}
	}
	return pl.Compose(colorutil.White), nil
}

// Export renders pages concurrently and hands each finished image to emit.
// emit calls are serialized but arrive in completion order. The first
// failure cancels the remaining pages and is returned as an ExportError;
// the annotation store is never modified.
func (r *Renderer) Export(ctx context.Context, pages []int, scale float64, emit func(page int, img *image.RGBA) error) error {
	if scale <= 0 {
		scale = DefaultExportScale
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Concurrency)

	var emitMu sync.Mutex
	for _, n := range pages {
		g.Go(func() error {
			img, err := r.ExportPage(ctx, n, scale)
			if err != nil {
				r.log.Error().Err(err).Int("page", n).Msg("export failed")
				return err
			}
			emitMu.Lock()
			defer emitMu.Unlock()
			if err := emit(n, img); err != nil {
				return &document.ExportError{Page: n, Err: err}
			}
			return nil
		})
	}
	return g.Wait()
}
