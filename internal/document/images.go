package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"sync"

	xdraw "golang.org/x/image/draw"

	"pdf-annotator/internal/ocr"
	"pdf-annotator/internal/raster"
	"pdf-annotator/pkg/geometry"
)

// ImageSource is one encoded page image, typically an archive entry.
type ImageSource struct {
	Name string
	Data []byte
}

// WordRecognizer finds words on a page image.
type WordRecognizer interface {
	Words(ctx context.Context, img image.Image) ([]ocr.Word, error)
}

// ImagePages serves a list of images as document pages, one image per page
// with one document unit per source pixel. Text content comes from OCR when
// a recognizer is configured.
type ImagePages struct {
	title   string
	sources []ImageSource
	words   WordRecognizer

	mu    sync.Mutex
	sizes map[int]geometry.Size
}

// NewImagePages creates a provider over sources. words may be nil.
func NewImagePages(title string, sources []ImageSource, words WordRecognizer) *ImagePages {
	return &ImagePages{
		title:   title,
		sources: sources,
		words:   words,
		sizes:   make(map[int]geometry.Size),
	}
}

// NumPages returns the number of images.
func (p *ImagePages) NumPages() int { return len(p.sources) }

// Page returns page n. Only the image header is read here; pixels are
// decoded on Render.
func (p *ImagePages) Page(ctx context.Context, n int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 || n > len(p.sources) {
		return nil, fmt.Errorf("page %d: %w", n, ErrPageRange)
	}
	size, err := p.size(n)
	if err != nil {
		return nil, err
	}
	return &imagePage{owner: p, number: n, size: size}, nil
}

func (p *ImagePages) size(n int) (geometry.Size, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if s, ok := p.sizes[n]; ok {
		return s, nil
	}
	src := p.sources[n-1]
	cfg, _, err := image.DecodeConfig(bytes.NewReader(src.Data))
	if err != nil {
		return geometry.Size{}, fmt.Errorf("page %d (%s): %w", n, src.Name, err)
	}
	s := geometry.NewSize(float64(cfg.Width), float64(cfg.Height))
	p.sizes[n] = s
	return s, nil
}

// Metadata reports the archive name as the title.
func (p *ImagePages) Metadata(ctx context.Context) (Metadata, error) {
	return Metadata{Title: p.title, Author: NotAvailable, Pages: len(p.sources)}, nil
}

// Close releases nothing; sources are plain byte slices.
func (p *ImagePages) Close() error { return nil }

type imagePage struct {
	owner  *ImagePages
	number int
	size   geometry.Size
}

func (pg *imagePage) Number() int         { return pg.number }
func (pg *imagePage) Size() geometry.Size { return pg.size }
func (pg *imagePage) Rotation() int       { return 0 }

func (pg *imagePage) decode() (image.Image, error) {
	src := pg.owner.sources[pg.number-1]
	img, err := raster.Decode(bytes.NewReader(src.Data))
	if err != nil {
		return nil, fmt.Errorf("page %d (%s): %w", pg.number, src.Name, err)
	}
	return img, nil
}

func (pg *imagePage) Render(ctx context.Context, vp geometry.Viewport) (image.Image, error) {
	img, err := pg.decode()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w := max(1, int(pg.size.Width*vp.Scale+0.5))
	h := max(1, int(pg.size.Height*vp.Scale+0.5))
	scaled := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return raster.Rotate(scaled, vp.Rotation), nil
}

func (pg *imagePage) TextContent(ctx context.Context) (TextContent, error) {
	if pg.owner.words == nil {
		return TextContent{}, nil
	}
	img, err := pg.decode()
	if err != nil {
		return TextContent{}, err
	}
	words, err := pg.owner.words.Words(ctx, img)
	if err != nil {
		return TextContent{}, fmt.Errorf("page %d text: %w", pg.number, err)
	}
	return wordsToContent(words), nil
}

// wordsToContent turns recognized word boxes into text items whose overlay
// spans reproduce the boxes.
func wordsToContent(words []ocr.Word) TextContent {
	content := TextContent{Items: make([]TextItem, 0, len(words))}
	for _, w := range words {
		content.Items = append(content.Items, TextItem{
			Text:  w.Text,
			X:     w.Box.X,
			Y:     w.Box.Y + DefaultAscent*w.Box.Height,
			Width: w.Box.Width,
			Size:  w.Box.Height,
		})
	}
	return content
}
