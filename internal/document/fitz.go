package document

import (
	"context"
	"fmt"
	"image"

	"github.com/gen2brain/go-fitz"

	"pdf-annotator/internal/raster"
	"pdf-annotator/pkg/geometry"
)

// pointsPerInch is the PDF user-space unit; a scale of 1 renders at 72 DPI.
const pointsPerInch = 72.0

// FitzProvider serves PDF pages through MuPDF. go-fitz serializes access to
// the document internally, so pages may render concurrently.
type FitzProvider struct {
	doc  *fitz.Document
	path string
}

// OpenFitz opens the PDF at path.
func OpenFitz(path string) (*FitzProvider, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, &LoadError{Source: path, Err: err}
	}
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, &LoadError{Source: path, Err: fmt.Errorf("document has no pages")}
	}
	return &FitzProvider{doc: doc, path: path}, nil
}

// OpenFitzBytes opens a PDF held in memory; name is used in errors.
func OpenFitzBytes(name string, data []byte) (*FitzProvider, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, &LoadError{Source: name, Err: err}
	}
	return &FitzProvider{doc: doc, path: name}, nil
}

// NumPages returns the page count.
func (p *FitzProvider) NumPages() int { return p.doc.NumPage() }

// Page returns page n.
func (p *FitzProvider) Page(ctx context.Context, n int) (Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if n < 1 || n > p.NumPages() {
		return nil, fmt.Errorf("page %d: %w", n, ErrPageRange)
	}
	bound, err := p.doc.Bound(n - 1)
	if err != nil {
		return nil, fmt.Errorf("page %d bounds: %w", n, err)
	}
	return &fitzPage{
		doc:    p.doc,
		number: n,
		size:   geometry.NewSize(float64(bound.Dx()), float64(bound.Dy())),
	}, nil
}

// Metadata reads the document info dictionary.
func (p *FitzProvider) Metadata(ctx context.Context) (Metadata, error) {
	if err := ctx.Err(); err != nil {
		return Metadata{}, err
	}
	info := p.doc.Metadata()
	if len(info) == 0 {
		return Metadata{}, ErrMetadataUnavailable
	}
	return Metadata{
		Title:    info["title"],
		Author:   info["author"],
		Subject:  info["subject"],
		Creator:  info["creator"],
		Producer: info["producer"],
		Pages:    p.NumPages(),
	}, nil
}

// Close releases the document.
func (p *FitzProvider) Close() error { return p.doc.Close() }

type fitzPage struct {
	doc    *fitz.Document
	number int
	size   geometry.Size
}

func (pg *fitzPage) Number() int         { return pg.number }
func (pg *fitzPage) Size() geometry.Size { return pg.size }

// MuPDF applies the page's /Rotate when it reports bounds and renders.
func (pg *fitzPage) Rotation() int { return 0 }

func (pg *fitzPage) Render(ctx context.Context, vp geometry.Viewport) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := pg.doc.ImageDPI(pg.number-1, pointsPerInch*vp.Scale)
	if err != nil {
		return nil, fmt.Errorf("render page %d: %w", pg.number, err)
	}
	return raster.Rotate(img, vp.Rotation), nil
}

func (pg *fitzPage) TextContent(ctx context.Context) (TextContent, error) {
	if err := ctx.Err(); err != nil {
		return TextContent{}, err
	}
	doc, err := pg.doc.HTML(pg.number-1, false)
	if err != nil {
		return TextContent{}, fmt.Errorf("page %d text: %w", pg.number, err)
	}
	return ParseStextHTML(doc)
}
