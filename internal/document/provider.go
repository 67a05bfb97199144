// Package document defines the page sources the viewer renders from: PDF
// files through MuPDF and decoded image pages from comic archives.
package document

import (
	"context"
	"image"

	"pdf-annotator/pkg/geometry"
)

// NotAvailable is shown for metadata fields a document does not provide.
const NotAvailable = "N/A"

// Metadata is the document information shown in the properties panel.
type Metadata struct {
	Title    string
	Author   string
	Subject  string
	Creator  string
	Producer string
	Pages    int
}

// Provider is an open document.
type Provider interface {
	NumPages() int
	// Page returns page n, 1-based.
	Page(ctx context.Context, n int) (Page, error)
	Metadata(ctx context.Context) (Metadata, error)
	Close() error
}

// Page is one page of a document. Sizes are in document units (points for
// PDF, pixels for images).
type Page interface {
	Number() int
	Size() geometry.Size
	// Rotation is the page's intrinsic rotation in degrees, added to the
	// user rotation when building the viewport.
	Rotation() int
	// Render rasterizes the page at the viewport's scale and rotation.
	Render(ctx context.Context, vp geometry.Viewport) (image.Image, error)
	TextContent(ctx context.Context) (TextContent, error)
}

// TextItem is a run of text positioned by its baseline origin in document
// space. Width is zero when the source does not know it.
type TextItem struct {
	Text  string
	X, Y  float64
	Width float64
	Size  float64
	Font  string
}

// TextStyle describes a font used by text items.
type TextStyle struct {
	Family string
	// Ascent is the baseline-to-top distance in em; zero means unknown.
	Ascent float64
}

// TextContent is the text of a page.
type TextContent struct {
	Items  []TextItem
	Styles map[string]TextStyle
}

// MetadataOrNA returns the metadata of p, degrading to N/A fields when it
// cannot be read.
func MetadataOrNA(ctx context.Context, p Provider) Metadata {
	m, err := p.Metadata(ctx)
	if err != nil {
		m = Metadata{}
	}
	if m.Title == "" {
		m.Title = NotAvailable
	}
	if m.Author == "" {
		m.Author = NotAvailable
	}
	m.Pages = p.NumPages()
	return m
}

// ViewportFor builds the viewport of page at the user's scale and rotation.
func ViewportFor(page Page, scale float64, rotation int) (geometry.Viewport, error) {
	return geometry.NewViewport(page.Size(), scale, rotation+page.Rotation())
}
