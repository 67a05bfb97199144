package document

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/internal/ocr"
	"pdf-annotator/pkg/geometry"
)

func TestErrorTaxonomy(t *testing.T) {
	cause := errors.New("bad xref")
	var le *LoadError
	err := fmt.Errorf("open: %w", &LoadError{Source: "a.pdf", Err: cause})
	require.ErrorAs(t, err, &le)
	assert.Equal(t, "a.pdf", le.Source)
	assert.ErrorIs(t, err, cause)

	ae := &ArchiveError{Source: "book.cbz", Err: ErrNoImages}
	assert.Equal(t, "No images found in the archive.", ae.Error())
	assert.ErrorIs(t, ae, ErrNoImages)

	ee := &ExportError{Page: 3, Err: cause}
	assert.Contains(t, ee.Error(), "page 3")
	assert.ErrorIs(t, ee, cause)
}

type stubProvider struct {
	meta Metadata
	err  error
}

func (s stubProvider) NumPages() int                              { return 7 }
func (s stubProvider) Page(context.Context, int) (Page, error)    { return nil, ErrPageRange }
func (s stubProvider) Metadata(context.Context) (Metadata, error) { return s.meta, s.err }
func (s stubProvider) Close() error                               { return nil }

func TestMetadataDegradesToNA(t *testing.T) {
	ctx := context.Background()
	m := MetadataOrNA(ctx, stubProvider{err: ErrMetadataUnavailable})
	assert.Equal(t, Metadata{Title: "N/A", Author: "N/A", Pages: 7}, m)

	m = MetadataOrNA(ctx, stubProvider{meta: Metadata{Title: "Report"}})
	assert.Equal(t, "Report", m.Title)
	assert.Equal(t, "N/A", m.Author)
}

func TestOverlaySplitsWords(t *testing.T) {
	content := TextContent{Items: []TextItem{{Text: "ab  cd", X: 10, Y: 100, Size: 10}}}
	vp := geometry.MustViewport(geometry.NewSize(600, 800), 2, 0)

	spans := OverlayBuilder{Measurer: ApproxMeasurer{EmPerRune: 0.5}}.Build(content, vp)
	want := []Span{
		{Text: "ab", Rect: geometry.NewRect(20, 184, 20, 20)},
		{Text: "cd", Rect: geometry.NewRect(60, 184, 20, 20)},
	}
	if diff := cmp.Diff(want, spans, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("spans (-want +got):\n%s", diff)
	}
	assert.Len(t, Rects(spans), 2)
}

func TestOverlayFitsKnownWidth(t *testing.T) {
	content := TextContent{
		Items:  []TextItem{{Text: "abcd", X: 0, Y: 10, Width: 40, Size: 10, Font: "Mono"}},
		Styles: map[string]TextStyle{"Mono": {Family: "Mono", Ascent: 1}},
	}
	vp := geometry.MustViewport(geometry.NewSize(100, 100), 1, 0)
	spans := OverlayBuilder{}.Build(content, vp)
	require.Len(t, spans, 1)
	assert.InDelta(t, 40, spans[0].Rect.Width, 1e-9)
	assert.InDelta(t, 0, spans[0].Rect.Y, 1e-9)
}

func TestOverlaySkipsEmptyItems(t *testing.T) {
	content := TextContent{Items: []TextItem{{Text: "   ", Size: 12}, {Text: "x", Size: 0}}}
	assert.Empty(t, OverlayBuilder{}.Build(content, geometry.MustViewport(geometry.NewSize(10, 10), 1, 0)))
}

const stextPage = `<div id="page0" style="width:612pt;height:792pt">
<p style="top:72pt;left:72pt;line-height:12pt"><span style="font-family:Times,serif;font-size:12pt">Hello </span><span style="font-family:Times,serif;font-size:14pt">world</span></p>
<p style="top:90pt;left:80.5pt"><span style="font-family:Courier;font-size:10pt">  </span></p>
<p style="top:100pt;left:72pt"><span style="font-family:Courier;font-size:10pt">a &amp; b</span></p>
</div>`

func TestParseStextHTML(t *testing.T) {
	content, err := ParseStextHTML(stextPage)
	require.NoError(t, err)

	want := []TextItem{
		{Text: "Hello world", X: 72, Y: 72 + 0.8*14, Size: 14, Font: "Times,serif"},
		{Text: "a & b", X: 72, Y: 108, Size: 10, Font: "Courier"},
	}
	if diff := cmp.Diff(want, content.Items, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("items (-want +got):\n%s", diff)
	}
	assert.Contains(t, content.Styles, "Courier")
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type fakeWords struct{ calls int }

func (f *fakeWords) Words(ctx context.Context, img image.Image) ([]ocr.Word, error) {
	f.calls++
	return []ocr.Word{{Text: "BAM", Box: geometry.NewRect(5, 10, 30, 20), Confidence: 90}}, nil
}

func TestImagePages(t *testing.T) {
	ctx := context.Background()
	words := &fakeWords{}
	p := NewImagePages("book.cbz", []ImageSource{
		{Name: "001.png", Data: pngBytes(t, 40, 60)},
		{Name: "002.png", Data: []byte("junk")},
	}, words)

	assert.Equal(t, 2, p.NumPages())
	meta := MetadataOrNA(ctx, p)
	assert.Equal(t, "book.cbz", meta.Title)

	page, err := p.Page(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(40, 60), page.Size())

	vp, err := ViewportFor(page, 0.5, 90)
	require.NoError(t, err)
	img, err := page.Render(ctx, vp)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 30, 20), img.Bounds(), "scaled to 20x30 then turned")

	content, err := page.TextContent(ctx)
	require.NoError(t, err)
	spans := OverlayBuilder{}.Build(content, geometry.MustViewport(page.Size(), 1, 0))
	require.Len(t, spans, 1)
	assert.Equal(t, "BAM", spans[0].Text)
	assert.InDelta(t, 10, spans[0].Rect.Y, 1e-9)
	assert.InDelta(t, 30, spans[0].Rect.Width, 1e-9)
	assert.Equal(t, 1, words.calls)

	_, err = p.Page(ctx, 2)
	assert.ErrorContains(t, err, "002.png")
	_, err = p.Page(ctx, 3)
	assert.ErrorIs(t, err, ErrPageRange)
}

func TestImagePagesWithoutOCR(t *testing.T) {
	p := NewImagePages("x", []ImageSource{{Name: "a.png", Data: pngBytes(t, 4, 4)}}, nil)
	page, err := p.Page(context.Background(), 1)
	require.NoError(t, err)
	content, err := page.TextContent(context.Background())
	require.NoError(t, err)
	assert.Empty(t, content.Items)
}
