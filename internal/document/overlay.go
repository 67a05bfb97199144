package document

import (
	"unicode"
	"unicode/utf8"

	"pdf-annotator/pkg/geometry"
)

// DefaultAscent is the baseline-to-top distance, in em, used when a style
// does not say.
const DefaultAscent = 0.8

// Measurer measures the advance width of text set in font at size.
type Measurer interface {
	Measure(text, font string, size float64) float64
}

// ApproxMeasurer estimates widths at a fixed fraction of an em per rune.
type ApproxMeasurer struct{ EmPerRune float64 }

// Measure implements Measurer.
func (m ApproxMeasurer) Measure(text, _ string, size float64) float64 {
	em := m.EmPerRune
	if em == 0 {
		em = 0.5
	}
	return float64(utf8.RuneCountInString(text)) * em * size
}

// Span is one word of the text overlay in viewport pixels.
type Span struct {
	Text string
	Rect geometry.Rect
}

// OverlayBuilder lays text content out as per-word spans, the hit targets
// used for snapping highlights to text.
type OverlayBuilder struct {
	Measurer Measurer
}

// Build splits every item into words and positions each at the baseline
// minus the font ascent. When an item's width is known, word widths are
// scaled so the item fills it.
func (b OverlayBuilder) Build(content TextContent, vp geometry.Viewport) []Span {
	m := b.Measurer
	if m == nil {
		m = ApproxMeasurer{}
	}

	var spans []Span
	for _, item := range content.Items {
		if item.Size <= 0 {
			continue
		}
		ascent := DefaultAscent
		if st, ok := content.Styles[item.Font]; ok && st.Ascent > 0 {
			ascent = st.Ascent
		}

		fit := 1.0
		if item.Width > 0 {
			if natural := m.Measure(item.Text, item.Font, item.Size); natural > 0 {
				fit = item.Width / natural
			}
		}

		top := item.Y - ascent*item.Size
		for _, w := range words(item.Text) {
			x := item.X + fit*m.Measure(item.Text[:w.start], item.Font, item.Size)
			width := fit * m.Measure(w.text, item.Font, item.Size)
			doc := geometry.NewRect(x, top, width, item.Size)
			spans = append(spans, Span{Text: w.text, Rect: vp.RectToViewport(doc)})
		}
	}
	return spans
}

// Rects returns the rectangles of spans.
func Rects(spans []Span) []geometry.Rect {
	out := make([]geometry.Rect, len(spans))
	for i, s := range spans {
		out[i] = s.Rect
	}
	return out
}

type word struct {
	text  string
	start int
}

func words(s string) []word {
	var out []word
	start := -1
	for i, r := range s {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = append(out, word{s[start:i], start})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = append(out, word{s[start:], start})
	}
	return out
}
