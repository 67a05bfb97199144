package annotation

// Measurer reports the advance width of a string in a font at a size, in the
// same units as the size.
type Measurer interface {
	Measure(text, font string, size float64) float64
}

// FallbackSize estimates a text box for records saved without dimensions.
func FallbackSize(t *Text) (width, height float64) {
	n := len([]rune(t.Content))
	if n == 0 {
		n = 1
	}
	return t.Size * float64(n) * 0.6, t.Size
}

// Upgrade fills in the text box of records that predate stored dimensions.
// It measures once and writes the result back, so later calls are no-ops.
// It reports whether the record changed.
func Upgrade(a Annotation, m Measurer) bool {
	t, ok := a.(*Text)
	if !ok || (t.Width != 0 && t.Height != 0) {
		return false
	}
	if t.Width == 0 {
		if m != nil {
			t.Width = m.Measure(t.Content, t.Font, t.Size)
		} else {
			t.Width, _ = FallbackSize(t)
		}
	}
	if t.Height == 0 {
		t.Height = t.Size
	}
	return true
}
