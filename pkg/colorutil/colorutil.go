// Package colorutil provides shared color utilities for the annotator.
package colorutil

import (
	"fmt"
	"image/color"
	"regexp"
	"strconv"
)

// Common overlay colors used throughout the application.
var (
	Black  = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White  = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Yellow = color.RGBA{R: 255, G: 255, B: 0, A: 255}

	// Selection outlines the selected annotation (rgba 0,123,255 at 0.9).
	Selection = color.NRGBA{R: 0, G: 123, B: 255, A: 230}
)

var hexPattern = regexp.MustCompile(`^#([A-Fa-f0-9]{6}|[A-Fa-f0-9]{3})$`)

// IsHex reports whether s is a #RGB or #RRGGBB color.
func IsHex(s string) bool {
	return hexPattern.MatchString(s)
}

// ParseHex parses #RGB or #RRGGBB into an opaque color.
func ParseHex(s string) (color.NRGBA, error) {
	if !IsHex(s) {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q", s)
	}
	digits := s[1:]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid hex color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
}

// ParseHexOr parses s, falling back to def when s is not a valid color.
func ParseHexOr(s string, def color.NRGBA) color.NRGBA {
	c, err := ParseHex(s)
	if err != nil {
		return def
	}
	return c
}

// Hex formats a color as #RRGGBB, ignoring alpha.
func Hex(c color.Color) string {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return fmt.Sprintf("#%02X%02X%02X", n.R, n.G, n.B)
}

// WithAlpha returns c with its alpha replaced by a (0..1).
func WithAlpha(c color.Color, a float64) color.NRGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	if a < 0 {
		a = 0
	}
	if a > 1 {
		a = 1
	}
	n.A = uint8(a*255 + 0.5)
	return n
}
