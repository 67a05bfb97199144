package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"

	"pdf-annotator/internal/settings"
	"pdf-annotator/pkg/colorutil"
)

// Theme paints the area around pages with the user's warm background color.
type Theme struct {
	Background color.Color
}

var _ fyne.Theme = (*Theme)(nil)

// NewTheme returns a theme using the warmColor setting.
func NewTheme(s *settings.Settings) *Theme {
	return &Theme{Background: colorutil.ParseHexOr(s.String(settings.KeyWarmColor), colorutil.White)}
}

func (t *Theme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNameBackground:
		return t.Background
	case theme.ColorNamePrimary:
		return colorutil.Selection
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	case theme.ColorNameForeground:
		if variant == theme.VariantLight {
			return color.NRGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xFF}
		}
	}
	return theme.DefaultTheme().Color(name, variant)
}

func (t *Theme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *Theme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *Theme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 12
	case theme.SizeNameScrollBarSmall:
		return 8
	default:
		return theme.DefaultTheme().Size(name)
	}
}
