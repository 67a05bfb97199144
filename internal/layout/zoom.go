package layout

import (
	"fmt"
	"math"
	"strings"

	"pdf-annotator/pkg/geometry"
)

// Zoom limits.
const (
	MinZoom       = 0.25
	MaxZoom       = 3.0
	ZoomIncrement = 0.1
	RotationStep  = 90
)

// ZoomMode selects how the zoom level is derived.
type ZoomMode int

const (
	ZoomAuto ZoomMode = iota
	ZoomActual
	ZoomFit
	ZoomWidth
	ZoomPercentage
)

var zoomModeNames = map[ZoomMode]string{
	ZoomAuto:       "auto",
	ZoomActual:     "actual",
	ZoomFit:        "fit",
	ZoomWidth:      "width",
	ZoomPercentage: "percentage",
}

func (m ZoomMode) String() string {
	if s, ok := zoomModeNames[m]; ok {
		return s
	}
	return "auto"
}

// ParseZoomMode parses one of auto, actual, fit, width, percentage.
func ParseZoomMode(s string) (ZoomMode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for m, name := range zoomModeNames {
		if name == s {
			return m, nil
		}
	}
	return ZoomAuto, fmt.Errorf("unknown zoom mode %q", s)
}

// Label is the text shown in the zoom box.
func (m ZoomMode) Label(level float64) string {
	switch m {
	case ZoomAuto:
		return "Automatic Zoom"
	case ZoomActual:
		return "Actual Size"
	case ZoomFit:
		return "Page Fit"
	case ZoomWidth:
		return "Page Width"
	}
	return fmt.Sprintf("%d%%", int(math.Round(level*100)))
}

// ClampZoom limits a zoom level to [MinZoom, MaxZoom].
func ClampZoom(z float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// StepZoom applies one increment in or out and clamps.
func StepZoom(current float64, in bool) float64 {
	if in {
		return ClampZoom(current + ZoomIncrement)
	}
	return ClampZoom(current - ZoomIncrement)
}

// FitZoom returns the zoom level that mode implies for a page whose size at
// scale 1 (rotation applied) is page, shown in container. The second result
// is false for ZoomPercentage, which keeps the manual level.
func FitZoom(mode ZoomMode, page, container geometry.Size) (float64, bool) {
	if page.Width <= 0 || page.Height <= 0 {
		return 0, false
	}
	var z float64
	switch mode {
	case ZoomActual:
		z = 1
	case ZoomFit, ZoomAuto:
		z = math.Min(container.Height/page.Height, container.Width/page.Width)
	case ZoomWidth:
		z = container.Width / page.Width
	default:
		return 0, false
	}
	return ClampZoom(z), true
}

// Rotate adds delta degrees to current and normalises into [0, 360).
func Rotate(current, delta int) int {
	return geometry.NormalizeRotation(current + delta)
}
