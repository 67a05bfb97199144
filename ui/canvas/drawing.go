package canvas

import (
	"image"
	"image/color"
)

// drawDashedRect outlines rect with a two-on, two-off dash. Pixels outside
// the output are skipped.
func drawDashedRect(output *image.RGBA, rect image.Rectangle, col color.Color) {
	bounds := output.Bounds()
	set := func(x, y int) {
		if (x+y)%4 < 2 && (image.Point{X: x, Y: y}).In(bounds) {
			output.Set(x, y, col)
		}
	}

	x1, y1, x2, y2 := rect.Min.X, rect.Min.Y, rect.Max.X-1, rect.Max.Y-1
	for x := x1; x <= x2; x++ {
		set(x, y1)
		set(x, y2)
	}
	for y := y1; y <= y2; y++ {
		set(x1, y)
		set(x2, y)
	}
}
