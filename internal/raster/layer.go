package raster

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
)

// Z-order of the layers making up one page.
const (
	ZRaster      = 0
	ZAnnotations = 1
	ZText        = 2
)

// Layer is one image layer of a page.
type Layer struct {
	Name    string
	Image   image.Image
	Z       int
	Visible bool
	Opacity float64 // 0.0 - 1.0
}

// NewLayer creates a visible, opaque layer.
func NewLayer(name string, img image.Image, z int) *Layer {
	return &Layer{Name: name, Image: img, Z: z, Visible: true, Opacity: 1.0}
}

// Composite flattens layers onto a width x height canvas filled with back,
// lowest Z first. Layers are anchored at the canvas origin.
func Composite(width, height int, back color.Color, layers ...*Layer) *image.RGBA {
	result := image.NewRGBA(image.Rect(0, 0, width, height))
	if back != nil {
		draw.Draw(result, result.Bounds(), &image.Uniform{back}, image.Point{}, draw.Src)
	}

	ordered := make([]*Layer, 0, len(layers))
	for _, l := range layers {
		if l != nil && l.Image != nil && l.Visible && l.Opacity > 0 {
			ordered = append(ordered, l)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Z < ordered[j].Z })

	for _, l := range ordered {
		compositeLayer(result, l)
	}
	return result
}

// compositeLayer blends a single layer onto dst with source-over.
func compositeLayer(dst *image.RGBA, l *Layer) {
	if l.Opacity >= 1 {
		draw.Draw(dst, dst.Bounds(), l.Image, l.Image.Bounds().Min, draw.Over)
		return
	}

	src := l.Image
	sb := src.Bounds()
	w, h := dst.Bounds().Dx(), dst.Bounds().Dy()
	for y := sb.Min.Y; y < sb.Max.Y; y++ {
		dy := y - sb.Min.Y
		if dy >= h {
			break
		}
		for x := sb.Min.X; x < sb.Max.X; x++ {
			dx := x - sb.Min.X
			if dx >= w {
				break
			}
			dst.SetRGBA(dx, dy, blend(dst.RGBAAt(dx, dy), src.At(x, y), l.Opacity))
		}
	}
}

// blend performs source-over of a premultiplied src scaled by opacity.
func blend(dst color.RGBA, src color.Color, opacity float64) color.RGBA {
	sr, sg, sb, sa := src.RGBA()
	s := [4]float64{float64(sr) / 65535, float64(sg) / 65535, float64(sb) / 65535, float64(sa) / 65535}
	d := [4]float64{float64(dst.R) / 255, float64(dst.G) / 255, float64(dst.B) / 255, float64(dst.A) / 255}

	a := s[3] * opacity
	var out [4]float64
	for i := 0; i < 3; i++ {
		out[i] = s[i]*opacity + d[i]*(1-a)
	}
	out[3] = a + d[3]*(1-a)

	return color.RGBA{
		R: uint8(clamp(out[0], 0, 1)*255 + 0.5),
		G: uint8(clamp(out[1], 0, 1)*255 + 0.5),
		B: uint8(clamp(out[2], 0, 1)*255 + 0.5),
		A: uint8(clamp(out[3], 0, 1)*255 + 0.5),
	}
}

func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

// Clone returns an RGBA copy of img anchored at the origin.
func Clone(img image.Image) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
