package raster

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/pkg/geometry"
)

func solid(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestDataURLRoundTrip(t *testing.T) {
	src, err := PNGDataURL(solid(3, 2, color.RGBA{R: 255, A: 255}))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(src, "data:image/png;base64,"))

	img, err := LoadSource(src)
	require.NoError(t, err)
	assert.Equal(t, geometry.NewSize(3, 2), SizeOf(img))
	r, _, _, _ := img.At(1, 1).RGBA()
	assert.EqualValues(t, 0xffff, r)
}

func TestLoadSourceFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sig.png")
	require.NoError(t, SavePNG(path, solid(4, 4, color.Black)))

	c := NewCache()
	a, err := c.Get(path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))
	b, err := c.Get(path)
	require.NoError(t, err, "second lookup is served from the cache")
	assert.Same(t, a, b)
}

func TestLoadSourceErrors(t *testing.T) {
	_, err := LoadSource("data:image/png;base64")
	assert.ErrorContains(t, err, "malformed")
	_, err = LoadSource("data:image/png;base64,!!!")
	assert.ErrorContains(t, err, "data url")
	_, err = Decode(bytes.NewReader([]byte("not an image")))
	assert.Error(t, err)
}

func TestCompositeOrdersByZ(t *testing.T) {
	red := NewLayer("raster", solid(2, 2, color.RGBA{R: 255, A: 255}), ZRaster)
	blue := NewLayer("annotations", solid(1, 1, color.RGBA{B: 255, A: 255}), ZAnnotations)

	out := Composite(2, 2, color.White, blue, red)
	assert.Equal(t, color.RGBA{B: 255, A: 255}, out.RGBAAt(0, 0))
	assert.Equal(t, color.RGBA{R: 255, A: 255}, out.RGBAAt(1, 1))
}

func TestCompositeOpacityAndVisibility(t *testing.T) {
	black := NewLayer("ink", solid(1, 1, color.RGBA{A: 255}), ZAnnotations)
	black.Opacity = 0.5
	hidden := NewLayer("text", solid(1, 1, color.RGBA{G: 255, A: 255}), ZText)
	hidden.Visible = false

	out := Composite(1, 1, color.White, black, hidden)
	px := out.RGBAAt(0, 0)
	assert.InDelta(t, 128, int(px.R), 1)
	assert.InDelta(t, 128, int(px.G), 1)
	assert.EqualValues(t, 255, px.A)
}

func TestSavePNGCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "page-1.png")
	require.NoError(t, SavePNG(path, solid(2, 2, color.White)))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Width)
}

func TestClone(t *testing.T) {
	src := solid(3, 3, color.White).SubImage(image.Rect(1, 1, 3, 3))
	c := Clone(src)
	assert.Equal(t, image.Rect(0, 0, 2, 2), c.Bounds())
}

func TestMatConversion(t *testing.T) {
	src := solid(5, 3, color.RGBA{R: 10, G: 20, B: 30, A: 255})
	mat := ToMat(src)
	defer mat.Close()
	assert.Equal(t, 3, mat.Rows())
	assert.Equal(t, 5, mat.Cols())
	assert.EqualValues(t, 30, mat.GetUCharAt(0, 0), "blue first")

	back := FromMat(mat)
	assert.Equal(t, color.RGBA{R: 10, G: 20, B: 30, A: 255}, back.RGBAAt(4, 2))
}

func TestRotate(t *testing.T) {
	src := solid(4, 2, color.White)
	src.Set(0, 0, color.RGBA{R: 255, A: 255})

	r90 := Rotate(src, 90)
	assert.Equal(t, image.Rect(0, 0, 2, 4), r90.Bounds())
	assert.Equal(t, color.RGBA{R: 255, A: 255}, r90.(*image.RGBA).RGBAAt(1, 0), "top-left moves to top-right")

	assert.Same(t, src, Rotate(src, 360).(*image.RGBA))
}
