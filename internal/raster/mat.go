package raster

import (
	"image"
	"runtime"
	"sync"

	"gocv.io/x/gocv"

	"pdf-annotator/pkg/geometry"
)

// forStripes runs fn over horizontal stripes of [0, height) in parallel.
func forStripes(height int, fn func(yStart, yEnd int)) {
	workers := runtime.NumCPU()
	rows := (height + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * rows
		if start >= height {
			break
		}
		end := min(start+rows, height)
		wg.Add(1)
		go func(yStart, yEnd int) {
			defer wg.Done()
			fn(yStart, yEnd)
		}(start, end)
	}
	wg.Wait()
}

// ToMat converts img to a BGR Mat. The caller closes it.
func ToMat(img image.Image) gocv.Mat {
	rgba := Clone(img)
	w, h := rgba.Bounds().Dx(), rgba.Bounds().Dy()
	mat := gocv.NewMatWithSize(h, w, gocv.MatTypeCV8UC3)

	forStripes(h, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			row := rgba.Pix[y*rgba.Stride:]
			for x := 0; x < w; x++ {
				mat.SetUCharAt(y, x*3+0, row[x*4+2])
				mat.SetUCharAt(y, x*3+1, row[x*4+1])
				mat.SetUCharAt(y, x*3+2, row[x*4+0])
			}
		}
	})
	return mat
}

// FromMat converts a BGR or single-channel Mat to an opaque RGBA image.
func FromMat(mat gocv.Mat) *image.RGBA {
	h, w := mat.Rows(), mat.Cols()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	gray := mat.Channels() == 1

	forStripes(h, func(yStart, yEnd int) {
		for y := yStart; y < yEnd; y++ {
			off := y * img.Stride
			for x := 0; x < w; x++ {
				p := off + x*4
				if gray {
					v := mat.GetUCharAt(y, x)
					img.Pix[p+0], img.Pix[p+1], img.Pix[p+2] = v, v, v
				} else {
					img.Pix[p+0] = mat.GetUCharAt(y, x*3+2)
					img.Pix[p+1] = mat.GetUCharAt(y, x*3+1)
					img.Pix[p+2] = mat.GetUCharAt(y, x*3+0)
				}
				img.Pix[p+3] = 255
			}
		}
	})
	return img
}

// Rotate turns img clockwise by a multiple of 90 degrees. Alpha is dropped.
func Rotate(img image.Image, degrees int) image.Image {
	var code gocv.RotateFlag
	switch geometry.NormalizeRotation(degrees) {
	case 90:
		code = gocv.Rotate90Clockwise
	case 180:
		code = gocv.Rotate180Clockwise
	case 270:
		code = gocv.Rotate90CounterClockwise
	default:
		return img
	}

	mat := ToMat(img)
	defer mat.Close()
	rotated := gocv.NewMat()
	defer rotated.Close()
	gocv.Rotate(mat, &rotated, code)
	return FromMat(rotated)
}
