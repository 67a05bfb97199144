package render

import (
	"image"

	"gocv.io/x/gocv"

	"pdf-annotator/internal/raster"
	"pdf-annotator/internal/settings"
)

// sepiaBGR is the CSS sepia(1) matrix reordered for BGR channels.
var sepiaBGR = [3][3]float32{
	{0.131, 0.534, 0.272},
	{0.168, 0.686, 0.349},
	{0.189, 0.769, 0.393},
}

// Active reports whether any filter changes pixels.
func Active(f settings.Filters) bool {
	return f.Invert || f.Grayscale || (f.BlueLight && f.BlueLightIntensity > 0) ||
		(f.Contrast > 0 && f.Contrast != 100)
}

// ApplyFilters returns img with the display filters applied in the order
// invert, grayscale, blue light, contrast. img is returned unchanged when no
// filter is active.
func ApplyFilters(img image.Image, f settings.Filters) image.Image {
	if !Active(f) || img.Bounds().Empty() {
		return img
	}

	mat := raster.ToMat(img)
	defer mat.Close()

	if f.Invert {
		gocv.BitwiseNot(mat, &mat)
	}
	if f.Grayscale {
		gray := gocv.NewMat()
		gocv.CvtColor(mat, &gray, gocv.ColorBGRToGray)
		gocv.CvtColor(gray, &mat, gocv.ColorGrayToBGR)
		gray.Close()
	}
	if f.BlueLight && f.BlueLightIntensity > 0 {
		sepia(&mat, f.BlueLightIntensity/100)
	}
	if f.Contrast > 0 && f.Contrast != 100 {
		contrast(&mat, f.Contrast/100)
	}
	return raster.FromMat(mat)
}

// sepia blends mat toward its sepia tone by amount in [0, 1].
func sepia(mat *gocv.Mat, amount float64) {
	if amount > 1 {
		amount = 1
	}
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	defer kernel.Close()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			v := float64(sepiaBGR[r][c]) * amount
			if r == c {
				v += 1 - amount
			}
			kernel.SetFloatAt(r, c, float32(v))
		}
	}
	out := gocv.NewMat()
	defer out.Close()
	gocv.Transform(*mat, &out, kernel)
	out.CopyTo(mat)
}

// contrast scales every channel around mid-grey by c, saturating.
func contrast(mat *gocv.Mat, c float64) {
	out := gocv.NewMat()
	defer out.Close()
	gocv.AddWeighted(*mat, c, *mat, 0, 127.5*(1-c), &out)
	out.CopyTo(mat)
}
