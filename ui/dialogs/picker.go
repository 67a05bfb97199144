package dialogs

import (
	"io"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/storage"

	"pdf-annotator/internal/raster"
	"pdf-annotator/pkg/geometry"
)

var imageExtensions = []string{".png", ".jpg", ".jpeg", ".gif", ".webp", ".bmp", ".tif", ".tiff"}

// ImagePicker asks for an image file with the system file dialog. It
// implements interaction.ImagePicker; picked images are re-encoded as PNG
// data URLs so annotations do not depend on the file staying in place.
type ImagePicker struct {
	window fyne.Window
}

// NewImagePicker creates a picker whose dialogs belong to window.
func NewImagePicker(window fyne.Window) *ImagePicker {
	return &ImagePicker{window: window}
}

// Pick shows the file dialog. Cancelling reports an empty src.
func (p *ImagePicker) Pick(done func(src string, size geometry.Size, err error)) {
	dlg := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil || reader == nil {
			done("", geometry.Size{}, err)
			return
		}
		defer reader.Close()
		src, size, err := readImage(reader)
		done(src, size, err)
	}, p.window)
	dlg.SetFilter(storage.NewExtensionFileFilter(imageExtensions))
	dlg.Show()
}

func readImage(r io.Reader) (string, geometry.Size, error) {
	img, err := raster.Decode(r)
	if err != nil {
		return "", geometry.Size{}, err
	}
	src, err := raster.PNGDataURL(img)
	if err != nil {
		return "", geometry.Size{}, err
	}
	return src, raster.SizeOf(img), nil
}
