package dialogs

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fyne.io/fyne/v2/test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/internal/render"
	"pdf-annotator/internal/settings"
	"pdf-annotator/pkg/geometry"
)

func TestReadImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))

	src, size, err := readImage(&buf)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(src, "data:image/png;base64,"))
	assert.Equal(t, geometry.NewSize(3, 2), size)

	_, _, err = readImage(strings.NewReader("not an image"))
	assert.Error(t, err)
}

func TestSignatureImageCropsToInk(t *testing.T) {
	painter, err := render.NewPainter("", nil, render.DefaultPaintOptions(), zerolog.Nop())
	require.NoError(t, err)

	img := SignatureImage(painter, [][]geometry.Point{{geometry.Pt(100, 100), geometry.Pt(150, 100)}})
	assert.Equal(t, image.Rect(0, 0, 60, 10), img.Bounds())
	assert.Equal(t, uint8(255), img.RGBAAt(30, 5).A)
	assert.Zero(t, img.RGBAAt(0, 0).A, "background stays transparent")
}

func TestSettingsDialogApply(t *testing.T) {
	test.NewApp()
	path := filepath.Join(t.TempDir(), "settings.json")
	s := settings.Open(path, zerolog.Nop())

	d := NewSettingsDialog(s, nil, nil)
	d.createContent()
	assert.Equal(t, "3", d.pencilSize.Text)

	d.invertCheck.SetChecked(true)
	d.pencilSize.SetText("7")
	d.textColor.SetText("#123456")
	require.NoError(t, d.applyChanges())

	assert.True(t, s.Bool(settings.KeyInvertColors))
	assert.Equal(t, 7.0, s.Float(settings.KeyPencilSize))
	assert.Equal(t, "#123456", s.String(settings.KeyTextColor))
	_, err := os.Stat(path)
	assert.NoError(t, err, "saved")
}

func TestSettingsDialogRejectsBadValues(t *testing.T) {
	test.NewApp()
	s := settings.Open(filepath.Join(t.TempDir(), "settings.json"), zerolog.Nop())

	d := NewSettingsDialog(s, nil, nil)
	d.createContent()
	d.warmEntry.SetText("red")
	d.eraserSize.SetText("big")
	d.pencilSize.SetText("9")

	err := d.applyChanges()
	require.Error(t, err)
	assert.ErrorIs(t, err, settings.ErrInvalidValue)
	assert.Contains(t, err.Error(), "eraserSize")
	assert.Equal(t, "#FBF0E0", s.String(settings.KeyWarmColor))
	assert.Equal(t, 9.0, s.Float(settings.KeyPencilSize), "valid fields still apply")
}
