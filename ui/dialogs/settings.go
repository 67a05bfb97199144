// Package dialogs provides application dialogs.
package dialogs

import (
	"errors"
	"fmt"
	"strconv"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"pdf-annotator/internal/settings"
)

// Fonts offered for text annotations. Painting falls back to the configured
// font file for every family.
var fontFamilies = []string{"Arial", "Helvetica", "Times New Roman", "Courier New", "Verdana", "Georgia"}

// SettingsDialog is a property sheet over the user settings. Saving applies
// every field through settings.Set, so invalid values are rejected the same
// way a hand-edited settings file is.
type SettingsDialog struct {
	settings *settings.Settings
	window   fyne.Window

	// Display
	invertCheck    *widget.Check
	grayscaleCheck *widget.Check
	blueLightCheck *widget.Check
	intensity      *widget.Slider
	contrast       *widget.Slider
	warmEntry      *widget.Entry
	invertScroll   *widget.Check

	// Tools
	highlighterColor *widget.Entry
	highlighterSize  *widget.Entry
	pencilColor      *widget.Entry
	pencilSize       *widget.Entry
	eraserSize       *widget.Entry
	textFont         *widget.Select
	textSize         *widget.Entry
	textColor        *widget.Entry

	onSave func(error)
}

// NewSettingsDialog creates a settings sheet. onSave receives the result of
// applying and persisting the values.
func NewSettingsDialog(s *settings.Settings, window fyne.Window, onSave func(error)) *SettingsDialog {
	return &SettingsDialog{settings: s, window: window, onSave: onSave}
}

// Show displays the dialog.
func (d *SettingsDialog) Show() {
	content := d.createContent()

	dlg := dialog.NewCustomConfirm(
		"Settings",
		"Save",
		"Cancel",
		content,
		func(save bool) {
			if !save {
				return
			}
			err := d.applyChanges()
			if err != nil {
				dialog.ShowError(err, d.window)
			}
			if d.onSave != nil {
				d.onSave(err)
			}
		},
		d.window,
	)
	dlg.Resize(fyne.NewSize(460, 640))
	dlg.Show()
}

func (d *SettingsDialog) createContent() fyne.CanvasObject {
	s := d.settings

	d.invertCheck = widget.NewCheck("Invert colors", nil)
	d.invertCheck.SetChecked(s.Bool(settings.KeyInvertColors))
	d.grayscaleCheck = widget.NewCheck("Grayscale", nil)
	d.grayscaleCheck.SetChecked(s.Bool(settings.KeyGrayscale))
	d.blueLightCheck = widget.NewCheck("Blue light filter", nil)
	d.blueLightCheck.SetChecked(s.Bool(settings.KeyBlueLightFilter))
	d.invertScroll = widget.NewCheck("Invert wheel in continuous view", nil)
	d.invertScroll.SetChecked(s.Bool(settings.KeyInvertScroll))

	d.intensity = widget.NewSlider(0, 100)
	d.intensity.SetValue(s.Float(settings.KeyBlueLightIntensity))
	d.contrast = widget.NewSlider(50, 200)
	d.contrast.SetValue(s.Float(settings.KeyContrastLevel))

	d.warmEntry = newEntry(s.String(settings.KeyWarmColor))

	displayForm := widget.NewForm(
		widget.NewFormItem("", d.invertCheck),
		widget.NewFormItem("", d.grayscaleCheck),
		widget.NewFormItem("", d.blueLightCheck),
		widget.NewFormItem("Intensity (%)", d.intensity),
		widget.NewFormItem("Contrast (%)", d.contrast),
		widget.NewFormItem("Background", d.warmEntry),
		widget.NewFormItem("", d.invertScroll),
	)

	d.highlighterColor = newEntry(s.String(settings.KeyHighlighterColor))
	d.highlighterSize = newEntry(formatSize(s.Float(settings.KeyHighlighterSize)))
	d.pencilColor = newEntry(s.String(settings.KeyPencilColor))
	d.pencilSize = newEntry(formatSize(s.Float(settings.KeyPencilSize)))
	d.eraserSize = newEntry(formatSize(s.Float(settings.KeyEraserSize)))
	d.textFont = widget.NewSelect(fontFamilies, nil)
	d.textFont.SetSelected(s.String(settings.KeyTextFont))
	d.textSize = newEntry(formatSize(s.Float(settings.KeyTextSize)))
	d.textColor = newEntry(s.String(settings.KeyTextColor))

	toolsForm := widget.NewForm(
		widget.NewFormItem("Highlighter color", d.highlighterColor),
		widget.NewFormItem("Highlighter size", d.highlighterSize),
		widget.NewFormItem("Pencil color", d.pencilColor),
		widget.NewFormItem("Pencil size", d.pencilSize),
		widget.NewFormItem("Eraser size", d.eraserSize),
		widget.NewFormItem("Text font", d.textFont),
		widget.NewFormItem("Text size", d.textSize),
		widget.NewFormItem("Text color", d.textColor),
	)

	return container.NewVBox(
		widget.NewCard("Display", "", displayForm),
		widget.NewCard("Tools", "", toolsForm),
	)
}

// applyChanges sets every field and saves the settings file. All fields
// are attempted; the errors are joined.
func (d *SettingsDialog) applyChanges() error {
	var errs []error
	set := func(key string, value interface{}) {
		if err := d.settings.Set(key, value); err != nil {
			errs = append(errs, err)
		}
	}
	setSize := func(key string, e *widget.Entry) {
		v, err := strconv.ParseFloat(e.Text, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %q is not a number", key, e.Text))
			return
		}
		set(key, v)
	}

	set(settings.KeyInvertColors, d.invertCheck.Checked)
	set(settings.KeyGrayscale, d.grayscaleCheck.Checked)
	set(settings.KeyBlueLightFilter, d.blueLightCheck.Checked)
	set(settings.KeyBlueLightIntensity, d.intensity.Value)
	set(settings.KeyContrastLevel, d.contrast.Value)
	set(settings.KeyWarmColor, d.warmEntry.Text)
	set(settings.KeyInvertScroll, d.invertScroll.Checked)

	set(settings.KeyHighlighterColor, d.highlighterColor.Text)
	setSize(settings.KeyHighlighterSize, d.highlighterSize)
	set(settings.KeyPencilColor, d.pencilColor.Text)
	setSize(settings.KeyPencilSize, d.pencilSize)
	setSize(settings.KeyEraserSize, d.eraserSize)
	if d.textFont.Selected != "" {
		set(settings.KeyTextFont, d.textFont.Selected)
	}
	setSize(settings.KeyTextSize, d.textSize)
	set(settings.KeyTextColor, d.textColor.Text)

	if err := d.settings.Save(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func newEntry(text string) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(text)
	return e
}

func formatSize(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
