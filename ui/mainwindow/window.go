// Package mainwindow provides the main application window.
package mainwindow

import (
	"context"
	"fmt"
	"image/png"
	"path/filepath"
	"strings"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/driver/desktop"
	"fyne.io/fyne/v2/storage"
	"fyne.io/fyne/v2/widget"
	"github.com/rs/zerolog"

	"pdf-annotator/internal/app"
	"pdf-annotator/internal/config"
	"pdf-annotator/internal/document"
	"pdf-annotator/internal/interaction"
	"pdf-annotator/internal/layout"
	"pdf-annotator/internal/logging"
	"pdf-annotator/internal/render"
	"pdf-annotator/internal/settings"
	"pdf-annotator/internal/version"
	"pdf-annotator/ui/canvas"
	"pdf-annotator/ui/dialogs"
)

const (
	appTitle       = "PDF Annotator"
	prefKeyLastDir = "lastDirectory"
)

var documentExtensions = []string{".pdf", ".cbz", ".cbr"}

// Options configures the window. A nil Painter is created from
// Config.Fonts.
type Options struct {
	Config   config.Config
	Settings *settings.Settings
	Painter  *render.Painter
	Words    document.WordRecognizer
	Logger   zerolog.Logger
}

// MainWindow is the primary application window.
type MainWindow struct {
	fyne.Window
	app       fyne.App
	viewer    *app.Viewer
	pageView  *canvas.PageView
	statusBar *widget.Label
	pageLabel *widget.Label
	zoomLabel *widget.Label
	cfg       config.Config
	log       zerolog.Logger

	toolButtons map[interaction.Tool]*widget.Button

	// Menu items that need state tracking
	continuousItem *fyne.MenuItem
	presentItem    *fyne.MenuItem
}

// New creates the main window and its viewer.
func New(fyneApp fyne.App, opts Options) (*MainWindow, error) {
	win := fyneApp.NewWindow(appTitle)

	mw := &MainWindow{
		Window:      win,
		app:         fyneApp,
		cfg:         opts.Config,
		log:         logging.Component(opts.Logger, "mainwindow"),
		toolButtons: make(map[interaction.Tool]*widget.Button),
	}

	if opts.Painter == nil {
		p, err := render.NewPainter(opts.Config.Fonts.Path, nil, render.DefaultPaintOptions(), opts.Logger)
		if err != nil {
			return nil, err
		}
		opts.Painter = p
	}

	mw.pageView = canvas.NewPageView()
	viewer, err := app.NewViewer(app.Options{
		Config:    opts.Config,
		Settings:  opts.Settings,
		Painter:   opts.Painter,
		Words:     opts.Words,
		Logger:    opts.Logger,
		Scroller:  mw.pageView,
		Editor:    mw.pageView,
		Picker:    dialogs.NewImagePicker(win),
		Signature: dialogs.NewSignaturePad(win, opts.Painter),
	})
	if err != nil {
		return nil, err
	}
	mw.viewer = viewer
	mw.pageView.Bind(viewer)

	mw.setupUI()
	mw.setupMenus()
	mw.setupKeys()
	mw.setupEventHandlers()

	win.SetOnClosed(func() {
		if err := viewer.Close(); err != nil {
			mw.log.Warn().Err(err).Msg("failed to close viewer")
		}
	})
	win.Resize(fyne.NewSize(1100, 800))
	return mw, nil
}

// Viewer returns the viewer shown in the window.
func (mw *MainWindow) Viewer() *app.Viewer { return mw.viewer }

// setupUI creates the main UI layout.
func (mw *MainWindow) setupUI() {
	mw.statusBar = widget.NewLabel("Ready")
	mw.pageLabel = widget.NewLabel("0 / 0")
	mw.zoomLabel = widget.NewLabel(layout.ZoomAuto.Label(1))

	content := container.NewBorder(
		mw.createToolbar(),                // top
		container.NewPadded(mw.statusBar), // bottom
		nil,                               // left
		nil,                               // right
		mw.pageView,                       // center
	)
	mw.SetContent(content)
}

// createToolbar creates the navigation, zoom and tool controls.
func (mw *MainWindow) createToolbar() fyne.CanvasObject {
	v := mw.viewer

	nav := container.NewHBox(
		widget.NewButton("Open", mw.onOpen),
		widget.NewButton("<", func() { v.Navigate(-1) }),
		mw.pageLabel,
		widget.NewButton(">", func() { v.Navigate(1) }),
	)
	zoom := container.NewHBox(
		widget.NewButton("-", func() { v.ZoomOut() }),
		mw.zoomLabel,
		widget.NewButton("+", func() { v.ZoomIn() }),
		widget.NewButton("Fit", func() { v.SetZoomMode(layout.ZoomFit) }),
		widget.NewButton("Width", func() { v.SetZoomMode(layout.ZoomWidth) }),
		widget.NewButton("⟲", func() { v.Rotate(-90) }),
		widget.NewButton("⟳", func() { v.Rotate(90) }),
	)

	tools := container.NewHBox()
	for _, t := range []interaction.Tool{
		interaction.ToolHand,
		interaction.ToolHighlighter,
		interaction.ToolPencil,
		interaction.ToolEraser,
		interaction.ToolText,
		interaction.ToolImage,
		interaction.ToolSignature,
	} {
		tool := t
		btn := widget.NewButton(toolLabel(tool), func() { v.ToggleTool(tool) })
		mw.toolButtons[tool] = btn
		tools.Add(btn)
	}

	return container.NewHBox(
		nav,
		widget.NewSeparator(),
		zoom,
		widget.NewSeparator(),
		tools,
		widget.NewSeparator(),
		widget.NewButton("Present", func() { v.TogglePresentation() }),
	)
}

func toolLabel(t interaction.Tool) string {
	s := t.String()
	return strings.ToUpper(s[:1]) + s[1:]
}

// setupMenus creates the application menus.
func (mw *MainWindow) setupMenus() {
	v := mw.viewer

	// File menu
	fileMenu := fyne.NewMenu("File",
		fyne.NewMenuItem("Open...", mw.onOpen),
		fyne.NewMenuItem("Export Page as PNG...", mw.onExportPage),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Settings...", mw.onSettings),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Quit", func() { mw.app.Quit() }),
	)

	// Edit menu
	editMenu := fyne.NewMenu("Edit",
		fyne.NewMenuItem("Delete Selection", func() { v.Controller().DeleteSelected() }),
		fyne.NewMenuItem("Clear Selection", func() { v.Controller().ClearSelection() }),
	)

	// View menu
	mw.continuousItem = fyne.NewMenuItem("Continuous", func() {
		v.SetContinuous(!v.Continuous())
	})
	mw.continuousItem.Checked = true
	mw.presentItem = fyne.NewMenuItem("Presentation", func() { v.TogglePresentation() })

	viewMenu := fyne.NewMenu("View",
		fyne.NewMenuItem("Zoom In", func() { v.ZoomIn() }),
		fyne.NewMenuItem("Zoom Out", func() { v.ZoomOut() }),
		fyne.NewMenuItem("Automatic Zoom", func() { v.SetZoomMode(layout.ZoomAuto) }),
		fyne.NewMenuItem("Actual Size", func() { v.SetZoomMode(layout.ZoomActual) }),
		fyne.NewMenuItem("Page Fit", func() { v.SetZoomMode(layout.ZoomFit) }),
		fyne.NewMenuItem("Page Width", func() { v.SetZoomMode(layout.ZoomWidth) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Rotate Left", func() { v.Rotate(-90) }),
		fyne.NewMenuItem("Rotate Right", func() { v.Rotate(90) }),
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("No Spreads", func() { v.SetSpreadMode(layout.SpreadNone) }),
		fyne.NewMenuItem("Odd Spreads", func() { v.SetSpreadMode(layout.SpreadOdd) }),
		fyne.NewMenuItem("Even Spreads", func() { v.SetSpreadMode(layout.SpreadEven) }),
		mw.continuousItem,
		fyne.NewMenuItemSeparator(),
		fyne.NewMenuItem("Left to Right", func() { v.SetDirection(layout.LTR) }),
		fyne.NewMenuItem("Right to Left", func() { v.SetDirection(layout.RTL) }),
		fyne.NewMenuItem("Comic Mode", v.ComicMode),
		fyne.NewMenuItem("Manga Mode", v.MangaMode),
		mw.presentItem,
	)

	// Go menu
	goMenu := fyne.NewMenu("Go",
		fyne.NewMenuItem("First Page", func() { v.First() }),
		fyne.NewMenuItem("Previous Page", func() { v.Navigate(-1) }),
		fyne.NewMenuItem("Next Page", func() { v.Navigate(1) }),
		fyne.NewMenuItem("Last Page", func() { v.Last() }),
	)

	// Help menu
	helpMenu := fyne.NewMenu("Help",
		fyne.NewMenuItem("About", mw.onAbout),
	)

	mw.SetMainMenu(fyne.NewMainMenu(fileMenu, editMenu, viewMenu, goMenu, helpMenu))
}

// setupKeys routes key presses to the viewer's shortcuts.
func (mw *MainWindow) setupKeys() {
	c := mw.Canvas()
	c.SetOnTypedKey(func(ev *fyne.KeyEvent) {
		if ev.Name == fyne.KeyDelete || ev.Name == fyne.KeyBackspace {
			mw.viewer.Controller().DeleteSelected()
			return
		}
		mw.viewer.HandleKey(string(ev.Name), false)
	})
	for _, key := range []fyne.KeyName{fyne.KeyEqual, fyne.KeyMinus, fyne.KeyP, fyne.KeyH, fyne.KeyD, fyne.KeyT, fyne.KeyG} {
		name := key
		c.AddShortcut(&desktop.CustomShortcut{KeyName: name, Modifier: fyne.KeyModifierShortcutDefault}, func(fyne.Shortcut) {
			mw.viewer.HandleKey(string(name), true)
		})
	}
}

// setupEventHandlers registers for viewer events.
func (mw *MainWindow) setupEventHandlers() {
	v := mw.viewer

	v.On(app.EventDocumentLoaded, func(data interface{}) {
		info, ok := data.(app.DocumentInfo)
		if !ok {
			return
		}
		title := info.Metadata.Title
		if title == "" || title == document.NotAvailable {
			title = filepath.Base(info.Source)
		}
		mw.SetTitle(appTitle + " - " + title)
		mw.updateStatus("Opened " + info.Source)
	})

	v.On(app.EventPageChanged, func(data interface{}) {
		if change, ok := data.(app.PageChange); ok {
			mw.pageLabel.SetText(fmt.Sprintf("%d / %d", change.Page, change.Total))
		}
	})

	v.On(app.EventZoomChanged, func(data interface{}) {
		if change, ok := data.(app.ZoomChange); ok {
			mw.zoomLabel.SetText(change.Label)
		}
	})

	v.On(app.EventToolChanged, func(data interface{}) {
		active, _ := data.(interaction.Tool)
		for tool, btn := range mw.toolButtons {
			if tool == active {
				btn.Importance = widget.HighImportance
			} else {
				btn.Importance = widget.MediumImportance
			}
			btn.Refresh()
		}
	})

	v.On(app.EventLayoutChanged, func(interface{}) {
		mw.continuousItem.Checked = v.Continuous()
		mw.presentItem.Checked = v.Presenting()
		mw.MainMenu().Refresh()
	})

	v.On(app.EventPresentationChanged, func(data interface{}) {
		entering, _ := data.(bool)
		mw.SetFullScreen(entering)
	})

	v.On(app.EventStatus, func(data interface{}) {
		if st, ok := data.(app.Status); ok {
			mw.updateStatus(st.Message)
		}
	})
}

// updateStatus updates the status bar text.
func (mw *MainWindow) updateStatus(text string) {
	mw.statusBar.SetText(text)
}

// OpenPath opens a document, reporting failures in the status bar.
func (mw *MainWindow) OpenPath(path string) {
	if err := mw.viewer.Open(context.Background(), path); err != nil {
		mw.log.Warn().Err(err).Str("path", path).Msg("open failed")
		return
	}
	mw.saveLastDir(path)
}

// getLastDir returns the last used directory as a ListableURI, or nil.
func (mw *MainWindow) getLastDir() fyne.ListableURI {
	path := mw.app.Preferences().String(prefKeyLastDir)
	if path == "" {
		return nil
	}
	listable, err := storage.ListerForURI(storage.NewFileURI(path))
	if err != nil {
		return nil
	}
	return listable
}

// saveLastDir saves the directory of the given file path.
func (mw *MainWindow) saveLastDir(filePath string) {
	mw.app.Preferences().SetString(prefKeyLastDir, filepath.Dir(filePath))
}

func (mw *MainWindow) onOpen() {
	dlg := dialog.NewFileOpen(func(reader fyne.URIReadCloser, err error) {
		if err != nil {
			dialog.ShowError(err, mw.Window)
			return
		}
		if reader == nil {
			return
		}
		path := reader.URI().Path()
		reader.Close()
		mw.OpenPath(path)
	}, mw.Window)
	dlg.SetFilter(storage.NewExtensionFileFilter(documentExtensions))
	if dir := mw.getLastDir(); dir != nil {
		dlg.SetLocation(dir)
	}
	dlg.Show()
}

// onExportPage saves the current page with its annotations and filters.
func (mw *MainWindow) onExportPage() {
	r := mw.viewer.Renderer()
	if r == nil {
		mw.updateStatus("No document open")
		return
	}
	page := mw.viewer.Page()
	dlg := dialog.NewFileSave(func(writer fyne.URIWriteCloser, err error) {
		if err != nil || writer == nil {
			return
		}
		defer writer.Close()

		img, err := r.ExportPage(context.Background(), page, mw.cfg.Render.ExportScale)
		if err == nil {
			err = png.Encode(writer, img)
		}
		if err != nil {
			mw.log.Error().Err(err).Int("page", page).Msg("export failed")
			dialog.ShowError(err, mw.Window)
			return
		}
		mw.updateStatus(fmt.Sprintf("Exported page %d to %s", page, writer.URI().Path()))
	}, mw.Window)
	dlg.SetFileName(fmt.Sprintf("page-%03d.png", page))
	dlg.Show()
}

func (mw *MainWindow) onSettings() {
	dialogs.NewSettingsDialog(mw.viewer.Settings(), mw.Window, func(err error) {
		if err == nil {
			mw.updateStatus("Settings saved")
		}
	}).Show()
}

func (mw *MainWindow) onAbout() {
	dialog.ShowInformation("About "+appTitle,
		fmt.Sprintf("%s %s\n\n"+
			"View PDFs and comic archives and annotate them with\n"+
			"highlights, drawings, text, images and signatures.",
			appTitle, version.String()),
		mw.Window)
}
