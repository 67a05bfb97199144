// Package main provides the entry point for the PDF Annotator application.
package main

import (
	"fmt"
	"os"

	fyneapp "fyne.io/fyne/v2/app"
	"github.com/rs/zerolog"

	"pdf-annotator/internal/app"
	"pdf-annotator/internal/config"
	"pdf-annotator/internal/document"
	"pdf-annotator/internal/logging"
	"pdf-annotator/internal/ocr"
	"pdf-annotator/internal/settings"
	"pdf-annotator/internal/version"
	"pdf-annotator/ui/mainwindow"
)

const appID = "io.github.pdfannotator"

func main() {
	if err := config.LoadEnvFiles(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
	}
	cfg, err := config.Load(os.Getenv("PDFA_CONFIG"))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	log := logging.New(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	log.Info().Str("version", version.String()).Msg("starting")

	s := settings.Open(cfg.Settings.Path, log)
	if cfg.Settings.Watch {
		w, err := s.Watch()
		if err != nil {
			log.Warn().Err(err).Msg("settings watch unavailable")
		} else {
			defer w.Stop()
		}
	}

	words, closeOCR := openOCR(cfg, log)
	defer closeOCR()

	a := fyneapp.NewWithID(appID)
	a.Settings().SetTheme(app.NewTheme(s))

	win, err := mainwindow.New(a, mainwindow.Options{
		Config:   *cfg,
		Settings: s,
		Words:    words,
		Logger:   log,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create window")
	}

	if len(os.Args) > 1 {
		win.OpenPath(os.Args[1])
	}
	win.ShowAndRun()
}

// openOCR starts the recognizer for comic pages when enabled. A failure
// leaves image pages without a text layer.
func openOCR(cfg *config.Config, log zerolog.Logger) (document.WordRecognizer, func()) {
	if !cfg.OCR.Enabled {
		return nil, func() {}
	}
	engine, err := ocr.NewEngine(cfg.OCR.Language)
	if err != nil {
		log.Warn().Err(err).Str("language", cfg.OCR.Language).Msg("OCR disabled")
		return nil, func() {}
	}
	return engine, func() {
		if err := engine.Close(); err != nil {
			log.Warn().Err(err).Msg("failed to close OCR engine")
		}
	}
}
