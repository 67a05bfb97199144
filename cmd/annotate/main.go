// Package main provides the annotate CLI: headless document inspection,
// layout planning, export and scripted annotation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"pdf-annotator/internal/app"
	"pdf-annotator/internal/config"
	"pdf-annotator/internal/document"
	"pdf-annotator/internal/logging"
	"pdf-annotator/internal/ocr"
	"pdf-annotator/internal/settings"
	"pdf-annotator/internal/version"
)

var (
	// Global flags
	cfgFile      string
	settingsFile string
	verbose      bool
	noColor      bool

	cfg    *config.Config
	logger zerolog.Logger
)

var rootCmd = newRootCmd()

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "annotate",
		Short: "Inspect, export and annotate PDFs and comic archives",
		Long: `annotate works on the documents the PDF Annotator opens, without a window.

Use it to:
- Print document metadata and the page layout plan
- Export pages to PNG with the display filters from the settings file
- Replay scripted tool and pointer input to stamp annotations onto pages`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := config.LoadEnvFiles(".env"); err != nil {
				return err
			}
			var err error
			cfg, err = config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if settingsFile != "" {
				cfg.Settings.Path = settingsFile
			}
			level := cfg.Log.Level
			if verbose {
				level = "debug"
			}
			logger = logging.New(logging.Config{
				Level:     level,
				Format:    cfg.Log.Format,
				Output:    cmd.ErrOrStderr(),
				Component: "annotate",
			})
			color.NoColor = color.NoColor || noColor
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default: built-in and env vars)")
	root.PersistentFlags().StringVar(&settingsFile, "settings", "", "settings file path (default: user config dir)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	root.AddCommand(newInfoCmd())
	root.AddCommand(newLayoutCmd())
	root.AddCommand(newExportCmd())
	root.AddCommand(newReplayCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "annotate %s\n", version.String())
		},
	})
	return root
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// session is a headless viewer over one document.
type session struct {
	viewer *app.Viewer
	ocr    *ocr.Engine
}

// openSession loads path into a viewer without a UI. Extra options set the
// viewer's collaborators.
func openSession(ctx context.Context, path string, extra func(*app.Options)) (*session, error) {
	s := &session{}
	opts := app.Options{
		Config:   *cfg,
		Settings: settings.Open(cfg.Settings.Path, logger),
		Logger:   logger,
	}
	if cfg.OCR.Enabled {
		engine, err := ocr.NewEngine(cfg.OCR.Language)
		if err != nil {
			logger.Warn().Err(err).Msg("OCR disabled")
		} else {
			s.ocr = engine
			opts.Words = engine
		}
	}
	if extra != nil {
		extra(&opts)
	}

	v, err := app.NewViewer(opts)
	if err != nil {
		s.close()
		return nil, err
	}
	s.viewer = v
	if err := v.Open(ctx, path); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}

func (s *session) document() document.Provider {
	doc, _ := s.viewer.Document()
	return doc
}

func (s *session) close() {
	if s.viewer != nil {
		if err := s.viewer.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close document")
		}
	}
	if s.ocr != nil {
		if err := s.ocr.Close(); err != nil {
			logger.Warn().Err(err).Msg("failed to close OCR engine")
		}
	}
}
