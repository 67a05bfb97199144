// Package config holds process configuration for the viewer and the CLI:
// logging, render concurrency, OCR and font locations.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration.
type Config struct {
	Log      LogConfig      `yaml:"log"`
	Render   RenderConfig   `yaml:"render"`
	OCR      OCRConfig      `yaml:"ocr"`
	Fonts    FontConfig     `yaml:"fonts"`
	Settings SettingsConfig `yaml:"settings"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json or console
}

// RenderConfig holds page rendering settings.
type RenderConfig struct {
	// Concurrency caps page loads running at once.
	Concurrency int `yaml:"concurrency"`
	// ExportScale is the render scale used for export.
	ExportScale float64 `yaml:"export_scale"`
	// Margin extends the visible region when deciding which slots to load.
	Margin float64 `yaml:"margin"`
	// Gap separates slots in the scroll container.
	Gap float64 `yaml:"gap"`
}

// OCRConfig configures text recognition for image pages.
type OCRConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Language string `yaml:"language"`
}

// FontConfig locates the font used for text annotations. An empty path uses
// the embedded Go font.
type FontConfig struct {
	Path string `yaml:"path"`
}

// SettingsConfig locates the user settings file. An empty path means the
// user config directory.
type SettingsConfig struct {
	Path  string `yaml:"path"`
	Watch bool   `yaml:"watch"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Render: RenderConfig{
			Concurrency: 4,
			ExportScale: 2.0,
			Margin:      500,
			Gap:         10,
		},
		OCR: OCRConfig{
			Enabled:  false,
			Language: "eng",
		},
		Settings: SettingsConfig{
			Watch: true,
		},
	}
}

// Load reads configuration from a YAML file, applies environment overrides
// and validates the result. An empty path uses the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
		if cfg.Fonts.Path != "" {
			cfg.Fonts.Path = ResolveRelativePath(path, cfg.Fonts.Path)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// LoadEnvFiles loads .env files into the process environment. Missing files
// are skipped; variables already set are kept.
func LoadEnvFiles(paths ...string) error {
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load env file %s: %w", p, err)
		}
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}
	if c.Render.Concurrency < 1 || c.Render.Concurrency > 64 {
		return fmt.Errorf("render concurrency must be between 1 and 64, got %d", c.Render.Concurrency)
	}
	if c.Render.ExportScale <= 0 || c.Render.ExportScale > 8 {
		return fmt.Errorf("invalid export scale: %v", c.Render.ExportScale)
	}
	if c.Render.Margin < 0 || c.Render.Gap < 0 {
		return fmt.Errorf("render margin and gap must not be negative")
	}
	if c.OCR.Enabled && c.OCR.Language == "" {
		return fmt.Errorf("ocr language is required when ocr is enabled")
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PDFA_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("PDFA_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("PDFA_RENDER_CONCURRENCY"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Render.Concurrency = n
		}
	}
	if v := os.Getenv("PDFA_OCR_LANGUAGE"); v != "" {
		cfg.OCR.Language = v
		cfg.OCR.Enabled = true
	}
	if v := os.Getenv("PDFA_FONT_PATH"); v != "" {
		cfg.Fonts.Path = v
	}
}

// ResolveRelativePath resolves targetPath relative to the directory holding
// configPath.
func ResolveRelativePath(configPath, targetPath string) string {
	if filepath.IsAbs(targetPath) {
		return targetPath
	}
	return filepath.Join(filepath.Dir(configPath), targetPath)
}
