// Package settings provides the JSON-backed user settings store: display
// filters, background warmth and tool defaults.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"pdf-annotator/internal/interaction"
	"pdf-annotator/pkg/colorutil"
)

const (
	appDir       = "pdf-annotator"
	settingsFile = "settings.json"
)

// Keys.
const (
	KeyWarmColor          = "warmColor"
	KeyInvertColors       = "invertColors"
	KeyGrayscale          = "grayscale"
	KeyBlueLightFilter    = "blueLightFilter"
	KeyBlueLightIntensity = "blueLightIntensity"
	KeyContrastLevel      = "contrastLevel"
	KeyInvertScroll       = "invertScroll"

	KeyHighlighterColor = "highlighterColor"
	KeyHighlighterSize  = "highlighterSize"
	KeyPencilColor      = "pencilColor"
	KeyPencilSize       = "pencilSize"
	KeyEraserSize       = "eraserSize"
	KeyTextFont         = "textFont"
	KeyTextSize         = "textSize"
	KeyTextColor        = "textColor"
)

// Defaults returns the value every key has before the user changes it.
func Defaults() map[string]interface{} {
	t := interaction.DefaultToolSettings()
	return map[string]interface{}{
		KeyWarmColor:          "#FBF0E0",
		KeyInvertColors:       false,
		KeyGrayscale:          false,
		KeyBlueLightFilter:    false,
		KeyBlueLightIntensity: 50.0,
		KeyContrastLevel:      100.0,
		KeyInvertScroll:       false,

		KeyHighlighterColor: t.Highlighter.Color,
		KeyHighlighterSize:  t.Highlighter.Size,
		KeyPencilColor:      t.Pencil.Color,
		KeyPencilSize:       t.Pencil.Size,
		KeyEraserSize:       t.EraserSize,
		KeyTextFont:         t.Text.Font,
		KeyTextSize:         t.Text.Size,
		KeyTextColor:        t.Text.Color,
	}
}

// ErrInvalidValue is returned by Set for values a key cannot hold.
var ErrInvalidValue = errors.New("invalid settings value")

// Listener is called with the keys whose values changed.
type Listener func(keys []string)

// Settings stores user settings as a key-value map persisted to JSON.
type Settings struct {
	mu        sync.RWMutex
	values    map[string]interface{}
	path      string
	saved     []byte
	listeners []Listener
	log       zerolog.Logger
}

// DefaultPath returns ~/.config/pdf-annotator/settings.json or the platform
// equivalent.
func DefaultPath() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(configDir, appDir, settingsFile)
}

// Open reads settings from path, or DefaultPath when path is empty. A
// missing file yields the defaults; an unreadable one is logged and also
// yields the defaults.
func Open(path string, log zerolog.Logger) *Settings {
	if path == "" {
		path = DefaultPath()
	}
	s := &Settings{
		values: make(map[string]interface{}),
		path:   path,
		log:    log.With().Str("component", "settings").Logger(),
	}
	if _, err := s.reload(); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.log.Warn().Err(err).Str("path", path).Msg("settings unreadable, using defaults")
	}
	return s
}

// Path returns the settings file location.
func (s *Settings) Path() string { return s.path }

// Save writes settings to disk.
func (s *Settings) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.values, "", "  ")
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("encode settings: %w", err)
	}
	s.saved = data
	s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	return nil
}

// Reload rereads the file and notifies listeners of keys that changed.
func (s *Settings) Reload() error {
	changed, err := s.reload()
	if err != nil {
		return err
	}
	s.notify(changed)
	return nil
}

func (s *Settings) reload() ([]string, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saved != nil && string(data) == string(s.saved) {
		return nil, nil
	}
	next := make(map[string]interface{})
	if err := json.Unmarshal(data, &next); err != nil {
		return nil, fmt.Errorf("parse settings: %w", err)
	}

	var changed []string
	for k := range union(s.values, next) {
		if fmt.Sprint(s.values[k]) != fmt.Sprint(next[k]) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	s.values = next
	s.saved = data
	return changed, nil
}

func union(a, b map[string]interface{}) map[string]struct{} {
	out := make(map[string]struct{}, len(a)+len(b))
	for k := range a {
		out[k] = struct{}{}
	}
	for k := range b {
		out[k] = struct{}{}
	}
	return out
}

// OnChange registers a listener. Listeners run on the goroutine that made
// the change, which is the watcher goroutine for edits made on disk.
func (s *Settings) OnChange(fn Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *Settings) notify(keys []string) {
	if len(keys) == 0 {
		return
	}
	s.mu.RLock()
	listeners := make([]Listener, len(s.listeners))
	copy(listeners, s.listeners)
	s.mu.RUnlock()
	for _, fn := range listeners {
		fn(keys)
	}
}

func (s *Settings) lookup(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if v, ok := s.values[key]; ok {
		return v, true
	}
	v, ok := Defaults()[key]
	return v, ok
}

// Float returns a numeric setting, falling back to its default.
func (s *Settings) Float(key string) float64 {
	v, _ := s.lookup(key)
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	}
	if d, ok := Defaults()[key].(float64); ok {
		return d
	}
	return 0
}

// String returns a string setting, falling back to its default.
func (s *Settings) String(key string) string {
	v, _ := s.lookup(key)
	if str, ok := v.(string); ok {
		return str
	}
	d, _ := Defaults()[key].(string)
	return d
}

// Bool returns a boolean setting, falling back to its default.
func (s *Settings) Bool(key string) bool {
	v, _ := s.lookup(key)
	if b, ok := v.(bool); ok {
		return b
	}
	d, _ := Defaults()[key].(bool)
	return d
}

// Set stores a value and notifies listeners when it changed. Color keys
// must be hex colors; percentages must lie in their slider range.
func (s *Settings) Set(key string, value interface{}) error {
	if err := validate(key, value); err != nil {
		return err
	}
	if n, ok := value.(int); ok {
		value = float64(n)
	}

	s.mu.Lock()
	old, had := s.values[key]
	s.values[key] = value
	s.mu.Unlock()

	if had && fmt.Sprint(old) == fmt.Sprint(value) {
		return nil
	}
	s.notify([]string{key})
	return nil
}

func validate(key string, value interface{}) error {
	def, known := Defaults()[key]
	if !known {
		return fmt.Errorf("%w: unknown key %q", ErrInvalidValue, key)
	}
	switch def.(type) {
	case bool:
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("%w: %s wants a bool", ErrInvalidValue, key)
		}
	case string:
		str, ok := value.(string)
		if !ok {
			return fmt.Errorf("%w: %s wants a string", ErrInvalidValue, key)
		}
		if isColorKey(key) && !colorutil.IsHex(str) {
			return fmt.Errorf("%w: %s is not a hex color: %q", ErrInvalidValue, key, str)
		}
	case float64:
		var n float64
		switch v := value.(type) {
		case float64:
			n = v
		case int:
			n = float64(v)
		default:
			return fmt.Errorf("%w: %s wants a number", ErrInvalidValue, key)
		}
		lo, hi := rangeOf(key)
		if n < lo || n > hi {
			return fmt.Errorf("%w: %s must be between %v and %v", ErrInvalidValue, key, lo, hi)
		}
	}
	return nil
}

func isColorKey(key string) bool {
	switch key {
	case KeyWarmColor, KeyHighlighterColor, KeyPencilColor, KeyTextColor:
		return true
	}
	return false
}

func rangeOf(key string) (float64, float64) {
	switch key {
	case KeyBlueLightIntensity:
		return 0, 100
	case KeyContrastLevel:
		return 50, 200
	}
	return 1, 200
}

// Filters are the display filters applied to page rasters.
type Filters struct {
	Invert             bool
	Grayscale          bool
	BlueLight          bool
	BlueLightIntensity float64 // percent
	Contrast           float64 // percent, 100 is unchanged
}

// Filters returns the current display filters.
func (s *Settings) Filters() Filters {
	return Filters{
		Invert:             s.Bool(KeyInvertColors),
		Grayscale:          s.Bool(KeyGrayscale),
		BlueLight:          s.Bool(KeyBlueLightFilter),
		BlueLightIntensity: s.Float(KeyBlueLightIntensity),
		Contrast:           s.Float(KeyContrastLevel),
	}
}

// IsFilterKey reports whether changing key changes the page rasters.
func IsFilterKey(key string) bool {
	switch key {
	case KeyInvertColors, KeyGrayscale, KeyBlueLightFilter, KeyBlueLightIntensity, KeyContrastLevel:
		return true
	}
	return false
}

// Tools returns the tool defaults.
func (s *Settings) Tools() interaction.ToolSettings {
	return interaction.ToolSettings{
		Highlighter: interaction.StrokeStyle{Color: s.String(KeyHighlighterColor), Size: s.Float(KeyHighlighterSize)},
		Pencil:      interaction.StrokeStyle{Color: s.String(KeyPencilColor), Size: s.Float(KeyPencilSize)},
		EraserSize:  s.Float(KeyEraserSize),
		Text: interaction.TextStyle{
			Font:  s.String(KeyTextFont),
			Size:  s.Float(KeyTextSize),
			Color: s.String(KeyTextColor),
		},
	}
}
