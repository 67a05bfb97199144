package settings

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/internal/interaction"
)

func openTemp(t *testing.T) *Settings {
	t.Helper()
	return Open(filepath.Join(t.TempDir(), "settings.json"), zerolog.Nop())
}

func TestDefaults(t *testing.T) {
	s := openTemp(t)
	assert.Equal(t, "#FBF0E0", s.String(KeyWarmColor))
	assert.Equal(t, 50.0, s.Float(KeyBlueLightIntensity))
	assert.Equal(t, 100.0, s.Float(KeyContrastLevel))
	assert.False(t, s.Bool(KeyInvertColors))
	assert.Equal(t, interaction.DefaultToolSettings(), s.Tools())
	assert.Equal(t, Filters{BlueLightIntensity: 50, Contrast: 100}, s.Filters())
}

func TestSetValidates(t *testing.T) {
	s := openTemp(t)
	assert.ErrorIs(t, s.Set(KeyWarmColor, "beige"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(KeyContrastLevel, 300), ErrInvalidValue)
	assert.ErrorIs(t, s.Set(KeyGrayscale, "yes"), ErrInvalidValue)
	assert.ErrorIs(t, s.Set("fontSmoothing", true), ErrInvalidValue)

	require.NoError(t, s.Set(KeyWarmColor, "#abc"))
	require.NoError(t, s.Set(KeyContrastLevel, 120))
	assert.Equal(t, "#abc", s.String(KeyWarmColor))
	assert.Equal(t, 120.0, s.Float(KeyContrastLevel))
}

func TestSaveAndReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "settings.json")
	s := Open(path, zerolog.Nop())
	require.NoError(t, s.Set(KeyInvertColors, true))
	require.NoError(t, s.Set(KeyPencilSize, 5))
	require.NoError(t, s.Save())

	again := Open(path, zerolog.Nop())
	assert.True(t, again.Bool(KeyInvertColors))
	assert.Equal(t, 5.0, again.Tools().Pencil.Size)
}

func TestCorruptFileFallsBackToDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	s := Open(path, zerolog.Nop())
	assert.Equal(t, "#FBF0E0", s.String(KeyWarmColor))
}

func TestListenersSeeChangedKeys(t *testing.T) {
	s := openTemp(t)
	var got [][]string
	s.OnChange(func(keys []string) { got = append(got, keys) })

	require.NoError(t, s.Set(KeyGrayscale, true))
	require.NoError(t, s.Set(KeyGrayscale, true))
	assert.Equal(t, [][]string{{KeyGrayscale}}, got, "unchanged value is not reported")
}

func TestIsFilterKey(t *testing.T) {
	assert.True(t, IsFilterKey(KeyContrastLevel))
	assert.False(t, IsFilterKey(KeyWarmColor))
	assert.False(t, IsFilterKey(KeyPencilColor))
}

func TestWatcherReloadsExternalEdits(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	s := Open(path, zerolog.Nop())
	require.NoError(t, s.Save())

	var mu sync.Mutex
	var seen []string
	s.OnChange(func(keys []string) {
		mu.Lock()
		seen = append(seen, keys...)
		mu.Unlock()
	})

	w, err := s.Watch()
	require.NoError(t, err)
	defer w.Stop()

	other := Open(path, zerolog.Nop())
	require.NoError(t, other.Set(KeyBlueLightFilter, true))
	require.NoError(t, other.Save())

	require.Eventually(t, func() bool { return s.Bool(KeyBlueLightFilter) }, 2*time.Second, 10*time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	assert.Contains(t, seen, KeyBlueLightFilter)
}
