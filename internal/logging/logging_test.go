package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutputCarriesComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "debug", Format: "json", Output: &buf, Component: "render"})
	log.Debug().Int("page", 3).Msg("slot rendered")

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "render", rec["component"])
	assert.Equal(t, "slot rendered", rec["message"])
	assert.EqualValues(t, 3, rec["page"])
	assert.Equal(t, "debug", rec["level"])
}

func TestLevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Output: &buf})
	log.Info().Msg("hidden")
	assert.Zero(t, buf.Len())
	log.Warn().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Format: "console", Output: &buf})
	log.Info().Str("tool", "pencil").Msg("tool toggled")
	out := buf.String()
	assert.Contains(t, out, "tool toggled")
	assert.Contains(t, out, "pencil")
	assert.False(t, json.Valid(buf.Bytes()))
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zerolog.Disabled, ParseLevel("off"))
	assert.Equal(t, zerolog.InfoLevel, ParseLevel("chatty"))
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	l := Component(New(Config{Output: &buf}), "archive")
	l.Info().Msg("x")
	assert.Contains(t, buf.String(), `"component":"archive"`)
}
