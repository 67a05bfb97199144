package colorutil

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHex(t *testing.T) {
	c, err := ParseHex("#FBF0E0")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xFB, G: 0xF0, B: 0xE0, A: 255}, c)

	c, err = ParseHex("#f0a")
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{R: 0xFF, G: 0x00, B: 0xAA, A: 255}, c)

	for _, bad := range []string{"", "FBF0E0", "#FBF0E", "#GGG", "#FBF0E0AA"} {
		_, err := ParseHex(bad)
		assert.Error(t, err, bad)
		assert.False(t, IsHex(bad), bad)
	}
}

func TestHexAndAlpha(t *testing.T) {
	assert.Equal(t, "#FFFF00", Hex(Yellow))
	assert.Equal(t, uint8(128), WithAlpha(Yellow, 0.5).A)
	assert.Equal(t, color.NRGBA{A: 255}, ParseHexOr("nope", color.NRGBA{A: 255}))
}
