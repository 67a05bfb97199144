package replay

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/internal/interaction"
	"pdf-annotator/internal/raster"
	"pdf-annotator/pkg/geometry"
)

func newPlayer(t *testing.T) (*Player, *interaction.Controller, *annotation.Store) {
	t.Helper()
	p := NewPlayer(zerolog.Nop())
	store := annotation.NewStore()
	c := interaction.NewController(store, interaction.Options{
		Editor:    p,
		Picker:    p,
		Signature: p,
		Logger:    zerolog.Nop(),
	})
	return p, c, store
}

func pageViewport(page int) (geometry.Viewport, bool) {
	if page > 2 {
		return geometry.Viewport{}, false
	}
	return geometry.MustViewport(geometry.NewSize(600, 800), 1, 0), true
}

func TestParse(t *testing.T) {
	s, err := Parse([]byte(`
steps:
  - tool: pencil
  - action: down
    page: 1
    x: 10
    y: 20
  - action: wait
    wait: 15ms
`))
	require.NoError(t, err)
	assert.Equal(t, 1.0, s.Zoom)
	require.Len(t, s.Steps, 3)
	assert.Equal(t, "pencil", s.Steps[0].Tool)
	assert.Equal(t, Step{Action: "down", Page: 1, X: 10, Y: 20}, s.Steps[1])
	assert.Equal(t, 15*time.Millisecond, s.Steps[2].Wait)
}

func TestParseRejectsBadSteps(t *testing.T) {
	cases := map[string]string{
		"unknown tool":   "steps:\n  - tool: crayon\n",
		"unknown action": "steps:\n  - action: jump\n",
		"missing page":   "steps:\n  - action: click\n",
		"both":           "steps:\n  - tool: hand\n    action: click\n    page: 1\n",
		"empty":          "steps:\n  - {}\n",
		"zoom":           "zoom: -1\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(src))
			assert.Error(t, err)
		})
	}
}

func TestRunDrawsPencilStroke(t *testing.T) {
	p, c, store := newPlayer(t)
	s := &Script{Zoom: 1, Steps: []Step{
		{Tool: "pencil"},
		{Action: "down", Page: 2, X: 10, Y: 10},
		{Action: "move", Page: 2, X: 40, Y: 10},
		{Action: "move", Page: 2, X: 80, Y: 12},
		{Action: "up", Page: 2, X: 80, Y: 12},
	}}

	require.NoError(t, p.Run(context.Background(), s, c, pageViewport))
	require.Equal(t, 1, store.Len(2))
	_, ok := store.Snapshot(2)[0].(*annotation.Pencil)
	assert.True(t, ok)
	assert.Equal(t, []int{2}, p.Touched())
}

func TestRunCommitsText(t *testing.T) {
	p, c, store := newPlayer(t)
	s := &Script{Zoom: 1, Steps: []Step{
		{Tool: "text"},
		{Action: "down", Page: 1, X: 10, Y: 10},
		{Action: "move", Page: 1, X: 110, Y: 40},
		{Action: "up", Page: 1, X: 110, Y: 40},
		{Action: "text", Text: "approved"},
	}}

	require.NoError(t, p.Run(context.Background(), s, c, pageViewport))
	require.Equal(t, 1, store.Len(1))
	txt := store.Snapshot(1)[0].(*annotation.Text)
	assert.Equal(t, "approved", txt.Content)
}

func TestRunDiscardsUncommittedText(t *testing.T) {
	p, c, store := newPlayer(t)
	s := &Script{Zoom: 1, Steps: []Step{
		{Tool: "text"},
		{Action: "down", Page: 1, X: 10, Y: 10},
		{Action: "up", Page: 1, X: 60, Y: 30},
	}}
	require.NoError(t, p.Run(context.Background(), s, c, pageViewport))
	assert.Equal(t, 0, store.Len(1))
}

func TestRunPlacesImage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stamp.png")
	img := image.NewRGBA(image.Rect(0, 0, 40, 20))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})
	require.NoError(t, raster.SavePNG(path, img))

	p, c, store := newPlayer(t)
	s := &Script{Zoom: 1, Steps: []Step{
		{Tool: "image"},
		{Action: "click", Page: 1, X: 100, Y: 100, Image: path},
	}}
	require.NoError(t, p.Run(context.Background(), s, c, pageViewport))

	require.Equal(t, 1, store.Len(1))
	placed := store.Snapshot(1)[0].(*annotation.Image)
	assert.True(t, strings.HasPrefix(placed.Src, "data:image/png;base64,"))
	assert.Equal(t, interaction.ToolNone, c.ActiveTool())
}

func TestRunErrors(t *testing.T) {
	p, c, _ := newPlayer(t)

	err := p.Run(context.Background(), &Script{Steps: []Step{{Action: "text", Text: "x"}}}, c, pageViewport)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 1")

	err = p.Run(context.Background(), &Script{Steps: []Step{{Action: "click", Page: 9}}}, c, pageViewport)
	assert.ErrorContains(t, err, "page 9")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = p.Run(ctx, &Script{Steps: []Step{{Tool: "hand"}}}, c, pageViewport)
	assert.ErrorIs(t, err, context.Canceled)
}
