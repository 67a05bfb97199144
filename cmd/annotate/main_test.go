package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	settingsPath := filepath.Join(t.TempDir(), "settings.json")
	root := newRootCmd()
	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--no-color", "--settings", settingsPath}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeComic(t *testing.T, pages int) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "issue.cbz")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for i := 1; i <= pages; i++ {
		w, err := zw.Create(fmt.Sprintf("pages/p%d.png", i))
		require.NoError(t, err)
		img := image.NewRGBA(image.Rect(0, 0, 60, 80))
		for y := 0; y < 80; y++ {
			for x := 0; x < 60; x++ {
				img.Set(x, y, color.RGBA{R: 200, G: 200, B: 200, A: 255})
			}
		}
		require.NoError(t, png.Encode(w, img))
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
	return path
}

func TestLayoutCommand(t *testing.T) {
	out, err := run(t, "layout", "--pages", "5", "--spread", "odd")
	require.NoError(t, err)
	assert.Equal(t, "slot 1: 1\nslot 2: 2 | 3\nslot 3: 4 | 5\n", out)

	out, err = run(t, "layout", "-n", "3", "-s", "even", "--yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "spread: even")
	assert.Contains(t, out, "- 1\n")

	_, err = run(t, "layout", "--pages", "0")
	assert.Error(t, err)
	_, err = run(t, "layout", "--pages", "4", "--spread", "sideways")
	assert.Error(t, err)
}

func TestInfoCommand(t *testing.T) {
	path := writeComic(t, 3)
	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "comic archive")
	assert.Contains(t, out, "issue.cbz")
	assert.Contains(t, out, "Pages:     3")
	assert.Contains(t, out, "Author:    N/A")

	_, err = run(t, "info", filepath.Join(t.TempDir(), "missing.cbz"))
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	path := writeComic(t, 3)
	dir := t.TempDir()
	out, err := run(t, "export", path, "-o", dir, "-p", "1", "-p", "3", "--scale", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 page(s)")

	assert.FileExists(t, filepath.Join(dir, "page-001.png"))
	assert.NoFileExists(t, filepath.Join(dir, "page-002.png"))
	f, err := os.Open(filepath.Join(dir, "page-003.png"))
	require.NoError(t, err)
	defer f.Close()
	cfg, err := png.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, 60, cfg.Width)
	assert.Equal(t, 80, cfg.Height)
}

func TestReplayCommand(t *testing.T) {
	path := writeComic(t, 2)
	script := filepath.Join(t.TempDir(), "script.yaml")
	require.NoError(t, os.WriteFile(script, []byte(`
steps:
  - tool: pencil
  - {action: down, page: 2, x: 5, y: 5}
  - {action: move, page: 2, x: 30, y: 40}
  - {action: up, page: 2, x: 30, y: 40}
`), 0o644))

	dir := t.TempDir()
	out, err := run(t, "replay", path, script, "-o", dir, "--scale", "1")
	require.NoError(t, err)
	assert.Contains(t, out, "replayed 4 step(s), exported 1 page(s)")
	assert.FileExists(t, filepath.Join(dir, "page-002.png"))
	assert.NoFileExists(t, filepath.Join(dir, "page-001.png"))
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "annotate 0.1.0")
}
