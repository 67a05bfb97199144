package textsnap

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/pkg/geometry"
)

var page = geometry.NewSize(600, 800)

func stroke(x0, x1, y float64) []geometry.Point {
	var pts []geometry.Point
	for x := x0; x <= x1; x += 5 {
		pts = append(pts, geometry.Pt(x, y))
	}
	return pts
}

func TestSnapMergesAdjacentWords(t *testing.T) {
	vp := geometry.MustViewport(page, 1, 0)
	spans := []geometry.Rect{
		{X: 53, Y: 100, Width: 40, Height: 12},
		{X: 10, Y: 100, Width: 40, Height: 12},
	}
	got, ok := Snap(stroke(20, 70, 106), spans, vp)
	require.True(t, ok)
	want := []geometry.Rect{{X: 10, Y: 100, Width: 83, Height: 12}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("merged rects mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapNoSpansFallsBack(t *testing.T) {
	vp := geometry.MustViewport(page, 1, 0)
	spans := []geometry.Rect{{X: 10, Y: 300, Width: 40, Height: 12}}
	got, ok := Snap(stroke(20, 70, 106), spans, vp)
	assert.False(t, ok)
	assert.Empty(t, got)

	_, ok = Snap(stroke(20, 70, 106), nil, vp)
	assert.False(t, ok)
}

func TestSnapKeepsDistantWordsApart(t *testing.T) {
	vp := geometry.MustViewport(page, 1, 0)
	spans := []geometry.Rect{
		{X: 10, Y: 100, Width: 40, Height: 12},
		{X: 70, Y: 100, Width: 40, Height: 12},
	}
	got, ok := Snap(stroke(10, 110, 106), spans, vp)
	require.True(t, ok)
	assert.Len(t, got, 2)
}

func TestSnapGroupsLinesAndUnionsHeights(t *testing.T) {
	vp := geometry.MustViewport(page, 1, 0)
	spans := []geometry.Rect{
		{X: 10, Y: 100, Width: 40, Height: 12},
		{X: 52, Y: 103, Width: 40, Height: 12},
		{X: 10, Y: 130, Width: 40, Height: 12},
	}
	path := []geometry.Point{{X: 15, Y: 105}, {X: 60, Y: 135}}
	got, ok := Snap(path, spans, vp)
	require.True(t, ok)
	want := []geometry.Rect{
		{X: 10, Y: 100, Width: 82, Height: 15},
		{X: 10, Y: 130, Width: 40, Height: 12},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("lines mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapConvertsToDocumentSpace(t *testing.T) {
	vp := geometry.MustViewport(page, 2, 0)
	spans := []geometry.Rect{
		{X: 20, Y: 200, Width: 80, Height: 24},
		{X: 104, Y: 200, Width: 80, Height: 24},
	}
	got, ok := Snap(stroke(20, 60, 106), spans, vp)
	require.True(t, ok)
	want := []geometry.Rect{{X: 10, Y: 100, Width: 82, Height: 12}}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-9)); diff != "" {
		t.Errorf("document rects mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapTouchingEdgeCounts(t *testing.T) {
	vp := geometry.MustViewport(page, 1, 0)
	spans := []geometry.Rect{{X: 70, Y: 100, Width: 40, Height: 12}}
	_, ok := Snap(stroke(20, 70, 106), spans, vp)
	assert.True(t, ok)
}
