package annotation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/pkg/geometry"
)

type fixedMeasurer float64

func (m fixedMeasurer) Measure(text, font string, size float64) float64 {
	return float64(m) * float64(len(text))
}

func TestStoreAddAssignsIDs(t *testing.T) {
	s := NewStore()
	i := s.Add(1, &Pencil{Color: "#000000", Size: 3})
	assert.Equal(t, 0, i)
	a, ok := s.At(1, 0)
	require.True(t, ok)
	assert.NotEmpty(t, a.ID())

	kept := &Text{Meta: Meta{UID: "fixed"}, Content: "x"}
	s.Add(1, kept)
	assert.Equal(t, "fixed", kept.ID())
	assert.Equal(t, 2, s.Len(1))
	assert.Equal(t, 0, s.Len(2))
}

func TestStoreByIDSurvivesShift(t *testing.T) {
	s := NewStore()
	s.Add(3, &Text{Content: "first"})
	s.Add(3, &Highlight{Color: "#FFFF00", Size: 20})
	a, _ := s.At(3, 1)
	id := a.ID()

	require.True(t, s.Remove(3, 0))

	require.True(t, s.MutateByID(3, id, func(a Annotation) { a.(*Highlight).Size = 30 }))
	moved, _ := s.At(3, 0)
	assert.Equal(t, 30.0, moved.(*Highlight).Size)
	require.True(t, s.ReplaceByID(3, id, &Highlight{Rects: []geometry.Rect{{X: 1, Y: 2, Width: 3, Height: 4}}}))
	cur, _ := s.At(3, 0)
	assert.Equal(t, id, cur.ID())
	assert.True(t, cur.(*Highlight).Snapped())

	require.True(t, s.RemoveByID(3, id))
	assert.Equal(t, 0, s.Len(3))
	assert.False(t, s.ReplaceByID(3, id, &Pencil{}))
	assert.False(t, s.MutateByID(3, id, func(Annotation) {}))
	assert.False(t, s.RemoveByID(3, id))
}

func TestStoreRemoveIfKeepsOrder(t *testing.T) {
	s := NewStore()
	for _, c := range []string{"a", "b", "c", "d"} {
		s.Add(1, &Text{Content: c, Size: 10})
	}
	n := s.RemoveIf(1, func(a Annotation) bool {
		c := a.(*Text).Content
		return c == "b" || c == "d"
	})
	assert.Equal(t, 2, n)
	var got []string
	for _, a := range s.Snapshot(1) {
		got = append(got, a.(*Text).Content)
	}
	assert.Equal(t, []string{"a", "c"}, got)
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore()
	s.Add(1, &Pencil{Paths: [][]geometry.Point{{{X: 1, Y: 1}}}})
	snap := s.Snapshot(1)

	s.Mutate(1, 0, func(a Annotation) {
		p := a.(*Pencil)
		p.Paths[0][0].X = 99
		p.Paths[0] = append(p.Paths[0], geometry.Pt(2, 2))
	})
	s.Add(1, &Pencil{})

	require.Len(t, snap, 1)
	assert.Equal(t, 1.0, snap[0].(*Pencil).Paths[0][0].X)
	assert.Len(t, snap[0].(*Pencil).Paths[0], 1)
}

func TestStorePagesAndClear(t *testing.T) {
	s := NewStore()
	s.Add(5, &Pencil{})
	s.Add(2, &Pencil{})
	s.Add(9, &Pencil{})
	s.Remove(9, 0)
	assert.Equal(t, []int{2, 5}, s.Pages())
	s.Clear()
	assert.Empty(t, s.Pages())
}

func TestBounds(t *testing.T) {
	h := &Highlight{
		Paths: [][]geometry.Point{{{X: 0, Y: 0}, {X: 10, Y: 5}}},
		Rects: []geometry.Rect{{X: 20, Y: 20, Width: 5, Height: 5}},
	}
	assert.Equal(t, geometry.NewRect(0, 0, 25, 25), h.Bounds())

	img := &Image{X: 1, Y: 2, Width: 3, Height: 4}
	img.SetBox(geometry.NewRect(5, 6, 7, 8))
	assert.Equal(t, geometry.NewRect(5, 6, 7, 8), img.Bounds())
}

func TestLegacyTextRepair(t *testing.T) {
	txt := &Text{Content: "hello", Size: 10}
	w, h := FallbackSize(txt)
	assert.InDelta(t, 30, w, 1e-9)
	assert.Equal(t, 10.0, h)
	assert.Equal(t, geometry.NewRect(0, 0, 30, 10), txt.Box())

	require.True(t, Upgrade(txt, fixedMeasurer(4)))
	assert.Equal(t, 20.0, txt.Width)
	assert.Equal(t, 10.0, txt.Height)
	assert.False(t, Upgrade(txt, fixedMeasurer(100)), "repair runs once")
	assert.Equal(t, 20.0, txt.Width)

	empty := &Text{Size: 12}
	w, _ = FallbackSize(empty)
	assert.InDelta(t, 7.2, w, 1e-9)

	assert.False(t, Upgrade(&Pencil{}, nil))
}

func TestStoreUpgrade(t *testing.T) {
	s := NewStore()
	s.Add(1, &Text{Content: "ab", Size: 8})
	s.Add(1, &Text{Content: "ok", Size: 8, Width: 5, Height: 8})
	s.Add(2, &Image{Width: 1, Height: 1})
	assert.Equal(t, 1, s.Upgrade(fixedMeasurer(3)))
}
