package selection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/pkg/geometry"
)

func TestStateInvariant(t *testing.T) {
	s := NewState()
	assert.False(t, s.HasSelection())
	assert.Equal(t, -1, s.Index)

	s.Select(3, 1)
	s.Dragging = true
	assert.True(t, s.IsSelected(3, 1))
	assert.False(t, s.IsSelected(3, 0))

	s.Select(4, 0)
	assert.False(t, s.Dragging)
	assert.True(t, s.IsSelected(4, 0))
	assert.False(t, s.IsSelected(3, 1), "only one selection at a time")

	s.Clear()
	assert.Equal(t, 0, s.Page)
	assert.Equal(t, -1, s.Index)
}

func TestAffectedPages(t *testing.T) {
	before, after := NewState(), NewState()
	before.Select(2, 0)
	after.Select(5, 1)
	assert.Equal(t, []int{2, 5}, AffectedPages(before, after))

	after.Select(2, 3)
	assert.Equal(t, []int{2}, AffectedPages(before, after))
	assert.Empty(t, AffectedPages(NewState(), NewState()))
}

func TestHitTestTopmostBoxOnly(t *testing.T) {
	list := []annotation.Annotation{
		&annotation.Image{X: 0, Y: 0, Width: 100, Height: 100},
		&annotation.Pencil{Paths: [][]geometry.Point{{{X: 50, Y: 50}, {X: 60, Y: 60}}}},
		&annotation.Text{Content: "abc", X: 40, Y: 40, Size: 10},
	}
	i, ok := HitTest(list, geometry.Pt(45, 45))
	require.True(t, ok)
	assert.Equal(t, 2, i)

	i, ok = HitTest(list, geometry.Pt(90, 90))
	require.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = HitTest(list, geometry.Pt(200, 200))
	assert.False(t, ok)

	_, ok = HitTest(list[1:2], geometry.Pt(55, 55))
	assert.False(t, ok, "strokes are not selectable")
}

func TestHandles(t *testing.T) {
	vp := geometry.MustViewport(geometry.NewSize(600, 800), 2, 0)
	hs := Handles(geometry.NewRect(10, 20, 30, 40), vp)
	require.Len(t, hs, 8)

	assert.Equal(t, TopLeft, hs[0].ID)
	assert.Equal(t, geometry.NewRect(16, 36, 8, 8), hs[0].Rect)
	assert.Equal(t, BottomRight, hs[7].ID)
	assert.Equal(t, geometry.NewRect(76, 116, 8, 8), hs[7].Rect)
	assert.Equal(t, "ns-resize", hs[1].Cursor)
	assert.Equal(t, "nesw-resize", hs[5].Cursor)

	h, ok := HandleAt(hs, geometry.Pt(80, 120))
	require.True(t, ok)
	assert.Equal(t, BottomRight, h.ID)
	_, ok = HandleAt(hs, geometry.Pt(50, 70))
	assert.False(t, ok)

	assert.Empty(t, Handles(geometry.NewRect(1, 1, 0, 10), vp))
}

func TestStoredBoxIgnoresTextEstimate(t *testing.T) {
	txt := &annotation.Text{Content: "abc", X: 1, Y: 2, Size: 10}
	assert.Equal(t, geometry.NewRect(1, 2, 0, 0), StoredBox(txt))
	img := &annotation.Image{X: 1, Y: 2, Width: 3, Height: 4}
	assert.Equal(t, img.Box(), StoredBox(img))
}

func TestResize(t *testing.T) {
	box := geometry.NewRect(100, 100, 50, 40)

	assert.Equal(t, geometry.NewRect(100, 100, 80, 40), Resize(box, MiddleRight, geometry.Pt(180, 0)))
	assert.Equal(t, geometry.NewRect(100, 100, 50, 60), Resize(box, BottomMiddle, geometry.Pt(0, 160)))
	assert.Equal(t, geometry.NewRect(90, 100, 60, 40), Resize(box, MiddleLeft, geometry.Pt(90, 0)))
	assert.Equal(t, geometry.NewRect(100, 80, 50, 60), Resize(box, TopMiddle, geometry.Pt(0, 80)))
	assert.Equal(t, geometry.NewRect(90, 80, 60, 60), Resize(box, TopLeft, geometry.Pt(90, 80)))
	assert.Equal(t, geometry.NewRect(100, 100, 70, 70), Resize(box, BottomRight, geometry.Pt(170, 170)))
}

func TestResizeRespectsMinDim(t *testing.T) {
	box := geometry.NewRect(100, 100, 50, 40)

	assert.Equal(t, box, Resize(box, MiddleRight, geometry.Pt(115, 0)))
	assert.Equal(t, box, Resize(box, MiddleRight, geometry.Pt(120, 0)), "exactly MinDim is rejected")
	assert.Equal(t, box, Resize(box, MiddleLeft, geometry.Pt(140, 0)))
	assert.Equal(t, box, Resize(box, TopMiddle, geometry.Pt(0, 125)))
	got := Resize(box, BottomRight, geometry.Pt(121, 200))
	assert.Equal(t, geometry.NewRect(100, 100, 21, 100), got)
}
