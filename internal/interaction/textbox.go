package interaction

import (
	"strings"

	"pdf-annotator/internal/annotation"
	"pdf-annotator/pkg/geometry"
)

// TextDraft is the rectangle being dragged out with the text tool. It is
// visual only until the editor commits.
type TextDraft struct {
	Page     int
	Start    geometry.Point
	Current  geometry.Point
	Viewport geometry.Viewport
}

// Rect returns the draft rectangle in viewport pixels.
func (t *TextDraft) Rect() geometry.Rect {
	return geometry.RectFromCorners(t.Start, t.Current)
}

// finishTextDraft closes the draft and returns what the editor needs. The
// text tool switches itself off after one box. Caller holds c.mu.
func (c *Controller) finishTextDraft() (page int, box geometry.Rect, vp geometry.Viewport, style TextStyle) {
	d := c.session.TextDraft
	c.session.TextDraft = nil
	c.session.Tools.Toggle(ToolText)
	return d.Page, d.Rect(), d.Viewport, c.session.Settings.Text
}

// openTextEditor shows the inline editor over box. The commit callback adds
// the text annotation when the trimmed text is not empty.
func (c *Controller) openTextEditor(page int, box geometry.Rect, vp geometry.Viewport, style TextStyle) {
	c.editor.Open(page, box, style, func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		doc := vp.RectToDocument(box)
		c.store.Add(page, &annotation.Text{
			Content: text,
			X:       doc.X,
			Y:       doc.Y,
			Width:   doc.Width,
			Height:  doc.Height,
			Font:    style.Font,
			Size:    style.Size,
			Color:   style.Color,
		})
		c.log.Debug().Int("page", page).Msg("text annotation committed")
		c.repaint(page)
	})
}
