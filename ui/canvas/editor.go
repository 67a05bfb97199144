package canvas

import (
	"sync"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/widget"

	"pdf-annotator/internal/interaction"
	"pdf-annotator/pkg/geometry"
)

// Smallest editor, so a click without a drag still gets a usable box.
const (
	minEditorWidth  = 80
	minEditorHeight = 36
)

// inlineEntry is a multi-line entry that reports its text once, when it
// loses focus.
type inlineEntry struct {
	widget.Entry

	once   sync.Once
	mu     sync.Mutex
	commit func(string)
	closed func(*inlineEntry)
}

func newInlineEntry(commit func(string), closed func(*inlineEntry)) *inlineEntry {
	e := &inlineEntry{commit: commit, closed: closed}
	e.MultiLine = true
	e.Wrapping = fyne.TextWrapWord
	e.ExtendBaseWidget(e)
	return e
}

func (e *inlineEntry) FocusLost() {
	e.Entry.FocusLost()
	e.finish()
}

// discard closes the editor without committing.
func (e *inlineEntry) discard() {
	e.mu.Lock()
	e.commit = nil
	e.mu.Unlock()
	e.finish()
}

func (e *inlineEntry) finish() {
	e.once.Do(func() {
		e.mu.Lock()
		commit := e.commit
		e.mu.Unlock()
		if commit != nil {
			commit(e.Text)
		}
		e.closed(e)
	})
}

// Open shows an editor over box on page. It implements
// interaction.TextEditor. The text is styled when painted, not while typed.
func (pv *PageView) Open(page int, box geometry.Rect, _ interaction.TextStyle, commit func(text string)) {
	pv.closeEditor(false)
	if pv.viewer == nil {
		return
	}
	rect, ok := pv.viewer.PageRect(page)
	if !ok {
		return
	}

	e := newInlineEntry(commit, pv.editorClosed)
	e.Move(fyne.NewPos(float32(rect.X+box.X), float32(rect.Y+box.Y)))
	e.Resize(fyne.NewSize(max(float32(box.Width), minEditorWidth), max(float32(box.Height), minEditorHeight)))

	pv.mu.Lock()
	pv.editor = e
	pv.mu.Unlock()
	pv.content.overlay.Add(e)

	if c := fyne.CurrentApp().Driver().CanvasForObject(pv); c != nil {
		c.Focus(e)
	}
}

func (pv *PageView) editorClosed(e *inlineEntry) {
	pv.mu.Lock()
	if pv.editor == e {
		pv.editor = nil
	}
	pv.mu.Unlock()
	pv.content.overlay.Remove(e)
}

// closeEditor ends an open editor, committing its text unless discard is
// set.
func (pv *PageView) closeEditor(discard bool) {
	pv.mu.Lock()
	e := pv.editor
	pv.mu.Unlock()
	if e == nil {
		return
	}
	if discard {
		e.discard()
		return
	}
	e.finish()
}
