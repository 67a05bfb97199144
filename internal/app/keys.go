package app

import (
	"strings"

	"pdf-annotator/internal/interaction"
)

// HandleKey runs the keyboard shortcut for key and reports whether it was
// one. Key names are matched case-insensitively; both "Left" and
// "ArrowLeft" spellings are accepted. ctrl is whether Control (or Command)
// is held.
//
//	Ctrl + + / =   zoom in
//	Ctrl + -       zoom out
//	Ctrl + P       presentation mode
//	Ctrl + H/D/T/G highlighter, pencil, text, hand tool
//	Left / Right   previous / next page
//	Escape         leave presentation mode
func (v *Viewer) HandleKey(key string, ctrl bool) bool {
	k := strings.TrimPrefix(strings.ToLower(key), "arrow")
	if k == "escape" {
		if v.Presenting() {
			v.TogglePresentation()
			return true
		}
		return false
	}

	if ctrl {
		switch k {
		case "+", "=", "plus", "equal":
			v.ZoomIn()
		case "-", "minus":
			v.ZoomOut()
		case "p":
			v.TogglePresentation()
		case "h":
			v.ToggleTool(interaction.ToolHighlighter)
		case "d":
			v.ToggleTool(interaction.ToolPencil)
		case "t":
			v.ToggleTool(interaction.ToolText)
		case "g":
			v.ToggleTool(interaction.ToolHand)
		default:
			return false
		}
		return true
	}

	switch k {
	case "left":
		v.Navigate(-1)
	case "right":
		v.Navigate(1)
	default:
		return false
	}
	return true
}
