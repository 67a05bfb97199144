// Package interaction turns pointer input into annotation edits: drawing,
// erasing, text boxes, image placement, selection, dragging and resizing.
package interaction

import (
	"fmt"
	"strings"

	"pdf-annotator/pkg/geometry"
)

// Tool is an annotation or navigation tool. At most one is active.
type Tool int

const (
	ToolNone Tool = iota
	ToolHand
	ToolHighlighter
	ToolPencil
	ToolEraser
	ToolText
	ToolImage
	ToolSignature
)

var toolNames = []string{"none", "hand", "highlighter", "pencil", "eraser", "text", "image", "signature"}

func (t Tool) String() string {
	if int(t) < len(toolNames) && t >= 0 {
		return toolNames[t]
	}
	return fmt.Sprintf("tool(%d)", int(t))
}

// ParseTool parses a tool name.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range toolNames {
		if name == s {
			return Tool(i), nil
		}
	}
	return ToolNone, fmt.Errorf("unknown tool %q", s)
}

// ToolState holds the active tool and the captured signature.
type ToolState struct {
	active        Tool
	signatureSrc  string
	signatureSize geometry.Size
}

// Active returns the active tool, ToolNone when nothing is active.
func (t *ToolState) Active() Tool { return t.active }

// IsActive reports whether tool is the active one.
func (t *ToolState) IsActive(tool Tool) bool { return tool != ToolNone && t.active == tool }

// AnyActive reports whether some tool is active.
func (t *ToolState) AnyActive() bool { return t.active != ToolNone }

// Toggle deactivates every tool and then activates tool unless it was the
// one already active. The signature tool is never activated here: it needs
// a captured image first (see ArmSignature). Toggle reports whether tool
// was being switched off.
func (t *ToolState) Toggle(tool Tool) (deactivated bool) {
	deactivated = t.IsActive(tool)
	t.active = ToolNone
	if deactivated || tool == ToolSignature {
		return deactivated
	}
	t.active = tool
	return false
}

// Deactivate switches every tool off.
func (t *ToolState) Deactivate() {
	t.active = ToolNone
}

// ArmSignature stores a captured signature and makes the signature tool the
// only active tool.
func (t *ToolState) ArmSignature(src string, size geometry.Size) {
	t.active = ToolSignature
	t.signatureSrc = src
	t.signatureSize = size
}

// Signature returns the captured signature.
func (t *ToolState) Signature() (string, geometry.Size, bool) {
	return t.signatureSrc, t.signatureSize, t.signatureSrc != ""
}

func (t *ToolState) clearSignature() {
	t.signatureSrc = ""
	t.signatureSize = geometry.Size{}
}

// StrokeStyle is the color and width of a drawing tool.
type StrokeStyle struct {
	Color string  `json:"color" yaml:"color"`
	Size  float64 `json:"size" yaml:"size"`
}

// TextStyle is the style of new text annotations.
type TextStyle struct {
	Font  string  `json:"font" yaml:"font"`
	Size  float64 `json:"size" yaml:"size"`
	Color string  `json:"color" yaml:"color"`
}

// ToolSettings are the per-tool options picked in the toolbar.
type ToolSettings struct {
	Highlighter StrokeStyle `json:"highlighter" yaml:"highlighter"`
	Pencil      StrokeStyle `json:"pencil" yaml:"pencil"`
	EraserSize  float64     `json:"eraserSize" yaml:"eraserSize"`
	Text        TextStyle   `json:"text" yaml:"text"`
}

// DefaultToolSettings returns the toolbar defaults.
func DefaultToolSettings() ToolSettings {
	return ToolSettings{
		Highlighter: StrokeStyle{Color: "#FFFF00", Size: 20},
		Pencil:      StrokeStyle{Color: "#000000", Size: 3},
		EraserSize:  20,
		Text:        TextStyle{Font: "Arial", Size: 16, Color: "#000000"},
	}
}
