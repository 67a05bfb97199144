// Package replay drives the annotation controller from a YAML script of
// tool toggles and pointer events. It stands in for the UI collaborators so
// annotations can be produced headless, for batch stamping and for
// reproducing interaction bugs.
package replay

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"pdf-annotator/internal/interaction"
	"pdf-annotator/internal/raster"
	"pdf-annotator/pkg/geometry"
)

// Script is a replay file.
type Script struct {
	// Zoom is the scale the pointer coordinates are given at. Zero means 1.
	Zoom  float64 `yaml:"zoom"`
	Steps []Step  `yaml:"steps"`
}

// Step is one scripted action. Exactly one of Tool or Action is set; Text
// and Image feed the editor and the image collaborators.
type Step struct {
	Tool   string        `yaml:"tool,omitempty"`
	Action string        `yaml:"action,omitempty"` // down, move, up, click, delete, text, wait
	Page   int           `yaml:"page,omitempty"`
	X      float64       `yaml:"x,omitempty"`
	Y      float64       `yaml:"y,omitempty"`
	Text   string        `yaml:"text,omitempty"`
	Image  string        `yaml:"image,omitempty"`
	Wait   time.Duration `yaml:"wait,omitempty"`
}

// Load reads and validates a script file.
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a script.
func Parse(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if s.Zoom == 0 {
		s.Zoom = 1
	}
	if s.Zoom < 0 {
		return nil, fmt.Errorf("invalid zoom %v", s.Zoom)
	}
	for i, st := range s.Steps {
		if err := st.validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	return &s, nil
}

func (st Step) validate() error {
	if st.Tool != "" {
		if st.Action != "" {
			return fmt.Errorf("tool and action are exclusive")
		}
		_, err := interaction.ParseTool(st.Tool)
		return err
	}
	switch st.Action {
	case "down", "move", "up", "click":
		if st.Page < 1 {
			return fmt.Errorf("%s needs a page", st.Action)
		}
	case "delete", "text", "wait":
	case "":
		return fmt.Errorf("empty step")
	default:
		return fmt.Errorf("unknown action %q", st.Action)
	}
	return nil
}

// ViewportFunc returns the viewport of a page at the replay zoom.
type ViewportFunc func(page int) (geometry.Viewport, bool)

// Player plays scripts. It implements the controller's TextEditor,
// ImagePicker and SignaturePad: editors stay open until a text step, and
// pickers answer with the image of the step being played.
type Player struct {
	log zerolog.Logger

	mu      sync.Mutex
	image   string
	commit  func(string)
	touched map[int]bool
}

// NewPlayer creates a player.
func NewPlayer(log zerolog.Logger) *Player {
	return &Player{log: log, touched: make(map[int]bool)}
}

// Open implements interaction.TextEditor.
func (p *Player) Open(page int, _ geometry.Rect, _ interaction.TextStyle, commit func(string)) {
	p.mu.Lock()
	p.commit = commit
	p.touched[page] = true
	p.mu.Unlock()
}

// Pick implements interaction.ImagePicker.
func (p *Player) Pick(done func(string, geometry.Size, error)) { p.answer(done) }

// Capture implements interaction.SignaturePad.
func (p *Player) Capture(done func(string, geometry.Size, error)) { p.answer(done) }

func (p *Player) answer(done func(string, geometry.Size, error)) {
	p.mu.Lock()
	path := p.image
	p.mu.Unlock()
	if path == "" {
		done("", geometry.Size{}, nil)
		return
	}
	img, err := raster.Load(path)
	if err != nil {
		done("", geometry.Size{}, err)
		return
	}
	src, err := raster.PNGDataURL(img)
	if err != nil {
		done("", geometry.Size{}, err)
		return
	}
	done(src, raster.SizeOf(img), nil)
}

// Touched returns the pages that received pointer input, in no order.
func (p *Player) Touched() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	pages := make([]int, 0, len(p.touched))
	for n := range p.touched {
		pages = append(pages, n)
	}
	return pages
}

// Run plays s against c. Pointer coordinates are viewport pixels of the
// step's page; vp resolves them. An editor still open at the end is
// committed empty, which discards its draft.
func (p *Player) Run(ctx context.Context, s *Script, c *interaction.Controller, vp ViewportFunc) error {
	for i, st := range s.Steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := p.step(ctx, st, c, vp); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}
	p.commitText("")
	return nil
}

func (p *Player) step(ctx context.Context, st Step, c *interaction.Controller, vp ViewportFunc) error {
	p.mu.Lock()
	p.image = st.Image
	p.mu.Unlock()

	if st.Tool != "" {
		tool, err := interaction.ParseTool(st.Tool)
		if err != nil {
			return err
		}
		c.ToggleTool(tool)
		return nil
	}

	switch st.Action {
	case "delete":
		c.DeleteSelected()
		return nil
	case "text":
		if !p.commitText(st.Text) {
			return fmt.Errorf("no text editor open")
		}
		return nil
	case "wait":
		t := time.NewTimer(st.Wait)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
			return nil
		}
	}

	v, ok := vp(st.Page)
	if !ok {
		return fmt.Errorf("page %d is not available", st.Page)
	}
	ev := interaction.Event{
		Page:     st.Page,
		Pos:      geometry.Pt(st.X, st.Y),
		Screen:   geometry.Pt(st.X, st.Y),
		Viewport: v,
	}
	p.mu.Lock()
	p.touched[st.Page] = true
	p.mu.Unlock()
	p.log.Debug().Str("action", st.Action).Int("page", st.Page).Float64("x", st.X).Float64("y", st.Y).Msg("replay")

	switch st.Action {
	case "down":
		c.PointerDown(ev)
	case "move":
		c.PointerMove(ev)
	case "up":
		c.PointerUp(ev)
	case "click":
		c.Click(ev)
	}
	return nil
}

func (p *Player) commitText(text string) bool {
	p.mu.Lock()
	commit := p.commit
	p.commit = nil
	p.mu.Unlock()
	if commit == nil {
		return false
	}
	commit(text)
	return true
}
