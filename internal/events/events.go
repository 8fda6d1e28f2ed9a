// Package events converts raw platform input into typed session operations.
// Front ends never hand untyped payloads to the controller: every DOM event,
// window event or script entry passes through Normalize first.
package events

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/example/paintassemble/internal/session"
)

// Raw is an untyped input event as delivered by a platform.
type Raw struct {
	// Type is the platform event type such as click, change, input,
	// pointerdown or keydown.
	Type string `yaml:"type"`
	// Target names the control the event came from.
	Target string `yaml:"target,omitempty"`
	// Value is the control value: a colour, width, tool name, key or path.
	Value string `yaml:"value,omitempty"`

	X float64 `yaml:"x,omitempty"`
	Y float64 `yaml:"y,omitempty"`

	// Data carries file contents supplied by the platform.
	Data []byte `yaml:"-"`
	// Open reads file contents lazily, for platforms that hand over a
	// handle rather than bytes.
	Open Opener `yaml:"-"`
}

// Opener opens the contents of a selected file. It honours ctx so a newer
// selection can abandon the read.
type Opener func(ctx context.Context) (io.ReadCloser, error)

// Op is a normalized operation.
type Op interface {
	op() string
}

type (
	SetColor   struct{ Color session.Color }
	SetWidth   struct{ Width int }
	SelectTool struct{ Tool session.Tool }
	Key        struct{ Key string }
	// Import loads an image from Open, Data or Path, in that order.
	Import struct {
		Name string
		Path string
		Data []byte
		Open Opener
	}
	Paste   struct{}
	Capture struct{ Interactive bool }
	Export  struct{}
	Copy    struct{}
	// Wait lets pending imports settle before the next operation.
	Wait struct{ Timeout time.Duration }
)

// Phase is the stage of a pointer gesture.
type Phase int

const (
	Down Phase = iota
	Move
	Up
)

func (p Phase) String() string {
	switch p {
	case Down:
		return "down"
	case Move:
		return "move"
	case Up:
		return "up"
	}
	return "unknown"
}

// Pointer is a press, motion or release at canvas coordinates.
type Pointer struct {
	Phase Phase
	X, Y  float64
}

func (SetColor) op() string   { return "set_color" }
func (SetWidth) op() string   { return "set_width" }
func (SelectTool) op() string { return "select_tool" }
func (Pointer) op() string    { return "pointer" }
func (Key) op() string        { return "key" }
func (Import) op() string     { return "import" }
func (Paste) op() string      { return "paste" }
func (Capture) op() string    { return "capture" }
func (Export) op() string     { return "export" }
func (Copy) op() string       { return "copy" }
func (Wait) op() string       { return "wait" }

// Name returns a short identifier for logging.
func Name(o Op) string {
	if o == nil {
		return ""
	}
	return o.op()
}

// DefaultWait bounds a wait entry without an explicit duration.
const DefaultWait = 5 * time.Second

// Normalize validates raw and converts it to an Op. Malformed payloads fail
// with session.ErrInvalidInput.
func Normalize(raw Raw) (Op, error) {
	typ := strings.ToLower(strings.TrimSpace(raw.Type))
	target := strings.ToLower(strings.TrimSpace(raw.Target))
	value := strings.TrimSpace(raw.Value)

	switch typ {
	case "pointerdown", "mousedown", "touchstart":
		return Pointer{Phase: Down, X: raw.X, Y: raw.Y}, nil
	case "pointermove", "mousemove", "touchmove":
		return Pointer{Phase: Move, X: raw.X, Y: raw.Y}, nil
	case "pointerup", "mouseup", "touchend":
		return Pointer{Phase: Up, X: raw.X, Y: raw.Y}, nil
	case "keydown", "key":
		if raw.Value == "" {
			return nil, invalid(raw, "missing key")
		}
		return Key{Key: raw.Value}, nil
	case "wait":
		if value == "" {
			return Wait{Timeout: DefaultWait}, nil
		}
		d, err := time.ParseDuration(value)
		if err != nil || d <= 0 {
			return nil, invalid(raw, "bad duration")
		}
		return Wait{Timeout: d}, nil
	case "click", "change", "input":
	default:
		return nil, invalid(raw, "unknown event type")
	}

	switch target {
	case "color", "color-button", "color-picker", "colors":
		c, err := session.ParseColor(value)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", typ, target, err)
		}
		return SetColor{Color: c}, nil
	case "width", "stroke-width", "width-slider":
		w, err := strconv.Atoi(value)
		if err != nil {
			return nil, invalid(raw, "width is not an integer")
		}
		return SetWidth{Width: w}, nil
	case "tool", "tool-button":
		t, err := session.ParseTool(value)
		if err != nil {
			return nil, fmt.Errorf("%s/%s: %w", typ, target, err)
		}
		return SelectTool{Tool: t}, nil
	case "file", "import", "file-input":
		if raw.Open != nil {
			return Import{Name: value, Open: raw.Open}, nil
		}
		if value == "" && len(raw.Data) == 0 {
			return nil, invalid(raw, "no file selected")
		}
		return Import{Name: value, Path: pathFor(value, raw.Data), Data: raw.Data}, nil
	case "paste":
		return Paste{}, nil
	case "capture", "screenshot":
		return Capture{Interactive: value == "interactive"}, nil
	case "export", "save", "download":
		return Export{}, nil
	case "copy":
		return Copy{}, nil
	}
	return nil, invalid(raw, "unknown target")
}

func pathFor(value string, data []byte) string {
	if len(data) > 0 {
		return ""
	}
	return value
}

func invalid(raw Raw, reason string) error {
	return fmt.Errorf("%w: %s (type=%q target=%q)", session.ErrInvalidInput, reason, raw.Type, raw.Target)
}
