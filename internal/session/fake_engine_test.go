package session

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
)

// recordingEngine logs every command it receives.
type recordingEngine struct {
	width, height int
	commands      []string

	color       string
	strokeWidth int
	imported    []image.Image

	rejectColor string
	rejectTool  string
	exportErr   error
}

func newRecordingFactory(engines *[]*recordingEngine) EngineFactory {
	return func(w, h int) (Engine, error) {
		e := &recordingEngine{width: w, height: h}
		*engines = append(*engines, e)
		return e, nil
	}
}

func (e *recordingEngine) record(format string, args ...any) {
	e.commands = append(e.commands, fmt.Sprintf(format, args...))
}

func (e *recordingEngine) SetStrokeColor(v string) error {
	if v == e.rejectColor {
		return errors.New("unsupported color")
	}
	e.record("set_stroke_color(%s)", v)
	e.color = v
	return nil
}

func (e *recordingEngine) SetStrokeWidth(w int) error {
	e.record("set_stroke_width(%d)", w)
	e.strokeWidth = w
	return nil
}

func (e *recordingEngine) activate(name string) error {
	if name == e.rejectTool {
		return errors.New("tool unavailable")
	}
	e.record("activate_tool(%s)", name)
	return nil
}

func (e *recordingEngine) ActivatePen() error          { return e.activate("pen") }
func (e *recordingEngine) ActivateStraightLine() error { return e.activate("line") }
func (e *recordingEngine) ActivateCircle() error       { return e.activate("circle") }
func (e *recordingEngine) ActivateFill() error         { return e.activate("fill") }
func (e *recordingEngine) ActivateCrop() error         { return e.activate("crop") }
func (e *recordingEngine) ActivateText() error         { return e.activate("text") }

func (e *recordingEngine) PointerDown(x, y float64) { e.record("pointer_down(%g,%g)", x, y) }
func (e *recordingEngine) PointerMove(x, y float64) { e.record("pointer_move(%g,%g)", x, y) }
func (e *recordingEngine) PointerUp(x, y float64)   { e.record("pointer_up(%g,%g)", x, y) }
func (e *recordingEngine) Key(k string)             { e.record("key(%s)", k) }

func (e *recordingEngine) ImportImage(img image.Image) error {
	e.record("import_image(%dx%d)", img.Bounds().Dx(), img.Bounds().Dy())
	e.imported = append(e.imported, img)
	return nil
}

func (e *recordingEngine) Export() ([]byte, error) {
	if e.exportErr != nil {
		return nil, e.exportErr
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, e.width, e.height))); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (e *recordingEngine) Snapshot() *image.RGBA {
	return image.NewRGBA(image.Rect(0, 0, e.width, e.height))
}

func (e *recordingEngine) reset() { e.commands = nil }
