package events

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/paintassemble/internal/session"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
		want Op
	}{
		{"palette button", Raw{Type: "click", Target: "color-button", Value: "red"}, SetColor{Color: session.MustColor("red")}},
		{"picker", Raw{Type: "input", Target: "color-picker", Value: "#00FF00"}, SetColor{Color: session.MustColor("#00ff00")}},
		{"slider", Raw{Type: "change", Target: "width", Value: " 12 "}, SetWidth{Width: 12}},
		{"tool", Raw{Type: "click", Target: "tool", Value: "circle"}, SelectTool{Tool: session.ToolCircle}},
		{"tool alias", Raw{Type: "click", Target: "tool", Value: "straight-line"}, SelectTool{Tool: session.ToolStraightLine}},
		{"press", Raw{Type: "mousedown", X: 3, Y: 4}, Pointer{Phase: Down, X: 3, Y: 4}},
		{"drag", Raw{Type: "pointermove", X: 5, Y: 6}, Pointer{Phase: Move, X: 5, Y: 6}},
		{"release", Raw{Type: "pointerup", X: 7, Y: 8}, Pointer{Phase: Up, X: 7, Y: 8}},
		{"key", Raw{Type: "keydown", Value: "Enter"}, Key{Key: "Enter"}},
		{"space key", Raw{Type: "keydown", Value: " "}, Key{Key: " "}},
		{"file", Raw{Type: "change", Target: "file", Value: "cat.png"}, Import{Name: "cat.png", Path: "cat.png"}},
		{"file bytes", Raw{Type: "change", Target: "file", Value: "cat.png", Data: []byte{1}}, Import{Name: "cat.png", Data: []byte{1}}},
		{"export", Raw{Type: "click", Target: "export"}, Export{}},
		{"copy", Raw{Type: "click", Target: "copy"}, Copy{}},
		{"paste", Raw{Type: "click", Target: "paste"}, Paste{}},
		{"capture", Raw{Type: "click", Target: "capture", Value: "interactive"}, Capture{Interactive: true}},
		{"wait default", Raw{Type: "wait"}, Wait{Timeout: DefaultWait}},
		{"wait", Raw{Type: "wait", Value: "250ms"}, Wait{Timeout: 250 * time.Millisecond}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Normalize(tc.raw)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNormalizeLazyFile(t *testing.T) {
	opened := 0
	open := func(context.Context) (io.ReadCloser, error) {
		opened++
		return io.NopCloser(bytes.NewReader([]byte{1})), nil
	}
	got, err := Normalize(Raw{Type: "change", Target: "file-input", Value: "cat.png", Open: open})
	require.NoError(t, err)
	imp, ok := got.(Import)
	require.True(t, ok)
	assert.Equal(t, "cat.png", imp.Name)
	assert.Empty(t, imp.Path, "a lazy file is never read from disk")
	require.NotNil(t, imp.Open)
	assert.Zero(t, opened, "normalizing must not read the file")
}

func TestNormalizeRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  Raw
	}{
		{"unknown type", Raw{Type: "scroll"}},
		{"unknown target", Raw{Type: "click", Target: "undo"}},
		{"bad color", Raw{Type: "click", Target: "color-button", Value: "rgb(1,2,3)"}},
		{"empty color", Raw{Type: "input", Target: "color-picker"}},
		{"bad width", Raw{Type: "change", Target: "width", Value: "wide"}},
		{"bad tool", Raw{Type: "click", Target: "tool", Value: "spray"}},
		{"no file", Raw{Type: "change", Target: "file"}},
		{"no key", Raw{Type: "keydown"}},
		{"bad wait", Raw{Type: "wait", Value: "soon"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Normalize(tc.raw)
			assert.ErrorIs(t, err, session.ErrInvalidInput)
		})
	}
}

func TestLoadScript(t *testing.T) {
	src := `
width: 320
height: 200
events:
  - {type: click, target: tool, value: circle}
  - {type: click, target: color-button, value: "#ff0000"}
  - {type: change, target: width, value: "8"}
  - {type: pointerdown, x: 100, y: 100}
  - {type: pointerup, x: 140, y: 100}
  - {type: click, target: export}
`
	s, err := LoadScript(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, 320, s.Width)
	assert.Equal(t, 200, s.Height)

	ops, err := s.Ops()
	require.NoError(t, err)
	require.Len(t, ops, 6)
	assert.Equal(t, SelectTool{Tool: session.ToolCircle}, ops[0])
	assert.Equal(t, Pointer{Phase: Up, X: 140, Y: 100}, ops[4])
	assert.Equal(t, "export", Name(ops[5]))
}

func TestLoadScriptErrors(t *testing.T) {
	_, err := LoadScript(strings.NewReader(""))
	assert.Error(t, err)

	_, err = LoadScript(strings.NewReader("events:\n  - {type: click, colour: red}\n"))
	assert.Error(t, err, "unknown fields rejected")

	s, err := LoadScript(strings.NewReader("events:\n  - {type: click, target: tool, value: spray}\n"))
	require.NoError(t, err)
	_, err = s.Ops()
	assert.ErrorIs(t, err, session.ErrInvalidInput)
	assert.Contains(t, err.Error(), "event 1")
}
