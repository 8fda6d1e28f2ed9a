package session

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"

	"github.com/example/paintassemble/internal/logging"
)

// State is the style and tool state of an editing session.
type State struct {
	Tool  Tool
	Color Color
	Width int
}

// Controller owns the engine and the session state. It is not safe for
// concurrent use: every call must come from the goroutine running the Loop.
type Controller struct {
	factory  EngineFactory
	engine   Engine
	state    State
	defaults State

	report   func(error)
	listener func(State)
	log      *slog.Logger
}

// Option modifies a Controller during creation.
type Option func(*Controller)

// WithDefaultColor sets the stroke colour applied on Initialize.
func WithDefaultColor(c Color) Option {
	return func(ctl *Controller) {
		if !c.IsZero() {
			ctl.defaults.Color = c
		}
	}
}

// WithDefaultWidth sets the stroke width applied on Initialize.
func WithDefaultWidth(w int) Option {
	return func(ctl *Controller) {
		if w > 0 {
			ctl.defaults.Width = w
		}
	}
}

// WithReporter registers the callback that makes failures visible to the user.
func WithReporter(fn func(error)) Option { return func(c *Controller) { c.report = fn } }

// WithStateListener registers a callback invoked after the state changes.
func WithStateListener(fn func(State)) Option { return func(c *Controller) { c.listener = fn } }

// WithLogger configures a logger for the Controller.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Controller that builds its engine with factory on Initialize.
func New(factory EngineFactory, opts ...Option) *Controller {
	c := &Controller{
		factory: factory,
		defaults: State{
			Tool:  ToolPen,
			Color: MustColor(DefaultColor),
			Width: DefaultWidth,
		},
		log: logging.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Initialize constructs the engine surface and applies the default tool,
// width and colour as explicit commands. It may only succeed once.
func (c *Controller) Initialize(width, height int) error {
	if c.engine != nil {
		return fmt.Errorf("%w: session already initialized", ErrInit)
	}
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInit, width, height)
	}
	if c.factory == nil {
		return fmt.Errorf("%w: no engine factory", ErrInit)
	}
	eng, err := c.factory(width, height)
	if err != nil {
		return fmt.Errorf("%w: construct engine: %w", ErrInit, err)
	}
	if eng == nil {
		return fmt.Errorf("%w: engine factory returned nil", ErrInit)
	}
	if err := eng.ActivatePen(); err != nil {
		return fmt.Errorf("%w: activate %s: %w", ErrInit, ToolPen, err)
	}
	if err := eng.SetStrokeWidth(c.defaults.Width); err != nil {
		return fmt.Errorf("%w: stroke width %d: %w", ErrInit, c.defaults.Width, err)
	}
	if err := eng.SetStrokeColor(c.defaults.Color.String()); err != nil {
		return fmt.Errorf("%w: stroke color %q: %w", ErrInit, c.defaults.Color, err)
	}
	c.engine = eng
	c.state = c.defaults
	c.log.Info("session initialized", "width", width, "height", height,
		"tool", c.state.Tool, "color", c.state.Color, "stroke_width", c.state.Width)
	c.changed()
	return nil
}

// Initialized reports whether Initialize succeeded.
func (c *Controller) Initialized() bool { return c.engine != nil }

// State returns the current session state.
func (c *Controller) State() State { return c.state }

// SetColor forwards col to the engine and records it once accepted.
func (c *Controller) SetColor(col Color) error {
	if col.IsZero() {
		return c.fail("set color", fmt.Errorf("%w: color cannot be empty", ErrInvalidInput))
	}
	if err := c.ready(); err != nil {
		return c.fail("set color", err)
	}
	if err := c.engine.SetStrokeColor(col.String()); err != nil {
		return c.fail("set color", fmt.Errorf("%w: stroke color %q: %w", ErrEngineCommand, col, err))
	}
	c.state.Color = col
	c.log.Debug("stroke color set", "color", col)
	c.changed()
	return nil
}

// SetWidth forwards a positive stroke width to the engine.
func (c *Controller) SetWidth(width int) error {
	if width <= 0 {
		return c.fail("set width", fmt.Errorf("%w: stroke width must be positive, got %d", ErrInvalidInput, width))
	}
	if err := c.ready(); err != nil {
		return c.fail("set width", err)
	}
	if err := c.engine.SetStrokeWidth(width); err != nil {
		return c.fail("set width", fmt.Errorf("%w: stroke width %d: %w", ErrEngineCommand, width, err))
	}
	c.state.Width = width
	c.log.Debug("stroke width set", "width", width)
	c.changed()
	return nil
}

// SelectTool activates t. Selecting the active tool again issues no command.
// Colour and width are not resent; the engine keeps them across activations.
func (c *Controller) SelectTool(t Tool) error {
	if !t.Valid() {
		return c.fail("select tool", fmt.Errorf("%w: unknown tool %d", ErrInvalidInput, int(t)))
	}
	if err := c.ready(); err != nil {
		return c.fail("select tool", err)
	}
	if t == c.state.Tool {
		return nil
	}
	if err := t.activate(c.engine); err != nil {
		return c.fail("select tool", fmt.Errorf("%w: activate %s: %w", ErrEngineCommand, t, err))
	}
	c.log.Debug("tool selected", "from", c.state.Tool, "to", t)
	c.state.Tool = t
	c.changed()
	return nil
}

func (c *Controller) Pen() error          { return c.SelectTool(ToolPen) }
func (c *Controller) StraightLine() error { return c.SelectTool(ToolStraightLine) }
func (c *Controller) Circle() error       { return c.SelectTool(ToolCircle) }
func (c *Controller) Fill() error         { return c.SelectTool(ToolFill) }
func (c *Controller) Crop() error         { return c.SelectTool(ToolCrop) }
func (c *Controller) Text() error         { return c.SelectTool(ToolText) }

// PointerDown forwards a press at canvas coordinates.
func (c *Controller) PointerDown(x, y float64) error {
	if err := c.ready(); err != nil {
		return c.fail("pointer down", err)
	}
	c.engine.PointerDown(x, y)
	return nil
}

// PointerMove forwards pointer motion.
func (c *Controller) PointerMove(x, y float64) error {
	if err := c.ready(); err != nil {
		return c.fail("pointer move", err)
	}
	c.engine.PointerMove(x, y)
	return nil
}

// PointerUp forwards a release.
func (c *Controller) PointerUp(x, y float64) error {
	if err := c.ready(); err != nil {
		return c.fail("pointer up", err)
	}
	c.engine.PointerUp(x, y)
	return nil
}

// Key forwards a key name such as "a", "Enter" or "Backspace".
func (c *Controller) Key(key string) error {
	if key == "" {
		return c.fail("key", fmt.Errorf("%w: empty key", ErrInvalidInput))
	}
	if err := c.ready(); err != nil {
		return c.fail("key", err)
	}
	c.engine.Key(key)
	return nil
}

// ImportImage hands a decoded image to the engine.
func (c *Controller) ImportImage(img image.Image) error {
	if img == nil {
		return c.fail("import", fmt.Errorf("%w: no image", ErrInvalidInput))
	}
	if err := c.ready(); err != nil {
		return c.fail("import", err)
	}
	if err := c.engine.ImportImage(img); err != nil {
		return c.fail("import", fmt.Errorf("%w: import image: %w", ErrEngineCommand, err))
	}
	b := img.Bounds()
	c.log.Info("image imported", "width", b.Dx(), "height", b.Dy())
	return nil
}

// Render returns the engine's encoded output.
func (c *Controller) Render() ([]byte, error) {
	if err := c.ready(); err != nil {
		return nil, err
	}
	data, err := c.engine.Export()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExport, err)
	}
	return data, nil
}

// Snapshot returns the composited surface for display, or nil before
// Initialize.
func (c *Controller) Snapshot() *image.RGBA {
	if c.engine == nil {
		return nil
	}
	return c.engine.Snapshot()
}

// Report surfaces an error raised outside the controller, such as a failed
// import stage.
func (c *Controller) Report(err error) {
	if err == nil {
		return
	}
	if c.report != nil {
		c.report(err)
	}
}

func (c *Controller) ready() error {
	if c.engine == nil {
		return ErrNotInitialized
	}
	return nil
}

func (c *Controller) fail(op string, err error) error {
	level := slog.LevelWarn
	if errors.Is(err, ErrEngineCommand) {
		level = slog.LevelError
	}
	c.log.Log(context.Background(), level, op+" failed", "error", err)
	c.Report(err)
	return err
}

func (c *Controller) changed() {
	if c.listener != nil {
		c.listener(c.state)
	}
}
