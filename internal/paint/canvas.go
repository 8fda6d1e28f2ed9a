// Package paint implements the drawing surface behind a session on top of
// the gg 2D renderer. The committed artwork lives on a base layer; tool
// previews are drawn on a transparent layer above it that never reaches the
// exported image.
package paint

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"log/slog"
	"math"

	"github.com/gogpu/gg"
	"github.com/gogpu/gg/text"

	"github.com/example/paintassemble/internal/logging"
)

// ErrInvalidSize is returned by New for non-positive dimensions.
var ErrInvalidSize = errors.New("invalid canvas size")

type mode int

const (
	modePen mode = iota
	modeStraightLine
	modeCircle
	modeFill
	modeCrop
	modeCropPlace
	modeText
)

func (m mode) String() string {
	switch m {
	case modePen:
		return "pen"
	case modeStraightLine:
		return "line"
	case modeCircle:
		return "circle"
	case modeFill:
		return "fill"
	case modeCrop:
		return "crop"
	case modeCropPlace:
		return "crop-place"
	case modeText:
		return "text"
	default:
		return "unknown"
	}
}

type point struct{ x, y float64 }

// Canvas is a two-layer raster surface. It is not safe for concurrent use.
type Canvas struct {
	width, height int
	base, top     *gg.Context

	mode      mode
	color     color.RGBA
	lineWidth float64

	pressed bool
	start   point
	last    point

	patch *image.RGBA
	text  textState

	face     text.Face
	fontSize float64
	log      *slog.Logger
}

// Option configures a Canvas.
type Option func(*Canvas)

// WithLogger sets the logger used for rendering diagnostics. The logger is
// also installed as the gg renderer's package logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Canvas) {
		if l != nil {
			c.log = l
			gg.SetLogger(l)
		}
	}
}

// WithFontSize overrides the text tool's font size.
func WithFontSize(size float64) Option {
	return func(c *Canvas) {
		if size > 0 {
			c.fontSize = size
		}
	}
}

// New creates a white canvas of the given size with a black one pixel pen.
func New(width, height int, opts ...Option) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidSize, width, height)
	}
	c := &Canvas{
		width:     width,
		height:    height,
		color:     color.RGBA{A: 0xff},
		lineWidth: 1,
		fontSize:  DefaultFontSize,
		log:       logging.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	face, err := loadFace(c.fontSize)
	if err != nil {
		return nil, err
	}
	c.face = face

	c.base = gg.NewContext(width, height)
	c.base.ClearWithColor(gg.White)
	c.top = gg.NewContext(width, height)
	c.top.Clear()
	for _, dc := range []*gg.Context{c.base, c.top} {
		dc.SetLineCap(gg.LineCapRound)
		dc.SetFont(face)
	}
	c.applyStyle()
	return c, nil
}

// Close releases renderer resources.
func (c *Canvas) Close() error {
	return errors.Join(c.base.Close(), c.top.Close())
}

// Size returns the canvas dimensions.
func (c *Canvas) Size() (int, int) { return c.width, c.height }

// StrokeColor returns the active stroke colour.
func (c *Canvas) StrokeColor() color.RGBA { return c.color }

// StrokeWidth returns the active stroke width.
func (c *Canvas) StrokeWidth() float64 { return c.lineWidth }

// SetStrokeColor sets the colour used by every tool.
func (c *Canvas) SetStrokeColor(value string) error {
	col, err := ParseColor(value)
	if err != nil {
		return err
	}
	c.color = col
	c.applyStyle()
	return nil
}

// SetStrokeWidth sets the line width used by the pen, line and circle tools.
func (c *Canvas) SetStrokeWidth(width int) error {
	if width <= 0 {
		return fmt.Errorf("stroke width must be positive, got %d", width)
	}
	c.lineWidth = float64(width)
	c.applyStyle()
	return nil
}

func (c *Canvas) applyStyle() {
	for _, dc := range []*gg.Context{c.base, c.top} {
		dc.SetColor(c.color)
		dc.SetLineWidth(c.lineWidth)
	}
}

func (c *Canvas) ActivatePen() error          { c.activate(modePen); return nil }
func (c *Canvas) ActivateStraightLine() error { c.activate(modeStraightLine); return nil }
func (c *Canvas) ActivateCircle() error       { c.activate(modeCircle); return nil }
func (c *Canvas) ActivateFill() error         { c.activate(modeFill); return nil }
func (c *Canvas) ActivateCrop() error         { c.activate(modeCrop); return nil }
func (c *Canvas) ActivateText() error         { c.activate(modeText); return nil }

func (c *Canvas) activate(m mode) {
	if c.mode == modeCropPlace && c.patch != nil {
		// A lifted region that was never placed goes back where it came from.
		c.blit(c.patch, c.patch.Rect.Min)
	}
	c.mode = m
	c.pressed = false
	c.patch = nil
	c.text = textState{}
	c.clearPreview()
	c.log.Debug("tool activated", "tool", m)
}

// PointerDown starts a gesture at canvas coordinates.
func (c *Canvas) PointerDown(x, y float64) {
	p := point{x, y}
	c.pressed = true
	c.start, c.last = p, p
	switch c.mode {
	case modeFill:
		c.floodFill(int(math.Floor(x)), int(math.Floor(y)))
		c.pressed = false
	case modeCropPlace:
		c.previewPatch(p)
	}
}

// PointerMove continues a gesture. Motion without a press is ignored.
func (c *Canvas) PointerMove(x, y float64) {
	if !c.pressed {
		return
	}
	p := point{x, y}
	switch c.mode {
	case modePen:
		c.segment(c.base, c.last, p)
	case modeStraightLine:
		c.clearPreview()
		c.segment(c.top, c.start, p)
	case modeCircle:
		c.clearPreview()
		c.circle(c.top, c.start, p)
	case modeCrop:
		c.clearPreview()
		c.selection(c.start, p)
	case modeCropPlace:
		c.previewPatch(p)
	}
	c.last = p
}

// PointerUp finishes a gesture and commits it to the base layer.
func (c *Canvas) PointerUp(x, y float64) {
	p := point{x, y}
	if c.mode == modeText {
		c.pressed = false
		c.text.caret = p
		c.text.placed = true
		c.previewText()
		return
	}
	if !c.pressed {
		return
	}
	c.pressed = false
	switch c.mode {
	case modePen:
		c.segment(c.base, c.last, p)
	case modeStraightLine:
		c.clearPreview()
		c.segment(c.base, c.start, p)
	case modeCircle:
		c.clearPreview()
		c.circle(c.base, c.start, p)
	case modeCrop:
		c.clearPreview()
		c.lift(c.start, p)
	case modeCropPlace:
		c.place(p)
	}
}

func (c *Canvas) segment(dc *gg.Context, from, to point) {
	dc.MoveTo(from.x, from.y)
	dc.LineTo(to.x, to.y)
	c.stroke(dc)
}

func (c *Canvas) circle(dc *gg.Context, center, edge point) {
	r := math.Hypot(edge.x-center.x, edge.y-center.y)
	if r == 0 {
		return
	}
	dc.DrawCircle(center.x, center.y, r)
	c.stroke(dc)
}

func (c *Canvas) stroke(dc *gg.Context) {
	if err := dc.Stroke(); err != nil {
		c.log.Warn("stroke failed", "tool", c.mode, "err", err)
	}
}

func (c *Canvas) clearPreview() { c.top.Clear() }

// ImportImage draws img onto the base layer with its top-left corner at the
// canvas origin.
func (c *Canvas) ImportImage(img image.Image) error {
	if img == nil {
		return errors.New("no image")
	}
	b := img.Bounds()
	if b.Empty() {
		return fmt.Errorf("empty image %dx%d", b.Dx(), b.Dy())
	}
	c.flush(c.base)
	dst := pixels(c.base)
	draw.Draw(dst, b.Sub(b.Min), img, b.Min, draw.Over)
	c.log.Debug("image drawn", "width", b.Dx(), "height", b.Dy())
	return nil
}

// Export encodes the base layer as PNG. Previews are never included.
func (c *Canvas) Export() ([]byte, error) {
	c.flush(c.base)
	var buf bytes.Buffer
	if err := png.Encode(&buf, c.base.ResizeTarget().ToImage()); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// Snapshot returns the base layer with the preview layer composited on top.
func (c *Canvas) Snapshot() *image.RGBA {
	c.flush(c.base)
	c.flush(c.top)
	img := c.base.ResizeTarget().ToImage()
	draw.Draw(img, img.Rect, c.top.ResizeTarget().ToImage(), image.Point{}, draw.Over)
	return img
}

func (c *Canvas) flush(dc *gg.Context) {
	if err := dc.FlushGPU(); err != nil {
		c.log.Warn("flush failed", "err", err)
	}
}

// pixels exposes the pixel buffer of dc as an image sharing its memory.
func pixels(dc *gg.Context) *image.RGBA {
	pm := dc.ResizeTarget()
	return &image.RGBA{
		Pix:    pm.Data(),
		Stride: pm.Width() * 4,
		Rect:   image.Rect(0, 0, pm.Width(), pm.Height()),
	}
}
