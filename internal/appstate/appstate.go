// Package appstate composes an editing session and hosts the desktop window.
package appstate

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sort"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"github.com/example/paintassemble/internal/events"
	"github.com/example/paintassemble/internal/render"
	"github.com/example/paintassemble/internal/session"
	"github.com/example/paintassemble/internal/theme"
)

const (
	windowTitle  = "Paint Assemble"
	buttonHeight = 24
	swatchSize   = 16
	swatchStep   = 18
	widthRow     = 16
	statusHeight = 24
	gap          = 4

	minToolbarWidth = 4*swatchStep + gap
)

// widthOptions are the stroke widths offered in the toolbar.
var widthOptions = []int{2, 4, 8, 12, 16, 24}

var (
	statusFaceOnce sync.Once
	statusFace     font.Face
)

// messageFace returns the status bar face, falling back to the chrome font.
func messageFace() font.Face {
	statusFaceOnce.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			return
		}
		statusFace, _ = opentype.NewFace(f, &opentype.FaceOptions{Size: 14, DPI: 72, Hinting: font.HintingFull})
	})
	return statusFace
}

// ButtonState describes the visual state of a button.
type ButtonState int

const (
	StateDefault ButtonState = iota
	StateHover
	StatePressed
)

// Button is a clickable toolbar element. Op is the operation a click
// dispatches.
type Button interface {
	Draw(dst *image.RGBA, state ButtonState)
	Rect() image.Rectangle
	SetRect(r image.Rectangle)
	Op() events.Op
}

// CacheButton wraps another Button and caches its rendered states.
type CacheButton struct {
	Button
	cache [3]*image.RGBA
}

var _ Button = (*CacheButton)(nil)

func (cb *CacheButton) Draw(dst *image.RGBA, state ButtonState) {
	if cb.cache[state] == nil {
		rect := cb.Button.Rect()
		img := image.NewRGBA(rect)
		cb.Button.Draw(img, state)
		cb.cache[state] = img
	}
	draw.Draw(dst, cb.Button.Rect(), cb.cache[state], cb.Button.Rect().Min, draw.Src)
}

func (cb *CacheButton) SetRect(r image.Rectangle) {
	if r != cb.Button.Rect() {
		cb.Button.SetRect(r)
		cb.cache = [3]*image.RGBA{}
	}
}

// LabelButton is a toolbar button with a text label.
type LabelButton struct {
	label string
	op    events.Op
	rect  image.Rectangle
	theme *theme.Theme
}

func (b *LabelButton) Draw(dst *image.RGBA, state ButtonState) {
	bg := b.theme.ButtonBackground
	if state == StatePressed {
		bg = b.theme.ButtonActive
	}
	fill(dst, b.rect, bg)
	if state == StateHover {
		draw.Draw(dst, b.rect, &image.Uniform{color.RGBA{0, 0, 0, 24}}, image.Point{}, draw.Over)
	}
	drawRect(dst, b.rect, b.theme.ButtonBorder, 1)
	drawLabel(dst, b.rect.Min.X+4, b.rect.Min.Y+16, b.label, b.theme.ButtonText)
}

func (b *LabelButton) Rect() image.Rectangle { return b.rect }

func (b *LabelButton) SetRect(r image.Rectangle) { b.rect = r }

func (b *LabelButton) Op() events.Op { return b.op }

func toolLabel(t session.Tool) string {
	switch t {
	case session.ToolPen:
		return "Pen"
	case session.ToolStraightLine:
		return "Line"
	case session.ToolCircle:
		return "Circle"
	case session.ToolFill:
		return "Fill"
	case session.ToolCrop:
		return "Crop"
	case session.ToolText:
		return "Text"
	}
	return t.String()
}

// toolbar lays out the tool buttons, palette swatches, width options and
// action buttons in a column on the left of the window. Rectangles are fixed
// after newToolbar returns.
type toolbar struct {
	theme  *theme.Theme
	width  int
	height int

	tools      []*CacheButton
	toolOf     map[*CacheButton]session.Tool
	palette    []session.PaletteColor
	swatches   []image.Rectangle
	widths     []int
	widthRects []image.Rectangle
	actions    []*CacheButton
	shadow     *render.Cache
}

func newToolbar(th *theme.Theme, strokeWidth int) *toolbar {
	tb := &toolbar{
		theme:   th,
		toolOf:  make(map[*CacheButton]session.Tool),
		palette: session.PaletteColors(),
		widths:  withWidth(widthOptions, strokeWidth),
		shadow:  render.NewCache(render.PanelShadow()),
	}
	labels := []string{windowTitle}
	for _, t := range session.Tools() {
		b := &CacheButton{Button: &LabelButton{label: toolLabel(t), op: events.SelectTool{Tool: t}, theme: th}}
		tb.tools = append(tb.tools, b)
		tb.toolOf[b] = t
		labels = append(labels, toolLabel(t))
	}
	for _, a := range []struct {
		label string
		op    events.Op
	}{
		{"Paste", events.Paste{}},
		{"Screenshot", events.Capture{Interactive: true}},
		{"Copy", events.Copy{}},
		{"Save", events.Export{}},
	} {
		tb.actions = append(tb.actions, &CacheButton{Button: &LabelButton{label: a.label, op: a.op, theme: th}})
		labels = append(labels, a.label)
	}

	tb.width = minToolbarWidth
	for _, l := range labels {
		if w := labelWidth(l) + 8; w > tb.width {
			tb.width = w
		}
	}
	tb.layout()
	return tb
}

// withWidth returns opts with w added in sorted position.
func withWidth(opts []int, w int) []int {
	out := append([]int(nil), opts...)
	for _, v := range out {
		if v == w {
			return out
		}
	}
	if w > 0 {
		out = append(out, w)
		sort.Ints(out)
	}
	return out
}

func (tb *toolbar) layout() {
	y := 0
	for _, b := range tb.tools {
		b.SetRect(image.Rect(0, y, tb.width, y+buttonHeight))
		y += buttonHeight
	}

	y += gap
	x := gap
	tb.swatches = tb.swatches[:0]
	for range tb.palette {
		if x+swatchSize > tb.width {
			x = gap
			y += swatchStep
		}
		tb.swatches = append(tb.swatches, image.Rect(x, y, x+swatchSize, y+swatchSize))
		x += swatchStep
	}
	y += swatchStep + gap

	tb.widthRects = tb.widthRects[:0]
	for range tb.widths {
		tb.widthRects = append(tb.widthRects, image.Rect(0, y, tb.width, y+widthRow))
		y += widthRow
	}

	y += gap
	for _, b := range tb.actions {
		b.SetRect(image.Rect(0, y, tb.width, y+buttonHeight))
		y += buttonHeight
	}
	tb.height = y
}

// opAt returns the operation for a click at p.
func (tb *toolbar) opAt(p image.Point) (events.Op, bool) {
	for _, b := range tb.tools {
		if p.In(b.Rect()) {
			return b.Op(), true
		}
	}
	for i, r := range tb.swatches {
		if p.In(r) {
			return events.SetColor{Color: tb.palette[i].Color}, true
		}
	}
	for i, r := range tb.widthRects {
		if p.In(r) {
			return events.SetWidth{Width: tb.widths[i]}, true
		}
	}
	for _, b := range tb.actions {
		if p.In(b.Rect()) {
			return b.Op(), true
		}
	}
	return nil, false
}

func buttonState(r image.Rectangle, hover image.Point, active bool) ButtonState {
	switch {
	case active:
		return StatePressed
	case hover.In(r):
		return StateHover
	}
	return StateDefault
}

func (tb *toolbar) draw(dst *image.RGBA, st session.State, hover image.Point) {
	th := tb.theme
	fill(dst, image.Rect(0, 0, tb.width, dst.Bounds().Dy()), th.ToolbarBackground)

	for _, b := range tb.tools {
		b.Draw(dst, buttonState(b.Rect(), hover, tb.toolOf[b] == st.Tool))
	}

	stroke, ok := st.Color.RGBA()
	for i, r := range tb.swatches {
		fill(dst, r, tb.palette[i].RGBA)
		border := 1
		if ok && tb.palette[i].RGBA == stroke {
			border = 3
		} else if hover.In(r) {
			border = 2
		}
		drawRect(dst, r, th.SwatchBorder, border)
	}
	if !ok {
		stroke = th.ButtonText
	}

	for i, r := range tb.widthRects {
		w := tb.widths[i]
		bg := th.ButtonBackground
		if w == st.Width {
			bg = th.ButtonActive
		}
		fill(dst, r, bg)
		if hover.In(r) && w != st.Width {
			draw.Draw(dst, r, &image.Uniform{color.RGBA{0, 0, 0, 24}}, image.Point{}, draw.Over)
		}
		drawLabel(dst, r.Min.X+4, r.Min.Y+12, fmt.Sprintf("%d", w), th.ButtonText)
		sample := w
		if sample > widthRow-4 {
			sample = widthRow - 4
		}
		mid := r.Min.Y + widthRow/2
		drawLine(dst, r.Min.X+30, mid, r.Max.X-6, mid, stroke, sample)
	}

	for _, b := range tb.actions {
		b.Draw(dst, buttonState(b.Rect(), hover, false))
	}
}

// frame is everything needed to render one window frame.
type frame struct {
	width, height int
	hover         image.Point
	view          View
}

// renderFrame draws the canvas, toolbar and status bar into dst.
func renderFrame(dst *image.RGBA, tb *toolbar, fr frame) {
	th := tb.theme
	fill(dst, dst.Bounds(), th.Background)

	if img := fr.view.Canvas; img != nil {
		size := img.Bounds().Size()
		zoom := fitZoom(size, fr.width, fr.height, tb.width)
		r := canvasRect(size, tb.width, zoom)
		if m := tb.shadow.Mask(r.Size()); m != nil {
			draw.DrawMask(dst, m.Bounds().Add(r.Min), image.Black, image.Point{}, m, m.Bounds().Min, draw.Over)
		}
		xdraw.NearestNeighbor.Scale(dst, r, img, img.Bounds(), draw.Src, nil)
	}

	tb.draw(dst, fr.view.State, fr.hover)
	drawStatus(dst, th, fr.view)
}

func drawStatus(dst *image.RGBA, th *theme.Theme, v View) {
	b := dst.Bounds()
	r := image.Rect(b.Min.X, b.Max.Y-statusHeight, b.Max.X, b.Max.Y)
	fill(dst, r, th.StatusBackground)

	msg := v.Status.Message
	col := th.StatusText
	if v.Status.Err {
		col = th.ErrorText
	}
	if msg == "" {
		msg = fmt.Sprintf("%s  %s  %dpx", toolLabel(v.State.Tool), v.State.Color, v.State.Width)
	}
	face := messageFace()
	if face == nil {
		drawLabel(dst, r.Min.X+6, r.Min.Y+16, msg, col)
		return
	}
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(col), Face: face}
	ascent := face.Metrics().Ascent.Ceil()
	descent := face.Metrics().Descent.Ceil()
	d.Dot = fixed.P(r.Min.X+6, r.Min.Y+(statusHeight-ascent-descent)/2+ascent)
	d.DrawString(msg)
}
