package appstate

import (
	"context"
	"errors"
	"image"
	"sync"
	"unicode"

	"golang.org/x/exp/shiny/screen"
	"golang.org/x/mobile/event/key"
	"golang.org/x/mobile/event/lifecycle"
	"golang.org/x/mobile/event/mouse"
	"golang.org/x/mobile/event/paint"
	"golang.org/x/mobile/event/size"

	"github.com/example/paintassemble/internal/events"
	"github.com/example/paintassemble/internal/session"
)

const maxWindowHeight = 1000

// frameDropThreshold specifies how many consecutive frames can be canceled
// before a draw is allowed to complete to keep the UI responsive.
const frameDropThreshold = 10

// KeyShortcut is a key combination bound to an operation.
type KeyShortcut struct {
	Rune      rune
	Code      key.Code
	Modifiers key.Modifiers
}

var shortcuts = map[KeyShortcut]events.Op{
	{Rune: 's', Modifiers: key.ModControl}: events.Export{},
	{Rune: 'c', Modifiers: key.ModControl}: events.Copy{},
	{Rune: 'v', Modifiers: key.ModControl}: events.Paste{},
	{Rune: 'p', Modifiers: key.ModControl}: events.Capture{Interactive: true},
}

// shortcutOp resolves a key press bound to an action.
func shortcutOp(e key.Event) (events.Op, bool) {
	if e.Modifiers == 0 {
		return nil, false
	}
	if op, ok := shortcuts[KeyShortcut{Rune: unicode.ToLower(e.Rune), Modifiers: e.Modifiers}]; ok {
		return op, true
	}
	op, ok := shortcuts[KeyShortcut{Code: e.Code, Modifiers: e.Modifiers}]
	return op, ok
}

// keyName maps a key press onto the names the text tool understands.
func keyName(e key.Event) string {
	switch e.Code {
	case key.CodeReturnEnter, key.CodeKeypadEnter:
		return "Enter"
	case key.CodeDeleteBackspace:
		return "Backspace"
	case key.CodeEscape:
		return "Escape"
	}
	if e.Rune > 0 && unicode.IsPrint(e.Rune) {
		return string(e.Rune)
	}
	return ""
}

// windowSize fits the canvas and toolbar, capping the height.
func windowSize(canvas image.Point, tb *toolbar) (int, int) {
	h := canvas.Y + statusHeight
	if least := tb.height + statusHeight; h < least {
		h = least
	}
	if h > maxWindowHeight {
		h = maxWindowHeight
	}
	zoom := fitZoom(canvas, canvas.X+tb.width, h, tb.width)
	return tb.width + int(float64(canvas.X)*zoom), h
}

// Main runs the window on s until it is closed.
func (a *AppState) Main(s screen.Screen) {
	tb := newToolbar(a.theme, a.cfg.StrokeWidth)
	canvas := image.Pt(a.cfg.Width, a.cfg.Height)
	width, height := windowSize(canvas, tb)

	w, err := s.NewWindow(&screen.NewWindowOptions{Width: width, Height: height, Title: windowTitle})
	if err != nil {
		a.log.Error("new window", "err", err)
		return
	}
	defer w.Release()

	done := make(chan struct{})
	defer close(done)
	go func() {
		for {
			select {
			case <-a.Updates():
				w.Send(paint.Event{})
			case <-done:
				return
			}
		}
	}()

	var paintMu sync.Mutex
	var paintCancel context.CancelFunc
	var dropCount int
	paintCh := make(chan frame, 1)
	defer close(paintCh)
	go func() {
		for fr := range paintCh {
			ctx, cancel := context.WithCancel(context.Background())
			paintMu.Lock()
			paintCancel = cancel
			paintMu.Unlock()
			a.drawFrame(ctx, s, w, tb, fr)
			paintMu.Lock()
			paintCancel = nil
			if ctx.Err() == nil {
				dropCount = 0
			}
			paintMu.Unlock()
			cancel()
		}
	}()

	dispatch := func(op events.Op) {
		if err := a.Dispatch(op); err != nil && !errors.Is(err, session.ErrLoopClosed) {
			a.log.Warn("dispatch", "op", events.Name(op), "err", err)
		}
	}

	var hover image.Point
	var pressed bool
	for {
		switch e := w.NextEvent().(type) {
		case lifecycle.Event:
			if e.To == lifecycle.StageDead {
				paintMu.Lock()
				if paintCancel != nil {
					paintCancel()
				}
				paintMu.Unlock()
				return
			}
		case size.Event:
			width, height = e.WidthPx, e.HeightPx
			w.Send(paint.Event{})
		case paint.Event:
			paintMu.Lock()
			if paintCancel != nil && dropCount < frameDropThreshold {
				paintCancel()
				dropCount++
			}
			paintMu.Unlock()
			fr := frame{width: width, height: height, hover: hover}
			select {
			case paintCh <- fr:
			default:
				select {
				case <-paintCh:
				default:
				}
				paintCh <- fr
			}
		case mouse.Event:
			p := image.Pt(int(e.X), int(e.Y))
			hover = p
			if p.X < tb.width && !pressed {
				if e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress {
					if op, ok := tb.opAt(p); ok {
						dispatch(op)
					}
				}
				w.Send(paint.Event{})
				continue
			}
			zoom := fitZoom(canvas, width, height, tb.width)
			x, y := toCanvas(p, canvasRect(canvas, tb.width, zoom), zoom)
			switch {
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirPress:
				pressed = true
				dispatch(events.Pointer{Phase: events.Down, X: x, Y: y})
			case e.Button == mouse.ButtonLeft && e.Direction == mouse.DirRelease:
				if pressed {
					pressed = false
					dispatch(events.Pointer{Phase: events.Up, X: x, Y: y})
				}
			case e.Direction == mouse.DirNone && pressed:
				dispatch(events.Pointer{Phase: events.Move, X: x, Y: y})
			}
		case key.Event:
			if e.Direction == key.DirRelease {
				continue
			}
			if op, ok := shortcutOp(e); ok {
				dispatch(op)
				continue
			}
			if name := keyName(e); name != "" {
				dispatch(events.Key{Key: name})
			}
		case error:
			a.log.Error("window event", "err", e)
		}
	}
}

func (a *AppState) drawFrame(ctx context.Context, s screen.Screen, w screen.Window, tb *toolbar, fr frame) {
	if fr.width <= 0 || fr.height <= 0 {
		return
	}
	v, err := a.View(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			a.log.Debug("view", "err", err)
		}
		return
	}
	fr.view = v

	b, err := s.NewBuffer(image.Point{fr.width, fr.height})
	if err != nil {
		a.log.Error("new buffer", "err", err)
		return
	}
	defer b.Release()

	renderFrame(b.RGBA(), tb, fr)
	if ctx.Err() != nil {
		return
	}
	w.Upload(image.Point{}, b, b.Bounds())
	w.Publish()
}
