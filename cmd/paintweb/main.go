//go:build js && wasm

// Command paintweb runs the editor inside a browser page. The page supplies
// the controls by id and class; see index.html.
package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"syscall/js"

	"github.com/example/paintassemble/internal/appstate"
	"github.com/example/paintassemble/internal/capture"
	"github.com/example/paintassemble/internal/config"
	"github.com/example/paintassemble/internal/events"
	"github.com/example/paintassemble/internal/logging"
)

const queueSize = 1024

var errQueueFull = errors.New("input queue full, event dropped")

// page binds DOM controls to a session.
type page struct {
	doc    js.Value
	canvas js.Value
	ctx2d  js.Value
	status js.Value
	state  *appstate.AppState
	log    *slog.Logger

	raw    chan events.Raw
	report func(error)
	funcs  []js.Func
	width  int
	height int
}

func main() {
	log := logging.NewWriter(os.Stderr, slog.LevelInfo)
	doc := js.Global().Get("document")
	p := &page{
		doc:    doc,
		canvas: doc.Call("getElementById", "canvas"),
		status: doc.Call("getElementById", "status"),
		log:    log,
		raw:    make(chan events.Raw, queueSize),
		report: func(err error) { log.Warn("event dropped", "err", err) },
	}
	if !p.canvas.Truthy() {
		log.Error("page has no #canvas element")
		return
	}
	p.ctx2d = p.canvas.Call("getContext", "2d")

	cfg := config.New()
	if w := p.canvas.Get("width").Int(); w > 0 {
		cfg.Width = w
	}
	if h := p.canvas.Get("height").Int(); h > 0 {
		cfg.Height = h
	}
	state, err := appstate.New(
		appstate.WithConfig(cfg),
		appstate.WithLogger(log),
		appstate.WithDownloaders(blobDownloader{doc: doc}, clipboardDownloader{}),
		appstate.WithClipboardReader(readClipboard),
		appstate.WithScreenshotter(func(context.Context, capture.Options) ([]byte, error) {
			return nil, capture.ErrUnsupported
		}),
	)
	if err != nil {
		p.setStatus(appstate.Status{Message: err.Error(), Err: true})
		log.Error("initialize", "err", err)
		return
	}
	p.state = state
	p.report = state.Report
	defer state.Close()

	p.bind()
	go p.forward()
	p.render(context.Background())
}

// forward hands raw events to the session in arrival order. It never waits
// on the browser: file contents are read by the import worker.
func (p *page) forward() {
	for raw := range p.raw {
		if err := p.state.DispatchRaw(raw); err != nil {
			p.log.Debug("event rejected", "type", raw.Type, "target", raw.Target, "err", err)
		}
	}
}

// send queues raw without blocking the JavaScript callback. A full queue
// drops the event and tells the user.
func (p *page) send(raw events.Raw) {
	select {
	case p.raw <- raw:
	default:
		p.report(fmt.Errorf("%w: %s %s", errQueueFull, raw.Type, raw.Target))
	}
}

func (p *page) on(el js.Value, name string, fn func(js.Value)) {
	if !el.Truthy() {
		return
	}
	f := js.FuncOf(func(_ js.Value, args []js.Value) any {
		if len(args) > 0 {
			fn(args[0])
		}
		return nil
	})
	p.funcs = append(p.funcs, f)
	el.Call("addEventListener", name, f)
}

func (p *page) byID(id string) js.Value { return p.doc.Call("getElementById", id) }

func (p *page) each(selector string, fn func(js.Value)) {
	list := p.doc.Call("querySelectorAll", selector)
	for i := 0; i < list.Length(); i++ {
		fn(list.Index(i))
	}
}

func (p *page) bind() {
	p.each(".color-button", func(el js.Value) {
		p.on(el, "click", func(js.Value) {
			p.send(events.Raw{Type: "click", Target: "color-button", Value: el.Get("dataset").Get("color").String()})
		})
	})
	p.each(".tool-button", func(el js.Value) {
		p.on(el, "click", func(js.Value) {
			p.send(events.Raw{Type: "click", Target: "tool-button", Value: el.Get("dataset").Get("tool").String()})
		})
	})
	picker := p.byID("color-picker")
	p.on(picker, "change", func(js.Value) {
		p.send(events.Raw{Type: "change", Target: "color-picker", Value: picker.Get("value").String()})
	})
	slider := p.byID("width-slider")
	p.on(slider, "change", func(js.Value) {
		p.send(events.Raw{Type: "change", Target: "width-slider", Value: slider.Get("value").String()})
	})
	file := p.byID("file-input")
	p.on(file, "change", func(js.Value) {
		files := file.Get("files")
		if files.Length() == 0 {
			p.send(events.Raw{Type: "change", Target: "file-input"})
			return
		}
		p.send(fileRaw(files.Index(0)))
		// Selecting the same file again fires a new change event.
		file.Set("value", "")
	})
	for id, target := range map[string]string{
		"export-button":  "export",
		"copy-button":    "copy",
		"paste-button":   "paste",
		"capture-button": "capture",
	} {
		target := target
		p.on(p.byID(id), "click", func(js.Value) {
			p.send(events.Raw{Type: "click", Target: target})
		})
	}

	for _, name := range []string{"pointerdown", "pointermove", "pointerup"} {
		name := name
		p.on(p.canvas, name, func(e js.Value) {
			x, y := p.canvasPoint(e)
			p.send(events.Raw{Type: name, X: x, Y: y})
		})
	}
	p.on(p.doc, "keydown", func(e js.Value) {
		if e.Get("target").Get("tagName").String() == "INPUT" {
			return
		}
		if e.Get("ctrlKey").Bool() || e.Get("metaKey").Bool() {
			if target, ok := shortcuts[e.Get("key").String()]; ok {
				e.Call("preventDefault")
				p.send(events.Raw{Type: "click", Target: target})
			}
			return
		}
		p.send(events.Raw{Type: "keydown", Value: e.Get("key").String()})
	})
}

var shortcuts = map[string]string{
	"s": "export",
	"c": "copy",
	"v": "paste",
}

// canvasPoint maps a pointer event into canvas pixels when CSS scales the
// element.
func (p *page) canvasPoint(e js.Value) (float64, float64) {
	x, y := e.Get("offsetX").Float(), e.Get("offsetY").Float()
	cw, ch := p.canvas.Get("clientWidth").Float(), p.canvas.Get("clientHeight").Float()
	if cw > 0 && ch > 0 {
		x *= p.canvas.Get("width").Float() / cw
		y *= p.canvas.Get("height").Float() / ch
	}
	return x, y
}

// render repaints the canvas element whenever the session changes.
func (p *page) render(ctx context.Context) {
	p.paint(ctx)
	for range p.state.Updates() {
		p.paint(ctx)
	}
}

func (p *page) paint(ctx context.Context) {
	view, err := p.state.View(ctx)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			p.log.Warn("view", "err", err)
		}
		return
	}
	p.setStatus(view.Status)
	if view.Canvas == nil {
		return
	}
	p.blit(view.Canvas)
}

func (p *page) blit(img *image.RGBA) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if w != p.width || h != p.height {
		p.canvas.Set("width", w)
		p.canvas.Set("height", h)
		p.width, p.height = w, h
	}
	pix := js.Global().Get("Uint8ClampedArray").New(len(img.Pix))
	js.CopyBytesToJS(pix, img.Pix)
	data := js.Global().Get("ImageData").New(pix, w, h)
	p.ctx2d.Call("putImageData", data, 0, 0)
}

func (p *page) setStatus(st appstate.Status) {
	if !p.status.Truthy() {
		return
	}
	p.status.Set("textContent", st.Message)
	p.status.Get("classList").Call("toggle", "error", st.Err)
}
