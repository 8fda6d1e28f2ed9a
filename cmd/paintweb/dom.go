//go:build js && wasm

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"syscall/js"
	"time"

	"github.com/example/paintassemble/internal/bridge"
	"github.com/example/paintassemble/internal/events"
)

// defaultRevokeDelay keeps an object URL alive long enough for the browser
// to start the download it backs.
const defaultRevokeDelay = 40 * time.Second

var errNoImage = errors.New("clipboard holds no image")

// await blocks until p settles. It must not run on the goroutine serving a
// JavaScript callback.
func await(ctx context.Context, p js.Value) (js.Value, error) {
	type result struct {
		v   js.Value
		err error
	}
	ch := make(chan result, 1)
	then := js.FuncOf(func(_ js.Value, args []js.Value) any {
		v := js.Undefined()
		if len(args) > 0 {
			v = args[0]
		}
		ch <- result{v: v}
		return nil
	})
	catch := js.FuncOf(func(_ js.Value, args []js.Value) any {
		msg := "promise rejected"
		if len(args) > 0 && args[0].Truthy() {
			msg = args[0].Call("toString").String()
		}
		ch <- result{err: errors.New(msg)}
		return nil
	})
	defer then.Release()
	defer catch.Release()
	p.Call("then", then).Call("catch", catch)

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return js.Undefined(), ctx.Err()
	}
}

// bytesOf copies an ArrayBuffer into Go memory.
func bytesOf(buf js.Value) []byte {
	arr := js.Global().Get("Uint8Array").New(buf)
	data := make([]byte, arr.Get("length").Int())
	js.CopyBytesToGo(data, arr)
	return data
}

func blobOf(a bridge.Artifact) js.Value {
	arr := js.Global().Get("Uint8Array").New(len(a.Data))
	js.CopyBytesToJS(arr, a.Data)
	opts := js.Global().Get("Object").New()
	opts.Set("type", a.MediaType)
	return js.Global().Get("Blob").New([]any{arr}, opts)
}

// fileRaw describes a file input selection. The bytes are read later, by the
// import worker, from the File captured here.
func fileRaw(file js.Value) events.Raw {
	return events.Raw{
		Type:   "change",
		Target: "file-input",
		Value:  file.Get("name").String(),
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			if size := file.Get("size").Int(); size > bridge.MaxImportBytes {
				return nil, fmt.Errorf("file is %d bytes, the limit is %d", size, bridge.MaxImportBytes)
			}
			buf, err := await(ctx, file.Call("arrayBuffer"))
			if err != nil {
				return nil, err
			}
			return io.NopCloser(bytes.NewReader(bytesOf(buf))), nil
		},
	}
}

// blobDownloader saves artifacts through a temporary anchor element.
type blobDownloader struct {
	doc js.Value
	// revokeAfter delays releasing the object URL; zero means the default.
	revokeAfter time.Duration
}

func (d blobDownloader) Trigger(_ context.Context, a bridge.Artifact) (string, error) {
	if len(a.Data) == 0 {
		return "", errors.New("empty artifact")
	}
	url := js.Global().Get("URL")
	href := url.Call("createObjectURL", blobOf(a))

	link := d.doc.Call("createElement", "a")
	link.Set("href", href)
	link.Set("download", a.Name)
	link.Get("style").Set("display", "none")
	body := d.doc.Get("body")
	body.Call("appendChild", link)
	link.Call("click")
	body.Call("removeChild", link)

	delay := d.revokeAfter
	if delay <= 0 {
		delay = defaultRevokeDelay
	}
	var revoke js.Func
	revoke = js.FuncOf(func(js.Value, []js.Value) any {
		url.Call("revokeObjectURL", href)
		revoke.Release()
		return nil
	})
	js.Global().Call("setTimeout", revoke, delay.Milliseconds())
	return a.Name, nil
}

// clipboardDownloader writes artifacts with the asynchronous clipboard API.
type clipboardDownloader struct{}

func (clipboardDownloader) Trigger(ctx context.Context, a bridge.Artifact) (string, error) {
	clip := js.Global().Get("navigator").Get("clipboard")
	if !clip.Truthy() || !js.Global().Get("ClipboardItem").Truthy() {
		return "", errors.New("clipboard is not available")
	}
	entry := js.Global().Get("Object").New()
	entry.Set(a.MediaType, blobOf(a))
	item := js.Global().Get("ClipboardItem").New(entry)
	if _, err := await(ctx, clip.Call("write", []any{item})); err != nil {
		return "", fmt.Errorf("clipboard write: %w", err)
	}
	return "clipboard", nil
}

// readClipboard returns the first PNG on the clipboard.
func readClipboard() ([]byte, error) {
	ctx := context.Background()
	clip := js.Global().Get("navigator").Get("clipboard")
	if !clip.Truthy() {
		return nil, errors.New("clipboard is not available")
	}
	items, err := await(ctx, clip.Call("read"))
	if err != nil {
		return nil, fmt.Errorf("clipboard read: %w", err)
	}
	for i := 0; i < items.Length(); i++ {
		item := items.Index(i)
		types := item.Get("types")
		for j := 0; j < types.Length(); j++ {
			if types.Index(j).String() != bridge.MediaTypePNG {
				continue
			}
			blob, err := await(ctx, item.Call("getType", bridge.MediaTypePNG))
			if err != nil {
				return nil, err
			}
			buf, err := await(ctx, blob.Call("arrayBuffer"))
			if err != nil {
				return nil, err
			}
			return bytesOf(buf), nil
		}
	}
	return nil, errNoImage
}
