//go:build js && wasm

package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"syscall/js"
	"testing"
	"time"

	"github.com/example/paintassemble/internal/bridge"
	"github.com/example/paintassemble/internal/events"
)

// evalJS builds a value from a function body, for page objects node lacks.
func evalJS(body string) js.Value {
	return js.Global().Get("Function").New(body).Invoke()
}

func fakeFile(name, text string) js.Value {
	f := evalJS(`return {
		size: 0,
		reads: 0,
		data: "",
		arrayBuffer() { this.reads++; return Promise.resolve(new TextEncoder().encode(this.data).buffer); }
	};`)
	f.Set("name", name)
	f.Set("data", text)
	f.Set("size", len(text))
	return f
}

func TestFileRawReadsOnOpen(t *testing.T) {
	f := fakeFile("cat.png", "pixels")
	raw := fileRaw(f)
	if raw.Target != "file-input" || raw.Value != "cat.png" {
		t.Fatalf("raw = %+v", raw)
	}
	if n := f.Get("reads").Int(); n != 0 {
		t.Fatalf("file read %d times before Open", n)
	}
	rc, err := raw.Open(context.Background())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "pixels" {
		t.Fatalf("data = %q", data)
	}
}

func TestFileRawRejectsLargeFileWithoutReading(t *testing.T) {
	f := fakeFile("huge.png", "x")
	f.Set("size", bridge.MaxImportBytes+1)
	if _, err := fileRaw(f).Open(context.Background()); err == nil || !strings.Contains(err.Error(), "limit") {
		t.Fatalf("err = %v, want size limit", err)
	}
	if n := f.Get("reads").Int(); n != 0 {
		t.Fatalf("oversized file was read %d times", n)
	}
}

func TestFileRawOpenHonoursCancel(t *testing.T) {
	f := evalJS(`return { name: "slow.png", size: 1, arrayBuffer() { return new Promise(() => {}); } };`)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := fileRaw(f).Open(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
}

func TestSendReportsFullQueue(t *testing.T) {
	var got []error
	p := &page{
		raw:    make(chan events.Raw, 1),
		report: func(err error) { got = append(got, err) },
	}
	p.send(events.Raw{Type: "click", Target: "export"})
	p.send(events.Raw{Type: "click", Target: "copy"})
	if len(p.raw) != 1 {
		t.Fatalf("queued %d events, want 1", len(p.raw))
	}
	if len(got) != 1 || !errors.Is(got[0], errQueueFull) {
		t.Fatalf("reports = %v, want one errQueueFull", got)
	}
	if !strings.Contains(got[0].Error(), "copy") {
		t.Fatalf("report %q does not name the dropped event", got[0])
	}
}

func TestBlobDownloaderRevokesAfterDelay(t *testing.T) {
	global := js.Global()
	realURL := global.Get("URL")
	fakeURL := evalJS(`return {
		revoked: [],
		createObjectURL() { return "blob:test"; },
		revokeObjectURL(u) { this.revoked.push(u); }
	};`)
	global.Set("URL", fakeURL)
	defer global.Set("URL", realURL)

	doc := evalJS(`return {
		clicks: 0,
		body: { appendChild() {}, removeChild() {} },
		createElement() { const d = this; return { style: {}, click() { d.clicks++; } }; }
	};`)
	d := blobDownloader{doc: doc, revokeAfter: 20 * time.Millisecond}
	name, err := d.Trigger(context.Background(), bridge.Artifact{Name: "a.png", MediaType: bridge.MediaTypePNG, Data: []byte{1}})
	if err != nil || name != "a.png" {
		t.Fatalf("trigger = %q, %v", name, err)
	}
	if doc.Get("clicks").Int() != 1 {
		t.Fatal("download link was not clicked")
	}
	if n := fakeURL.Get("revoked").Length(); n != 0 {
		t.Fatalf("url revoked %d times during the click", n)
	}
	time.Sleep(200 * time.Millisecond)
	revoked := fakeURL.Get("revoked")
	if revoked.Length() != 1 || revoked.Index(0).String() != "blob:test" {
		t.Fatalf("revoked = %v, want blob:test once", revoked)
	}
}
