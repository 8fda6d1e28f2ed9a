package appstate

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/paintassemble/internal/bridge"
	"github.com/example/paintassemble/internal/capture"
	"github.com/example/paintassemble/internal/config"
	"github.com/example/paintassemble/internal/events"
	"github.com/example/paintassemble/internal/notify"
	"github.com/example/paintassemble/internal/platform"
	"github.com/example/paintassemble/internal/session"
)

type sent struct {
	title, body string
	opts        platform.Options
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []sent
}

func (r *recordingSender) send(title, body string, opts platform.Options) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, sent{title, body, opts})
	return nil
}

func (r *recordingSender) bodies() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, m := range r.msgs {
		out = append(out, m.body)
	}
	return out
}

type recordingDownloader struct {
	mu        sync.Mutex
	artifacts []bridge.Artifact
	err       error
}

func (d *recordingDownloader) Trigger(_ context.Context, a bridge.Artifact) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return "", d.err
	}
	d.artifacts = append(d.artifacts, a)
	return "memory:" + a.Name, nil
}

func smallConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.New()
	cfg.Width = 40
	cfg.Height = 30
	cfg.SaveDir = t.TempDir()
	cfg.Notify = config.Notify{Import: true, Export: true, Copy: true, Error: true}
	return cfg
}

func newApp(t *testing.T, opts ...Option) (*AppState, *recordingSender) {
	t.Helper()
	rec := &recordingSender{}
	n := notify.New(notify.DefaultPreferences(), notify.WithSender(rec.send))
	all := append([]Option{WithConfig(smallConfig(t)), WithNotifier(n)}, opts...)
	a, err := New(all...)
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a, rec
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func solid(w, h int, c color.RGBA) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func decode(t *testing.T, data []byte) image.Image {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	return img
}

func rgbaAt(img image.Image, x, y int) color.RGBA {
	return color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
}

func TestNewInitializesBeforeDispatch(t *testing.T) {
	a, _ := newApp(t)

	v, err := a.View(context.Background())
	require.NoError(t, err)
	assert.Equal(t, session.ToolPen, v.State.Tool)
	assert.Equal(t, session.MustColor("black"), v.State.Color)
	assert.Equal(t, 8, v.State.Width)
	require.NotNil(t, v.Canvas)
	assert.Equal(t, image.Rect(0, 0, 40, 30), v.Canvas.Bounds())
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := config.New()
	cfg.Width = 0
	_, err := New(WithConfig(cfg))
	require.ErrorIs(t, err, session.ErrInit)
}

func TestNewFactoryFailureIsFatal(t *testing.T) {
	boom := errors.New("no surface")
	_, err := New(
		WithConfig(smallConfig(t)),
		WithEngineFactory(func(int, int) (session.Engine, error) { return nil, boom }),
	)
	require.ErrorIs(t, err, session.ErrInit)
	require.ErrorIs(t, err, boom)
}

func TestExportWritesFileAndNotifies(t *testing.T) {
	a, rec := newApp(t)
	ctx := context.Background()

	require.NoError(t, a.Do(ctx, events.Export{}))

	path := filepath.Join(a.Config().SaveDir, config.DefaultExportName)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	img := decode(t, data)
	assert.Equal(t, image.Rect(0, 0, 40, 30), img.Bounds())
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgbaAt(img, 5, 5))

	assert.Contains(t, a.Status().Message, "Saved")
	assert.False(t, a.Status().Err)
	require.Len(t, rec.bodies(), 1)
	assert.Contains(t, rec.bodies()[0], config.DefaultExportName)
}

func TestImportWaitThenExport(t *testing.T) {
	files := &recordingDownloader{}
	a, rec := newApp(t, WithDownloaders(files, &recordingDownloader{}))
	ctx := context.Background()
	red := color.RGBA{255, 0, 0, 255}

	require.NoError(t, a.Do(ctx, events.Import{Name: "red.png", Data: encodePNG(t, solid(4, 4, red))}))
	require.NoError(t, a.Do(ctx, events.Wait{Timeout: 5 * time.Second}))
	require.NoError(t, a.Do(ctx, events.Export{}))

	require.Len(t, files.artifacts, 1)
	img := decode(t, files.artifacts[0].Data)
	assert.Equal(t, red, rgbaAt(img, 1, 1))
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgbaAt(img, 10, 10))
	assert.Contains(t, rec.bodies(), "Imported red.png")
}

func TestImportFromPath(t *testing.T) {
	files := &recordingDownloader{}
	a, _ := newApp(t, WithDownloaders(files, &recordingDownloader{}))
	ctx := context.Background()
	blue := color.RGBA{0, 0, 255, 255}

	path := filepath.Join(t.TempDir(), "blue.png")
	require.NoError(t, os.WriteFile(path, encodePNG(t, solid(3, 3, blue)), 0o644))

	require.NoError(t, a.Do(ctx, events.Import{Path: path}))
	require.NoError(t, a.Do(ctx, events.Wait{}))
	require.NoError(t, a.Do(ctx, events.Export{}))

	require.Len(t, files.artifacts, 1)
	assert.Equal(t, blue, rgbaAt(decode(t, files.artifacts[0].Data), 0, 0))
}

func TestBadImportReportedAndCanvasUntouched(t *testing.T) {
	files := &recordingDownloader{}
	a, rec := newApp(t, WithDownloaders(files, &recordingDownloader{}))
	ctx := context.Background()

	require.NoError(t, a.Do(ctx, events.Import{Name: "notes.txt", Data: []byte("not an image at all")}))
	require.ErrorIs(t, a.Do(ctx, events.Wait{}), session.ErrDecode)
	require.NoError(t, a.Do(ctx, events.Wait{}), "a failure is reported to one wait only")

	st := a.Status()
	assert.True(t, st.Err)
	assert.Contains(t, st.Message, session.ErrDecode.Error())
	require.NotEmpty(t, rec.bodies())

	require.NoError(t, a.Do(ctx, events.Export{}))
	require.Len(t, files.artifacts, 1)
	assert.Equal(t, color.RGBA{255, 255, 255, 255}, rgbaAt(decode(t, files.artifacts[0].Data), 0, 0))
}

func lastPending(t *testing.T, a *AppState) *bridge.Pending {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.pending)
	return a.pending[len(a.pending)-1]
}

func heldImports(a *AppState) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.pending)
}

func TestFinishedImportsAreNotHeld(t *testing.T) {
	a, _ := newApp(t)
	ctx := context.Background()
	data := encodePNG(t, solid(2, 2, color.RGBA{0, 0, 255, 255}))

	for i := 0; i < 40; i++ {
		require.NoError(t, a.Do(ctx, events.Import{Name: "blue.png", Data: data}))
		select {
		case <-lastPending(t, a).Done():
		case <-time.After(5 * time.Second):
			t.Fatal("import did not finish")
		}
	}
	assert.LessOrEqual(t, heldImports(a), 1)
	require.NoError(t, a.Do(ctx, events.Wait{}))
	assert.Zero(t, heldImports(a))
}

func TestHeldFailuresAreBounded(t *testing.T) {
	a, _ := newApp(t)
	ctx := context.Background()

	for i := 0; i < 40; i++ {
		require.NoError(t, a.Do(ctx, events.Import{Name: "notes.txt", Data: []byte("plain text")}))
		select {
		case <-lastPending(t, a).Done():
		case <-time.After(5 * time.Second):
			t.Fatal("import did not finish")
		}
	}
	assert.LessOrEqual(t, heldImports(a), maxHeldFailures+1)

	err := a.Do(ctx, events.Wait{})
	require.ErrorIs(t, err, session.ErrDecode)
	joined, ok := err.(interface{ Unwrap() []error })
	require.True(t, ok)
	assert.LessOrEqual(t, len(joined.Unwrap()), maxHeldFailures+1)
}

func TestLazyImportDoesNotBlockControls(t *testing.T) {
	a, _ := newApp(t)
	ctx := context.Background()
	reading := make(chan struct{})
	require.NoError(t, a.DispatchRaw(events.Raw{Type: "change", Target: "file-input", Value: "huge.png",
		Open: func(ctx context.Context) (io.ReadCloser, error) {
			close(reading)
			<-ctx.Done()
			return nil, ctx.Err()
		}}))
	select {
	case <-reading:
	case <-time.After(5 * time.Second):
		t.Fatal("lazy file was never opened")
	}

	require.NoError(t, a.Do(ctx, events.SelectTool{Tool: session.ToolFill}))
	blue := color.RGBA{0, 0, 255, 255}
	require.NoError(t, a.Do(ctx, events.Import{Name: "blue.png", Data: encodePNG(t, solid(2, 2, blue))}))
	require.NoError(t, a.Do(ctx, events.Wait{}), "a superseded read is not a failure")

	v, err := a.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ToolFill, v.State.Tool)
	assert.Equal(t, blue, v.Canvas.RGBAAt(0, 0))
}

func TestReportSurfacesFrontEndErrors(t *testing.T) {
	a, rec := newApp(t)
	a.Report(nil)
	assert.False(t, a.Status().Err)

	a.Report(errors.New("input queue full"))
	st := a.Status()
	assert.True(t, st.Err)
	assert.Equal(t, "input queue full", st.Message)
	assert.NotEmpty(t, rec.bodies())
}

func TestImportWithoutFileRejected(t *testing.T) {
	a, _ := newApp(t)
	err := a.Do(context.Background(), events.Import{})
	require.ErrorIs(t, err, session.ErrInvalidInput)
	assert.True(t, a.Status().Err)
}

func TestInvalidOperationsSurfaced(t *testing.T) {
	a, rec := newApp(t)
	ctx := context.Background()

	err := a.Do(ctx, events.SetWidth{Width: 0})
	require.ErrorIs(t, err, session.ErrInvalidInput)
	assert.True(t, a.Status().Err)
	assert.Len(t, rec.bodies(), 1)

	v, err := a.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, 8, v.State.Width)
}

func TestStyleAndToolDispatch(t *testing.T) {
	a, _ := newApp(t)
	ctx := context.Background()

	require.NoError(t, a.Do(ctx, events.SelectTool{Tool: session.ToolCircle}))
	require.NoError(t, a.Do(ctx, events.SetColor{Color: session.MustColor("#ff0000")}))
	require.NoError(t, a.Do(ctx, events.SetWidth{Width: 3}))

	v, err := a.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.State{Tool: session.ToolCircle, Color: session.MustColor("#ff0000"), Width: 3}, v.State)
}

func TestPenStrokeReachesExport(t *testing.T) {
	files := &recordingDownloader{}
	a, _ := newApp(t, WithDownloaders(files, &recordingDownloader{}))
	ctx := context.Background()

	for _, op := range []events.Op{
		events.SetColor{Color: session.MustColor("#0000ff")},
		events.Pointer{Phase: events.Down, X: 5, Y: 15},
		events.Pointer{Phase: events.Move, X: 35, Y: 15},
		events.Pointer{Phase: events.Up, X: 35, Y: 15},
		events.Export{},
	} {
		require.NoError(t, a.Do(ctx, op))
	}

	require.Len(t, files.artifacts, 1)
	px := rgbaAt(decode(t, files.artifacts[0].Data), 20, 15)
	assert.Greater(t, px.B, px.R)
}

func TestCopyUsesClipboardDownloader(t *testing.T) {
	files, clip := &recordingDownloader{}, &recordingDownloader{}
	a, rec := newApp(t, WithDownloaders(files, clip))

	require.NoError(t, a.Do(context.Background(), events.Copy{}))

	assert.Empty(t, files.artifacts)
	require.Len(t, clip.artifacts, 1)
	assert.Equal(t, bridge.MediaTypePNG, clip.artifacts[0].MediaType)
	assert.Contains(t, rec.bodies(), "Copied "+config.DefaultExportName+" to clipboard")
}

func TestDeliveryFailureReported(t *testing.T) {
	files := &recordingDownloader{err: errors.New("disk full")}
	a, _ := newApp(t, WithDownloaders(files, &recordingDownloader{}))

	err := a.Do(context.Background(), events.Export{})
	require.ErrorIs(t, err, session.ErrDownload)
	assert.True(t, a.Status().Err)
}

func TestPasteAndCaptureUseSources(t *testing.T) {
	files := &recordingDownloader{}
	green := color.RGBA{0, 255, 0, 255}
	var shotOpts capture.Options
	a, _ := newApp(t,
		WithDownloaders(files, &recordingDownloader{}),
		WithClipboardReader(func() ([]byte, error) { return encodePNG(t, solid(2, 2, green)), nil }),
		WithScreenshotter(func(_ context.Context, o capture.Options) ([]byte, error) {
			shotOpts = o
			return nil, capture.ErrUnsupported
		}),
	)
	ctx := context.Background()

	require.NoError(t, a.Do(ctx, events.Paste{}))
	require.NoError(t, a.Do(ctx, events.Wait{}))
	require.NoError(t, a.Do(ctx, events.Export{}))
	require.Len(t, files.artifacts, 1)
	assert.Equal(t, green, rgbaAt(decode(t, files.artifacts[0].Data), 0, 0))

	require.NoError(t, a.Do(ctx, events.Capture{Interactive: true}))
	require.ErrorIs(t, a.Do(ctx, events.Wait{}), capture.ErrUnsupported)
	assert.True(t, shotOpts.Interactive)
	assert.True(t, a.Status().Err)
}

func TestDispatchRejectsWait(t *testing.T) {
	a, _ := newApp(t)
	require.ErrorIs(t, a.Dispatch(events.Wait{}), session.ErrInvalidInput)
	require.ErrorIs(t, a.Dispatch(nil), session.ErrInvalidInput)
}

func TestDispatchRawNormalizes(t *testing.T) {
	statuses := make(chan Status, 4)
	a, _ := newApp(t, WithStatusListener(func(s Status) { statuses <- s }))
	ctx := context.Background()

	require.NoError(t, a.DispatchRaw(events.Raw{Type: "click", Target: "tool", Value: "fill"}))
	err := a.DispatchRaw(events.Raw{Type: "click", Target: "nowhere"})
	require.ErrorIs(t, err, session.ErrInvalidInput)

	select {
	case st := <-statuses:
		assert.True(t, st.Err)
	case <-time.After(time.Second):
		t.Fatal("no status for rejected event")
	}

	v, err := a.View(ctx)
	require.NoError(t, err)
	assert.Equal(t, session.ToolFill, v.State.Tool)
}

func TestCloseIsIdempotent(t *testing.T) {
	a, err := New(WithConfig(smallConfig(t)), WithNotifier(notify.New(notify.DefaultPreferences())))
	require.NoError(t, err)
	a.Close()
	a.Close()
	require.ErrorIs(t, a.Dispatch(events.Export{}), session.ErrLoopClosed)
}

func TestUpdatesSignalledOnChange(t *testing.T) {
	a, _ := newApp(t)
	// Drain the signal raised during start up.
	select {
	case <-a.Updates():
	default:
	}
	require.NoError(t, a.Do(context.Background(), events.SelectTool{Tool: session.ToolText}))
	select {
	case <-a.Updates():
	case <-time.After(time.Second):
		t.Fatal("no update after tool change")
	}
}
