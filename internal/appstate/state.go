package appstate

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/exp/shiny/driver"

	"github.com/example/paintassemble/internal/bridge"
	"github.com/example/paintassemble/internal/capture"
	"github.com/example/paintassemble/internal/config"
	"github.com/example/paintassemble/internal/events"
	"github.com/example/paintassemble/internal/logging"
	"github.com/example/paintassemble/internal/notify"
	"github.com/example/paintassemble/internal/paint"
	"github.com/example/paintassemble/internal/session"
	"github.com/example/paintassemble/internal/theme"
)

const (
	loopQueueSize  = 64
	deliverTimeout = 30 * time.Second
)

// Status is the last message shown to the user.
type Status struct {
	Message string
	Err     bool
	At      time.Time
}

// View is what a front end needs to draw one frame.
type View struct {
	State  session.State
	Canvas *image.RGBA
	Status Status
}

// AppState wires an editing session to its import and export pipelines,
// notifications and front ends. Every operation runs on the session loop.
type AppState struct {
	cfg     *config.Config
	log     *slog.Logger
	theme   *theme.Theme
	factory session.EngineFactory
	stages  bridge.Stages

	loop     *session.Loop
	ctrl     *session.Controller
	importer *bridge.Importer
	exporter *bridge.Exporter
	files    bridge.Downloader
	clip     bridge.Downloader
	notifier *notify.Notifier

	readClipboard func() ([]byte, error)
	screenshot    func(context.Context, capture.Options) ([]byte, error)
	statusFn      func(Status)

	ctx       context.Context
	stop      context.CancelFunc
	done      chan struct{}
	closeOnce sync.Once
	updateCh  chan struct{}
	closers   []io.Closer

	mu      sync.Mutex
	status  Status
	pending []*bridge.Pending
}

// Option modifies an AppState during creation.
type Option func(*AppState)

// WithConfig sets the configuration. The default is config.New().
func WithConfig(cfg *config.Config) Option {
	return func(a *AppState) {
		if cfg != nil {
			a.cfg = cfg
		}
	}
}

// WithLogger configures a logger for the session and its pipelines.
func WithLogger(l *slog.Logger) Option {
	return func(a *AppState) {
		if l != nil {
			a.log = l
		}
	}
}

// WithTheme sets the window theme.
func WithTheme(t *theme.Theme) Option {
	return func(a *AppState) {
		if t != nil {
			a.theme = t
		}
	}
}

// WithEngineFactory replaces the gg canvas engine.
func WithEngineFactory(f session.EngineFactory) Option {
	return func(a *AppState) { a.factory = f }
}

// WithStages replaces the import decoding stages.
func WithStages(s bridge.Stages) Option { return func(a *AppState) { a.stages = s } }

// WithNotifier sets the notifier. Per-event switches still come from the
// configuration.
func WithNotifier(n *notify.Notifier) Option { return func(a *AppState) { a.notifier = n } }

// WithDownloaders replaces the export targets for saving and copying.
func WithDownloaders(files, clip bridge.Downloader) Option {
	return func(a *AppState) {
		a.files = files
		a.clip = clip
	}
}

// WithClipboardReader replaces the clipboard used by paste.
func WithClipboardReader(fn func() ([]byte, error)) Option {
	return func(a *AppState) { a.readClipboard = fn }
}

// WithScreenshotter replaces the screenshot source used by capture.
func WithScreenshotter(fn func(context.Context, capture.Options) ([]byte, error)) Option {
	return func(a *AppState) { a.screenshot = fn }
}

// WithStatusListener registers a callback for status changes. It may be
// called from any goroutine.
func WithStatusListener(fn func(Status)) Option { return func(a *AppState) { a.statusFn = fn } }

// New builds and initializes the session, then starts its loop. The engine
// exists before any front end can dispatch to it.
func New(opts ...Option) (*AppState, error) {
	a := &AppState{
		cfg:      config.New(),
		log:      logging.NewNop(),
		theme:    theme.Default(),
		done:     make(chan struct{}),
		updateCh: make(chan struct{}, 1),
	}
	for _, o := range opts {
		o(a)
	}
	if err := a.cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrInit, err)
	}
	col, err := session.ParseColor(a.cfg.Color)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrInit, err)
	}
	for _, p := range a.cfg.Palette {
		if rgba, err := theme.ParseHex(p.Value); err == nil {
			session.EnsurePaletteColor(rgba, p.Name)
		}
	}
	if a.factory == nil {
		a.factory = a.paintEngine
	}
	if a.notifier == nil {
		prefs, err := notify.LoadPreferences()
		if err != nil {
			a.log.Warn("notification preferences", "err", err)
			prefs = notify.DefaultPreferences()
		}
		a.notifier = notify.New(prefs, notify.WithLogger(a.log))
	}
	a.notifier.Enable(notify.EventImport, a.cfg.Notify.Import)
	a.notifier.Enable(notify.EventExport, a.cfg.Notify.Export)
	a.notifier.Enable(notify.EventCopy, a.cfg.Notify.Copy)
	a.notifier.Enable(notify.EventError, a.cfg.Notify.Error)

	a.loop = session.NewLoop(loopQueueSize)
	a.ctrl = session.New(a.tracked(a.factory),
		session.WithDefaultColor(col),
		session.WithDefaultWidth(a.cfg.StrokeWidth),
		session.WithReporter(a.report),
		session.WithStateListener(func(session.State) { a.requestRepaint() }),
		session.WithLogger(a.log.With("component", "session")),
	)
	if err := a.ctrl.Initialize(a.cfg.Width, a.cfg.Height); err != nil {
		a.closeEngines()
		return nil, err
	}

	importOpts := []bridge.ImporterOption{
		bridge.WithImporterLogger(a.log.With("component", "import")),
		bridge.WithImportedHook(a.imported),
	}
	if a.stages != nil {
		importOpts = append(importOpts, bridge.WithStages(a.stages))
	}
	a.importer = bridge.NewImporter(a.loop, a.ctrl, importOpts...)
	a.exporter = bridge.NewExporter(
		bridge.WithFilename(a.cfg.ExportName),
		bridge.WithExporterLogger(a.log.With("component", "export")),
	)
	if a.files == nil {
		a.files = bridge.FileDownloader{Dir: a.cfg.SaveDir}
	}
	if a.clip == nil {
		a.clip = bridge.ClipboardDownloader{}
	}

	a.ctx, a.stop = context.WithCancel(context.Background())
	go func() {
		defer close(a.done)
		if err := a.loop.Run(a.ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.log.Error("event loop stopped", "err", err)
		}
	}()
	return a, nil
}

func (a *AppState) paintEngine(width, height int) (session.Engine, error) {
	c, err := paint.New(width, height, paint.WithLogger(a.log.With("component", "paint")))
	if err != nil {
		return nil, err
	}
	return c, nil
}

// tracked records engines that hold resources so Close can release them.
func (a *AppState) tracked(f session.EngineFactory) session.EngineFactory {
	return func(width, height int) (session.Engine, error) {
		eng, err := f(width, height)
		if err != nil {
			return nil, err
		}
		if c, ok := eng.(io.Closer); ok {
			a.closers = append(a.closers, c)
		}
		return eng, nil
	}
}

// Config returns the configuration the session was built with.
func (a *AppState) Config() *config.Config { return a.cfg }

// Theme returns the window theme.
func (a *AppState) Theme() *theme.Theme { return a.theme }

// Run opens the desktop window and blocks until it closes.
func (a *AppState) Run() { driver.Main(a.Main) }

// Dispatch queues op on the session loop and returns without waiting.
// Failures are surfaced through the status and notifications.
func (a *AppState) Dispatch(op events.Op) error {
	if op == nil {
		return fmt.Errorf("%w: no operation", session.ErrInvalidInput)
	}
	if _, ok := op.(events.Wait); ok {
		return fmt.Errorf("%w: wait must be run with Do", session.ErrInvalidInput)
	}
	return a.loop.Post(func() { _ = a.apply(op) })
}

// DispatchRaw normalizes raw and dispatches the result. Malformed events are
// reported like any other failure.
func (a *AppState) DispatchRaw(raw events.Raw) error {
	op, err := events.Normalize(raw)
	if err != nil {
		a.log.Warn("event rejected", "type", raw.Type, "target", raw.Target, "err", err)
		a.report(err)
		return err
	}
	return a.Dispatch(op)
}

// Do runs op on the session loop and waits for it. A Wait op blocks until
// every import started before it has finished.
func (a *AppState) Do(ctx context.Context, op events.Op) error {
	if op == nil {
		return fmt.Errorf("%w: no operation", session.ErrInvalidInput)
	}
	if w, ok := op.(events.Wait); ok {
		return a.settle(ctx, w.Timeout)
	}
	var err error
	if perr := a.loop.Do(ctx, func() { err = a.apply(op) }); perr != nil {
		return perr
	}
	return err
}

// apply runs on the loop.
func (a *AppState) apply(op events.Op) error {
	defer a.requestRepaint()
	a.log.Debug("dispatch", "op", events.Name(op))

	switch op := op.(type) {
	case events.SetColor:
		return a.ctrl.SetColor(op.Color)
	case events.SetWidth:
		return a.ctrl.SetWidth(op.Width)
	case events.SelectTool:
		return a.ctrl.SelectTool(op.Tool)
	case events.Pointer:
		switch op.Phase {
		case events.Down:
			return a.ctrl.PointerDown(op.X, op.Y)
		case events.Move:
			return a.ctrl.PointerMove(op.X, op.Y)
		case events.Up:
			return a.ctrl.PointerUp(op.X, op.Y)
		}
		return fmt.Errorf("%w: pointer phase %d", session.ErrInvalidInput, int(op.Phase))
	case events.Key:
		return a.ctrl.Key(op.Key)
	case events.Import:
		if op.Open != nil {
			return a.startImport(bridge.LazySource{Label: op.Name, OpenFunc: op.Open})
		}
		if len(op.Data) > 0 {
			return a.startImport(bridge.BytesSource{Label: op.Name, Data: op.Data})
		}
		if op.Path == "" {
			err := fmt.Errorf("%w: import needs a file", session.ErrInvalidInput)
			a.ctrl.Report(err)
			return err
		}
		return a.startImport(bridge.FileSource{Path: op.Path})
	case events.Paste:
		return a.startImport(bridge.ClipboardSource{Read: a.readClipboard})
	case events.Capture:
		return a.startImport(bridge.CaptureSource{
			Options: capture.Options{Interactive: op.Interactive},
			Shoot:   a.screenshot,
		})
	case events.Export:
		_, loc, err := a.deliver(a.files)
		if err != nil {
			return err
		}
		a.setStatus("Saved "+loc, false)
		a.notifier.Export(loc)
		return nil
	case events.Copy:
		art, _, err := a.deliver(a.clip)
		if err != nil {
			return err
		}
		a.setStatus("Copied "+art.Name+" to clipboard", false)
		a.notifier.Copy(art.Name)
		return nil
	}
	err := fmt.Errorf("%w: unsupported operation %T", session.ErrInvalidInput, op)
	a.ctrl.Report(err)
	return err
}

func (a *AppState) startImport(src bridge.Source) error {
	p, err := a.importer.Import(src)
	if err != nil {
		return err
	}
	a.mu.Lock()
	a.pending = append(prune(a.pending), p)
	a.mu.Unlock()
	a.setStatus("Importing "+p.Name, false)
	return nil
}

// maxHeldFailures bounds the failed imports kept for the next Wait.
const maxHeldFailures = 16

// prune drops finished imports that a Wait has nothing to report for and
// keeps only the newest failures.
func prune(pending []*bridge.Pending) []*bridge.Pending {
	kept := make([]*bridge.Pending, 0, len(pending)+1)
	failures := 0
	for i := len(pending) - 1; i >= 0; i-- {
		switch pending[i].Outcome() {
		case bridge.Running:
		case bridge.Failed:
			failures++
			if failures > maxHeldFailures {
				continue
			}
		default:
			continue
		}
		kept = append(kept, pending[i])
	}
	slices.Reverse(kept)
	return kept
}

// imported runs on the loop after an image reached the canvas.
func (a *AppState) imported(name string, img image.Image) {
	a.setStatus("Imported "+name, false)
	a.notifier.Import(name, img)
}

// deliver exports the canvas and hands the artifact to exactly one target.
func (a *AppState) deliver(d bridge.Downloader) (bridge.Artifact, string, error) {
	art, err := a.exporter.Export(a.ctrl)
	if err != nil {
		a.log.Warn("export failed", "err", err)
		a.ctrl.Report(err)
		return bridge.Artifact{}, "", err
	}
	ctx, cancel := context.WithTimeout(a.ctx, deliverTimeout)
	defer cancel()
	loc, err := a.exporter.Deliver(ctx, d, art)
	if err != nil {
		a.log.Warn("delivery failed", "err", err)
		a.ctrl.Report(err)
		return bridge.Artifact{}, "", err
	}
	return art, loc, nil
}

// settle waits for the imports started by earlier operations and returns
// the failures among them. Superseded imports are not failures.
func (a *AppState) settle(ctx context.Context, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = events.DefaultWait
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Every operation posted before the wait has run once this returns.
	if err := a.loop.Do(ctx, func() {}); err != nil {
		return err
	}
	a.mu.Lock()
	pending := a.pending
	a.pending = nil
	a.mu.Unlock()

	var failed []error
	for _, p := range pending {
		select {
		case <-p.Done():
		case <-ctx.Done():
			return fmt.Errorf("wait for import %s: %w", p.Name, ctx.Err())
		}
		if p.Outcome() == bridge.Failed {
			failed = append(failed, p.Err())
		}
	}
	return errors.Join(failed...)
}

// Report surfaces a front end failure the same way session errors are
// surfaced. It is safe from any goroutine.
func (a *AppState) Report(err error) {
	if err != nil {
		a.log.Warn("front end", "err", err)
		a.report(err)
	}
}

// report surfaces err to the user. It is safe from any goroutine.
func (a *AppState) report(err error) {
	a.setStatus(err.Error(), true)
	a.notifier.Error(err)
}

func (a *AppState) setStatus(msg string, isErr bool) {
	st := Status{Message: msg, Err: isErr, At: time.Now()}
	a.mu.Lock()
	a.status = st
	fn := a.statusFn
	a.mu.Unlock()
	if fn != nil {
		fn(st)
	}
	a.requestRepaint()
}

// Status returns the last status message.
func (a *AppState) Status() Status {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// View captures the session state and a copy of the canvas.
func (a *AppState) View(ctx context.Context) (View, error) {
	var v View
	err := a.loop.Do(ctx, func() {
		v.State = a.ctrl.State()
		v.Canvas = a.ctrl.Snapshot()
	})
	if err != nil {
		return View{}, err
	}
	v.Status = a.Status()
	return v, nil
}

// Updates delivers a value whenever the view may have changed.
func (a *AppState) Updates() <-chan struct{} { return a.updateCh }

func (a *AppState) requestRepaint() {
	select {
	case a.updateCh <- struct{}{}:
	default:
	}
}

// Close cancels pending imports, stops the loop and releases the engine.
func (a *AppState) Close() {
	a.closeOnce.Do(func() {
		a.importer.Close()
		a.stop()
		a.loop.Close()
		<-a.done
		a.closeEngines()
	})
}

func (a *AppState) closeEngines() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.Warn("release engine", "err", err)
		}
	}
	a.closers = nil
}
