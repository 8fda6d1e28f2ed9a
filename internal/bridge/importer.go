// Package bridge moves images between the outside world and a session:
// asynchronous imports from files, the clipboard or the screen, and
// synchronous exports to disk or the clipboard.
package bridge

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync"

	"github.com/example/paintassemble/internal/logging"
	"github.com/example/paintassemble/internal/session"
)

// Outcome is the final state of an import.
type Outcome int

const (
	Running Outcome = iota
	Imported
	Stale
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Running:
		return "running"
	case Imported:
		return "imported"
	case Stale:
		return "stale"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Pending tracks one import from selection to delivery.
type Pending struct {
	ID   uint64
	Name string

	done    chan struct{}
	once    sync.Once
	outcome Outcome
	err     error
}

func newPending(id uint64, name string) *Pending {
	return &Pending{ID: id, Name: name, done: make(chan struct{})}
}

// Done is closed once the import has an outcome.
func (p *Pending) Done() <-chan struct{} { return p.done }

// Outcome returns the final outcome, or Running before Done is closed.
func (p *Pending) Outcome() Outcome {
	select {
	case <-p.done:
		return p.outcome
	default:
		return Running
	}
}

// Err returns the failure of a Failed or Stale import.
func (p *Pending) Err() error {
	select {
	case <-p.done:
		return p.err
	default:
		return nil
	}
}

func (p *Pending) finish(o Outcome, err error) {
	p.once.Do(func() {
		p.outcome, p.err = o, err
		close(p.done)
	})
}

// Importer runs the import pipeline for a session. Only the newest import
// may reach the engine: starting an import cancels the previous one, and a
// completion that is no longer current is dropped.
//
// Import must be called from the session loop goroutine. The stages run on
// a worker goroutine and post their result back to the loop.
type Importer struct {
	loop   *session.Loop
	ctrl   *session.Controller
	stages Stages
	log    *slog.Logger
	done   func(name string, img image.Image)

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// ImporterOption configures an Importer.
type ImporterOption func(*Importer)

// WithStages replaces the default data URI stages.
func WithStages(s Stages) ImporterOption {
	return func(im *Importer) {
		if s != nil {
			im.stages = s
		}
	}
}

// WithImporterLogger configures a logger for the Importer.
func WithImporterLogger(l *slog.Logger) ImporterOption {
	return func(im *Importer) {
		if l != nil {
			im.log = l
		}
	}
}

// WithImportedHook registers a callback run on the loop after an image has
// been handed to the engine.
func WithImportedHook(fn func(name string, img image.Image)) ImporterOption {
	return func(im *Importer) { im.done = fn }
}

// NewImporter creates an Importer delivering to ctrl through loop.
func NewImporter(loop *session.Loop, ctrl *session.Controller, opts ...ImporterOption) *Importer {
	im := &Importer{
		loop:   loop,
		ctrl:   ctrl,
		stages: DataURIStages{},
		log:    logging.NewNop(),
	}
	for _, o := range opts {
		o(im)
	}
	return im
}

// Import starts importing src and supersedes any import still in flight.
func (im *Importer) Import(src Source) (*Pending, error) {
	if src == nil {
		err := fmt.Errorf("%w: no import source", session.ErrInvalidInput)
		im.ctrl.Report(err)
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())

	im.mu.Lock()
	if im.cancel != nil {
		im.cancel()
	}
	im.gen++
	gen := im.gen
	im.cancel = cancel
	im.mu.Unlock()

	p := newPending(gen, src.Name())
	im.log.Debug("import started", "id", gen, "source", p.Name)

	im.wg.Add(1)
	go func() {
		defer im.wg.Done()
		img, err := im.run(ctx, src)
		if perr := im.loop.Post(func() { im.complete(p, img, err) }); perr != nil {
			p.finish(Failed, perr)
		}
	}()
	return p, nil
}

func (im *Importer) run(ctx context.Context, src Source) (image.Image, error) {
	uri, err := im.stages.ReadDataURI(ctx, src)
	if err != nil {
		return nil, sentinel(err, session.ErrDecode)
	}
	img, err := im.stages.LoadImage(ctx, uri)
	if err != nil {
		return nil, sentinel(err, session.ErrImageLoad)
	}
	if img == nil {
		return nil, fmt.Errorf("%w: no image decoded", session.ErrImageLoad)
	}
	return img, nil
}

// complete runs on the loop.
func (im *Importer) complete(p *Pending, img image.Image, err error) {
	if !im.current(p.ID) {
		if err != nil {
			im.log.Debug("stale import failed", "id", p.ID, "source", p.Name, "err", err)
		} else {
			im.log.Debug("stale import discarded", "id", p.ID, "source", p.Name)
		}
		p.finish(Stale, err)
		return
	}
	im.release(p.ID)
	if err != nil {
		im.log.Warn("import failed", "source", p.Name, "err", err)
		im.ctrl.Report(err)
		p.finish(Failed, err)
		return
	}
	if err := im.ctrl.ImportImage(img); err != nil {
		p.finish(Failed, err)
		return
	}
	if im.done != nil {
		im.done(p.Name, img)
	}
	p.finish(Imported, nil)
}

func (im *Importer) current(id uint64) bool {
	im.mu.Lock()
	defer im.mu.Unlock()
	return id == im.gen
}

func (im *Importer) release(id uint64) {
	im.mu.Lock()
	defer im.mu.Unlock()
	if id == im.gen && im.cancel != nil {
		im.cancel()
		im.cancel = nil
	}
}

// Close cancels the import in flight and waits for its worker to exit.
func (im *Importer) Close() {
	im.mu.Lock()
	if im.cancel != nil {
		im.cancel()
		im.cancel = nil
	}
	im.gen++
	im.mu.Unlock()
	im.wg.Wait()
}

func sentinel(err, kind error) error {
	if errors.Is(err, session.ErrDecode) || errors.Is(err, session.ErrImageLoad) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
