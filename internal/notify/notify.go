// Package notify turns session events into desktop notifications.
package notify

import (
	"fmt"
	"image"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/example/paintassemble/internal/logging"
	"github.com/example/paintassemble/internal/platform"
)

// Event identifies a notification trigger.
type Event string

const (
	// EventImport fires when an image lands on the canvas.
	EventImport Event = "import"
	// EventExport fires when the canvas has been written to disk.
	EventExport Event = "export"
	// EventCopy fires when the canvas has been copied to the clipboard.
	EventCopy Event = "copy"
	// EventError fires for every surfaced error.
	EventError Event = "error"
)

// Events lists every event in display order.
func Events() []Event { return []Event{EventImport, EventExport, EventCopy, EventError} }

// Preferences holds the notification title and per-event message templates.
// Each template receives the event detail as its single %s argument.
type Preferences struct {
	Title  string `env:"TITLE" envDefault:"Paint Assemble"`
	Import string `env:"IMPORT_TEXT" envDefault:"Imported %s"`
	Export string `env:"EXPORT_TEXT" envDefault:"Saved %s"`
	Copy   string `env:"COPY_TEXT" envDefault:"Copied %s to clipboard"`
	Error  string `env:"ERROR_TEXT" envDefault:"%s"`
}

// DefaultPreferences returns the built-in titles and templates.
func DefaultPreferences() Preferences {
	return Preferences{
		Title:  "Paint Assemble",
		Import: "Imported %s",
		Export: "Saved %s",
		Copy:   "Copied %s to clipboard",
		Error:  "%s",
	}
}

// LoadPreferences reads PAINTASSEMBLE_NOTIFY_* overrides from the
// environment on top of the defaults.
func LoadPreferences() (Preferences, error) {
	var p Preferences
	if err := env.ParseWithOptions(&p, env.Options{Prefix: "PAINTASSEMBLE_NOTIFY_"}); err != nil {
		return DefaultPreferences(), fmt.Errorf("notification preferences: %w", err)
	}
	return p, nil
}

func (p Preferences) template(e Event) string {
	switch e {
	case EventImport:
		return p.Import
	case EventExport:
		return p.Export
	case EventCopy:
		return p.Copy
	case EventError:
		return p.Error
	}
	return ""
}

// SendFunc delivers a formatted notification.
type SendFunc func(title, body string, opts platform.Options) error

// Notifier sends notifications for the events it has been enabled for.
// It is safe for concurrent use.
type Notifier struct {
	prefs Preferences
	send  SendFunc
	log   *slog.Logger

	mu      sync.RWMutex
	enabled map[Event]bool
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithSender replaces the platform delivery function.
func WithSender(fn SendFunc) Option {
	return func(n *Notifier) {
		if fn != nil {
			n.send = fn
		}
	}
}

// WithLogger configures a logger for delivery failures.
func WithLogger(l *slog.Logger) Option {
	return func(n *Notifier) {
		if l != nil {
			n.log = l
		}
	}
}

// New creates a Notifier with every event disabled.
func New(prefs Preferences, opts ...Option) *Notifier {
	n := &Notifier{
		prefs:   prefs,
		send:    platform.Notify,
		log:     logging.NewNop(),
		enabled: make(map[Event]bool),
	}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Enable toggles notifications for event.
func (n *Notifier) Enable(event Event, enabled bool) {
	if n == nil {
		return
	}
	n.mu.Lock()
	n.enabled[event] = enabled
	n.mu.Unlock()
}

// Enabled reports whether event produces notifications.
func (n *Notifier) Enabled(event Event) bool {
	if n == nil {
		return false
	}
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.enabled[event]
}

// Import announces an imported image, attaching a preview when img is set.
func (n *Notifier) Import(name string, img image.Image) {
	if !n.Enabled(EventImport) {
		return
	}
	var opts platform.Options
	if img != nil {
		path, cleanup, err := writePreview(img)
		if err != nil {
			n.log.Warn("notification preview", "err", err)
		} else {
			defer cleanup()
			opts.IconPath = path
		}
	}
	n.dispatch(EventImport, name, opts)
}

// Export announces a file written to path.
func (n *Notifier) Export(path string) {
	if !n.Enabled(EventExport) {
		return
	}
	detail := strings.TrimSpace(path)
	var opts platform.Options
	if abs, err := filepath.Abs(path); err == nil {
		detail = abs
		if _, err := os.Stat(abs); err == nil {
			opts.IconPath = abs
		}
	}
	n.dispatch(EventExport, detail, opts)
}

// Copy announces a clipboard copy.
func (n *Notifier) Copy(detail string) {
	if strings.TrimSpace(detail) == "" {
		detail = "image"
	}
	n.dispatch(EventCopy, detail, platform.Options{})
}

// Error announces a failure.
func (n *Notifier) Error(err error) {
	if err == nil {
		return
	}
	n.dispatch(EventError, err.Error(), platform.Options{Timeout: 8 * time.Second})
}

func (n *Notifier) dispatch(event Event, detail string, opts platform.Options) {
	if !n.Enabled(event) {
		return
	}
	tmpl := strings.TrimSpace(n.prefs.template(event))
	if tmpl == "" {
		return
	}
	body := strings.TrimSpace(fmt.Sprintf(tmpl, strings.TrimSpace(detail)))
	if body == "" {
		return
	}
	opts.AppName = n.prefs.Title
	if err := n.send(n.prefs.Title, body, opts); err != nil {
		n.log.Warn("notification failed", "event", event, "err", err)
	}
}

func writePreview(img image.Image) (string, func(), error) {
	f, err := os.CreateTemp("", "paintassemble-preview-*.png")
	if err != nil {
		return "", nil, err
	}
	path := f.Name()
	if err := png.Encode(f, img); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", nil, err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", nil, err
	}
	return path, func() { _ = os.Remove(path) }, nil
}
