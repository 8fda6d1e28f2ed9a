package bridge

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/paintassemble/internal/clipboard"
	"github.com/example/paintassemble/internal/logging"
	"github.com/example/paintassemble/internal/session"
)

const (
	// DefaultFilename names exported artifacts unless configured otherwise.
	DefaultFilename = "paint-assemble.png"
	// MediaTypePNG is the media type of every artifact.
	MediaTypePNG = "image/png"
)

// Renderer produces the encoded canvas. *session.Controller implements it.
type Renderer interface {
	Render() ([]byte, error)
}

// Artifact is an encoded export ready for one download.
type Artifact struct {
	Name      string
	MediaType string
	Data      []byte
}

// Downloader hands an artifact to the user. It returns a human readable
// location such as a file path.
type Downloader interface {
	Trigger(ctx context.Context, a Artifact) (string, error)
}

// Exporter builds artifacts from the engine output.
type Exporter struct {
	name string
	log  *slog.Logger
}

// ExporterOption configures an Exporter.
type ExporterOption func(*Exporter)

// WithFilename sets the artifact name.
func WithFilename(name string) ExporterOption {
	return func(e *Exporter) {
		if name != "" {
			e.name = filepath.Base(name)
		}
	}
}

// WithExporterLogger configures a logger for the Exporter.
func WithExporterLogger(l *slog.Logger) ExporterOption {
	return func(e *Exporter) {
		if l != nil {
			e.log = l
		}
	}
}

// NewExporter creates an Exporter.
func NewExporter(opts ...ExporterOption) *Exporter {
	e := &Exporter{name: DefaultFilename, log: logging.NewNop()}
	for _, o := range opts {
		o(e)
	}
	return e
}

// Filename returns the name given to artifacts.
func (e *Exporter) Filename() string { return e.name }

// Export renders the canvas and checks the result is a well-formed PNG.
func (e *Exporter) Export(r Renderer) (Artifact, error) {
	if r == nil {
		return Artifact{}, fmt.Errorf("%w: no renderer", session.ErrExport)
	}
	data, err := r.Render()
	if err != nil {
		if !errors.Is(err, session.ErrExport) {
			err = fmt.Errorf("%w: %w", session.ErrExport, err)
		}
		return Artifact{}, err
	}
	if len(data) == 0 {
		return Artifact{}, fmt.Errorf("%w: engine produced no data", session.ErrExport)
	}
	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Artifact{}, fmt.Errorf("%w: malformed png: %w", session.ErrExport, err)
	}
	e.log.Debug("artifact ready", "name", e.name, "bytes", len(data), "width", cfg.Width, "height", cfg.Height)
	return Artifact{Name: e.name, MediaType: MediaTypePNG, Data: data}, nil
}

// Deliver triggers exactly one download of a.
func (e *Exporter) Deliver(ctx context.Context, d Downloader, a Artifact) (string, error) {
	if d == nil {
		return "", fmt.Errorf("%w: no downloader", session.ErrDownload)
	}
	loc, err := d.Trigger(ctx, a)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", session.ErrDownload, a.Name, err)
	}
	e.log.Info("artifact delivered", "name", a.Name, "location", loc)
	return loc, nil
}

// FileDownloader writes artifacts into Dir.
type FileDownloader struct {
	Dir string
}

func (d FileDownloader) Trigger(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	dir := d.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, a.Name)
	tmp, err := os.CreateTemp(dir, "."+a.Name+".*")
	if err != nil {
		return "", err
	}
	if err := tmp.Chmod(0o644); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if _, err := tmp.Write(a.Data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return "", err
	}
	return path, nil
}

// ClipboardDownloader publishes artifacts to the system clipboard.
type ClipboardDownloader struct {
	// Write overrides the clipboard writer.
	Write func([]byte) error
}

func (d ClipboardDownloader) Trigger(ctx context.Context, a Artifact) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	write := d.Write
	if write == nil {
		write = clipboard.WritePNG
	}
	if err := write(a.Data); err != nil {
		return "", err
	}
	return "clipboard", nil
}
