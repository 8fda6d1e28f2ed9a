package bridge

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/example/paintassemble/internal/capture"
	"github.com/example/paintassemble/internal/clipboard"
)

// Source supplies the raw bytes of an image to import.
type Source interface {
	// Name labels the source in logs and notifications.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// FileSource reads an image file from disk.
type FileSource struct {
	Path string
}

func (s FileSource) Name() string { return filepath.Base(s.Path) }

func (s FileSource) Open(context.Context) (io.ReadCloser, error) {
	if s.Path == "" {
		return nil, errors.New("no file selected")
	}
	return os.Open(s.Path)
}

// BytesSource serves bytes already in memory, such as a browser File.
type BytesSource struct {
	Label string
	Data  []byte
}

func (s BytesSource) Name() string {
	if s.Label == "" {
		return "image"
	}
	return s.Label
}

func (s BytesSource) Open(context.Context) (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(s.Data)), nil
}

// LazySource defers reading until the import's first stage runs, so a slow
// read happens on the import worker and is cancelled with it.
type LazySource struct {
	Label    string
	OpenFunc func(ctx context.Context) (io.ReadCloser, error)
}

func (s LazySource) Name() string {
	if s.Label == "" {
		return "image"
	}
	return s.Label
}

func (s LazySource) Open(ctx context.Context) (io.ReadCloser, error) {
	if s.OpenFunc == nil {
		return nil, errors.New("no file selected")
	}
	return s.OpenFunc(ctx)
}

// ClipboardSource reads a PNG from the system clipboard.
type ClipboardSource struct {
	// Read overrides the clipboard reader.
	Read func() ([]byte, error)
}

func (ClipboardSource) Name() string { return "clipboard" }

func (s ClipboardSource) Open(context.Context) (io.ReadCloser, error) {
	read := s.Read
	if read == nil {
		read = clipboard.ReadPNG
	}
	data, err := read()
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// CaptureSource takes a desktop screenshot through the portal.
type CaptureSource struct {
	Options capture.Options
	// Shoot overrides the screenshot function.
	Shoot func(context.Context, capture.Options) ([]byte, error)
}

func (CaptureSource) Name() string { return "screenshot" }

func (s CaptureSource) Open(ctx context.Context) (io.ReadCloser, error) {
	shoot := s.Shoot
	if shoot == nil {
		shoot = capture.Screenshot
	}
	data, err := shoot(ctx, s.Options)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
