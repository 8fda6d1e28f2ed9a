// Package clipboard moves PNG images between the canvas and the system
// clipboard.
package clipboard

import (
	"errors"
	"os"
	"runtime"
	"sync"
)

var (
	// ErrNoDisplay is returned on X11/Wayland systems without a display.
	ErrNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	// ErrEmpty is returned when the clipboard holds no image.
	ErrEmpty = errors.New("clipboard does not contain image data")
)

var (
	initOnce sync.Once
	initErr  error
)

func ensureInit() error {
	initOnce.Do(func() {
		if needsDisplay() && !hasDisplay() {
			initErr = ErrNoDisplay
			return
		}
		initErr = backendInit()
	})
	return initErr
}

func needsDisplay() bool {
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd", "dragonfly":
		return true
	}
	return false
}

func hasDisplay() bool {
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// WritePNG publishes PNG-encoded image data to the clipboard.
func WritePNG(data []byte) error {
	if len(data) == 0 {
		return errors.New("no image data to copy")
	}
	if err := ensureInit(); err != nil {
		return err
	}
	return backendWrite(data)
}

// ReadPNG returns the PNG image data currently on the clipboard.
func ReadPNG() ([]byte, error) {
	if err := ensureInit(); err != nil {
		return nil, err
	}
	data, err := backendRead()
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmpty
	}
	return data, nil
}
