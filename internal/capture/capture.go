// Package capture takes desktop screenshots through the XDG desktop portal
// so they can be imported onto the canvas.
package capture

import (
	"context"
	"errors"
)

// ErrUnsupported is returned on platforms without a screenshot portal.
var ErrUnsupported = errors.New("portal screenshot is not supported on this platform")

// Options controls how the portal takes the screenshot.
type Options struct {
	// Interactive lets the user pick the area in the portal dialog.
	Interactive bool
	// IncludeCursor embeds the pointer in the image.
	IncludeCursor bool
}

// Screenshot asks the desktop portal for a screenshot and returns the PNG
// bytes it produced. The temporary file written by the portal is removed.
func Screenshot(ctx context.Context, opts Options) ([]byte, error) {
	return portalScreenshot(ctx, opts)
}
