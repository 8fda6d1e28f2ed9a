//go:build !(linux || freebsd || openbsd || netbsd || dragonfly)

package capture

import "context"

func portalScreenshot(context.Context, Options) ([]byte, error) {
	return nil, ErrUnsupported
}
