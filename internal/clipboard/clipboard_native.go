//go:build !((linux || freebsd || openbsd || netbsd || dragonfly) && !cgo)

package clipboard

import "golang.design/x/clipboard"

func backendInit() error { return clipboard.Init() }

func backendWrite(data []byte) error {
	clipboard.Write(clipboard.FmtImage, data)
	return nil
}

func backendRead() ([]byte, error) {
	return clipboard.Read(clipboard.FmtImage), nil
}
