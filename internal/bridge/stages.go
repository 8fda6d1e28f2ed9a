package bridge

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/example/paintassemble/internal/session"
)

const (
	// MaxImportBytes bounds the size of an imported file.
	MaxImportBytes = 64 << 20
	// MaxImportSide bounds either dimension of a decoded image.
	MaxImportSide = 16384
	// MaxImportPixels bounds the decoded area, about 160 MiB as RGBA.
	MaxImportPixels = 40 << 20
)

// Stages are the two asynchronous steps of an import.
type Stages interface {
	// ReadDataURI reads src and encodes it as a base64 data URI.
	ReadDataURI(ctx context.Context, src Source) (string, error)
	// LoadImage decodes the image carried by a data URI.
	LoadImage(ctx context.Context, uri string) (image.Image, error)
}

// DataURIStages is the default Stages implementation.
type DataURIStages struct{}

func (DataURIStages) ReadDataURI(ctx context.Context, src Source) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", session.ErrDecode, err)
	}
	rc, err := src.Open(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: open %s: %w", session.ErrDecode, src.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImportBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: read %s: %w", session.ErrDecode, src.Name(), err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: %s is empty", session.ErrDecode, src.Name())
	}
	if len(data) > MaxImportBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", session.ErrDecode, src.Name(), MaxImportBytes)
	}
	mediaType := http.DetectContentType(data)
	if !strings.HasPrefix(mediaType, "image/") {
		return "", fmt.Errorf("%w: %s is %s, not an image", session.ErrDecode, src.Name(), mediaType)
	}
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", session.ErrDecode, err)
	}
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func (DataURIStages) LoadImage(ctx context.Context, uri string) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrImageLoad, err)
	}
	payload, err := parseDataURI(uri)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrImageLoad, err)
	}
	// The header is checked first so a small file cannot declare a huge canvas.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", session.ErrImageLoad, err)
	}
	if err := checkDimensions(cfg.Width, cfg.Height); err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrImageLoad, err)
	}
	img, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %w", session.ErrImageLoad, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", session.ErrImageLoad, err)
	}
	return img, nil
}

func checkDimensions(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("image is %dx%d", w, h)
	}
	if w > MaxImportSide || h > MaxImportSide {
		return fmt.Errorf("image is %dx%d, sides are limited to %d", w, h, MaxImportSide)
	}
	if int64(w)*int64(h) > MaxImportPixels {
		return fmt.Errorf("image is %dx%d, more than %d pixels", w, h, MaxImportPixels)
	}
	return nil
}

func parseDataURI(uri string) ([]byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return nil, fmt.Errorf("not a data uri")
	}
	header, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return nil, fmt.Errorf("data uri has no payload")
	}
	if !strings.HasSuffix(header, ";base64") {
		return nil, fmt.Errorf("data uri is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("data uri payload: %w", err)
	}
	return data, nil
}
