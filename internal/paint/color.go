package paint

import (
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// ErrUnknownColor is returned for colour values the canvas cannot resolve.
var ErrUnknownColor = errors.New("unknown color")

// ParseColor resolves a CSS-style hex value (#rgb, #rrggbb, #rrggbbaa) or an
// SVG colour name.
func ParseColor(value string) (color.RGBA, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return color.RGBA{}, fmt.Errorf("%w: empty value", ErrUnknownColor)
	}
	if strings.HasPrefix(v, "#") {
		return parseHex(v[1:])
	}
	if c, ok := colornames.Map[v]; ok {
		return c, nil
	}
	return color.RGBA{}, fmt.Errorf("%w: %q", ErrUnknownColor, value)
}

func parseHex(h string) (color.RGBA, error) {
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]}) + "ff"
	case 6:
		h += "ff"
	case 8:
	default:
		return color.RGBA{}, fmt.Errorf("%w: bad hex length %q", ErrUnknownColor, h)
	}
	n, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("%w: %q: %w", ErrUnknownColor, h, err)
	}
	c := color.NRGBA{R: uint8(n >> 24), G: uint8(n >> 16), B: uint8(n >> 8), A: uint8(n)}
	return color.RGBAModel.Convert(c).(color.RGBA), nil
}
