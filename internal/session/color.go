package session

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/image/colornames"
)

// DefaultColor is the stroke colour applied on Initialize.
const DefaultColor = "black"

// DefaultWidth is the stroke width applied on Initialize.
const DefaultWidth = 8

// Color is a validated colour representation as forwarded to the engine:
// a hex literal (#rgb, #rrggbb, #rrggbbaa) or a colour name.
type Color struct {
	value string
}

// ParseColor validates s. Names are checked for shape only; resolving them is
// the engine's job.
func ParseColor(s string) (Color, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return Color{}, fmt.Errorf("%w: color cannot be empty", ErrInvalidInput)
	}
	if strings.HasPrefix(v, "#") {
		hex := v[1:]
		switch len(hex) {
		case 3, 6, 8:
		default:
			return Color{}, fmt.Errorf("%w: invalid color %q", ErrInvalidInput, s)
		}
		if _, err := strconv.ParseUint(hex, 16, 32); err != nil {
			return Color{}, fmt.Errorf("%w: invalid color %q", ErrInvalidInput, s)
		}
		return Color{value: strings.ToLower(v)}, nil
	}
	for _, r := range v {
		if (r < 'a' || r > 'z') && (r < 'A' || r > 'Z') {
			return Color{}, fmt.Errorf("%w: invalid color %q", ErrInvalidInput, s)
		}
	}
	return Color{value: strings.ToLower(v)}, nil
}

// MustColor is ParseColor for constants.
func MustColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) String() string { return c.value }

// IsZero reports whether c was never set.
func (c Color) IsZero() bool { return c.value == "" }

// RGBA resolves c for display purposes. Unknown names report false.
func (c Color) RGBA() (color.RGBA, bool) {
	if strings.HasPrefix(c.value, "#") {
		return hexRGBA(c.value[1:])
	}
	if col, ok := colornames.Map[c.value]; ok {
		return col, true
	}
	for _, entry := range PaletteColors() {
		if strings.EqualFold(entry.Name, c.value) {
			return entry.RGBA, true
		}
	}
	return color.RGBA{}, false
}

func hexRGBA(hex string) (color.RGBA, bool) {
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.RGBA{}, false
	}
	val, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.RGBA{}, false
	}
	return color.RGBA{
		R: uint8(val >> 24),
		G: uint8((val >> 16) & 0xFF),
		B: uint8((val >> 8) & 0xFF),
		A: uint8(val & 0xFF),
	}, true
}

// PaletteColor is a named swatch offered by discrete palette controls.
type PaletteColor struct {
	Name  string
	Color Color
	RGBA  color.RGBA
}

var (
	paletteMu sync.RWMutex
	palette   = []PaletteColor{
		{"Black", Color{"#000000"}, color.RGBA{0, 0, 0, 255}},
		{"White", Color{"#ffffff"}, color.RGBA{255, 255, 255, 255}},
		{"Red", Color{"#ff0000"}, color.RGBA{255, 0, 0, 255}},
		{"Lime", Color{"#00ff00"}, color.RGBA{0, 255, 0, 255}},
		{"Blue", Color{"#0000ff"}, color.RGBA{0, 0, 255, 255}},
		{"Yellow", Color{"#ffff00"}, color.RGBA{255, 255, 0, 255}},
		{"Cyan", Color{"#00ffff"}, color.RGBA{0, 255, 255, 255}},
		{"Magenta", Color{"#ff00ff"}, color.RGBA{255, 0, 255, 255}},
		{"Maroon", Color{"#800000"}, color.RGBA{128, 0, 0, 255}},
		{"Green", Color{"#008000"}, color.RGBA{0, 128, 0, 255}},
		{"Navy", Color{"#000080"}, color.RGBA{0, 0, 128, 255}},
		{"Gray", Color{"#808080"}, color.RGBA{128, 128, 128, 255}},
	}
)

// PaletteColors returns a copy of the palette.
func PaletteColors() []PaletteColor {
	paletteMu.RLock()
	defer paletteMu.RUnlock()
	out := make([]PaletteColor, len(palette))
	copy(out, palette)
	return out
}

// EnsurePaletteColor makes sure col is present in the palette and returns its index.
func EnsurePaletteColor(col color.RGBA, name string) int {
	paletteMu.Lock()
	defer paletteMu.Unlock()
	for idx, existing := range palette {
		if existing.RGBA == col {
			if name != "" && existing.Name == "" {
				palette[idx].Name = name
			}
			return idx
		}
	}
	hex := fmt.Sprintf("#%02x%02x%02x", col.R, col.G, col.B)
	if col.A != 255 {
		hex += fmt.Sprintf("%02x", col.A)
	}
	if name == "" {
		name = strings.ToUpper(hex)
	}
	palette = append(palette, PaletteColor{Name: name, Color: Color{hex}, RGBA: col})
	return len(palette) - 1
}
