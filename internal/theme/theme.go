// Package theme holds the colours of the desktop window chrome.
package theme

import (
	"fmt"
	"image/color"
	"reflect"
	"strings"
)

// Theme defines the colours of the window around the canvas.
type Theme struct {
	Name string

	// General
	Background color.RGBA // behind the canvas
	Foreground color.RGBA // labels

	// Toolbar
	ToolbarBackground color.RGBA
	ButtonBackground  color.RGBA
	ButtonActive      color.RGBA // the selected tool or width
	ButtonText        color.RGBA
	ButtonBorder      color.RGBA
	SwatchBorder      color.RGBA

	// Status bar
	StatusBackground color.RGBA
	StatusText       color.RGBA
	ErrorText        color.RGBA
}

// Default returns the built-in light theme.
func Default() *Theme {
	return &Theme{
		Name:              "light",
		Background:        color.RGBA{200, 200, 200, 255},
		Foreground:        color.RGBA{0, 0, 0, 255},
		ToolbarBackground: color.RGBA{225, 225, 225, 255},
		ButtonBackground:  color.RGBA{240, 240, 240, 255},
		ButtonActive:      color.RGBA{170, 200, 240, 255},
		ButtonText:        color.RGBA{0, 0, 0, 255},
		ButtonBorder:      color.RGBA{90, 90, 90, 255},
		SwatchBorder:      color.RGBA{40, 40, 40, 255},
		StatusBackground:  color.RGBA{235, 235, 235, 255},
		StatusText:        color.RGBA{30, 30, 30, 255},
		ErrorText:         color.RGBA{190, 0, 0, 255},
	}
}

// Dark returns the built-in dark theme.
func Dark() *Theme {
	return &Theme{
		Name:              "dark",
		Background:        color.RGBA{40, 40, 44, 255},
		Foreground:        color.RGBA{230, 230, 230, 255},
		ToolbarBackground: color.RGBA{55, 55, 60, 255},
		ButtonBackground:  color.RGBA{75, 75, 82, 255},
		ButtonActive:      color.RGBA{60, 100, 160, 255},
		ButtonText:        color.RGBA{235, 235, 235, 255},
		ButtonBorder:      color.RGBA{20, 20, 20, 255},
		SwatchBorder:      color.RGBA{200, 200, 200, 255},
		StatusBackground:  color.RGBA{30, 30, 34, 255},
		StatusText:        color.RGBA{210, 210, 210, 255},
		ErrorText:         color.RGBA{255, 110, 110, 255},
	}
}

// Builtin returns the named built-in theme or nil.
func Builtin(name string) *Theme {
	switch strings.ToLower(name) {
	case "", "light", "default":
		return Default()
	case "dark":
		return Dark()
	}
	return nil
}

// Field is a named colour of a theme.
type Field struct {
	Name  string
	Color color.RGBA
}

// Fields lists the colours of t in declaration order.
func (t *Theme) Fields() []Field {
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	var out []Field
	for i := 0; i < typ.NumField(); i++ {
		if c, ok := val.Field(i).Interface().(color.RGBA); ok {
			out = append(out, Field{Name: typ.Field(i).Name, Color: c})
		}
	}
	return out
}

// Set assigns value to the field named key, case-insensitively. Unknown keys
// are ignored so newer theme files still load.
func (t *Theme) Set(key, value string) error {
	if strings.EqualFold(key, "Name") {
		t.Name = value
		return nil
	}
	val := reflect.ValueOf(t).Elem()
	typ := val.Type()
	for i := 0; i < typ.NumField(); i++ {
		if !strings.EqualFold(typ.Field(i).Name, key) {
			continue
		}
		field := val.Field(i)
		if field.Type() != reflect.TypeOf(color.RGBA{}) {
			return nil
		}
		col, err := ParseHex(value)
		if err != nil {
			return fmt.Errorf("invalid color for key %s: %w", key, err)
		}
		field.Set(reflect.ValueOf(col))
		return nil
	}
	return nil
}
