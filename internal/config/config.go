// Package config loads user settings from an RC file, a .env file and
// PAINTASSEMBLE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/example/paintassemble/internal/logging"
	"github.com/example/paintassemble/internal/session"
	"github.com/example/paintassemble/internal/theme"
)

// Notify selects the events that raise desktop notifications.
type Notify struct {
	Import bool `env:"IMPORT"`
	Export bool `env:"EXPORT"`
	Copy   bool `env:"COPY"`
	Error  bool `env:"ERROR"`
}

// PaletteEntry is a named colour added to the palette.
type PaletteEntry struct {
	Name  string
	Value string
}

// Config holds the application configuration.
type Config struct {
	Width       int    `env:"WIDTH"`
	Height      int    `env:"HEIGHT"`
	Color       string `env:"COLOR"`
	StrokeWidth int    `env:"STROKE_WIDTH"`
	ExportName  string `env:"EXPORT_NAME"`
	SaveDir     string `env:"SAVE_DIR"`
	Theme       string `env:"THEME"`
	LogLevel    string `env:"LOG_LEVEL"`

	Notify  Notify                  `envPrefix:"NOTIFY_"`
	Palette []PaletteEntry          `env:"-"`
	Themes  map[string]*theme.Theme `env:"-"`
}

const (
	DefaultWidth      = 800
	DefaultHeight     = 1500
	DefaultExportName = "paint-assemble.png"
	DefaultLogLevel   = "info"
)

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		Width:       DefaultWidth,
		Height:      DefaultHeight,
		Color:       session.DefaultColor,
		StrokeWidth: session.DefaultWidth,
		ExportName:  DefaultExportName,
		LogLevel:    DefaultLogLevel,
		Themes:      make(map[string]*theme.Theme),
	}
}

// Validate checks every setting and reports all problems at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Width <= 0 || c.Height <= 0 {
		errs = append(errs, fmt.Errorf("canvas size must be positive, got %dx%d", c.Width, c.Height))
	}
	if c.StrokeWidth <= 0 {
		errs = append(errs, fmt.Errorf("stroke_width must be positive, got %d", c.StrokeWidth))
	}
	if _, err := session.ParseColor(c.Color); err != nil {
		errs = append(errs, fmt.Errorf("color: %w", err))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("log_level: %w", err))
	}
	if strings.ContainsAny(c.ExportName, `/\`) {
		errs = append(errs, fmt.Errorf("export_name must be a file name, got %q", c.ExportName))
	}
	for _, p := range c.Palette {
		if _, err := theme.ParseHex(p.Value); err != nil {
			errs = append(errs, fmt.Errorf("palette %s: %w", p.Name, err))
		}
	}
	return errors.Join(errs...)
}

// String implements fmt.Stringer and returns the configuration in RC format.
func (c *Config) String() string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "width = %d\n", c.Width)
	fmt.Fprintf(&sb, "height = %d\n", c.Height)
	fmt.Fprintf(&sb, "color = %s\n", c.Color)
	fmt.Fprintf(&sb, "stroke_width = %d\n", c.StrokeWidth)
	fmt.Fprintf(&sb, "export_name = %s\n", c.ExportName)
	if c.SaveDir != "" {
		fmt.Fprintf(&sb, "save_dir = %s\n", c.SaveDir)
	}
	if c.Theme != "" {
		fmt.Fprintf(&sb, "theme = %s\n", c.Theme)
	}
	fmt.Fprintf(&sb, "log_level = %s\n", c.LogLevel)
	sb.WriteString("\n")

	sb.WriteString("[notify]\n")
	fmt.Fprintf(&sb, "import = %v\n", c.Notify.Import)
	fmt.Fprintf(&sb, "export = %v\n", c.Notify.Export)
	fmt.Fprintf(&sb, "copy = %v\n", c.Notify.Copy)
	fmt.Fprintf(&sb, "error = %v\n", c.Notify.Error)
	sb.WriteString("\n")

	if len(c.Palette) > 0 {
		sb.WriteString("[palette]\n")
		for _, p := range c.Palette {
			fmt.Fprintf(&sb, "%s = %s\n", p.Name, p.Value)
		}
		sb.WriteString("\n")
	}

	names := make([]string, 0, len(c.Themes))
	for name := range c.Themes {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		t := c.Themes[name]
		fmt.Fprintf(&sb, "[theme.%s]\n", name)
		fmt.Fprintf(&sb, "Name: %s\n", t.Name)
		for _, f := range t.Fields() {
			fmt.Fprintf(&sb, "%s: %s\n", f.Name, theme.Hex(f.Color))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
