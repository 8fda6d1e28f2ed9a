package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse(t *testing.T) {
	input := `
width = 640
height = 480
color = "#ff0000"
stroke_width = 3
export_name = sketch.png
theme = my_custom_theme
save_dir = /tmp/paintings

[notify]
import = true
export = false
copy = true
error = true

[palette]
Coral = #FF7F50
Teal = #008080

[theme.my_custom_theme]
Background = #111111
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if cfg.Width != 640 || cfg.Height != 480 {
		t.Errorf("size = %dx%d, want 640x480", cfg.Width, cfg.Height)
	}
	if cfg.Color != "#ff0000" {
		t.Errorf("color = %q", cfg.Color)
	}
	if cfg.StrokeWidth != 3 {
		t.Errorf("stroke_width = %d", cfg.StrokeWidth)
	}
	if cfg.ExportName != "sketch.png" {
		t.Errorf("export_name = %q", cfg.ExportName)
	}
	if cfg.SaveDir != "/tmp/paintings" {
		t.Errorf("save_dir = %q", cfg.SaveDir)
	}
	if cfg.LogLevel != DefaultLogLevel {
		t.Errorf("log_level = %q, want default", cfg.LogLevel)
	}
	if want := (Notify{Import: true, Copy: true, Error: true}); cfg.Notify != want {
		t.Errorf("notify = %+v, want %+v", cfg.Notify, want)
	}
	if len(cfg.Palette) != 2 || cfg.Palette[0] != (PaletteEntry{Name: "Coral", Value: "#FF7F50"}) {
		t.Errorf("palette = %+v", cfg.Palette)
	}

	th, ok := cfg.Themes["my_custom_theme"]
	if !ok {
		t.Fatal("Expected theme 'my_custom_theme' to be loaded")
	}
	if th.Background.R != 0x11 || th.Background.G != 0x11 || th.Background.B != 0x11 {
		t.Errorf("Unexpected Background color: %+v", th.Background)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseErrors(t *testing.T) {
	for _, input := range []string{
		"width = wide\n",
		"[notify]\nimport = maybe\n",
		"[theme.x]\nBackground: red\n",
	} {
		if _, err := Parse(strings.NewReader(input)); err == nil {
			t.Errorf("expected error for %q", input)
		}
	}
}

func TestValidate(t *testing.T) {
	cfg := New()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
	cfg.Width = 0
	cfg.StrokeWidth = -1
	cfg.Color = "rgb(0,0,0)"
	cfg.LogLevel = "loud"
	cfg.ExportName = "../x.png"
	cfg.Palette = []PaletteEntry{{Name: "Bad", Value: "red"}}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected errors")
	}
	for _, want := range []string{"canvas size", "stroke_width", "color", "log_level", "export_name", "palette Bad"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestCircular(t *testing.T) {
	input := `width = 300
height = 200
color = navy
theme = dark

[notify]
import = true
export = true
copy = false

[palette]
Sand = #C2B280

[theme.custom]
Name = custom
Background = #000000
Foreground = #FFFFFF
`
	cfg, err := Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Initial parse failed: %v", err)
	}

	cfg2, err := Parse(strings.NewReader(cfg.String()))
	if err != nil {
		t.Fatalf("Circular parse failed: %v", err)
	}

	if cfg.Width != cfg2.Width || cfg.Height != cfg2.Height || cfg.Color != cfg2.Color {
		t.Errorf("root mismatch: %+v vs %+v", cfg, cfg2)
	}
	if cfg.Theme != cfg2.Theme {
		t.Errorf("Theme mismatch: %q vs %q", cfg.Theme, cfg2.Theme)
	}
	if cfg.Notify != cfg2.Notify {
		t.Errorf("Notify mismatch: %+v vs %+v", cfg.Notify, cfg2.Notify)
	}
	if len(cfg2.Palette) != 1 || cfg2.Palette[0] != cfg.Palette[0] {
		t.Errorf("Palette mismatch: %+v vs %+v", cfg.Palette, cfg2.Palette)
	}

	t1 := cfg.Themes["custom"]
	t2 := cfg2.Themes["custom"]
	if t1 == nil || t2 == nil {
		t.Fatalf("Custom theme missing in one config")
	}
	if *t1 != *t2 {
		t.Errorf("Theme mismatch: %+v vs %+v", t1, t2)
	}
}

func TestLoaderPrecedence(t *testing.T) {
	dir := t.TempDir()
	rc := filepath.Join(dir, "config.rc")
	if err := os.WriteFile(rc, []byte("width = 300\ncolor = red\nstroke_width = 4\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	dotenv := filepath.Join(dir, ".env")
	if err := os.WriteFile(dotenv, []byte("PAINTASSEMBLE_COLOR=blue\nPAINTASSEMBLE_NOTIFY_COPY=true\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAINTASSEMBLE_STROKE_WIDTH", "11")
	// Make sure the .env values are removed again after the test.
	t.Setenv("PAINTASSEMBLE_COLOR", "")
	os.Unsetenv("PAINTASSEMBLE_COLOR")
	t.Setenv("PAINTASSEMBLE_NOTIFY_COPY", "")
	os.Unsetenv("PAINTASSEMBLE_NOTIFY_COPY")

	l := NewLoader("v1.0.0", rc)
	l.DotEnv = dotenv
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 300 {
		t.Errorf("width = %d, want file value 300", cfg.Width)
	}
	if cfg.Color != "blue" {
		t.Errorf("color = %q, want .env value blue", cfg.Color)
	}
	if cfg.StrokeWidth != 11 {
		t.Errorf("stroke_width = %d, want env value 11", cfg.StrokeWidth)
	}
	if !cfg.Notify.Copy {
		t.Error("notify.copy from .env not applied")
	}
	if cfg.Height != DefaultHeight {
		t.Errorf("height = %d, want default", cfg.Height)
	}
}

func TestLoaderMissingOverride(t *testing.T) {
	l := NewLoader("v1.0.0", filepath.Join(t.TempDir(), "nope.rc"))
	l.DotEnv = ""
	if _, err := l.Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}

func TestLoaderDevModeLocalFile(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	if err := os.WriteFile(".paintassemblerc", []byte("width = 123\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	l := NewLoader("dev", "")
	if got := l.GetConfigPath(); filepath.Base(got) != ".paintassemblerc" {
		t.Fatalf("GetConfigPath = %q", got)
	}
	l.DotEnv = ""
	cfg, err := l.Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Width != 123 {
		t.Errorf("width = %d", cfg.Width)
	}
}

func TestSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.rc")
	cfg := New()
	cfg.SaveDir = "/srv/out"
	if err := Save(cfg, path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	got, err := Parse(f)
	if err != nil {
		t.Fatalf("Parse saved: %v", err)
	}
	if got.SaveDir != "/srv/out" {
		t.Errorf("save_dir = %q", got.SaveDir)
	}
}
