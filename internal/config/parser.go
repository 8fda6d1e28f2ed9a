package config

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/example/paintassemble/internal/theme"
)

// Parse reads configuration in RC format. Settings not present keep their
// defaults. Lines are "key = value" or "Key: value"; sections are [notify],
// [palette] and [theme.<name>].
func Parse(r io.Reader) (*Config, error) {
	cfg := New()
	scanner := bufio.NewScanner(r)

	var section string
	var current *theme.Theme
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			current = nil
			if name, ok := strings.CutPrefix(section, "theme."); ok {
				current = theme.Default()
				current.Name = name
				cfg.Themes[name] = current
			}
			continue
		}

		key, value, ok := splitKV(line)
		if !ok {
			continue
		}

		var err error
		switch {
		case current != nil:
			err = current.Set(key, value)
		case section == "notify":
			err = setNotifyField(&cfg.Notify, key, value)
		case section == "palette":
			cfg.Palette = append(cfg.Palette, PaletteEntry{Name: key, Value: value})
		case section == "":
			err = setRootField(cfg, key, value)
		}
		if err != nil {
			where := "root section"
			if section != "" {
				where = "section [" + section + "]"
			}
			return nil, fmt.Errorf("line %d, %s: %w", lineNo, where, err)
		}
	}
	return cfg, scanner.Err()
}

func splitKV(line string) (string, string, bool) {
	sep := strings.IndexAny(line, "=:")
	if sep < 0 {
		return "", "", false
	}
	key := strings.TrimSpace(line[:sep])
	value := strings.TrimSpace(line[sep+1:])
	if len(value) >= 2 && strings.HasPrefix(value, `"`) && strings.HasSuffix(value, `"`) {
		value = value[1 : len(value)-1]
	}
	return key, value, key != ""
}

func setRootField(cfg *Config, key, value string) error {
	switch strings.ToLower(key) {
	case "width":
		return setInt(&cfg.Width, key, value)
	case "height":
		return setInt(&cfg.Height, key, value)
	case "stroke_width":
		return setInt(&cfg.StrokeWidth, key, value)
	case "color":
		cfg.Color = value
	case "export_name":
		cfg.ExportName = value
	case "save_dir":
		cfg.SaveDir = value
	case "theme":
		cfg.Theme = value
	case "log_level":
		cfg.LogLevel = value
	}
	return nil
}

func setInt(dst *int, key, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("invalid integer for key %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setNotifyField(n *Notify, key, value string) error {
	b, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("invalid boolean for key %s: %w", key, err)
	}
	switch strings.ToLower(key) {
	case "import":
		n.Import = b
	case "export":
		n.Export = b
	case "copy":
		n.Copy = b
	case "error":
		n.Error = b
	}
	return nil
}
