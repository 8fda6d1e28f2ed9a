package main

import (
	"flag"
	"fmt"

	"github.com/example/paintassemble/internal/session"
	"github.com/example/paintassemble/internal/theme"
)

type colorsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseColorsCmd(args []string, r *root) (*colorsCmd, error) {
	fs := r.subcommand("colors")
	cmd := &colorsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (c *colorsCmd) Program() string { return c.root.program + " colors" }

func (c *colorsCmd) FlagSet() *flag.FlagSet { return c.fs }

func (c *colorsCmd) Run() error {
	for _, p := range c.config.Palette {
		if col, err := theme.ParseHex(p.Value); err == nil {
			session.EnsurePaletteColor(col, p.Name)
		}
	}
	palette := session.PaletteColors()
	if len(palette) == 0 {
		fmt.Fprintln(c.stdout, "no colors available")
		return nil
	}
	def, _ := session.MustColor(session.DefaultColor).RGBA()
	if col, err := session.ParseColor(c.config.Color); err == nil {
		if rgba, ok := col.RGBA(); ok {
			def = rgba
		}
	}
	fmt.Fprintln(c.stdout, "available palette colors (* marks the default color):")
	for idx, entry := range palette {
		marker := " "
		if entry.RGBA == def {
			marker = "*"
		}
		hex := theme.Hex(entry.RGBA)
		block := fmt.Sprintf("\x1b[48;2;%d;%d;%dm  \x1b[0m", entry.RGBA.R, entry.RGBA.G, entry.RGBA.B)
		fmt.Fprintf(c.stdout, "%s %2d: %-12s %s %s\n", marker, idx, entry.Name, hex, block)
	}
	return nil
}

type toolsCmd struct {
	*root
	fs *flag.FlagSet
}

func parseToolsCmd(args []string, r *root) (*toolsCmd, error) {
	fs := r.subcommand("tools")
	cmd := &toolsCmd{root: r, fs: fs}
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 0 {
		return nil, &UsageError{of: cmd}
	}
	return cmd, nil
}

func (t *toolsCmd) Program() string { return t.root.program + " tools" }

func (t *toolsCmd) FlagSet() *flag.FlagSet { return t.fs }

func (t *toolsCmd) Run() error {
	fmt.Fprintln(t.stdout, "available tools (* marks the tool active on start):")
	for _, tool := range session.Tools() {
		marker := " "
		if tool == session.ToolPen {
			marker = "*"
		}
		fmt.Fprintf(t.stdout, "%s %s\n", marker, tool)
	}
	return nil
}
