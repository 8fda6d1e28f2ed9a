package main

import (
	"flag"
	"fmt"

	"github.com/example/paintassemble/internal/events"
)

type windowCmd struct {
	*root
	fs      *flag.FlagSet
	width   int
	height  int
	capture bool
	image   string
}

func parseWindowCmd(args []string, r *root) (*windowCmd, error) {
	fs := r.subcommand("window")
	cmd := &windowCmd{root: r, fs: fs}
	fs.IntVar(&cmd.width, "width", r.config.Width, "canvas width in pixels")
	fs.IntVar(&cmd.height, "height", r.config.Height, "canvas height in pixels")
	fs.BoolVar(&cmd.capture, "capture", false, "start with a screenshot of the desktop")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	switch fs.NArg() {
	case 0:
	case 1:
		cmd.image = fs.Arg(0)
	default:
		return nil, &UsageError{of: cmd}
	}
	if cmd.width <= 0 || cmd.height <= 0 {
		return nil, &UsageError{of: cmd, msg: fmt.Sprintf("canvas size must be positive, got %dx%d", cmd.width, cmd.height)}
	}
	return cmd, nil
}

func (w *windowCmd) Program() string { return w.root.program + " window" }

func (w *windowCmd) FlagSet() *flag.FlagSet { return w.fs }

func (w *windowCmd) Run() error {
	cfg := *w.config
	cfg.Width, cfg.Height = w.width, w.height
	state, err := w.newState(&cfg)
	if err != nil {
		return err
	}
	defer state.Close()

	if w.image != "" {
		if err := state.Dispatch(events.Import{Name: w.image, Path: w.image}); err != nil {
			return err
		}
	}
	if w.capture {
		if err := state.Dispatch(events.Capture{Interactive: true}); err != nil {
			return err
		}
	}
	w.log.Info("window opened", "width", cfg.Width, "height", cfg.Height, "theme", w.activeTheme.Name)
	state.Run()
	return nil
}
