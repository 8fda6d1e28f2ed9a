package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/example/paintassemble/internal/appstate"
	"github.com/example/paintassemble/internal/events"
)

type replayCmd struct {
	*root
	fs     *flag.FlagSet
	output string
	strict bool
	script string
	stdin  io.Reader
}

func parseReplayCmd(args []string, r *root) (*replayCmd, error) {
	fs := r.subcommand("replay")
	cmd := &replayCmd{root: r, fs: fs, stdin: os.Stdin}
	fs.StringVar(&cmd.output, "output", "", "file the canvas is written to (default: the configured export name)")
	fs.BoolVar(&cmd.strict, "strict", false, "stop at the first failing event")
	fs.Usage = usageFunc(cmd)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() != 1 {
		return nil, &UsageError{of: cmd}
	}
	cmd.script = fs.Arg(0)
	return cmd, nil
}

func (p *replayCmd) Program() string { return p.root.program + " replay" }

func (p *replayCmd) FlagSet() *flag.FlagSet { return p.fs }

func (p *replayCmd) open() (io.ReadCloser, string, error) {
	if p.script == "-" {
		return io.NopCloser(p.stdin), ".", nil
	}
	f, err := os.Open(p.script)
	if err != nil {
		return nil, "", fmt.Errorf("open script: %w", err)
	}
	return f, filepath.Dir(p.script), nil
}

func (p *replayCmd) Run() error {
	rc, dir, err := p.open()
	if err != nil {
		return err
	}
	script, err := events.LoadScript(rc)
	rc.Close()
	if err != nil {
		return err
	}
	ops, err := script.Ops()
	if err != nil {
		return err
	}

	cfg := *p.config
	if script.Width > 0 {
		cfg.Width = script.Width
	}
	if script.Height > 0 {
		cfg.Height = script.Height
	}
	if p.output != "" {
		cfg.SaveDir = filepath.Dir(p.output)
		cfg.ExportName = filepath.Base(p.output)
	}

	state, err := p.newState(&cfg, appstate.WithStatusListener(func(st appstate.Status) {
		if st.Err {
			fmt.Fprintf(p.stderr, "error: %s\n", st.Message)
			return
		}
		fmt.Fprintln(p.stdout, st.Message)
	}))
	if err != nil {
		return err
	}
	defer state.Close()

	ctx := context.Background()
	exported := false
	var failed []error
	for i, op := range ops {
		if imp, ok := op.(events.Import); ok && imp.Path != "" && !filepath.IsAbs(imp.Path) {
			imp.Path = filepath.Join(dir, imp.Path)
			op = imp
		}
		err := state.Do(ctx, op)
		if err == nil && p.strict && startsImport(op) {
			// Settle now so a failed import stops the run at its own event.
			err = state.Do(ctx, events.Wait{})
		}
		if err != nil {
			err = fmt.Errorf("event %d (%s): %w", i+1, events.Name(op), err)
			p.log.Debug("event failed", "err", err)
			if p.strict {
				return err
			}
			failed = append(failed, err)
			continue
		}
		if _, ok := op.(events.Export); ok {
			exported = true
		}
	}

	// Imports still in flight land before the final export.
	if err := state.Do(ctx, events.Wait{}); err != nil {
		err = fmt.Errorf("pending imports: %w", err)
		if p.strict {
			return err
		}
		failed = append(failed, err)
	}
	if !exported {
		if err := state.Do(ctx, events.Export{}); err != nil {
			failed = append(failed, fmt.Errorf("final export: %w", err))
		}
	}
	if len(failed) > 0 {
		return fmt.Errorf("%d of %d events failed: %w", len(failed), len(ops), errors.Join(failed...))
	}
	return nil
}

func startsImport(op events.Op) bool {
	switch op.(type) {
	case events.Import, events.Paste, events.Capture:
		return true
	}
	return false
}
