package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/example/paintassemble/internal/appstate"
	"github.com/example/paintassemble/internal/config"
	"github.com/example/paintassemble/internal/logging"
	"github.com/example/paintassemble/internal/theme"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

type runnable interface{ Run() error }

type root struct {
	fs      *flag.FlagSet
	program string
	stdout  io.Writer
	stderr  io.Writer

	configPath   string
	logLevel     string
	themeName    string
	notifyImport bool
	notifyExport bool
	notifyCopy   bool
	notifyError  bool

	config      *config.Config
	activeTheme *theme.Theme
	log         *slog.Logger
}

func (r *root) Program() string {
	return r.program
}

func (r *root) FlagSet() *flag.FlagSet {
	return r.fs
}

func newRoot() *root {
	r := &root{
		fs:      flag.NewFlagSet("paintassemble", flag.ContinueOnError),
		program: "paintassemble",
		stdout:  os.Stdout,
		stderr:  os.Stderr,
		config:  config.New(),
		log:     logging.NewNop(),
	}
	r.fs.SetOutput(r.stderr)
	r.fs.StringVar(&r.configPath, "config", "", "configuration file to load instead of the default search path")
	r.fs.StringVar(&r.logLevel, "log-level", "", "log level: debug, info, warn or error")
	// Precedence: CLI > Env > Config > Default
	// Flags left unset fall back to the loaded configuration in load.
	r.fs.StringVar(&r.themeName, "theme", "", "window theme: light, dark, a configured theme or a theme file")
	r.fs.BoolVar(&r.notifyImport, "notify-import", false, "show a desktop notification when an image is imported")
	r.fs.BoolVar(&r.notifyExport, "notify-export", false, "show a desktop notification when the canvas is saved")
	r.fs.BoolVar(&r.notifyCopy, "notify-copy", false, "show a desktop notification when the canvas is copied")
	r.fs.BoolVar(&r.notifyError, "notify-error", false, "show a desktop notification for every error")
	r.fs.Usage = usageFunc(r)
	return r
}

// subcommand returns a child flag set that shares the root's output.
func (r *root) subcommand(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.stderr)
	return fs
}

func (r *root) Run(args []string) error {
	if err := r.fs.Parse(args); err != nil {
		return err
	}
	if r.fs.NArg() < 1 {
		return &UsageError{of: r}
	}
	if err := r.load(); err != nil {
		return err
	}

	cmdName := r.fs.Arg(0)
	subArgs := r.fs.Args()[1:]

	var (
		cmd runnable
		err error
	)
	switch cmdName {
	case "window":
		cmd, err = parseWindowCmd(subArgs, r)
	case "replay":
		cmd, err = parseReplayCmd(subArgs, r)
	case "colors":
		cmd, err = parseColorsCmd(subArgs, r)
	case "tools":
		cmd, err = parseToolsCmd(subArgs, r)
	case "config":
		cmd, err = parseConfigCmd(subArgs, r)
	case "version":
		cmd = &versionCmd{root: r}
	default:
		err = &UsageError{of: r}
	}
	if err != nil {
		return err
	}
	return cmd.Run()
}

// load reads the configuration and applies flags given on the command line.
func (r *root) load() error {
	loader := config.NewLoader(version, r.configPath)
	cfg, err := loader.Load()
	switch {
	case err != nil && r.configPath != "":
		return fmt.Errorf("load config: %w", err)
	case err != nil:
		fmt.Fprintf(r.stderr, "warning: failed to load config: %v\n", err)
		cfg = config.New()
	}

	r.fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "log-level":
			cfg.LogLevel = r.logLevel
		case "theme":
			cfg.Theme = r.themeName
		case "notify-import":
			cfg.Notify.Import = r.notifyImport
		case "notify-export":
			cfg.Notify.Export = r.notifyExport
		case "notify-copy":
			cfg.Notify.Copy = r.notifyCopy
		case "notify-error":
			cfg.Notify.Error = r.notifyError
		}
	})
	r.config = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	r.log = logging.NewWriter(r.stderr, level)

	t, err := theme.NewLoader(cfg.Themes).Load(cfg.Theme)
	if err != nil {
		if cfg.Theme != "" && !strings.EqualFold(cfg.Theme, "default") {
			fmt.Fprintf(r.stderr, "warning: failed to load theme '%s': %v. using default.\n", cfg.Theme, err)
		}
		t = theme.Default()
	}
	r.activeTheme = t
	return nil
}

// newState builds a session from the loaded configuration.
func (r *root) newState(cfg *config.Config, opts ...appstate.Option) (*appstate.AppState, error) {
	if cfg == nil {
		cfg = r.config
	}
	base := []appstate.Option{
		appstate.WithConfig(cfg),
		appstate.WithLogger(r.log),
		appstate.WithTheme(r.activeTheme),
	}
	return appstate.New(append(base, opts...)...)
}

func main() {
	r := newRoot()
	if err := r.Run(os.Args[1:]); err != nil {
		var uerr *UsageError
		switch {
		case errors.As(err, &uerr):
			fmt.Fprintln(os.Stderr, uerr.Error())
			os.Exit(2)
		case errors.Is(err, flag.ErrHelp):
		default:
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}
}
