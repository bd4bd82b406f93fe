// Package main is the entry point for lazyline.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/dshills/lazyline/internal/app"
	"github.com/dshills/lazyline/internal/config"
	"github.com/dshills/lazyline/internal/logging"
	"github.com/dshills/lazyline/internal/renderer/backend"
)

// Version information (set via ldflags during build).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

type flags struct {
	configPath string
	logLevel   string
	logFile    string
	readOnly   bool
	script     string
	output     string
	recover    bool
	file       string
}

func main() {
	os.Exit(run())
}

func run() int {
	f := parseFlags()

	cfg, err := loadConfig(f)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	headless := f.output != "" || !term.IsTerminal(int(os.Stdout.Fd()))

	logger, closer, err := logging.New(logConfig(cfg, headless))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	defer closer.Close()

	application, err := app.New(app.Options{
		Config:   cfg,
		Logger:   logger,
		ReadOnly: f.readOnly,
		Recover:  f.recover,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize: %v\n", err)
		return 1
	}
	defer application.Close()

	if err := application.Open(f.file, false); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}

	if headless {
		return runHeadless(application, f)
	}
	return runTerminal(application, f, logger)
}

func runHeadless(application *app.Application, f flags) int {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if f.script != "" {
		if err := application.RunScript(ctx, f.script, os.Stderr); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	if f.output != "" {
		if _, err := application.Export(f.output); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
		return 0
	}
	if _, err := application.WriteTo(os.Stdout); err != nil && !errors.Is(err, syscall.EPIPE) {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func runTerminal(application *app.Application, f flags, logger zerolog.Logger) int {
	if f.script != "" {
		if err := application.RunScript(context.Background(), f.script, io.Discard); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return 1
		}
	}

	t, err := backend.NewTerminal()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to create terminal: %v\n", err)
		return 1
	}

	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(signals)
	go func() {
		if _, ok := <-signals; ok {
			logger.Info().Msg("signal received; shutting down")
			application.Shutdown()
		}
	}()

	if err := application.Run(t); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func loadConfig(f flags) (*config.Config, error) {
	var opts []config.Option
	if f.configPath != "" {
		opts = append(opts, config.WithFile(f.configPath))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}

	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	if f.logFile != "" {
		cfg.Log.File = f.logFile
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// logConfig sends logs to stderr in headless mode. The terminal UI owns
// the screen, so it logs only to a file.
func logConfig(cfg *config.Config, headless bool) logging.Config {
	lc := logging.Config{Level: cfg.Log.Level, File: cfg.Log.File}
	if headless && lc.File == "" {
		lc.Output = os.Stderr
		lc.Console = true
	}
	return lc
}

func parseFlags() flags {
	var f flags
	var showVersion bool
	var showHelp bool

	flag.StringVar(&f.configPath, "config", "", "Path to configuration file")
	flag.StringVar(&f.configPath, "c", "", "Path to configuration file (shorthand)")
	flag.StringVar(&f.logLevel, "log-level", "", "Log level (trace, debug, info, warn, error, disabled)")
	flag.StringVar(&f.logFile, "log-file", "", "Write logs to this file")
	flag.BoolVar(&f.readOnly, "readonly", false, "Open the file read-only")
	flag.BoolVar(&f.readOnly, "R", false, "Open the file read-only (shorthand)")
	flag.StringVar(&f.script, "script", "", "Run a Lua script against the file before editing or writing")
	flag.StringVar(&f.output, "o", "", "Write the result to this file instead of starting the editor")
	flag.BoolVar(&f.recover, "recover", false, "Restore unsaved edits from the journal")
	flag.BoolVar(&showVersion, "version", false, "Show version information")
	flag.BoolVar(&showVersion, "v", false, "Show version information (shorthand)")
	flag.BoolVar(&showHelp, "help", false, "Show help message")
	flag.BoolVar(&showHelp, "h", false, "Show help message (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "lazyline - editor for text files larger than memory\n\n")
		fmt.Fprintf(os.Stderr, "Usage: lazyline [options] FILE\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  lazyline huge.log                       Edit a file\n")
		fmt.Fprintf(os.Stderr, "  lazyline -R huge.log                    View a file read-only\n")
		fmt.Fprintf(os.Stderr, "  lazyline -recover huge.log              Restore edits after a crash\n")
		fmt.Fprintf(os.Stderr, "  lazyline -script fix.lua -o out.log in.log   Batch edit\n")
		fmt.Fprintf(os.Stderr, "  lazyline -script fix.lua in.log | gzip  Batch edit to stdout\n")
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		fmt.Printf("lazyline %s\n", version)
		fmt.Printf("Commit: %s\n", commit)
		fmt.Printf("Built: %s\n", date)
		os.Exit(0)
	}

	if f.logLevel != "" {
		if _, err := logging.ParseLevel(f.logLevel); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}
	f.file = flag.Arg(0)

	return f
}
