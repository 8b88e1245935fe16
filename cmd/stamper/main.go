package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"strconv"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/afero"
	"github.com/spf13/pflag"

	"github.com/ygrebnov/stamper"
	"github.com/ygrebnov/stamper/internal/config"
	"github.com/ygrebnov/stamper/internal/tracing"
	"github.com/ygrebnov/stamper/metrics"
)

const (
	exitOK    = 0
	exitFatal = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	a := app{
		stdout: os.Stdout,
		stderr: os.Stderr,
		fs:     afero.NewOsFs(),
		runner: stamper.NewExecRunner(),
		numCPU: runtime.NumCPU(),
	}
	code := a.run(ctx, os.Args[1:])
	stop()
	os.Exit(code)
}

// app holds the collaborators of one command invocation.
type app struct {
	stdout io.Writer
	stderr io.Writer
	fs     afero.Fs
	runner stamper.Runner
	numCPU int
}

func (a *app) run(ctx context.Context, args []string) int {
	fs := pflag.NewFlagSet("stamper", pflag.ContinueOnError)
	fs.SetOutput(a.stderr)
	configFile := fs.String("config", "", "config file (default: stamper.yaml in ./configs or .)")
	fs.String("strategy", stamper.StrategyPool, "dispatch strategy: pool or batch")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	fs.Usage = func() { printUsage(a.stdout, fs) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(a.stderr, "Error: %v\n\n", err)
		printUsage(a.stderr, fs)
		return exitUsage
	}

	path, threads, err := a.positional(fs.Args())
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n\n", err)
		printUsage(a.stderr, fs)
		return exitUsage
	}

	cfg, err := config.Load(*configFile, fs)
	if err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		return exitFatal
	}
	logger := newLogger(a.stderr, cfg)

	if cfg.Tracing {
		shutdown, err := tracing.Init("stamper", a.stderr)
		if err != nil {
			logger.Error("cannot initialize tracing", "error", err)
			return exitFatal
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("tracer shutdown failed", "error", err)
			}
		}()
	}

	runID := uuid.NewString()
	logger = logger.With("run_id", runID)
	logger.Info("starting",
		"hardware_concurrency", a.numCPU,
		"threads", threads,
		"path", path,
		"strategy", cfg.Strategy,
	)

	lister := stamper.DirLister{Fs: a.fs, Extension: cfg.Extension}
	files, err := lister.List(ctx, path)
	if err != nil {
		logger.Error("Cannot get files to timestamp", "error", err)
		return exitFatal
	}
	if len(files) == 0 {
		logger.Info("No files to process. Exiting.")
		return exitOK
	}
	logger.Info("files to process", "count", len(files))

	var provider metrics.Provider = metrics.NewNoopProvider()
	var prom *metrics.PrometheusProvider
	if cfg.MetricsFile != "" {
		prom = metrics.NewPrometheusProvider("stamper")
		provider = prom
	}

	watcher := stamper.Watcher{Interval: cfg.PollInterval, Grace: cfg.GracePeriod, Logger: logger}
	if cfg.GracePeriod == 0 {
		watcher.Grace = -1
	}
	strategy, err := stamper.NewStrategy(cfg.Strategy, watcher,
		stamper.WithWorkers(uint(threads)),
		stamper.WithLogger(logger),
		stamper.WithMetrics(provider),
		stamper.WithRunID(runID),
	)
	if err != nil {
		logger.Error("cannot create dispatch strategy", "error", err)
		return exitFatal
	}

	annotator := stamper.Annotator{Runner: a.runner, Program: cfg.Program, Args: cfg.Args}
	logger.Info("processing", "strategy", strategy.Name())
	report, err := strategy.Dispatch(ctx, annotator.Tasks(files))

	if prom != nil {
		if werr := prom.WriteTextfile(cfg.MetricsFile); werr != nil {
			logger.Warn("cannot write metrics file", "path", cfg.MetricsFile, "error", werr)
		}
	}

	if err != nil {
		logger.Error("run aborted", "error", err, "processed", report.Processed)
		return exitFatal
	}
	if report.Interrupted {
		logger.Warn("run interrupted", "processed", report.Processed, "files", report.Files)
		return exitOK
	}
	logger.Info("run complete", "processed", report.Processed, "files", report.Files)
	return exitOK
}

// positional parses [<path> [<thread-count>]].
func (a *app) positional(args []string) (string, int, error) {
	path := "."
	threads := max(a.numCPU, 2)

	switch len(args) {
	case 0:
	case 1:
		path = args[0]
	case 2:
		path = args[0]
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return "", 0, fmt.Errorf("thread count must be a positive integer, got %q", args[1])
		}
		threads = n
	default:
		return "", 0, fmt.Errorf("too many arguments: %d", len(args))
	}
	return path, threads, nil
}

func newLogger(w io.Writer, cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func printUsage(w io.Writer, fs *pflag.FlagSet) {
	fmt.Fprint(w, `Add a timestamp to every image of a folder.

Usage:
  stamper [-h] [flags] [<path> [<thread-count>]]

Arguments:
  path          directory holding the images (default: .)
  thread-count  concurrent workers (default: number of CPUs, at least 2)

Example:
  stamper /data/timelapse/ibiza 8

Flags:
`)
	fs.SetOutput(w)
	fs.PrintDefaults()
}
