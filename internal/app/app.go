// Package app provides the top-level application lifecycle management for the
// trade journal. It wires together all dependencies (stores, caches, blob
// storage, services and notifications) and runs the configured operating mode.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alanyoungcy/tradejournal/internal/config"
)

// ImportOptions selects the statement processed by import mode. Exactly one of
// File and Blob must be set. File "-" reads standard input.
type ImportOptions struct {
	UserID string
	Format string
	File   string
	Blob   string
}

// Options carries the command-line inputs that are not part of Config.
type Options struct {
	Import ImportOptions
	// Stdout receives import mode's JSON report. Defaults to os.Stdout.
	Stdout io.Writer
	// Stdin is read when ImportOptions.File is "-". Defaults to os.Stdin.
	Stdin io.Reader
}

// App is the root application object. It owns the configuration, logger, and a
// list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	opts    Options
	logger  *slog.Logger
	closers []func()
}

// New creates a new App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger, opts Options) *App {
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	return &App{
		cfg:    cfg,
		opts:   opts,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires all dependencies, selects the
// operating mode, and blocks until the mode finishes or the context is
// cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting application",
		slog.String("mode", a.cfg.Mode),
		slog.String("storage", a.cfg.Storage),
		slog.String("log_level", a.cfg.LogLevel),
	)

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	svcs, err := NewServices(a.cfg, deps, a.logger)
	if err != nil {
		return err
	}

	switch strings.ToLower(a.cfg.Mode) {
	case "server":
		return a.ServerMode(ctx, deps, svcs)
	case "import":
		return a.ImportMode(ctx, svcs)
	default:
		return fmt.Errorf("app: unsupported mode %q", a.cfg.Mode)
	}
}

// Close tears down all resources in reverse registration order. It is safe to
// call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down application")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
