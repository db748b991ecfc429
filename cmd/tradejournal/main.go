// Command tradejournal is the backend entry point for the trade journal. It
// loads configuration, validates it, wires dependencies, sets up signal
// handling, and starts the application in the configured mode.
//
// Passing -file or -blob runs a one-off statement import instead of the HTTP
// server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alanyoungcy/tradejournal/internal/app"
	"github.com/alanyoungcy/tradejournal/internal/config"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to configuration file (empty for defaults and environment only)")
	file := flag.String("file", "", "statement file to import, or - for stdin")
	blob := flag.String("blob", "", "object storage key of a statement to import")
	user := flag.String("user", "", "user ID that owns the imported trades")
	format := flag.String("format", "", "statement format: auto, generic, ibkr or ibkr_statement")
	flag.Parse()

	// Load configuration.
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config %s: %v\n", *configPath, err)
		os.Exit(1)
	}
	if *file != "" || *blob != "" {
		cfg.Mode = "import"
	}

	// Import mode prints its report on stdout, so logs go to stderr there.
	var logOut io.Writer = os.Stdout
	if cfg.Mode == "import" {
		logOut = os.Stderr
	}
	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: parseLevel(cfg.LogLevel),
	}))
	slog.SetDefault(logger)

	// Validate configuration.
	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("trade journal starting",
		slog.String("mode", cfg.Mode),
		slog.String("config", *configPath),
		slog.Any("settings", config.RedactedConfig(cfg)),
	)

	application := app.New(cfg, logger, app.Options{
		Import: app.ImportOptions{
			UserID: *user,
			Format: *format,
			File:   *file,
			Blob:   *blob,
		},
	})

	// Setup signal handling for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = application.Run(ctx)
	stop()
	application.Close()

	if err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("application exited with error", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
	logger.Info("trade journal stopped")
}

func parseLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
