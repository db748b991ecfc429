package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/server"
	"github.com/alanyoungcy/tradejournal/internal/server/handler"
)

// ServerMode serves the HTTP API until ctx is cancelled, then drains
// in-flight requests within the configured shutdown timeout.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies, svcs *Services) error {
	a.logger.InfoContext(ctx, "starting server mode")

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(deps.Health, a.logger),
		Trades:   handler.NewTradeHandler(svcs.Journal, a.logger),
		Imports:  handler.NewImportHandler(svcs.Imports, a.cfg.Import.MaxUploadBytes, a.logger),
		Metrics:  handler.NewMetricsHandler(svcs.Journal, a.logger),
		Activity: handler.NewActivityHandler(svcs.Journal, a.logger),
	}
	srv := server.NewServer(server.Config{
		Port:             a.cfg.Server.Port,
		CORSOrigins:      a.cfg.Server.CORSOrigins,
		APIKey:           a.cfg.Server.APIKey,
		ImportRateLimit:  a.cfg.Server.ImportRateLimit,
		ImportRateWindow: a.cfg.Server.ImportRateWindow.Duration,
	}, handlers, deps.RateLimiter, a.logger)

	if a.cfg.Server.APIKey == "" {
		a.logger.WarnContext(ctx, "server: api_key is empty, authentication disabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		<-gctx.Done()
		timeout := a.cfg.Server.ShutdownTimeout.Duration
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

// importReport is the JSON document import mode prints.
type importReport struct {
	Import  domain.ImportResult `json:"import"`
	Metrics domain.Metrics      `json:"metrics"`
}

// ImportMode imports one statement from a local file or object storage,
// prints the result with the user's refreshed metrics, and returns.
func (a *App) ImportMode(ctx context.Context, svcs *Services) error {
	opts := a.opts.Import
	if opts.UserID == "" {
		return errors.New("import mode: -user is required")
	}
	if (opts.File == "") == (opts.Blob == "") {
		return errors.New("import mode: exactly one of -file or -blob is required")
	}

	var (
		res domain.ImportResult
		err error
	)
	if opts.Blob != "" {
		res, err = svcs.Imports.ImportBlob(ctx, opts.UserID, opts.Format, opts.Blob)
	} else {
		var data []byte
		data, err = a.readStatementFile(opts.File)
		if err != nil {
			return fmt.Errorf("import mode: %w", err)
		}
		filename := filepath.Base(opts.File)
		if opts.File == "-" {
			filename = "stdin"
		}
		res, err = svcs.Imports.Import(ctx, opts.UserID, opts.Format, filename, data)
	}
	if err != nil {
		return fmt.Errorf("import mode: %w", err)
	}

	m, err := svcs.Journal.Metrics(ctx, opts.UserID)
	if err != nil {
		return fmt.Errorf("import mode: %w", err)
	}

	enc := json.NewEncoder(a.opts.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(importReport{Import: res, Metrics: m}); err != nil {
		return fmt.Errorf("import mode: write report: %w", err)
	}

	a.logger.InfoContext(ctx, "import mode: done",
		slog.String("import_id", res.ImportID),
		slog.Int("count", res.Count),
	)
	return nil
}

// readStatementFile reads name, or standard input for "-", refusing files
// larger than the configured upload limit.
func (a *App) readStatementFile(name string) ([]byte, error) {
	var r io.Reader = a.opts.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("open statement: %w", err)
		}
		defer f.Close()
		r = f
	}

	limit := a.cfg.Import.MaxUploadBytes
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read statement: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("read statement %s: %w", name, domain.ErrTooLarge)
	}
	return data, nil
}
