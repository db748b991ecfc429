package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/alanyoungcy/tradejournal/internal/blob/s3"
	"github.com/alanyoungcy/tradejournal/internal/cache/redis"
	"github.com/alanyoungcy/tradejournal/internal/config"
	"github.com/alanyoungcy/tradejournal/internal/domain"
	"github.com/alanyoungcy/tradejournal/internal/notify"
	"github.com/alanyoungcy/tradejournal/internal/server/handler"
	"github.com/alanyoungcy/tradejournal/internal/service"
	"github.com/alanyoungcy/tradejournal/internal/statement"
	"github.com/alanyoungcy/tradejournal/internal/store/memory"
	"github.com/alanyoungcy/tradejournal/internal/store/postgres"
)

// Dependencies bundles every domain-level dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Stores
	TradeStore domain.TradeStore
	AuditStore domain.AuditStore

	// Caches
	MetricsCache domain.MetricsCache
	RateLimiter  domain.RateLimiter
	LockManager  domain.LockManager

	// Blob storage, nil when no bucket is configured.
	BlobReader domain.BlobReader
	Archiver   service.UploadArchiver

	// Notifications
	Notifier *notify.Notifier

	// Health probes keyed by dependency name.
	Health map[string]handler.Pinger
}

// pingFunc adapts a health function to handler.Pinger.
type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	deps := &Dependencies{Health: make(map[string]handler.Pinger)}

	if cfg.UsesPostgres() {
		// --- PostgreSQL ---
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Supabase.DSN,
			Host:     cfg.Supabase.Host,
			Port:     cfg.Supabase.Port,
			Database: cfg.Supabase.Database,
			User:     cfg.Supabase.User,
			Password: cfg.Supabase.Password,
			SSLMode:  cfg.Supabase.SSLMode,
			MaxConns: cfg.Supabase.PoolMaxConns,
			MinConns: cfg.Supabase.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: postgres: %w", err)
		}
		closers = append(closers, pgClient.Close)

		if cfg.Supabase.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("wire: postgres migrations: %w", err)
			}
		}

		pool := pgClient.Pool()
		deps.TradeStore = postgres.NewTradeStore(pool)
		deps.AuditStore = postgres.NewAuditStore(pool)
		deps.Health["postgres"] = pgClient

		// --- Redis ---
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: redis: %w", err)
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.MetricsCache = redis.NewMetricsCache(redisClient, cfg.Metrics.CacheTTL.Duration)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.Health["redis"] = redisClient
	} else {
		logger.WarnContext(ctx, "wire: using in-memory storage; trades are lost on exit")
		deps.TradeStore = memory.NewTradeStore()
		deps.AuditStore = memory.NewAuditStore()
		deps.MetricsCache = memory.NewMetricsCache()
		deps.RateLimiter = memory.NewRateLimiter()
		deps.LockManager = memory.NewLockManager()
	}

	// --- S3 blob storage (optional) ---
	if cfg.S3.Enabled() {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("wire: s3: %w", err)
		}

		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(s3Client))
		deps.Health["s3"] = pingFunc(s3Client.Health)
	}

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(
			cfg.Notify.TelegramToken,
			cfg.Notify.TelegramChatID,
		))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	if len(senders) > 0 {
		deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)
	}

	logger.InfoContext(ctx, "wire: dependencies ready",
		slog.String("storage", cfg.Storage),
		slog.Bool("s3", cfg.S3.Enabled()),
		slog.Int("notify_senders", len(senders)),
	)
	return deps, cleanup, nil
}

// Services holds the application services built on top of Dependencies.
type Services struct {
	Journal *service.JournalService
	Imports *service.ImportService
}

// NewServices builds the journal and import services.
func NewServices(cfg *config.Config, deps *Dependencies, logger *slog.Logger) (*Services, error) {
	format, err := statement.ParseFormat(cfg.Import.DefaultFormat)
	if err != nil {
		return nil, fmt.Errorf("app: default format: %w", err)
	}

	importDeps := service.ImportDeps{
		Trades:   deps.TradeStore,
		Audit:    deps.AuditStore,
		Cache:    deps.MetricsCache,
		Locks:    deps.LockManager,
		Archiver: deps.Archiver,
		Blobs:    deps.BlobReader,
	}
	// A nil *notify.Notifier must not become a non-nil interface.
	if deps.Notifier != nil {
		importDeps.Notifier = deps.Notifier
	}

	return &Services{
		Journal: service.NewJournalService(deps.TradeStore, deps.AuditStore, deps.MetricsCache, logger),
		Imports: service.NewImportService(importDeps, service.ImportConfig{
			DefaultFormat:  format,
			LockTTL:        cfg.Import.LockTTL.Duration,
			MaxUploadBytes: cfg.Import.MaxUploadBytes,
			ArchiveUploads: cfg.S3.ArchiveUploads,
		}, logger),
	}, nil
}
