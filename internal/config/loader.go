package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies JOURNAL_* environment variable overrides, and
// returns the final Config. An empty path skips the file and uses defaults
// plus environment. The returned Config has NOT been validated.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known JOURNAL_* environment variables and
// overwrites the corresponding Config fields when a variable is set.
func applyEnvOverrides(cfg *Config) {
	// ── Supabase ──
	setStr(&cfg.Supabase.DSN, "JOURNAL_SUPABASE_DSN")
	setStr(&cfg.Supabase.DSN, "DATABASE_URL") // compatibility alias
	setStr(&cfg.Supabase.Host, "JOURNAL_SUPABASE_HOST")
	setInt(&cfg.Supabase.Port, "JOURNAL_SUPABASE_PORT")
	setStr(&cfg.Supabase.Database, "JOURNAL_SUPABASE_DATABASE")
	setStr(&cfg.Supabase.User, "JOURNAL_SUPABASE_USER")
	setStr(&cfg.Supabase.Password, "JOURNAL_SUPABASE_PASSWORD")
	setStr(&cfg.Supabase.SSLMode, "JOURNAL_SUPABASE_SSL_MODE")
	setInt(&cfg.Supabase.PoolMaxConns, "JOURNAL_SUPABASE_POOL_MAX_CONNS")
	setInt(&cfg.Supabase.PoolMinConns, "JOURNAL_SUPABASE_POOL_MIN_CONNS")
	setBool(&cfg.Supabase.RunMigrations, "JOURNAL_SUPABASE_RUN_MIGRATIONS")

	// ── Redis ──
	setStr(&cfg.Redis.Addr, "JOURNAL_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "JOURNAL_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "JOURNAL_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "JOURNAL_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "JOURNAL_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "JOURNAL_REDIS_TLS_ENABLED")

	// ── S3 ──
	setStr(&cfg.S3.Endpoint, "JOURNAL_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "JOURNAL_S3_REGION")
	setStr(&cfg.S3.Bucket, "JOURNAL_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "JOURNAL_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "JOURNAL_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "JOURNAL_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "JOURNAL_S3_FORCE_PATH_STYLE")
	setBool(&cfg.S3.ArchiveUploads, "JOURNAL_S3_ARCHIVE_UPLOADS")

	// ── Server ──
	setInt(&cfg.Server.Port, "JOURNAL_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT")
	setStringSlice(&cfg.Server.CORSOrigins, "JOURNAL_SERVER_CORS_ORIGINS")
	setStr(&cfg.Server.APIKey, "JOURNAL_SERVER_API_KEY")
	setInt(&cfg.Server.ImportRateLimit, "JOURNAL_SERVER_IMPORT_RATE_LIMIT")
	setDuration(&cfg.Server.ImportRateWindow, "JOURNAL_SERVER_IMPORT_RATE_WINDOW")
	setDuration(&cfg.Server.ShutdownTimeout, "JOURNAL_SERVER_SHUTDOWN_TIMEOUT")

	// ── Import ──
	setInt64(&cfg.Import.MaxUploadBytes, "JOURNAL_IMPORT_MAX_UPLOAD_BYTES")
	setStr(&cfg.Import.DefaultFormat, "JOURNAL_IMPORT_DEFAULT_FORMAT")
	setDuration(&cfg.Import.LockTTL, "JOURNAL_IMPORT_LOCK_TTL")

	// ── Metrics ──
	setDuration(&cfg.Metrics.CacheTTL, "JOURNAL_METRICS_CACHE_TTL")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "JOURNAL_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "JOURNAL_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "JOURNAL_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "JOURNAL_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "JOURNAL_MODE")
	setStr(&cfg.Storage, "JOURNAL_STORAGE")
	setStr(&cfg.LogLevel, "JOURNAL_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			dst.Duration = d
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
