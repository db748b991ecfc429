// Package config defines the top-level configuration for the trade journal
// backend and provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by JOURNAL_* environment variables.
//
// Storage selects the persistence backend: "postgres" keeps trades in
// Postgres and shared state in Redis, "memory" keeps everything in-process.
type Config struct {
	Supabase SupabaseConfig `toml:"supabase"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Import   ImportConfig   `toml:"import"`
	Metrics  MetricsConfig  `toml:"metrics"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	Storage  string         `toml:"storage"`
	LogLevel string         `toml:"log_level"`
}

// SupabaseConfig holds PostgreSQL / Supabase connection parameters.
type SupabaseConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters. Storage is optional:
// with an empty bucket the raw upload archive and blob imports are disabled.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	ArchiveUploads bool   `toml:"archive_uploads"`
}

// Enabled reports whether object storage is configured.
func (c S3Config) Enabled() bool {
	return strings.TrimSpace(c.Bucket) != ""
}

// duration is a wrapper around time.Duration that supports TOML string decoding
// (e.g. "5m", "30s").
type duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler so the TOML decoder can
// parse duration strings like "5m" or "30s".
func (d *duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

// MarshalText implements encoding.TextMarshaler for round-trip encoding.
func (d duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	CORSOrigins []string `toml:"cors_origins"`
	// APIKey guards every /api route except health. Empty disables auth.
	APIKey string `toml:"api_key"`
	// ImportRateLimit is the number of import requests a user may make per
	// ImportRateWindow. Zero disables the limit.
	ImportRateLimit  int      `toml:"import_rate_limit"`
	ImportRateWindow duration `toml:"import_rate_window"`
	ShutdownTimeout  duration `toml:"shutdown_timeout"`
}

// ImportConfig holds statement import parameters.
type ImportConfig struct {
	MaxUploadBytes int64    `toml:"max_upload_bytes"`
	DefaultFormat  string   `toml:"default_format"`
	LockTTL        duration `toml:"lock_ttl"`
}

// MetricsConfig holds dashboard metrics caching parameters.
type MetricsConfig struct {
	CacheTTL duration `toml:"cache_ttl"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Supabase: SupabaseConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "postgres",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  2,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Addr:       "localhost:6379",
			PoolSize:   20,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:             8000,
			CORSOrigins:      []string{"http://localhost:3000", "http://localhost:5173"},
			ImportRateLimit:  10,
			ImportRateWindow: duration{time.Minute},
			ShutdownTimeout:  duration{10 * time.Second},
		},
		Import: ImportConfig{
			MaxUploadBytes: 10 << 20,
			DefaultFormat:  "auto",
			LockTTL:        duration{2 * time.Minute},
		},
		Metrics: MetricsConfig{
			CacheTTL: duration{10 * time.Minute},
		},
		Notify: NotifyConfig{
			Events: []string{"import_completed", "import_failed"},
		},
		Mode:     "server",
		Storage:  "postgres",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"server": true,
	"import": true,
}

// validStorage enumerates the accepted values for Config.Storage.
var validStorage = map[string]bool{
	"postgres": true,
	"memory":   true,
}

// UsesPostgres reports whether trades are persisted in Postgres and shared
// state lives in Redis.
func (c *Config) UsesPostgres() bool {
	return strings.ToLower(c.Storage) != "memory"
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validFormats mirrors the names accepted by the statement parser.
var validFormats = map[string]bool{
	"":                    true,
	"auto":                true,
	"generic":             true,
	"csv":                 true,
	"ibkr":                true,
	"ib":                  true,
	"interactive_brokers": true,
	"ibkr_statement":      true,
	"ibkr-statement":      true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: server, import)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	if !validStorage[strings.ToLower(c.Storage)] {
		errs = append(errs, fmt.Sprintf("unknown storage %q (valid: postgres, memory)", c.Storage))
	}

	if c.UsesPostgres() {
		errs = append(errs, c.validateBackends()...)
	}

	// S3 is only checked once a bucket is named.
	if c.S3.Enabled() && c.S3.Endpoint == "" && c.S3.Region == "" {
		errs = append(errs, "s3: endpoint or region must be set when bucket is set")
	}
	if c.S3.ArchiveUploads && !c.S3.Enabled() {
		errs = append(errs, "s3: archive_uploads requires bucket")
	}

	// Server
	if c.Mode == "server" {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}
	if c.Server.ImportRateLimit < 0 {
		errs = append(errs, "server: import_rate_limit must be >= 0")
	}
	if c.Server.ImportRateLimit > 0 && c.Server.ImportRateWindow.Duration <= 0 {
		errs = append(errs, "server: import_rate_window must be > 0 when import_rate_limit is set")
	}

	// Import
	if c.Import.MaxUploadBytes <= 0 {
		errs = append(errs, "import: max_upload_bytes must be > 0")
	}
	if !validFormats[strings.ToLower(strings.TrimSpace(c.Import.DefaultFormat))] {
		errs = append(errs, fmt.Sprintf("import: unknown default_format %q", c.Import.DefaultFormat))
	}
	if c.Import.LockTTL.Duration <= 0 {
		errs = append(errs, "import: lock_ttl must be > 0")
	}

	if c.Metrics.CacheTTL.Duration < 0 {
		errs = append(errs, "metrics: cache_ttl must be >= 0")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validateBackends checks the Postgres and Redis settings used by the
// "postgres" storage backend.
func (c *Config) validateBackends() []string {
	var errs []string

	if strings.TrimSpace(c.Supabase.DSN) == "" {
		if c.Supabase.Host == "" {
			errs = append(errs, "supabase: host must not be empty (or set supabase.dsn)")
		}
		if c.Supabase.Port <= 0 || c.Supabase.Port > 65535 {
			errs = append(errs, fmt.Sprintf("supabase: port must be 1-65535, got %d", c.Supabase.Port))
		}
		if c.Supabase.Database == "" {
			errs = append(errs, "supabase: database must not be empty")
		}
	}
	if c.Supabase.PoolMaxConns < 1 {
		errs = append(errs, "supabase: pool_max_conns must be >= 1")
	}
	if c.Supabase.PoolMinConns < 0 {
		errs = append(errs, "supabase: pool_min_conns must be >= 0")
	}
	if c.Supabase.PoolMinConns > c.Supabase.PoolMaxConns {
		errs = append(errs, "supabase: pool_min_conns must not exceed pool_max_conns")
	}

	if c.Redis.Addr == "" {
		errs = append(errs, "redis: addr must not be empty")
	}
	if c.Redis.PoolSize < 1 {
		errs = append(errs, "redis: pool_size must be >= 1")
	}
	return errs
}
