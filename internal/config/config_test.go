package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsValidate(t *testing.T) {
	cfg := Defaults()
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.S3.Enabled())
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Defaults()
	cfg.Mode = "trade"
	cfg.LogLevel = "loud"
	cfg.Redis.Addr = ""
	cfg.Import.DefaultFormat = "qif"
	cfg.S3.ArchiveUploads = true

	err := cfg.Validate()
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, `unknown mode "trade"`)
	assert.Contains(t, msg, `unknown log_level "loud"`)
	assert.Contains(t, msg, "redis: addr must not be empty")
	assert.Contains(t, msg, `import: unknown default_format "qif"`)
	assert.Contains(t, msg, "s3: archive_uploads requires bucket")
}

func TestValidate_DSNSkipsHostChecks(t *testing.T) {
	cfg := Defaults()
	cfg.Supabase.DSN = "postgres://u:p@db:5432/journal"
	cfg.Supabase.Host = ""
	cfg.Supabase.Port = 0
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MemoryStorageSkipsBackends(t *testing.T) {
	cfg := Defaults()
	cfg.Storage = "memory"
	cfg.Supabase.Host = ""
	cfg.Supabase.PoolMaxConns = 0
	cfg.Redis.Addr = ""
	assert.False(t, cfg.UsesPostgres())
	assert.NoError(t, cfg.Validate())

	cfg.Storage = "sqlite"
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown storage "sqlite"`)
}

func TestLoad_FileAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
mode = "import"
log_level = "debug"

[import]
default_format = "ibkr"
lock_ttl = "45s"

[s3]
bucket = "journal-uploads"
archive_uploads = true
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("JOURNAL_REDIS_ADDR", "cache:6380")
	t.Setenv("JOURNAL_SERVER_CORS_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("JOURNAL_METRICS_CACHE_TTL", "1m")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "import", cfg.Mode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "ibkr", cfg.Import.DefaultFormat)
	assert.Equal(t, 45*time.Second, cfg.Import.LockTTL.Duration)
	assert.True(t, cfg.S3.Enabled())
	assert.True(t, cfg.S3.ArchiveUploads)
	assert.Equal(t, "cache:6380", cfg.Redis.Addr)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.CORSOrigins)
	assert.Equal(t, time.Minute, cfg.Metrics.CacheTTL.Duration)
	assert.Equal(t, int64(10<<20), cfg.Import.MaxUploadBytes, "defaults survive partial files")
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	assert.Error(t, err)
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Supabase.Password = "pw"
	cfg.Server.APIKey = "key"
	cfg.Notify.DiscordWebhookURL = "https://discord.example/hook"

	out := RedactedConfig(&cfg)

	assert.Equal(t, "***", out.Supabase.Password)
	assert.Equal(t, "***", out.Server.APIKey)
	assert.Equal(t, "***", out.Notify.DiscordWebhookURL)
	assert.Equal(t, "", out.Redis.Password, "empty secrets stay empty")
	assert.Equal(t, "pw", cfg.Supabase.Password)

	out.Server.CORSOrigins[0] = "mutated"
	assert.NotEqual(t, "mutated", cfg.Server.CORSOrigins[0])
}
