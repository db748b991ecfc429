package redis

import (
	"crypto/tls"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeySchema(t *testing.T) {
	assert.Equal(t, "metrics:user-1", metricsKey("user-1"))
	assert.Equal(t, "ratelimit:import:user-1", rateLimitKey("import:user-1"))
	assert.Equal(t, "lock:import:user-1", lockKey("import:user-1"))
}

func TestSlidingWindowScriptEmbedded(t *testing.T) {
	assert.True(t, strings.Contains(slidingWindowLua, "ZREMRANGEBYSCORE"))
	assert.True(t, strings.Contains(slidingWindowLua, "return {1, count + 1}"))
	// Members come from the raw microsecond argument; tostring of a number
	// keeps only 14 significant digits.
	assert.True(t, strings.Contains(slidingWindowLua, "ARGV[1] .. '-' .. count"))
	assert.False(t, strings.Contains(slidingWindowLua, "now .. '-'"))
}

func TestClientOptions(t *testing.T) {
	opts := ClientConfig{Addr: "cache:6380", DB: 2, PoolSize: 5, MaxRetries: 1}.options()
	assert.Equal(t, "cache:6380", opts.Addr)
	assert.Equal(t, 2, opts.DB)
	assert.Equal(t, 5, opts.PoolSize)
	assert.Nil(t, opts.TLSConfig)

	opts = ClientConfig{Addr: "cache:6380", TLSEnabled: true}.options()
	if assert.NotNil(t, opts.TLSConfig) {
		assert.Equal(t, uint16(tls.VersionTLS12), opts.TLSConfig.MinVersion)
	}
}
