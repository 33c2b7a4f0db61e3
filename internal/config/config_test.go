package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDefaultConfig() *Config {
	return NewFromViper(NewEmptyViper())
}

func TestDefaults(t *testing.T) {
	cfg := newDefaultConfig()

	assert.Equal(t, 0.7, cfg.GetFloat64("analysis.threat_threshold"))
	assert.False(t, cfg.GetBool("analysis.strict_auth"))
	assert.False(t, cfg.GetBool("analysis.flag_archives"))
	assert.Equal(t, int64(16*1024*1024), cfg.GetInt64("analysis.max_file_bytes"))
	assert.Contains(t, cfg.GetStringSlice("analysis.dangerous_extensions"), "exe")
	assert.NotContains(t, cfg.GetStringSlice("analysis.dangerous_extensions"), "zip")

	assert.Equal(t, "0.0.0.0:8080", cfg.GetString("server.listen_address"))
	assert.Equal(t, 8, cfg.GetInt("server.rate_limit.max_requests"))

	assert.Equal(t, "memory", cfg.GetString("history.type"))
	assert.Equal(t, 4, cfg.GetInt("queue.workers"))
	assert.Equal(t, 3, cfg.GetInt("queue.max_retries"))

	assert.Equal(t, "info", cfg.GetString("logging.level"))
	assert.Equal(t, "json", cfg.GetString("logging.format"))
}

func TestGetDuration(t *testing.T) {
	cfg := newDefaultConfig()

	backoff, err := cfg.GetDuration("queue.retry_backoff")
	require.NoError(t, err)
	assert.Equal(t, 60*time.Second, backoff)

	ttl, err := cfg.GetDuration("queue.result_ttl")
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	_, err = cfg.GetDuration("history.type")
	assert.Error(t, err)
}

func TestTypedSections(t *testing.T) {
	cfg := newDefaultConfig()

	server := cfg.GetServer()
	assert.Equal(t, "0.0.0.0:8080", server.ListenAddress)
	assert.Equal(t, 8, server.RateLimitMax)

	history := cfg.GetHistory()
	assert.Equal(t, "memory", history.Type)
	assert.NotEmpty(t, history.SQLitePath)

	queue := cfg.GetQueue()
	assert.Equal(t, 4, queue.Workers)
	assert.Equal(t, 3, queue.MaxRetries)
}

func TestOverrides(t *testing.T) {
	v := NewEmptyViper()
	v.Set("analysis.threat_threshold", 0.5)
	v.Set("history.type", "sqlite")
	cfg := NewFromViper(v)

	assert.Equal(t, 0.5, cfg.GetFloat64("analysis.threat_threshold"))
	assert.Equal(t, "sqlite", cfg.GetHistory().Type)
}
