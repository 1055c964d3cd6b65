package config

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadClean(t *testing.T) (*Config, error) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	return Load()
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := loadClean(t)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Env)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "https://www.mlb.com", cfg.SourceBaseURL)
	assert.Equal(t, FetchModeBrowser, cfg.FetchMode)
	assert.Equal(t, 30*time.Second, cfg.FetchTimeout)
	assert.Equal(t, int64(4), cfg.MaxConcurrentFetches)
	assert.Equal(t, int64(32), cfg.FetchQueueDepth)
	assert.Equal(t, 3, cfg.RetryMax)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryBackoff)
	assert.Equal(t, CacheBackendMemory, cfg.CacheBackend)
	assert.Equal(t, 5*time.Minute, cfg.CacheTTL)
	assert.Equal(t, 5*time.Minute, cfg.SweepInterval)
	assert.Equal(t, 0, cfg.MaxEntries)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("ENV", "production")
	t.Setenv("FETCH_MODE", "http")
	t.Setenv("CACHE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://cache.internal:6379")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("MAX_CONCURRENT_FETCHES", "8")
	t.Setenv("RATE_LIMIT_RPS", "2.5")

	cfg, err := loadClean(t)
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Port)
	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, FetchModeHTTP, cfg.FetchMode)
	assert.Equal(t, CacheBackendRedis, cfg.CacheBackend)
	assert.Equal(t, "redis://cache.internal:6379", cfg.RedisURL)
	assert.Equal(t, 90*time.Second, cfg.CacheTTL)
	assert.Equal(t, int64(8), cfg.MaxConcurrentFetches)
	assert.Equal(t, 2.5, cfg.RateLimitRPS)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name, key, value, wantErr string
	}{
		{"unknown cache backend", "CACHE_BACKEND", "memcached", "invalid CACHE_BACKEND"},
		{"unknown fetch mode", "FETCH_MODE", "ftp", "invalid FETCH_MODE"},
		{"non-positive ttl", "CACHE_TTL", "0s", "CACHE_TTL must be positive"},
		{"zero fetch slots", "MAX_CONCURRENT_FETCHES", "0", "MAX_CONCURRENT_FETCHES must be at least 1"},
		{"negative queue depth", "FETCH_QUEUE_DEPTH", "-1", "FETCH_QUEUE_DEPTH must be non-negative"},
		{"negative retry count", "RETRY_MAX", "-2", "RETRY_MAX must be non-negative"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := loadClean(t)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
