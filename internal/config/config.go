package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Cache backends and fetch modes selectable by configuration.
const (
	CacheBackendMemory = "memory"
	CacheBackendRedis  = "redis"

	FetchModeBrowser = "browser"
	FetchModeHTTP    = "http"
)

// Config is the environment-driven service configuration.
type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	// Origin source
	SourceBaseURL string        `mapstructure:"SOURCE_BASE_URL"`
	FetchMode     string        `mapstructure:"FETCH_MODE"`
	FetchTimeout  time.Duration `mapstructure:"FETCH_TIMEOUT"`

	// Fetch policy
	MaxConcurrentFetches int64         `mapstructure:"MAX_CONCURRENT_FETCHES"`
	FetchQueueDepth      int64         `mapstructure:"FETCH_QUEUE_DEPTH"`
	RetryMax             int           `mapstructure:"RETRY_MAX"`
	RetryBackoff         time.Duration `mapstructure:"RETRY_BACKOFF"`
	RateLimitRPS         float64       `mapstructure:"RATE_LIMIT_RPS"`
	RateBurst            int           `mapstructure:"RATE_BURST"`

	// Cache
	CacheBackend  string        `mapstructure:"CACHE_BACKEND"`
	RedisURL      string        `mapstructure:"REDIS_URL"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`
	SweepInterval time.Duration `mapstructure:"SWEEP_INTERVAL"`
	MaxEntries    int           `mapstructure:"CACHE_MAX_ENTRIES"`
}

// Load reads configuration from the environment (and an optional .env
// file) with sane defaults.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")

	viper.SetDefault("SOURCE_BASE_URL", "https://www.mlb.com")
	viper.SetDefault("FETCH_MODE", FetchModeBrowser)
	viper.SetDefault("FETCH_TIMEOUT", "30s")

	viper.SetDefault("MAX_CONCURRENT_FETCHES", 4)
	viper.SetDefault("FETCH_QUEUE_DEPTH", 32)
	viper.SetDefault("RETRY_MAX", 3)
	viper.SetDefault("RETRY_BACKOFF", "500ms")
	viper.SetDefault("RATE_LIMIT_RPS", 0.5)
	viper.SetDefault("RATE_BURST", 2)

	viper.SetDefault("CACHE_BACKEND", CacheBackendMemory)
	viper.SetDefault("REDIS_URL", "redis://localhost:6379")
	viper.SetDefault("CACHE_TTL", "5m")
	viper.SetDefault("SWEEP_INTERVAL", "5m")
	viper.SetDefault("CACHE_MAX_ENTRIES", 0)

	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	switch c.CacheBackend {
	case CacheBackendMemory, CacheBackendRedis:
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (use memory or redis)", c.CacheBackend)
	}

	switch c.FetchMode {
	case FetchModeBrowser, FetchModeHTTP:
	default:
		return fmt.Errorf("invalid FETCH_MODE %q (use browser or http)", c.FetchMode)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %v", c.CacheTTL)
	}
	if c.MaxConcurrentFetches < 1 {
		return fmt.Errorf("MAX_CONCURRENT_FETCHES must be at least 1, got %d", c.MaxConcurrentFetches)
	}
	if c.FetchQueueDepth < 0 {
		return fmt.Errorf("FETCH_QUEUE_DEPTH must be non-negative, got %d", c.FetchQueueDepth)
	}
	if c.RetryMax < 0 {
		return fmt.Errorf("RETRY_MAX must be non-negative, got %d", c.RetryMax)
	}
	return nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}
