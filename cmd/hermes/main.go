package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/fortuna/hermes/internal/api/rest"
	"github.com/fortuna/hermes/internal/cache"
	"github.com/fortuna/hermes/internal/config"
	"github.com/fortuna/hermes/internal/health"
	"github.com/fortuna/hermes/internal/ingest"
	"github.com/fortuna/hermes/internal/service"
)

const (
	serviceName    = "hermes"
	serviceVersion = "1.2.0"
)

func main() {
	logger := newLogger()
	logger.Infof("Starting %s v%s - Roster & Stats Service", serviceName, serviceVersion)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}
	applyLogLevel(logger, cfg.LogLevel)

	// Cache backend
	store, err := newStore(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize cache backend: %v", err)
	}
	defer store.Close()

	logger.Infof("✓ Cache backend ready (%s)", cfg.CacheBackend)

	// Origin fetcher
	fetcher, err := newFetcher(cfg, logger)
	if err != nil {
		logger.Fatalf("Failed to initialize fetcher: %v", err)
	}
	defer fetcher.Close()

	logger.Infof("✓ Origin fetcher ready (%s mode, %s)", cfg.FetchMode, cfg.SourceBaseURL)

	// Query service
	players := service.NewPlayerService(store, fetcher, ingest.NewParser(logger), service.Config{
		CacheTTL:             cfg.CacheTTL,
		FetchTimeout:         cfg.FetchTimeout,
		MaxConcurrentFetches: cfg.MaxConcurrentFetches,
		FetchQueueDepth:      cfg.FetchQueueDepth,
	}, logger)
	defer players.Close()

	reporter := health.NewReporter(store, fetcher, logger)

	// Periodic cache sweep
	sweeper := cron.New()
	_, err = sweeper.AddFunc("@every "+cfg.SweepInterval.String(), func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		removed, err := store.Sweep(ctx)
		if err != nil {
			logger.WithError(err).Warn("Cache sweep failed")
			return
		}
		if removed > 0 {
			logger.WithField("removed", removed).Info("Cache sweep removed expired entries")
		}
	})
	if err != nil {
		logger.Fatalf("Failed to schedule cache sweep: %v", err)
	}
	sweeper.Start()

	logger.Infof("✓ Cache sweep scheduled every %v", cfg.SweepInterval)

	// REST API server
	restServer := rest.NewServer(cfg.Port, players, reporter, logger)
	go func() {
		if err := restServer.Start(); err != nil {
			logger.Infof("REST server stopped: %v", err)
		}
	}()

	logger.Infof("✓ REST API server listening on :%s", cfg.Port)
	logger.Infof("✓ %s v%s started successfully", serviceName, serviceVersion)

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	logger.Infof("Shutting down %s gracefully...", serviceName)

	sweeper.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := restServer.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("REST API server shutdown error")
	}

	logger.Infof("%s stopped", serviceName)
}

// newStore builds the configured cache backend. Redis connections are
// retried with a bounded loop so a container-orchestrated Redis that is
// still starting does not take the service down.
func newStore(cfg *config.Config, logger *logrus.Logger) (cache.Store, error) {
	if cfg.CacheBackend == config.CacheBackendMemory {
		return cache.NewMemoryStore(cfg.MaxEntries), nil
	}

	const maxRetries = 30
	retryDelay := 2 * time.Second

	logger.Info("Connecting to Redis...")
	var store *cache.RedisStore
	var err error
	for i := 0; i < maxRetries; i++ {
		store, err = cache.NewRedisStore(cfg.RedisURL)
		if err == nil {
			return store, nil
		}
		if i < maxRetries-1 {
			logger.Infof("Redis connection attempt %d/%d failed: %v (retrying in %v)", i+1, maxRetries, err, retryDelay)
			time.Sleep(retryDelay)
		}
	}
	return nil, err
}

func newFetcher(cfg *config.Config, logger *logrus.Logger) (ingest.Fetcher, error) {
	var inner ingest.Fetcher
	var err error

	if cfg.FetchMode == config.FetchModeBrowser {
		inner, err = ingest.NewBrowserFetcher(cfg.SourceBaseURL, cfg.FetchTimeout, logger)
		if err != nil {
			return nil, err
		}
	} else {
		inner = ingest.NewHTTPFetcher(cfg.SourceBaseURL, cfg.FetchTimeout, logger)
	}

	return ingest.NewPolicyFetcher(inner, ingest.PolicyConfig{
		MaxRetries:   cfg.RetryMax,
		RetryBackoff: cfg.RetryBackoff,
		RateLimitRPS: cfg.RateLimitRPS,
		RateBurst:    cfg.RateBurst,
	}, logger), nil
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "2006-01-02 15:04:05",
	})
	return logger
}

func applyLogLevel(logger *logrus.Logger, level string) {
	parsed, err := logrus.ParseLevel(strings.ToLower(level))
	if err != nil {
		logger.WithField("invalid_level", level).Warn("Invalid LOG_LEVEL, using INFO")
		parsed = logrus.InfoLevel
	}
	logger.SetLevel(parsed)
}
