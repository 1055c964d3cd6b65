package health

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/hermes/internal/cache"
	"github.com/fortuna/hermes/internal/ingest"
)

// Statuses reported by Check.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// probeTimeout keeps the origin probe from holding up the health
// endpoint.
const probeTimeout = 3 * time.Second

// Report is the health endpoint payload.
type Report struct {
	Status string `json:"status"`
	Cache  string `json:"cache"`
	Origin string `json:"origin"`
}

// Reporter exposes the liveness of the cache and the reachability of
// the origin source.
//
// healthy: cache operable and origin reachable. degraded: cache operable
// but origin unreachable, so the service serves cached data only.
// unhealthy: cache unusable. With the in-process memory store the cache
// ping cannot fail, so unhealthy is reachable only with the Redis
// backend.
type Reporter struct {
	store   cache.Store
	fetcher ingest.Fetcher
	logger  *logrus.Logger
}

// NewReporter creates a health reporter.
func NewReporter(store cache.Store, fetcher ingest.Fetcher, logger *logrus.Logger) *Reporter {
	return &Reporter{store: store, fetcher: fetcher, logger: logger}
}

// Check probes the cache and the origin and maps the outcome onto the
// three-state status.
func (r *Reporter) Check(ctx context.Context) Report {
	report := Report{Status: StatusHealthy, Cache: "ok", Origin: "ok"}

	if err := r.store.Ping(ctx); err != nil {
		r.logger.WithError(err).Error("Cache ping failed")
		report.Status = StatusUnhealthy
		report.Cache = err.Error()
		return report
	}

	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	if err := r.fetcher.Probe(probeCtx); err != nil {
		r.logger.WithError(err).Warn("Origin probe failed, serving cached data only")
		report.Status = StatusDegraded
		report.Origin = err.Error()
	}
	return report
}
