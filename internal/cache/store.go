package cache

import (
	"context"
	"time"

	"github.com/fortuna/hermes/internal/model"
)

// Store is the pluggable cache backend holding normalized result sets
// keyed by logical query. The service layer is the only writer; entries
// are replaced whole, never partially updated.
//
// Get treats an expired entry as absent. GetStale returns the payload
// even past its expiry, which backs the degraded-mode fallback when the
// origin source is unreachable.
type Store interface {
	Get(ctx context.Context, key string) ([]model.Player, bool, error)
	GetStale(ctx context.Context, key string) ([]model.Player, bool, error)
	Set(ctx context.Context, key string, players []model.Player, ttl time.Duration) error
	Sweep(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
