package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fortuna/hermes/internal/model"
)

const (
	redisKeyPrefix = "hermes:"
	redisStaleSfx  = ":stale"

	// staleRetention bounds how long an expired payload stays available
	// for the degraded-mode fallback before Redis drops it.
	staleRetention = 24 * time.Hour
)

// RedisStore is the shared cache backend for multi-instance deployments.
// Fresh payloads expire via native Redis TTLs; a longer-lived mirror key
// backs GetStale.
type RedisStore struct {
	client *redis.Client
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(redisURL string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisStore{client: client}, nil
}

// Get returns the payload for key if present and unexpired.
func (s *RedisStore) Get(ctx context.Context, key string) ([]model.Player, bool, error) {
	return s.fetch(ctx, redisKeyPrefix+key)
}

// GetStale returns the last known payload for key, expired or not.
func (s *RedisStore) GetStale(ctx context.Context, key string) ([]model.Player, bool, error) {
	players, ok, err := s.fetch(ctx, redisKeyPrefix+key)
	if err != nil || ok {
		return players, ok, err
	}
	return s.fetch(ctx, redisKeyPrefix+key+redisStaleSfx)
}

func (s *RedisStore) fetch(ctx context.Context, fullKey string) ([]model.Player, bool, error) {
	data, err := s.client.Get(ctx, fullKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", fullKey, err)
	}

	var players []model.Player
	if err := json.Unmarshal(data, &players); err != nil {
		return nil, false, fmt.Errorf("decoding cached payload for %s: %w", fullKey, err)
	}
	return players, true, nil
}

// Set replaces both the fresh entry and its stale mirror in one
// pipelined write.
func (s *RedisStore) Set(ctx context.Context, key string, players []model.Player, ttl time.Duration) error {
	data, err := json.Marshal(players)
	if err != nil {
		return fmt.Errorf("encoding payload for %s: %w", key, err)
	}

	pipe := s.client.Pipeline()
	pipe.Set(ctx, redisKeyPrefix+key, data, ttl)
	pipe.Set(ctx, redisKeyPrefix+key+redisStaleSfx, data, staleRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Sweep is a no-op: Redis expires fresh and stale keys natively.
func (s *RedisStore) Sweep(ctx context.Context) (int, error) {
	return 0, nil
}

// Clear drops all hermes-owned keys.
func (s *RedisStore) Clear(ctx context.Context) error {
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("redis del %s: %w", iter.Val(), err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
