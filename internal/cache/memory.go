package cache

import (
	"context"
	"sync"
	"time"

	"github.com/fortuna/hermes/internal/model"
)

type memoryEntry struct {
	players   []model.Player
	createdAt time.Time
	expiresAt time.Time
}

// MemoryStore is the default in-process cache backend. Expired entries
// are kept until the next Sweep so GetStale can serve them as a
// degraded fallback while the origin is unreachable.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	maxEntries int
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an in-memory store. maxEntries <= 0 means
// unbounded.
func NewMemoryStore(maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
	}
}

// Get returns the payload for key if present and unexpired.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]model.Player, bool, error) {
	now := time.Now()

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok || !entry.expiresAt.After(now) {
		return nil, false, nil
	}
	return entry.players, true, nil
}

// GetStale returns the payload for key regardless of expiry.
func (s *MemoryStore) GetStale(ctx context.Context, key string) ([]model.Player, bool, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}
	return entry.players, true, nil
}

// Set replaces the entry for key unconditionally and resets its expiry.
func (s *MemoryStore) Set(ctx context.Context, key string, players []model.Player, ttl time.Duration) error {
	now := time.Now()
	copied := make([]model.Player, len(players))
	copy(copied, players)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		if _, exists := s.entries[key]; !exists {
			s.evictExpiredLocked(now)
			if len(s.entries) >= s.maxEntries {
				s.evictOldestLocked()
			}
		}
	}

	s.entries[key] = memoryEntry{
		players:   copied,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	return nil
}

// Sweep drops all expired entries and returns how many were removed.
func (s *MemoryStore) Sweep(ctx context.Context) (int, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Clear drops all entries.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]memoryEntry)
	s.mu.Unlock()
	return nil
}

// Ping always succeeds for the in-process store.
func (s *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-process store.
func (s *MemoryStore) Close() error {
	return nil
}

// Len returns the number of entries, expired included.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) evictExpiredLocked(now time.Time) {
	for key, entry := range s.entries {
		if !entry.expiresAt.After(now) {
			delete(s.entries, key)
		}
	}
}

func (s *MemoryStore) evictOldestLocked() {
	var oldestKey string
	var oldestTime time.Time

	for key, entry := range s.entries {
		if oldestKey == "" || entry.createdAt.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.createdAt
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}
