package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/hermes/internal/model"
)

func somePlayers(team string, names ...string) []model.Player {
	players := make([]model.Player, 0, len(names))
	for _, name := range names {
		players = append(players, model.Player{
			PlayerID: name,
			Name:     name,
			Team:     team,
			Position: "CF",
			StatType: model.StatTypeHitting,
			Stats:    map[string]interface{}{"HR": 10},
		})
	}
	return players
}

func TestMemoryStore_SetGet(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "team:NYY:hitting", somePlayers("NYY", "Judge"), time.Minute))

	players, ok, err := store.Get(ctx, "team:NYY:hitting")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, players, 1)
	assert.Equal(t, "Judge", players[0].Name)

	_, ok, err = store.Get(ctx, "team:BOS:hitting")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryStore_ExpiryTreatedAsAbsent(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", somePlayers("NYY", "Judge"), 30*time.Millisecond))

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok, "entry should be retrievable before its TTL elapses")

	time.Sleep(60 * time.Millisecond)

	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok, "expired entry must be treated as absent")
}

func TestMemoryStore_GetStaleServesExpired(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", somePlayers("NYY", "Judge"), 10*time.Millisecond))
	time.Sleep(30 * time.Millisecond)

	_, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.False(t, ok)

	players, ok, err := store.GetStale(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok, "stale read should serve the expired payload")
	assert.Equal(t, "Judge", players[0].Name)
}

func TestMemoryStore_SweepRemovesOnlyExpired(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "expired", somePlayers("NYY", "Judge"), 10*time.Millisecond))
	require.NoError(t, store.Set(ctx, "fresh", somePlayers("BOS", "Devers"), time.Minute))
	time.Sleep(30 * time.Millisecond)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	// Once swept, even a stale read misses.
	_, ok, err := store.GetStale(ctx, "expired")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = store.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_SetReplacesWholeEntry(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "k", somePlayers("NYY", "Judge", "Cole"), time.Minute))
	require.NoError(t, store.Set(ctx, "k", somePlayers("NYY", "Volpe"), time.Minute))

	players, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, players, 1)
	assert.Equal(t, "Volpe", players[0].Name)
}

func TestMemoryStore_Clear(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", somePlayers("NYY", "Judge"), time.Minute))
	require.NoError(t, store.Set(ctx, "b", somePlayers("BOS", "Devers"), time.Minute))

	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_MaxEntriesEvicts(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(2)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "a", somePlayers("NYY", "Judge"), time.Minute))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Set(ctx, "b", somePlayers("BOS", "Devers"), time.Minute))
	time.Sleep(5 * time.Millisecond)
	require.NoError(t, store.Set(ctx, "c", somePlayers("LAD", "Betts"), time.Minute))

	assert.Equal(t, 2, store.Len())

	_, ok, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.False(t, ok, "oldest entry should have been evicted")

	_, ok, err = store.Get(ctx, "c")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	t.Parallel()

	store := NewMemoryStore(0)
	ctx := context.Background()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			_ = store.Set(ctx, "k", somePlayers("NYY", "Judge"), time.Millisecond)
			_, _, _ = store.Get(ctx, "k")
			_, _ = store.Sweep(ctx)
		}
	}()

	for i := 0; i < 200; i++ {
		_, _, _ = store.Get(ctx, "k")
		_, _, _ = store.GetStale(ctx, "k")
	}
	<-done
}
