package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"

	"github.com/fortuna/hermes/internal/cache"
	apperrors "github.com/fortuna/hermes/internal/errors"
	"github.com/fortuna/hermes/internal/ingest"
	"github.com/fortuna/hermes/internal/model"
)

// Config bounds the query service's use of the cache and the origin.
type Config struct {
	CacheTTL             time.Duration // expiry for normalized result sets
	FetchTimeout         time.Duration // wall-clock bound per origin fetch
	MaxConcurrentFetches int64         // distinct-key fetches in flight at once
	FetchQueueDepth      int64         // waiters allowed beyond the fetch limit
}

// DefaultConfig returns the query service defaults.
func DefaultConfig() Config {
	return Config{
		CacheTTL:             5 * time.Minute,
		FetchTimeout:         30 * time.Second,
		MaxConcurrentFetches: 4,
		FetchQueueDepth:      32,
	}
}

// PlayerService composes cache, fetcher and parser into the operation
// set consumed by the HTTP layer: cache check, fetch-and-fill on miss,
// then in-memory filtering, search matching and pagination.
//
// Concurrent cache misses for the same logical key share one in-flight
// fetch. Fetches for distinct keys run concurrently up to
// MaxConcurrentFetches; excess requests queue up to FetchQueueDepth and
// beyond that fail with ErrOverloaded.
type PlayerService struct {
	store   cache.Store
	fetcher ingest.Fetcher
	parser  *ingest.Parser
	config  Config
	logger  *logrus.Logger

	flight   singleflight.Group
	fetchSem *semaphore.Weighted
	queued   atomic.Int64

	// playerLookup short-circuits repeated id lookups without rescanning
	// the league dataset.
	playerLookup *ttlcache.Cache[string, model.Player]
}

// Result is a filtered, paginated player set. Stale marks payloads
// served from an expired cache entry because the origin was unreachable;
// frontends surface this as a stale-data indicator.
type Result struct {
	Players []model.Player `json:"players"`
	Total   int            `json:"total"`
	Stale   bool           `json:"stale"`
}

// NewPlayerService creates the query service.
func NewPlayerService(store cache.Store, fetcher ingest.Fetcher, parser *ingest.Parser, config Config, logger *logrus.Logger) *PlayerService {
	lookup := ttlcache.New[string, model.Player](
		ttlcache.WithTTL[string, model.Player](config.CacheTTL),
		ttlcache.WithDisableTouchOnHit[string, model.Player](),
	)
	go lookup.Start()

	return &PlayerService{
		store:        store,
		fetcher:      fetcher,
		parser:       parser,
		config:       config,
		logger:       logger,
		fetchSem:     semaphore.NewWeighted(config.MaxConcurrentFetches),
		playerLookup: lookup,
	}
}

// Close stops the lookup cache's expiry loop.
func (s *PlayerService) Close() {
	s.playerLookup.Stop()
}

// Params are the normalized query parameters accepted by Query.
type Params struct {
	Team     string
	Position string
	Search   string
	StatType model.StatType
	Limit    int
	Offset   int
}

// Query dispatches on which filter parameter is set. Exactly one of
// team, position and search must be present.
func (s *PlayerService) Query(ctx context.Context, params Params) (*Result, error) {
	set := 0
	for _, v := range []string{params.Team, params.Position, params.Search} {
		if strings.TrimSpace(v) != "" {
			set++
		}
	}
	if set == 0 {
		return nil, fmt.Errorf("%w: at least one filter parameter is required", apperrors.ErrInvalidArgument)
	}
	if set > 1 {
		return nil, fmt.Errorf("%w: only one of team, position and search may be set", apperrors.ErrInvalidArgument)
	}
	if params.Limit < 0 || params.Offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be non-negative", apperrors.ErrInvalidArgument)
	}

	switch {
	case strings.TrimSpace(params.Team) != "":
		return s.GetPlayersByTeam(ctx, params.Team, params.StatType, params.Limit, params.Offset)
	case strings.TrimSpace(params.Position) != "":
		return s.GetPlayersByPosition(ctx, params.Position, params.StatType, params.Limit, params.Offset)
	default:
		return s.SearchPlayers(ctx, params.Search, params.StatType, params.Limit, params.Offset)
	}
}

// GetPlayersByTeam returns the roster snapshot for a recognized team
// code, cache-or-fetch under the team key.
func (s *PlayerService) GetPlayersByTeam(ctx context.Context, teamCode string, statType model.StatType, limit, offset int) (*Result, error) {
	code, ok := model.NormalizeTeamCode(teamCode)
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized team code %q", apperrors.ErrInvalidArgument, teamCode)
	}

	key := cache.TeamKey(code, statType)
	players, stale, err := s.getOrFetch(ctx, key, ingest.SourceQuery{Team: code, StatType: statType})
	if err != nil {
		return nil, err
	}

	// The origin occasionally mixes league leaders into team pages, so
	// filter before paginating.
	filtered := filterPlayers(players, func(p model.Player) bool {
		return p.Team == code
	})
	return paginate(filtered, limit, offset, stale), nil
}

// GetPlayersByPosition returns all players at a canonical position,
// computed over the league-wide dataset and cached under the position
// key.
func (s *PlayerService) GetPlayersByPosition(ctx context.Context, position string, statType model.StatType, limit, offset int) (*Result, error) {
	if !model.IsKnownPosition(position) {
		return nil, fmt.Errorf("%w: unrecognized position %q", apperrors.ErrInvalidArgument, position)
	}
	pos := strings.ToUpper(strings.TrimSpace(position))

	key := cache.PositionKey(pos, statType)
	return s.derivedQuery(ctx, key, statType, func(p model.Player) bool {
		return strings.EqualFold(p.Position, pos)
	}, limit, offset)
}

// SearchPlayers returns players whose display name contains the term,
// case-insensitive, computed over the league-wide dataset and cached
// under the normalized search key.
func (s *PlayerService) SearchPlayers(ctx context.Context, term string, statType model.StatType, limit, offset int) (*Result, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: search term must not be empty", apperrors.ErrInvalidArgument)
	}
	needle := strings.ToLower(trimmed)

	key := cache.SearchKey(trimmed, statType)
	return s.derivedQuery(ctx, key, statType, func(p model.Player) bool {
		return strings.Contains(strings.ToLower(p.Name), needle)
	}, limit, offset)
}

// GetPlayerStats returns a single player by identifier, scanning the
// league dataset on lookup-cache miss.
func (s *PlayerService) GetPlayerStats(ctx context.Context, playerID string, statType model.StatType) (*model.Player, error) {
	id := strings.TrimSpace(playerID)
	if id == "" {
		return nil, fmt.Errorf("%w: player id must not be empty", apperrors.ErrInvalidArgument)
	}

	lookupKey := fmt.Sprintf("%s:%s", id, statType)
	if item := s.playerLookup.Get(lookupKey); item != nil {
		player := item.Value()
		return &player, nil
	}

	players, stale, err := s.getOrFetch(ctx, cache.LeagueKey(statType), ingest.SourceQuery{StatType: statType})
	if err != nil {
		return nil, err
	}

	for i := range players {
		if players[i].PlayerID == id {
			// A player resolved from an expired snapshot must not enter
			// the lookup cache, or stale data would gain a fresh TTL.
			if !stale {
				s.playerLookup.Set(lookupKey, players[i], ttlcache.DefaultTTL)
			}
			return &players[i], nil
		}
	}
	return nil, fmt.Errorf("%w: player %q not found in any dataset", apperrors.ErrNotFound, id)
}

// ClearCache drops all cached result sets, used for admin invalidation.
func (s *PlayerService) ClearCache(ctx context.Context) error {
	s.playerLookup.DeleteAll()
	return s.store.Clear(ctx)
}

// derivedQuery serves a filter computed over the league dataset,
// cache-or-fetch under its own key. Results derived from stale data are
// not written back so they cannot masquerade as fresh.
func (s *PlayerService) derivedQuery(ctx context.Context, key string, statType model.StatType, match func(model.Player) bool, limit, offset int) (*Result, error) {
	if players, ok, err := s.store.Get(ctx, key); err == nil && ok {
		return paginate(players, limit, offset, false), nil
	} else if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed, recomputing")
	}

	league, stale, err := s.getOrFetch(ctx, cache.LeagueKey(statType), ingest.SourceQuery{StatType: statType})
	if err != nil {
		return nil, err
	}

	filtered := filterPlayers(league, match)
	if !stale {
		if err := s.store.Set(ctx, key, filtered, s.config.CacheTTL); err != nil {
			s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
		}
	}
	return paginate(filtered, limit, offset, stale), nil
}

// getOrFetch is the cache-or-fetch core. The bool result reports
// staleness. The fetch itself runs under a detached context bounded by
// FetchTimeout, so a caller that disconnects does not cancel a fetch
// other waiters share; the entry still lands in the cache.
func (s *PlayerService) getOrFetch(ctx context.Context, key string, query ingest.SourceQuery) ([]model.Player, bool, error) {
	if players, ok, err := s.store.Get(ctx, key); err == nil && ok {
		return players, false, nil
	} else if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed, fetching from origin")
	}

	result, err, shared := s.flight.Do(key, func() (interface{}, error) {
		// A waiter may land here just after the winner populated the key.
		if players, ok, err := s.store.Get(context.Background(), key); err == nil && ok {
			return players, nil
		}
		return s.fetchAndFill(key, query)
	})
	if shared {
		s.logger.WithField("key", key).Debug("Shared in-flight fetch result")
	}

	if err != nil {
		if errors.Is(err, apperrors.ErrSourceUnavailable) {
			if players, ok, staleErr := s.store.GetStale(ctx, key); staleErr == nil && ok {
				s.logger.WithField("key", key).Warn("Origin unavailable, serving stale cache entry")
				return players, true, nil
			}
		}
		return nil, false, err
	}
	return result.([]model.Player), false, nil
}

// fetchAndFill performs one bounded origin fetch and fills the cache.
func (s *PlayerService) fetchAndFill(key string, query ingest.SourceQuery) ([]model.Player, error) {
	fetchCtx, cancel := context.WithTimeout(context.Background(), s.config.FetchTimeout)
	defer cancel()

	if err := s.acquireFetchSlot(fetchCtx); err != nil {
		return nil, err
	}
	defer s.fetchSem.Release(1)

	page, err := s.fetcher.Fetch(fetchCtx, query)
	if err != nil {
		return nil, err
	}

	players, err := s.parser.ParsePlayers(page, query.StatType)
	if err != nil {
		// A fetched page with no recognizable table means the origin
		// layout drifted; treat it like an unreachable source so the
		// stale fallback applies.
		return nil, fmt.Errorf("%w: %v", apperrors.ErrSourceUnavailable, err)
	}

	if err := s.store.Set(fetchCtx, key, players, s.config.CacheTTL); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("Cache write failed")
	}

	s.logger.WithFields(logrus.Fields{"key": key, "players": len(players)}).Info("Cache filled from origin")
	return players, nil
}

// acquireFetchSlot enforces the bounded fetch pool plus a bounded wait
// queue. Beyond the queue depth requests are rejected rather than piled
// up.
func (s *PlayerService) acquireFetchSlot(ctx context.Context) error {
	if s.fetchSem.TryAcquire(1) {
		return nil
	}

	if s.queued.Add(1) > s.config.FetchQueueDepth {
		s.queued.Add(-1)
		return fmt.Errorf("%w: fetch queue depth %d exceeded", apperrors.ErrOverloaded, s.config.FetchQueueDepth)
	}
	defer s.queued.Add(-1)

	if err := s.fetchSem.Acquire(ctx, 1); err != nil {
		return fmt.Errorf("%w: waiting for fetch slot: %v", apperrors.ErrSourceUnavailable, err)
	}
	return nil
}

func filterPlayers(players []model.Player, match func(model.Player) bool) []model.Player {
	filtered := make([]model.Player, 0, len(players))
	for _, p := range players {
		if match(p) {
			filtered = append(filtered, p)
		}
	}
	return filtered
}

// paginate slices the post-filter result set. An offset past the end or
// a limit of zero yields an empty sequence, not an error.
func paginate(players []model.Player, limit, offset int, stale bool) *Result {
	total := len(players)

	if offset >= total || limit == 0 {
		return &Result{Players: []model.Player{}, Total: total, Stale: stale}
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}
	return &Result{Players: players[offset:end], Total: total, Stale: stale}
}
