package cache

import (
	"fmt"
	"strings"

	"github.com/fortuna/hermes/internal/model"
)

// Logical keys are derived from the operation plus normalized parameters
// so that equivalent queries address the same entry.

// TeamKey addresses a single team's roster dataset.
func TeamKey(code string, statType model.StatType) string {
	return fmt.Sprintf("team:%s:%s", strings.ToUpper(code), statType)
}

// LeagueKey addresses the aggregated league-wide dataset that search,
// position and player-id lookups are computed over.
func LeagueKey(statType model.StatType) string {
	return fmt.Sprintf("league:%s", statType)
}

// SearchKey addresses the cached result of a normalized search term.
func SearchKey(term string, statType model.StatType) string {
	return fmt.Sprintf("search:%s:%s", strings.ToLower(strings.TrimSpace(term)), statType)
}

// PositionKey addresses the cached result of a position filter.
func PositionKey(position string, statType model.StatType) string {
	return fmt.Sprintf("position:%s:%s", strings.ToUpper(strings.TrimSpace(position)), statType)
}
