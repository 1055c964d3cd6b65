package model

import (
	"time"
)

// StatType selects which statistical table a player record was built from.
type StatType string

const (
	StatTypeHitting  StatType = "hitting"
	StatTypePitching StatType = "pitching"
)

// NormalizeStatType maps free-form input to a known StatType.
// Empty input defaults to hitting.
func NormalizeStatType(raw string) (StatType, bool) {
	switch StatType(normalizeLower(raw)) {
	case "":
		return StatTypeHitting, true
	case StatTypeHitting:
		return StatTypeHitting, true
	case StatTypePitching:
		return StatTypePitching, true
	}
	return "", false
}

// Player is the canonical normalized record served to all three frontends.
// Stats is a raw name→value map whose shape depends on the stat type
// (hitting vs pitching), so the frontends can render without knowing
// sport semantics.
type Player struct {
	PlayerID  string                 `json:"player_id"`
	Name      string                 `json:"name"`
	Team      string                 `json:"team"`
	Position  string                 `json:"position"`
	StatType  StatType               `json:"stat_type"`
	Stats     map[string]interface{} `json:"stats"`
	FetchedAt time.Time              `json:"fetched_at"`
}
