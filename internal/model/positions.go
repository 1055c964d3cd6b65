package model

import "strings"

// PositionUnknown is assigned when a scraped position cannot be mapped
// to the canonical set. A player record never has an empty position.
const PositionUnknown = "UNKNOWN"

// Positions is the canonical position set for roster records.
var Positions = []string{
	"P", "C", "1B", "2B", "3B", "SS", "LF", "CF", "RF", "OF", "IF", "DH", "UT",
}

var positionAliases = map[string]string{
	"PITCHER":           "P",
	"SP":                "P",
	"RP":                "P",
	"CATCHER":           "C",
	"FIRST BASE":        "1B",
	"SECOND BASE":       "2B",
	"THIRD BASE":        "3B",
	"SHORTSTOP":         "SS",
	"LEFT FIELD":        "LF",
	"CENTER FIELD":      "CF",
	"RIGHT FIELD":       "RF",
	"OUTFIELD":          "OF",
	"OUTFIELDER":        "OF",
	"INFIELD":           "IF",
	"INFIELDER":         "IF",
	"DESIGNATED HITTER": "DH",
	"UTILITY":           "UT",
	"TWO-WAY PLAYER":    "UT",
}

// NormalizePosition maps a scraped position string to the canonical set.
// Unrecognized input returns PositionUnknown rather than failing the row.
func NormalizePosition(raw string) string {
	pos := strings.ToUpper(strings.TrimSpace(raw))
	if pos == "" {
		return PositionUnknown
	}
	for _, known := range Positions {
		if pos == known {
			return known
		}
	}
	if mapped, ok := positionAliases[pos]; ok {
		return mapped
	}
	return PositionUnknown
}

// IsKnownPosition reports whether pos (case-insensitive) is in the
// canonical set. PositionUnknown is not queryable.
func IsKnownPosition(pos string) bool {
	upper := strings.ToUpper(strings.TrimSpace(pos))
	for _, known := range Positions {
		if upper == known {
			return true
		}
	}
	return false
}

func normalizeLower(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
