package model

import "strings"

// TeamCodes maps the 30 MLB team abbreviations to full team names.
// This is the recognized-code set for roster queries.
var TeamCodes = map[string]string{
	"ARI": "Arizona Diamondbacks",
	"ATL": "Atlanta Braves",
	"BAL": "Baltimore Orioles",
	"BOS": "Boston Red Sox",
	"CHC": "Chicago Cubs",
	"CWS": "Chicago White Sox",
	"CIN": "Cincinnati Reds",
	"CLE": "Cleveland Guardians",
	"COL": "Colorado Rockies",
	"DET": "Detroit Tigers",
	"HOU": "Houston Astros",
	"KC":  "Kansas City Royals",
	"LAA": "Los Angeles Angels",
	"LAD": "Los Angeles Dodgers",
	"MIA": "Miami Marlins",
	"MIL": "Milwaukee Brewers",
	"MIN": "Minnesota Twins",
	"NYM": "New York Mets",
	"NYY": "New York Yankees",
	"OAK": "Oakland Athletics",
	"PHI": "Philadelphia Phillies",
	"PIT": "Pittsburgh Pirates",
	"SD":  "San Diego Padres",
	"SEA": "Seattle Mariners",
	"SF":  "San Francisco Giants",
	"STL": "St. Louis Cardinals",
	"TB":  "Tampa Bay Rays",
	"TEX": "Texas Rangers",
	"TOR": "Toronto Blue Jays",
	"WSH": "Washington Nationals",
}

// NormalizeTeamCode uppercases and validates a team code against the
// recognized set. Returns false for anything that is not a known
// 2-3 letter abbreviation.
func NormalizeTeamCode(raw string) (string, bool) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if len(code) < 2 || len(code) > 3 {
		return "", false
	}
	if _, ok := TeamCodes[code]; !ok {
		return "", false
	}
	return code, true
}

// TeamNameToCode resolves a scraped team name to its abbreviation.
// Falls back to substring matching since the origin site is inconsistent
// about short vs full names. Unknown names return the trimmed input.
func TeamNameToCode(name string) string {
	trimmed := strings.TrimSpace(name)
	if code, ok := NormalizeTeamCode(trimmed); ok {
		return code
	}

	lower := strings.ToLower(trimmed)
	for code, full := range TeamCodes {
		if strings.ToLower(full) == lower {
			return code
		}
	}
	for code, full := range TeamCodes {
		if lower != "" && strings.Contains(strings.ToLower(full), lower) {
			return code
		}
	}
	return trimmed
}
