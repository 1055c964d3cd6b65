package rest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	apperrors "github.com/fortuna/hermes/internal/errors"
	"github.com/fortuna/hermes/internal/health"
	"github.com/fortuna/hermes/internal/model"
	"github.com/fortuna/hermes/internal/service"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// Handler contains dependencies for HTTP handlers
type Handler struct {
	players  *service.PlayerService
	reporter *health.Reporter
}

// NewHandler creates a new handler
func NewHandler(players *service.PlayerService, reporter *health.Reporter) *Handler {
	return &Handler{
		players:  players,
		reporter: reporter,
	}
}

// HealthCheck reports cache liveness and origin reachability
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := h.reporter.Check(r.Context())

	status := http.StatusOK
	if report.Status == health.StatusUnhealthy {
		status = http.StatusServiceUnavailable
	}
	respondJSON(w, status, report)
}

// GetPlayers serves the filter/search/pagination query surface
func (h *Handler) GetPlayers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if q.Get("team") == "" && q.Get("position") == "" && q.Get("search") == "" {
		respondError(w, http.StatusBadRequest, "At least one filter parameter is required", nil)
		return
	}

	statType, ok := model.NormalizeStatType(q.Get("statType"))
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid statType (use hitting or pitching)", nil)
		return
	}

	limit, err := queryInt(q.Get("limit"), defaultLimit)
	if err != nil || limit > maxLimit {
		respondError(w, http.StatusBadRequest, fmt.Sprintf("Invalid limit (must be between 0 and %d)", maxLimit), err)
		return
	}
	offset, err := queryInt(q.Get("offset"), 0)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid offset", err)
		return
	}

	result, err := h.players.Query(r.Context(), service.Params{
		Team:     q.Get("team"),
		Position: q.Get("position"),
		Search:   q.Get("search"),
		StatType: statType,
		Limit:    limit,
		Offset:   offset,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// GetPlayerStats returns a single player's stats by identifier
func (h *Handler) GetPlayerStats(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	playerID := vars["playerID"]

	statType, ok := model.NormalizeStatType(r.URL.Query().Get("statType"))
	if !ok {
		respondError(w, http.StatusBadRequest, "Invalid statType (use hitting or pitching)", nil)
		return
	}

	player, err := h.players.GetPlayerStats(r.Context(), playerID, statType)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, player)
}

// GetTeams returns the recognized team-code directory
func (h *Handler) GetTeams(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{"teams": model.TeamCodes})
}

// ClearCache drops all cached result sets (admin/test reset)
func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	if err := h.players.ClearCache(r.Context()); err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to clear cache", err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Cache cleared",
	})
}

func queryInt(raw string, fallback int) (int, error) {
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, errors.New("must be a non-negative integer")
	}
	return value, nil
}

// respondServiceError maps the service error taxonomy onto HTTP status
// codes. Raw transport errors never reach here; the service boundary
// already translated them.
func respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperrors.ErrInvalidArgument):
		respondError(w, http.StatusBadRequest, err.Error(), nil)
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, apperrors.ErrOverloaded):
		respondError(w, http.StatusServiceUnavailable, "Fetch queue full, retry with backoff", err)
	case errors.Is(err, apperrors.ErrSourceUnavailable):
		respondError(w, http.StatusBadGateway, "Origin source unavailable", err)
	default:
		respondError(w, http.StatusInternalServerError, "Internal error", err)
	}
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, message string, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	response := map[string]interface{}{
		"error":  message,
		"status": status,
	}

	if err != nil {
		response["details"] = err.Error()
	}

	json.NewEncoder(w).Encode(response)
}
