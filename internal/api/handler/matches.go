package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/quinielago/progol-data/internal/api/respond"
	"github.com/quinielago/progol-data/internal/match"
)

// GetMatches lists known matches for one league.
// @Summary List matches by league
// @Tags matches
// @Produce json
// @Param league query string true "League name, e.g. Liga MX"
// @Success 200 {array} match.Match
// @Failure 400 {object} respond.ErrorResponse
// @Router /matches [get]
func (h *Handler) GetMatches(w http.ResponseWriter, r *http.Request) {
	league := r.URL.Query().Get("league")
	if league == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "league query parameter is required")
		return
	}

	matches, err := h.matches.ListByLeague(r.Context(), league)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Failed to list matches", err.Error())
		return
	}
	if matches == nil {
		matches = []match.Match{}
	}
	respond.WriteJSON(w, http.StatusOK, matches)
}

// GetMatch returns one match by id.
// @Summary Get a match
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Success 200 {object} match.Match
// @Failure 404 {object} respond.ErrorResponse
// @Router /matches/{matchID} [get]
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "matchID")
	m, err := h.matches.Get(r.Context(), id)
	if errors.Is(err, match.ErrNotFound) {
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Unknown match")
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Failed to load match", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, m)
}

// GetMatchChanges returns the result history of one match, newest first.
// @Summary Match result history
// @Tags matches
// @Produce json
// @Param matchID path string true "Match ID"
// @Param limit query int false "Max rows" default(20)
// @Success 200 {array} match.Change
// @Router /matches/{matchID}/changes [get]
func (h *Handler) GetMatchChanges(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "matchID")
	changes, err := h.matches.ChangesForMatch(r.Context(), id, queryLimit(r))
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Failed to load changes", err.Error())
		return
	}
	if changes == nil {
		changes = []match.Change{}
	}
	respond.WriteJSON(w, http.StatusOK, changes)
}

// GetRecentChanges returns the most recent result changes across all leagues.
// @Summary Recent result changes
// @Tags matches
// @Produce json
// @Param limit query int false "Max rows" default(20)
// @Success 200 {array} match.Change
// @Router /changes/recent [get]
func (h *Handler) GetRecentChanges(w http.ResponseWriter, r *http.Request) {
	changes, err := h.matches.RecentChanges(r.Context(), queryLimit(r))
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Failed to load changes", err.Error())
		return
	}
	if changes == nil {
		changes = []match.Change{}
	}
	respond.WriteJSON(w, http.StatusOK, changes)
}

// GetLeagues lists the tracked leagues.
// @Summary Tracked leagues
// @Tags matches
// @Produce json
// @Success 200 {array} string
// @Router /leagues [get]
func (h *Handler) GetLeagues(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.cfg.Leagues)
}

func queryLimit(r *http.Request) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return 0
}
