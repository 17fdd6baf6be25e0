package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/quinielago/progol-data/internal/api/respond"
	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/quiniela"
)

type createQuinielaRequest struct {
	Name     string `json:"name"`
	Revancha bool   `json:"revancha"`
	Entries  []struct {
		MatchID    string       `json:"match_id"`
		Pick       string       `json:"pick,omitempty"`
		ExactScore *match.Score `json:"exact_score,omitempty"`
	} `json:"entries"`
}

// CreateQuiniela creates a quiniela with its entries.
// @Summary Create a quiniela
// @Tags quinielas
// @Accept json
// @Produce json
// @Param request body createQuinielaRequest true "Quiniela definition"
// @Success 201 {object} quiniela.Quiniela
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /quinielas [post]
func (h *Handler) CreateQuiniela(w http.ResponseWriter, r *http.Request) {
	var req createQuinielaRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err.Error())
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name is required")
		return
	}

	entries := make([]quiniela.Entry, 0, len(req.Entries))
	for i, e := range req.Entries {
		if e.MatchID == "" {
			respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"entry "+strconv.Itoa(i+1)+": match_id is required")
			return
		}
		pick := match.Outcome(e.Pick)
		if e.Pick != "" && !pick.Valid() {
			respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR",
				"entry "+strconv.Itoa(i+1)+": pick must be L, E or V")
			return
		}
		entries = append(entries, quiniela.Entry{
			MatchID:    e.MatchID,
			Pick:       pick,
			ExactScore: e.ExactScore,
		})
	}

	q, err := h.quinielas.Create(r.Context(), userID(r), req.Name, req.Revancha, entries)
	if err != nil {
		writeQuinielaError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusCreated, q)
}

// ListQuinielas lists the requesting user's quinielas.
// @Summary List quinielas
// @Tags quinielas
// @Produce json
// @Success 200 {array} quiniela.Quiniela
// @Router /quinielas [get]
func (h *Handler) ListQuinielas(w http.ResponseWriter, r *http.Request) {
	qs, err := h.quinielas.List(r.Context(), userID(r))
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Failed to list quinielas", err.Error())
		return
	}
	if qs == nil {
		qs = []quiniela.Quiniela{}
	}
	respond.WriteJSON(w, http.StatusOK, qs)
}

// GetQuiniela returns one quiniela with its entries.
// @Summary Get a quiniela
// @Tags quinielas
// @Produce json
// @Param quinielaID path string true "Quiniela ID"
// @Success 200 {object} quiniela.Quiniela
// @Failure 404 {object} respond.ErrorResponse
// @Router /quinielas/{quinielaID} [get]
func (h *Handler) GetQuiniela(w http.ResponseWriter, r *http.Request) {
	q, err := h.quinielas.Get(r.Context(), chi.URLParam(r, "quinielaID"))
	if err != nil {
		writeQuinielaError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, q)
}

// DeleteQuiniela removes a quiniela and its entries.
// @Summary Delete a quiniela
// @Tags quinielas
// @Param quinielaID path string true "Quiniela ID"
// @Success 204
// @Failure 404 {object} respond.ErrorResponse
// @Router /quinielas/{quinielaID} [delete]
func (h *Handler) DeleteQuiniela(w http.ResponseWriter, r *http.Request) {
	if err := h.quinielas.Delete(r.Context(), chi.URLParam(r, "quinielaID")); err != nil {
		writeQuinielaError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type setPickRequest struct {
	Pick       string       `json:"pick,omitempty"`
	ExactScore *match.Score `json:"exact_score,omitempty"`
}

// SetPick updates one entry's pick and resets its evaluation.
// @Summary Set an entry's pick
// @Tags quinielas
// @Accept json
// @Param quinielaID path string true "Quiniela ID"
// @Param position path int true "Entry position (1-based)"
// @Param request body setPickRequest true "New pick"
// @Success 204
// @Failure 400 {object} respond.ErrorResponse
// @Failure 404 {object} respond.ErrorResponse
// @Router /quinielas/{quinielaID}/entries/{position} [put]
func (h *Handler) SetPick(w http.ResponseWriter, r *http.Request) {
	position, err := strconv.Atoi(chi.URLParam(r, "position"))
	if err != nil || position < 1 {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "position must be a positive integer")
		return
	}

	var req setPickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid JSON body", err.Error())
		return
	}
	pick := match.Outcome(req.Pick)
	if req.Pick != "" && !pick.Valid() {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "pick must be L, E or V")
		return
	}

	err = h.quinielas.SetPick(r.Context(), chi.URLParam(r, "quinielaID"), position, pick, req.ExactScore)
	if err != nil {
		writeQuinielaError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetScore returns the aciertos tally for one quiniela.
// @Summary Quiniela score tally
// @Tags quinielas
// @Produce json
// @Param quinielaID path string true "Quiniela ID"
// @Success 200 {object} quiniela.Tally
// @Failure 404 {object} respond.ErrorResponse
// @Router /quinielas/{quinielaID}/score [get]
func (h *Handler) GetScore(w http.ResponseWriter, r *http.Request) {
	q, err := h.quinielas.Get(r.Context(), chi.URLParam(r, "quinielaID"))
	if err != nil {
		writeQuinielaError(w, err)
		return
	}
	respond.WriteJSON(w, http.StatusOK, quiniela.TallyOf(q))
}

// ImportQuinielas creates quinielas from a CSV fixture list posted as the
// request body. A revancha quiniela is created alongside the main one when
// the file marks revancha rows.
// @Summary Import quinielas from CSV
// @Tags quinielas
// @Accept text/csv
// @Produce json
// @Param name query string true "Base name for the created quinielas"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} respond.ErrorResponse
// @Failure 409 {object} respond.ErrorResponse
// @Failure 422 {object} respond.ErrorResponse
// @Router /quinielas/import [post]
func (h *Handler) ImportQuinielas(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		respond.WriteError(w, http.StatusBadRequest, "VALIDATION_ERROR", "name query parameter is required")
		return
	}

	regular, revancha, res, err := h.importer.Parse(r.Context(), r.Body)
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid CSV", err.Error())
		return
	}
	if len(regular) == 0 && len(revancha) == 0 {
		respond.WriteErrorDetail(w, http.StatusUnprocessableEntity, "EMPTY_IMPORT",
			"No fixtures could be resolved", strings.Join(res.Errors, "; "))
		return
	}

	user := userID(r)
	created := map[string]interface{}{"result": res}

	if len(regular) > 0 {
		q, err := h.quinielas.Create(r.Context(), user, name, false, regular)
		if err != nil {
			writeQuinielaError(w, err)
			return
		}
		created["quiniela"] = q
	}
	if len(revancha) > 0 {
		q, err := h.quinielas.Create(r.Context(), user, name+" (revancha)", true, revancha)
		if err != nil {
			writeQuinielaError(w, err)
			return
		}
		created["revancha"] = q
	}

	respond.WriteJSON(w, http.StatusCreated, created)
}

// writeQuinielaError maps quiniela store errors to API responses.
func writeQuinielaError(w http.ResponseWriter, err error) {
	var capErr *quiniela.CapacityError
	switch {
	case errors.Is(err, quiniela.ErrNotFound):
		respond.WriteError(w, http.StatusNotFound, "NOT_FOUND", "Unknown quiniela or entry")
	case errors.Is(err, quiniela.ErrDuplicateName):
		respond.WriteError(w, http.StatusConflict, "DUPLICATE_NAME", "A quiniela with that name already exists")
	case errors.Is(err, quiniela.ErrUnknownMatch):
		respond.WriteError(w, http.StatusUnprocessableEntity, "UNKNOWN_MATCH", "An entry references a match not in the store")
	case errors.As(err, &capErr):
		respond.WriteErrorDetail(w, http.StatusConflict, "QUINIELA_LIMIT",
			"Quiniela limit reached", capErr.Error())
	default:
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Quiniela operation failed", err.Error())
	}
}
