package handler

import (
	"errors"
	"net/http"

	"github.com/quinielago/progol-data/internal/api/respond"
	"github.com/quinielago/progol-data/internal/notify"
	"github.com/quinielago/progol-data/internal/refresh"
)

// GetRefreshStatus reports the scheduler's health.
// @Summary Refresh scheduler status
// @Tags refresh
// @Produce json
// @Success 200 {object} scheduler.Status
// @Router /refresh/status [get]
func (h *Handler) GetRefreshStatus(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, h.sched.Status())
}

// ForceRefresh triggers a refresh cycle outside the schedule.
// @Summary Force a refresh cycle
// @Tags refresh
// @Produce json
// @Success 200 {object} refresh.CycleResult
// @Failure 409 {object} respond.ErrorResponse
// @Router /refresh [post]
func (h *Handler) ForceRefresh(w http.ResponseWriter, r *http.Request) {
	result, err := h.sched.Trigger(r.Context())
	if errors.Is(err, refresh.ErrCycleInProgress) {
		respond.WriteError(w, http.StatusConflict, "CYCLE_IN_PROGRESS", "A refresh cycle is already running")
		return
	}
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Refresh failed", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, result)
}

// GetNotifications returns recent notifications, newest first.
// @Summary Recent notifications
// @Tags notifications
// @Produce json
// @Param limit query int false "Max rows" default(20)
// @Success 200 {array} notify.Item
// @Router /notifications [get]
func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	items, err := notify.Recent(r.Context(), h.pool.Pool, queryLimit(r))
	if err != nil {
		respond.WriteErrorDetail(w, http.StatusInternalServerError, "INTERNAL", "Failed to load notifications", err.Error())
		return
	}
	if items == nil {
		items = []notify.Item{}
	}
	respond.WriteJSON(w, http.StatusOK, items)
}
