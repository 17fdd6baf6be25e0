// Package handler provides HTTP handlers for all API endpoints.
// Handlers call the domain stores directly — no service layer.
package handler

import (
	"net/http"
	"time"

	"github.com/quinielago/progol-data/internal/api/respond"
	"github.com/quinielago/progol-data/internal/config"
	"github.com/quinielago/progol-data/internal/db"
	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/quiniela"
	"github.com/quinielago/progol-data/internal/scheduler"
)

// defaultUserID is the owner recorded when a request names no user.
// Single-user deployments never send one.
const defaultUserID = "local"

// Handler holds shared dependencies for all endpoint handlers.
type Handler struct {
	pool      *db.Pool
	cfg       *config.Config
	matches   *match.Store
	quinielas *quiniela.Store
	importer  *quiniela.Importer
	sched     *scheduler.Scheduler
}

// New creates a Handler with shared dependencies.
func New(pool *db.Pool, cfg *config.Config, matches *match.Store, quinielas *quiniela.Store, sched *scheduler.Scheduler) *Handler {
	return &Handler{
		pool:      pool,
		cfg:       cfg,
		matches:   matches,
		quinielas: quinielas,
		importer:  quiniela.NewImporter(matches),
		sched:     sched,
	}
}

// Root serves API info at /.
// @Summary API root info
// @Description Returns API name, version, status, and tracked leagues.
// @Tags meta
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *Handler) Root(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"name":    "Progol Data API",
		"version": "1.0.0",
		"status":  "running",
		"docs":    "/docs",
		"leagues": h.cfg.Leagues,
		"season":  h.cfg.CurrentSeason,
	})
}

// HealthCheck returns basic health status.
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /health [get]
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// HealthCheckDB verifies database connectivity.
// @Summary Database health check
// @Tags health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} respond.ErrorResponse
// @Router /health/db [get]
func (h *Handler) HealthCheckDB(w http.ResponseWriter, r *http.Request) {
	if err := h.pool.HealthCheck(r.Context()); err != nil {
		respond.WriteErrorDetail(w, http.StatusServiceUnavailable,
			"DB_UNAVAILABLE", "Database unreachable", err.Error())
		return
	}
	respond.WriteJSON(w, http.StatusOK, map[string]interface{}{"status": "healthy"})
}

// userID extracts the requesting user, falling back to the single-user
// default.
func userID(r *http.Request) string {
	if u := r.URL.Query().Get("user_id"); u != "" {
		return u
	}
	return defaultUserID
}
