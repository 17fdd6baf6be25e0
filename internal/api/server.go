package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	corslib "github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/quinielago/progol-data/internal/api/handler"
	"github.com/quinielago/progol-data/internal/config"
	"github.com/quinielago/progol-data/internal/db"
	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/metrics"
	"github.com/quinielago/progol-data/internal/quiniela"
	"github.com/quinielago/progol-data/internal/scheduler"
)

// NewRouter creates and configures the Chi router with all middleware and routes.
func NewRouter(pool *db.Pool, cfg *config.Config, sched *scheduler.Scheduler, recorder *metrics.Recorder) *chi.Mux {
	r := chi.NewRouter()

	// --- Middleware stack ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(TimingMiddleware)
	r.Use(MetricsMiddleware(recorder))
	r.Use(middleware.Compress(5)) // gzip

	// CORS
	c := corslib.New(corslib.Options{
		AllowedOrigins:   cfg.CORSAllowOrigins,
		AllowedMethods:   []string{"GET", "HEAD", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Encoding", "Content-Type", "Cache-Control"},
		ExposedHeaders:   []string{"X-Process-Time", "Retry-After"},
		AllowCredentials: false,
	})
	r.Use(c.Handler)

	// Rate limiting
	if cfg.RateLimitEnabled {
		r.Use(RateLimitMiddleware(cfg.RateLimitRequests, cfg.RateLimitWindow))
	}

	// --- Handler dependencies ---
	matchStore := match.NewStore(pool.Pool)
	quinielaStore := quiniela.NewStore(pool.Pool, cfg.MaxQuinielas)
	h := handler.New(pool, cfg, matchStore, quinielaStore, sched)

	// --- Routes ---

	// Root
	r.Get("/", h.Root)

	// Health checks
	r.Route("/health", func(r chi.Router) {
		r.Get("/", h.HealthCheck)
		r.Get("/db", h.HealthCheckDB)
	})

	// Prometheus scrape endpoint
	r.Method("GET", "/metrics", recorder.Handler())

	// Swagger UI
	r.Get("/docs/*", httpSwagger.Handler(
		httpSwagger.URL("/docs/doc.json"),
	))

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Matches and result history
		r.Get("/leagues", h.GetLeagues)
		r.Get("/matches", h.GetMatches)
		r.Get("/matches/{matchID}", h.GetMatch)
		r.Get("/matches/{matchID}/changes", h.GetMatchChanges)
		r.Get("/changes/recent", h.GetRecentChanges)

		// Quinielas
		r.Post("/quinielas", h.CreateQuiniela)
		r.Get("/quinielas", h.ListQuinielas)
		r.Post("/quinielas/import", h.ImportQuinielas)
		r.Get("/quinielas/{quinielaID}", h.GetQuiniela)
		r.Delete("/quinielas/{quinielaID}", h.DeleteQuiniela)
		r.Get("/quinielas/{quinielaID}/score", h.GetScore)
		r.Put("/quinielas/{quinielaID}/entries/{position}", h.SetPick)

		// Refresh pipeline
		r.Get("/refresh/status", h.GetRefreshStatus)
		r.Post("/refresh", h.ForceRefresh)

		// Notifications
		r.Get("/notifications", h.GetNotifications)
	})

	return r
}
