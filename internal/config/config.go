// Package config provides centralized configuration loaded from environment
// variables. Shared by both cmd/api and cmd/ingest.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/quinielago/progol-data/internal/provider/sofascore"
)

// --------------------------------------------------------------------------
// League registry — mirrors the Progol contest league list
// --------------------------------------------------------------------------

// DefaultLeagues is the set of leagues Progol draws matches from.
var DefaultLeagues = []string{
	"Liga MX",
	"Liga Expansion MX",
	"Liga Femenil MX",
	"EPL",
	"Serie A",
	"Bundesliga",
	"Eredivisie",
	"Ligue 1",
	"Liga NOS",
	"Argentina Liga Profesional",
	"Brasileirao",
	"MLS",
	"Liga Chilena",
	"Liga Belga",
	"RFPL",
}

// Evaluation modes for quiniela picks.
const (
	Mode1X2   = "1x2"   // home win / draw / away win
	ModeExact = "exact" // exact final score
)

// --------------------------------------------------------------------------
// Table names — single source of truth, matches schema.sql
// --------------------------------------------------------------------------

const (
	MatchesTable       = "matches"
	ResultChangesTable = "result_changes"
	QuinielasTable     = "quinielas"
	EntriesTable       = "quiniela_entries"
	NotificationsTable = "notifications"
)

// --------------------------------------------------------------------------
// Config struct — populated from environment variables
// --------------------------------------------------------------------------

type Config struct {
	// Database
	DatabaseURL    string
	DBPoolMinConns int
	DBPoolMaxConns int
	DBPoolMaxLife  time.Duration

	// Refresh pipeline
	UpdateInterval time.Duration
	CurrentSeason  string
	Leagues        []string
	MaxQuinielas   int
	EvaluationMode string
	FetchTimeout   time.Duration
	FetchPerMinute int

	// API server
	APIHost     string
	APIPort     int
	Environment string // development, staging, production
	Debug       bool

	// CORS
	CORSAllowOrigins []string

	// Rate limiting
	RateLimitEnabled  bool
	RateLimitRequests int
	RateLimitWindow   time.Duration

	// Delivery surfaces (optional; empty disables)
	RedisURL         string
	TelegramBotToken string
	TelegramChatID   int64
}

// Load reads configuration from environment variables with sensible defaults
// and validates the refresh pipeline settings. Validation failures here are
// fatal at startup — a misconfigured scheduler must never start.
func Load() (*Config, error) {
	dbURL := envOr("DATABASE_URL", envOr("PROGOL_DATABASE_URL", ""))
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL or PROGOL_DATABASE_URL must be set")
	}

	cfg := &Config{
		DatabaseURL:    dbURL,
		DBPoolMinConns: envInt("DB_POOL_MIN_CONNS", 2),
		DBPoolMaxConns: envInt("DB_POOL_MAX_CONNS", 10),
		DBPoolMaxLife:  time.Duration(envInt("DB_POOL_MAX_LIFE_MINUTES", 30)) * time.Minute,

		UpdateInterval: time.Duration(envInt("UPDATE_INTERVAL", 30)) * time.Second,
		CurrentSeason:  envOr("CURRENT_SEASON", "2025"),
		Leagues:        envList("PROGOL_LEAGUES", DefaultLeagues),
		MaxQuinielas:   envInt("MAX_QUINIELAS_PER_USER", 30),
		EvaluationMode: envOr("EVALUATION_MODE", Mode1X2),
		FetchTimeout:   time.Duration(envInt("FETCH_TIMEOUT_SECONDS", 30)) * time.Second,
		FetchPerMinute: envInt("FETCH_REQUESTS_PER_MINUTE", 30),

		APIHost:     envOr("API_HOST", "0.0.0.0"),
		APIPort:     envInt("API_PORT", envInt("PORT", 8000)),
		Environment: envOr("ENVIRONMENT", "development"),
		Debug:       envBool("DEBUG", false),

		CORSAllowOrigins: envList("CORS_ALLOW_ORIGINS", []string{
			"http://localhost:3000",
			"http://localhost:8501",
		}),

		RateLimitEnabled:  envBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequests: envInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow:   time.Duration(envInt("RATE_LIMIT_WINDOW", 60)) * time.Second,

		RedisURL:         envOr("REDIS_URL", ""),
		TelegramBotToken: envOr("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   envInt64("TELEGRAM_CHAT_ID", 0),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects invalid refresh pipeline settings.
func (c *Config) Validate() error {
	if c.UpdateInterval <= 0 {
		return fmt.Errorf("UPDATE_INTERVAL must be positive, got %s", c.UpdateInterval)
	}
	if len(c.Leagues) == 0 {
		return fmt.Errorf("PROGOL_LEAGUES must list at least one league")
	}
	for _, l := range c.Leagues {
		if strings.TrimSpace(l) == "" {
			return fmt.Errorf("PROGOL_LEAGUES contains an empty league name")
		}
		if !sofascore.SupportedLeague(l) {
			return fmt.Errorf("PROGOL_LEAGUES contains unknown league %q", l)
		}
	}
	if c.MaxQuinielas <= 0 {
		return fmt.Errorf("MAX_QUINIELAS_PER_USER must be positive, got %d", c.MaxQuinielas)
	}
	if c.EvaluationMode != Mode1X2 && c.EvaluationMode != ModeExact {
		return fmt.Errorf("EVALUATION_MODE must be %q or %q, got %q", Mode1X2, ModeExact, c.EvaluationMode)
	}
	if c.CurrentSeason == "" {
		return fmt.Errorf("CURRENT_SEASON must not be empty")
	}
	return nil
}

// IsProduction returns true if running in production environment.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// --------------------------------------------------------------------------
// Env helpers
// --------------------------------------------------------------------------

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		result := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return fallback
}
