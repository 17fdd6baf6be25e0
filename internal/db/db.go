// Package db provides a pgxpool-based connection pool with prepared statement
// registration and health checking.
package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quinielago/progol-data/internal/config"
)

// Pool wraps pgxpool.Pool with application-specific helpers.
type Pool struct {
	*pgxpool.Pool
}

// New creates and validates a new connection pool.
func New(ctx context.Context, cfg *config.Config) (*Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	poolCfg.MinConns = int32(cfg.DBPoolMinConns)
	poolCfg.MaxConns = int32(cfg.DBPoolMaxConns)
	poolCfg.MaxConnLifetime = cfg.DBPoolMaxLife
	poolCfg.MaxConnIdleTime = 5 * time.Minute

	// Register prepared statements on every new connection.
	poolCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return registerPreparedStatements(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	// Verify connectivity
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Pool{Pool: pool}, nil
}

// HealthCheck runs a trivial query to verify the database is reachable.
func (p *Pool) HealthCheck(ctx context.Context) error {
	var n int
	return p.QueryRow(ctx, "health_check").Scan(&n)
}

// registerPreparedStatements registers the statements the refresh pipeline
// and the API use. Prepared statements eliminate parse overhead on the hot
// per-cycle queries.
func registerPreparedStatements(ctx context.Context, conn *pgx.Conn) error {
	stmts := map[string]string{
		// Health
		"health_check": "SELECT 1",

		// Matches
		"match_by_id": `SELECT id, league, season, home_team, away_team, kickoff,
			status, home_score, away_score, last_updated
			FROM matches WHERE id = $1`,
		"matches_by_league": `SELECT id, league, season, home_team, away_team, kickoff,
			status, home_score, away_score, last_updated
			FROM matches WHERE league = $1 ORDER BY kickoff, id`,
		"match_find_by_teams": `SELECT id, league, season, home_team, away_team, kickoff,
			status, home_score, away_score, last_updated
			FROM matches
			WHERE league = $1 AND lower(home_team) = lower($2) AND lower(away_team) = lower($3)
			ORDER BY kickoff DESC LIMIT 1`,

		// Result change history
		"changes_for_match": `SELECT match_id, league, home_team, away_team,
			old_status, new_status, old_home, old_away, new_home, new_away,
			corrective, detected_at
			FROM result_changes WHERE match_id = $1
			ORDER BY detected_at DESC LIMIT $2`,
		"recent_changes": `SELECT match_id, league, home_team, away_team,
			old_status, new_status, old_home, old_away, new_home, new_away,
			corrective, detected_at
			FROM result_changes ORDER BY detected_at DESC LIMIT $1`,

		// Quinielas
		"quiniela_by_id": `SELECT id, user_id, name, revancha, created_at, updated_at
			FROM quinielas WHERE id = $1`,
		"quinielas_for_user": `SELECT id, user_id, name, revancha, created_at, updated_at
			FROM quinielas WHERE user_id = $1 ORDER BY created_at, id`,
		"entries_for_quiniela": `SELECT quiniela_id, position, match_id, pick,
			exact_home, exact_away, eval_state
			FROM quiniela_entries WHERE quiniela_id = $1 ORDER BY position`,
		"entries_for_match": `SELECT e.quiniela_id, q.name, q.user_id, e.position,
			e.match_id, e.pick, e.exact_home, e.exact_away, e.eval_state
			FROM quiniela_entries e
			JOIN quinielas q ON q.id = e.quiniela_id
			WHERE e.match_id = $1
			ORDER BY q.created_at, q.id, e.position`,

		// Notifications
		"recent_notifications": `SELECT id, quiniela_id, quiniela_name, user_id,
			match_id, fixture, old_state, new_state, message, status, detected_at
			FROM notifications ORDER BY detected_at DESC LIMIT $1`,
	}

	for name, sql := range stmts {
		if _, err := conn.Prepare(ctx, name, sql); err != nil {
			return fmt.Errorf("prepare %q: %w", name, err)
		}
	}
	return nil
}
