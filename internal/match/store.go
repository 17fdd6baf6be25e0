package match

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store is the Postgres-backed match store. The refresh engine is the only
// writer; the API reads.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a match store on the given pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Get returns a match by its external id, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Match, error) {
	row := s.pool.QueryRow(ctx, "match_by_id", id)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get match %s: %w", id, err)
	}
	return m, nil
}

// Put writes the match record and, when a change was detected, the history
// row — atomically. Readers observe either the fully-old or fully-new record.
func (s *Store) Put(ctx context.Context, m Match, change *Change) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	var home, away *int
	if m.Score != nil {
		home, away = &m.Score.Home, &m.Score.Away
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO matches
			(id, league, season, home_team, away_team, kickoff,
			 status, home_score, away_score, last_updated)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		ON CONFLICT (id) DO UPDATE SET
			home_team    = EXCLUDED.home_team,
			away_team    = EXCLUDED.away_team,
			kickoff      = EXCLUDED.kickoff,
			status       = EXCLUDED.status,
			home_score   = EXCLUDED.home_score,
			away_score   = EXCLUDED.away_score,
			last_updated = EXCLUDED.last_updated`,
		m.ID, m.League, m.Season, m.HomeTeam, m.AwayTeam, m.Kickoff,
		m.Status, home, away, m.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("upsert match %s: %w", m.ID, err)
	}

	if change != nil {
		var oldHome, oldAway, newHome, newAway *int
		if change.OldScore != nil {
			oldHome, oldAway = &change.OldScore.Home, &change.OldScore.Away
		}
		if change.NewScore != nil {
			newHome, newAway = &change.NewScore.Home, &change.NewScore.Away
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO result_changes
				(match_id, league, home_team, away_team, old_status, new_status,
				 old_home, old_away, new_home, new_away, corrective, detected_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)`,
			change.MatchID, change.League, change.HomeTeam, change.AwayTeam,
			change.OldStatus, change.NewStatus,
			oldHome, oldAway, newHome, newAway,
			change.Corrective, change.DetectedAt,
		)
		if err != nil {
			return fmt.Errorf("record change for %s: %w", m.ID, err)
		}
	}

	return tx.Commit(ctx)
}

// ListByLeague returns all known matches for a league ordered by kickoff.
func (s *Store) ListByLeague(ctx context.Context, league string) ([]Match, error) {
	rows, err := s.pool.Query(ctx, "matches_by_league", league)
	if err != nil {
		return nil, fmt.Errorf("list matches for %s: %w", league, err)
	}
	defer rows.Close()
	return collectMatches(rows)
}

// FindByTeams returns the most recent match for a league and team pair.
// Used by CSV import to resolve fixtures to known match ids.
func (s *Store) FindByTeams(ctx context.Context, league, home, away string) (*Match, error) {
	row := s.pool.QueryRow(ctx, "match_find_by_teams", league, home, away)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find match %s vs %s: %w", home, away, err)
	}
	return m, nil
}

// ChangesForMatch returns the result history of one match, newest first.
func (s *Store) ChangesForMatch(ctx context.Context, id string, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, "changes_for_match", id, limit)
	if err != nil {
		return nil, fmt.Errorf("changes for %s: %w", id, err)
	}
	defer rows.Close()
	return collectChanges(rows)
}

// RecentChanges returns the most recent result changes across all matches.
func (s *Store) RecentChanges(ctx context.Context, limit int) ([]Change, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, "recent_changes", limit)
	if err != nil {
		return nil, fmt.Errorf("recent changes: %w", err)
	}
	defer rows.Close()
	return collectChanges(rows)
}

// --------------------------------------------------------------------------
// Row scanning
// --------------------------------------------------------------------------

func scanMatch(row pgx.Row) (*Match, error) {
	var m Match
	var home, away *int
	if err := row.Scan(
		&m.ID, &m.League, &m.Season, &m.HomeTeam, &m.AwayTeam, &m.Kickoff,
		&m.Status, &home, &away, &m.LastUpdated,
	); err != nil {
		return nil, err
	}
	if home != nil && away != nil {
		m.Score = &Score{Home: *home, Away: *away}
	}
	return &m, nil
}

func collectMatches(rows pgx.Rows) ([]Match, error) {
	var matches []Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan match: %w", err)
		}
		matches = append(matches, *m)
	}
	return matches, rows.Err()
}

func collectChanges(rows pgx.Rows) ([]Change, error) {
	var changes []Change
	for rows.Next() {
		var c Change
		var oldHome, oldAway, newHome, newAway *int
		if err := rows.Scan(
			&c.MatchID, &c.League, &c.HomeTeam, &c.AwayTeam,
			&c.OldStatus, &c.NewStatus,
			&oldHome, &oldAway, &newHome, &newAway,
			&c.Corrective, &c.DetectedAt,
		); err != nil {
			return nil, fmt.Errorf("scan change: %w", err)
		}
		if oldHome != nil && oldAway != nil {
			c.OldScore = &Score{Home: *oldHome, Away: *oldAway}
		}
		if newHome != nil && newAway != nil {
			c.NewScore = &Score{Home: *newHome, Away: *newAway}
		}
		changes = append(changes, c)
	}
	return changes, rows.Err()
}
