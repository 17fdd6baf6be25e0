package quiniela

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quinielago/progol-data/internal/match"
)

// writeTx is the slice of pgx.Tx that Create needs. Tests substitute an
// in-memory implementation.
type writeTx interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Store is the Postgres-backed quiniela store.
type Store struct {
	pool       *pgxpool.Pool
	maxPerUser int
	now        func() time.Time
	begin      func(ctx context.Context) (writeTx, error)
}

// NewStore creates a quiniela store. maxPerUser caps how many quinielas a
// single user may hold; creates beyond the cap fail with CapacityError.
func NewStore(pool *pgxpool.Pool, maxPerUser int) *Store {
	return &Store{
		pool:       pool,
		maxPerUser: maxPerUser,
		now:        time.Now,
		begin: func(ctx context.Context) (writeTx, error) {
			return pool.Begin(ctx)
		},
	}
}

// Create inserts a new quiniela with its entries. The per-user cap is checked
// inside the same transaction as the insert so concurrent creates cannot
// overshoot it.
func (s *Store) Create(ctx context.Context, userID, name string, revancha bool, entries []Entry) (*Quiniela, error) {
	tx, err := s.begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback(ctx)

	// Lock the user's existing rows so two concurrent creates both see the
	// true count and cannot overshoot the cap together.
	var count int
	if err := tx.QueryRow(ctx,
		"SELECT COUNT(*) FROM (SELECT 1 FROM quinielas WHERE user_id = $1 FOR UPDATE) held",
		userID,
	).Scan(&count); err != nil {
		return nil, fmt.Errorf("count quinielas for %s: %w", userID, err)
	}
	if count >= s.maxPerUser {
		return nil, &CapacityError{UserID: userID, Limit: s.maxPerUser}
	}

	q := &Quiniela{
		ID:        uuid.NewString(),
		UserID:    userID,
		Name:      name,
		Revancha:  revancha,
		CreatedAt: s.now().UTC(),
	}
	q.UpdatedAt = q.CreatedAt

	_, err = tx.Exec(ctx, `
		INSERT INTO quinielas (id, user_id, name, revancha, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		q.ID, q.UserID, q.Name, q.Revancha, q.CreatedAt, q.UpdatedAt,
	)
	if err != nil {
		return nil, classifyWriteErr(err, fmt.Sprintf("insert quiniela %q", name))
	}

	for i, e := range entries {
		e.Position = i + 1
		e.State = EvalPending
		if err := insertEntry(ctx, tx, q.ID, e); err != nil {
			return nil, err
		}
		q.Entries = append(q.Entries, e)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return q, nil
}

// Get returns a quiniela with its entries, or ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (*Quiniela, error) {
	row := s.pool.QueryRow(ctx, "quiniela_by_id", id)
	q, err := scanQuiniela(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get quiniela %s: %w", id, err)
	}
	if q.Entries, err = s.entries(ctx, id); err != nil {
		return nil, err
	}
	return q, nil
}

// List returns all quinielas for a user, entries included, in creation order.
func (s *Store) List(ctx context.Context, userID string) ([]Quiniela, error) {
	rows, err := s.pool.Query(ctx, "quinielas_for_user", userID)
	if err != nil {
		return nil, fmt.Errorf("list quinielas for %s: %w", userID, err)
	}
	defer rows.Close()

	var out []Quiniela
	for rows.Next() {
		q, err := scanQuiniela(rows)
		if err != nil {
			return nil, fmt.Errorf("scan quiniela: %w", err)
		}
		out = append(out, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		if out[i].Entries, err = s.entries(ctx, out[i].ID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Delete removes a quiniela and its entries. ErrNotFound when the id is
// unknown.
func (s *Store) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM quinielas WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete quiniela %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetPick updates one entry's pick (and optional exact score) and resets its
// evaluation to pending so the next result change re-judges it.
func (s *Store) SetPick(ctx context.Context, quinielaID string, position int, pick match.Outcome, exact *match.Score) error {
	var pickVal *string
	if pick.Valid() {
		v := string(pick)
		pickVal = &v
	}
	var exHome, exAway *int
	if exact != nil {
		exHome, exAway = &exact.Home, &exact.Away
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE quiniela_entries
		SET pick = $3, exact_home = $4, exact_away = $5, eval_state = 'pending'
		WHERE quiniela_id = $1 AND position = $2`,
		quinielaID, position, pickVal, exHome, exAway,
	)
	if err != nil {
		return fmt.Errorf("set pick %s/%d: %w", quinielaID, position, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	touch(ctx, s.pool, quinielaID, s.now())
	return nil
}

// EntriesReferencing returns every entry across all quinielas that picks the
// given match, in a deterministic order.
func (s *Store) EntriesReferencing(ctx context.Context, matchID string) ([]EntryRef, error) {
	rows, err := s.pool.Query(ctx, "entries_for_match", matchID)
	if err != nil {
		return nil, fmt.Errorf("entries for match %s: %w", matchID, err)
	}
	defer rows.Close()

	var refs []EntryRef
	for rows.Next() {
		var r EntryRef
		var pick *string
		var exHome, exAway *int
		var state string
		if err := rows.Scan(
			&r.QuinielaID, &r.QuinielaName, &r.UserID, &r.Position,
			&r.MatchID, &pick, &exHome, &exAway, &state,
		); err != nil {
			return nil, fmt.Errorf("scan entry ref: %w", err)
		}
		if pick != nil {
			r.Pick = match.Outcome(*pick)
		}
		if exHome != nil && exAway != nil {
			r.ExactScore = &match.Score{Home: *exHome, Away: *exAway}
		}
		r.State = EvalState(state)
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// SetEntryState records the evaluator's verdict for one entry.
func (s *Store) SetEntryState(ctx context.Context, quinielaID string, position int, state EvalState) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE quiniela_entries SET eval_state = $3
		WHERE quiniela_id = $1 AND position = $2`,
		quinielaID, position, state,
	)
	if err != nil {
		return fmt.Errorf("set state %s/%d: %w", quinielaID, position, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --------------------------------------------------------------------------
// Helpers
// --------------------------------------------------------------------------

func (s *Store) entries(ctx context.Context, quinielaID string) ([]Entry, error) {
	rows, err := s.pool.Query(ctx, "entries_for_quiniela", quinielaID)
	if err != nil {
		return nil, fmt.Errorf("entries for %s: %w", quinielaID, err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var qid string
		var pick *string
		var exHome, exAway *int
		var state string
		if err := rows.Scan(&qid, &e.Position, &e.MatchID, &pick, &exHome, &exAway, &state); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		if pick != nil {
			e.Pick = match.Outcome(*pick)
		}
		if exHome != nil && exAway != nil {
			e.ExactScore = &match.Score{Home: *exHome, Away: *exAway}
		}
		e.State = EvalState(state)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func insertEntry(ctx context.Context, tx writeTx, quinielaID string, e Entry) error {
	var pick *string
	if e.Pick.Valid() {
		v := string(e.Pick)
		pick = &v
	}
	var exHome, exAway *int
	if e.ExactScore != nil {
		exHome, exAway = &e.ExactScore.Home, &e.ExactScore.Away
	}
	_, err := tx.Exec(ctx, `
		INSERT INTO quiniela_entries
			(quiniela_id, position, match_id, pick, exact_home, exact_away, eval_state)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		quinielaID, e.Position, e.MatchID, pick, exHome, exAway, EvalPending,
	)
	if err != nil {
		return classifyWriteErr(err, fmt.Sprintf("insert entry %d", e.Position))
	}
	return nil
}

// touch bumps updated_at; failure is non-fatal and ignored.
func touch(ctx context.Context, pool *pgxpool.Pool, quinielaID string, now time.Time) {
	pool.Exec(ctx, "UPDATE quinielas SET updated_at = $2 WHERE id = $1", quinielaID, now.UTC())
}

// classifyWriteErr maps Postgres constraint violations to the package's
// sentinel errors so handlers can pick status codes without string matching.
func classifyWriteErr(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return ErrDuplicateName
		case "23503": // foreign_key_violation
			return ErrUnknownMatch
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanQuiniela(row pgx.Row) (*Quiniela, error) {
	var q Quiniela
	if err := row.Scan(&q.ID, &q.UserID, &q.Name, &q.Revancha, &q.CreatedAt, &q.UpdatedAt); err != nil {
		return nil, err
	}
	return &q, nil
}
