// Package refresh implements the fetch-diff-update cycle: one pass over all
// configured leagues, diffing upstream snapshots against the match store and
// emitting result changes.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/provider/sofascore"
)

// ErrCycleInProgress is returned when a cycle is triggered while another is
// still running. The trigger is dropped, never interleaved.
var ErrCycleInProgress = errors.New("refresh cycle already in progress")

const fetchRetries = 2

// Fetcher retrieves the current match list for one league and season.
type Fetcher interface {
	Fetch(ctx context.Context, league, season string) ([]match.Snapshot, error)
}

// MatchStore is the slice of the match store the engine needs. Put must be
// atomic per match: the record and its history row land together or not at all.
type MatchStore interface {
	Get(ctx context.Context, id string) (*match.Match, error)
	Put(ctx context.Context, m match.Match, change *match.Change) error
}

// LeagueFailure records one league whose fetch failed during a cycle.
type LeagueFailure struct {
	League string                `json:"league"`
	Kind   sofascore.FailureKind `json:"kind"`
	Error  string                `json:"error"`
}

// CycleResult tracks the outcome of a full refresh cycle.
type CycleResult struct {
	StartedAt      time.Time       `json:"started_at"`
	Duration       time.Duration   `json:"duration"`
	Leagues        int             `json:"leagues"`
	LeaguesFailed  []LeagueFailure `json:"leagues_failed,omitempty"`
	MatchesSeen    int             `json:"matches_seen"`
	MatchesCreated int             `json:"matches_created"`
	Changes        []match.Change  `json:"changes,omitempty"`
	Errors         []string        `json:"errors,omitempty"`
}

// Partial reports whether the cycle completed with some failures.
func (r *CycleResult) Partial() bool {
	return len(r.LeaguesFailed) > 0 || len(r.Errors) > 0
}

// Summary returns a human-readable summary.
func (r *CycleResult) Summary() string {
	return fmt.Sprintf("leagues=%d failed=%d seen=%d created=%d changes=%d errors=%d dur=%s",
		r.Leagues, len(r.LeaguesFailed), r.MatchesSeen, r.MatchesCreated,
		len(r.Changes), len(r.Errors), r.Duration.Round(time.Millisecond))
}

// Engine orchestrates one refresh cycle at a time.
type Engine struct {
	fetcher Fetcher
	store   MatchStore
	leagues []string
	season  string
	logger  *slog.Logger
	now     func() time.Time

	mu sync.Mutex // held for the duration of a cycle
}

// New creates an engine over the given fetcher and store.
func New(fetcher Fetcher, store MatchStore, leagues []string, season string, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		fetcher: fetcher,
		store:   store,
		leagues: leagues,
		season:  season,
		logger:  logger,
		now:     time.Now,
	}
}

// RunCycle fetches every configured league, updates the match store, and
// returns the detected result changes. Idempotent: a second run against
// unchanged upstream data emits zero changes. At most one cycle runs at a
// time; a concurrent trigger gets ErrCycleInProgress.
func (e *Engine) RunCycle(ctx context.Context) (CycleResult, error) {
	if !e.mu.TryLock() {
		return CycleResult{}, ErrCycleInProgress
	}
	defer e.mu.Unlock()

	result := CycleResult{
		StartedAt: e.now(),
		Leagues:   len(e.leagues),
	}

	for _, league := range e.leagues {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("cycle cancelled: %v", ctx.Err()))
			break
		}

		snapshots, err := e.fetchWithRetry(ctx, league)
		if err != nil {
			failure := LeagueFailure{League: league, Kind: sofascore.KindUnknown, Error: err.Error()}
			var fe *sofascore.FetchError
			if errors.As(err, &fe) {
				failure.Kind = fe.Kind
			}
			result.LeaguesFailed = append(result.LeaguesFailed, failure)
			e.logger.Warn("league fetch failed",
				"league", league, "kind", failure.Kind, "error", err)
			continue
		}

		e.applyLeague(ctx, league, snapshots, &result)
	}

	result.Duration = e.now().Sub(result.StartedAt)
	e.logger.Info("refresh cycle complete", "summary", result.Summary())
	return result, nil
}

// applyLeague diffs one league's snapshots against the store.
func (e *Engine) applyLeague(ctx context.Context, league string, snapshots []match.Snapshot, result *CycleResult) {
	for _, snap := range snapshots {
		if ctx.Err() != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("cycle cancelled: %v", ctx.Err()))
			return
		}
		result.MatchesSeen++

		old, err := e.store.Get(ctx, snap.ID)
		switch {
		case errors.Is(err, match.ErrNotFound):
			old = nil
		case err != nil:
			result.Errors = append(result.Errors, fmt.Sprintf("match %s: %v", snap.ID, err))
			e.logger.Error("match lookup failed",
				"league", league, "match_id", snap.ID, "error", err)
			continue
		}

		updated, change := match.Diff(old, snap, e.now())
		if old != nil && change == nil && unchanged(old, &updated) {
			continue
		}

		if change != nil && change.Corrective {
			e.logger.Warn("corrective status overwrite",
				"league", league, "match_id", snap.ID,
				"old_status", change.OldStatus, "new_status", change.NewStatus)
		}

		if err := e.store.Put(ctx, updated, change); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("match %s: %v", snap.ID, err))
			e.logger.Error("match update failed",
				"league", league, "match_id", snap.ID, "error", err)
			continue
		}

		if old == nil {
			result.MatchesCreated++
		}
		if change != nil {
			result.Changes = append(result.Changes, *change)
		}
	}
}

// fetchWithRetry retries transient fetch failures with exponential backoff.
// Retry policy lives here, not in the fetcher.
func (e *Engine) fetchWithRetry(ctx context.Context, league string) ([]match.Snapshot, error) {
	var snapshots []match.Snapshot

	op := func() error {
		snaps, err := e.fetcher.Fetch(ctx, league, e.season)
		if err != nil {
			var fe *sofascore.FetchError
			if errors.As(err, &fe) && fe.Transient() {
				return err
			}
			return backoff.Permanent(err)
		}
		snapshots = snaps
		return nil
	}

	bo := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), fetchRetries), ctx)
	if err := backoff.Retry(op, bo); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// unchanged reports whether the non-identity fields match, so a no-op cycle
// skips the write entirely.
func unchanged(old, updated *match.Match) bool {
	return old.HomeTeam == updated.HomeTeam &&
		old.AwayTeam == updated.AwayTeam &&
		old.Kickoff.Equal(updated.Kickoff) &&
		old.Status == updated.Status
}
