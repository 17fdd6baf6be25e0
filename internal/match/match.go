// Package match holds the football match domain model: statuses, scores,
// 1X2 outcomes, and the diff logic that turns a fetched snapshot into a
// result change.
package match

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by stores when a match id is unknown.
var ErrNotFound = errors.New("match not found")

// --------------------------------------------------------------------------
// Status
// --------------------------------------------------------------------------

// Status is the lifecycle state of a match.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// rank orders statuses for the forward-only transition check.
func (s Status) rank() int {
	switch s {
	case StatusScheduled:
		return 0
	case StatusInProgress:
		return 1
	case StatusFinished:
		return 2
	}
	return -1
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool { return s.rank() >= 0 }

// StatusFromCode maps a SofaScore status code to our status.
// 0 = not started, 6/7 = first/second half, 100/110/120 = finished
// (full time, after extra time, after penalties).
func StatusFromCode(code int) Status {
	switch code {
	case 6, 7:
		return StatusInProgress
	case 100, 110, 120:
		return StatusFinished
	default:
		return StatusScheduled
	}
}

// --------------------------------------------------------------------------
// Score and outcome
// --------------------------------------------------------------------------

// Score is a final or in-progress scoreline.
type Score struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

func (s Score) String() string { return fmt.Sprintf("%d-%d", s.Home, s.Away) }

// Outcome is the 1X2 result in the Progol convention:
// L = local (home) wins, E = empate (draw), V = visitante (away) wins.
type Outcome string

const (
	OutcomeHome Outcome = "L"
	OutcomeDraw Outcome = "E"
	OutcomeAway Outcome = "V"
)

// Valid reports whether o is one of L, E, V.
func (o Outcome) Valid() bool {
	return o == OutcomeHome || o == OutcomeDraw || o == OutcomeAway
}

// OutcomeFromScore derives the 1X2 outcome of a scoreline.
func OutcomeFromScore(s Score) Outcome {
	switch {
	case s.Home > s.Away:
		return OutcomeHome
	case s.Home < s.Away:
		return OutcomeAway
	default:
		return OutcomeDraw
	}
}

// --------------------------------------------------------------------------
// Match
// --------------------------------------------------------------------------

// Match is the stored record of a known match. Identity is the external
// SofaScore event id and is immutable once created.
type Match struct {
	ID          string    `json:"id"`
	League      string    `json:"league"`
	Season      string    `json:"season"`
	HomeTeam    string    `json:"home_team"`
	AwayTeam    string    `json:"away_team"`
	Kickoff     time.Time `json:"kickoff"`
	Status      Status    `json:"status"`
	Score       *Score    `json:"score,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}

// Fixture returns the "Home vs Away" display string.
func (m *Match) Fixture() string {
	return fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam)
}

// Result returns the current 1X2 outcome, or ok=false when no score is known.
func (m *Match) Result() (Outcome, bool) {
	if m.Score == nil {
		return "", false
	}
	return OutcomeFromScore(*m.Score), true
}

// Snapshot is one match as reported by the upstream source during a cycle.
type Snapshot struct {
	ID       string
	League   string
	Season   string
	HomeTeam string
	AwayTeam string
	Kickoff  time.Time
	Status   Status
	Score    *Score
}

// --------------------------------------------------------------------------
// Change detection
// --------------------------------------------------------------------------

// Change records a detected result change: previous and new status/score.
// Produced by the refresh engine, consumed by the quiniela evaluator and the
// notification surface. Persisted for audit.
type Change struct {
	MatchID    string    `json:"match_id"`
	League     string    `json:"league"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	OldStatus  Status    `json:"old_status"`
	NewStatus  Status    `json:"new_status"`
	OldScore   *Score    `json:"old_score,omitempty"`
	NewScore   *Score    `json:"new_score,omitempty"`
	Corrective bool      `json:"corrective,omitempty"`
	DetectedAt time.Time `json:"detected_at"`
}

// Fixture returns the "Home vs Away" display string.
func (c *Change) Fixture() string {
	return fmt.Sprintf("%s vs %s", c.HomeTeam, c.AwayTeam)
}

// scoreEqual treats two nil scores as equal.
func scoreEqual(a, b *Score) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Diff compares a stored match against a fresh snapshot and returns the
// updated record plus a Change when status or score moved. A nil old match
// means first sighting: the record is created and no change is emitted.
//
// Status only moves forward. A snapshot that would regress the status is
// still applied (upstream corrections do happen) but the change is flagged
// Corrective so callers can log it instead of silently overwriting.
func Diff(old *Match, snap Snapshot, now time.Time) (Match, *Change) {
	updated := Match{
		ID:          snap.ID,
		League:      snap.League,
		Season:      snap.Season,
		HomeTeam:    snap.HomeTeam,
		AwayTeam:    snap.AwayTeam,
		Kickoff:     snap.Kickoff,
		Status:      snap.Status,
		Score:       snap.Score,
		LastUpdated: now,
	}

	if old == nil {
		return updated, nil
	}

	// Identity fields never change after creation.
	updated.ID = old.ID
	updated.League = old.League
	updated.Season = old.Season

	if old.Status == snap.Status && scoreEqual(old.Score, snap.Score) {
		updated.LastUpdated = old.LastUpdated
		return updated, nil
	}

	return updated, &Change{
		MatchID:    old.ID,
		League:     old.League,
		HomeTeam:   old.HomeTeam,
		AwayTeam:   old.AwayTeam,
		OldStatus:  old.Status,
		NewStatus:  snap.Status,
		OldScore:   old.Score,
		NewScore:   snap.Score,
		Corrective: snap.Status.rank() < old.Status.rank(),
		DetectedAt: now,
	}
}
