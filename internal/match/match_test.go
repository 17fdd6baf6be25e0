package match

import (
	"testing"
	"time"
)

func TestStatusFromCode(t *testing.T) {
	cases := []struct {
		code int
		want Status
	}{
		{0, StatusScheduled},
		{6, StatusInProgress},
		{7, StatusInProgress},
		{100, StatusFinished},
		{110, StatusFinished},
		{120, StatusFinished},
		{42, StatusScheduled},
	}
	for _, c := range cases {
		if got := StatusFromCode(c.code); got != c.want {
			t.Errorf("StatusFromCode(%d) = %q, want %q", c.code, got, c.want)
		}
	}
}

func TestOutcomeFromScore(t *testing.T) {
	if got := OutcomeFromScore(Score{2, 1}); got != OutcomeHome {
		t.Errorf("2-1 = %q, want L", got)
	}
	if got := OutcomeFromScore(Score{1, 1}); got != OutcomeDraw {
		t.Errorf("1-1 = %q, want E", got)
	}
	if got := OutcomeFromScore(Score{0, 3}); got != OutcomeAway {
		t.Errorf("0-3 = %q, want V", got)
	}
}

func snap(status Status, score *Score) Snapshot {
	return Snapshot{
		ID:       "m1",
		League:   "Liga MX",
		Season:   "2025",
		HomeTeam: "América",
		AwayTeam: "Chivas",
		Kickoff:  time.Date(2025, 4, 19, 19, 0, 0, 0, time.UTC),
		Status:   status,
		Score:    score,
	}
}

func TestDiffFirstSighting(t *testing.T) {
	now := time.Now()
	m, change := Diff(nil, snap(StatusScheduled, nil), now)
	if change != nil {
		t.Fatalf("first sighting emitted a change: %+v", change)
	}
	if m.ID != "m1" || m.Status != StatusScheduled || m.Score != nil {
		t.Fatalf("unexpected created match: %+v", m)
	}
}

func TestDiffUnchangedEmitsNothing(t *testing.T) {
	now := time.Now()
	old, _ := Diff(nil, snap(StatusFinished, &Score{2, 1}), now)
	_, change := Diff(&old, snap(StatusFinished, &Score{2, 1}), now.Add(time.Minute))
	if change != nil {
		t.Fatalf("unchanged snapshot emitted a change: %+v", change)
	}
}

func TestDiffScheduledToFinished(t *testing.T) {
	now := time.Now()
	old, _ := Diff(nil, snap(StatusScheduled, nil), now)
	updated, change := Diff(&old, snap(StatusFinished, &Score{2, 1}), now.Add(time.Hour))
	if change == nil {
		t.Fatal("expected a change")
	}
	if change.OldStatus != StatusScheduled || change.NewStatus != StatusFinished {
		t.Errorf("change statuses = %q -> %q", change.OldStatus, change.NewStatus)
	}
	if change.NewScore == nil || *change.NewScore != (Score{2, 1}) {
		t.Errorf("change new score = %v", change.NewScore)
	}
	if change.Corrective {
		t.Error("forward transition flagged corrective")
	}
	if out, ok := updated.Result(); !ok || out != OutcomeHome {
		t.Errorf("Result() = %q, %v; want L, true", out, ok)
	}
}

func TestDiffScoreChangeSameStatus(t *testing.T) {
	now := time.Now()
	old, _ := Diff(nil, snap(StatusInProgress, &Score{0, 0}), now)
	_, change := Diff(&old, snap(StatusInProgress, &Score{1, 0}), now.Add(time.Minute))
	if change == nil {
		t.Fatal("expected a change for score movement")
	}
	if change.OldScore == nil || change.OldScore.Home != 0 {
		t.Errorf("old score = %v", change.OldScore)
	}
}

func TestDiffRegressionFlaggedCorrective(t *testing.T) {
	now := time.Now()
	old, _ := Diff(nil, snap(StatusFinished, &Score{2, 1}), now)
	updated, change := Diff(&old, snap(StatusInProgress, &Score{2, 1}), now.Add(time.Minute))
	if change == nil {
		t.Fatal("expected a change for status regression")
	}
	if !change.Corrective {
		t.Error("regression not flagged corrective")
	}
	if updated.Status != StatusInProgress {
		t.Errorf("corrective overwrite not applied, status = %q", updated.Status)
	}
}

func TestDiffPreservesIdentity(t *testing.T) {
	now := time.Now()
	old, _ := Diff(nil, snap(StatusScheduled, nil), now)
	s := snap(StatusInProgress, &Score{0, 0})
	s.League = "Renamed League"
	s.Season = "2026"
	updated, _ := Diff(&old, s, now.Add(time.Minute))
	if updated.League != "Liga MX" || updated.Season != "2025" {
		t.Errorf("identity fields mutated: league=%q season=%q", updated.League, updated.Season)
	}
}
