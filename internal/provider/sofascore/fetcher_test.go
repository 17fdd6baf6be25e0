package sofascore

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/quinielago/progol-data/internal/match"
)

const eventsPayload = `{
	"events": [
		{
			"id": 111,
			"homeTeam": {"name": "América"},
			"awayTeam": {"name": "Chivas"},
			"homeScore": {"current": 2},
			"awayScore": {"current": 1},
			"status": {"code": 100},
			"startTimestamp": 1745089200
		},
		{
			"id": 222,
			"homeTeam": {"name": "Pumas"},
			"awayTeam": {"name": "Cruz Azul"},
			"homeScore": {},
			"awayScore": {},
			"status": {"code": 0},
			"startTimestamp": 1745175600
		}
	]
}`

func newTestFetcher(t *testing.T, handler http.HandlerFunc) *Fetcher {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewFetcher(NewClient(srv.URL, 5*time.Second, 600, nil))
}

func TestFetchParsesSnapshots(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		want := "/unique-tournament/352/events/season/2025"
		if r.URL.Path != want {
			t.Errorf("path = %q, want %q", r.URL.Path, want)
		}
		w.Write([]byte(eventsPayload))
	})

	snaps, err := f.Fetch(context.Background(), "Liga MX", "2025")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(snaps) != 2 {
		t.Fatalf("got %d snapshots, want 2", len(snaps))
	}

	finished := snaps[0]
	if finished.ID != "111" || finished.Status != match.StatusFinished {
		t.Errorf("finished snapshot = %+v", finished)
	}
	if finished.Score == nil || *finished.Score != (match.Score{Home: 2, Away: 1}) {
		t.Errorf("finished score = %v", finished.Score)
	}

	scheduled := snaps[1]
	if scheduled.Status != match.StatusScheduled || scheduled.Score != nil {
		t.Errorf("scheduled snapshot = %+v", scheduled)
	}
	if scheduled.HomeTeam != "Pumas" || scheduled.AwayTeam != "Cruz Azul" {
		t.Errorf("teams = %q vs %q", scheduled.HomeTeam, scheduled.AwayTeam)
	}
}

func TestFetchUnsupportedLeague(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("unexpected request for unsupported league")
	})
	if _, err := f.Fetch(context.Background(), "Conference North", "2025"); err == nil {
		t.Fatal("expected error for unsupported league")
	}
}

func TestFetchClassifiesRateLimit(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	_, err := f.Fetch(context.Background(), "EPL", "2025")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Kind != KindRateLimited || !fe.Transient() {
		t.Errorf("kind = %q transient = %v", fe.Kind, fe.Transient())
	}
}

func TestFetchClassifiesMalformed(t *testing.T) {
	f := newTestFetcher(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})
	_, err := f.Fetch(context.Background(), "EPL", "2025")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Kind != KindMalformed || fe.Transient() {
		t.Errorf("kind = %q transient = %v", fe.Kind, fe.Transient())
	}
}

func TestFetchClassifiesUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on
	f := NewFetcher(NewClient(srv.URL, time.Second, 600, nil))

	_, err := f.Fetch(context.Background(), "EPL", "2025")
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected *FetchError, got %T", err)
	}
	if fe.Kind != KindUnreachable {
		t.Errorf("kind = %q, want unreachable", fe.Kind)
	}
}

func TestSupportedLeagueCoversDefaults(t *testing.T) {
	for _, l := range []string{"Liga MX", "EPL", "Brasileirao", "RFPL"} {
		if !SupportedLeague(l) {
			t.Errorf("league %q not mapped", l)
		}
	}
	if SupportedLeague("Sunday League") {
		t.Error("unknown league reported as supported")
	}
}
