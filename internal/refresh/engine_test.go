package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/provider/sofascore"
)

// memStore is an in-memory MatchStore for engine tests.
type memStore struct {
	mu      sync.Mutex
	matches map[string]match.Match
	changes []match.Change
	putErr  error
	getGate chan struct{} // when set, Get blocks until the gate closes
}

func newMemStore() *memStore {
	return &memStore{matches: make(map[string]match.Match)}
}

func (s *memStore) Get(ctx context.Context, id string) (*match.Match, error) {
	if s.getGate != nil {
		<-s.getGate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, match.ErrNotFound
	}
	return &m, nil
}

func (s *memStore) Put(ctx context.Context, m match.Match, change *match.Change) error {
	if s.putErr != nil {
		return s.putErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	if change != nil {
		s.changes = append(s.changes, *change)
	}
	return nil
}

// stubFetcher serves canned snapshots or errors per league.
type stubFetcher struct {
	mu    sync.Mutex
	snaps map[string][]match.Snapshot
	errs  map[string]error
	calls map[string]int
}

func newStubFetcher() *stubFetcher {
	return &stubFetcher{
		snaps: make(map[string][]match.Snapshot),
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (f *stubFetcher) Fetch(ctx context.Context, league, season string) ([]match.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[league]++
	if err := f.errs[league]; err != nil {
		return nil, err
	}
	return f.snaps[league], nil
}

func snapshot(id string, league string, status match.Status, score *match.Score) match.Snapshot {
	return match.Snapshot{
		ID:       id,
		League:   league,
		Season:   "2025",
		HomeTeam: "Home FC",
		AwayTeam: "Away FC",
		Kickoff:  time.Date(2025, 4, 19, 19, 0, 0, 0, time.UTC),
		Status:   status,
		Score:    score,
	}
}

func TestRunCycleCreatesWithoutEvents(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()
	fetcher.snaps["Liga MX"] = []match.Snapshot{
		snapshot("m1", "Liga MX", match.StatusScheduled, nil),
		snapshot("m2", "Liga MX", match.StatusScheduled, nil),
	}
	engine := New(fetcher, store, []string{"Liga MX"}, "2025", nil)

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if result.MatchesCreated != 2 || len(result.Changes) != 0 {
		t.Fatalf("created=%d changes=%d, want 2 creations and 0 changes",
			result.MatchesCreated, len(result.Changes))
	}
}

func TestRunCycleIdempotent(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()
	fetcher.snaps["Liga MX"] = []match.Snapshot{
		snapshot("m1", "Liga MX", match.StatusFinished, &match.Score{Home: 2, Away: 1}),
	}
	engine := New(fetcher, store, []string{"Liga MX"}, "2025", nil)

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}
	second, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(second.Changes) != 0 {
		t.Fatalf("second cycle emitted %d changes, want 0", len(second.Changes))
	}
}

func TestRunCycleEmitsChangeOnFinish(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()
	fetcher.snaps["Liga MX"] = []match.Snapshot{
		snapshot("m1", "Liga MX", match.StatusScheduled, nil),
	}
	engine := New(fetcher, store, []string{"Liga MX"}, "2025", nil)

	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	fetcher.snaps["Liga MX"] = []match.Snapshot{
		snapshot("m1", "Liga MX", match.StatusFinished, &match.Score{Home: 2, Away: 1}),
	}
	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(result.Changes) != 1 {
		t.Fatalf("got %d changes, want 1", len(result.Changes))
	}
	c := result.Changes[0]
	if c.MatchID != "m1" || c.OldStatus != match.StatusScheduled || c.NewStatus != match.StatusFinished {
		t.Errorf("change = %+v", c)
	}
	if c.NewScore == nil || *c.NewScore != (match.Score{Home: 2, Away: 1}) {
		t.Errorf("new score = %v", c.NewScore)
	}
	if len(store.changes) != 1 {
		t.Errorf("change not persisted with the match write")
	}
}

func TestRunCyclePartialFailureIsolation(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()
	fetcher.errs["Liga MX"] = &sofascore.FetchError{
		League: "Liga MX", Kind: sofascore.KindMalformed, Err: errors.New("bad json"),
	}
	fetcher.snaps["EPL"] = []match.Snapshot{
		snapshot("e1", "EPL", match.StatusFinished, &match.Score{Home: 1, Away: 0}),
	}
	engine := New(fetcher, store, []string{"Liga MX", "EPL"}, "2025", nil)

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(result.LeaguesFailed) != 1 || result.LeaguesFailed[0].League != "Liga MX" {
		t.Fatalf("leagues failed = %+v", result.LeaguesFailed)
	}
	if result.LeaguesFailed[0].Kind != sofascore.KindMalformed {
		t.Errorf("failure kind = %q", result.LeaguesFailed[0].Kind)
	}
	if _, err := store.Get(context.Background(), "e1"); err != nil {
		t.Errorf("EPL match not stored despite Liga MX failure: %v", err)
	}
	if !result.Partial() {
		t.Error("result not marked partial")
	}
}

func TestRunCycleRetriesTransientFailures(t *testing.T) {
	store := newMemStore()
	flaky := &flakyFetcher{
		failures: 1,
		snaps:    []match.Snapshot{snapshot("m1", "EPL", match.StatusScheduled, nil)},
	}
	engine := New(flaky, store, []string{"EPL"}, "2025", nil)

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(result.LeaguesFailed) != 0 {
		t.Fatalf("transient failure not retried: %+v", result.LeaguesFailed)
	}
	if flaky.calls < 2 {
		t.Errorf("fetcher called %d times, want at least 2", flaky.calls)
	}
}

// flakyFetcher fails the first N calls with a transient error.
type flakyFetcher struct {
	mu       sync.Mutex
	failures int
	calls    int
	snaps    []match.Snapshot
}

func (f *flakyFetcher) Fetch(ctx context.Context, league, season string) ([]match.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return nil, &sofascore.FetchError{
			League: league, Kind: sofascore.KindUnreachable, Err: errors.New("connection refused"),
		}
	}
	return f.snaps, nil
}

func TestRunCycleRejectsConcurrentTrigger(t *testing.T) {
	store := newMemStore()
	store.getGate = make(chan struct{})
	fetcher := newStubFetcher()
	fetcher.snaps["Liga MX"] = []match.Snapshot{
		snapshot("m1", "Liga MX", match.StatusScheduled, nil),
	}
	engine := New(fetcher, store, []string{"Liga MX"}, "2025", nil)

	started := make(chan struct{})
	done := make(chan CycleResult)
	go func() {
		close(started)
		result, _ := engine.RunCycle(context.Background())
		done <- result
	}()

	<-started
	// Wait until the first cycle is parked inside the store lookup.
	deadline := time.After(2 * time.Second)
	for {
		if _, err := engine.RunCycle(context.Background()); errors.Is(err, ErrCycleInProgress) {
			break
		}
		select {
		case <-deadline:
			t.Fatal("second trigger never saw an in-flight cycle")
		case <-time.After(5 * time.Millisecond):
		}
	}

	close(store.getGate)
	result := <-done
	if result.MatchesCreated != 1 {
		t.Fatalf("first cycle result = %+v", result)
	}
}

func TestRunCycleAppliesCorrectiveOverwrite(t *testing.T) {
	store := newMemStore()
	fetcher := newStubFetcher()
	fetcher.snaps["EPL"] = []match.Snapshot{
		snapshot("m1", "EPL", match.StatusFinished, &match.Score{Home: 1, Away: 1}),
	}
	engine := New(fetcher, store, []string{"EPL"}, "2025", nil)
	if _, err := engine.RunCycle(context.Background()); err != nil {
		t.Fatalf("first cycle: %v", err)
	}

	fetcher.snaps["EPL"] = []match.Snapshot{
		snapshot("m1", "EPL", match.StatusInProgress, &match.Score{Home: 1, Away: 1}),
	}
	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("second cycle: %v", err)
	}
	if len(result.Changes) != 1 || !result.Changes[0].Corrective {
		t.Fatalf("corrective change not emitted: %+v", result.Changes)
	}
	m, err := store.Get(context.Background(), "m1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if m.Status != match.StatusInProgress {
		t.Errorf("overwrite not applied, status = %q", m.Status)
	}
}

func TestRunCycleRecordsStoreWriteFailures(t *testing.T) {
	store := newMemStore()
	store.putErr = errors.New("disk full")
	fetcher := newStubFetcher()
	fetcher.snaps["EPL"] = []match.Snapshot{
		snapshot("m1", "EPL", match.StatusScheduled, nil),
		snapshot("m2", "EPL", match.StatusScheduled, nil),
	}
	engine := New(fetcher, store, []string{"EPL"}, "2025", nil)

	result, err := engine.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if len(result.Errors) != 2 {
		t.Fatalf("errors = %v, want one per failed match", result.Errors)
	}
	if result.MatchesSeen != 2 {
		t.Errorf("cycle stopped early: seen=%d", result.MatchesSeen)
	}
}
