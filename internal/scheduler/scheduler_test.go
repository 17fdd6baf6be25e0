package scheduler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/metrics"
	"github.com/quinielago/progol-data/internal/notify"
	"github.com/quinielago/progol-data/internal/refresh"
)

type stubEngine struct {
	mu     sync.Mutex
	result refresh.CycleResult
	err    error
	runs   int
}

func (e *stubEngine) RunCycle(context.Context) (refresh.CycleResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.runs++
	return e.result, e.err
}

func (e *stubEngine) ranTimes() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runs
}

func (e *stubEngine) setErr(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.err = err
}

type stubEvaluator struct {
	items []notify.Item
	err   error
	got   []match.Change
}

func (ev *stubEvaluator) ApplyChanges(_ context.Context, changes []match.Change) ([]notify.Item, error) {
	ev.got = changes
	return ev.items, ev.err
}

type stubDeliverer struct {
	delivered []notify.Item
	err       error
}

func (d *stubDeliverer) Deliver(_ context.Context, items []notify.Item) (int, error) {
	d.delivered = append(d.delivered, items...)
	return len(items), d.err
}

func newTestScheduler(e Engine, ev Evaluator, d Deliverer) *Scheduler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(e, ev, d, time.Minute, metrics.NewRecorder(), logger)
}

func TestTriggerRunsPipeline(t *testing.T) {
	changes := []match.Change{{MatchID: "m1", League: "Liga MX", NewStatus: match.StatusFinished}}
	engine := &stubEngine{result: refresh.CycleResult{Changes: changes}}
	eval := &stubEvaluator{items: []notify.Item{{QuinielaID: "q1", MatchID: "m1"}}}
	del := &stubDeliverer{}
	s := newTestScheduler(engine, eval, del)

	if _, err := s.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if engine.ranTimes() != 1 {
		t.Fatalf("engine ran %d times, want 1", engine.ranTimes())
	}
	if len(eval.got) != 1 || eval.got[0].MatchID != "m1" {
		t.Fatalf("evaluator got %+v", eval.got)
	}
	if len(del.delivered) != 1 || del.delivered[0].QuinielaID != "q1" {
		t.Fatalf("deliverer got %+v", del.delivered)
	}

	st := s.Status()
	if st.LastSuccess == nil || st.LastError != "" || st.ConsecutiveFailures != 0 {
		t.Fatalf("status after success = %+v", st)
	}
}

func TestTriggerNoItemsSkipsDelivery(t *testing.T) {
	engine := &stubEngine{}
	del := &stubDeliverer{}
	s := newTestScheduler(engine, &stubEvaluator{}, del)

	if _, err := s.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if len(del.delivered) != 0 {
		t.Fatalf("deliverer got %d items, want 0", len(del.delivered))
	}
}

func TestTriggerCycleInProgressPassesThrough(t *testing.T) {
	engine := &stubEngine{err: refresh.ErrCycleInProgress}
	s := newTestScheduler(engine, &stubEvaluator{}, &stubDeliverer{})

	_, err := s.Trigger(context.Background())
	if !errors.Is(err, refresh.ErrCycleInProgress) {
		t.Fatalf("err = %v, want ErrCycleInProgress", err)
	}
	if st := s.Status(); st.ConsecutiveFailures != 0 {
		t.Fatalf("busy trigger counted as failure: %+v", st)
	}
}

func TestFailuresAccumulate(t *testing.T) {
	engine := &stubEngine{err: errors.New("db down")}
	s := newTestScheduler(engine, &stubEvaluator{}, &stubDeliverer{})

	for i := 0; i < 3; i++ {
		if _, err := s.Trigger(context.Background()); err == nil {
			t.Fatal("expected error")
		}
	}
	st := s.Status()
	if st.ConsecutiveFailures != 3 {
		t.Fatalf("ConsecutiveFailures = %d, want 3", st.ConsecutiveFailures)
	}
	if st.LastError == "" || st.LastSuccess != nil {
		t.Fatalf("status = %+v", st)
	}

	// A success resets the streak.
	engine.setErr(nil)
	if _, err := s.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if st := s.Status(); st.ConsecutiveFailures != 0 || st.LastError != "" {
		t.Fatalf("status after recovery = %+v", st)
	}
}

func TestRunTicksUntilCancelled(t *testing.T) {
	engine := &stubEngine{}
	s := newTestScheduler(engine, &stubEvaluator{}, &stubDeliverer{})
	s.interval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for engine.ranTimes() < 3 {
		select {
		case <-deadline:
			t.Fatalf("engine ran %d times, want >= 3", engine.ranTimes())
		case <-time.After(5 * time.Millisecond):
		}
	}
	cancel()
	<-done

	if st := s.Status(); st.Running {
		t.Fatal("still marked running after stop")
	}
}

func TestPartialCycleReflectedInStatus(t *testing.T) {
	engine := &stubEngine{result: refresh.CycleResult{
		LeaguesFailed: []refresh.LeagueFailure{{League: "Liga MX", Kind: "unreachable"}},
	}}
	s := newTestScheduler(engine, &stubEvaluator{}, &stubDeliverer{})

	if _, err := s.Trigger(context.Background()); err != nil {
		t.Fatalf("Trigger: %v", err)
	}
	if st := s.Status(); !st.Partial {
		t.Fatalf("status not partial: %+v", st)
	}
}
