// Package scheduler drives the periodic refresh loop: run a cycle, evaluate
// quiniela entries against the detected changes, and hand notifications to
// the deliverer.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/metrics"
	"github.com/quinielago/progol-data/internal/notify"
	"github.com/quinielago/progol-data/internal/refresh"
)

// Engine is the cycle runner. Satisfied by *refresh.Engine.
type Engine interface {
	RunCycle(ctx context.Context) (refresh.CycleResult, error)
}

// Evaluator recomputes quiniela entries for a batch of result changes.
type Evaluator interface {
	ApplyChanges(ctx context.Context, changes []match.Change) ([]notify.Item, error)
}

// Deliverer persists and publishes notification items.
type Deliverer interface {
	Deliver(ctx context.Context, items []notify.Item) (int, error)
}

// Status is a snapshot of the scheduler's health, served by the API.
type Status struct {
	Running             bool       `json:"running"`
	Interval            string     `json:"interval"`
	LastAttempt         *time.Time `json:"last_attempt,omitempty"`
	LastSuccess         *time.Time `json:"last_success,omitempty"`
	LastError           string     `json:"last_error,omitempty"`
	LastSummary         string     `json:"last_summary,omitempty"`
	Partial             bool       `json:"partial"`
	ConsecutiveFailures int        `json:"consecutive_failures"`
}

// Scheduler owns the refresh ticker and the post-cycle pipeline.
type Scheduler struct {
	engine    Engine
	evaluator Evaluator
	deliverer Deliverer
	interval  time.Duration
	logger    *slog.Logger
	recorder  *metrics.Recorder
	now       func() time.Time

	mu     sync.Mutex
	status Status
}

func New(engine Engine, evaluator Evaluator, deliverer Deliverer, interval time.Duration, recorder *metrics.Recorder, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		engine:    engine,
		evaluator: evaluator,
		deliverer: deliverer,
		interval:  interval,
		logger:    logger,
		recorder:  recorder,
		now:       time.Now,
	}
}

// Run blocks until ctx is cancelled, running one cycle immediately and then
// one per interval. A cycle that outlives the interval just delays the next
// tick; cycles never overlap.
func (s *Scheduler) Run(ctx context.Context) {
	s.setRunning(true)
	defer s.setRunning(false)
	s.logger.Info("scheduler started", "interval", s.interval)

	// Warm cycle on startup so the store is current before the first tick.
	s.runOnce(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return
		}
	}
}

// Trigger runs one cycle outside the ticker, for the forced-refresh
// endpoint. Returns refresh.ErrCycleInProgress when a cycle is already
// running.
func (s *Scheduler) Trigger(ctx context.Context) (refresh.CycleResult, error) {
	result, err := s.engine.RunCycle(ctx)
	if err != nil {
		if !errors.Is(err, refresh.ErrCycleInProgress) {
			s.noteFailure(err)
		}
		return result, err
	}
	s.pipeline(ctx, result)
	return result, nil
}

// Status returns the current health snapshot.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.status
	st.Interval = s.interval.String()
	return st
}

func (s *Scheduler) runOnce(ctx context.Context) {
	result, err := s.engine.RunCycle(ctx)
	if err != nil {
		// The ticker never overlaps with itself; in-progress here means a
		// forced refresh is running. Skip the tick.
		if errors.Is(err, refresh.ErrCycleInProgress) {
			s.logger.Info("tick skipped, cycle in progress")
			return
		}
		s.noteFailure(err)
		return
	}
	s.pipeline(ctx, result)
}

// pipeline handles everything after a completed cycle: metrics, evaluation,
// delivery, status bookkeeping.
func (s *Scheduler) pipeline(ctx context.Context, result refresh.CycleResult) {
	outcome := "ok"
	if result.Partial() {
		outcome = "partial"
	}
	s.recorder.RecordCycle(outcome, result.Duration)
	for _, f := range result.LeaguesFailed {
		s.recorder.RecordFetchFailure(f.League, string(f.Kind))
	}
	byLeague := map[string]int{}
	for _, ch := range result.Changes {
		byLeague[ch.League]++
	}
	for league, n := range byLeague {
		s.recorder.RecordChanges(league, n)
	}

	items, err := s.evaluator.ApplyChanges(ctx, result.Changes)
	if err != nil {
		s.logger.Error("evaluation failed", "error", err)
	}
	if len(items) > 0 {
		if n, err := s.deliverer.Deliver(ctx, items); err != nil {
			s.logger.Error("delivery failed", "queued", n, "error", err)
		} else {
			s.logger.Info("notifications queued", "count", n)
		}
	}

	s.noteSuccess(result)
}

func (s *Scheduler) setRunning(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Running = v
}

func (s *Scheduler) noteSuccess(result refresh.CycleResult) {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastAttempt = &now
	s.status.LastSuccess = &now
	s.status.LastError = ""
	s.status.LastSummary = result.Summary()
	s.status.Partial = result.Partial()
	s.status.ConsecutiveFailures = 0
}

func (s *Scheduler) noteFailure(err error) {
	now := s.now()
	s.logger.Error("refresh cycle failed", "error", err)
	s.recorder.RecordCycle("error", 0)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.LastAttempt = &now
	s.status.LastError = err.Error()
	s.status.ConsecutiveFailures++
}
