package quiniela

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/quinielago/progol-data/internal/match"
	"github.com/quinielago/progol-data/internal/notify"
)

// EntryStore is the persistence the evaluator needs: find entries that
// reference a match, and record their recomputed state.
type EntryStore interface {
	EntriesReferencing(ctx context.Context, matchID string) ([]EntryRef, error)
	SetEntryState(ctx context.Context, quinielaID string, position int, state EvalState) error
}

// Evaluator recomputes entry states after result changes and emits a
// notification item per entry whose state moved.
type Evaluator struct {
	store  EntryStore
	mode   Mode
	logger *slog.Logger
}

func NewEvaluator(store EntryStore, mode Mode, logger *slog.Logger) *Evaluator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Evaluator{store: store, mode: mode, logger: logger}
}

// ApplyChanges runs entry evaluation for every changed match. Evaluation is
// deterministic: changes are processed in match-id order (arrival order when
// ids tie, so corrective overwrites land last) and entries arrive from the
// store in (quiniela created_at, quiniela id, position) order, so the same
// inputs always produce the same items in the same order.
//
// A store failure on one entry is logged and skipped; the remaining entries
// are still evaluated. That matches the refresh engine's partial-failure
// stance: one bad row never blocks the rest of the cycle.
func (ev *Evaluator) ApplyChanges(ctx context.Context, changes []match.Change) ([]notify.Item, error) {
	if len(changes) == 0 {
		return nil, nil
	}

	sorted := make([]match.Change, len(changes))
	copy(sorted, changes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].MatchID < sorted[j].MatchID })

	var items []notify.Item
	var failed int
	for _, ch := range sorted {
		if err := ctx.Err(); err != nil {
			return items, err
		}

		refs, err := ev.store.EntriesReferencing(ctx, ch.MatchID)
		if err != nil {
			failed++
			ev.logger.Error("entry lookup failed", "match_id", ch.MatchID, "error", err)
			continue
		}

		for _, ref := range refs {
			entry := Entry{
				Position:   ref.Position,
				MatchID:    ref.MatchID,
				Pick:       ref.Pick,
				ExactScore: ref.ExactScore,
				State:      ref.State,
			}
			next := Evaluate(entry, ch.NewStatus, ch.NewScore, ev.mode)
			if next == ref.State {
				continue
			}
			if err := ev.store.SetEntryState(ctx, ref.QuinielaID, ref.Position, next); err != nil {
				failed++
				ev.logger.Error("entry state update failed",
					"quiniela_id", ref.QuinielaID, "position", ref.Position, "error", err)
				continue
			}
			items = append(items, notify.Item{
				QuinielaID:   ref.QuinielaID,
				QuinielaName: ref.QuinielaName,
				UserID:       ref.UserID,
				MatchID:      ref.MatchID,
				Fixture:      ch.Fixture(),
				OldState:     string(ref.State),
				NewState:     string(next),
				DetectedAt:   ch.DetectedAt,
			})
		}
	}

	if failed > 0 {
		return items, fmt.Errorf("evaluation incomplete: %d operation(s) failed", failed)
	}
	return items, nil
}
