// Package notify persists and delivers quiniela change notifications.
//
// Pipeline: the evaluator produces items → Deliverer persists them and
// publishes to the Redis stream → a background dispatch worker sends due
// items through the configured sender (Telegram).
package notify

import (
	"fmt"
	"time"
)

// Dispatch tuning.
const (
	dispatchInterval  = 30 * time.Second
	dispatchBatchSize = 100
)

// Item is one user-facing notification: a quiniela entry whose evaluation
// state changed because the underlying match result moved.
type Item struct {
	ID           int64     `json:"id,omitempty"`
	QuinielaID   string    `json:"quiniela_id"`
	QuinielaName string    `json:"quiniela_name"`
	UserID       string    `json:"user_id"`
	MatchID      string    `json:"match_id"`
	Fixture      string    `json:"fixture"`
	OldState     string    `json:"old_state"`
	NewState     string    `json:"new_state"`
	Message      string    `json:"message"`
	Status       string    `json:"status,omitempty"`
	DetectedAt   time.Time `json:"detected_at"`
}

// BuildMessage renders the user-facing text for an item.
func BuildMessage(it Item) string {
	return fmt.Sprintf("Quiniela %q: your pick on %s is now %s (was %s)",
		it.QuinielaName, it.Fixture, it.NewState, it.OldState)
}
