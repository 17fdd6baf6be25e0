// Package quiniela manages user pools: named sets of match picks, their
// evaluation against live results, and the change notifications that follow.
package quiniela

import (
	"errors"
	"fmt"
	"time"

	"github.com/quinielago/progol-data/internal/match"
)

// Errors surfaced to the API layer.
var (
	ErrNotFound      = errors.New("quiniela not found")
	ErrDuplicateName = errors.New("a quiniela with that name already exists")
	ErrUnknownMatch  = errors.New("entry references a match not in the store")
)

// CapacityError is returned when a user is at their quiniela limit.
// The create is rejected and nothing is written.
type CapacityError struct {
	UserID string
	Limit  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("user %s already has %d quinielas", e.UserID, e.Limit)
}

// --------------------------------------------------------------------------
// Types
// --------------------------------------------------------------------------

// EvalState is the derived correctness of one entry. Recomputed by the
// evaluator whenever the referenced match's result changes — never by the
// presentation layer.
type EvalState string

const (
	EvalPending   EvalState = "pending"
	EvalCorrect   EvalState = "correct"
	EvalIncorrect EvalState = "incorrect"
)

// Entry is one pick inside a quiniela.
type Entry struct {
	Position   int           `json:"position"`
	MatchID    string        `json:"match_id"`
	Pick       match.Outcome `json:"pick,omitempty"`
	ExactScore *match.Score  `json:"exact_score,omitempty"`
	State      EvalState     `json:"state"`
}

// Quiniela is a named, ordered set of entries owned by one user.
type Quiniela struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Revancha  bool      `json:"revancha"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Entries   []Entry   `json:"entries"`
}

// EntryRef is an entry joined with its quiniela identity, as returned by the
// lookup of all entries referencing a match.
type EntryRef struct {
	QuinielaID   string
	QuinielaName string
	UserID       string
	Position     int
	MatchID      string
	Pick         match.Outcome
	ExactScore   *match.Score
	State        EvalState
}

// --------------------------------------------------------------------------
// Evaluation rules
// --------------------------------------------------------------------------

// Mode selects how a pick is judged.
type Mode string

const (
	Mode1X2   Mode = "1x2"   // pick the L/E/V outcome
	ModeExact Mode = "exact" // pick the exact final score
)

// Evaluate recomputes an entry's state from a match status and score.
// Unfinished matches are always pending: correctness is only decided on
// final results.
func Evaluate(e Entry, status match.Status, score *match.Score, mode Mode) EvalState {
	if status != match.StatusFinished || score == nil {
		return EvalPending
	}
	switch mode {
	case ModeExact:
		if e.ExactScore == nil {
			return EvalPending
		}
		if *e.ExactScore == *score {
			return EvalCorrect
		}
		return EvalIncorrect
	default: // Mode1X2
		if !e.Pick.Valid() {
			return EvalPending
		}
		if e.Pick == match.OutcomeFromScore(*score) {
			return EvalCorrect
		}
		return EvalIncorrect
	}
}

// --------------------------------------------------------------------------
// Tally ("aciertos")
// --------------------------------------------------------------------------

// Tally summarizes how a quiniela is doing.
type Tally struct {
	Total    int     `json:"total"`
	Picked   int     `json:"picked"`
	Decided  int     `json:"decided"`
	Correct  int     `json:"correct"`
	Accuracy float64 `json:"accuracy"`
}

// TallyOf counts entry states. Accuracy is over decided entries only.
func TallyOf(q *Quiniela) Tally {
	t := Tally{Total: len(q.Entries)}
	for _, e := range q.Entries {
		if e.Pick.Valid() || e.ExactScore != nil {
			t.Picked++
		}
		switch e.State {
		case EvalCorrect:
			t.Decided++
			t.Correct++
		case EvalIncorrect:
			t.Decided++
		}
	}
	if t.Decided > 0 {
		t.Accuracy = float64(t.Correct) / float64(t.Decided) * 100
	}
	return t
}
