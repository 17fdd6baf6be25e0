package quiniela

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/quinielago/progol-data/internal/match"
)

// csvColumns is the expected header of an import file:
//
//	fecha,hora,local,visitante,liga,revancha
//
// fecha/hora are informational only; fixtures are resolved by league and
// team names against matches already ingested from upstream.
var csvColumns = []string{"fecha", "hora", "local", "visitante", "liga", "revancha"}

// MatchResolver resolves a (league, home, away) fixture to a known match.
type MatchResolver interface {
	FindByTeams(ctx context.Context, league, home, away string) (*match.Match, error)
}

// ImportResult reports what an import produced. Rows that fail to resolve
// are skipped and reported, not fatal: a typo on row 7 should not discard
// the other 13 fixtures.
type ImportResult struct {
	Rows     int      `json:"rows"`
	Imported int      `json:"imported"`
	Revancha int      `json:"revancha"`
	Skipped  int      `json:"skipped"`
	Errors   []string `json:"errors,omitempty"`
}

// Summary renders a one-line human-readable account of the import.
func (r *ImportResult) Summary() string {
	return fmt.Sprintf("import: %d rows, %d imported (%d revancha), %d skipped, %d errors",
		r.Rows, r.Imported, r.Revancha, r.Skipped, len(r.Errors))
}

// Importer turns CSV fixture lists into quiniela entries.
type Importer struct {
	resolver MatchResolver
}

func NewImporter(resolver MatchResolver) *Importer {
	return &Importer{resolver: resolver}
}

// Parse reads a CSV fixture list and resolves each row to a match entry.
// Entries come back pick-less and pending; picks are set afterwards.
// Revancha rows are returned separately so the caller can create the
// revancha quiniela alongside the main one.
func (im *Importer) Parse(ctx context.Context, r io.Reader) (regular, revancha []Entry, res *ImportResult, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(csvColumns)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, nil, nil, err
	}

	res = &ImportResult{}
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		res.Rows++

		league := strings.TrimSpace(rec[4])
		home := strings.TrimSpace(rec[2])
		away := strings.TrimSpace(rec[3])
		if league == "" || home == "" || away == "" {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: missing league or team", line))
			continue
		}

		m, err := im.resolver.FindByTeams(ctx, league, home, away)
		if err != nil {
			res.Skipped++
			res.Errors = append(res.Errors, fmt.Sprintf("line %d: %s vs %s (%s): %v", line, home, away, league, err))
			continue
		}

		entry := Entry{MatchID: m.ID, State: EvalPending}
		if isRevancha(rec[5]) {
			entry.Position = len(revancha) + 1
			revancha = append(revancha, entry)
			res.Revancha++
		} else {
			entry.Position = len(regular) + 1
			regular = append(regular, entry)
		}
		res.Imported++
	}

	return regular, revancha, res, nil
}

func checkHeader(got []string) error {
	if len(got) != len(csvColumns) {
		return fmt.Errorf("expected %d columns, got %d", len(csvColumns), len(got))
	}
	for i, want := range csvColumns {
		if !strings.EqualFold(strings.TrimSpace(got[i]), want) {
			return fmt.Errorf("column %d: expected %q, got %q", i+1, want, got[i])
		}
	}
	return nil
}

func isRevancha(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "si", "sí", "yes":
		return true
	}
	return false
}
