package quiniela

import (
	"context"
	"strings"
	"testing"

	"github.com/quinielago/progol-data/internal/match"
)

// stubResolver resolves fixtures from a fixed map keyed "league|home|away".
type stubResolver struct {
	known map[string]string // key -> match id
}

func (r *stubResolver) FindByTeams(_ context.Context, league, home, away string) (*match.Match, error) {
	id, ok := r.known[league+"|"+home+"|"+away]
	if !ok {
		return nil, match.ErrNotFound
	}
	return &match.Match{ID: id, League: league, HomeTeam: home, AwayTeam: away}, nil
}

const sampleCSV = `fecha,hora,local,visitante,liga,revancha
2026-03-01,12:00,America,Chivas,Liga MX,0
2026-03-01,14:00,Arsenal,Chelsea,Premier League,0
2026-03-01,16:00,Santos,Tigres,Liga MX,1
`

func TestImporterParse(t *testing.T) {
	im := NewImporter(&stubResolver{known: map[string]string{
		"Liga MX|America|Chivas":         "m1",
		"Premier League|Arsenal|Chelsea": "m2",
		"Liga MX|Santos|Tigres":          "m3",
	}})

	regular, revancha, res, err := im.Parse(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if res.Rows != 3 || res.Imported != 3 || res.Skipped != 0 {
		t.Fatalf("result = %s", res.Summary())
	}
	if len(regular) != 2 {
		t.Fatalf("got %d regular entries, want 2", len(regular))
	}
	if regular[0].MatchID != "m1" || regular[1].MatchID != "m2" {
		t.Fatalf("main entries = %s, %s", regular[0].MatchID, regular[1].MatchID)
	}
	if regular[0].Position != 1 || regular[1].Position != 2 {
		t.Fatalf("positions = %d, %d", regular[0].Position, regular[1].Position)
	}
	if len(revancha) != 1 || revancha[0].MatchID != "m3" || revancha[0].Position != 1 {
		t.Fatalf("revancha entries = %+v", revancha)
	}
	for _, e := range regular {
		if e.State != EvalPending || e.Pick.Valid() {
			t.Fatalf("imported entry not pick-less pending: %+v", e)
		}
	}
}

func TestImporterParseSkipsUnresolved(t *testing.T) {
	im := NewImporter(&stubResolver{known: map[string]string{
		"Liga MX|America|Chivas": "m1",
	}})

	regular, _, res, err := im.Parse(context.Background(), strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(regular) != 1 {
		t.Fatalf("got %d entries, want 1", len(regular))
	}
	if res.Skipped != 2 || len(res.Errors) != 2 {
		t.Fatalf("result = %s", res.Summary())
	}
}

func TestImporterParseBadHeader(t *testing.T) {
	im := NewImporter(&stubResolver{})
	_, _, _, err := im.Parse(context.Background(), strings.NewReader("a,b,c\n"))
	if err == nil {
		t.Fatal("expected header error")
	}
}

func TestImporterParseMissingFields(t *testing.T) {
	im := NewImporter(&stubResolver{})
	data := "fecha,hora,local,visitante,liga,revancha\n2026-03-01,12:00,,Chivas,Liga MX,0\n"
	regular, _, res, err := im.Parse(context.Background(), strings.NewReader(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(regular) != 0 || res.Skipped != 1 {
		t.Fatalf("result = %s", res.Summary())
	}
}

func TestIsRevancha(t *testing.T) {
	for _, v := range []string{"1", "true", "si", "sí", "YES"} {
		if !isRevancha(v) {
			t.Fatalf("isRevancha(%q) = false", v)
		}
	}
	for _, v := range []string{"0", "false", "no", ""} {
		if isRevancha(v) {
			t.Fatalf("isRevancha(%q) = true", v)
		}
	}
}
