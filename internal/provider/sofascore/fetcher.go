package sofascore

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/quinielago/progol-data/internal/match"
)

// tournamentIDs maps Progol league names to SofaScore unique-tournament ids.
var tournamentIDs = map[string]int{
	"Liga MX":                    352,
	"Liga Expansion MX":          40378,
	"Liga Femenil MX":            18028,
	"EPL":                        17,
	"Serie A":                    23,
	"Bundesliga":                 35,
	"Eredivisie":                 37,
	"Ligue 1":                    34,
	"Liga NOS":                   238,
	"Argentina Liga Profesional": 155,
	"Brasileirao":                325,
	"MLS":                        242,
	"Liga Chilena":               127,
	"Liga Belga":                 38,
	"RFPL":                       203,
}

// SupportedLeague reports whether a league name maps to a tournament id.
func SupportedLeague(league string) bool {
	_, ok := tournamentIDs[league]
	return ok
}

// eventsResponse is the SofaScore season events payload.
type eventsResponse struct {
	Events []event `json:"events"`
}

type event struct {
	ID       int64 `json:"id"`
	HomeTeam struct {
		Name string `json:"name"`
	} `json:"homeTeam"`
	AwayTeam struct {
		Name string `json:"name"`
	} `json:"awayTeam"`
	HomeScore struct {
		Current *int `json:"current"`
	} `json:"homeScore"`
	AwayScore struct {
		Current *int `json:"current"`
	} `json:"awayScore"`
	Status struct {
		Code int `json:"code"`
	} `json:"status"`
	StartTimestamp int64 `json:"startTimestamp"`
}

// Fetcher retrieves per-league match snapshots from SofaScore.
type Fetcher struct {
	client *Client
}

// NewFetcher creates a fetcher on the given client.
func NewFetcher(client *Client) *Fetcher {
	return &Fetcher{client: client}
}

// Fetch returns the current match list for one league and season.
// Failures come back as *FetchError so a caller can classify them.
func (f *Fetcher) Fetch(ctx context.Context, league, season string) ([]match.Snapshot, error) {
	id, ok := tournamentIDs[league]
	if !ok {
		return nil, fmt.Errorf("league %q is not mapped to a SofaScore tournament", league)
	}

	var resp eventsResponse
	path := fmt.Sprintf("/unique-tournament/%d/events/season/%s", id, season)
	if err := f.client.get(ctx, league, path, &resp); err != nil {
		return nil, err
	}

	snapshots := make([]match.Snapshot, 0, len(resp.Events))
	for _, e := range resp.Events {
		snapshots = append(snapshots, toSnapshot(e, league, season))
	}
	return snapshots, nil
}

func toSnapshot(e event, league, season string) match.Snapshot {
	snap := match.Snapshot{
		ID:       strconv.FormatInt(e.ID, 10),
		League:   league,
		Season:   season,
		HomeTeam: e.HomeTeam.Name,
		AwayTeam: e.AwayTeam.Name,
		Kickoff:  time.Unix(e.StartTimestamp, 0).UTC(),
		Status:   match.StatusFromCode(e.Status.Code),
	}
	// SofaScore omits current scores for unstarted matches.
	if e.HomeScore.Current != nil && e.AwayScore.Current != nil {
		snap.Score = &match.Score{Home: *e.HomeScore.Current, Away: *e.AwayScore.Current}
	}
	return snap
}
