package ingest

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/AngelCh415/agency-ops/internal/store"
)

// maxParallelFetches bounds concurrent collection requests.
const maxParallelFetches = 4

type ETL struct {
	c    *Client
	repo *store.Repository
	log  *zap.Logger
}

func NewETL(c *Client, repo *store.Repository, log *zap.Logger) *ETL {
	return &ETL{c: c, repo: repo, log: log}
}

// CollectionResult reports one collection of an ETL run.
type CollectionResult struct {
	Fetched int `json:"fetched"`
	Skipped int `json:"skipped"`
	Saved   int `json:"saved"`
}

// Result maps backend collection names to their outcome.
type Result map[string]CollectionResult

type rawSet struct {
	clients     []clientRow
	engagements []engagementRow
	assignments []assignmentRow
	colleagues  []colleagueRow
	transitions []transitionRow
	leadEntries []leadEntryRow
	planned     []plannedRow
}

// Run fetches every collection, drops malformed records and saves the rest.
// Nothing is written unless all fetches succeed.
func (e *ETL) Run(ctx context.Context) (Result, error) {
	var raw rawSet
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	fetch := func(col string, dst any) {
		g.Go(func() error { return e.c.Fetch(gctx, col, dst) })
	}
	fetch(colClients, &raw.clients)
	fetch(colEngagements, &raw.engagements)
	fetch(colAssignments, &raw.assignments)
	fetch(colColleagues, &raw.colleagues)
	fetch(colTransitions, &raw.transitions)
	fetch(colLeadEntries, &raw.leadEntries)
	fetch(colPlanned, &raw.planned)
	if err := g.Wait(); err != nil {
		return nil, err
	}

	clients, cSkip := convert(raw.clients, clientRow.toModel)
	engagements, eSkip := convert(raw.engagements, engagementRow.toModel)
	assignments, aSkip := convert(raw.assignments, assignmentRow.toModel)
	colleagues, pSkip := convert(raw.colleagues, colleagueRow.toModel)
	transitions, tSkip := convert(raw.transitions, transitionRow.toModel)
	entries, lSkip := convert(raw.leadEntries, leadEntryRow.toModel)
	planned, nSkip := convert(raw.planned, plannedRow.toModel)

	steps := []struct {
		col              string
		fetched, skipped int
		save             func() (int, error)
	}{
		{colClients, len(raw.clients), cSkip, func() (int, error) { return e.repo.SaveClients(ctx, clients) }},
		{colEngagements, len(raw.engagements), eSkip, func() (int, error) { return e.repo.SaveEngagements(ctx, engagements) }},
		{colAssignments, len(raw.assignments), aSkip, func() (int, error) { return e.repo.SaveAssignments(ctx, assignments) }},
		{colColleagues, len(raw.colleagues), pSkip, func() (int, error) { return e.repo.SaveColleagues(ctx, colleagues) }},
		{colTransitions, len(raw.transitions), tSkip, func() (int, error) { return e.repo.AppendTransitions(ctx, transitions) }},
		{colLeadEntries, len(raw.leadEntries), lSkip, func() (int, error) { return e.repo.SaveLeadEntries(ctx, entries) }},
		{colPlanned, len(raw.planned), nSkip, func() (int, error) { return len(planned), e.repo.SavePlanned(ctx, planned) }},
	}

	res := make(Result, len(steps))
	for _, st := range steps {
		n, err := st.save()
		if err != nil {
			return nil, err
		}
		res[st.col] = CollectionResult{Fetched: st.fetched, Skipped: st.skipped, Saved: n}
	}

	for col, r := range res {
		if r.Skipped > 0 {
			e.log.Warn("ingest skipped malformed records", zap.String("collection", col), zap.Int("skipped", r.Skipped))
		}
	}
	e.log.Info("ingest complete",
		zap.Int("engagements", res[colEngagements].Saved),
		zap.Int("transitions", res[colTransitions].Saved),
		zap.Int("lead_entries", res[colLeadEntries].Saved),
	)
	return res, nil
}

// convert keeps the rows conv accepts and reports how many it rejected.
func convert[R, M any](rows []R, conv func(R) (M, bool)) ([]M, int) {
	out := make([]M, 0, len(rows))
	for _, r := range rows {
		if m, ok := conv(r); ok {
			out = append(out, m)
		}
	}
	return out, len(rows) - len(out)
}
