package ingest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/AngelCh415/agency-ops/internal/models"
	"github.com/AngelCh415/agency-ops/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

var fixtures = map[string]string{
	"clients": `[{"id":"c1","name":" Acme "},{"id":"","name":"nobody"}]`,
	"engagements": `[
		{"id":"e1","client_id":"c1","name":"PPC","start_date":"2025-02-01","end_date":null,"monthly_fee":1200,"status":"Active"},
		{"id":"e2","client_id":"c1","name":"Social","start_date":"2025-01-01","end_date":"2025-04-20T00:00:00+00:00","monthly_fee":800,"status":"active"},
		{"id":"e3","client_id":"c1","start_date":"not a date","monthly_fee":5,"status":"active"},
		{"id":"e4","client_id":"c1","start_date":"2025-01-01","end_date":"31/12/2025","monthly_fee":5,"status":"active"}
	]`,
	"assignments": `[
		{"id":"a1","engagement_id":"e1","colleague_id":"p1","start_date":"2025-02-01","cost_model":"fixed_monthly","monthly_cost":500,"hourly_cost":99},
		{"id":"a2","engagement_id":"e2","colleague_id":"p1","start_date":"2025-01-01 08:00:00+00","cost_model":"hourly","hourly_cost":-3,"monthly_hours":10}
	]`,
	"colleagues": `[
		{"id":"p1","name":"Jana","position":"Meta specialist","status":"active","capacity_slots":{"meta":4}},
		{"id":"p2","name":"Petr","position":"PPC","status":"active","capacity_slots":null},
		{"id":"p3","name":"Eva","position":"Design","status":"active","capacity_slots":{"meta":-1}}
	]`,
	"lead_transitions": `[
		{"lead_id":"L1","from_stage":"new_lead","to_stage":"meeting_done","confirmed_at":"2025-03-02T10:00:00Z","transition_value":100},
		{"lead_id":"L2","from_stage":"new_lead","to_stage":"meeting_done","confirmed_at":"garbage"},
		{"id":"t7","lead_id":"L3","from_stage":"meeting_done","to_stage":"offer_sent","confirmed_at":null},
		{"id":"t8","lead_id":"L3","from_stage":"meeting_done","to_stage":"offer_sent","confirmed_at":null}
	]`,
	"lead_entries":        `[{"lead_id":"L1","entered_at":"2025-03-01T09:00:00.123456","source":" web ","is_qualified":true},{"lead_id":"L2","entered_at":"2025-03-03"}]`,
	"planned_engagements": `[{"id":"n1","client_id":"c1","name":"SEO","start_date":"2025-04-10","monthly_fee":900,"assigned_colleague_ids":["p1"]},{"id":"n2","start_date":""}]`,
}

func newBackend(t *testing.T, h http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	tr := &http.Transport{}
	t.Cleanup(func() {
		srv.Close()
		tr.CloseIdleConnections()
	})
	c := NewClient(&http.Client{Transport: tr, Timeout: 2 * time.Second}, ClientOptions{
		BaseURL:   srv.URL + "/rest/v1/",
		APIKey:    "secret",
		Retries:   2,
		RetryBase: time.Millisecond,
	})
	return c, srv
}

func fixtureHandler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("apikey"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		body, ok := fixtures[strings.TrimPrefix(r.URL.Path, "/rest/v1/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	})
}

func TestETLRun(t *testing.T) {
	c, _ := newBackend(t, fixtureHandler(t))
	repo := store.NewRepository(store.NewMemoryStore())

	res, err := NewETL(c, repo, zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, CollectionResult{Fetched: 2, Skipped: 1, Saved: 1}, res["clients"])
	assert.Equal(t, CollectionResult{Fetched: 4, Skipped: 2, Saved: 2}, res["engagements"])
	assert.Equal(t, CollectionResult{Fetched: 2, Skipped: 1, Saved: 1}, res["planned_engagements"])
	assert.Equal(t, 4, res["lead_transitions"].Saved)

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Acme", snap.Clients[0].Name)

	require.Len(t, snap.Engagements, 2)
	assert.Equal(t, models.EngagementActive, snap.Engagements[0].Status)
	assert.Nil(t, snap.Engagements[0].EndDate)
	require.NotNil(t, snap.Engagements[1].EndDate)
	assert.Equal(t, time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC), *snap.Engagements[1].EndDate)

	require.Len(t, snap.Assignments, 2)
	a1, a2 := snap.Assignments[0], snap.Assignments[1]
	require.NotNil(t, a1.MonthlyCost)
	assert.Equal(t, 500.0, *a1.MonthlyCost)
	assert.Nil(t, a1.HourlyCost, "fields outside the cost model are dropped")
	require.NotNil(t, a2.HourlyCost)
	assert.Zero(t, *a2.HourlyCost, "negative costs clamp to zero")
	assert.Equal(t, time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC), a2.StartDate)

	require.Len(t, snap.Colleagues, 3)
	assert.Equal(t, map[string]int{"meta": 4}, snap.Colleagues[0].CapacitySlots)
	assert.Equal(t, map[string]int{"meta": 3, "google": 2, "graphics": 2}, snap.Colleagues[1].CapacitySlots)
	assert.Equal(t, map[string]int{"meta": 3, "google": 2, "graphics": 2}, snap.Colleagues[2].CapacitySlots)

	require.Len(t, snap.Transitions, 4)
	assert.True(t, snap.Transitions[1].ConfirmedAt.IsZero(), "bad timestamps are kept as zero time")
	assert.Equal(t, "garbage", snap.Transitions[1].SourceRef)
	assert.Equal(t, []string{"t7", "t8"}, []string{snap.Transitions[2].SourceRef, snap.Transitions[3].SourceRef},
		"undated transitions of the same lead and stages stay distinct")

	require.Len(t, snap.LeadEntries, 2)
	assert.Equal(t, "web", snap.LeadEntries[0].Source)
	assert.Equal(t, time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), snap.LeadEntries[1].EnteredAt)

	require.Len(t, snap.Planned, 1)
	assert.Equal(t, []string{"p1"}, snap.Planned[0].AssignedColleagueIDs)
}

func TestETLRun_IsIdempotent(t *testing.T) {
	c, _ := newBackend(t, fixtureHandler(t))
	repo := store.NewRepository(store.NewMemoryStore())
	etl := NewETL(c, repo, zap.NewNop())

	_, err := etl.Run(context.Background())
	require.NoError(t, err)
	res, err := etl.Run(context.Background())
	require.NoError(t, err)
	assert.Zero(t, res["lead_transitions"].Saved, "transitions are append-only")

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Transitions, 4)
	assert.Len(t, snap.Engagements, 2)
}

func TestETLRun_FetchFailureWritesNothing(t *testing.T) {
	c, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/colleagues") {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		fixtureHandler(t).ServeHTTP(w, r)
	}))
	repo := store.NewRepository(store.NewMemoryStore())

	_, err := NewETL(c, repo, zap.NewNop()).Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch colleagues")

	snap, err := repo.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Clients)
}

func TestClientFetch_RetriesTransientErrors(t *testing.T) {
	var calls atomic.Int32
	c, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`[{"id":"c1"}]`))
	}))

	var rows []clientRow
	require.NoError(t, c.Fetch(context.Background(), "clients", &rows))
	assert.Equal(t, int32(3), calls.Load())
	assert.Len(t, rows, 1)
}

func TestClientFetch_GivesUpAfterRetries(t *testing.T) {
	var calls atomic.Int32
	c, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))

	var rows []clientRow
	err := c.Fetch(context.Background(), "clients", &rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-2xx: 429")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientFetch_ClientErrorsAreNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))

	var rows []clientRow
	require.Error(t, c.Fetch(context.Background(), "clients", &rows))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientFetch_BadJSONIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c, _ := newBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"not":"an array"`))
	}))

	var rows []clientRow
	require.Error(t, c.Fetch(context.Background(), "clients", &rows))
	assert.Equal(t, int32(1), calls.Load())
}

func TestClientFetch_NoBaseURL(t *testing.T) {
	c := NewClient(NewHTTPClient(time.Second), ClientOptions{})
	var rows []clientRow
	err := c.Fetch(context.Background(), "clients", &rows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "base url not configured")
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{"2025-02-01", time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC), true},
		{"2025-02-01T10:30:00+02:00", time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC), true},
		{"2025-02-01T10:30:00", time.Date(2025, 2, 1, 10, 30, 0, 0, time.UTC), true},
		{"2025-02-01 10:30:00.5+00", time.Date(2025, 2, 1, 10, 30, 0, 5e8, time.UTC), true},
		{"  ", time.Time{}, false},
		{"2025-13-01", time.Time{}, false},
		{"yesterday", time.Time{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}
