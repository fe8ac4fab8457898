package metrics

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/AngelCh415/agency-ops/internal/aggregate"
	"github.com/AngelCh415/agency-ops/internal/capacity"
	"github.com/AngelCh415/agency-ops/internal/funnel"
	"github.com/AngelCh415/agency-ops/internal/models"
	"github.com/AngelCh415/agency-ops/internal/period"
	"github.com/AngelCh415/agency-ops/internal/store"
)

type Options struct {
	Classifier           *capacity.Classifier
	PerAssignmentChannel bool
	TrendMonths          int
	// Now defaults to time.Now.
	Now func() time.Time
	// Registerer receives the compute histogram; nil leaves it unregistered.
	Registerer prometheus.Registerer
}

// Service reads a snapshot from the repository and runs the report engines
// over it. Report methods never fail on bad data, only on store errors.
type Service struct {
	repo          *store.Repository
	now           func() time.Time
	cls           *capacity.Classifier
	perAssignment bool
	trendMonths   int
	compute       *prometheus.HistogramVec
}

func NewService(repo *store.Repository, opts Options) *Service {
	s := &Service{
		repo:          repo,
		now:           opts.Now,
		cls:           opts.Classifier,
		perAssignment: opts.PerAssignmentChannel,
		trendMonths:   opts.TrendMonths,
		compute: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agency_ops",
			Name:      "report_compute_seconds",
			Help:      "Time spent loading and computing a report.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"report"}),
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.cls == nil {
		s.cls = capacity.NewClassifier(nil, "")
	}
	if s.trendMonths <= 0 {
		s.trendMonths = funnel.DefaultTrendMonths
	}
	if opts.Registerer != nil {
		opts.Registerer.MustRegister(s.compute)
	}
	return s
}

func (s *Service) Now() time.Time { return s.now() }

// Query selects the period a report covers.
type Query struct {
	Selector period.Selector
	// Scoped restricts the funnel and source reports to the selected period.
	// Unscoped reports read the whole log.
	Scoped bool
	// Months overrides the funnel trend length when > 0.
	Months int
}

// ParseQuery reads mode, year, month, quarter and months. Missing or
// malformed values fall back to the current period.
func (s *Service) ParseQuery(v url.Values) Query {
	now := s.now()
	month := atoiDef(v.Get("month"), int(now.Month()))
	return Query{
		Selector: period.Selector{
			Mode:    period.ParseMode(v.Get("mode")),
			Year:    atoiDef(v.Get("year"), now.Year()),
			Month:   month,
			Quarter: atoiDef(v.Get("quarter"), (clampMonth(month)-1)/3+1),
		},
		Scoped: strings.TrimSpace(v.Get("mode")) != "",
		Months: atoiDef(v.Get("months"), 0),
	}
}

func (s *Service) Range(q Query) models.TimeRange {
	return period.Resolve(q.Selector, s.now())
}

func (s *Service) Funnel(ctx context.Context, q Query) (models.FunnelReport, error) {
	defer s.observe("funnel")()
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return models.FunnelReport{}, err
	}
	transitions, entries := snap.Transitions, snap.LeadEntries
	if q.Scoped {
		r := s.Range(q)
		transitions = filter(transitions, func(t models.StageTransition) bool { return period.Contains(r, t.ConfirmedAt) })
		entries = filter(entries, func(e models.NewLeadEntry) bool { return period.Contains(r, e.EnteredAt) })
	}
	months := s.trendMonths
	if q.Months > 0 {
		months = q.Months
	}
	// The trend always reads the full log so each month sees its own entries.
	rep := funnel.Calculate(transitions, entries, funnel.Options{})
	rep.Trend = funnel.Calculate(snap.Transitions, snap.LeadEntries, funnel.Options{Now: s.now(), TrendMonths: months}).Trend
	return rep, nil
}

func (s *Service) Sources(ctx context.Context, q Query) ([]models.SourceSummary, error) {
	defer s.observe("sources")()
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	entries := snap.LeadEntries
	if q.Scoped {
		r := s.Range(q)
		entries = filter(entries, func(e models.NewLeadEntry) bool { return period.Contains(r, e.EnteredAt) })
	}
	return funnel.BySource(entries), nil
}

func (s *Service) Revenue(ctx context.Context, q Query) (models.RevenueReport, error) {
	defer s.observe("revenue")()
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return models.RevenueReport{}, err
	}
	return aggregate.ActiveClientsByMRR(snap.Engagements, snap.Clients, s.Range(q)), nil
}

func (s *Service) Earnings(ctx context.Context, q Query) (models.EarningsReport, error) {
	defer s.observe("earnings")()
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return models.EarningsReport{}, err
	}
	return aggregate.TeamEarnings(snap.Assignments, snap.Engagements, snap.Colleagues, s.Range(q)), nil
}

// Capacity projects the selected month and records the projection in the
// capacity history.
func (s *Service) Capacity(ctx context.Context, q Query) (models.CapacityReport, error) {
	defer s.observe("capacity")()
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return models.CapacityReport{}, err
	}
	year, month := q.Selector.Year, clampMonth(q.Selector.Month)
	if year <= 0 {
		year = s.now().Year()
	}
	rep := models.CapacityReport{
		Year:  year,
		Month: month,
		Colleagues: capacity.Project(capacity.Input{
			Year:                 year,
			Month:                month,
			Colleagues:           snap.Colleagues,
			Assignments:          snap.Assignments,
			Engagements:          snap.Engagements,
			Clients:              snap.Clients,
			Planned:              snap.Planned,
			Classifier:           s.cls,
			PerAssignmentChannel: s.perAssignment,
		}),
	}
	if err := s.history(year, month).Save(ctx, rep.Colleagues); err != nil {
		return models.CapacityReport{}, err
	}
	return rep, nil
}

// CapacityHistory returns the last projection recorded for a month, empty
// if none was.
func (s *Service) CapacityHistory(ctx context.Context, year, month int) ([]models.Projection, error) {
	return s.history(year, clampMonth(month)).Get(ctx)
}

func (s *Service) history(year, month int) *store.KeyedList[models.Projection] {
	return store.NewKeyedList[models.Projection](s.repo.Backend(), fmt.Sprintf("capacity:%04d-%02d", year, month))
}

func (s *Service) observe(report string) func() {
	start := time.Now()
	return func() { s.compute.WithLabelValues(report).Observe(time.Since(start).Seconds()) }
}

func filter[T any](items []T, keep func(T) bool) []T {
	out := make([]T, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}

func atoiDef(s string, d int) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return d
	}
	return v
}

func clampMonth(m int) int {
	if m < 1 {
		return 1
	}
	if m > 12 {
		return 12
	}
	return m
}

// Ready reports whether the repository answers reads.
func (s *Service) Ready(ctx context.Context) error {
	_, err := s.repo.Planned(ctx)
	return err
}
