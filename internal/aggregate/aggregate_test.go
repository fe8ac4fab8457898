package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/agency-ops/internal/models"
	"github.com/AngelCh415/agency-ops/internal/period"
)

type row struct {
	key     string
	normal  float64
	express float64
}

var rowFields = []Field[row]{
	{Name: "normal", Value: func(r row) float64 { return r.normal }},
	{Name: "express", Value: func(r row) float64 { return r.express }},
}

func rowKey(r row) string { return r.key }

func f(v float64) *float64 { return &v }

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestGroupByInsertionOrder(t *testing.T) {
	rows := []row{
		{"b", 1, 0}, {"a", 2, 1}, {"b", 3, 4}, {"c", 0, 0},
	}
	g := GroupBy(rows, rowKey, rowFields...)
	require.Equal(t, 3, g.Len())

	list := g.List()
	assert.Equal(t, "b", list[0].Key)
	assert.Equal(t, "a", list[1].Key)
	assert.Equal(t, "c", list[2].Key)
	assert.Equal(t, 4.0, list[0].Total("normal"))
	assert.Equal(t, 4.0, list[0].Total("express"))
	assert.Len(t, list[0].Records, 2)
	assert.Equal(t, 6.0, g.Sum("normal"))
}

func TestGroupBySortByTotalStable(t *testing.T) {
	rows := []row{{"x", 5, 0}, {"y", 9, 0}, {"z", 5, 0}}
	g := GroupBy(rows, rowKey, rowFields...).SortByTotal("normal", true)
	keys := []string{}
	for _, grp := range g.List() {
		keys = append(keys, grp.Key)
	}
	assert.Equal(t, []string{"y", "x", "z"}, keys)
}

func TestGroupByEmpty(t *testing.T) {
	g := GroupBy(nil, rowKey, rowFields...)
	assert.Equal(t, 0, g.Len())
	assert.Empty(t, g.List())
	assert.Zero(t, g.Sum("normal"))
}

func TestGroupByIdempotent(t *testing.T) {
	rows := []row{{"a", 1.1, 2}, {"b", 3.3, 0}, {"a", 0.4, 1}}
	first := GroupBy(rows, rowKey, rowFields...)
	second := GroupBy(rows, rowKey, rowFields...)
	for _, g1 := range first.List() {
		g2, ok := second.Get(g1.Key)
		require.True(t, ok)
		assert.Equal(t, g1.Totals, g2.Totals)
	}
	assert.Equal(t, first.Sum("normal"), second.Sum("normal"))
}

func TestGroupsSumFollowsGroupOrder(t *testing.T) {
	rows := []row{{"a", 1e16, 0}, {"b", 1, 0}, {"c", -1e16, 0}, {"d", 1, 0}}
	want := GroupBy(rows, rowKey, rowFields...).Sum("normal")
	assert.Equal(t, 1.0, want)
	for i := 0; i < 200; i++ {
		require.Equal(t, want, GroupBy(rows, rowKey, rowFields...).Sum("normal"))
	}
}

func TestGroupBySkipsNonFinite(t *testing.T) {
	rows := []row{{"a", math.NaN(), math.Inf(1)}, {"a", 2, 3}}
	g := GroupBy(rows, rowKey, rowFields...)
	grp, _ := g.Get("a")
	assert.Equal(t, 2.0, grp.Total("normal"))
	assert.Equal(t, 3.0, grp.Total("express"))
}

func TestSafeDivAndRate(t *testing.T) {
	assert.Zero(t, SafeDiv(5, 0))
	assert.Zero(t, SafeDiv(math.Inf(1), 1))
	assert.Equal(t, 2.5, SafeDiv(5, 2))

	assert.Zero(t, Rate(3, 0))
	assert.Equal(t, 30.0, Rate(30, 100))
	assert.Equal(t, 100.0, Rate(120, 100))
}

func TestActiveClientsByMRR(t *testing.T) {
	end := day("2024-06-30")
	engagements := []models.Engagement{
		{ID: "e1", ClientID: "c1", StartDate: day("2024-01-01"), MonthlyFee: 1000, Status: models.EngagementActive},
		{ID: "e2", ClientID: "c2", StartDate: day("2024-01-01"), MonthlyFee: 3000, Status: models.EngagementActive},
		{ID: "e3", ClientID: "c1", StartDate: day("2024-03-01"), EndDate: &end, MonthlyFee: 2500, Status: models.EngagementCompleted},
		{ID: "e4", ClientID: "c3", StartDate: day("2024-01-01"), MonthlyFee: 9000, Status: models.EngagementCancelled},
		{ID: "e5", ClientID: "c4", StartDate: day("2024-09-01"), MonthlyFee: 500, Status: models.EngagementActive},
	}
	clients := []models.Client{{ID: "c1", Name: "Acme"}, {ID: "c2", Name: "Globex"}}

	rep := ActiveClientsByMRR(engagements, clients, period.MonthRange(2024, 4))
	require.Len(t, rep.Clients, 2)
	assert.Equal(t, "Acme", rep.Clients[0].ClientName)
	assert.Equal(t, 3500.0, rep.Clients[0].MRR)
	assert.Equal(t, 2, rep.Clients[0].Engagements)
	assert.Equal(t, "Globex", rep.Clients[1].ClientName)
	assert.Equal(t, 6500.0, rep.TotalMRR)
	assert.Equal(t, 3250.0, rep.AveragePerClient)

	empty := ActiveClientsByMRR(nil, nil, period.MonthRange(2024, 4))
	assert.Empty(t, empty.Clients)
	assert.Zero(t, empty.AveragePerClient)
}

func TestTeamEarningsUsesSelectedCostField(t *testing.T) {
	engagements := []models.Engagement{
		{ID: "e1", ClientID: "c1", StartDate: day("2024-01-01"), MonthlyFee: 2000, Status: models.EngagementActive},
		{ID: "e2", ClientID: "c2", StartDate: day("2024-01-01"), MonthlyFee: 4000, Status: models.EngagementPlanned},
	}
	colleagues := []models.Colleague{{ID: "p1", Name: "Jana"}, {ID: "p2", Name: "Petr"}}
	assignments := []models.Assignment{
		// MonthlyCost is set but the model is percentage: only the percentage counts.
		{ID: "a1", EngagementID: "e1", ColleagueID: "p1", StartDate: day("2024-01-01"),
			CostModel: models.CostPercentage, PercentageOfRevenue: f(10), MonthlyCost: f(999)},
		{ID: "a2", EngagementID: "e1", ColleagueID: "p2", StartDate: day("2024-01-01"),
			CostModel: models.CostFixedMonthly, MonthlyCost: f(800)},
		{ID: "a3", EngagementID: "e1", ColleagueID: "p1", StartDate: day("2024-01-01"),
			CostModel: models.CostHourly, HourlyCost: f(25), MonthlyHours: 10},
		{ID: "a4", EngagementID: "e2", ColleagueID: "p1", StartDate: day("2024-01-01"),
			CostModel: models.CostFixedMonthly, MonthlyCost: f(5000)},
		{ID: "a5", EngagementID: "missing", ColleagueID: "p1", StartDate: day("2024-01-01"),
			CostModel: models.CostFixedMonthly, MonthlyCost: f(5000)},
	}

	rep := TeamEarnings(assignments, engagements, colleagues, period.MonthRange(2024, 5))
	require.Len(t, rep.Colleagues, 2)

	assert.Equal(t, "Petr", rep.Colleagues[0].Name)
	assert.Equal(t, 800.0, rep.Colleagues[0].FixedMonthly)
	assert.Equal(t, 800.0, rep.Colleagues[0].Total)

	jana := rep.Colleagues[1]
	assert.Equal(t, 2, jana.Assignments)
	assert.Equal(t, 200.0, jana.Percentage)
	assert.Equal(t, 250.0, jana.Hourly)
	assert.Zero(t, jana.FixedMonthly)
	assert.Equal(t, 450.0, jana.Total)

	assert.Equal(t, 1250.0, rep.Total)
	assert.Equal(t, 625.0, rep.AveragePerColleague)
}
