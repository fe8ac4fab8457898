package aggregate

import (
	"github.com/AngelCh415/agency-ops/internal/models"
	"github.com/AngelCh415/agency-ops/internal/period"
)

const (
	fieldFixed      = "fixed_monthly"
	fieldHourly     = "hourly"
	fieldPercentage = "percentage"
)

type costLine struct {
	a   models.Assignment
	fee float64
}

// costFields read only the cost field selected by the assignment's cost model.
var costFields = []Field[costLine]{
	{Name: fieldFixed, Value: func(l costLine) float64 {
		if l.a.CostModel != models.CostFixedMonthly || l.a.MonthlyCost == nil {
			return 0
		}
		return *l.a.MonthlyCost
	}},
	{Name: fieldHourly, Value: func(l costLine) float64 {
		if l.a.CostModel != models.CostHourly || l.a.HourlyCost == nil {
			return 0
		}
		return *l.a.HourlyCost * l.a.MonthlyHours
	}},
	{Name: fieldPercentage, Value: func(l costLine) float64 {
		if l.a.CostModel != models.CostPercentage || l.a.PercentageOfRevenue == nil {
			return 0
		}
		return *l.a.PercentageOfRevenue * l.fee / 100
	}},
}

// TeamEarnings totals what each colleague earns from assignments active in r
// whose engagement is also active in r. Colleagues are ordered by total,
// highest first.
func TeamEarnings(assignments []models.Assignment, engagements []models.Engagement, colleagues []models.Colleague, r models.TimeRange) models.EarningsReport {
	byID := make(map[string]models.Engagement, len(engagements))
	for _, e := range engagements {
		byID[e.ID] = e
	}
	names := make(map[string]string, len(colleagues))
	for _, c := range colleagues {
		names[c.ID] = c.Name
	}

	lines := make([]costLine, 0, len(assignments))
	for _, a := range assignments {
		e, ok := byID[a.EngagementID]
		if !ok || !period.EngagementActiveIn(e, r) || !period.AssignmentActiveIn(a, r) {
			continue
		}
		lines = append(lines, costLine{a: a, fee: e.MonthlyFee})
	}

	const fieldTotal = "total"
	fields := append(append([]Field[costLine]{}, costFields...), Field[costLine]{
		Name: fieldTotal,
		Value: func(l costLine) float64 {
			var s float64
			for _, f := range costFields {
				s += f.Value(l)
			}
			return s
		},
	})

	groups := GroupBy(lines, func(l costLine) string { return l.a.ColleagueID }, fields...).
		SortByTotal(fieldTotal, true)

	rep := models.EarningsReport{Range: r, Colleagues: make([]models.ColleagueEarnings, 0, groups.Len())}
	for _, g := range groups.List() {
		name := names[g.Key]
		if name == "" {
			name = g.Key
		}
		rep.Colleagues = append(rep.Colleagues, models.ColleagueEarnings{
			ColleagueID:  g.Key,
			Name:         name,
			Assignments:  len(g.Records),
			FixedMonthly: Round2(g.Total(fieldFixed)),
			Hourly:       Round2(g.Total(fieldHourly)),
			Percentage:   Round2(g.Total(fieldPercentage)),
			Total:        Round2(g.Total(fieldTotal)),
		})
	}
	rep.Total = Round2(groups.Sum(fieldTotal))
	rep.AveragePerColleague = Round2(SafeDiv(rep.Total, float64(groups.Len())))
	return rep
}
