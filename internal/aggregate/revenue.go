package aggregate

import (
	"github.com/AngelCh415/agency-ops/internal/models"
	"github.com/AngelCh415/agency-ops/internal/period"
)

const fieldMRR = "mrr"

// ActiveClientsByMRR sums monthly fees of engagements active in r per client,
// highest MRR first.
func ActiveClientsByMRR(engagements []models.Engagement, clients []models.Client, r models.TimeRange) models.RevenueReport {
	names := make(map[string]string, len(clients))
	for _, c := range clients {
		names[c.ID] = c.Name
	}

	active := make([]models.Engagement, 0, len(engagements))
	for _, e := range engagements {
		if period.EngagementActiveIn(e, r) {
			active = append(active, e)
		}
	}

	groups := GroupBy(active,
		func(e models.Engagement) string { return e.ClientID },
		Field[models.Engagement]{Name: fieldMRR, Value: func(e models.Engagement) float64 { return e.MonthlyFee }},
	).SortByTotal(fieldMRR, true)

	rep := models.RevenueReport{Range: r, Clients: make([]models.ClientRevenue, 0, groups.Len())}
	for _, g := range groups.List() {
		name := names[g.Key]
		if name == "" {
			name = g.Key
		}
		rep.Clients = append(rep.Clients, models.ClientRevenue{
			ClientID:    g.Key,
			ClientName:  name,
			Engagements: len(g.Records),
			MRR:         Round2(g.Total(fieldMRR)),
		})
	}
	rep.TotalMRR = Round2(groups.Sum(fieldMRR))
	rep.AveragePerClient = Round2(SafeDiv(rep.TotalMRR, float64(groups.Len())))
	return rep
}
