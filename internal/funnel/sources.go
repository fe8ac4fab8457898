package funnel

import (
	"strings"

	"github.com/AngelCh415/agency-ops/internal/aggregate"
	"github.com/AngelCh415/agency-ops/internal/models"
)

const unknownSource = "unknown"

// BySource breaks the intake down per lead source, largest source first.
func BySource(entries []models.NewLeadEntry) []models.SourceSummary {
	groups := aggregate.GroupBy(entries,
		func(e models.NewLeadEntry) string {
			s := strings.ToLower(strings.TrimSpace(e.Source))
			if s == "" {
				return unknownSource
			}
			return s
		},
		aggregate.Field[models.NewLeadEntry]{Name: "leads", Value: func(models.NewLeadEntry) float64 { return 1 }},
		aggregate.Field[models.NewLeadEntry]{Name: "qualified", Value: func(e models.NewLeadEntry) float64 { return boolf(e.IsQualified) }},
		aggregate.Field[models.NewLeadEntry]{Name: "won", Value: func(e models.NewLeadEntry) float64 { return boolf(e.IsWon) }},
		aggregate.Field[models.NewLeadEntry]{Name: "won_value", Value: func(e models.NewLeadEntry) float64 {
			if !e.IsWon {
				return 0
			}
			return e.Value
		}},
	).SortByTotal("leads", true)

	out := make([]models.SourceSummary, 0, groups.Len())
	for _, g := range groups.List() {
		leads := int(g.Total("leads"))
		qualified := int(g.Total("qualified"))
		won := int(g.Total("won"))
		out = append(out, models.SourceSummary{
			Source:            g.Key,
			Leads:             leads,
			Qualified:         qualified,
			Won:               won,
			WonValue:          aggregate.Round2(g.Total("won_value")),
			QualificationRate: aggregate.Round2(aggregate.Rate(qualified, leads)),
			WinRate:           aggregate.Round2(aggregate.Rate(won, leads)),
		})
	}
	return out
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
