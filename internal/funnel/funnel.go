// Package funnel computes lead pipeline conversion rates from the stage
// transition log and the intake population.
package funnel

import (
	"time"

	"github.com/AngelCh415/agency-ops/internal/aggregate"
	"github.com/AngelCh415/agency-ops/internal/models"
	"github.com/AngelCh415/agency-ops/internal/period"
)

// StageOrder is the main pipeline chain. Lost and postponed sit outside it.
var StageOrder = []models.Stage{
	models.StageNewLead,
	models.StageMeetingDone,
	models.StageWaitingAccess,
	models.StageAccessReceived,
	models.StagePreparingOffer,
	models.StageOfferSent,
	models.StageWon,
}

const DefaultTrendMonths = 6

type Options struct {
	Now         time.Time
	TrendMonths int
}

type pair struct{ from, to models.Stage }

// Calculate builds the conversion report. The first step is measured against
// the whole intake population, later steps against entries into the step's
// source stage.
func Calculate(transitions []models.StageTransition, entries []models.NewLeadEntry, opts Options) models.FunnelReport {
	stageEntries := make(map[models.Stage]int, len(StageOrder))
	pairs := make(map[pair]int)
	for _, t := range transitions {
		stageEntries[t.ToStage]++
		pairs[pair{t.FromStage, t.ToStage}]++
	}

	rep := models.FunnelReport{
		TotalEntries: len(entries),
		StageEntries: make(map[models.Stage]int, len(StageOrder)),
		Conversions:  make([]models.StageConversion, 0, len(StageOrder)-1),
	}
	for _, s := range StageOrder {
		rep.StageEntries[s] = stageEntries[s]
	}

	for i := 0; i+1 < len(StageOrder); i++ {
		from, to := StageOrder[i], StageOrder[i+1]
		den := stageEntries[from]
		if from == models.StageNewLead {
			den = len(entries)
		}
		n := pairs[pair{from, to}]
		rep.Conversions = append(rep.Conversions, models.StageConversion{
			From:        from,
			To:          to,
			Transitions: n,
			Denominator: den,
			Rate:        aggregate.Round2(aggregate.Rate(n, den)),
		})
	}

	rep.Won = stageEntries[models.StageWon]
	rep.OverallRate = aggregate.Round2(aggregate.Rate(rep.Won, len(entries)))
	rep.Trend = trend(transitions, entries, opts)
	return rep
}

func trend(transitions []models.StageTransition, entries []models.NewLeadEntry, opts Options) []models.TrendPoint {
	n := opts.TrendMonths
	if n <= 0 {
		n = DefaultTrendMonths
	}
	if opts.Now.IsZero() {
		return nil
	}
	months := period.LastMonths(opts.Now, n)
	out := make([]models.TrendPoint, 0, len(months))
	for _, m := range months {
		var entered, won int
		for _, e := range entries {
			if period.Contains(m, e.EnteredAt) {
				entered++
			}
		}
		for _, t := range transitions {
			if t.ToStage == models.StageWon && period.Contains(m, t.ConfirmedAt) {
				won++
			}
		}
		out = append(out, models.TrendPoint{
			Month:   m.Start.Format("2006-01"),
			Entries: entered,
			Won:     won,
			Rate:    aggregate.Round2(aggregate.Rate(won, entered)),
		})
	}
	return out
}
