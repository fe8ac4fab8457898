// Package capacity projects colleague slot utilization for a target month:
// what is assigned now, what frees up as engagements end, and what fills up
// as planned engagements start.
package capacity

import (
	"slices"
	"sort"

	"github.com/AngelCh415/agency-ops/internal/aggregate"
	"github.com/AngelCh415/agency-ops/internal/models"
	"github.com/AngelCh415/agency-ops/internal/period"
)

type Input struct {
	Year        int
	Month       int
	Colleagues  []models.Colleague
	Assignments []models.Assignment
	Engagements []models.Engagement
	Clients     []models.Client
	Planned     []models.PlannedEngagement

	// Classifier picks the primary slot; nil uses the default keyword table.
	Classifier *Classifier
	// PerAssignmentChannel attributes assignments carrying a Channel tag to
	// that channel instead of the colleague's primary slot.
	PerAssignmentChannel bool
}

// Project returns one projection per active colleague: colleagues with
// upcoming events first, then by current utilization descending.
func Project(in Input) []models.Projection {
	cls := in.Classifier
	if cls == nil {
		cls = NewClassifier(nil, "")
	}
	month := period.MonthRange(in.Year, in.Month)

	engagements := make(map[string]models.Engagement, len(in.Engagements))
	for _, e := range in.Engagements {
		engagements[e.ID] = e
	}
	clientNames := make(map[string]string, len(in.Clients))
	for _, c := range in.Clients {
		clientNames[c.ID] = c.Name
	}
	byColleague := make(map[string][]models.Assignment)
	for _, a := range in.Assignments {
		byColleague[a.ColleagueID] = append(byColleague[a.ColleagueID], a)
	}

	type ranked struct {
		p     models.Projection
		ratio float64
	}
	rs := make([]ranked, 0, len(in.Colleagues))
	for _, c := range in.Colleagues {
		if c.Status != models.ColleagueActive {
			continue
		}
		p, ratio := projectOne(c, byColleague[c.ID], in, month, cls, engagements, clientNames)
		rs = append(rs, ranked{p, ratio})
	}

	// Ordered on the unrounded ratio; Projection.Ratio is rounded for output.
	sort.SliceStable(rs, func(i, j int) bool {
		if rs[i].p.HasChanges != rs[j].p.HasChanges {
			return rs[i].p.HasChanges
		}
		return rs[i].ratio > rs[j].ratio
	})
	out := make([]models.Projection, len(rs))
	for i, r := range rs {
		out[i] = r.p
	}
	return out
}

type tally struct{ current, ending, planned int }

func projectOne(
	c models.Colleague,
	assignments []models.Assignment,
	in Input,
	month models.TimeRange,
	cls *Classifier,
	engagements map[string]models.Engagement,
	clientNames map[string]string,
) (models.Projection, float64) {
	slots := NormalizeSlots(c.CapacitySlots)
	primary := cls.Classify(c.Position)
	if _, ok := slots[primary]; !ok {
		slots[primary] = 0
	}

	p := models.Projection{ColleagueID: c.ID, Name: c.Name, PrimarySlot: primary, Events: []models.CapacityEvent{}}
	counts := make(map[string]*tally, len(slots))
	bucket := func(channel string) *tally {
		if channel == "" || !in.PerAssignmentChannel {
			channel = primary
		}
		if _, ok := slots[channel]; !ok {
			slots[channel] = 0
		}
		t, ok := counts[channel]
		if !ok {
			t = &tally{}
			counts[channel] = t
		}
		return t
	}

	for _, a := range assignments {
		e, ok := engagements[a.EngagementID]
		if !ok || e.Status != models.EngagementActive {
			continue
		}
		if a.EndDate != nil && !a.EndDate.IsZero() && !period.Day(*a.EndDate).After(month.Start) {
			continue
		}
		t := bucket(fold(a.Channel))
		t.current++
		if e.EndDate != nil && period.Contains(month, *e.EndDate) {
			t.ending++
			p.Events = append(p.Events, models.CapacityEvent{
				Date: period.Day(*e.EndDate),
				Type: models.EventFreed,
				Name: displayName(clientNames[e.ClientID], e.Name, e.ID),
			})
		}
	}

	for _, pl := range in.Planned {
		if !period.Contains(month, pl.StartDate) || !slices.Contains(pl.AssignedColleagueIDs, c.ID) {
			continue
		}
		bucket("").planned++
		p.Events = append(p.Events, models.CapacityEvent{
			Date: period.Day(pl.StartDate),
			Type: models.EventFilled,
			Name: displayName(clientNames[pl.ClientID], pl.Name, pl.ID),
		})
	}

	var totalCapacity int
	for _, ch := range Channels(slots) {
		t := counts[ch]
		if t == nil {
			t = &tally{}
		}
		u := models.ChannelUtilization{
			Channel:      ch,
			Capacity:     slots[ch],
			Current:      t.current,
			AfterEndings: t.current - t.ending,
		}
		u.AfterNew = u.AfterEndings + t.planned
		u.Ratio = aggregate.Round2(aggregate.SafeDiv(float64(u.Current), float64(u.Capacity)))
		p.Channels = append(p.Channels, u)

		p.Current += u.Current
		p.AfterEndings += u.AfterEndings
		p.AfterNew += u.AfterNew
		totalCapacity += u.Capacity
	}

	var ratio float64
	if in.PerAssignmentChannel {
		ratio = aggregate.SafeDiv(float64(p.Current), float64(totalCapacity))
	} else {
		ratio = aggregate.SafeDiv(float64(p.Current), float64(slots[primary]))
	}
	p.Ratio = aggregate.Round2(ratio)

	sort.SliceStable(p.Events, func(i, j int) bool {
		a, b := p.Events[i], p.Events[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Type == models.EventFreed && b.Type == models.EventFilled
	})
	p.HasChanges = len(p.Events) > 0
	return p, ratio
}

func displayName(candidates ...string) string {
	for _, s := range candidates {
		if s != "" {
			return s
		}
	}
	return ""
}

