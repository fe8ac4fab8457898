package ingest

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/AngelCh415/agency-ops/internal/capacity"
	"github.com/AngelCh415/agency-ops/internal/models"
)

// Collection names on the backend.
const (
	colClients     = "clients"
	colEngagements = "engagements"
	colAssignments = "assignments"
	colColleagues  = "colleagues"
	colTransitions = "lead_transitions"
	colLeadEntries = "lead_entries"
	colPlanned     = "planned_engagements"
)

type clientRow struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type engagementRow struct {
	ID         string   `json:"id"`
	ClientID   string   `json:"client_id"`
	Name       string   `json:"name"`
	StartDate  string   `json:"start_date"`
	EndDate    *string  `json:"end_date"`
	MonthlyFee *float64 `json:"monthly_fee"`
	Status     string   `json:"status"`
}

type assignmentRow struct {
	ID                  string   `json:"id"`
	EngagementID        string   `json:"engagement_id"`
	ColleagueID         string   `json:"colleague_id"`
	StartDate           string   `json:"start_date"`
	EndDate             *string  `json:"end_date"`
	CostModel           string   `json:"cost_model"`
	MonthlyCost         *float64 `json:"monthly_cost"`
	HourlyCost          *float64 `json:"hourly_cost"`
	MonthlyHours        *float64 `json:"monthly_hours"`
	PercentageOfRevenue *float64 `json:"percentage_of_revenue"`
	Channel             *string  `json:"channel"`
}

type colleagueRow struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Position      string          `json:"position"`
	Status        string          `json:"status"`
	CapacitySlots json.RawMessage `json:"capacity_slots"`
}

type transitionRow struct {
	ID              string   `json:"id"`
	LeadID          string   `json:"lead_id"`
	FromStage       string   `json:"from_stage"`
	ToStage         string   `json:"to_stage"`
	ConfirmedAt     string   `json:"confirmed_at"`
	TransitionValue *float64 `json:"transition_value"`
}

type leadEntryRow struct {
	LeadID      string   `json:"lead_id"`
	EnteredAt   string   `json:"entered_at"`
	Source      *string  `json:"source"`
	IsQualified bool     `json:"is_qualified"`
	IsWon       bool     `json:"is_won"`
	Value       *float64 `json:"value"`
}

type plannedRow struct {
	ID                   string   `json:"id"`
	ClientID             string   `json:"client_id"`
	Name                 string   `json:"name"`
	StartDate            string   `json:"start_date"`
	MonthlyFee           *float64 `json:"monthly_fee"`
	AssignedColleagueIDs []string `json:"assigned_colleague_ids"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999Z07",
	"2006-01-02 15:04:05.999999999",
}

// parseDate accepts the date and timestamp shapes the backend emits and
// returns the instant in UTC.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

// parseEnd reads an optional end date. ok is false only when a value is
// present but unparseable.
func parseEnd(s *string) (end *time.Time, ok bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	t, ok := parseDate(*s)
	if !ok {
		return nil, false
	}
	return &t, true
}

func (r clientRow) toModel() (models.Client, bool) {
	if r.ID == "" {
		return models.Client{}, false
	}
	return models.Client{ID: r.ID, Name: strings.TrimSpace(r.Name)}, true
}

func (r engagementRow) toModel() (models.Engagement, bool) {
	start, ok := parseDate(r.StartDate)
	if !ok || r.ID == "" {
		return models.Engagement{}, false
	}
	end, ok := parseEnd(r.EndDate)
	if !ok {
		return models.Engagement{}, false
	}
	return models.Engagement{
		ID:         r.ID,
		ClientID:   r.ClientID,
		Name:       strings.TrimSpace(r.Name),
		StartDate:  start,
		EndDate:    end,
		MonthlyFee: maxf(deref(r.MonthlyFee)),
		Status:     models.EngagementStatus(norm(r.Status)),
	}, true
}

func (r assignmentRow) toModel() (models.Assignment, bool) {
	start, ok := parseDate(r.StartDate)
	if !ok || r.ID == "" {
		return models.Assignment{}, false
	}
	end, ok := parseEnd(r.EndDate)
	if !ok {
		return models.Assignment{}, false
	}
	a := models.Assignment{
		ID:           r.ID,
		EngagementID: r.EngagementID,
		ColleagueID:  r.ColleagueID,
		StartDate:    start,
		EndDate:      end,
		CostModel:    models.CostModel(norm(r.CostModel)),
		MonthlyHours: maxf(deref(r.MonthlyHours)),
	}
	if r.Channel != nil {
		a.Channel = norm(*r.Channel)
	}
	// Only the field selected by the cost model is carried.
	switch a.CostModel {
	case models.CostFixedMonthly:
		a.MonthlyCost = clampPtr(r.MonthlyCost)
	case models.CostHourly:
		a.HourlyCost = clampPtr(r.HourlyCost)
	case models.CostPercentage:
		a.PercentageOfRevenue = clampPtr(r.PercentageOfRevenue)
	}
	return a, true
}

func (r colleagueRow) toModel() (models.Colleague, bool) {
	if r.ID == "" {
		return models.Colleague{}, false
	}
	raw := r.CapacitySlots
	if string(raw) == "null" {
		raw = nil
	}
	return models.Colleague{
		ID:            r.ID,
		Name:          strings.TrimSpace(r.Name),
		Position:      strings.TrimSpace(r.Position),
		Status:        models.ColleagueStatus(norm(r.Status)),
		CapacitySlots: capacity.ParseSlots(raw),
	}, true
}

func (r transitionRow) toModel() (models.StageTransition, bool) {
	if r.LeadID == "" {
		return models.StageTransition{}, false
	}
	at, _ := parseDate(r.ConfirmedAt)
	ref := r.ID
	if ref == "" {
		ref = strings.TrimSpace(r.ConfirmedAt)
	}
	return models.StageTransition{
		LeadID:          r.LeadID,
		FromStage:       models.Stage(norm(r.FromStage)),
		ToStage:         models.Stage(norm(r.ToStage)),
		ConfirmedAt:     at,
		TransitionValue: maxf(deref(r.TransitionValue)),
		SourceRef:       ref,
	}, true
}

func (r leadEntryRow) toModel() (models.NewLeadEntry, bool) {
	if r.LeadID == "" {
		return models.NewLeadEntry{}, false
	}
	at, _ := parseDate(r.EnteredAt)
	src := ""
	if r.Source != nil {
		src = strings.TrimSpace(*r.Source)
	}
	return models.NewLeadEntry{
		LeadID:      r.LeadID,
		EnteredAt:   at,
		Source:      src,
		IsQualified: r.IsQualified,
		IsWon:       r.IsWon,
		Value:       maxf(deref(r.Value)),
	}, true
}

func (r plannedRow) toModel() (models.PlannedEngagement, bool) {
	start, ok := parseDate(r.StartDate)
	if !ok || r.ID == "" {
		return models.PlannedEngagement{}, false
	}
	ids := r.AssignedColleagueIDs
	if ids == nil {
		ids = []string{}
	}
	return models.PlannedEngagement{
		ID:                   r.ID,
		ClientID:             r.ClientID,
		Name:                 strings.TrimSpace(r.Name),
		StartDate:            start,
		MonthlyFee:           maxf(deref(r.MonthlyFee)),
		AssignedColleagueIDs: ids,
	}, true
}

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}

func clampPtr(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := maxf(*f)
	return &v
}

func maxf(f float64) float64 {
	if f < 0 {
		return 0
	}
	return f
}
