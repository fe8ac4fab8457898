package models

import "time"

type StageConversion struct {
	From        Stage   `json:"from"`
	To          Stage   `json:"to"`
	Transitions int     `json:"transitions"`
	Denominator int     `json:"denominator"`
	Rate        float64 `json:"rate"`
}

type TrendPoint struct {
	Month   string  `json:"month"` // YYYY-MM
	Entries int     `json:"entries"`
	Won     int     `json:"won"`
	Rate    float64 `json:"rate"`
}

type FunnelReport struct {
	TotalEntries int               `json:"total_entries"`
	StageEntries map[Stage]int     `json:"stage_entries"`
	Conversions  []StageConversion `json:"conversions"`
	Won          int               `json:"won"`
	OverallRate  float64           `json:"overall_rate"`
	Trend        []TrendPoint      `json:"trend"`
}

type SourceSummary struct {
	Source            string  `json:"source"`
	Leads             int     `json:"leads"`
	Qualified         int     `json:"qualified"`
	Won               int     `json:"won"`
	WonValue          float64 `json:"won_value"`
	QualificationRate float64 `json:"qualification_rate"`
	WinRate           float64 `json:"win_rate"`
}

type ClientRevenue struct {
	ClientID    string  `json:"client_id"`
	ClientName  string  `json:"client_name"`
	Engagements int     `json:"engagements"`
	MRR         float64 `json:"mrr"`
}

type RevenueReport struct {
	Range            TimeRange       `json:"range"`
	Clients          []ClientRevenue `json:"clients"`
	TotalMRR         float64         `json:"total_mrr"`
	AveragePerClient float64         `json:"average_per_client"`
}

type ColleagueEarnings struct {
	ColleagueID  string  `json:"colleague_id"`
	Name         string  `json:"name"`
	Assignments  int     `json:"assignments"`
	FixedMonthly float64 `json:"fixed_monthly"`
	Hourly       float64 `json:"hourly"`
	Percentage   float64 `json:"percentage"`
	Total        float64 `json:"total"`
}

type EarningsReport struct {
	Range               TimeRange           `json:"range"`
	Colleagues          []ColleagueEarnings `json:"colleagues"`
	Total               float64             `json:"total"`
	AveragePerColleague float64             `json:"average_per_colleague"`
}

type EventType string

const (
	EventFreed  EventType = "freed"
	EventFilled EventType = "filled"
)

type CapacityEvent struct {
	Date time.Time `json:"date"`
	Type EventType `json:"type"`
	Name string    `json:"name"`
}

type ChannelUtilization struct {
	Channel      string  `json:"channel"`
	Capacity     int     `json:"capacity"`
	Current      int     `json:"current"`
	AfterEndings int     `json:"after_endings"`
	AfterNew     int     `json:"after_new"`
	Ratio        float64 `json:"ratio"`
}

type Projection struct {
	ColleagueID  string               `json:"colleague_id"`
	Name         string               `json:"name"`
	PrimarySlot  string               `json:"primary_slot"`
	Current      int                  `json:"current"`
	AfterEndings int                  `json:"after_endings"`
	AfterNew     int                  `json:"after_new"`
	Ratio        float64              `json:"ratio"`
	Channels     []ChannelUtilization `json:"channels"`
	Events       []CapacityEvent      `json:"events"`
	HasChanges   bool                 `json:"has_changes"`
}

type CapacityReport struct {
	Year       int          `json:"year"`
	Month      int          `json:"month"`
	Colleagues []Projection `json:"colleagues"`
}
