package models

import "time"

// TimeRange is an inclusive calendar-day range. Start <= End always holds for
// ranges produced by the period package.
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

type EngagementStatus string

const (
	EngagementActive    EngagementStatus = "active"
	EngagementCompleted EngagementStatus = "completed"
	EngagementCancelled EngagementStatus = "cancelled"
	EngagementPlanned   EngagementStatus = "planned"
)

type CostModel string

const (
	CostHourly       CostModel = "hourly"
	CostFixedMonthly CostModel = "fixed_monthly"
	CostPercentage   CostModel = "percentage"
)

type ColleagueStatus string

const (
	ColleagueActive ColleagueStatus = "active"
	ColleagueOnHold ColleagueStatus = "on_hold"
	ColleagueLeft   ColleagueStatus = "left"
)

type Stage string

const (
	StageNewLead        Stage = "new_lead"
	StageMeetingDone    Stage = "meeting_done"
	StageWaitingAccess  Stage = "waiting_access"
	StageAccessReceived Stage = "access_received"
	StagePreparingOffer Stage = "preparing_offer"
	StageOfferSent      Stage = "offer_sent"
	StageWon            Stage = "won"
	StageLost           Stage = "lost"
	StagePostponed      Stage = "postponed"
)

type Client struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Engagement is a client retainer. It is never deleted; termination sets EndDate.
type Engagement struct {
	ID         string           `json:"id"`
	ClientID   string           `json:"client_id"`
	Name       string           `json:"name"`
	StartDate  time.Time        `json:"start_date"`
	EndDate    *time.Time       `json:"end_date,omitempty"`
	MonthlyFee float64          `json:"monthly_fee"`
	Status     EngagementStatus `json:"status"`
}

// Assignment allocates a colleague to an engagement. Exactly one of the cost
// fields is set, selected by CostModel.
type Assignment struct {
	ID                  string     `json:"id"`
	EngagementID        string     `json:"engagement_id"`
	ColleagueID         string     `json:"colleague_id"`
	StartDate           time.Time  `json:"start_date"`
	EndDate             *time.Time `json:"end_date,omitempty"`
	CostModel           CostModel  `json:"cost_model"`
	MonthlyCost         *float64   `json:"monthly_cost,omitempty"`
	HourlyCost          *float64   `json:"hourly_cost,omitempty"`
	MonthlyHours        float64    `json:"monthly_hours,omitempty"`
	PercentageOfRevenue *float64   `json:"percentage_of_revenue,omitempty"`
	Channel             string     `json:"channel,omitempty"`
}

type Colleague struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Position      string          `json:"position"`
	Status        ColleagueStatus `json:"status"`
	CapacitySlots map[string]int  `json:"capacity_slots,omitempty"`
}

// StageTransition is an entry of the append-only lead stage log.
type StageTransition struct {
	LeadID          string    `json:"lead_id"`
	FromStage       Stage     `json:"from_stage"`
	ToStage         Stage     `json:"to_stage"`
	ConfirmedAt     time.Time `json:"confirmed_at"`
	TransitionValue float64   `json:"transition_value"`
	// SourceRef is the backend row id, or the raw timestamp when the row has
	// none. It tells apart undated transitions of the same lead and stages.
	SourceRef string `json:"source_ref,omitempty"`
}

// NewLeadEntry is one lead of the intake population, including leads that
// never left the first stage.
type NewLeadEntry struct {
	LeadID      string    `json:"lead_id"`
	EnteredAt   time.Time `json:"entered_at"`
	Source      string    `json:"source"`
	IsQualified bool      `json:"is_qualified"`
	IsWon       bool      `json:"is_won"`
	Value       float64   `json:"value"`
}

// PlannedEngagement is an incoming engagement start not yet in the engagement table.
type PlannedEngagement struct {
	ID                   string    `json:"id"`
	ClientID             string    `json:"client_id"`
	Name                 string    `json:"name"`
	StartDate            time.Time `json:"start_date"`
	MonthlyFee           float64   `json:"monthly_fee"`
	AssignedColleagueIDs []string  `json:"assigned_colleague_ids"`
}

// Snapshot is a consistent read of every input collection.
type Snapshot struct {
	Clients     []Client            `json:"clients"`
	Engagements []Engagement        `json:"engagements"`
	Assignments []Assignment        `json:"assignments"`
	Colleagues  []Colleague         `json:"colleagues"`
	Transitions []StageTransition   `json:"transitions"`
	LeadEntries []NewLeadEntry      `json:"lead_entries"`
	Planned     []PlannedEngagement `json:"planned"`
}
