package period

import (
	"time"

	"github.com/AngelCh415/agency-ops/internal/models"
)

// Overlaps reports whether a record running from start to end (nil = open
// ended) is active for any part of r. A zero start never matches.
func Overlaps(start time.Time, end *time.Time, r models.TimeRange) bool {
	if start.IsZero() {
		return false
	}
	if Day(start).After(r.End) {
		return false
	}
	return end == nil || end.IsZero() || !Day(*end).Before(r.Start)
}

// ActiveLike is the set of engagement statuses that count towards a period.
var ActiveLike = map[models.EngagementStatus]bool{
	models.EngagementActive:    true,
	models.EngagementCompleted: true,
}

func EngagementActiveIn(e models.Engagement, r models.TimeRange) bool {
	return ActiveLike[e.Status] && Overlaps(e.StartDate, e.EndDate, r)
}

func AssignmentActiveIn(a models.Assignment, r models.TimeRange) bool {
	return Overlaps(a.StartDate, a.EndDate, r)
}
