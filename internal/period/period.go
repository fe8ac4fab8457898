// Package period resolves reporting periods into inclusive date ranges and
// decides which dated records fall inside them.
package period

import (
	"strings"
	"time"

	"github.com/AngelCh415/agency-ops/internal/models"
)

type Mode string

const (
	Month    Mode = "month"
	Quarter  Mode = "quarter"
	YTD      Mode = "ytd"
	Year     Mode = "year"
	LastYear Mode = "last_year"
)

// ParseMode maps a selector string to a Mode; unknown values become Month.
func ParseMode(s string) Mode {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case Month, Quarter, YTD, Year, LastYear:
		return m
	case "last-year", "lastyear":
		return LastYear
	}
	return Month
}

type Selector struct {
	Mode    Mode
	Year    int
	Month   int
	Quarter int
}

// Resolve turns a selector into a TimeRange. now is the caller's notion of
// today and is only consulted for ytd, last_year and a missing year.
func Resolve(sel Selector, now time.Time) models.TimeRange {
	today := Day(now)
	year := sel.Year
	if year <= 0 {
		year = today.Year()
	}

	switch sel.Mode {
	case Quarter:
		q := clamp(sel.Quarter, 1, 4)
		first := time.Month((q-1)*3 + 1)
		return models.TimeRange{
			Start: date(year, first, 1),
			End:   lastDay(year, first+2),
		}
	case YTD:
		start := date(year, time.January, 1)
		end := date(year, time.December, 31)
		if today.Before(end) {
			end = today
		}
		if end.Before(start) {
			end = start
		}
		return models.TimeRange{Start: start, End: end}
	case Year:
		return models.TimeRange{Start: date(year, time.January, 1), End: date(year, time.December, 31)}
	case LastYear:
		y := today.Year() - 1
		return models.TimeRange{Start: date(y, time.January, 1), End: date(y, time.December, 31)}
	default:
		return MonthRange(year, sel.Month)
	}
}

// MonthRange is the first through last calendar day of (year, month).
func MonthRange(year, month int) models.TimeRange {
	m := time.Month(clamp(month, 1, 12))
	return models.TimeRange{Start: date(year, m, 1), End: lastDay(year, m)}
}

// LastMonths returns the n calendar months ending with the month of now,
// oldest first.
func LastMonths(now time.Time, n int) []models.TimeRange {
	if n <= 0 {
		return nil
	}
	today := Day(now)
	out := make([]models.TimeRange, 0, n)
	for i := n - 1; i >= 0; i-- {
		first := date(today.Year(), today.Month(), 1).AddDate(0, -i, 0)
		out = append(out, MonthRange(first.Year(), int(first.Month())))
	}
	return out
}

// Contains reports whether t falls on a day inside r.
func Contains(r models.TimeRange, t time.Time) bool {
	if t.IsZero() {
		return false
	}
	d := Day(t)
	return !d.Before(r.Start) && !d.After(r.End)
}

// Day truncates t to midnight UTC of its calendar day.
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func lastDay(y int, m time.Month) time.Time {
	return date(y, m+1, 1).AddDate(0, 0, -1)
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
