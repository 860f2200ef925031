package ranking

import (
	"strings"
	"time"

	"splitboard/internal/models"
)

// Timeframe is the window applied to splits before aggregation.
type Timeframe string

const (
	AllTime Timeframe = "all-time"
	Weekly  Timeframe = "weekly"
	Monthly Timeframe = "monthly"
)

// ParseTimeframe maps a query value onto a Timeframe. Blank selects AllTime.
func ParseTimeframe(s string) (Timeframe, error) {
	switch tf := Timeframe(strings.ToLower(strings.TrimSpace(s))); tf {
	case "":
		return AllTime, nil
	case AllTime, Weekly, Monthly:
		return tf, nil
	default:
		return "", models.NewValidationError("Invalid timeframe. Use all-time, weekly or monthly.")
	}
}

// Since returns the inclusive lower bound of the window ending at now, and
// false when the window is unbounded.
func (tf Timeframe) Since(now time.Time) (time.Time, bool) {
	switch tf {
	case Weekly:
		return now.Add(-7 * 24 * time.Hour), true
	case Monthly:
		return oneMonthBefore(now), true
	default:
		return time.Time{}, false
	}
}

// oneMonthBefore keeps the day of month, clamped to the end of the previous
// month (March 31 becomes February 28 or 29).
func oneMonthBefore(now time.Time) time.Time {
	y, m, d := now.Date()
	hh, mm, ss := now.Clock()
	firstOfPrev := time.Date(y, m-1, 1, 0, 0, 0, 0, now.Location())
	lastDay := firstOfPrev.AddDate(0, 1, -1).Day()
	if d > lastDay {
		d = lastDay
	}
	return time.Date(firstOfPrev.Year(), firstOfPrev.Month(), d, hh, mm, ss, now.Nanosecond(), now.Location())
}

// FilterWindow keeps splits created at or after since.
func FilterWindow(dataset []models.ScoredSplit, since time.Time) []models.ScoredSplit {
	out := make([]models.ScoredSplit, 0, len(dataset))
	for _, s := range dataset {
		if !s.CreatedAt.Before(since) {
			out = append(out, s)
		}
	}
	return out
}
