// Package period maps a reference date and a configured month start day onto
// concrete budget-month date ranges. Everything here is pure: no clocks, no
// timezone lookups, no state.
package period

import (
	"fmt"
	"time"
)

// MaxStartDay caps the configurable month start day. 28 is the largest value
// every calendar month contains, so no period can collapse or overflow.
const MaxStartDay = 28

// Period is one budget month as a half-open range: Start is the first day of
// the period, End is the first day of the next period. All values are dates
// at midnight UTC.
type Period struct {
	Start time.Time
	End   time.Time
}

// ForDate returns the budget period enclosing ref for the given month start
// day. With monthStartDay == 1 this is the calendar month of ref. With a
// later start day, dates before the start day belong to the period that
// began in the previous calendar month.
func ForDate(ref time.Time, monthStartDay int) (Period, error) {
	if monthStartDay < 1 || monthStartDay > MaxStartDay {
		return Period{}, fmt.Errorf("month start day must be between 1 and %d, got %d", MaxStartDay, monthStartDay)
	}
	y, m, d := ref.Date()
	startMonth := m
	if d < monthStartDay {
		startMonth-- // time.Date normalizes month 0 to December of the previous year
	}
	start := time.Date(y, startMonth, monthStartDay, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}, nil
}

// Parse resolves a stored period key (the YYYY-MM-DD start date written by
// Key) back into the enclosing period for the given month start day.
func Parse(key string, monthStartDay int) (Period, error) {
	t, err := time.Parse("2006-01-02", key)
	if err != nil {
		return Period{}, fmt.Errorf("invalid period key %q: %w", key, err)
	}
	return ForDate(t, monthStartDay)
}

// Key is the canonical storage key for the period: its start date.
func (p Period) Key() string {
	return p.Start.Format("2006-01-02")
}

// LastDay is the final day inside the period, for inclusive display.
func (p Period) LastDay() time.Time {
	return p.End.AddDate(0, 0, -1)
}

// Contains reports whether t falls inside the half-open range [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Next returns the period immediately after p.
func (p Period) Next() Period {
	return Period{Start: p.End, End: p.End.AddDate(0, 1, 0)}
}

// Prev returns the period immediately before p.
func (p Period) Prev() Period {
	return Period{Start: p.Start.AddDate(0, -1, 0), End: p.Start}
}
