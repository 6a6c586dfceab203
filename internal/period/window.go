// Package period resolves reporting periods into half-open time windows.
package period

import (
	"fmt"
	"strings"
	"time"

	"github.com/fkhayef/parkwise/internal/apperr"
)

// Period is the granularity of a report window
type Period string

const (
	Daily   Period = "daily"
	Weekly  Period = "weekly"
	Monthly Period = "monthly"
)

// Parse validates a period string, case-insensitively
func Parse(s string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case Daily, Weekly, Monthly:
		return p, nil
	}
	return "", fmt.Errorf("%q: %w", s, apperr.ErrInvalidPeriod)
}

// Window is the half-open interval [Start, End)
type Window struct {
	Start time.Time `json:"start_date"`
	End   time.Time `json:"end_date"`
}

// Contains reports whether t falls inside the window
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Current returns the window of the given period containing now, computed
// in loc. Weeks start on Sunday.
func Current(p Period, now time.Time, loc *time.Location) (Window, error) {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)

	switch p {
	case Daily:
		return Window{Start: day, End: day.AddDate(0, 0, 1)}, nil
	case Weekly:
		start := day.AddDate(0, 0, -int(local.Weekday()))
		return Window{Start: start, End: start.AddDate(0, 0, 7)}, nil
	case Monthly:
		start := time.Date(local.Year(), local.Month(), 1, 0, 0, 0, 0, loc)
		return Window{Start: start, End: start.AddDate(0, 1, 0)}, nil
	}
	return Window{}, fmt.Errorf("%q: %w", string(p), apperr.ErrInvalidPeriod)
}

// Previous returns the window immediately before the one containing now
func Previous(p Period, now time.Time, loc *time.Location) (Window, error) {
	cur, err := Current(p, now, loc)
	if err != nil {
		return Window{}, err
	}
	// Any instant just before the current start lies in the previous window.
	return Current(p, cur.Start.Add(-time.Nanosecond), loc)
}

// Resolve uses explicit bounds when both are supplied and otherwise derives
// the current window for p.
func Resolve(p Period, start, end *time.Time, now time.Time, loc *time.Location) (Window, error) {
	if _, err := Parse(string(p)); err != nil {
		return Window{}, err
	}
	if start != nil && end != nil {
		if !end.After(*start) {
			return Window{}, apperr.Invalid("end_date", "must be after start_date")
		}
		return Window{Start: *start, End: *end}, nil
	}
	return Current(p, now, loc)
}

// ParseDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates. Plain
// dates are midnight in loc.
func ParseDate(field, s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, apperr.Invalid(field, "must be YYYY-MM-DD or an RFC 3339 timestamp")
	}
	return &t, nil
}
