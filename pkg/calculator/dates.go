package calculator

import (
	"fmt"
	"time"
)

// DateLayout is the ISO calendar date accepted by every query.
const DateLayout = "2006-01-02"

// ParseDate parses "YYYY-MM-DD" as midnight of that calendar day in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation(DateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD (e.g. 2025-01-31): %w", err)
	}
	return t, nil
}

// FormatDate renders t as "YYYY-MM-DD".
func FormatDate(t time.Time) string {
	return t.Format(DateLayout)
}

// FormatMonth renders the cohort label "YYYY-MM".
func FormatMonth(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

// StartOfMonth returns the first instant of t's month, in t's location.
func StartOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// StartOfDay returns midnight of t's calendar day, in t's location.
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// EndOfDay returns the last nanosecond of t's calendar day.
func EndOfDay(t time.Time) time.Time {
	return StartOfDay(t).AddDate(0, 0, 1).Add(-time.Nanosecond)
}

// EndOfMonth returns the last nanosecond of t's month.
func EndOfMonth(t time.Time) time.Time {
	return StartOfMonth(t).AddDate(0, 1, 0).Add(-time.Nanosecond)
}

// SameDay reports whether a and b fall on the same calendar date.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

func totalMonths(t time.Time) int {
	return t.Year()*12 + int(t.Month())
}

// TrailingMonths returns the window covering the n full calendar months
// before now's month: first day of the first month, last day of the last.
func TrailingMonths(now time.Time, n int) (time.Time, time.Time) {
	current := StartOfMonth(now)
	start := current.AddDate(0, -n, 0)
	end := current.AddDate(0, 0, -1)
	return start, end
}

func daysBetweenInclusive(start, end time.Time) []time.Time {
	cur := StartOfDay(start)
	last := StartOfDay(end)
	var out []time.Time
	for !cur.After(last) {
		out = append(out, cur)
		cur = cur.AddDate(0, 0, 1)
	}
	return out
}

func hourLabel(h int) string {
	return fmt.Sprintf("%02d:00", h)
}
