package calculator

import (
	"testing"
	"time"
)

func TestParseDate_Valid(t *testing.T) {
	got, err := ParseDate("2025-03-01", time.UTC)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestParseDate_Location(t *testing.T) {
	loc := time.FixedZone("IST", 5*3600+1800)
	got, err := ParseDate("2025-03-01", loc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Location() != loc || got.Hour() != 0 {
		t.Fatalf("expected local midnight, got %v", got)
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, in := range []string{"", "032025", "2025-13-01", "2025/01/01", "01-02-2025"} {
		if _, err := ParseDate(in, time.UTC); err == nil {
			t.Fatalf("expected error for %q", in)
		}
	}
}

func TestTrailingMonths(t *testing.T) {
	start, end := TrailingMonths(time.Date(2025, 3, 17, 12, 0, 0, 0, time.UTC), 12)
	if !start.Equal(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("start = %v", start)
	}
	if !end.Equal(time.Date(2025, 2, 28, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("end = %v", end)
	}
}

func TestDaysBetweenInclusive(t *testing.T) {
	got := daysBetweenInclusive(time.Date(2025, 2, 27, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC))
	if len(got) != 4 {
		t.Fatalf("got %d days, want 4", len(got))
	}
	if got[0].Day() != 27 || got[3].Day() != 2 {
		t.Fatalf("unexpected days: %v", got)
	}
}

func TestFormatMonth(t *testing.T) {
	d := time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC)
	if fm := FormatMonth(d); fm != "2025-11" {
		t.Fatalf("got %q, want %q", fm, "2025-11")
	}
}

func TestEndOfDay(t *testing.T) {
	got := EndOfDay(time.Date(2025, 1, 31, 8, 0, 0, 0, time.UTC))
	if got.Day() != 31 || got.Hour() != 23 || !got.Add(time.Nanosecond).Equal(time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected end of day %v", got)
	}
}
