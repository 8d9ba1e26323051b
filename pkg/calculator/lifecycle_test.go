package calculator

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"ltv-analytics/pkg/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func pointFor(t *testing.T, points []models.ActivityPoint, tick string) models.ActivityPoint {
	t.Helper()
	for _, p := range points {
		if p.Tick == tick {
			return p
		}
	}
	t.Fatalf("tick %s not found", tick)
	return models.ActivityPoint{}
}

func TestClassifyLifecycle_SingleOrderCustomer(t *testing.T) {
	T := time.Date(2025, time.March, 1, 10, 0, 0, 0, time.UTC)
	histories := BuildHistories([]models.OrderRecord{order("a", T, 10)}, time.UTC)

	start := day(2025, time.February, 20)
	end := day(2025, time.May, 10)
	points := ClassifyLifecycle(histories, start, end)
	if len(points) != len(daysBetweenInclusive(start, end)) {
		t.Fatalf("got %d points", len(points))
	}

	before := pointFor(t, points, "2025-02-28")
	if before != (models.ActivityPoint{Tick: "2025-02-28"}) {
		t.Fatalf("customer counted before first order: %+v", before)
	}

	if p := pointFor(t, points, FormatDate(T.AddDate(0, 0, 59))); p.Active != 1 || p.Lost != 0 {
		t.Fatalf("expected active at T+59d: %+v", p)
	}
	if p := pointFor(t, points, FormatDate(T.AddDate(0, 0, 61))); p.Active != 0 || p.Lost != 1 {
		t.Fatalf("expected lost at T+61d: %+v", p)
	}

	totalNew := 0
	for _, p := range points {
		totalNew += p.NewCustomers
		if p.NewCustomers > 0 && p.Tick != "2025-03-01" {
			t.Fatalf("new customer counted on %s", p.Tick)
		}
	}
	if totalNew != 1 {
		t.Fatalf("newCustomers incremented %d times, want 1", totalNew)
	}
}

func TestClassifyLifecycle_LatestOrderDrivesActivity(t *testing.T) {
	histories := BuildHistories([]models.OrderRecord{
		order("a", time.Date(2025, time.January, 1, 8, 0, 0, 0, time.UTC), 10),
		order("a", time.Date(2025, time.March, 20, 8, 0, 0, 0, time.UTC), 10),
	}, time.UTC)
	points := ClassifyLifecycle(histories, day(2025, time.March, 10), day(2025, time.March, 25))

	if p := pointFor(t, points, "2025-03-10"); p.Lost != 1 || p.Active != 0 {
		t.Fatalf("expected lost before reorder: %+v", p)
	}
	if p := pointFor(t, points, "2025-03-20"); p.Active != 1 || p.Lost != 0 {
		t.Fatalf("expected active after reorder: %+v", p)
	}
}

func TestClassifyLifecycle_SingleDayRepeatsDayLevelCounts(t *testing.T) {
	histories := BuildHistories([]models.OrderRecord{
		order("old", time.Date(2024, time.January, 5, 9, 0, 0, 0, time.UTC), 10),
		order("recent", time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC), 10),
		order("n1", time.Date(2025, time.April, 1, 9, 30, 0, 0, time.UTC), 10),
		order("n2", time.Date(2025, time.April, 1, 9, 45, 0, 0, time.UTC), 10),
		order("n3", time.Date(2025, time.April, 1, 17, 5, 0, 0, time.UTC), 10),
	}, time.UTC)
	points := ClassifyLifecycle(histories, day(2025, time.April, 1), day(2025, time.April, 1))
	if len(points) != 24 {
		t.Fatalf("got %d hourly points, want 24", len(points))
	}
	for _, p := range points {
		if p.Active != 4 || p.Lost != 1 {
			t.Fatalf("hour %s: active=%d lost=%d, want 4/1", p.Tick, p.Active, p.Lost)
		}
	}
	if pointFor(t, points, "09:00").NewCustomers != 2 || pointFor(t, points, "17:00").NewCustomers != 1 {
		t.Fatalf("unexpected hourly new customers: %+v", points)
	}
	if pointFor(t, points, "00:00").NewCustomers != 0 {
		t.Fatalf("unexpected new customers at midnight")
	}
}

func TestClassifyLifecycle_EmptyHistories(t *testing.T) {
	points := ClassifyLifecycle(nil, day(2025, time.April, 1), day(2025, time.April, 3))
	want := []models.ActivityPoint{{Tick: "2025-04-01"}, {Tick: "2025-04-02"}, {Tick: "2025-04-03"}}
	if diff := cmp.Diff(want, points); diff != "" {
		t.Fatalf("unexpected points (-want +got):\n%s", diff)
	}
}

func TestMergeLifecycle(t *testing.T) {
	current := []models.ActivityPoint{
		{Tick: "09:00", NewCustomers: 2, Active: 5, Lost: 1},
		{Tick: "10:00", NewCustomers: 1, Active: 5, Lost: 1},
	}
	compare := []models.ActivityPoint{
		{Tick: "10:00", NewCustomers: 3, Active: 4, Lost: 2},
		{Tick: "11:00", NewCustomers: 1, Active: 4, Lost: 2},
	}
	got := MergeLifecycle(current, compare)
	if len(got) != 3 {
		t.Fatalf("got %d points, want 3", len(got))
	}
	if *got[0].CompareNewCustomers != 0 || *got[0].CompareActive != 0 || *got[0].CompareLost != 0 {
		t.Fatalf("missing compare tick should be zero: %+v", got[0])
	}
	if *got[1].CompareNewCustomers != 3 || *got[1].CompareActive != 4 {
		t.Fatalf("compare tick not merged: %+v", got[1])
	}
	if got[2].Tick != "11:00" || got[2].Active != 0 || *got[2].CompareNewCustomers != 1 {
		t.Fatalf("compare-only tick wrong: %+v", got[2])
	}
}

func TestMergeLifecycle_NoCompare(t *testing.T) {
	got := MergeLifecycle([]models.ActivityPoint{{Tick: "2025-01-01", Active: 1}}, nil)
	if len(got) != 1 || got[0].CompareActive != nil {
		t.Fatalf("unexpected merge without compare: %+v", got)
	}
}
