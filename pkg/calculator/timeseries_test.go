package calculator

import (
	"testing"
	"time"

	"ltv-analytics/pkg/models"
)

func TestBucketOrders_HourlyAOV(t *testing.T) {
	d := day(2025, time.April, 1)
	orders := []models.OrderRecord{
		order("a", d.Add(10*time.Hour), 50),
		order("b", d.Add(14*time.Hour+30*time.Minute), 150),
		order("c", d.Add(-time.Hour), 999),
		order("d", d.Add(24*time.Hour), 999),
	}
	buckets := BucketOrders(orders, d, d, models.ScopeAll)
	if len(buckets) != 24 {
		t.Fatalf("got %d buckets, want 24", len(buckets))
	}
	for h, b := range buckets {
		switch h {
		case 10:
			if b.AOV != 50 || b.OrderCount != 1 {
				t.Fatalf("hour 10: %+v", b)
			}
		case 14:
			if b.AOV != 150 || b.OrderCount != 1 {
				t.Fatalf("hour 14: %+v", b)
			}
		default:
			if b != (models.TimeBucket{Label: b.Label}) {
				t.Fatalf("hour %d should be empty: %+v", h, b)
			}
		}
	}
	if got := MetricTotal(buckets, models.MetricAOV); got != 100 {
		t.Fatalf("overall aov = %v, want 100", got)
	}
	if got := MetricTotal(buckets, models.MetricSales); got != 200 {
		t.Fatalf("total sales = %v, want 200", got)
	}
	if got := MetricTotal(buckets, models.MetricOrders); got != 2 {
		t.Fatalf("order count = %v, want 2", got)
	}
}

func TestBucketOrders_DailyWithEmptyDays(t *testing.T) {
	orders := []models.OrderRecord{
		order("a", time.Date(2025, time.April, 1, 9, 0, 0, 0, time.UTC), 20),
		order("b", time.Date(2025, time.April, 3, 23, 59, 0, 0, time.UTC), 40),
	}
	buckets := BucketOrders(orders, day(2025, time.April, 1), day(2025, time.April, 3), models.ScopeAll)
	if len(buckets) != 3 {
		t.Fatalf("got %d buckets, want 3", len(buckets))
	}
	if buckets[1] != (models.TimeBucket{Label: "2025-04-02"}) {
		t.Fatalf("empty day not zeroed: %+v", buckets[1])
	}
	if buckets[2].TotalAmount != 40 || buckets[2].Label != "2025-04-03" {
		t.Fatalf("unexpected last bucket: %+v", buckets[2])
	}
}

func TestBucketOrders_Scope(t *testing.T) {
	d := day(2025, time.April, 1)
	assisted := order("a", d.Add(9*time.Hour), 30)
	assisted.AgentAssisted = true
	orders := []models.OrderRecord{assisted, order("b", d.Add(9*time.Hour), 70)}

	if got := MetricTotal(BucketOrders(orders, d, d, models.ScopeAgent), models.MetricSales); got != 30 {
		t.Fatalf("agent scope total = %v, want 30", got)
	}
	if got := MetricTotal(BucketOrders(orders, d, d, models.ScopeSelf), models.MetricSales); got != 70 {
		t.Fatalf("self scope total = %v, want 70", got)
	}
}

func TestPercentChange(t *testing.T) {
	cases := []struct {
		current, previous, want float64
	}{
		{150, 100, 50},
		{50, 100, -50},
		{10, 0, 100},
		{0, 0, 0},
	}
	for _, tc := range cases {
		if got := PercentChange(tc.current, tc.previous); got != tc.want {
			t.Fatalf("PercentChange(%v, %v) = %v, want %v", tc.current, tc.previous, got, tc.want)
		}
	}
}

func TestBuildTrend_Compare(t *testing.T) {
	current := []models.TimeBucket{{Label: "10:00", OrderCount: 2, TotalAmount: 100, AOV: 50}}
	compare := []models.TimeBucket{{Label: "10:00", OrderCount: 1, TotalAmount: 40, AOV: 40}}

	trend := BuildTrend(current, compare, models.MetricSales)
	if len(trend) != 1 {
		t.Fatalf("got %d points", len(trend))
	}
	p := trend[0]
	if p.Current != 100 || p.Previous == nil || *p.Previous != 40 || *p.CompareOrderCount != 1 {
		t.Fatalf("unexpected point: %+v", p)
	}

	plain := BuildTrend(current, nil, models.MetricAOV)
	if plain[0].Current != 50 || plain[0].Previous != nil {
		t.Fatalf("unexpected plain point: %+v", plain[0])
	}
}
