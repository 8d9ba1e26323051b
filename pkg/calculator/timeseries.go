package calculator

import (
	"time"

	"github.com/shopspring/decimal"

	"ltv-analytics/pkg/models"
)

// BucketOrders aggregates the orders of [start, end] that match scope into
// hourly buckets when start and end are the same day, daily buckets
// otherwise. Every hour/day of the range gets a bucket, empty ones included.
func BucketOrders(orders []models.OrderRecord, start, end time.Time, scope models.Scope) []models.TimeBucket {
	start, end = StartOfDay(start), StartOfDay(end)
	if end.Before(start) {
		return nil
	}
	hourly := start.Equal(end)
	last := EndOfDay(end)

	var buckets []models.TimeBucket
	index := make(map[string]int)
	if hourly {
		for h := 0; h < 24; h++ {
			index[hourLabel(h)] = len(buckets)
			buckets = append(buckets, models.TimeBucket{Label: hourLabel(h)})
		}
	} else {
		for _, day := range daysBetweenInclusive(start, end) {
			index[FormatDate(day)] = len(buckets)
			buckets = append(buckets, models.TimeBucket{Label: FormatDate(day)})
		}
	}

	totals := make([]decimal.Decimal, len(buckets))
	for _, o := range orders {
		at := o.OccurredAt.In(start.Location())
		if at.Before(start) || at.After(last) || !scope.Matches(o) {
			continue
		}
		label := FormatDate(at)
		if hourly {
			label = hourLabel(at.Hour())
		}
		i, ok := index[label]
		if !ok {
			continue
		}
		buckets[i].OrderCount++
		totals[i] = totals[i].Add(decimal.NewFromFloat(o.Amount))
	}

	for i := range buckets {
		buckets[i].TotalAmount = totals[i].InexactFloat64()
		buckets[i].AOV = aov(totals[i], buckets[i].OrderCount)
	}
	return buckets
}

func aov(total decimal.Decimal, count int) float64 {
	if count == 0 {
		return 0
	}
	return total.Div(decimal.NewFromInt(int64(count))).InexactFloat64()
}

// MetricValue extracts the requested figure from a bucket.
func MetricValue(b models.TimeBucket, m models.Metric) float64 {
	switch m {
	case models.MetricOrders:
		return float64(b.OrderCount)
	case models.MetricAOV:
		return b.AOV
	default:
		return b.TotalAmount
	}
}

// MetricTotal folds the buckets into the overall figure. For AOV this is the
// overall average, not the mean of bucket averages.
func MetricTotal(buckets []models.TimeBucket, m models.Metric) float64 {
	count := 0
	amount := decimal.Zero
	for _, b := range buckets {
		count += b.OrderCount
		amount = amount.Add(decimal.NewFromFloat(b.TotalAmount))
	}
	switch m {
	case models.MetricOrders:
		return float64(count)
	case models.MetricAOV:
		return aov(amount, count)
	default:
		return amount.InexactFloat64()
	}
}

// PercentChange compares current against previous. A zero baseline reports
// 100 when current grew and 0 when both are zero.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return (current - previous) / previous * 100
}

// BuildTrend renders buckets as trend points, pairing them with compare
// buckets by label when compare is not nil.
func BuildTrend(current, compare []models.TimeBucket, m models.Metric) []models.TrendPoint {
	byLabel := make(map[string]models.TimeBucket, len(compare))
	for _, b := range compare {
		byLabel[b.Label] = b
	}

	out := make([]models.TrendPoint, 0, len(current))
	for _, b := range current {
		p := models.TrendPoint{
			Time:        b.Label,
			Current:     MetricValue(b, m),
			OrderCount:  b.OrderCount,
			TotalAmount: b.TotalAmount,
			AOV:         b.AOV,
		}
		if compare != nil {
			c := byLabel[b.Label]
			previous := MetricValue(c, m)
			count, amount := c.OrderCount, c.TotalAmount
			p.Previous = &previous
			p.CompareOrderCount = &count
			p.CompareTotalAmount = &amount
		}
		out = append(out, p)
	}
	return out
}
