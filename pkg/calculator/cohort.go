package calculator

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"ltv-analytics/pkg/duration"
	"ltv-analytics/pkg/models"
)

// cohortAcc accumulates the buckets of one acquisition month.
type cohortAcc struct {
	month    time.Time
	members  int
	sales    [models.RetentionHorizon]decimal.Decimal
	unique   [models.RetentionHorizon]map[string]struct{}
	retained [models.RetentionHorizon]map[string]struct{}
}

func newCohortAcc(month time.Time) *cohortAcc {
	acc := &cohortAcc{month: month}
	for i := range acc.unique {
		acc.unique[i] = make(map[string]struct{})
		acc.retained[i] = make(map[string]struct{})
	}
	return acc
}

// RelativeMonth returns the retention index of an order placed at `at` by a
// customer acquired at `first`. The acquisition month itself maps to -1: M0
// is the first calendar month after acquisition.
func RelativeMonth(first, at time.Time) int {
	return totalMonths(at) - totalMonths(first) - 1
}

// orderDurationMonths is the longest resolved supply duration across the
// order's line items, 1 when it has none. It never exceeds RetentionHorizon,
// which is as far as any coverage can reach.
func orderDurationMonths(o models.OrderRecord) int {
	longest := 1
	for _, li := range o.LineItems {
		if m := duration.ResolveMonths(li.DurationSpec); m > longest {
			longest = m
		}
	}
	return min(longest, models.RetentionHorizon)
}

// BuildCohorts groups customers whose lifetime first order falls in the
// calendar months [start, end] and folds every later order of theirs into
// the M0..M11 retention buckets. histories must hold complete order histories.
//
// An order at relative month i with supply duration D retains its customer in
// M[max(i,0)] through M[min(i+D-1, 11)]. Acquisition-month orders (i = -1)
// add no sales and only retain for the D-1 months after acquisition: a
// 3-month supply bought then covers M0 and M1.
func BuildCohorts(histories map[string]*models.CustomerHistory, start, end time.Time) []models.CohortReport {
	windowStart := StartOfMonth(start)
	windowEnd := StartOfMonth(end).AddDate(0, 1, 0)

	cohorts := make(map[string]*cohortAcc)
	for _, key := range sortedKeys(histories) {
		h := histories[key]
		first := h.FirstOrderAt
		if first.Before(windowStart) || !first.Before(windowEnd) {
			continue
		}
		label := FormatMonth(first)
		acc, ok := cohorts[label]
		if !ok {
			acc = newCohortAcc(StartOfMonth(first))
			cohorts[label] = acc
		}
		acc.members++

		for _, o := range h.Orders {
			idx := RelativeMonth(first, o.OccurredAt)
			if idx >= models.RetentionHorizon {
				continue
			}
			if idx >= 0 {
				acc.sales[idx] = acc.sales[idx].Add(decimal.NewFromFloat(o.Amount))
				acc.unique[idx][key] = struct{}{}
			}

			// Supply coverage spans the purchase month and the D-1 months
			// after it. An acquisition-month purchase only credits the part
			// of its coverage that reaches past the acquisition month.
			last := idx + orderDurationMonths(o) - 1
			if last > models.RetentionHorizon-1 {
				last = models.RetentionHorizon - 1
			}
			for i := max(idx, 0); i <= last; i++ {
				acc.retained[i][key] = struct{}{}
			}
		}
	}

	out := make([]models.CohortReport, 0, len(cohorts))
	for _, acc := range cohorts {
		out = append(out, acc.finalize())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cohort < out[j].Cohort })
	return out
}

func (acc *cohortAcc) finalize() models.CohortReport {
	report := models.CohortReport{
		Cohort:    FormatMonth(acc.month),
		Customers: acc.members,
	}

	reached := 0
	sum := 0.0
	for i := range report.Months {
		b := models.MonthBucket{
			Month:             fmt.Sprintf("M%d", i),
			TotalSales:        acc.sales[i].InexactFloat64(),
			UniqueCustomers:   len(acc.unique[i]),
			RetainedCustomers: len(acc.retained[i]),
		}
		if acc.members > 0 {
			b.RetentionFraction = float64(b.RetainedCustomers) / float64(acc.members)
		}
		if b.UniqueCustomers > 0 {
			b.AOV = acc.sales[i].Div(decimal.NewFromInt(int64(b.UniqueCustomers))).InexactFloat64()
		}
		if b.RetainedCustomers > 0 {
			reached++
			sum += b.RetentionFraction
		}
		report.Months[i] = b
	}
	// Months nobody has reached yet are left out of the average.
	if reached > 0 {
		report.AvgRetention = sum / float64(reached)
	}
	return report
}
