package calculator

import (
	"sort"
	"time"

	"ltv-analytics/pkg/models"
)

// BuildHistories groups records by customer into time-ascending histories.
// Timestamps are moved into loc so that every calendar computation downstream
// uses the same zone. Records without a customer key are dropped.
func BuildHistories(records []models.OrderRecord, loc *time.Location) map[string]*models.CustomerHistory {
	if loc == nil {
		loc = time.UTC
	}
	out := make(map[string]*models.CustomerHistory)
	for _, r := range records {
		if r.CustomerKey == "" {
			continue
		}
		r.OccurredAt = r.OccurredAt.In(loc)
		h, ok := out[r.CustomerKey]
		if !ok {
			h = &models.CustomerHistory{CustomerKey: r.CustomerKey}
			out[r.CustomerKey] = h
		}
		h.Orders = append(h.Orders, r)
	}
	for _, h := range out {
		sort.SliceStable(h.Orders, func(i, j int) bool {
			return h.Orders[i].OccurredAt.Before(h.Orders[j].OccurredAt)
		})
		h.FirstOrderAt = h.Orders[0].OccurredAt
	}
	return out
}

// sortedKeys returns the customer keys in a stable order so that float sums
// do not depend on map iteration.
func sortedKeys(histories map[string]*models.CustomerHistory) []string {
	keys := make([]string, 0, len(histories))
	for k := range histories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// lastOrderAtOrBefore returns the latest order timestamp <= at.
func lastOrderAtOrBefore(h *models.CustomerHistory, at time.Time) (time.Time, bool) {
	i := sort.Search(len(h.Orders), func(i int) bool {
		return h.Orders[i].OccurredAt.After(at)
	})
	if i == 0 {
		return time.Time{}, false
	}
	return h.Orders[i-1].OccurredAt, true
}
