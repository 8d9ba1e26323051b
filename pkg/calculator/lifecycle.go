package calculator

import (
	"time"

	"ltv-analytics/pkg/models"
)

// ActivityWindow is how long after their latest order a customer still counts
// as active.
const ActivityWindow = 60 * 24 * time.Hour

// ClassifyLifecycle counts new, active and lost customers for every tick of
// [start, end]. Multi-day ranges produce one tick per calendar day; a single
// day produces 24 hourly ticks that share the day-level active/lost counts
// while newCustomers is split by hour of first order.
//
// histories must contain each customer's full history up to end.
func ClassifyLifecycle(histories map[string]*models.CustomerHistory, start, end time.Time) []models.ActivityPoint {
	start, end = StartOfDay(start), StartOfDay(end)
	if end.Before(start) {
		return nil
	}

	if start.Equal(end) {
		return classifyHourly(histories, end)
	}

	newByDay := make(map[string]int)
	for _, h := range histories {
		newByDay[FormatDate(h.FirstOrderAt)]++
	}

	days := daysBetweenInclusive(start, end)
	out := make([]models.ActivityPoint, 0, len(days))
	for _, day := range days {
		active, lost := classifyAt(histories, EndOfDay(day))
		label := FormatDate(day)
		out = append(out, models.ActivityPoint{
			Tick:         label,
			NewCustomers: newByDay[label],
			Active:       active,
			Lost:         lost,
		})
	}
	return out
}

func classifyHourly(histories map[string]*models.CustomerHistory, day time.Time) []models.ActivityPoint {
	var newByHour [24]int
	for _, h := range histories {
		if SameDay(h.FirstOrderAt, day) {
			newByHour[h.FirstOrderAt.Hour()]++
		}
	}

	// Activity is a day-level signal, evaluated once at the end of the day.
	active, lost := classifyAt(histories, EndOfDay(day))

	out := make([]models.ActivityPoint, 0, 24)
	for hour := 0; hour < 24; hour++ {
		out = append(out, models.ActivityPoint{
			Tick:         hourLabel(hour),
			NewCustomers: newByHour[hour],
			Active:       active,
			Lost:         lost,
		})
	}
	return out
}

// classifyAt splits the customers already acquired at ref into active (latest
// order within ActivityWindow of ref) and lost.
func classifyAt(histories map[string]*models.CustomerHistory, ref time.Time) (active, lost int) {
	for _, h := range histories {
		if h.FirstOrderAt.After(ref) {
			continue
		}
		last, ok := lastOrderAtOrBefore(h, ref)
		if !ok {
			continue
		}
		if ref.Sub(last) <= ActivityWindow {
			active++
		} else {
			lost++
		}
	}
	return active, lost
}

// MergeLifecycle pairs current and comparison ticks by label. Ticks missing on
// one side count as zero there. A nil compare slice yields points without
// comparison fields.
func MergeLifecycle(current, compare []models.ActivityPoint) []models.LifecyclePoint {
	out := make([]models.LifecyclePoint, 0, len(current))
	if compare == nil {
		for _, p := range current {
			out = append(out, models.LifecyclePoint{
				Tick:         p.Tick,
				NewCustomers: p.NewCustomers,
				Active:       p.Active,
				Lost:         p.Lost,
			})
		}
		return out
	}

	byTick := make(map[string]models.ActivityPoint, len(compare))
	for _, p := range compare {
		byTick[p.Tick] = p
	}
	seen := make(map[string]bool, len(current))
	for _, p := range current {
		seen[p.Tick] = true
		c := byTick[p.Tick]
		out = append(out, withCompare(p, c))
	}
	for _, c := range compare {
		if seen[c.Tick] {
			continue
		}
		out = append(out, withCompare(models.ActivityPoint{Tick: c.Tick}, c))
	}
	return out
}

func withCompare(p, c models.ActivityPoint) models.LifecyclePoint {
	newCustomers, active, lost := c.NewCustomers, c.Active, c.Lost
	return models.LifecyclePoint{
		Tick:                p.Tick,
		NewCustomers:        p.NewCustomers,
		Active:              p.Active,
		Lost:                p.Lost,
		CompareNewCustomers: &newCustomers,
		CompareActive:       &active,
		CompareLost:         &lost,
	}
}
