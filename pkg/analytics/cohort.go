package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ltv-analytics/pkg/cache"
	"ltv-analytics/pkg/calculator"
	"ltv-analytics/pkg/config"
	"ltv-analytics/pkg/models"
)

// defaultCohortMonths is the trailing window used when no range is given.
const defaultCohortMonths = 12

// CohortQuery selects the acquisition months to report. Both fields empty
// means the trailing 12 full calendar months.
type CohortQuery struct {
	Start string
	End   string
}

// CohortAnalysis reports the M0..M11 retention curve of every cohort
// acquired between the months of Start and End.
func (s *Service) CohortAnalysis(ctx context.Context, q CohortQuery) (models.CohortResponse, error) {
	var start, end time.Time
	switch {
	case q.Start == "" && q.End == "":
		start, end = calculator.TrailingMonths(s.now().In(s.loc), defaultCohortMonths)
	case q.Start == "":
		return models.CohortResponse{}, invalid("start", "required with end")
	case q.End == "":
		return models.CohortResponse{}, invalid("end", "required with start")
	default:
		var err error
		if start, end, err = s.parseRange("start", q.Start, "end", q.End); err != nil {
			return models.CohortResponse{}, err
		}
	}
	windowStart := calculator.StartOfMonth(start)
	windowEnd := calculator.EndOfMonth(end)

	key := cache.Signature(config.EndpointCohorts, map[string]string{
		"start": calculator.FormatDate(windowStart),
		"end":   calculator.FormatDate(calculator.StartOfDay(windowEnd)),
	})
	return cached(ctx, s, config.EndpointCohorts, key, func(ctx context.Context) (models.CohortResponse, error) {
		// Anyone acquired in the window ordered in it; their complete history
		// then decides the real first order and every later month.
		candidates, err := s.fetchOrders(ctx, config.EndpointCohorts, models.OrderFilter{From: windowStart, To: windowEnd})
		if err != nil {
			return models.CohortResponse{}, err
		}
		histories, err := s.fetchHistories(ctx, config.EndpointCohorts, customerKeys(candidates), time.Time{})
		if err != nil {
			return models.CohortResponse{}, err
		}

		cohorts := calculator.BuildCohorts(histories, windowStart, windowEnd)
		s.logger.Info("cohort analysis computed",
			zap.String("start", calculator.FormatMonth(windowStart)),
			zap.String("end", calculator.FormatMonth(windowEnd)),
			zap.Int("cohorts", len(cohorts)),
			zap.Int("candidates", len(histories)),
		)
		return models.CohortResponse{Cohorts: cohorts}, nil
	})
}
