package analytics

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ltv-analytics/pkg/cache"
	"ltv-analytics/pkg/calculator"
	"ltv-analytics/pkg/config"
	"ltv-analytics/pkg/models"
)

// LifecycleQuery is a timeline with an optional comparison timeline.
type LifecycleQuery struct {
	Start        string
	End          string
	CompareStart string
	CompareEnd   string
}

// LifecycleTrends counts new, active and lost customers per tick of the
// range, merged by tick label with the comparison range when one is given.
func (s *Service) LifecycleTrends(ctx context.Context, q LifecycleQuery) ([]models.LifecyclePoint, error) {
	start, end, err := s.parseRange("start", q.Start, "end", q.End)
	if err != nil {
		return nil, err
	}
	compareStart, compareEnd, compare, err := s.parseCompareRange(q.CompareStart, q.CompareEnd)
	if err != nil {
		return nil, err
	}

	params := map[string]string{
		"start": calculator.FormatDate(start),
		"end":   calculator.FormatDate(end),
	}
	if compare {
		params["compareStart"] = calculator.FormatDate(compareStart)
		params["compareEnd"] = calculator.FormatDate(compareEnd)
	}
	key := cache.Signature(config.EndpointLifecycle, params)

	return cached(ctx, s, config.EndpointLifecycle, key, func(ctx context.Context) ([]models.LifecyclePoint, error) {
		var current, previous []models.ActivityPoint

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = s.activity(gctx, start, end)
			return err
		})
		if compare {
			g.Go(func() error {
				var err error
				previous, err = s.activity(gctx, compareStart, compareEnd)
				if previous == nil && err == nil {
					previous = []models.ActivityPoint{}
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}

		points := calculator.MergeLifecycle(current, previous)
		s.logger.Info("lifecycle trends computed",
			zap.String("start", q.Start),
			zap.String("end", q.End),
			zap.Bool("compare", compare),
			zap.Int("ticks", len(points)),
		)
		return points, nil
	})
}

// activity classifies the customers seen within ActivityWindow before start
// through end, using their full history up to end.
func (s *Service) activity(ctx context.Context, start, end time.Time) ([]models.ActivityPoint, error) {
	last := calculator.EndOfDay(end)
	recent, err := s.fetchOrders(ctx, config.EndpointLifecycle, models.OrderFilter{
		From: start.Add(-calculator.ActivityWindow),
		To:   last,
	})
	if err != nil {
		return nil, err
	}
	histories, err := s.fetchHistories(ctx, config.EndpointLifecycle, customerKeys(recent), last)
	if err != nil {
		return nil, err
	}
	return calculator.ClassifyLifecycle(histories, start, end), nil
}
