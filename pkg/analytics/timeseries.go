package analytics

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"ltv-analytics/pkg/cache"
	"ltv-analytics/pkg/calculator"
	"ltv-analytics/pkg/config"
	"ltv-analytics/pkg/models"
)

// TimeSeriesQuery selects an order-value series. With CompareStart set the
// series is the hourly view of End against the last day of the comparison
// range.
type TimeSeriesQuery struct {
	Start        string
	End          string
	Scope        string
	Metric       string
	CompareStart string
	CompareEnd   string
}

func parseScope(v string) (models.Scope, error) {
	switch models.Scope(strings.ToLower(strings.TrimSpace(v))) {
	case "", models.ScopeAll:
		return models.ScopeAll, nil
	case models.ScopeAgent:
		return models.ScopeAgent, nil
	case models.ScopeSelf:
		return models.ScopeSelf, nil
	default:
		return "", invalid("scope", "expected all, agent or self")
	}
}

func parseMetric(v string) (models.Metric, error) {
	switch models.Metric(strings.ToLower(strings.TrimSpace(v))) {
	case "", models.MetricSales:
		return models.MetricSales, nil
	case models.MetricOrders:
		return models.MetricOrders, nil
	case models.MetricAOV:
		return models.MetricAOV, nil
	default:
		return "", invalid("metric", "expected sales, orders or aov")
	}
}

// TimeSeries buckets order value hourly for a single day, daily otherwise.
func (s *Service) TimeSeries(ctx context.Context, q TimeSeriesQuery) (models.TimeSeriesResponse, error) {
	start, end, err := s.parseRange("start", q.Start, "end", q.End)
	if err != nil {
		return models.TimeSeriesResponse{}, err
	}
	scope, err := parseScope(q.Scope)
	if err != nil {
		return models.TimeSeriesResponse{}, err
	}
	metric, err := parseMetric(q.Metric)
	if err != nil {
		return models.TimeSeriesResponse{}, err
	}
	_, compareEnd, compare, err := s.parseCompareRange(q.CompareStart, q.CompareEnd)
	if err != nil {
		return models.TimeSeriesResponse{}, err
	}

	params := map[string]string{
		"start":  calculator.FormatDate(start),
		"end":    calculator.FormatDate(end),
		"scope":  string(scope),
		"metric": string(metric),
	}
	if compare {
		// Only the current and compare days matter in comparison mode.
		delete(params, "start")
		params["compareDay"] = calculator.FormatDate(compareEnd)
	}
	key := cache.Signature(config.EndpointTimeSeries, params)

	return cached(ctx, s, config.EndpointTimeSeries, key, func(ctx context.Context) (models.TimeSeriesResponse, error) {
		if !compare {
			orders, err := s.fetchOrders(ctx, config.EndpointTimeSeries, models.OrderFilter{
				From: start,
				To:   calculator.EndOfDay(end),
			})
			if err != nil {
				return models.TimeSeriesResponse{}, err
			}
			buckets := calculator.BucketOrders(orders, start, end, scope)
			return models.TimeSeriesResponse{
				Total: calculator.MetricTotal(buckets, metric),
				Trend: calculator.BuildTrend(buckets, nil, metric),
			}, nil
		}

		var current, previous []models.TimeBucket
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			current, err = s.hourly(gctx, end, scope)
			return err
		})
		g.Go(func() error {
			var err error
			previous, err = s.hourly(gctx, compareEnd, scope)
			return err
		})
		if err := g.Wait(); err != nil {
			return models.TimeSeriesResponse{}, err
		}

		total := calculator.MetricTotal(current, metric)
		change := calculator.PercentChange(total, calculator.MetricTotal(previous, metric))
		return models.TimeSeriesResponse{
			Total:         total,
			Trend:         calculator.BuildTrend(current, previous, metric),
			PercentChange: &change,
		}, nil
	})
}

func (s *Service) hourly(ctx context.Context, day time.Time, scope models.Scope) ([]models.TimeBucket, error) {
	orders, err := s.fetchOrders(ctx, config.EndpointTimeSeries, models.OrderFilter{
		From: day,
		To:   calculator.EndOfDay(day),
	})
	if err != nil {
		return nil, err
	}
	return calculator.BucketOrders(orders, day, day, scope), nil
}
