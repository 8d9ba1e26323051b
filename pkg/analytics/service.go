// Package analytics answers the cohort, lifecycle and time series queries:
// it validates the query, consults the response cache, fetches the working
// set from the order repository and hands it to the calculator.
package analytics

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ltv-analytics/pkg/cache"
	"ltv-analytics/pkg/calculator"
	"ltv-analytics/pkg/config"
	"ltv-analytics/pkg/metrics"
	"ltv-analytics/pkg/models"
)

// OrderRepository is the read interface of the order store.
type OrderRepository interface {
	FetchOrders(ctx context.Context, filter models.OrderFilter) ([]models.OrderRecord, error)
}

// Progress receives the number of history batches to fetch and their
// completion. *progressbar.ProgressBar satisfies it.
type Progress interface {
	ChangeMax(max int)
	Add(n int) error
}

type noProgress struct{}

func (noProgress) ChangeMax(int) {}
func (noProgress) Add(int) error { return nil }

const (
	defaultBatchSize = 500
	// maxParallelFetches bounds concurrent repository calls of one query.
	maxParallelFetches = 4
)

// Service runs analytics queries against an order repository.
type Service struct {
	repo      OrderRepository
	cache     cache.Store
	ttl       func(endpoint string) time.Duration
	loc       *time.Location
	batchSize int
	now       func() time.Time
	logger    *zap.Logger
	progress  Progress

	// progressMax is the batch total reported so far; concurrent history
	// fetches of one query add to it.
	progressMu  sync.Mutex
	progressMax int
}

// Option configures a Service.
type Option func(*Service)

// WithCache sets the response cache. The default never caches.
func WithCache(store cache.Store) Option {
	return func(s *Service) { s.cache = store }
}

// WithTTL sets the per-endpoint cache lifetime.
func WithTTL(ttl func(endpoint string) time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// WithLocation sets the zone calendar dates are evaluated in.
func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

// WithBatchSize bounds the number of customer keys per repository call.
func WithBatchSize(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithClock overrides time.Now, used for the default cohort window.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithProgress reports history batch progress.
func WithProgress(p Progress) Option {
	return func(s *Service) { s.progress = p }
}

// NewService returns a Service reading from repo.
func NewService(repo OrderRepository, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		cache:     cache.NoopCache{},
		ttl:       config.Config{}.TTL,
		loc:       time.UTC,
		batchSize: defaultBatchSize,
		now:       time.Now,
		logger:    zap.NewNop(),
		progress:  noProgress{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// cached returns the cached response stored under key, or computes, stores
// and returns it. Concurrent identical queries may each compute; the last
// write wins.
func cached[T any](ctx context.Context, s *Service, endpoint, key string, compute func(context.Context) (T, error)) (T, error) {
	if b, ok := s.cache.Get(ctx, key); ok {
		var v T
		if err := json.Unmarshal(b, &v); err == nil {
			metrics.RecordCacheLookup(endpoint, true)
			s.logger.Debug("cache hit", zap.String("key", key))
			return v, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	}
	metrics.RecordCacheLookup(endpoint, false)
	s.logger.Debug("cache miss", zap.String("key", key))

	start := time.Now()
	v, err := compute(ctx)
	if err != nil {
		return v, err
	}
	metrics.RecordCompute(endpoint, time.Since(start))

	b, err := json.Marshal(v)
	if err != nil {
		s.logger.Warn("cache encode failed", zap.String("key", key), zap.Error(err))
		return v, nil
	}
	// The result is stored even if the client went away meanwhile.
	s.cache.Set(context.WithoutCancel(ctx), key, b, s.ttl(endpoint))
	return v, nil
}

// fetchOrders performs one repository call.
func (s *Service) fetchOrders(ctx context.Context, endpoint string, filter models.OrderFilter) ([]models.OrderRecord, error) {
	records, err := s.repo.FetchOrders(ctx, filter)
	if err != nil {
		s.logger.Error("order fetch failed", zap.String("endpoint", endpoint), zap.Error(err))
		return nil, &UpstreamFetchError{Op: endpoint + " orders", Err: err}
	}
	metrics.RecordOrdersFetched(endpoint, len(records))
	return records, nil
}

// fetchHistories loads the orders of keys up to `to` (zero = unbounded) in
// batches fetched concurrently, then builds the per-customer arena.
func (s *Service) fetchHistories(ctx context.Context, endpoint string, keys []string, to time.Time) (map[string]*models.CustomerHistory, error) {
	if len(keys) == 0 {
		return map[string]*models.CustomerHistory{}, nil
	}

	batches := chunk(keys, s.batchSize)
	s.growProgress(len(batches))
	results := make([][]models.OrderRecord, len(batches))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelFetches)
	for i, batch := range batches {
		i, batch := i, batch
		g.Go(func() error {
			records, err := s.fetchOrders(gctx, endpoint, models.OrderFilter{CustomerKeys: batch, To: to})
			if err != nil {
				return err
			}
			results[i] = records
			_ = s.progress.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.OrderRecord
	for _, r := range results {
		all = append(all, r...)
	}
	histories := calculator.BuildHistories(all, s.loc)
	s.logger.Debug("histories built",
		zap.String("endpoint", endpoint),
		zap.Int("customers", len(histories)),
		zap.Int("orders", len(all)),
		zap.Int("batches", len(batches)),
	)
	return histories, nil
}

func (s *Service) growProgress(n int) {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	s.progressMax += n
	s.progress.ChangeMax(s.progressMax)
}

// customerKeys lists the distinct customers of records.
func customerKeys(records []models.OrderRecord) []string {
	seen := make(map[string]struct{}, len(records))
	keys := make([]string, 0, len(records))
	for _, r := range records {
		if r.CustomerKey == "" {
			continue
		}
		if _, ok := seen[r.CustomerKey]; ok {
			continue
		}
		seen[r.CustomerKey] = struct{}{}
		keys = append(keys, r.CustomerKey)
	}
	return keys
}

func chunk(keys []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(keys); start += size {
		end := start + size
		if end > len(keys) {
			end = len(keys)
		}
		out = append(out, keys[start:end])
	}
	return out
}

// parseRange validates a required start/end pair.
func (s *Service) parseRange(startField, start, endField, end string) (time.Time, time.Time, error) {
	if start == "" {
		return time.Time{}, time.Time{}, invalid(startField, "required")
	}
	if end == "" {
		return time.Time{}, time.Time{}, invalid(endField, "required")
	}
	from, err := calculator.ParseDate(start, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid(startField, "expected YYYY-MM-DD")
	}
	to, err := calculator.ParseDate(end, s.loc)
	if err != nil {
		return time.Time{}, time.Time{}, invalid(endField, "expected YYYY-MM-DD")
	}
	if to.Before(from) {
		return time.Time{}, time.Time{}, invalid(endField, "must not be before "+startField)
	}
	return from, to, nil
}

// parseCompareRange validates an optional comparison range. compareEnd
// defaults to compareStart.
func (s *Service) parseCompareRange(compareStart, compareEnd string) (time.Time, time.Time, bool, error) {
	if compareStart == "" && compareEnd == "" {
		return time.Time{}, time.Time{}, false, nil
	}
	if compareStart == "" {
		return time.Time{}, time.Time{}, false, invalid("compareStart", "required with compareEnd")
	}
	if compareEnd == "" {
		compareEnd = compareStart
	}
	from, to, err := s.parseRange("compareStart", compareStart, "compareEnd", compareEnd)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	return from, to, true, nil
}
