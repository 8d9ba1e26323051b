// Package api exposes the analytics queries over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ltv-analytics/pkg/analytics"
	"ltv-analytics/pkg/logging"
	"ltv-analytics/pkg/metrics"
	"ltv-analytics/pkg/models"
)

// Analytics is the query surface served by the API.
type Analytics interface {
	CohortAnalysis(ctx context.Context, q analytics.CohortQuery) (models.CohortResponse, error)
	LifecycleTrends(ctx context.Context, q analytics.LifecycleQuery) ([]models.LifecyclePoint, error)
	TimeSeries(ctx context.Context, q analytics.TimeSeriesQuery) (models.TimeSeriesResponse, error)
}

const shutdownTimeout = 10 * time.Second

type Server struct {
	svc     Analytics
	logger  *zap.Logger
	limiter *clientLimiter
	engine  *gin.Engine
}

type Option func(*Server)

func WithLogger(l *zap.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithRateLimit allows each client perSecond requests with the given burst.
// A non-positive rate disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		s.limiter = newClientLimiter(perSecond, burst)
	}
}

func New(svc Analytics, opts ...Option) *Server {
	s := &Server{svc: svc, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), logging.GinMiddleware(s.logger), observeRequests())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	v1 := r.Group("/api/v1/analytics")
	if s.limiter != nil {
		v1.Use(s.limiter.middleware(s.logger))
	}
	v1.GET("/cohorts", s.getCohorts)
	v1.GET("/lifecycle", s.getLifecycle)
	v1.GET("/timeseries", s.getTimeSeries)

	s.engine = r
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("http server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
