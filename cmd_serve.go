package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ltv-analytics/pkg/analytics"
	"ltv-analytics/pkg/api"
	"ltv-analytics/pkg/cache"
	"ltv-analytics/pkg/config"
	"ltv-analytics/pkg/database"
)

const redisKeyPrefix = "ltv-analytics:"

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the analytics HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	store, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	svc := analytics.NewService(repo,
		analytics.WithCache(store),
		analytics.WithTTL(cfg.TTL),
		analytics.WithLocation(cfg.Location()),
		analytics.WithBatchSize(cfg.FetchBatchSize),
		analytics.WithLogger(logger.Named("analytics")),
	)
	server := api.New(svc,
		api.WithLogger(logger.Named("http")),
		api.WithRateLimit(cfg.RateLimit, cfg.RateBurst),
	)
	return server.Run(ctx, cfg.HTTPAddr)
}

// openRepository connects to ANALYTICS_DSN and wraps the order table.
func openRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (*sqlx.DB, *database.Store, error) {
	if cfg.DSN == "" {
		return nil, nil, fmt.Errorf("ANALYTICS_DSN is required")
	}
	db, dsnUsed, err := database.Open(ctx, cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open db: %w", err)
	}
	logger.Info("connected", zap.String("dsn", dsnUsed))

	repo, err := database.NewStore(db,
		database.WithTable(cfg.OrderTable),
		database.WithLogger(logger.Named("store")),
	)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return db, repo, nil
}

// newCache builds the configured response cache and its release function.
func newCache(ctx context.Context, cfg config.Config, logger *zap.Logger) (cache.Store, func(), error) {
	switch cfg.CacheBackend {
	case "none":
		return cache.NoopCache{}, func() {}, nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("redis %s: %w", cfg.RedisAddr, err)
		}
		logger.Info("using redis cache", zap.String("addr", cfg.RedisAddr))
		return cache.NewRedisStore(client, redisKeyPrefix, logger.Named("cache")), func() { client.Close() }, nil
	default:
		return cache.NewTTLCache(), func() {}, nil
	}
}
