package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ltv-analytics/pkg/cache"
	"ltv-analytics/pkg/config"
	"ltv-analytics/pkg/models"
)

func TestWriteCohorts(t *testing.T) {
	resp := models.CohortResponse{Cohorts: []models.CohortReport{{
		Cohort:       "2025-01",
		Customers:    3,
		AvgRetention: 0.5,
	}}}
	resp.Cohorts[0].Months[0].RetentionFraction = 1.0 / 3

	var buf bytes.Buffer
	writeCohorts(&buf, resp)

	line := strings.TrimSpace(buf.String())
	cols := strings.Split(line, " ; ")
	require.Len(t, cols, 3+models.RetentionHorizon)
	assert.Equal(t, []string{"2025-01", "3", "0.5000", "0.3333", "0.0000"}, cols[:5])
}

func TestWriteTimeSeries(t *testing.T) {
	prev := 60.0
	change := -66.666
	var buf bytes.Buffer
	writeTimeSeries(&buf, models.TimeSeriesResponse{
		Total:         20,
		Trend:         []models.TrendPoint{{Time: "10:00", Current: 20, OrderCount: 1, TotalAmount: 20, AOV: 20, Previous: &prev}},
		PercentChange: &change,
	})
	assert.Equal(t,
		"10:00 ; 20.00 ; orders=1 ; amount=20.00 ; aov=20.00 ; previous=60.00\ntotal ; 20.00 ; change=-66.67%\n",
		buf.String())
}

func TestWriteLifecycle(t *testing.T) {
	active := 4
	var buf bytes.Buffer
	writeLifecycle(&buf, []models.LifecyclePoint{
		{Tick: "2025-01-01", NewCustomers: 1, Active: 2, Lost: 3},
		{Tick: "2025-01-02", CompareActive: &active},
	})
	assert.Equal(t,
		"2025-01-01 ; new=1 ; active=2 ; lost=3\n2025-01-02 ; new=0 ; active=0 ; lost=0 ; compare new=0 active=4 lost=0\n",
		buf.String())
}

func TestNewCacheBackends(t *testing.T) {
	store, release, err := newCache(context.Background(), config.Config{CacheBackend: "none"}, zap.NewNop())
	require.NoError(t, err)
	release()
	assert.IsType(t, cache.NoopCache{}, store)

	store, release, err = newCache(context.Background(), config.Config{CacheBackend: "memory"}, zap.NewNop())
	require.NoError(t, err)
	release()
	assert.IsType(t, &cache.TTLCache{}, store)
}

func TestOpenRepositoryRequiresDSN(t *testing.T) {
	_, _, err := openRepository(context.Background(), config.Config{}, zap.NewNop())
	require.Error(t, err)
}
