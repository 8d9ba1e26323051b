package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"ltv-analytics/pkg/analytics"
	"ltv-analytics/pkg/cache"
	"ltv-analytics/pkg/models"
)

var (
	reportStart        string
	reportEnd          string
	reportCompareStart string
	reportCompareEnd   string
	reportScope        string
	reportMetric       string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print a one-shot analytics table",
}

var reportCohortsCmd = &cobra.Command{
	Use:   "cohorts",
	Short: "Retention curve per acquisition month",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReportService(cmd, func(ctx context.Context, svc *analytics.Service) error {
			resp, err := svc.CohortAnalysis(ctx, analytics.CohortQuery{Start: reportStart, End: reportEnd})
			if err != nil {
				return err
			}
			writeCohorts(cmd.OutOrStdout(), resp)
			return nil
		})
	},
}

var reportLifecycleCmd = &cobra.Command{
	Use:   "lifecycle",
	Short: "New, active and lost customers per day or hour",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReportService(cmd, func(ctx context.Context, svc *analytics.Service) error {
			points, err := svc.LifecycleTrends(ctx, analytics.LifecycleQuery{
				Start:        reportStart,
				End:          reportEnd,
				CompareStart: reportCompareStart,
				CompareEnd:   reportCompareEnd,
			})
			if err != nil {
				return err
			}
			writeLifecycle(cmd.OutOrStdout(), points)
			return nil
		})
	},
}

var reportTimeSeriesCmd = &cobra.Command{
	Use:   "timeseries",
	Short: "Order value per hour or day",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withReportService(cmd, func(ctx context.Context, svc *analytics.Service) error {
			resp, err := svc.TimeSeries(ctx, analytics.TimeSeriesQuery{
				Start:        reportStart,
				End:          reportEnd,
				Scope:        reportScope,
				Metric:       reportMetric,
				CompareStart: reportCompareStart,
				CompareEnd:   reportCompareEnd,
			})
			if err != nil {
				return err
			}
			writeTimeSeries(cmd.OutOrStdout(), resp)
			return nil
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{reportCohortsCmd, reportLifecycleCmd, reportTimeSeriesCmd} {
		c.Flags().StringVar(&reportStart, "start", "", "first day, YYYY-MM-DD")
		c.Flags().StringVar(&reportEnd, "end", "", "last day, YYYY-MM-DD")
	}
	for _, c := range []*cobra.Command{reportLifecycleCmd, reportTimeSeriesCmd} {
		c.Flags().StringVar(&reportCompareStart, "compare-start", "", "first day of the comparison range")
		c.Flags().StringVar(&reportCompareEnd, "compare-end", "", "last day of the comparison range")
	}
	reportTimeSeriesCmd.Flags().StringVar(&reportScope, "scope", "all", "all, agent or self")
	reportTimeSeriesCmd.Flags().StringVar(&reportMetric, "metric", "sales", "sales, orders or aov")

	reportCmd.AddCommand(reportCohortsCmd, reportLifecycleCmd, reportTimeSeriesCmd)
}

// withReportService runs fn against the configured repository, uncached, with
// a progress bar on stderr while customer histories are fetched.
func withReportService(cmd *cobra.Command, fn func(context.Context, *analytics.Service) error) error {
	ctx := cmd.Context()
	db, repo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	bar := progressbar.Default(-1, "fetching histories")
	svc := analytics.NewService(repo,
		analytics.WithCache(cache.NoopCache{}),
		analytics.WithLocation(cfg.Location()),
		analytics.WithBatchSize(cfg.FetchBatchSize),
		analytics.WithLogger(logger.Named("analytics")),
		analytics.WithProgress(bar),
	)
	err = fn(ctx, svc)
	_ = bar.Finish()
	return err
}

func writeCohorts(w io.Writer, resp models.CohortResponse) {
	for _, c := range resp.Cohorts {
		cols := []string{c.Cohort, strconv.Itoa(c.Customers), formatRatio(c.AvgRetention)}
		for _, m := range c.Months {
			cols = append(cols, formatRatio(m.RetentionFraction))
		}
		fmt.Fprintln(w, strings.Join(cols, " ; "))
	}
}

func writeLifecycle(w io.Writer, points []models.LifecyclePoint) {
	for _, p := range points {
		line := fmt.Sprintf("%s ; new=%d ; active=%d ; lost=%d", p.Tick, p.NewCustomers, p.Active, p.Lost)
		if p.CompareActive != nil {
			line += fmt.Sprintf(" ; compare new=%d active=%d lost=%d",
				deref(p.CompareNewCustomers), deref(p.CompareActive), deref(p.CompareLost))
		}
		fmt.Fprintln(w, line)
	}
}

func writeTimeSeries(w io.Writer, resp models.TimeSeriesResponse) {
	for _, p := range resp.Trend {
		line := fmt.Sprintf("%s ; %.2f ; orders=%d ; amount=%.2f ; aov=%.2f",
			p.Time, p.Current, p.OrderCount, p.TotalAmount, p.AOV)
		if p.Previous != nil {
			line += fmt.Sprintf(" ; previous=%.2f", *p.Previous)
		}
		fmt.Fprintln(w, line)
	}
	total := fmt.Sprintf("total ; %.2f", resp.Total)
	if resp.PercentChange != nil {
		total += fmt.Sprintf(" ; change=%.2f%%", *resp.PercentChange)
	}
	fmt.Fprintln(w, total)
}

func formatRatio(v float64) string {
	return strconv.FormatFloat(v, 'f', 4, 64)
}

func deref(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}
