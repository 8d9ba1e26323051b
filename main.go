package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"ltv-analytics/pkg/config"
	"ltv-analytics/pkg/logging"
)

var (
	envFile string

	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "ltv-analytics",
	Short: "Customer cohort, lifecycle and order value analytics",
	Long: `ltv-analytics reads the order table and answers three questions:

  cohorts     retention curve (M0..M11) of each monthly acquisition cohort
  lifecycle   new, active and lost customers over a date range
  timeseries  hourly or daily order value, optionally against another day

Run "serve" for the HTTP API or "report" for a one-shot table.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(envFile)
		if err != nil {
			return fmt.Errorf("config: %w", err)
		}
		logger, err = logging.New(cfg.LogLevel, cfg.LogDevelopment)
		if err != nil {
			return err
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "optional .env file with ANALYTICS_* variables")
	rootCmd.AddCommand(serveCmd, reportCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
