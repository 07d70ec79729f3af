package cli

import (
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/AreTaj/Migraine-Navigator/internal/notifications"
)

var (
	watchInterval time.Duration
	watchModerate bool
	watchCooldown time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch tomorrow's risk and alert when it climbs",
	Long: `Periodically re-forecast tomorrow's risk and send a desktop
notification when it reaches High (or Moderate with --alert-moderate).
Runs until interrupted.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		manager := notifications.NewManager(watchCooldown, watchModerate)
		a.logger.Info("watching", "interval", watchInterval)

		check := func() {
			// Each cycle invalidates the cache so new log entries and
			// fresh weather are picked up.
			a.service.InvalidateCache()
			result, err := a.service.PredictForDate(ctx, time.Now().AddDate(0, 0, 1))
			if err != nil {
				a.logger.Warn("forecast failed", "error", err)
				return
			}
			a.logger.Info("forecast",
				"date", result.Date, "risk", result.Probability, "level", result.RiskLevel)
			if err := manager.CheckAndNotify(&result); err != nil {
				a.logger.Warn("notification failed", "error", err)
			}
		}

		check()
		ticker := time.NewTicker(watchInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				a.logger.Info("stopping")
				return nil
			case <-ticker.C:
				check()
			}
		}
	},
}

func init() {
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Hour, "re-forecast interval")
	watchCmd.Flags().BoolVar(&watchModerate, "alert-moderate", false, "alert on Moderate risk too")
	watchCmd.Flags().DurationVar(&watchCooldown, "cooldown", 6*time.Hour, "minimum time between repeat alerts")
	rootCmd.AddCommand(watchCmd)
}
