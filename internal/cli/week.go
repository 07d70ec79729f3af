package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

var (
	weekStart  string
	weekDays   int
	weekDirect bool
	weekJSON   bool
)

var weekCmd = &cobra.Command{
	Use:   "week",
	Short: "Forecast migraine risk for the coming week",
	Long: `Forecast a run of days starting tomorrow. By default each day's
predicted pain feeds the next day's forecast, so a predicted episode
raises the following day's clustering signal. Use --direct to forecast
each day independently from the logged history only.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var start time.Time
		if weekStart != "" {
			var err error
			start, err = time.Parse(models.DateLayout, weekStart)
			if err != nil {
				return fmt.Errorf("invalid start date %q (want YYYY-MM-DD)", weekStart)
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var results []models.PredictionResult
		if weekDirect {
			results, err = a.service.PredictWeekDirect(cmd.Context(), start, weekDays)
		} else {
			results, err = a.service.PredictWeek(cmd.Context(), start, weekDays)
		}
		if err != nil {
			return err
		}

		if weekJSON {
			return json.NewEncoder(os.Stdout).Encode(results)
		}
		for _, r := range results {
			printDaily(r)
		}
		return nil
	},
}

func init() {
	weekCmd.Flags().StringVar(&weekStart, "start", "", "first day to forecast (default: tomorrow)")
	weekCmd.Flags().IntVar(&weekDays, "days", 7, "number of days to forecast")
	weekCmd.Flags().BoolVar(&weekDirect, "direct", false, "forecast each day independently")
	weekCmd.Flags().BoolVar(&weekJSON, "json", false, "emit JSON instead of text")
	rootCmd.AddCommand(weekCmd)
}
