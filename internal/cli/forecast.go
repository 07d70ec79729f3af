package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

var forecastJSON bool

var forecastCmd = &cobra.Command{
	Use:   "forecast [date]",
	Short: "Forecast migraine risk for one day",
	Long: `Forecast migraine risk for a single day. The date argument uses
YYYY-MM-DD format and defaults to tomorrow.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target := time.Now().AddDate(0, 0, 1)
		if len(args) == 1 {
			var err error
			target, err = time.Parse(models.DateLayout, args[0])
			if err != nil {
				return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", args[0])
			}
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		result, err := a.service.PredictForDate(cmd.Context(), target)
		if err != nil {
			return err
		}

		if forecastJSON {
			return json.NewEncoder(os.Stdout).Encode(result)
		}
		printDaily(result)
		return nil
	},
}

func printDaily(r models.PredictionResult) {
	fmt.Printf("%s  risk %.1f%%  %s", r.Date, r.Probability, r.RiskLevel)
	if r.PredictedPain > 0 {
		fmt.Printf("  pain ~%.1f/10", r.PredictedPain)
	}
	fmt.Printf("  [%s]\n", r.Source)
	if r.FallbackReason != "" {
		fmt.Printf("  (fallback: %s)\n", r.FallbackReason)
	}
}

func init() {
	forecastCmd.Flags().BoolVar(&forecastJSON, "json", false, "emit JSON instead of text")
	rootCmd.AddCommand(forecastCmd)
}
