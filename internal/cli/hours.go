package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	hoursCount int
	hoursJSON  bool
)

var hoursCmd = &cobra.Command{
	Use:   "hours",
	Short: "Forecast hour-by-hour risk for the next day",
	Long: `Forecast migraine risk per hour. Scores blend short-horizon
pressure swings with your personal circadian onset pattern, shielded by
recently logged medication, then calibrated against the daily forecast.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		preds, err := a.service.PredictHours(cmd.Context(), hoursCount)
		if err != nil {
			return err
		}

		if hoursJSON {
			return json.NewEncoder(os.Stdout).Encode(preds)
		}
		for _, p := range preds {
			marker := ""
			if p.Calibrated {
				marker = " *"
			}
			fmt.Printf("%s  %5.1f  %-8s%s\n",
				p.Time.Format("Mon 15:04"), p.RiskScore, p.RiskLevel, marker)
		}
		return nil
	},
}

func init() {
	hoursCmd.Flags().IntVar(&hoursCount, "hours", 24, "number of hours to forecast")
	hoursCmd.Flags().BoolVar(&hoursJSON, "json", false, "emit JSON instead of text")
	rootCmd.AddCommand(hoursCmd)
}
