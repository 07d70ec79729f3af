package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

var (
	logDate     string
	logTime     string
	logPain     float64
	logSleep    string
	logActivity string
	logMeds     []string
	logLat      float64
	logLon      float64
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Add an entry to the migraine log",
	Long: `Add one entry to the log. Sleep accepts Poor/Fair/Good or a
number; activity accepts Low/Moderate/Heavy or a number. Repeat --med
for multiple doses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		date := time.Now()
		if logDate != "" {
			var err error
			date, err = time.Parse(models.DateLayout, logDate)
			if err != nil {
				return fmt.Errorf("invalid date %q (want YYYY-MM-DD)", logDate)
			}
		}

		if logPain < 0 || logPain > 10 {
			return fmt.Errorf("--pain must be between 0 and 10")
		}

		e := models.LogEntry{
			Date:      models.Midnight(date),
			Time:      logTime,
			PainLevel: logPain,
			Sleep:     models.ParseSleep(logSleep),
			Activity:  models.ParseActivity(logActivity),
		}
		for _, name := range logMeds {
			e.Medications = append(e.Medications, models.Medication{Name: name})
		}
		if cmd.Flags().Changed("lat") && cmd.Flags().Changed("lon") {
			e.Latitude, e.Longitude, e.HasLocation = logLat, logLon, true
		}

		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := a.store.AddEntry(cmd.Context(), &e)
		if err != nil {
			return err
		}
		fmt.Printf("Logged entry %d for %s\n", id, models.DateKey(e.Date))
		return nil
	},
}

func init() {
	f := logCmd.Flags()
	f.StringVar(&logDate, "date", "", "entry date (default: today)")
	f.StringVar(&logTime, "time", "", "onset time, HH:MM")
	f.Float64Var(&logPain, "pain", 0, "pain level, 0-10")
	f.StringVar(&logSleep, "sleep", "", "sleep quality (Poor/Fair/Good or number)")
	f.StringVar(&logActivity, "activity", "", "activity level (Low/Moderate/Heavy or number)")
	f.StringArrayVar(&logMeds, "med", nil, "medication taken (repeatable)")
	f.Float64Var(&logLat, "lat", 0, "latitude")
	f.Float64Var(&logLon, "lon", 0, "longitude")
	rootCmd.AddCommand(logCmd)
}
