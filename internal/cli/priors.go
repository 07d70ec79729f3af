package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

var priorsCmd = &cobra.Command{
	Use:   "priors",
	Short: "Show or adjust the heuristic risk priors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.store.Priors(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Printf("baseline risk:        %.2f\n", p.BaselineRisk)
		fmt.Printf("weather sensitivity:  %.2f\n", p.WeatherSensitivity)
		fmt.Printf("sleep sensitivity:    %.2f\n", p.SleepSensitivity)
		fmt.Printf("strain sensitivity:   %.2f\n", p.StrainSensitivity)
		fmt.Printf("force heuristic mode: %v\n", p.ForceHeuristic)
		return nil
	},
}

var priorsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Update one or more priors",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		p, err := a.store.Priors(cmd.Context())
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		read := func(name string, dst *float64) error {
			if !flags.Changed(name) {
				return nil
			}
			v, err := flags.GetFloat64(name)
			if err != nil {
				return err
			}
			if v < 0 || v > 1 {
				return fmt.Errorf("--%s must be between 0 and 1", name)
			}
			*dst = v
			return nil
		}

		if err := read("baseline", &p.BaselineRisk); err != nil {
			return err
		}
		if err := read("weather", &p.WeatherSensitivity); err != nil {
			return err
		}
		if err := read("sleep", &p.SleepSensitivity); err != nil {
			return err
		}
		if err := read("strain", &p.StrainSensitivity); err != nil {
			return err
		}
		if flags.Changed("force-heuristic") {
			p.ForceHeuristic, _ = flags.GetBool("force-heuristic")
		}

		if err := a.store.SavePriors(cmd.Context(), p); err != nil {
			return err
		}
		fmt.Println("Priors updated.")
		return nil
	},
}

func init() {
	priorsSetCmd.Flags().Float64("baseline", 0, "baseline episode risk (0-1)")
	priorsSetCmd.Flags().Float64("weather", 0, "weather sensitivity (0-1)")
	priorsSetCmd.Flags().Float64("sleep", 0, "sleep sensitivity (0-1)")
	priorsSetCmd.Flags().Float64("strain", 0, "strain sensitivity (0-1)")
	priorsSetCmd.Flags().Bool("force-heuristic", false, "skip the statistical model even when available")
	priorsCmd.AddCommand(priorsSetCmd)
	rootCmd.AddCommand(priorsCmd)
}
