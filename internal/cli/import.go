package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Import log entries from a CSV export",
	Long: `Import log entries from a CSV file. The header row is matched
case-insensitively; recognized columns are Date, Time, Pain Level,
Sleep, Physical Activity, Medications, Latitude and Longitude. Only the
Date column is required.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()

		imported, skipped, err := a.store.ImportCSV(cmd.Context(), f)
		if err != nil {
			return fmt.Errorf("import failed after %d rows: %w", imported, err)
		}
		fmt.Printf("Imported %d entries", imported)
		if skipped > 0 {
			fmt.Printf(", skipped %d rows with unparsable dates", skipped)
		}
		fmt.Println()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
