// Package cli implements the command-line interface.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/AreTaj/Migraine-Navigator/internal/forecast"
	"github.com/AreTaj/Migraine-Navigator/internal/history"
	"github.com/AreTaj/Migraine-Navigator/internal/models"
	"github.com/AreTaj/Migraine-Navigator/internal/weather"
)

var rootCmd = &cobra.Command{
	Use:   "migraine-navigator",
	Short: "Personal migraine risk forecasting",
	Long: `Migraine Navigator forecasts migraine risk from your personal log
and local weather. It combines a trained statistical model with a
deterministic heuristic fallback, so you always get an estimate even
without trained model artifacts.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.String("db", "", "path to the log database (default: config dir)")
	pf.String("models-dir", "", "directory holding classifier.json and regressor.json (default: config dir)")
	pf.Bool("verbose", false, "enable debug logging")

	_ = viper.BindPFlag("db", pf.Lookup("db"))
	_ = viper.BindPFlag("models-dir", pf.Lookup("models-dir"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))
}

func initConfig() {
	viper.SetEnvPrefix("MIGRAINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if dir, err := models.GetConfigDir(); err == nil {
		viper.AddConfigPath(dir)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		_ = viper.ReadInConfig()
	}

	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
}

// app bundles the wired components a command needs.
type app struct {
	store   *history.Store
	service *forecast.Service
	logger  *slog.Logger
}

// newApp opens the store and wires the forecasting service.
func newApp() (*app, error) {
	logger := slog.Default()

	dbPath := viper.GetString("db")
	if dbPath == "" {
		dir, err := models.GetConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve config dir: %w", err)
		}
		dbPath = filepath.Join(dir, "migraine_log.db")
	}

	store, err := history.Open(dbPath)
	if err != nil {
		return nil, err
	}

	modelsDir := viper.GetString("models-dir")
	if modelsDir == "" {
		if dir, err := models.GetConfigDir(); err == nil {
			modelsDir = filepath.Join(dir, "models")
		}
	}

	client := weather.NewClient(store, logger)
	svc := forecast.NewService(store, client, store,
		forecast.NewStatisticalPredictor(modelsDir), logger)
	store.OnChange(svc.InvalidateCache)

	return &app{store: store, service: svc, logger: logger}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing store", "error", err)
	}
}
