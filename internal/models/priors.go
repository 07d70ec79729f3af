package models

import (
	"os"
	"path/filepath"
)

// UserPriors are the tunable weights of the heuristic predictor. They are
// sourced from the settings store and defaulted when absent.
type UserPriors struct {
	BaselineRisk       float64 `json:"baselineRisk"`       // 0-1, base rate of episodes
	WeatherSensitivity float64 `json:"weatherSensitivity"` // 0-1
	SleepSensitivity   float64 `json:"sleepSensitivity"`   // 0-1
	StrainSensitivity  float64 `json:"strainSensitivity"`  // 0-1

	// ForceHeuristic disables the statistical predictor even when its
	// artifacts are present.
	ForceHeuristic bool `json:"forceHeuristicMode"`
}

// DefaultPriors returns neutral weights: rare baseline, mid sensitivities.
func DefaultPriors() *UserPriors {
	return &UserPriors{
		BaselineRisk:       0.1,
		WeatherSensitivity: 0.5,
		SleepSensitivity:   0.5,
		StrainSensitivity:  0.5,
	}
}

// GetConfigDir returns (and creates) the application configuration directory.
func GetConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(base, "migraine-navigator")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return "", err
	}
	return dir, nil
}
