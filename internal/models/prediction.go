package models

import (
	"math"
	"time"
)

// RiskLevel is the user-facing risk bucket. It is always a pure function of
// the probability score so that results from different estimators stay
// comparable in the UI.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
)

// Estimator identifies which model produced a prediction.
type Estimator string

const (
	// EstimatorStatistical is the trained hurdle model (classifier + regressor).
	EstimatorStatistical Estimator = "statistical"
	// EstimatorHeuristic is the deterministic weighted-linear fallback.
	EstimatorHeuristic Estimator = "heuristic"
)

// PredictionResult is a single-day migraine risk estimate.
type PredictionResult struct {
	Date          string    `json:"date"`          // YYYY-MM-DD
	Probability   float64   `json:"probability"`   // 0-100, one decimal
	RiskLevel     RiskLevel `json:"riskLevel"`
	PredictedPain float64   `json:"predictedPain"` // 0-10, one decimal; 0 below the hurdle gate

	// Estimator and FallbackReason let callers distinguish a degraded
	// (heuristic) result from a nominal one without parsing Source.
	Estimator      Estimator `json:"estimator"`
	FallbackReason string    `json:"fallbackReason,omitempty"`

	// Source describes the weather data origin plus the estimator,
	// e.g. "live (ML)" or "historical_fallback (Heuristic)".
	Source     string `json:"source"`
	SourceDate string `json:"sourceDate,omitempty"`

	Components *RiskComponents `json:"components,omitempty"`
}

// HourlyPrediction is one hour of the 24-hour risk forecast.
type HourlyPrediction struct {
	Time       time.Time `json:"time"`
	RiskScore  float64   `json:"riskScore"`  // 0-100, one decimal
	RiskLevel  RiskLevel `json:"riskLevel"`
	Calibrated bool      `json:"calibrated"` // true once truth propagation scaled this hour

	Temp          float64 `json:"temp"`
	Humidity      float64 `json:"humidity"`
	Precipitation float64 `json:"prcp"`

	Components *RiskComponents `json:"components,omitempty"`
}

// RiskComponents is the explainability breakdown of a heuristic estimate.
type RiskComponents struct {
	Baseline         float64 `json:"baseline"`
	Weather          float64 `json:"weather"`
	Sleep            float64 `json:"sleep,omitempty"`
	Strain           float64 `json:"strain,omitempty"`
	ClusterBoost     float64 `json:"clusterBoost,omitempty"`
	Circadian        float64 `json:"circadian,omitempty"`
	MedicationShield float64 `json:"medicationShield,omitempty"`
}

// StatisticalRiskLevel buckets an occurrence probability (0-1) on the
// statistical track: >0.6 High, >0.2 Moderate, else Low.
func StatisticalRiskLevel(p float64) RiskLevel {
	switch {
	case p > 0.6:
		return RiskHigh
	case p > 0.2:
		return RiskModerate
	default:
		return RiskLow
	}
}

// HeuristicRiskLevel buckets a daily heuristic probability (0-1):
// <0.3 Low, <0.7 Moderate, else High.
func HeuristicRiskLevel(p float64) RiskLevel {
	switch {
	case p < 0.3:
		return RiskLow
	case p < 0.7:
		return RiskModerate
	default:
		return RiskHigh
	}
}

// HourlyRiskLevel buckets a calibrated hourly score (0-100):
// >=60 High, >=30 Moderate, else Low.
func HourlyRiskLevel(score float64) RiskLevel {
	switch {
	case score >= 60:
		return RiskHigh
	case score >= 30:
		return RiskModerate
	default:
		return RiskLow
	}
}

// Round1 rounds to one decimal place, the precision of all reported
// probabilities and pain levels.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Round2 rounds to two decimal places, used for component breakdowns.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ClampPain constrains a predicted pain level to the 0-10 scale.
func ClampPain(v float64) float64 {
	return math.Max(0, math.Min(10, v))
}

// Clamp01 constrains a probability to [0,1].
func Clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
