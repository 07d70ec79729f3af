package forecast

import (
	"math"
	"time"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

// HeuristicPredictor is the deterministic fallback estimator. It combines
// weather pressure dynamics, sleep debt, physical strain and episode
// clustering into a weighted risk score. It never fails: any input it can
// handle at all yields an estimate.
type HeuristicPredictor struct {
	Priors models.UserPriors
}

// NewHeuristicPredictor creates a predictor with the given priors, or the
// defaults when nil.
func NewHeuristicPredictor(priors *models.UserPriors) *HeuristicPredictor {
	if priors == nil {
		priors = models.DefaultPriors()
	}
	return &HeuristicPredictor{Priors: *priors}
}

// HeuristicInput carries everything the daily estimate needs. Weather may be
// nil; missing signals contribute zero risk rather than erroring.
type HeuristicInput struct {
	Weather       *models.WeatherSnapshot
	SleepDebt     float64 // hours short of a full night, 0 when untracked
	Strain        float64 // 0-10 exertion scale, 0 when untracked
	YesterdayPain float64 // max pain of the previous day
}

// HeuristicResult is a daily heuristic estimate on the 0-1 scale with its
// component breakdown.
type HeuristicResult struct {
	Probability float64 // 0-1, two decimals
	RiskLevel   models.RiskLevel
	Components  models.RiskComponents
}

// weatherContribution scores a day's weather on [0,1]. Pressure swings
// dominate; rain and high humidity add smaller fixed bumps.
func weatherContribution(w *models.WeatherSnapshot) float64 {
	if w == nil {
		return 0
	}
	score := math.Min(math.Abs(w.PressureChange)/8.0, 1.0)
	if w.Precipitation > 0.5 {
		score += 0.3
	}
	if w.HumidityAvg > 70 {
		score += 0.2
	}
	return math.Min(score, 1.0)
}

// Predict produces the daily heuristic estimate.
func (h *HeuristicPredictor) Predict(in HeuristicInput) HeuristicResult {
	weather := weatherContribution(in.Weather)
	sleep := math.Min(in.SleepDebt/4.0, 1.0)
	strain := math.Min(in.Strain/10.0, 1.0)

	risk := h.Priors.BaselineRisk
	risk += weather * h.Priors.WeatherSensitivity * 0.5
	risk += sleep * h.Priors.SleepSensitivity * 0.3
	risk += strain * h.Priors.StrainSensitivity * 0.3

	// Episodes cluster: pain yesterday raises the odds again today.
	clusterBoost := 0.0
	if in.YesterdayPain > 2 {
		clusterBoost = h.Priors.BaselineRisk * 0.8
		risk += clusterBoost
	}

	p := models.Round2(models.Clamp01(risk))
	return HeuristicResult{
		Probability: p,
		RiskLevel:   models.HeuristicRiskLevel(p),
		Components: models.RiskComponents{
			Baseline:     h.Priors.BaselineRisk,
			Weather:      models.Round2(weather),
			Sleep:        models.Round2(sleep),
			Strain:       models.Round2(strain),
			ClusterBoost: models.Round2(clusterBoost),
		},
	}
}

// HourlyInput is one hour of context for the intra-day estimate.
type HourlyInput struct {
	Time time.Time

	// PressureChange3h is P(t) minus P(t-3h) in hPa; short-horizon swings
	// matter more than the daily mean delta.
	PressureChange3h float64
	Precipitation    float64
	Humidity         float64

	// Circadian is the personal onset likelihood for this hour, 0-1.
	Circadian float64

	// HoursSinceMedication is the time since the last logged dose.
	// Negative means no dose within the lookback window.
	HoursSinceMedication float64
}

// Medication shield: a recent dose suppresses risk, then the protection
// decays linearly back to none.
const (
	shieldFullHours  = 2.0 // full protection window after a dose
	shieldFadeHours  = 6.0 // protection gone after this long
	shieldFullFactor = 0.1
)

func medicationShield(hoursSince float64) float64 {
	switch {
	case hoursSince < 0:
		return 1.0
	case hoursSince <= shieldFullHours:
		return shieldFullFactor
	case hoursSince < shieldFadeHours:
		return shieldFullFactor + (1.0-shieldFullFactor)*(hoursSince-shieldFullHours)/(shieldFadeHours-shieldFullHours)
	default:
		return 1.0
	}
}

// PredictHourly scores one hour on the 0-100 scale. Weather and circadian
// rhythm blend 60/40, a compounding bonus applies when both run high, and a
// recent medication dose shields the result.
func (h *HeuristicPredictor) PredictHourly(in HourlyInput) models.HourlyPrediction {
	weather := math.Min(math.Abs(in.PressureChange3h)/3.0, 1.0)
	if in.Precipitation > 0.5 {
		weather += 0.3
	}
	if in.Humidity > 70 {
		weather += 0.2
	}
	weather = math.Min(weather, 1.0)

	raw := 0.6*weather + 0.4*in.Circadian
	if weather > 0.5 && in.Circadian > 0.5 {
		raw += 0.2
	}

	shield := medicationShield(in.HoursSinceMedication)
	score := models.Round1(models.Clamp01(raw*shield) * 100)

	return models.HourlyPrediction{
		Time:          in.Time,
		RiskScore:     score,
		RiskLevel:     models.HourlyRiskLevel(score),
		Humidity:      in.Humidity,
		Precipitation: in.Precipitation,
		Components: &models.RiskComponents{
			Weather:          models.Round2(weather),
			Circadian:        models.Round2(in.Circadian),
			MedicationShield: models.Round2(shield),
		},
	}
}
