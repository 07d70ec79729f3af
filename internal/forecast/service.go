package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

// Default coordinates used when the log carries no location yet.
const (
	DefaultLatitude  = 34.05
	DefaultLongitude = -118.25
)

// historyWindowDays is how far back the feature engine looks. The longest
// rolling mean spans 30 days; 60 leaves headroom for sparse logs.
const historyWindowDays = 60

// medicationLookback bounds how old a dose can be and still shield the
// hourly forecast.
const medicationLookback = 12 * time.Hour

// Truth propagation limits: hourly scores are scaled toward the daily
// anchor, but never more than maxCalibrationScale at once, and peaks below
// calibrationPeakFloor are lifted without ratio scaling.
const (
	maxCalibrationScale  = 2.5
	calibrationPeakFloor = 5.0
	calibrationCeiling   = 99.0
	calibrationAnchorMin = 30.0
)

// HistoryStore provides read access to the migraine log.
type HistoryStore interface {
	// RecentHistory returns per-day aggregates for the last n days,
	// oldest first.
	RecentHistory(ctx context.Context, days int) ([]models.DayRecord, error)
	// RecentEntries returns raw log entries for the last n days.
	RecentEntries(ctx context.Context, days int) ([]models.LogEntry, error)
	// LatestLocation returns the most recently logged coordinates.
	// ok is false when no entry carries a location.
	LatestLocation(ctx context.Context) (lat, lon float64, ok bool, err error)
}

// WeatherProvider fetches weather for the forecasting engine.
type WeatherProvider interface {
	FetchDaily(ctx context.Context, lat, lon float64, date time.Time) (*models.WeatherSnapshot, error)
	FetchHourly(ctx context.Context, lat, lon float64, hours int) ([]models.HourlySnapshot, error)
	// FetchWeekly returns snapshots for [start, start+days) keyed by date
	// string. Missing days are simply absent from the map.
	FetchWeekly(ctx context.Context, lat, lon float64, start time.Time, days int) (map[string]*models.WeatherSnapshot, error)
}

// PriorsSource supplies the current heuristic priors.
type PriorsSource interface {
	Priors(ctx context.Context) (*models.UserPriors, error)
}

// Service is the forecasting facade. It routes between the statistical and
// heuristic estimators, caches daily results and calibrates hourly scores
// against the daily anchor.
type Service struct {
	store   HistoryStore
	weather WeatherProvider
	priors  PriorsSource
	model   *StatisticalPredictor
	logger  *slog.Logger

	cache *predictionCache
	now   func() time.Time
}

// NewService wires a forecasting service. logger may be nil.
func NewService(store HistoryStore, weather WeatherProvider, priors PriorsSource, model *StatisticalPredictor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		weather: weather,
		priors:  priors,
		model:   model,
		logger:  logger,
		cache:   newPredictionCache(defaultCacheTTL),
		now:     time.Now,
	}
}

// InvalidateCache drops all memoized predictions. Call after any write to
// the log or the priors.
func (s *Service) InvalidateCache() {
	s.cache.clear()
}

func (s *Service) location(ctx context.Context) (lat, lon float64) {
	lat, lon, ok, err := s.store.LatestLocation(ctx)
	if err != nil {
		s.logger.Warn("location lookup failed, using default", "error", err)
		return DefaultLatitude, DefaultLongitude
	}
	if !ok {
		return DefaultLatitude, DefaultLongitude
	}
	return lat, lon
}

func (s *Service) loadPriors(ctx context.Context) *models.UserPriors {
	if s.priors == nil {
		return models.DefaultPriors()
	}
	p, err := s.priors.Priors(ctx)
	if err != nil {
		s.logger.Warn("priors load failed, using defaults", "error", err)
		return models.DefaultPriors()
	}
	return p
}

// yesterdayPain returns the previous day's max pain relative to target.
func yesterdayPain(target time.Time, history []models.DayRecord) float64 {
	key := models.DateKey(target.AddDate(0, 0, -1))
	for _, d := range history {
		if models.DateKey(d.Date) == key {
			return d.Pain
		}
	}
	return 0
}

// predictOne produces a single-day estimate from pre-gathered inputs.
// pain is the raw predicted pain level used for recursive forecasting.
func (s *Service) predictOne(target time.Time, history []models.DayRecord, weather *models.WeatherSnapshot, priors *models.UserPriors) (models.PredictionResult, float64) {
	features := BuildFeatures(target, history, weather)

	if !priors.ForceHeuristic && s.model != nil {
		prob, pain, err := s.model.Predict(&features)
		if err == nil {
			return models.PredictionResult{
				Date:          models.DateKey(target),
				Probability:   models.Round1(prob * 100),
				RiskLevel:     models.StatisticalRiskLevel(prob),
				PredictedPain: models.Round1(pain),
				Estimator:     models.EstimatorStatistical,
				Source:        fmt.Sprintf("%s (ML)", features.Source),
				SourceDate:    features.SourceDate,
			}, pain
		}
		s.logger.Warn("statistical predictor failed, falling back to heuristic",
			"date", models.DateKey(target), "error", err)
	}

	h := NewHeuristicPredictor(priors)
	// TODO: derive sleep debt and strain from logged sleep and activity
	// once those are tracked per day.
	res := h.Predict(HeuristicInput{
		Weather:       weather,
		YesterdayPain: yesterdayPain(target, history),
	})

	reason := "model unavailable"
	if priors.ForceHeuristic {
		reason = "heuristic mode forced"
	}
	components := res.Components
	return models.PredictionResult{
		Date:           models.DateKey(target),
		Probability:    models.Round1(res.Probability * 100),
		RiskLevel:      res.RiskLevel,
		Estimator:      models.EstimatorHeuristic,
		FallbackReason: reason,
		Source:         fmt.Sprintf("%s (Heuristic)", features.Source),
		SourceDate:     features.SourceDate,
		Components:     &components,
	}, 0
}

// PredictForDate estimates migraine risk for one calendar day. Results are
// cached per date with a short TTL; weather or model failures degrade the
// estimate rather than failing it.
func (s *Service) PredictForDate(ctx context.Context, date time.Time) (models.PredictionResult, error) {
	return s.predictForDate(ctx, date, nil)
}

// PredictForDateWithWeather is PredictForDate with a caller-supplied weather
// snapshot instead of a fetch. Overridden results bypass the cache.
func (s *Service) PredictForDateWithWeather(ctx context.Context, date time.Time, weather *models.WeatherSnapshot) (models.PredictionResult, error) {
	return s.predictForDate(ctx, date, weather)
}

func (s *Service) predictForDate(ctx context.Context, date time.Time, override *models.WeatherSnapshot) (models.PredictionResult, error) {
	target := models.Midnight(date)
	key := models.DateKey(target)

	if override == nil {
		if cached, ok := s.cache.get(key, s.now()); ok {
			return cached, nil
		}
	}

	history, err := s.store.RecentHistory(ctx, historyWindowDays)
	if err != nil {
		return models.PredictionResult{}, fmt.Errorf("load history: %w", err)
	}

	weather := override
	if weather == nil {
		lat, lon := s.location(ctx)
		weather, err = s.weather.FetchDaily(ctx, lat, lon, target)
		if err != nil {
			s.logger.Warn("weather fetch failed, predicting with defaults",
				"date", key, "error", err)
			weather = nil
		}
	}

	result, _ := s.predictOne(target, history, weather, s.loadPriors(ctx))
	if override == nil {
		s.cache.put(key, result, s.now())
	}
	return result, nil
}

// PredictWeek forecasts a run of days recursively: each day's predicted
// pain feeds the next day's lag features, so a predicted episode raises
// the following day's clustering signal. start defaults to tomorrow when
// zero; days defaults to 7 when non-positive.
func (s *Service) PredictWeek(ctx context.Context, start time.Time, days int) ([]models.PredictionResult, error) {
	return s.predictRange(ctx, start, days, true)
}

// PredictWeekDirect forecasts a run of days independently, each from the
// logged history only. Useful for comparing against the recursive forecast.
func (s *Service) PredictWeekDirect(ctx context.Context, start time.Time, days int) ([]models.PredictionResult, error) {
	return s.predictRange(ctx, start, days, false)
}

func (s *Service) predictRange(ctx context.Context, start time.Time, days int, recursive bool) ([]models.PredictionResult, error) {
	if days <= 0 {
		days = 7
	}
	if start.IsZero() {
		start = s.now().AddDate(0, 0, 1)
	}
	start = models.Midnight(start)

	history, err := s.store.RecentHistory(ctx, historyWindowDays)
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	// The recursive walk appends synthetic days; work on a copy.
	working := make([]models.DayRecord, len(history))
	copy(working, history)

	lat, lon := s.location(ctx)
	weekWeather, err := s.weather.FetchWeekly(ctx, lat, lon, start, days)
	if err != nil {
		s.logger.Warn("weekly weather fetch failed, predicting with defaults", "error", err)
		weekWeather = nil
	}

	priors := s.loadPriors(ctx)
	results := make([]models.PredictionResult, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		result, pain := s.predictOne(day, working, weekWeather[models.DateKey(day)], priors)
		results = append(results, result)

		if recursive {
			working = append(working, models.DayRecord{Date: day, Pain: pain})
		}
	}
	return results, nil
}

// PredictHours produces the intra-day forecast: per-hour heuristic scores
// calibrated so no day's peak undershoots its own daily estimate.
func (s *Service) PredictHours(ctx context.Context, hours int) ([]models.HourlyPrediction, error) {
	if hours <= 0 {
		hours = 24
	}

	lat, lon := s.location(ctx)
	snapshots, err := s.weather.FetchHourly(ctx, lat, lon, hours)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWeatherUnavailable, err)
	}

	entries, err := s.store.RecentEntries(ctx, historyWindowDays)
	if err != nil {
		return nil, fmt.Errorf("load entries: %w", err)
	}

	profile := CircadianProfile(entries)
	sinceMed := s.hoursSinceMedication(entries)
	h := NewHeuristicPredictor(s.loadPriors(ctx))

	preds := make([]models.HourlyPrediction, 0, len(snapshots))
	for i, snap := range snapshots {
		recency := sinceMed
		if recency >= 0 {
			// The shield ages as the forecast walks forward.
			recency += float64(i)
		}
		p := h.PredictHourly(HourlyInput{
			Time:                 snap.Time,
			PressureChange3h:     snap.PressureChange3h,
			Precipitation:        snap.Precipitation,
			Humidity:             snap.Humidity,
			Circadian:            profile[snap.Time.Hour()],
			HoursSinceMedication: recency,
		})
		p.Temp = snap.Temp
		preds = append(preds, p)
	}

	s.calibrateHours(ctx, preds)
	return preds, nil
}

// hoursSinceMedication returns the age of the most recent logged dose, or
// -1 when none falls within the lookback window.
func (s *Service) hoursSinceMedication(entries []models.LogEntry) float64 {
	now := s.now()
	best := -1.0
	for _, e := range entries {
		if len(e.Medications) == 0 {
			continue
		}
		h, ok := e.OnsetHour()
		if !ok {
			continue
		}
		minute := 0
		if _, err := fmt.Sscanf(e.Time, "%*d:%d", &minute); err != nil {
			minute = 0
		}
		dose := time.Date(e.Date.Year(), e.Date.Month(), e.Date.Day(), h, minute, 0, 0, now.Location())
		age := now.Sub(dose)
		if age < 0 || age > medicationLookback {
			continue
		}
		if best < 0 || age.Hours() < best {
			best = age.Hours()
		}
	}
	return best
}

// calibrateHours rescales each day's hourly scores so the peak matches the
// daily anchor when the hourly track undershoots it. Per-day anchor
// failures degrade to the raw hourly scores.
func (s *Service) calibrateHours(ctx context.Context, preds []models.HourlyPrediction) {
	byDay := make(map[string][]int)
	for i, p := range preds {
		key := models.DateKey(p.Time)
		byDay[key] = append(byDay[key], i)
	}

	for day, idxs := range byDay {
		anchor, err := s.PredictForDate(ctx, preds[idxs[0]].Time)
		if err != nil {
			s.logger.Warn("daily anchor unavailable, skipping hourly calibration",
				"date", day, "error", err)
			continue
		}

		peak := 0.0
		for _, i := range idxs {
			if preds[i].RiskScore > peak {
				peak = preds[i].RiskScore
			}
		}

		if anchor.Probability <= calibrationAnchorMin || anchor.Probability <= peak {
			continue
		}

		scale := 1.0
		if peak > calibrationPeakFloor {
			scale = anchor.Probability / peak
		}
		scale = math.Min(scale, maxCalibrationScale)

		for _, i := range idxs {
			preds[i].RiskScore = models.Round1(math.Min(preds[i].RiskScore*scale, calibrationCeiling))
			preds[i].RiskLevel = models.HourlyRiskLevel(preds[i].RiskScore)
			preds[i].Calibrated = true
		}
	}
}
