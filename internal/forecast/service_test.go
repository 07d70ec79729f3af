package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

type fakeStore struct {
	history    []models.DayRecord
	entries    []models.LogEntry
	lat, lon   float64
	hasLoc     bool
	historyErr error
}

func (f *fakeStore) RecentHistory(ctx context.Context, days int) ([]models.DayRecord, error) {
	return f.history, f.historyErr
}

func (f *fakeStore) RecentEntries(ctx context.Context, days int) ([]models.LogEntry, error) {
	return f.entries, nil
}

func (f *fakeStore) LatestLocation(ctx context.Context) (float64, float64, bool, error) {
	return f.lat, f.lon, f.hasLoc, nil
}

type fakeWeather struct {
	daily      *models.WeatherSnapshot
	dailyErr   error
	dailyCalls int
	hourly     []models.HourlySnapshot
	hourlyErr  error
	weekly     map[string]*models.WeatherSnapshot
	weeklyErr  error
}

func (f *fakeWeather) FetchDaily(ctx context.Context, lat, lon float64, date time.Time) (*models.WeatherSnapshot, error) {
	f.dailyCalls++
	return f.daily, f.dailyErr
}

func (f *fakeWeather) FetchHourly(ctx context.Context, lat, lon float64, hours int) ([]models.HourlySnapshot, error) {
	return f.hourly, f.hourlyErr
}

func (f *fakeWeather) FetchWeekly(ctx context.Context, lat, lon float64, start time.Time, days int) (map[string]*models.WeatherSnapshot, error) {
	return f.weekly, f.weeklyErr
}

type fakePriors struct {
	p *models.UserPriors
}

func (f *fakePriors) Priors(ctx context.Context) (*models.UserPriors, error) {
	if f.p == nil {
		return models.DefaultPriors(), nil
	}
	return f.p, nil
}

func heuristicOnly(baseline float64) *fakePriors {
	p := models.DefaultPriors()
	p.BaselineRisk = baseline
	p.ForceHeuristic = true
	return &fakePriors{p: p}
}

func TestPredictForDateCacheIdempotence(t *testing.T) {
	ctx := context.Background()
	weather := &fakeWeather{dailyErr: errors.New("offline")}
	svc := NewService(&fakeStore{}, weather, heuristicOnly(0.3), nil, nil)

	target := day("2026-03-10")
	first, err := svc.PredictForDate(ctx, target)
	require.NoError(t, err)
	second, err := svc.PredictForDate(ctx, target)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, weather.dailyCalls, "second call should hit the cache")

	svc.InvalidateCache()
	_, err = svc.PredictForDate(ctx, target)
	require.NoError(t, err)
	assert.Equal(t, 2, weather.dailyCalls)
}

func TestPredictForDateHeuristicFallback(t *testing.T) {
	ctx := context.Background()
	model := NewStatisticalPredictor(t.TempDir()) // no artifacts
	svc := NewService(&fakeStore{}, &fakeWeather{dailyErr: errors.New("offline")}, &fakePriors{}, model, nil)

	result, err := svc.PredictForDate(ctx, day("2026-03-10"))
	require.NoError(t, err)

	assert.Equal(t, models.EstimatorHeuristic, result.Estimator)
	assert.Equal(t, "model unavailable", result.FallbackReason)
	assert.Contains(t, result.Source, "(Heuristic)")
	assert.GreaterOrEqual(t, result.Probability, 0.0)
	assert.LessOrEqual(t, result.Probability, 100.0)
	assert.NotNil(t, result.Components)
}

func TestPredictForDateStatistical(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTestModels(t, dir, 0)
	svc := NewService(&fakeStore{}, &fakeWeather{dailyErr: errors.New("offline")}, &fakePriors{}, NewStatisticalPredictor(dir), nil)

	result, err := svc.PredictForDate(ctx, day("2026-03-10"))
	require.NoError(t, err)

	assert.Equal(t, models.EstimatorStatistical, result.Estimator)
	assert.Empty(t, result.FallbackReason)
	assert.InDelta(t, 50.0, result.Probability, 0.01)
	assert.InDelta(t, 3.0, result.PredictedPain, 0.01)
	assert.Equal(t, models.RiskModerate, result.RiskLevel)
	assert.Contains(t, result.Source, "(ML)")
}

func TestPredictForDateWithWeatherBypassesCache(t *testing.T) {
	ctx := context.Background()
	weather := &fakeWeather{dailyErr: errors.New("offline")}
	svc := NewService(&fakeStore{}, weather, heuristicOnly(0.1), nil, nil)

	snap := &models.WeatherSnapshot{PressureChange: -10, Source: models.WeatherLive}
	overridden, err := svc.PredictForDateWithWeather(ctx, day("2026-03-10"), snap)
	require.NoError(t, err)
	assert.Equal(t, 0, weather.dailyCalls)

	plain, err := svc.PredictForDate(ctx, day("2026-03-10"))
	require.NoError(t, err)
	assert.NotEqual(t, overridden.Probability, plain.Probability)
}

func TestPredictWeekRecursiveVsDirect(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	writeTestModels(t, dir, 0)
	start := day("2026-03-10")

	newSvc := func() *Service {
		return NewService(&fakeStore{}, &fakeWeather{weeklyErr: errors.New("offline")}, &fakePriors{}, NewStatisticalPredictor(dir), nil)
	}

	recursive, err := newSvc().PredictWeek(ctx, start, 7)
	require.NoError(t, err)
	direct, err := newSvc().PredictWeekDirect(ctx, start, 7)
	require.NoError(t, err)

	require.Len(t, recursive, 7)
	require.Len(t, direct, 7)
	for i, r := range recursive {
		assert.Equal(t, models.DateKey(start.AddDate(0, 0, i)), r.Date)
	}

	// Day one sees the same history either way.
	assert.Equal(t, direct[0].Probability, recursive[0].Probability)

	// From day two on, the recursive walk has seen day one's predicted
	// pain in its lag features; the direct walk has not.
	assert.Equal(t, direct[0].Probability, direct[1].Probability)
	assert.Greater(t, recursive[1].Probability, direct[1].Probability)
}

func flatHourlyDay(start time.Time, hours int) []models.HourlySnapshot {
	out := make([]models.HourlySnapshot, hours)
	for i := range out {
		out[i] = models.HourlySnapshot{
			Time:             start.Add(time.Duration(i) * time.Hour),
			PressureChange3h: 0.8,
			Humidity:         50,
		}
	}
	return out
}

func TestPredictHoursCalibration(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	weather := &fakeWeather{
		hourly:   flatHourlyDay(start, 24),
		dailyErr: errors.New("offline"),
	}
	// Anchor: heuristic baseline 0.8 predicts 80% for the day, well above
	// the raw hourly peak of 20.
	svc := NewService(&fakeStore{}, weather, heuristicOnly(0.8), nil, nil)

	preds, err := svc.PredictHours(ctx, 24)
	require.NoError(t, err)
	require.Len(t, preds, 24)

	for _, p := range preds {
		// 20.0 * min(80/20, 2.5)
		assert.InDelta(t, 50.0, p.RiskScore, 0.01)
		assert.Equal(t, models.RiskModerate, p.RiskLevel)
		assert.True(t, p.Calibrated)
	}
}

func TestPredictHoursLowAnchorLeavesRawScores(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	weather := &fakeWeather{
		hourly:   flatHourlyDay(start, 24),
		dailyErr: errors.New("offline"),
	}
	svc := NewService(&fakeStore{}, weather, heuristicOnly(0.1), nil, nil)

	preds, err := svc.PredictHours(ctx, 24)
	require.NoError(t, err)

	for _, p := range preds {
		assert.InDelta(t, 20.0, p.RiskScore, 0.01)
		assert.False(t, p.Calibrated)
	}
}

func TestPredictHoursCalibrationNeverExceedsCeiling(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	hourly := flatHourlyDay(start, 24)
	for i := range hourly {
		// Raw score 44: weather 2/3 blended with the flat circadian 0.1.
		hourly[i].PressureChange3h = 2
	}

	// Anchor 100 against peak 44 scales by 100/44, which would land on
	// 100 without the ceiling.
	weather := &fakeWeather{hourly: hourly, dailyErr: errors.New("offline")}
	svc := NewService(&fakeStore{}, weather, heuristicOnly(1.0), nil, nil)

	preds, err := svc.PredictHours(ctx, 24)
	require.NoError(t, err)
	for _, p := range preds {
		assert.InDelta(t, 99.0, p.RiskScore, 0.01)
		assert.True(t, p.Calibrated)
	}
}

func TestPredictHoursWeatherError(t *testing.T) {
	ctx := context.Background()
	svc := NewService(&fakeStore{}, &fakeWeather{hourlyErr: errors.New("offline")}, &fakePriors{}, nil, nil)

	_, err := svc.PredictHours(ctx, 24)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrWeatherUnavailable)
}

func TestHoursSinceMedication(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	svc := NewService(&fakeStore{}, &fakeWeather{}, nil, nil, nil)
	svc.now = func() time.Time { return now }

	entryDay := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	med := []models.Medication{{Name: "sumatriptan"}}

	tests := []struct {
		name    string
		entries []models.LogEntry
		want    float64
	}{
		{"no entries", nil, -1},
		{"dose two hours ago", []models.LogEntry{
			{Date: entryDay, Time: "06:00", Medications: med},
		}, 2},
		{"most recent dose wins", []models.LogEntry{
			{Date: entryDay, Time: "01:00", Medications: med},
			{Date: entryDay, Time: "07:30", Medications: med},
		}, 0.5},
		{"outside the lookback window", []models.LogEntry{
			{Date: entryDay.AddDate(0, 0, -1), Time: "06:00", Medications: med},
		}, -1},
		{"entry without medications", []models.LogEntry{
			{Date: entryDay, Time: "06:00"},
		}, -1},
		{"entry without a time", []models.LogEntry{
			{Date: entryDay, Medications: med},
		}, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, svc.hoursSinceMedication(tt.entries), 1e-9)
		})
	}
}

func TestProbabilityAndPainRanges(t *testing.T) {
	ctx := context.Background()
	weather := &fakeWeather{
		daily: &models.WeatherSnapshot{PressureChange: -20, Precipitation: 5, HumidityAvg: 95, Source: models.WeatherLive},
	}
	store := &fakeStore{history: []models.DayRecord{
		{Date: day("2026-03-09"), Pain: 9},
	}}
	svc := NewService(store, weather, heuristicOnly(0.9), nil, nil)

	result, err := svc.PredictForDate(ctx, day("2026-03-10"))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, result.Probability, 0.0)
	assert.LessOrEqual(t, result.Probability, 100.0)
	assert.GreaterOrEqual(t, result.PredictedPain, 0.0)
	assert.LessOrEqual(t, result.PredictedPain, 10.0)
}
