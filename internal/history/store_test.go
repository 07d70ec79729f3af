package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAddAndAggregate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	yesterday := models.Midnight(time.Now().AddDate(0, 0, -1))
	twoDaysAgo := models.Midnight(time.Now().AddDate(0, 0, -2))

	// Two entries on the same day aggregate to max pain, mean sleep.
	for _, e := range []models.LogEntry{
		{Date: yesterday, Time: "08:00", PainLevel: 3, Sleep: 1, Activity: 2},
		{Date: yesterday, Time: "20:00", PainLevel: 7, Sleep: 3, Activity: 1},
		{Date: twoDaysAgo, Time: "10:00", PainLevel: 5, Sleep: 2, Activity: 2},
	} {
		entry := e
		_, err := s.AddEntry(ctx, &entry)
		require.NoError(t, err)
	}

	history, err := s.RecentHistory(ctx, 30)
	require.NoError(t, err)
	require.Len(t, history, 2)

	assert.Equal(t, models.DateKey(twoDaysAgo), models.DateKey(history[0].Date))
	assert.Equal(t, 5.0, history[0].Pain)

	assert.Equal(t, models.DateKey(yesterday), models.DateKey(history[1].Date))
	assert.Equal(t, 7.0, history[1].Pain)
	assert.InDelta(t, 2.0, history[1].Sleep, 1e-9)
	assert.InDelta(t, 1.5, history[1].Activity, 1e-9)
}

func TestRecentEntriesRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	e := models.LogEntry{
		Date:      models.Midnight(time.Now().AddDate(0, 0, -1)),
		Time:      "14:30",
		PainLevel: 6,
		Sleep:     2,
		Medications: []models.Medication{
			{Name: "sumatriptan", Dosage: "50mg"},
		},
		Latitude:    34.05,
		Longitude:   -118.25,
		HasLocation: true,
	}
	id, err := s.AddEntry(ctx, &e)
	require.NoError(t, err)
	assert.Positive(t, id)

	entries, err := s.RecentEntries(ctx, 30)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	got := entries[0]
	assert.Equal(t, "14:30", got.Time)
	assert.Equal(t, 6.0, got.PainLevel)
	require.Len(t, got.Medications, 1)
	assert.Equal(t, "sumatriptan", got.Medications[0].Name)
	assert.True(t, got.HasLocation)
	assert.Equal(t, 34.05, got.Latitude)
}

func TestLatestLocation(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, _, ok, err := s.LatestLocation(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	older := models.LogEntry{Date: models.Midnight(time.Now().AddDate(0, 0, -3)), Latitude: 40.7, Longitude: -74.0, HasLocation: true}
	noLoc := models.LogEntry{Date: models.Midnight(time.Now().AddDate(0, 0, -1))}
	newer := models.LogEntry{Date: models.Midnight(time.Now().AddDate(0, 0, -2)), Latitude: 34.05, Longitude: -118.25, HasLocation: true}
	for _, e := range []*models.LogEntry{&older, &noLoc, &newer} {
		_, err := s.AddEntry(ctx, e)
		require.NoError(t, err)
	}

	lat, lon, ok, err := s.LatestLocation(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 34.05, lat)
	assert.Equal(t, -118.25, lon)
}

func TestWeatherCache(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	_, _, ok, err := s.LatestWeather(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	date := models.Midnight(time.Now())
	snap := &models.WeatherSnapshot{TempAvg: 21.5, Pressure: 1012, Source: models.WeatherLive}
	require.NoError(t, s.SaveWeather(ctx, date, snap))

	// Overwrite for the same date must not duplicate.
	snap.TempAvg = 22.0
	require.NoError(t, s.SaveWeather(ctx, date, snap))

	got, gotDate, ok, err := s.LatestWeather(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.DateKey(date), gotDate)
	assert.Equal(t, 22.0, got.TempAvg)
}

func TestPriorsRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p, err := s.Priors(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultPriors(), p)

	p.BaselineRisk = 0.3
	p.WeatherSensitivity = 0.9
	p.ForceHeuristic = true
	require.NoError(t, s.SavePriors(ctx, p))

	got, err := s.Priors(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestOnChangeHook(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	calls := 0
	s.OnChange(func() { calls++ })

	e := models.LogEntry{Date: models.Midnight(time.Now())}
	_, err := s.AddEntry(ctx, &e)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	require.NoError(t, s.SetSetting(ctx, "baseline_risk", "0.2"))
	assert.Equal(t, 2, calls)
}
