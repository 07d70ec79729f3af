// Package forecast implements the hybrid migraine forecasting engine:
// a feature pipeline, a trained statistical hurdle model, a deterministic
// heuristic fallback, and the orchestration/calibration layer that
// reconciles daily and hourly horizons into one coherent forecast.
package forecast

import (
	"fmt"
	"math"
	"time"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

// Weather defaults substituted when no snapshot is available. Consumers of
// the feature engine must never crash on missing weather.
const (
	defaultTempMax  = 25.0
	defaultTempMin  = 15.0
	defaultTempAvg  = 20.0
	defaultHumidity = 50.0
	defaultPressure = 1015.0
)

// FeatureVector is the flat numeric feature set for one target date.
// Fields are strongly typed; the stable name-based export (Get/Columns)
// exists only at the model boundary, which reorders columns to the trained
// model's expected order.
type FeatureVector struct {
	// Temporal, cyclically encoded so adjacency survives (Sun-Mon, Dec-Jan).
	DayOfWeek    float64
	Month        float64
	DayOfWeekSin float64
	DayOfWeekCos float64
	MonthSin     float64
	MonthCos     float64

	// Weather.
	TempAvg        float64
	TempMin        float64
	TempMax        float64
	Precipitation  float64
	WindSpeed      float64
	Pressure       float64
	PressureChange float64
	SunshineMin    float64
	HumidityAvg    float64
	HumidityMidday float64
	Latitude       float64
	Longitude      float64

	// Weather derivatives.
	TempDiff        float64 // tmax - tmin
	HumidityTempInt float64 // humidity * tavg interaction
	PresChangeLag1  float64 // assumed stable for future dates
	TempAvgLag1     float64 // persistence

	// Autoregressive pain features. A missing day counts as pain 0,
	// never as unknown.
	PainLag1          float64
	PainLag2          float64
	PainLag3          float64
	PainLag7          float64
	PainRollingMean3  float64
	PainRollingMean7  float64
	PainRollingMean30 float64

	// Same-day defaults for fields the log cannot know ahead of time.
	Sleep    float64
	Activity float64

	// Weather provenance, carried through to the prediction result.
	Source     models.WeatherSource
	SourceDate string
}

// Get returns the value for a training-set column name. The names match the
// columns the models were trained on, including the historical oddballs
// ("humid.*tavg", "Physical Activity").
func (v *FeatureVector) Get(name string) (float64, bool) {
	switch name {
	case "DayOfWeek":
		return v.DayOfWeek, true
	case "Month":
		return v.Month, true
	case "DayOfWeek_sin":
		return v.DayOfWeekSin, true
	case "DayOfWeek_cos":
		return v.DayOfWeekCos, true
	case "Month_sin":
		return v.MonthSin, true
	case "Month_cos":
		return v.MonthCos, true
	case "tavg":
		return v.TempAvg, true
	case "tmin":
		return v.TempMin, true
	case "tmax":
		return v.TempMax, true
	case "prcp":
		return v.Precipitation, true
	case "wspd":
		return v.WindSpeed, true
	case "pres":
		return v.Pressure, true
	case "pres_change":
		return v.PressureChange, true
	case "tsun":
		return v.SunshineMin, true
	case "average_humidity":
		return v.HumidityAvg, true
	case "midday_humidity":
		return v.HumidityMidday, true
	case "Latitude":
		return v.Latitude, true
	case "Longitude":
		return v.Longitude, true
	case "tdiff":
		return v.TempDiff, true
	case "humid.*tavg":
		return v.HumidityTempInt, true
	case "pres_change_lag1":
		return v.PresChangeLag1, true
	case "tavg_lag1":
		return v.TempAvgLag1, true
	case "Pain_Lag_1":
		return v.PainLag1, true
	case "Pain_Lag_2":
		return v.PainLag2, true
	case "Pain_Lag_3":
		return v.PainLag3, true
	case "Pain_Lag_7":
		return v.PainLag7, true
	case "Pain_Rolling_Mean_3":
		return v.PainRollingMean3, true
	case "Pain_Rolling_Mean_7":
		return v.PainRollingMean7, true
	case "Pain_Rolling_Mean_30":
		return v.PainRollingMean30, true
	case "Sleep":
		return v.Sleep, true
	case "Physical Activity":
		return v.Activity, true
	}
	return 0, false
}

// Columns exports the vector in the given column order. An unknown column
// name means the artifact and the feature engine disagree and is an error.
func (v *FeatureVector) Columns(order []string) ([]float64, error) {
	out := make([]float64, len(order))
	for i, name := range order {
		val, ok := v.Get(name)
		if !ok {
			return nil, fmt.Errorf("unknown feature column %q", name)
		}
		out[i] = val
	}
	return out, nil
}

// BuildFeatures turns a target date, the aggregated recent history and an
// optional weather snapshot into a feature vector. A nil weather snapshot
// yields engine defaults and Source "unknown".
func BuildFeatures(target time.Time, history []models.DayRecord, weather *models.WeatherSnapshot) FeatureVector {
	v := FeatureVector{
		Source: models.WeatherUnknown,
		// Same-day placeholders: assume Fair sleep and light-moderate activity.
		Sleep:    2.0,
		Activity: 1.5,
	}

	// Temporal. Weekday is Monday=0 to match the training data.
	dow := float64((int(target.Weekday()) + 6) % 7)
	month := float64(target.Month())
	v.DayOfWeek = dow
	v.Month = month
	v.DayOfWeekSin = math.Sin(2 * math.Pi * dow / 7)
	v.DayOfWeekCos = math.Cos(2 * math.Pi * dow / 7)
	v.MonthSin = math.Sin(2 * math.Pi * month / 12)
	v.MonthCos = math.Cos(2 * math.Pi * month / 12)

	// Weather, with defaults when absent.
	if weather != nil {
		v.TempAvg = weather.TempAvg
		v.TempMin = weather.TempMin
		v.TempMax = weather.TempMax
		v.Precipitation = weather.Precipitation
		v.WindSpeed = weather.WindSpeed
		v.Pressure = weather.Pressure
		v.PressureChange = weather.PressureChange
		v.SunshineMin = weather.SunshineMin
		v.HumidityAvg = weather.HumidityAvg
		v.HumidityMidday = weather.HumidityMidday
		v.Latitude = weather.Latitude
		v.Longitude = weather.Longitude
		v.Source = weather.Source
		v.SourceDate = weather.SourceDate
	} else {
		v.TempAvg = defaultTempAvg
		v.TempMin = defaultTempMin
		v.TempMax = defaultTempMax
		v.Pressure = defaultPressure
		v.HumidityAvg = defaultHumidity
		v.HumidityMidday = defaultHumidity
	}

	v.TempDiff = v.TempMax - v.TempMin
	v.HumidityTempInt = v.HumidityAvg * v.TempAvg
	v.PresChangeLag1 = 0 // assume stability for future dates
	v.TempAvgLag1 = v.TempAvg

	// Autoregressive lags from the per-day pain map.
	painByDay := make(map[string]float64, len(history))
	for _, d := range history {
		painByDay[models.DateKey(d.Date)] = d.Pain
	}
	lag := func(daysAgo int) float64 {
		return painByDay[models.DateKey(target.AddDate(0, 0, -daysAgo))]
	}

	v.PainLag1 = lag(1)
	v.PainLag2 = lag(2)
	v.PainLag3 = lag(3)
	v.PainLag7 = lag(7)

	var sum3, sum7, sum30 float64
	for i := 1; i <= 30; i++ {
		p := lag(i)
		if i <= 3 {
			sum3 += p
		}
		if i <= 7 {
			sum7 += p
		}
		sum30 += p
	}
	v.PainRollingMean3 = sum3 / 3
	v.PainRollingMean7 = sum7 / 7
	v.PainRollingMean30 = sum30 / 30

	return v
}

// flatCircadianPrior is the profile used when no positive-pain history with
// onset times exists.
const flatCircadianPrior = 0.1

// CircadianProfile builds a 24-hour onset-risk distribution from the raw
// log. Positive-pain entries are bucketed by onset hour, normalized,
// smoothed with a circular 0.2/0.6/0.2 kernel, then rescaled so the peak
// hour reads 0.8.
func CircadianProfile(entries []models.LogEntry) [24]float64 {
	var counts [24]int
	total := 0
	for _, e := range entries {
		if e.PainLevel <= 0 {
			continue
		}
		if h, ok := e.OnsetHour(); ok {
			counts[h]++
			total++
		}
	}

	var profile [24]float64
	if total == 0 {
		for i := range profile {
			profile[i] = flatCircadianPrior
		}
		return profile
	}

	var probs [24]float64
	for i, c := range counts {
		probs[i] = float64(c) / float64(total)
	}

	// Neighboring hours bleed risk into each other; wrap at midnight.
	var smoothed [24]float64
	peak := 0.0
	for i := 0; i < 24; i++ {
		prev := (i + 23) % 24
		next := (i + 1) % 24
		smoothed[i] = probs[prev]*0.2 + probs[i]*0.6 + probs[next]*0.2
		if smoothed[i] > peak {
			peak = smoothed[i]
		}
	}

	if peak <= 0 {
		for i := range profile {
			profile[i] = flatCircadianPrior
		}
		return profile
	}

	for i := range smoothed {
		profile[i] = smoothed[i] / peak * 0.8
	}
	return profile
}
