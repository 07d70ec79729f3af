package models

import "time"

// WeatherSource indicates where a snapshot's data came from.
type WeatherSource string

const (
	// WeatherLive means the snapshot was fetched from the forecast API.
	WeatherLive WeatherSource = "live"
	// WeatherHistoricalFallback means the live fetch failed and the most
	// recent cached observation was substituted.
	WeatherHistoricalFallback WeatherSource = "historical_fallback"
	// WeatherPrefetched means the snapshot came from a batch (weekly) fetch.
	WeatherPrefetched WeatherSource = "prefetched"
	// WeatherUnknown means no weather was available; the feature engine
	// substitutes defaults.
	WeatherUnknown WeatherSource = "unknown"
)

// WeatherSnapshot is one day of aggregated weather features.
type WeatherSnapshot struct {
	TempAvg        float64 `json:"tavg"`
	TempMin        float64 `json:"tmin"`
	TempMax        float64 `json:"tmax"`
	Precipitation  float64 `json:"prcp"` // daily sum, mm
	WindSpeed      float64 `json:"wspd"`
	Pressure       float64 `json:"pres"` // daily mean surface pressure, hPa
	PressureChange float64 `json:"presChange"` // mean pressure delta vs prior day, hPa
	SunshineMin    float64 `json:"tsun"` // sunshine duration, minutes
	HumidityAvg    float64 `json:"averageHumidity"`
	HumidityMidday float64 `json:"middayHumidity"`

	Source     WeatherSource `json:"source"`
	SourceDate string        `json:"sourceDate,omitempty"` // set for historical fallback
	Latitude   float64       `json:"latitude,omitempty"`
	Longitude  float64       `json:"longitude,omitempty"`
}

// HourlySnapshot is one hour of weather for the hourly forecast window.
type HourlySnapshot struct {
	Time             time.Time `json:"time"`
	Temp             float64   `json:"temp"`
	Humidity         float64   `json:"humidity"`
	Pressure         float64   `json:"pressure"`
	PressureChange3h float64   `json:"pressureChange3h"` // P(t) - P(t-3h), hPa
	Precipitation    float64   `json:"prcp"`
	WindSpeed        float64   `json:"wind"`
}
