// Package weather fetches and aggregates Open-Meteo forecast data into the
// daily and hourly snapshots the forecasting engine consumes.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

const defaultBaseURL = "https://api.open-meteo.com"

const hourLayout = "2006-01-02T15:04"

// middayHour is the hour whose humidity is exported as a standalone
// feature.
const middayHour = 12

// Cache is the persistence hook for fetched snapshots. The history store
// satisfies it; a nil cache disables write-through and fallback.
type Cache interface {
	SaveWeather(ctx context.Context, date time.Time, snap *models.WeatherSnapshot) error
	LatestWeather(ctx context.Context) (snap *models.WeatherSnapshot, date string, ok bool, err error)
}

// Client talks to the Open-Meteo forecast API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	cache      Cache
	logger     *slog.Logger
}

// NewClient creates a weather client. cache and logger may be nil.
func NewClient(cache Cache, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		baseURL: defaultBaseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		cache:  cache,
		logger: logger,
	}
}

// SetBaseURL overrides the API endpoint, for tests.
func (c *Client) SetBaseURL(u string) {
	c.baseURL = u
}

// buildRequest creates a GET request against the forecast endpoint.
func (c *Client) buildRequest(ctx context.Context, params url.Values) (*http.Request, error) {
	fullURL := c.baseURL + "/v1/forecast?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doRequest executes a request and returns the response body.
func (c *Client) doRequest(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("API error %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}

// forecastResponse mirrors the subset of the Open-Meteo payload we use.
type forecastResponse struct {
	Hourly struct {
		Time          []string  `json:"time"`
		Temperature   []float64 `json:"temperature_2m"`
		Humidity      []float64 `json:"relative_humidity_2m"`
		Pressure      []float64 `json:"surface_pressure"`
		Precipitation []float64 `json:"precipitation"`
		WindSpeed     []float64 `json:"wind_speed_10m"`
	} `json:"hourly"`
	Daily struct {
		Time     []string  `json:"time"`
		Sunshine []float64 `json:"sunshine_duration"`
	} `json:"daily"`
}

func baseParams(lat, lon float64) url.Values {
	params := url.Values{}
	params.Set("latitude", strconv.FormatFloat(lat, 'f', 4, 64))
	params.Set("longitude", strconv.FormatFloat(lon, 'f', 4, 64))
	params.Set("hourly", "temperature_2m,relative_humidity_2m,surface_pressure,precipitation,wind_speed_10m")
	params.Set("timezone", "auto")
	return params
}

func (c *Client) fetchForecast(ctx context.Context, params url.Values) (*forecastResponse, error) {
	req, err := c.buildRequest(ctx, params)
	if err != nil {
		return nil, err
	}
	body, err := c.doRequest(req)
	if err != nil {
		return nil, err
	}
	var fr forecastResponse
	if err := json.Unmarshal(body, &fr); err != nil {
		return nil, fmt.Errorf("parsing forecast: %w", err)
	}
	return &fr, nil
}

// dayAggregate collapses the hourly arrays of one calendar day.
type dayAggregate struct {
	tavg, tmin, tmax  float64
	prcp, wspd, pres  float64
	humAvg, humMidday float64
	hours             int
}

// aggregateDays groups the hourly payload by date string.
func aggregateDays(fr *forecastResponse) map[string]*dayAggregate {
	out := make(map[string]*dayAggregate)
	h := fr.Hourly
	for i, ts := range h.Time {
		t, err := time.Parse(hourLayout, ts)
		if err != nil {
			continue
		}
		key := models.DateKey(t)
		agg, ok := out[key]
		if !ok {
			agg = &dayAggregate{tmin: h.Temperature[i], tmax: h.Temperature[i]}
			out[key] = agg
		}

		temp := h.Temperature[i]
		agg.tavg += temp
		if temp < agg.tmin {
			agg.tmin = temp
		}
		if temp > agg.tmax {
			agg.tmax = temp
		}
		agg.prcp += h.Precipitation[i]
		agg.wspd += h.WindSpeed[i]
		agg.pres += h.Pressure[i]
		agg.humAvg += h.Humidity[i]
		if t.Hour() == middayHour {
			agg.humMidday = h.Humidity[i]
		}
		agg.hours++
	}

	for _, agg := range out {
		n := float64(agg.hours)
		agg.tavg /= n
		agg.wspd /= n
		agg.pres /= n
		agg.humAvg /= n
	}
	return out
}

// FetchDaily returns the aggregated snapshot for one target date. The
// request spans the preceding day too so the day-over-day pressure change
// can be computed. Successful fetches are written through to the cache; on
// failure the most recent cached snapshot is substituted with Source
// "historical_fallback".
func (c *Client) FetchDaily(ctx context.Context, lat, lon float64, date time.Time) (*models.WeatherSnapshot, error) {
	prev := date.AddDate(0, 0, -1)
	params := baseParams(lat, lon)
	params.Set("daily", "sunshine_duration")
	params.Set("start_date", models.DateKey(prev))
	params.Set("end_date", models.DateKey(date))

	fr, err := c.fetchForecast(ctx, params)
	if err != nil {
		return c.fallback(ctx, err)
	}

	days := aggregateDays(fr)
	target, ok := days[models.DateKey(date)]
	if !ok || target.hours == 0 {
		return c.fallback(ctx, fmt.Errorf("no hourly data for %s", models.DateKey(date)))
	}

	snap := &models.WeatherSnapshot{
		TempAvg:        target.tavg,
		TempMin:        target.tmin,
		TempMax:        target.tmax,
		Precipitation:  target.prcp,
		WindSpeed:      target.wspd,
		Pressure:       target.pres,
		HumidityAvg:    target.humAvg,
		HumidityMidday: target.humMidday,
		Source:         models.WeatherLive,
		Latitude:       lat,
		Longitude:      lon,
	}
	if prior, ok := days[models.DateKey(prev)]; ok && prior.hours > 0 {
		snap.PressureChange = target.pres - prior.pres
	}
	for i, ts := range fr.Daily.Time {
		if ts == models.DateKey(date) && i < len(fr.Daily.Sunshine) {
			snap.SunshineMin = fr.Daily.Sunshine[i] / 60.0
		}
	}

	if c.cache != nil {
		if err := c.cache.SaveWeather(ctx, date, snap); err != nil {
			c.logger.Warn("weather cache write failed", "error", err)
		}
	}
	return snap, nil
}

func (c *Client) fallback(ctx context.Context, cause error) (*models.WeatherSnapshot, error) {
	if c.cache == nil {
		return nil, cause
	}
	snap, date, ok, err := c.cache.LatestWeather(ctx)
	if err != nil || !ok {
		return nil, cause
	}
	c.logger.Warn("weather fetch failed, using cached snapshot",
		"error", cause, "snapshotDate", date)
	snap.Source = models.WeatherHistoricalFallback
	snap.SourceDate = date
	return snap, nil
}

// FetchHourly returns per-hour snapshots for the next n hours, each with
// its trailing 3-hour pressure delta. Hours before the current one are
// requested only to seed the delta and are not returned.
func (c *Client) FetchHourly(ctx context.Context, lat, lon float64, hours int) ([]models.HourlySnapshot, error) {
	params := baseParams(lat, lon)
	params.Set("past_hours", "3")
	params.Set("forecast_hours", strconv.Itoa(hours))

	fr, err := c.fetchForecast(ctx, params)
	if err != nil {
		return nil, err
	}

	h := fr.Hourly
	out := make([]models.HourlySnapshot, 0, hours)
	for i, ts := range h.Time {
		if i < 3 {
			continue
		}
		t, err := time.Parse(hourLayout, ts)
		if err != nil {
			continue
		}
		out = append(out, models.HourlySnapshot{
			Time:             t,
			Temp:             h.Temperature[i],
			Humidity:         h.Humidity[i],
			Pressure:         h.Pressure[i],
			PressureChange3h: h.Pressure[i] - h.Pressure[i-3],
			Precipitation:    h.Precipitation[i],
			WindSpeed:        h.WindSpeed[i],
		})
	}
	return out, nil
}

// FetchWeekly fetches [start, start+days) in one request and returns the
// per-day snapshots keyed by date string. Each snapshot carries Source
// "prefetched"; the day before start is included in the request so the
// first day gets a pressure change too.
func (c *Client) FetchWeekly(ctx context.Context, lat, lon float64, start time.Time, days int) (map[string]*models.WeatherSnapshot, error) {
	prev := start.AddDate(0, 0, -1)
	end := start.AddDate(0, 0, days-1)

	params := baseParams(lat, lon)
	params.Set("daily", "sunshine_duration")
	params.Set("start_date", models.DateKey(prev))
	params.Set("end_date", models.DateKey(end))

	fr, err := c.fetchForecast(ctx, params)
	if err != nil {
		return nil, err
	}

	aggs := aggregateDays(fr)
	sunshine := make(map[string]float64, len(fr.Daily.Time))
	for i, ts := range fr.Daily.Time {
		if i < len(fr.Daily.Sunshine) {
			sunshine[ts] = fr.Daily.Sunshine[i] / 60.0
		}
	}

	out := make(map[string]*models.WeatherSnapshot, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		key := models.DateKey(day)
		agg, ok := aggs[key]
		if !ok || agg.hours == 0 {
			continue
		}
		snap := &models.WeatherSnapshot{
			TempAvg:        agg.tavg,
			TempMin:        agg.tmin,
			TempMax:        agg.tmax,
			Precipitation:  agg.prcp,
			WindSpeed:      agg.wspd,
			Pressure:       agg.pres,
			HumidityAvg:    agg.humAvg,
			HumidityMidday: agg.humMidday,
			SunshineMin:    sunshine[key],
			Source:         models.WeatherPrefetched,
			Latitude:       lat,
			Longitude:      lon,
		}
		if prior, ok := aggs[models.DateKey(day.AddDate(0, 0, -1))]; ok && prior.hours > 0 {
			snap.PressureChange = agg.pres - prior.pres
		}
		out[key] = snap
	}
	return out, nil
}
