// Package history persists the migraine log, cached weather and user
// settings in a local SQLite database.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	_ "modernc.org/sqlite"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

const schema = `
CREATE TABLE IF NOT EXISTS migraine_log (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	date TEXT NOT NULL,
	time TEXT NOT NULL DEFAULT '',
	pain_level REAL NOT NULL DEFAULT 0,
	sleep REAL NOT NULL DEFAULT 0,
	activity REAL NOT NULL DEFAULT 0,
	medications TEXT NOT NULL DEFAULT '[]',
	latitude REAL,
	longitude REAL
);
CREATE INDEX IF NOT EXISTS idx_migraine_log_date ON migraine_log(date);

CREATE TABLE IF NOT EXISTS weather_cache (
	date TEXT PRIMARY KEY,
	snapshot TEXT NOT NULL,
	fetched_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS user_settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Store wraps the SQLite database. The optional onChange hook fires after
// every write so callers can invalidate derived state (prediction caches).
type Store struct {
	db       *sql.DB
	onChange func()
}

// Open opens (creating if needed) the database at path and applies the
// schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// OnChange registers a hook invoked after every successful write.
func (s *Store) OnChange(fn func()) {
	s.onChange = fn
}

func (s *Store) changed() {
	if s.onChange != nil {
		s.onChange()
	}
}

// AddEntry inserts a log entry and returns its assigned id.
func (s *Store) AddEntry(ctx context.Context, e *models.LogEntry) (int64, error) {
	meds, err := json.Marshal(e.Medications)
	if err != nil {
		return 0, fmt.Errorf("encode medications: %w", err)
	}

	var lat, lon any
	if e.HasLocation {
		lat, lon = e.Latitude, e.Longitude
	}

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO migraine_log (date, time, pain_level, sleep, activity, medications, latitude, longitude)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		models.DateKey(e.Date), e.Time, e.PainLevel, e.Sleep, e.Activity, string(meds), lat, lon)
	if err != nil {
		return 0, fmt.Errorf("insert entry: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	e.ID = id
	s.changed()
	return id, nil
}

// RecentHistory aggregates the last n days of the log into per-day records:
// max pain, mean sleep, mean activity. Days with no entries are absent.
func (s *Store) RecentHistory(ctx context.Context, days int) ([]models.DayRecord, error) {
	cutoff := models.DateKey(time.Now().AddDate(0, 0, -days))
	rows, err := s.db.QueryContext(ctx, `
		SELECT date, MAX(pain_level), AVG(sleep), AVG(activity)
		FROM migraine_log
		WHERE date >= ?
		GROUP BY date
		ORDER BY date ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []models.DayRecord
	for rows.Next() {
		var dateStr string
		var d models.DayRecord
		if err := rows.Scan(&dateStr, &d.Pain, &d.Sleep, &d.Activity); err != nil {
			return nil, err
		}
		d.Date, err = time.Parse(models.DateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("malformed date %q in log: %w", dateStr, err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// RecentEntries returns raw entries for the last n days, oldest first.
func (s *Store) RecentEntries(ctx context.Context, days int) ([]models.LogEntry, error) {
	cutoff := models.DateKey(time.Now().AddDate(0, 0, -days))
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, date, time, pain_level, sleep, activity, medications, latitude, longitude
		FROM migraine_log
		WHERE date >= ?
		ORDER BY date ASC, time ASC`, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	var out []models.LogEntry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func scanEntry(rows *sql.Rows) (models.LogEntry, error) {
	var e models.LogEntry
	var dateStr, meds string
	var lat, lon sql.NullFloat64
	if err := rows.Scan(&e.ID, &dateStr, &e.Time, &e.PainLevel, &e.Sleep, &e.Activity, &meds, &lat, &lon); err != nil {
		return e, err
	}
	var err error
	e.Date, err = time.Parse(models.DateLayout, dateStr)
	if err != nil {
		return e, fmt.Errorf("malformed date %q in log: %w", dateStr, err)
	}
	if meds != "" {
		if err := json.Unmarshal([]byte(meds), &e.Medications); err != nil {
			return e, fmt.Errorf("decode medications for entry %d: %w", e.ID, err)
		}
	}
	if lat.Valid && lon.Valid {
		e.Latitude, e.Longitude, e.HasLocation = lat.Float64, lon.Float64, true
	}
	return e, nil
}

// LatestLocation returns the coordinates of the most recent entry that has
// them.
func (s *Store) LatestLocation(ctx context.Context) (lat, lon float64, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT latitude, longitude FROM migraine_log
		WHERE latitude IS NOT NULL AND longitude IS NOT NULL
		ORDER BY date DESC, id DESC LIMIT 1`)
	err = row.Scan(&lat, &lon)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, 0, false, nil
	}
	if err != nil {
		return 0, 0, false, err
	}
	return lat, lon, true, nil
}

// SaveWeather writes a snapshot into the weather cache, replacing any
// earlier snapshot for the same date.
func (s *Store) SaveWeather(ctx context.Context, date time.Time, snap *models.WeatherSnapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO weather_cache (date, snapshot, fetched_at) VALUES (?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET snapshot = excluded.snapshot, fetched_at = excluded.fetched_at`,
		models.DateKey(date), string(data), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("cache weather: %w", err)
	}
	return nil
}

// LatestWeather returns the most recent cached snapshot and its date.
// ok is false when the cache is empty.
func (s *Store) LatestWeather(ctx context.Context) (snap *models.WeatherSnapshot, date string, ok bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT date, snapshot FROM weather_cache ORDER BY date DESC LIMIT 1`)
	var data string
	err = row.Scan(&date, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", false, nil
	}
	if err != nil {
		return nil, "", false, err
	}
	snap = &models.WeatherSnapshot{}
	if err := json.Unmarshal([]byte(data), snap); err != nil {
		return nil, "", false, fmt.Errorf("decode cached snapshot: %w", err)
	}
	return snap, date, true, nil
}

// Setting keys for the heuristic priors.
const (
	settingBaselineRisk       = "baseline_risk"
	settingWeatherSensitivity = "weather_sensitivity"
	settingSleepSensitivity   = "sleep_sensitivity"
	settingStrainSensitivity  = "strain_sensitivity"
	settingForceHeuristic     = "force_heuristic"
)

// GetSetting returns the value for key, or "" when unset.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	row := s.db.QueryRowContext(ctx, `SELECT value FROM user_settings WHERE key = ?`, key)
	var v string
	err := row.Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	return v, err
}

// SetSetting stores a key/value pair.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO user_settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	s.changed()
	return nil
}

// Priors assembles heuristic priors from the settings table, falling back
// to defaults for unset keys.
func (s *Store) Priors(ctx context.Context) (*models.UserPriors, error) {
	p := models.DefaultPriors()

	read := func(key string, dst *float64) error {
		v, err := s.GetSetting(ctx, key)
		if err != nil {
			return err
		}
		if v == "" {
			return nil
		}
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("setting %s: %w", key, err)
		}
		*dst = f
		return nil
	}

	if err := read(settingBaselineRisk, &p.BaselineRisk); err != nil {
		return nil, err
	}
	if err := read(settingWeatherSensitivity, &p.WeatherSensitivity); err != nil {
		return nil, err
	}
	if err := read(settingSleepSensitivity, &p.SleepSensitivity); err != nil {
		return nil, err
	}
	if err := read(settingStrainSensitivity, &p.StrainSensitivity); err != nil {
		return nil, err
	}

	v, err := s.GetSetting(ctx, settingForceHeuristic)
	if err != nil {
		return nil, err
	}
	if v != "" {
		p.ForceHeuristic, _ = strconv.ParseBool(v)
	}
	return p, nil
}

// SavePriors persists the priors into the settings table.
func (s *Store) SavePriors(ctx context.Context, p *models.UserPriors) error {
	format := strconv.FormatFloat
	pairs := map[string]string{
		settingBaselineRisk:       format(p.BaselineRisk, 'f', -1, 64),
		settingWeatherSensitivity: format(p.WeatherSensitivity, 'f', -1, 64),
		settingSleepSensitivity:   format(p.SleepSensitivity, 'f', -1, 64),
		settingStrainSensitivity:  format(p.StrainSensitivity, 'f', -1, 64),
		settingForceHeuristic:     strconv.FormatBool(p.ForceHeuristic),
	}
	for k, v := range pairs {
		if err := s.SetSetting(ctx, k, v); err != nil {
			return err
		}
	}
	return nil
}
