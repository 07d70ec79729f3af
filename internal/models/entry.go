// Package models contains data structures used throughout the application
package models

import (
	"strconv"
	"strings"
	"time"
)

// DateLayout is the canonical calendar-day format used for log dates,
// cache keys and API date strings.
const DateLayout = "2006-01-02"

// Medication is a single logged dose.
type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage,omitempty"`
}

// LogEntry is one row of the personal migraine log. Multiple entries may
// share a calendar day; the forecasting engine aggregates per day before use
// and never mutates entries it reads.
type LogEntry struct {
	ID          int64        `json:"id,omitempty"`
	Date        time.Time    `json:"date"`           // calendar day, time component zero
	Time        string       `json:"time,omitempty"` // onset time "HH:MM", may be empty
	PainLevel   float64      `json:"painLevel"`      // 0-10
	Sleep       float64      `json:"sleep"`          // 1=Poor 2=Fair 3=Good
	Activity    float64      `json:"activity"`       // 0-3 (Low..Heavy)
	Medications []Medication `json:"medications,omitempty"`
	Latitude    float64      `json:"latitude,omitempty"`
	Longitude   float64      `json:"longitude,omitempty"`
	HasLocation bool         `json:"-"`
}

// DayRecord is the per-day aggregate the feature engine consumes:
// max pain, mean sleep and mean activity over all entries of that day.
type DayRecord struct {
	Date     time.Time `json:"date"`
	Pain     float64   `json:"pain"`
	Sleep    float64   `json:"sleep"`
	Activity float64   `json:"activity"`
}

// OnsetHour parses the entry's time-of-day and returns the hour (0-23).
// Returns false for empty or malformed times.
func (e *LogEntry) OnsetHour() (int, bool) {
	if e.Time == "" {
		return 0, false
	}
	parts := strings.SplitN(e.Time, ":", 2)
	h, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	return h, true
}

// ParseSleep converts a sleep quality value ("Poor"/"Fair"/"Good" or a
// number) to the numeric 1-3 scale. Unknown values map to 0.
func ParseSleep(s string) float64 {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "poor":
		return 1
	case "fair":
		return 2
	case "good":
		return 3
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v
	}
	return 0
}

// ParseActivity converts an activity level ("Low"/"Moderate"/"Heavy" or a
// number) to the numeric 0-3 scale. Unknown values map to 0.
func ParseActivity(s string) float64 {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "low":
		return 1
	case "moderate":
		return 2
	case "heavy":
		return 3
	}
	if v, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
		return v
	}
	return 0
}

// DateKey formats a time as the canonical date string.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// Midnight truncates a time to its calendar day.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
