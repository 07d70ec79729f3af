package history

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/AreTaj/Migraine-Navigator/internal/models"
)

// ImportCSV reads log entries from r and inserts them into the store.
// The header row is matched case-insensitively; recognized columns are
// Date, Time, Pain Level, Sleep, Physical Activity, Medications, Latitude
// and Longitude. Rows with an unparsable date are skipped and counted.
// Returns the number of imported rows and the number skipped.
func (s *Store) ImportCSV(ctx context.Context, r io.Reader) (imported, skipped int, err error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return 0, 0, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["date"]; !ok {
		return 0, 0, fmt.Errorf("missing required column %q", "Date")
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return imported, skipped, fmt.Errorf("read row: %w", err)
		}

		date, err := time.Parse(models.DateLayout, field(row, "date"))
		if err != nil {
			skipped++
			continue
		}

		e := models.LogEntry{
			Date:     date,
			Time:     field(row, "time"),
			Sleep:    models.ParseSleep(field(row, "sleep")),
			Activity: models.ParseActivity(field(row, "physical activity")),
		}
		if v, err := strconv.ParseFloat(field(row, "pain level"), 64); err == nil {
			e.PainLevel = v
		}
		for _, name := range splitMedications(field(row, "medications")) {
			e.Medications = append(e.Medications, models.Medication{Name: name})
		}

		lat, latErr := strconv.ParseFloat(field(row, "latitude"), 64)
		lon, lonErr := strconv.ParseFloat(field(row, "longitude"), 64)
		if latErr == nil && lonErr == nil {
			e.Latitude, e.Longitude, e.HasLocation = lat, lon, true
		}

		if _, err := s.AddEntry(ctx, &e); err != nil {
			return imported, skipped, err
		}
		imported++
	}
	return imported, skipped, nil
}

// splitMedications parses a free-form medication cell: names separated by
// semicolons or commas, empty segments dropped.
func splitMedications(cell string) []string {
	if cell == "" {
		return nil
	}
	cell = strings.ReplaceAll(cell, ";", ",")
	var out []string
	for _, part := range strings.Split(cell, ",") {
		if name := strings.TrimSpace(part); name != "" {
			out = append(out, name)
		}
	}
	return out
}
