package cities

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/astro/astrogo/internal/scout"
)

// ParseCSV reads city records from r in name,country,lat,lon order.
// A header row is detected and skipped. Malformed rows are skipped with
// a warning log.
func ParseCSV(r io.Reader, logger *slog.Logger) ([]scout.City, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var out []scout.City
	row := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading city data: %w", err)
		}
		row++

		if len(record) < 4 {
			logger.Warn("skipping short city row", "row", row, "fields", len(record))
			continue
		}

		name := strings.TrimSpace(record[0])
		country := strings.TrimSpace(record[1])
		if row == 1 && looksLikeHeader(record) {
			continue
		}
		if name == "" || country == "" {
			logger.Warn("skipping city row with empty name or country", "row", row)
			continue
		}

		lat, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			logger.Warn("skipping city row with invalid latitude", "row", row, "name", name, "value", record[2])
			continue
		}
		lng, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			logger.Warn("skipping city row with invalid longitude", "row", row, "name", name, "value", record[3])
			continue
		}
		if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
			logger.Warn("skipping city row with out-of-range coordinates", "row", row, "name", name, "lat", lat, "lon", lng)
			continue
		}

		out = append(out, scout.City{Name: name, Country: country, Lat: lat, Lng: lng})
	}

	return out, nil
}

// looksLikeHeader reports whether a first row holds column names rather
// than data.
func looksLikeHeader(record []string) bool {
	if _, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64); err == nil {
		return false
	}
	return true
}
