// Package firecsv reads the historical wildfire register and keeps the
// Galician fires large enough to matter for risk validation.
package firecsv

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

// Column names of the register.
const (
	colArea = "superficie"
	colLat  = "lat"
	colLon  = "lng"
	colDate = "fecha"
)

// Filter bounds. Latitude and longitude bounds are exclusive.
const (
	MinAreaHa = 10.0
	MinLat    = 41.78
	MaxLat    = 43.3
	MinLon    = -9.7
	MaxLon    = -6.7
)

// Since is the earliest fire date kept.
var Since = time.Date(2017, time.January, 1, 0, 0, 0, 0, time.UTC)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var dateLayouts = []string{
	time.DateOnly,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.RFC3339,
}

// Load reads the register at path. A missing file is not an error: it is
// logged and yields no fires.
func Load(path string, logger *slog.Logger) ([]domain.FireEvent, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("fire register not found, continuing without fires", "path", path)
		return []domain.FireEvent{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open fire register: %w", err)
	}
	defer f.Close()

	fires, err := Parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("read fire register %s: %w", path, err)
	}
	logger.Info("fire register loaded", "path", path, "fires", len(fires))
	return fires, nil
}

// Parse reads CSV records and keeps fires over MinAreaHa inside the Galicia
// bounding box dated on or after Since. Rows that cannot be parsed are
// skipped and counted in a single warning.
func Parse(r io.Reader, logger *slog.Logger) ([]domain.FireEvent, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := columnIndex(header)
	if err != nil {
		return nil, err
	}

	fires := []domain.FireEvent{}
	malformed := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				malformed++
				continue
			}
			return nil, err
		}

		fire, err := parseRecord(rec, cols)
		if err != nil {
			malformed++
			continue
		}
		if keep(fire) {
			fires = append(fires, fire)
		}
	}

	if malformed > 0 {
		logger.Warn("skipped malformed fire records", "count", malformed)
	}
	return fires, nil
}

type columns struct {
	area, lat, lon, date int
}

func columnIndex(header []string) (columns, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))] = i
	}
	lookup := func(name string) (int, error) {
		i, ok := idx[name]
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		return i, nil
	}

	var c columns
	var err error
	if c.area, err = lookup(colArea); err != nil {
		return c, err
	}
	if c.lat, err = lookup(colLat); err != nil {
		return c, err
	}
	if c.lon, err = lookup(colLon); err != nil {
		return c, err
	}
	if c.date, err = lookup(colDate); err != nil {
		return c, err
	}
	return c, nil
}

func parseRecord(rec []string, c columns) (domain.FireEvent, error) {
	field := func(i int) (string, error) {
		if i >= len(rec) {
			return "", errors.New("short record")
		}
		return strings.TrimSpace(rec[i]), nil
	}
	number := func(i int) (float64, error) {
		s, err := field(i)
		if err != nil {
			return 0, err
		}
		return strconv.ParseFloat(s, 64)
	}

	area, err := number(c.area)
	if err != nil {
		return domain.FireEvent{}, fmt.Errorf("area: %w", err)
	}
	lat, err := number(c.lat)
	if err != nil {
		return domain.FireEvent{}, fmt.Errorf("lat: %w", err)
	}
	lon, err := number(c.lon)
	if err != nil {
		return domain.FireEvent{}, fmt.Errorf("lng: %w", err)
	}
	raw, err := field(c.date)
	if err != nil {
		return domain.FireEvent{}, err
	}
	date, err := parseDate(raw)
	if err != nil {
		return domain.FireEvent{}, err
	}
	return domain.NewFireEvent(date, lat, lon, area), nil
}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

func keep(f domain.FireEvent) bool {
	return f.AreaHa > MinAreaHa &&
		f.Lat > MinLat && f.Lat < MaxLat &&
		f.Lon > MinLon && f.Lon < MaxLon &&
		!f.Date.Before(Since)
}
