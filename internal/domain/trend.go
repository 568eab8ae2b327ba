package domain

import (
	"encoding/json"
	"log/slog"
	"math"
	"time"
)

// TrendPoint is the spatial mean of a variable at one time step.
type TrendPoint struct {
	Time  time.Time
	Value float64
}

func (p TrendPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time  time.Time  `json:"time"`
		Month time.Month `json:"month"`
		Value *float64   `json:"value"`
	}{p.Time, p.Time.Month(), nullable(p.Value)})
}

// MonthlyAverage is the climatological mean of one calendar month.
type MonthlyAverage struct {
	Month time.Month
	Value float64
}

func (m MonthlyAverage) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Month time.Month `json:"month"`
		Value *float64   `json:"value"`
	}{m.Month, nullable(m.Value)})
}

// TemporalTrend computes the spatial mean of v at every time step.
func TemporalTrend(src SliceSource, timeAxis string, v Variable, logger *slog.Logger) []TrendPoint {
	return trend(src, timeAxis, v, logger, func(time.Time) bool { return true })
}

// YearlyTrend computes the spatial mean of v at every time step of one year.
func YearlyTrend(src SliceSource, timeAxis string, v Variable, year int, logger *slog.Logger) []TrendPoint {
	return trend(src, timeAxis, v, logger, func(ts time.Time) bool { return ts.Year() == year })
}

// HistoricalAverage averages v per calendar month over [startYear, endYear].
// Months without data are NaN. When no step falls in the range every month is 0.
func HistoricalAverage(src SliceSource, timeAxis string, v Variable, startYear, endYear int, logger *slog.Logger) []MonthlyAverage {
	points := trend(src, timeAxis, v, logger, func(ts time.Time) bool {
		return ts.Year() >= startYear && ts.Year() <= endYear
	})

	out := make([]MonthlyAverage, 12)
	for m := range out {
		out[m].Month = time.Month(m + 1)
	}
	if len(points) == 0 {
		return out
	}

	var byMonth [12][]float64
	for _, p := range points {
		if !math.IsNaN(p.Value) {
			byMonth[p.Time.Month()-1] = append(byMonth[p.Time.Month()-1], p.Value)
		}
	}
	for m := range out {
		out[m].Value, _ = meanStd(byMonth[m])
	}
	return out
}

func trend(src SliceSource, timeAxis string, v Variable, logger *slog.Logger, keep func(time.Time) bool) []TrendPoint {
	n, err := src.TimeLen(timeAxis)
	if err != nil {
		logger.Warn("trend unavailable", "variable", v, "error", err)
		return nil
	}

	var points []TrendPoint
	for t := range n {
		s, err := src.Isel(timeAxis, t)
		if err != nil {
			logger.Warn("trend slice unavailable", "variable", v, "time_index", t, "error", err)
			continue
		}
		if !keep(s.Time) {
			continue
		}
		value, err := SpatialMean(s, v)
		if err != nil {
			logger.Warn("trend value unavailable", "variable", v, "time_index", t, "error", err)
			value = math.NaN()
		}
		points = append(points, TrendPoint{Time: s.Time, Value: value})
	}
	return points
}
