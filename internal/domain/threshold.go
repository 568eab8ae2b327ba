package domain

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// ErrEmptyPopulation is returned when no slice produced a single valid risk value.
var ErrEmptyPopulation = errors.New("no valid risk values in dataset")

// SliceSource yields time slices of a gridded dataset.
type SliceSource interface {
	TimeLen(axis string) (int, error)
	Isel(axis string, t int) (*grid.Slice, error)
}

// GlobalThreshold summarizes the risk distribution over the full dataset.
type GlobalThreshold struct {
	Mean      float64 `json:"global_mean"`
	Std       float64 `json:"global_std"`
	Threshold float64 `json:"threshold"`
	Median    float64 `json:"median"`
	P84       float64 `json:"p84"`
	P95       float64 `json:"p95"`
	Count     int     `json:"count"`

	// Skipped lists the time indices whose risk could not be computed.
	Skipped    []int     `json:"skipped,omitempty"`
	ComputedAt time.Time `json:"computed_at"`
}

// ComputeGlobalThreshold pools the valid risk values of every slice along
// timeAxis and derives threshold = mean + std. Slices that fail are logged
// and skipped. An empty pool returns ErrEmptyPopulation.
func ComputeGlobalThreshold(src SliceSource, timeAxis string, logger *slog.Logger) (*GlobalThreshold, error) {
	n, err := src.TimeLen(timeAxis)
	if err != nil {
		return nil, fmt.Errorf("global threshold: %w", err)
	}

	var (
		pool    []float64
		skipped []int
	)
	for t := range n {
		values, err := sliceRiskValues(src, timeAxis, t)
		if err != nil {
			logger.Warn("skipping slice in global threshold", "time_index", t, "error", err)
			skipped = append(skipped, t)
			continue
		}
		pool = append(pool, values...)
	}

	if len(pool) == 0 {
		logger.Warn("global threshold unavailable", "slices", n, "skipped", len(skipped))
		return nil, ErrEmptyPopulation
	}

	mean, std := meanStd(pool)
	sorted := sortedCopy(pool)
	g := &GlobalThreshold{
		Mean:       mean,
		Std:        std,
		Threshold:  mean + std,
		Median:     Percentile(sorted, 50),
		P84:        Percentile(sorted, 84),
		P95:        Percentile(sorted, 95),
		Count:      len(pool),
		Skipped:    skipped,
		ComputedAt: now(),
	}
	logger.Info("global threshold computed",
		"threshold", g.Threshold,
		"mean", g.Mean,
		"std", g.Std,
		"count", g.Count,
		"skipped", len(skipped),
	)
	return g, nil
}

func sliceRiskValues(src SliceSource, timeAxis string, t int) ([]float64, error) {
	s, err := src.Isel(timeAxis, t)
	if err != nil {
		return nil, err
	}
	b, err := ComputeRiskIndex(s)
	if err != nil {
		return nil, err
	}
	return b.Risk.Valid(), nil
}
