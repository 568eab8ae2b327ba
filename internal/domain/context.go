package domain

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// Evaluation is the alert summary and ranked high-risk regions of one time step.
type Evaluation struct {
	Period    grid.YearMonth   `json:"period"`
	TimeIndex int              `json:"time_index"`
	Time      time.Time        `json:"time"`
	Alerts    AlertSummary     `json:"alerts"`
	Regions   []HighRiskRegion `json:"regions"`

	Bundle RiskBundle `json:"-"`
}

// ClimateContext owns a loaded dataset and its lazily computed global
// threshold. It is safe for concurrent use once constructed.
type ClimateContext struct {
	dataset *grid.Dataset
	fires   []FireEvent
	logger  *slog.Logger

	once         sync.Once
	threshold    *GlobalThreshold
	thresholdErr error
}

// NewClimateContext wraps a loaded dataset and the historical fire records.
func NewClimateContext(ds *grid.Dataset, fires []FireEvent, logger *slog.Logger) *ClimateContext {
	return &ClimateContext{dataset: ds, fires: fires, logger: logger}
}

// Dataset returns the underlying dataset.
func (c *ClimateContext) Dataset() *grid.Dataset { return c.dataset }

// TimeAxis is the name of the dataset's time dimension.
func (c *ClimateContext) TimeAxis() string { return c.dataset.TimeAxis }

// Fires returns every loaded fire record.
func (c *ClimateContext) Fires() []FireEvent { return c.fires }

// Periods lists the months available for evaluation.
func (c *ClimateContext) Periods() []grid.YearMonth { return c.dataset.AvailableYearMonths() }

// Threshold returns the global threshold, computing it on first use.
// ErrEmptyPopulation means the baseline is unavailable.
func (c *ClimateContext) Threshold() (*GlobalThreshold, error) {
	c.once.Do(func() {
		c.threshold, c.thresholdErr = ComputeGlobalThreshold(c.dataset, c.dataset.TimeAxis, c.logger)
	})
	return c.threshold, c.thresholdErr
}

// Degraded reports whether alerts are running on per-slice fallback thresholds.
func (c *ClimateContext) Degraded() bool {
	g, err := c.Threshold()
	return g == nil || err != nil
}

// CheckReadiness returns nil once a non-empty dataset is loaded.
func (c *ClimateContext) CheckReadiness(_ context.Context) error {
	if c.dataset == nil || len(c.dataset.Times) == 0 {
		return errors.New("climate dataset not loaded")
	}
	return nil
}

// EvaluateMonth evaluates the first time step of the given month, or the
// first time step of the dataset when the month is not present.
func (c *ClimateContext) EvaluateMonth(year int, month time.Month) (Evaluation, error) {
	return c.EvaluateIndex(c.dataset.IndexForMonth(year, month))
}

// EvaluateIndex computes risk, alerts and high-risk regions for time index t.
func (c *ClimateContext) EvaluateIndex(t int) (Evaluation, error) {
	s, err := c.dataset.Isel(c.dataset.TimeAxis, t)
	if err != nil {
		return Evaluation{}, err
	}
	b, err := ComputeRiskIndex(s)
	if err != nil {
		return Evaluation{}, fmt.Errorf("time index %d: %w", t, err)
	}

	// Any threshold error leaves g nil, which selects the local fallback.
	g, _ := c.Threshold()
	alerts := ComputeAlerts(b, g)

	lsm, _ := s.Var(VarLandSeaMask)
	regions := SelectHighRiskRegions(b, alerts, lsm, c.logger)

	return Evaluation{
		Period:    grid.YearMonth{Year: s.Time.Year(), Month: s.Time.Month()},
		TimeIndex: t,
		Time:      s.Time,
		Alerts:    alerts,
		Regions:   regions,
		Bundle:    b,
	}, nil
}

// Layer builds the renderable layer of v for the given month.
func (c *ClimateContext) Layer(year int, month time.Month, v Variable) (Layer, error) {
	t := c.dataset.IndexForMonth(year, month)
	s, err := c.dataset.Isel(c.dataset.TimeAxis, t)
	if err != nil {
		return Layer{}, err
	}
	b, err := ComputeRiskIndex(s)
	if err != nil {
		return Layer{}, fmt.Errorf("time index %d: %w", t, err)
	}
	return BuildLayer(b, v)
}
