package domain

import (
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// LayerEvent is the published record of one evaluated time step: the alert
// summary, the ranked high-risk regions and the baseline they were judged
// against.
type LayerEvent struct {
	RunID     string           `json:"run_id"`
	Period    grid.YearMonth   `json:"period"`
	TimeIndex int              `json:"time_index"`
	Time      time.Time        `json:"time"`
	Alerts    AlertSummary     `json:"alerts"`
	Regions   []HighRiskRegion `json:"regions"`
	Global    *GlobalThreshold `json:"global_threshold"`

	// Spatial means of each variable in the slice, keyed by Variable name.
	// Variables the slice cannot provide are null.
	Means map[Variable]*float64 `json:"means"`

	GeneratedAt time.Time `json:"generated_at"`
}

// NewLayerEvent builds the event for an evaluation. global may be nil when
// the evaluation ran on a local threshold.
func NewLayerEvent(runID string, e Evaluation, global *GlobalThreshold) LayerEvent {
	means := make(map[Variable]*float64, len(Variables))
	for _, v := range Variables {
		f, err := v.Field(e.Bundle)
		if err != nil || f == nil {
			means[v] = nil
			continue
		}
		means[v] = nullable(NanMean(f))
	}

	return LayerEvent{
		RunID:       runID,
		Period:      e.Period,
		TimeIndex:   e.TimeIndex,
		Time:        e.Time,
		Alerts:      e.Alerts,
		Regions:     e.Regions,
		Global:      global,
		Means:       means,
		GeneratedAt: now(),
	}
}
