package domain

import (
	"encoding/json"
	"math"
	"time"
)

// Threshold sources reported on an AlertSummary.
const (
	ThresholdGlobal = "global"
	ThresholdLocal  = "local"
)

// AlertSummary aggregates the conditions of one slice against the risk threshold.
type AlertSummary struct {
	Time time.Time

	TempMean     float64
	TempStd      float64
	HumidityMean float64
	HumidityStd  float64
	WindMean     float64
	WindStd      float64
	RiskMean     float64
	RiskStd      float64

	Threshold  float64
	GlobalMean float64
	GlobalStd  float64

	// HighRiskCount is the number of cells strictly above Threshold.
	HighRiskCount int

	// ThresholdSource is ThresholdGlobal, or ThresholdLocal when the global
	// baseline was unavailable and Degraded is set.
	ThresholdSource string
	Degraded        bool
}

// ComputeAlerts summarizes a risk bundle. With a nil global threshold the
// slice's own mean + std is used instead and the summary is marked degraded.
func ComputeAlerts(b RiskBundle, global *GlobalThreshold) AlertSummary {
	a := AlertSummary{Time: b.Time}
	a.TempMean, a.TempStd = meanStd(b.Temperature.Valid())
	a.HumidityMean, a.HumidityStd = meanStd(b.Humidity.Valid())
	a.WindMean, a.WindStd = meanStd(b.WindSpeed.Valid())
	a.RiskMean, a.RiskStd = meanStd(b.Risk.Valid())

	if global != nil {
		a.Threshold = global.Threshold
		a.GlobalMean = global.Mean
		a.GlobalStd = global.Std
		a.ThresholdSource = ThresholdGlobal
	} else {
		a.Threshold = a.RiskMean + a.RiskStd
		a.GlobalMean = a.RiskMean
		a.GlobalStd = a.RiskStd
		a.ThresholdSource = ThresholdLocal
		a.Degraded = true
	}

	for _, v := range b.Risk.Values {
		if v > a.Threshold {
			a.HighRiskCount++
		}
	}
	return a
}

// MarshalJSON encodes missing statistics as null.
func (a AlertSummary) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Time            time.Time `json:"time"`
		TempMean        *float64  `json:"avg_temp"`
		TempStd         *float64  `json:"std_temp"`
		HumidityMean    *float64  `json:"avg_rh"`
		HumidityStd     *float64  `json:"std_rh"`
		WindMean        *float64  `json:"avg_wind"`
		WindStd         *float64  `json:"std_wind"`
		RiskMean        *float64  `json:"avg_risk"`
		RiskStd         *float64  `json:"std_risk"`
		Threshold       *float64  `json:"threshold"`
		GlobalMean      *float64  `json:"global_mean"`
		GlobalStd       *float64  `json:"global_std"`
		HighRiskCount   int       `json:"high_risk_count"`
		ThresholdSource string    `json:"threshold_source"`
		Degraded        bool      `json:"degraded"`
	}{
		Time:            a.Time,
		TempMean:        nullable(a.TempMean),
		TempStd:         nullable(a.TempStd),
		HumidityMean:    nullable(a.HumidityMean),
		HumidityStd:     nullable(a.HumidityStd),
		WindMean:        nullable(a.WindMean),
		WindStd:         nullable(a.WindStd),
		RiskMean:        nullable(a.RiskMean),
		RiskStd:         nullable(a.RiskStd),
		Threshold:       nullable(a.Threshold),
		GlobalMean:      nullable(a.GlobalMean),
		GlobalStd:       nullable(a.GlobalStd),
		HighRiskCount:   a.HighRiskCount,
		ThresholdSource: a.ThresholdSource,
		Degraded:        a.Degraded,
	})
}

// nullable maps NaN and ±Inf to nil so they encode as JSON null.
func nullable(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// nullables applies nullable to every element.
func nullables(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for k, v := range values {
		out[k] = nullable(v)
	}
	return out
}
