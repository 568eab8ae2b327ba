package domain

import (
	"encoding/json"
	"math"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// MinCoverage is the fraction of present cells below which a layer is
// flagged as having insufficient data.
const MinCoverage = 0.10

// degenerateWidth is added to a collapsed display range.
const degenerateWidth = 0.01

// Risk levels used for colouring point markers.
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// RiskLevel buckets a risk score: below 0.3 low, below 0.6 medium, otherwise high.
func RiskLevel(v float64) string {
	switch {
	case v < 0.3:
		return RiskLow
	case v < 0.6:
		return RiskMedium
	}
	return RiskHigh
}

// RiskColor returns the hex colour of a risk level.
func RiskColor(v float64) string {
	switch RiskLevel(v) {
	case RiskLow:
		return "#2ecc71"
	case RiskMedium:
		return "#f39c12"
	}
	return "#e74c3c"
}

// DisplayRange is the value interval a colour scale is stretched over. Min < Max always holds.
type DisplayRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// ComputeDisplayRange picks the colour-scale interval for a field. Most
// variables use the 2nd to 98th percentile of present cells so outliers do not
// wash out the scale; solar radiation uses the full range. Degenerate ranges
// widen deterministically and an all-missing field maps to [0, 1].
func ComputeDisplayRange(f *grid.Field, v Variable) DisplayRange {
	valid := f.Valid()
	lo, hi, ok := nanRange(valid)

	vmin, vmax := lo, hi
	if ok && v != VariableSolarRadiation {
		sorted := sortedCopy(valid)
		vmin, vmax = Percentile(sorted, 2), Percentile(sorted, 98)
	}

	if math.IsNaN(vmin) || math.IsNaN(vmax) || vmin >= vmax {
		vmin, vmax = lo, hi
		if math.IsNaN(vmin) || math.IsNaN(vmax) || vmin >= vmax {
			if math.IsNaN(vmin) {
				vmin, vmax = 0, 1
			} else {
				vmax = vmin + degenerateWidth
			}
		}
	}
	if !(vmin < vmax) {
		vmin, vmax = 0, 1
	}
	return DisplayRange{Min: vmin, Max: vmax}
}

// Coverage is the fraction of cells that hold a value.
func Coverage(f *grid.Field) float64 {
	if f.Len() == 0 {
		return 0
	}
	return float64(len(f.Valid())) / float64(f.Len())
}

// Layer is the renderable data of one variable for one time step.
type Layer struct {
	Variable Variable
	Time     time.Time
	Lat      []float64
	Lon      []float64
	Values   []float64
	Range    DisplayRange
	Coverage float64
}

// BuildLayer assembles a layer from a risk bundle.
func BuildLayer(b RiskBundle, v Variable) (Layer, error) {
	f, err := v.Field(b)
	if err != nil {
		return Layer{}, err
	}
	return Layer{
		Variable: v,
		Time:     b.Time,
		Lat:      f.Lat,
		Lon:      f.Lon,
		Values:   f.Values,
		Range:    ComputeDisplayRange(f, v),
		Coverage: Coverage(f),
	}, nil
}

// Sufficient reports whether enough cells are present to render the layer.
func (l Layer) Sufficient() bool { return l.Coverage >= MinCoverage }

func (l Layer) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Variable   Variable     `json:"variable"`
		Label      string       `json:"label"`
		Colormap   string       `json:"colormap"`
		Time       time.Time    `json:"time"`
		Lat        []float64    `json:"lat"`
		Lon        []float64    `json:"lon"`
		Values     []*float64   `json:"values"`
		Range      DisplayRange `json:"range"`
		Coverage   float64      `json:"coverage"`
		Sufficient bool         `json:"sufficient"`
	}{
		Variable:   l.Variable,
		Label:      l.Variable.Label(),
		Colormap:   l.Variable.Colormap(),
		Time:       l.Time,
		Lat:        l.Lat,
		Lon:        l.Lon,
		Values:     nullables(l.Values),
		Range:      l.Range,
		Coverage:   l.Coverage,
		Sufficient: l.Sufficient(),
	})
}
