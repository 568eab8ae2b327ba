package domain

import (
	"log/slog"
	"math"
	"slices"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// MaxRegions caps the number of high-risk regions reported per slice.
const MaxRegions = 10

// landFraction is the land-sea mask value above which a cell counts as land.
const landFraction = 0.5

// HighRiskRegion is one grid cell at or above the risk threshold.
type HighRiskRegion struct {
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Risk        float64 `json:"risk"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Threshold   float64 `json:"threshold"`
	Deviation   float64 `json:"deviation"`
	ZScore      float64 `json:"z_score"`

	PlaceName        string `json:"place_name,omitempty"`
	FormattedAddress string `json:"formatted_address,omitempty"`
}

// SelectHighRiskRegions returns up to MaxRegions cells with risk >= threshold,
// ranked by descending risk. Ties keep row-major order. When landMask is
// non-nil only cells with mask > 0.5 qualify. A nil mask, or one whose shape
// does not match the risk field, is ignored with a warning.
func SelectHighRiskRegions(b RiskBundle, alerts AlertSummary, landMask *grid.Field, logger *slog.Logger) []HighRiskRegion {
	regions := []HighRiskRegion{}
	risk := b.Risk
	if risk == nil || !risk.HasCoords() {
		return regions
	}

	switch {
	case landMask == nil:
		logger.Warn("land-sea mask unavailable, regions may include sea cells", "time_index", b.Index)
	case !landMask.SameShape(risk):
		logger.Warn("land-sea mask shape mismatch, ignoring mask", "time_index", b.Index)
		landMask = nil
	}

	rows, cols := risk.Shape()
	for i := range rows {
		for j := range cols {
			r, ok := risk.Value(i, j)
			if !ok || r < alerts.Threshold {
				continue
			}
			if landMask != nil {
				land, ok := landMask.Value(i, j)
				if !ok || land <= landFraction {
					continue
				}
			}
			regions = append(regions, HighRiskRegion{
				Lat:         risk.Lat[i],
				Lon:         risk.Lon[j],
				Risk:        r,
				Temperature: b.Temperature.At(i, j),
				Humidity:    b.Humidity.At(i, j),
				WindSpeed:   b.WindSpeed.At(i, j),
				Threshold:   alerts.Threshold,
				Deviation:   r - alerts.GlobalMean,
				ZScore:      zScore(r, alerts.GlobalMean, alerts.GlobalStd),
			})
		}
	}

	slices.SortStableFunc(regions, func(a, b HighRiskRegion) int {
		switch {
		case a.Risk > b.Risk:
			return -1
		case a.Risk < b.Risk:
			return 1
		}
		return 0
	})
	if len(regions) > MaxRegions {
		regions = regions[:MaxRegions]
	}
	return regions
}

func zScore(v, mean, std float64) float64 {
	if !(std > 0) || math.IsNaN(mean) {
		return 0
	}
	return (v - mean) / std
}
