package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// ERA5 short names of the variables the risk model reads.
const (
	VarTemperature    = "t2m"
	VarDewpoint       = "d2m"
	VarWindU          = "u10"
	VarWindV          = "v10"
	VarSoilMoisture   = "swvl1"
	VarSolarRadiation = "ssrd"
	VarLandSeaMask    = "lsm"
)

// RequiredVariables must be present in every slice passed to ComputeRiskIndex.
var RequiredVariables = []string{VarTemperature, VarWindU, VarWindV, VarDewpoint, VarSoilMoisture}

// Normalization bounds and weights of the composite score.
const (
	TempNormMaxC   = 40.0
	WindNormMaxMS  = 15.0
	WeightTemp     = 0.34
	WeightWind     = 0.33
	WeightDryness  = 0.33
	joulesPerMegaJ = 1e6
)

// ErrMissingVariable is returned when a slice lacks a required variable.
var ErrMissingVariable = errors.New("missing variable")

// RiskBundle holds the risk field of one slice with the derived fields it was built from.
// Fields are created fresh per slice and never modified afterwards.
type RiskBundle struct {
	Index int
	Time  time.Time

	Risk         *grid.Field
	Temperature  *grid.Field // °C
	WindSpeed    *grid.Field // m/s
	Humidity     *grid.Field // %
	SoilMoisture *grid.Field
	WindU        *grid.Field
	WindV        *grid.Field

	// SolarRadiation is in MJ/m²; nil when the slice has no ssrd.
	SolarRadiation *grid.Field
}

// RiskScore combines temperature (°C), wind speed (m/s) and relative humidity (%)
// into a score in [0, 1]. Any NaN input yields NaN.
func RiskScore(tempC, windSpeed, humidity float64) float64 {
	t := grid.Clip(tempC/TempNormMaxC, 0, 1)
	ws := grid.Clip(windSpeed/WindNormMaxMS, 0, 1)
	dry := grid.Clip(1-humidity/100, 0, 1)
	return WeightTemp*t + WeightWind*ws + WeightDryness*dry
}

// ComputeRiskIndex derives the risk field and its companion fields for one slice.
func ComputeRiskIndex(s *grid.Slice) (RiskBundle, error) {
	vars := make(map[string]*grid.Field, len(RequiredVariables))
	for _, name := range RequiredVariables {
		f, ok := s.Var(name)
		if !ok {
			return RiskBundle{}, fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
		vars[name] = f
	}

	tempC := grid.Map(vars[VarTemperature], KelvinToCelsius)
	ws, err := WindSpeed(vars[VarWindU], vars[VarWindV])
	if err != nil {
		return RiskBundle{}, fmt.Errorf("wind speed: %w", err)
	}
	rh, err := RelativeHumidity(vars[VarTemperature], vars[VarDewpoint])
	if err != nil {
		return RiskBundle{}, fmt.Errorf("relative humidity: %w", err)
	}
	if !tempC.SameShape(ws) || !tempC.SameShape(vars[VarSoilMoisture]) {
		return RiskBundle{}, grid.ErrShapeMismatch
	}

	risk := grid.NewField(tempC.Lat, tempC.Lon)
	for k := range risk.Values {
		risk.Values[k] = RiskScore(tempC.Values[k], ws.Values[k], rh.Values[k])
	}

	b := RiskBundle{
		Index:        s.Index,
		Time:         s.Time,
		Risk:         risk,
		Temperature:  tempC,
		WindSpeed:    ws,
		Humidity:     rh,
		SoilMoisture: vars[VarSoilMoisture],
		WindU:        vars[VarWindU],
		WindV:        vars[VarWindV],
	}
	if ssrd, ok := s.Var(VarSolarRadiation); ok {
		b.SolarRadiation = grid.Map(ssrd, func(v float64) float64 { return v / joulesPerMegaJ })
	}
	return b, nil
}
