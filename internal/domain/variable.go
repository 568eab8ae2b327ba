package domain

import (
	"fmt"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// Variable names a displayable or trendable quantity.
type Variable string

const (
	VariableRisk           Variable = "risk_index"
	VariableTemperature    Variable = "temperature"
	VariableHumidity       Variable = "relative_humidity"
	VariableSolarRadiation Variable = "solar_radiation"
	VariableWindSpeed      Variable = "wind_speed"
	VariableSoilMoisture   Variable = "soil_moisture"
)

// Variables lists every supported variable in display order.
var Variables = []Variable{
	VariableRisk,
	VariableTemperature,
	VariableHumidity,
	VariableSolarRadiation,
	VariableWindSpeed,
	VariableSoilMoisture,
}

// ParseVariable resolves a variable name. Unknown names fall back to
// temperature and report ok=false.
func ParseVariable(s string) (v Variable, ok bool) {
	for _, known := range Variables {
		if string(known) == s {
			return known, true
		}
	}
	return VariableTemperature, false
}

// Label is the human-readable axis label.
func (v Variable) Label() string {
	switch v {
	case VariableRisk:
		return "Risk index"
	case VariableTemperature:
		return "Temperature (°C)"
	case VariableHumidity:
		return "Relative humidity (%)"
	case VariableSolarRadiation:
		return "Solar radiation (MJ/m²)"
	case VariableWindSpeed:
		return "Wind speed (m/s)"
	case VariableSoilMoisture:
		return "Soil moisture (m³/m³)"
	}
	return "Variable"
}

// Colormap names the matplotlib-style colormap a renderer should use.
func (v Variable) Colormap() string {
	switch v {
	case VariableRisk, VariableSolarRadiation:
		return "YlOrRd"
	case VariableTemperature:
		return "RdYlBu_r"
	case VariableHumidity:
		return "Blues"
	case VariableWindSpeed:
		return "viridis"
	case VariableSoilMoisture:
		return "BrBG"
	}
	return "coolwarm"
}

// errNoSolarRadiation marks a bundle built from a slice without ssrd.
var errNoSolarRadiation = fmt.Errorf("%w: %s", ErrMissingVariable, VarSolarRadiation)

// Field selects the variable's field from a risk bundle.
func (v Variable) Field(b RiskBundle) (*grid.Field, error) {
	switch v {
	case VariableRisk:
		return b.Risk, nil
	case VariableTemperature:
		return b.Temperature, nil
	case VariableHumidity:
		return b.Humidity, nil
	case VariableWindSpeed:
		return b.WindSpeed, nil
	case VariableSoilMoisture:
		return b.SoilMoisture, nil
	case VariableSolarRadiation:
		if b.SolarRadiation == nil {
			return nil, errNoSolarRadiation
		}
		return b.SolarRadiation, nil
	}
	return nil, fmt.Errorf("unsupported variable %q", v)
}

// SpatialMean averages the variable over the present cells of one slice.
// Only the raw variables the quantity depends on are required, so a
// temperature trend survives a slice that lacks soil moisture. A slice
// without ssrd contributes 0 solar radiation.
func SpatialMean(s *grid.Slice, v Variable) (float64, error) {
	need := func(name string) (*grid.Field, error) {
		f, ok := s.Var(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
		return f, nil
	}

	switch v {
	case VariableRisk:
		b, err := ComputeRiskIndex(s)
		if err != nil {
			return 0, err
		}
		return NanMean(b.Risk), nil
	case VariableHumidity:
		t2m, err := need(VarTemperature)
		if err != nil {
			return 0, err
		}
		d2m, err := need(VarDewpoint)
		if err != nil {
			return 0, err
		}
		rh, err := RelativeHumidity(t2m, d2m)
		if err != nil {
			return 0, err
		}
		return NanMean(rh), nil
	case VariableWindSpeed:
		u, err := need(VarWindU)
		if err != nil {
			return 0, err
		}
		w, err := need(VarWindV)
		if err != nil {
			return 0, err
		}
		ws, err := WindSpeed(u, w)
		if err != nil {
			return 0, err
		}
		return NanMean(ws), nil
	case VariableSolarRadiation:
		ssrd, ok := s.Var(VarSolarRadiation)
		if !ok {
			return 0, nil
		}
		return NanMean(ssrd) / joulesPerMegaJ, nil
	case VariableSoilMoisture:
		sm, err := need(VarSoilMoisture)
		if err != nil {
			return 0, err
		}
		return NanMean(sm), nil
	default:
		t2m, err := need(VarTemperature)
		if err != nil {
			return 0, err
		}
		return KelvinToCelsius(NanMean(t2m)), nil
	}
}
