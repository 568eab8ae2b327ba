package domain

import (
	"math"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

const kelvinOffset = 273.15

// Magnus coefficients (Alduchov & Eskridge) for saturation vapour pressure over water.
const (
	magnusA = 17.625
	magnusB = 243.04
)

// KelvinToCelsius converts a temperature in kelvin to degrees Celsius.
func KelvinToCelsius(k float64) float64 { return k - kelvinOffset }

// WindSpeedAt returns the horizontal wind speed for one pair of components.
func WindSpeedAt(u, v float64) float64 {
	return math.Sqrt(u*u + v*v)
}

// WindDirectionAt returns the meteorological wind direction in degrees.
func WindDirectionAt(u, v float64) float64 {
	return (180/math.Pi)*math.Atan2(u, v) + 180
}

// RelativeHumidityAt returns relative humidity (%) from temperature and
// dewpoint in kelvin, clamped to [0, 100].
func RelativeHumidityAt(t2mK, d2mK float64) float64 {
	t := KelvinToCelsius(t2mK)
	d := KelvinToCelsius(d2mK)
	rh := 100 * math.Exp(magnusA*d/(magnusB+d)) / math.Exp(magnusA*t/(magnusB+t))
	return grid.Clip(rh, 0, 100)
}

// WindSpeed derives the wind speed field from its u and v components.
func WindSpeed(u, v *grid.Field) (*grid.Field, error) {
	return grid.Map2(u, v, WindSpeedAt)
}

// WindDirection derives the wind direction field in degrees.
func WindDirection(u, v *grid.Field) (*grid.Field, error) {
	return grid.Map2(u, v, WindDirectionAt)
}

// RelativeHumidity derives the relative humidity field from 2 m temperature and dewpoint.
func RelativeHumidity(t2m, d2m *grid.Field) (*grid.Field, error) {
	return grid.Map2(t2m, d2m, RelativeHumidityAt)
}
