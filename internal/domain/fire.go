package domain

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

// FireMatchTolerance bounds how far a fire date may be from the nearest time step.
const FireMatchTolerance = 30 * 24 * time.Hour

// ErrNoMatchingSlice is returned when no time step lies within FireMatchTolerance.
var ErrNoMatchingSlice = errors.New("no time step near fire date")

// FireEvent is one historical wildfire record.
type FireEvent struct {
	Date    time.Time `json:"date"`
	Lat     float64   `json:"lat"`
	Lon     float64   `json:"lon"`
	AreaHa  float64   `json:"area_ha"`
	Radius  float64   `json:"marker_radius"`
	Opacity float64   `json:"marker_opacity"`
}

// NewFireEvent builds a fire record with marker sizing scaled by burned area.
func NewFireEvent(date time.Time, lat, lon, areaHa float64) FireEvent {
	return FireEvent{
		Date:    date,
		Lat:     lat,
		Lon:     lon,
		AreaHa:  areaHa,
		Radius:  math.Min(8+areaHa/10, 25),
		Opacity: math.Min(0.4+areaHa/200, 0.9),
	}
}

// FiresInMonth keeps the fires that started in the given month.
func FiresInMonth(fires []FireEvent, year int, month time.Month) []FireEvent {
	out := []FireEvent{}
	for _, f := range fires {
		if f.Date.Year() == year && f.Date.Month() == month {
			out = append(out, f)
		}
	}
	return out
}

// FireConditions are the weather conditions at a fire's nearest grid cell.
type FireConditions struct {
	Time        time.Time `json:"time"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	WindSpeed   float64   `json:"wind_speed"`
}

// FireWeather looks up temperature (°C), relative humidity (%) and wind speed
// at the cell nearest to the fire, using the time step nearest to its date.
func FireWeather(ds *grid.Dataset, fire FireEvent) (FireConditions, error) {
	t, ok := ds.NearestIndex(fire.Date, FireMatchTolerance)
	if !ok {
		return FireConditions{}, ErrNoMatchingSlice
	}
	s, err := ds.Isel(ds.TimeAxis, t)
	if err != nil {
		return FireConditions{}, err
	}

	cell := func(name string) (float64, error) {
		f, ok := s.Var(name)
		if !ok {
			return 0, fmt.Errorf("%w: %s", ErrMissingVariable, name)
		}
		i, j, ok := f.Nearest(fire.Lat, fire.Lon)
		if !ok {
			return 0, errors.New("field has no coordinates")
		}
		v, ok := f.Value(i, j)
		if !ok {
			return 0, fmt.Errorf("%s missing at %.3f,%.3f", name, fire.Lat, fire.Lon)
		}
		return v, nil
	}

	values := make(map[string]float64, 4)
	for _, name := range []string{VarTemperature, VarDewpoint, VarWindU, VarWindV} {
		v, err := cell(name)
		if err != nil {
			return FireConditions{}, err
		}
		values[name] = v
	}

	return FireConditions{
		Time:        s.Time,
		Temperature: KelvinToCelsius(values[VarTemperature]),
		Humidity:    RelativeHumidityAt(values[VarTemperature], values[VarDewpoint]),
		WindSpeed:   WindSpeedAt(values[VarWindU], values[VarWindV]),
	}, nil
}
