package domain

import (
	"io"
	"log/slog"
	"math"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var testTime = time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)

func testAxes(rows, cols int) (lat, lon []float64) {
	lat = make([]float64, rows)
	for i := range lat {
		lat[i] = 43.5 - 0.25*float64(i)
	}
	lon = make([]float64, cols)
	for j := range lon {
		lon[j] = -9.0 + 0.25*float64(j)
	}
	return lat, lon
}

// testField builds a rows x cols field from row-major values.
func testField(rows, cols int, values ...float64) *grid.Field {
	lat, lon := testAxes(rows, cols)
	f, err := grid.FromValues(lat, lon, values)
	if err != nil {
		panic(err)
	}
	return f
}

func filled(rows, cols int, v float64) *grid.Field {
	values := make([]float64, rows*cols)
	for k := range values {
		values[k] = v
	}
	return testField(rows, cols, values...)
}

// weather describes uniform conditions for a synthetic slice.
type weather struct {
	tempK, dewK, u, v, soil float64
}

var (
	hotDry   = weather{tempK: 313.15, dewK: 273.15, u: 9, v: 12, soil: 0.1}
	mild     = weather{tempK: 288.15, dewK: 283.15, u: 1, v: 1, soil: 0.3}
	coolDamp = weather{tempK: 278.15, dewK: 278.15, u: 0, v: 0, soil: 0.4}
)

func uniformSlice(index int, ts time.Time, rows, cols int, w weather) *grid.Slice {
	lat, lon := testAxes(rows, cols)
	return grid.NewSlice(index, ts, lat, lon, map[string]*grid.Field{
		VarTemperature:  filled(rows, cols, w.tempK),
		VarDewpoint:     filled(rows, cols, w.dewK),
		VarWindU:        filled(rows, cols, w.u),
		VarWindV:        filled(rows, cols, w.v),
		VarSoilMoisture: filled(rows, cols, w.soil),
	})
}

// bundleWithRisk wraps a risk field with zeroed companion fields.
func bundleWithRisk(risk *grid.Field) RiskBundle {
	rows, cols := risk.Shape()
	zero := filled(rows, cols, 0)
	return RiskBundle{
		Time:        testTime,
		Risk:        risk,
		Temperature: zero,
		Humidity:    zero,
		WindSpeed:   zero,
	}
}

// testDataset builds a 2x2 dataset with one uniform slice per weather entry,
// one month apart starting at start.
func testDataset(start time.Time, ws ...weather) *grid.Dataset {
	lat, lon := testAxes(2, 2)
	times := make([]time.Time, len(ws))
	for k := range ws {
		times[k] = start.AddDate(0, k, 0)
	}
	ds := grid.NewDataset(grid.DefaultTimeAxis, times, lat, lon)
	series := func(pick func(weather) float64) []float64 {
		out := make([]float64, 0, len(ws)*4)
		for _, w := range ws {
			for range 4 {
				out = append(out, pick(w))
			}
		}
		return out
	}
	must := func(err error) {
		if err != nil {
			panic(err)
		}
	}
	must(ds.AddVariable(VarTemperature, series(func(w weather) float64 { return w.tempK })))
	must(ds.AddVariable(VarDewpoint, series(func(w weather) float64 { return w.dewK })))
	must(ds.AddVariable(VarWindU, series(func(w weather) float64 { return w.u })))
	must(ds.AddVariable(VarWindV, series(func(w weather) float64 { return w.v })))
	must(ds.AddVariable(VarSoilMoisture, series(func(w weather) float64 { return w.soil })))
	return ds
}

func nan() float64 { return math.NaN() }

func isNaN(v float64) bool { return math.IsNaN(v) }
