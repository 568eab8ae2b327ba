package http_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/fire-risk-service/internal/adapter/http"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/grid"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var july2022 = time.Date(2022, time.July, 1, 0, 0, 0, 0, time.UTC)

// testClimate builds a 2x2 grid over three months: a hot dry July, a mild
// August and a cool damp September.
func testClimate(t *testing.T, fires ...domain.FireEvent) *domain.ClimateContext {
	t.Helper()
	lat := []float64{43.0, 42.75}
	lon := []float64{-8.25, -8.0}
	times := []time.Time{july2022, july2022.AddDate(0, 1, 0), july2022.AddDate(0, 2, 0)}
	ds := grid.NewDataset(grid.DefaultTimeAxis, times, lat, lon)

	perMonth := func(values ...float64) []float64 {
		out := make([]float64, 0, len(values)*4)
		for _, v := range values {
			out = append(out, v, v, v, v)
		}
		return out
	}
	require.NoError(t, ds.AddVariable(domain.VarTemperature, perMonth(313.15, 288.15, 278.15)))
	require.NoError(t, ds.AddVariable(domain.VarDewpoint, perMonth(273.15, 283.15, 278.15)))
	require.NoError(t, ds.AddVariable(domain.VarWindU, perMonth(9, 1, 0)))
	require.NoError(t, ds.AddVariable(domain.VarWindV, perMonth(12, 1, 0)))
	require.NoError(t, ds.AddVariable(domain.VarSoilMoisture, perMonth(0.1, 0.3, 0.4)))
	return domain.NewClimateContext(ds, fires, discardLogger())
}

// uniformClimate builds a single mild month on a rows x cols grid.
func uniformClimate(t *testing.T, rows, cols int) *domain.ClimateContext {
	t.Helper()
	lat := make([]float64, rows)
	for i := range lat {
		lat[i] = 43.5 - 0.25*float64(i)
	}
	lon := make([]float64, cols)
	for j := range lon {
		lon[j] = -9.5 + 0.25*float64(j)
	}
	ds := grid.NewDataset(grid.DefaultTimeAxis, []time.Time{july2022}, lat, lon)
	constant := func(v float64) []float64 {
		out := make([]float64, rows*cols)
		for k := range out {
			out[k] = v
		}
		return out
	}
	require.NoError(t, ds.AddVariable(domain.VarTemperature, constant(295.15)))
	require.NoError(t, ds.AddVariable(domain.VarDewpoint, constant(285.15)))
	require.NoError(t, ds.AddVariable(domain.VarWindU, constant(3)))
	require.NoError(t, ds.AddVariable(domain.VarWindV, constant(4)))
	require.NoError(t, ds.AddVariable(domain.VarSoilMoisture, constant(0.25)))
	return domain.NewClimateContext(ds, nil, discardLogger())
}

func emptyClimate() *domain.ClimateContext {
	ds := grid.NewDataset(grid.DefaultTimeAxis, nil, nil, nil)
	return domain.NewClimateContext(ds, nil, discardLogger())
}

type namingGeocoder struct{}

func (namingGeocoder) ReverseGeocode(context.Context, float64, float64) (domain.GeocodingResult, error) {
	return domain.GeocodingResult{PlaceName: "Lugo", FormattedAddress: "Lugo, Galicia, Spain"}, nil
}

func newTestServer(climate httpadapter.Climate, geocoder domain.Geocoder) *httpadapter.Server {
	api := httpadapter.NewAPI(climate, geocoder, httpadapter.HistoricalRange{StartYear: 2017, EndYear: 2024}, discardLogger())
	return httpadapter.NewServer(":0", api, discardLogger())
}
