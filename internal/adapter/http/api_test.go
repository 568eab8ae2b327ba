package http_test

import (
	"compress/gzip"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

func get(t *testing.T, h http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return rec, body
}

func TestPeriods(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/periods")

	assert.Equal(t, http.StatusOK, rec.Code)
	periods, ok := body["periods"].([]any)
	require.True(t, ok)
	assert.Len(t, periods, 3)
	assert.Equal(t, map[string]any{"year": float64(2022), "month": float64(9)}, body["latest"])
}

func TestThreshold(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/threshold")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, body, "threshold")
	assert.InDelta(t, 12, body["count"], 0)
}

func TestThreshold_UnavailableWithoutPopulation(t *testing.T) {
	rec, body := get(t, newTestServer(emptyClimate(), nil), "/api/v1/threshold")

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, body["error"], "no valid risk values")
}

func TestEvaluation(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), namingGeocoder{}), "/api/v1/evaluation?year=2022&month=7")

	assert.Equal(t, http.StatusOK, rec.Code)
	alerts, ok := body["alerts"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 4, alerts["high_risk_count"], 0)
	assert.Equal(t, domain.ThresholdGlobal, alerts["threshold_source"])

	regions, ok := body["regions"].([]any)
	require.True(t, ok)
	require.Len(t, regions, 4)
	first, ok := regions[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Lugo", first["place_name"])
}

func TestEvaluation_DefaultsToLatestPeriod(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/evaluation")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"year": float64(2022), "month": float64(9)}, body["period"])
	assert.Empty(t, body["regions"])
}

func TestEvaluation_MissingMonthFallsBackToFirstSlice(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/evaluation?year=2030&month=1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"year": float64(2022), "month": float64(7)}, body["period"])
	assert.Equal(t, map[string]any{"year": float64(2030), "month": float64(1)}, body["requested"])
}

func TestEvaluation_BadQuery(t *testing.T) {
	tests := []struct {
		name, query, want string
	}{
		{"month out of range", "?year=2022&month=13", "month"},
		{"year not a number", "?year=abc&month=7", "year"},
		{"year too early", "?year=1800&month=7", "year"},
		{"month without year", "?month=7", "together"},
	}
	srv := newTestServer(testClimate(t), nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, body := get(t, srv, "/api/v1/evaluation"+tt.query)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, body["error"], tt.want)
		})
	}
}

func TestEvaluation_EmptyDataset(t *testing.T) {
	rec, _ := get(t, newTestServer(emptyClimate(), nil), "/api/v1/evaluation")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLayer(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/layers/temperature?year=2022&month=8")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "temperature", body["variable"])
	assert.Equal(t, true, body["sufficient"])
	values, ok := body["values"].([]any)
	require.True(t, ok)
	assert.Len(t, values, 4)
	assert.InDelta(t, 15.0, values[0], 1e-9)
}

func TestLayer_UnknownVariable(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/layers/pressure")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, body["error"], "pressure")
}

func TestLayer_SolarRadiationMissing(t *testing.T) {
	rec, _ := get(t, newTestServer(testClimate(t), nil), "/api/v1/layers/solar_radiation")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestLayer_Gzip(t *testing.T) {
	srv := newTestServer(uniformClimate(t, 30, 30), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/layers/risk_index", nil)
	req.Header.Set("Accept-Encoding", "gzip")

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))
	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	data, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"sufficient":true`)
}

func TestTrend(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/trends/temperature?year=2022")

	assert.Equal(t, http.StatusOK, rec.Code)
	yearly, ok := body["yearly"].([]any)
	require.True(t, ok)
	assert.Len(t, yearly, 3)
	historical, ok := body["historical"].([]any)
	require.True(t, ok)
	assert.Len(t, historical, 12)
	assert.InDelta(t, 2017, body["historical_start_year"], 0)
}

func TestTrend_YearWithoutData(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/trends/wind_speed?year=2019")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["yearly"])
}

func TestFires(t *testing.T) {
	fires := []domain.FireEvent{
		domain.NewFireEvent(time.Date(2022, time.July, 10, 0, 0, 0, 0, time.UTC), 42.8, -8.1, 150),
		domain.NewFireEvent(time.Date(2022, time.August, 2, 0, 0, 0, 0, time.UTC), 42.8, -8.1, 20),
	}
	rec, body := get(t, newTestServer(testClimate(t, fires...), nil), "/api/v1/fires?year=2022&month=7")

	assert.Equal(t, http.StatusOK, rec.Code)
	list, ok := body["fires"].([]any)
	require.True(t, ok)
	require.Len(t, list, 1)
	fire, ok := list[0].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 150, fire["area_ha"], 0)
	cond, ok := fire["conditions"].(map[string]any)
	require.True(t, ok)
	assert.InDelta(t, 40.0, cond["temperature"], 1e-9)
}

func TestFires_NoneInMonth(t *testing.T) {
	rec, body := get(t, newTestServer(testClimate(t), nil), "/api/v1/fires?year=2021&month=1")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{}, body["fires"])
}
