package domain

import (
	"math"
	"testing"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRiskScore(t *testing.T) {
	tests := []struct {
		name     string
		tempC    float64
		wind     float64
		humidity float64
		want     float64
	}{
		{"all drivers saturated", 45, 20, 0, 1},
		{"all drivers calm", -5, 0, 100, 0},
		{"midpoints", 20, 7.5, 50, 0.5},
		{"temperature only", 40, 0, 100, 0.34},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RiskScore(tt.tempC, tt.wind, tt.humidity), 1e-12)
		})
	}
}

func TestRiskScore_AlwaysInUnitInterval(t *testing.T) {
	for tc := -30.0; tc <= 60; tc += 6 {
		for ws := 0.0; ws <= 40; ws += 4 {
			for rh := 0.0; rh <= 100; rh += 10 {
				r := RiskScore(tc, ws, rh)
				assert.GreaterOrEqual(t, r, 0.0)
				assert.LessOrEqual(t, r, 1.0)
			}
		}
	}
}

func TestComputeRiskIndex(t *testing.T) {
	s := uniformSlice(3, testTime, 2, 3, hotDry)

	b, err := ComputeRiskIndex(s)
	require.NoError(t, err)

	assert.Equal(t, 3, b.Index)
	assert.Equal(t, testTime, b.Time)
	rows, cols := b.Risk.Shape()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 3, cols)

	// 40°C, 15 m/s, dewpoint at 0°C.
	wantRH := RelativeHumidityAt(hotDry.tempK, hotDry.dewK)
	want := 0.34 + 0.33 + 0.33*(1-wantRH/100)
	for _, v := range b.Risk.Values {
		assert.InDelta(t, want, v, 1e-12)
	}
	assert.InDelta(t, 40.0, b.Temperature.Values[0], 1e-9)
	assert.InDelta(t, 15.0, b.WindSpeed.Values[0], 1e-12)
	assert.Nil(t, b.SolarRadiation)
}

func TestComputeRiskIndex_SolarRadiationInMegajoules(t *testing.T) {
	s := uniformSlice(0, testTime, 1, 2, mild)
	lat, lon := testAxes(1, 2)
	fields := map[string]*grid.Field{VarSolarRadiation: testField(1, 2, 2.5e7, math.NaN())}
	for _, name := range s.Variables() {
		f, _ := s.Var(name)
		fields[name] = f
	}
	s = grid.NewSlice(0, testTime, lat, lon, fields)

	b, err := ComputeRiskIndex(s)
	require.NoError(t, err)
	require.NotNil(t, b.SolarRadiation)
	assert.InDelta(t, 25.0, b.SolarRadiation.Values[0], 1e-9)
	assert.True(t, math.IsNaN(b.SolarRadiation.Values[1]))
}

func TestComputeRiskIndex_MissingVariable(t *testing.T) {
	for _, name := range RequiredVariables {
		t.Run(name, func(t *testing.T) {
			full := uniformSlice(0, testTime, 1, 1, mild)
			fields := map[string]*grid.Field{}
			for _, v := range full.Variables() {
				if v != name {
					f, _ := full.Var(v)
					fields[v] = f
				}
			}
			s := grid.NewSlice(0, testTime, full.Lat, full.Lon, fields)

			_, err := ComputeRiskIndex(s)
			require.ErrorIs(t, err, ErrMissingVariable)
			assert.Contains(t, err.Error(), name)
		})
	}
}

func TestComputeRiskIndex_MissingCellsStayMissing(t *testing.T) {
	s := uniformSlice(0, testTime, 1, 2, mild)
	t2m, _ := s.Var(VarTemperature)
	t2m.Values[1] = math.NaN()

	b, err := ComputeRiskIndex(s)
	require.NoError(t, err)
	_, ok := b.Risk.Value(0, 1)
	assert.False(t, ok)
	_, ok = b.Risk.Value(0, 0)
	assert.True(t, ok)
}
