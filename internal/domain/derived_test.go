package domain

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindSpeed_PythagoreanTriple(t *testing.T) {
	ws, err := WindSpeed(testField(1, 1, 3), testField(1, 1, 4))
	require.NoError(t, err)
	assert.Equal(t, 5.0, ws.Values[0]) //nolint:testifylint // exact equality is the property under test
}

func TestWindSpeed_NaNPropagates(t *testing.T) {
	ws, err := WindSpeed(testField(1, 2, 3, math.NaN()), testField(1, 2, 4, 1))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(ws.Values[1]))
}

func TestWindDirection(t *testing.T) {
	tests := []struct {
		name string
		u, v float64
		want float64
	}{
		{"from north", 0, -1, 360},
		{"from south", 0, 1, 180},
		{"from west", 1, 0, 270},
		{"from east", -1, 0, 90},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, WindDirectionAt(tt.u, tt.v), 1e-9)
		})
	}
}

func TestRelativeHumidity(t *testing.T) {
	t.Run("saturated air is 100 percent", func(t *testing.T) {
		assert.InDelta(t, 100.0, RelativeHumidityAt(293.15, 293.15), 1e-9)
	})

	t.Run("dry air", func(t *testing.T) {
		// 30°C air with a 10°C dewpoint sits near 28.9%.
		assert.InDelta(t, 28.94, RelativeHumidityAt(303.15, 283.15), 0.01)
	})

	t.Run("dewpoint above temperature is clamped", func(t *testing.T) {
		assert.InDelta(t, 100.0, RelativeHumidityAt(280.15, 290.15), 0)
	})

	t.Run("always within bounds", func(t *testing.T) {
		for tk := 240.0; tk <= 330; tk += 7.5 {
			for dk := 230.0; dk <= 330; dk += 7.5 {
				rh := RelativeHumidityAt(tk, dk)
				assert.GreaterOrEqual(t, rh, 0.0)
				assert.LessOrEqual(t, rh, 100.0)
			}
		}
	})

	t.Run("field form propagates NaN", func(t *testing.T) {
		rh, err := RelativeHumidity(testField(1, 2, 300, math.NaN()), testField(1, 2, 290, 290))
		require.NoError(t, err)
		assert.False(t, math.IsNaN(rh.Values[0]))
		assert.True(t, math.IsNaN(rh.Values[1]))
	})
}
