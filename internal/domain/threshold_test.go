package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakySource fails Isel for the listed time indices.
type flakySource struct {
	*grid.Dataset
	fail map[int]bool
}

func (f flakySource) Isel(axis string, t int) (*grid.Slice, error) {
	if f.fail[t] {
		return nil, errors.New("corrupt slice")
	}
	return f.Dataset.Isel(axis, t)
}

func TestComputeGlobalThreshold(t *testing.T) {
	frozen := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(frozen))
	t.Cleanup(func() { SetClock(nil) })

	ds := testDataset(testTime, hotDry, mild, coolDamp)

	g, err := ComputeGlobalThreshold(ds, grid.DefaultTimeAxis, discardLogger())
	require.NoError(t, err)

	var pool []float64
	for k := range 3 {
		s, err := ds.Isel(grid.DefaultTimeAxis, k)
		require.NoError(t, err)
		b, err := ComputeRiskIndex(s)
		require.NoError(t, err)
		pool = append(pool, b.Risk.Values...)
	}
	mean, std := meanStd(pool)

	assert.Equal(t, 12, g.Count)
	assert.InDelta(t, mean, g.Mean, 1e-12)
	assert.InDelta(t, std, g.Std, 1e-12)
	assert.Equal(t, g.Mean+g.Std, g.Threshold) //nolint:testifylint // must hold exactly
	assert.LessOrEqual(t, g.Median, g.P84)
	assert.LessOrEqual(t, g.P84, g.P95)
	assert.Empty(t, g.Skipped)
	assert.Equal(t, frozen, g.ComputedAt)
}

func TestComputeGlobalThreshold_Deterministic(t *testing.T) {
	ds := testDataset(testTime, hotDry, mild, coolDamp, mild)

	first, err := ComputeGlobalThreshold(ds, grid.DefaultTimeAxis, discardLogger())
	require.NoError(t, err)
	second, err := ComputeGlobalThreshold(ds, grid.DefaultTimeAxis, discardLogger())
	require.NoError(t, err)

	first.ComputedAt, second.ComputedAt = time.Time{}, time.Time{}
	assert.Equal(t, first, second)
}

func TestComputeGlobalThreshold_SkipsFailingSlices(t *testing.T) {
	ds := testDataset(testTime, hotDry, mild, coolDamp)
	src := flakySource{Dataset: ds, fail: map[int]bool{1: true}}

	g, err := ComputeGlobalThreshold(src, grid.DefaultTimeAxis, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, 8, g.Count)
	assert.Equal(t, []int{1}, g.Skipped)
}

func TestComputeGlobalThreshold_MissingVariableSkipped(t *testing.T) {
	lat, lon := testAxes(1, 1)
	ds := grid.NewDataset("time", []time.Time{testTime}, lat, lon)
	require.NoError(t, ds.AddVariable(VarTemperature, []float64{300}))

	g, err := ComputeGlobalThreshold(ds, "time", discardLogger())
	require.ErrorIs(t, err, ErrEmptyPopulation)
	assert.Nil(t, g)
}

func TestComputeGlobalThreshold_AllMissingCells(t *testing.T) {
	ds := testDataset(testTime, weather{tempK: nan(), dewK: nan(), u: nan(), v: nan(), soil: nan()})

	g, err := ComputeGlobalThreshold(ds, grid.DefaultTimeAxis, discardLogger())
	require.ErrorIs(t, err, ErrEmptyPopulation)
	assert.Nil(t, g)
}

func TestComputeGlobalThreshold_UnknownAxis(t *testing.T) {
	ds := testDataset(testTime, mild)

	_, err := ComputeGlobalThreshold(ds, "valid_time", discardLogger())
	require.ErrorIs(t, err, grid.ErrUnknownAxis)
}

func TestPercentile(t *testing.T) {
	sorted := []float64{1, 2, 3, 4}

	assert.InDelta(t, 2.5, Percentile(sorted, 50), 1e-12)
	assert.InDelta(t, 1.0, Percentile(sorted, 0), 1e-12)
	assert.InDelta(t, 4.0, Percentile(sorted, 100), 1e-12)
	// numpy.percentile([1,2,3,4], 84) == 3.52
	assert.InDelta(t, 3.52, Percentile(sorted, 84), 1e-12)
	assert.InDelta(t, 7.0, Percentile([]float64{7}, 95), 0)
	assert.True(t, isNaN(Percentile(nil, 50)))
}
