package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/fire-risk-service/internal/domain"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{PlaceName: "Ourense", FormattedAddress: "Ourense, Galicia, Spain"},
	}
	metrics := testMetrics()
	cached := NewCachedGeocoder(inner, 10, metrics)

	r1, err := cached.ReverseGeocode(context.Background(), 42.25, -7.75)
	require.NoError(t, err)
	r2, err := cached.ReverseGeocode(context.Background(), 42.25, -7.75)
	require.NoError(t, err)

	assert.Equal(t, r1, r2)
	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues(methodReverse, "hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.GeocodeCache.WithLabelValues(methodReverse, "miss")), 0)
}

func TestCachedGeocoder_RoundsCoordinates(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "Lugo, Galicia, Spain"}}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 43.0, -7.5)
	_, _ = cached.ReverseGeocode(context.Background(), 43.0000000001, -7.4999999999)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_DifferentCellsMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "Somewhere"}}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 42.0, -8.0)
	_, _ = cached.ReverseGeocode(context.Background(), 42.25, -8.0)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, _ = cached.ReverseGeocode(context.Background(), 43.5, -9.5)
	_, _ = cached.ReverseGeocode(context.Background(), 43.5, -9.5)

	assert.Equal(t, 2, inner.calls)
	assert.Zero(t, cached.cache.len())
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ReverseGeocode(context.Background(), 42.0, -8.0)
	require.Error(t, err)
	assert.Zero(t, cached.cache.len())
}

func key(lat, lon float64) cellKey { return newCellKey(lat, lon) }

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put(key(1, 1), domain.GeocodingResult{PlaceName: "A"})
	c.put(key(2, 2), domain.GeocodingResult{PlaceName: "B"})

	result, ok := c.get(key(1, 1))
	assert.True(t, ok)
	assert.Equal(t, "A", result.PlaceName)

	_, ok = c.get(key(9, 9))
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put(key(1, 1), domain.GeocodingResult{PlaceName: "A"})
	c.put(key(2, 2), domain.GeocodingResult{PlaceName: "B"})
	c.put(key(3, 3), domain.GeocodingResult{PlaceName: "C"})

	_, ok := c.get(key(1, 1))
	assert.False(t, ok, "oldest entry evicted")
	assert.Equal(t, 2, c.len())

	result, ok := c.get(key(3, 3))
	assert.True(t, ok)
	assert.Equal(t, "C", result.PlaceName)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put(key(1, 1), domain.GeocodingResult{PlaceName: "A"})
	c.put(key(2, 2), domain.GeocodingResult{PlaceName: "B"})
	c.get(key(1, 1))
	c.put(key(3, 3), domain.GeocodingResult{PlaceName: "C"})

	_, ok := c.get(key(1, 1))
	assert.True(t, ok, "recently used entry kept")
	_, ok = c.get(key(2, 2))
	assert.False(t, ok, "least recently used entry evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put(key(1, 1), domain.GeocodingResult{PlaceName: "A1"})
	c.put(key(1, 1), domain.GeocodingResult{PlaceName: "A2"})

	result, ok := c.get(key(1, 1))
	assert.True(t, ok)
	assert.Equal(t, "A2", result.PlaceName)
	assert.Equal(t, 1, c.len())
}

func TestLRUCache_NonPositiveSizeHoldsOne(t *testing.T) {
	c := newLRUCache(0)

	c.put(key(1, 1), domain.GeocodingResult{PlaceName: "A"})
	c.put(key(2, 2), domain.GeocodingResult{PlaceName: "B"})

	assert.Equal(t, 1, c.len())
	_, ok := c.get(key(2, 2))
	assert.True(t, ok)
}
