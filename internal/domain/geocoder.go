package domain

import "context"

// GeocodingResult describes the place found at a grid cell centre.
type GeocodingResult struct {
	// Lat and Lon are the centre of the matched feature, not the queried cell.
	Lat              float64
	Lon              float64
	FormattedAddress string
	PlaceName        string
	Confidence       float64 // provider relevance, 0 to 1
}

// Empty reports whether the provider found nothing at the point, as over open sea.
func (r GeocodingResult) Empty() bool { return r.FormattedAddress == "" }

// Geocoder names grid cells.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (GeocodingResult, error)
}
