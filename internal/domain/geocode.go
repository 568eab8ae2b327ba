package domain

import (
	"context"
	"log/slog"
)

// NameRegions attaches place names to high-risk regions by reverse geocoding
// each cell centre. A nil geocoder or a failed lookup leaves the region
// unnamed; the input slice is not modified.
func NameRegions(ctx context.Context, regions []HighRiskRegion, geocoder Geocoder, logger *slog.Logger) []HighRiskRegion {
	if geocoder == nil || len(regions) == 0 {
		return regions
	}

	out := make([]HighRiskRegion, len(regions))
	copy(out, regions)
	for k := range out {
		if ctx.Err() != nil {
			break
		}
		result, err := geocoder.ReverseGeocode(ctx, out[k].Lat, out[k].Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"lat", out[k].Lat,
				"lon", out[k].Lon,
				"error", err,
			)
			continue
		}
		out[k].PlaceName = result.PlaceName
		out[k].FormattedAddress = result.FormattedAddress
	}
	return out
}
