// Package domain computes wildfire-risk indicators from ERA5 single-level
// reanalysis data over Galicia.
//
// # Data Source
//
// Monthly-mean ERA5 fields are downloaded ahead of time from the Copernicus
// Climate Data Store as NetCDF files and loaded into a [grid.Dataset] by the
// netcdf adapter. Older CDS exports name the time dimension "time" (hours
// since 1900-01-01); newer exports use "valid_time" (seconds since 1970). The
// loader renames the latter so every dataset exposes a single "time" axis.
//
// # Variables
//
//	t2m    2 m temperature, kelvin
//	d2m    2 m dewpoint temperature, kelvin
//	u10    10 m eastward wind, m/s
//	v10    10 m northward wind, m/s
//	swvl1  volumetric soil water, layer 1 (0-7 cm), m³/m³
//	ssrd   surface solar radiation downwards, J/m² (optional)
//	lsm    land-sea mask, 0 sea to 1 land (optional)
//
// # Risk Index
//
// Each cell gets a score in [0, 1] from three normalized drivers:
//
//	t_norm  = clip(temperature_C / 40, 0, 1)
//	ws_norm = clip(wind_speed / 15, 0, 1)
//	rh_norm = clip(1 - relative_humidity / 100, 0, 1)
//	risk    = 0.34*t_norm + 0.33*ws_norm + 0.33*rh_norm
//
// Soil moisture must be present in a slice even though it carries no weight
// in the score; slices without it are rejected so that every published layer
// has the same variable set.
//
// # Global Threshold
//
// Anomalies are judged against one baseline computed over every slice of the
// dataset: threshold = mean + 1 population standard deviation of all valid
// risk values. The baseline is computed once per [ClimateContext]. When no
// slice yields a valid value the baseline is unavailable and alert summaries
// fall back to a per-slice mean + std, flagged as degraded.
//
// Counting and selection use different comparisons on purpose:
// [AlertSummary.HighRiskCount] counts cells strictly above the threshold,
// while [SelectHighRiskRegions] keeps cells at or above it.
//
// # Missing Data
//
// Missing cells are NaN inside [grid.Field]. Every statistic here skips them;
// none treats a missing cell as zero.
package domain
