// Command validate performs integrity checks on the inputs of the risk
// service: the ERA5 NetCDF dataset and the historical fire register. It
// verifies variable presence, axis layout, per-slice coverage, that a global
// threshold can be derived, and that fires line up with the time axis.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -data-dir data \
//	  -fires data/fires-all.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"

	"github.com/couchcryptid/fire-risk-service/internal/adapter/firecsv"
	"github.com/couchcryptid/fire-risk-service/internal/adapter/netcdf"
	"github.com/couchcryptid/fire-risk-service/internal/domain"
	"github.com/couchcryptid/fire-risk-service/internal/grid"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name     string
	errors   []string
	warnings []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) warnf(format string, args ...any) {
	p.warnings = append(p.warnings, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "data", "directory containing ERA5 NetCDF files")
	firesPath := flag.String("fires", "", "path to the fire register CSV (optional)")
	flag.Parse()

	os.Exit(run(*dataDir, *firesPath))
}

func run(dataDir, firesPath string) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := observability.NewMetricsForTesting()

	fmt.Println("=== Fire Risk Input Validation ===")
	fmt.Println()

	ds, err := netcdf.NewLoader(dataDir, runtime.NumCPU(), false, logger, metrics).Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	var fires []domain.FireEvent
	if firesPath != "" {
		fires, err = firecsv.Load(firesPath, logger)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load fire register: %v\n", err)
			return 1
		}
	}

	phases := validate(ds, fires, firesPath != "", logger)

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Dataset: %d time steps, %dx%d grid, variables %v; %d fires\n",
		len(ds.Times), len(ds.Lat), len(ds.Lon), ds.Variables(), len(fires))

	for _, p := range phases {
		if p.passed() && len(p.warnings) == 0 {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
		for _, w := range p.warnings {
			fmt.Printf("  (warn) %s\n", w)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func validate(ds *grid.Dataset, fires []domain.FireEvent, checkFires bool, logger *slog.Logger) []*phase {
	phases := []*phase{
		validateVariables(ds),
		validateAxes(ds),
		validateCoverage(ds),
		validateThreshold(ds, logger),
	}
	if checkFires {
		phases = append(phases, validateFires(ds, fires))
	}
	return phases
}

// ── Phases ──

func validateVariables(ds *grid.Dataset) *phase {
	p := &phase{name: "Phase 1: Required Variables"}
	for _, name := range domain.RequiredVariables {
		if !ds.HasVariable(name) {
			p.errorf("missing required variable %s", name)
		}
	}
	if !ds.HasVariable(domain.VarSolarRadiation) {
		p.warnf("no %s: solar radiation layers and trends will read 0", domain.VarSolarRadiation)
	}
	if !ds.HasVariable(domain.VarLandSeaMask) {
		p.warnf("no %s: high-risk regions may include sea cells", domain.VarLandSeaMask)
	}
	return p
}

func validateAxes(ds *grid.Dataset) *phase {
	p := &phase{name: "Phase 2: Axis Layout"}
	if len(ds.Lat) == 0 || len(ds.Lon) == 0 {
		p.errorf("empty spatial axes: %d lat, %d lon", len(ds.Lat), len(ds.Lon))
		return p
	}
	if !monotonic(ds.Lat) {
		p.errorf("latitude axis is not strictly monotonic")
	}
	if !monotonic(ds.Lon) {
		p.errorf("longitude axis is not strictly monotonic")
	}

	latMin, latMax := bounds(ds.Lat)
	lonMin, lonMax := bounds(ds.Lon)
	if latMax <= firecsv.MinLat || latMin >= firecsv.MaxLat || lonMax <= firecsv.MinLon || lonMin >= firecsv.MaxLon {
		p.errorf("grid [%.2f..%.2f]x[%.2f..%.2f] does not overlap Galicia", latMin, latMax, lonMin, lonMax)
	}

	for k := 1; k < len(ds.Times); k++ {
		if !ds.Times[k].After(ds.Times[k-1]) {
			p.errorf("time axis not increasing at index %d (%s after %s)",
				k, ds.Times[k].Format("2006-01-02"), ds.Times[k-1].Format("2006-01-02"))
		}
	}
	return p
}

func validateCoverage(ds *grid.Dataset) *phase {
	p := &phase{name: "Phase 3: Slice Coverage"}
	for t := range ds.Times {
		s, err := ds.Isel(ds.TimeAxis, t)
		if err != nil {
			p.errorf("slice %d: %v", t, err)
			continue
		}
		b, err := domain.ComputeRiskIndex(s)
		if err != nil {
			p.errorf("slice %d (%s): %v", t, s.Time.Format("2006-01"), err)
			continue
		}
		if c := domain.Coverage(b.Risk); c < domain.MinCoverage {
			p.warnf("slice %d (%s): risk coverage %.1f%% below %.0f%%",
				t, s.Time.Format("2006-01"), 100*c, 100*domain.MinCoverage)
		}
	}
	return p
}

func validateThreshold(ds *grid.Dataset, logger *slog.Logger) *phase {
	p := &phase{name: "Phase 4: Global Threshold"}
	g, err := domain.ComputeGlobalThreshold(ds, ds.TimeAxis, logger)
	if errors.Is(err, domain.ErrEmptyPopulation) {
		p.errorf("no valid risk values: alerts will run on per-slice thresholds")
		return p
	}
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	if g.Mean < 0 || g.Mean > 1 {
		p.errorf("mean risk %.4f outside [0, 1]", g.Mean)
	}
	if len(g.Skipped) > 0 {
		p.warnf("%d slices excluded from the baseline: %v", len(g.Skipped), g.Skipped)
	}
	return p
}

func validateFires(ds *grid.Dataset, fires []domain.FireEvent) *phase {
	p := &phase{name: "Phase 5: Fire Register Alignment"}
	if len(fires) == 0 {
		p.warnf("fire register empty after filtering")
		return p
	}
	unmatched := 0
	for _, f := range fires {
		if _, err := domain.FireWeather(ds, f); err != nil {
			if errors.Is(err, domain.ErrNoMatchingSlice) {
				unmatched++
				continue
			}
			p.errorf("fire %s at (%.3f, %.3f): %v", f.Date.Format("2006-01-02"), f.Lat, f.Lon, err)
		}
	}
	if unmatched > 0 {
		p.warnf("%d of %d fires fall outside the dataset's time axis", unmatched, len(fires))
	}
	return p
}

// ── Helpers ──

func monotonic(axis []float64) bool {
	if len(axis) < 2 {
		return true
	}
	asc := axis[1] > axis[0]
	for k := 1; k < len(axis); k++ {
		if (asc && axis[k] <= axis[k-1]) || (!asc && axis[k] >= axis[k-1]) {
			return false
		}
	}
	return true
}

func bounds(axis []float64) (lo, hi float64) {
	lo, hi = axis[0], axis[0]
	for _, v := range axis[1:] {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	return lo, hi
}
