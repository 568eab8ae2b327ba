// Package netcdf loads ERA5 NetCDF exports into an in-memory grid.Dataset.
package netcdf

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"sort"

	"github.com/batchatco/go-native-netcdf/netcdf"
	"github.com/batchatco/go-native-netcdf/netcdf/api"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
	"github.com/couchcryptid/fire-risk-service/internal/observability"
)

var (
	// ErrNoFiles is returned when the data directory holds no .nc files.
	ErrNoFiles = errors.New("no NetCDF files found")
	// ErrNoReadableFiles is returned when every file failed to load.
	ErrNoReadableFiles = errors.New("no NetCDF file could be loaded")
)

// Time axis names used by CDS exports. validTimeAxis is renamed on load.
const validTimeAxis = "valid_time"

// file is the subset of an open NetCDF file the loader reads.
type file interface {
	ListVariables() []string
	Variable(name string) (variable, error)
	Close()
}

// Loader reads every *.nc file of a directory and merges them on time.
type Loader struct {
	dir            string
	concurrency    int
	skipUnreadable bool
	logger         *slog.Logger
	metrics        *observability.Metrics
	open           func(path string) (file, error)
}

// NewLoader creates a Loader. With skipUnreadable set, files that fail to
// decode are logged and skipped instead of aborting the load.
func NewLoader(dir string, concurrency int, skipUnreadable bool, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Loader{
		dir:            dir,
		concurrency:    concurrency,
		skipUnreadable: skipUnreadable,
		logger:         logger,
		metrics:        metrics,
		open:           openFile,
	}
}

// Load reads and merges the data directory.
func (l *Loader) Load(ctx context.Context) (*grid.Dataset, error) {
	paths, err := filepath.Glob(filepath.Join(l.dir, "*.nc"))
	if err != nil {
		return nil, fmt.Errorf("glob %s: %w", l.dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFiles, l.dir)
	}
	sort.Strings(paths)

	parts := make([]*grid.Dataset, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.concurrency)
	for k, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ds, err := l.readFile(path)
			if err != nil {
				if l.skipUnreadable {
					l.logger.Warn("skipping unreadable NetCDF file", "file", path, "error", err)
					l.metrics.DatasetFiles.WithLabelValues("skipped").Inc()
					return nil
				}
				l.metrics.DatasetFiles.WithLabelValues("failed").Inc()
				return fmt.Errorf("load %s: %w", path, err)
			}
			l.logger.Debug("loaded NetCDF file", "file", path, "steps", len(ds.Times), "variables", ds.Variables())
			l.metrics.DatasetFiles.WithLabelValues("loaded").Inc()
			parts[k] = ds
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	parts = slices.DeleteFunc(parts, func(ds *grid.Dataset) bool { return ds == nil })
	if len(parts) == 0 {
		return nil, ErrNoReadableFiles
	}

	merged, err := grid.Merge(parts...)
	if err != nil {
		return nil, fmt.Errorf("merge datasets: %w", err)
	}
	l.logger.Info("climate dataset loaded",
		"files", len(parts),
		"steps", len(merged.Times),
		"lat", len(merged.Lat),
		"lon", len(merged.Lon),
		"variables", merged.Variables(),
	)
	return merged, nil
}

func (l *Loader) readFile(path string) (*grid.Dataset, error) {
	f, err := l.open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return readDataset(f)
}

// readDataset decodes one file into a dataset with a canonical "time" axis.
func readDataset(f file) (*grid.Dataset, error) {
	names := f.ListVariables()

	timeName := ""
	for _, cand := range []string{grid.DefaultTimeAxis, validTimeAxis} {
		if slices.Contains(names, cand) {
			timeName = cand
			break
		}
	}
	if timeName == "" {
		return nil, errors.New("no time variable")
	}
	tv, err := f.Variable(timeName)
	if err != nil {
		return nil, err
	}
	times, err := decodeTimes(tv)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", timeName, err)
	}

	lat, latName, err := readAxis(f, names, "latitude", "lat")
	if err != nil {
		return nil, err
	}
	lon, lonName, err := readAxis(f, names, "longitude", "lon")
	if err != nil {
		return nil, err
	}

	ds := grid.NewDataset(grid.DefaultTimeAxis, times, lat, lon)
	want := []string{timeName, latName, lonName}
	for _, name := range names {
		if slices.Contains(want, name) {
			continue
		}
		v, err := f.Variable(name)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		if !slices.Equal(v.Dimensions(), want) {
			continue
		}
		values, err := readValues(v)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		if err := ds.AddVariable(name, values); err != nil {
			return nil, err
		}
	}
	return ds, nil
}

func readAxis(f file, names []string, candidates ...string) ([]float64, string, error) {
	for _, name := range candidates {
		if !slices.Contains(names, name) {
			continue
		}
		v, err := f.Variable(name)
		if err != nil {
			return nil, "", err
		}
		values, err := readValues(v)
		if err != nil {
			return nil, "", fmt.Errorf("axis %s: %w", name, err)
		}
		return values, name, nil
	}
	return nil, "", fmt.Errorf("no %s axis", candidates[0])
}

// ncFile adapts a go-native-netcdf group to file.
type ncFile struct {
	group api.Group
}

func openFile(path string) (file, error) {
	g, err := netcdf.Open(path)
	if err != nil {
		return nil, err
	}
	return ncFile{group: g}, nil
}

func (f ncFile) ListVariables() []string { return f.group.ListVariables() }

func (f ncFile) Variable(name string) (variable, error) {
	vg, err := f.group.GetVarGetter(name)
	if err != nil {
		return nil, err
	}
	return ncVariable{vg: vg}, nil
}

func (f ncFile) Close() { f.group.Close() }

type ncVariable struct {
	vg api.VarGetter
}

func (v ncVariable) Values() (any, error)        { return v.vg.Values() }
func (v ncVariable) Dimensions() []string        { return v.vg.Dimensions() }
func (v ncVariable) Attr(key string) (any, bool) { return v.vg.Attributes().Get(key) }
