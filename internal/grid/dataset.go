package grid

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sort"
	"time"
)

// DefaultTimeAxis is the canonical name of the time dimension after loading.
const DefaultTimeAxis = "time"

var (
	// ErrUnknownAxis is returned when a caller names a time axis the dataset does not have.
	ErrUnknownAxis = errors.New("unknown time axis")
	// ErrIndexOutOfRange is returned for time indices outside [0, TimeLen).
	ErrIndexOutOfRange = errors.New("time index out of range")
	// ErrAxisMismatch is returned when merged datasets disagree on spatial axes.
	ErrAxisMismatch = errors.New("spatial axes differ")
)

// YearMonth identifies a calendar month of the time axis.
type YearMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}

// Dataset holds every variable of a gridded reanalysis in memory, laid out
// as [time][lat][lon]. It is read-only once loading finishes.
type Dataset struct {
	TimeAxis string
	Times    []time.Time
	Lat      []float64
	Lon      []float64

	vars map[string][]float64
}

// NewDataset creates an empty dataset over the given axes.
func NewDataset(timeAxis string, times []time.Time, lat, lon []float64) *Dataset {
	if timeAxis == "" {
		timeAxis = DefaultTimeAxis
	}
	return &Dataset{
		TimeAxis: timeAxis,
		Times:    times,
		Lat:      lat,
		Lon:      lon,
		vars:     make(map[string][]float64),
	}
}

// AddVariable attaches a variable. data must hold len(Times)*len(Lat)*len(Lon) values.
func (d *Dataset) AddVariable(name string, data []float64) error {
	want := len(d.Times) * d.cells()
	if len(data) != want {
		return fmt.Errorf("%w: variable %s has %d values, want %d", ErrShapeMismatch, name, len(data), want)
	}
	d.vars[name] = data
	return nil
}

// HasVariable reports whether the named variable was loaded.
func (d *Dataset) HasVariable(name string) bool {
	_, ok := d.vars[name]
	return ok
}

// Variables lists the loaded variable names in sorted order.
func (d *Dataset) Variables() []string {
	names := make([]string, 0, len(d.vars))
	for name := range d.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (d *Dataset) cells() int { return len(d.Lat) * len(d.Lon) }

// TimeLen returns the number of steps along the named time axis.
func (d *Dataset) TimeLen(axis string) (int, error) {
	if axis != d.TimeAxis {
		return 0, fmt.Errorf("%w: %q (dataset uses %q)", ErrUnknownAxis, axis, d.TimeAxis)
	}
	return len(d.Times), nil
}

// Isel selects the slice at time index t. Fields share the dataset's memory.
func (d *Dataset) Isel(axis string, t int) (*Slice, error) {
	n, err := d.TimeLen(axis)
	if err != nil {
		return nil, err
	}
	if t < 0 || t >= n {
		return nil, fmt.Errorf("%w: %d not in [0,%d)", ErrIndexOutOfRange, t, n)
	}
	cells := d.cells()
	s := &Slice{
		Index:  t,
		Time:   d.Times[t],
		Lat:    d.Lat,
		Lon:    d.Lon,
		fields: make(map[string]*Field, len(d.vars)),
	}
	off := t * cells
	for name, data := range d.vars {
		s.fields[name] = &Field{Lat: d.Lat, Lon: d.Lon, Values: data[off : off+cells : off+cells]}
	}
	return s, nil
}

// AvailableYearMonths lists each distinct (year, month) on the time axis in ascending order.
func (d *Dataset) AvailableYearMonths() []YearMonth {
	seen := make(map[YearMonth]struct{}, len(d.Times))
	out := make([]YearMonth, 0, len(d.Times))
	for _, ts := range d.Times {
		ym := YearMonth{Year: ts.Year(), Month: ts.Month()}
		if _, ok := seen[ym]; ok {
			continue
		}
		seen[ym] = struct{}{}
		out = append(out, ym)
	}
	slices.SortFunc(out, func(a, b YearMonth) int {
		if a.Year != b.Year {
			return a.Year - b.Year
		}
		return int(a.Month) - int(b.Month)
	})
	return out
}

// IndexForMonth returns the first time index falling in the given month.
// When no step matches, the first index is used.
func (d *Dataset) IndexForMonth(year int, month time.Month) int {
	for t, ts := range d.Times {
		if ts.Year() == year && ts.Month() == month {
			return t
		}
	}
	return 0
}

// NearestIndex returns the time index closest to ts, provided it lies within tolerance.
func (d *Dataset) NearestIndex(ts time.Time, tolerance time.Duration) (int, bool) {
	best, bestDiff := -1, time.Duration(math.MaxInt64)
	for t, cand := range d.Times {
		diff := cand.Sub(ts)
		if diff < 0 {
			diff = -diff
		}
		if diff < bestDiff {
			best, bestDiff = t, diff
		}
	}
	if best < 0 || bestDiff > tolerance {
		return 0, false
	}
	return best, true
}

// Merge outer-joins datasets on time. Spatial axes must match exactly.
// Cells a part does not cover stay NaN; where parts overlap the first
// non-missing value wins.
func Merge(parts ...*Dataset) (*Dataset, error) {
	if len(parts) == 0 {
		return nil, errors.New("merge: no datasets")
	}
	base := parts[0]
	timeIndex := make(map[int64]struct{})
	for _, p := range parts {
		if !slices.Equal(p.Lat, base.Lat) || !slices.Equal(p.Lon, base.Lon) {
			return nil, ErrAxisMismatch
		}
		for _, ts := range p.Times {
			timeIndex[ts.UnixNano()] = struct{}{}
		}
	}

	stamps := make([]int64, 0, len(timeIndex))
	for ns := range timeIndex {
		stamps = append(stamps, ns)
	}
	slices.Sort(stamps)
	times := make([]time.Time, len(stamps))
	pos := make(map[int64]int, len(stamps))
	for k, ns := range stamps {
		times[k] = time.Unix(0, ns).UTC()
		pos[ns] = k
	}

	out := NewDataset(base.TimeAxis, times, base.Lat, base.Lon)
	cells := out.cells()
	for _, p := range parts {
		for name, data := range p.vars {
			dst, ok := out.vars[name]
			if !ok {
				dst = make([]float64, len(times)*cells)
				for k := range dst {
					dst[k] = math.NaN()
				}
				out.vars[name] = dst
			}
			for t, ts := range p.Times {
				to := pos[ts.UnixNano()] * cells
				from := t * cells
				for c := 0; c < cells; c++ {
					if math.IsNaN(dst[to+c]) {
						dst[to+c] = data[from+c]
					}
				}
			}
		}
	}
	return out, nil
}
