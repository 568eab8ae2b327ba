package grid

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrShapeMismatch is returned when two fields do not share the same lat/lon shape.
var ErrShapeMismatch = errors.New("field shape mismatch")

// Field is a 2-D lat/lon array stored row-major (latitude outer, longitude inner).
// Missing cells are NaN; use Value for an explicit present/absent read.
type Field struct {
	Lat    []float64
	Lon    []float64
	Values []float64
}

// NewField allocates a field over the given axes with every cell missing.
func NewField(lat, lon []float64) *Field {
	values := make([]float64, len(lat)*len(lon))
	for k := range values {
		values[k] = math.NaN()
	}
	return &Field{Lat: lat, Lon: lon, Values: values}
}

// FromValues wraps existing row-major values. The slice is not copied.
func FromValues(lat, lon, values []float64) (*Field, error) {
	if len(values) != len(lat)*len(lon) {
		return nil, fmt.Errorf("%w: %d values for %dx%d grid", ErrShapeMismatch, len(values), len(lat), len(lon))
	}
	return &Field{Lat: lat, Lon: lon, Values: values}, nil
}

// Shape returns the number of latitude rows and longitude columns.
func (f *Field) Shape() (rows, cols int) {
	return len(f.Lat), len(f.Lon)
}

// Len is the total number of cells.
func (f *Field) Len() int { return len(f.Values) }

// HasCoords reports whether the field carries both spatial axes.
func (f *Field) HasCoords() bool {
	return f != nil && len(f.Lat) > 0 && len(f.Lon) > 0
}

// At returns the raw cell value, NaN included.
func (f *Field) At(i, j int) float64 {
	return f.Values[i*len(f.Lon)+j]
}

// Value returns the cell value and whether it is present.
// Out-of-range indices and NaN cells both report false.
func (f *Field) Value(i, j int) (float64, bool) {
	if i < 0 || j < 0 || i >= len(f.Lat) || j >= len(f.Lon) {
		return 0, false
	}
	v := f.At(i, j)
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}

// SameShape reports whether o has the same row and column counts as f.
func (f *Field) SameShape(o *Field) bool {
	return o != nil && len(f.Lat) == len(o.Lat) && len(f.Lon) == len(o.Lon)
}

// Valid returns the non-NaN values in row-major order.
func (f *Field) Valid() []float64 {
	out := make([]float64, 0, len(f.Values))
	for _, v := range f.Values {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// Nearest returns the indices of the cell closest to (lat, lon).
func (f *Field) Nearest(lat, lon float64) (i, j int, ok bool) {
	if !f.HasCoords() {
		return 0, 0, false
	}
	return NearestIndex(f.Lat, lat), NearestIndex(f.Lon, lon), true
}

// Map applies fn to every cell and returns a new field on the same axes.
func Map(f *Field, fn func(float64) float64) *Field {
	out := &Field{Lat: f.Lat, Lon: f.Lon, Values: make([]float64, len(f.Values))}
	for k, v := range f.Values {
		out.Values[k] = fn(v)
	}
	return out
}

// Map2 combines two same-shaped fields cell by cell.
func Map2(a, b *Field, fn func(x, y float64) float64) (*Field, error) {
	if !a.SameShape(b) {
		return nil, ErrShapeMismatch
	}
	out := &Field{Lat: a.Lat, Lon: a.Lon, Values: make([]float64, len(a.Values))}
	for k := range a.Values {
		out.Values[k] = fn(a.Values[k], b.Values[k])
	}
	return out, nil
}

// Clip bounds v to [lo, hi]. NaN passes through unchanged.
func Clip(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NearestIndex returns the index of the axis value closest to v.
// Works for ascending and descending axes; ties resolve to the lower index.
func NearestIndex(axis []float64, v float64) int {
	if len(axis) == 0 {
		return 0
	}
	descending := len(axis) > 1 && axis[0] > axis[len(axis)-1]
	k := sort.Search(len(axis), func(n int) bool {
		if descending {
			return axis[n] <= v
		}
		return axis[n] >= v
	})
	switch {
	case k == 0:
		return 0
	case k == len(axis):
		return len(axis) - 1
	}
	if math.Abs(axis[k-1]-v) <= math.Abs(axis[k]-v) {
		return k - 1
	}
	return k
}
