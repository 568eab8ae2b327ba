package grid

import (
	"sort"
	"time"
)

// Slice is one time step of a Dataset: the same spatial axes with one field per variable.
type Slice struct {
	Index int
	Time  time.Time
	Lat   []float64
	Lon   []float64

	fields map[string]*Field
}

// NewSlice builds a slice from explicit fields. Used by loaders and tests.
func NewSlice(index int, ts time.Time, lat, lon []float64, fields map[string]*Field) *Slice {
	if fields == nil {
		fields = make(map[string]*Field)
	}
	return &Slice{Index: index, Time: ts, Lat: lat, Lon: lon, fields: fields}
}

// Var returns the named field, or false when the variable is absent.
func (s *Slice) Var(name string) (*Field, bool) {
	f, ok := s.fields[name]
	return f, ok
}

// Variables lists the variable names present in the slice.
func (s *Slice) Variables() []string {
	names := make([]string, 0, len(s.fields))
	for name := range s.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
