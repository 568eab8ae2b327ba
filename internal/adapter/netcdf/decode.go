package netcdf

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"
)

// variable is the subset of a NetCDF variable the loader reads.
type variable interface {
	Values() (any, error)
	Dimensions() []string
	Attr(key string) (any, bool)
}

// flatten converts a (possibly nested) numeric slice into row-major float64 values.
func flatten(v any) ([]float64, error) {
	var out []float64
	var walk func(reflect.Value) error
	walk = func(rv reflect.Value) error {
		switch rv.Kind() {
		case reflect.Slice, reflect.Array:
			for k := 0; k < rv.Len(); k++ {
				if err := walk(rv.Index(k)); err != nil {
					return err
				}
			}
		case reflect.Float32, reflect.Float64:
			out = append(out, rv.Float())
		case reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64, reflect.Int:
			out = append(out, float64(rv.Int()))
		case reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uint:
			out = append(out, float64(rv.Uint()))
		default:
			return fmt.Errorf("unsupported element type %s", rv.Type())
		}
		return nil
	}
	if err := walk(reflect.ValueOf(v)); err != nil {
		return nil, err
	}
	return out, nil
}

// attrFloat reads a numeric attribute, which NetCDF stores either as a scalar or a one-element slice.
func attrFloat(v variable, key string) (float64, bool) {
	raw, ok := v.Attr(key)
	if !ok {
		return 0, false
	}
	values, err := flatten(raw)
	if err != nil || len(values) == 0 {
		return 0, false
	}
	return values[0], true
}

func attrString(v variable, key string) (string, bool) {
	raw, ok := v.Attr(key)
	if !ok {
		return "", false
	}
	s, ok := raw.(string)
	return s, ok
}

// readValues decodes a variable: fill and missing values become NaN, then
// packed integers are unpacked with scale_factor and add_offset.
func readValues(v variable) ([]float64, error) {
	raw, err := v.Values()
	if err != nil {
		return nil, err
	}
	values, err := flatten(raw)
	if err != nil {
		return nil, err
	}

	var sentinels []float64
	for _, key := range []string{"_FillValue", "missing_value"} {
		if s, ok := attrFloat(v, key); ok {
			sentinels = append(sentinels, s)
		}
	}
	scale, hasScale := attrFloat(v, "scale_factor")
	offset, hasOffset := attrFloat(v, "add_offset")
	if !hasScale {
		scale = 1
	}
	if !hasOffset {
		offset = 0
	}

	for k, x := range values {
		for _, s := range sentinels {
			if x == s {
				x = math.NaN()
				break
			}
		}
		if hasScale || hasOffset {
			x = x*scale + offset
		}
		values[k] = x
	}
	return values, nil
}

var errBadTimeUnits = errors.New("unsupported time units")

// parseTimeUnits parses CF units of the form "<unit> since <reference>".
func parseTimeUnits(units string) (time.Duration, time.Time, error) {
	unit, ref, ok := strings.Cut(strings.TrimSpace(units), " since ")
	if !ok {
		return 0, time.Time{}, fmt.Errorf("%w: %q", errBadTimeUnits, units)
	}

	var step time.Duration
	switch strings.ToLower(strings.TrimSpace(unit)) {
	case "seconds", "second", "s":
		step = time.Second
	case "minutes", "minute":
		step = time.Minute
	case "hours", "hour", "h":
		step = time.Hour
	case "days", "day", "d":
		step = 24 * time.Hour
	default:
		return 0, time.Time{}, fmt.Errorf("%w: %q", errBadTimeUnits, units)
	}

	ref = strings.TrimSpace(ref)
	ref = strings.TrimSuffix(ref, " UTC")
	ref = strings.TrimSuffix(ref, "Z")
	if dot := strings.LastIndex(ref, "."); dot > strings.LastIndex(ref, ":") && strings.Contains(ref, ":") {
		ref = ref[:dot]
	}
	for _, layout := range []string{"2006-01-02 15:04:05", "2006-01-02T15:04:05", "2006-01-02 15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, ref); err == nil {
			return step, t.UTC(), nil
		}
	}
	return 0, time.Time{}, fmt.Errorf("%w: reference %q", errBadTimeUnits, ref)
}

// decodeTimes converts CF offsets into UTC timestamps.
func decodeTimes(v variable) ([]time.Time, error) {
	units, ok := attrString(v, "units")
	if !ok {
		return nil, errors.New("time variable has no units")
	}
	step, ref, err := parseTimeUnits(units)
	if err != nil {
		return nil, err
	}
	offsets, err := readValues(v)
	if err != nil {
		return nil, err
	}
	times := make([]time.Time, len(offsets))
	for k, off := range offsets {
		if math.IsNaN(off) {
			return nil, fmt.Errorf("missing time value at index %d", k)
		}
		times[k] = ref.Add(time.Duration(math.Round(off * float64(step))))
	}
	return times, nil
}
