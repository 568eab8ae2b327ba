package domain

import (
	"math"
	"slices"

	"github.com/couchcryptid/fire-risk-service/internal/grid"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// NanMean is the mean of the present cells, NaN when none are present.
func NanMean(f *grid.Field) float64 {
	mean, _ := meanStd(f.Valid())
	return mean
}

// NanStd is the population standard deviation of the present cells.
func NanStd(f *grid.Field) float64 {
	_, std := meanStd(f.Valid())
	return std
}

func meanStd(values []float64) (mean, std float64) {
	if len(values) == 0 {
		return math.NaN(), math.NaN()
	}
	return stat.PopMeanStdDev(values, nil)
}

// nanRange returns the min and max of the present values; ok is false when none exist.
func nanRange(values []float64) (lo, hi float64, ok bool) {
	if len(values) == 0 {
		return math.NaN(), math.NaN(), false
	}
	return floats.Min(values), floats.Max(values), true
}

// Percentile returns the q-th percentile (0-100) of sorted values using linear
// interpolation between the closest ranks.
func Percentile(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	pos := q / 100 * float64(n-1)
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower < 0 {
		return sorted[0]
	}
	if upper >= n {
		return sorted[n-1]
	}
	if lower == upper {
		return sorted[lower]
	}
	weight := pos - float64(lower)
	return sorted[lower]*(1-weight) + sorted[upper]*weight
}

func sortedCopy(values []float64) []float64 {
	out := slices.Clone(values)
	slices.Sort(out)
	return out
}
