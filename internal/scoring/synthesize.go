package scoring

import (
	"math"
	"sort"
)

// MedianBaseRatio returns the batch median of base ratios with infinities
// counted as 0 and NaNs ignored. ok is false when no finite value remains.
func MedianBaseRatio(ratios []float64) (median float64, ok bool) {
	vals := make([]float64, 0, len(ratios))
	for _, r := range ratios {
		switch {
		case math.IsNaN(r):
			continue
		case math.IsInf(r, 0):
			vals = append(vals, 0)
		default:
			vals = append(vals, r)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	sort.Float64s(vals)
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		return vals[mid], true
	}
	return (vals[mid-1] + vals[mid]) / 2, true
}

// Baseline is 1 + median, defaulting the median to 1.0 when it is undefined.
func Baseline(ratios []float64) float64 {
	median, ok := MedianBaseRatio(ratios)
	if !ok {
		median = 1.0
	}
	return 1 + median
}

// NormalizeScore scales a raw score against the baseline onto [0,100],
// rounding half to even. NaN maps to 0.
func NormalizeScore(raw, baseline float64) int {
	v := 100 * (raw / baseline)
	if math.IsNaN(v) {
		return 0
	}
	v = math.RoundToEven(clip(v, 0, 100))
	return int(v)
}
