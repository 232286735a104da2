package normalize

import (
	"math"
	"strconv"
	"strings"
)

var amountReplacer = strings.NewReplacer("$", "", ",", "", " ", "")

// ParseAmount coerces a billed amount cell to a float.
// Empty, unparseable, NaN and infinite values become 0.
func ParseAmount(s string) float64 {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// ParseAge coerces an age cell to a non-negative integer, truncating
// fractional ages. Empty, unparseable, negative, NaN and out-of-range values
// become 0.
func ParseAge(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || v < 0 || v > math.MaxInt32 {
		return 0
	}
	return int(v)
}
