package scoring

import "math"

// NormalizeForward maps v onto [0,1] where more is better: 0 at or below min, 1 at or above max
func NormalizeForward(v, min, max float64) float64 {
	if max <= min {
		if v >= max {
			return 1
		}
		return 0
	}
	if v <= min {
		return 0
	}
	if v >= max {
		return 1
	}
	return (v - min) / (max - min)
}

// NormalizeReverse maps v onto [0,1] where less is better: 1 at or below min, 0 at or above max
func NormalizeReverse(v, min, max float64) float64 {
	return 1 - NormalizeForward(v, min, max)
}

// NormalizeOptimal is 1 inside [lo,hi], scales by v/lo below the range and
// decays as 1-(v-hi)/hi above it, floored at 0
func NormalizeOptimal(v, lo, hi float64) float64 {
	switch {
	case v >= lo && v <= hi:
		return 1
	case v < lo:
		if lo <= 0 || v <= 0 {
			return 0
		}
		return v / lo
	default:
		if hi <= 0 {
			return 0
		}
		return math.Max(0, 1-(v-hi)/hi)
	}
}

// Clamp01 bounds v to [0,1]
func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Max(0, math.Min(1, v))
}
