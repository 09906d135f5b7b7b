package factory

import "math"

// LerpRound interpolates between lo and hi by t and rounds to the nearest
// integer. For t in [0, 1] the result is always within [lo, hi].
func LerpRound(lo, hi int, t float64) int {
	return int(math.Round(float64(lo) + float64(hi-lo)*t))
}

// validRoll reports whether r is usable as a click roll.
func validRoll(r float64) bool {
	return !math.IsNaN(r) && r >= 0 && r <= 1
}
