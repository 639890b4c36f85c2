// File: game/util.go
package game

import "math"

// clampf32 clamps x into [min, max], treating NaN as min rather than
// propagating it through comparisons.
func clampf32(x, min, max float32) float32 {
	if !(x > min) {
		x = min
	}
	if !(x < max) {
		x = max
	}
	return x
}

func sqrtf32(x float32) float32 {
	return float32(math.Sqrt(float64(x)))
}

func atanf32(x float32) float32 {
	return float32(math.Atan(float64(x)))
}

func sinCosf32(a float32) (sin, cos float32) {
	s, c := math.Sincos(float64(a))
	return float32(s), float32(c)
}
