package domain

import "math"

// Round2 rounds a monetary amount to cent precision.
func Round2(x float64) float64 {
	return math.Round(x*100) / 100
}

// ClampNonNeg clamps a balance at zero.
func ClampNonNeg(x float64) float64 {
	return math.Max(0, x)
}
