// Package mathutil provides the small numerical primitives shared by the
// depth filters: clamping, zero-mean Gaussians and a weighted accumulator.
package mathutil

import (
	"cmp"
	"math"
)

// Clamp limits v to the closed interval [lo, hi].
func Clamp[T cmp.Ordered](v, lo, hi T) T {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Gaussian evaluates the unnormalized zero-mean Gaussian exp(-d²/2σ²).
// The peak value is 1 at d = 0.
func Gaussian(d, sigma float64) float64 {
	return math.Exp(-(d * d) / (2 * sigma * sigma))
}

// Gaussian2D evaluates the unnormalized zero-mean 2D Gaussian with
// independent standard deviations along x and y.
func Gaussian2D(dx, dy, sigmaX, sigmaY float64) float64 {
	return math.Exp(-(dx*dx)/(2*sigmaX*sigmaX) - (dy*dy)/(2*sigmaY*sigmaY))
}
