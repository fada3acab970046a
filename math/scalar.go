package math

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Scalar is any numeric type the helpers in this package accept.
type Scalar interface {
	constraints.Integer | constraints.Float
}

// Clamp limits v to the closed range [lo, hi].
func Clamp[T Scalar](v, lo, hi T) T {
	return max(lo, min(v, hi))
}

// Lerp interpolates linearly between a and b.
func Lerp[T constraints.Float](a, b, t T) T {
	return a + (b-a)*t
}

// Radians converts degrees to radians.
func Radians(deg float32) float32 {
	return deg * math.Pi / 180
}

func sqrt(v float32) float32 {
	return float32(math.Sqrt(float64(v)))
}
