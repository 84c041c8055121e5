package stroke

import (
	"math"

	"github.com/san-kum/epicycle/internal/epicycle"
)

const (
	DefaultMaxVectors = 100
	MinMaxVectors     = 10
	MaxMaxVectors     = 500
)

// Normalize recenters a stroke on its centroid. Coordinates are rounded to
// the nearest integer; timestamps are kept.
func Normalize(s epicycle.Stroke) epicycle.Stroke {
	if len(s) == 0 {
		return epicycle.Stroke{}
	}

	var sumX, sumY float64
	for _, p := range s {
		sumX += p.X
		sumY += p.Y
	}
	meanX := sumX / float64(len(s))
	meanY := sumY / float64(len(s))

	out := make(epicycle.Stroke, len(s))
	for i, p := range s {
		out[i] = epicycle.Point{
			X: roundHalfUp(p.X - meanX),
			Y: roundHalfUp(p.Y - meanY),
			T: p.T,
		}
	}
	return out
}

// roundHalfUp rounds .5 toward +Inf, so -0.5 becomes 0 and 0.5 becomes 1.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}

// Centroid returns the mean position of the stroke.
func Centroid(s epicycle.Stroke) (float64, float64) {
	if len(s) == 0 {
		return 0, 0
	}
	var sumX, sumY float64
	for _, p := range s {
		sumX += p.X
		sumY += p.Y
	}
	n := float64(len(s))
	return sumX / n, sumY / n
}

// Validate checks that a stroke can be submitted: at least two points,
// starting at t=0, with non-decreasing timestamps.
func Validate(s epicycle.Stroke) error {
	if len(s) < 2 {
		return epicycle.Invalid("stroke needs at least 2 points, got %d", len(s))
	}
	if s[0].T != 0 {
		return epicycle.Invalid("first point's time must be zero, got %g", s[0].T)
	}
	for i := range s {
		if i > 0 && s[i].T < s[i-1].T {
			return epicycle.Invalid("point %d time %g is before previous point time %g", i, s[i].T, s[i-1].T)
		}
		if math.IsNaN(s[i].X) || math.IsNaN(s[i].Y) || math.IsInf(s[i].X, 0) || math.IsInf(s[i].Y, 0) {
			return epicycle.Invalid("point %d has a non-finite coordinate", i)
		}
	}
	return nil
}

// ClampMaxVectors maps a requested vector count onto the accepted range.
// Zero or negative requests fall back to DefaultMaxVectors.
func ClampMaxVectors(n int) int {
	if n <= 0 {
		return DefaultMaxVectors
	}
	if n < MinMaxVectors {
		return MinMaxVectors
	}
	if n > MaxMaxVectors {
		return MaxMaxVectors
	}
	return n
}
