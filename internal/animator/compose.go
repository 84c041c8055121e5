package animator

import (
	"math"

	"github.com/san-kum/epicycle/internal/epicycle"
)

// Vec is a point or displacement in content space.
type Vec struct {
	X, Y float64
}

func (v Vec) Add(o Vec) Vec { return Vec{v.X + o.X, v.Y + o.Y} }
func (v Vec) Len() float64  { return math.Hypot(v.X, v.Y) }

// Circle is the orbit of one vector in the chain. End is where its radius
// line meets the next circle's center.
type Circle struct {
	Center Vec
	Radius float64
	End    Vec
	N      int
}

// Compose chains the vectors at time t and returns the pen tip together
// with one circle per vector. vs must already be sorted by |n|.
func Compose(vs epicycle.VectorSet, t, period float64) (Vec, []Circle) {
	var sum Vec
	circles := make([]Circle, 0, len(vs))
	for _, v := range vs {
		angle := float64(v.N) * t * 2 * math.Pi / period
		cos, sin := math.Cos(angle), math.Sin(angle)
		delta := Vec{
			X: v.Real*cos - v.Imaginary*sin,
			Y: v.Real*sin + v.Imaginary*cos,
		}
		next := sum.Add(delta)
		circles = append(circles, Circle{Center: sum, Radius: delta.Len(), End: next, N: v.N})
		sum = next
	}
	return sum, circles
}

// Tip is Compose without the circles.
func Tip(vs epicycle.VectorSet, t, period float64) Vec {
	var sum Vec
	for _, v := range vs {
		angle := float64(v.N) * t * 2 * math.Pi / period
		cos, sin := math.Cos(angle), math.Sin(angle)
		sum.X += v.Real*cos - v.Imaginary*sin
		sum.Y += v.Real*sin + v.Imaginary*cos
	}
	return sum
}
