package stroke

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/epicycle/internal/epicycle"
)

const DefaultSamplePoints = 2000

// shape maps a parameter u in [0,1] to a point on a closed curve.
type shape func(u float64) (float64, float64)

var shapes = map[string]shape{
	"circle": func(u float64) (float64, float64) {
		a := 2 * math.Pi * u
		return 100 * math.Cos(a), 100 * math.Sin(a)
	},
	"ellipse": func(u float64) (float64, float64) {
		a := 2 * math.Pi * u
		return 150 * math.Cos(a), 80 * math.Sin(a)
	},
	"square": square(200),
	"spiral": func(u float64) (float64, float64) {
		theta := u * 10 * 2 * math.Pi
		r := 10 + theta
		return r * math.Cos(theta), r * math.Sin(theta)
	},
	"golden": func(u float64) (float64, float64) {
		theta := u * 8 * 2 * math.Pi
		r := 10 * math.Exp(0.17*theta)
		return r * math.Cos(theta), r * math.Sin(theta)
	},
	"circle_sin": func(u float64) (float64, float64) {
		a := 2 * math.Pi * u
		r := 100 + 20*math.Sin(8*a)
		return r * math.Cos(a), r * math.Sin(a)
	},
	"superformula": superformula(7, 0.2, 1.7, 1.7, 120),
}

func square(side float64) shape {
	h := side / 2
	return func(u float64) (float64, float64) {
		edge := math.Min(math.Floor(u*4), 3)
		f := u*4 - edge
		switch int(edge) {
		case 0:
			return -h + f*side, -h
		case 1:
			return h, -h + f*side
		case 2:
			return h - f*side, h
		default:
			return -h, h - f*side
		}
	}
}

func superformula(m, n1, n2, n3, scale float64) shape {
	return func(u float64) (float64, float64) {
		phi := 2 * math.Pi * u
		t1 := math.Pow(math.Abs(math.Cos(m*phi/4)), n2)
		t2 := math.Pow(math.Abs(math.Sin(m*phi/4)), n3)
		r := math.Pow(t1+t2, -1/n1)
		if math.IsInf(r, 0) || math.IsNaN(r) {
			r = 0
		}
		return scale * r * math.Cos(phi), scale * r * math.Sin(phi)
	}
}

// Shapes lists the available sample shape names.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sample generates n points of a named shape. Time runs evenly from 0 to 1
// and coordinates are rounded to whole units.
func Sample(name string, n int) (epicycle.Stroke, error) {
	fn, ok := shapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape: %s (available: %v)", name, Shapes())
	}
	if n < 2 {
		n = DefaultSamplePoints
	}

	s := make(epicycle.Stroke, n)
	for i := 0; i < n; i++ {
		u := float64(i) / float64(n-1)
		x, y := fn(u)
		s[i] = epicycle.Point{X: math.Round(x), Y: math.Round(y), T: u}
	}
	return s, nil
}
