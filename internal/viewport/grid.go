package viewport

import "math"

// GridStep returns the grid spacing in content units for the current zoom.
func (c *Controller) GridStep() float64 {
	z := c.state.Zoom
	switch {
	case z < 0.5:
		return 50
	case z > 5:
		return 5
	case z > 2:
		return 10
	default:
		return 25
	}
}

// Line is one grid line in content space. Vertical lines have a constant
// X, horizontal lines a constant Y.
type Line struct {
	Vertical bool
	At       float64
	Axis     bool
}

// GridLines returns every grid line visible on a w×h surface.
func (c *Controller) GridLines(w, h float64, tip Point) []Line {
	step := c.GridStep()
	tl := c.ToContent(Point{0, 0}, w, h, tip)
	br := c.ToContent(Point{w, h}, w, h, tip)

	var lines []Line
	for x := math.Ceil(tl.X/step) * step; x <= br.X; x += step {
		lines = append(lines, Line{Vertical: true, At: x, Axis: x == 0})
	}
	for y := math.Ceil(tl.Y/step) * step; y <= br.Y; y += step {
		lines = append(lines, Line{At: y, Axis: y == 0})
	}
	return lines
}
