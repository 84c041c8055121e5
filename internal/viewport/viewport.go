// Package viewport maps content coordinates onto the terminal canvas and
// holds the interactive zoom, pan, follow and speed state.
//
// The transform is
//
//	screen = center + zoom*(content + offset)
//
// where offset is the pan, or the negated pen tip while following.
package viewport

import "math"

const (
	MinZoom  = 0.25
	MaxZoom  = 100000
	MinSpeed = 1
	MaxSpeed = 500
)

// State is the user-controlled view state.
type State struct {
	Zoom   float64
	PanX   float64
	PanY   float64
	Follow bool
	Speed  int
}

func DefaultState() State {
	return State{Zoom: 1, Speed: 1}
}

// Point is a position in either content or screen space.
type Point struct {
	X, Y float64
}

type Controller struct {
	state State
}

func New() *Controller {
	return &Controller{state: DefaultState()}
}

func (c *Controller) State() State { return c.state }
func (c *Controller) Zoom() float64 { return c.state.Zoom }
func (c *Controller) Speed() int    { return c.state.Speed }
func (c *Controller) Following() bool {
	return c.state.Follow
}

func (c *Controller) offset(tip Point) Point {
	if c.state.Follow {
		return Point{-tip.X, -tip.Y}
	}
	return Point{c.state.PanX, c.state.PanY}
}

// ToScreen maps a content point onto a w×h surface.
func (c *Controller) ToScreen(p Point, w, h float64, tip Point) Point {
	off := c.offset(tip)
	return Point{
		X: w/2 + c.state.Zoom*(p.X+off.X),
		Y: h/2 + c.state.Zoom*(p.Y+off.Y),
	}
}

// ToContent is the inverse of ToScreen.
func (c *Controller) ToContent(s Point, w, h float64, tip Point) Point {
	off := c.offset(tip)
	return Point{
		X: (s.X-w/2)/c.state.Zoom - off.X,
		Y: (s.Y-h/2)/c.state.Zoom - off.Y,
	}
}

// ZoomAtPoint multiplies the zoom by factor while keeping the content
// under screen position (sx, sy) fixed. In follow mode only the stored
// pan is adjusted, so the anchor holds once follow is left.
func (c *Controller) ZoomAtPoint(sx, sy, factor, w, h float64) {
	if factor <= 0 || math.IsNaN(factor) {
		return
	}
	old := c.state.Zoom
	next := clamp(old*factor, MinZoom, MaxZoom)
	if next == old {
		return
	}
	dx, dy := sx-w/2, sy-h/2
	c.state.PanX += dx * (1/next - 1/old)
	c.state.PanY += dy * (1/next - 1/old)
	c.state.Zoom = next
}

// Pan moves the view by a screen-space delta.
func (c *Controller) Pan(dx, dy float64) {
	c.state.PanX += dx / c.state.Zoom
	c.state.PanY += dy / c.state.Zoom
}

// SetSpeed scales the speed divisor. Larger values slow the animation.
func (c *Controller) SetSpeed(factor float64) {
	s := math.Round(float64(c.state.Speed) * factor)
	c.state.Speed = int(clamp(s, MinSpeed, MaxSpeed))
}

func (c *Controller) ResetSpeed() { c.state.Speed = MinSpeed }

// ToggleFollow switches follow mode. Entering it clears the pan; leaving
// it keeps whatever pan was stored.
func (c *Controller) ToggleFollow() {
	c.state.Follow = !c.state.Follow
	if c.state.Follow {
		c.state.PanX, c.state.PanY = 0, 0
	}
}

func (c *Controller) SetFollow(on bool) {
	if c.state.Follow != on {
		c.ToggleFollow()
	}
}

// Reset restores zoom 1 and a centered pan. Speed and follow are kept.
func (c *Controller) Reset() {
	c.state.Zoom = 1
	c.state.PanX, c.state.PanY = 0, 0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
