package viz

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]rune{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const blank = 0x2800

// Ink selects the color a cell is drawn with. When several inks land in
// one cell the highest wins.
type Ink uint8

const (
	InkNone Ink = iota
	InkGrid
	InkAxis
	InkStroke
	InkCircle
	InkRadius
	InkTrail
	InkTip
	inkCount
)

type Canvas struct {
	Width, Height int
	Grid          [][]rune
	ink           [][]Ink
	pen           Ink
}

func NewCanvas(w, h int) *Canvas {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
		ink:    make([][]Ink, h),
		pen:    InkTrail,
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
		c.ink[i] = make([]Ink, w)
	}
	c.Clear()
	return c
}

// Dots returns the canvas size in sub-pixels.
func (c *Canvas) Dots() (int, int) { return c.Width * 2, c.Height * 4 }

// Pen sets the ink used by subsequent drawing calls.
func (c *Canvas) Pen(ink Ink) { c.pen = ink }

// Set lights the sub-pixel at (x, y). The canvas is Width*2 by Height*4
// sub-pixels.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= pixelMap[y%4][x%2]
	if c.pen > c.ink[row][col] {
		c.ink[row][col] = c.pen
	}
}

func (c *Canvas) Unset(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] &^= pixelMap[y%4][x%2]
	if c.Grid[row][col] == blank {
		c.ink[row][col] = InkNone
	}
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = blank
			c.ink[i][j] = InkNone
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm. Lines reaching far
// outside the canvas are clipped first.
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	if !c.clip(&x0, &y0, &x1, &y1) {
		return
	}
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

// DrawCircle draws a circle outline with the midpoint algorithm. Circles
// entirely off the canvas are skipped.
func (c *Canvas) DrawCircle(cx, cy, r int) {
	if r <= 0 {
		c.Set(cx, cy)
		return
	}
	w, h := c.Dots()
	if cx+r < 0 || cy+r < 0 || cx-r >= w || cy-r >= h {
		return
	}
	x, y := r, 0
	err := 1 - r
	for x >= y {
		c.Set(cx+x, cy+y)
		c.Set(cx+y, cy+x)
		c.Set(cx-y, cy+x)
		c.Set(cx-x, cy+y)
		c.Set(cx-x, cy-y)
		c.Set(cx-y, cy-x)
		c.Set(cx+y, cy-x)
		c.Set(cx+x, cy-y)
		y++
		if err < 0 {
			err += 2*y + 1
		} else {
			x--
			err += 2*(y-x) + 1
		}
	}
}

// clip trims the segment to the canvas plus a one-dot margin
// (Liang-Barsky). It reports false when nothing is left.
func (c *Canvas) clip(x0, y0, x1, y1 *int) bool {
	w, h := c.Dots()
	minX, minY := -1.0, -1.0
	maxX, maxY := float64(w), float64(h)

	fx0, fy0 := float64(*x0), float64(*y0)
	dx, dy := float64(*x1)-fx0, float64(*y1)-fy0
	t0, t1 := 0.0, 1.0

	edges := [4][2]float64{
		{-dx, fx0 - minX},
		{dx, maxX - fx0},
		{-dy, fy0 - minY},
		{dy, maxY - fy0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return false
			}
			continue
		}
		r := q / p
		if p < 0 {
			if r > t1 {
				return false
			}
			t0 = math.Max(t0, r)
		} else {
			if r < t0 {
				return false
			}
			t1 = math.Min(t1, r)
		}
	}
	if t1 < 1 {
		*x1 = int(math.Round(fx0 + t1*dx))
		*y1 = int(math.Round(fy0 + t1*dy))
	}
	if t0 > 0 {
		*x0 = int(math.Round(fx0 + t0*dx))
		*y0 = int(math.Round(fy0 + t0*dy))
	}
	return true
}

// Cells exposes the braille grid for snapshot export.
func (c *Canvas) Cells() [][]rune { return c.Grid }

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Render draws the canvas with one style per ink, batching runs of equal
// ink into a single styled span.
func (c *Canvas) Render(styles [inkCount]lipgloss.Style) string {
	var b strings.Builder
	for row := range c.Grid {
		start := 0
		for col := 1; col <= c.Width; col++ {
			if col < c.Width && c.ink[row][col] == c.ink[row][start] {
				continue
			}
			run := string(c.Grid[row][start:col])
			if ink := c.ink[row][start]; ink == InkNone {
				b.WriteString(run)
			} else {
				b.WriteString(styles[ink].Render(run))
			}
			start = col
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
