package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/epicycle/internal/animator"
	"github.com/san-kum/epicycle/internal/epicycle"
)

// Trace samples the reconstructed curve at n evenly spaced times over one
// period. The curve is closed, so the last sample stops short of t=Period.
func Trace(vs epicycle.VectorSet, n int) []animator.Vec {
	if n <= 0 || len(vs) == 0 {
		return nil
	}
	pts := make([]animator.Vec, n)
	for i := range pts {
		t := animator.Period * float64(i) / float64(n)
		pts[i] = animator.Tip(vs, t, animator.Period)
	}
	return pts
}

type Rect struct {
	MinX, MinY, MaxX, MaxY float64
}

func (r Rect) Width() float64  { return r.MaxX - r.MinX }
func (r Rect) Height() float64 { return r.MaxY - r.MinY }

// Pad grows r by frac of its size on every side. Degenerate extents are
// treated as 1.
func (r Rect) Pad(frac float64) Rect {
	w, h := r.Width(), r.Height()
	if w == 0 {
		w = 1
	}
	if h == 0 {
		h = 1
	}
	return Rect{
		MinX: r.MinX - w*frac,
		MaxX: r.MaxX + w*frac,
		MinY: r.MinY - h*frac,
		MaxY: r.MaxY + h*frac,
	}
}

// Bounds returns the bounding box of pts, or the zero Rect when empty.
func Bounds(pts []animator.Vec) Rect {
	if len(pts) == 0 {
		return Rect{}
	}
	r := Rect{MinX: pts[0].X, MaxX: pts[0].X, MinY: pts[0].Y, MaxY: pts[0].Y}
	for _, p := range pts[1:] {
		r.MinX = math.Min(r.MinX, p.X)
		r.MaxX = math.Max(r.MaxX, p.X)
		r.MinY = math.Min(r.MinY, p.Y)
		r.MaxY = math.Max(r.MaxY, p.Y)
	}
	return r
}

// StrokePoints converts a stroke into plain vectors.
func StrokePoints(s epicycle.Stroke) []animator.Vec {
	pts := make([]animator.Vec, len(s))
	for i, p := range s {
		pts[i] = animator.Vec{X: p.X, Y: p.Y}
	}
	return pts
}

// TraceToASCII plots pts on a width×height character grid. Y grows
// downwards, as on the surface the stroke was drawn on.
func TraceToASCII(pts []animator.Vec, width, height int) string {
	if len(pts) == 0 || width < 2 || height < 2 {
		return ""
	}
	b := Bounds(pts).Pad(0.1)
	rangeX, rangeY := b.Width(), b.Height()

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = []rune(strings.Repeat(" ", width))
	}

	if b.MinX <= 0 && b.MaxX >= 0 {
		col := int((0 - b.MinX) / rangeX * float64(width-1))
		for row := range grid {
			grid[row][col] = '│'
		}
	}
	if b.MinY <= 0 && b.MaxY >= 0 {
		row := int((0 - b.MinY) / rangeY * float64(height-1))
		for col := range grid[row] {
			if grid[row][col] == '│' {
				grid[row][col] = '┼'
			} else {
				grid[row][col] = '─'
			}
		}
	}

	for _, p := range pts {
		col := int((p.X - b.MinX) / rangeX * float64(width-1))
		row := int((p.Y - b.MinY) / rangeY * float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			grid[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range grid {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}
