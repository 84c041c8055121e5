// Package export renders drawings to SVG and PDF.
package export

import (
	"fmt"
	"strings"

	"github.com/san-kum/epicycle/internal/analysis"
	"github.com/san-kum/epicycle/internal/animator"
	"github.com/san-kum/epicycle/internal/epicycle"
)

const (
	background     = "#0a0a0a"
	DefaultSamples = 1000
)

// Braille is a grid of braille cells, one rune per terminal cell.
type Braille interface {
	Cells() [][]rune
}

// CanvasToSVG converts a braille canvas snapshot to SVG, one dot per lit
// sub-pixel.
func CanvasToSVG(canvas Braille, scale float64, color string) string {
	if canvas == nil {
		return ""
	}
	cells := canvas.Cells()
	if len(cells) == 0 {
		return ""
	}
	rows, cols := len(cells), len(cells[0])

	width := float64(cols) * scale * 2  // 2 sub-pixels per char
	height := float64(rows) * scale * 4 // 4 sub-pixels per char

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
<g fill="%s">
`, width, height, width, height, background, color)

	pixelMap := [4][2]rune{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	dotRadius := scale * 0.4

	for row, line := range cells {
		for col, r := range line {
			if r < 0x2800 || r > 0x28FF {
				continue
			}
			pattern := r - 0x2800
			baseX := float64(col) * scale * 2
			baseY := float64(row) * scale * 4

			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					cx := baseX + float64(dx)*scale + scale/2
					cy := baseY + float64(dy)*scale + scale/2
					fmt.Fprintf(&sb, "<circle cx=\"%.1f\" cy=\"%.1f\" r=\"%.1f\"/>\n", cx, cy, dotRadius)
				}
			}
		}
	}

	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// Fit maps content points into a w×h box with the given margin, keeping
// the aspect ratio and centering the result.
func Fit(pts []animator.Vec, w, h, margin float64) func(animator.Vec) (float64, float64) {
	b := analysis.Bounds(pts)
	bw, bh := b.Width(), b.Height()
	if bw == 0 {
		bw = 1
	}
	if bh == 0 {
		bh = 1
	}
	scale := min((w-2*margin)/bw, (h-2*margin)/bh)
	ox := (w - bw*scale) / 2
	oy := (h - bh*scale) / 2
	return func(p animator.Vec) (float64, float64) {
		return ox + (p.X-b.MinX)*scale, oy + (p.Y-b.MinY)*scale
	}
}

// PathData builds an SVG path "d" attribute for pts fitted into a w×h box.
// closed appends a closing segment.
func PathData(pts []animator.Vec, w, h float64, closed bool) string {
	if len(pts) < 2 {
		return ""
	}
	tr := Fit(pts, w, h, min(w, h)*0.05)
	var sb strings.Builder
	for i, p := range pts {
		x, y := tr(p)
		if i == 0 {
			fmt.Fprintf(&sb, "M%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	if closed {
		sb.WriteString(" Z")
	}
	return sb.String()
}

func pathSVG(d string, width, height int, strokeColor string) string {
	if d == "" {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" stroke-linejoin="round" d="%s"/>
</svg>`, width, height, width, height, background, strokeColor, d)
	return sb.String()
}

// TraceSVG renders one full period of the curve described by vs.
func TraceSVG(vs epicycle.VectorSet, samples, width, height int, strokeColor string) string {
	if samples <= 0 {
		samples = DefaultSamples
	}
	pts := analysis.Trace(vs, samples)
	return pathSVG(PathData(pts, float64(width), float64(height), true), width, height, strokeColor)
}

// StrokeSVG renders the submitted stroke as drawn.
func StrokeSVG(s epicycle.Stroke, width, height int, strokeColor string) string {
	pts := analysis.StrokePoints(s)
	return pathSVG(PathData(pts, float64(width), float64(height), false), width, height, strokeColor)
}
