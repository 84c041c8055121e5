package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/epicycle/internal/analysis"
	"github.com/san-kum/epicycle/internal/animator"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/syncer"
	"github.com/san-kum/epicycle/internal/viewport"
)

const (
	fillRatio = 0.85
	// circles larger than this many dots are skipped
	maxCircleDots = 4000
	spectrumBins  = 32
)

var (
	canvasStyle = lipgloss.NewStyle().Padding(canvasTop, canvasLeft)
	statsStyle  = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(lipgloss.Color("240")).Padding(0, 1).Width(sidebarWidth - 2)
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49"))
)

// fit chooses the zoom-1 scale from the stroke, or from one period of the
// trace when the stroke is unknown.
func (m *Model) fit(d *epicycle.Drawing) {
	m.fitPts = nil
	if d == nil {
		m.rescale()
		return
	}
	switch {
	case len(d.Stroke) > 1:
		m.fitPts = analysis.StrokePoints(d.Stroke)
	case d.Computed():
		m.fitPts = analysis.Trace(d.Vectors, 256)
	}
	m.rescale()
}

func (m *Model) rescale() {
	m.scale = 1
	if len(m.fitPts) == 0 || m.canvas == nil {
		return
	}
	var ex, ey float64
	for _, p := range m.fitPts {
		ex = math.Max(ex, math.Abs(p.X))
		ey = math.Max(ey, math.Abs(p.Y))
	}
	w, h := m.canvas.Dots()
	sx, sy := math.Inf(1), math.Inf(1)
	if ex > 0 {
		sx = float64(w) / 2 * fillRatio / ex
	}
	if ey > 0 {
		sy = float64(h) / 2 * fillRatio / ey
	}
	if s := math.Min(sx, sy); !math.IsInf(s, 1) {
		m.scale = s
	}
}

func (m *Model) world(v animator.Vec) viewport.Point {
	return viewport.Point{X: v.X * m.scale, Y: v.Y * m.scale}
}

// dot maps a content point to canvas sub-pixels.
func (m *Model) dot(v animator.Vec) (int, int) {
	w, h := m.canvas.Dots()
	p := m.view.ToScreen(m.world(v), float64(w), float64(h), m.world(m.frame.Tip))
	return int(math.Round(p.X)), int(math.Round(p.Y))
}

// draw renders the current frame onto the canvas.
func (m *Model) draw() {
	c := m.canvas
	c.Clear()
	w, h := c.Dots()
	tip := m.world(m.frame.Tip)

	if m.showGrid {
		m.drawGrid(float64(w), float64(h), tip)
	}

	if m.drawing != nil && (!m.anim.Loaded() || len(m.frame.Trail) == 0) {
		c.Pen(InkStroke)
		for i := 1; i < len(m.drawing.Stroke); i++ {
			a, b := m.drawing.Stroke[i-1], m.drawing.Stroke[i]
			x0, y0 := m.dot(animator.Vec{X: a.X, Y: a.Y})
			x1, y1 := m.dot(animator.Vec{X: b.X, Y: b.Y})
			c.DrawLine(x0, y0, x1, y1)
		}
	}

	if !m.anim.Loaded() {
		return
	}

	if m.showCircles {
		zoom := m.view.Zoom() * m.scale
		for _, circle := range m.frame.Circles {
			cx, cy := m.dot(circle.Center)
			ex, ey := m.dot(circle.End)
			if r := circle.Radius * zoom; r >= 1 && r < maxCircleDots {
				c.Pen(InkCircle)
				c.DrawCircle(cx, cy, int(math.Round(r)))
			}
			c.Pen(InkRadius)
			c.DrawLine(cx, cy, ex, ey)
		}
	}

	c.Pen(InkTrail)
	trail := m.frame.Trail
	for i := 1; i < len(trail); i++ {
		x0, y0 := m.dot(trail[i-1])
		x1, y1 := m.dot(trail[i])
		c.DrawLine(x0, y0, x1, y1)
	}

	c.Pen(InkTip)
	tx, ty := m.dot(m.frame.Tip)
	c.Set(tx, ty)
	c.Set(tx+1, ty)
	c.Set(tx, ty+1)
	c.Set(tx+1, ty+1)
}

func (m *Model) drawGrid(w, h float64, tip viewport.Point) {
	c := m.canvas
	for _, line := range m.view.GridLines(w, h, tip) {
		ink := InkGrid
		if line.Axis {
			ink = InkAxis
		}
		c.Pen(ink)
		if line.Vertical {
			p := m.view.ToScreen(viewport.Point{X: line.At}, w, h, tip)
			x := int(math.Round(p.X))
			for y := 0; y < int(h); y += 2 {
				c.Set(x, y)
			}
		} else {
			p := m.view.ToScreen(viewport.Point{Y: line.At}, w, h, tip)
			y := int(math.Round(p.Y))
			for x := 0; x < int(w); x += 2 {
				c.Set(x, y)
			}
		}
	}
}

func (m Model) status() string {
	switch {
	case m.recording:
		return StatusRecording.Render("● REC")
	case m.anim.Running():
		return StatusRunning.Render("▶ PLAYING")
	case m.sync.State() == syncer.Submitting:
		return StatusPaused.Render(AnimatedSpinner(m.ticks) + " SUBMITTING")
	case m.sync.State() == syncer.Polling:
		return StatusPaused.Render(AnimatedSpinner(m.ticks) + " WAITING")
	case m.anim.Loaded():
		return StatusPaused.Render("❚❚ PAUSED")
	}
	return Subtle.Render("IDLE")
}

func metric(label, value string) string {
	return MetricLabel.Render(label) + MetricValue.Render(value) + "\n"
}

// View renders the TUI interface.
func (m Model) View() string {
	var s strings.Builder
	title := "EPICYCLES"
	if m.drawing != nil && m.drawing.ID != 0 {
		title = fmt.Sprintf("DRAWING %d", m.drawing.ID)
	}
	s.WriteString(HeaderStyle.Render(GradientText(title, m.theme.Primary, m.theme.Secondary)) + "\n")
	s.WriteString(m.status() + "\n\n")

	vs := m.anim.Vectors()
	s.WriteString(metric("Vectors", fmt.Sprintf("%d", len(vs))))
	s.WriteString(metric("Time", fmt.Sprintf("%.2f / %.0fs", m.anim.Time(), animator.Period)))
	s.WriteString(metric("Zoom", fmt.Sprintf("%.2fx", m.view.Zoom())))
	s.WriteString(metric("Speed", fmt.Sprintf("1/%d", m.view.Speed())))
	follow := "off"
	if m.view.Following() {
		follow = "on"
	}
	s.WriteString(metric("Follow", follow))
	s.WriteString(metric("Trail", fmt.Sprintf("%d", len(m.frame.Trail))))

	if sess := m.sync.Session(); sess != nil && sess.Active && sess.Delivered {
		quiet := float64(time.Since(sess.LastChangeAt)) / float64(m.sync.Options().StabilityTimeout)
		s.WriteString(MetricLabel.Render("Settling") + ProgressBar(quiet, 16) + "\n")
	}

	amps := analysis.Amplitudes(analysis.Spectrum(vs))
	if len(amps) > spectrumBins {
		amps = amps[:spectrumBins]
	}
	if len(amps) > 1 {
		chart := asciigraph.Plot(amps, asciigraph.Height(5), asciigraph.Width(sidebarWidth-12), asciigraph.Caption("amplitude by |n|"))
		s.WriteString("\n" + graphStyle.Render(chart) + "\n")
	}

	if m.notice != "" {
		style := lipgloss.NewStyle().Foreground(m.theme.Success)
		if m.noticeErr {
			style = lipgloss.NewStyle().Foreground(m.theme.Error)
		}
		s.WriteString("\n" + style.Width(sidebarWidth-4).Render(m.notice) + "\n")
	}

	s.WriteString("\n" + KeyHint.Render("spc play  r reset  f follow\n+/- zoom  [/] speed  ? help"))

	canvasView := canvasStyle.Render(m.canvas.Render(m.theme.Inks()))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))
	if m.showHelp {
		return lipgloss.JoinVertical(lipgloss.Left, helpView(), mainView)
	}
	return mainView
}
