package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/san-kum/epicycle/internal/analysis"
	"github.com/san-kum/epicycle/internal/animator"
	"github.com/san-kum/epicycle/internal/epicycle"
)

type PDFOptions struct {
	Samples int
	// Stroke overlays the submitted stroke in grey under the trace.
	Stroke bool
	Color  string
}

// TracePDF writes a one-page A4 document with the reconstructed curve of d
// and a short caption.
func TracePDF(w io.Writer, d *epicycle.Drawing, opts PDFOptions) error {
	if d == nil {
		return epicycle.Invalid("nil drawing")
	}
	if !d.Computed() {
		return &epicycle.OpError{Op: "export", DrawingID: d.ID, Err: epicycle.ErrNoDataAvailable}
	}
	if opts.Samples <= 0 {
		opts.Samples = DefaultSamples
	}
	r, g, b, err := parseHex(opts.Color)
	if err != nil {
		return epicycle.Invalid("color %q: %v", opts.Color, err)
	}

	p := gofpdf.New("P", "mm", "A4", "")
	p.SetTitle(fmt.Sprintf("drawing %d", d.ID), true)
	p.AddPage()

	pageW, _ := p.GetPageSize()
	left, top, size := 15.0, 25.0, pageW-30

	p.SetFont("Helvetica", "B", 14)
	p.Text(left, 15, fmt.Sprintf("Drawing %d", d.ID))
	p.SetFont("Helvetica", "", 10)
	p.Text(left, 21, fmt.Sprintf("%d vectors, highest frequency %d", len(d.Vectors), d.Vectors.MaxFrequency()))

	trace := analysis.Trace(d.Vectors, opts.Samples)
	// the stroke and the trace share one frame so they overlay
	frame := trace
	var strokePts []animator.Vec
	if opts.Stroke && len(d.Stroke) > 1 {
		strokePts = analysis.StrokePoints(d.Stroke)
		frame = append(append([]animator.Vec{}, trace...), strokePts...)
	}
	fit := Fit(frame, size, size, 5)

	p.SetDrawColor(200, 200, 200)
	p.SetLineWidth(0.2)
	p.Rect(left, top, size, size, "D")

	if strokePts != nil {
		p.SetDrawColor(170, 170, 170)
		p.SetLineWidth(0.3)
		polyline(p, strokePts, fit, left, top, false)
	}

	p.SetDrawColor(r, g, b)
	p.SetLineWidth(0.5)
	polyline(p, trace, fit, left, top, true)

	if err := p.Error(); err != nil {
		return err
	}
	return p.Output(w)
}

func polyline(p *gofpdf.Fpdf, pts []animator.Vec, fit func(animator.Vec) (float64, float64), ox, oy float64, closed bool) {
	for i := 1; i < len(pts); i++ {
		x1, y1 := fit(pts[i-1])
		x2, y2 := fit(pts[i])
		p.Line(ox+x1, oy+y1, ox+x2, oy+y2)
	}
	if closed && len(pts) > 2 {
		x1, y1 := fit(pts[len(pts)-1])
		x2, y2 := fit(pts[0])
		p.Line(ox+x1, oy+y1, ox+x2, oy+y2)
	}
}

// parseHex reads "#rrggbb". An empty string is black.
func parseHex(s string) (int, int, int, error) {
	if s == "" {
		return 0, 0, 0, nil
	}
	var r, g, b int
	if len(s) != 7 || s[0] != '#' {
		return 0, 0, 0, fmt.Errorf("want #rrggbb")
	}
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return 0, 0, 0, err
	}
	return r, g, b, nil
}
