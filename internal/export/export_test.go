package export

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/epicycle/internal/animator"
	"github.com/san-kum/epicycle/internal/epicycle"
)

type grid [][]rune

func (g grid) Cells() [][]rune { return g }

func TestCanvasToSVG(t *testing.T) {
	g := grid{{0x2800 | 0x01 | 0x80, ' '}}
	svg := CanvasToSVG(g, 2, "#00ff00")
	if n := strings.Count(svg, "<circle"); n != 2 {
		t.Errorf("expected 2 dots, got %d", n)
	}
	if !strings.Contains(svg, `width="8" height="8"`) {
		t.Errorf("unexpected size in %s", svg[:120])
	}
	if CanvasToSVG(nil, 1, "#fff") != "" {
		t.Error("nil canvas should render nothing")
	}
}

func TestFit_KeepsAspect(t *testing.T) {
	pts := []animator.Vec{{X: -10, Y: -5}, {X: 10, Y: 5}}
	fit := Fit(pts, 100, 100, 0)
	x0, y0 := fit(pts[0])
	x1, y1 := fit(pts[1])
	if math.Abs((x1-x0)-100) > 1e-9 || math.Abs((y1-y0)-50) > 1e-9 {
		t.Errorf("fitted box %v,%v -> %v,%v", x0, y0, x1, y1)
	}
	if math.Abs(y0-25) > 1e-9 {
		t.Errorf("not centered vertically: y0=%v", y0)
	}
}

func TestPathData(t *testing.T) {
	d := PathData([]animator.Vec{{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 0}}, 100, 100, true)
	if !strings.HasPrefix(d, "M") || !strings.HasSuffix(d, " Z") || strings.Count(d, " L") != 2 {
		t.Errorf("path = %q", d)
	}
	if PathData([]animator.Vec{{}}, 100, 100, false) != "" {
		t.Error("single point should give empty path")
	}
}

func TestTraceSVG(t *testing.T) {
	svg := TraceSVG(epicycle.VectorSet{{N: 1, Real: 10}, {N: 2, Real: 3}}, 50, 200, 200, "#ff00ff")
	if !strings.Contains(svg, `stroke="#ff00ff"`) || strings.Count(svg, " L") != 49 {
		t.Errorf("unexpected svg: %.200s", svg)
	}
	if TraceSVG(nil, 50, 200, 200, "#fff") != "" {
		t.Error("empty set should render nothing")
	}
}

func TestStrokeSVG(t *testing.T) {
	s := epicycle.Stroke{{X: 0, Y: 0}, {X: 5, Y: 5, T: 0.1}}
	svg := StrokeSVG(s, 64, 64, "#ffffff")
	if strings.Contains(svg, " Z") || !strings.Contains(svg, "<path") {
		t.Errorf("unexpected svg: %s", svg)
	}
}

func TestTracePDF(t *testing.T) {
	d := &epicycle.Drawing{
		ID:      12,
		Stroke:  epicycle.Stroke{{X: -5, Y: 0}, {X: 5, Y: 0, T: 0.1}, {X: 0, Y: 5, T: 0.2}},
		Vectors: epicycle.VectorSet{{N: 0, Real: 1}, {N: 1, Real: 5}},
	}
	var buf bytes.Buffer
	if err := TracePDF(&buf, d, PDFOptions{Samples: 200, Stroke: true, Color: "#3366cc"}); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Errorf("output is not a pdf: %q", buf.Bytes()[:min(buf.Len(), 16)])
	}
}

func TestTracePDF_Errors(t *testing.T) {
	var buf bytes.Buffer
	err := TracePDF(&buf, &epicycle.Drawing{ID: 1}, PDFOptions{})
	if !errors.Is(err, epicycle.ErrNoDataAvailable) {
		t.Errorf("expected ErrNoDataAvailable, got %v", err)
	}

	d := &epicycle.Drawing{ID: 2, Vectors: epicycle.VectorSet{{N: 1, Real: 1}}}
	err = TracePDF(&buf, d, PDFOptions{Color: "blue"})
	if !errors.Is(err, epicycle.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}

	err = TracePDF(&buf, nil, PDFOptions{})
	if !errors.Is(err, epicycle.ErrInvalidInput) {
		t.Errorf("nil drawing: expected ErrInvalidInput, got %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("failed exports wrote %d bytes", buf.Len())
	}
}
