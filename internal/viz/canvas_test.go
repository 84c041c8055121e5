package viz

import (
	"strings"
	"testing"
)

func litDots(c *Canvas) int {
	n := 0
	w, h := c.Dots()
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if c.Grid[y/4][x/2]&pixelMap[y%4][x%2] != 0 {
				n++
			}
		}
	}
	return n
}

func TestCanvas_SetUnset(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	if c.Grid[0][0] != blank|0x1 || c.Grid[0][1] != blank|0x80 {
		t.Errorf("grid = %U %U", c.Grid[0][0], c.Grid[0][1])
	}
	c.Set(-1, 0)
	c.Set(4, 0)
	c.Set(0, 4)
	if litDots(c) != 2 {
		t.Errorf("out-of-range sets changed the canvas")
	}
	c.Unset(0, 0)
	if c.Grid[0][0] != blank || c.ink[0][0] != InkNone {
		t.Errorf("unset left %U ink %d", c.Grid[0][0], c.ink[0][0])
	}
}

func TestCanvas_InkPriority(t *testing.T) {
	c := NewCanvas(1, 1)
	c.Pen(InkTip)
	c.Set(0, 0)
	c.Pen(InkGrid)
	c.Set(1, 1)
	if c.ink[0][0] != InkTip {
		t.Errorf("ink = %d, want tip", c.ink[0][0])
	}
}

func TestCanvas_DrawLine(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(0, 0, 19, 0)
	if n := litDots(c); n != 20 {
		t.Errorf("horizontal line lit %d dots, want 20", n)
	}

	c.Clear()
	c.DrawLine(0, 0, 9, 9)
	if n := litDots(c); n != 10 {
		t.Errorf("diagonal lit %d dots, want 10", n)
	}
}

func TestCanvas_DrawLineClipped(t *testing.T) {
	c := NewCanvas(10, 5)
	c.DrawLine(-1_000_000_000, 10, 1_000_000_000, 10)
	if n := litDots(c); n != 20 {
		t.Errorf("clipped line lit %d dots, want 20", n)
	}

	c.Clear()
	c.DrawLine(-50, -50, -10, -60)
	if n := litDots(c); n != 0 {
		t.Errorf("off-canvas line lit %d dots", n)
	}
}

func TestCanvas_DrawCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(20, 20, 8)
	for _, p := range [][2]int{{28, 20}, {12, 20}, {20, 28}, {20, 12}} {
		if c.Grid[p[1]/4][p[0]/2]&pixelMap[p[1]%4][p[0]%2] == 0 {
			t.Errorf("circle misses %v", p)
		}
	}
	if c.Grid[20/4][20/2]&pixelMap[0][0] != 0 {
		t.Error("circle filled its center")
	}

	c.Clear()
	c.DrawCircle(-500, -500, 10)
	if litDots(c) != 0 {
		t.Error("off-canvas circle drawn")
	}
}

func TestCanvas_Render(t *testing.T) {
	c := NewCanvas(3, 1)
	c.Pen(InkTrail)
	c.Set(0, 0)
	out := c.Render(ThemeMinimal.Inks())
	if strings.Count(out, "\n") != 1 || !strings.Contains(out, string(rune(blank|1))) {
		t.Errorf("render = %q", out)
	}
	if got := c.String(); got != string([]rune{blank | 1, blank, blank})+"\n" {
		t.Errorf("String() = %q", got)
	}
}

func TestTheme_Next(t *testing.T) {
	th := ThemeCyberpunk
	seen := map[string]bool{}
	for range Themes {
		seen[th.Name] = true
		th = th.Next()
	}
	if len(seen) != len(Themes) || th.Name != ThemeCyberpunk.Name {
		t.Errorf("cycle visited %v and ended on %s", seen, th.Name)
	}
	if GetTheme("nope").Name != "cyberpunk" {
		t.Error("unknown theme should fall back to cyberpunk")
	}
}

func TestGradientText(t *testing.T) {
	if GradientText("", "#000000", "#ffffff") != "" {
		t.Error("empty text should render empty")
	}
	if !strings.Contains(GradientText("ab", "#000000", "#ffffff"), "b") {
		t.Error("text lost")
	}
	if r, g, b := parseHex("#ff8000"); r != 255 || g != 128 || b != 0 {
		t.Errorf("parseHex = %d %d %d", r, g, b)
	}
	if hexColor(300, -5, 171) != "#ff00ab" {
		t.Errorf("hexColor = %s", hexColor(300, -5, 171))
	}
}
