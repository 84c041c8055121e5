package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/epicycle/internal/export"
)

const (
	charW, charH = 8, 16
	gifDelay     = 2 // hundredths of a second
	maxGIFFrames = 600
)

func (m *Model) toggleRecording() tea.Cmd {
	if !m.recording {
		m.recording = true
		m.frames = make([]*image.Paletted, 0, maxGIFFrames)
		m.setNotice("recording")
		return nil
	}
	m.recording = false
	path, err := m.saveGIF()
	m.frames = nil
	return func() tea.Msg { return savedMsg{path: path, err: err} }
}

func (m *Model) palette() color.Palette {
	pal := color.Palette{hexRGBA(string(m.theme.Background))}
	for ink := InkGrid; ink < inkCount; ink++ {
		pal = append(pal, hexRGBA(string(m.inkColor(ink))))
	}
	return pal
}

func (m *Model) inkColor(ink Ink) string {
	switch ink {
	case InkGrid:
		return string(m.theme.Grid)
	case InkAxis, InkStroke:
		return string(m.theme.Muted)
	case InkCircle, InkRadius:
		return string(m.theme.Secondary)
	case InkTip:
		return string(m.theme.Accent)
	}
	return string(m.theme.Primary)
}

func hexRGBA(hex string) color.RGBA {
	r, g, b := parseHex(hex)
	return color.RGBA{uint8(r), uint8(g), uint8(b), 0xff}
}

// captureFrame rasterizes the braille canvas, one block per lit dot in the
// color of its cell's ink.
func (m *Model) captureFrame() {
	if len(m.frames) >= maxGIFFrames {
		return
	}
	c := m.canvas
	img := image.NewPaletted(image.Rect(0, 0, c.Width*charW, c.Height*charH), m.palette())
	dotW, dotH := charW/2, charH/4

	for row := 0; row < c.Height; row++ {
		for col := 0; col < c.Width; col++ {
			pattern := c.Grid[row][col] - blank
			if pattern == 0 {
				continue
			}
			idx := uint8(c.ink[row][col])
			baseX, baseY := col*charW, row*charH
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&pixelMap[dy][dx] == 0 {
						continue
					}
					for py := 0; py < dotH; py++ {
						for px := 0; px < dotW; px++ {
							img.SetColorIndex(baseX+dx*dotW+px, baseY+dy*dotH+py, idx)
						}
					}
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) outputPath(ext string) string {
	dir := "."
	if m.deps.Config != nil && m.deps.Config.DataDir != "" {
		dir = m.deps.Config.DataDir
	}
	id := 0
	if m.drawing != nil {
		id = m.drawing.ID
	}
	return filepath.Join(dir, fmt.Sprintf("drawing_%d_%d.%s", id, time.Now().Unix(), ext))
}

func (m *Model) saveGIF() (string, error) {
	if len(m.frames) == 0 {
		return "", fmt.Errorf("no frames recorded")
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, gifDelay)
	}
	path := m.outputPath("gif")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", err
	}
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		return "", err
	}
	return path, nil
}

// snapshotSVG writes the current canvas as SVG.
func (m *Model) snapshotSVG() tea.Cmd {
	svg := export.CanvasToSVG(m.canvas, 4, string(m.theme.Primary))
	path := m.outputPath("svg")
	return func() tea.Msg {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return savedMsg{err: err}
		}
		if err := os.WriteFile(path, []byte(svg), 0644); err != nil {
			return savedMsg{err: err}
		}
		return savedMsg{path: path}
	}
}
