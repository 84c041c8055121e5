package viz

func helpView() string {
	return GlassPanel.Render(`KEYBOARD SHORTCUTS

  Space     Pause / resume
  R         Reset animation and view
  F         Follow the pen tip
  + / -     Zoom at the center
  Wheel     Zoom at the cursor
  Drag      Pan
  Arrows    Pan
  0         Reset zoom and pan
  [ / ]     Slower / faster
  C         Toggle circles
  X         Toggle grid
  T         Cycle themes
  G         Toggle GIF recording
  S         Save SVG snapshot
  Q / Esc   Back
  ?         Toggle this help`)
}
