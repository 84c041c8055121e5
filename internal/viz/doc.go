// Package viz is the terminal front end: a gallery of drawings and a
// player that animates one of them as epicycles.
//
// The package implements an interactive TUI using the Bubble Tea framework:
//
//   - [App]: gallery of sample shapes, recent and cached drawings
//   - [Model]: the player, which submits, polls and animates a drawing
//   - [Canvas]: Braille-based pixel canvas with per-cell colors
//   - Theme selection with 5 built-in color schemes
//
// All state is owned by the Bubble Tea update loop. The frame and poll
// loops are tick chains tagged with a sched.Handle; a tick whose handle
// is no longer current is dropped.
//
// # Key Bindings
//
//	Space - Pause/Resume
//	R     - Reset animation, zoom, pan and speed
//	F     - Follow the pen tip
//	+/-   - Zoom, mouse wheel zooms at the cursor
//	[ ]   - Slower / faster
//	T     - Cycle color themes
//	G     - Toggle GIF recording
//	S     - SVG snapshot
//	?     - Show help overlay
//
// Recordings and snapshots are written to the data directory.
package viz
