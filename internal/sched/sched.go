// Package sched replaces self-rescheduling callbacks with explicit loop
// handles. A recurring task is started through a [Loop], which hands out
// a [Handle]; each scheduled tick carries its handle and is only acted on
// while that handle is current. Starting again or stopping invalidates
// every outstanding tick, so at most one instance of a task is ever live.
package sched

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// Handle is the cancellation token for one started instance of a loop.
type Handle struct {
	Task string
	Gen  uint64
}

func (h Handle) String() string {
	return fmt.Sprintf("%s#%d", h.Task, h.Gen)
}

// IsZero reports whether h was never issued by a loop.
func (h Handle) IsZero() bool { return h.Gen == 0 }

// Loop tracks the single live instance of a named recurring task.
// It is not safe for concurrent use; it belongs to the update loop.
type Loop struct {
	name   string
	gen    uint64
	active bool
}

func NewLoop(name string) *Loop {
	return &Loop{name: name}
}

// Start cancels any running instance and returns the handle of a new one.
func (l *Loop) Start() Handle {
	l.gen++
	l.active = true
	return Handle{Task: l.name, Gen: l.gen}
}

// Stop cancels the running instance. Calling it again is a no-op.
func (l *Loop) Stop() {
	if !l.active {
		return
	}
	l.active = false
	l.gen++
}

// Current reports whether h belongs to the live instance.
func (l *Loop) Current(h Handle) bool {
	return l.active && h.Task == l.name && h.Gen == l.gen
}

func (l *Loop) Active() bool { return l.active }

// Handle returns the live handle, or the zero handle when stopped.
func (l *Loop) Handle() Handle {
	if !l.active {
		return Handle{}
	}
	return Handle{Task: l.name, Gen: l.gen}
}

// TickMsg is delivered to the update loop when a scheduled tick fires.
type TickMsg struct {
	Handle Handle
	At     time.Time
}

// Tick schedules one tick for h after d. Re-issue it from the handler to
// keep the loop running; drop the message when h is no longer current.
func Tick(h Handle, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg{Handle: h, At: t}
	})
}
