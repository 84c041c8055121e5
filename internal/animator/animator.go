// Package animator replays a frequency vector set as a chain of rotating
// vectors and accumulates the curve traced by the last one.
package animator

import (
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/sched"
)

// Frame is everything needed to draw one animation frame.
type Frame struct {
	Time    float64
	Tip     Vec
	Circles []Circle
	Trail   []Vec
}

type Animator struct {
	vectors epicycle.VectorSet
	clock   Clock
	trail   *Trail
	loop    *sched.Loop
}

func New() *Animator {
	return &Animator{
		clock: NewClock(),
		trail: NewTrail(TrailCap),
		loop:  sched.NewLoop("frame"),
	}
}

// Load replaces the vector set. The set is sorted by |n| on the way in.
// A running animation keeps running on the new set.
func (a *Animator) Load(vs epicycle.VectorSet) {
	if vs.IsSorted() {
		a.vectors = vs.Clone()
	} else {
		a.vectors = vs.Sorted()
	}
}

func (a *Animator) Vectors() epicycle.VectorSet { return a.vectors }
func (a *Animator) Loaded() bool                { return len(a.vectors) > 0 }
func (a *Animator) Running() bool               { return a.loop.Active() }
func (a *Animator) Time() float64               { return a.clock.Time }
func (a *Animator) Trail() []Vec                { return a.trail.Points() }

// Start restarts the animation from t=0 with an empty trail. The returned
// handle replaces any earlier one; ticks carrying an older handle must be
// dropped.
func (a *Animator) Start() (sched.Handle, error) {
	if len(a.vectors) == 0 {
		return sched.Handle{}, &epicycle.OpError{Op: "animate", Err: epicycle.ErrNoDataAvailable}
	}
	a.clock.Reset()
	a.trail.Clear()
	return a.loop.Start(), nil
}

func (a *Animator) Stop() { a.loop.Stop() }

// Toggle pauses a running animation or resumes a paused one where it left
// off. It returns the new handle when resuming.
func (a *Animator) Toggle() (sched.Handle, error) {
	if a.loop.Active() {
		a.loop.Stop()
		return sched.Handle{}, nil
	}
	if len(a.vectors) == 0 {
		return sched.Handle{}, &epicycle.OpError{Op: "animate", Err: epicycle.ErrNoDataAvailable}
	}
	return a.loop.Start(), nil
}

// Reset stops the animation, clears the trail and rewinds the clock.
// The vector set stays loaded.
func (a *Animator) Reset() {
	a.loop.Stop()
	a.trail.Clear()
	a.clock.Reset()
}

// Current reports whether h is the live frame handle.
func (a *Animator) Current(h sched.Handle) bool { return a.loop.Current(h) }

// Handle returns the live frame handle.
func (a *Animator) Handle() sched.Handle { return a.loop.Handle() }

// Step composes the current frame, records its tip and advances the clock.
func (a *Animator) Step(speed int) Frame {
	f := a.Peek()
	a.trail.Push(f.Tip)
	a.clock.Advance(speed)
	f.Trail = a.trail.Points()
	return f
}

// Peek composes the current frame without advancing anything.
func (a *Animator) Peek() Frame {
	tip, circles := Compose(a.vectors, a.clock.Time, a.clock.Period)
	return Frame{Time: a.clock.Time, Tip: tip, Circles: circles, Trail: a.trail.Points()}
}
