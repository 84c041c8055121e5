package animator

import "math"

const (
	// Period is the length of one full revolution of the n=1 vector.
	Period = 5.0
	// TrailCap bounds the number of trace points kept.
	TrailCap = 1000

	baseStep = 0.01
)

// Clock is the animation time, wrapped into [0, Period).
type Clock struct {
	Time   float64
	Period float64
}

func NewClock() Clock { return Clock{Period: Period} }

// Advance moves the clock one frame forward. Higher speed values slow the
// animation down.
func (c *Clock) Advance(speed int) {
	if speed < 1 {
		speed = 1
	}
	if c.Period <= 0 {
		c.Period = Period
	}
	c.Time = math.Mod(c.Time+baseStep/float64(speed), c.Period)
}

func (c *Clock) Reset() { c.Time = 0 }

// Trail is a bounded FIFO of traced points.
type Trail struct {
	points []Vec
	limit  int
}

func NewTrail(limit int) *Trail {
	if limit <= 0 {
		limit = TrailCap
	}
	return &Trail{points: make([]Vec, 0, limit), limit: limit}
}

// Push appends p and drops the oldest point once the trail is full.
func (t *Trail) Push(p Vec) {
	if len(t.points) == t.limit {
		copy(t.points, t.points[1:])
		t.points = t.points[:len(t.points)-1]
	}
	t.points = append(t.points, p)
}

// Points returns the trail oldest first. The slice is shared with the
// trail and is only valid until the next Push.
func (t *Trail) Points() []Vec { return t.points }

func (t *Trail) Len() int { return len(t.points) }

func (t *Trail) Clear() { t.points = t.points[:0] }
