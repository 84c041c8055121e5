package syncer

import (
	"context"
	"log/slog"
	"time"

	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/epicycle"
)

// Runner drives a Synchronizer without a UI: one goroutine, a fixed
// ticker, and the fetch performed inline on each tick.
type Runner struct {
	sync *Synchronizer
	svc  api.Service
	now  func() time.Time
	log  *slog.Logger
}

func NewRunner(s *Synchronizer, svc api.Service, log *slog.Logger) *Runner {
	if log == nil {
		log = slog.Default()
	}
	return &Runner{sync: s, svc: svc, now: time.Now, log: log.With("component", "runner")}
}

// Run submits st and polls until the session terminates. Every event is
// passed to onEvent as it happens. The returned error is nil for a
// completed session, wraps ErrComputationIncomplete or ErrIOFailure
// otherwise, or is the context error when ctx ends first.
func (r *Runner) Run(ctx context.Context, st epicycle.Stroke, maxVectors int, onEvent func(Event)) (*epicycle.Drawing, error) {
	if onEvent == nil {
		onEvent = func(Event) {}
	}

	req, err := r.sync.Submit(st, maxVectors)
	if err != nil {
		return nil, err
	}

	id, err := r.svc.Create(ctx, req.Points, req.MaxVectors)
	if err != nil {
		events := r.sync.SubmitFailed(err)
		for _, ev := range events {
			onEvent(ev)
		}
		return nil, events[0].Err
	}

	sess := r.sync.Accepted(id, r.now())
	return r.poll(ctx, sess, onEvent)
}

// Follow polls an existing drawing id without submitting.
func (r *Runner) Follow(ctx context.Context, id int, onEvent func(Event)) (*epicycle.Drawing, error) {
	if onEvent == nil {
		onEvent = func(Event) {}
	}
	sess := r.sync.Accepted(id, r.now())
	return r.poll(ctx, sess, onEvent)
}

func (r *Runner) poll(ctx context.Context, sess Session, onEvent func(Event)) (*epicycle.Drawing, error) {
	ticker := time.NewTicker(r.sync.Options().PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.sync.Cancel()
			return r.sync.Drawing(), ctx.Err()
		case <-ticker.C:
		}

		resp, err := r.svc.Get(ctx, sess.DrawingID)
		var events []Event
		if err != nil {
			if ctx.Err() != nil {
				r.sync.Cancel()
				return r.sync.Drawing(), ctx.Err()
			}
			events = r.sync.Fail(sess.ID, err)
		} else {
			events = r.sync.Observe(sess.ID, resp, r.now())
		}

		var final error
		done := false
		for _, ev := range events {
			onEvent(ev)
			if ev.Terminal() {
				done, final = true, ev.Err
			}
		}
		if done {
			return r.sync.Drawing(), final
		}
	}
}
