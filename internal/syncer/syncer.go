// Package syncer implements the result synchronization protocol: a stroke
// is submitted, then the drawing is polled until its response stops
// changing.
//
// [Synchronizer] is a pure state machine. It never blocks and never reads
// the clock; drivers feed it completed requests together with the time they
// completed. Two drivers exist: the TUI update loop in package viz and the
// headless [Runner].
package syncer

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/stroke"
)

type State int

const (
	Idle State = iota
	Submitting
	Polling
	Terminated
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Submitting:
		return "submitting"
	case Polling:
		return "polling"
	case Terminated:
		return "terminated"
	default:
		return "unknown"
	}
}

type EventKind int

const (
	// EventVectors delivers a new, sorted vector set for animation.
	EventVectors EventKind = iota
	// EventCompleted ends a session that delivered vectors.
	EventCompleted
	// EventIncomplete ends a session that never delivered vectors.
	EventIncomplete
	// EventFailed ends a session on a transport or decode failure.
	EventFailed
	// EventRefreshListing asks the listing collaborator to reload.
	EventRefreshListing
)

func (k EventKind) String() string {
	return [...]string{"vectors", "completed", "incomplete", "failed", "refresh-listing"}[k]
}

type Event struct {
	Kind      EventKind
	Session   string
	DrawingID int
	Vectors   epicycle.VectorSet
	Err       error
}

// Terminal reports whether the event ends its session.
func (e Event) Terminal() bool {
	return e.Kind == EventCompleted || e.Kind == EventIncomplete || e.Kind == EventFailed
}

type Options struct {
	PollInterval     time.Duration
	StabilityTimeout time.Duration
	// PendingTimeout bounds how long an empty vector list is waited for.
	// Zero waits forever.
	PendingTimeout time.Duration
}

func DefaultOptions() Options {
	return Options{
		PollInterval:     time.Second,
		StabilityTimeout: 10 * time.Second,
		PendingTimeout:   2 * time.Minute,
	}
}

// Session is one polling run for one drawing.
type Session struct {
	ID           string
	DrawingID    int
	Fingerprint  string
	StartedAt    time.Time
	LastChangeAt time.Time
	Active       bool
	Delivered    bool
}

// Request is the normalized submission produced by Submit.
type Request struct {
	Points     epicycle.Stroke
	MaxVectors int
}

type Synchronizer struct {
	opts    Options
	state   State
	session *Session
	drawing *epicycle.Drawing
	pending epicycle.Stroke
	log     *slog.Logger
}

func New(opts Options, log *slog.Logger) *Synchronizer {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultOptions().PollInterval
	}
	if opts.StabilityTimeout <= 0 {
		opts.StabilityTimeout = DefaultOptions().StabilityTimeout
	}
	if log == nil {
		log = slog.Default()
	}
	return &Synchronizer{opts: opts, log: log.With("component", "syncer")}
}

func (s *Synchronizer) Options() Options { return s.opts }
func (s *Synchronizer) State() State     { return s.state }

// Session returns a copy of the current session, or nil before the first
// accepted submission.
func (s *Synchronizer) Session() *Session {
	if s.session == nil {
		return nil
	}
	c := *s.session
	return &c
}

// Drawing returns the drawing being synchronized.
func (s *Synchronizer) Drawing() *epicycle.Drawing { return s.drawing }

// Current reports whether sessionID names the active session.
func (s *Synchronizer) Current(sessionID string) bool {
	return s.session != nil && s.session.Active && s.session.ID == sessionID
}

// Submit validates and normalizes a stroke and cancels any active session.
// An invalid stroke leaves the machine untouched.
func (s *Synchronizer) Submit(st epicycle.Stroke, maxVectors int) (Request, error) {
	if err := stroke.Validate(st); err != nil {
		return Request{}, err
	}

	s.cancelSession()
	s.state = Submitting
	s.pending = stroke.Normalize(st)
	req := Request{Points: s.pending, MaxVectors: stroke.ClampMaxVectors(maxVectors)}
	s.log.Info("submitting", "points", len(req.Points), "max_vectors", req.MaxVectors)
	return req, nil
}

// Accepted starts polling the created drawing.
func (s *Synchronizer) Accepted(id int, now time.Time) Session {
	s.cancelSession()
	s.session = &Session{
		ID:           uuid.NewString(),
		DrawingID:    id,
		StartedAt:    now,
		LastChangeAt: now,
		Active:       true,
	}
	s.drawing = &epicycle.Drawing{ID: id, Stroke: s.pending}
	s.pending = nil
	s.state = Polling
	s.log.Info("polling started", "drawing", id, "session", s.session.ID)
	return *s.session
}

// SubmitFailed terminates after a failed creation request.
func (s *Synchronizer) SubmitFailed(err error) []Event {
	if s.state != Submitting {
		return nil
	}
	s.state = Terminated
	s.pending = nil
	s.log.Error("submission failed", "err", err)
	return []Event{{Kind: EventFailed, Err: asIOFailure("create", 0, err)}}
}

// Observe applies one completed poll. Responses for stale sessions are
// dropped.
func (s *Synchronizer) Observe(sessionID string, resp *api.Response, now time.Time) []Event {
	if !s.Current(sessionID) {
		s.log.Debug("dropping stale poll response", "session", sessionID)
		return nil
	}
	sess := s.session

	fp, err := Fingerprint(resp)
	if err != nil {
		return s.Fail(sessionID, err)
	}
	vectors := resp.DrawVectors.Vectors

	if fp != sess.Fingerprint || len(vectors) == 0 {
		sess.Fingerprint = fp
		sess.LastChangeAt = now

		if len(vectors) > 0 {
			sorted := vectors.Sorted()
			s.drawing.Vectors = sorted
			if len(resp.Points) > 0 {
				s.drawing.Stroke = resp.Points
			}
			sess.Delivered = true
			s.log.Info("vectors received", "drawing", sess.DrawingID, "count", len(sorted))
			return []Event{{Kind: EventVectors, Session: sess.ID, DrawingID: sess.DrawingID, Vectors: sorted}}
		}

		if s.opts.PendingTimeout > 0 && now.Sub(sess.StartedAt) > s.opts.PendingTimeout {
			return s.terminate(now)
		}
		return nil
	}

	if now.Sub(sess.LastChangeAt) > s.opts.StabilityTimeout {
		return s.terminate(now)
	}
	return nil
}

// Fail terminates the session after a transport or decode failure.
func (s *Synchronizer) Fail(sessionID string, err error) []Event {
	if !s.Current(sessionID) {
		return nil
	}
	sess := s.session
	sess.Active = false
	s.state = Terminated
	s.log.Error("polling failed", "drawing", sess.DrawingID, "err", err)
	return []Event{{Kind: EventFailed, Session: sess.ID, DrawingID: sess.DrawingID, Err: asIOFailure("poll", sess.DrawingID, err)}}
}

// Cancel stops the active session without emitting events.
func (s *Synchronizer) Cancel() {
	if s.cancelSession() {
		s.state = Idle
	}
}

func (s *Synchronizer) terminate(now time.Time) []Event {
	sess := s.session
	sess.Active = false
	s.state = Terminated

	ev := Event{Kind: EventCompleted, Session: sess.ID, DrawingID: sess.DrawingID}
	if !sess.Delivered {
		ev.Kind = EventIncomplete
		ev.Err = &epicycle.OpError{Op: "poll", DrawingID: sess.DrawingID, Err: epicycle.ErrComputationIncomplete}
	}
	s.log.Info("polling stopped", "drawing", sess.DrawingID, "outcome", ev.Kind, "quiet_for", now.Sub(sess.LastChangeAt).Round(time.Millisecond))
	return []Event{ev, {Kind: EventRefreshListing, Session: sess.ID, DrawingID: sess.DrawingID}}
}

func (s *Synchronizer) cancelSession() bool {
	if s.session == nil || !s.session.Active {
		return false
	}
	s.session.Active = false
	s.log.Debug("session cancelled", "session", s.session.ID)
	return true
}

// Fingerprint hashes the full response body. Responses without a raw body
// are hashed over their JSON encoding.
func Fingerprint(resp *api.Response) (string, error) {
	if resp == nil {
		return "", fmt.Errorf("empty response")
	}
	data := resp.Raw
	if data == nil {
		var err error
		data, err = json.Marshal(resp)
		if err != nil {
			return "", err
		}
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

func asIOFailure(op string, id int, err error) error {
	if err == nil {
		err = fmt.Errorf("unknown failure")
	}
	if errors.Is(err, epicycle.ErrIOFailure) {
		return err
	}
	return epicycle.IOFailure(op, id, err)
}
