package syncer_test

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/syncer"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func response(id int, body string) *api.Response {
	raw := fmt.Sprintf(`{"id":%d,"points":[],"drawVectors":%s}`, id, body)
	var dv epicycle.DrawVectors
	Expect(dv.UnmarshalJSON([]byte(body))).To(Succeed())
	return &api.Response{ID: id, DrawVectors: dv, Raw: []byte(raw)}
}

func kinds(events []syncer.Event) []syncer.EventKind {
	out := make([]syncer.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}

var stroke = epicycle.Stroke{{X: 10, Y: 10, T: 0}, {X: 20, Y: 30, T: 0.1}, {X: 30, Y: 20, T: 0.2}}

var _ = Describe("Synchronizer", func() {
	var (
		s     *syncer.Synchronizer
		start time.Time
		tick  time.Duration
	)

	BeforeEach(func() {
		s = syncer.New(syncer.DefaultOptions(), quiet)
		start = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
		tick = s.Options().PollInterval
	})

	Describe("Submit", func() {
		It("rejects a stroke with fewer than two points and stays idle", func() {
			_, err := s.Submit(epicycle.Stroke{{}}, 100)
			Expect(err).To(MatchError(epicycle.ErrInvalidInput))
			Expect(s.State()).To(Equal(syncer.Idle))
			Expect(s.Session()).To(BeNil())
		})

		It("normalizes the stroke and clamps maxVectors", func() {
			req, err := s.Submit(stroke, 9000)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(syncer.Submitting))
			Expect(req.MaxVectors).To(Equal(500))
			Expect(req.Points).To(HaveLen(3))
			Expect(req.Points[0]).To(Equal(epicycle.Point{X: -10, Y: -10, T: 0}))
		})

		It("defaults maxVectors when absent", func() {
			req, err := s.Submit(stroke, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(req.MaxVectors).To(Equal(100))
		})

		It("cancels the active session", func() {
			_, _ = s.Submit(stroke, 100)
			old := s.Accepted(1, start)

			_, err := s.Submit(stroke, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.Current(old.ID)).To(BeFalse())

			next := s.Accepted(2, start.Add(time.Second))
			Expect(next.ID).NotTo(Equal(old.ID))
			Expect(s.Observe(old.ID, response(1, `[{"n":1,"real":1,"imaginary":0}]`), start.Add(2*time.Second))).To(BeEmpty())
		})

		It("keeps the active session when the new stroke is invalid", func() {
			_, _ = s.Submit(stroke, 100)
			sess := s.Accepted(1, start)
			_, err := s.Submit(nil, 100)
			Expect(err).To(HaveOccurred())
			Expect(s.Current(sess.ID)).To(BeTrue())
			Expect(s.State()).To(Equal(syncer.Polling))
		})
	})

	Describe("SubmitFailed", func() {
		It("terminates with an io failure", func() {
			_, _ = s.Submit(stroke, 100)
			events := s.SubmitFailed(errors.New("connection refused"))
			Expect(kinds(events)).To(Equal([]syncer.EventKind{syncer.EventFailed}))
			Expect(events[0].Err).To(MatchError(epicycle.ErrIOFailure))
			Expect(s.State()).To(Equal(syncer.Terminated))
		})
	})

	Describe("Observe", func() {
		var sess syncer.Session

		BeforeEach(func() {
			_, err := s.Submit(stroke, 100)
			Expect(err).NotTo(HaveOccurred())
			sess = s.Accepted(7, start)
			Expect(s.State()).To(Equal(syncer.Polling))
			Expect(sess.Fingerprint).To(BeEmpty())
			Expect(sess.LastChangeAt).To(Equal(start))
		})

		It("delivers sorted vectors on the first non-empty response", func() {
			resp := response(7, `[{"n":3,"real":1,"imaginary":0},{"n":-1,"real":2,"imaginary":0},{"n":0,"real":4,"imaginary":0}]`)
			events := s.Observe(sess.ID, resp, start.Add(tick))

			Expect(kinds(events)).To(Equal([]syncer.EventKind{syncer.EventVectors}))
			Expect(events[0].Vectors.IsSorted()).To(BeTrue())
			Expect(events[0].Vectors[0].N).To(Equal(0))
			Expect(s.Drawing().Vectors).To(Equal(events[0].Vectors))
			Expect(s.Session().LastChangeAt).To(Equal(start.Add(tick)))
		})

		It("treats both response shapes alike", func() {
			flat := s.Observe(sess.ID, response(7, `[{"n":1,"real":5,"imaginary":0}]`), start.Add(tick))

			other := syncer.New(syncer.DefaultOptions(), quiet)
			_, _ = other.Submit(stroke, 100)
			otherSess := other.Accepted(7, start)
			wrapped := other.Observe(otherSess.ID, response(7, `{"calculated":[{"n":1,"real":5,"imaginary":0}]}`), start.Add(tick))

			Expect(wrapped[0].Vectors).To(Equal(flat[0].Vectors))
		})

		It("counts an empty vector list as a change", func() {
			empty := response(7, `[]`)
			for i := 1; i <= 15; i++ {
				now := start.Add(time.Duration(i) * tick)
				Expect(s.Observe(sess.ID, empty, now)).To(BeEmpty())
				Expect(s.Session().LastChangeAt).To(Equal(now))
			}
			Expect(s.State()).To(Equal(syncer.Polling))
		})

		It("keeps polling after delivery while the response is unchanged", func() {
			resp := response(7, `[{"n":1,"real":5,"imaginary":0}]`)
			s.Observe(sess.ID, resp, start.Add(tick))
			for i := 2; i <= 10; i++ {
				Expect(s.Observe(sess.ID, resp, start.Add(time.Duration(i)*tick))).To(BeEmpty())
			}
			Expect(s.State()).To(Equal(syncer.Polling))
		})

		It("redelivers when the response changes", func() {
			s.Observe(sess.ID, response(7, `[{"n":1,"real":5,"imaginary":0}]`), start.Add(tick))
			events := s.Observe(sess.ID, response(7, `[{"n":1,"real":5,"imaginary":0},{"n":2,"real":1,"imaginary":0}]`), start.Add(2*tick))
			Expect(kinds(events)).To(Equal([]syncer.EventKind{syncer.EventVectors}))
			Expect(events[0].Vectors).To(HaveLen(2))
		})

		It("terminates between the stability timeout and one tick after it", func() {
			resp := response(7, `[{"n":1,"real":5,"imaginary":0}]`)
			var (
				lastChange time.Time
				stoppedAt  time.Time
				events     []syncer.Event
			)
			for i := 1; i <= 30 && s.State() == syncer.Polling; i++ {
				now := start.Add(time.Duration(i) * tick)
				events = s.Observe(sess.ID, resp, now)
				if i == 1 {
					lastChange = now
				}
				stoppedAt = now
			}

			Expect(s.State()).To(Equal(syncer.Terminated))
			elapsed := stoppedAt.Sub(lastChange)
			Expect(elapsed).To(BeNumerically(">=", 10*time.Second))
			Expect(elapsed).To(BeNumerically("<=", 10*time.Second+tick))
			Expect(kinds(events)).To(Equal([]syncer.EventKind{syncer.EventCompleted, syncer.EventRefreshListing}))
			Expect(events[0].Err).NotTo(HaveOccurred())
		})

		It("reports incomplete computation when vectors never arrive", func() {
			opts := syncer.DefaultOptions()
			opts.PendingTimeout = 30 * time.Second
			s = syncer.New(opts, quiet)
			_, _ = s.Submit(stroke, 100)
			sess = s.Accepted(7, start)

			empty := response(7, `{"calculated":[]}`)
			var events []syncer.Event
			for i := 1; i <= 60 && s.State() == syncer.Polling; i++ {
				events = s.Observe(sess.ID, empty, start.Add(time.Duration(i)*tick))
			}

			Expect(s.State()).To(Equal(syncer.Terminated))
			Expect(kinds(events)).To(Equal([]syncer.EventKind{syncer.EventIncomplete, syncer.EventRefreshListing}))
			Expect(events[0].Err).To(MatchError(epicycle.ErrComputationIncomplete))
		})

		It("ignores responses after termination", func() {
			Expect(s.Fail(sess.ID, errors.New("reset by peer"))).To(HaveLen(1))
			Expect(s.Observe(sess.ID, response(7, `[{"n":1,"real":5,"imaginary":0}]`), start.Add(tick))).To(BeEmpty())
			Expect(s.Fail(sess.ID, errors.New("again"))).To(BeEmpty())
		})
	})

	Describe("Fail", func() {
		It("terminates immediately with an io failure and no retry", func() {
			_, _ = s.Submit(stroke, 100)
			sess := s.Accepted(3, start)
			events := s.Fail(sess.ID, errors.New("timeout"))

			Expect(kinds(events)).To(Equal([]syncer.EventKind{syncer.EventFailed}))
			Expect(events[0].Err).To(MatchError(epicycle.ErrIOFailure))
			Expect(s.State()).To(Equal(syncer.Terminated))
			Expect(s.Current(sess.ID)).To(BeFalse())
		})

		It("allows a fresh submission afterwards", func() {
			_, _ = s.Submit(stroke, 100)
			sess := s.Accepted(3, start)
			s.Fail(sess.ID, errors.New("timeout"))

			_, err := s.Submit(stroke, 100)
			Expect(err).NotTo(HaveOccurred())
			Expect(s.State()).To(Equal(syncer.Submitting))
		})
	})

	Describe("Cancel", func() {
		It("returns to idle silently", func() {
			_, _ = s.Submit(stroke, 100)
			sess := s.Accepted(3, start)
			s.Cancel()
			Expect(s.State()).To(Equal(syncer.Idle))
			Expect(s.Current(sess.ID)).To(BeFalse())
		})
	})

	Describe("Fingerprint", func() {
		It("is stable for identical bodies and differs otherwise", func() {
			a, err := syncer.Fingerprint(response(1, `[]`))
			Expect(err).NotTo(HaveOccurred())
			b, _ := syncer.Fingerprint(response(1, `[]`))
			c, _ := syncer.Fingerprint(response(2, `[]`))
			Expect(a).To(Equal(b))
			Expect(a).NotTo(Equal(c))
		})

		It("falls back to the encoded response", func() {
			fp, err := syncer.Fingerprint(&api.Response{ID: 5})
			Expect(err).NotTo(HaveOccurred())
			Expect(fp).To(HaveLen(64))
		})
	})
})
