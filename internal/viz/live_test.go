package viz

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/logs"
	"github.com/san-kum/epicycle/internal/sched"
	"github.com/san-kum/epicycle/internal/storage"
	"github.com/san-kum/epicycle/internal/syncer"
)

type fakeService struct {
	id      int
	vectors string
	getErr  error
	recent  []api.Summary
	gets    int
}

func (f *fakeService) Create(ctx context.Context, points epicycle.Stroke, maxVectors int) (int, error) {
	return f.id, nil
}

func (f *fakeService) Get(ctx context.Context, id int) (*api.Response, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	var dv epicycle.DrawVectors
	if err := dv.UnmarshalJSON([]byte(f.vectors)); err != nil {
		return nil, err
	}
	raw := fmt.Sprintf(`{"id":%d,"drawVectors":%s}`, id, f.vectors)
	return &api.Response{ID: id, DrawVectors: dv, Raw: []byte(raw)}, nil
}

func (f *fakeService) ListRecent(ctx context.Context) ([]api.Summary, error) {
	return f.recent, nil
}

func testDeps(t *testing.T, svc api.Service) Deps {
	cfg := config.DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.FPS = 240
	cfg.DataDir = t.TempDir()
	return Deps{
		Service: svc,
		Store:   storage.New(cfg.DataDir),
		Config:  cfg,
		Log:     logs.Discard(),
	}
}

// collect runs cmd and every command batched inside it.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	if msg == nil {
		return nil
	}
	return []tea.Msg{msg}
}

func find[T any](msgs []tea.Msg) (T, bool) {
	for _, msg := range msgs {
		if v, ok := msg.(T); ok {
			return v, true
		}
	}
	var zero T
	return zero, false
}

func findTick(msgs []tea.Msg, task string) (sched.TickMsg, bool) {
	for _, msg := range msgs {
		if tick, ok := msg.(sched.TickMsg); ok && tick.Handle.Task == task {
			return tick, true
		}
	}
	return sched.TickMsg{}, false
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

var square = epicycle.Stroke{
	{X: 0, Y: 0, T: 0}, {X: 100, Y: 0, T: 0.1}, {X: 100, Y: 100, T: 0.2}, {X: 0, Y: 100, T: 0.3},
}

// submitted drives a model through submission and the first poll.
func submitted(t *testing.T, svc *fakeService) (Model, []tea.Msg) {
	t.Helper()
	m := NewModel(testDeps(t, svc), ThemeMinimal)
	created, ok := find[createdMsg](collect(m.Submit(square, 50)))
	if !ok {
		t.Fatal("submit produced no createdMsg")
	}

	m, cmd := update(t, m, created)
	tick, ok := findTick(collect(cmd), "poll")
	if !ok {
		t.Fatal("expected a poll tick")
	}

	m, cmd = update(t, m, tick)
	polled, ok := find[polledMsg](collect(cmd))
	if !ok {
		t.Fatal("poll tick did not fetch")
	}
	m, cmd = update(t, m, polled)
	return m, collect(cmd)
}

func TestPlayer_SubmitPollAnimate(t *testing.T) {
	svc := &fakeService{id: 7, vectors: `[{"n":2,"real":5,"imaginary":0},{"n":1,"real":50,"imaginary":0}]`}
	m, msgs := submitted(t, svc)

	if !m.anim.Running() {
		t.Fatal("animation not started after vectors arrived")
	}
	if m.drawing.ID != 7 || !m.anim.Vectors().IsSorted() {
		t.Errorf("drawing %d vectors %v", m.drawing.ID, m.anim.Vectors())
	}
	frame, ok := findTick(msgs, "frame")
	if !ok {
		t.Fatalf("expected frame tick, got %v", msgs)
	}

	m, _ = update(t, m, frame)
	if len(m.frame.Trail) != 1 || len(m.frame.Circles) != 2 {
		t.Errorf("frame trail=%d circles=%d", len(m.frame.Trail), len(m.frame.Circles))
	}
	if m.View() == "" {
		t.Error("empty view")
	}
}

func TestPlayer_StaleTicksDropped(t *testing.T) {
	svc := &fakeService{id: 3, vectors: `[{"n":1,"real":10,"imaginary":0}]`}
	m, msgs := submitted(t, svc)
	old, ok := findTick(msgs, "frame")
	if !ok {
		t.Fatal("no frame tick")
	}

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if m.anim.Running() {
		t.Fatal("reset did not stop the animation")
	}
	m, cmd := update(t, m, old)
	if cmd != nil || len(m.frame.Trail) != 0 {
		t.Error("tick from a stopped loop was processed")
	}
}

func TestPlayer_PollWaitsForPreviousFetch(t *testing.T) {
	svc := &fakeService{id: 5, vectors: `[{"n":1,"real":10,"imaginary":0}]`}
	m := NewModel(testDeps(t, svc), ThemeMinimal)
	created, _ := find[createdMsg](collect(m.Submit(square, 50)))
	m, cmd := update(t, m, created)
	tick, ok := findTick(collect(cmd), "poll")
	if !ok {
		t.Fatal("expected a poll tick")
	}

	m, cmd = update(t, m, tick)
	msgs := collect(cmd)
	if _, ok := findTick(msgs, "poll"); ok {
		t.Fatal("next poll scheduled while a fetch is in flight")
	}
	polled, ok := find[polledMsg](msgs)
	if !ok || svc.gets != 1 {
		t.Fatalf("fetches = %d, polled = %v", svc.gets, ok)
	}

	m, cmd = update(t, m, polled)
	tick, ok = findTick(collect(cmd), "poll")
	if !ok {
		t.Fatal("no poll scheduled after the response was applied")
	}
	if len(m.anim.Vectors()) != 1 {
		t.Fatalf("vectors = %d, want 1", len(m.anim.Vectors()))
	}

	svc.vectors = `[{"n":1,"real":10,"imaginary":0},{"n":-1,"real":4,"imaginary":2}]`
	m, cmd = update(t, m, tick)
	polled, ok = find[polledMsg](collect(cmd))
	if !ok {
		t.Fatal("second poll tick did not fetch")
	}
	m, _ = update(t, m, polled)
	if svc.gets != 2 || len(m.anim.Vectors()) != 2 {
		t.Errorf("fetches = %d, vectors = %d; want 2 and 2", svc.gets, len(m.anim.Vectors()))
	}
}

func TestPlayer_NewSubmissionDropsOldResponses(t *testing.T) {
	svc := &fakeService{id: 1, vectors: `[]`}
	m := NewModel(testDeps(t, svc), ThemeMinimal)
	created, _ := find[createdMsg](collect(m.Submit(square, 50)))
	m, _ = update(t, m, created)
	sess := m.sync.Session()

	_ = m.Submit(square, 50)
	m, cmd := update(t, m, polledMsg{session: sess.ID, resp: &api.Response{ID: 1}, at: time.Now()})
	if cmd != nil {
		t.Error("stale poll response produced commands")
	}
	if m.sync.State() != syncer.Submitting {
		t.Errorf("state = %v", m.sync.State())
	}

	m, cmd = update(t, m, created)
	if cmd != nil {
		t.Error("stale creation response was applied")
	}
}

func TestPlayer_PollFailureSurfacesNotice(t *testing.T) {
	svc := &fakeService{id: 4, getErr: epicycle.IOFailure("get", 4, errors.New("connection refused"))}
	m, _ := submitted(t, svc)
	if !m.noticeErr || m.sync.State() != syncer.Terminated || m.poll.Active() {
		t.Errorf("notice=%q err=%v state=%v", m.notice, m.noticeErr, m.sync.State())
	}
}

func TestPlayer_InvalidSubmission(t *testing.T) {
	m := NewModel(testDeps(t, &fakeService{}), ThemeMinimal)
	if cmd := m.Submit(epicycle.Stroke{{}}, 50); cmd != nil {
		t.Error("invalid stroke was submitted")
	}
	if !m.noticeErr {
		t.Error("no error notice")
	}
}

func TestPlayer_Keys(t *testing.T) {
	m := NewModel(testDeps(t, &fakeService{}), ThemeMinimal)
	m.Play(&epicycle.Drawing{ID: 9, Vectors: epicycle.VectorSet{{N: 1, Real: 10}}})

	press := func(k string) {
		var key tea.KeyMsg
		switch k {
		case " ":
			key = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
		case "left":
			key = tea.KeyMsg{Type: tea.KeyLeft}
		default:
			key = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m, _ = update(t, m, key)
	}

	press("f")
	if !m.view.Following() {
		t.Error("f did not enable follow")
	}
	press("[")
	press("[")
	if m.view.Speed() != 4 {
		t.Errorf("speed = %d, want 4", m.view.Speed())
	}
	press("+")
	if m.view.Zoom() <= 1 {
		t.Errorf("zoom = %v", m.view.Zoom())
	}
	press(" ")
	if m.anim.Running() {
		t.Error("space did not pause")
	}
	press("left")
	press("r")
	s := m.view.State()
	if s.Follow || s.Zoom != 1 || s.Speed != 1 || s.PanX != 0 {
		t.Errorf("view after reset = %+v", s)
	}
	press("t")
	if m.theme.Name == ThemeMinimal.Name {
		t.Error("theme not cycled")
	}
}

func TestPlayer_MouseWheelZoomsAtCursor(t *testing.T) {
	m := NewModel(testDeps(t, &fakeService{}), ThemeMinimal)
	m, _ = update(t, m, tea.MouseMsg{X: 10, Y: 5, Button: tea.MouseButtonWheelUp, Action: tea.MouseActionPress})
	if m.view.Zoom() <= 1 {
		t.Fatalf("zoom = %v", m.view.Zoom())
	}
	if s := m.view.State(); s.PanX == 0 && s.PanY == 0 {
		t.Error("off-center zoom did not adjust pan")
	}

	m, _ = update(t, m, tea.MouseMsg{X: 10, Y: 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionPress})
	before := m.view.State()
	m, _ = update(t, m, tea.MouseMsg{X: 14, Y: 5, Button: tea.MouseButtonLeft, Action: tea.MouseActionMotion})
	if after := m.view.State(); after.PanX <= before.PanX {
		t.Errorf("drag right did not pan: %v -> %v", before.PanX, after.PanX)
	}
}

func TestPlayer_SnapshotSVG(t *testing.T) {
	m := NewModel(testDeps(t, &fakeService{}), ThemeMinimal)
	m.Play(&epicycle.Drawing{ID: 2, Vectors: epicycle.VectorSet{{N: 1, Real: 10}}})
	m.draw()
	saved, ok := find[savedMsg](collect(m.snapshotSVG()))
	if !ok || saved.err != nil || saved.path == "" {
		t.Errorf("snapshot = %+v", saved)
	}
}

func TestPlayer_RecordGIF(t *testing.T) {
	m := NewModel(testDeps(t, &fakeService{}), ThemeMinimal)
	m.Play(&epicycle.Drawing{ID: 2, Vectors: epicycle.VectorSet{{N: 1, Real: 10}}})
	m.toggleRecording()
	for i := 0; i < 3; i++ {
		m.frame = m.anim.Step(1)
		m.draw()
		m.captureFrame()
	}
	saved, ok := find[savedMsg](collect(m.toggleRecording()))
	if !ok || saved.err != nil {
		t.Errorf("gif = %+v", saved)
	}
}
