package viz

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/epicycle/internal/animator"
	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/sched"
	"github.com/san-kum/epicycle/internal/storage"
	"github.com/san-kum/epicycle/internal/syncer"
	"github.com/san-kum/epicycle/internal/viewport"
)

const (
	sidebarWidth = 38
	// canvas origin inside the terminal, matching canvasStyle padding
	canvasLeft = 2
	canvasTop  = 1

	zoomStep = 1.1
	panStep  = 8.0
)

// Deps are the collaborators shared by the gallery and the player.
type Deps struct {
	Service api.Service
	Store   *storage.Store
	Config  *config.Config
	Log     *slog.Logger
	// Source labels cached drawings, usually the service URL.
	Source string
}

// ListingChangedMsg asks the gallery to reload the recent drawings.
type ListingChangedMsg struct{}

// BackMsg returns from the player to the gallery.
type BackMsg struct{}

type createdMsg struct {
	gen int
	id  int
	err error
}

type polledMsg struct {
	session string
	resp    *api.Response
	err     error
	at      time.Time
}

type savedMsg struct {
	path string
	err  error
}

// Model plays one drawing: it owns the synchronizer session feeding it,
// the animator and the viewport. Every field is touched only from Update.
type Model struct {
	deps Deps

	sync *syncer.Synchronizer
	anim *animator.Animator
	view *viewport.Controller
	poll *sched.Loop

	canvas        *Canvas
	width, height int
	theme         Theme
	// scale maps stroke units to canvas dots at zoom 1, chosen so fitPts
	// fill most of the canvas.
	scale  float64
	fitPts []animator.Vec

	drawing   *epicycle.Drawing
	frame     animator.Frame
	submitGen int
	ticks     int

	notice    string
	noticeErr bool

	showHelp    bool
	showGrid    bool
	showCircles bool
	standalone  bool

	dragging     bool
	lastX, lastY int

	recording bool
	frames    []*image.Paletted

	initCmd tea.Cmd
}

// NewModel creates a player sized for an 80x24 terminal until the first
// WindowSizeMsg arrives.
func NewModel(deps Deps, theme Theme) Model {
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	cfg := deps.Config
	opts := syncer.Options{
		PollInterval:     cfg.PollInterval,
		StabilityTimeout: cfg.StabilityTimeout,
		PendingTimeout:   cfg.PendingTimeout,
	}
	m := Model{
		deps:        deps,
		sync:        syncer.New(opts, deps.Log),
		anim:        animator.New(),
		view:        viewport.New(),
		poll:        sched.NewLoop("poll"),
		theme:       theme,
		scale:       1,
		showCircles: true,
	}
	m.resize(80, 24)
	return m
}

// Standalone makes q quit the program instead of returning to a gallery.
func (m Model) Standalone() Model {
	m.standalone = true
	return m
}

func (m Model) Init() tea.Cmd { return m.initCmd }

// Submit starts a new session for st. Any running session is cancelled
// and its late responses are ignored.
func (m *Model) Submit(st epicycle.Stroke, maxVectors int) tea.Cmd {
	req, err := m.sync.Submit(st, maxVectors)
	if err != nil {
		m.fail(err)
		return nil
	}
	m.poll.Stop()
	m.anim.Reset()
	m.anim.Load(nil)
	m.drawing = &epicycle.Drawing{Stroke: req.Points}
	m.fit(m.drawing)
	m.setNotice(fmt.Sprintf("submitting %d points, %d vectors", len(req.Points), req.MaxVectors))
	m.draw()

	m.submitGen++
	gen, svc := m.submitGen, m.deps.Service
	return func() tea.Msg {
		id, err := svc.Create(context.Background(), req.Points, req.MaxVectors)
		return createdMsg{gen: gen, id: id, err: err}
	}
}

// Follow polls an existing drawing without submitting.
func (m *Model) Follow(id int) tea.Cmd {
	m.anim.Reset()
	m.anim.Load(nil)
	m.drawing = &epicycle.Drawing{ID: id}
	m.fitPts = nil
	m.setNotice(fmt.Sprintf("loading drawing %d", id))
	m.submitGen++
	return m.accepted(id)
}

// Play animates a drawing that is already computed, e.g. from the cache.
func (m *Model) Play(d *epicycle.Drawing) tea.Cmd {
	m.sync.Cancel()
	m.poll.Stop()
	m.drawing = d
	m.anim.Load(d.Vectors)
	m.fit(d)
	return m.startAnimation()
}

func (m *Model) accepted(id int) tea.Cmd {
	m.sync.Accepted(id, time.Now())
	h := m.poll.Start()
	return sched.Tick(h, m.sync.Options().PollInterval)
}

func (m *Model) startAnimation() tea.Cmd {
	h, err := m.anim.Start()
	if err != nil {
		m.fail(err)
		return nil
	}
	m.frame = m.anim.Peek()
	return sched.Tick(h, m.deps.Config.FrameInterval())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width-sidebarWidth-canvasLeft*2, msg.Height-canvasTop*2-1)
		m.draw()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		m.handleMouse(msg)
		return m, nil

	case sched.TickMsg:
		return m.handleTick(msg)

	case createdMsg:
		if msg.gen != m.submitGen {
			return m, nil
		}
		if msg.err != nil {
			return m, m.apply(m.sync.SubmitFailed(msg.err))
		}
		if m.drawing != nil {
			m.drawing.ID = msg.id
		}
		m.setNotice(fmt.Sprintf("drawing %d created, waiting for vectors", msg.id))
		return m, m.accepted(msg.id)

	case polledMsg:
		if !m.sync.Current(msg.session) {
			return m, nil
		}
		var events []syncer.Event
		if msg.err != nil {
			events = m.sync.Fail(msg.session, msg.err)
		} else {
			events = m.sync.Observe(msg.session, msg.resp, msg.at)
		}
		cmd := m.apply(events)
		return m, tea.Batch(cmd, m.nextPoll(msg.session))

	case savedMsg:
		if msg.err != nil {
			m.fail(msg.err)
		} else {
			m.setNotice("saved " + msg.path)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) handleTick(msg sched.TickMsg) (tea.Model, tea.Cmd) {
	switch msg.Handle.Task {
	case "frame":
		if !m.anim.Current(msg.Handle) {
			return m, nil
		}
		m.ticks++
		m.frame = m.anim.Step(m.view.Speed())
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, sched.Tick(msg.Handle, m.deps.Config.FrameInterval())

	case "poll":
		if !m.poll.Current(msg.Handle) {
			return m, nil
		}
		sess := m.sync.Session()
		if sess == nil || !sess.Active {
			m.poll.Stop()
			return m, nil
		}
		svc, id, sid := m.deps.Service, sess.DrawingID, sess.ID
		fetch := func() tea.Msg {
			resp, err := svc.Get(context.Background(), id)
			return polledMsg{session: sid, resp: resp, err: err, at: time.Now()}
		}
		m.ticks++
		return m, fetch
	}
	return m, nil
}

// nextPoll schedules the poll after a fetch has been applied. At most one
// fetch per session is in flight, so a slow request delays the next tick
// instead of overlapping it.
func (m *Model) nextPoll(session string) tea.Cmd {
	if !m.poll.Active() || !m.sync.Current(session) {
		return nil
	}
	return sched.Tick(m.poll.Handle(), m.sync.Options().PollInterval)
}

// apply turns synchronizer events into state changes and commands.
func (m *Model) apply(events []syncer.Event) tea.Cmd {
	var cmds []tea.Cmd
	for _, ev := range events {
		switch ev.Kind {
		case syncer.EventVectors:
			m.drawing = m.sync.Drawing()
			m.anim.Load(ev.Vectors)
			if m.fitPts == nil {
				m.fit(m.drawing)
			}
			m.setNotice(fmt.Sprintf("drawing %d: %d vectors", ev.DrawingID, len(ev.Vectors)))
			cmds = append(cmds, m.startAnimation())

		case syncer.EventCompleted:
			m.poll.Stop()
			m.setNotice(fmt.Sprintf("drawing %d complete", ev.DrawingID))
			cmds = append(cmds, m.cache(m.sync.Drawing()))

		case syncer.EventIncomplete, syncer.EventFailed:
			m.poll.Stop()
			m.fail(ev.Err)

		case syncer.EventRefreshListing:
			cmds = append(cmds, func() tea.Msg { return ListingChangedMsg{} })
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) cache(d *epicycle.Drawing) tea.Cmd {
	store := m.deps.Store
	if store == nil || !d.Computed() {
		return nil
	}
	snapshot := &epicycle.Drawing{ID: d.ID, Stroke: d.Stroke.Clone(), Vectors: d.Vectors.Clone()}
	source, log := m.deps.Source, m.deps.Log
	return func() tea.Msg {
		if _, err := store.Save(snapshot, source); err != nil {
			log.Warn("cache drawing", "drawing", snapshot.ID, "err", err)
		}
		return nil
	}
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp && msg.String() != "ctrl+c" {
		m.showHelp = false
		return m, nil
	}
	var cmd tea.Cmd
	w, h := m.canvas.Dots()
	switch msg.String() {
	case "ctrl+c":
		m.shutdown()
		return m, tea.Quit
	case "q", "esc":
		m.shutdown()
		if m.standalone {
			return m, tea.Quit
		}
		return m, func() tea.Msg { return BackMsg{} }
	case " ":
		fh, err := m.anim.Toggle()
		if err != nil {
			m.fail(err)
		} else if !fh.IsZero() {
			cmd = sched.Tick(fh, m.deps.Config.FrameInterval())
		}
	case "r":
		m.anim.Reset()
		m.view.Reset()
		m.view.ResetSpeed()
		m.view.SetFollow(false)
		m.frame = m.anim.Peek()
	case "+", "=":
		m.view.ZoomAtPoint(float64(w)/2, float64(h)/2, zoomStep, float64(w), float64(h))
	case "-", "_":
		m.view.ZoomAtPoint(float64(w)/2, float64(h)/2, 1/zoomStep, float64(w), float64(h))
	case "left", "h":
		m.view.Pan(panStep, 0)
	case "right", "l":
		m.view.Pan(-panStep, 0)
	case "up", "k":
		m.view.Pan(0, panStep)
	case "down", "j":
		m.view.Pan(0, -panStep)
	case "0":
		m.view.Reset()
	case "f":
		m.view.ToggleFollow()
	case "[":
		m.view.SetSpeed(2)
	case "]":
		m.view.SetSpeed(0.5)
	case "c":
		m.showCircles = !m.showCircles
	case "x":
		m.showGrid = !m.showGrid
	case "t":
		m.theme = m.theme.Next()
		m.setNotice("theme " + m.theme.Name)
	case "?":
		m.showHelp = true
	case "g":
		cmd = m.toggleRecording()
	case "s":
		cmd = m.snapshotSVG()
	}
	m.draw()
	return m, cmd
}

func (m *Model) handleMouse(msg tea.MouseMsg) {
	sx := float64((msg.X-canvasLeft)*2 + 1)
	sy := float64((msg.Y-canvasTop)*4 + 2)
	w, h := m.canvas.Dots()

	switch {
	case msg.Button == tea.MouseButtonWheelUp:
		m.view.ZoomAtPoint(sx, sy, zoomStep, float64(w), float64(h))
	case msg.Button == tea.MouseButtonWheelDown:
		m.view.ZoomAtPoint(sx, sy, 1/zoomStep, float64(w), float64(h))
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		m.dragging, m.lastX, m.lastY = true, msg.X, msg.Y
	case msg.Action == tea.MouseActionMotion && m.dragging:
		m.view.Pan(float64((msg.X-m.lastX)*2), float64((msg.Y-m.lastY)*4))
		m.lastX, m.lastY = msg.X, msg.Y
	case msg.Action == tea.MouseActionRelease:
		m.dragging = false
	default:
		return
	}
	m.draw()
}

func (m *Model) shutdown() {
	m.anim.Stop()
	m.poll.Stop()
	m.sync.Cancel()
	if m.recording {
		if _, err := m.saveGIF(); err != nil {
			m.deps.Log.Warn("save gif", "err", err)
		}
		m.recording = false
		m.frames = nil
	}
}

func (m *Model) resize(w, h int) {
	if w < 10 {
		w = 10
	}
	if h < 5 {
		h = 5
	}
	m.width, m.height = w, h
	m.canvas = NewCanvas(w, h)
	m.rescale()
}

func (m *Model) setNotice(s string) {
	m.notice, m.noticeErr = s, false
}

// fail surfaces err once on the status line and in the log.
func (m *Model) fail(err error) {
	if err == nil {
		return
	}
	m.notice, m.noticeErr = userMessage(err), true
	m.deps.Log.Error("player", "err", err)
}

func userMessage(err error) string {
	switch {
	case errors.Is(err, epicycle.ErrInvalidInput):
		return "invalid input: " + err.Error()
	case errors.Is(err, epicycle.ErrComputationIncomplete):
		return "no vectors arrived, try again later"
	case errors.Is(err, epicycle.ErrNoDataAvailable):
		return "nothing to animate yet"
	case errors.Is(err, epicycle.ErrIOFailure):
		return "service unreachable: " + err.Error()
	}
	return err.Error()
}
