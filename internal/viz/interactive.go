package viz

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/epicycle/internal/analysis"
	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/config"
	"github.com/san-kum/epicycle/internal/storage"
	"github.com/san-kum/epicycle/internal/stroke"
)

var (
	cyan    = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white   = lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true)
	dim     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer  = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	magenta = lipgloss.NewStyle().Foreground(lipgloss.Color("213"))
	red     = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	keyName = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

var shapeInfo = map[string]string{
	"circle": "single pure frequency", "ellipse": "two opposed frequencies", "square": "slowly converging corners",
	"spiral": "open curve, closing jump", "golden": "golden-ratio spiral", "circle_sin": "wobbling circle",
	"superformula": "five-petal flower",
}

const (
	stateMenu = iota
	statePlayer
)

type itemKind int

const (
	itemSample itemKind = iota
	itemRemote
	itemCached
)

type item struct {
	kind  itemKind
	name  string
	id    int
	label string
}

type recentMsg struct {
	items []api.Summary
	err   error
}

type cachedMsg struct {
	items []storage.Metadata
	err   error
}

// App is the gallery of sample shapes, recent and cached drawings, with
// the player on top.
type App struct {
	deps          Deps
	state, cursor int
	items         []item
	recent        []api.Summary
	cached        []storage.Metadata
	recentErr     error
	loading       bool
	preset        string
	theme         Theme
	player        Model
	width, height int
}

func NewApp(deps Deps, theme Theme) App {
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}
	a := App{
		deps:    deps,
		state:   stateMenu,
		preset:  presetFor(deps.Config.MaxVectors),
		theme:   theme,
		player:  NewModel(deps, theme),
		width:   80,
		height:  24,
		loading: deps.Service != nil,
	}
	a.rebuild()
	return a
}

func presetFor(maxVectors int) string {
	for _, name := range config.ListPresets() {
		if n, _ := config.GetPreset(name); n == maxVectors {
			return name
		}
	}
	return "standard"
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.loadRecent(), a.loadCached())
}

func (a *App) loadRecent() tea.Cmd {
	if a.deps.Service == nil {
		return nil
	}
	a.loading = true
	svc := a.deps.Service
	return func() tea.Msg {
		items, err := svc.ListRecent(context.Background())
		return recentMsg{items: items, err: err}
	}
}

func (a *App) loadCached() tea.Cmd {
	store := a.deps.Store
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		items, err := store.List()
		return cachedMsg{items: items, err: err}
	}
}

func (a *App) rebuild() {
	a.items = a.items[:0]
	for _, name := range stroke.Shapes() {
		a.items = append(a.items, item{kind: itemSample, name: name, label: shapeInfo[name]})
	}
	for _, r := range a.recent {
		label := "remote"
		if r.SvgPath != "" {
			label = "remote, thumbnail"
		}
		a.items = append(a.items, item{kind: itemRemote, id: r.ID, name: fmt.Sprintf("drawing %d", r.ID), label: label})
	}
	for _, c := range a.cached {
		a.items = append(a.items, item{
			kind:  itemCached,
			id:    c.ID,
			name:  fmt.Sprintf("drawing %d", c.ID),
			label: fmt.Sprintf("cached, %d vectors", c.Vectors),
		})
	}
	if a.cursor >= len(a.items) {
		a.cursor = max(len(a.items)-1, 0)
	}
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		p, cmd := a.player.Update(msg)
		a.player = p.(Model)
		return a, cmd
	case recentMsg:
		a.loading = false
		a.recent, a.recentErr = msg.items, msg.err
		if msg.err != nil {
			a.deps.Log.Warn("list recent drawings", "err", msg.err)
		}
		a.rebuild()
		return a, nil
	case cachedMsg:
		if msg.err == nil {
			a.cached = msg.items
			a.rebuild()
		}
		return a, nil
	case ListingChangedMsg:
		return a, tea.Batch(a.loadRecent(), a.loadCached())
	case BackMsg:
		a.state = stateMenu
		a.theme = a.player.theme
		return a, nil
	case tea.KeyMsg:
		if a.state == stateMenu {
			return a.menuKey(msg)
		}
	}
	if a.state == statePlayer {
		p, cmd := a.player.Update(msg)
		a.player = p.(Model)
		return a, cmd
	}
	return a, nil
}

func (a App) menuKey(msg tea.KeyMsg) (App, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.items)-1 {
			a.cursor++
		}
	case "p":
		names := config.ListPresets()
		for i, name := range names {
			if name == a.preset {
				a.preset = names[(i+1)%len(names)]
				break
			}
		}
	case "t":
		a.theme = a.theme.Next()
	case "r":
		return a, tea.Batch(a.loadRecent(), a.loadCached())
	case "enter", " ":
		if len(a.items) == 0 {
			return a, nil
		}
		return a.open(a.items[a.cursor])
	}
	return a, nil
}

func (a App) open(it item) (App, tea.Cmd) {
	a.player.theme = a.theme
	var cmd tea.Cmd
	switch it.kind {
	case itemSample:
		st, err := stroke.Sample(it.name, stroke.DefaultSamplePoints)
		if err != nil {
			a.player.fail(err)
			break
		}
		n, _ := config.GetPreset(a.preset)
		cmd = a.player.Submit(st, n)
	case itemRemote:
		cmd = a.player.Follow(it.id)
	case itemCached:
		d, _, err := a.deps.Store.Load(it.id)
		if err != nil {
			a.player.fail(err)
			break
		}
		cmd = a.player.Play(d)
	}
	a.state = statePlayer
	return a, cmd
}

func (a App) View() string {
	if a.state == statePlayer {
		return a.player.View()
	}
	return a.viewMenu()
}

func (a App) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + GradientText("EPICYCLE", a.theme.Primary, a.theme.Secondary) + "\n    " + dim.Render("drawings as rotating vectors") + "\n    " + Separator(28) + "\n\n")

	section := itemKind(-1)
	for i, it := range a.items {
		if it.kind != section {
			section = it.kind
			b.WriteString("    " + cyan.Render(sectionTitle(section)) + "\n")
		}
		label := it.label
		if len(label) > 28 {
			label = label[:25] + "..."
		}
		if i == a.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", NeonGlow.Render("▸"), white.Render(fmt.Sprintf("%-14s", it.name)), magenta.Render(label)))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", dim.Render(fmt.Sprintf("%-14s", it.name)), dimmer.Render(label)))
		}
	}

	switch {
	case a.loading:
		b.WriteString("\n    " + dim.Render("loading recent drawings..."))
	case a.recentErr != nil:
		b.WriteString("\n    " + red.Render("service unavailable: "+a.recentErr.Error()))
	}

	n, _ := config.GetPreset(a.preset)
	b.WriteString("\n\n    " + dim.Render("quality ") + white.Render(a.preset) + dim.Render(fmt.Sprintf(" (%d vectors)", n)) + dim.Render("   theme ") + white.Render(a.theme.Name) + "\n")
	b.WriteString("\n    " + keyName.Render("j/k") + dimmer.Render(" navigate  ") + keyName.Render("enter") + dimmer.Render(" open  ") + keyName.Render("p") + dimmer.Render(" quality  ") + keyName.Render("r") + dimmer.Render(" refresh  ") + keyName.Render("q") + dimmer.Render(" quit") + "\n")

	menu := b.String()
	if preview := a.preview(); preview != "" {
		return lipgloss.JoinHorizontal(lipgloss.Top, menu, lipgloss.NewStyle().MarginTop(6).MarginLeft(4).Foreground(a.theme.Secondary).Render(preview))
	}
	return menu
}

func (a App) preview() string {
	if a.cursor >= len(a.items) || a.items[a.cursor].kind != itemSample {
		return ""
	}
	st, err := stroke.Sample(a.items[a.cursor].name, 400)
	if err != nil {
		return ""
	}
	return analysis.TraceToASCII(analysis.StrokePoints(st), 32, 14)
}

func sectionTitle(k itemKind) string {
	switch k {
	case itemRemote:
		return "RECENT"
	case itemCached:
		return "CACHED"
	}
	return "SAMPLES"
}

// RunInteractive runs the gallery until the user quits.
func RunInteractive(deps Deps, theme Theme) error {
	_, err := tea.NewProgram(NewApp(deps, theme), tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}

// RunPlayer runs a single player. start issues the first command, e.g. a
// submission.
func RunPlayer(deps Deps, theme Theme, start func(*Model) tea.Cmd) error {
	m := NewModel(deps, theme).Standalone()
	m.initCmd = start(&m)
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
