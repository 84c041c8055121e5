package viz

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/epicycle/internal/api"
	"github.com/san-kum/epicycle/internal/epicycle"
	"github.com/san-kum/epicycle/internal/stroke"
)

func TestApp_ListsSamplesRecentAndCached(t *testing.T) {
	svc := &fakeService{recent: []api.Summary{{ID: 11, SvgPath: "M0 0"}, {ID: 12}}}
	deps := testDeps(t, svc)
	if _, err := deps.Store.Save(&epicycle.Drawing{ID: 5, Vectors: epicycle.VectorSet{{N: 1, Real: 3}}}, "test"); err != nil {
		t.Fatal(err)
	}

	app := NewApp(deps, ThemeMinimal)
	if !app.loading {
		t.Error("app with a service should start loading")
	}
	for _, msg := range collect(app.Init()) {
		next, _ := app.Update(msg)
		app = next.(App)
	}

	counts := map[itemKind]int{}
	for _, it := range app.items {
		counts[it.kind]++
	}
	if counts[itemSample] != len(stroke.Shapes()) || counts[itemRemote] != 2 || counts[itemCached] != 1 {
		t.Errorf("items by kind = %v", counts)
	}
	if app.loading {
		t.Error("still loading after the listing arrived")
	}
	if app.View() == "" {
		t.Error("empty menu")
	}
}

func TestApp_OpenSampleSubmits(t *testing.T) {
	svc := &fakeService{id: 21}
	app := NewApp(testDeps(t, svc), ThemeMinimal)

	next, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = next.(App)
	if app.state != statePlayer {
		t.Fatal("enter did not open the player")
	}
	created, ok := find[createdMsg](collect(cmd))
	if !ok || created.id != 21 {
		t.Fatalf("created = %+v", created)
	}

	next, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	app = next.(App)
	next, _ = app.Update(BackMsg{})
	app = next.(App)
	if app.state != stateMenu {
		t.Error("back did not return to the menu")
	}
}

func TestApp_PresetCycles(t *testing.T) {
	app := NewApp(testDeps(t, &fakeService{}), ThemeMinimal)
	if app.preset != "standard" {
		t.Fatalf("preset = %s", app.preset)
	}
	next, _ := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	if next.(App).preset == "standard" {
		t.Error("p did not change the preset")
	}
}
