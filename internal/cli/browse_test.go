package cli

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/bundlescope/pkg/render/nodelink"
)

func browseGraph() nodelink.Graph {
	return nodelink.Graph{
		Uses: map[string][]string{
			"com.acme.impl": {"org.slf4j", "com.acme.api"},
			"com.acme.api":  {},
		},
		Nodes: map[string]nodelink.Node{
			"com.acme.api":  {Role: nodelink.RoleExported, Version: "1.2"},
			"com.acme.impl": {Role: nodelink.RolePrivate},
			"com.acme.old":  {Role: nodelink.RoleUnreachable},
		},
	}
}

func TestPackageRows(t *testing.T) {
	rows := packageRows(browseGraph())

	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	want := []string{"com.acme.api", "com.acme.impl", "com.acme.old", "org.slf4j"}
	if !reflect.DeepEqual(names, want) {
		t.Fatalf("rows = %v, want %v", names, want)
	}

	impl := rows[1]
	if !reflect.DeepEqual(impl.Uses, []string{"com.acme.api", "org.slf4j"}) {
		t.Errorf("impl uses = %v", impl.Uses)
	}
	if api := rows[0]; !reflect.DeepEqual(api.UsedBy, []string{"com.acme.impl"}) || api.Version != "1.2" {
		t.Errorf("api row = %+v", api)
	}
	if ext := rows[3]; ext.Role != nodelink.RoleExternal {
		t.Errorf("org.slf4j role = %v, want external", ext.Role)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m PackageListModel, keys ...string) (PackageListModel, tea.Cmd) {
	var cmd tea.Cmd
	for _, k := range keys {
		var next tea.Model
		next, cmd = m.Update(key(k))
		m = next.(PackageListModel)
	}
	return m, cmd
}

func TestPackageListNavigation(t *testing.T) {
	m := NewPackageListModel(packageRows(browseGraph()))
	m.Height = 2

	tests := []struct {
		name       string
		keys       []string
		wantCursor int
		wantOffset int
		wantDetail bool
	}{
		{"up at top stays", []string{"up"}, 0, 0, false},
		{"down scrolls", []string{"down", "j", "down"}, 3, 2, false},
		{"down stops at end", []string{"down", "down", "down", "down", "down"}, 3, 2, false},
		{"back up", []string{"down", "down", "k", "k"}, 0, 0, false},
		{"enter opens detail", []string{"down", "enter"}, 1, 0, true},
		{"detail freezes cursor", []string{"enter", "down"}, 0, 0, true},
		{"esc closes detail", []string{"enter", "esc"}, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _ := press(m, tt.keys...)
			if got.Cursor != tt.wantCursor || got.Offset != tt.wantOffset || got.Detail != tt.wantDetail {
				t.Errorf("cursor=%d offset=%d detail=%v, want %d %d %v",
					got.Cursor, got.Offset, got.Detail, tt.wantCursor, tt.wantOffset, tt.wantDetail)
			}
		})
	}
}

func TestPackageListQuit(t *testing.T) {
	m := NewPackageListModel(packageRows(browseGraph()))
	for _, k := range []string{"q", "esc"} {
		if _, cmd := press(m, k); cmd == nil {
			t.Errorf("%s: expected a quit command", k)
		} else if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s: command did not quit", k)
		}
	}
	if _, cmd := press(m, "enter", "esc"); cmd != nil {
		t.Error("esc in detail view should return to the list")
	}
}

func TestPackageListWindowSize(t *testing.T) {
	m := NewPackageListModel(nil)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 40})
	if got := next.(PackageListModel).Height; got != 34 {
		t.Errorf("Height = %d, want 34", got)
	}
	next, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 3})
	if got := next.(PackageListModel).Height; got != 5 {
		t.Errorf("Height = %d, want 5", got)
	}
	if got, _ := press(m, "enter"); got.Detail {
		t.Error("enter on an empty list opened a detail view")
	}
}

func TestPackageListView(t *testing.T) {
	m := NewPackageListModel(packageRows(browseGraph()))

	view := m.View()
	for _, want := range []string{"Packages", "com.acme.api", "exported", "1.2", "[1/4]"} {
		if !strings.Contains(view, want) {
			t.Errorf("list view missing %q", want)
		}
	}

	m, _ = press(m, "down", "enter")
	detail := m.View()
	for _, want := range []string{"com.acme.impl", "Uses", "org.slf4j", "Used by", "none"} {
		if !strings.Contains(detail, want) {
			t.Errorf("detail view missing %q:\n%s", want, detail)
		}
	}
}
