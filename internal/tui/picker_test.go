// internal/tui/picker_test.go
package tui

import (
	"reflect"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
)

func press(t *testing.T, m *model, msgs ...tea.Msg) (*model, tea.Cmd) {
	t.Helper()
	var cmd tea.Cmd
	for _, msg := range msgs {
		var next tea.Model
		next, cmd = m.Update(msg)
		m = next.(*model)
	}
	return m, cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var testCandidates = []string{"README.md", "cmd/main.go", "internal/a.go", "internal/b_test.go", "web/app.js"}

// TestUpdate drives the picker through selection, filtering and submission.
func TestUpdate(t *testing.T) {
	m := newModel(testCandidates, map[string]bool{"cmd/main.go": true})

	if m.state != viewFiles {
		t.Errorf("Expected initial state to be viewFiles, got %v", m.state)
	}
	if got := m.Selected(); !reflect.DeepEqual(got, []string{"cmd/main.go"}) {
		t.Fatalf("preselection not applied: %v", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyDown}, tea.KeyMsg{Type: tea.KeySpace})
	if got := m.Selected(); !reflect.DeepEqual(got, []string{"README.md"}) {
		t.Fatalf("after toggles: %v", got)
	}

	m, _ = press(t, m, runes("int"))
	if len(m.visible) != 2 {
		t.Fatalf("expected 2 fuzzy matches for 'int', got %d", len(m.visible))
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if got := m.Selected(); !reflect.DeepEqual(got, []string{"README.md", "internal/a.go", "internal/b_test.go"}) {
		t.Fatalf("ctrl+a should select every visible file: %v", got)
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlA})
	if got := m.Selected(); !reflect.DeepEqual(got, []string{"README.md"}) {
		t.Fatalf("second ctrl+a should clear the visible files: %v", got)
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace}, tea.KeyMsg{Type: tea.KeyBackspace})
	if len(m.visible) != len(testCandidates) {
		t.Fatalf("clearing the query should show every file, got %d", len(m.visible))
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})
	if len(m.Selected()) != 0 {
		t.Fatalf("ctrl+x should clear the selection")
	}

	m, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil || !m.submitted {
		t.Fatalf("enter should submit and quit")
	}
}

func TestExtensionMode(t *testing.T) {
	m := newModel(testCandidates, nil)

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.state != viewExtensions {
		t.Fatalf("tab should switch to extension mode")
	}
	if len(m.exts) != 3 {
		t.Fatalf("expected .go .js .md, got %+v", m.exts)
	}

	m, _ = press(t, m, runes("go"), tea.KeyMsg{Type: tea.KeySpace})
	if got := m.Selected(); !reflect.DeepEqual(got, []string{"cmd/main.go", "internal/a.go", "internal/b_test.go"}) {
		t.Fatalf("toggling .go should check every Go file: %v", got)
	}
	if !m.extensionChecked(".go") {
		t.Fatalf(".go should read as checked")
	}
	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeySpace})
	if len(m.Selected()) != 0 {
		t.Fatalf("toggling .go again should uncheck: %v", m.Selected())
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.state != viewFiles || m.quitting {
		t.Fatalf("esc in extension mode should return to the file list")
	}

	_, cmd := press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if cmd == nil {
		t.Fatalf("esc in the file list should quit")
	}
}

// TestView checks the rendered output for the main states.
func TestView(t *testing.T) {
	m := newModel(testCandidates, map[string]bool{"web/app.js": true})

	if view := m.View(); view != "Initializing..." {
		t.Errorf("Expected view to be 'Initializing...', got '%s'", view)
	}

	m, _ = press(t, m, tea.WindowSizeMsg{Width: 80, Height: 20})
	if m.width != 80 || m.height != 20 {
		t.Errorf("Expected width 80 and height 20, got %d and %d", m.width, m.height)
	}
	view := m.View()
	for _, want := range []string{"Select files", "[x]", "web/app.js", "1 of 5 selected"} {
		if !strings.Contains(view, want) {
			t.Errorf("Expected view to contain %q, got:\n%s", want, view)
		}
	}

	m, _ = press(t, m, runes("zzz"))
	if !strings.Contains(m.View(), "no matching files") {
		t.Errorf("expected the empty-match notice")
	}

	m, _ = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	view = m.View()
	if !strings.Contains(view, "Select by extension") || !strings.Contains(view, ".js") || !strings.Contains(view, "(3)") {
		t.Errorf("unexpected extension view:\n%s", view)
	}
}

func TestWindowKeepsCursorVisible(t *testing.T) {
	offset := 0
	start, end := window(7, &offset, 3, 10)
	if start != 5 || end != 8 {
		t.Fatalf("window = %d..%d, want 5..8", start, end)
	}
	start, end = window(2, &offset, 3, 10)
	if start != 2 || end != 5 {
		t.Fatalf("window = %d..%d, want 2..5", start, end)
	}
}
