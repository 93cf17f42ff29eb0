// internal/tui/picker.go
// Package tui provides the interactive file picker.
package tui

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/sahilm/fuzzy"

	"github.com/mwiater/contextgather/internal/util"
)

// ErrNoTTY is returned when the picker cannot draw because stderr is not a
// terminal.
var ErrNoTTY = errors.New("interactive mode requires an attached terminal (stderr is not a TTY)")

// viewState is the list currently shown.
type viewState int

const (
	// viewFiles lists candidate files.
	viewFiles viewState = iota
	// viewExtensions lists the extensions present among the candidates.
	viewExtensions
)

type fileItem struct {
	path    string
	ext     string
	checked bool
}

type extItem struct {
	ext   string
	count int
}

type keyMap struct {
	Up        key.Binding
	Down      key.Binding
	Toggle    key.Binding
	ToggleAll key.Binding
	Clear     key.Binding
	Mode      key.Binding
	Submit    key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Toggle, k.ToggleAll, k.Clear, k.Mode, k.Submit, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Up, k.Down, k.Toggle}, {k.ToggleAll, k.Clear, k.Mode}, {k.Submit, k.Quit}}
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:        key.NewBinding(key.WithKeys("up"), key.WithHelp("↑", "up")),
		Down:      key.NewBinding(key.WithKeys("down"), key.WithHelp("↓", "down")),
		Toggle:    key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle")),
		ToggleAll: key.NewBinding(key.WithKeys("ctrl+a"), key.WithHelp("ctrl+a", "toggle visible")),
		Clear:     key.NewBinding(key.WithKeys("ctrl+x"), key.WithHelp("ctrl+x", "clear all")),
		Mode:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "extensions")),
		Submit:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "done")),
		Quit:      key.NewBinding(key.WithKeys("esc", "ctrl+c"), key.WithHelp("esc", "quit")),
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	checkStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	cursorStyle   = lipgloss.NewStyle().Background(lipgloss.Color("33")).Foreground(lipgloss.Color("230"))
	countStyle    = lipgloss.NewStyle().Faint(true)
	emptyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244")).Italic(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
)

// model is the picker's bubbletea model.
type model struct {
	files    []fileItem
	exts     []extItem
	visible  []int
	extShown []int

	state     viewState
	cursor    int
	offset    int
	extCursor int
	extOffset int

	search    textinput.Model
	extSearch textinput.Model
	keys      keyMap
	help      help.Model

	width, height int
	submitted     bool
	quitting      bool
}

func newModel(candidates []string, preselected map[string]bool) *model {
	files := make([]fileItem, len(candidates))
	counts := map[string]int{}
	for i, p := range candidates {
		ext := filepath.Ext(p)
		files[i] = fileItem{path: p, ext: ext, checked: preselected[p]}
		if ext != "" {
			counts[ext]++
		}
	}
	exts := make([]extItem, 0, len(counts))
	for ext, n := range counts {
		exts = append(exts, extItem{ext: ext, count: n})
	}
	sort.Slice(exts, func(i, j int) bool { return exts[i].ext < exts[j].ext })

	search := textinput.New()
	search.Prompt = "Search: "
	search.Placeholder = "type to filter files"
	search.Focus()

	extSearch := textinput.New()
	extSearch.Prompt = "Extension: "
	extSearch.Placeholder = "type to filter extensions"

	m := &model{
		files:     files,
		exts:      exts,
		search:    search,
		extSearch: extSearch,
		keys:      defaultKeyMap(),
		help:      help.New(),
	}
	m.refilter()
	m.refilterExts()
	return m
}

// Init satisfies tea.Model.
func (m *model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles key presses and resizes.
func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil
	case tea.KeyMsg:
		if m.state == viewExtensions {
			return m.updateExtensions(msg)
		}
		return m.updateFiles(msg)
	}
	return m, nil
}

func (m *model) updateFiles(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Submit):
		m.submitted = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Mode):
		m.state = viewExtensions
		m.search.Blur()
		m.extSearch.SetValue("")
		m.refilterExts()
		return m, m.extSearch.Focus()
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.visible)-1 {
			m.cursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if m.cursor < len(m.visible) {
			f := &m.files[m.visible[m.cursor]]
			f.checked = !f.checked
		}
		return m, nil
	case key.Matches(msg, m.keys.ToggleAll):
		all := len(m.visible) > 0
		for _, i := range m.visible {
			all = all && m.files[i].checked
		}
		for _, i := range m.visible {
			m.files[i].checked = !all
		}
		return m, nil
	case key.Matches(msg, m.keys.Clear):
		for i := range m.files {
			m.files[i].checked = false
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.search.Value()
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.refilter()
	}
	return m, cmd
}

func (m *model) updateExtensions(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Type == tea.KeyCtrlC:
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Mode), key.Matches(msg, m.keys.Submit), msg.Type == tea.KeyEsc:
		m.state = viewFiles
		m.extSearch.Blur()
		return m, m.search.Focus()
	case key.Matches(msg, m.keys.Up):
		if m.extCursor > 0 {
			m.extCursor--
		}
		return m, nil
	case key.Matches(msg, m.keys.Down):
		if m.extCursor < len(m.extShown)-1 {
			m.extCursor++
		}
		return m, nil
	case key.Matches(msg, m.keys.Toggle):
		if m.extCursor < len(m.extShown) {
			ext := m.exts[m.extShown[m.extCursor]].ext
			m.setExtension(ext, !m.extensionChecked(ext))
		}
		return m, nil
	}

	var cmd tea.Cmd
	before := m.extSearch.Value()
	m.extSearch, cmd = m.extSearch.Update(msg)
	if m.extSearch.Value() != before {
		m.refilterExts()
	}
	return m, cmd
}

// extensionChecked reports whether every file with ext is checked.
func (m *model) extensionChecked(ext string) bool {
	found := false
	for _, f := range m.files {
		if f.ext != ext {
			continue
		}
		if !f.checked {
			return false
		}
		found = true
	}
	return found
}

func (m *model) setExtension(ext string, checked bool) {
	for i := range m.files {
		if m.files[i].ext == ext {
			m.files[i].checked = checked
		}
	}
}

// refilter recomputes the visible files, best fuzzy score first.
func (m *model) refilter() {
	query := m.search.Value()
	m.visible = m.visible[:0]
	if query == "" {
		for i := range m.files {
			m.visible = append(m.visible, i)
		}
	} else {
		paths := make([]string, len(m.files))
		for i, f := range m.files {
			paths[i] = f.path
		}
		for _, match := range fuzzy.Find(query, paths) {
			m.visible = append(m.visible, match.Index)
		}
	}
	m.cursor = clampCursor(m.cursor, len(m.visible))
	m.offset = 0
}

func (m *model) refilterExts() {
	query := m.extSearch.Value()
	m.extShown = m.extShown[:0]
	if query == "" {
		for i := range m.exts {
			m.extShown = append(m.extShown, i)
		}
	} else {
		names := make([]string, len(m.exts))
		for i, e := range m.exts {
			names[i] = e.ext
		}
		for _, match := range fuzzy.Find(query, names) {
			m.extShown = append(m.extShown, match.Index)
		}
	}
	m.extCursor = clampCursor(m.extCursor, len(m.extShown))
	m.extOffset = 0
}

func clampCursor(cursor, n int) int {
	if n == 0 || cursor < 0 {
		return 0
	}
	if cursor >= n {
		return n - 1
	}
	return cursor
}

// window moves offset so cursor stays within a page of size rows and returns
// the visible range.
func window(cursor int, offset *int, rows, n int) (int, int) {
	if rows < 1 {
		rows = 1
	}
	if cursor < *offset {
		*offset = cursor
	} else if cursor >= *offset+rows {
		*offset = cursor - rows + 1
	}
	end := *offset + rows
	if end > n {
		end = n
	}
	return *offset, end
}

func (m *model) listRows() int {
	// title, search, blank, status, blank, help
	return m.height - 6
}

// Selected returns the checked paths in candidate order.
func (m *model) Selected() []string {
	var out []string
	for _, f := range m.files {
		if f.checked {
			out = append(out, f.path)
		}
	}
	return out
}

func (m *model) checkedCount() int {
	n := 0
	for _, f := range m.files {
		if f.checked {
			n++
		}
	}
	return n
}

// View renders the current list.
func (m *model) View() string {
	if m.quitting || m.submitted {
		return ""
	}
	if m.width == 0 {
		return "Initializing..."
	}

	var b strings.Builder
	if m.state == viewExtensions {
		b.WriteString(titleStyle.Render("Select by extension"))
		b.WriteString("\n")
		b.WriteString(m.extSearch.View())
		b.WriteString("\n\n")
		b.WriteString(m.extensionList())
	} else {
		b.WriteString(titleStyle.Render("Select files"))
		b.WriteString("\n")
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
		b.WriteString(m.fileList())
	}
	b.WriteString("\n")
	b.WriteString(selectedStyle.Render(fmt.Sprintf("%d of %d selected", m.checkedCount(), len(m.files))))
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func checkbox(checked bool) string {
	if checked {
		return checkStyle.Render("[x]")
	}
	return checkStyle.Render("[ ]")
}

func (m *model) fileList() string {
	if len(m.visible) == 0 {
		return emptyStyle.Render("no matching files") + "\n"
	}
	start, end := window(m.cursor, &m.offset, m.listRows(), len(m.visible))
	var b strings.Builder
	for row := start; row < end; row++ {
		f := m.files[m.visible[row]]
		line := checkbox(f.checked) + " " + util.TruncateLeft(f.path, m.width-4)
		if row == m.cursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m *model) extensionList() string {
	if len(m.extShown) == 0 {
		return emptyStyle.Render("no matching extensions") + "\n"
	}
	start, end := window(m.extCursor, &m.extOffset, m.listRows(), len(m.extShown))
	var b strings.Builder
	for row := start; row < end; row++ {
		e := m.exts[m.extShown[row]]
		line := checkbox(m.extensionChecked(e.ext)) + " " + e.ext + " " + countStyle.Render(fmt.Sprintf("(%d)", e.count))
		if row == m.extCursor {
			line = cursorStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

// SelectFiles runs the picker on stderr and returns the checked candidates. A
// quit returns nil with no error.
func SelectFiles(candidates []string, preselected map[string]bool) ([]string, error) {
	if !isatty.IsTerminal(os.Stderr.Fd()) && !isatty.IsCygwinTerminal(os.Stderr.Fd()) {
		return nil, ErrNoTTY
	}
	m := newModel(candidates, preselected)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithOutput(os.Stderr))
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("run picker: %w", err)
	}
	fm, ok := final.(*model)
	if !ok || !fm.submitted {
		return nil, nil
	}
	return fm.Selected(), nil
}
