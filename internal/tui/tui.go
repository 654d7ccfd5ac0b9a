// Package tui is an interactive playground for editing and ticking a
// circuit board in the terminal.
package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	bb "github.com/dwyrd/breadboard"
	"github.com/dwyrd/breadboard/board"
	"github.com/dwyrd/breadboard/circuitfile"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFD700")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF")).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#000000")).
			Background(lipgloss.Color("#FFD700")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	boardView view = iota
	consoleView
	modulesView
)

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Enter    key.Binding
	Space    key.Binding
	Step     key.Binding
	Auto     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "run command"),
	),
	Space: key.NewBinding(
		key.WithKeys(" ", "space"),
		key.WithHelp("space", "toggle node"),
	),
	Step: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "tick"),
	),
	Auto: key.NewBinding(
		key.WithKeys("a"),
		key.WithHelp("a", "auto tick"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Space, k.Step, k.Auto, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.ShiftTab, k.Enter},
		{k.Space, k.Step, k.Auto},
		{k.Quit},
	}
}

// Model drives the playground around one board.
type Model struct {
	board       *board.Board
	path        string
	currentView view
	input       textinput.Model
	nodeTable   table.Model
	modList     list.Model
	help        help.Model
	keys        keyMap
	width       int
	height      int
	message     string
	messageErr  bool
	auto        bool
	passes      int
	rowIDs      []string
}

type tickMsg time.Time

func tickCmd() tea.Cmd {
	return tea.Tick(500*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// New builds a playground model around b. path is where the save command
// writes when given no argument.
func New(b *board.Board, path string) Model {
	ti := textinput.New()
	ti.Placeholder = "add AND"
	ti.CharLimit = 120
	ti.Width = 60

	columns := []table.Column{
		{Title: "ID", Width: 10},
		{Title: "Kind", Width: 8},
		{Title: "Pins", Width: 7},
		{Title: "Value", Width: 20},
		{Title: "Loop", Width: 4},
	}
	nt := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(12),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#000000")).
		Background(lipgloss.Color("#FFD700")).
		Bold(false)
	nt.SetStyles(s)

	ml := list.New(nil, list.NewDefaultDelegate(), 60, 14)
	ml.Title = "Module library"
	ml.SetShowStatusBar(false)
	ml.SetFilteringEnabled(false)

	m := Model{
		board:     b,
		path:      path,
		input:     ti,
		nodeTable: nt,
		modList:   ml,
		help:      help.New(),
		keys:      keys,
	}
	m.refreshRows()
	m.refreshModules()
	return m
}

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case tickMsg:
		if !m.auto {
			return m, nil
		}
		m.step()
		return m, tickCmd()

	case tea.KeyMsg:
		// The console owns most keystrokes while it is focused.
		if m.currentView == consoleView && m.input.Focused() {
			switch msg.String() {
			case "ctrl+c":
				return m, tea.Quit
			case "esc":
				m.input.Blur()
			case "enter":
				m.exec(m.input.Value())
				m.input.SetValue("")
			case "tab":
				m.input.Blur()
				m.nextView(1)
			default:
				m.input, cmd = m.input.Update(msg)
				cmds = append(cmds, cmd)
			}
			return m, tea.Batch(cmds...)
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Tab):
			m.nextView(1)

		case key.Matches(msg, m.keys.ShiftTab):
			m.nextView(-1)

		case key.Matches(msg, m.keys.Space):
			if m.currentView == boardView {
				m.toggleSelected()
			}

		case key.Matches(msg, m.keys.Step):
			m.step()

		case key.Matches(msg, m.keys.Auto):
			m.auto = !m.auto
			if m.auto {
				return m, tickCmd()
			}
		}
	}

	switch m.currentView {
	case boardView:
		m.nodeTable, cmd = m.nodeTable.Update(msg)
		cmds = append(cmds, cmd)
	case modulesView:
		m.modList, cmd = m.modList.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m *Model) nextView(delta int) {
	m.currentView = view((int(m.currentView) + delta + 3) % 3)
	if m.currentView == consoleView {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) step() {
	if err := m.board.Evaluate(); err != nil {
		m.fail(err.Error())
	} else {
		m.passes++
	}
	m.refreshRows()
}

func (m *Model) toggleSelected() {
	i := m.nodeTable.Cursor()
	if i < 0 || i >= len(m.rowIDs) {
		return
	}
	if err := m.board.Toggle(m.rowIDs[i]); err != nil {
		m.fail(err.Error())
		return
	}
	m.ok("toggled " + short(m.rowIDs[i]))
	m.refreshRows()
}

// exec runs one console command. The console accepts:
//
//	add KIND              place a gate or terminal
//	bar in|out N          place a pin bar with N pins
//	wire FROM PIN TO PIN  connect two pins
//	set ID BITS           set an input bar from a bit string, e.g. 1011
//	toggle ID             flip an INPUT or BUTTON
//	del ID                remove a node and its wires
//	mod NAME              capture the board as a module definition
//	place REF             instantiate a module by name or ID
//	save [PATH]           write the circuit document
//
// Node and module references may be unambiguous ID prefixes.
func (m *Model) exec(cmdline string) {
	f := strings.Fields(cmdline)
	if len(f) == 0 {
		return
	}
	switch f[0] {
	case "add":
		if len(f) != 2 {
			m.fail("usage: add KIND")
			return
		}
		kind := bb.Kind(strings.ToUpper(f[1]))
		if _, _, fixed := bb.PinCounts(kind); !fixed {
			m.fail("usage: add AND|OR|NOT|INPUT|OUTPUT|LED|BUTTON")
			return
		}
		id := m.board.AddNode(kind)
		m.ok(fmt.Sprintf("added %s %s", kind, short(id)))

	case "bar":
		if len(f) != 3 {
			m.fail("usage: bar in|out N")
			return
		}
		mode := bb.BarInput
		if f[1] == "out" {
			mode = bb.BarOutput
		} else if f[1] != "in" {
			m.fail("usage: bar in|out N")
			return
		}
		pins, err := strconv.Atoi(f[2])
		if err != nil || pins <= 0 {
			m.fail("bar needs a positive pin count")
			return
		}
		id := m.board.AddBar(mode, pins)
		m.ok(fmt.Sprintf("added %d pin bar %s", pins, short(id)))

	case "wire":
		if len(f) != 5 {
			m.fail("usage: wire FROM PIN TO PIN")
			return
		}
		from, err := m.resolve(f[1])
		if err != nil {
			m.fail(err.Error())
			return
		}
		to, err := m.resolve(f[3])
		if err != nil {
			m.fail(err.Error())
			return
		}
		fromPin, err1 := strconv.Atoi(f[2])
		toPin, err2 := strconv.Atoi(f[4])
		if err1 != nil || err2 != nil {
			m.fail("pins must be numbers")
			return
		}
		if _, err := m.board.Connect(from, fromPin, to, toPin); err != nil {
			m.fail(err.Error())
			return
		}
		m.ok(fmt.Sprintf("wired %s:%d -> %s:%d", short(from), fromPin, short(to), toPin))
		m.refreshRows()

	case "set":
		if len(f) != 3 {
			m.fail("usage: set ID BITS")
			return
		}
		id, err := m.resolve(f[1])
		if err != nil {
			m.fail(err.Error())
			return
		}
		v := make([]bool, len(f[2]))
		for i, r := range f[2] {
			switch r {
			case '0':
			case '1':
				v[i] = true
			default:
				m.fail("bits must be 0s and 1s")
				return
			}
		}
		if err := m.board.SetBarValues(id, v); err != nil {
			m.fail(err.Error())
			return
		}
		m.ok("set " + short(id))
		m.refreshRows()

	case "toggle":
		if len(f) != 2 {
			m.fail("usage: toggle ID")
			return
		}
		id, err := m.resolve(f[1])
		if err != nil {
			m.fail(err.Error())
			return
		}
		if err := m.board.Toggle(id); err != nil {
			m.fail(err.Error())
			return
		}
		m.ok("toggled " + short(id))
		m.refreshRows()

	case "del":
		if len(f) != 2 {
			m.fail("usage: del ID")
			return
		}
		id, err := m.resolve(f[1])
		if err != nil {
			m.fail(err.Error())
			return
		}
		if err := m.board.RemoveNode(id); err != nil {
			m.fail(err.Error())
			return
		}
		m.ok("removed " + short(id))
		m.refreshRows()

	case "mod":
		if len(f) != 2 {
			m.fail("usage: mod NAME")
			return
		}
		def, err := m.board.DefineModule(f[1])
		if err != nil {
			m.fail(err.Error())
			return
		}
		m.ok(fmt.Sprintf("defined %s (%d in, %d out)", def.Name, def.InputPins, def.OutputPins))
		m.refreshModules()

	case "place":
		if len(f) != 2 {
			m.fail("usage: place NAME|ID")
			return
		}
		def, err := m.findModule(f[1])
		if err != nil {
			m.fail(err.Error())
			return
		}
		id, err := m.board.PlaceModule(def.ID)
		if err != nil {
			m.fail(err.Error())
			return
		}
		m.ok(fmt.Sprintf("placed %s as %s", def.Name, short(id)))
		m.refreshRows()

	case "save":
		path := m.path
		if len(f) == 2 {
			path = f[1]
		}
		if path == "" {
			m.fail("usage: save PATH")
			return
		}
		name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		if err := circuitfile.SaveFile(path, circuitfile.FromBoard(name, m.board)); err != nil {
			m.fail(err.Error())
			return
		}
		m.ok("saved " + path)

	default:
		m.fail(fmt.Sprintf("unknown command %q", f[0]))
	}
}

// resolve expands an unambiguous node ID prefix to the full ID.
func (m *Model) resolve(prefix string) (string, error) {
	var match string
	for _, n := range m.board.Nodes() {
		if n.ID == prefix {
			return n.ID, nil
		}
		if strings.HasPrefix(n.ID, prefix) {
			if match != "" {
				return "", fmt.Errorf("ambiguous node %q", prefix)
			}
			match = n.ID
		}
	}
	if match == "" {
		return "", fmt.Errorf("no node %q", prefix)
	}
	return match, nil
}

func (m *Model) findModule(ref string) (*bb.ModuleDef, error) {
	var match *bb.ModuleDef
	for _, def := range m.board.Modules() {
		if def.Name == ref || def.ID == ref {
			return def, nil
		}
		if strings.HasPrefix(def.ID, ref) {
			if match != nil {
				return nil, fmt.Errorf("ambiguous module %q", ref)
			}
			match = def
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no module %q", ref)
	}
	return match, nil
}

func (m *Model) ok(msg string) {
	m.message, m.messageErr = msg, false
}

func (m *Model) fail(msg string) {
	m.message, m.messageErr = msg, true
}

func (m *Model) refreshRows() {
	onLoop := make(map[string]bool)
	for _, cid := range m.board.CycleConnections() {
		for _, c := range m.board.Connections() {
			if c.ID == cid {
				onLoop[c.From] = true
				onLoop[c.To] = true
			}
		}
	}
	nodes := m.board.Nodes()
	rows := make([]table.Row, 0, len(nodes))
	ids := make([]string, 0, len(nodes))
	for _, n := range nodes {
		loop := ""
		if onLoop[n.ID] {
			loop = "yes"
		}
		rows = append(rows, table.Row{
			short(n.ID),
			string(n.Kind),
			fmt.Sprintf("%d>%d", n.InputCount(), n.OutputCount()),
			dots(m.board.Outputs(n.ID)),
			loop,
		})
		ids = append(ids, n.ID)
	}
	m.nodeTable.SetRows(rows)
	m.rowIDs = ids
}

type modItem struct{ def *bb.ModuleDef }

func (it modItem) Title() string { return it.def.Name }
func (it modItem) Description() string {
	return fmt.Sprintf("%d in, %d out, %d nodes, id %s",
		it.def.InputPins, it.def.OutputPins, len(it.def.Nodes), short(it.def.ID))
}
func (it modItem) FilterValue() string { return it.def.Name }

func (m *Model) refreshModules() {
	defs := m.board.Modules()
	items := make([]list.Item, 0, len(defs))
	for _, def := range defs {
		items = append(items, modItem{def: def})
	}
	m.modList.SetItems(items)
}

func short(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func dots(v []bool) string {
	if len(v) == 0 {
		return "-"
	}
	var s strings.Builder
	for i, bit := range v {
		if i > 0 {
			s.WriteByte(' ')
		}
		if bit {
			s.WriteRune('●')
		} else {
			s.WriteRune('○')
		}
	}
	return s.String()
}

func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("Breadboard - logic circuit playground"))
	s.WriteString("\n\n")
	s.WriteString(m.renderTabs())
	s.WriteString("\n\n")

	switch m.currentView {
	case boardView:
		s.WriteString(m.renderBoard())
	case consoleView:
		s.WriteString(m.renderConsole())
	case modulesView:
		s.WriteString(contentStyle.Render(m.modList.View()))
	}

	if m.message != "" {
		s.WriteString("\n\n")
		if m.messageErr {
			s.WriteString(errorStyle.Render("✗ " + m.message))
		} else {
			s.WriteString(successStyle.Render("✓ " + m.message))
		}
	}

	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	return s.String()
}

func (m Model) renderTabs() string {
	tabs := []string{"Board", "Console", "Modules"}
	rendered := make([]string, len(tabs))
	for i, tab := range tabs {
		if view(i) == m.currentView {
			rendered[i] = activeTabStyle.Render(tab)
		} else {
			rendered[i] = inactiveTabStyle.Render(tab)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func (m Model) renderBoard() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render(fmt.Sprintf("Pass %d", m.passes)))
	if m.auto {
		s.WriteString("  ")
		s.WriteString(successStyle.Render("auto"))
	}
	if err := m.board.Err(); err != nil {
		s.WriteString("  ")
		s.WriteString(errorStyle.Render(err.Error()))
	}
	s.WriteString("\n\n")
	s.WriteString(m.nodeTable.View())
	if n := len(m.board.CycleConnections()); n > 0 {
		s.WriteString("\n")
		s.WriteString(helpStyle.Render(fmt.Sprintf("%d wire(s) on feedback loops", n)))
	}
	return contentStyle.Render(s.String())
}

func (m Model) renderConsole() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Console"))
	s.WriteString("\n\n")
	s.WriteString(m.input.View())
	s.WriteString("\n\n")
	s.WriteString(helpStyle.Render("Commands:\n"))
	s.WriteString(helpStyle.Render("  add AND | bar in 4 | wire FROM PIN TO PIN\n"))
	s.WriteString(helpStyle.Render("  set ID 1011 | toggle ID | del ID\n"))
	s.WriteString(helpStyle.Render("  mod NAME | place NAME | save [PATH]\n"))
	return contentStyle.Render(s.String())
}

// Run starts the playground and blocks until the user quits.
func Run(b *board.Board, path string) error {
	p := tea.NewProgram(New(b, path), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
