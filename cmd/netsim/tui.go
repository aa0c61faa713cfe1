package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/cluso-netsim/pkg/game"
	"github.com/dd0wney/cluso-netsim/pkg/model"
	"github.com/dd0wney/cluso-netsim/pkg/objective"
	"github.com/dd0wney/cluso-netsim/pkg/pubsub"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	boxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FF00")).
			Padding(0, 1).
			MarginRight(1)

	logBoxStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(0, 1)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)

	statusColors = map[model.NodeStatus]lipgloss.Color{
		model.StatusSecure:      "#00FF00",
		model.StatusBackedUp:    "#00FF00",
		model.StatusMonitoring:  "#00FFFF",
		model.StatusActive:      "#FFFFFF",
		model.StatusVulnerable:  "#FFFF00",
		model.StatusQuarantined: "#FFFF00",
		model.StatusOverloaded:  "#FF8800",
		model.StatusDegraded:    "#FF8800",
		model.StatusCompromised: "#FF0000",
		model.StatusBreached:    "#FF00FF",
	}
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Select   key.Binding
	Action   key.Binding
	Fire     key.Binding
	Start    key.Binding
	Tutorial key.Binding
	Toggle   key.Binding
	Reset    key.Binding
	Again    key.Binding
	Help     key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "select node"),
	),
	Action: key.NewBinding(
		key.WithKeys("1", "2", "3", "4"),
		key.WithHelp("1-4", "pick action"),
	),
	Fire: key.NewBinding(
		key.WithKeys(" ", "f"),
		key.WithHelp("space/f", "run action"),
	),
	Start: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "start"),
	),
	Tutorial: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "tutorial"),
	),
	Toggle: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "switch side"),
	),
	Reset: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "reset"),
	),
	Again: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "play again"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Action, k.Fire, k.Toggle, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Select},
		{k.Action, k.Fire},
		{k.Start, k.Tutorial, k.Toggle},
		{k.Reset, k.Again, k.Help, k.Quit},
	}
}

// ui is the bubbletea model of an interactive session.
type ui struct {
	session    *game.Session
	events     <-chan pubsub.Event
	snap       game.Snapshot
	nodes      table.Model
	help       help.Model
	keys       keyMap
	width      int
	height     int
	message    string
	messageErr bool
}

var errNothingArmed = errors.New("select a node and an action first")

type tickMsg time.Time

type snapshotMsg game.Snapshot

type busClosedMsg struct{}

// the countdowns on screen need a refresh even when nothing is published
const refreshInterval = 250 * time.Millisecond

func tickCmd() tea.Cmd {
	return tea.Tick(refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForSnapshot(events <-chan pubsub.Event) tea.Cmd {
	return func() tea.Msg {
		for ev := range events {
			if snap, ok := ev.Payload.(game.Snapshot); ok {
				return snapshotMsg(snap)
			}
		}
		return busClosedMsg{}
	}
}

func newUI(session *game.Session, events <-chan pubsub.Event) ui {
	columns := []table.Column{
		{Title: "ID", Width: 3},
		{Title: "Name", Width: 9},
		{Title: "Type", Width: 9},
		{Title: "Layer", Width: 9},
		{Title: "Status", Width: 12},
		{Title: "Def", Width: 4},
		{Title: "", Width: 4},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(8),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#FF00FF")).
		Bold(false)
	t.SetStyles(s)

	m := ui{
		session: session,
		events:  events,
		nodes:   t,
		help:    help.New(),
		keys:    keys,
	}
	m.setSnapshot(session.Snapshot())
	return m
}

func (m ui) Init() tea.Cmd {
	return tea.Batch(tickCmd(), waitForSnapshot(m.events))
}

func (m ui) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		m.setSnapshot(m.session.Snapshot())
		return m, tickCmd()

	case snapshotMsg:
		m.setSnapshot(game.Snapshot(msg))
		return m, waitForSnapshot(m.events)

	case busClosedMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		// only unbound keys reach the table, whose own keymap overlaps ours
		handled := true
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, m.keys.Select):
			m.selectNode()
		case key.Matches(msg, m.keys.Action):
			m.pickAction(msg.String())
		case key.Matches(msg, m.keys.Fire):
			m.fire()
		case key.Matches(msg, m.keys.Start):
			m.report(m.session.StartGame(), "Game started")
		case key.Matches(msg, m.keys.Tutorial):
			m.report(m.session.StartTutorial(), "Tutorial started")
		case key.Matches(msg, m.keys.Toggle):
			m.report(m.session.ToggleFaction(), "Switching sides")
		case key.Matches(msg, m.keys.Reset):
			m.session.ResetGame()
			m.report(nil, "Game reset")
		case key.Matches(msg, m.keys.Again):
			m.report(m.session.PlayAgain(), "Ready for another round")
		default:
			handled = false
		}
		if handled {
			m.setSnapshot(m.session.Snapshot())
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.nodes, cmd = m.nodes.Update(msg)
	return m, cmd
}

func (m *ui) report(err error, ok string) {
	if err != nil {
		m.message = err.Error()
		m.messageErr = true
		return
	}
	m.message = ok
	m.messageErr = false
}

func (m *ui) cursorNodeID() int {
	row := m.nodes.SelectedRow()
	if row == nil {
		return 0
	}
	id, _ := strconv.Atoi(row[0])
	return id
}

func (m *ui) selectNode() {
	id := m.cursorNodeID()
	if id == 0 {
		return
	}
	m.report(m.session.SelectNode(id), fmt.Sprintf("Selected node %d", id))
}

func (m *ui) pickAction(k string) {
	actions := model.ActionsFor(m.snap.Faction)
	i := int(k[0] - '1')
	if i < 0 || i >= len(actions) {
		return
	}
	m.report(m.session.SelectAction(actions[i]), "Armed "+actions[i].String())
}

func (m *ui) fire() {
	if m.snap.SelectedAction == nil || m.snap.SelectedNode == 0 {
		m.report(errNothingArmed, "")
		return
	}
	out, err := m.session.DispatchAction(*m.snap.SelectedAction, m.snap.SelectedNode)
	if err != nil {
		m.report(err, "")
		return
	}
	m.message = out.Message(m.nodeName(out.TargetID))
	m.messageErr = !out.Succeeded()
}

func (m ui) nodeName(id int) string {
	for _, n := range m.snap.Nodes {
		if n.ID == id {
			return n.Name
		}
	}
	return fmt.Sprintf("node %d", id)
}

func (m *ui) setSnapshot(snap game.Snapshot) {
	m.snap = snap
	rows := make([]table.Row, 0, len(snap.Nodes))
	for _, n := range snap.Nodes {
		var marks strings.Builder
		if n.Selected {
			marks.WriteByte('*')
		}
		if n.Highlighted {
			marks.WriteByte('~')
		}
		switch n.Feedback {
		case model.FeedbackSuccess:
			marks.WriteByte('+')
		case model.FeedbackFailure:
			marks.WriteByte('!')
		}
		if !n.Interactable {
			marks.WriteByte('x')
		}
		rows = append(rows, table.Row{
			strconv.Itoa(n.ID),
			n.Name,
			string(n.Type),
			string(n.Layer),
			string(n.Status),
			strconv.Itoa(n.Defense),
			marks.String(),
		})
	}
	m.nodes.SetRows(rows)
}

func (m ui) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("NETSIM :: " + factionName(m.snap.Faction) + " :: " + string(m.snap.Mode)))
	s.WriteString("\n")

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.renderStatus(),
		lipgloss.JoinHorizontal(lipgloss.Top,
			boxStyle.Render(headerStyle.Render("Network")+"\n"+m.nodes.View()),
			boxStyle.Render(m.renderActions()),
		),
		lipgloss.JoinHorizontal(lipgloss.Top,
			boxStyle.Render(m.renderObjectives()),
			boxStyle.Render(m.renderThreats()),
		),
		logBoxStyle.Render(m.renderLog(8)),
	)
	s.WriteString(contentStyle.Render(body))

	if t := m.snap.Tutorial; t != nil {
		s.WriteString("\n")
		s.WriteString(contentStyle.Render(fmt.Sprintf("Tutorial %d/%d: %s", t.Index+1, t.Total, t.Step.Text)))
	}

	if m.message != "" {
		s.WriteString("\n")
		if m.messageErr {
			s.WriteString(contentStyle.Render(errorStyle.Render("✗ " + m.message)))
		} else {
			s.WriteString(contentStyle.Render(successStyle.Render("✓ " + m.message)))
		}
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.View(m.keys)))
	return s.String()
}

func (m ui) renderStatus() string {
	snap := m.snap
	line := fmt.Sprintf("Integrity %s %5.1f%%   Score %d (high %d, x%.1f)   %s",
		bar(snap.Integrity, 20), snap.Integrity, snap.Score, snap.HighScore, snap.Combo, snap.Resources)
	if snap.Transitioning {
		line += fmt.Sprintf("   switching %s %d%%", bar(float64(snap.TransitionProgress), 10), snap.TransitionProgress)
	}

	counts := make(map[model.NodeStatus]int)
	for _, n := range snap.Nodes {
		counts[n.Status]++
	}
	var tally []string
	for _, st := range model.AllStatuses() {
		if counts[st] == 0 {
			continue
		}
		style := lipgloss.NewStyle()
		if c, ok := statusColors[st]; ok {
			style = style.Foreground(c)
		}
		tally = append(tally, style.Render(fmt.Sprintf("%s:%d", st, counts[st])))
	}
	return line + "\n" + strings.Join(tally, "  ")
}

func (m ui) renderActions() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Actions"))
	s.WriteString("\n")
	for i, a := range model.ActionsFor(m.snap.Faction) {
		mark := " "
		if m.snap.SelectedAction != nil && *m.snap.SelectedAction == a {
			mark = ">"
		}
		line := fmt.Sprintf("%s %d %-18s", mark, i+1, a)
		if left, ok := m.snap.Cooldowns[a]; ok {
			s.WriteString(dimStyle.Render(fmt.Sprintf("%s %4.1fs", line, left.Seconds())))
		} else {
			s.WriteString(line + " ready")
		}
		s.WriteString("\n")
	}
	if m.snap.SelectedNode != 0 {
		s.WriteString(fmt.Sprintf("\ntarget: %s", m.nodeName(m.snap.SelectedNode)))
	}
	return s.String()
}

func (m ui) renderObjectives() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Objectives"))
	s.WriteString("\n")
	if len(m.snap.Objectives) == 0 {
		s.WriteString(dimStyle.Render("press s to start, u for the tutorial"))
		return s.String()
	}
	for _, o := range m.snap.Objectives {
		box := "[ ]"
		if o.Status == objective.Completed {
			box = "[x]"
		}
		title := o.Title
		if o.Primary {
			title = lipgloss.NewStyle().Bold(true).Render(title)
		}
		s.WriteString(fmt.Sprintf("%s %s\n", box, title))
		for _, r := range o.Requirements {
			s.WriteString(dimStyle.Render(fmt.Sprintf("    %s %.0f/%.0f", strings.ToLower(string(r.Type)), r.Current, r.Target)))
			s.WriteString("\n")
		}
	}
	return strings.TrimRight(s.String(), "\n")
}

func (m ui) renderThreats() string {
	var s strings.Builder
	s.WriteString(headerStyle.Render("Threats"))
	s.WriteString("\n")
	shown := 0
	for i := len(m.snap.Threats) - 1; i >= 0 && shown < 6; i-- {
		t := m.snap.Threats[i]
		line := fmt.Sprintf("%-6s %-11s %s", t.Severity, t.Status, t.Description)
		if t.Status.Terminal() {
			line = dimStyle.Render(line)
		}
		s.WriteString(line + "\n")
		shown++
	}
	if shown == 0 {
		s.WriteString(dimStyle.Render("none"))
	}
	return strings.TrimRight(s.String(), "\n")
}

func (m ui) renderLog(n int) string {
	lines := m.snap.Log[:min(n, len(m.snap.Log))]
	if len(lines) == 0 {
		return dimStyle.Render("no events yet")
	}
	if m.snap.Mode.Over() {
		lines = append([]string{successStyle.Render("Game over: press p to play again")}, lines...)
	}
	return strings.Join(lines, "\n")
}

func bar(pct float64, width int) string {
	filled := int(pct / 100 * float64(width))
	filled = max(0, min(width, filled))
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", width-filled) + "]"
}

func factionName(f model.Faction) string {
	if f == model.BlackHat {
		return "Black Hat"
	}
	return "White Hat"
}
