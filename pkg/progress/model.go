// Package progress renders live run progress in the terminal and the
// final sweep and baseline tables.
package progress

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/WALEDAMN/Dynamic-market-structure-and-stock-behavior-revealed-by-stock-correlation-networks/pkg/pubsub"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	statsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

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

type keyMap struct {
	Quit key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "stop run"),
	),
}

func (k keyMap) ShortHelp() []key.Binding  { return []key.Binding{k.Quit} }
func (k keyMap) FullHelp() [][]key.Binding { return [][]key.Binding{{k.Quit}} }

// visibleRows bounds the slice table height
const visibleRows = 10

type eventMsg pubsub.SliceEvent

type closedMsg struct{}

// Model follows one run through its slice events
type Model struct {
	title  string
	total  int
	done   int
	failed int
	events <-chan pubsub.SliceEvent
	cancel context.CancelFunc

	bar   progress.Model
	table table.Model
	rows  []table.Row
	help  help.Model
	keys  keyMap

	finished    bool
	interrupted bool
}

// NewModel watches events until total slices have arrived or the
// channel closes. cancel, when set, is called if the user stops the run.
func NewModel(title string, total int, events <-chan pubsub.SliceEvent, cancel context.CancelFunc) Model {
	columns := []table.Column{
		{Title: "#", Width: 4},
		{Title: "Window", Width: 16},
		{Title: "Q", Width: 10},
		{Title: "Comm.", Width: 6},
		{Title: "Changed", Width: 8},
		{Title: "Status", Width: 10},
	}
	t := table.New(
		table.WithColumns(columns),
		table.WithHeight(visibleRows),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#00FFFF")).
		BorderBottom(true).
		Bold(true)
	t.SetStyles(s)

	return Model{
		title:  title,
		total:  total,
		events: events,
		cancel: cancel,
		bar:    progress.New(progress.WithDefaultGradient()),
		table:  t,
		help:   help.New(),
		keys:   keys,
	}
}

func waitForEvent(events <-chan pubsub.SliceEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (m Model) Init() tea.Cmd {
	return waitForEvent(m.events)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.bar.Width = max(10, msg.Width-8)
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.interrupted = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}
		return m, nil

	case eventMsg:
		m.record(pubsub.SliceEvent(msg))
		if m.total > 0 && m.done >= m.total {
			m.finished = true
			return m, tea.Quit
		}
		return m, waitForEvent(m.events)

	case closedMsg:
		m.finished = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) record(ev pubsub.SliceEvent) {
	m.done++
	q, status := "NaN", "ok"
	if ev.Modularity != nil {
		q = strconv.FormatFloat(*ev.Modularity, 'f', 4, 64)
	}
	if ev.Degraded {
		m.failed++
		status = "degraded"
	} else if ev.PartialMatch {
		status = "partial"
	}
	m.rows = append(m.rows, table.Row{
		strconv.Itoa(ev.Index + 1),
		ev.Window,
		q,
		strconv.Itoa(ev.Communities),
		strconv.Itoa(ev.Changed),
		status,
	})
	start := max(0, len(m.rows)-visibleRows)
	m.table.SetRows(m.rows[start:])
}

// Fraction is the share of slices received
func (m Model) Fraction() float64 {
	if m.total <= 0 {
		return 0
	}
	return float64(m.done) / float64(m.total)
}

// Done returns how many slices were received
func (m Model) Done() int { return m.done }

// Interrupted reports whether the user stopped the run
func (m Model) Interrupted() bool { return m.interrupted }

func (m Model) View() string {
	var s strings.Builder

	s.WriteString(titleStyle.Render(m.title))
	s.WriteString("\n\n")

	body := m.bar.ViewAs(m.Fraction()) + "\n" +
		statsStyle.Render(fmt.Sprintf("%d/%d slices, %d degraded", m.done, m.total, m.failed)) +
		"\n\n" + m.table.View()
	s.WriteString(contentStyle.Render(body))

	switch {
	case m.interrupted:
		s.WriteString("\n\n")
		s.WriteString(errorStyle.Render("✗ stopped"))
	case m.finished:
		s.WriteString("\n\n")
		s.WriteString(successStyle.Render("✓ done"))
	}

	s.WriteString("\n")
	s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	s.WriteString("\n")
	return s.String()
}
