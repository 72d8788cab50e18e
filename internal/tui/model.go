// Package tui provides the BubbleTea terminal indicator used by lockind watch.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jmylchreest/lockind/internal/indicator"
)

// maxHistory bounds the change log shown under the status line.
const maxHistory = 8

// Palette shared with the bundled overlay theme.
var (
	colorActive   = lipgloss.Color("#27AE60")
	colorInactive = lipgloss.Color("#2C3E50")
	colorMuted    = lipgloss.Color("8")
)

var (
	statusStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Padding(0, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12")).
			MarginBottom(1)

	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
)

// Messages sent into the program by Display.
type (
	showMsg   struct{ status indicator.Status }
	hideMsg   struct{}
	changeMsg struct{ change indicator.Change }
	tickMsg   time.Time
)

// Model is the watch view: the current status line, whether the indicator
// is visible, and the most recent changes.
type Model struct {
	status  indicator.Status
	visible bool
	hasData bool

	lastChange time.Time
	history    []indicator.Change
	changes    int

	pollingRate time.Duration
	hideTime    time.Duration

	keys KeyMap
	help help.Model

	width int
	now   func() time.Time
}

// New creates a watch model for the given timings.
func New(pollingRate, hideTime time.Duration) Model {
	return Model{
		pollingRate: pollingRate,
		hideTime:    hideTime,
		keys:        DefaultKeyMap(),
		help:        help.New(),
		now:         time.Now,
	}
}

// Init starts the clock that refreshes relative times.
func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		return m, nil

	case showMsg:
		m.status = msg.status
		m.visible = true
		m.hasData = true
		return m, nil

	case hideMsg:
		m.visible = false
		return m, nil

	case changeMsg:
		m.lastChange = msg.change.At
		m.changes++
		m.history = append([]indicator.Change{msg.change}, m.history...)
		if len(m.history) > maxHistory {
			m.history = m.history[:maxHistory]
		}
		return m, nil

	case tickMsg:
		return m, tick()
	}

	return m, nil
}

// handleKey handles key presses.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.Clear):
		m.history = nil
	}
	return m, nil
}

// View renders the watch view.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Lock keys"))
	b.WriteString("\n")

	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")

	b.WriteString(mutedStyle.Render(fmt.Sprintf("polling every %s, hiding after %s", m.pollingRate, m.hideTime)))
	b.WriteString("\n")

	if !m.lastChange.IsZero() {
		b.WriteString(mutedStyle.Render(fmt.Sprintf("last change %s (%s total)",
			humanize.RelTime(m.lastChange, m.now(), "ago", "from now"),
			humanize.Comma(int64(m.changes)))))
		b.WriteString("\n")
	}

	if len(m.history) > 0 {
		b.WriteString("\n")
		for _, c := range m.history {
			b.WriteString(m.renderChange(c))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

// renderStatus draws the status line the way the overlay would show it.
func (m Model) renderStatus() string {
	if !m.hasData {
		return mutedStyle.Render("waiting for a lock key change...")
	}

	style := statusStyle.Background(statusColor(m.status.Active))
	if !m.visible {
		style = style.Faint(true)
	}
	return style.Render(m.status.Text)
}

func (m Model) renderChange(c indicator.Change) string {
	dot := lipgloss.NewStyle().Foreground(statusColor(c.Status.Active)).Render("●")
	when := humanize.RelTime(c.At, m.now(), "ago", "from now")
	return fmt.Sprintf("%s %s %s", dot, c.Status.Text, mutedStyle.Render(when))
}

func statusColor(active bool) lipgloss.Color {
	if active {
		return colorActive
	}
	return colorInactive
}
