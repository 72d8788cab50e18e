package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jmylchreest/lockind/internal/indicator"
)

// Sender delivers messages into a running program. *tea.Program implements it.
type Sender interface {
	Send(msg tea.Msg)
}

// Display forwards indicator updates into the watch program.
type Display struct {
	sender Sender
}

var _ indicator.Display = (*Display)(nil)

// NewDisplay returns a Display that sends to s.
func NewDisplay(s Sender) *Display {
	return &Display{sender: s}
}

// Show implements indicator.Display.
func (d *Display) Show(status indicator.Status) {
	d.sender.Send(showMsg{status: status})
}

// Hide implements indicator.Display.
func (d *Display) Hide() {
	d.sender.Send(hideMsg{})
}

// OnChange is an indicator.ChangeHook that records the change in the history.
func (d *Display) OnChange(change indicator.Change) {
	d.sender.Send(changeMsg{change: change})
}
