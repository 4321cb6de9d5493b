// Package ui renders short-lived toast notifications below a bubbletea view.
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
	"github.com/streamhub-cli/streamhub/style"
)

// Kind selects the toast accent.
type Kind int

const (
	Info Kind = iota
	Success
	Destructive
)

// Toast is both the notification and the message that shows it.
type Toast struct {
	Title       string
	Description string
	Kind        Kind
}

type clearMsg struct {
	seq int
}

// DefaultLifetime is how long a toast stays on screen.
const DefaultLifetime = 4 * time.Second

// Model holds at most one visible toast. A newer toast replaces the older one
// and restarts the timer.
type Model struct {
	Lifetime time.Duration

	current mo.Option[Toast]
	seq     int
}

// Notify returns a command that shows t.
func Notify(t Toast) tea.Cmd {
	return func() tea.Msg { return t }
}

// Error is shorthand for a destructive toast.
func Error(title, description string) tea.Cmd {
	return Notify(Toast{Title: title, Description: description, Kind: Destructive})
}

func (m *Model) lifetime() time.Duration {
	if m.Lifetime > 0 {
		return m.Lifetime
	}
	return DefaultLifetime
}

// Update reacts to Toast and its expiry. Other messages are ignored.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case Toast:
		m.seq++
		m.current = mo.Some(msg)
		seq := m.seq
		return tea.Tick(m.lifetime(), func(time.Time) tea.Msg {
			return clearMsg{seq: seq}
		})
	case clearMsg:
		if msg.seq == m.seq {
			m.current = mo.None[Toast]()
		}
	}
	return nil
}

// Current returns the visible toast, if any.
func (m *Model) Current() mo.Option[Toast] {
	return m.current
}

// View places the visible toast under content.
func (m *Model) View(content string) string {
	t, ok := m.current.Get()
	if !ok {
		return content
	}

	var accent lipgloss.Color
	switch t.Kind {
	case Success:
		accent = style.SuccessColor
	case Destructive:
		accent = style.ErrorColor
	default:
		accent = style.InfoColor
	}

	return lipgloss.JoinVertical(lipgloss.Left, content, style.Toast(accent)(t.Title, t.Description))
}
