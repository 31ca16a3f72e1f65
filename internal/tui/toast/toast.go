// ABOUTME: Transient status line for success and failure notifications
// ABOUTME: Each message expires on its own timer; a newer message replaces an older one

package toast

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/kestreladvisory/site-console/internal/tui/widgets"
)

// DefaultDuration is how long a notification stays visible
const DefaultDuration = 4 * time.Second

// expiredMsg clears the toast with the matching id
type expiredMsg struct {
	id int
}

// Model holds at most one visible notification
type Model struct {
	text     string
	level    widgets.StatusLevel
	id       int
	duration time.Duration
}

// New creates an empty toast
func New() *Model {
	return &Model{duration: DefaultDuration}
}

// Show replaces the current message and schedules its expiry
func (m *Model) Show(text string, level widgets.StatusLevel) tea.Cmd {
	m.id++
	m.text = text
	m.level = level

	id := m.id
	return tea.Tick(m.duration, func(time.Time) tea.Msg {
		return expiredMsg{id: id}
	})
}

// Success shows a green notification
func (m *Model) Success(text string) tea.Cmd {
	return m.Show(text, widgets.StatusOK)
}

// Error shows a red notification
func (m *Model) Error(text string) tea.Cmd {
	return m.Show(text, widgets.StatusCritical)
}

// Update clears the message when its timer fires
func (m *Model) Update(msg tea.Msg) {
	if e, ok := msg.(expiredMsg); ok && e.id == m.id {
		m.text = ""
	}
}

// Visible reports whether a message is showing
func (m *Model) Visible() bool {
	return m.text != ""
}

// Text returns the current message
func (m *Model) Text() string {
	return m.text
}

// View renders the status line, or nothing when empty
func (m *Model) View() string {
	if m.text == "" {
		return ""
	}
	return widgets.StatusText(m.text, m.level)
}
