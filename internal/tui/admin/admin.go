// ABOUTME: Protected admin screen listing newsletter subscribers and contact messages
// ABOUTME: Loads both collections concurrently through the token-attaching client

package admin

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/session"
	"github.com/kestreladvisory/site-console/internal/tui/icons"
	"github.com/kestreladvisory/site-console/internal/tui/styles"
	"github.com/kestreladvisory/site-console/internal/tui/widgets"
	"golang.org/x/sync/errgroup"
)

// API is the admin data source
type API interface {
	ListSubscribers(ctx context.Context) ([]client.Subscriber, error)
	ListMessages(ctx context.Context) ([]client.ContactMessage, error)
}

// Tab selects the visible collection
type Tab int

const (
	TabSubscribers Tab = iota
	TabMessages
)

// LogoutMsg asks the app to sign out
type LogoutMsg struct{}

type loadedMsg struct {
	subscribers []client.Subscriber
	messages    []client.ContactMessage
	err         error
}

// Model displays admin data
type Model struct {
	api  API
	user session.User

	tab         Tab
	subscribers []client.Subscriber
	messages    []client.ContactMessage
	loading     bool
	err         error
	width       int
	height      int
}

// New creates the admin screen for user
func New(api API, user session.User, width, height int) *Model {
	return &Model{
		api:    api,
		user:   user,
		width:  width,
		height: height,
	}
}

// SetSize updates the screen dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.Load()
}

// Load fetches subscribers and messages in parallel
func (m *Model) Load() tea.Cmd {
	m.loading = true
	m.err = nil
	api := m.api

	return func() tea.Msg {
		var msg loadedMsg
		g, ctx := errgroup.WithContext(context.Background())
		g.Go(func() error {
			subs, err := api.ListSubscribers(ctx)
			msg.subscribers = subs
			return err
		})
		g.Go(func() error {
			msgs, err := api.ListMessages(ctx)
			msg.messages = msgs
			return err
		})
		msg.err = g.Wait()
		return msg
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		m.loading = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.subscribers = msg.subscribers
		m.messages = msg.messages
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "tab", "right", "left":
			m.tab = 1 - m.tab
		case "1":
			m.tab = TabSubscribers
		case "2":
			m.tab = TabMessages
		case "r":
			return m, m.Load()
		case "l":
			return m, func() tea.Msg { return LogoutMsg{} }
		}
	}
	return m, nil
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render(icons.Shield.String() + " Admin"))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("%s %s  %s\n", icons.User.String(), styles.ValueStyle.Render(m.userLabel()), widgets.RoleBadge(m.user.Role)))
	sb.WriteString("\n")
	sb.WriteString(m.renderTabs())
	sb.WriteString("\n\n")

	switch {
	case m.loading:
		sb.WriteString("Loading...")
	case m.err != nil:
		sb.WriteString(styles.StatusCritical.Render("Error: " + client.ErrorMessage(m.err)))
	case m.tab == TabSubscribers:
		sb.WriteString(m.renderSubscribers())
	default:
		sb.WriteString(m.renderMessages())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Render(sb.String())
}

func (m *Model) userLabel() string {
	if m.user.Name != "" {
		return fmt.Sprintf("%s <%s>", m.user.Name, m.user.Email)
	}
	if m.user.Email != "" {
		return m.user.Email
	}
	return "signed in"
}

func (m *Model) renderTabs() string {
	labels := []string{
		fmt.Sprintf("%s Subscribers (%d)", icons.Users.String(), len(m.subscribers)),
		fmt.Sprintf("%s Messages (%d)", icons.Message.String(), len(m.messages)),
	}
	var parts []string
	for i, label := range labels {
		if Tab(i) == m.tab {
			parts = append(parts, styles.KeyStyle.Render("["+label+"]"))
		} else {
			parts = append(parts, styles.Subtitle.UnsetMarginBottom().Render(" "+label+" "))
		}
	}
	return strings.Join(parts, "  ")
}

func (m *Model) renderSubscribers() string {
	if len(m.subscribers) == 0 {
		return styles.Subtitle.Render("No subscribers yet")
	}
	var sb strings.Builder
	for _, s := range m.visibleRows(len(m.subscribers)) {
		sub := m.subscribers[s]
		sb.WriteString(fmt.Sprintf("%-40s %s\n", sub.Email, styles.Subtitle.UnsetMarginBottom().Render(sub.CreatedAt)))
	}
	return sb.String()
}

func (m *Model) renderMessages() string {
	if len(m.messages) == 0 {
		return styles.Subtitle.Render("No messages yet")
	}
	var sb strings.Builder
	for _, i := range m.visibleRows(len(m.messages)) {
		msg := m.messages[i]
		sb.WriteString(styles.ValueStyle.Render(msg.Name))
		sb.WriteString(fmt.Sprintf(" <%s>", msg.Email))
		if msg.Company != "" {
			sb.WriteString(" · " + msg.Company)
		}
		sb.WriteString("\n  ")
		sb.WriteString(truncate(msg.Message, max(20, m.width-4)))
		sb.WriteString("\n")
	}
	return sb.String()
}

// visibleRows returns the indexes that fit the available height
func (m *Model) visibleRows(n int) []int {
	limit := n
	// Overhead: title, user line, blank, tabs, blank
	if m.height > 0 {
		limit = max(1, m.height-6)
		if m.tab == TabMessages {
			limit = max(1, limit/2)
		}
	}
	if limit > n {
		limit = n
	}
	rows := make([]int, limit)
	for i := range rows {
		rows[i] = i
	}
	return rows
}

func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	return string(r[:width-1]) + "…"
}
