// ABOUTME: Root bubbletea model for the interactive console
// ABOUTME: Picks the first screen from the session gate and routes between login, reset and admin

package tui

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/recent"
	resetflow "github.com/kestreladvisory/site-console/internal/reset"
	"github.com/kestreladvisory/site-console/internal/session"
	"github.com/kestreladvisory/site-console/internal/tui/admin"
	"github.com/kestreladvisory/site-console/internal/tui/icons"
	"github.com/kestreladvisory/site-console/internal/tui/login"
	"github.com/kestreladvisory/site-console/internal/tui/reset"
	"github.com/kestreladvisory/site-console/internal/tui/styles"
	"github.com/kestreladvisory/site-console/internal/tui/toast"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenReset
	ScreenAdmin
)

// Layout constants
const (
	minTerminalWidth = 80 // Minimum width before clamping the frame
	panelPadding     = 4  // Total horizontal padding from panel borders (2 each side)
)

// SessionExpiredMsg is sent by the navigator after a forced sign-out
type SessionExpiredMsg struct{}

// API is everything the console screens call
type API interface {
	login.Authenticator
	resetflow.API
	admin.API
}

// App is the root model for the TUI
type App struct {
	api    API
	store  session.Store
	recent *recent.Emails
	apiURL string

	screen Screen
	width  int
	height int

	// Child models
	loginScreen *login.Model
	resetScreen *reset.Model
	adminScreen *admin.Model
	toast       *toast.Model
}

// New creates the console. The first screen comes from session.Authorize.
func New(api API, store session.Store, recentEmails *recent.Emails, apiURL string) *App {
	a := &App{
		api:    api,
		store:  store,
		recent: recentEmails,
		apiURL: apiURL,
		toast:  toast.New(),
	}

	if decision := session.Authorize(store); decision.Allow {
		a.showAdmin()
	} else {
		a.showLogin("")
	}
	return a
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	switch a.screen {
	case ScreenAdmin:
		return a.adminScreen.Init()
	case ScreenLogin:
		return a.loginScreen.Init()
	}
	return nil
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.adminScreen != nil {
			a.adminScreen.SetSize(a.contentWidth(), a.contentHeight())
		}
		if a.resetScreen != nil {
			a.resetScreen.SetWidth(a.contentWidth())
		}
		if a.loginScreen != nil {
			a.loginScreen.SetWidth(a.contentWidth())
			return a.updateLogin(msg)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if msg.String() == "q" && a.screen == ScreenAdmin {
			return a, tea.Quit
		}

	case SessionExpiredMsg:
		slog.Info("Session expired, returning to sign in")
		a.showLogin("Your session has expired. Please sign in again.")
		return a, tea.Batch(a.loginScreen.Init(), a.toast.Error("Session expired"))

	case login.LoggedInMsg:
		a.showAdmin()
		return a, tea.Batch(a.adminScreen.Init(), a.toast.Success("Signed in as "+msg.User.Email))

	case login.ForgotPasswordMsg:
		a.showReset(msg.Email)
		return a, a.resetScreen.Init()

	case login.CancelledMsg:
		return a, tea.Quit

	case reset.DoneMsg:
		if session.Authorize(a.store).Allow {
			a.showAdmin()
			return a, a.adminScreen.Init()
		}
		a.showLogin("")
		return a, a.loginScreen.Init()

	case reset.CancelledMsg:
		a.showLogin("")
		return a, a.loginScreen.Init()

	case admin.LogoutMsg:
		if err := a.store.Clear(); err != nil {
			slog.Error("Failed to clear session", "error", err)
		}
		a.showLogin("")
		return a, tea.Batch(a.loginScreen.Init(), a.toast.Success("Signed out"))
	}

	a.toast.Update(msg)

	switch a.screen {
	case ScreenLogin:
		return a.updateLogin(msg)
	case ScreenReset:
		return a.updateReset(msg)
	case ScreenAdmin:
		return a.updateAdmin(msg)
	}
	return a, nil
}

func (a *App) updateLogin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.loginScreen == nil {
		return a, nil
	}
	model, cmd := a.loginScreen.Update(msg)
	a.loginScreen = model.(*login.Model)
	return a, cmd
}

func (a *App) updateReset(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.resetScreen == nil {
		return a, nil
	}
	model, cmd := a.resetScreen.Update(msg)
	a.resetScreen = model.(*reset.Model)
	return a, cmd
}

func (a *App) updateAdmin(msg tea.Msg) (tea.Model, tea.Cmd) {
	if a.adminScreen == nil {
		return a, nil
	}
	model, cmd := a.adminScreen.Update(msg)
	a.adminScreen = model.(*admin.Model)
	return a, cmd
}

func (a *App) showLogin(notice string) {
	a.screen = ScreenLogin
	a.adminScreen = nil
	a.resetScreen = nil
	a.loginScreen = login.New(a.api, a.store, a.recent)
	a.loginScreen.SetWidth(a.contentWidth())
	a.loginScreen.SetNotice(notice)
}

func (a *App) showReset(email string) {
	a.screen = ScreenReset
	a.loginScreen = nil
	a.resetScreen = reset.New(resetflow.New(a.api, a.store), email)
	a.resetScreen.SetWidth(a.contentWidth())
}

func (a *App) showAdmin() {
	s, _ := a.store.Get()
	a.screen = ScreenAdmin
	a.loginScreen = nil
	a.resetScreen = nil
	a.adminScreen = admin.New(a.api, s.User, a.contentWidth(), a.contentHeight())
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.loginScreen.View()
	case ScreenReset:
		content = a.resetScreen.View()
	case ScreenAdmin:
		content = styles.ActivePanel.Width(a.contentWidth()).Render(a.adminScreen.View())
	}

	if a.toast.Visible() {
		content += "\n" + a.toast.View()
	}

	return a.wrapWithFrame(content)
}

// contentWidth calculates the width available inside the frame
func (a *App) contentWidth() int {
	if a.width < minTerminalWidth {
		return minTerminalWidth - panelPadding
	}
	return a.width - panelPadding
}

// contentHeight calculates the height available for screen content
func (a *App) contentHeight() int {
	// Total overhead:
	// - Header: 1 line
	// - Newline after header: 1 line
	// - ActivePanel border+padding: 4 lines
	// - Newline before footer: 1 line
	// - Footer: 1 line
	return a.height - 8
}

// frameWidth is the terminal width minus one column to avoid wrapping
func (a *App) frameWidth() int {
	width := a.width - 1
	if width < minTerminalWidth {
		width = minTerminalWidth
	}
	return width
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Site Console"))

	rightText := ""
	if s, ok := a.store.Get(); ok && a.screen == ScreenAdmin && s.User.Email != "" {
		rightText = " " + contextStyle.Render(s.User.Email) + " "
	} else if a.apiURL != "" {
		rightText = " " + contextStyle.Render(a.apiURL) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText) // -4 for ╭─ and ─╮
	if fillWidth < 0 {
		fillWidth = 0
	}

	header := "╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮"
	return borderStyle.Render(header)
}

// renderFooter creates the footer with keyboard shortcuts
func (a *App) renderFooter() string {
	width := a.frameWidth()

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)

	var shortcuts []string
	switch a.screen {
	case ScreenLogin:
		shortcuts = []string{"Enter Next", "ctrl+r Forgot password", "Esc " + icons.Quit.String() + " Quit"}
	case ScreenReset:
		shortcuts = []string{"Enter Continue", "Esc " + icons.Back.String() + " Back"}
	case ScreenAdmin:
		shortcuts = []string{
			"Tab Switch",
			"r " + icons.Refresh.String() + " Refresh",
			"l " + icons.Logout.String() + " Logout",
			"q " + icons.Quit.String() + " Quit",
		}
	}

	var styledShortcuts []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styledShortcuts = append(styledShortcuts, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styledShortcuts = append(styledShortcuts, s)
		}
	}

	leftText := " " + strings.Join(styledShortcuts, "  ") + " "
	leftPlainText := " " + strings.Join(shortcuts, "  ") + " "

	fillWidth := width - 4 - lipgloss.Width(leftPlainText) // -4 for ╰─ and ─╯
	if fillWidth < 0 {
		fillWidth = 0
	}

	footer := "╰─" + leftText + strings.Repeat("─", fillWidth) + "─╯"
	return borderStyle.Render(footer)
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Navigator turns a forced sign-out from the client into a SessionExpiredMsg.
// Redirects before the program starts are dropped; the gate handles them.
type Navigator struct {
	mu      sync.Mutex
	program *tea.Program
}

// NewNavigator creates a navigator with no program attached
func NewNavigator() *Navigator {
	return &Navigator{}
}

// Attach connects the running program
func (n *Navigator) Attach(p *tea.Program) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.program = p
}

// RedirectToLogin implements session.Navigator
func (n *Navigator) RedirectToLogin() {
	n.mu.Lock()
	p := n.program
	n.mu.Unlock()

	if p != nil {
		p.Send(SessionExpiredMsg{})
	}
}

// Run starts the console
func Run(c *client.Client, store session.Store, recentEmails *recent.Emails, nav *Navigator) error {
	app := New(c, store, recentEmails, c.BaseURL())

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
	)
	if nav != nil {
		nav.Attach(p)
	}
	_, err := p.Run()
	return err
}

// RunReset starts the standalone reset wizard
func RunReset(c *client.Client, store session.Store, email string) error {
	m := reset.New(resetflow.New(c, store), email)
	m.SetStandalone(true)

	_, err := tea.NewProgram(m).Run()
	return err
}
