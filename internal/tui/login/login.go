// ABOUTME: Sign-in screen for the interactive console
// ABOUTME: Collects credentials with a huh form and stores the session on success

package login

import (
	"context"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/recent"
	"github.com/kestreladvisory/site-console/internal/session"
	"github.com/kestreladvisory/site-console/internal/tui/icons"
	"github.com/kestreladvisory/site-console/internal/tui/styles"
	"github.com/kestreladvisory/site-console/internal/validate"
)

// Authenticator exchanges credentials for a session
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*client.LoginResponse, error)
}

// LoggedInMsg is sent after the session has been stored
type LoggedInMsg struct {
	User session.User
}

// ForgotPasswordMsg asks the app to open the reset flow
type ForgotPasswordMsg struct {
	Email string
}

// CancelledMsg is sent when the user leaves the sign-in screen
type CancelledMsg struct{}

type resultMsg struct {
	email string
	resp  *client.LoginResponse
	err   error
}

// Model is the sign-in screen
type Model struct {
	auth   Authenticator
	store  session.Store
	recent *recent.Emails

	form     *huh.Form
	email    string
	password string

	err        string
	notice     string
	submitting bool
	spinner    spinner.Model
	width      int
}

// New creates the sign-in screen. recentEmails may be nil.
func New(auth Authenticator, store session.Store, recentEmails *recent.Emails) *Model {
	m := &Model{
		auth:    auth,
		store:   store,
		recent:  recentEmails,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
	if recentEmails != nil {
		m.email = recentEmails.Latest()
	}
	m.form = m.newForm()
	return m
}

// SetNotice shows an informational line above the form
func (m *Model) SetNotice(text string) {
	m.notice = text
}

// SetWidth sets the screen width for rendering
func (m *Model) SetWidth(width int) {
	m.width = width
}

func (m *Model) newForm() *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Email").
				Placeholder("you@example.com").
				Value(&m.email).
				Validate(func(s string) error {
					return fieldErr(validate.Field("email", strings.TrimSpace(s), "required,looseemail", nil))
				}),
			huh.NewInput().
				Title("Password").
				EchoMode(huh.EchoModePassword).
				Value(&m.password).
				Validate(func(s string) error {
					return fieldErr(validate.Field("password", s, "required", nil))
				}),
		).Title(icons.Lock.String() + " Admin sign in").
			Description("ctrl+r to reset a forgotten password"),
	).WithTheme(styles.FormTheme()).WithShowHelp(false)
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return m.form.Init()
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case resultMsg:
		return m.handleResult(msg)

	case spinner.TickMsg:
		if !m.submitting {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if m.submitting {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, func() tea.Msg { return CancelledMsg{} }
		case "ctrl+r":
			email := strings.TrimSpace(m.email)
			return m, func() tea.Msg { return ForgotPasswordMsg{Email: email} }
		}
	}

	if m.submitting {
		return m, nil
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	if m.form.State == huh.StateCompleted {
		return m, m.submit()
	}
	return m, cmd
}

// submit starts the login request
func (m *Model) submit() tea.Cmd {
	m.submitting = true
	m.err = ""

	email := strings.TrimSpace(m.email)
	password := m.password
	auth := m.auth

	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		resp, err := auth.Login(context.Background(), email, password)
		return resultMsg{email: email, resp: resp, err: err}
	})
}

func (m *Model) handleResult(msg resultMsg) (tea.Model, tea.Cmd) {
	m.submitting = false
	m.password = ""

	if msg.err == nil && (msg.resp == nil || msg.resp.Token == "") {
		msg.err = errMissingToken
	}
	if msg.err != nil {
		slog.Warn("Sign-in failed", "email", msg.email, "error", msg.err)
		m.err = client.ErrorMessage(msg.err)
		m.form = m.newForm()
		return m, m.form.Init()
	}

	if err := m.store.Set(msg.resp.Token, msg.resp.User); err != nil {
		slog.Error("Failed to store session", "error", err)
	}
	if m.recent != nil {
		if err := m.recent.Add(msg.email); err != nil {
			slog.Warn("Failed to remember email", "error", err)
		}
	}
	slog.Info("Signed in", "email", msg.email)

	user := msg.resp.User
	return m, func() tea.Msg { return LoggedInMsg{User: user} }
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	if m.notice != "" {
		sb.WriteString(styles.StatusWarning.Render(m.notice))
		sb.WriteString("\n\n")
	}

	if m.submitting {
		sb.WriteString(m.spinner.View() + " Signing in...")
		return sb.String()
	}

	sb.WriteString(m.form.View())

	if m.err != "" {
		sb.WriteString("\n")
		sb.WriteString(styles.StatusCritical.Render(icons.Critical.String() + " " + m.err))
	}
	return sb.String()
}

// Email returns the address currently in the form
func (m *Model) Email() string {
	return m.email
}
