// ABOUTME: Password reset wizard as a bubbletea model
// ABOUTME: Renders each reset step with inline field errors, code boxes and a progress indicator

package reset

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	resetflow "github.com/kestreladvisory/site-console/internal/reset"
	"github.com/kestreladvisory/site-console/internal/tui/icons"
	"github.com/kestreladvisory/site-console/internal/tui/styles"
	"github.com/kestreladvisory/site-console/internal/tui/toast"
	"github.com/kestreladvisory/site-console/internal/validate"
)

// DoneMsg is sent when the user leaves the success screen
type DoneMsg struct{}

// CancelledMsg is sent when the user backs out of the first step
type CancelledMsg struct{}

const (
	actionRequest  = "request"
	actionResend   = "resend"
	actionVerify   = "verify"
	actionFinalize = "finalize"
)

type actionDoneMsg struct {
	action string
	err    error
}

// Step names for progress indicator
var stepNames = []string{"Email", "Verify code", "New password", "Done"}

// Model drives a reset.Flow from the keyboard
type Model struct {
	flow *resetflow.Flow

	email      textinput.Model
	newPw      textinput.Model
	confirmPw  textinput.Model
	pwFocus    int
	cursor     int
	spinner    spinner.Model
	toast      *toast.Model
	standalone bool
	width      int
}

// New creates the wizard. email pre-fills the first step.
func New(flow *resetflow.Flow, email string) *Model {
	m := &Model{
		flow:    flow,
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
		toast:   toast.New(),
	}

	m.email = textinput.New()
	m.email.Placeholder = "you@example.com"
	m.email.Prompt = icons.Mail.String() + " "
	m.email.CharLimit = 254
	if email != "" {
		m.email.SetValue(email)
		flow.SetEmail(email)
	}
	m.email.Focus()

	m.newPw = passwordInput("New password")
	m.confirmPw = passwordInput("Confirm password")

	return m
}

func passwordInput(placeholder string) textinput.Model {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.Prompt = icons.Key.String() + " "
	ti.EchoMode = textinput.EchoPassword
	ti.EchoCharacter = '•'
	ti.CharLimit = 128
	return ti
}

// SetStandalone makes the wizard quit the program when it finishes
func (m *Model) SetStandalone(standalone bool) {
	m.standalone = standalone
}

// SetWidth sets the wizard width for proper rendering
func (m *Model) SetWidth(width int) {
	m.width = width
}

// Flow returns the underlying state machine
func (m *Model) Flow() *resetflow.Flow {
	return m.flow
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case actionDoneMsg:
		return m, m.handleDone(msg)

	case spinner.TickMsg:
		if !m.flow.Loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case DoneMsg, CancelledMsg:
		if m.standalone {
			return m, tea.Quit
		}
		return m, nil

	case tea.KeyMsg:
		if m.standalone && msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.flow.Step() {
		case resetflow.StepEmail:
			return m.updateEmail(msg)
		case resetflow.StepOTP:
			return m.updateOTP(msg)
		case resetflow.StepPassword:
			return m.updatePassword(msg)
		case resetflow.StepSuccess:
			return m.updateSuccess(msg)
		}
	}

	m.toast.Update(msg)
	return m, m.updateFocusedInput(msg)
}

func (m *Model) updateEmail(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return m, m.run(actionRequest, m.flow.RequestCode)
	case "esc":
		return m, func() tea.Msg { return CancelledMsg{} }
	}

	var cmd tea.Cmd
	m.email, cmd = m.email.Update(msg)
	m.flow.SetEmail(strings.TrimSpace(m.email.Value()))
	return m, cmd
}

func (m *Model) updateOTP(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	last := resetflow.CodeLength - 1

	if msg.Paste {
		if m.flow.PasteCode(string(msg.Runes)) {
			m.cursor = last
			return m, m.run(actionVerify, m.flow.VerifyCode)
		}
		return m, nil
	}

	switch msg.String() {
	case "esc":
		m.back()
		return m, nil
	case "ctrl+r":
		return m, m.run(actionResend, m.flow.Resend)
	case "enter":
		return m, m.run(actionVerify, m.flow.VerifyCode)
	case "left":
		if m.cursor > 0 {
			m.cursor--
		}
		return m, nil
	case "right":
		if m.cursor < last {
			m.cursor++
		}
		return m, nil
	case "backspace":
		if m.flow.Digits()[m.cursor] == "" && m.cursor > 0 {
			m.cursor--
		}
		m.flow.ClearDigit(m.cursor)
		return m, nil
	}

	if msg.Type != tea.KeyRunes || len(msg.Runes) != 1 || !validate.IsDigits(string(msg.Runes)) {
		return m, nil
	}

	complete := m.flow.EnterDigit(m.cursor, string(msg.Runes))
	if m.cursor < last {
		m.cursor++
	}
	if complete {
		return m, m.run(actionVerify, m.flow.VerifyCode)
	}
	return m, nil
}

func (m *Model) updatePassword(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.back()
		return m, nil
	case "tab", "shift+tab", "up", "down":
		m.focusPassword(1 - m.pwFocus)
		return m, nil
	case "enter":
		return m, m.run(actionFinalize, m.flow.Finalize)
	}

	var cmd tea.Cmd
	if m.pwFocus == 0 {
		m.newPw, cmd = m.newPw.Update(msg)
		m.flow.SetNewPassword(m.newPw.Value())
	} else {
		m.confirmPw, cmd = m.confirmPw.Update(msg)
		m.flow.SetConfirmPassword(m.confirmPw.Value())
	}
	return m, cmd
}

func (m *Model) updateSuccess(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", "q":
		return m, func() tea.Msg { return DoneMsg{} }
	}
	return m, nil
}

// updateFocusedInput forwards non-key messages such as cursor blink
func (m *Model) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch m.flow.Step() {
	case resetflow.StepEmail:
		m.email, cmd = m.email.Update(msg)
	case resetflow.StepPassword:
		if m.pwFocus == 0 {
			m.newPw, cmd = m.newPw.Update(msg)
		} else {
			m.confirmPw, cmd = m.confirmPw.Update(msg)
		}
	}
	return cmd
}

// run performs one flow action off the UI goroutine
func (m *Model) run(action string, fn func(context.Context) error) tea.Cmd {
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		return actionDoneMsg{action: action, err: fn(context.Background())}
	})
}

func (m *Model) handleDone(msg actionDoneMsg) tea.Cmd {
	var verr *resetflow.ValidationError
	switch {
	case msg.err == nil:
	case errors.Is(msg.err, resetflow.ErrSuperseded):
		return nil
	case errors.As(msg.err, &verr):
		// Shown inline next to the fields
		return nil
	default:
		return m.toast.Error(resetflow.Message(msg.err))
	}

	switch msg.action {
	case actionRequest:
		m.cursor = 0
		m.email.Blur()
		return m.toast.Success("Reset code sent to " + m.flow.Email())
	case actionResend:
		m.cursor = 0
		return m.toast.Success("A new code has been sent")
	case actionVerify:
		m.focusPassword(0)
		return m.toast.Success("Code verified")
	case actionFinalize:
		m.newPw.Reset()
		m.confirmPw.Reset()
		m.newPw.Blur()
		m.confirmPw.Blur()
		return m.toast.Success("Password reset successfully")
	}
	return nil
}

func (m *Model) back() {
	if err := m.flow.Back(); err != nil {
		return
	}
	switch m.flow.Step() {
	case resetflow.StepEmail:
		m.email.Focus()
	case resetflow.StepOTP:
		m.newPw.Blur()
		m.confirmPw.Blur()
		m.cursor = 0
	}
}

func (m *Model) focusPassword(i int) {
	m.pwFocus = i
	if i == 0 {
		m.newPw.Focus()
		m.confirmPw.Blur()
	} else {
		m.confirmPw.Focus()
		m.newPw.Blur()
	}
}

// View implements tea.Model
func (m *Model) View() string {
	var sb strings.Builder

	sb.WriteString(m.renderProgress())
	sb.WriteString("\n\n")

	errs := m.flow.Errors()

	switch m.flow.Step() {
	case resetflow.StepEmail:
		sb.WriteString(styles.Title.Render(icons.Key.String() + " Forgot your password?"))
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render("Enter your email and we'll send you a 5-digit code."))
		sb.WriteString("\n")
		sb.WriteString(m.email.View())
		sb.WriteString(fieldError(errs[resetflow.FieldEmail]))

	case resetflow.StepOTP:
		sb.WriteString(styles.Title.Render(icons.Mail.String() + " Check your email"))
		sb.WriteString("\n")
		sb.WriteString(styles.Subtitle.Render("Enter the code sent to " + m.flow.Email()))
		sb.WriteString("\n")
		sb.WriteString(m.renderCode(errs[resetflow.FieldOTP] != ""))
		sb.WriteString(fieldError(errs[resetflow.FieldOTP]))

	case resetflow.StepPassword:
		sb.WriteString(styles.Title.Render(icons.Lock.String() + " Choose a new password"))
		sb.WriteString("\n")
		sb.WriteString(m.newPw.View())
		sb.WriteString(fieldError(errs[resetflow.FieldNewPassword]))
		sb.WriteString("\n")
		sb.WriteString(m.confirmPw.View())
		sb.WriteString(fieldError(errs[resetflow.FieldConfirmPassword]))

	case resetflow.StepSuccess:
		sb.WriteString(styles.StatusOK.Render(icons.CheckOK.String() + " Password reset"))
		sb.WriteString("\n\n")
		sb.WriteString("Your password has been changed. Press Enter to sign in.")
	}

	sb.WriteString("\n")
	if m.flow.Loading() {
		sb.WriteString("\n" + m.spinner.View() + " Working...")
	}
	if m.toast.Visible() {
		sb.WriteString("\n" + m.toast.View())
	}
	sb.WriteString("\n")
	sb.WriteString(styles.Help.Render(m.help()))

	return sb.String()
}

func (m *Model) help() string {
	switch m.flow.Step() {
	case resetflow.StepEmail:
		return "enter send code • esc cancel"
	case resetflow.StepOTP:
		return "0-9 enter digit • ←→ move • enter verify • ctrl+r resend • esc back"
	case resetflow.StepPassword:
		return "tab switch field • enter reset password • esc back"
	default:
		return "enter continue"
	}
}

func fieldError(msg string) string {
	if msg == "" {
		return ""
	}
	return "\n" + styles.FieldError.Render(icons.Critical.String()+" "+msg)
}

// renderCode draws one box per digit with the cursor highlighted
func (m *Model) renderCode(hasError bool) string {
	digits := m.flow.Digits()
	boxes := make([]string, 0, len(digits))
	for i, d := range digits {
		style := styles.DigitBox
		switch {
		case i == m.cursor:
			style = styles.DigitBoxFocused
		case hasError:
			style = styles.DigitBoxError
		}
		if d == "" {
			d = " "
		}
		boxes = append(boxes, style.Render(d))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, boxes...)
}

// renderProgress renders the step progress indicator
func (m *Model) renderProgress() string {
	width := m.width - 1
	if width < 60 {
		width = 60
	}

	current := int(m.flow.Step()) + 1
	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary)

	var steps []string
	for i, name := range stepNames {
		stepNum := i + 1
		var indicator string
		var nameStyle lipgloss.Style

		if stepNum < current {
			indicator = lipgloss.NewStyle().Foreground(styles.Secondary).Render(icons.CheckOK.String())
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		} else if stepNum == current {
			indicator = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true).Render("●")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
		} else {
			indicator = lipgloss.NewStyle().Foreground(styles.Muted).Render("○")
			nameStyle = lipgloss.NewStyle().Foreground(styles.Muted)
		}

		steps = append(steps, fmt.Sprintf("%s %s", indicator, nameStyle.Render(name)))
	}
	stepsLine := strings.Join(steps, "    ")

	// Progress line format: "│  " + bar + " │" = 5 chars overhead
	progressBar := styles.StepBar(current, len(stepNames), width-5)

	styledTitle := titleStyle.Render("Reset password")
	titleWidth := lipgloss.Width("Reset password")

	topFillWidth := max(0, width-5-titleWidth)
	topBorder := "┌─ " + styledTitle + " " + strings.Repeat("─", topFillWidth) + "┐"

	stepsPadding := max(0, width-4-lipgloss.Width(stepsLine))
	stepsLinePadded := "│ " + stepsLine + strings.Repeat(" ", stepsPadding) + " │"

	progressLinePadded := "│  " + progressBar + " │"
	bottomBorder := "└" + strings.Repeat("─", width-2) + "┘"

	return borderStyle.Render(strings.Join([]string{
		topBorder,
		stepsLinePadded,
		progressLinePadded,
		bottomBorder,
	}, "\n"))
}
