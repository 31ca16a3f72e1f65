// ABOUTME: Interactive commands for site-console CLI
// ABOUTME: Starts the full-screen console or the standalone password reset wizard

package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/kestreladvisory/site-console/internal/logger"
	"github.com/kestreladvisory/site-console/internal/recent"
	"github.com/kestreladvisory/site-console/internal/tui"
	"github.com/spf13/cobra"
)

var resetEmail string

var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the interactive console",
	Long: `Open the full-screen console. Starts at the admin dashboard when a
session is stored and at sign in otherwise.

Logs go to debug.log in the config directory while the console is open.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runConsole(os.Stderr)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset a forgotten password",
	Long: `Walk through password recovery: request a code by email, enter the
5-digit code, then choose a new password.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runReset(os.Stderr)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
	rootCmd.AddCommand(resetCmd)
	resetCmd.Flags().StringVar(&resetEmail, "email", "", "Account email to pre-fill")
}

// logToFile moves logging off the terminal while a bubbletea program owns it
func logToFile(w io.Writer) func() {
	path := ""
	level, format := "info", "text"
	if settings != nil {
		path, level, format = settings.LogFile, settings.LogLevel, settings.LogFormat
	}

	f, err := logger.OpenFile(path, GetConfigDir())
	if err != nil {
		fmt.Fprintf(w, "Warning: logging disabled: %v\n", err)
		logger.Init(io.Discard, level, format)
		return func() {}
	}
	logger.Init(f, level, format)
	return func() { f.Close() }
}

// runConsole starts the interactive console and returns exit code
func runConsole(w io.Writer) int {
	closeLog := logToFile(w)
	defer closeLog()

	store := newStore()
	nav := tui.NewNavigator()
	c, err := newClient(store, nav)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	slog.Info("Starting console", "api_url", c.BaseURL())
	if err := tui.Run(c, store, recent.New(GetConfigDir()), nav); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}

// runResetWizard is replaced in tests
var runResetWizard = tui.RunReset

// expiryNotice holds a forced sign-out back until the wizard has released
// the terminal
type expiryNotice struct {
	mu      sync.Mutex
	expired bool
}

// RedirectToLogin implements session.Navigator
func (n *expiryNotice) RedirectToLogin() {
	slog.Warn("Session expired while the reset wizard was open")
	n.mu.Lock()
	n.expired = true
	n.mu.Unlock()
}

func (n *expiryNotice) report(w io.Writer) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.expired {
		fmt.Fprintln(w, sessionExpiredHint)
	}
}

// runReset starts the standalone reset wizard and returns exit code
func runReset(w io.Writer) int {
	closeLog := logToFile(w)
	defer closeLog()

	store := newStore()
	notice := &expiryNotice{}
	c, err := newClient(store, notice)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	email := resetEmail
	if email == "" {
		email = recent.New(GetConfigDir()).Latest()
	}

	before, hadSession := store.Get()

	slog.Info("Starting password reset", "api_url", c.BaseURL())
	err = runResetWizard(c, store, email)
	notice.report(w)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if after, ok := store.Get(); ok && (!hadSession || after.Token != before.Token) {
		fmt.Fprintf(w, "Signed in as %s\n", formatUser(after.User))
	}
	return 0
}
