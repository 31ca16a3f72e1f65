// ABOUTME: Login and logout commands for site-console CLI
// ABOUTME: Reads the password without echo and persists the session on success

package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/kestreladvisory/site-console/internal/recent"
	"github.com/kestreladvisory/site-console/internal/session"
	"github.com/kestreladvisory/site-console/internal/tui/styles"
	"github.com/kestreladvisory/site-console/internal/validate"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	loginEmail string
	logoutYes  bool
)

// Terminal seams, replaced in tests
var (
	readPassword  = readPasswordFromTerminal
	promptEmail   = promptEmailFromStdin
	confirmLogout = confirmLogoutInteractive
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in as a site administrator",
	Long: `Sign in and store the session token in the config directory.

The password is read from the terminal without echo.

Exit codes:
  0 - Signed in
  1 - Credentials rejected by the backend
  2 - Error (connectivity, invalid input)`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out and forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runLogout(os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email (prompted when omitted)")
	logoutCmd.Flags().BoolVarP(&logoutYes, "yes", "y", false, "Skip the confirmation prompt")
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer) int {
	recentEmails := recent.New(GetConfigDir())

	email := strings.TrimSpace(loginEmail)
	if email == "" {
		var err error
		email, err = promptEmail(recentEmails.Latest())
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		email = strings.TrimSpace(email)
	}
	if msg := validate.Field("email", email, "required,looseemail", nil); msg != "" {
		fmt.Fprintf(w, "Error: %s\n", msg)
		return 2
	}

	password, err := readPassword()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if msg := validate.Field("password", password, "required", nil); msg != "" {
		fmt.Fprintf(w, "Error: %s\n", msg)
		return 2
	}

	store := newStore()
	c, err := newClient(store, hintNavigator(w))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	resp, err := c.Login(ctx, email, password)
	if err != nil {
		return reportError(w, err)
	}
	if resp.Token == "" {
		fmt.Fprintln(w, "Error: backend returned no token")
		return 2
	}

	if err := store.Set(resp.Token, resp.User); err != nil {
		slog.Error("Failed to store session", "error", err)
	}
	if err := recentEmails.Add(email); err != nil {
		slog.Warn("Failed to remember email", "error", err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(resp.User))
	} else {
		fmt.Fprintf(w, "Signed in as %s\n", formatUser(resp.User))
	}
	return 0
}

// runLogout clears the stored session and returns exit code
func runLogout(w io.Writer) int {
	store := newStore()

	s, ok := store.Get()
	if !ok {
		// A half-written session file reads as signed out but still exists
		if err := store.Clear(); err != nil {
			slog.Error("Failed to clear session", "error", err)
		}
		fmt.Fprintln(w, "Not signed in.")
		return 0
	}

	if !logoutYes {
		confirmed, err := confirmLogout(s.User.Email)
		if err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				return 1
			}
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
		if !confirmed {
			fmt.Fprintln(w, "Still signed in.")
			return 1
		}
	}

	if err := store.Clear(); err != nil {
		slog.Error("Failed to clear session", "error", err)
	}
	fmt.Fprintln(w, "Signed out.")
	return 0
}

// formatUser renders "Name <email> (role)", dropping empty parts
func formatUser(u session.User) string {
	var parts []string
	if u.Name != "" {
		parts = append(parts, u.Name)
	}
	if u.Email != "" {
		if u.Name != "" {
			parts = append(parts, "<"+u.Email+">")
		} else {
			parts = append(parts, u.Email)
		}
	}
	if u.Role != "" {
		parts = append(parts, "("+u.Role+")")
	}
	if len(parts) == 0 {
		return "unknown user"
	}
	return strings.Join(parts, " ")
}

func readPasswordFromTerminal() (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		// Piped input: first line is the password
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fmt.Fprint(os.Stderr, "Password: ")
	data, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(data), nil
}

func promptEmailFromStdin(suggested string) (string, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return "", errors.New("no email given; pass --email")
	}

	if suggested != "" {
		fmt.Fprintf(os.Stderr, "Email [%s]: ", suggested)
	} else {
		fmt.Fprint(os.Stderr, "Email: ")
	}
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return suggested, nil
	}
	return line, nil
}

func confirmLogoutInteractive(email string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return true, nil
	}

	confirmed := true
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Sign out %s?", email)).
				Affirmative("Sign out").
				Negative("Cancel").
				Value(&confirmed),
		),
	).WithTheme(styles.FormTheme()).Run()
	return confirmed, err
}
