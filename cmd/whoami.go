// ABOUTME: Whoami command for site-console CLI
// ABOUTME: Shows the stored user and, for JWT tokens, the unverified expiry claim

package cmd

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/kestreladvisory/site-console/internal/session"
	"github.com/spf13/cobra"
)

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Long: `Show the user stored with the current session.

The token is not checked against the backend. An expiry is shown for
information when the token is a JWT; the backend decides whether it is valid.`,
	Run: func(cmd *cobra.Command, args []string) {
		exitCode := runWhoami(os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(whoamiCmd)
}

// whoamiOutput is the JSON shape of the whoami command
type whoamiOutput struct {
	User      session.User `json:"user"`
	ExpiresAt *time.Time   `json:"expiresAt,omitempty"`
}

// runWhoami prints the session user and returns exit code
func runWhoami(w io.Writer) int {
	store := newStore()
	if code := requireSession(w, store); code != 0 {
		return code
	}
	s, _ := store.Get()

	out := whoamiOutput{User: s.User}
	if exp, ok := tokenExpiry(s.Token); ok {
		out.ExpiresAt = &exp
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(out))
	} else {
		fmt.Fprintln(w, formatWhoamiHuman(out, time.Now()))
	}
	return 0
}

// tokenExpiry reads the exp claim without verifying the signature
func tokenExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

func formatWhoamiHuman(out whoamiOutput, now time.Time) string {
	msg := fmt.Sprintf("Signed in as %s", formatUser(out.User))
	if out.User.ID != "" {
		msg += fmt.Sprintf("\nUser ID:        %s", out.User.ID)
	}
	if out.ExpiresAt != nil {
		state := "expires"
		if out.ExpiresAt.Before(now) {
			state = "expired"
		}
		msg += fmt.Sprintf("\nToken %s:  %s (not checked locally)", state, out.ExpiresAt.Local().Format(time.RFC1123))
	}
	return msg
}
