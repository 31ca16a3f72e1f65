// ABOUTME: Admin commands for site-console CLI
// ABOUTME: Lists newsletter subscribers and contact messages behind the session gate

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/spf13/cobra"
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Admin-only collections (requires login)",
	Long: `Read admin-only collections from the backend.

Exit codes:
  0 - Success
  1 - Request rejected by the backend
  2 - Not signed in, session expired, or connectivity error`,
}

var adminSubscribersCmd = &cobra.Command{
	Use:   "subscribers",
	Short: "List newsletter subscribers",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runAdminSubscribers(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var adminMessagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List contact-form messages",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runAdminMessages(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(adminCmd)
	adminCmd.AddCommand(adminSubscribersCmd)
	adminCmd.AddCommand(adminMessagesCmd)
}

// adminClient runs the gate, then builds a client for the stored session
func adminClient(w io.Writer) (*client.Client, int) {
	store := newStore()
	if code := requireSession(w, store); code != 0 {
		return nil, code
	}

	c, err := newClient(store, hintNavigator(w))
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return nil, 2
	}
	return c, 0
}

// runAdminSubscribers lists subscribers and returns exit code
func runAdminSubscribers(ctx context.Context, w io.Writer) int {
	c, code := adminClient(w)
	if c == nil {
		return code
	}

	subs, err := c.ListSubscribers(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(subs))
	} else {
		fmt.Fprintln(w, formatSubscribersHuman(subs))
	}
	return 0
}

// runAdminMessages lists contact messages and returns exit code
func runAdminMessages(ctx context.Context, w io.Writer) int {
	c, code := adminClient(w)
	if c == nil {
		return code
	}

	msgs, err := c.ListMessages(ctx)
	if err != nil {
		return reportError(w, err)
	}

	if IsJSONOutput() {
		fmt.Fprintln(w, formatJSON(msgs))
	} else {
		fmt.Fprintln(w, formatMessagesHuman(msgs))
	}
	return 0
}

func formatSubscribersHuman(subs []client.Subscriber) string {
	if len(subs) == 0 {
		return "No subscribers yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Subscribers (%d)\n", len(subs))
	for _, s := range subs {
		fmt.Fprintf(&sb, "\n  %-40s %s", s.Email, s.CreatedAt)
	}
	return sb.String()
}

func formatMessagesHuman(msgs []client.ContactMessage) string {
	if len(msgs) == 0 {
		return "No messages yet."
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Messages (%d)\n", len(msgs))
	for _, m := range msgs {
		from := fmt.Sprintf("%s <%s>", m.Name, m.Email)
		if m.Company != "" {
			from += ", " + m.Company
		}
		fmt.Fprintf(&sb, "\n%s  %s\n  %s\n", m.CreatedAt, from, m.Message)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// formatJSON indents any API payload
func formatJSON(v any) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}
