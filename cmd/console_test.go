// ABOUTME: Tests for the interactive command helpers
// ABOUTME: Verifies logging moves to the debug file and what the reset wizard reports on exit

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/logger"
	"github.com/kestreladvisory/site-console/internal/session"
)

func TestLogToFile_WritesDebugLog(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	dir := useBackend(t, "http://localhost:1")

	var buf bytes.Buffer
	closeLog := logToFile(&buf)
	slog.Info("console started")
	closeLog()

	data, err := os.ReadFile(filepath.Join(dir, logger.DebugLogName))
	if err != nil {
		t.Fatalf("expected debug log: %v", err)
	}
	if !strings.Contains(string(data), "console started") {
		t.Errorf("expected log line in file, got %q", string(data))
	}
	if buf.Len() != 0 {
		t.Errorf("expected nothing on the terminal, got %q", buf.String())
	}
}

func TestLogToFile_FallsBackWhenUnwritable(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })
	useBackend(t, "http://localhost:1")

	// A regular file where the directory should be
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, nil, 0600); err != nil {
		t.Fatal(err)
	}
	configDir = filepath.Join(blocker, "nested")

	var buf bytes.Buffer
	closeLog := logToFile(&buf)
	defer closeLog()

	if !strings.Contains(buf.String(), "logging disabled") {
		t.Errorf("expected warning, got %q", buf.String())
	}
}

// stubResetWizard replaces the bubbletea program for one test
func stubResetWizard(t *testing.T, fn func(c *client.Client, store session.Store, email string) error) {
	t.Helper()
	prevLog := slog.Default()
	prev := runResetWizard
	runResetWizard = fn
	t.Cleanup(func() {
		runResetWizard = prev
		slog.SetDefault(prevLog)
		resetEmail = ""
	})
}

func TestRunReset_ReportsNewSession(t *testing.T) {
	useBackend(t, "http://localhost:1")
	stubResetWizard(t, func(c *client.Client, store session.Store, email string) error {
		return store.Set("fresh", session.User{Name: "Ada Lovelace", Email: email})
	})
	resetEmail = "ada@example.com"

	var buf bytes.Buffer
	if exitCode := runReset(&buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Signed in as Ada Lovelace <ada@example.com>") {
		t.Errorf("expected sign-in line, got %q", buf.String())
	}
}

func TestRunReset_ExistingSessionNotReported(t *testing.T) {
	dir := useBackend(t, "http://localhost:1")
	signIn(t, dir, "old-token")
	stubResetWizard(t, func(c *client.Client, store session.Store, email string) error {
		return nil
	})

	var buf bytes.Buffer
	if exitCode := runReset(&buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	if strings.Contains(buf.String(), "Signed in as") {
		t.Errorf("did not expect a sign-in line for an unchanged session, got %q", buf.String())
	}
}

func TestRunReset_ExpiryReportedAfterExit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(client.ErrorResponse{Message: client.InvalidTokenMessage})
	}))
	defer server.Close()
	dir := useBackend(t, server.URL)
	signIn(t, dir, "stale")

	var buf bytes.Buffer
	stubResetWizard(t, func(c *client.Client, store session.Store, email string) error {
		c.RequestReset(context.Background(), "ada@example.com")
		if buf.Len() != 0 {
			t.Errorf("expected nothing written while the wizard runs, got %q", buf.String())
		}
		return nil
	})

	if exitCode := runReset(&buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Session expired") {
		t.Errorf("expected expiry hint after exit, got %q", buf.String())
	}
	if _, ok := session.NewFileStore(dir).Get(); ok {
		t.Error("expected stale session to be cleared")
	}
}
