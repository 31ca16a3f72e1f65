// ABOUTME: Tests for the login and logout commands
// ABOUTME: Verifies validation, session persistence and exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/recent"
	"github.com/kestreladvisory/site-console/internal/session"
)

// withTerminal replaces the prompt seams for one test
func withTerminal(t *testing.T, email, password string) {
	t.Helper()
	prevPassword, prevEmail := readPassword, promptEmail
	readPassword = func() (string, error) { return password, nil }
	promptEmail = func(string) (string, error) { return email, nil }
	t.Cleanup(func() {
		readPassword, promptEmail = prevPassword, prevEmail
		loginEmail = ""
	})
}

func loginServer(t *testing.T, got *client.LoginRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/login" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(got)

		w.Header().Set("Content-Type", "application/json")
		if got.Password != "correct horse" {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(client.ErrorResponse{Message: "Invalid credentials"})
			return
		}
		json.NewEncoder(w).Encode(client.LoginResponse{
			Token: "jwt-token",
			User:  session.User{ID: "u1", Name: "Ada Lovelace", Email: got.Email, Role: "admin"},
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestLoginCommand_Success(t *testing.T) {
	var req client.LoginRequest
	server := loginServer(t, &req)
	dir := useBackend(t, server.URL)
	withTerminal(t, "", "correct horse")
	loginEmail = "ada@example.com"

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf)

	if exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if !strings.Contains(buf.String(), "Signed in as Ada Lovelace <ada@example.com> (admin)") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if req.Email != "ada@example.com" {
		t.Errorf("expected email sent to backend, got %q", req.Email)
	}

	s, ok := session.NewFileStore(dir).Get()
	if !ok || s.Token != "jwt-token" {
		t.Errorf("expected stored token, got %+v (ok=%v)", s, ok)
	}
	if got := recent.New(dir).Latest(); got != "ada@example.com" {
		t.Errorf("expected email remembered, got %q", got)
	}
}

func TestLoginCommand_PromptsForEmail(t *testing.T) {
	var req client.LoginRequest
	server := loginServer(t, &req)
	useBackend(t, server.URL)
	withTerminal(t, "  grace@example.com ", "correct horse")

	var buf bytes.Buffer
	if exitCode := runLogin(context.Background(), &buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	if req.Email != "grace@example.com" {
		t.Errorf("expected trimmed prompted email, got %q", req.Email)
	}
}

func TestLoginCommand_Rejected(t *testing.T) {
	var req client.LoginRequest
	server := loginServer(t, &req)
	dir := useBackend(t, server.URL)
	withTerminal(t, "", "wrong")
	loginEmail = "ada@example.com"

	var buf bytes.Buffer
	exitCode := runLogin(context.Background(), &buf)

	if exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Invalid credentials") {
		t.Errorf("expected server message, got %q", buf.String())
	}
	if _, ok := session.NewFileStore(dir).Get(); ok {
		t.Error("expected no session after rejection")
	}
}

func TestLoginCommand_ValidationBeforeRequest(t *testing.T) {
	tests := []struct {
		name     string
		email    string
		password string
		want     string
	}{
		{"malformed email", "ada", "pw", "Please enter a valid email address"},
		{"empty password", "ada@example.com", "", "Password is required"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			called := false
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
			}))
			defer server.Close()
			useBackend(t, server.URL)
			withTerminal(t, "", tc.password)
			loginEmail = tc.email

			var buf bytes.Buffer
			if exitCode := runLogin(context.Background(), &buf); exitCode != 2 {
				t.Errorf("expected exit code 2, got %d", exitCode)
			}
			if !strings.Contains(buf.String(), tc.want) {
				t.Errorf("expected %q, got %q", tc.want, buf.String())
			}
			if called {
				t.Error("expected no request for invalid input")
			}
		})
	}
}

func TestLoginCommand_PasswordReadError(t *testing.T) {
	useBackend(t, "http://localhost:1")
	withTerminal(t, "", "")
	readPassword = func() (string, error) { return "", errors.New("no tty") }
	loginEmail = "ada@example.com"

	var buf bytes.Buffer
	if exitCode := runLogin(context.Background(), &buf); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
}

func TestLogoutCommand(t *testing.T) {
	dir := useBackend(t, "http://localhost:1")
	signIn(t, dir, "tok")

	prev := confirmLogout
	confirmLogout = func(email string) (bool, error) {
		if email != "ada@example.com" {
			t.Errorf("expected confirmation for ada@example.com, got %q", email)
		}
		return true, nil
	}
	defer func() { confirmLogout = prev }()

	var buf bytes.Buffer
	if exitCode := runLogout(&buf); exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if _, ok := session.NewFileStore(dir).Get(); ok {
		t.Error("expected session to be cleared")
	}

	// Second logout is a no-op
	buf.Reset()
	if exitCode := runLogout(&buf); exitCode != 0 {
		t.Errorf("expected exit code 0 on repeat, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Not signed in") {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestLogoutCommand_Declined(t *testing.T) {
	dir := useBackend(t, "http://localhost:1")
	signIn(t, dir, "tok")

	prev := confirmLogout
	confirmLogout = func(string) (bool, error) { return false, nil }
	defer func() { confirmLogout = prev }()

	var buf bytes.Buffer
	if exitCode := runLogout(&buf); exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if _, ok := session.NewFileStore(dir).Get(); !ok {
		t.Error("expected session to survive a declined logout")
	}
}

func TestLogoutCommand_YesSkipsPrompt(t *testing.T) {
	dir := useBackend(t, "http://localhost:1")
	signIn(t, dir, "tok")

	prev := confirmLogout
	confirmLogout = func(string) (bool, error) {
		t.Error("did not expect a prompt with --yes")
		return false, nil
	}
	logoutYes = true
	defer func() { confirmLogout = prev; logoutYes = false }()

	var buf bytes.Buffer
	if exitCode := runLogout(&buf); exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
}

func TestFormatUser(t *testing.T) {
	tests := []struct {
		user session.User
		want string
	}{
		{session.User{Name: "Ada", Email: "ada@example.com", Role: "admin"}, "Ada <ada@example.com> (admin)"},
		{session.User{Email: "ada@example.com"}, "ada@example.com"},
		{session.User{}, "unknown user"},
	}
	for _, tc := range tests {
		if got := formatUser(tc.user); got != tc.want {
			t.Errorf("formatUser(%+v) = %q, want %q", tc.user, got, tc.want)
		}
	}
}

func TestLogoutCommand_RemovesHalfWrittenSession(t *testing.T) {
	dir := useBackend(t, "http://localhost:1")
	store := session.NewFileStore(dir)
	if err := os.WriteFile(store.Path(), []byte(`{"token":"orphan"}`), 0600); err != nil {
		t.Fatalf("failed to seed session file: %v", err)
	}

	var buf bytes.Buffer
	if exitCode := runLogout(&buf); exitCode != 0 {
		t.Errorf("expected exit code 0, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Not signed in") {
		t.Errorf("unexpected output %q", buf.String())
	}
	if _, err := os.Stat(store.Path()); !os.IsNotExist(err) {
		t.Errorf("expected session file removed, stat error %v", err)
	}
}
