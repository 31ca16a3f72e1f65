// ABOUTME: Tests for the admin commands
// ABOUTME: Verifies the session gate, token attachment and forced sign-out exit codes

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/kestreladvisory/site-console/internal/client"
	"github.com/kestreladvisory/site-console/internal/session"
)

func TestAdminSubscribers_NotSignedIn(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()
	useBackend(t, server.URL)

	var buf bytes.Buffer
	if exitCode := runAdminSubscribers(context.Background(), &buf); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Not signed in") {
		t.Errorf("expected sign-in hint, got %q", buf.String())
	}
	if called {
		t.Error("expected no request before the gate allows it")
	}
}

func TestAdminSubscribers_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/subscribers" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "tok-123" {
			t.Errorf("expected raw token, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]client.Subscriber{
			{ID: "s1", Email: "reader@example.com", CreatedAt: "2026-01-02"},
			{ID: "s2", Email: "fan@example.com", CreatedAt: "2026-02-03"},
		})
	}))
	defer server.Close()
	dir := useBackend(t, server.URL)
	signIn(t, dir, "tok-123")

	var buf bytes.Buffer
	if exitCode := runAdminSubscribers(context.Background(), &buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d: %s", exitCode, buf.String())
	}
	for _, want := range []string{"Subscribers (2)", "reader@example.com", "fan@example.com"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("expected %q in output", want)
		}
	}
}

func TestAdminMessages_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/contact" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]client.ContactMessage{
			{ID: "m1", Name: "Grace", Email: "grace@example.com", Message: "Let's talk"},
		})
	}))
	defer server.Close()
	dir := useBackend(t, server.URL)
	signIn(t, dir, "tok")
	jsonOutput = true

	var buf bytes.Buffer
	if exitCode := runAdminMessages(context.Background(), &buf); exitCode != 0 {
		t.Fatalf("expected exit code 0, got %d", exitCode)
	}

	var parsed []client.ContactMessage
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(parsed) != 1 || parsed[0].Email != "grace@example.com" {
		t.Errorf("unexpected messages %+v", parsed)
	}
}

func TestAdminSubscribers_ForcedSignOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(client.ErrorResponse{Message: client.InvalidTokenMessage})
	}))
	defer server.Close()
	dir := useBackend(t, server.URL)
	signIn(t, dir, "stale")

	var buf bytes.Buffer
	if exitCode := runAdminSubscribers(context.Background(), &buf); exitCode != 2 {
		t.Errorf("expected exit code 2, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Session expired") {
		t.Errorf("expected session expired hint, got %q", buf.String())
	}
	if _, ok := session.NewFileStore(dir).Get(); ok {
		t.Error("expected stored session to be cleared")
	}
}

func TestAdminSubscribers_Generic401KeepsSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(client.ErrorResponse{Message: "Admin role required"})
	}))
	defer server.Close()
	dir := useBackend(t, server.URL)
	signIn(t, dir, "tok")

	var buf bytes.Buffer
	if exitCode := runAdminSubscribers(context.Background(), &buf); exitCode != 1 {
		t.Errorf("expected exit code 1, got %d", exitCode)
	}
	if !strings.Contains(buf.String(), "Admin role required") {
		t.Errorf("expected server message, got %q", buf.String())
	}
	if _, ok := session.NewFileStore(dir).Get(); !ok {
		t.Error("expected session to survive a generic 401")
	}
}

func TestFormatMessagesHuman_Empty(t *testing.T) {
	if got := formatMessagesHuman(nil); got != "No messages yet." {
		t.Errorf("unexpected output %q", got)
	}
	if got := formatSubscribersHuman(nil); got != "No subscribers yet." {
		t.Errorf("unexpected output %q", got)
	}
}
