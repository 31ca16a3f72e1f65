// ABOUTME: Tests for the site API client
// ABOUTME: Uses httptest to mock backend responses and session rejection

package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kestreladvisory/site-console/internal/session"
)

func signedInStore(t *testing.T, token string) *session.MemoryStore {
	t.Helper()
	store := session.NewMemoryStore()
	if err := store.Set(token, session.User{ID: "u1", Name: "Ada", Email: "ada@example.com", Role: "admin"}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	return store
}

func rejectWith(status int, message string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]string{"message": message})
	}
}

func TestDo_AttachesTokenVerbatim(t *testing.T) {
	var gotAuth, gotRequestID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		json.NewEncoder(w).Encode([]Service{})
	}))
	defer server.Close()

	c := New(server.URL, WithStore(signedInStore(t, "abc.def.ghi")))
	if _, err := c.ListServices(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAuth != "abc.def.ghi" {
		t.Errorf("expected raw token in Authorization, got %q", gotAuth)
	}
	if gotRequestID == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestDo_NoTokenNoHeader(t *testing.T) {
	var present bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, present = r.Header["Authorization"]
		json.NewEncoder(w).Encode([]Leader{})
	}))
	defer server.Close()

	c := New(server.URL, WithStore(session.NewMemoryStore()))
	if _, err := c.ListLeaders(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if present {
		t.Error("expected no Authorization header without a token")
	}
}

func TestDo_InvalidTokenForcesSignOut(t *testing.T) {
	server := httptest.NewServer(rejectWith(http.StatusUnauthorized, "Token is not valid"))
	defer server.Close()

	store := signedInStore(t, "stale")
	redirects := 0
	c := New(server.URL,
		WithStore(store),
		WithNavigator(session.NavigatorFunc(func() {
			// The store is already empty by the time the redirect runs
			if _, ok := store.Get(); ok {
				t.Error("expected store cleared before redirect")
			}
			redirects++
		})),
	)

	_, err := c.ListSubscribers(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !errors.Is(err, ErrSessionInvalidated) {
		t.Errorf("expected ErrSessionInvalidated, got %v", err)
	}

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T", err)
	}
	if apiErr.Status != http.StatusUnauthorized || apiErr.Message != "Token is not valid" {
		t.Errorf("expected original rejection, got %+v", apiErr)
	}
	if redirects != 1 {
		t.Errorf("expected 1 redirect, got %d", redirects)
	}
	if _, ok := store.Get(); ok {
		t.Error("expected token and user removed")
	}
}

func TestDo_OtherRejectionsPassThrough(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
	}{
		{"generic 401", http.StatusUnauthorized, "Unauthorized"},
		{"expired wording", http.StatusUnauthorized, "Token expired"},
		{"case differs", http.StatusUnauthorized, "token is not valid"},
		{"403 with same message", http.StatusForbidden, "Token is not valid"},
		{"server error", http.StatusInternalServerError, "boom"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(rejectWith(tc.status, tc.message))
			defer server.Close()

			store := signedInStore(t, "tok")
			redirected := false
			c := New(server.URL,
				WithStore(store),
				WithNavigator(session.NavigatorFunc(func() { redirected = true })),
			)

			_, err := c.ListMessages(context.Background())
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *APIError, got %v", err)
			}
			if apiErr.Status != tc.status || apiErr.Message != tc.message {
				t.Errorf("expected %d %q, got %+v", tc.status, tc.message, apiErr)
			}
			if errors.Is(err, ErrSessionInvalidated) {
				t.Error("did not expect session invalidation")
			}
			if redirected {
				t.Error("did not expect redirect")
			}
			if _, ok := store.Get(); !ok {
				t.Error("expected session to survive")
			}
		})
	}
}

func TestDo_CustomInvalidationPolicy(t *testing.T) {
	server := httptest.NewServer(rejectWith(http.StatusUnauthorized, "Token expired"))
	defer server.Close()

	store := signedInStore(t, "tok")
	c := New(server.URL,
		WithStore(store),
		WithInvalidationPolicy(func(e *APIError) bool { return e.Status == http.StatusUnauthorized }),
	)

	_, err := c.ListSubscribers(context.Background())
	if !errors.Is(err, ErrSessionInvalidated) {
		t.Errorf("expected ErrSessionInvalidated, got %v", err)
	}
	if _, ok := store.Get(); ok {
		t.Error("expected store cleared")
	}
}

func TestDo_ErrorFieldFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "bad input"})
	}))
	defer server.Close()

	_, err := New(server.URL).ListInsights(context.Background())
	if err == nil || !strings.Contains(err.Error(), "bad input") {
		t.Errorf("expected error containing 'bad input', got %v", err)
	}
}

func TestDo_NonJSONError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>gateway</html>"))
	}))
	defer server.Close()

	_, err := New(server.URL).ListIndustries(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusBadGateway {
		t.Errorf("expected 502, got %d", apiErr.Status)
	}
	if apiErr.Error() != "backend returned status 502" {
		t.Errorf("unexpected message %q", apiErr.Error())
	}
}

func TestDo_ConnectionError(t *testing.T) {
	c := New("http://localhost:99999")
	_, err := c.ListServices(context.Background())
	if err == nil {
		t.Fatal("expected connection error, got nil")
	}
	if !strings.Contains(err.Error(), "cannot connect to backend") {
		t.Errorf("expected connection message, got %v", err)
	}
}

func TestDo_ContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		json.NewEncoder(w).Encode([]Service{})
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel() // Cancel immediately

	_, err := New(server.URL).ListServices(ctx)
	if err == nil || err.Error() != "request canceled" {
		t.Errorf("expected 'request canceled', got %v", err)
	}
}

func TestDo_InvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	_, err := New(server.URL).ListLeaders(context.Background())
	if err == nil || !strings.Contains(err.Error(), "invalid response") {
		t.Errorf("expected invalid response error, got %v", err)
	}
}

func TestLogin_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/users/login" {
			t.Errorf("expected POST /users/login, got %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %q", ct)
		}
		var req LoginRequest
		json.NewDecoder(r.Body).Decode(&req)
		if req.Email != "ada@example.com" || req.Password != "hunter22" {
			t.Errorf("unexpected body %+v", req)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"token": "tok-1",
			"user":  map[string]string{"id": "u1", "name": "Ada", "email": "ada@example.com", "role": "admin"},
		})
	}))
	defer server.Close()

	resp, err := New(server.URL).Login(context.Background(), "ada@example.com", "hunter22")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Token != "tok-1" || resp.User.Role != "admin" {
		t.Errorf("unexpected response %+v", resp)
	}
}

func TestResetEndpoints(t *testing.T) {
	var bodies = map[string]map[string]string{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		bodies[r.URL.Path] = body

		switch r.URL.Path {
		case "/users/request-reset":
			json.NewEncoder(w).Encode(StatusResponse{Success: true, Message: "sent"})
		case "/users/verify-otp":
			json.NewEncoder(w).Encode(VerifyResponse{Success: true, ResetToken: "abc"})
		case "/users/reset":
			json.NewEncoder(w).Encode(ResetResponse{Success: true, Message: "done"})
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	c := New(server.URL)
	ctx := context.Background()

	sr, err := c.RequestReset(ctx, "user@example.com")
	if err != nil || !sr.Success {
		t.Fatalf("RequestReset() = %+v, %v", sr, err)
	}
	vr, err := c.VerifyOTP(ctx, "user@example.com", "12345")
	if err != nil || vr.ResetToken != "abc" {
		t.Fatalf("VerifyOTP() = %+v, %v", vr, err)
	}
	rr, err := c.ResetPassword(ctx, "user@example.com", "abc", "newpass12")
	if err != nil || !rr.Success {
		t.Fatalf("ResetPassword() = %+v, %v", rr, err)
	}
	if rr.User != nil {
		t.Errorf("expected no user in reset response, got %+v", rr.User)
	}

	if bodies["/users/request-reset"]["email"] != "user@example.com" {
		t.Errorf("unexpected request-reset body %v", bodies["/users/request-reset"])
	}
	if bodies["/users/verify-otp"]["otp"] != "12345" {
		t.Errorf("unexpected verify-otp body %v", bodies["/users/verify-otp"])
	}
	want := map[string]string{"email": "user@example.com", "resetToken": "abc", "newPassword": "newpass12"}
	for k, v := range want {
		if bodies["/users/reset"][k] != v {
			t.Errorf("reset body %s = %q, want %q", k, bodies["/users/reset"][k], v)
		}
	}
}

func TestListIndustries_DecodesCaseStudies(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/industries" {
			t.Errorf("expected path /industries, got %s", r.URL.Path)
		}
		w.Write([]byte(`[{"_id":"1","slug":"energy","name":"Energy","caseStudies":[{"title":"Grid"},{"title":"Solar"}]}]`))
	}))
	defer server.Close()

	industries, err := New(server.URL).ListIndustries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(industries) != 1 || len(industries[0].CaseStudies) != 2 {
		t.Fatalf("unexpected industries %+v", industries)
	}
	if industries[0].CaseStudies[1].Title != "Solar" {
		t.Errorf("expected Solar, got %s", industries[0].CaseStudies[1].Title)
	}
}

func TestAdminEndpoints_Paths(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	c := New(server.URL, WithStore(signedInStore(t, "tok")))
	if _, err := c.ListSubscribers(context.Background()); err != nil {
		t.Fatalf("ListSubscribers() error: %v", err)
	}
	if _, err := c.ListMessages(context.Background()); err != nil {
		t.Fatalf("ListMessages() error: %v", err)
	}
	if strings.Join(paths, ",") != "/subscribers,/contact" {
		t.Errorf("unexpected paths %v", paths)
	}
}

func TestErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"api message", &APIError{Status: 400, Message: "Invalid credentials"}, "Invalid credentials"},
		{"api without message", &APIError{Status: 500}, "backend returned status 500"},
		{"plain", errors.New("request canceled"), "request canceled"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := ErrorMessage(tc.err); got != tc.want {
				t.Errorf("ErrorMessage() = %q, want %q", got, tc.want)
			}
		})
	}
}
