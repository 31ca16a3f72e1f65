// ABOUTME: Tests for the session gate decision
// ABOUTME: Confirms presence-only checks and redirect target

package session

import "testing"

func TestAuthorize_NoToken(t *testing.T) {
	d := Authorize(NewMemoryStore())

	if d.Allow {
		t.Error("expected signed-out store to be denied")
	}
	if d.Redirect != LoginRoute {
		t.Errorf("expected redirect to %q, got %q", LoginRoute, d.Redirect)
	}
}

func TestAuthorize_NilStore(t *testing.T) {
	if d := Authorize(nil); d.Allow {
		t.Error("expected nil store to be denied")
	}
}

func TestAuthorize_AnyTokenPasses(t *testing.T) {
	s := NewMemoryStore()
	// Forged value, the gate must not inspect it
	s.Set("definitely-not-a-real-token", User{})

	d := Authorize(s)
	if !d.Allow {
		t.Error("expected gate to allow any stored token")
	}
	if d.Redirect != "" {
		t.Errorf("expected no redirect, got %q", d.Redirect)
	}
}

func TestAuthorize_AfterClear(t *testing.T) {
	s := NewMemoryStore()
	s.Set("tok", User{ID: "1"})
	s.Clear()

	if d := Authorize(s); d.Allow {
		t.Error("expected cleared store to be denied")
	}
}

func TestNavigatorFunc(t *testing.T) {
	called := 0
	var nav Navigator = NavigatorFunc(func() { called++ })

	nav.RedirectToLogin()

	if called != 1 {
		t.Errorf("expected navigator to be called once, got %d", called)
	}
}
