// ABOUTME: Session gate deciding whether protected screens and commands may render
// ABOUTME: Returns a pure allow/redirect decision; callers perform the navigation

package session

// LoginRoute is where signed-out users are sent
const LoginRoute = "login"

// Decision is the outcome of a gate check
type Decision struct {
	Allow    bool
	Redirect string
}

// Authorize checks only that a token is present. The token is not validated
// here; an invalid token is discovered on the first API call that uses it.
func Authorize(store Store) Decision {
	if store == nil {
		return Decision{Redirect: LoginRoute}
	}
	if _, ok := store.Get(); !ok {
		return Decision{Redirect: LoginRoute}
	}
	return Decision{Allow: true}
}

// Navigator performs the redirect to the login entry point
type Navigator interface {
	RedirectToLogin()
}

// NavigatorFunc adapts a plain function to Navigator
type NavigatorFunc func()

// RedirectToLogin calls f
func (f NavigatorFunc) RedirectToLogin() {
	f()
}
