// ABOUTME: Icon system with Nerd Font detection and Unicode fallback
// ABOUTME: Provides consistent iconography across different terminal capabilities

package icons

import (
	"os"
	"slices"
	"strings"
	"sync"
)

// nerdFontTerminals are matched against TERM_PROGRAM and TERM
var nerdFontTerminals = []string{"iTerm.app", "alacritty", "WezTerm", "kitty", "ghostty"}

// HasNerdFonts reports whether Nerd Font glyphs should be used. It reads
// the environment once.
var HasNerdFonts = sync.OnceValue(func() bool {
	return detect(os.Getenv)
})

// detect decides font support from environment lookups. SITE_NERD_FONTS
// and then NERD_FONTS force the answer; otherwise known terminals opt in.
func detect(getenv func(string) string) bool {
	for _, key := range []string{"SITE_NERD_FONTS", "NERD_FONTS"} {
		if v := strings.ToLower(getenv(key)); v != "" {
			return v == "1" || v == "true"
		}
	}

	program := getenv("TERM_PROGRAM")
	term := strings.ToLower(getenv("TERM"))
	return slices.ContainsFunc(nerdFontTerminals, func(t string) bool {
		return strings.Contains(program, t) || strings.Contains(term, strings.ToLower(t))
	})
}

// Icon represents an icon with Nerd Font and Unicode fallback variants
type Icon struct {
	NerdFont string
	Fallback string
}

// String returns the appropriate icon based on font availability
func (i Icon) String() string {
	if HasNerdFonts() {
		return i.NerdFont
	}
	return i.Fallback
}

// Nerd Font codepoints with Unicode fallbacks
var (
	// Status indicators
	CheckOK  = Icon{"", "✓"} // nf-oct-check_circle
	Warning  = Icon{"", "⚠"} // nf-oct-alert
	Critical = Icon{"", "✗"} // nf-oct-x_circle
	Info     = Icon{"", "ℹ"} // nf-oct-info

	// Auth
	Lock   = Icon{"󰌾", "⚿"} // nf-md-lock
	Key    = Icon{"󰌆", "⚷"} // nf-md-key
	Mail   = Icon{"󰇮", "✉"} // nf-md-email
	Shield = Icon{"󰒃", "⛊"} // nf-md-shield_check
	User   = Icon{"󰀄", "☺"} // nf-md-account

	// Admin data
	Users   = Icon{"󰡉", "◎"} // nf-md-account_group
	Message = Icon{"󰍡", "✎"} // nf-md-message_text

	// Actions
	Refresh = Icon{"󰑓", "↻"} // nf-md-refresh
	Back    = Icon{"󰁍", "←"} // nf-md-arrow_left
	Quit    = Icon{"󰗼", "×"} // nf-md-exit_to_app
	Logout  = Icon{"󰍃", "⇥"} // nf-md-logout

	// Application
	App = Icon{"󰖟", "◈"} // nf-md-web
)
