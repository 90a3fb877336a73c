// Package theme resolves and persists the light/dark preference.
package theme

import (
	"net/http"
	"strings"
)

type Theme string

const (
	Light Theme = "light"
	Dark  Theme = "dark"
)

const (
	// CookieName holds the persisted preference.
	CookieName = "theme"
	// HintHeader is the client hint carrying the operating system preference.
	HintHeader = "Sec-CH-Prefers-Color-Scheme"

	cookieMaxAge = 365 * 24 * 60 * 60
)

// Parse accepts "light" or "dark" in any case.
func Parse(s string) (Theme, bool) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, true
	case Dark:
		return Dark, true
	}
	return "", false
}

// Saved returns the preference stored in the request's cookie.
func Saved(r *http.Request) (Theme, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil {
		return "", false
	}
	return Parse(c.Value)
}

// Resolve picks the saved preference, then the system preference, then light.
func Resolve(r *http.Request) Theme {
	if t, ok := Saved(r); ok {
		return t
	}
	if t, ok := Parse(r.Header.Get(HintHeader)); ok {
		return t
	}
	return Light
}

// Toggle returns the other theme.
func Toggle(t Theme) Theme {
	if t == Dark {
		return Light
	}
	return Dark
}

// Write persists t for a year.
func Write(w http.ResponseWriter, t Theme) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    string(t),
		Path:     "/",
		MaxAge:   cookieMaxAge,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequestHint asks browsers to send HintHeader on later requests.
func RequestHint(w http.ResponseWriter) {
	w.Header().Set("Accept-CH", HintHeader)
	w.Header().Add("Vary", HintHeader)
}

// Class is the class applied to the document root.
func (t Theme) Class() string {
	if t == Dark {
		return "dark"
	}
	return ""
}
