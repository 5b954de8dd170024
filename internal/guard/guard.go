// Package guard decides whether a navigation into a role-scoped area may proceed.
// Decide is a pure function: no I/O, no side effects.
package guard

import (
	"net/url"
	"strings"

	"github.com/you/taskconsole/domain"
)

const (
	LoginPath     = "/auth/login"
	AdminHomePath = "/admin"
	UserHomePath  = "/users"
)

// Decision is either Allow or a redirect target
type Decision struct {
	Allow      bool
	RedirectTo string
}

// Redirecting reports whether the decision sends the caller elsewhere
func (d Decision) Redirecting() bool { return !d.Allow && d.RedirectTo != "" }

// HomeFor returns the landing area of role, or the login page for an unknown role
func HomeFor(role domain.Role) string {
	switch role {
	case domain.RoleAdmin:
		return AdminHomePath
	case domain.RoleUser:
		return UserHomePath
	default:
		return LoginPath
	}
}

// LoginURL returns the login page remembering where the caller wanted to go
func LoginURL(next string) string {
	if next == "" {
		return LoginPath
	}
	return LoginPath + "?" + url.Values{"next": {next}}.Encode()
}

// Decide applies the guard rules in order:
// no usable session -> login; wrong role -> the session's own home; otherwise allow.
func Decide(session *domain.Session, required domain.Role, requestedPath string) Decision {
	if !session.Complete() {
		return Decision{RedirectTo: LoginURL(requestedPath)}
	}
	if session.Role != required {
		return Decision{RedirectTo: HomeFor(session.Role)}
	}
	return Decision{Allow: true}
}

// SafeNext returns next when it is a local absolute path, else fallback
func SafeNext(next, fallback string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
