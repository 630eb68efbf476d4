// ABOUTME: Page guard that requires a session before any handler runs.
// ABOUTME: Also carries the session through the request context.

package session

import (
	"context"
	"net/http"

	"github.com/2389/shopdesk/internal/store"
)

type contextKey string

const sessionContextKey contextKey = "shopdesk_session"

// WithSession returns ctx carrying sess.
func WithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}

// FromContext returns the session stored by Require, or nil.
func FromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey).(*Session)
	return sess
}

// Require wraps next so it only runs with a live session for app. Anything
// else clears the cookie and redirects to loginPath.
func (m *Manager) Require(app store.App, loginPath string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, err := m.Resolve(r, app)
			if err != nil {
				ClearCookie(w, app)
				http.Redirect(w, r, loginPath, http.StatusSeeOther)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), sess)))
		})
	}
}

// RequireFunc is Require for a HandlerFunc.
func (m *Manager) RequireFunc(app store.App, loginPath string, next http.HandlerFunc) http.HandlerFunc {
	return m.Require(app, loginPath)(next).ServeHTTP
}
