// ABOUTME: Double-submit cookie CSRF protection for console forms.
// ABOUTME: The token lives in a cookie and must be echoed in the form or X-CSRF-Token header.

package web

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"log/slog"
	"net/http"
)

type contextKey string

const csrfContextKey contextKey = "csrf_token"

// CSRFFieldName is the form field carrying the token.
const CSRFFieldName = "csrf_token"

// CSRF issues and checks tokens for one cookie name and path.
type CSRF struct {
	cookieName string
	path       string
	logger     *slog.Logger
}

// NewCSRF creates a CSRF guard.
func NewCSRF(cookieName, path string, logger *slog.Logger) *CSRF {
	if logger == nil {
		logger = slog.Default()
	}
	return &CSRF{cookieName: cookieName, path: path, logger: logger}
}

// Ensure returns the request's token, issuing a cookie when there is none.
// The returned request carries the token in its context.
func (c *CSRF) Ensure(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	if cookie, err := r.Cookie(c.cookieName); err == nil && cookie.Value != "" {
		return r.WithContext(context.WithValue(r.Context(), csrfContextKey, cookie.Value)), cookie.Value
	}

	token, err := RandomToken(32)
	if err != nil {
		c.logger.Error("failed to generate CSRF token", "error", err)
		token = "" // fails validation, but won't crash
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    token,
		Path:     c.path,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})
	return r.WithContext(context.WithValue(r.Context(), csrfContextKey, token)), token
}

// Valid checks the submitted token against the cookie. The form must
// already be parsed.
func (c *CSRF) Valid(r *http.Request) bool {
	cookie, err := r.Cookie(c.cookieName)
	if err != nil || cookie.Value == "" {
		return false
	}
	formToken := r.PostFormValue(CSRFFieldName)
	if formToken == "" {
		formToken = r.Header.Get("X-CSRF-Token")
	}
	return formToken != "" && subtle.ConstantTimeCompare([]byte(formToken), []byte(cookie.Value)) == 1
}

// Clear expires the CSRF cookie.
func (c *CSRF) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.cookieName,
		Value:    "",
		Path:     c.path,
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// Token returns the token stored in the request context by Ensure.
func Token(r *http.Request) string {
	token, _ := r.Context().Value(csrfContextKey).(string)
	return token
}

// RandomToken returns n random bytes, hex encoded.
func RandomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
