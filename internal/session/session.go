// ABOUTME: Console sessions: creation at login, cookie resolution, logout, and the page guard.
// ABOUTME: A session holds the API bearer token and user record server-side.

package session

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/2389/shopdesk/internal/metrics"
	"github.com/2389/shopdesk/internal/store"
)

// DefaultTTL is how long a session lasts when no TTL is configured.
const DefaultTTL = 24 * time.Hour

// ErrNoSession is returned when a request carries no usable session.
var ErrNoSession = errors.New("no session")

// User is the user record returned by the API at login.
type User struct {
	ID       int64
	Username string
	Role     string
}

// Session is one logged-in browser.
type Session struct {
	ID         string
	App        store.App
	Token      string
	User       User
	CreatedAt  time.Time
	ExpiresAt  time.Time
	VerifiedAt time.Time
}

func fromRecord(ws *store.WebSession) *Session {
	return &Session{
		ID:    ws.ID,
		App:   ws.App,
		Token: ws.Token,
		User: User{
			ID:       ws.UserID,
			Username: ws.Username,
			Role:     ws.Role,
		},
		CreatedAt:  ws.CreatedAt,
		ExpiresAt:  ws.ExpiresAt,
		VerifiedAt: ws.VerifiedAt,
	}
}

// Store is the persistence the manager needs.
type Store interface {
	CreateWebSession(ctx context.Context, sess *store.WebSession) error
	GetWebSession(ctx context.Context, id string) (*store.WebSession, error)
	ListWebSessions(ctx context.Context, app store.App) ([]*store.WebSession, error)
	MarkWebSessionVerified(ctx context.Context, id string, at time.Time) error
	DeleteWebSession(ctx context.Context, id string) error
	DeleteExpiredWebSessions(ctx context.Context) ([]string, error)
}

// LogoutFunc tells the API a token is no longer in use.
type LogoutFunc func(ctx context.Context, token string) error

// Options configures a Manager.
type Options struct {
	// Secret signs cookie tokens. A random secret is generated when empty,
	// which invalidates sessions on restart.
	Secret []byte
	TTL    time.Duration
	// Notify maps an app to its API logout call.
	Notify map[store.App]LogoutFunc
	Logger *slog.Logger
}

// Manager owns session lifecycle for both apps.
type Manager struct {
	store  Store
	signer *signer
	ttl    time.Duration
	notify map[store.App]LogoutFunc
	logger *slog.Logger

	mu        sync.RWMutex
	onDestroy []func(sessionID string)
}

// NewManager creates a Manager.
func NewManager(s Store, opts Options) (*Manager, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "session")

	secret := opts.Secret
	if len(secret) == 0 {
		generated, err := generateSecureToken(32)
		if err != nil {
			return nil, fmt.Errorf("generating session secret: %w", err)
		}
		secret = []byte(generated)
		logger.Warn("no session secret configured, sessions will not survive a restart")
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	notify := opts.Notify
	if notify == nil {
		notify = map[store.App]LogoutFunc{}
	}

	return &Manager{
		store:  s,
		signer: newSigner(secret),
		ttl:    ttl,
		notify: notify,
		logger: logger,
	}, nil
}

// OnDestroy registers fn to run whenever a session ends, for any reason.
func (m *Manager) OnDestroy(fn func(sessionID string)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDestroy = append(m.onDestroy, fn)
}

// Create persists a session for a successful login and sets its cookie.
func (m *Manager) Create(ctx context.Context, w http.ResponseWriter, r *http.Request, app store.App, token string, user User) (*Session, error) {
	id, err := generateSecureToken(32)
	if err != nil {
		return nil, fmt.Errorf("generating session id: %w", err)
	}
	now := time.Now().UTC()
	rec := &store.WebSession{
		ID:         id,
		App:        app,
		Token:      token,
		UserID:     user.ID,
		Username:   user.Username,
		Role:       user.Role,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.ttl),
		VerifiedAt: now,
	}
	if err := m.store.CreateWebSession(ctx, rec); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	signed, err := m.signer.Sign(id, app, rec.ExpiresAt)
	if err != nil {
		_ = m.store.DeleteWebSession(ctx, id)
		return nil, fmt.Errorf("signing session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName(app),
		Value:    signed,
		Path:     cookiePath(app),
		Expires:  rec.ExpiresAt,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	m.logger.Info("session created", "app", app, "username", user.Username, "role", user.Role)
	return fromRecord(rec), nil
}

// Resolve returns the session named by the request's cookie for app.
func (m *Manager) Resolve(r *http.Request, app store.App) (*Session, error) {
	cookie, err := r.Cookie(CookieName(app))
	if err != nil || cookie.Value == "" {
		return nil, ErrNoSession
	}
	id, err := m.signer.Parse(cookie.Value, app)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoSession, err)
	}
	rec, err := m.store.GetWebSession(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("loading session: %w", err)
	}
	if rec.App != app {
		return nil, ErrNoSession
	}
	return fromRecord(rec), nil
}

// Get loads a session by id.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	rec, err := m.store.GetWebSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return fromRecord(rec), nil
}

// List returns the live sessions of app.
func (m *Manager) List(ctx context.Context, app store.App) ([]*Session, error) {
	recs, err := m.store.ListWebSessions(ctx, app)
	if err != nil {
		return nil, err
	}
	out := make([]*Session, 0, len(recs))
	for _, rec := range recs {
		out = append(out, fromRecord(rec))
	}
	return out, nil
}

// MarkVerified records a successful token check.
func (m *Manager) MarkVerified(ctx context.Context, id string) error {
	return m.store.MarkWebSessionVerified(ctx, id, time.Now().UTC())
}

// Logout ends the request's session for app: the API is notified best-effort,
// the record is deleted, and the cookie is cleared. A request without a
// session only has its cookie cleared.
func (m *Manager) Logout(ctx context.Context, w http.ResponseWriter, r *http.Request, app store.App) {
	sess, err := m.Resolve(r, app)
	if err == nil {
		if notify := m.notify[app]; notify != nil {
			if nErr := notify(ctx, sess.Token); nErr != nil {
				m.logger.Debug("logout notification failed", "app", app, "error", nErr)
			}
		}
		m.destroy(ctx, sess.ID)
		m.logger.Info("session logged out", "app", app, "username", sess.User.Username)
	}
	ClearCookie(w, app)
}

// End deletes a session the console has decided to terminate (a 401 from
// the API, a failed verification). The API is not notified.
func (m *Manager) End(ctx context.Context, id, reason string) {
	m.destroy(ctx, id)
	metrics.SessionsForcedLogoutTotal.WithLabelValues(reason).Inc()
	m.logger.Info("session ended", "reason", reason)
}

func (m *Manager) destroy(ctx context.Context, id string) {
	if err := m.store.DeleteWebSession(ctx, id); err != nil {
		m.logger.Error("failed to delete session", "error", err)
	}
	m.released(id)
}

// released runs the OnDestroy hooks for a session already gone from the store.
func (m *Manager) released(id string) {
	m.mu.RLock()
	hooks := m.onDestroy
	m.mu.RUnlock()
	for _, fn := range hooks {
		fn(id)
	}
}

// Sweep deletes expired sessions, runs their OnDestroy hooks, and returns
// how many were removed.
func (m *Manager) Sweep(ctx context.Context) (int64, error) {
	ids, err := m.store.DeleteExpiredWebSessions(ctx)
	if err != nil {
		return 0, fmt.Errorf("sweeping sessions: %w", err)
	}
	for _, id := range ids {
		m.released(id)
	}
	n := int64(len(ids))
	if n > 0 {
		metrics.SessionsForcedLogoutTotal.WithLabelValues("expired").Add(float64(n))
		m.logger.Debug("expired sessions swept", "count", n)
	}
	return n, nil
}

// RunSweeper calls Sweep every interval until ctx is done.
func (m *Manager) RunSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := m.Sweep(ctx); err != nil && ctx.Err() == nil {
				m.logger.Warn("session sweep failed", "error", err)
			}
		}
	}
}

// CookieName is the session cookie of app.
func CookieName(app store.App) string {
	return "shopdesk_" + string(app)
}

func cookiePath(app store.App) string {
	if app == store.AppAdmin {
		return "/admin"
	}
	return "/"
}

// ClearCookie expires the session cookie of app.
func ClearCookie(w http.ResponseWriter, app store.App) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName(app),
		Value:    "",
		Path:     cookiePath(app),
		MaxAge:   -1,
		HttpOnly: true,
	})
}

// generateSecureToken generates a cryptographically secure random token
func generateSecureToken(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
