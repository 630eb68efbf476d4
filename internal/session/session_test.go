// ABOUTME: Tests for session creation, cookie resolution, logout, and the guard middleware.
// ABOUTME: Uses the in-memory store and httptest recorders.

package session

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shopdesk/internal/store"
)

func newTestManager(t *testing.T, notify map[store.App]LogoutFunc) (*Manager, *store.MockStore) {
	t.Helper()
	s := store.NewMockStore()
	m, err := NewManager(s, Options{
		Secret: []byte("test-secret-0123456789"),
		TTL:    time.Hour,
		Notify: notify,
	})
	require.NoError(t, err)
	return m, s
}

// login creates a session and returns a request carrying its cookie.
func login(t *testing.T, m *Manager, app store.App, token string, user User) (*Session, *http.Request) {
	t.Helper()
	rec := httptest.NewRecorder()
	sess, err := m.Create(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/login", nil), app, token, user)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	return sess, req
}

func TestCreateAndResolve(t *testing.T) {
	m, s := newTestManager(t, nil)
	user := User{ID: 7, Username: "bob", Role: "End User"}

	sess, req := login(t, m, store.AppUser, "T1", user)

	got, err := m.Resolve(req, store.AppUser)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, got.ID)
	assert.Equal(t, "T1", got.Token)
	assert.Equal(t, user, got.User)

	rec, err := s.GetWebSession(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "T1", rec.Token)
}

func TestCreate_CookieAttributes(t *testing.T) {
	m, _ := newTestManager(t, nil)
	rec := httptest.NewRecorder()

	_, err := m.Create(context.Background(), rec, httptest.NewRequest(http.MethodPost, "/admin/login", nil),
		store.AppAdmin, "A1", User{Username: "ann", Role: "System Admin"})
	require.NoError(t, err)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "shopdesk_admin", cookies[0].Name)
	assert.Equal(t, "/admin", cookies[0].Path)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotContains(t, cookies[0].Value, "A1")
}

func TestResolve_WrongAppRejected(t *testing.T) {
	m, _ := newTestManager(t, nil)
	_, req := login(t, m, store.AppUser, "T1", User{Username: "bob"})

	// Replay the user cookie under the admin name.
	userCookie, err := req.Cookie(CookieName(store.AppUser))
	require.NoError(t, err)
	forged := httptest.NewRequest(http.MethodGet, "/admin/", nil)
	forged.AddCookie(&http.Cookie{Name: CookieName(store.AppAdmin), Value: userCookie.Value})

	_, err = m.Resolve(forged, store.AppAdmin)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestResolve_TamperedCookie(t *testing.T) {
	m, _ := newTestManager(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName(store.AppUser), Value: "not-a-jwt"})

	_, err := m.Resolve(req, store.AppUser)
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestLogout_NotifiesAndClears(t *testing.T) {
	var notified string
	m, s := newTestManager(t, map[store.App]LogoutFunc{
		store.AppAdmin: func(ctx context.Context, token string) error {
			notified = token
			return errors.New("api down")
		},
	})
	var destroyed []string
	m.OnDestroy(func(id string) { destroyed = append(destroyed, id) })

	sess, req := login(t, m, store.AppAdmin, "A1", User{Username: "ann", Role: "Order Admin"})
	rec := httptest.NewRecorder()

	m.Logout(context.Background(), rec, req, store.AppAdmin)

	assert.Equal(t, "A1", notified)
	assert.Equal(t, []string{sess.ID}, destroyed)
	_, err := s.GetWebSession(context.Background(), sess.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, -1, cookies[0].MaxAge)
}

func TestEnd_DeletesWithoutNotify(t *testing.T) {
	called := false
	m, s := newTestManager(t, map[store.App]LogoutFunc{
		store.AppUser: func(context.Context, string) error { called = true; return nil },
	})
	sess, _ := login(t, m, store.AppUser, "T1", User{Username: "bob"})

	m.End(context.Background(), sess.ID, "verify_failed")

	assert.False(t, called)
	_, err := s.GetWebSession(context.Background(), sess.ID)
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestRequire(t *testing.T) {
	m, _ := newTestManager(t, nil)
	var seen *Session
	h := m.Require(store.AppUser, "/login")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("no session redirects before handler", func(t *testing.T) {
		seen = nil
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/chat", nil))
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/login", rec.Header().Get("Location"))
		assert.Nil(t, seen)
	})

	t.Run("live session passes through", func(t *testing.T) {
		sess, req := login(t, m, store.AppUser, "T1", User{Username: "bob"})
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, sess.ID, seen.ID)
	})

	t.Run("ended session redirects", func(t *testing.T) {
		sess, req := login(t, m, store.AppUser, "T2", User{Username: "bob"})
		m.End(context.Background(), sess.ID, "unauthorized")
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestSweep(t *testing.T) {
	m, s := newTestManager(t, nil)
	ctx := context.Background()
	past := time.Now().Add(-time.Hour)
	require.NoError(t, s.CreateWebSession(ctx, &store.WebSession{
		ID: "old", App: store.AppUser, Token: "x", CreatedAt: past.Add(-time.Hour), ExpiresAt: past,
	}))
	require.NoError(t, s.CreateWebSession(ctx, &store.WebSession{
		ID: "live", App: store.AppUser, Token: "y", CreatedAt: time.Now(), ExpiresAt: time.Now().Add(time.Hour),
	}))
	require.NoError(t, s.AppendChatMessage(ctx, &store.ChatMessage{ConversationID: "old", Role: "user", Sender: "bob", Text: "hi"}))

	var destroyed []string
	m.OnDestroy(func(id string) { destroyed = append(destroyed, id) })
	m.OnDestroy(func(id string) { _ = s.ClearChatMessages(ctx, id) })

	n, err := m.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Equal(t, []string{"old"}, destroyed)

	msgs, err := s.ListChatMessages(ctx, "old", 0)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestSigner(t *testing.T) {
	s := newSigner([]byte("k"))

	tok, err := s.Sign("abc", store.AppAdmin, time.Now().Add(time.Minute))
	require.NoError(t, err)
	id, err := s.Parse(tok, store.AppAdmin)
	require.NoError(t, err)
	assert.Equal(t, "abc", id)

	expired, err := s.Sign("abc", store.AppAdmin, time.Now().Add(-time.Minute))
	require.NoError(t, err)
	_, err = s.Parse(expired, store.AppAdmin)
	assert.ErrorIs(t, err, ErrExpiredToken)

	_, err = newSigner([]byte("other")).Parse(tok, store.AppAdmin)
	assert.ErrorIs(t, err, ErrInvalidToken)
}
