// ABOUTME: Tests for the REST API client against httptest servers.
// ABOUTME: Covers login decoding, bearer auth, 401 handling, and transport error classes.

package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(Options{
		BaseURL:        srv.URL + "/api",
		RequestTimeout: time.Second,
		VerifyTimeout:  time.Second,
	}), srv
}

func TestUserLogin_Success(t *testing.T) {
	var gotBody map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/user/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = io.WriteString(w, `{"success":true,"token":"T1","user":{"id":7,"username":"bob","role":"End User"}}`)
	})

	res, err := c.UserLogin(context.Background(), "bob", "x")
	require.NoError(t, err)
	assert.Equal(t, "T1", res.Token)
	assert.Equal(t, User{ID: 7, Username: "bob", Role: "End User"}, res.User)
	assert.Equal(t, map[string]string{"username": "bob", "password": "x"}, gotBody)
}

func TestLogin_AcceptsUserID(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/login", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"token":"A1","user":{"user_id":3,"username":"ann","role":"System Admin"}}`)
	})

	res, err := c.Login(context.Background(), "ann", "pw")
	require.NoError(t, err)
	assert.Equal(t, int64(3), res.User.ID)
	assert.Equal(t, "System Admin", res.User.Role)
}

func TestLogin_InvalidCredentialsIsBusinessError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Invalid credentials"}`)
	})

	_, err := c.Login(context.Background(), "ann", "bad")
	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Invalid credentials", be.Message)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestList_SendsBearerAndDecodesRows(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/orders", r.URL.Path)
		_, _ = io.WriteString(w, `{"success":true,"data":[{"order_id":1},{"order_id":2}]}`)
	})

	rows, err := c.List(context.Background(), "tok", "orders")
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestList_NullData(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":true,"data":null}`)
	})

	rows, err := c.List(context.Background(), "tok", "faq")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAuthenticatedCalls_401IsUnauthorized(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Authentication required"}`)
	})
	ctx := context.Background()

	_, err := c.List(ctx, "tok", "products")
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = c.Create(ctx, "tok", "products", map[string]any{"name": "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = c.Update(ctx, "tok", "products", "1", map[string]string{"name": "x"})
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = c.Delete(ctx, "tok", "products", "1")
	assert.ErrorIs(t, err, ErrUnauthorized)
	assert.ErrorIs(t, c.Verify(ctx, "tok"), ErrUnauthorized)
}

func TestUpdate_PutsPartialPayload(t *testing.T) {
	var got map[string]string
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/orders/12", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = io.WriteString(w, `{"success":true,"message":"updated"}`)
	})

	msg, err := c.Update(context.Background(), "tok", "orders", "12", map[string]string{"status": "shipped"})
	require.NoError(t, err)
	assert.Equal(t, "updated", msg)
	assert.Equal(t, map[string]string{"status": "shipped"}, got)
}

func TestCreate_BusinessError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"success":false,"message":"Role not found"}`)
	})

	_, err := c.Create(context.Background(), "tok", "users", map[string]string{"username": "x"})
	var be *BusinessError
	require.ErrorAs(t, err, &be)
	assert.Equal(t, "Role not found", UserMessage(err))
}

func TestStatusErrorWithoutEnvelope(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	})

	_, err := c.List(context.Background(), "tok", "roles")
	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ClassStatus, te.Class)
	assert.Equal(t, http.StatusBadGateway, te.StatusCode)
	assert.Equal(t, "Server error: 502", UserMessage(err))
}

func TestTimeoutIsClassified(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c := New(Options{BaseURL: srv.URL, RequestTimeout: 50 * time.Millisecond})
	_, err := c.List(context.Background(), "tok", "products")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ClassTimeout, te.Class)
	assert.Equal(t, "Request timed out. Please try again.", UserMessage(err))
}

func TestUnreachableIsClassified(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	c := New(Options{BaseURL: addr, RequestTimeout: time.Second})
	_, err := c.Login(context.Background(), "a", "b")

	var te *TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, ClassUnreachable, te.Class)
}

func TestVerify_AnyTwoHundredIsValid(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/user/verify", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	})

	assert.NoError(t, c.Verify(context.Background(), "tok"))
}

func TestLogout_IgnoresBody(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, "bye")
	})

	assert.NoError(t, c.Logout(context.Background(), "tok"))
}

func TestUserMessage_Fallbacks(t *testing.T) {
	assert.Equal(t, "Connection error. Please try again.", UserMessage(errors.New("weird")))
	assert.Equal(t, "Request failed", UserMessage(&BusinessError{}))
}
