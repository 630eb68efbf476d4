// ABOUTME: End-to-end tests for the operator console against a fake shop API.
// ABOUTME: A cookie-jar client drives login, navigation, edit, delete, and forced logout.

package webadmin

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/shopdesk/internal/apiclient"
	"github.com/2389/shopdesk/internal/dashboard"
	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/store"
)

type apiRequest struct {
	Method string
	Path   string
	Auth   string
	Body   map[string]any
}

// fakeShopAPI answers like the shop REST API and records every request.
type fakeShopAPI struct {
	mu       sync.Mutex
	requests []apiRequest
	revoked  bool
	role     string
}

func (f *fakeShopAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)

	f.mu.Lock()
	f.requests = append(f.requests, apiRequest{Method: r.Method, Path: r.URL.Path, Auth: r.Header.Get("Authorization"), Body: body})
	revoked := f.revoked
	role := f.role
	f.mu.Unlock()
	if role == "" {
		role = "Order Admin"
	}

	w.Header().Set("Content-Type", "application/json")
	if r.URL.Path == "/login" {
		if body["username"] == "ann" && body["password"] == "secret" {
			_, _ = fmt.Fprintf(w, `{"success":true,"token":"A1","user":{"id":1,"username":"ann","role":%q}}`, role)
			return
		}
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Invalid credentials"}`)
		return
	}

	if revoked || r.Header.Get("Authorization") != "Bearer A1" {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, `{"success":false,"message":"Token expired"}`)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/orders":
		_, _ = io.WriteString(w, `{"success":true,"data":[{"order_id":10,"username":"bob","product_name":"Widget","status":"Pending","estimated_delivery":null}]}`)
	case r.Method == http.MethodGet && r.URL.Path == "/products":
		_, _ = io.WriteString(w, `{"success":true,"data":[{"product_id":1,"product_name":"Widget","current_stock":5,"moq":1,"quantity_type":"pcs"}]}`)
	case r.Method == http.MethodPut:
		_, _ = io.WriteString(w, `{"success":true,"message":"Order updated successfully"}`)
	case r.Method == http.MethodDelete:
		_, _ = io.WriteString(w, `{"success":true,"message":"Order deleted successfully"}`)
	default:
		_, _ = io.WriteString(w, `{"success":true,"data":[]}`)
	}
}

func (f *fakeShopAPI) count(method, path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

func (f *fakeShopAPI) last(method, path string) apiRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.requests) - 1; i >= 0; i-- {
		if f.requests[i].Method == method && f.requests[i].Path == path {
			return f.requests[i]
		}
	}
	return apiRequest{}
}

type testConsole struct {
	api      *fakeShopAPI
	server   *httptest.Server
	client   *http.Client
	sessions *store.MockStore
}

func newTestConsole(t *testing.T) *testConsole {
	t.Helper()

	api := &fakeShopAPI{}
	apiServer := httptest.NewServer(api)
	t.Cleanup(apiServer.Close)

	client := apiclient.New(apiclient.Options{BaseURL: apiServer.URL})
	st := store.NewMockStore()
	mgr, err := session.NewManager(st, session.Options{
		Secret: []byte("test-secret-test-secret-test-secret"),
		Notify: map[store.App]session.LogoutFunc{store.AppAdmin: client.Logout},
	})
	require.NoError(t, err)

	controller := dashboard.NewController(client, st, dashboard.NewStateStore(), nil)
	mgr.OnDestroy(controller.States().Delete)

	mux := http.NewServeMux()
	New(controller, mgr, client, st, nil).RegisterRoutes(mux)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	browser := &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return &testConsole{api: api, server: server, client: browser, sessions: st}
}

func (c *testConsole) csrfToken(t *testing.T) string {
	t.Helper()
	u, _ := url.Parse(c.server.URL + "/admin/")
	for _, ck := range c.client.Jar.Cookies(u) {
		if ck.Name == "shopdesk_admin_csrf" {
			return ck.Value
		}
	}
	return ""
}

func (c *testConsole) get(t *testing.T, path string) (*http.Response, string) {
	t.Helper()
	resp, err := c.client.Get(c.server.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (c *testConsole) post(t *testing.T, path string, form url.Values) (*http.Response, string) {
	t.Helper()
	if form == nil {
		form = url.Values{}
	}
	if form.Get("csrf_token") == "" {
		form.Set("csrf_token", c.csrfToken(t))
	}
	resp, err := c.client.PostForm(c.server.URL+path, form)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func (c *testConsole) login(t *testing.T) {
	t.Helper()
	c.get(t, "/admin/login")
	resp, _ := c.post(t, "/admin/login", url.Values{"username": {"ann"}, "password": {"secret"}})
	require.Equal(t, http.StatusSeeOther, resp.StatusCode)
	require.Equal(t, "/admin/", resp.Header.Get("Location"))
}

func TestLogin_RedirectsToFirstSection(t *testing.T) {
	c := newTestConsole(t)
	c.login(t)

	resp, _ := c.get(t, "/admin/")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/s/orders", resp.Header.Get("Location"))

	resp, body := c.get(t, "/admin/s/orders")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Widget")
	assert.Contains(t, body, `class="badge badge-pending"`)
	assert.Contains(t, body, "Not set")
	assert.Equal(t, "Bearer A1", c.api.last("GET", "/orders").Auth)
}

func TestLogin_Rejected(t *testing.T) {
	c := newTestConsole(t)
	c.get(t, "/admin/login")

	resp, body := c.post(t, "/admin/login", url.Values{"username": {"ann"}, "password": {"wrong"}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Invalid credentials")

	_, body = c.post(t, "/admin/login", url.Values{"username": {"ann"}, "password": {""}})
	assert.Contains(t, body, "Please enter both username and password")
}

func TestLogin_RequiresCSRF(t *testing.T) {
	c := newTestConsole(t)
	c.get(t, "/admin/login")

	_, body := c.post(t, "/admin/login", url.Values{"username": {"ann"}, "password": {"secret"}, "csrf_token": {"forged"}})
	assert.Contains(t, body, "Invalid request, please try again")
	assert.Equal(t, 0, c.api.count("POST", "/login"))
}

func TestGuard_RedirectsWithoutSession(t *testing.T) {
	c := newTestConsole(t)

	for _, path := range []string{"/admin/", "/admin/s/orders", "/admin/s/orders/10/edit"} {
		resp, _ := c.get(t, path)
		assert.Equal(t, http.StatusSeeOther, resp.StatusCode, path)
		assert.Equal(t, "/admin/login", resp.Header.Get("Location"), path)
	}
	assert.Equal(t, 0, c.api.count("GET", "/orders"))
}

func TestEdit_SendsOnlyFilledFields(t *testing.T) {
	c := newTestConsole(t)
	c.login(t)
	c.get(t, "/admin/s/orders")

	_, body := c.get(t, "/admin/s/orders/10/edit")
	assert.Contains(t, body, "Update Order")

	before := c.api.count("GET", "/orders")
	resp, body := c.post(t, "/admin/s/orders/10/edit", url.Values{
		"updateStatus":            {"shipped"},
		"updateEstimatedDelivery": {""},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Order updated successfully")
	assert.NotContains(t, body, "Update Order")

	put := c.api.last("PUT", "/orders/10")
	assert.Equal(t, map[string]any{"status": "shipped"}, put.Body)
	assert.Equal(t, before+1, c.api.count("GET", "/orders"))
}

func TestDelete_RequiresConfirmation(t *testing.T) {
	c := newTestConsole(t)
	c.login(t)
	c.get(t, "/admin/s/orders")

	_, body := c.get(t, "/admin/s/orders/10/delete")
	assert.Contains(t, body, "Are you sure you want to delete Order")

	c.post(t, "/admin/s/orders/10/delete", url.Values{"confirm": {"no"}})
	assert.Equal(t, 0, c.api.count("DELETE", "/orders/10"))

	// Without a pending confirmation nothing is sent either.
	c.post(t, "/admin/s/orders/10/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, 0, c.api.count("DELETE", "/orders/10"))

	c.get(t, "/admin/s/orders/10/delete")
	_, body = c.post(t, "/admin/s/orders/10/delete", url.Values{"confirm": {"yes"}})
	assert.Equal(t, 1, c.api.count("DELETE", "/orders/10"))
	assert.Contains(t, body, "Order deleted successfully")
}

func TestUnauthorized_EndsSession(t *testing.T) {
	c := newTestConsole(t)
	c.login(t)
	c.get(t, "/admin/s/orders")

	c.api.mu.Lock()
	c.api.revoked = true
	c.api.mu.Unlock()

	resp, _ := c.get(t, "/admin/s/orders")
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))

	sessions, err := c.sessions.ListWebSessions(t.Context(), store.AppAdmin)
	require.NoError(t, err)
	assert.Empty(t, sessions)
	assert.Equal(t, 0, c.api.count("POST", "/logout"), "forced logout does not call the API")
}

func TestLogout_NotifiesAPI(t *testing.T) {
	c := newTestConsole(t)
	c.login(t)

	resp, _ := c.post(t, "/admin/logout", nil)
	assert.Equal(t, http.StatusSeeOther, resp.StatusCode)
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
	assert.Equal(t, 1, c.api.count("POST", "/logout"))

	resp, _ = c.get(t, "/admin/s/orders")
	assert.Equal(t, "/admin/login", resp.Header.Get("Location"))
}

func TestCreate_ValidationFailureKeepsValues(t *testing.T) {
	c := newTestConsole(t)
	c.login(t)
	c.get(t, "/admin/s/orders")

	_, body := c.post(t, "/admin/s/orders/create", url.Values{"user_id": {"7"}})
	assert.Contains(t, body, "User ID and Product ID are required")
	assert.True(t, strings.Contains(body, `value="7"`))
	assert.Equal(t, 0, c.api.count("POST", "/orders"))
}

func TestAudit_ListsMutationsForAdmins(t *testing.T) {
	c := newTestConsole(t)
	c.api.role = "System Admin"
	c.login(t)

	_, body := c.get(t, "/admin/s/orders")
	assert.Contains(t, body, `href="/admin/audit"`)

	c.get(t, "/admin/s/orders/10/edit")
	c.post(t, "/admin/s/orders/10/edit", url.Values{"updateStatus": {"shipped"}})

	resp, body := c.get(t, "/admin/audit")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "Order updated successfully")
	assert.Contains(t, body, "ann")

	_, body = c.get(t, "/admin/audit?resource=products")
	assert.Contains(t, body, "No activity recorded.")
}

func TestAudit_HiddenFromOtherRoles(t *testing.T) {
	c := newTestConsole(t)
	c.login(t)

	_, body := c.get(t, "/admin/s/orders")
	assert.NotContains(t, body, `href="/admin/audit"`)

	resp, body := c.get(t, "/admin/audit")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "not available for your role")
}
