// ABOUTME: HTTP client for the shop REST API.
// ABOUTME: Applies per-call timeouts, bearer auth, envelope decoding, and metrics.

package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/2389/shopdesk/internal/metrics"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// Envelope is the common response wrapper of every API endpoint.
type Envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// User is the user record returned by the login endpoints.
type User struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// UnmarshalJSON accepts the id under either "id" or "user_id".
func (u *User) UnmarshalJSON(b []byte) error {
	var raw struct {
		ID       *int64 `json:"id"`
		UserID   *int64 `json:"user_id"`
		Username string `json:"username"`
		Role     string `json:"role"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	u.Username = raw.Username
	u.Role = raw.Role
	switch {
	case raw.ID != nil:
		u.ID = *raw.ID
	case raw.UserID != nil:
		u.ID = *raw.UserID
	}
	return nil
}

// LoginResult is a successful login.
type LoginResult struct {
	Token   string
	User    User
	Message string
}

// Options configures a Client.
type Options struct {
	BaseURL        string
	RequestTimeout time.Duration
	VerifyTimeout  time.Duration
	HTTPClient     *http.Client
	Logger         *slog.Logger
}

// Client talks to the REST API. It never retries.
type Client struct {
	baseURL        string
	http           *http.Client
	requestTimeout time.Duration
	verifyTimeout  time.Duration
	logger         *slog.Logger
}

// New creates a Client.
func New(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	requestTimeout := opts.RequestTimeout
	if requestTimeout <= 0 {
		requestTimeout = 10 * time.Second
	}
	verifyTimeout := opts.VerifyTimeout
	if verifyTimeout <= 0 {
		verifyTimeout = 5 * time.Second
	}
	return &Client{
		baseURL:        strings.TrimRight(opts.BaseURL, "/"),
		http:           hc,
		requestTimeout: requestTimeout,
		verifyTimeout:  verifyTimeout,
		logger:         logger.With("component", "apiclient"),
	}
}

// call describes one request.
type call struct {
	op      string
	method  string
	path    string
	token   string
	body    any
	timeout time.Duration
	// anySuccess accepts every 2xx regardless of the body.
	anySuccess bool
}

// do performs a call and returns the decoded envelope and the raw body.
// A 401 on an authenticated call is ErrUnauthorized. A success:false body is
// a *BusinessError whatever the status. Anything else unusable is a
// *TransportError.
func (c *Client) do(ctx context.Context, cl call) (env *Envelope, raw []byte, err error) {
	started := time.Now()
	outcome := metrics.OutcomeOK
	defer func() {
		metrics.ObserveUpstream(cl.op, outcome, started)
		if err != nil {
			c.logger.Debug("api call failed", "op", cl.op, "outcome", outcome, "error", err)
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, cl.timeout)
	defer cancel()

	var reader io.Reader
	if cl.body != nil {
		buf, mErr := json.Marshal(cl.body)
		if mErr != nil {
			outcome = metrics.OutcomeError
			return nil, nil, fmt.Errorf("encoding %s request: %w", cl.op, mErr)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+cl.path, reader)
	if err != nil {
		outcome = metrics.OutcomeError
		return nil, nil, fmt.Errorf("building %s request: %w", cl.op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if cl.token != "" {
		req.Header.Set("Authorization", "Bearer "+cl.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		te := &TransportError{Op: cl.op, Class: Classify(err), Err: err}
		outcome = string(te.Class)
		return nil, nil, te
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && cl.token != "" {
		outcome = metrics.OutcomeUnauthorized
		return nil, nil, ErrUnauthorized
	}

	raw, err = io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		te := &TransportError{Op: cl.op, Class: Classify(err), Err: err}
		outcome = string(te.Class)
		return nil, nil, te
	}

	if cl.anySuccess && resp.StatusCode >= 200 && resp.StatusCode <= 299 {
		return &Envelope{Success: true}, raw, nil
	}

	var decoded Envelope
	decodeErr := json.Unmarshal(raw, &decoded)

	if decodeErr == nil && !decoded.Success && looksLikeEnvelope(raw) {
		outcome = metrics.OutcomeRejected
		return nil, raw, &BusinessError{Op: cl.op, StatusCode: resp.StatusCode, Message: decoded.Message}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		outcome = metrics.OutcomeStatus
		return nil, raw, &TransportError{Op: cl.op, Class: ClassStatus, StatusCode: resp.StatusCode}
	}
	if decodeErr != nil {
		outcome = metrics.OutcomeError
		return nil, raw, &TransportError{Op: cl.op, Class: ClassOther, Err: fmt.Errorf("decoding response: %w", decodeErr)}
	}
	return &decoded, raw, nil
}

// looksLikeEnvelope reports whether the body carries a success flag at all.
func looksLikeEnvelope(raw []byte) bool {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(raw, &probe); err != nil {
		return false
	}
	_, ok := probe["success"]
	return ok
}

func (c *Client) login(ctx context.Context, op, path, username, password string) (*LoginResult, error) {
	_, raw, err := c.do(ctx, call{
		op:      op,
		method:  http.MethodPost,
		path:    path,
		body:    map[string]string{"username": username, "password": password},
		timeout: c.requestTimeout,
	})
	if err != nil {
		return nil, err
	}

	var body struct {
		Token   string `json:"token"`
		User    User   `json:"user"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, &TransportError{Op: op, Class: ClassOther, Err: fmt.Errorf("decoding login response: %w", err)}
	}
	if body.Token == "" {
		return nil, &BusinessError{Op: op, Message: "Login response did not include a token"}
	}
	return &LoginResult{Token: body.Token, User: body.User, Message: body.Message}, nil
}

// Login authenticates an administrator.
func (c *Client) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	return c.login(ctx, "login", "/login", username, password)
}

// UserLogin authenticates an end user.
func (c *Client) UserLogin(ctx context.Context, username, password string) (*LoginResult, error) {
	return c.login(ctx, "user_login", "/user/login", username, password)
}

// Logout notifies the API that an admin token is no longer in use.
func (c *Client) Logout(ctx context.Context, token string) error {
	_, _, err := c.do(ctx, call{op: "logout", method: http.MethodPost, path: "/logout", token: token, timeout: c.requestTimeout, anySuccess: true})
	return err
}

// UserLogout notifies the API that an end-user token is no longer in use.
func (c *Client) UserLogout(ctx context.Context, token string) error {
	_, _, err := c.do(ctx, call{op: "user_logout", method: http.MethodPost, path: "/user/logout", token: token, timeout: c.requestTimeout, anySuccess: true})
	return err
}

// Verify checks an end-user token. Any 2xx means the token is valid.
func (c *Client) Verify(ctx context.Context, token string) error {
	_, _, err := c.do(ctx, call{
		op:         "verify",
		method:     http.MethodGet,
		path:       "/user/verify",
		token:      token,
		timeout:    c.verifyTimeout,
		anySuccess: true,
	})
	return err
}

// List fetches a collection and returns its records undecoded.
func (c *Client) List(ctx context.Context, token, collection string) ([]json.RawMessage, error) {
	op := "list_" + collection
	env, _, err := c.do(ctx, call{op: op, method: http.MethodGet, path: "/" + collection, token: token, timeout: c.requestTimeout})
	if err != nil {
		return nil, err
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil, nil
	}
	var rows []json.RawMessage
	if err := json.Unmarshal(env.Data, &rows); err != nil {
		return nil, &TransportError{Op: op, Class: ClassOther, Err: fmt.Errorf("decoding %s list: %w", collection, err)}
	}
	return rows, nil
}

// Create posts a new record and returns the server message.
func (c *Client) Create(ctx context.Context, token, collection string, payload any) (string, error) {
	env, _, err := c.do(ctx, call{
		op:      "create_" + collection,
		method:  http.MethodPost,
		path:    "/" + collection,
		token:   token,
		body:    payload,
		timeout: c.requestTimeout,
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Update sends a partial update for one record and returns the server message.
func (c *Client) Update(ctx context.Context, token, collection, id string, payload any) (string, error) {
	env, _, err := c.do(ctx, call{
		op:      "update_" + collection,
		method:  http.MethodPut,
		path:    "/" + collection + "/" + url.PathEscape(id),
		token:   token,
		body:    payload,
		timeout: c.requestTimeout,
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Delete removes one record and returns the server message.
func (c *Client) Delete(ctx context.Context, token, collection, id string) (string, error) {
	env, _, err := c.do(ctx, call{
		op:      "delete_" + collection,
		method:  http.MethodDelete,
		path:    "/" + collection + "/" + url.PathEscape(id),
		token:   token,
		timeout: c.requestTimeout,
	})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}
