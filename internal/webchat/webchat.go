// ABOUTME: End-user HTTP handlers: login, logout, chat page, sends, and the status indicator.
// ABOUTME: The widget routes run the same exchange without a session.

package webchat

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/2389/shopdesk/internal/apiclient"
	"github.com/2389/shopdesk/internal/chat"
	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/store"
	"github.com/2389/shopdesk/internal/web"
)

const (
	loginPath          = "/login"
	chatPath           = "/chat"
	widgetPath         = "/widget"
	widgetCookieName   = "shopdesk_widget"
	widgetConversation = "widget:"
)

// Authenticator logs end users in against the API.
type Authenticator interface {
	UserLogin(ctx context.Context, username, password string) (*apiclient.LoginResult, error)
}

// Options wires a Chat.
type Options struct {
	Sessions *session.Manager
	Auth     Authenticator
	Exchange *chat.Exchange
	Status   *chat.StatusPoller
	Verifier *chat.Verifier
	// DefaultSender prefixes widget sender ids.
	DefaultSender string
	Logger        *slog.Logger
}

// Chat serves the end-user pages.
type Chat struct {
	sessions      *session.Manager
	auth          Authenticator
	exchange      *chat.Exchange
	status        *chat.StatusPoller
	verifier      *chat.Verifier
	defaultSender string
	csrf          *web.CSRF
	render        *web.Renderer
	logger        *slog.Logger
}

// New creates the chat handlers.
func New(opts Options) *Chat {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sender := opts.DefaultSender
	if sender == "" {
		sender = "guest"
	}
	c := &Chat{
		sessions:      opts.Sessions,
		auth:          opts.Auth,
		exchange:      opts.Exchange,
		status:        opts.Status,
		verifier:      opts.Verifier,
		defaultSender: sender,
		logger:        logger.With("component", "webchat"),
	}
	c.csrf = web.NewCSRF("shopdesk_csrf", "/", c.logger)
	c.render = web.MustRenderer(web.RendererOptions{
		FS:     templateFS,
		Shared: []string{"templates/base.html"},
		Pages: map[string]string{
			"login": "templates/login.html",
			"chat":  "templates/chat.html",
		},
		Logger: c.logger,
	})
	return c
}

// RegisterRoutes mounts the end-user pages on mux.
func (c *Chat) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, chatPath, http.StatusSeeOther)
	})
	mux.HandleFunc("GET /login", c.handleLoginPage)
	mux.HandleFunc("POST /login", c.handleLogin)
	mux.HandleFunc("POST /logout", c.handleLogout)

	guard := func(h http.HandlerFunc) http.HandlerFunc {
		return c.sessions.RequireFunc(store.AppUser, loginPath, h)
	}
	mux.HandleFunc("GET /chat", guard(c.handleChat))
	mux.HandleFunc("POST /chat/send", guard(c.handleSend))
	mux.HandleFunc("POST /chat/clear", guard(c.handleClear))
	mux.HandleFunc("GET /chat/status", c.handleStatus)

	mux.HandleFunc("GET /widget", c.handleWidget)
	mux.HandleFunc("POST /widget/send", c.handleWidgetSend)
	mux.HandleFunc("POST /widget/clear", c.handleWidgetClear)
}

func (c *Chat) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if sess, err := c.sessions.Resolve(r, store.AppUser); err == nil {
		if c.verifier.Verify(r.Context(), sess) {
			http.Redirect(w, r, chatPath, http.StatusSeeOther)
			return
		}
		session.ClearCookie(w, store.AppUser)
	}
	_, csrfToken := c.csrf.Ensure(w, r)
	c.render.Render(w, http.StatusOK, "login", loginData{Title: "Sign in", CSRFToken: csrfToken})
}

func (c *Chat) handleLogin(w http.ResponseWriter, r *http.Request) {
	fail := func(msg, username string) {
		_, csrfToken := c.csrf.Ensure(w, r)
		c.render.Render(w, http.StatusOK, "login", loginData{Title: "Sign in", Error: msg, Username: username, CSRFToken: csrfToken})
	}

	if err := r.ParseForm(); err != nil {
		fail("Invalid form data", "")
		return
	}
	if !c.csrf.Valid(r) {
		fail("Invalid request, please try again", "")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		fail("Please enter both username and password", username)
		return
	}

	res, err := c.auth.UserLogin(r.Context(), username, password)
	if err != nil {
		c.logger.Info("user login failed", "username", username, "error", err)
		fail(loginErrorMessage(err), username)
		return
	}

	user := session.User{ID: res.User.ID, Username: res.User.Username, Role: res.User.Role}
	if _, err := c.sessions.Create(r.Context(), w, r, store.AppUser, res.Token, user); err != nil {
		c.logger.Error("failed to create session", "error", err)
		fail("An error occurred", username)
		return
	}

	http.Redirect(w, r, chatPath+"?welcome=1", http.StatusSeeOther)
}

func loginErrorMessage(err error) string {
	var be *apiclient.BusinessError
	if errors.As(err, &be) {
		if be.Message == "" {
			return "Login failed"
		}
		return be.Message
	}
	if apiclient.Classify(err) == apiclient.ClassTimeout {
		return "Login request timed out. Please try again."
	}
	return "Connection error. Make sure the server is running."
}

func (c *Chat) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil && !c.csrf.Valid(r) {
		c.logger.Warn("logout without valid CSRF token")
	}
	c.sessions.Logout(r.Context(), w, r, store.AppUser)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

func (c *Chat) handleChat(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if !c.verifier.Verify(r.Context(), sess) {
		session.ClearCookie(w, store.AppUser)
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}

	data := c.chatPage(w, r, sess.ID)
	data.Username = sess.User.Username
	data.Welcome = r.URL.Query().Get("welcome") == "1"
	c.render.Render(w, http.StatusOK, "chat", data)
}

func (c *Chat) handleSend(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	c.send(w, r, sess.ID, sess.User.Username, chatPath)
}

func (c *Chat) handleClear(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	c.clear(w, r, sess.ID, chatPath)
}

func (c *Chat) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	if err := json.NewEncoder(w).Encode(c.status.Current()); err != nil {
		c.logger.Error("failed to encode status", "error", err)
	}
}

func (c *Chat) handleWidget(w http.ResponseWriter, r *http.Request) {
	conv := c.widgetConversation(w, r)
	data := c.chatPage(w, r, widgetConversation+conv)
	data.Widget = true
	c.render.Render(w, http.StatusOK, "chat", data)
}

func (c *Chat) handleWidgetSend(w http.ResponseWriter, r *http.Request) {
	conv := c.widgetConversation(w, r)
	c.send(w, r, widgetConversation+conv, c.defaultSender+":"+conv, widgetPath)
}

func (c *Chat) handleWidgetClear(w http.ResponseWriter, r *http.Request) {
	conv := c.widgetConversation(w, r)
	c.clear(w, r, widgetConversation+conv, widgetPath)
}

// widgetConversation returns the browser's widget conversation id, issuing
// one on first visit.
func (c *Chat) widgetConversation(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(widgetCookieName); err == nil {
		if _, err := uuid.Parse(cookie.Value); err == nil {
			return cookie.Value
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     widgetCookieName,
		Value:    id,
		Path:     widgetPath,
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

func (c *Chat) chatPage(w http.ResponseWriter, r *http.Request, conversation string) chatData {
	_, csrfToken := c.csrf.Ensure(w, r)
	data := chatData{
		Title:     "Chat",
		CSRFToken: csrfToken,
		Nonce:     uuid.NewString(),
		Status:    c.status.Current(),
	}
	msgs, err := c.exchange.History(r.Context(), conversation)
	if err != nil {
		c.logger.Error("failed to load chat history", "error", err)
		data.Error = "Could not load the conversation."
	}
	data.Messages = msgs
	return data
}

func (c *Chat) send(w http.ResponseWriter, r *http.Request, conversation, sender, back string) {
	if err := r.ParseForm(); err != nil || !c.csrf.Valid(r) {
		c.logger.Warn("chat send rejected", "reason", "csrf")
		http.Redirect(w, r, back, http.StatusSeeOther)
		return
	}

	err := c.exchange.Send(r.Context(), chat.Turn{
		Conversation: conversation,
		Sender:       sender,
		Text:         r.PostFormValue("message"),
		Nonce:        r.PostFormValue("nonce"),
	})
	if err != nil {
		c.logger.Error("failed to store chat turn", "error", err)
	}
	http.Redirect(w, r, back+"#latest", http.StatusSeeOther)
}

func (c *Chat) clear(w http.ResponseWriter, r *http.Request, conversation, back string) {
	if err := r.ParseForm(); err == nil && c.csrf.Valid(r) {
		if err := c.exchange.Clear(r.Context(), conversation); err != nil {
			c.logger.Error("failed to clear chat", "error", err)
		}
	}
	http.Redirect(w, r, back, http.StatusSeeOther)
}
