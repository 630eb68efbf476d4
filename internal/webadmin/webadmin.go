// ABOUTME: Operator console HTTP handlers: login, logout, and the dashboard routes.
// ABOUTME: Each route maps to one dashboard command; the session guard runs first.

package webadmin

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/2389/shopdesk/internal/apiclient"
	"github.com/2389/shopdesk/internal/dashboard"
	"github.com/2389/shopdesk/internal/resource"
	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/store"
	"github.com/2389/shopdesk/internal/web"
)

const (
	loginPath     = "/admin/login"
	dashboardPath = "/admin/"
)

// Authenticator logs operators in against the API.
type Authenticator interface {
	Login(ctx context.Context, username, password string) (*apiclient.LoginResult, error)
}

// Admin serves the operator console.
type Admin struct {
	controller *dashboard.Controller
	sessions   *session.Manager
	auth       Authenticator
	audit      AuditReader
	csrf       *web.CSRF
	render     *web.Renderer
	logger     *slog.Logger
}

// New creates the console handlers.
func New(controller *dashboard.Controller, sessions *session.Manager, auth Authenticator, audit AuditReader, logger *slog.Logger) *Admin {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Admin{
		controller: controller,
		sessions:   sessions,
		auth:       auth,
		audit:      audit,
		logger:     logger.With("component", "webadmin"),
	}
	a.csrf = web.NewCSRF("shopdesk_admin_csrf", "/admin", a.logger)
	a.render = newRenderer(a)
	return a
}

// RegisterRoutes mounts the console on mux.
func (a *Admin) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /admin/login", a.handleLoginPage)
	mux.HandleFunc("POST /admin/login", a.handleLogin)
	mux.HandleFunc("POST /admin/logout", a.handleLogout)

	guard := func(h http.HandlerFunc) http.HandlerFunc {
		return a.sessions.RequireFunc(store.AppAdmin, loginPath, h)
	}
	mux.HandleFunc("GET /admin", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, dashboardPath, http.StatusMovedPermanently)
	})
	mux.HandleFunc("GET /admin/{$}", guard(a.handleDashboard))
	mux.HandleFunc("GET /admin/audit", guard(a.handleAudit))
	mux.HandleFunc("GET /admin/s/{section}", guard(a.handleSection))
	mux.HandleFunc("POST /admin/s/{section}/create", guard(a.handleCreate))
	mux.HandleFunc("GET /admin/s/{section}/{id}/edit", guard(a.handleEditForm))
	mux.HandleFunc("POST /admin/s/{section}/{id}/edit", guard(a.handleEdit))
	mux.HandleFunc("POST /admin/s/{section}/{id}/cancel", guard(a.handleCancel))
	mux.HandleFunc("GET /admin/s/{section}/{id}/delete", guard(a.handleDeleteConfirm))
	mux.HandleFunc("POST /admin/s/{section}/{id}/delete", guard(a.handleDelete))
}

func (a *Admin) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if _, err := a.sessions.Resolve(r, store.AppAdmin); err == nil {
		http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
		return
	}
	_, csrfToken := a.csrf.Ensure(w, r)
	a.renderLoginPage(w, http.StatusOK, loginData{CSRFToken: csrfToken})
}

func (a *Admin) handleLogin(w http.ResponseWriter, r *http.Request) {
	fail := func(msg, username string) {
		_, csrfToken := a.csrf.Ensure(w, r)
		a.renderLoginPage(w, http.StatusOK, loginData{Error: msg, Username: username, CSRFToken: csrfToken})
	}

	if err := r.ParseForm(); err != nil {
		fail("Invalid form data", "")
		return
	}
	if !a.csrf.Valid(r) {
		fail("Invalid request, please try again", "")
		return
	}

	username := strings.TrimSpace(r.PostFormValue("username"))
	password := r.PostFormValue("password")
	if username == "" || password == "" {
		fail("Please enter both username and password", username)
		return
	}

	res, err := a.auth.Login(r.Context(), username, password)
	if err != nil {
		a.logger.Info("admin login failed", "username", username, "error", err)
		fail(loginErrorMessage(err), username)
		return
	}

	user := session.User{ID: res.User.ID, Username: res.User.Username, Role: res.User.Role}
	if _, err := a.sessions.Create(r.Context(), w, r, store.AppAdmin, res.Token, user); err != nil {
		a.logger.Error("failed to create session", "error", err)
		fail("An error occurred", username)
		return
	}

	a.logger.Info("admin logged in", "username", user.Username, "role", user.Role)
	http.Redirect(w, r, dashboardPath, http.StatusSeeOther)
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
	return "Connection error. Make sure the admin API is reachable."
}

func (a *Admin) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil && !a.csrf.Valid(r) {
		a.logger.Warn("logout without valid CSRF token")
	}

	if sess, err := a.sessions.Resolve(r, store.AppAdmin); err == nil {
		a.controller.Handle(r.Context(), sess, dashboard.Logout{})
	}
	a.sessions.Logout(r.Context(), w, r, store.AppAdmin)
	a.csrf.Clear(w)
	http.Redirect(w, r, loginPath, http.StatusSeeOther)
}

// dispatch runs cmd and renders the result, or ends the session when the
// controller says so.
func (a *Admin) dispatch(w http.ResponseWriter, r *http.Request, cmd dashboard.Command) {
	sess := session.FromContext(r.Context())
	r, _ = a.csrf.Ensure(w, r)

	view, out := a.controller.Handle(r.Context(), sess, cmd)
	if out.LoggedOut {
		if out.Forced {
			a.sessions.End(r.Context(), sess.ID, "unauthorized")
			session.ClearCookie(w, store.AppAdmin)
		} else {
			a.sessions.Logout(r.Context(), w, r, store.AppAdmin)
		}
		http.Redirect(w, r, loginPath, http.StatusSeeOther)
		return
	}
	a.renderDashboard(w, r, sess, view)
}

// checkedForm parses a POST form and checks its CSRF token. On failure it
// renders the current page with an error and returns false.
func (a *Admin) checkedForm(w http.ResponseWriter, r *http.Request) bool {
	if err := r.ParseForm(); err != nil || !a.csrf.Valid(r) {
		sess := session.FromContext(r.Context())
		r, _ = a.csrf.Ensure(w, r)
		view, _ := a.controller.Handle(r.Context(), sess, dashboard.Show{})
		view.Flash = &dashboard.Flash{Kind: dashboard.FlashError, Message: "Invalid request, please try again"}
		a.renderDashboard(w, r, sess, view)
		return false
	}
	return true
}

func (a *Admin) handleDashboard(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	if tabs := resource.SectionsFor(sess.User.Role); len(tabs) > 0 {
		http.Redirect(w, r, "/admin/s/"+tabs[0].ID(), http.StatusSeeOther)
		return
	}
	a.dispatch(w, r, dashboard.Show{})
}

func (a *Admin) handleSection(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, dashboard.Activate{Section: r.PathValue("section")})
}

func (a *Admin) handleCreate(w http.ResponseWriter, r *http.Request) {
	if !a.checkedForm(w, r) {
		return
	}
	a.dispatch(w, r, dashboard.Create{Section: r.PathValue("section"), Values: r.PostForm})
}

func (a *Admin) handleEditForm(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, dashboard.OpenEdit{Section: r.PathValue("section"), ID: r.PathValue("id")})
}

func (a *Admin) handleEdit(w http.ResponseWriter, r *http.Request) {
	if !a.checkedForm(w, r) {
		return
	}
	a.dispatch(w, r, dashboard.SubmitEdit{
		Section: r.PathValue("section"),
		ID:      r.PathValue("id"),
		Values:  r.PostForm,
	})
}

func (a *Admin) handleCancel(w http.ResponseWriter, r *http.Request) {
	if !a.checkedForm(w, r) {
		return
	}
	a.dispatch(w, r, dashboard.CancelEdit{})
}

func (a *Admin) handleDeleteConfirm(w http.ResponseWriter, r *http.Request) {
	a.dispatch(w, r, dashboard.RequestDelete{Section: r.PathValue("section"), ID: r.PathValue("id")})
}

func (a *Admin) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !a.checkedForm(w, r) {
		return
	}
	a.dispatch(w, r, dashboard.ConfirmDelete{
		Section:   r.PathValue("section"),
		ID:        r.PathValue("id"),
		Confirmed: r.PostFormValue("confirm") == "yes",
	})
}
