// ABOUTME: Template data types and page rendering for the admin console.
// ABOUTME: Converts a dashboard view into the flat structs the templates read.

package webadmin

import (
	"html/template"
	"net/http"

	"github.com/2389/shopdesk/internal/dashboard"
	"github.com/2389/shopdesk/internal/resource"
	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/web"
)

type loginData struct {
	Title     string
	Error     string
	Username  string
	CSRFToken string
}

type tabItem struct {
	ID     string
	Label  string
	Active bool
}

type rowItem struct {
	ID       string
	Cells    []resource.Cell
	Editable bool
}

type sectionData struct {
	ID        string
	Label     string
	Singular  string
	Columns   []string
	Rows      []rowItem
	HasCreate bool
	Create    []resource.Field
}

type modalData struct {
	Section string
	ID      string
	Title   string
	Fields  []resource.Field
	Preview template.HTML
}

type deleteData struct {
	Section string
	ID      string
	Name    string
	Type    string
}

type dashboardData struct {
	Title     string
	User      session.User
	CSRFToken string
	Tabs      []tabItem
	Section   *sectionData
	Modal     *modalData
	Delete    *deleteData
	Flash     *dashboard.Flash
	ShowAudit bool
}

func newRenderer(a *Admin) *web.Renderer {
	return web.MustRenderer(web.RendererOptions{
		FS:     templateFS,
		Shared: []string{"templates/base.html", "templates/partials/field.html"},
		Pages: map[string]string{
			"login":     "templates/login.html",
			"dashboard": "templates/dashboard.html",
			"audit":     "templates/audit.html",
		},
		Logger: a.logger,
	})
}

func (a *Admin) renderLoginPage(w http.ResponseWriter, status int, data loginData) {
	data.Title = "Admin Login"
	a.render.Render(w, status, "login", data)
}

func (a *Admin) renderDashboard(w http.ResponseWriter, r *http.Request, sess *session.Session, view dashboard.View) {
	a.render.Render(w, http.StatusOK, "dashboard", buildDashboardData(sess, view, web.Token(r)))
}

func buildDashboardData(sess *session.Session, view dashboard.View, csrfToken string) dashboardData {
	data := dashboardData{
		Title:     "Dashboard",
		User:      sess.User,
		CSRFToken: csrfToken,
		Flash:     view.Flash,
		ShowAudit: canSeeAudit(sess.User.Role),
	}

	for _, k := range view.Tabs {
		data.Tabs = append(data.Tabs, tabItem{
			ID:     k.ID(),
			Label:  k.Label(),
			Active: view.Active != nil && k.ID() == view.Active.ID(),
		})
	}

	if k := view.Active; k != nil {
		data.Title = k.Label()
		sec := &sectionData{
			ID:       k.ID(),
			Label:    k.Label(),
			Singular: k.Singular(),
			Columns:  k.Columns(),
		}
		editable := resource.Editable(k)
		for _, rec := range view.Rows {
			sec.Rows = append(sec.Rows, rowItem{ID: rec.RecordID(), Cells: rec.Cells(), Editable: editable})
		}
		if form, ok := k.CreateForm(); ok {
			sec.HasCreate = true
			sec.Create = form.Fields
			if view.CreateValues != nil {
				sec.Create = resource.WithValues(form.Fields, mapValues(view.CreateValues))
			}
		}
		data.Section = sec
	}

	if m := view.Modal; m != nil {
		data.Modal = &modalData{
			Section: m.Kind.ID(),
			ID:      m.ID,
			Title:   m.Title,
			Fields:  m.Fields,
			// Produced by the markdown renderer, which escapes raw HTML.
			Preview: template.HTML(m.Preview), //nolint:gosec
		}
	}

	if d := view.Delete; d != nil {
		data.Delete = &deleteData{
			Section: d.Kind.ID(),
			ID:      d.ID,
			Name:    d.Name,
			Type:    d.Kind.Singular(),
		}
	}
	return data
}

// mapValues adapts captured form values to resource.Values.
type mapValues map[string]string

func (m mapValues) Get(key string) string { return m[key] }
