// ABOUTME: Activity page listing recent dashboard mutations from the audit log.
// ABOUTME: Visible to roles that manage more than orders and products.

package webadmin

import (
	"context"
	"net/http"

	"github.com/2389/shopdesk/internal/resource"
	"github.com/2389/shopdesk/internal/session"
	"github.com/2389/shopdesk/internal/store"
	"github.com/2389/shopdesk/internal/web"
)

const auditPageSize = 200

// AuditReader lists recorded dashboard mutations.
type AuditReader interface {
	ListAuditLog(ctx context.Context, f store.AuditFilter) ([]store.AuditEntry, error)
}

var auditRoles = map[string]bool{
	"Application Admin": true,
	"System Admin":      true,
}

func canSeeAudit(role string) bool {
	return auditRoles[role]
}

type auditData struct {
	Title     string
	User      session.User
	CSRFToken string
	Error     string
	Resource  string
	Resources []resource.Kind
	Entries   []store.AuditEntry
}

func (a *Admin) handleAudit(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	r, _ = a.csrf.Ensure(w, r)

	data := auditData{
		Title:     "Activity",
		User:      sess.User,
		CSRFToken: web.Token(r),
		Resources: resource.All(),
	}
	if !canSeeAudit(sess.User.Role) {
		data.Error = "The activity log is not available for your role"
		a.render.Render(w, http.StatusForbidden, "audit", data)
		return
	}

	filter := store.AuditFilter{Limit: auditPageSize}
	if res := r.URL.Query().Get("resource"); res != "" {
		if _, ok := resource.Lookup(res); ok {
			data.Resource = res
			filter.Resource = &res
		}
	}

	entries, err := a.audit.ListAuditLog(r.Context(), filter)
	if err != nil {
		a.logger.Error("failed to list audit log", "error", err)
		data.Error = "Could not load the activity log."
	}
	data.Entries = entries
	a.render.Render(w, http.StatusOK, "audit", data)
}
