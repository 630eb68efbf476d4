// ABOUTME: Audit log of dashboard mutations (create, update, delete)
// ABOUTME: Records who changed which resource and what the API answered

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of mutation recorded.
type AuditAction string

const (
	AuditCreate AuditAction = "create"
	AuditUpdate AuditAction = "update"
	AuditDelete AuditAction = "delete"
)

// AuditOutcome is how the API answered a mutation.
type AuditOutcome string

const (
	AuditOK       AuditOutcome = "ok"       // success:true
	AuditRejected AuditOutcome = "rejected" // success:false with a message
	AuditFailed   AuditOutcome = "failed"   // transport failure or unauthorized
)

// AuditEntry is one mutation attempt issued through the dashboard.
type AuditEntry struct {
	ID        string
	SessionID string
	Actor     string // username of the admin
	Action    AuditAction
	Resource  string // resource kind id, e.g. "products"
	TargetID  string // empty for creates
	Outcome   AuditOutcome
	Message   string
	Timestamp time.Time
}

// AuditFilter narrows ListAuditLog results.
type AuditFilter struct {
	Actor    *string
	Resource *string
	Limit    int // max results (default 100, max 1000)
}

// AppendAuditLog appends a new entry to the audit log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_log (audit_id, session_id, actor, action, resource, target_id, outcome, message, ts)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		e.ID,
		e.SessionID,
		e.Actor,
		string(e.Action),
		e.Resource,
		e.TargetID,
		string(e.Outcome),
		e.Message,
		formatTime(e.Timestamp),
	)
	if err != nil {
		return fmt.Errorf("inserting audit entry: %w", err)
	}

	s.logger.Debug("appended audit log",
		"id", e.ID,
		"actor", e.Actor,
		"action", e.Action,
		"target", e.Resource+"/"+e.TargetID,
		"outcome", e.Outcome,
	)
	return nil
}

// normalizeAuditLimit applies default (100) and cap (1000) to audit limit.
func normalizeAuditLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

const auditLogQuery = `
	SELECT audit_id, session_id, actor, action, resource, target_id, outcome, message, ts
	FROM audit_log
	WHERE (? IS NULL OR actor = ?)
	  AND (? IS NULL OR resource = ?)
	ORDER BY ts DESC
	LIMIT ?
`

// ListAuditLog returns audit entries matching the filter criteria, newest first.
func (s *SQLiteStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx, auditLogQuery,
		f.Actor, f.Actor,
		f.Resource, f.Resource,
		normalizeAuditLimit(f.Limit),
	)
	if err != nil {
		return nil, fmt.Errorf("querying audit log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := []AuditEntry{}
	for rows.Next() {
		var e AuditEntry
		var action, outcome, ts string
		if err := rows.Scan(&e.ID, &e.SessionID, &e.Actor, &action, &e.Resource, &e.TargetID, &outcome, &e.Message, &ts); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Action = AuditAction(action)
		e.Outcome = AuditOutcome(outcome)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing timestamp: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating audit entries: %w", err)
	}
	return entries, nil
}
