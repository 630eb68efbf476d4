// ABOUTME: Web session persistence for the admin and end-user consoles
// ABOUTME: Sessions carry the upstream bearer token and the user record from login

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// timeLayout is fixed-width so stored timestamps compare correctly as strings.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// CreateWebSession stores a new session.
func (s *SQLiteStore) CreateWebSession(ctx context.Context, sess *WebSession) error {
	if sess.ID == "" {
		return fmt.Errorf("session id is required")
	}
	if sess.VerifiedAt.IsZero() {
		sess.VerifiedAt = sess.CreatedAt
	}

	query := `
		INSERT INTO web_sessions (id, app, token, user_id, username, role, created_at, expires_at, verified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID,
		string(sess.App),
		sess.Token,
		sess.UserID,
		sess.Username,
		sess.Role,
		formatTime(sess.CreatedAt),
		formatTime(sess.ExpiresAt),
		formatTime(sess.VerifiedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting web session: %w", err)
	}

	s.logger.Debug("created web session", "id", sess.ID, "app", sess.App, "username", sess.Username)
	return nil
}

const webSessionColumns = `id, app, token, user_id, username, role, created_at, expires_at, verified_at`

func scanWebSession(scanner interface{ Scan(dest ...any) error }) (*WebSession, error) {
	var sess WebSession
	var app, createdAt, expiresAt, verifiedAt string

	if err := scanner.Scan(
		&sess.ID,
		&app,
		&sess.Token,
		&sess.UserID,
		&sess.Username,
		&sess.Role,
		&createdAt,
		&expiresAt,
		&verifiedAt,
	); err != nil {
		return nil, err
	}

	sess.App = App(app)

	var err error
	if sess.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if sess.ExpiresAt, err = parseTime(expiresAt); err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	if sess.VerifiedAt, err = parseTime(verifiedAt); err != nil {
		return nil, fmt.Errorf("parsing verified_at: %w", err)
	}
	return &sess, nil
}

// GetWebSession retrieves a valid (non-expired) session.
func (s *SQLiteStore) GetWebSession(ctx context.Context, id string) (*WebSession, error) {
	query := `SELECT ` + webSessionColumns + ` FROM web_sessions WHERE id = ? AND expires_at > ?`

	sess, err := scanWebSession(s.db.QueryRowContext(ctx, query, id, formatTime(time.Now())))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying web session: %w", err)
	}
	return sess, nil
}

// ListWebSessions returns all non-expired sessions of an app.
func (s *SQLiteStore) ListWebSessions(ctx context.Context, app App) ([]*WebSession, error) {
	query := `SELECT ` + webSessionColumns + ` FROM web_sessions WHERE app = ? AND expires_at > ? ORDER BY created_at`

	rows, err := s.db.QueryContext(ctx, query, string(app), formatTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("querying web sessions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var sessions []*WebSession
	for rows.Next() {
		sess, err := scanWebSession(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning web session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating web sessions: %w", err)
	}
	return sessions, nil
}

// MarkWebSessionVerified records a successful upstream token verification.
func (s *SQLiteStore) MarkWebSessionVerified(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, "UPDATE web_sessions SET verified_at = ? WHERE id = ?", formatTime(at), id)
	if err != nil {
		return fmt.Errorf("updating web session: %w", err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// DeleteWebSession deletes a session. Deleting a missing session is not an error.
func (s *SQLiteStore) DeleteWebSession(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM web_sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting web session: %w", err)
	}
	return nil
}

// DeleteExpiredWebSessions removes all expired sessions and returns their ids.
func (s *SQLiteStore) DeleteExpiredWebSessions(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "DELETE FROM web_sessions WHERE expires_at <= ? RETURNING id", formatTime(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("deleting expired sessions: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning expired session id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("deleting expired sessions: %w", err)
	}

	if len(ids) > 0 {
		s.logger.Debug("deleted expired web sessions", "count", len(ids))
	}
	return ids, nil
}
