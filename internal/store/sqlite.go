// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Opens the database, enables WAL, and creates the schema on first use

package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting busy timeout: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS web_sessions (
			id          TEXT PRIMARY KEY,
			app         TEXT NOT NULL,
			token       TEXT NOT NULL,
			user_id     INTEGER NOT NULL DEFAULT 0,
			username    TEXT NOT NULL DEFAULT '',
			role        TEXT NOT NULL DEFAULT '',
			created_at  TEXT NOT NULL,
			expires_at  TEXT NOT NULL,
			verified_at TEXT NOT NULL,

			CHECK (app IN ('admin', 'user'))
		);

		CREATE INDEX IF NOT EXISTS idx_web_sessions_app ON web_sessions(app);
		CREATE INDEX IF NOT EXISTS idx_web_sessions_expires ON web_sessions(expires_at);

		CREATE TABLE IF NOT EXISTS chat_messages (
			seq             INTEGER PRIMARY KEY AUTOINCREMENT,
			id              TEXT NOT NULL UNIQUE,
			conversation_id TEXT NOT NULL,
			role            TEXT NOT NULL,
			sender          TEXT NOT NULL,
			text            TEXT NOT NULL,
			failed          INTEGER NOT NULL DEFAULT 0,
			created_at      TEXT NOT NULL,

			CHECK (role IN ('user', 'assistant'))
		);

		CREATE INDEX IF NOT EXISTS idx_chat_messages_conversation
			ON chat_messages(conversation_id, seq);

		CREATE TABLE IF NOT EXISTS audit_log (
			audit_id   TEXT PRIMARY KEY,
			session_id TEXT NOT NULL,
			actor      TEXT NOT NULL,
			action     TEXT NOT NULL,
			resource   TEXT NOT NULL,
			target_id  TEXT NOT NULL,
			outcome    TEXT NOT NULL,
			message    TEXT NOT NULL DEFAULT '',
			ts         TEXT NOT NULL,

			CHECK (action IN ('create', 'update', 'delete')),
			CHECK (outcome IN ('ok', 'rejected', 'failed'))
		);

		CREATE INDEX IF NOT EXISTS idx_audit_ts ON audit_log(ts DESC);
		CREATE INDEX IF NOT EXISTS idx_audit_actor ON audit_log(actor);
		CREATE INDEX IF NOT EXISTS idx_audit_resource ON audit_log(resource, target_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.logger.Info("closing SQLite store")
	return s.db.Close()
}
