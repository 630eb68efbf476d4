// ABOUTME: Store interface and record types for shopdesk persistence
// ABOUTME: Defines web sessions, chat messages, and audit entries kept by the console

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// ErrSessionNotFound is returned when a session doesn't exist or is expired.
var ErrSessionNotFound = errors.New("web session not found")

// App identifies which front end a session belongs to.
type App string

const (
	AppAdmin App = "admin" // admin dashboard
	AppUser  App = "user"  // end-user chat
)

// WebSession is the server-side record behind a session cookie. It holds the
// bearer token issued by the API and the user record returned at login.
type WebSession struct {
	ID         string
	App        App
	Token      string
	UserID     int64
	Username   string
	Role       string
	CreatedAt  time.Time
	ExpiresAt  time.Time
	VerifiedAt time.Time
}

// Chat message roles
const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatMessage is one entry of a conversation log.
type ChatMessage struct {
	ID             string
	ConversationID string
	Role           string // "user" or "assistant"
	Sender         string
	Text           string
	Failed         bool // assistant message describing a failed exchange
	CreatedAt      time.Time
}

// Store is the persistence surface used by the console.
type Store interface {
	// Sessions
	CreateWebSession(ctx context.Context, sess *WebSession) error
	GetWebSession(ctx context.Context, id string) (*WebSession, error)
	ListWebSessions(ctx context.Context, app App) ([]*WebSession, error)
	MarkWebSessionVerified(ctx context.Context, id string, at time.Time) error
	DeleteWebSession(ctx context.Context, id string) error
	DeleteExpiredWebSessions(ctx context.Context) ([]string, error)

	// Chat log
	AppendChatMessage(ctx context.Context, msg *ChatMessage) error
	ListChatMessages(ctx context.Context, conversationID string, limit int) ([]*ChatMessage, error)
	ClearChatMessages(ctx context.Context, conversationID string) error

	// Audit
	AppendAuditLog(ctx context.Context, e *AuditEntry) error
	ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error)

	Close() error
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
