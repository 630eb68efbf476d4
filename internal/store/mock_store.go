// ABOUTME: Mock Store implementation for testing
// ABOUTME: Allows tests to run without SQLite

package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MockStore is an in-memory Store implementation for testing.
type MockStore struct {
	mu       sync.RWMutex
	sessions map[string]*WebSession    // keyed by session ID
	chat     map[string][]*ChatMessage // keyed by conversation ID
	audit    []AuditEntry
}

// Ensure MockStore implements Store.
var _ Store = (*MockStore)(nil)

// NewMockStore creates a new MockStore.
func NewMockStore() *MockStore {
	return &MockStore{
		sessions: make(map[string]*WebSession),
		chat:     make(map[string][]*ChatMessage),
	}
}

// CreateWebSession stores a new session.
func (m *MockStore) CreateWebSession(ctx context.Context, sess *WebSession) error {
	if sess.ID == "" {
		return fmt.Errorf("session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	s := *sess
	if s.VerifiedAt.IsZero() {
		s.VerifiedAt = s.CreatedAt
	}
	m.sessions[s.ID] = &s
	return nil
}

// GetWebSession retrieves a non-expired session.
func (m *MockStore) GetWebSession(ctx context.Context, id string) (*WebSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || !s.ExpiresAt.After(time.Now()) {
		return nil, ErrSessionNotFound
	}
	result := *s
	return &result, nil
}

// ListWebSessions returns all non-expired sessions of an app.
func (m *MockStore) ListWebSessions(ctx context.Context, app App) ([]*WebSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	now := time.Now()
	var result []*WebSession
	for _, s := range m.sessions {
		if s.App == app && s.ExpiresAt.After(now) {
			c := *s
			result = append(result, &c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// MarkWebSessionVerified records a successful verification.
func (m *MockStore) MarkWebSessionVerified(ctx context.Context, id string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}
	s.VerifiedAt = at
	return nil
}

// DeleteWebSession removes a session.
func (m *MockStore) DeleteWebSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// DeleteExpiredWebSessions removes expired sessions and returns their ids.
func (m *MockStore) DeleteExpiredWebSessions(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	var ids []string
	for id, s := range m.sessions {
		if !s.ExpiresAt.After(now) {
			delete(m.sessions, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// AppendChatMessage appends a message to a conversation.
func (m *MockStore) AppendChatMessage(ctx context.Context, msg *ChatMessage) error {
	if msg.ConversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	c := *msg
	m.chat[c.ConversationID] = append(m.chat[c.ConversationID], &c)
	return nil
}

// ListChatMessages returns the most recent messages, oldest first.
func (m *MockStore) ListChatMessages(ctx context.Context, conversationID string, limit int) ([]*ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	all := m.chat[conversationID]
	limit = normalizeChatLimit(limit)
	if len(all) > limit {
		all = all[len(all)-limit:]
	}

	result := make([]*ChatMessage, len(all))
	for i, msg := range all {
		c := *msg
		result[i] = &c
	}
	return result, nil
}

// ClearChatMessages removes every message of a conversation.
func (m *MockStore) ClearChatMessages(ctx context.Context, conversationID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chat, conversationID)
	return nil
}

// AppendAuditLog appends an audit entry.
func (m *MockStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.audit = append(m.audit, *e)
	return nil
}

// ListAuditLog returns matching audit entries, newest first.
func (m *MockStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]AuditEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entries := []AuditEntry{}
	for i := len(m.audit) - 1; i >= 0; i-- {
		e := m.audit[i]
		if f.Actor != nil && e.Actor != *f.Actor {
			continue
		}
		if f.Resource != nil && e.Resource != *f.Resource {
			continue
		}
		entries = append(entries, e)
		if len(entries) == normalizeAuditLimit(f.Limit) {
			break
		}
	}
	return entries, nil
}

// Close is a no-op for the mock store.
func (m *MockStore) Close() error {
	return nil
}
