// ABOUTME: Chat message log persistence keyed by conversation
// ABOUTME: Messages are returned in insertion order; clearing removes a whole conversation

package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// normalizeChatLimit applies default (200) and cap (1000) to chat history limits.
func normalizeChatLimit(limit int) int {
	switch {
	case limit <= 0:
		return 200
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

// AppendChatMessage appends a message to a conversation.
// Generates ID and CreatedAt if not set.
func (s *SQLiteStore) AppendChatMessage(ctx context.Context, msg *ChatMessage) error {
	if msg.ConversationID == "" {
		return fmt.Errorf("conversation id is required")
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}

	failed := 0
	if msg.Failed {
		failed = 1
	}

	query := `
		INSERT INTO chat_messages (id, conversation_id, role, sender, text, failed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		msg.ID,
		msg.ConversationID,
		msg.Role,
		msg.Sender,
		msg.Text,
		failed,
		formatTime(msg.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns the most recent messages of a conversation, oldest first.
func (s *SQLiteStore) ListChatMessages(ctx context.Context, conversationID string, limit int) ([]*ChatMessage, error) {
	query := `
		SELECT id, conversation_id, role, sender, text, failed, created_at FROM (
			SELECT seq, id, conversation_id, role, sender, text, failed, created_at
			FROM chat_messages
			WHERE conversation_id = ?
			ORDER BY seq DESC
			LIMIT ?
		) ORDER BY seq ASC
	`

	rows, err := s.db.QueryContext(ctx, query, conversationID, normalizeChatLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying chat messages: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var messages []*ChatMessage
	for rows.Next() {
		var msg ChatMessage
		var failed int
		var createdAt string
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &msg.Role, &msg.Sender, &msg.Text, &failed, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		msg.Failed = failed != 0
		if msg.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		messages = append(messages, &msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}
	return messages, nil
}

// ClearChatMessages removes every message of a conversation.
func (s *SQLiteStore) ClearChatMessages(ctx context.Context, conversationID string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM chat_messages WHERE conversation_id = ?", conversationID); err != nil {
		return fmt.Errorf("clearing chat messages: %w", err)
	}
	return nil
}
