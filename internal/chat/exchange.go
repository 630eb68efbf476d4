// ABOUTME: Chat exchange loop: log the user's message, call the webhook, log the replies.
// ABOUTME: Every failure becomes exactly one assistant message; nothing is returned to the page as an error.

package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/2389/shopdesk/internal/apiclient"
	"github.com/2389/shopdesk/internal/metrics"
	"github.com/2389/shopdesk/internal/store"
)

// Canned assistant texts.
const (
	Greeting        = "Hello! How can I help you today? I can assist with order status, product info, store hours, returns, and contact information."
	FallbackReply   = "I received your message but have no response."
	TimeoutReply    = "Request timed out. Please try again."
	UnreachableText = "Cannot connect to the assistant. Please try again later."
)

// Message is one entry of a rendered conversation.
type Message struct {
	ID     string
	Role   string
	Sender string
	Text   string
	Failed bool
	At     time.Time
}

// IsUser reports whether the message came from the person chatting.
func (m Message) IsUser() bool { return m.Role == store.ChatRoleUser }

// Sender delivers one message to the assistant.
type Sender interface {
	Send(ctx context.Context, sender, message string) ([]Fragment, error)
}

// Log is the conversation storage the exchange needs.
type Log interface {
	AppendChatMessage(ctx context.Context, msg *store.ChatMessage) error
	ListChatMessages(ctx context.Context, conversationID string, limit int) ([]*store.ChatMessage, error)
	ClearChatMessages(ctx context.Context, conversationID string) error
}

// Deduper reports repeated submissions.
type Deduper interface {
	Seen(conversation, nonce string) bool
}

// Exchange runs chat turns for any number of conversations.
type Exchange struct {
	log          Log
	sender       Sender
	dedupe       Deduper
	historyLimit int
	logger       *slog.Logger
}

// NewExchange creates an Exchange. dedupe may be nil.
func NewExchange(log Log, sender Sender, dedupe Deduper, historyLimit int, logger *slog.Logger) *Exchange {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exchange{
		log:          log,
		sender:       sender,
		dedupe:       dedupe,
		historyLimit: historyLimit,
		logger:       logger.With("component", "chat"),
	}
}

// Turn is one submitted message.
type Turn struct {
	Conversation string
	Sender       string
	Text         string
	// Nonce identifies the form submission; repeats are dropped.
	Nonce string
}

// Send runs one turn. The user's message is stored before the webhook is
// called and is kept whatever happens next. The returned error only
// reports storage failures.
func (e *Exchange) Send(ctx context.Context, t Turn) error {
	text := strings.TrimSpace(t.Text)
	if text == "" {
		return nil
	}
	if e.dedupe != nil && e.dedupe.Seen(t.Conversation, t.Nonce) {
		e.logger.Debug("duplicate submission dropped", "conversation", t.Conversation)
		return nil
	}

	if err := e.append(ctx, t.Conversation, store.ChatRoleUser, t.Sender, text, false); err != nil {
		return err
	}

	fragments, err := e.sender.Send(ctx, t.Sender, text)
	if err != nil {
		metrics.ChatExchangesTotal.WithLabelValues(outcomeOf(err)).Inc()
		e.logger.Warn("webhook exchange failed", "conversation", t.Conversation, "error", err)
		return e.append(ctx, t.Conversation, store.ChatRoleAssistant, "", FailureText(err), true)
	}
	metrics.ChatExchangesTotal.WithLabelValues(metrics.OutcomeOK).Inc()

	if len(fragments) == 0 {
		return e.append(ctx, t.Conversation, store.ChatRoleAssistant, "", FallbackReply, false)
	}
	for _, f := range fragments {
		if f.Text == "" {
			continue
		}
		if err := e.append(ctx, t.Conversation, store.ChatRoleAssistant, "", f.Text, false); err != nil {
			return err
		}
	}
	return nil
}

func (e *Exchange) append(ctx context.Context, conversation, role, sender, text string, failed bool) error {
	msg := &store.ChatMessage{
		ConversationID: conversation,
		Role:           role,
		Sender:         sender,
		Text:           text,
		Failed:         failed,
	}
	if err := e.log.AppendChatMessage(ctx, msg); err != nil {
		return fmt.Errorf("storing %s message: %w", role, err)
	}
	return nil
}

// History returns the conversation as shown: the greeting, then the stored
// messages oldest first.
func (e *Exchange) History(ctx context.Context, conversation string) ([]Message, error) {
	stored, err := e.log.ListChatMessages(ctx, conversation, e.historyLimit)
	if err != nil {
		return nil, fmt.Errorf("loading conversation: %w", err)
	}
	out := make([]Message, 0, len(stored)+1)
	out = append(out, Message{Role: store.ChatRoleAssistant, Text: Greeting})
	for _, m := range stored {
		out = append(out, Message{
			ID:     m.ID,
			Role:   m.Role,
			Sender: m.Sender,
			Text:   m.Text,
			Failed: m.Failed,
			At:     m.CreatedAt,
		})
	}
	return out, nil
}

// Clear resets a conversation to the greeting.
func (e *Exchange) Clear(ctx context.Context, conversation string) error {
	if err := e.log.ClearChatMessages(ctx, conversation); err != nil {
		return fmt.Errorf("clearing conversation: %w", err)
	}
	return nil
}

// FailureText describes a failed exchange by class.
func FailureText(err error) string {
	var te *apiclient.TransportError
	if errors.As(err, &te) {
		switch te.Class {
		case apiclient.ClassTimeout:
			return TimeoutReply
		case apiclient.ClassUnreachable:
			return UnreachableText
		case apiclient.ClassStatus:
			return fmt.Sprintf("Server error: %d", te.StatusCode)
		}
		if te.Err != nil {
			return "Error: " + te.Err.Error()
		}
	}
	return "Error: " + err.Error()
}

func outcomeOf(err error) string {
	var te *apiclient.TransportError
	if errors.As(err, &te) {
		return string(te.Class)
	}
	return metrics.OutcomeError
}
