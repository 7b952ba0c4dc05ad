package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// MessageRole represents the sender of a message
type MessageRole string

const (
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one utterance in a conversation. Identity is immutable once
// created; ordering within a conversation is by Timestamp ascending.
type Message struct {
	ID        uuid.UUID   `json:"id"`
	Role      MessageRole `json:"role"`
	Content   string      `json:"content"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewMessage creates a message with a fresh identifier and the current time.
func NewMessage(role MessageRole, content string) *Message {
	return &Message{
		ID:        uuid.New(),
		Role:      role,
		Content:   content,
		Timestamp: time.Now().UTC(),
	}
}

// MessageStore is the durable, per-user, append-only message log plus
// conversation metadata. All operations are remote; a uuid.Nil user ID
// fails with ErrUnauthenticated.
type MessageStore interface {
	// CreateConversation allocates a new conversation with the default
	// title and server-assigned createdAt = updatedAt.
	CreateConversation(ctx context.Context, userID uuid.UUID) (uuid.UUID, error)

	// AppendMessage writes the message keyed by its own ID (idempotent
	// under an identical ID), then advances the conversation's updatedAt
	// to server time. Returns ErrNotFound if the conversation is absent.
	AppendMessage(ctx context.Context, userID, conversationID uuid.UUID, msg *Message) error

	// ListMessages returns all messages sorted ascending by timestamp.
	// An empty conversation yields an empty slice, not an error.
	ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]Message, error)

	// ListConversations returns summaries for all of the user's
	// conversations sorted by updatedAt descending, each with a preview
	// derived from its earliest message.
	ListConversations(ctx context.Context, userID uuid.UUID) ([]ConversationSummary, error)

	// DeleteConversation removes every message under the conversation,
	// then the conversation record itself.
	DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error
}
