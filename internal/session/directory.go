package session

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/domain"
)

// Directory lists and deletes a user's conversations. It holds no state of
// its own; every call reflects the remote store at call time.
type Directory struct {
	store    domain.MessageStore
	identity domain.Identity
}

// NewDirectory creates a directory over the given store
func NewDirectory(store domain.MessageStore, identity domain.Identity) *Directory {
	return &Directory{store: store, identity: identity}
}

// List returns summaries of all conversations, newest activity first.
func (d *Directory) List(ctx context.Context) ([]domain.ConversationSummary, error) {
	userID, err := d.identity.CurrentUserID(ctx)
	if err != nil {
		return nil, err
	}
	summaries, err := d.store.ListConversations(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	return summaries, nil
}

// Delete removes a conversation and all of its messages.
func (d *Directory) Delete(ctx context.Context, conversationID uuid.UUID) error {
	userID, err := d.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}
	if err := d.store.DeleteConversation(ctx, userID, conversationID); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}
