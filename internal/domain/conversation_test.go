package domain

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSortSummaries(t *testing.T) {
	now := time.Now().UTC()
	oldest := ConversationSummary{ID: uuid.New(), UpdatedAt: now.Add(-2 * time.Hour)}
	middle := ConversationSummary{ID: uuid.New(), UpdatedAt: now.Add(-time.Hour)}
	newest := ConversationSummary{ID: uuid.New(), UpdatedAt: now}

	summaries := []ConversationSummary{oldest, newest, middle}
	SortSummaries(summaries)

	assert.Equal(t, newest.ID, summaries[0].ID)
	assert.Equal(t, middle.ID, summaries[1].ID)
	assert.Equal(t, oldest.ID, summaries[2].ID)
}

func TestNewMessage(t *testing.T) {
	before := time.Now().UTC()
	msg := NewMessage(RoleUser, "hello")
	after := time.Now().UTC()

	assert.NotEqual(t, uuid.Nil, msg.ID)
	assert.Equal(t, RoleUser, msg.Role)
	assert.Equal(t, "hello", msg.Content)
	assert.False(t, msg.Timestamp.Before(before))
	assert.False(t, msg.Timestamp.After(after))

	other := NewMessage(RoleAssistant, "hi")
	assert.NotEqual(t, msg.ID, other.ID)
}

func TestStaticIdentity(t *testing.T) {
	ctx := context.Background()

	userID := uuid.New()
	got, err := StaticIdentity(userID).CurrentUserID(ctx)
	require.NoError(t, err)
	assert.Equal(t, userID, got)

	_, err = StaticIdentity(uuid.Nil).CurrentUserID(ctx)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}
