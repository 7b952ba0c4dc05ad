package sqlite

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coachly/coachly/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(context.Background(), filepath.Join(t.TempDir(), "coachly.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func messageAt(role domain.MessageRole, content string, ts time.Time) *domain.Message {
	return &domain.Message{ID: uuid.New(), Role: role, Content: content, Timestamp: ts}
}

func TestStore_CreateConversation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	conversationID, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, conversationID)

	summaries, err := store.ListConversations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, conversationID, summaries[0].ID)
	assert.Equal(t, domain.DefaultConversationTitle, summaries[0].Title)
	assert.Equal(t, domain.PreviewPlaceholder, summaries[0].Preview)

	t.Run("nil user is rejected", func(t *testing.T) {
		_, err := store.CreateConversation(ctx, uuid.Nil)
		assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	})
}

func TestStore_AppendAndListMessages(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	conversationID, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)

	t1 := time.Now().UTC().Add(-time.Minute)
	t2 := t1.Add(30 * time.Second)

	userMsg := messageAt(domain.RoleUser, "Hi", t1)
	assistantMsg := messageAt(domain.RoleAssistant, "Hello!", t2)

	require.NoError(t, store.AppendMessage(ctx, userID, conversationID, userMsg))
	require.NoError(t, store.AppendMessage(ctx, userID, conversationID, assistantMsg))

	messages, err := store.ListMessages(ctx, userID, conversationID)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	assert.Equal(t, "Hi", messages[0].Content)
	assert.Equal(t, "Hello!", messages[1].Content)
	assert.True(t, !messages[1].Timestamp.Before(messages[0].Timestamp))

	t.Run("unknown conversation", func(t *testing.T) {
		err := store.AppendMessage(ctx, userID, uuid.New(), messageAt(domain.RoleUser, "lost", time.Now()))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("other user's conversation is invisible", func(t *testing.T) {
		err := store.AppendMessage(ctx, uuid.New(), conversationID, messageAt(domain.RoleUser, "intruder", time.Now()))
		assert.ErrorIs(t, err, domain.ErrNotFound)

		messages, err := store.ListMessages(ctx, uuid.New(), conversationID)
		require.NoError(t, err)
		assert.Empty(t, messages)
	})
}

func TestStore_ListMessagesOrdersMixedPrecisionTimestamps(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	conversationID, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)

	// Fractional seconds of different formatted widths do not sort
	// chronologically as trimmed RFC3339Nano text. Append out of order and
	// check the stored column still sorts by time.
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		base.Add(150 * time.Millisecond),
		base.Add(100 * time.Millisecond),
		base.Add(500 * time.Millisecond),
		base,
	}
	for i, ts := range stamps {
		msg := messageAt(domain.RoleUser, fmt.Sprintf("m%d", i), ts)
		require.NoError(t, store.AppendMessage(ctx, userID, conversationID, msg))
	}

	messages, err := store.ListMessages(ctx, userID, conversationID)
	require.NoError(t, err)
	require.Len(t, messages, len(stamps))
	for i := 1; i < len(messages); i++ {
		assert.False(t, messages[i].Timestamp.Before(messages[i-1].Timestamp))
	}
	assert.Equal(t, []string{"m3", "m1", "m0", "m2"}, []string{
		messages[0].Content, messages[1].Content, messages[2].Content, messages[3].Content,
	})

	summaries, err := store.ListConversations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	assert.Equal(t, "m3", summaries[0].Preview)
}

func TestStore_AppendMessageIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	conversationID, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)

	msg := messageAt(domain.RoleUser, "first try", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, store.AppendMessage(ctx, userID, conversationID, msg))

	// same id again, as a retry would send it
	msg.Content = "second try"
	msg.Timestamp = msg.Timestamp.Add(time.Second)
	require.NoError(t, store.AppendMessage(ctx, userID, conversationID, msg))

	messages, err := store.ListMessages(ctx, userID, conversationID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, msg.ID, messages[0].ID)
	assert.Equal(t, "second try", messages[0].Content)
}

func TestStore_AppendMessageRejectsForeignMessageID(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	first, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)
	second, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)

	msg := messageAt(domain.RoleUser, "mine", time.Now().UTC().Add(-time.Minute))
	require.NoError(t, store.AppendMessage(ctx, userID, first, msg))

	// Re-sending an id against a different conversation must not re-home
	// the stored row.
	foreign := messageAt(domain.RoleUser, "stolen", msg.Timestamp)
	foreign.ID = msg.ID
	err = store.AppendMessage(ctx, userID, second, foreign)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	messages, err := store.ListMessages(ctx, userID, first)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Equal(t, "mine", messages[0].Content)

	messages, err = store.ListMessages(ctx, userID, second)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestStore_AppendMessageAdvancesUpdatedAt(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	conversationID, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)

	before, err := store.ListConversations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, before, 1)

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.AppendMessage(ctx, userID, conversationID,
		messageAt(domain.RoleUser, "bump", time.Now().UTC())))

	after, err := store.ListConversations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.True(t, after[0].UpdatedAt.After(before[0].UpdatedAt))
}

func TestStore_ListConversations(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	first, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)
	second, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)

	base := time.Now().UTC().Add(-time.Hour)
	require.NoError(t, store.AppendMessage(ctx, userID, first, messageAt(domain.RoleUser, "opening line", base)))
	require.NoError(t, store.AppendMessage(ctx, userID, first, messageAt(domain.RoleAssistant, "reply", base.Add(time.Minute))))

	// touching the first conversation last makes it most recent
	summaries, err := store.ListConversations(ctx, userID)
	require.NoError(t, err)
	require.Len(t, summaries, 2)

	assert.Equal(t, first, summaries[0].ID)
	assert.Equal(t, "opening line", summaries[0].Preview)
	assert.Equal(t, second, summaries[1].ID)
	assert.Equal(t, domain.PreviewPlaceholder, summaries[1].Preview)

	for i := 1; i < len(summaries); i++ {
		assert.False(t, summaries[i].UpdatedAt.After(summaries[i-1].UpdatedAt))
	}

	t.Run("empty directory", func(t *testing.T) {
		summaries, err := store.ListConversations(ctx, uuid.New())
		require.NoError(t, err)
		assert.Empty(t, summaries)
	})
}

func TestStore_DeleteConversation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	userID := uuid.New()

	conversationID, err := store.CreateConversation(ctx, userID)
	require.NoError(t, err)
	require.NoError(t, store.AppendMessage(ctx, userID, conversationID,
		messageAt(domain.RoleUser, "bye", time.Now().UTC())))

	require.NoError(t, store.DeleteConversation(ctx, userID, conversationID))

	summaries, err := store.ListConversations(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, summaries)

	messages, err := store.ListMessages(ctx, userID, conversationID)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	repo := NewUserRepository(store)

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Email:        "coach@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, repo.Create(ctx, user))

	t.Run("get by id", func(t *testing.T) {
		got, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.Email, got.Email)
	})

	t.Run("get by email", func(t *testing.T) {
		got, err := repo.GetByEmail(ctx, "coach@example.com")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, user.ID, got.ID)
	})

	t.Run("missing user yields nil", func(t *testing.T) {
		got, err := repo.GetByID(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("email exists", func(t *testing.T) {
		exists, err := repo.EmailExists(ctx, "coach@example.com")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.EmailExists(ctx, "nobody@example.com")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}
