package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/coachly/coachly/internal/domain"
)

// Store implements domain.MessageStore over postgres. Conversation
// timestamps are server-assigned via now() so clients with skewed clocks
// cannot reorder the directory listing.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new postgres-backed message store
func NewStore(db *DB) *Store {
	return &Store{pool: db.Pool}
}

func (s *Store) CreateConversation(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}

	conversationID := uuid.New()
	query := `
		INSERT INTO conversations (id, user_id, title, created_at, updated_at)
		VALUES ($1, $2, $3, now(), now())
	`
	if _, err := s.pool.Exec(ctx, query, conversationID, userID, domain.DefaultConversationTitle); err != nil {
		return uuid.Nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversationID, nil
}

func (s *Store) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	query := `
		SELECT id, title, created_at, updated_at
		FROM conversations
		WHERE user_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary
	for rows.Next() {
		var c domain.ConversationSummary
		if err := rows.Scan(&c.ID, &c.Title, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		summaries = append(summaries, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}

	// Previews come from independent single-row lookups, fetched
	// concurrently. Completion order is unrelated to updated_at order,
	// so the listing order is re-asserted after the join.
	g, gctx := errgroup.WithContext(ctx)
	for i := range summaries {
		g.Go(func() error {
			preview, err := s.earliestMessageContent(gctx, userID, summaries[i].ID)
			if err != nil {
				return err
			}
			summaries[i].Preview = preview
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to build previews: %w", err)
	}

	domain.SortSummaries(summaries)
	return summaries, nil
}

func (s *Store) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if userID == uuid.Nil {
		return domain.ErrUnauthenticated
	}

	// Messages go first; the conversation record is only removed once its
	// log is empty. The two statements are deliberately not transactional:
	// a crash in between leaves orphaned messages, which are unreachable
	// because messages are only ever listed via a conversation id.
	if _, err := s.pool.Exec(ctx,
		`DELETE FROM messages WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID,
	); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}

	if _, err := s.pool.Exec(ctx,
		`DELETE FROM conversations WHERE id = $1 AND user_id = $2`,
		conversationID, userID,
	); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Store) earliestMessageContent(ctx context.Context, userID, conversationID uuid.UUID) (string, error) {
	var content string
	err := s.pool.QueryRow(ctx,
		`SELECT content FROM messages WHERE conversation_id = $1 AND user_id = $2 ORDER BY timestamp ASC LIMIT 1`,
		conversationID, userID,
	).Scan(&content)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.PreviewPlaceholder, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch preview: %w", err)
	}
	return content, nil
}
