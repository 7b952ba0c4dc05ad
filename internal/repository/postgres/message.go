package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/domain"
)

// AppendMessage upserts the message under its own id, then advances the
// conversation's updated_at to server time. Re-sending an id overwrites the
// stored row instead of duplicating it; an id already held by another
// conversation is reported as not found.
func (s *Store) AppendMessage(ctx context.Context, userID, conversationID uuid.UUID, msg *domain.Message) error {
	if userID == uuid.Nil {
		return domain.ErrUnauthenticated
	}

	query := `
		INSERT INTO messages (id, conversation_id, user_id, role, content, timestamp)
		SELECT $1, $2, $3, $4, $5, $6
		WHERE EXISTS (
			SELECT 1 FROM conversations WHERE id = $2 AND user_id = $3
		)
		ON CONFLICT (id) DO UPDATE
		SET role = EXCLUDED.role, content = EXCLUDED.content, timestamp = EXCLUDED.timestamp
		WHERE messages.conversation_id = EXCLUDED.conversation_id
		  AND messages.user_id = EXCLUDED.user_id
	`
	tag, err := s.pool.Exec(ctx, query,
		msg.ID,
		conversationID,
		userID,
		msg.Role,
		msg.Content,
		msg.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}

	if _, err := s.pool.Exec(ctx,
		`UPDATE conversations SET updated_at = now() WHERE id = $1 AND user_id = $2`,
		conversationID, userID,
	); err != nil {
		return fmt.Errorf("failed to advance conversation: %w", err)
	}
	return nil
}

// ListMessages returns the conversation's messages sorted ascending by
// timestamp. A conversation without messages yields an empty slice.
func (s *Store) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	query := `
		SELECT id, role, content, timestamp
		FROM messages
		WHERE conversation_id = $1 AND user_id = $2
		ORDER BY timestamp ASC
	`
	rows, err := s.pool.Query(ctx, query, conversationID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var m domain.Message
		var roleStr string
		if err := rows.Scan(&m.ID, &roleStr, &m.Content, &m.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		m.Role = domain.MessageRole(roleStr)
		messages = append(messages, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}
