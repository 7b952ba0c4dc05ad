// Package sqlite provides an embedded backend of the message log for
// single-binary and development deployments.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/coachly/coachly/internal/domain"
)

// timestampLayout pads fractional seconds to a fixed nine digits so the
// TEXT timestamp columns compare lexicographically in chronological order.
// RFC3339Nano trims trailing zeros, which breaks ORDER BY on the raw text.
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS conversations (
	id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	title TEXT NOT NULL,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS conversations_user_updated_idx
	ON conversations (user_id, updated_at);
CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	conversation_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL,
	timestamp TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS messages_conversation_time_idx
	ON messages (conversation_id, user_id, timestamp);
`

// Store implements domain.MessageStore over an embedded sqlite database
type Store struct {
	db *sql.DB
}

// NewStore opens (and if needed initializes) the database file
func NewStore(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("database file path is required")
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks that the database file is still reachable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) CreateConversation(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}

	conversationID := uuid.New()
	now := time.Now().UTC().Format(timestampLayout)
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO conversations (id, user_id, title, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		conversationID.String(), userID.String(), domain.DefaultConversationTitle, now, now,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return conversationID, nil
}

func (s *Store) AppendMessage(ctx context.Context, userID, conversationID uuid.UUID, msg *domain.Message) error {
	if userID == uuid.Nil {
		return domain.ErrUnauthenticated
	}

	var exists int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM conversations WHERE id = ? AND user_id = ?`,
		conversationID.String(), userID.String(),
	).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check conversation: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO messages (id, conversation_id, user_id, role, content, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE
		 SET role = excluded.role, content = excluded.content, timestamp = excluded.timestamp
		 WHERE conversation_id = excluded.conversation_id AND user_id = excluded.user_id`,
		msg.ID.String(), conversationID.String(), userID.String(),
		string(msg.Role), msg.Content, msg.Timestamp.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	// A message id already claimed by another conversation is not ours to
	// overwrite.
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrNotFound
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE conversations SET updated_at = ? WHERE id = ? AND user_id = ?`,
		time.Now().UTC().Format(timestampLayout), conversationID.String(), userID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to advance conversation: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, content, timestamp FROM messages
		 WHERE conversation_id = ? AND user_id = ?
		 ORDER BY timestamp ASC`,
		conversationID.String(), userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	messages := []domain.Message{}
	for rows.Next() {
		var idStr, roleStr, content, ts string
		if err := rows.Scan(&idStr, &roleStr, &content, &ts); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msg, err := buildMessage(idStr, roleStr, content, ts)
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

func (s *Store) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, created_at, updated_at FROM conversations
		 WHERE user_id = ?
		 ORDER BY updated_at DESC`,
		userID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer rows.Close()

	var summaries []domain.ConversationSummary
	for rows.Next() {
		var idStr, title, createdStr, updatedStr string
		if err := rows.Scan(&idStr, &title, &createdStr, &updatedStr); err != nil {
			return nil, fmt.Errorf("failed to scan conversation: %w", err)
		}
		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("malformed conversation id %q: %w", idStr, err)
		}
		createdAt, err := time.Parse(time.RFC3339Nano, createdStr)
		if err != nil {
			return nil, fmt.Errorf("malformed created_at %q: %w", createdStr, err)
		}
		updatedAt, err := time.Parse(time.RFC3339Nano, updatedStr)
		if err != nil {
			return nil, fmt.Errorf("malformed updated_at %q: %w", updatedStr, err)
		}
		summaries = append(summaries, domain.ConversationSummary{
			ID:        id,
			Title:     title,
			CreatedAt: createdAt,
			UpdatedAt: updatedAt,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read conversations: %w", err)
	}

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

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM messages WHERE conversation_id = ? AND user_id = ?`,
		conversationID.String(), userID.String(),
	); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM conversations WHERE id = ? AND user_id = ?`,
		conversationID.String(), userID.String(),
	); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Store) earliestMessageContent(ctx context.Context, userID, conversationID uuid.UUID) (string, error) {
	var content string
	err := s.db.QueryRowContext(ctx,
		`SELECT content FROM messages WHERE conversation_id = ? AND user_id = ?
		 ORDER BY timestamp ASC LIMIT 1`,
		conversationID.String(), userID.String(),
	).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.PreviewPlaceholder, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch preview: %w", err)
	}
	return content, nil
}

func buildMessage(idStr, roleStr, content, ts string) (*domain.Message, error) {
	id, err := uuid.Parse(idStr)
	if err != nil {
		return nil, fmt.Errorf("malformed message id %q: %w", idStr, err)
	}
	timestamp, err := time.Parse(time.RFC3339Nano, ts)
	if err != nil {
		return nil, fmt.Errorf("malformed timestamp %q: %w", ts, err)
	}
	return &domain.Message{
		ID:        id,
		Role:      domain.MessageRole(roleStr),
		Content:   content,
		Timestamp: timestamp,
	}, nil
}
