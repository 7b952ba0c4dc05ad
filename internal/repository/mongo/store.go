// Package mongo provides the document-store backend of the message log.
// The layout mirrors the hierarchical path
// users/{userId}/conversations/{conversationId}/messages/{messageId}
// as two collections with compound user/conversation keys.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/sync/errgroup"

	"github.com/coachly/coachly/internal/config"
	"github.com/coachly/coachly/internal/domain"
)

// Store implements domain.MessageStore over MongoDB
type Store struct {
	client        *mongo.Client
	conversations *mongo.Collection
	messages      *mongo.Collection
}

type conversationDoc struct {
	ID        string    `bson:"_id"`
	UserID    string    `bson:"user_id"`
	Title     string    `bson:"title"`
	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

type messageDoc struct {
	ID             string    `bson:"_id"`
	ConversationID string    `bson:"conversation_id"`
	UserID         string    `bson:"user_id"`
	Role           string    `bson:"role"`
	Content        string    `bson:"content"`
	Timestamp      time.Time `bson:"timestamp"`
}

// NewStore connects to MongoDB and returns a message store
func NewStore(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	clientOpts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		clientOpts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return &Store{
		client:        client,
		conversations: db.Collection("conversations"),
		messages:      db.Collection("messages"),
	}, nil
}

// Close disconnects the underlying client
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Ping checks connectivity
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) CreateConversation(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}

	conversationID := uuid.New()
	// $currentDate keeps both timestamps server-assigned.
	_, err := s.conversations.UpdateOne(ctx,
		bson.M{"_id": conversationID.String()},
		bson.M{
			"$set": bson.M{
				"user_id": userID.String(),
				"title":   domain.DefaultConversationTitle,
			},
			"$currentDate": bson.M{"created_at": true, "updated_at": true},
		},
		options.Update().SetUpsert(true),
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

	filter := bson.M{"_id": conversationID.String(), "user_id": userID.String()}
	if err := s.conversations.FindOne(ctx, filter, options.FindOne().SetProjection(bson.M{"_id": 1})).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return domain.ErrNotFound
		}
		return fmt.Errorf("failed to check conversation: %w", err)
	}

	doc := messageDoc{
		ID:             msg.ID.String(),
		ConversationID: conversationID.String(),
		UserID:         userID.String(),
		Role:           string(msg.Role),
		Content:        msg.Content,
		Timestamp:      msg.Timestamp,
	}
	// Replace-with-upsert keyed by the message's own id makes re-sends
	// overwrite instead of duplicate. Scoping the filter to the owning
	// conversation turns an id collision from elsewhere into a duplicate
	// key error instead of re-homing the document.
	if _, err := s.messages.ReplaceOne(ctx,
		bson.M{"_id": doc.ID, "conversation_id": doc.ConversationID, "user_id": doc.UserID},
		doc,
		options.Replace().SetUpsert(true),
	); err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}

	if _, err := s.conversations.UpdateOne(ctx,
		filter,
		bson.M{"$currentDate": bson.M{"updated_at": true}},
	); err != nil {
		return fmt.Errorf("failed to advance conversation: %w", err)
	}
	return nil
}

func (s *Store) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	cursor, err := s.messages.Find(ctx,
		bson.M{"conversation_id": conversationID.String(), "user_id": userID.String()},
		options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer cursor.Close(ctx)

	messages := []domain.Message{}
	for cursor.Next(ctx) {
		var doc messageDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode message: %w", err)
		}
		msg, err := doc.toDomain()
		if err != nil {
			return nil, err
		}
		messages = append(messages, *msg)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("failed to read messages: %w", err)
	}
	return messages, nil
}

func (s *Store) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	if userID == uuid.Nil {
		return nil, domain.ErrUnauthenticated
	}

	cursor, err := s.conversations.Find(ctx,
		bson.M{"user_id": userID.String()},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversations: %w", err)
	}
	defer cursor.Close(ctx)

	var summaries []domain.ConversationSummary
	for cursor.Next(ctx) {
		var doc conversationDoc
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode conversation: %w", err)
		}
		id, err := uuid.Parse(doc.ID)
		if err != nil {
			return nil, fmt.Errorf("malformed conversation id %q: %w", doc.ID, err)
		}
		summaries = append(summaries, domain.ConversationSummary{
			ID:        id,
			Title:     doc.Title,
			CreatedAt: doc.CreatedAt,
			UpdatedAt: doc.UpdatedAt,
		})
	}
	if err := cursor.Err(); err != nil {
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

	// Messages first, then the conversation record (see the postgres
	// backend for the ordering rationale).
	if _, err := s.messages.DeleteMany(ctx,
		bson.M{"conversation_id": conversationID.String(), "user_id": userID.String()},
	); err != nil {
		return fmt.Errorf("failed to delete messages: %w", err)
	}
	if _, err := s.conversations.DeleteOne(ctx,
		bson.M{"_id": conversationID.String(), "user_id": userID.String()},
	); err != nil {
		return fmt.Errorf("failed to delete conversation: %w", err)
	}
	return nil
}

func (s *Store) earliestMessageContent(ctx context.Context, userID, conversationID uuid.UUID) (string, error) {
	var doc messageDoc
	err := s.messages.FindOne(ctx,
		bson.M{"conversation_id": conversationID.String(), "user_id": userID.String()},
		options.FindOne().SetSort(bson.D{{Key: "timestamp", Value: 1}}),
	).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return domain.PreviewPlaceholder, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to fetch preview: %w", err)
	}
	return doc.Content, nil
}

func (d *messageDoc) toDomain() (*domain.Message, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("malformed message id %q: %w", d.ID, err)
	}
	return &domain.Message{
		ID:        id,
		Role:      domain.MessageRole(d.Role),
		Content:   d.Content,
		Timestamp: d.Timestamp,
	}, nil
}
