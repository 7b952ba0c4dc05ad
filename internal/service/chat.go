package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/llm"
	"github.com/coachly/coachly/internal/session"
)

// ChatService exposes the conversation core to the API layer. It keeps at
// most one live session per (user, conversation) so that concurrent sends
// against the same conversation are serialized by the session's
// single-flight guard instead of interleaving.
type ChatService struct {
	store    domain.MessageStore
	provider llm.Provider
	system   string
	model    string

	mu       sync.Mutex
	sessions map[string]*session.Session
}

// SendResult is the outcome of a send: the conversation the message landed
// in (freshly created when the request named none) and the transcript
// after the exchange.
type SendResult struct {
	ConversationID uuid.UUID        `json:"conversation_id"`
	Messages       []domain.Message `json:"messages"`
}

// NewChatService creates a new chat service
func NewChatService(store domain.MessageStore, provider llm.Provider, system, model string) *ChatService {
	return &ChatService{
		store:    store,
		provider: provider,
		system:   system,
		model:    model,
		sessions: make(map[string]*session.Session),
	}
}

// SendMessage routes the text into a session for the given conversation,
// creating a new conversation when conversationID is uuid.Nil.
func (s *ChatService) SendMessage(ctx context.Context, userID, conversationID uuid.UUID, text string) (*SendResult, error) {
	sess, err := s.sessionFor(ctx, userID, conversationID)
	if err != nil {
		return nil, err
	}

	if err := sess.SendMessage(ctx, text); err != nil {
		log.Error().Err(err).
			Str("user_id", userID.String()).
			Str("conversation_id", sess.ConversationID().String()).
			Msg("send failed")
		return nil, err
	}

	if conversationID == uuid.Nil {
		// The session allocated a conversation during the send;
		// register it so follow-up requests reuse the same session.
		s.register(userID, sess)
	}

	return &SendResult{
		ConversationID: sess.ConversationID(),
		Messages:       sess.Transcript(),
	}, nil
}

// GetHistory returns a conversation's durable message log.
func (s *ChatService) GetHistory(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	return s.store.ListMessages(ctx, userID, conversationID)
}

// ListConversations returns the user's conversation directory.
func (s *ChatService) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	directory := session.NewDirectory(s.store, domain.StaticIdentity(userID))
	return directory.List(ctx)
}

// DeleteConversation removes a conversation and evicts its live session.
func (s *ChatService) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	directory := session.NewDirectory(s.store, domain.StaticIdentity(userID))
	if err := directory.Delete(ctx, conversationID); err != nil {
		return err
	}

	s.mu.Lock()
	delete(s.sessions, sessionKey(userID, conversationID))
	s.mu.Unlock()
	return nil
}

// sessionFor returns the live session for the conversation, creating and
// loading one if needed. A Nil conversation id always yields a fresh idle
// session.
func (s *ChatService) sessionFor(ctx context.Context, userID, conversationID uuid.UUID) (*session.Session, error) {
	if conversationID == uuid.Nil {
		return s.newSession(userID), nil
	}

	s.mu.Lock()
	sess, ok := s.sessions[sessionKey(userID, conversationID)]
	s.mu.Unlock()
	if ok {
		return sess, nil
	}

	sess = s.newSession(userID)
	if err := sess.LoadConversation(ctx, conversationID); err != nil {
		return nil, fmt.Errorf("failed to open conversation: %w", err)
	}
	s.register(userID, sess)
	return sess, nil
}

func (s *ChatService) newSession(userID uuid.UUID) *session.Session {
	return session.New(s.store, s.provider, domain.StaticIdentity(userID), s.system, s.model)
}

func (s *ChatService) register(userID uuid.UUID, sess *session.Session) {
	conversationID := sess.ConversationID()
	if conversationID == uuid.Nil {
		return
	}
	key := sessionKey(userID, conversationID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[key]; !ok {
		s.sessions[key] = sess
	}
}

func sessionKey(userID, conversationID uuid.UUID) string {
	return userID.String() + "/" + conversationID.String()
}
