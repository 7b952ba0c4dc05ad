// Package session holds the stateful core of the coaching chat: the
// Session orchestrating one open conversation between the in-memory
// transcript, the durable message log and the generation backend, and the
// Directory over stored conversations.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/llm"
)

// Snapshot is the state handed to change listeners: the conversation id and
// a copy of the transcript at notification time. Listeners receive it on the
// mutating call's goroutine and are expected to hand it off to their own
// execution context rather than call back into the Session.
type Snapshot struct {
	ConversationID uuid.UUID
	Transcript     []domain.Message
}

// Session owns the in-memory transcript of one active conversation and
// coordinates store and generation calls in order. A Session starts idle
// (no conversation id, empty transcript) and becomes active once a
// conversation is created or loaded.
//
// Mutating operations are serialized by an internal mutex: a second call
// issued while one is in flight waits for the first to finish, so the
// generation backend always sees a transcript with a predictable order.
type Session struct {
	store    domain.MessageStore
	provider llm.Provider
	identity domain.Identity
	system   string
	model    string

	mu             sync.Mutex
	conversationID uuid.UUID
	transcript     []domain.Message
	listeners      []func(Snapshot)
}

// New creates an idle session. The system instruction is fixed for the
// session's lifetime; an empty model selects the provider's default.
func New(store domain.MessageStore, provider llm.Provider, identity domain.Identity, system, model string) *Session {
	return &Session{
		store:    store,
		provider: provider,
		identity: identity,
		system:   system,
		model:    model,
	}
}

// Subscribe registers a change listener invoked after every local
// transcript or conversation-id mutation.
func (s *Session) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, fn)
}

// ConversationID returns the active conversation id, or uuid.Nil when idle.
func (s *Session) ConversationID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conversationID
}

// Transcript returns a copy of the in-memory transcript.
func (s *Session) Transcript() []domain.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.copyTranscriptLocked()
}

// StartNewConversation creates a fresh conversation and resets the
// transcript. On failure the session keeps its prior state.
func (s *Session) StartNewConversation(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startNewLocked(ctx)
}

// LoadConversation makes the given conversation active with its durable
// message history as the transcript. On failure the session keeps its
// prior state and does not adopt the id.
func (s *Session) LoadConversation(ctx context.Context, conversationID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	messages, err := s.store.ListMessages(ctx, userID, conversationID)
	if err != nil {
		return fmt.Errorf("failed to load conversation: %w", err)
	}

	s.conversationID = conversationID
	s.transcript = messages
	s.notifyLocked()
	return nil
}

// SendMessage appends the user's text to the conversation, asks the
// generation backend for the next assistant utterance over the full
// transcript, and persists both messages.
//
// Local appends are optimistic: a message joins the in-memory transcript
// before its remote write is confirmed and is not rolled back when that
// write fails. Each failing step aborts the call with its own error; the
// caller retries by re-invoking.
func (s *Session) SendMessage(ctx context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conversationID == uuid.Nil {
		if err := s.startNewLocked(ctx); err != nil {
			return fmt.Errorf("failed to start conversation: %w", err)
		}
	}

	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	userMsg := domain.NewMessage(domain.RoleUser, text)
	s.transcript = append(s.transcript, *userMsg)
	s.notifyLocked()

	if err := s.store.AppendMessage(ctx, userID, s.conversationID, userMsg); err != nil {
		// The optimistic local append stays; the log is behind until
		// the caller retries.
		return fmt.Errorf("failed to persist user message: %w", err)
	}

	reply, err := s.provider.Generate(ctx, s.transcript, s.system, s.model)
	if err != nil {
		return fmt.Errorf("failed to generate reply: %w", err)
	}

	assistantMsg := domain.NewMessage(domain.RoleAssistant, reply)
	s.transcript = append(s.transcript, *assistantMsg)
	s.notifyLocked()

	if err := s.store.AppendMessage(ctx, userID, s.conversationID, assistantMsg); err != nil {
		return fmt.Errorf("failed to persist assistant message: %w", err)
	}

	return nil
}

func (s *Session) startNewLocked(ctx context.Context) error {
	userID, err := s.identity.CurrentUserID(ctx)
	if err != nil {
		return err
	}

	conversationID, err := s.store.CreateConversation(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to create conversation: %w", err)
	}

	s.conversationID = conversationID
	s.transcript = nil
	s.notifyLocked()
	return nil
}

func (s *Session) copyTranscriptLocked() []domain.Message {
	out := make([]domain.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

func (s *Session) notifyLocked() {
	if len(s.listeners) == 0 {
		return
	}
	snapshot := Snapshot{
		ConversationID: s.conversationID,
		Transcript:     s.copyTranscriptLocked(),
	}
	for _, fn := range s.listeners {
		fn(snapshot)
	}
}
