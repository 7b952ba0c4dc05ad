package session

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/coachly/coachly/internal/domain"
)

// MockMessageStore mocks the domain.MessageStore interface
type MockMessageStore struct {
	mock.Mock
}

func (m *MockMessageStore) CreateConversation(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func (m *MockMessageStore) AppendMessage(ctx context.Context, userID, conversationID uuid.UUID, msg *domain.Message) error {
	args := m.Called(ctx, userID, conversationID, msg)
	return args.Error(0)
}

func (m *MockMessageStore) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	args := m.Called(ctx, userID, conversationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Message), args.Error(1)
}

func (m *MockMessageStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ConversationSummary), args.Error(1)
}

func (m *MockMessageStore) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	args := m.Called(ctx, userID, conversationID)
	return args.Error(0)
}

// MockProvider mocks the llm.Provider interface
type MockProvider struct {
	mock.Mock
}

func (m *MockProvider) Name() string {
	return "mock"
}

func (m *MockProvider) AvailableModels() []string {
	return []string{"mock-model"}
}

func (m *MockProvider) DefaultModel() string {
	return "mock-model"
}

func (m *MockProvider) IsConfigured() bool {
	return true
}

func (m *MockProvider) Generate(ctx context.Context, transcript []domain.Message, system, model string) (string, error) {
	args := m.Called(ctx, transcript, system, model)
	return args.String(0), args.Error(1)
}
