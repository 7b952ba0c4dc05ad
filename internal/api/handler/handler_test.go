package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/api/handler"
	"github.com/coachly/coachly/internal/api/middleware"
	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/service"
)

// stubStore is an in-memory domain.MessageStore for handler tests
type stubStore struct {
	conversationID uuid.UUID
	messages       []domain.Message
}

func (s *stubStore) CreateConversation(ctx context.Context, userID uuid.UUID) (uuid.UUID, error) {
	if userID == uuid.Nil {
		return uuid.Nil, domain.ErrUnauthenticated
	}
	return s.conversationID, nil
}

func (s *stubStore) AppendMessage(ctx context.Context, userID, conversationID uuid.UUID, msg *domain.Message) error {
	if conversationID != s.conversationID {
		return domain.ErrNotFound
	}
	s.messages = append(s.messages, *msg)
	return nil
}

// Unknown conversations list as empty, matching the real backends.
func (s *stubStore) ListMessages(ctx context.Context, userID, conversationID uuid.UUID) ([]domain.Message, error) {
	if conversationID != s.conversationID {
		return []domain.Message{}, nil
	}
	return s.messages, nil
}

func (s *stubStore) ListConversations(ctx context.Context, userID uuid.UUID) ([]domain.ConversationSummary, error) {
	return []domain.ConversationSummary{}, nil
}

func (s *stubStore) DeleteConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	if conversationID != s.conversationID {
		return domain.ErrNotFound
	}
	s.messages = nil
	return nil
}

// stubProvider always answers with a fixed reply
type stubProvider struct{}

func (stubProvider) Name() string              { return "stub" }
func (stubProvider) AvailableModels() []string { return []string{"stub-model"} }
func (stubProvider) DefaultModel() string      { return "stub-model" }
func (stubProvider) IsConfigured() bool        { return true }

func (stubProvider) Generate(ctx context.Context, transcript []domain.Message, system, model string) (string, error) {
	return "stub reply", nil
}

func authedRequest(method, path string, body any, userID uuid.UUID) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	return req.WithContext(ctx)
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response["success"] != true {
		t.Error("expected success to be true")
	}

	data, ok := response["data"].(map[string]any)
	if !ok {
		t.Fatal("expected data to be a map")
	}

	if data["status"] != "ok" {
		t.Errorf("expected status 'ok', got %v", data["status"])
	}
}

func TestConversationHandler_SendMessage(t *testing.T) {
	store := &stubStore{conversationID: uuid.New()}
	chatService := service.NewChatService(store, stubProvider{}, "prompt", "stub-model")
	h := handler.NewConversationHandler(chatService)

	req := authedRequest(http.MethodPost, "/api/v1/conversations/messages",
		map[string]any{"message": "hello"}, uuid.New())
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			ConversationID uuid.UUID        `json:"conversation_id"`
			Messages       []domain.Message `json:"messages"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Data.ConversationID != store.conversationID {
		t.Errorf("conversation id mismatch: got %v, want %v", response.Data.ConversationID, store.conversationID)
	}
	if len(response.Data.Messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(response.Data.Messages))
	}
	if response.Data.Messages[1].Content != "stub reply" {
		t.Errorf("unexpected assistant reply: %q", response.Data.Messages[1].Content)
	}
}

func TestConversationHandler_GetMessages_UnknownConversation(t *testing.T) {
	store := &stubStore{conversationID: uuid.New()}
	chatService := service.NewChatService(store, stubProvider{}, "prompt", "stub-model")
	h := handler.NewConversationHandler(chatService)

	unknown := uuid.New()
	req := authedRequest(http.MethodGet, "/api/v1/conversations/"+unknown.String()+"/messages", nil, uuid.New())
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add("conversationID", unknown.String())
	req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	rec := httptest.NewRecorder()

	h.GetMessages(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var response struct {
		Success bool `json:"success"`
		Data    struct {
			Messages []domain.Message `json:"messages"`
		} `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(response.Data.Messages) != 0 {
		t.Errorf("expected empty transcript, got %d messages", len(response.Data.Messages))
	}
}

func TestConversationHandler_SendMessage_Unauthenticated(t *testing.T) {
	chatService := service.NewChatService(&stubStore{}, stubProvider{}, "prompt", "stub-model")
	h := handler.NewConversationHandler(chatService)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conversations/messages",
		bytes.NewBufferString(`{"message":"hello"}`))
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}

func TestConversationHandler_SendMessage_EmptyBody(t *testing.T) {
	chatService := service.NewChatService(&stubStore{}, stubProvider{}, "prompt", "stub-model")
	h := handler.NewConversationHandler(chatService)

	req := authedRequest(http.MethodPost, "/api/v1/conversations/messages",
		map[string]any{"message": ""}, uuid.New())
	rec := httptest.NewRecorder()

	h.SendMessage(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, rec.Code)
	}
}
