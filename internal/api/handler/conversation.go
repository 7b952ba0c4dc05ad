package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/coachly/coachly/internal/api/middleware"
	"github.com/coachly/coachly/internal/api/response"
	"github.com/coachly/coachly/internal/domain"
	"github.com/coachly/coachly/internal/llm"
	"github.com/coachly/coachly/internal/service"
)

// ConversationHandler handles conversation and chat endpoints
type ConversationHandler struct {
	chatService *service.ChatService
}

// NewConversationHandler creates a new conversation handler
func NewConversationHandler(chatService *service.ChatService) *ConversationHandler {
	return &ConversationHandler{chatService: chatService}
}

// List returns all conversations for the authenticated user, most recently
// updated first
func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	summaries, err := h.chatService.ListConversations(r.Context(), userID)
	if err != nil {
		response.InternalError(w, "failed to list conversations")
		return
	}

	response.OK(w, map[string]any{
		"conversations": summaries,
	})
}

// SendMessage sends a user message. When conversation_id is omitted a new
// conversation is created and its id is returned with the transcript.
func (h *ConversationHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	var req struct {
		ConversationID *uuid.UUID `json:"conversation_id"`
		Message        string     `json:"message" validate:"required,min=1,max=8000"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		response.BadRequest(w, "message is required")
		return
	}

	conversationID := uuid.Nil
	if req.ConversationID != nil {
		conversationID = *req.ConversationID
	}

	result, err := h.chatService.SendMessage(r.Context(), userID, conversationID, req.Message)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			response.NotFound(w, "conversation not found")
		case errors.Is(err, llm.ErrAuthorization):
			response.Error(w, http.StatusBadGateway, "coach backend rejected credentials")
		case errors.Is(err, llm.ErrBackend), errors.Is(err, llm.ErrTransport):
			response.Error(w, http.StatusBadGateway, "coach backend unavailable")
		default:
			response.InternalError(w, "failed to send message")
		}
		return
	}

	response.OK(w, result)
}

// GetMessages returns the durable transcript of a conversation. Unknown
// conversation ids yield an empty transcript rather than an error.
func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		response.BadRequest(w, "invalid conversation id")
		return
	}

	messages, err := h.chatService.GetHistory(r.Context(), userID, conversationID)
	if err != nil {
		response.InternalError(w, "failed to load messages")
		return
	}

	response.OK(w, map[string]any{
		"conversation_id": conversationID,
		"messages":        messages,
	})
}

// Delete removes a conversation and all of its messages
func (h *ConversationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "unauthorized")
		return
	}

	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		response.BadRequest(w, "invalid conversation id")
		return
	}

	if err := h.chatService.DeleteConversation(r.Context(), userID, conversationID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			response.NotFound(w, "conversation not found")
			return
		}
		response.InternalError(w, "failed to delete conversation")
		return
	}

	response.NoContent(w)
}
