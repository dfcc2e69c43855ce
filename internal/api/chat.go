package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/pathwise/pathwise/internal/log"
	"github.com/pathwise/pathwise/internal/orchestrator"
	"github.com/pathwise/pathwise/internal/state"
)

// ChatService runs one tutoring turn. Implemented by orchestrator.Service;
// tests substitute a stub.
type ChatService interface {
	Chat(ctx context.Context, userMessage string, opts orchestrator.ChatOptions) (orchestrator.ChatResult, error)
}

// chatRequest is the POST /api/v1/chat body.
type chatRequest struct {
	Message          string              `json:"message"`
	LessonID         string              `json:"lessonId,omitempty"`
	UserProfile      state.UserProfile   `json:"userProfile"`
	LessonContext    state.LessonContext `json:"lessonContext"`
	PreviousMessages []state.Message     `json:"previousMessages,omitempty"`
}

type chatHandler struct {
	service ChatService
	logger  log.Logger
}

// send runs one chat turn and returns the orchestrator's result verbatim.
func (h *chatHandler) send(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "malformed request body", h.logger)
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, "empty_message", "message is required", h.logger)
		return
	}

	result, err := h.service.Chat(r.Context(), req.Message, orchestrator.ChatOptions{
		LessonID:         req.LessonID,
		UserProfile:      req.UserProfile,
		LessonContext:    req.LessonContext,
		PreviousMessages: req.PreviousMessages,
	})
	if err != nil {
		h.logger.Error("chat turn failed", "error", err)
		writeError(w, http.StatusBadGateway, "chat_failed", "chat turn failed", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, result, h.logger)
}
