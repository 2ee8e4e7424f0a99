package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/alfredjeanlab/devsim/internal/chat"
)

type chatInput struct {
	Message        string `json:"message"`
	ConversationID string `json:"conversationId"`
}

// chatEnabled writes 503 and returns false when no chat service is configured.
func (s *GraphServer) chatEnabled(w http.ResponseWriter) bool {
	if s.chat == nil {
		writeError(w, http.StatusServiceUnavailable, "chat is not configured")
		return false
	}
	return true
}

func (s *GraphServer) writeChatError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chat.ErrEmptyMessage), errors.Is(err, chat.ErrInvalidConversationID):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.logger.Error("chat request failed", "error", err)
		writeErrorDetails(w, http.StatusInternalServerError, "proxy error", err)
	}
}

// handleChat handles POST /api/chat.
func (s *GraphServer) handleChat(w http.ResponseWriter, r *http.Request) {
	if !s.chatEnabled(w) {
		return
	}
	var in chatInput
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	reply, err := s.chat.Reply(r.Context(), in.ConversationID, in.Message)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

// handleGetConversation handles GET /api/conversation/{id}.
func (s *GraphServer) handleGetConversation(w http.ResponseWriter, r *http.Request) {
	if !s.chatEnabled(w) {
		return
	}
	id := r.PathValue("id")
	msgs, err := s.chat.History(r.Context(), id)
	if err != nil {
		s.writeChatError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"conversationId": id, "conversation": msgs})
}

// handleDeleteConversation handles DELETE /api/conversation/{id}.
func (s *GraphServer) handleDeleteConversation(w http.ResponseWriter, r *http.Request) {
	if !s.chatEnabled(w) {
		return
	}
	if err := s.chat.Forget(r.Context(), r.PathValue("id")); err != nil {
		s.writeChatError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
