// Package chat proxies conversational requests to a language model and
// keeps a bounded history per conversation.
package chat

import (
	"context"
	"sync"

	"github.com/alfredjeanlab/devsim/internal/model"
)

// DefaultHistoryLimit is the number of messages retained per conversation.
const DefaultHistoryLimit = 20

// HistoryStore persists conversation histories. After every Append a
// conversation holds at most the store's limit of messages, oldest dropped.
type HistoryStore interface {
	Get(ctx context.Context, conversationID string) ([]model.ChatMessage, error)
	Append(ctx context.Context, conversationID string, msgs ...model.ChatMessage) ([]model.ChatMessage, error)
	Clear(ctx context.Context, conversationID string) error
}

func trim(msgs []model.ChatMessage, limit int) []model.ChatMessage {
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs
}

// MemoryHistory keeps histories in process memory.
type MemoryHistory struct {
	mu    sync.Mutex
	limit int
	convs map[string][]model.ChatMessage
}

// NewMemoryHistory returns an empty in-memory store. A limit <= 0 uses
// DefaultHistoryLimit.
func NewMemoryHistory(limit int) *MemoryHistory {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistory{limit: limit, convs: make(map[string][]model.ChatMessage)}
}

func (h *MemoryHistory) Get(_ context.Context, conversationID string) ([]model.ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	msgs := h.convs[conversationID]
	out := make([]model.ChatMessage, len(msgs))
	copy(out, msgs)
	return out, nil
}

func (h *MemoryHistory) Append(_ context.Context, conversationID string, msgs ...model.ChatMessage) ([]model.ChatMessage, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	next := append(h.convs[conversationID], msgs...)
	next = trim(next, h.limit)
	// Copy so the retained slice does not pin dropped messages.
	stored := make([]model.ChatMessage, len(next))
	copy(stored, next)
	h.convs[conversationID] = stored

	out := make([]model.ChatMessage, len(stored))
	copy(out, stored)
	return out, nil
}

func (h *MemoryHistory) Clear(_ context.Context, conversationID string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.convs, conversationID)
	return nil
}
