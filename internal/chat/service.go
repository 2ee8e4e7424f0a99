package chat

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/alfredjeanlab/devsim/internal/idgen"
	"github.com/alfredjeanlab/devsim/internal/model"
)

var (
	// ErrEmptyMessage is returned by Reply for a blank message.
	ErrEmptyMessage = errors.New("message is required")
	// ErrInvalidConversationID is returned for ids that cannot be stored.
	ErrInvalidConversationID = errors.New("invalid conversation id")
)

// conversationIDPattern matches ids safe as NATS key-value keys.
var conversationIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidConversationID reports whether id can name a conversation.
func ValidConversationID(id string) bool {
	return conversationIDPattern.MatchString(id)
}

// Reply is the result of one chat turn.
type Reply struct {
	Text           string              `json:"reply"`
	ConversationID string              `json:"conversationId"`
	Conversation   []model.ChatMessage `json:"conversation"`
}

// Service answers chat messages using a Completer and a HistoryStore.
type Service struct {
	completer Completer
	history   HistoryStore
	now       func() time.Time
}

func NewService(completer Completer, history HistoryStore) *Service {
	return &Service{completer: completer, history: history, now: time.Now}
}

// History returns the stored messages of a conversation.
func (s *Service) History(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	if !ValidConversationID(conversationID) {
		return nil, ErrInvalidConversationID
	}
	return s.history.Get(ctx, conversationID)
}

// Forget deletes a conversation.
func (s *Service) Forget(ctx context.Context, conversationID string) error {
	if !ValidConversationID(conversationID) {
		return ErrInvalidConversationID
	}
	return s.history.Clear(ctx, conversationID)
}

// Reply sends message, preceded by the conversation so far, to the model
// and records both sides. An empty conversationID starts a new one.
func (s *Service) Reply(ctx context.Context, conversationID, message string) (*Reply, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, ErrEmptyMessage
	}
	if conversationID == "" {
		id, err := idgen.ConversationID()
		if err != nil {
			return nil, err
		}
		conversationID = id
	} else if !ValidConversationID(conversationID) {
		return nil, ErrInvalidConversationID
	}

	prior, err := s.history.Get(ctx, conversationID)
	if err != nil {
		return nil, err
	}
	text, err := s.completer.Complete(ctx, buildPrompt(prior, message))
	if err != nil {
		return nil, fmt.Errorf("completing chat: %w", err)
	}

	now := s.now()
	conv, err := s.history.Append(ctx, conversationID,
		model.ChatMessage{Role: model.RoleUser, Content: message, Timestamp: now},
		model.ChatMessage{Role: model.RoleAssistant, Content: text, Timestamp: now},
	)
	if err != nil {
		return nil, err
	}
	return &Reply{Text: text, ConversationID: conversationID, Conversation: conv}, nil
}

func buildPrompt(prior []model.ChatMessage, message string) string {
	if len(prior) == 0 {
		return message
	}
	var b strings.Builder
	for _, m := range prior {
		speaker := "User"
		if m.Role == model.RoleAssistant {
			speaker = "Assistant"
		}
		fmt.Fprintf(&b, "%s: %s\n", speaker, m.Content)
	}
	fmt.Fprintf(&b, "User: %s", message)
	return b.String()
}
