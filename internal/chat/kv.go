package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/alfredjeanlab/devsim/internal/model"
)

// DefaultBucket is the JetStream key-value bucket holding histories.
const DefaultBucket = "devsim_chat"

// appendAttempts bounds optimistic-concurrency retries in Append.
const appendAttempts = 3

// KVHistory stores histories in a NATS JetStream key-value bucket so that
// several server instances share conversations.
type KVHistory struct {
	kv    jetstream.KeyValue
	limit int
}

// NewKVHistory creates (or opens) bucket on the JetStream server behind nc.
func NewKVHistory(ctx context.Context, nc *nats.Conn, bucket string, limit int) (*KVHistory, error) {
	if bucket == "" {
		bucket = DefaultBucket
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	js, err := jetstream.New(nc)
	if err != nil {
		return nil, fmt.Errorf("creating jetstream context: %w", err)
	}
	kv, err := js.CreateOrUpdateKeyValue(ctx, jetstream.KeyValueConfig{
		Bucket:      bucket,
		Description: "devsim chat conversation history",
		History:     1,
	})
	if err != nil {
		return nil, fmt.Errorf("opening kv bucket %s: %w", bucket, err)
	}
	return &KVHistory{kv: kv, limit: limit}, nil
}

func (h *KVHistory) load(ctx context.Context, conversationID string) ([]model.ChatMessage, uint64, error) {
	entry, err := h.kv.Get(ctx, conversationID)
	if errors.Is(err, jetstream.ErrKeyNotFound) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("reading conversation %s: %w", conversationID, err)
	}
	var msgs []model.ChatMessage
	if err := json.Unmarshal(entry.Value(), &msgs); err != nil {
		return nil, 0, fmt.Errorf("decoding conversation %s: %w", conversationID, err)
	}
	return msgs, entry.Revision(), nil
}

func (h *KVHistory) Get(ctx context.Context, conversationID string) ([]model.ChatMessage, error) {
	msgs, _, err := h.load(ctx, conversationID)
	if msgs == nil && err == nil {
		msgs = []model.ChatMessage{}
	}
	return msgs, err
}

// Append writes with the revision it read, retrying when another writer
// got there first.
func (h *KVHistory) Append(ctx context.Context, conversationID string, msgs ...model.ChatMessage) ([]model.ChatMessage, error) {
	var lastErr error
	for attempt := 0; attempt < appendAttempts; attempt++ {
		current, rev, err := h.load(ctx, conversationID)
		if err != nil {
			return nil, err
		}
		next := trim(append(current, msgs...), h.limit)
		data, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encoding conversation %s: %w", conversationID, err)
		}
		if rev == 0 {
			_, err = h.kv.Create(ctx, conversationID, data)
		} else {
			_, err = h.kv.Update(ctx, conversationID, data, rev)
		}
		if err == nil {
			return next, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("writing conversation %s: %w", conversationID, lastErr)
}

func (h *KVHistory) Clear(ctx context.Context, conversationID string) error {
	if err := h.kv.Delete(ctx, conversationID); err != nil && !errors.Is(err, jetstream.ErrKeyNotFound) {
		return fmt.Errorf("deleting conversation %s: %w", conversationID, err)
	}
	return nil
}
