package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mermaidflow/internal/conversation"
)

// Fixed keys for the persisted chat state. They are prefixed by the chat id.
const (
	HistoryKey  = "mermaid-chat-history"
	MetadataKey = "mermaid-conversation-metadata"
)

// DefaultChatID names the chat used when the caller supplies none.
const DefaultChatID = "default"

// ChatStore persists a chat's message history and conversation metadata as
// JSON. Timestamps are written as RFC 3339 strings and read back as time.Time.
type ChatStore struct {
	store Store
}

func NewChatStore(s Store) *ChatStore {
	return &ChatStore{store: s}
}

func chatKey(chatID, name string) string {
	if chatID == "" {
		chatID = DefaultChatID
	}
	return chatID + ":" + name
}

// LoadHistory returns the saved messages, or nil when none are stored.
// Unreadable data is logged and treated as an empty history.
func (c *ChatStore) LoadHistory(ctx context.Context, chatID string) ([]conversation.Message, error) {
	raw, err := c.store.Get(ctx, chatKey(chatID, HistoryKey))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load chat history: %w", err)
	}
	var msgs []conversation.Message
	if err := json.Unmarshal(raw, &msgs); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("Failed to decode chat history, starting empty")
		return nil, nil
	}
	return msgs, nil
}

func (c *ChatStore) SaveHistory(ctx context.Context, chatID string, msgs []conversation.Message) error {
	if msgs == nil {
		msgs = []conversation.Message{}
	}
	raw, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode chat history: %w", err)
	}
	if err := c.store.Set(ctx, chatKey(chatID, HistoryKey), raw); err != nil {
		return fmt.Errorf("save chat history: %w", err)
	}
	return nil
}

// LoadMetadata returns the saved metadata, or nil when none is stored.
// Unreadable data is logged and treated as absent.
func (c *ChatStore) LoadMetadata(ctx context.Context, chatID string) (*conversation.Metadata, error) {
	raw, err := c.store.Get(ctx, chatKey(chatID, MetadataKey))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load conversation metadata: %w", err)
	}
	var md conversation.Metadata
	if err := json.Unmarshal(raw, &md); err != nil {
		log.Warn().Err(err).Str("chat_id", chatID).Msg("Failed to decode conversation metadata, ignoring it")
		return nil, nil
	}
	return &md, nil
}

func (c *ChatStore) SaveMetadata(ctx context.Context, chatID string, md conversation.Metadata) error {
	raw, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode conversation metadata: %w", err)
	}
	if err := c.store.Set(ctx, chatKey(chatID, MetadataKey), raw); err != nil {
		return fmt.Errorf("save conversation metadata: %w", err)
	}
	return nil
}

// Clear removes both records of a chat.
func (c *ChatStore) Clear(ctx context.Context, chatID string) error {
	if err := c.store.Delete(ctx, chatKey(chatID, HistoryKey)); err != nil {
		return fmt.Errorf("clear chat history: %w", err)
	}
	if err := c.store.Delete(ctx, chatKey(chatID, MetadataKey)); err != nil {
		return fmt.Errorf("clear conversation metadata: %w", err)
	}
	return nil
}
