package memory

import (
	"context"
	"sync"

	"gardentrade/internal/app/conversation"
)

// MessageStore keeps one append-only message log per trade.
type MessageStore struct {
	mu   sync.RWMutex
	logs map[string][]conversation.Message
}

// NewMessageStore returns an empty store.
func NewMessageStore() *MessageStore {
	return &MessageStore{logs: make(map[string][]conversation.Message)}
}

// FetchConversation implements conversation.Backend.
func (s *MessageStore) FetchConversation(ctx context.Context, tradeID string) ([]conversation.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]conversation.Message{}, s.logs[tradeID]...), nil
}

// AppendMessage implements conversation.Backend.
func (s *MessageStore) AppendMessage(ctx context.Context, msg conversation.Message) (conversation.Message, error) {
	if err := ctx.Err(); err != nil {
		return conversation.Message{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.logs[msg.TradeID] = append(s.logs[msg.TradeID], msg)
	return msg, nil
}

// SeedConversation implements conversation.Backend.
func (s *MessageStore) SeedConversation(ctx context.Context, tradeID string, msgs []conversation.Message) ([]conversation.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.logs[tradeID]) == 0 {
		s.logs[tradeID] = append([]conversation.Message{}, msgs...)
	}

	return append([]conversation.Message{}, s.logs[tradeID]...), nil
}
