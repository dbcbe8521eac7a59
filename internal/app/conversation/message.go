/*
Package conversation implements per-trade chat: the message model, the
messaging-backend contract and the Conversation controller owned by one view.
*/
package conversation

import (
	"context"
	"time"

	"gardentrade/internal/app/trade"
)

// MaxBodyBytes is the largest accepted message body.
const MaxBodyBytes = 5000

// Message is one immutable chat line.
type Message struct {
	ID      string    `json:"id"`
	TradeID string    `json:"tradeId"`
	Sender  string    `json:"sender"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sentAt"`
}

// Conversation is the message thread of one trade, oldest message first.
type Conversation struct {
	TradeID     string    `json:"tradeId"`
	Counterpart string    `json:"counterpart"`
	Messages    []Message `json:"messages"`
}

// Backend is the messaging collaborator. Messages are returned in insertion order.
type Backend interface {
	FetchConversation(ctx context.Context, tradeID string) ([]Message, error)
	AppendMessage(ctx context.Context, msg Message) (Message, error)

	// SeedConversation appends msgs only if the conversation is still empty
	// and returns the resulting history. Concurrent seeders must not both write.
	SeedConversation(ctx context.Context, tradeID string, msgs []Message) ([]Message, error)
}

// Publisher fans appended messages out to live subscribers.
type Publisher interface {
	Publish(msg Message)
}

// TradeLookup resolves the trade a conversation belongs to.
type TradeLookup interface {
	Get(ctx context.Context, id string) (trade.Trade, error)
}
