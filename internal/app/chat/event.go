package chat

import (
	"time"

	"gardentrade/internal/pkg/errs"
)

// EventType tags every frame pushed to a subscriber.
type EventType string

const (
	// TypeSubscribed confirms the subscription and reports how many sessions watch the trade.
	TypeSubscribed EventType = "SUBSCRIBED"

	// TypeMessage carries a chat message appended to the trade's conversation.
	TypeMessage EventType = "MESSAGE"

	// TypeError carries an errs code and message.
	TypeError EventType = "ERROR"
)

// Event is the JSON frame written to the WebSocket.
type Event struct {
	Type      EventType `json:"type"`
	TradeID   string    `json:"tradeId"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp int64     `json:"timestamp"`
}

// SubscribedPayload is the payload of TypeSubscribed.
type SubscribedPayload struct {
	Watchers int `json:"watchers"`
}

// ErrorPayload is the payload of TypeError.
type ErrorPayload struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// NewEvent stamps an event with the current time in milliseconds.
func NewEvent(typ EventType, tradeID string, payload any) Event {
	return Event{
		Type:      typ,
		TradeID:   tradeID,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	}
}

func errorEvent(tradeID string, err error) Event {
	customErr := errs.From(err)
	return NewEvent(TypeError, tradeID, ErrorPayload{Code: customErr.Code, Message: customErr.Message})
}
