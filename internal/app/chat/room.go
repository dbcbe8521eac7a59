package chat

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gardentrade/internal/app/conversation"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
)

const broadcastChannelBuffer = 256

// Room fans the messages of one trade out to its subscribers.
type Room struct {
	// TradeID identifies the conversation this room serves.
	TradeID string

	// clients is keyed by session id; only Run mutates it.
	clients map[string]*Client
	mu      sync.RWMutex

	broadcast  chan conversation.Message
	register   chan *Client
	unregister chan *Client
	rejected   chan *Client

	// cleanup notifies the hub when Run returns; hubDone aborts that send.
	cleanup chan<- *Room
	hubDone <-chan struct{}

	stopChan chan struct{}
	stopOnce sync.Once

	// done is closed when Run returns.
	done chan struct{}

	idleTimeout time.Duration
	logger      zerolog.Logger
}

func newRoom(tradeID string, idleTimeout time.Duration, cleanup chan<- *Room, hubDone <-chan struct{}) *Room {
	return &Room{
		TradeID:     tradeID,
		clients:     make(map[string]*Client),
		broadcast:   make(chan conversation.Message, broadcastChannelBuffer),
		register:    make(chan *Client),
		unregister:  make(chan *Client),
		rejected:    make(chan *Client),
		cleanup:     cleanup,
		hubDone:     hubDone,
		stopChan:    make(chan struct{}),
		done:        make(chan struct{}),
		idleTimeout: idleTimeout,
		logger:      logx.Component("room").With().Str("trade_id", tradeID).Logger(),
	}
}

// Stop ends the Run loop. Subscribers are disconnected.
func (r *Room) Stop() {
	r.stopOnce.Do(func() { close(r.stopChan) })
}

func (r *Room) stopped() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}

// Len returns the number of subscribed sessions.
func (r *Room) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.clients)
}

// RegisterClient hands c to the Run loop. It reports false when the room has
// already stopped.
func (r *Room) RegisterClient(c *Client) bool {
	select {
	case r.register <- c:
		return true
	case <-r.done:
		return false
	}
}

// unregisterClient hands c back to the Run loop; it is a no-op once the room
// has stopped.
func (r *Room) unregisterClient(c *Client) {
	select {
	case r.unregister <- c:
	case <-r.done:
	}
}

// rejectFrame asks the Run loop to answer an unexpected client data frame
// with an ERROR event.
func (r *Room) rejectFrame(c *Client) {
	select {
	case r.rejected <- c:
	case <-r.done:
	}
}

// Publish queues msg for delivery. When the queue is full the message is
// dropped for live subscribers; it stays in the conversation history.
func (r *Room) Publish(msg conversation.Message) {
	select {
	case r.broadcast <- msg:
	case <-r.done:
	default:
		r.logger.Warn().Str("message_id", msg.ID).Msg("Broadcast queue full, dropping push.")
	}
}

// Run is the room's event loop. It returns after idleTimeout without
// subscribers or when Stop is called.
func (r *Room) Run() {
	idle := time.NewTimer(r.idleTimeout)

	defer func() {
		idle.Stop()
		r.shutdown()
	}()

	for {
		select {
		case c := <-r.register:
			r.add(c)
			idle.Stop()

		case c := <-r.unregister:
			if r.remove(c) == 0 {
				idle.Reset(r.idleTimeout)
			}

		case msg := <-r.broadcast:
			r.deliver(msg)

		case c := <-r.rejected:
			r.reject(c)

		case <-idle.C:
			r.logger.Debug().Dur("idle_timeout", r.idleTimeout).Msg("Room idle, stopping.")
			return

		case <-r.stopChan:
			return
		}
	}
}

func (r *Room) add(c *Client) {
	r.mu.Lock()
	if existing, ok := r.clients[c.sessionID]; ok && existing != c {
		r.logger.Info().Str("session_id", c.sessionID).Msg("Session reconnected, replacing old connection.")
		existing.Kick()
	}
	r.clients[c.sessionID] = c
	watchers := len(r.clients)
	r.mu.Unlock()

	r.logger.Debug().Str("session_id", c.sessionID).Int("watchers", watchers).Msg("Subscriber joined.")

	c.sendEvent(NewEvent(TypeSubscribed, r.TradeID, SubscribedPayload{Watchers: watchers}))
}

// remove drops c if it is still the current connection of its session and
// returns the remaining subscriber count.
func (r *Room) remove(c *Client) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	if current, ok := r.clients[c.sessionID]; ok && current == c {
		delete(r.clients, c.sessionID)
		c.closeSend()
		r.logger.Debug().Str("session_id", c.sessionID).Int("watchers", len(r.clients)).Msg("Subscriber left.")
	}
	return len(r.clients)
}

// reject sends the push-only error to c if it is still subscribed; a client
// that already left has its send queue closed.
func (r *Room) reject(c *Client) {
	r.mu.RLock()
	current, ok := r.clients[c.sessionID]
	r.mu.RUnlock()

	if !ok || current != c {
		return
	}

	r.logger.Debug().Str("session_id", c.sessionID).Msg("Rejected client data frame.")
	c.sendEvent(errorEvent(r.TradeID, errs.NewError(errs.ErrPushOnlyChannel)))
}

func (r *Room) deliver(msg conversation.Message) {
	data, err := json.Marshal(NewEvent(TypeMessage, r.TradeID, msg))
	if err != nil {
		r.logger.Error().Err(err).Str("message_id", msg.ID).Msg("Failed to marshal push event.")
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for id, c := range r.clients {
		if c.username == msg.Sender {
			continue
		}
		if !c.enqueue(data) {
			r.logger.Warn().Str("session_id", id).Msg("Subscriber queue full, disconnecting.")
			delete(r.clients, id)
			c.closeSend()
		}
	}
}

func (r *Room) shutdown() {
	r.mu.Lock()
	for id, c := range r.clients {
		c.closeSend()
		delete(r.clients, id)
	}
	r.mu.Unlock()

	close(r.done)

	select {
	case r.cleanup <- r:
	case <-r.hubDone:
	}
}
