/*
Package chat pushes conversation messages to live WebSocket subscribers.

A Hub keeps one Room per trade. Rooms are created on the first subscription
and stop on their own after staying empty for the inactivity timeout. Every
message appended through the conversation controller is published to the
trade's room and written to each subscribed session except the sender's.
*/
package chat

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gardentrade/internal/app/conversation"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
)

// DefaultRoomIdleTimeout is how long an empty room lingers before it stops.
const DefaultRoomIdleTimeout = 5 * time.Minute

// Hub coordinates all rooms. It implements conversation.Publisher.
type Hub struct {
	// rooms is keyed by trade id.
	rooms map[string]*Room

	// mu protects rooms.
	mu sync.RWMutex

	// rooms report here when their Run loop ends.
	cleanup chan *Room

	// closed by Shutdown to stop the cleanup loop.
	done chan struct{}

	idleTimeout time.Duration

	wg     sync.WaitGroup
	logger zerolog.Logger
}

// NewHub starts a hub whose rooms stop after idleTimeout without subscribers.
// A non-positive idleTimeout selects DefaultRoomIdleTimeout.
func NewHub(idleTimeout time.Duration) *Hub {
	if idleTimeout <= 0 {
		idleTimeout = DefaultRoomIdleTimeout
	}

	h := &Hub{
		rooms:       make(map[string]*Room),
		cleanup:     make(chan *Room, 16),
		done:        make(chan struct{}),
		idleTimeout: idleTimeout,
		logger:      logx.Component("hub"),
	}

	h.wg.Add(1)
	go h.runCleanupLoop()

	return h
}

func (h *Hub) runCleanupLoop() {
	defer h.wg.Done()

	for {
		select {
		case room := <-h.cleanup:
			h.deleteRoom(room)
		case <-h.done:
			return
		}
	}
}

// deleteRoom removes room unless it has already been replaced.
func (h *Hub) deleteRoom(room *Room) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.rooms[room.TradeID]; ok && current == room {
		delete(h.rooms, room.TradeID)
		h.logger.Debug().Str("trade_id", room.TradeID).Msg("Room removed.")
	}
}

// room returns the live room for tradeID, starting a new one if there is none
// or the existing one has already stopped.
func (h *Hub) room(tradeID string) *Room {
	h.mu.Lock()
	defer h.mu.Unlock()

	if r, ok := h.rooms[tradeID]; ok && !r.stopped() {
		return r
	}

	r := newRoom(tradeID, h.idleTimeout, h.cleanup, h.done)
	h.rooms[tradeID] = r
	go r.Run()

	h.logger.Debug().Str("trade_id", tradeID).Msg("Room started.")
	return r
}

// Join registers c with the room of tradeID. A room that stops while c is
// joining is replaced once.
func (h *Hub) Join(tradeID string, c *Client) error {
	for attempt := 0; attempt < 2; attempt++ {
		r := h.room(tradeID)
		c.room = r
		if r.RegisterClient(c) {
			return nil
		}
	}
	return errs.NewError(errs.ErrUnknown)
}

// Publish implements conversation.Publisher. Messages for trades nobody is
// watching are dropped.
func (h *Hub) Publish(msg conversation.Message) {
	h.mu.RLock()
	r, ok := h.rooms[msg.TradeID]
	h.mu.RUnlock()

	if !ok {
		return
	}
	r.Publish(msg)
}

// Watchers returns the number of sessions subscribed to tradeID.
func (h *Hub) Watchers(tradeID string) int {
	h.mu.RLock()
	r, ok := h.rooms[tradeID]
	h.mu.RUnlock()

	if !ok {
		return 0
	}
	return r.Len()
}

// Shutdown stops every room and the cleanup loop.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down push hub...")

	h.mu.Lock()
	for _, r := range h.rooms {
		r.Stop()
	}
	h.rooms = make(map[string]*Room)
	h.mu.Unlock()

	close(h.done)
	h.wg.Wait()

	h.logger.Info().Msg("Push hub shutdown complete.")
}
