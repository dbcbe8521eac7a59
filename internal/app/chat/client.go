package chat

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
)

const (
	// timeout for writing one frame.
	writeWait = 10 * time.Second

	// how long the server waits for a pong.
	pongWait = 60 * time.Second

	// ping interval; must be shorter than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// subscribers only send control frames, so inbound frames stay small.
	maxMessageSize = 512

	sendQueueSize = 64

	// WsCloseCodeSessionKicked tells the client its connection was replaced
	// by a newer one for the same session.
	WsCloseCodeSessionKicked = 4001
)

// Client is one WebSocket subscription of a signed-in session.
type Client struct {
	room      *Room
	conn      *websocket.Conn
	sessionID string
	username  string

	send      chan []byte
	closeOnce sync.Once
	kicked    atomic.Bool

	logger zerolog.Logger
}

// NewClient wraps conn for the session. The hub assigns the room on Join.
func NewClient(conn *websocket.Conn, sessionID, username string) *Client {
	return &Client{
		conn:      conn,
		sessionID: sessionID,
		username:  username,
		send:      make(chan []byte, sendQueueSize),
		logger:    logx.Component("subscriber").With().Str("session_id", sessionID).Logger(),
	}
}

// ReadPump consumes control frames until the connection fails, then leaves
// the room. The channel is push-only, so every data frame from the client is
// answered with an ERROR event.
func (c *Client) ReadPump() {
	defer func() {
		if c.room != nil {
			c.room.unregisterClient(c)
		}
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error.")
		}
	}()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline.")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Subscriber connection closed unexpectedly.")
			}
			return
		}
		if c.room != nil {
			c.room.rejectFrame(c)
		}
	}
}

// WritePump writes queued frames and heartbeats. It is the only writer on
// the connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Connection close error in WritePump.")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}

			if !ok {
				c.writeClose()
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing frame.")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug().Err(err).Msg("Error writing ping.")
				return
			}
		}
	}
}

func (c *Client) writeClose() {
	closeMessage := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if c.kicked.Load() {
		closeMessage = websocket.FormatCloseMessage(
			WsCloseCodeSessionKicked,
			errs.NewError(errs.ErrSessionKicked).Message,
		)
	}

	if err := c.conn.WriteMessage(websocket.CloseMessage, closeMessage); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing close frame.")
	}
}

// Kick closes the subscription with WsCloseCodeSessionKicked.
func (c *Client) Kick() {
	c.kicked.Store(true)
	c.closeSend()
}

func (c *Client) sendEvent(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.logger.Error().Err(err).Msg("Failed to marshal event.")
		return
	}
	if !c.enqueue(data) {
		c.logger.Warn().Str("event", string(ev.Type)).Msg("Send queue full, dropping event.")
	}
}

// enqueue must not race with closeSend; both run on the room's goroutine
// once the client is registered. Other goroutines go through the room's
// channels instead.
func (c *Client) enqueue(data []byte) bool {
	select {
	case c.send <- data:
		return true
	default:
		return false
	}
}

func (c *Client) closeSend() {
	c.closeOnce.Do(func() { close(c.send) })
}
