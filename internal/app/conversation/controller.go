package conversation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/randx"
)

const (
	greetingFromOwner  = "Привет! Интересует обмен?"
	greetingFromViewer = "Да, хочу обсудить детали"
)

// Controller is the chat view of one client: which trade's chat is open and
// the composer input. Message history lives in the Backend, so closing and
// reopening a chat resumes it. Controller is not safe for concurrent use.
type Controller struct {
	backend   Backend
	trades    TradeLookup
	publisher Publisher
	seed      bool
	now       func() time.Time
	newID     func() string
	logger    zerolog.Logger

	openID      string
	counterpart string
	input       string
}

// Option customizes a Controller.
type Option func(*Controller)

// WithPublisher sends every appended message to p.
func WithPublisher(p Publisher) Option {
	return func(c *Controller) { c.publisher = p }
}

// WithGreetingSeed makes Open pre-seed an empty conversation with a short
// demo exchange between the trade owner and the viewer.
func WithGreetingSeed(enabled bool) Option {
	return func(c *Controller) { c.seed = enabled }
}

// WithClock overrides the message timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithIDGenerator overrides message id generation.
func WithIDGenerator(newID func() string) Option {
	return func(c *Controller) { c.newID = newID }
}

// NewController returns a closed chat view.
func NewController(backend Backend, trades TradeLookup, opts ...Option) *Controller {
	c := &Controller{
		backend: backend,
		trades:  trades,
		now:     time.Now,
		newID:   randx.MessageID,
		logger:  logx.Component("conversation"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open shows the chat for tradeID and returns its history. The counterpart is
// the trade owner.
func (c *Controller) Open(ctx context.Context, viewer, tradeID string) (Conversation, error) {
	conv, err := c.Load(ctx, viewer, tradeID)
	if err != nil {
		return Conversation{}, err
	}
	c.Show(conv)
	return conv, nil
}

// Load fetches the conversation of tradeID without changing what is shown.
// An empty conversation is seeded with the greeting exchange when enabled.
// Load only reads immutable fields and may run concurrently with other calls.
func (c *Controller) Load(ctx context.Context, viewer, tradeID string) (Conversation, error) {
	t, err := c.trades.Get(ctx, tradeID)
	if err != nil {
		return Conversation{}, err
	}

	msgs, err := c.backend.FetchConversation(ctx, tradeID)
	if err != nil {
		return Conversation{}, backendError(err)
	}

	if len(msgs) == 0 && c.seed {
		now := c.now().UTC()
		msgs, err = c.backend.SeedConversation(ctx, tradeID, []Message{
			{ID: c.newID(), TradeID: tradeID, Sender: t.Owner, Body: greetingFromOwner, SentAt: now},
			{ID: c.newID(), TradeID: tradeID, Sender: viewer, Body: greetingFromViewer, SentAt: now},
		})
		if err != nil {
			return Conversation{}, backendError(err)
		}
		c.logger.Debug().Str("trade_id", tradeID).Msg("Seeded greeting exchange.")
	}

	return Conversation{TradeID: tradeID, Counterpart: t.Owner, Messages: msgs}, nil
}

// Show makes conv the open chat. Switching to another trade clears the
// composer input.
func (c *Controller) Show(conv Conversation) {
	if c.openID != conv.TradeID {
		c.input = ""
	}
	c.openID = conv.TradeID
	c.counterpart = conv.Counterpart
}

// Send appends body to the conversation of tradeID as sender. A blank body is
// rejected and nothing is appended. On success the composer input is cleared
// if tradeID is the open chat.
func (c *Controller) Send(ctx context.Context, sender, tradeID, body string) (Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return Message{}, errs.NewError(errs.ErrMessageEmpty)
	}
	if len(body) > MaxBodyBytes {
		return Message{}, errs.NewError(errs.ErrMessageContentTooLong)
	}

	if _, err := c.trades.Get(ctx, tradeID); err != nil {
		return Message{}, err
	}

	msg, err := c.backend.AppendMessage(ctx, Message{
		ID:      c.newID(),
		TradeID: tradeID,
		Sender:  sender,
		Body:    body,
		SentAt:  c.now().UTC(),
	})
	if err != nil {
		c.logger.Warn().Err(err).Str("trade_id", tradeID).Msg("Message delivery failed.")
		return Message{}, backendError(err)
	}

	if tradeID == c.openID {
		c.input = ""
	}

	if c.publisher != nil {
		c.publisher.Publish(msg)
	}

	return msg, nil
}

// SendInput sends the composer input to the open chat.
func (c *Controller) SendInput(ctx context.Context, sender string) (Message, error) {
	if c.openID == "" {
		return Message{}, errs.NewError(errs.ErrNoOpenConversation)
	}
	return c.Send(ctx, sender, c.openID, c.input)
}

// Close hides the chat. History is kept by the backend.
func (c *Controller) Close() {
	c.openID = ""
	c.counterpart = ""
	c.input = ""
}

// OpenTradeID returns the trade whose chat is shown, or "".
func (c *Controller) OpenTradeID() string {
	return c.openID
}

// Counterpart returns the owner of the open trade, or "".
func (c *Controller) Counterpart() string {
	return c.counterpart
}

// SetInput replaces the composer draft.
func (c *Controller) SetInput(text string) {
	c.input = text
}

// Input returns the composer draft.
func (c *Controller) Input() string {
	return c.input
}

func backendError(err error) error {
	if errs.Code(err) != 0 || errors.Is(err, context.Canceled) {
		return err
	}
	return errs.Wrap(errs.ErrBackendUnavailable, err)
}
