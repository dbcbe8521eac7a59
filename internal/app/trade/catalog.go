package trade

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
	"gardentrade/internal/pkg/randx"
)

// Backend is the trade-storage collaborator.
//
// GetTrade and UpdateTradeStatus return errs.ErrTradeNotFound for unknown ids.
type Backend interface {
	FetchActiveTrades(ctx context.Context) ([]Trade, error)
	GetTrade(ctx context.Context, id string) (Trade, error)
	PostTrade(ctx context.Context, t Trade) (Trade, error)
	UpdateTradeStatus(ctx context.Context, id string, status Status) error
}

// Catalog validates catalog operations and delegates storage to a Backend.
// It holds no per-client state and is shared by every view.
type Catalog struct {
	backend Backend
	now     func() time.Time
	newID   func() string
	logger  zerolog.Logger
}

// Option customizes a Catalog.
type Option func(*Catalog)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(c *Catalog) { c.now = now }
}

// WithIDGenerator overrides trade id generation.
func WithIDGenerator(newID func() string) Option {
	return func(c *Catalog) { c.newID = newID }
}

// NewCatalog returns a Catalog over backend.
func NewCatalog(backend Backend, opts ...Option) *Catalog {
	c := &Catalog{
		backend: backend,
		now:     time.Now,
		newID:   randx.TradeID,
		logger:  logx.Component("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ListActive returns active trades, newest first. Trades with equal
// timestamps keep the backend order.
func (c *Catalog) ListActive(ctx context.Context) ([]Trade, error) {
	trades, err := c.backend.FetchActiveTrades(ctx)
	if err != nil {
		return nil, backendError(err)
	}

	active := trades[:0:0]
	for _, t := range trades {
		if t.Status == StatusActive {
			active = append(active, t)
		}
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].CreatedAt.After(active[j].CreatedAt)
	})

	return active, nil
}

// Get returns a single trade regardless of status.
func (c *Catalog) Get(ctx context.Context, id string) (Trade, error) {
	if strings.TrimSpace(id) == "" {
		return Trade{}, errs.NewError(errs.ErrTradeNotFound)
	}

	t, err := c.backend.GetTrade(ctx, id)
	if err != nil {
		return Trade{}, backendError(err)
	}
	return t, nil
}

// Create validates draft and posts it as a new active trade owned by owner.
func (c *Catalog) Create(ctx context.Context, owner string, draft Draft) (Trade, error) {
	if err := draft.Validate(); err != nil {
		return Trade{}, err
	}

	t := Trade{
		ID:          c.newID(),
		Owner:       owner,
		Title:       strings.TrimSpace(draft.Title),
		Description: strings.TrimSpace(draft.Description),
		Offering:    normalize(draft.Offering),
		Seeking:     normalize(draft.Seeking),
		CreatedAt:   c.now().UTC(),
		Status:      StatusActive,
	}

	posted, err := c.backend.PostTrade(ctx, t)
	if err != nil {
		return Trade{}, backendError(err)
	}

	c.logger.Info().
		Str("trade_id", posted.ID).
		Str("owner", owner).
		Int("offering", len(posted.Offering)).
		Int("seeking", len(posted.Seeking)).
		Msg("Trade posted.")

	return posted, nil
}

// Complete marks the trade completed. Completing an already completed trade
// is a no-op. Only the owner may complete a trade.
func (c *Catalog) Complete(ctx context.Context, actor, id string) (Trade, error) {
	t, err := c.Get(ctx, id)
	if err != nil {
		return Trade{}, err
	}

	if t.Owner != actor {
		return Trade{}, errs.NewError(errs.ErrNotTradeOwner)
	}

	if t.Status == StatusCompleted {
		return t, nil
	}

	if err := c.backend.UpdateTradeStatus(ctx, id, StatusCompleted); err != nil {
		return Trade{}, backendError(err)
	}

	c.logger.Info().Str("trade_id", id).Str("owner", actor).Msg("Trade completed.")

	t.Status = StatusCompleted
	return t, nil
}

func normalize(items []Item) []Item {
	out := make([]Item, len(items))
	for i, it := range items {
		out[i] = Item{Kind: it.Kind, Name: strings.TrimSpace(it.Name), Quantity: it.Quantity}
	}
	return out
}

// backendError keeps classified errors and turns anything else into
// ErrBackendUnavailable.
func backendError(err error) error {
	if errs.Code(err) != 0 || errors.Is(err, context.Canceled) {
		return err
	}
	return errs.Wrap(errs.ErrBackendUnavailable, err)
}
