/*
Package retrying decorates collaborators with retry and exponential backoff.

Only transient failures are retried: errors that carry an errs code (not
found, validation, credential rejection) and context cancellation are
returned immediately.
*/
package retrying

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"gardentrade/internal/app/conversation"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/app/user"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/logx"
)

// Policy configures the backoff.
type Policy struct {
	Base       time.Duration
	MaxRetries uint64
	MaxDelay   time.Duration
}

// DefaultPolicy retries three times starting at 50ms.
var DefaultPolicy = Policy{Base: 50 * time.Millisecond, MaxRetries: 3, MaxDelay: time.Second}

func (p Policy) backoff() retry.Backoff {
	b := retry.NewExponential(p.Base)
	b = retry.WithMaxRetries(p.MaxRetries, b)
	if p.MaxDelay > 0 {
		b = retry.WithCappedDuration(p.MaxDelay, b)
	}
	return retry.WithJitterPercent(10, b)
}

func do[T any](ctx context.Context, p Policy, op string, fn func(context.Context) (T, error)) (T, error) {
	var out T
	attempt := 0

	err := retry.Do(ctx, p.backoff(), func(ctx context.Context) error {
		attempt++
		v, err := fn(ctx)
		if err == nil {
			out = v
			return nil
		}
		if !transient(err) {
			return err
		}
		logx.Debug("Backend call failed, retrying", "op", op, "attempt", attempt, "error", err.Error())
		return retry.RetryableError(err)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

func transient(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	return errs.Code(err) == 0
}

// Trades wraps a trade.Backend.
type Trades struct {
	next   trade.Backend
	policy Policy
}

// NewTrades returns next with retries.
func NewTrades(next trade.Backend, p Policy) *Trades {
	return &Trades{next: next, policy: p}
}

func (t *Trades) FetchActiveTrades(ctx context.Context) ([]trade.Trade, error) {
	return do(ctx, t.policy, "fetch_active_trades", t.next.FetchActiveTrades)
}

func (t *Trades) GetTrade(ctx context.Context, id string) (trade.Trade, error) {
	return do(ctx, t.policy, "get_trade", func(ctx context.Context) (trade.Trade, error) {
		return t.next.GetTrade(ctx, id)
	})
}

// PostTrade is retried too: the trade id is assigned before the first attempt,
// and backends return the stored trade when an earlier attempt already wrote
// it, so a lost acknowledgement never produces a second listing.
func (t *Trades) PostTrade(ctx context.Context, tr trade.Trade) (trade.Trade, error) {
	return do(ctx, t.policy, "post_trade", func(ctx context.Context) (trade.Trade, error) {
		return t.next.PostTrade(ctx, tr)
	})
}

func (t *Trades) UpdateTradeStatus(ctx context.Context, id string, status trade.Status) error {
	_, err := do(ctx, t.policy, "update_trade_status", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, t.next.UpdateTradeStatus(ctx, id, status)
	})
	return err
}

// Messages wraps a conversation.Backend.
type Messages struct {
	next   conversation.Backend
	policy Policy
}

// NewMessages returns next with retries.
func NewMessages(next conversation.Backend, p Policy) *Messages {
	return &Messages{next: next, policy: p}
}

func (m *Messages) FetchConversation(ctx context.Context, tradeID string) ([]conversation.Message, error) {
	return do(ctx, m.policy, "fetch_conversation", func(ctx context.Context) ([]conversation.Message, error) {
		return m.next.FetchConversation(ctx, tradeID)
	})
}

func (m *Messages) AppendMessage(ctx context.Context, msg conversation.Message) (conversation.Message, error) {
	return do(ctx, m.policy, "append_message", func(ctx context.Context) (conversation.Message, error) {
		return m.next.AppendMessage(ctx, msg)
	})
}

func (m *Messages) SeedConversation(ctx context.Context, tradeID string, msgs []conversation.Message) ([]conversation.Message, error) {
	return do(ctx, m.policy, "seed_conversation", func(ctx context.Context) ([]conversation.Message, error) {
		return m.next.SeedConversation(ctx, tradeID, msgs)
	})
}

// Users wraps a user.Store.
type Users struct {
	next   user.Store
	policy Policy
}

// NewUsers returns next with retries.
func NewUsers(next user.Store, p Policy) *Users {
	return &Users{next: next, policy: p}
}

func (u *Users) Authenticate(ctx context.Context, username, password string) (user.User, error) {
	return do(ctx, u.policy, "authenticate", func(ctx context.Context) (user.User, error) {
		return u.next.Authenticate(ctx, username, password)
	})
}

func (u *Users) Register(ctx context.Context, profile user.Profile) (user.User, error) {
	return do(ctx, u.policy, "register", func(ctx context.Context) (user.User, error) {
		return u.next.Register(ctx, profile)
	})
}

func (u *Users) SetAvatar(ctx context.Context, username, avatarURL string) (user.User, error) {
	return do(ctx, u.policy, "set_avatar", func(ctx context.Context) (user.User, error) {
		return u.next.SetAvatar(ctx, username, avatarURL)
	})
}
