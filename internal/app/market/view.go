/*
Package market owns the per-client view state of the trading front end.

A View bundles the four controllers a client drives (session, catalog listing,
composition form and conversation) and keeps one explicit state value per
concern. Every operation except signing in requires an authenticated session.
The Manager hosts one View per signed-in client, keyed by session id.
*/
package market

import (
	"context"
	"sync"

	"gardentrade/internal/app/compose"
	"gardentrade/internal/app/conversation"
	"gardentrade/internal/app/session"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/app/user"
	"gardentrade/internal/pkg/errs"
	"gardentrade/internal/pkg/latest"
)

const (
	catalogKey      = "catalog"
	conversationKey = "conversation"
)

// Deps are the collaborators shared by every view.
type Deps struct {
	Users    user.Store
	Catalog  *trade.Catalog
	Messages conversation.Backend

	// Publisher receives every sent message; nil disables push.
	Publisher conversation.Publisher

	// SeedGreeting pre-fills empty conversations with a demo exchange.
	SeedGreeting bool
}

// State is a read-only snapshot of a view for rendering.
type State struct {
	Session      session.Session    `json:"session"`
	Trades       []trade.Trade      `json:"trades"`
	Compose      compose.Snapshot   `json:"compose"`
	Conversation *ConversationState `json:"conversation,omitempty"`
}

// ConversationState describes the open chat.
type ConversationState struct {
	TradeID     string `json:"tradeId"`
	Counterpart string `json:"counterpart"`
	Input       string `json:"input"`
}

// View is the state of one client. It is safe for concurrent use; operations
// are serialized except catalog and conversation loads, which follow
// last-request-wins ordering.
type View struct {
	mu sync.Mutex

	session *session.Controller
	catalog *trade.Catalog
	trades  []trade.Trade
	form    compose.Form
	chat    *conversation.Controller

	requests *latest.Tracker
}

// NewView returns an unauthenticated view.
func NewView(deps Deps) *View {
	opts := []conversation.Option{conversation.WithGreetingSeed(deps.SeedGreeting)}
	if deps.Publisher != nil {
		opts = append(opts, conversation.WithPublisher(deps.Publisher))
	}

	return &View{
		session:  session.NewController(deps.Users),
		catalog:  deps.Catalog,
		chat:     conversation.NewController(deps.Messages, deps.Catalog, opts...),
		requests: latest.NewTracker(),
	}
}

// Login signs the view in.
func (v *View) Login(ctx context.Context, username, password string) (session.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Login(ctx, username, password)
}

// Register creates an account and signs the view in.
func (v *View) Register(ctx context.Context, username, email, password string) (session.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Register(ctx, username, email, password)
}

// Logout clears the session. Catalog, form and chat state are kept.
func (v *View) Logout() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.session.Logout()
}

// Session returns the current session.
func (v *View) Session() session.Session {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.Current()
}

// SetAvatar records a new avatar URL for the signed-in user.
func (v *View) SetAvatar(ctx context.Context, avatarURL string) (session.Session, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.session.SetAvatar(ctx, avatarURL)
}

// State returns a snapshot of every concern.
func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	st := State{
		Session: v.session.Current(),
		Trades:  cloneTrades(v.trades),
		Compose: v.form.Snapshot(),
	}
	if id := v.chat.OpenTradeID(); id != "" {
		st.Conversation = &ConversationState{
			TradeID:     id,
			Counterpart: v.chat.Counterpart(),
			Input:       v.chat.Input(),
		}
	}
	return st
}

// ListActiveTrades refreshes the catalog listing. A refresh overtaken by a
// newer one is cancelled and fails with errs.ErrRequestSuperseded; its result
// is never applied.
func (v *View) ListActiveTrades(ctx context.Context) ([]trade.Trade, error) {
	if _, err := v.username(); err != nil {
		return nil, err
	}

	reqCtx, ticket := v.requests.Begin(ctx, catalogKey)
	trades, err := v.catalog.ListActive(reqCtx)

	v.mu.Lock()
	defer v.mu.Unlock()

	if !ticket.Done() {
		return nil, errs.NewError(errs.ErrRequestSuperseded)
	}
	if err != nil {
		return nil, err
	}

	v.trades = trades
	return cloneTrades(trades), nil
}

// CreateTrade posts a trade owned by the signed-in user directly, bypassing
// the composition form.
func (v *View) CreateTrade(ctx context.Context, draft trade.Draft) (trade.Trade, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	owner, err := v.requireAuth()
	if err != nil {
		return trade.Trade{}, err
	}

	return v.post(ctx, owner, draft)
}

// CompleteTrade marks one of the user's own trades completed and drops it from
// the listing.
func (v *View) CompleteTrade(ctx context.Context, tradeID string) (trade.Trade, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	actor, err := v.requireAuth()
	if err != nil {
		return trade.Trade{}, err
	}

	t, err := v.catalog.Complete(ctx, actor, tradeID)
	if err != nil {
		return trade.Trade{}, err
	}

	kept := v.trades[:0:0]
	for _, listed := range v.trades {
		if listed.ID != tradeID {
			kept = append(kept, listed)
		}
	}
	v.trades = kept

	return t, nil
}

// post must be called with v.mu held.
func (v *View) post(ctx context.Context, owner string, draft trade.Draft) (trade.Trade, error) {
	t, err := v.catalog.Create(ctx, owner, draft)
	if err != nil {
		return trade.Trade{}, err
	}

	v.trades = append([]trade.Trade{t.Clone()}, v.trades...)
	return t, nil
}

// requireAuth must be called with v.mu held.
func (v *View) requireAuth() (string, error) {
	s := v.session.Current()
	if !s.IsAuthenticated {
		return "", errs.NewError(errs.ErrUnauthorized)
	}
	return s.Username, nil
}

func (v *View) username() (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.requireAuth()
}

func cloneTrades(trades []trade.Trade) []trade.Trade {
	out := make([]trade.Trade, len(trades))
	for i, t := range trades {
		out[i] = t.Clone()
	}
	return out
}
