package retrying

import (
	"context"
	"errors"
	"testing"
	"time"

	"gardentrade/internal/app/store/memory"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/errs"
)

var fastPolicy = Policy{Base: time.Millisecond, MaxRetries: 3}

type flakyTrades struct {
	failures int
	calls    int
	err      error
}

func (f *flakyTrades) FetchActiveTrades(ctx context.Context) ([]trade.Trade, error) {
	f.calls++
	if f.calls <= f.failures {
		return nil, f.err
	}
	return []trade.Trade{{ID: "1"}}, nil
}

func (f *flakyTrades) GetTrade(ctx context.Context, id string) (trade.Trade, error) {
	f.calls++
	return trade.Trade{}, errs.NewError(errs.ErrTradeNotFound)
}

func (f *flakyTrades) PostTrade(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	f.calls++
	return t, nil
}

func (f *flakyTrades) UpdateTradeStatus(ctx context.Context, id string, status trade.Status) error {
	f.calls++
	if f.calls <= f.failures {
		return f.err
	}
	return nil
}

func TestRetriesTransientFailures(t *testing.T) {
	backend := &flakyTrades{failures: 2, err: errors.New("connection reset")}
	r := NewTrades(backend, fastPolicy)

	trades, err := r.FetchActiveTrades(context.Background())
	if err != nil {
		t.Fatalf("FetchActiveTrades: %v", err)
	}
	if len(trades) != 1 || backend.calls != 3 {
		t.Fatalf("trades=%d calls=%d, want 1/3", len(trades), backend.calls)
	}
}

func TestGivesUpAfterMaxRetries(t *testing.T) {
	cause := errors.New("connection refused")
	backend := &flakyTrades{failures: 100, err: cause}
	r := NewTrades(backend, fastPolicy)

	err := r.UpdateTradeStatus(context.Background(), "1", trade.StatusCompleted)
	if !errors.Is(err, cause) {
		t.Fatalf("err = %v, want %v", err, cause)
	}
	if backend.calls != 4 {
		t.Fatalf("calls = %d, want 4", backend.calls)
	}
}

func TestDoesNotRetryClassifiedErrors(t *testing.T) {
	backend := &flakyTrades{}
	r := NewTrades(backend, fastPolicy)

	_, err := r.GetTrade(context.Background(), "missing")
	if !errs.IsNotFound(err) {
		t.Fatalf("err = %v, want not found", err)
	}
	if backend.calls != 1 {
		t.Fatalf("calls = %d, want 1", backend.calls)
	}
}

func TestStopsOnCancelledContext(t *testing.T) {
	backend := &flakyTrades{failures: 100, err: context.Canceled}
	r := NewTrades(backend, fastPolicy)

	_, err := r.FetchActiveTrades(context.Background())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if backend.calls != 1 {
		t.Fatalf("calls = %d, want 1", backend.calls)
	}
}

// lostAckTrades stores the first post and then reports a transport error, as
// if the reply had been lost on the way back.
type lostAckTrades struct {
	*memory.TradeStore
	posts int
}

func (l *lostAckTrades) PostTrade(ctx context.Context, t trade.Trade) (trade.Trade, error) {
	l.posts++
	stored, err := l.TradeStore.PostTrade(ctx, t)
	if err != nil {
		return trade.Trade{}, err
	}
	if l.posts == 1 {
		return trade.Trade{}, errors.New("connection reset by peer")
	}
	return stored, nil
}

func TestPostTradeSurvivesLostAcknowledgement(t *testing.T) {
	ctx := context.Background()
	backend := &lostAckTrades{TradeStore: memory.NewTradeStore()}
	catalog := trade.NewCatalog(NewTrades(backend, fastPolicy))

	created, err := catalog.Create(ctx, "alice", trade.Draft{
		Title:    "Fern for a goldfish",
		Offering: []trade.Item{{Kind: trade.KindPlant, Name: "Fern", Quantity: 1}},
		Seeking:  []trade.Item{{Kind: trade.KindPet, Name: "Goldfish", Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if backend.posts != 2 {
		t.Errorf("posts = %d, want 2", backend.posts)
	}

	listed, err := catalog.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}
	count := 0
	for _, tr := range listed {
		if tr.ID == created.ID {
			count++
		}
	}
	if count != 1 || backend.Len() != 1 {
		t.Errorf("trade listed %d times, store holds %d; want 1 and 1", count, backend.Len())
	}
}
