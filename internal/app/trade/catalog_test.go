package trade_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gardentrade/internal/app/store/memory"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/errs"
)

var (
	rose   = trade.Item{Kind: trade.KindPlant, Name: "Роза", Quantity: 2}
	rabbit = trade.Item{Kind: trade.KindPet, Name: "Кролик", Quantity: 1}
)

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name  string
		draft trade.Draft
		code  int
	}{
		{"empty title", trade.Draft{Title: "", Description: "desc"}, errs.ErrTitleRequired},
		{"blank title", trade.Draft{Title: "   ", Offering: []trade.Item{rose}, Seeking: []trade.Item{rabbit}}, errs.ErrTitleRequired},
		{"no offering", trade.Draft{Title: "t", Seeking: []trade.Item{rabbit}}, errs.ErrOfferingRequired},
		{"no seeking", trade.Draft{Title: "t", Offering: []trade.Item{rose}}, errs.ErrSeekingRequired},
		{"bad kind", trade.Draft{Title: "t", Offering: []trade.Item{{Kind: "gem", Name: "x", Quantity: 1}}, Seeking: []trade.Item{rabbit}}, errs.ErrItemKindInvalid},
		{"blank item name", trade.Draft{Title: "t", Offering: []trade.Item{rose}, Seeking: []trade.Item{{Kind: trade.KindPet, Name: " ", Quantity: 1}}}, errs.ErrItemNameRequired},
		{"zero quantity", trade.Draft{Title: "t", Offering: []trade.Item{{Kind: trade.KindCoins, Name: "Шекели", Quantity: 0}}, Seeking: []trade.Item{rabbit}}, errs.ErrItemQuantityInvalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memory.NewTradeStore()
			c := trade.NewCatalog(store)

			_, err := c.Create(context.Background(), "alice", tt.draft)
			if !errs.HasCode(err, tt.code) {
				t.Fatalf("Create error = %v, want code %d", err, tt.code)
			}
			if !errs.IsValidation(err) {
				t.Errorf("error %v is not classified as validation", err)
			}
			if store.Len() != 0 {
				t.Errorf("store holds %d trades after rejected create", store.Len())
			}
		})
	}
}

func TestCreateAssignsFields(t *testing.T) {
	now := time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC)
	c := trade.NewCatalog(memory.NewTradeStore(),
		trade.WithClock(func() time.Time { return now }),
		trade.WithIDGenerator(func() string { return "t-1" }),
	)

	got, err := c.Create(context.Background(), "alice", trade.Draft{
		Title:       "  Розы  ",
		Description: " desc ",
		Offering:    []trade.Item{{Kind: trade.KindPlant, Name: " Роза ", Quantity: 2}},
		Seeking:     []trade.Item{rabbit},
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got.ID != "t-1" || got.Owner != "alice" || got.Status != trade.StatusActive || !got.CreatedAt.Equal(now) {
		t.Errorf("Create = %+v", got)
	}
	if got.Title != "Розы" || got.Description != "desc" || got.Offering[0].Name != "Роза" {
		t.Errorf("fields not trimmed: %+v", got)
	}
}

func TestCreateIDsAreUnique(t *testing.T) {
	c := trade.NewCatalog(memory.NewTradeStore())
	draft := trade.Draft{Title: "t", Offering: []trade.Item{rose}, Seeking: []trade.Item{rabbit}}

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		got, err := c.Create(context.Background(), "alice", draft)
		if err != nil {
			t.Fatalf("Create #%d: %v", i, err)
		}
		if seen[got.ID] {
			t.Fatalf("duplicate id %q", got.ID)
		}
		seen[got.ID] = true
	}
}

func TestListActiveOrderAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	now := time.Now()
	c := trade.NewCatalog(memory.NewTradeStore(memory.SeedTrades(now)...),
		trade.WithClock(func() time.Time { return now }),
	)

	posted, err := c.Create(ctx, "alice", trade.Draft{Title: "new", Offering: []trade.Item{rose}, Seeking: []trade.Item{rabbit}})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	list, err := c.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive: %v", err)
	}

	want := []string{posted.ID, "1", "2", "3"}
	if len(list) != len(want) {
		t.Fatalf("listed %d trades, want %d", len(list), len(want))
	}
	for i := range want {
		if list[i].ID != want[i] {
			t.Errorf("list[%d] = %s, want %s", i, list[i].ID, want[i])
		}
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Errorf("list not newest first at %d", i)
		}
	}
}

func TestComplete(t *testing.T) {
	ctx := context.Background()
	c := trade.NewCatalog(memory.NewTradeStore(memory.SeedTrades(time.Now())...))

	if _, err := c.Complete(ctx, "PetLover", "1"); !errs.HasCode(err, errs.ErrNotTradeOwner) {
		t.Errorf("foreign complete error = %v, want ErrNotTradeOwner", err)
	}

	for i := 0; i < 2; i++ {
		got, err := c.Complete(ctx, "GardenMaster", "1")
		if err != nil {
			t.Fatalf("Complete #%d: %v", i, err)
		}
		if got.Status != trade.StatusCompleted {
			t.Errorf("Status = %s, want completed", got.Status)
		}
	}

	list, _ := c.ListActive(ctx)
	for _, tr := range list {
		if tr.ID == "1" {
			t.Error("completed trade still listed")
		}
	}

	if _, err := c.Complete(ctx, "GardenMaster", "404"); !errs.IsNotFound(err) {
		t.Errorf("unknown id error = %v, want not found", err)
	}
	if _, err := c.Get(ctx, ""); !errs.HasCode(err, errs.ErrTradeNotFound) {
		t.Errorf("empty id error = %v, want ErrTradeNotFound", err)
	}
}

type brokenBackend struct {
	trade.Backend
}

func (brokenBackend) FetchActiveTrades(context.Context) ([]trade.Trade, error) {
	return nil, fmt.Errorf("dial tcp: %w", errors.New("connection refused"))
}

func TestBackendFailureIsUnavailable(t *testing.T) {
	c := trade.NewCatalog(brokenBackend{})

	_, err := c.ListActive(context.Background())
	if !errs.HasCode(err, errs.ErrBackendUnavailable) {
		t.Fatalf("ListActive error = %v, want ErrBackendUnavailable", err)
	}
	if errs.IsValidation(err) {
		t.Error("backend failure classified as validation")
	}
}
