package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gardentrade/internal/app/conversation"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/app/user"
	"gardentrade/internal/pkg/errs"
)

func TestUserStore(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(WithBcryptCost(bcrypt.MinCost))

	u, err := s.Register(ctx, user.Profile{Username: "Alice", Email: "alice@example.com", Password: "pw"})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.ID == "" || u.CreatedAt.IsZero() {
		t.Errorf("Register = %+v", u)
	}

	if _, err := s.Register(ctx, user.Profile{Username: "alice", Password: "x"}); !errs.HasCode(err, errs.ErrUserAlreadyExists) {
		t.Errorf("duplicate Register error = %v", err)
	}
	if _, err := s.Authenticate(ctx, "alice", "nope"); !errs.HasCode(err, errs.ErrInvalidCredentials) {
		t.Errorf("wrong password error = %v", err)
	}
	if _, err := s.Authenticate(ctx, "bob", "pw"); !errs.HasCode(err, errs.ErrInvalidCredentials) {
		t.Errorf("unknown user error = %v", err)
	}
	if got, err := s.Authenticate(ctx, "ALICE", "pw"); err != nil || got.Username != "Alice" {
		t.Errorf("Authenticate = %+v, %v", got, err)
	}
	if _, err := s.SetAvatar(ctx, "bob", "x"); !errs.HasCode(err, errs.ErrUserNotFound) {
		t.Errorf("SetAvatar unknown error = %v", err)
	}
}

func TestUserStoreAcceptAny(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(AcceptAnyCredentials(), WithBcryptCost(bcrypt.MinCost))

	first, err := s.Authenticate(ctx, "GardenMaster", "pw")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	again, err := s.Authenticate(ctx, "GardenMaster", "other")
	if err != nil || again.ID != first.ID {
		t.Errorf("second Authenticate = %+v, %v; want same user", again, err)
	}
}

func TestTradeStoreStatusIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore(SeedTrades(time.Now())...)

	if err := s.UpdateTradeStatus(ctx, "2", trade.StatusCompleted); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if err := s.UpdateTradeStatus(ctx, "2", trade.StatusActive); !errs.HasCode(err, errs.ErrInvalidParams) {
		t.Errorf("reactivate error = %v, want ErrInvalidParams", err)
	}
	if err := s.UpdateTradeStatus(ctx, "9", trade.StatusCompleted); !errs.HasCode(err, errs.ErrTradeNotFound) {
		t.Errorf("unknown id error = %v", err)
	}

	active, _ := s.FetchActiveTrades(ctx)
	if len(active) != 2 || s.Len() != 3 {
		t.Errorf("active %d of %d, want 2 of 3", len(active), s.Len())
	}
}

func TestTradeStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore(SeedTrades(time.Now())...)

	got, _ := s.GetTrade(ctx, "3")
	got.Offering[0].Name = "mutated"

	again, _ := s.GetTrade(ctx, "3")
	if again.Offering[0].Name != "Орхидея" {
		t.Errorf("store was mutated through a returned trade")
	}
}

func TestTradeStoreRepeatedPost(t *testing.T) {
	ctx := context.Background()
	s := NewTradeStore(SeedTrades(time.Now())...)

	stored, _ := s.GetTrade(ctx, "3")

	got, err := s.PostTrade(ctx, stored)
	if err != nil {
		t.Fatalf("repeated PostTrade: %v", err)
	}
	if got.ID != "3" || s.Len() != 3 {
		t.Errorf("repeated PostTrade = %q, store holds %d; want 3 and 3", got.ID, s.Len())
	}

	other := stored.Clone()
	other.Owner = "someone-else"
	if _, err := s.PostTrade(ctx, other); !errs.HasCode(err, errs.ErrInvalidParams) {
		t.Errorf("conflicting PostTrade error = %v, want ErrInvalidParams", err)
	}
	if s.Len() != 3 {
		t.Errorf("store holds %d trades after a conflict, want 3", s.Len())
	}
}

func TestSeedConversationOnce(t *testing.T) {
	ctx := context.Background()
	s := NewMessageStore()
	seed := []conversation.Message{{ID: "a", TradeID: "1"}, {ID: "b", TradeID: "1"}}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.SeedConversation(ctx, "1", seed)
		}()
	}
	wg.Wait()

	msgs, _ := s.FetchConversation(ctx, "1")
	if len(msgs) != 2 {
		t.Errorf("got %d messages, want 2", len(msgs))
	}

	s.AppendMessage(ctx, conversation.Message{ID: "c", TradeID: "1"})
	msgs, _ = s.SeedConversation(ctx, "1", seed)
	if len(msgs) != 3 || msgs[2].ID != "c" {
		t.Errorf("seeding a non-empty conversation changed it: %+v", msgs)
	}
}
