package conversation_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"gardentrade/internal/app/conversation"
	"gardentrade/internal/app/store/memory"
	"gardentrade/internal/app/trade"
	"gardentrade/internal/pkg/errs"
)

type recorder struct {
	mu   sync.Mutex
	msgs []conversation.Message
}

func (r *recorder) Publish(msg conversation.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = append(r.msgs, msg)
}

func newController(t *testing.T, opts ...conversation.Option) (*conversation.Controller, *memory.MessageStore) {
	t.Helper()

	catalog := trade.NewCatalog(memory.NewTradeStore(memory.SeedTrades(time.Now())...))
	messages := memory.NewMessageStore()
	return conversation.NewController(messages, catalog, opts...), messages
}

func TestOpenSeedsGreeting(t *testing.T) {
	ctx := context.Background()
	c, messages := newController(t, conversation.WithGreetingSeed(true))

	conv, err := c.Open(ctx, "Alice", "1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if conv.Counterpart != "GardenMaster" || c.Counterpart() != "GardenMaster" {
		t.Errorf("counterpart = %q, want trade owner", conv.Counterpart)
	}
	if c.OpenTradeID() != "1" {
		t.Errorf("OpenTradeID = %q, want 1", c.OpenTradeID())
	}

	if len(conv.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(conv.Messages))
	}
	if conv.Messages[0].Sender != "GardenMaster" || conv.Messages[1].Sender != "Alice" {
		t.Errorf("seed senders = %s, %s", conv.Messages[0].Sender, conv.Messages[1].Sender)
	}

	// Reopening must not seed twice.
	conv, _ = c.Open(ctx, "Alice", "1")
	stored, _ := messages.FetchConversation(ctx, "1")
	if len(conv.Messages) != 2 || len(stored) != 2 {
		t.Errorf("reopen: %d shown, %d stored, want 2", len(conv.Messages), len(stored))
	}
}

func TestOpenWithoutSeed(t *testing.T) {
	c, _ := newController(t)

	conv, err := c.Open(context.Background(), "Alice", "2")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(conv.Messages) != 0 {
		t.Errorf("got %d messages, want 0", len(conv.Messages))
	}
}

func TestOpenUnknownTrade(t *testing.T) {
	c, _ := newController(t)

	if _, err := c.Open(context.Background(), "Alice", "missing"); !errs.IsNotFound(err) {
		t.Fatalf("Open error = %v, want not found", err)
	}
	if c.OpenTradeID() != "" {
		t.Errorf("OpenTradeID = %q after failed open", c.OpenTradeID())
	}
}

func TestSendAppendsLast(t *testing.T) {
	ctx := context.Background()
	pub := &recorder{}
	c, messages := newController(t, conversation.WithGreetingSeed(true), conversation.WithPublisher(pub))

	c.Open(ctx, "Alice", "1")
	c.SetInput("draft")

	msg, err := c.Send(ctx, "Alice", "1", "  Да, интересно ")
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if msg.Body != "Да, интересно" || msg.Sender != "Alice" || msg.TradeID != "1" || msg.ID == "" {
		t.Errorf("Send = %+v", msg)
	}

	stored, _ := messages.FetchConversation(ctx, "1")
	if len(stored) != 3 || stored[2].ID != msg.ID {
		t.Errorf("stored %d messages, last %+v; want 3 with the new one last", len(stored), stored[len(stored)-1])
	}
	if c.Input() != "" {
		t.Errorf("Input = %q, want cleared", c.Input())
	}
	if len(pub.msgs) != 1 || pub.msgs[0].ID != msg.ID {
		t.Errorf("published %+v", pub.msgs)
	}
}

func TestSendRejectsBlankAndLong(t *testing.T) {
	ctx := context.Background()
	c, messages := newController(t)

	for _, body := range []string{"", "   ", "\n\t"} {
		if _, err := c.Send(ctx, "Alice", "1", body); !errs.HasCode(err, errs.ErrMessageEmpty) {
			t.Errorf("Send(%q) error = %v, want ErrMessageEmpty", body, err)
		}
	}

	long := strings.Repeat("a", conversation.MaxBodyBytes+1)
	if _, err := c.Send(ctx, "Alice", "1", long); !errs.HasCode(err, errs.ErrMessageContentTooLong) {
		t.Errorf("long Send error = %v, want ErrMessageContentTooLong", err)
	}

	if stored, _ := messages.FetchConversation(ctx, "1"); len(stored) != 0 {
		t.Errorf("rejected sends stored %d messages", len(stored))
	}
}

func TestSendInputRequiresOpenChat(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)

	if _, err := c.SendInput(ctx, "Alice"); !errs.HasCode(err, errs.ErrNoOpenConversation) {
		t.Fatalf("SendInput error = %v, want ErrNoOpenConversation", err)
	}

	c.Open(ctx, "Alice", "3")
	c.SetInput("Сколько кактусов?")

	msg, err := c.SendInput(ctx, "Alice")
	if err != nil {
		t.Fatalf("SendInput: %v", err)
	}
	if msg.TradeID != "3" {
		t.Errorf("TradeID = %q, want 3", msg.TradeID)
	}
}

func TestSwitchingChatClearsInput(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)

	c.Open(ctx, "Alice", "1")
	c.SetInput("unsent")
	c.Open(ctx, "Alice", "1")
	if c.Input() != "unsent" {
		t.Errorf("reopening the same chat lost input")
	}

	c.Open(ctx, "Alice", "2")
	if c.Input() != "" || c.Counterpart() != "PetLover" {
		t.Errorf("after switch: input %q, counterpart %q", c.Input(), c.Counterpart())
	}
}

func TestCloseKeepsHistory(t *testing.T) {
	ctx := context.Background()
	c, _ := newController(t)

	c.Open(ctx, "Alice", "1")
	c.Send(ctx, "Alice", "1", "hello")
	c.Close()

	if c.OpenTradeID() != "" || c.Counterpart() != "" {
		t.Errorf("chat still open after Close")
	}

	conv, err := c.Open(ctx, "Alice", "1")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(conv.Messages) != 1 {
		t.Errorf("history has %d messages, want 1", len(conv.Messages))
	}
}

type downBackend struct {
	*memory.MessageStore
}

func (downBackend) AppendMessage(context.Context, conversation.Message) (conversation.Message, error) {
	return conversation.Message{}, errors.New("broker unreachable")
}

func TestSendBackendFailure(t *testing.T) {
	catalog := trade.NewCatalog(memory.NewTradeStore(memory.SeedTrades(time.Now())...))
	c := conversation.NewController(downBackend{memory.NewMessageStore()}, catalog)

	_, err := c.Send(context.Background(), "Alice", "1", "hi")
	if !errs.HasCode(err, errs.ErrBackendUnavailable) {
		t.Fatalf("Send error = %v, want ErrBackendUnavailable", err)
	}
	if errs.IsValidation(err) {
		t.Error("delivery failure classified as validation")
	}
}
