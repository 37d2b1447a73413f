package app

import (
	"context"
	"testing"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/config"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/service/ai"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

func TestNewDefaultsToEndpointResponder(t *testing.T) {
	cfg := config.Default()
	cfg.Store.Driver = "memory"

	a, err := New(context.Background(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	if _, ok := a.Responder.(*ai.EndpointResponder); !ok {
		t.Fatalf("expected endpoint responder, got %T", a.Responder)
	}
	if a.Emotion.Enabled() {
		t.Fatal("emotion llm should be disabled without credentials")
	}
	if got := a.Game.State().TotalSeeds; got != 15 {
		t.Fatalf("expected initial seeds, got %d", got)
	}
	if len(a.Journal.List()) != 1 {
		t.Fatal("expected seeded journal")
	}
}

func TestNewSharesStoreAcrossRestarts(t *testing.T) {
	cfg := config.Default()
	st := store.NewMemoryStore()
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	reply := ai.Reply{Response: "ok", Emotion: "calm", MemoryTag: "t"}

	a, err := New(context.Background(), cfg, logger.Nop(), WithStore(st), WithResponder(static(reply)), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	conv, _, _ := a.Chat.CreateConversation(context.Background(), "")
	if _, err := a.Companion.Send(context.Background(), conv.ID, "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	a.Hub.Close()

	b, err := New(context.Background(), cfg, logger.Nop(), WithStore(st), WithResponder(static(reply)), WithClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer b.Close()
	if b.Game.State().TotalSeeds != 20 || len(b.Memory.ShortTerm()) != 1 {
		t.Fatalf("state not restored: seeds=%d entries=%d", b.Game.State().TotalSeeds, len(b.Memory.ShortTerm()))
	}
}

type static ai.Reply

func (s static) Respond(context.Context, ai.Request) ai.Reply { return ai.Reply(s) }
