package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	model "github.com/zhouzirui/whispers/backend/internal/model/chat"
	"github.com/zhouzirui/whispers/backend/internal/model/persona"
	chat "github.com/zhouzirui/whispers/backend/internal/service/chat"
)

func newService() *chat.Service {
	svc := chat.NewService(persona.NewMemoryStore(persona.Seed()), "")
	fixed := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	svc.SetClock(func() time.Time { return fixed })
	return svc
}

func TestCreateConversationSeedsOpeningLine(t *testing.T) {
	svc := newService()
	ctx := context.Background()

	conv, opening, err := svc.CreateConversation(ctx, "whisper")
	if err != nil {
		t.Fatalf("CreateConversation err: %v", err)
	}
	if conv.PersonaID != "whisper" {
		t.Fatalf("unexpected persona: %s", conv.PersonaID)
	}
	if len(opening) != 1 || opening[0].Sender != model.SenderCompanion {
		t.Fatalf("expected one companion opening line, got %+v", opening)
	}
	if opening[0].Text != "Hello there. I'm your companion in this dreamy world. What shall we call you?" {
		t.Fatalf("unexpected opening line: %q", opening[0].Text)
	}

	transcript, err := svc.Transcript(ctx, conv.ID)
	if err != nil || len(transcript) != 1 {
		t.Fatalf("unexpected transcript %v err %v", transcript, err)
	}
}

func TestCreateConversationDefaultPersona(t *testing.T) {
	svc := newService()
	conv, _, err := svc.CreateConversation(context.Background(), "")
	if err != nil {
		t.Fatalf("CreateConversation err: %v", err)
	}
	if conv.PersonaID != persona.DefaultID {
		t.Fatalf("expected default persona, got %s", conv.PersonaID)
	}
}

func TestCreateConversationUnknownPersona(t *testing.T) {
	svc := newService()
	if _, _, err := svc.CreateConversation(context.Background(), "nobody"); !errors.Is(err, chat.ErrPersonaNotFound) {
		t.Fatalf("expected ErrPersonaNotFound, got %v", err)
	}
}

func TestAppendMessageIsAppendOnly(t *testing.T) {
	svc := newService()
	ctx := context.Background()
	conv, _, _ := svc.CreateConversation(ctx, "sage")

	first, err := svc.AppendMessage(ctx, conv.ID, model.SenderPlayer, "hi")
	if err != nil {
		t.Fatalf("AppendMessage err: %v", err)
	}
	if first.ID == "" || first.Timestamp.IsZero() {
		t.Fatalf("expected id and timestamp, got %+v", first)
	}
	_, _ = svc.AppendMessage(ctx, conv.ID, model.SenderCompanion, "hello")

	transcript, _ := svc.Transcript(ctx, conv.ID)
	if len(transcript) != 3 || transcript[1].Text != "hi" || transcript[2].Text != "hello" {
		t.Fatalf("unexpected transcript: %+v", transcript)
	}
	transcript[1].Text = "mutated"
	again, _ := svc.Transcript(ctx, conv.ID)
	if again[1].Text != "hi" {
		t.Fatal("transcript copy leaked internal state")
	}
	if n := svc.Count(conv.ID, model.SenderPlayer); n != 1 {
		t.Fatalf("expected 1 player message, got %d", n)
	}
}

func TestAppendMessageUnknownConversation(t *testing.T) {
	svc := newService()
	if _, err := svc.AppendMessage(context.Background(), "missing", model.SenderPlayer, "hi"); !errors.Is(err, chat.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}
