package journal

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	analysis "github.com/zhouzirui/whispers/backend/internal/analysis/emotion"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	model "github.com/zhouzirui/whispers/backend/internal/model/journal"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

var fixed = time.Date(2026, 5, 10, 20, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, st store.Store) *Service {
	t.Helper()
	svc, err := NewService(context.Background(), st, logger.Nop(), Options{Clock: func() time.Time { return fixed }})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestSeededJournal(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore())
	list := svc.List()
	if len(list) != 1 || list[0].Title != "First Meeting" || list[0].Emotion != "wonder" {
		t.Fatalf("unexpected seed: %+v", list)
	}
}

func TestCaptureThreshold(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore())
	ctx := context.Background()

	exactly50 := strings.Repeat("a", 50)
	if _, created, err := svc.Capture(ctx, exactly50, analysis.Joy); err != nil || created {
		t.Fatalf("50 runes should not create a memory (created=%v err=%v)", created, err)
	}

	long := "Today I walked to the lake and felt grateful for the quiet morning air"
	m, created, err := svc.Capture(ctx, long, analysis.Joy, "msg-1")
	if err != nil || !created {
		t.Fatalf("expected a memory, created=%v err=%v", created, err)
	}
	if m.Title != "A Bright Moment" || m.Description != long || m.RelatedMessages[0] != "msg-1" {
		t.Fatalf("unexpected memory: %+v", m)
	}
	if len(svc.List()) != 2 {
		t.Fatalf("expected 2 memories, got %d", len(svc.List()))
	}
}

func TestCaptureUnknownLabelDefaultsToReflection(t *testing.T) {
	svc := newTestService(t, store.NewMemoryStore())
	m, _, _ := svc.Capture(context.Background(), strings.Repeat("long text ", 10), "neutral")
	if m.Emotion != "reflection" || m.Title != "A Quiet Reflection" {
		t.Fatalf("unexpected memory: %+v", m)
	}
}

func TestJournalPersists(t *testing.T) {
	st := store.NewMemoryStore()
	svc := newTestService(t, st)
	m, _, err := svc.Capture(context.Background(), strings.Repeat("wondering about it ", 5), analysis.Curiosity)
	if err != nil {
		t.Fatalf("capture: %v", err)
	}

	reloaded := newTestService(t, st)
	got, err := reloaded.Find(m.ID)
	if err != nil {
		t.Fatalf("find after reload: %v", err)
	}
	if got.Title != "A Curious Thought" {
		t.Fatalf("unexpected title %q", got.Title)
	}
	if _, err := reloaded.Find("missing"); !errors.Is(err, ErrMemoryNotFound) {
		t.Fatalf("expected ErrMemoryNotFound, got %v", err)
	}
}

func TestCorruptJournal(t *testing.T) {
	st := store.NewMemoryStore()
	if _, err := st.Put(context.Background(), DefaultKey, []byte(`{"not":"a list"}`), 0); err != nil {
		t.Fatalf("put: %v", err)
	}
	if _, err := NewService(context.Background(), st, logger.Nop(), Options{}); !errors.Is(err, store.ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
	svc, err := NewService(context.Background(), st, logger.Nop(), Options{ResetOnCorrupt: true})
	if err != nil {
		t.Fatalf("reset: %v", err)
	}
	if len(svc.List()) != 1 {
		t.Fatalf("expected reseeded journal")
	}
}

func TestReflect(t *testing.T) {
	got := Reflect(model.Memory{Title: "First Meeting", Emotion: "joy"})
	want := "I see you're reflecting on 'First Meeting'. That moment felt like a warm embrace. Would you like to explore similar experiences?"
	if got != want {
		t.Fatalf("got %q", got)
	}
	if !strings.Contains(Reflect(model.Memory{Title: "x", Emotion: "curiosity"}), "a deep contemplation") {
		t.Fatal("curiosity should read as contemplation")
	}
}
