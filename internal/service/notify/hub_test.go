package notify

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/model/chat"
	model "github.com/zhouzirui/whispers/backend/internal/model/gamification"
)

type countingClearer struct {
	badges       atomic.Int32
	affirmations atomic.Int32
}

func (c *countingClearer) ClearRecentBadge(context.Context) (model.State, error) {
	c.badges.Add(1)
	return model.State{}, nil
}

func (c *countingClearer) ClearAffirmation(context.Context) (model.State, error) {
	c.affirmations.Add(1)
	return model.State{}, nil
}

func fastTimings() Timings {
	return Timings{
		TypingDelay:      10 * time.Millisecond,
		BadgeToast:       10 * time.Millisecond,
		BadgeFade:        5 * time.Millisecond,
		AffirmationToast: 10 * time.Millisecond,
		AffirmationFade:  5 * time.Millisecond,
	}
}

func next(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
	}
	return Event{}
}

func TestDeliverReplyAfterTypingDelay(t *testing.T) {
	hub := NewHub(fastTimings(), logger.Nop())
	defer hub.Close()
	events, unsubscribe := hub.Subscribe("conv-1")
	defer unsubscribe()
	other, unsubscribeOther := hub.Subscribe("conv-2")
	defer unsubscribeOther()

	hub.DeliverReply("conv-1", chat.Message{ID: "m1", Text: "hello", Sender: chat.SenderCompanion})

	if ev := next(t, events); ev.Type != EventTyping {
		t.Fatalf("expected typing first, got %s", ev.Type)
	}
	ev := next(t, events)
	if ev.Type != EventMessage || ev.Payload.(chat.Message).Text != "hello" {
		t.Fatalf("unexpected event %+v", ev)
	}
	select {
	case ev := <-other:
		t.Fatalf("other conversation should not receive %s", ev.Type)
	default:
	}
}

func TestBadgeToastTimeline(t *testing.T) {
	hub := NewHub(fastTimings(), logger.Nop())
	defer hub.Close()
	clearer := &countingClearer{}
	hub.SetClearer(clearer)
	events, unsubscribe := hub.Subscribe("")
	defer unsubscribe()

	hub.BadgeUnlocked(model.Badge{ID: "brave-heart"})
	if ev := next(t, events); ev.Type != EventBadgeShow {
		t.Fatalf("expected show, got %s", ev.Type)
	}
	if ev := next(t, events); ev.Type != EventBadgeHide {
		t.Fatalf("expected hide, got %s", ev.Type)
	}
	deadline := time.Now().Add(time.Second)
	for clearer.badges.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if clearer.badges.Load() != 1 {
		t.Fatalf("expected recent badge cleared once, got %d", clearer.badges.Load())
	}
}

func TestDismissAffirmationCancelsClear(t *testing.T) {
	hub := NewHub(fastTimings(), logger.Nop())
	defer hub.Close()
	clearer := &countingClearer{}
	hub.SetClearer(clearer)
	events, unsubscribe := hub.Subscribe("")
	defer unsubscribe()

	hub.AffirmationTriggered("You are enough")
	if ev := next(t, events); ev.Type != EventAffirmationShow || ev.Payload != "You are enough" {
		t.Fatalf("unexpected event %+v", ev)
	}
	hub.DismissAffirmation()
	if ev := next(t, events); ev.Type != EventAffirmationHide {
		t.Fatalf("expected hide, got %s", ev.Type)
	}
	time.Sleep(40 * time.Millisecond)
	if clearer.affirmations.Load() != 0 {
		t.Fatal("dismissed affirmation should not be cleared by the timer")
	}
}

func TestCloseDisconnectsSubscribers(t *testing.T) {
	hub := NewHub(fastTimings(), logger.Nop())
	events, unsubscribe := hub.Subscribe("")
	hub.Close()
	if _, ok := <-events; ok {
		t.Fatal("expected closed channel")
	}
	unsubscribe()
}
