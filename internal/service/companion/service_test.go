package companion

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/model/chat"
	jmodel "github.com/zhouzirui/whispers/backend/internal/model/journal"
	"github.com/zhouzirui/whispers/backend/internal/model/persona"
	"github.com/zhouzirui/whispers/backend/internal/service/ai"
	chatsvc "github.com/zhouzirui/whispers/backend/internal/service/chat"
	gamesvc "github.com/zhouzirui/whispers/backend/internal/service/gamification"
	journalsvc "github.com/zhouzirui/whispers/backend/internal/service/journal"
	memsvc "github.com/zhouzirui/whispers/backend/internal/service/memory"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

type stubResponder struct {
	reply    ai.Reply
	requests []ai.Request
}

func (s *stubResponder) Respond(_ context.Context, req ai.Request) ai.Reply {
	s.requests = append(s.requests, req)
	return s.reply
}

type recordingPresenter struct {
	mu       sync.Mutex
	replies  []chat.Message
	memories []jmodel.Memory
}

func (p *recordingPresenter) DeliverReply(_ string, msg chat.Message) {
	p.mu.Lock()
	p.replies = append(p.replies, msg)
	p.mu.Unlock()
}

func (p *recordingPresenter) MemoryCaptured(_ string, m jmodel.Memory) {
	p.mu.Lock()
	p.memories = append(p.memories, m)
	p.mu.Unlock()
}

// flakyStore fails writes to failKey once armed.
type flakyStore struct {
	store.Store
	mu      sync.Mutex
	failKey string
}

func (s *flakyStore) arm(key string) {
	s.mu.Lock()
	s.failKey = key
	s.mu.Unlock()
}

func (s *flakyStore) Put(ctx context.Context, key string, value []byte, expectVersion int64) (int64, error) {
	s.mu.Lock()
	fail := s.failKey != "" && s.failKey == key
	s.mu.Unlock()
	if fail {
		return 0, errors.New("disk full")
	}
	return s.Store.Put(ctx, key, value, expectVersion)
}

type fixture struct {
	store     *flakyStore
	svc       *Service
	chat      *chatsvc.Service
	memory    *memsvc.Service
	game      *gamesvc.Service
	responder *stubResponder
	presenter *recordingPresenter
	convID    string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	now := time.Date(2026, 4, 7, 10, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	st := &flakyStore{Store: store.NewMemoryStore()}
	log := logger.Nop()

	chat := chatsvc.NewService(persona.NewMemoryStore(persona.Seed()), "")
	memory, err := memsvc.NewService(ctx, st, log, memsvc.Options{Clock: clock})
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	game, err := gamesvc.NewService(ctx, st, log, gamesvc.Options{Clock: clock})
	if err != nil {
		t.Fatalf("gamification: %v", err)
	}
	journal, err := journalsvc.NewService(ctx, st, log, journalsvc.Options{Clock: clock})
	if err != nil {
		t.Fatalf("journal: %v", err)
	}

	responder := &stubResponder{reply: ai.Reply{Response: "That sounds hard.", Emotion: "anxious", MemoryTag: "Work stress"}}
	presenter := &recordingPresenter{}
	svc := NewService(Deps{
		Chat: chat, Memory: memory, Game: game, Journal: journal,
		Responder: responder, Presenter: presenter,
	}, log)

	conv, _, err := chat.CreateConversation(ctx, "sage")
	if err != nil {
		t.Fatalf("conversation: %v", err)
	}
	return &fixture{store: st, svc: svc, chat: chat, memory: memory, game: game, responder: responder, presenter: presenter, convID: conv.ID}
}

func TestSendRejectsEmptyText(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Send(context.Background(), f.convID, "   "); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("expected ErrEmptyMessage, got %v", err)
	}
}

func TestSendUnknownConversation(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Send(context.Background(), "missing", "hi"); !errors.Is(err, chatsvc.ErrConversationNotFound) {
		t.Fatalf("expected ErrConversationNotFound, got %v", err)
	}
}

func TestSendConcernExchange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.Send(ctx, f.convID, "I feel anxious about work")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.CompanionMessage.Text != "That sounds hard." || res.Mood != "reflection" || res.Fallback {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.SeedsEarned != 5 || res.State.TotalSeeds != 20 {
		t.Fatalf("expected +5 seeds to 20, got earned=%d total=%d", res.SeedsEarned, res.State.TotalSeeds)
	}
	if len(res.NewBadges) != 1 || res.NewBadges[0] != "quiet-strength" {
		t.Fatalf("unexpected badges: %v", res.NewBadges)
	}
	quest, _ := res.State.FindQuest("forest-worry")
	if !quest.Milestones[0].Completed || quest.CurrentMilestone != 1 {
		t.Fatalf("expected name-worry completed: %+v", quest)
	}
	if res.JournalMemory != nil {
		t.Fatal("short message should not create a journal memory")
	}

	transcript, _ := f.chat.Transcript(ctx, f.convID)
	if len(transcript) != 3 {
		t.Fatalf("expected opening + 2 messages, got %d", len(transcript))
	}
	if got := f.memory.LongTerm().PatientProfile.CommonConcerns; len(got) != 1 || got[0] != "anxiety" {
		t.Fatalf("expected anxiety concern, got %v", got)
	}
	if len(f.presenter.replies) != 1 {
		t.Fatalf("expected one delivered reply, got %d", len(f.presenter.replies))
	}

	if _, err := f.svc.Send(ctx, f.convID, "still anxious"); err != nil {
		t.Fatalf("second send: %v", err)
	}
	req := f.responder.requests[1]
	if len(req.History) != 2 || !strings.HasPrefix(req.History[0], "User: I feel anxious") {
		t.Fatalf("history not forwarded: %v", req.History)
	}
	if !strings.Contains(req.PatientContext.Profile, "anxiety") || req.PersonaID != "sage" {
		t.Fatalf("context not forwarded: %+v", req)
	}
}

func TestSendLongShareCreatesJournalMemory(t *testing.T) {
	f := newFixture(t)
	text := "I have been feeling lonely since moving to the new city and I miss my old friends and our long evening walks"

	res, err := f.svc.Send(context.Background(), f.convID, text)
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if res.SeedsEarned != 15 || res.ComfortItem != "Soft Lantern" {
		t.Fatalf("unexpected rewards: %+v", res)
	}
	if res.JournalMemory == nil || len(f.presenter.memories) != 1 {
		t.Fatal("expected a journal memory")
	}
	if len(res.State.ComfortItems) != 1 {
		t.Fatalf("comfort item not stored: %v", res.State.ComfortItems)
	}
	quest, _ := res.State.FindQuest("forest-worry")
	if !quest.Milestones[1].Completed {
		t.Fatalf("expected understand-roots completed: %+v", quest.Milestones)
	}
}

func TestSendThirdExchangeTriggersAffirmation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	var res Result
	for i := 0; i < 3; i++ {
		var err error
		if res, err = f.svc.Send(ctx, f.convID, "hello"); err != nil {
			t.Fatalf("send %d: %v", i, err)
		}
	}
	if res.Affirmation == "" || res.State.LastAffirmation == nil {
		t.Fatalf("expected an affirmation on the third exchange: %+v", res)
	}
}

func TestSendFallbackReplyIsStored(t *testing.T) {
	f := newFixture(t)
	f.responder.reply = ai.FallbackReply()

	res, err := f.svc.Send(context.Background(), f.convID, "hi")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if !res.Fallback || res.Entry.MemoryTag != "connection_error" || res.Entry.Emotion != "neutral" {
		t.Fatalf("unexpected fallback result: %+v", res)
	}
}

func TestSelectMemory(t *testing.T) {
	f := newFixture(t)
	msg, err := f.svc.SelectMemory(context.Background(), f.convID, "m1")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	want := "I see you're reflecting on 'First Meeting'. That moment felt like a surge of curiosity. Would you like to explore similar experiences?"
	if msg.Text != want || msg.Sender != chat.SenderCompanion {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if _, err := f.svc.SelectMemory(context.Background(), f.convID, "nope"); !errors.Is(err, journalsvc.ErrMemoryNotFound) {
		t.Fatalf("expected ErrMemoryNotFound, got %v", err)
	}
}

func TestSendMemoryFailureKeepsOnlyPlayerMessage(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.arm(memsvc.DefaultKey)

	if _, err := f.svc.Send(ctx, f.convID, "hello"); err == nil {
		t.Fatal("expected the memory write failure to surface")
	}

	transcript, _ := f.chat.Transcript(ctx, f.convID)
	if len(transcript) != 2 || transcript[1].Sender != chat.SenderPlayer {
		t.Fatalf("expected opening line + player message only, got %+v", transcript)
	}
	if len(f.memory.ShortTerm()) != 0 {
		t.Fatal("no memory entry should be recorded")
	}
	if len(f.presenter.replies) != 0 {
		t.Fatal("no reply should be delivered")
	}
	if got := f.game.State().TotalSeeds; got != 15 {
		t.Fatalf("no rewards expected, got %d seeds", got)
	}
}

func TestSendGratitudeAdvancesSecondQuest(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, m := range []string{"name-worry", "understand-roots", "calm-clearing"} {
		if _, err := f.game.UpdateQuestProgress(ctx, "forest-worry", m); err != nil {
			t.Fatalf("UpdateQuestProgress %s: %v", m, err)
		}
	}

	res, err := f.svc.Send(ctx, f.convID, "I am grateful for my morning")
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	found := false
	for _, id := range res.NewBadges {
		if id == "inner-light" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected inner-light badge, got %v", res.NewBadges)
	}
	quest, ok := res.State.FindQuest("valley-shadows")
	if !ok {
		t.Fatal("valley-shadows should be active after forest-worry completes")
	}
	if !quest.Milestones[2].Completed {
		t.Fatalf("expected find-light completed: %+v", quest.Milestones)
	}
}
