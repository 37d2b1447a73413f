// Package companion runs one chat exchange end to end: transcript, reply,
// memory, journal and rewards.
package companion

import (
	"context"
	"errors"
	"fmt"
	"strings"

	analysis "github.com/zhouzirui/whispers/backend/internal/analysis/emotion"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/model/chat"
	gmodel "github.com/zhouzirui/whispers/backend/internal/model/gamification"
	jmodel "github.com/zhouzirui/whispers/backend/internal/model/journal"
	mmodel "github.com/zhouzirui/whispers/backend/internal/model/memory"
	"github.com/zhouzirui/whispers/backend/internal/service/ai"
	chatsvc "github.com/zhouzirui/whispers/backend/internal/service/chat"
	gamesvc "github.com/zhouzirui/whispers/backend/internal/service/gamification"
	journalsvc "github.com/zhouzirui/whispers/backend/internal/service/journal"
	memsvc "github.com/zhouzirui/whispers/backend/internal/service/memory"
)

var ErrEmptyMessage = errors.New("message text is empty")

// Classifier 为玩家输入打上情绪标签。
type Classifier interface {
	Label(ctx context.Context, text string) analysis.Label
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(text string) analysis.Label

func (f ClassifierFunc) Label(_ context.Context, text string) analysis.Label { return f(text) }

// Presenter receives the events shown to the player.
type Presenter interface {
	DeliverReply(conversationID string, msg chat.Message)
	MemoryCaptured(conversationID string, m jmodel.Memory)
}

// Deps groups the collaborating services.
type Deps struct {
	Chat       *chatsvc.Service
	Memory     *memsvc.Service
	Game       *gamesvc.Service
	Journal    *journalsvc.Service
	Responder  ai.Responder
	Classifier Classifier
	Presenter  Presenter
}

// Service orchestrates exchanges.
type Service struct {
	chat      *chatsvc.Service
	memory    *memsvc.Service
	game      *gamesvc.Service
	journal   *journalsvc.Service
	responder ai.Responder
	classify  Classifier
	presenter Presenter
	log       *logger.Logger
}

func NewService(deps Deps, log *logger.Logger) *Service {
	classify := deps.Classifier
	if classify == nil {
		classify = ClassifierFunc(analysis.Classify)
	}
	return &Service{
		chat:      deps.Chat,
		memory:    deps.Memory,
		game:      deps.Game,
		journal:   deps.Journal,
		responder: deps.Responder,
		classify:  classify,
		presenter: deps.Presenter,
		log:       log.With("service", "CompanionService"),
	}
}

// Result describes everything one exchange produced.
type Result struct {
	ConversationID   string                `json:"conversationId"`
	PlayerMessage    chat.Message          `json:"playerMessage"`
	CompanionMessage chat.Message          `json:"companionMessage"`
	Mood             analysis.Label        `json:"mood"`
	Emotion          string                `json:"emotion"`
	MemoryTag        string                `json:"memoryTag"`
	Fallback         bool                  `json:"fallback"`
	Entry            mmodel.ShortTermEntry `json:"entry"`
	JournalMemory    *jmodel.Memory        `json:"journalMemory,omitempty"`
	SeedsEarned      int                   `json:"seedsEarned"`
	NewBadges        []string              `json:"newBadges"`
	Affirmation      string                `json:"affirmation,omitempty"`
	ComfortItem      string                `json:"comfortItem,omitempty"`
	State            gmodel.State          `json:"state"`
}

// Send runs one exchange for the player's text.
func (s *Service) Send(ctx context.Context, conversationID, text string) (Result, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Result{}, ErrEmptyMessage
	}
	conv, err := s.chat.Conversation(ctx, conversationID)
	if err != nil {
		return Result{}, err
	}

	state, _, err := s.game.CheckDailyReset(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("daily check-in: %w", err)
	}

	player, err := s.chat.AppendMessage(ctx, conv.ID, chat.SenderPlayer, text)
	if err != nil {
		return Result{}, err
	}
	mood := s.classify.Label(ctx, text)

	reply := s.responder.Respond(ctx, ai.Request{
		UserInput:      text,
		History:        s.memory.ConversationHistory(),
		PatientContext: ai.NewPatientContext(s.memory.ConversationContext()),
		PersonaID:      conv.PersonaID,
	})

	// 记忆写入失败时只保留玩家消息，陪伴者回复不进入对话记录。
	entry, err := s.memory.AddEntry(ctx, text, reply.Response, reply.Emotion, reply.MemoryTag)
	if err != nil {
		return Result{}, fmt.Errorf("record exchange: %w", err)
	}
	companion, err := s.chat.AppendMessage(ctx, conv.ID, chat.SenderCompanion, reply.Response)
	if err != nil {
		return Result{}, err
	}

	res := Result{
		ConversationID:   conv.ID,
		PlayerMessage:    player,
		CompanionMessage: companion,
		Mood:             mood,
		Emotion:          reply.Emotion,
		MemoryTag:        reply.MemoryTag,
		Fallback:         reply.IsFallback(),
		Entry:            entry,
		NewBadges:        []string{},
	}

	if m, created, err := s.journal.Capture(ctx, text, mood, player.ID, companion.ID); err != nil {
		return Result{}, err
	} else if created {
		res.JournalMemory = &m
		if s.presenter != nil {
			s.presenter.MemoryCaptured(conv.ID, m)
		}
	}

	exchange := s.chat.Count(conv.ID, chat.SenderPlayer)
	if err := s.reward(ctx, Evaluate(text, state.ReflectionStreak, exchange), &res); err != nil {
		return Result{}, err
	}

	if s.presenter != nil {
		s.presenter.DeliverReply(conv.ID, companion)
	}
	s.log.Info("exchange completed",
		"conversation", conv.ID,
		"mood", mood,
		"fallback", res.Fallback,
		"seeds", res.SeedsEarned,
		"badges", len(res.NewBadges))
	return res, nil
}

func (s *Service) reward(ctx context.Context, r Rewards, res *Result) error {
	for _, grant := range r.Seeds {
		if _, err := s.game.AddSeeds(ctx, grant.Amount, grant.Reason); err != nil {
			return err
		}
		res.SeedsEarned += grant.Amount
	}
	for _, id := range r.Badges {
		_, unlocked, err := s.game.UnlockBadge(ctx, id)
		if err != nil {
			return err
		}
		if unlocked {
			res.NewBadges = append(res.NewBadges, id)
		}
	}
	for _, m := range r.Milestones {
		_, err := s.game.UpdateQuestProgress(ctx, m.QuestID, m.MilestoneID)
		if errors.Is(err, gamesvc.ErrQuestNotFound) {
			continue
		}
		if err != nil {
			return err
		}
	}
	if r.ComfortItem != "" {
		if _, err := s.game.GiveComfortItem(ctx, r.ComfortItem); err != nil {
			return err
		}
		res.ComfortItem = r.ComfortItem
	}
	if r.Affirmation != "" {
		if _, err := s.game.TriggerAffirmation(ctx, r.Affirmation); err != nil {
			return err
		}
		res.Affirmation = r.Affirmation
	}
	res.State = s.game.State()
	return nil
}

// SelectMemory answers the player picking a journal memory.
func (s *Service) SelectMemory(ctx context.Context, conversationID, memoryID string) (chat.Message, error) {
	if _, err := s.chat.Conversation(ctx, conversationID); err != nil {
		return chat.Message{}, err
	}
	m, err := s.journal.Find(memoryID)
	if err != nil {
		return chat.Message{}, err
	}
	msg, err := s.chat.AppendMessage(ctx, conversationID, chat.SenderCompanion, journalsvc.Reflect(m))
	if err != nil {
		return chat.Message{}, err
	}
	if s.presenter != nil {
		s.presenter.DeliverReply(conversationID, msg)
	}
	return msg, nil
}
