// Package app 根据配置组装存储、服务与通知中心。
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/config"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/model/persona"
	"github.com/zhouzirui/whispers/backend/internal/service/ai"
	chatService "github.com/zhouzirui/whispers/backend/internal/service/chat"
	companionService "github.com/zhouzirui/whispers/backend/internal/service/companion"
	emotionService "github.com/zhouzirui/whispers/backend/internal/service/emotion"
	gamificationService "github.com/zhouzirui/whispers/backend/internal/service/gamification"
	journalService "github.com/zhouzirui/whispers/backend/internal/service/journal"
	memoryService "github.com/zhouzirui/whispers/backend/internal/service/memory"
	"github.com/zhouzirui/whispers/backend/internal/service/notify"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

// App holds every long-lived component.
type App struct {
	Config    config.Config
	Store     store.Store
	Personas  persona.Store
	Chat      *chatService.Service
	Memory    *memoryService.Service
	Game      *gamificationService.Service
	Journal   *journalService.Service
	Emotion   *emotionService.Service
	Responder ai.Responder
	Companion *companionService.Service
	Hub       *notify.Hub
}

type options struct {
	store     store.Store
	responder ai.Responder
	clock     func() time.Time
}

// Option customizes New.
type Option func(*options)

// WithStore uses st instead of opening the configured driver.
func WithStore(st store.Store) Option {
	return func(o *options) { o.store = st }
}

// WithResponder replaces the configured responder.
func WithResponder(r ai.Responder) Option {
	return func(o *options) { o.responder = r }
}

// WithClock sets the time source of the persisted services.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.clock = now }
}

// New builds the application from cfg.
func New(ctx context.Context, cfg config.Config, log *logger.Logger, opts ...Option) (*App, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	st := o.store
	if st == nil {
		opened, err := store.Open(ctx, cfg.Store.Driver, cfg.Store.DSN)
		if err != nil {
			return nil, fmt.Errorf("open %s store: %w", cfg.Store.Driver, err)
		}
		st = opened
	}
	log.Info("store ready", "driver", cfg.Store.Driver)

	a := &App{Config: cfg, Store: st, Personas: persona.NewMemoryStore(persona.Seed())}
	if err := a.build(ctx, log, o); err != nil {
		_ = st.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) build(ctx context.Context, log *logger.Logger, o options) error {
	cfg := a.Config
	var err error

	a.Memory, err = memoryService.NewService(ctx, a.Store, log, memoryService.Options{
		Key: cfg.Store.Key, ResetOnCorrupt: cfg.Store.ResetOnCorrupt, Clock: o.clock,
	})
	if err != nil {
		return fmt.Errorf("memory service: %w", err)
	}
	a.Game, err = gamificationService.NewService(ctx, a.Store, log, gamificationService.Options{
		Key: cfg.Store.GamificationKey, ResetOnCorrupt: cfg.Store.ResetOnCorrupt, Clock: o.clock,
	})
	if err != nil {
		return fmt.Errorf("gamification service: %w", err)
	}
	a.Journal, err = journalService.NewService(ctx, a.Store, log, journalService.Options{
		Key: cfg.Store.JournalKey, Threshold: cfg.Presentation.JournalThreshold,
		ResetOnCorrupt: cfg.Store.ResetOnCorrupt, Clock: o.clock,
	})
	if err != nil {
		return fmt.Errorf("journal service: %w", err)
	}
	a.Chat = chatService.NewService(a.Personas, cfg.Companion.DefaultPersona)
	if o.clock != nil {
		clock := o.clock
		a.Chat.SetClock(func() time.Time { return clock().UTC() })
	}

	if err := a.buildResponder(ctx, log, o.responder); err != nil {
		return err
	}

	p := cfg.Presentation
	a.Hub = notify.NewHub(notify.Timings{
		TypingDelay:      p.TypingDelay.Duration,
		BadgeToast:       p.BadgeToast.Duration,
		BadgeFade:        p.BadgeFade.Duration,
		AffirmationToast: p.AffirmationToast.Duration,
		AffirmationFade:  p.AffirmationFade.Duration,
	}, log)
	a.Hub.SetClearer(a.Game)
	a.Game.SetNotifier(a.Hub)

	a.Companion = companionService.NewService(companionService.Deps{
		Chat:       a.Chat,
		Memory:     a.Memory,
		Game:       a.Game,
		Journal:    a.Journal,
		Responder:  a.Responder,
		Classifier: a.Emotion,
		Presenter:  a.Hub,
	}, log)
	return nil
}

// buildResponder 按配置选择回复来源，情绪服务与其共用同一个模型。
func (a *App) buildResponder(ctx context.Context, log *logger.Logger, override ai.Responder) error {
	cfg := a.Config

	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			return fmt.Errorf("create chat model: %w", err)
		}
		a.Emotion, err = emotionService.NewService(ctx, chatModel, emotionService.Config{Enabled: cfg.AI.EmotionLLMEnabled}, log)
		if err != nil {
			return err
		}
		if override == nil && cfg.Responder.Kind == "ark" {
			override, err = ai.NewArkResponder(ctx, chatModel, a.Personas, a.Emotion, log)
			if err != nil {
				return err
			}
		}
	} else {
		var err error
		a.Emotion, err = emotionService.NewService(ctx, nil, emotionService.Config{}, log)
		if err != nil {
			return err
		}
	}

	if override != nil {
		a.Responder = override
		return nil
	}

	switch cfg.Responder.Kind {
	case "", "endpoint":
		a.Responder = ai.NewEndpointResponder(cfg.Responder.EndpointURL, cfg.Responder.Timeout.Duration, log)
	case "openai":
		r, err := ai.NewOpenAIResponder(cfg.OpenAI.APIKey, cfg.OpenAI.Model, cfg.OpenAI.BaseURL, a.Personas, a.Emotion, log)
		if err != nil {
			return err
		}
		a.Responder = r
	case "ark":
		return errors.New("responder kind ark requires ark credentials")
	default:
		return fmt.Errorf("unknown responder kind %q", cfg.Responder.Kind)
	}
	log.Info("responder ready", "kind", cfg.Responder.Kind)
	return nil
}

// Close stops pending timers and releases the store.
func (a *App) Close() error {
	if a.Hub != nil {
		a.Hub.Close()
	}
	return a.Store.Close()
}
