// Package gamification owns the seeds / streak / badge / quest state. The
// transitions are the pure reducers in reducer.go; Service serializes them
// and persists every new snapshot.
package gamification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/logger"
	model "github.com/zhouzirui/whispers/backend/internal/model/gamification"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

// DefaultKey is the storage slot of the gamification state.
const DefaultKey = "mindful-reflect-gamification"

var (
	ErrBadgeNotFound     = errors.New("badge not found")
	ErrQuestNotFound     = errors.New("quest not found")
	ErrMilestoneNotFound = errors.New("milestone not found")
	ErrInvalidAmount     = errors.New("seed amount must be positive")
)

// Notifier receives the events the presentation layer turns into toasts.
type Notifier interface {
	BadgeUnlocked(badge model.Badge)
	AffirmationTriggered(message string)
}

// Options tunes a Service.
type Options struct {
	Key            string
	ResetOnCorrupt bool
	Clock          func() time.Time
}

// Service serializes reducer transitions over the shared state.
type Service struct {
	mu       sync.Mutex
	store    store.Store
	key      string
	log      *logger.Logger
	now      func() time.Time
	state    model.State
	notifier Notifier
}

// NewService loads the persisted state or starts from the initial one.
func NewService(ctx context.Context, st store.Store, log *logger.Logger, opts Options) (*Service, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	s := &Service{
		store: st,
		key:   opts.Key,
		log:   log.With("service", "GamificationService"),
		now:   opts.Clock,
	}

	rec, err := st.Get(ctx, s.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s, s.apply(ctx, func(state model.State) (model.State, error) { return state, nil })
	case err != nil && !errors.Is(err, store.ErrCorrupt):
		return nil, fmt.Errorf("load gamification state: %w", err)
	}

	if err == nil {
		state, decodeErr := decodeState(rec.Value)
		if decodeErr == nil {
			s.state = state
			return s, nil
		}
		err = decodeErr
	}

	if !opts.ResetOnCorrupt {
		return nil, fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.key, err)
	}
	s.log.Warn("gamification state is corrupt, resetting", "key", s.key, "error", err)
	if err := st.Delete(ctx, s.key); err != nil {
		return nil, err
	}
	return s, s.apply(ctx, func(state model.State) (model.State, error) { return state, nil })
}

// SetNotifier attaches the toast notifier. It may be nil.
func (s *Service) SetNotifier(n Notifier) {
	s.mu.Lock()
	s.notifier = n
	s.mu.Unlock()
}

func decodeState(raw []byte) (model.State, error) {
	var state model.State
	if err := json.Unmarshal(raw, &state); err != nil {
		return model.State{}, err
	}
	if len(state.Badges) == 0 {
		return model.State{}, fmt.Errorf("badge catalog missing")
	}
	if state.ActiveQuests == nil {
		state.ActiveQuests = []model.Quest{}
	}
	if state.CompletedQuests == nil {
		state.CompletedQuests = []model.Quest{}
	}
	if state.ComfortItems == nil {
		state.ComfortItems = []string{}
	}
	return state, nil
}

// apply runs fn against the stored state inside a store transaction.
// Callers hold s.mu or are in construction.
func (s *Service) apply(ctx context.Context, fn func(model.State) (model.State, error)) error {
	var next model.State
	_, err := store.Update(ctx, s.store, s.key, func(current []byte) ([]byte, error) {
		state := model.Initial(s.now())
		if current != nil {
			decoded, err := decodeState(current)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
			}
			state = decoded
		}
		updated, err := fn(state)
		if err != nil {
			return nil, err
		}
		next = updated
		return json.Marshal(updated)
	})
	if err != nil {
		return err
	}
	s.state = next
	return nil
}

// State returns the current snapshot.
func (s *Service) State() model.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// AddSeeds credits amount seeds. reason is only logged.
func (s *Service) AddSeeds(ctx context.Context, amount int, reason string) (model.State, error) {
	if amount <= 0 {
		return model.State{}, ErrInvalidAmount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.apply(ctx, func(state model.State) (model.State, error) {
		return AddSeeds(state, amount), nil
	})
	if err != nil {
		return model.State{}, err
	}
	s.log.Debug("seeds added", "amount", amount, "reason", reason, "total", s.state.TotalSeeds)
	return s.state, nil
}

// UnlockBadge unlocks id once. The bool reports whether this call did the
// unlocking; repeated calls are no-ops.
func (s *Service) UnlockBadge(ctx context.Context, id string) (model.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.state.FindBadge(id); !ok {
		return s.state, false, fmt.Errorf("%w: %s", ErrBadgeNotFound, id)
	}

	var unlocked bool
	err := s.apply(ctx, func(state model.State) (model.State, error) {
		next, ok := UnlockBadge(state, id, s.now())
		unlocked = ok
		return next, nil
	})
	if err != nil {
		return model.State{}, false, err
	}

	if unlocked {
		s.log.Info("badge unlocked", "badge", id)
		if s.notifier != nil && s.state.RecentBadge != nil {
			s.notifier.BadgeUnlocked(*s.state.RecentBadge)
		}
	}
	return s.state, unlocked, nil
}

// UpdateQuestProgress completes one milestone of an active quest.
func (s *Service) UpdateQuestProgress(ctx context.Context, questID, milestoneID string) (model.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quest, ok := s.state.FindQuest(questID)
	if !ok {
		return s.state, fmt.Errorf("%w: %s", ErrQuestNotFound, questID)
	}
	found := false
	for _, m := range quest.Milestones {
		if m.ID == milestoneID {
			found = true
			break
		}
	}
	if !found {
		return s.state, fmt.Errorf("%w: %s/%s", ErrMilestoneNotFound, questID, milestoneID)
	}

	var unlocked *model.Quest
	err := s.apply(ctx, func(state model.State) (model.State, error) {
		before, _ := state.FindQuest(questID)
		next := UpdateQuestProgress(state, questID, milestoneID)
		unlocked = nil
		if after, _ := next.FindQuest(questID); after.Completed && !before.Completed {
			next, unlocked = UnlockNextQuest(next)
		}
		return next, nil
	})
	if err != nil {
		return model.State{}, err
	}
	if q, _ := s.state.FindQuest(questID); q.Completed && !quest.Completed {
		s.log.Info("quest completed", "quest", questID)
	}
	if unlocked != nil {
		s.log.Info("quest unlocked", "quest", unlocked.ID)
	}
	return s.state, nil
}

// TriggerAffirmation stores message and notifies the presentation layer.
func (s *Service) TriggerAffirmation(ctx context.Context, message string) (model.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.apply(ctx, func(state model.State) (model.State, error) {
		return TriggerAffirmation(state, message), nil
	})
	if err != nil {
		return model.State{}, err
	}
	if s.notifier != nil {
		s.notifier.AffirmationTriggered(message)
	}
	return s.state, nil
}

// ClearAffirmation consumes the affirmation slot.
func (s *Service) ClearAffirmation(ctx context.Context) (model.State, error) {
	return s.simple(ctx, ClearAffirmation)
}

// ClearRecentBadge consumes the recent-badge slot.
func (s *Service) ClearRecentBadge(ctx context.Context) (model.State, error) {
	return s.simple(ctx, ClearRecentBadge)
}

// GiveComfortItem appends a comfort item.
func (s *Service) GiveComfortItem(ctx context.Context, item string) (model.State, error) {
	return s.simple(ctx, func(state model.State) model.State {
		return GiveComfortItem(state, item)
	})
}

// CheckDailyReset rolls the daily counters over on a new calendar day.
func (s *Service) CheckDailyReset(ctx context.Context) (model.State, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reset bool
	err := s.apply(ctx, func(state model.State) (model.State, error) {
		next, ok := CheckDailyReset(state, s.now())
		reset = ok
		return next, nil
	})
	if err != nil {
		return model.State{}, false, err
	}
	if reset {
		s.log.Info("daily reset", "streak", s.state.ReflectionStreak)
	}
	return s.state, reset, nil
}

func (s *Service) simple(ctx context.Context, fn func(model.State) model.State) (model.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.apply(ctx, func(state model.State) (model.State, error) {
		return fn(state), nil
	})
	if err != nil {
		return model.State{}, err
	}
	return s.state, nil
}
