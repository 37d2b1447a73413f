package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	analysis "github.com/zhouzirui/whispers/backend/internal/analysis/emotion"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	model "github.com/zhouzirui/whispers/backend/internal/model/journal"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

const (
	DefaultKey       = "mindful-reflect-journal"
	DefaultThreshold = 50
	descriptionLen   = 120
)

var ErrMemoryNotFound = errors.New("journal memory not found")

// 每种情绪对应的日记标题。
var titles = map[analysis.Label]string{
	analysis.Joy:        "A Bright Moment",
	analysis.Wonder:     "A Moment of Wonder",
	analysis.Curiosity:  "A Curious Thought",
	analysis.Reflection: "A Quiet Reflection",
}

// Options tunes a Service.
type Options struct {
	Key            string
	Threshold      int
	ResetOnCorrupt bool
	Clock          func() time.Time
}

// Service keeps the memory journal.
type Service struct {
	mu        sync.Mutex
	store     store.Store
	key       string
	threshold int
	log       *logger.Logger
	now       func() time.Time
	memories  []model.Memory
}

// Seed returns the journal a new player starts with.
func Seed(now time.Time) []model.Memory {
	return []model.Memory{{
		ID:              "m1",
		Title:           "First Meeting",
		Description:     "The moment we first connected in the dream world.",
		Emotion:         string(analysis.Wonder),
		RelatedMessages: []string{},
		Timestamp:       now,
	}}
}

// NewService loads the persisted journal or seeds it.
func NewService(ctx context.Context, st store.Store, log *logger.Logger, opts Options) (*Service, error) {
	if opts.Key == "" {
		opts.Key = DefaultKey
	}
	if opts.Threshold <= 0 {
		opts.Threshold = DefaultThreshold
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	s := &Service{
		store:     st,
		key:       opts.Key,
		threshold: opts.Threshold,
		log:       log.With("service", "JournalService"),
		now:       opts.Clock,
	}
	if err := s.load(ctx, opts.ResetOnCorrupt); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) load(ctx context.Context, resetOnCorrupt bool) error {
	rec, err := s.store.Get(ctx, s.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.mutate(ctx, func(*[]model.Memory) error { return nil })
	case err != nil && !errors.Is(err, store.ErrCorrupt):
		return fmt.Errorf("load journal: %w", err)
	}
	if err == nil {
		memories, decodeErr := decode(rec.Value)
		if decodeErr == nil {
			s.memories = memories
			return nil
		}
		err = decodeErr
	}
	if !resetOnCorrupt {
		return fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.key, err)
	}
	s.log.Warn("journal is corrupt, resetting", "key", s.key, "error", err)
	if delErr := s.store.Delete(ctx, s.key); delErr != nil {
		return fmt.Errorf("reset journal: %w", delErr)
	}
	return s.mutate(ctx, func(*[]model.Memory) error { return nil })
}

func decode(raw []byte) ([]model.Memory, error) {
	var memories []model.Memory
	if err := json.Unmarshal(raw, &memories); err != nil {
		return nil, err
	}
	for i, m := range memories {
		if m.ID == "" {
			return nil, fmt.Errorf("journal entry %d has no id", i)
		}
		if m.RelatedMessages == nil {
			memories[i].RelatedMessages = []string{}
		}
	}
	return memories, nil
}

func (s *Service) mutate(ctx context.Context, fn func(*[]model.Memory) error) error {
	var updated []model.Memory
	_, err := store.Update(ctx, s.store, s.key, func(current []byte) ([]byte, error) {
		memories := Seed(s.now())
		if current != nil {
			decoded, err := decode(current)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
			}
			memories = decoded
		}
		if err := fn(&memories); err != nil {
			return nil, err
		}
		updated = memories
		return json.Marshal(memories)
	})
	if err != nil {
		return err
	}
	s.memories = updated
	return nil
}

// Threshold 返回触发日记记录的最小字数。
func (s *Service) Threshold() int {
	return s.threshold
}

// Capture records a journal memory when text is longer than the threshold.
// The bool reports whether a memory was created.
func (s *Service) Capture(ctx context.Context, text string, label analysis.Label, related ...string) (model.Memory, bool, error) {
	trimmed := strings.TrimSpace(text)
	if utf8.RuneCountInString(trimmed) <= s.threshold {
		return model.Memory{}, false, nil
	}
	if _, ok := analysis.ParseLabel(string(label)); !ok {
		label = analysis.Default
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	memory := model.Memory{
		ID:              "m-" + uuid.NewString(),
		Title:           titles[label],
		Description:     describe(trimmed),
		Emotion:         string(label),
		RelatedMessages: append([]string{}, related...),
		Timestamp:       s.now(),
	}
	if err := s.mutate(ctx, func(m *[]model.Memory) error {
		*m = append(*m, memory)
		return nil
	}); err != nil {
		return model.Memory{}, false, err
	}
	s.log.Debug("journal memory captured", "id", memory.ID, "emotion", memory.Emotion)
	return memory, true, nil
}

// List returns the journal, oldest first.
func (s *Service) List() []model.Memory {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Memory, len(s.memories))
	for i, m := range s.memories {
		m.RelatedMessages = append([]string{}, m.RelatedMessages...)
		out[i] = m
	}
	return out
}

// Find looks a memory up by id.
func (s *Service) Find(id string) (model.Memory, error) {
	for _, m := range s.List() {
		if m.ID == id {
			return m, nil
		}
	}
	return model.Memory{}, ErrMemoryNotFound
}

// Reflect 生成选中某条日记后陪伴者的回应。
func Reflect(m model.Memory) string {
	feeling := "a deep contemplation"
	switch analysis.Label(m.Emotion) {
	case analysis.Joy:
		feeling = "a warm embrace"
	case analysis.Wonder:
		feeling = "a surge of curiosity"
	}
	return fmt.Sprintf("I see you're reflecting on '%s'. That moment felt like %s. Would you like to explore similar experiences?", m.Title, feeling)
}

func describe(text string) string {
	if utf8.RuneCountInString(text) <= descriptionLen {
		return text
	}
	return string([]rune(text)[:descriptionLen]) + "..."
}
