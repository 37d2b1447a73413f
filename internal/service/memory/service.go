// Package memory maintains the short-term conversation history, the
// cumulative long-term profile and the closed-session list, and persists
// all three as one document.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/zhouzirui/whispers/backend/internal/logger"
	model "github.com/zhouzirui/whispers/backend/internal/model/memory"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

// DefaultKey is the storage slot of the memory document.
const DefaultKey = "mindful-reflect-memory"

const (
	historyEntries    = 6
	contextExchanges  = 4
	contextInsights   = 5
	contextThemes     = 3
	contextSessions   = 2
	profileDetails    = 2
	profileStrategies = 3
	keyTopicLimit     = 5
	breakthroughLimit = 3
	breakthroughLen   = 100
	notesInsightLimit = 3
	minutesPerEntry   = 2
)

// Options tunes a Service.
type Options struct {
	Key            string
	ResetOnCorrupt bool
	Clock          func() time.Time
}

// Service is the memory aggregation component. All methods are safe for
// concurrent use.
type Service struct {
	mu        sync.Mutex
	store     store.Store
	key       string
	log       *logger.Logger
	now       func() time.Time
	doc       model.Document
	sessionID string
}

// NewService loads the persisted document (or creates an empty one) and
// opens a fresh session.
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
		log:   log.With("service", "MemoryService"),
		now:   opts.Clock,
	}

	if err := s.load(ctx, opts.ResetOnCorrupt); err != nil {
		return nil, err
	}
	s.sessionID = s.newSessionID()
	return s, nil
}

func (s *Service) load(ctx context.Context, resetOnCorrupt bool) error {
	rec, err := s.store.Get(ctx, s.key)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return s.mutate(ctx, func(*model.Document) error { return nil })
	case err != nil && !errors.Is(err, store.ErrCorrupt):
		return fmt.Errorf("load memory document: %w", err)
	}

	if err == nil {
		doc, decodeErr := model.DecodeDocument(rec.Value, s.now())
		if decodeErr == nil {
			s.doc = doc
			s.log.Info("memory document loaded", "entries", len(doc.ShortTerm), "sessions", len(doc.Sessions))
			return nil
		}
		err = decodeErr
	}

	if !resetOnCorrupt {
		return fmt.Errorf("%w: %s: %v", store.ErrCorrupt, s.key, err)
	}
	s.log.Warn("memory document is corrupt, resetting to defaults", "key", s.key, "error", err)
	if delErr := s.store.Delete(ctx, s.key); delErr != nil {
		return fmt.Errorf("reset memory document: %w", delErr)
	}
	return s.mutate(ctx, func(*model.Document) error { return nil })
}

// mutate applies fn inside a store transaction and refreshes the cache.
// Callers hold s.mu or are in construction.
func (s *Service) mutate(ctx context.Context, fn func(doc *model.Document) error) error {
	var updated model.Document
	_, err := store.Update(ctx, s.store, s.key, func(current []byte) ([]byte, error) {
		doc := model.Document{LongTerm: model.NewLongTermSummary(s.now())}
		if current != nil {
			decoded, err := model.DecodeDocument(current, s.now())
			if err != nil {
				return nil, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
			}
			doc = decoded
		}
		if err := fn(&doc); err != nil {
			return nil, err
		}
		updated = doc
		return doc.Encode()
	})
	if err != nil {
		return err
	}
	s.doc = updated.Clone()
	return nil
}

func (s *Service) newSessionID() string {
	return fmt.Sprintf("session-%d-%s", s.now().UnixMilli(), uuid.NewString()[:8])
}

// CurrentSessionID returns the id stamped on new entries.
func (s *Service) CurrentSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessionID
}

// AddEntry appends an exchange to the current session and merges its
// patterns into the long-term summary. Inputs are stored as given.
func (s *Service) AddEntry(ctx context.Context, userMessage, therapistResponse, emotion, tag string) (model.ShortTermEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	entry := model.ShortTermEntry{
		ID:                "stm-" + uuid.NewString(),
		Timestamp:         now,
		UserMessage:       userMessage,
		TherapistResponse: therapistResponse,
		Emotion:           emotion,
		MemoryTag:         tag,
		SessionID:         s.sessionID,
	}

	err := s.mutate(ctx, func(doc *model.Document) error {
		doc.ShortTerm = append(doc.ShortTerm, entry)
		doc.LongTerm = AnalyzePatterns(doc.LongTerm, entry, now)
		return nil
	})
	if err != nil {
		return model.ShortTermEntry{}, fmt.Errorf("add memory entry: %w", err)
	}

	s.log.Debug("memory entry added", "entry", entry.ID, "emotion", emotion, "tag", tag)
	return entry, nil
}

// currentEntries returns the entries of the open session. Callers hold s.mu.
func (s *Service) currentEntries() []model.ShortTermEntry {
	out := make([]model.ShortTermEntry, 0, len(s.doc.ShortTerm))
	for _, e := range s.doc.ShortTerm {
		if e.SessionID == s.sessionID {
			out = append(out, e)
		}
	}
	return out
}

// ConversationHistory returns the last six exchanges of the current
// session as alternating "User:" / "Companion:" lines.
func (s *Service) ConversationHistory() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := lastN(s.currentEntries(), historyEntries)
	lines := make([]string, 0, len(entries)*2)
	for _, e := range entries {
		lines = append(lines, "User: "+e.UserMessage, "Companion: "+e.TherapistResponse)
	}
	return lines
}

// ConversationContext assembles the bundle sent with every remote call.
func (s *Service) ConversationContext() model.ConversationContext {
	s.mu.Lock()
	defer s.mu.Unlock()

	recent := lastN(s.currentEntries(), contextExchanges)
	conversations := make([]string, 0, len(recent))
	for _, e := range recent {
		conversations = append(conversations, fmt.Sprintf("User: %s\nCompanion: %s", e.UserMessage, e.TherapistResponse))
	}

	ltm := s.doc.LongTerm
	profile := make([]string, 0, 3)
	if len(ltm.PatientProfile.CommonConcerns) > 0 {
		profile = append(profile, "Common concerns: "+strings.Join(ltm.PatientProfile.CommonConcerns, ", "))
	}
	if len(ltm.PatientProfile.PersonalDetails) > 0 {
		profile = append(profile, "Personal context: "+strings.Join(lastN(ltm.PatientProfile.PersonalDetails, profileDetails), "; "))
	}
	if len(ltm.CopingStrategies) > 0 {
		profile = append(profile, "Previously discussed coping strategies: "+strings.Join(lastN(ltm.CopingStrategies, profileStrategies), "; "))
	}

	sessions := lastN(s.doc.Sessions, contextSessions)
	previous := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		summary := sess.SessionSummary
		if summary == "" {
			summary = strings.Join(sess.KeyTopics, ", ")
		}
		previous = append(previous, fmt.Sprintf("%s: %s (%s)", sess.Date.Format(dateLayout), summary, sess.EmotionalTone))
	}

	return model.ConversationContext{
		RecentConversations: conversations,
		PatientProfile:      strings.Join(profile, "\n"),
		KeyInsights:         append([]string{}, lastN(ltm.PatientInsights, contextInsights)...),
		EmotionalPatterns:   strings.Join(lastN(ltm.RecurringThemes, contextThemes), "; "),
		PreviousSessions:    previous,
	}
}

// EndCurrentSession closes the open session. When it has entries a
// TherapySession is recorded and returned; a new session id is issued
// in every case.
func (s *Service) EndCurrentSession(ctx context.Context) (*model.TherapySession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.currentEntries()
	var created *model.TherapySession

	if len(entries) > 0 {
		session := summarizeSession(s.sessionID, entries, s.now())
		err := s.mutate(ctx, func(doc *model.Document) error {
			doc.Sessions = append(doc.Sessions, session)
			doc.LongTerm.SessionCount++
			doc.LongTerm.UpdatedAt = session.Date
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("end session: %w", err)
		}
		created = &session
		s.log.Info("session closed", "session", session.ID, "messages", session.MessageCount, "tone", session.EmotionalTone)
	}

	s.sessionID = s.newSessionID()
	return created, nil
}

func summarizeSession(id string, entries []model.ShortTermEntry, now time.Time) model.TherapySession {
	topics := make([]string, 0, keyTopicLimit)
	seen := make(map[string]bool)
	for _, e := range entries {
		if seen[e.MemoryTag] {
			continue
		}
		seen[e.MemoryTag] = true
		topics = append(topics, e.MemoryTag)
	}
	if len(topics) > keyTopicLimit {
		topics = topics[:keyTopicLimit]
	}

	breakthroughs := make([]string, 0, breakthroughLimit)
	for _, e := range entries {
		if len(breakthroughs) == breakthroughLimit {
			break
		}
		if runeLen(e.UserMessage) > breakthroughLen {
			breakthroughs = append(breakthroughs, e.MemoryTag)
		}
	}

	tone := MostCommonEmotion(entries)
	return model.TherapySession{
		ID:             id,
		Date:           now,
		Duration:       len(entries) * minutesPerEntry,
		KeyTopics:      topics,
		EmotionalTone:  tone,
		Breakthroughs:  breakthroughs,
		ActionItems:    []string{},
		SessionSummary: fmt.Sprintf("Discussed %s. Emotional tone: %s", strings.ToLower(strings.Join(topics, ", ")), tone),
		MessageCount:   len(entries),
	}
}

// TherapyNotes returns a read-only snapshot for the notes view.
func (s *Service) TherapyNotes() model.TherapyNotes {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.currentEntries()
	insights := make([]string, 0, len(entries))
	for _, e := range entries {
		if runeLen(e.UserMessage) > insightMinLength {
			insights = append(insights, e.MemoryTag)
		}
	}

	notes := model.TherapyNotes{
		CurrentSession: model.CurrentSessionNotes{
			MessagesCount:   len(entries),
			DominantEmotion: MostCommonEmotion(entries),
			KeyInsights:     append([]string{}, lastN(insights, notesInsightLimit)...),
		},
		LongTermPatterns: s.doc.LongTerm.Clone(),
		TotalSessions:    len(s.doc.Sessions),
	}
	if n := len(s.doc.Sessions); n > 0 {
		recent := s.doc.Sessions[n-1]
		notes.RecentSession = &recent
	}
	return notes
}

// Snapshot returns a deep copy of the cached document.
func (s *Service) Snapshot() model.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc.Clone()
}

// ShortTerm returns every stored exchange.
func (s *Service) ShortTerm() []model.ShortTermEntry {
	return s.Snapshot().ShortTerm
}

// Sessions returns the closed sessions in creation order.
func (s *Service) Sessions() []model.TherapySession {
	return s.Snapshot().Sessions
}

// LongTerm returns the cumulative summary.
func (s *Service) LongTerm() model.LongTermSummary {
	return s.Snapshot().LongTerm
}

func lastN[T any](items []T, n int) []T {
	if len(items) <= n {
		return items
	}
	return items[len(items)-n:]
}
