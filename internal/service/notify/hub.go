// Package notify pushes presentation events (typing indicator, delayed
// companion replies, badge and affirmation toasts) to subscribers.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/model/chat"
	model "github.com/zhouzirui/whispers/backend/internal/model/gamification"
	journal "github.com/zhouzirui/whispers/backend/internal/model/journal"
)

// EventType 标识推送事件的种类。
type EventType string

const (
	EventTyping          EventType = "typing"
	EventMessage         EventType = "message"
	EventBadgeShow       EventType = "badge.show"
	EventBadgeHide       EventType = "badge.hide"
	EventAffirmationShow EventType = "affirmation.show"
	EventAffirmationHide EventType = "affirmation.hide"
	EventMemory          EventType = "memory"
)

const subscriberBuffer = 32

// Event is one pushed notification. Events without a conversation id are
// broadcast to every subscriber.
type Event struct {
	Type           EventType `json:"type"`
	ConversationID string    `json:"conversationId,omitempty"`
	Payload        any       `json:"payload,omitempty"`
	At             time.Time `json:"at"`
}

// Timings holds the presentation delays.
type Timings struct {
	TypingDelay      time.Duration
	BadgeToast       time.Duration
	BadgeFade        time.Duration
	AffirmationToast time.Duration
	AffirmationFade  time.Duration
}

// DefaultTimings mirrors the original client animation timings.
func DefaultTimings() Timings {
	return Timings{
		TypingDelay:      time.Second,
		BadgeToast:       4 * time.Second,
		BadgeFade:        300 * time.Millisecond,
		AffirmationToast: 6 * time.Second,
		AffirmationFade:  500 * time.Millisecond,
	}
}

// Clearer resets transient gamification state once a toast has faded.
type Clearer interface {
	ClearRecentBadge(ctx context.Context) (model.State, error)
	ClearAffirmation(ctx context.Context) (model.State, error)
}

type subscriber struct {
	conversationID string
	ch             chan Event
}

// Hub fans events out to subscribers and drives the toast timelines.
type Hub struct {
	mu      sync.RWMutex
	subs    map[uint64]*subscriber
	next    uint64
	sched   *Scheduler
	timings Timings
	clearer Clearer
	log     *logger.Logger
	now     func() time.Time
}

func NewHub(timings Timings, log *logger.Logger) *Hub {
	return &Hub{
		subs:    make(map[uint64]*subscriber),
		sched:   NewScheduler(),
		timings: timings,
		log:     log.With("service", "NotifyHub"),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// SetClearer wires the gamification service that owns the toast state.
func (h *Hub) SetClearer(c Clearer) {
	h.mu.Lock()
	h.clearer = c
	h.mu.Unlock()
}

// Subscribe registers a listener. An empty conversationID receives every
// event; otherwise only broadcasts and that conversation's events.
func (h *Hub) Subscribe(conversationID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	id := h.next
	sub := &subscriber{conversationID: conversationID, ch: make(chan Event, subscriberBuffer)}
	h.subs[id] = sub

	return sub.ch, func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if _, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub.ch)
		}
	}
}

// Publish delivers ev without blocking; slow subscribers lose events.
func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = h.now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subs {
		if ev.ConversationID != "" && sub.conversationID != "" && sub.conversationID != ev.ConversationID {
			continue
		}
		select {
		case sub.ch <- ev:
		default:
			h.log.Debug("subscriber buffer full, dropping event", "type", ev.Type)
		}
	}
}

// DeliverReply shows the typing indicator now and the reply after the
// typing delay.
func (h *Hub) DeliverReply(conversationID string, msg chat.Message) {
	h.Publish(Event{Type: EventTyping, ConversationID: conversationID})
	h.sched.After("reply:"+msg.ID, h.timings.TypingDelay, func() {
		h.Publish(Event{Type: EventMessage, ConversationID: conversationID, Payload: msg})
	})
}

// MemoryCaptured announces a new journal memory.
func (h *Hub) MemoryCaptured(conversationID string, m journal.Memory) {
	h.Publish(Event{Type: EventMemory, ConversationID: conversationID, Payload: m})
}

// BadgeUnlocked 展示徽章提示，到时隐藏并在淡出后清除最近徽章。
func (h *Hub) BadgeUnlocked(b model.Badge) {
	h.Publish(Event{Type: EventBadgeShow, Payload: b})
	h.sched.After("badge", h.timings.BadgeToast, func() {
		h.Publish(Event{Type: EventBadgeHide, Payload: b})
		h.sched.After("badge", h.timings.BadgeFade, func() {
			if c := h.getClearer(); c != nil {
				if _, err := c.ClearRecentBadge(context.Background()); err != nil {
					h.log.Warn("clear recent badge failed", "error", err)
				}
			}
		})
	})
}

// AffirmationTriggered 展示肯定语，到时隐藏并在淡出后清除。
func (h *Hub) AffirmationTriggered(message string) {
	h.Publish(Event{Type: EventAffirmationShow, Payload: message})
	h.sched.After("affirmation", h.timings.AffirmationToast, func() {
		h.Publish(Event{Type: EventAffirmationHide, Payload: message})
		h.sched.After("affirmation", h.timings.AffirmationFade, func() {
			if c := h.getClearer(); c != nil {
				if _, err := c.ClearAffirmation(context.Background()); err != nil {
					h.log.Warn("clear affirmation failed", "error", err)
				}
			}
		})
	})
}

// DismissBadge hides the badge toast immediately and cancels its timers.
func (h *Hub) DismissBadge() {
	h.sched.Cancel("badge")
	h.Publish(Event{Type: EventBadgeHide})
}

// DismissAffirmation hides the affirmation immediately and cancels its timers.
func (h *Hub) DismissAffirmation() {
	h.sched.Cancel("affirmation")
	h.Publish(Event{Type: EventAffirmationHide})
}

// Close cancels pending timers and disconnects every subscriber.
func (h *Hub) Close() {
	h.sched.Stop()
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, sub := range h.subs {
		close(sub.ch)
		delete(h.subs, id)
	}
}

func (h *Hub) getClearer() Clearer {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.clearer
}
