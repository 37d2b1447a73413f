package ai

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/zhouzirui/whispers/backend/internal/model/memory"
)

// Fallback values returned whenever the responder cannot produce a reply.
const (
	FallbackResponse  = "I'm having trouble connecting right now. Let's take a breath and try again in a moment."
	FallbackEmotion   = "neutral"
	FallbackMemoryTag = "connection_error"
)

// PatientContext is the wire form of the memory context sent upstream.
type PatientContext struct {
	Profile           string   `json:"profile"`
	KeyInsights       []string `json:"key_insights"`
	EmotionalPatterns string   `json:"emotional_patterns"`
	PreviousSessions  []string `json:"previous_sessions"`
}

// NewPatientContext maps the memory service context onto the wire form.
func NewPatientContext(c memory.ConversationContext) PatientContext {
	return PatientContext{
		Profile:           c.PatientProfile,
		KeyInsights:       nonNil(c.KeyInsights),
		EmotionalPatterns: c.EmotionalPatterns,
		PreviousSessions:  nonNil(c.PreviousSessions),
	}
}

// Request is one companion turn.
type Request struct {
	UserInput      string
	History        []string
	PatientContext PatientContext
	PersonaID      string
}

// Reply is the companion's answer plus the labels stored with the exchange.
type Reply struct {
	Response  string `json:"response"`
	Emotion   string `json:"emotion"`
	MemoryTag string `json:"memory_tag"`
}

// FallbackReply is the canned reply for any upstream failure.
func FallbackReply() Reply {
	return Reply{Response: FallbackResponse, Emotion: FallbackEmotion, MemoryTag: FallbackMemoryTag}
}

// IsFallback reports whether r is the canned failure reply.
func (r Reply) IsFallback() bool {
	return r.MemoryTag == FallbackMemoryTag && r.Response == FallbackResponse
}

// Responder produces companion replies. Implementations never return an
// error: failures are mapped to FallbackReply.
type Responder interface {
	Respond(ctx context.Context, req Request) Reply
}

// tagTopics maps topic keywords to a short memory tag, in priority order.
var tagTopics = []struct {
	keyword string
	tag     string
}{
	{"anxi", "Anxiety"},
	{"stress", "Stress"},
	{"work", "Work life"},
	{"school", "School"},
	{"family", "Family"},
	{"friend", "Friendship"},
	{"relationship", "Relationships"},
	{"sleep", "Sleep"},
	{"lonely", "Loneliness"},
	{"grateful", "Gratitude"},
}

const memoryTagLength = 40

// DeriveMemoryTag builds a memory tag for responders whose upstream does
// not supply one.
func DeriveMemoryTag(userInput string) string {
	lower := strings.ToLower(userInput)
	for _, topic := range tagTopics {
		if strings.Contains(lower, topic.keyword) {
			return topic.tag
		}
	}
	trimmed := strings.TrimSpace(userInput)
	if trimmed == "" {
		return "General reflection"
	}
	if utf8.RuneCountInString(trimmed) > memoryTagLength {
		return string([]rune(trimmed)[:memoryTagLength])
	}
	return trimmed
}

func nonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}

// History line prefixes produced by the memory service.
const (
	HistoryUserPrefix      = "User:"
	HistoryCompanionPrefix = "Companion:"
)
