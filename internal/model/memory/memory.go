// Package memory holds the records of the short-term / long-term memory
// document persisted by the memory service.
package memory

import "time"

// ShortTermEntry records one user/companion exchange.
type ShortTermEntry struct {
	ID                string    `json:"id"`
	Timestamp         time.Time `json:"timestamp"`
	UserMessage       string    `json:"userMessage"`
	TherapistResponse string    `json:"therapistResponse"`
	Emotion           string    `json:"emotion"`
	MemoryTag         string    `json:"memoryTag"`
	SessionID         string    `json:"sessionId"`
}

// PatientProfile is the profile part of the long-term summary.
type PatientProfile struct {
	Name                   string   `json:"name,omitempty"`
	CommonConcerns         []string `json:"commonConcerns"`
	PreferredCopingMethods []string `json:"preferredCopingMethods"`
	EmotionalPatterns      []string `json:"emotionalPatterns"`
	PersonalDetails        []string `json:"personalDetails"`
}

// LongTermSummary is the single cumulative profile. Lists only grow.
type LongTermSummary struct {
	ID                  string         `json:"id"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
	PatientInsights     []string       `json:"patientInsights"`
	RecurringThemes     []string       `json:"recurringThemes"`
	ProgressNotes       []string       `json:"progressNotes"`
	ImportantMilestones []string       `json:"importantMilestones"`
	TriggerPatterns     []string       `json:"triggerPatterns"`
	CopingStrategies    []string       `json:"copingStrategies"`
	SessionCount        int            `json:"sessionCount"`
	PatientProfile      PatientProfile `json:"patientProfile"`
}

// NewLongTermSummary returns the empty record created on first start.
func NewLongTermSummary(now time.Time) LongTermSummary {
	return LongTermSummary{
		ID:                  "ltm-1",
		CreatedAt:           now,
		UpdatedAt:           now,
		PatientInsights:     []string{},
		RecurringThemes:     []string{},
		ProgressNotes:       []string{},
		ImportantMilestones: []string{},
		TriggerPatterns:     []string{},
		CopingStrategies:    []string{},
		PatientProfile: PatientProfile{
			CommonConcerns:         []string{},
			PreferredCopingMethods: []string{},
			EmotionalPatterns:      []string{},
			PersonalDetails:        []string{},
		},
	}
}

// Clone deep-copies the summary so callers can mutate it freely.
func (l LongTermSummary) Clone() LongTermSummary {
	out := l
	out.PatientInsights = cloneStrings(l.PatientInsights)
	out.RecurringThemes = cloneStrings(l.RecurringThemes)
	out.ProgressNotes = cloneStrings(l.ProgressNotes)
	out.ImportantMilestones = cloneStrings(l.ImportantMilestones)
	out.TriggerPatterns = cloneStrings(l.TriggerPatterns)
	out.CopingStrategies = cloneStrings(l.CopingStrategies)
	out.PatientProfile.CommonConcerns = cloneStrings(l.PatientProfile.CommonConcerns)
	out.PatientProfile.PreferredCopingMethods = cloneStrings(l.PatientProfile.PreferredCopingMethods)
	out.PatientProfile.EmotionalPatterns = cloneStrings(l.PatientProfile.EmotionalPatterns)
	out.PatientProfile.PersonalDetails = cloneStrings(l.PatientProfile.PersonalDetails)
	return out
}

// TherapySession summarizes a closed session.
type TherapySession struct {
	ID             string    `json:"id"`
	Date           time.Time `json:"date"`
	Duration       int       `json:"duration"`
	KeyTopics      []string  `json:"keyTopics"`
	EmotionalTone  string    `json:"emotionalTone"`
	Breakthroughs  []string  `json:"breakthroughs"`
	ActionItems    []string  `json:"actionItems"`
	SessionSummary string    `json:"sessionSummary"`
	MessageCount   int       `json:"messageCount"`
}

// ConversationContext is the bundle handed to the remote responder.
type ConversationContext struct {
	RecentConversations []string `json:"recentConversations"`
	PatientProfile      string   `json:"patientProfile"`
	KeyInsights         []string `json:"keyInsights"`
	EmotionalPatterns   string   `json:"emotionalPatterns"`
	PreviousSessions    []string `json:"previousSessions"`
}

// CurrentSessionNotes describes the open session in a notes snapshot.
type CurrentSessionNotes struct {
	MessagesCount   int      `json:"messagesCount"`
	DominantEmotion string   `json:"dominantEmotion"`
	KeyInsights     []string `json:"keyInsights"`
}

// TherapyNotes is the read-only notes snapshot.
type TherapyNotes struct {
	CurrentSession   CurrentSessionNotes `json:"currentSession"`
	LongTermPatterns LongTermSummary     `json:"longTermPatterns"`
	RecentSession    *TherapySession     `json:"recentSession,omitempty"`
	TotalSessions    int                 `json:"totalSessions"`
}

func cloneStrings(in []string) []string {
	if in == nil {
		return []string{}
	}
	return append(make([]string, 0, len(in)), in...)
}
