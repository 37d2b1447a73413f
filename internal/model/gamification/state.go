package gamification

import "time"

// GrowthStage is the milestone label derived from the seed total.
type GrowthStage string

const (
	StageSeedling GrowthStage = "seedling"
	StageSprout   GrowthStage = "sprout"
	StageBloom    GrowthStage = "bloom"
	StageFlourish GrowthStage = "flourish"
)

// Badge is one entry of the fixed badge catalog.
type Badge struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Icon        string     `json:"icon"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
	Category    string     `json:"category"`
}

// QuestMilestone is one ordered step of a quest.
type QuestMilestone struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Activity    string `json:"activity"`
	Completed   bool   `json:"completed"`
}

// Quest is a fixed multi-step journey.
type Quest struct {
	ID               string           `json:"id"`
	Title            string           `json:"title"`
	Description      string           `json:"description"`
	Theme            string           `json:"theme"`
	Milestones       []QuestMilestone `json:"milestones"`
	CurrentMilestone int              `json:"currentMilestone"`
	Completed        bool             `json:"completed"`
	Unlocked         bool             `json:"unlocked"`
}

// Progress returns the completed share of milestones in percent.
func (q Quest) Progress() float64 {
	if len(q.Milestones) == 0 {
		return 0
	}
	done := 0
	for _, m := range q.Milestones {
		if m.Completed {
			done++
		}
	}
	return float64(done) / float64(len(q.Milestones)) * 100
}

// State is the immutable gamification snapshot. Reducers return a new
// value and never mutate the slices of their input.
type State struct {
	TotalSeeds       int          `json:"totalSeeds"`
	DailySeeds       int          `json:"dailySeeds"`
	WeeklyMilestone  *GrowthStage `json:"weeklyMilestone"`
	ReflectionStreak int          `json:"reflectionStreak"`
	LastCheckIn      *time.Time   `json:"lastCheckIn"`
	Badges           []Badge      `json:"badges"`
	RecentBadge      *Badge       `json:"recentBadge"`
	ActiveQuests     []Quest      `json:"activeQuests"`
	CompletedQuests  []Quest      `json:"completedQuests"`
	LastAffirmation  *string      `json:"lastAffirmation"`
	ComfortItems     []string     `json:"comfortItems"`
}

// FindBadge looks a badge up by id.
func (s State) FindBadge(id string) (Badge, bool) {
	for _, b := range s.Badges {
		if b.ID == id {
			return b, true
		}
	}
	return Badge{}, false
}

// FindQuest looks an active quest up by id.
func (s State) FindQuest(id string) (Quest, bool) {
	for _, q := range s.ActiveQuests {
		if q.ID == id {
			return q, true
		}
	}
	return Quest{}, false
}

// UnlockedBadges returns the unlocked badges in catalog order.
func (s State) UnlockedBadges() []Badge {
	out := make([]Badge, 0, len(s.Badges))
	for _, b := range s.Badges {
		if b.Unlocked {
			out = append(out, b)
		}
	}
	return out
}
