// Package view 组装前端展示用的只读视图模型。
package view

import (
	"math"

	gmodel "github.com/zhouzirui/whispers/backend/internal/model/gamification"
	jmodel "github.com/zhouzirui/whispers/backend/internal/model/journal"
	mmodel "github.com/zhouzirui/whispers/backend/internal/model/memory"
)

const recentLimit = 3

// GardenStage is the display milestone of the growth garden.
type GardenStage struct {
	Name     string  `json:"name"`
	Emoji    string  `json:"emoji"`
	Progress float64 `json:"progress"`
}

// StageFor maps a seed total to its display stage and progress toward the
// next threshold.
func StageFor(totalSeeds int) GardenStage {
	total := float64(totalSeeds)
	switch {
	case totalSeeds >= 300:
		return GardenStage{Name: "Flourish", Emoji: "🌸", Progress: 100}
	case totalSeeds >= 150:
		return GardenStage{Name: "Bloom", Emoji: "🌺", Progress: total / 300 * 100}
	case totalSeeds >= 75:
		return GardenStage{Name: "Sprout", Emoji: "🌱", Progress: total / 150 * 100}
	case totalSeeds >= 25:
		return GardenStage{Name: "Seedling", Emoji: "🌿", Progress: total / 75 * 100}
	default:
		return GardenStage{Name: "Seed", Emoji: "🌰", Progress: math.Max(total, 0) / 25 * 100}
	}
}

// Garden 是成长花园面板。
type Garden struct {
	Stage        GardenStage    `json:"stage"`
	TotalSeeds   int            `json:"totalSeeds"`
	DailySeeds   int            `json:"dailySeeds"`
	Streak       int            `json:"reflectionStreak"`
	BadgesEarned int            `json:"badgesEarned"`
	RecentBadges []gmodel.Badge `json:"recentBadges"`
	Quests       []Quest        `json:"quests"`
}

// Quest is a quest card with its rounded progress.
type Quest struct {
	ID         string                  `json:"id"`
	Title      string                  `json:"title"`
	Theme      string                  `json:"theme"`
	Progress   int                     `json:"progress"`
	Completed  bool                    `json:"completed"`
	Milestones []gmodel.QuestMilestone `json:"milestones"`
}

func NewQuest(q gmodel.Quest) Quest {
	return Quest{
		ID:         q.ID,
		Title:      q.Title,
		Theme:      q.Theme,
		Progress:   int(math.Round(q.Progress())),
		Completed:  q.Completed,
		Milestones: append([]gmodel.QuestMilestone{}, q.Milestones...),
	}
}

// NewGarden builds the garden panel; recent badges are the last three
// unlocked in catalog order.
func NewGarden(s gmodel.State) Garden {
	unlocked := s.UnlockedBadges()
	recent := unlocked
	if len(recent) > recentLimit {
		recent = recent[len(recent)-recentLimit:]
	}
	quests := make([]Quest, 0, len(s.ActiveQuests))
	for _, q := range s.ActiveQuests {
		quests = append(quests, NewQuest(q))
	}
	return Garden{
		Stage:        StageFor(s.TotalSeeds),
		TotalSeeds:   s.TotalSeeds,
		DailySeeds:   s.DailySeeds,
		Streak:       s.ReflectionStreak,
		BadgesEarned: len(unlocked),
		RecentBadges: append([]gmodel.Badge{}, recent...),
		Quests:       quests,
	}
}

// Sidebar is the summary column next to the chat.
type Sidebar struct {
	Streak         int             `json:"streak"`
	InsightsCount  int             `json:"insightsCount"`
	TopBadges      []gmodel.Badge  `json:"topBadges"`
	RecentMemories []jmodel.Memory `json:"recentMemories"`
}

// NewSidebar 取前三个已解锁徽章与最近三条日记。
func NewSidebar(s gmodel.State, ltm mmodel.LongTermSummary, memories []jmodel.Memory) Sidebar {
	unlocked := s.UnlockedBadges()
	if len(unlocked) > recentLimit {
		unlocked = unlocked[:recentLimit]
	}
	recent := make([]jmodel.Memory, 0, recentLimit)
	for i := len(memories) - 1; i >= 0 && len(recent) < recentLimit; i-- {
		recent = append(recent, memories[i])
	}
	return Sidebar{
		Streak:         s.ReflectionStreak,
		InsightsCount:  len(ltm.PatientInsights),
		TopBadges:      append([]gmodel.Badge{}, unlocked...),
		RecentMemories: recent,
	}
}
