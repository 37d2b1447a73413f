package gamification

import (
	"time"

	model "github.com/zhouzirui/whispers/backend/internal/model/gamification"
)

// Growth-stage thresholds, checked from the highest down against the
// cumulative seed total.
var stageThresholds = []struct {
	min   int
	stage model.GrowthStage
}{
	{300, model.StageFlourish},
	{150, model.StageBloom},
	{75, model.StageSprout},
	{25, model.StageSeedling},
}

// StageFor returns the growth stage reached by total, or nil below the
// first threshold.
func StageFor(total int) *model.GrowthStage {
	for _, t := range stageThresholds {
		if total >= t.min {
			stage := t.stage
			return &stage
		}
	}
	return nil
}

// AddSeeds adds amount to the total and daily counters and recomputes the
// growth stage from the new total. Below the first threshold the previous
// label is kept.
func AddSeeds(s model.State, amount int) model.State {
	s.TotalSeeds += amount
	s.DailySeeds += amount
	if stage := StageFor(s.TotalSeeds); stage != nil {
		s.WeeklyMilestone = stage
	}
	return s
}

// UnlockBadge unlocks the badge with id and records it as the recent
// badge. The bool is false when the badge is unknown or already unlocked;
// the state is then returned unchanged.
func UnlockBadge(s model.State, id string, now time.Time) (model.State, bool) {
	idx := -1
	for i, b := range s.Badges {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 || s.Badges[idx].Unlocked {
		return s, false
	}

	badges := append([]model.Badge(nil), s.Badges...)
	at := now
	badges[idx].Unlocked = true
	badges[idx].UnlockedAt = &at

	recent := badges[idx]
	s.Badges = badges
	s.RecentBadge = &recent
	return s, true
}

// UpdateQuestProgress completes milestoneID of questID and recomputes the
// quest's currentMilestone and completed flag. Other quests are untouched.
func UpdateQuestProgress(s model.State, questID, milestoneID string) model.State {
	quests := make([]model.Quest, len(s.ActiveQuests))
	for i, q := range s.ActiveQuests {
		if q.ID != questID {
			quests[i] = q
			continue
		}

		milestones := append([]model.QuestMilestone(nil), q.Milestones...)
		for j := range milestones {
			if milestones[j].ID == milestoneID {
				milestones[j].Completed = true
			}
		}
		q.Milestones = milestones
		q.CurrentMilestone = firstIncomplete(milestones)
		q.Completed = q.CurrentMilestone == len(milestones)
		quests[i] = q
	}
	s.ActiveQuests = quests
	return s
}

// UnlockNextQuest activates the next catalog quest once every active
// quest is completed. Quests already active are never duplicated. The
// second result is the quest that was unlocked, if any.
func UnlockNextQuest(s model.State) (model.State, *model.Quest) {
	active := make(map[string]bool, len(s.ActiveQuests))
	for _, q := range s.ActiveQuests {
		if !q.Completed {
			return s, nil
		}
		active[q.ID] = true
	}
	for _, q := range s.CompletedQuests {
		active[q.ID] = true
	}

	for _, q := range model.Quests() {
		if active[q.ID] {
			continue
		}
		q.Unlocked = true
		quests := append(make([]model.Quest, 0, len(s.ActiveQuests)+1), s.ActiveQuests...)
		s.ActiveQuests = append(quests, q)
		return s, &q
	}
	return s, nil
}

func firstIncomplete(milestones []model.QuestMilestone) int {
	for i, m := range milestones {
		if !m.Completed {
			return i
		}
	}
	return len(milestones)
}

// TriggerAffirmation sets the most recent affirmation.
func TriggerAffirmation(s model.State, message string) model.State {
	msg := message
	s.LastAffirmation = &msg
	return s
}

// ClearAffirmation empties the affirmation slot once it has been shown.
func ClearAffirmation(s model.State) model.State {
	s.LastAffirmation = nil
	return s
}

// ClearRecentBadge empties the recent-badge slot once it has been shown.
func ClearRecentBadge(s model.State) model.State {
	s.RecentBadge = nil
	return s
}

// GiveComfortItem appends item; duplicates are kept.
func GiveComfortItem(s model.State, item string) model.State {
	s.ComfortItems = append(append(make([]string, 0, len(s.ComfortItems)+1), s.ComfortItems...), item)
	return s
}

// CheckDailyReset starts a new day when now falls on a different calendar
// date than the last check-in: daily seeds go to zero and the streak grows
// by exactly one, however many days were skipped.
func CheckDailyReset(s model.State, now time.Time) (model.State, bool) {
	if s.LastCheckIn == nil || sameDay(*s.LastCheckIn, now) {
		return s, false
	}
	checkIn := now
	s.DailySeeds = 0
	s.LastCheckIn = &checkIn
	s.ReflectionStreak++
	return s, true
}

func sameDay(a, b time.Time) bool {
	a = a.In(b.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
