package gamification

import "time"

// Badges returns a fresh copy of the badge catalog, all locked.
func Badges() []Badge {
	return []Badge{
		{ID: "brave-heart", Title: "Brave Heart", Description: "Shared something difficult for the first time", Icon: "heart", Category: "courage"},
		{ID: "gentle-soul", Title: "Gentle Soul", Description: "Practiced self-compassion during a tough moment", Icon: "flower", Category: "courage"},
		{ID: "quiet-strength", Title: "Quiet Strength", Description: "Acknowledged anxiety without judgment", Icon: "shield", Category: "courage"},
		{ID: "inner-light", Title: "Inner Light", Description: "Found gratitude during a challenging day", Icon: "sun", Category: "courage"},
		{ID: "deep-roots", Title: "Deep Roots", Description: "Reflected on personal growth patterns", Icon: "book", Category: "growth"},
		{ID: "peaceful-mind", Title: "Peaceful Mind", Description: "Used a mindfulness technique during stress", Icon: "moon", Category: "courage"},
		{ID: "seven-days", Title: "Seven Days Strong", Description: "Maintained check-ins for a week", Icon: "star", Category: "consistency"},
		{ID: "garden-keeper", Title: "Garden Keeper", Description: "Monthly reflection consistency", Icon: "flower", Category: "milestone"},
	}
}

// Quests returns a fresh copy of the quest catalog. Only the first quest
// starts unlocked.
func Quests() []Quest {
	return []Quest{
		{
			ID:          "forest-worry",
			Title:       "The Forest of Worry",
			Description: "Navigate through anxiety and overthinking to find your calm clearing",
			Theme:       "worry",
			Milestones: []QuestMilestone{
				{ID: "name-worry", Title: "Naming the Worry", Description: "Identify and acknowledge your specific concerns", Activity: "Share what's on your mind"},
				{ID: "understand-roots", Title: "Understanding Its Roots", Description: "Explore where these worries come from", Activity: "Reflect on the source of your anxiety"},
				{ID: "calm-clearing", Title: "Finding Your Calm Clearing", Description: "Discover your inner peace", Activity: "Practice a breathing exercise"},
			},
			Unlocked: true,
		},
		{
			ID:          "valley-shadows",
			Title:       "The Valley of Shadows",
			Description: "Process difficult emotions and find pinpoints of light",
			Theme:       "shadows",
			Milestones: []QuestMilestone{
				{ID: "acknowledge-shadow", Title: "Acknowledging the Shadow", Description: "Honor your difficult feelings", Activity: "Share about a challenging experience"},
				{ID: "walk-feelings", Title: "Walking With Your Feelings", Description: "Sit with emotions without judgment", Activity: "Practice gentle self-compassion"},
				{ID: "find-light", Title: "Finding Pinpoints of Light", Description: "Discover small moments of hope or beauty", Activity: "Identify one thing you're grateful for"},
			},
		},
		{
			ID:          "mountain-doubt",
			Title:       "The Mountain of Self-Doubt",
			Description: "Build self-compassion and discover your inner strength",
			Theme:       "doubt",
			Milestones: []QuestMilestone{
				{ID: "critical-voice", Title: "Recognizing the Critical Voice", Description: "Notice self-criticism without judgment", Activity: "Identify patterns of self-doubt"},
				{ID: "challenge-climb", Title: "Challenging the Climb", Description: "Practice speaking to yourself with kindness", Activity: "Write yourself a compassionate message"},
				{ID: "summit-view", Title: "Reaching Your Summit View", Description: "See yourself from a place of strength", Activity: "Acknowledge your personal growth"},
			},
		},
	}
}

// Initial returns the state a fresh installation starts with.
func Initial(now time.Time) State {
	quests := Quests()
	checkIn := now
	return State{
		TotalSeeds:       15,
		DailySeeds:       15,
		ReflectionStreak: 1,
		LastCheckIn:      &checkIn,
		Badges:           Badges(),
		ActiveQuests:     []Quest{quests[0]},
		CompletedQuests:  []Quest{},
		ComfortItems:     []string{},
	}
}
