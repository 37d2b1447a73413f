package companion

import (
	"strings"
	"unicode/utf8"

	memsvc "github.com/zhouzirui/whispers/backend/internal/service/memory"
)

const (
	exchangeSeeds     = 5
	sharingSeeds      = 10
	sharingLength     = 100
	affirmationEvery  = 3
	weekStreak        = 7
	monthStreak       = 30
	questWorry        = "forest-worry"
	questShadows      = "valley-shadows"
	milestoneName     = "name-worry"
	milestoneRoots    = "understand-roots"
	milestoneClearing = "calm-clearing"
	milestoneLight    = "find-light"
)

var (
	mindfulKeywords    = []string{"breathe", "breathing", "meditate", "meditation"}
	gratitudeKeywords  = []string{"grateful", "thankful", "gratitude"}
	compassionPhrases  = []string{"kind to myself", "self-compassion", "forgive myself"}
	growthKeywords     = []string{"grow", "growth", "pattern", "learned"}
	comfortForConcerns = map[string]string{
		"sad":    "Warm Cup of Tea",
		"lonely": "Soft Lantern",
	}
	affirmations = []string{
		"You are doing the brave work of listening to yourself.",
		"Your feelings make sense, and you are allowed to feel them.",
		"Small steps still move you forward.",
		"You deserve the same kindness you give to others.",
		"Every reflection plants a seed in your garden.",
	}
)

// SeedGrant is one seed credit and why it was earned.
type SeedGrant struct {
	Amount int
	Reason string
}

// MilestoneRef names one quest milestone.
type MilestoneRef struct {
	QuestID     string
	MilestoneID string
}

// Rewards 是一次对话交换触发的全部奖励。
type Rewards struct {
	Seeds       []SeedGrant
	Badges      []string
	Milestones  []MilestoneRef
	Affirmation string
	ComfortItem string
}

// Evaluate applies the reward table to one exchange. exchange is the
// 1-based count of player messages in the conversation; streak is the
// reflection streak after the daily check-in.
func Evaluate(text string, streak, exchange int) Rewards {
	lower := strings.ToLower(text)
	long := utf8.RuneCountInString(strings.TrimSpace(text)) > sharingLength

	r := Rewards{Seeds: []SeedGrant{{Amount: exchangeSeeds, Reason: "reflection"}}}
	if long {
		r.Seeds = append(r.Seeds, SeedGrant{Amount: sharingSeeds, Reason: "deep sharing"})
		r.Badges = append(r.Badges, "brave-heart")
	}

	if concern, ok := memsvc.FirstConcern(text); ok {
		r.Badges = append(r.Badges, "quiet-strength")
		r.Milestones = append(r.Milestones, MilestoneRef{questWorry, milestoneName})
		if long {
			r.Milestones = append(r.Milestones, MilestoneRef{questWorry, milestoneRoots})
		}
		r.ComfortItem = comfortForConcerns[concern]
	}
	if hasAny(lower, mindfulKeywords) {
		r.Badges = append(r.Badges, "peaceful-mind")
		r.Milestones = append(r.Milestones, MilestoneRef{questWorry, milestoneClearing})
	}
	if hasAny(lower, gratitudeKeywords) {
		r.Badges = append(r.Badges, "inner-light")
		r.Milestones = append(r.Milestones, MilestoneRef{questShadows, milestoneLight})
	}
	if hasAny(lower, compassionPhrases) {
		r.Badges = append(r.Badges, "gentle-soul")
	}
	if hasAny(lower, growthKeywords) {
		r.Badges = append(r.Badges, "deep-roots")
	}

	if streak >= weekStreak {
		r.Badges = append(r.Badges, "seven-days")
	}
	if streak >= monthStreak {
		r.Badges = append(r.Badges, "garden-keeper")
	}

	if exchange > 0 && exchange%affirmationEvery == 0 {
		r.Affirmation = affirmations[(exchange/affirmationEvery-1)%len(affirmations)]
	}
	return r
}

// TotalSeeds sums the seed grants.
func (r Rewards) TotalSeeds() int {
	total := 0
	for _, g := range r.Seeds {
		total += g.Amount
	}
	return total
}

func hasAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
