package memory

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	model "github.com/zhouzirui/whispers/backend/internal/model/memory"
)

// Keyword lists are scanned in order; the first concern match is the one
// recorded.
var (
	CopingKeywords   = []string{"breathe", "meditate", "journal", "walk", "talk", "exercise", "sleep", "music"}
	PersonalKeywords = []string{"family", "work", "school", "relationship", "friend", "parent", "child"}
	ConcernKeywords  = []string{"anxiety", "stress", "worried", "sad", "angry", "lonely", "overwhelmed"}
)

// concernAliases lets inflected forms count for a concern keyword.
var concernAliases = map[string][]string{
	"anxiety": {"anxious"},
}

const (
	insightMinLength  = 50
	personalMinLength = 30
	themeTagLength    = 30
	strategyTagLength = 40
	detailLength      = 80
	detailPrefix      = 20
	dateLayout        = "1/2/2006"
)

// AnalyzePatterns merges the heuristic findings of entry into a copy of
// ltm. updatedAt is refreshed even when nothing else changes.
func AnalyzePatterns(ltm model.LongTermSummary, entry model.ShortTermEntry, now time.Time) model.LongTermSummary {
	out := ltm.Clone()
	out.UpdatedAt = now

	user := strings.ToLower(entry.UserMessage)
	reply := strings.ToLower(entry.TherapistResponse)

	if runeLen(entry.UserMessage) > insightMinLength && !contains(out.PatientInsights, entry.MemoryTag) {
		out.PatientInsights = append(out.PatientInsights, entry.MemoryTag)
	}

	if entry.Emotion != "neutral" && !anyContains(out.RecurringThemes, entry.Emotion) {
		out.RecurringThemes = append(out.RecurringThemes, fmt.Sprintf("%s - %s", entry.Emotion, truncate(entry.MemoryTag, themeTagLength)))
	}

	if containsAny(user, CopingKeywords) || containsAny(reply, CopingKeywords) {
		strategy := fmt.Sprintf("%s (%s)", truncate(entry.MemoryTag, strategyTagLength), now.Format(dateLayout))
		if !contains(out.CopingStrategies, strategy) {
			out.CopingStrategies = append(out.CopingStrategies, strategy)
		}
	}

	if containsAny(user, PersonalKeywords) && runeLen(entry.UserMessage) > personalMinLength {
		detail := truncate(entry.UserMessage, detailLength)
		if !anyContains(out.PatientProfile.PersonalDetails, truncate(detail, detailPrefix)) {
			out.PatientProfile.PersonalDetails = append(out.PatientProfile.PersonalDetails, detail)
		}
	}

	if concern, ok := FirstConcern(entry.UserMessage); ok && !contains(out.PatientProfile.CommonConcerns, concern) {
		out.PatientProfile.CommonConcerns = append(out.PatientProfile.CommonConcerns, concern)
	}

	return out
}

// FirstConcern returns the first keyword of ConcernKeywords found in text.
func FirstConcern(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, keyword := range ConcernKeywords {
		if strings.Contains(lower, keyword) || containsAny(lower, concernAliases[keyword]) {
			return keyword, true
		}
	}
	return "", false
}

// MostCommonEmotion returns the mode of the entries' emotions; ties go to
// the emotion seen first. An empty slice yields "neutral".
func MostCommonEmotion(entries []model.ShortTermEntry) string {
	counts := make(map[string]int)
	order := make([]string, 0, 4)
	for _, e := range entries {
		if _, seen := counts[e.Emotion]; !seen {
			order = append(order, e.Emotion)
		}
		counts[e.Emotion]++
	}

	best, bestCount := "neutral", 0
	for _, emotion := range order {
		if counts[emotion] > bestCount {
			best, bestCount = emotion, counts[emotion]
		}
	}
	return best
}

func containsAny(lower string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func contains(items []string, value string) bool {
	for _, item := range items {
		if item == value {
			return true
		}
	}
	return false
}

func anyContains(items []string, sub string) bool {
	for _, item := range items {
		if strings.Contains(item, sub) {
			return true
		}
	}
	return false
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}

func truncate(s string, n int) string {
	if runeLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
