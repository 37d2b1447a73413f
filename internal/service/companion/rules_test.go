package companion

import (
	"strings"
	"testing"
)

func hasBadge(r Rewards, id string) bool {
	for _, b := range r.Badges {
		if b == id {
			return true
		}
	}
	return false
}

func TestEvaluatePlainExchange(t *testing.T) {
	r := Evaluate("hello there", 1, 1)
	if r.TotalSeeds() != 5 || len(r.Badges) != 0 || len(r.Milestones) != 0 || r.Affirmation != "" {
		t.Fatalf("unexpected rewards: %+v", r)
	}
}

func TestEvaluateConcern(t *testing.T) {
	r := Evaluate("I feel anxious about work", 1, 1)
	if !hasBadge(r, "quiet-strength") {
		t.Fatalf("expected quiet-strength, got %v", r.Badges)
	}
	if len(r.Milestones) != 1 || r.Milestones[0] != (MilestoneRef{"forest-worry", "name-worry"}) {
		t.Fatalf("unexpected milestones: %+v", r.Milestones)
	}
	if r.ComfortItem != "" {
		t.Fatalf("anxiety should not give a comfort item, got %q", r.ComfortItem)
	}
}

func TestEvaluateLongConcern(t *testing.T) {
	text := "I have been so sad lately " + strings.Repeat("and it keeps coming back ", 4)
	r := Evaluate(text, 1, 2)
	if r.TotalSeeds() != 15 || !hasBadge(r, "brave-heart") {
		t.Fatalf("expected long-share bonus, got %+v", r)
	}
	if len(r.Milestones) != 2 || r.Milestones[1].MilestoneID != "understand-roots" {
		t.Fatalf("unexpected milestones: %+v", r.Milestones)
	}
	if r.ComfortItem != "Warm Cup of Tea" {
		t.Fatalf("expected comfort item, got %q", r.ComfortItem)
	}
}

func TestEvaluateKeywordBadges(t *testing.T) {
	r := Evaluate("I tried to breathe, I'm grateful, trying to be kind to myself and I learned a lot", 1, 1)
	for _, id := range []string{"peaceful-mind", "inner-light", "gentle-soul", "deep-roots"} {
		if !hasBadge(r, id) {
			t.Fatalf("expected %s in %v", id, r.Badges)
		}
	}
}

func TestEvaluateStreakAndAffirmation(t *testing.T) {
	r := Evaluate("hi", 30, 3)
	if !hasBadge(r, "seven-days") || !hasBadge(r, "garden-keeper") {
		t.Fatalf("expected streak badges, got %v", r.Badges)
	}
	if r.Affirmation != affirmations[0] {
		t.Fatalf("expected first affirmation, got %q", r.Affirmation)
	}
	if got := Evaluate("hi", 1, 6).Affirmation; got != affirmations[1] {
		t.Fatalf("expected rotation, got %q", got)
	}
	if got := Evaluate("hi", 1, 4).Affirmation; got != "" {
		t.Fatalf("no affirmation expected on exchange 4, got %q", got)
	}
}
