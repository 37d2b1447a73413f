package view

import (
	"math"
	"testing"
	"time"

	gmodel "github.com/zhouzirui/whispers/backend/internal/model/gamification"
	jmodel "github.com/zhouzirui/whispers/backend/internal/model/journal"
	mmodel "github.com/zhouzirui/whispers/backend/internal/model/memory"
)

func TestStageFor(t *testing.T) {
	cases := []struct {
		seeds    int
		name     string
		progress float64
	}{
		{0, "Seed", 0},
		{15, "Seed", 60},
		{25, "Seedling", 25.0 / 75 * 100},
		{75, "Sprout", 50},
		{150, "Bloom", 50},
		{299, "Bloom", 299.0 / 300 * 100},
		{300, "Flourish", 100},
		{1000, "Flourish", 100},
	}
	for _, c := range cases {
		got := StageFor(c.seeds)
		if got.Name != c.name || math.Abs(got.Progress-c.progress) > 1e-9 {
			t.Fatalf("StageFor(%d) = %+v, want %s %.2f", c.seeds, got, c.name, c.progress)
		}
	}
}

func TestNewGarden(t *testing.T) {
	now := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	s := gmodel.Initial(now)
	for i := range s.Badges[:4] {
		s.Badges[i].Unlocked = true
	}
	s.ActiveQuests[0].Milestones[0].Completed = true

	g := NewGarden(s)
	if g.Stage.Name != "Seed" || g.BadgesEarned != 4 || len(g.RecentBadges) != 3 {
		t.Fatalf("unexpected garden: %+v", g)
	}
	if g.RecentBadges[0].ID != s.Badges[1].ID {
		t.Fatalf("recent badges should be the last three unlocked, got %s", g.RecentBadges[0].ID)
	}
	if len(g.Quests) != 1 || g.Quests[0].Progress != 33 {
		t.Fatalf("unexpected quest view: %+v", g.Quests)
	}
}

func TestNewSidebar(t *testing.T) {
	now := time.Date(2026, 1, 2, 8, 0, 0, 0, time.UTC)
	s := gmodel.Initial(now)
	for i := range s.Badges[:5] {
		s.Badges[i].Unlocked = true
	}
	ltm := mmodel.NewLongTermSummary(now)
	ltm.PatientInsights = []string{"a", "b"}
	memories := []jmodel.Memory{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}

	sb := NewSidebar(s, ltm, memories)
	if sb.Streak != 1 || sb.InsightsCount != 2 {
		t.Fatalf("unexpected sidebar: %+v", sb)
	}
	if len(sb.TopBadges) != 3 || sb.TopBadges[0].ID != s.Badges[0].ID {
		t.Fatalf("top badges should be the first three unlocked: %+v", sb.TopBadges)
	}
	if len(sb.RecentMemories) != 3 || sb.RecentMemories[0].ID != "4" {
		t.Fatalf("recent memories should be newest first: %+v", sb.RecentMemories)
	}
}
