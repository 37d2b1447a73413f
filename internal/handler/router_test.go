package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/zhouzirui/whispers/backend/internal/app"
	"github.com/zhouzirui/whispers/backend/internal/config"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	"github.com/zhouzirui/whispers/backend/internal/service/ai"
	"github.com/zhouzirui/whispers/backend/internal/store"
)

type staticResponder ai.Reply

func (s staticResponder) Respond(context.Context, ai.Request) ai.Reply { return ai.Reply(s) }

func newTestRouter(t *testing.T) (*app.App, http.Handler) {
	t.Helper()
	cfg := config.Default()
	cfg.Presentation.TypingDelay = config.Duration{Duration: time.Millisecond}
	a, err := app.New(context.Background(), cfg, logger.Nop(),
		app.WithStore(store.NewMemoryStore()),
		app.WithResponder(staticResponder{Response: "I'm listening.", Emotion: "calm", MemoryTag: "Check-in"}))
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, NewRouter(a, logger.Nop())
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, _ := json.Marshal(body)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	h.ServeHTTP(resp, req)
	return resp
}

func createConversation(t *testing.T, h http.Handler) string {
	t.Helper()
	resp := do(t, h, http.MethodPost, "/api/conversations", map[string]string{"personaId": "sage"})
	if resp.Code != http.StatusCreated {
		t.Fatalf("create conversation: %d %s", resp.Code, resp.Body.String())
	}
	var out struct {
		Conversation struct {
			ID string `json:"id"`
		} `json:"conversation"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return out.Conversation.ID
}

func TestHealthz(t *testing.T) {
	_, h := newTestRouter(t)
	if resp := do(t, h, http.MethodGet, "/healthz", nil); resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
}

func TestMemoryRoutes(t *testing.T) {
	_, h := newTestRouter(t)
	conv := createConversation(t, h)
	if resp := do(t, h, http.MethodPost, "/api/conversations/"+conv+"/messages", map[string]string{"text": "I feel anxious about work"}); resp.Code != http.StatusOK {
		t.Fatalf("send: %d %s", resp.Code, resp.Body.String())
	}

	resp := do(t, h, http.MethodGet, "/api/memory/history", nil)
	var history struct {
		SessionID string   `json:"sessionId"`
		History   []string `json:"history"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&history)
	if len(history.History) != 2 || history.History[1] != "Companion: I'm listening." {
		t.Fatalf("unexpected history: %+v", history)
	}

	resp = do(t, h, http.MethodGet, "/api/memory/context", nil)
	var ctxOut map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&ctxOut)
	profile, _ := ctxOut["patientProfile"].(string)
	if !strings.HasPrefix(profile, "Common concerns: anxiety") {
		t.Fatalf("unexpected context: %v", ctxOut)
	}

	resp = do(t, h, http.MethodPost, "/api/memory/sessions/end", nil)
	var ended struct {
		Session   *struct{ MessageCount int } `json:"session"`
		SessionID string                      `json:"sessionId"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&ended)
	if ended.Session == nil || ended.Session.MessageCount != 1 || ended.SessionID == history.SessionID {
		t.Fatalf("unexpected end-session response: %+v", ended)
	}

	resp = do(t, h, http.MethodGet, "/api/memory/sessions", nil)
	var sessions []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&sessions)
	if len(sessions) != 1 {
		t.Fatalf("expected one stored session, got %d", len(sessions))
	}

	if resp := do(t, h, http.MethodGet, "/api/memory/notes", nil); resp.Code != http.StatusOK {
		t.Fatalf("notes: %d", resp.Code)
	}
}

func TestGamificationRoutes(t *testing.T) {
	a, h := newTestRouter(t)

	if resp := do(t, h, http.MethodPost, "/api/gamification/seeds", map[string]any{"amount": 10, "reason": "manual"}); resp.Code != http.StatusOK {
		t.Fatalf("seeds: %d %s", resp.Code, resp.Body.String())
	}
	if resp := do(t, h, http.MethodPost, "/api/gamification/seeds", map[string]any{"amount": 0}); resp.Code != http.StatusBadRequest {
		t.Fatalf("zero seeds should be rejected, got %d", resp.Code)
	}
	if got := a.Game.State().TotalSeeds; got != 25 {
		t.Fatalf("expected 25 seeds, got %d", got)
	}

	resp := do(t, h, http.MethodPost, "/api/gamification/badges/inner-light/unlock", nil)
	var unlock struct {
		Unlocked bool `json:"unlocked"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&unlock)
	if !unlock.Unlocked {
		t.Fatal("expected first unlock to report true")
	}
	resp = do(t, h, http.MethodPost, "/api/gamification/badges/inner-light/unlock", nil)
	_ = json.NewDecoder(resp.Body).Decode(&unlock)
	if unlock.Unlocked {
		t.Fatal("second unlock should be a no-op")
	}
	if resp := do(t, h, http.MethodPost, "/api/gamification/badges/nope/unlock", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown badge should be 404, got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodDelete, "/api/gamification/badges/recent", nil); resp.Code != http.StatusOK {
		t.Fatalf("clear recent: %d", resp.Code)
	}
	if a.Game.State().RecentBadge != nil {
		t.Fatal("recent badge should be cleared")
	}

	if resp := do(t, h, http.MethodPost, "/api/gamification/quests/forest-worry/milestones/name-worry", nil); resp.Code != http.StatusOK {
		t.Fatalf("milestone: %d", resp.Code)
	}
	if resp := do(t, h, http.MethodPost, "/api/gamification/quests/forest-worry/milestones/nope", nil); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown milestone should be 404, got %d", resp.Code)
	}

	if resp := do(t, h, http.MethodPost, "/api/gamification/affirmation", map[string]string{"message": "You matter"}); resp.Code != http.StatusOK {
		t.Fatalf("affirmation: %d", resp.Code)
	}
	if resp := do(t, h, http.MethodDelete, "/api/gamification/affirmation", nil); resp.Code != http.StatusOK {
		t.Fatalf("clear affirmation: %d", resp.Code)
	}
	if resp := do(t, h, http.MethodPost, "/api/gamification/comfort", map[string]string{"item": "Blanket"}); resp.Code != http.StatusOK {
		t.Fatalf("comfort: %d", resp.Code)
	}
	if resp := do(t, h, http.MethodPost, "/api/gamification/daily-reset", nil); resp.Code != http.StatusOK {
		t.Fatalf("daily reset: %d", resp.Code)
	}

	resp = do(t, h, http.MethodGet, "/api/gamification/garden", nil)
	var garden struct {
		Stage struct {
			Name string `json:"name"`
		} `json:"stage"`
		BadgesEarned int `json:"badgesEarned"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&garden)
	if garden.Stage.Name != "Seedling" || garden.BadgesEarned != 1 {
		t.Fatalf("unexpected garden: %+v", garden)
	}

	if resp := do(t, h, http.MethodGet, "/api/gamification/sidebar", nil); resp.Code != http.StatusOK {
		t.Fatalf("sidebar: %d", resp.Code)
	}
}

func TestJournalRoutes(t *testing.T) {
	_, h := newTestRouter(t)
	conv := createConversation(t, h)

	resp := do(t, h, http.MethodGet, "/api/journal", nil)
	var memories []map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&memories)
	if len(memories) != 1 || memories[0]["title"] != "First Meeting" {
		t.Fatalf("unexpected journal: %v", memories)
	}

	if resp := do(t, h, http.MethodPost, "/api/journal/m1/select", nil); resp.Code != http.StatusBadRequest {
		t.Fatalf("missing conversation should be 400, got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodPost, "/api/journal/missing/select?conversation="+conv, nil); resp.Code != http.StatusNotFound {
		t.Fatalf("unknown memory should be 404, got %d", resp.Code)
	}
	if resp := do(t, h, http.MethodPost, "/api/journal/m1/select?conversation="+conv, nil); resp.Code != http.StatusOK {
		t.Fatalf("select: %d %s", resp.Code, resp.Body.String())
	}
}
