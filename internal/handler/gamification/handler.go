package gamification

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/whispers/backend/internal/handler/httperr"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	gamificationService "github.com/zhouzirui/whispers/backend/internal/service/gamification"
	journalService "github.com/zhouzirui/whispers/backend/internal/service/journal"
	memoryService "github.com/zhouzirui/whispers/backend/internal/service/memory"
	"github.com/zhouzirui/whispers/backend/internal/view"
	"github.com/zhouzirui/whispers/backend/pkg/utils"
)

// Dismisser 立即隐藏提示并取消其计时器。
type Dismisser interface {
	DismissBadge()
	DismissAffirmation()
}

// Handler 成长花园、徽章与任务的HTTP处理器
type Handler struct {
	game      *gamificationService.Service
	memory    *memoryService.Service
	journal   *journalService.Service
	dismisser Dismisser
	log       *logger.Logger
}

func New(game *gamificationService.Service, memory *memoryService.Service, journal *journalService.Service, dismisser Dismisser, log *logger.Logger) *Handler {
	return &Handler{game: game, memory: memory, journal: journal, dismisser: dismisser, log: log.With("handler", "gamification")}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/gamification", func(r chi.Router) {
		r.Get("/", h.handleState)
		r.Get("/garden", h.handleGarden)
		r.Get("/sidebar", h.handleSidebar)
		r.Post("/seeds", h.handleAddSeeds)
		r.Post("/badges/{badgeID}/unlock", h.handleUnlockBadge)
		r.Delete("/badges/recent", h.handleClearRecentBadge)
		r.Post("/quests/{questID}/milestones/{milestoneID}", h.handleMilestone)
		r.Post("/affirmation", h.handleTriggerAffirmation)
		r.Delete("/affirmation", h.handleClearAffirmation)
		r.Post("/comfort", h.handleComfort)
		r.Post("/daily-reset", h.handleDailyReset)
	})
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.game.State())
}

func (h *Handler) handleGarden(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, view.NewGarden(h.game.State()))
}

func (h *Handler) handleSidebar(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, view.NewSidebar(h.game.State(), h.memory.LongTerm(), h.journal.List()))
}

func (h *Handler) handleAddSeeds(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Amount int    `json:"amount"`
		Reason string `json:"reason"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	state, err := h.game.AddSeeds(r.Context(), payload.Amount, payload.Reason)
	h.respond(w, state, err)
}

func (h *Handler) handleUnlockBadge(w http.ResponseWriter, r *http.Request) {
	state, unlocked, err := h.game.UnlockBadge(r.Context(), chi.URLParam(r, "badgeID"))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"unlocked": unlocked, "state": state})
}

func (h *Handler) handleClearRecentBadge(w http.ResponseWriter, r *http.Request) {
	state, err := h.game.ClearRecentBadge(r.Context())
	if err == nil && h.dismisser != nil {
		h.dismisser.DismissBadge()
	}
	h.respond(w, state, err)
}

func (h *Handler) handleMilestone(w http.ResponseWriter, r *http.Request) {
	state, err := h.game.UpdateQuestProgress(r.Context(), chi.URLParam(r, "questID"), chi.URLParam(r, "milestoneID"))
	h.respond(w, state, err)
}

func (h *Handler) handleTriggerAffirmation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message string `json:"message"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "message is required")
		return
	}
	state, err := h.game.TriggerAffirmation(r.Context(), payload.Message)
	h.respond(w, state, err)
}

func (h *Handler) handleClearAffirmation(w http.ResponseWriter, r *http.Request) {
	state, err := h.game.ClearAffirmation(r.Context())
	if err == nil && h.dismisser != nil {
		h.dismisser.DismissAffirmation()
	}
	h.respond(w, state, err)
}

func (h *Handler) handleComfort(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Item string `json:"item"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if strings.TrimSpace(payload.Item) == "" {
		utils.RespondError(w, http.StatusBadRequest, "item is required")
		return
	}
	state, err := h.game.GiveComfortItem(r.Context(), payload.Item)
	h.respond(w, state, err)
}

func (h *Handler) handleDailyReset(w http.ResponseWriter, r *http.Request) {
	state, reset, err := h.game.CheckDailyReset(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{"reset": reset, "state": state})
}

func (h *Handler) respond(w http.ResponseWriter, state any, err error) {
	if err != nil {
		if httperr.Status(err) == http.StatusInternalServerError {
			h.log.Error("gamification request failed", "error", err)
		}
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, state)
}
