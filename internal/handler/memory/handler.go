package memory

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/whispers/backend/internal/handler/httperr"
	memoryService "github.com/zhouzirui/whispers/backend/internal/service/memory"
	"github.com/zhouzirui/whispers/backend/pkg/utils"
)

// Handler 暴露记忆系统的只读视图与结束会话操作。
type Handler struct {
	memory *memoryService.Service
}

func New(memory *memoryService.Service) *Handler {
	return &Handler{memory: memory}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/memory", func(r chi.Router) {
		r.Get("/history", h.handleHistory)
		r.Get("/context", h.handleContext)
		r.Get("/notes", h.handleNotes)
		r.Get("/sessions", h.handleSessions)
		r.Post("/sessions/end", h.handleEndSession)
	})
}

func (h *Handler) handleHistory(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"sessionId": h.memory.CurrentSessionID(),
		"history":   h.memory.ConversationHistory(),
	})
}

func (h *Handler) handleContext(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.memory.ConversationContext())
}

func (h *Handler) handleNotes(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.memory.TherapyNotes())
}

func (h *Handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.memory.Sessions())
}

func (h *Handler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.memory.EndCurrentSession(r.Context())
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, map[string]any{
		"session":   session,
		"sessionId": h.memory.CurrentSessionID(),
	})
}
