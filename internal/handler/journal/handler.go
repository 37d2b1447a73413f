package journal

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/whispers/backend/internal/handler/httperr"
	companionService "github.com/zhouzirui/whispers/backend/internal/service/companion"
	journalService "github.com/zhouzirui/whispers/backend/internal/service/journal"
	"github.com/zhouzirui/whispers/backend/pkg/utils"
)

// Handler 日记列表与选择日记的HTTP处理器
type Handler struct {
	journal   *journalService.Service
	companion *companionService.Service
}

func New(journal *journalService.Service, companion *companionService.Service) *Handler {
	return &Handler{journal: journal, companion: companion}
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/journal", h.handleList)
	r.Post("/journal/{memoryID}/select", h.handleSelect)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	utils.RespondJSON(w, http.StatusOK, h.journal.List())
}

func (h *Handler) handleSelect(w http.ResponseWriter, r *http.Request) {
	conversationID := strings.TrimSpace(r.URL.Query().Get("conversation"))
	if conversationID == "" {
		utils.RespondError(w, http.StatusBadRequest, "conversation query parameter is required")
		return
	}
	msg, err := h.companion.SelectMemory(r.Context(), conversationID, chi.URLParam(r, "memoryID"))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, msg)
}
