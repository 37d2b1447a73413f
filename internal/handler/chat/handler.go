package chat

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/zhouzirui/whispers/backend/internal/handler/httperr"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	chatService "github.com/zhouzirui/whispers/backend/internal/service/chat"
	companionService "github.com/zhouzirui/whispers/backend/internal/service/companion"
	"github.com/zhouzirui/whispers/backend/pkg/utils"
)

// Handler 会话与消息的HTTP处理器
type Handler struct {
	chatSvc      *chatService.Service
	companionSvc *companionService.Service
	log          *logger.Logger
}

// New 创建聊天处理器
func New(chatSvc *chatService.Service, companionSvc *companionService.Service, log *logger.Logger) *Handler {
	return &Handler{
		chatSvc:      chatSvc,
		companionSvc: companionSvc,
		log:          log.With("handler", "chat"),
	}
}

// RegisterRoutes 注册聊天相关的路由
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/conversations", h.handleCreateConversation)
	r.Get("/conversations/{conversationID}/messages", h.handleTranscript)
	r.Post("/conversations/{conversationID}/messages", h.handleSend)
}

func (h *Handler) handleCreateConversation(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		PersonaID string `json:"personaId"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conv, messages, err := h.chatSvc.CreateConversation(r.Context(), payload.PersonaID)
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusCreated, map[string]any{
		"conversation": conv,
		"messages":     messages,
	})
}

func (h *Handler) handleTranscript(w http.ResponseWriter, r *http.Request) {
	messages, err := h.chatSvc.Transcript(r.Context(), chi.URLParam(r, "conversationID"))
	if err != nil {
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, messages)
}

func (h *Handler) handleSend(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text string `json:"text"`
	}
	if err := utils.DecodeJSON(r, &payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.companionSvc.Send(r.Context(), chi.URLParam(r, "conversationID"), payload.Text)
	if err != nil {
		if httperr.Status(err) == http.StatusInternalServerError {
			h.log.Error("send failed", "error", err)
		}
		httperr.Write(w, err)
		return
	}
	utils.RespondJSON(w, http.StatusOK, result)
}
